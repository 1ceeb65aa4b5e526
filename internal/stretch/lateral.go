package stretch

import (
	"fmt"
	"image"
	"math"

	"github.com/ayusman/stretchcam/internal/detector"
)

// NewLateral returns the side-lean stretch: arms overhead, the torso bends left
// and right. Each side's angle is taken at the hip between the shoulder and
// the opposite hip. The extrema track the larger deviation from upright.
func NewLateral() Variant {
	return &bandVariant{
		name:   "side",
		active: "lean",
		joints: []detector.Joint{
			detector.LeftShoulder, detector.RightShoulder,
			detector.LeftHip, detector.RightHip,
			detector.LeftElbow, detector.RightElbow,
			detector.LeftWrist, detector.RightWrist,
		},
		seedMax: 0,
		seedMin: math.Pi / 2,
		measure: measureLateral,
		metric: func(left, right float64) float64 {
			return math.Max(math.Abs(left-math.Pi/2), math.Abs(right-math.Pi/2))
		},
	}
}

func measureLateral(s *detector.Skeleton) (float64, float64, error) {
	p, err := joints(s, detector.LeftShoulder, detector.RightShoulder, detector.LeftHip, detector.RightHip)
	if err != nil {
		return 0, 0, err
	}
	ls, rs, lh, rh := p[0], p[1], p[2], p[3]

	left, right, err := sideAngles(
		[2]image.Point{ls.Sub(lh), rh.Sub(lh)},
		[2]image.Point{rs.Sub(rh), lh.Sub(rh)},
	)
	if err != nil {
		return 0, 0, err
	}

	// Arms must be raised. Elbows and wrists are optional but, when seen,
	// may not sit below their shoulder.
	for _, arm := range [...]struct {
		shoulder image.Point
		joints   [2]detector.Joint
	}{
		{ls, [2]detector.Joint{detector.LeftElbow, detector.LeftWrist}},
		{rs, [2]detector.Joint{detector.RightElbow, detector.RightWrist}},
	} {
		for _, j := range arm.joints {
			if pt, ok := s.Joint(j); ok && pt.Y > arm.shoulder.Y {
				return 0, 0, fmt.Errorf("%w: %s at %v below shoulder at %v", ErrImplausible, j, pt, arm.shoulder)
			}
		}
	}

	return left, right, nil
}
