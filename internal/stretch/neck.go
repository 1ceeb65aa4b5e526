package stretch

import (
	"image"
	"math"

	"github.com/ayusman/stretchcam/internal/detector"
)

// NewNeck returns the middle scalene stretch: the head tilts toward one
// shoulder, then the other. Each side's angle is taken at the shoulder between
// the nose and the opposite shoulder. The extrema track the larger side angle.
func NewNeck() Variant {
	return &bandVariant{
		name:    "neck",
		active:  "tilt",
		joints:  []detector.Joint{detector.Nose, detector.LeftShoulder, detector.RightShoulder},
		seedMax: 0,
		seedMin: math.Pi / 2,
		measure: measureNeck,
		metric:  math.Max,
	}
}

func measureNeck(s *detector.Skeleton) (float64, float64, error) {
	p, err := joints(s, detector.Nose, detector.LeftShoulder, detector.RightShoulder)
	if err != nil {
		return 0, 0, err
	}
	nose, ls, rs := p[0], p[1], p[2]

	return sideAngles(
		[2]image.Point{ls.Sub(nose), rs.Sub(ls)},
		[2]image.Point{rs.Sub(nose), ls.Sub(rs)},
	)
}
