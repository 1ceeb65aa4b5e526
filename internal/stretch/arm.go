package stretch

import (
	"fmt"
	"image"
	"math"

	"github.com/ayusman/stretchcam/internal/detector"
)

// Absolute elbow-angle thresholds for the two arm postures.
const (
	yAngle = 150 * math.Pi / 180
	wAngle = 120 * math.Pi / 180
)

// Arm is the Y/W arm stretch. Arms straighten overhead into a Y, then fold
// down into a W; each Y back to W is one repetition.
//
// Unlike the band variants, both postures are absolute tests on each elbow
// angle rather than a gap between the sides.
type Arm struct{}

// NewArm returns the Y/W arm stretch.
func NewArm() Variant {
	return Arm{}
}

func (Arm) Name() string { return "arm" }

func (Arm) Joints() []detector.Joint {
	return []detector.Joint{
		detector.LeftShoulder, detector.LeftElbow, detector.LeftWrist,
		detector.RightShoulder, detector.RightElbow, detector.RightWrist,
	}
}

func (Arm) Seed() (float64, float64) { return math.Pi / 2, math.Pi }

func (Arm) Label(p Phase) string {
	switch p {
	case PhaseRest:
		return "W"
	case PhaseActive:
		return "Y"
	default:
		return p.String()
	}
}

// ReportsPhase includes the Y/W phase in the frame output.
func (Arm) ReportsPhase() bool { return true }

// Stretching tests for the Y: each arm runs outward and upward from the
// shoulder through the elbow to the wrist, and both elbows are near straight.
func (Arm) Stretching(s *detector.Skeleton) (Reading, error) {
	m, err := measureArms(s)
	if err != nil {
		return Reading{}, err
	}

	if !m.outward() || !m.left.raised(true) || !m.right.raised(true) {
		return Reading{}, fmt.Errorf("%w: arms not in Y (left %v, right %v)", ErrImplausible, m.left, m.right)
	}

	return Reading{
		Metric:    m.average(),
		Satisfied: m.leftAngle >= yAngle && m.rightAngle >= yAngle,
	}, nil
}

// Resting tests for the W: arms run outward from the shoulder with each wrist
// above its elbow, and both elbows are bent.
func (Arm) Resting(s *detector.Skeleton) (Reading, error) {
	m, err := measureArms(s)
	if err != nil {
		return Reading{}, err
	}

	if !m.outward() || !m.left.raised(false) || !m.right.raised(false) {
		return Reading{}, fmt.Errorf("%w: arms not in W (left %v, right %v)", ErrImplausible, m.left, m.right)
	}

	return Reading{
		Metric:    m.average(),
		Satisfied: m.leftAngle <= wAngle && m.rightAngle <= wAngle,
	}, nil
}

// limb is one arm's shoulder, elbow and wrist.
type limb struct {
	shoulder, elbow, wrist image.Point
}

func (l limb) String() string {
	return fmt.Sprintf("shoulder %v elbow %v wrist %v", l.shoulder, l.elbow, l.wrist)
}

// raised reports whether the wrist is at or above the elbow and, when
// elbowUp is set, the elbow at or above the shoulder. Image y grows downward.
func (l limb) raised(elbowUp bool) bool {
	if l.wrist.Y > l.elbow.Y {
		return false
	}
	return !elbowUp || l.elbow.Y <= l.shoulder.Y
}

type armMeasure struct {
	left, right           limb
	leftAngle, rightAngle float64
}

func measureArms(s *detector.Skeleton) (armMeasure, error) {
	p, err := joints(s,
		detector.LeftShoulder, detector.LeftElbow, detector.LeftWrist,
		detector.RightShoulder, detector.RightElbow, detector.RightWrist,
	)
	if err != nil {
		return armMeasure{}, err
	}

	m := armMeasure{
		left:  limb{shoulder: p[0], elbow: p[1], wrist: p[2]},
		right: limb{shoulder: p[3], elbow: p[4], wrist: p[5]},
	}

	m.leftAngle, m.rightAngle, err = sideAngles(
		[2]image.Point{m.left.shoulder.Sub(m.left.elbow), m.left.wrist.Sub(m.left.elbow)},
		[2]image.Point{m.right.shoulder.Sub(m.right.elbow), m.right.wrist.Sub(m.right.elbow)},
	)
	if err != nil {
		return armMeasure{}, err
	}
	return m, nil
}

// outward reports whether the left arm runs toward increasing x and the right
// arm toward decreasing x, shoulder to elbow to wrist.
func (m armMeasure) outward() bool {
	l, r := m.left, m.right
	return l.shoulder.X <= l.elbow.X && l.elbow.X <= l.wrist.X &&
		r.wrist.X <= r.elbow.X && r.elbow.X <= r.shoulder.X
}

func (m armMeasure) average() float64 {
	return (m.leftAngle + m.rightAngle) / 2
}
