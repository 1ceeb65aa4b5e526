package stretch

import (
	"errors"
	"fmt"
	"image"

	"github.com/ayusman/stretchcam/internal/detector"
	"github.com/ayusman/stretchcam/internal/geometry"
)

var (
	// ErrMissingJoint is returned when a joint a posture test needs was not localized.
	ErrMissingJoint = errors.New("missing joint")

	// ErrImplausible is returned when the joints fail a posture's sanity check,
	// such as an arm hanging below the shoulder when it should be raised.
	ErrImplausible = errors.New("implausible posture")
)

// Reading is the outcome of one posture test.
type Reading struct {
	// Metric is the angle folded into the running extrema, in radians.
	Metric float64

	// Satisfied reports whether the tested posture holds.
	Satisfied bool
}

// Variant is one kind of stretch exercise.
type Variant interface {
	// Name is the short exercise name used on the command line and in storage.
	Name() string

	// Joints lists the joints the variant reads.
	Joints() []detector.Joint

	// Seed returns the initial extrema for a new record: a low maximum and a high minimum.
	Seed() (maxAngle, minAngle float64)

	// Label names a phase the way the exercise describes it.
	Label(p Phase) string

	// Stretching tests for the active stretch posture. It is used while at rest.
	Stretching(s *detector.Skeleton) (Reading, error)

	// Resting tests for the rest posture. It is used in every other phase.
	Resting(s *detector.Skeleton) (Reading, error)
}

// phaseReporter is implemented by variants whose phase is part of the frame output.
type phaseReporter interface {
	ReportsPhase() bool
}

func reportsPhase(v Variant) bool {
	r, ok := v.(phaseReporter)
	return ok && r.ReportsPhase()
}

// Variants returns every supported exercise, keyed by name.
func Variants() map[string]Variant {
	variants := []Variant{NewLateral(), NewNeck(), NewArm()}
	m := make(map[string]Variant, len(variants))
	for _, v := range variants {
		m[v.Name()] = v
	}
	return m
}

// Lookup returns the exercise with the given name.
func Lookup(name string) (Variant, error) {
	v, ok := Variants()[name]
	if !ok {
		return nil, fmt.Errorf("unknown exercise %q", name)
	}
	return v, nil
}

// joints fetches every named joint from s, or fails with ErrMissingJoint naming the first absent one.
func joints(s *detector.Skeleton, names ...detector.Joint) ([]image.Point, error) {
	points := make([]image.Point, len(names))
	for i, j := range names {
		p, ok := s.Joint(j)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingJoint, j)
		}
		points[i] = p
	}
	return points, nil
}

// sideAngles measures the left and right angles of a symmetric posture.
// Each side's angle is taken between two vectors; a degenerate side fails the whole measurement.
func sideAngles(left, right [2]image.Point) (float64, float64, error) {
	l, err := geometry.Angle(left[0], left[1])
	if err != nil {
		return 0, 0, fmt.Errorf("left side: %w", err)
	}
	r, err := geometry.Angle(right[0], right[1])
	if err != nil {
		return 0, 0, fmt.Errorf("right side: %w", err)
	}
	return l, r, nil
}
