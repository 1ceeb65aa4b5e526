// Package stretch classifies repeated stretch motions per tracked person and
// counts completed repetitions.
//
// Each person moves through a three-phase machine: setup on first sighting,
// then between a rest posture and an active stretch posture. Leaving setup
// requires the rest posture. Entering the active posture is tested only from
// rest, and a repetition is counted each time the active posture returns to rest.
package stretch

import (
	"math"

	"github.com/ayusman/stretchcam/internal/detector"
)

// Phase is the classification bucket a tracked person is currently in.
type Phase int

const (
	// PhaseSetup is the phase of a person seen for the first time. It is left
	// once the rest posture is recognized and never re-entered.
	PhaseSetup Phase = iota
	// PhaseRest is the rest posture (W for the arm stretch).
	PhaseRest
	// PhaseActive is the target stretch posture (lean, tilt, or Y).
	PhaseActive
)

// String returns the variant-neutral name of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseSetup:
		return "setup"
	case PhaseRest:
		return "rest"
	case PhaseActive:
		return "active"
	default:
		return "unknown"
	}
}

// Record is the stretch state of one tracked person.
type Record struct {
	Phase    Phase
	MaxAngle float64
	MinAngle float64
	Reps     int
}

func newRecord(v Variant) *Record {
	maxAngle, minAngle := v.Seed()
	return &Record{
		Phase:    PhaseSetup,
		MaxAngle: maxAngle,
		MinAngle: minAngle,
	}
}

// advance runs one frame of the state machine against skeleton s.
//
// While at rest only the stretch test is evaluated; in any other phase only
// the rest test is. A reading widens the extrema unless the record is still in
// setup. Errors leave the record untouched.
func (r *Record) advance(v Variant, s *detector.Skeleton) error {
	test := v.Resting
	if r.Phase == PhaseRest {
		test = v.Stretching
	}

	reading, err := test(s)
	if err != nil {
		return err
	}

	if r.Phase != PhaseSetup {
		r.MaxAngle = math.Max(r.MaxAngle, reading.Metric)
		r.MinAngle = math.Min(r.MinAngle, reading.Metric)
	}

	if !reading.Satisfied {
		return nil
	}

	switch r.Phase {
	case PhaseRest:
		r.Phase = PhaseActive
	case PhaseActive:
		r.Reps++
		r.Phase = PhaseRest
	default:
		r.Phase = PhaseRest
	}
	return nil
}
