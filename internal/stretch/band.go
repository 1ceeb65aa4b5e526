package stretch

import (
	"math"

	"github.com/ayusman/stretchcam/internal/detector"
)

// Hysteresis thresholds on the difference between the left and right angles.
// A person at rest must open the gap to stretchGap to count as stretching, and
// must close it to restGap to count as back at rest.
const (
	stretchGap = 25 * math.Pi / 180
	restGap    = 5 * math.Pi / 180
)

// bandVariant is a stretch measured by comparing the same angle on both sides
// of the body, with a two-threshold band on their difference.
type bandVariant struct {
	name   string
	active string
	joints []detector.Joint

	// seedMax and seedMin are the initial extrema.
	seedMax, seedMin float64

	// measure returns the left and right angles.
	measure func(s *detector.Skeleton) (left, right float64, err error)

	// metric folds both side angles into the value tracked by the extrema.
	metric func(left, right float64) float64
}

func (b *bandVariant) Name() string             { return b.name }
func (b *bandVariant) Joints() []detector.Joint { return b.joints }
func (b *bandVariant) Seed() (float64, float64) { return b.seedMax, b.seedMin }

func (b *bandVariant) Label(p Phase) string {
	if p == PhaseActive {
		return b.active
	}
	return p.String()
}

func (b *bandVariant) Stretching(s *detector.Skeleton) (Reading, error) {
	return b.read(s, func(gap float64) bool { return gap >= stretchGap })
}

func (b *bandVariant) Resting(s *detector.Skeleton) (Reading, error) {
	return b.read(s, func(gap float64) bool { return gap <= restGap })
}

func (b *bandVariant) read(s *detector.Skeleton, holds func(gap float64) bool) (Reading, error) {
	left, right, err := b.measure(s)
	if err != nil {
		return Reading{}, err
	}
	return Reading{
		Metric:    b.metric(left, right),
		Satisfied: holds(math.Abs(left - right)),
	}, nil
}
