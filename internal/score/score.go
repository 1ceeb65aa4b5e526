// Package score turns a person's stretch extrema and repetitions into the
// figures shown on screen and posted at the end of a session.
package score

import (
	"fmt"
	"math"

	"github.com/ayusman/stretchcam/internal/stretch"
)

// Defaults for identities missing from an output.
const (
	DefaultMaxAngle = 0
	DefaultMinAngle = math.Pi
	DefaultReps     = 0
)

// pointsPerRep is the number of points a full-range repetition is worth.
const pointsPerRep = 10

// Ratio is the range of motion as a fraction of a half turn, clamped to [0, 1].
func Ratio(maxAngle, minAngle float64) float64 {
	return math.Max(math.Min(maxAngle-minAngle, math.Pi), 0) / math.Pi
}

// Points weights the repetitions by the range of motion. Halves round away from zero.
func Points(maxAngle, minAngle float64, reps int) int {
	return int(math.Round(Ratio(maxAngle, minAngle) * float64(reps) * pointsPerRep))
}

// Label formats the range of motion as a percentage, or "-" while the extrema
// have not crossed yet.
func Label(maxAngle, minAngle float64) string {
	if maxAngle < minAngle {
		return "-"
	}
	return fmt.Sprintf("%0.2f%%", Ratio(maxAngle, minAngle)*100)
}

// Entry is one person's figures.
type Entry struct {
	ID     int
	Reps   int
	Ratio  float64
	Points int
	Label  string
}

// For returns the figures for person id in out, using the defaults for
// anything the output does not carry.
func For(out stretch.Output, id int) Entry {
	maxAngle, ok := out.MaxAngle[id]
	if !ok {
		maxAngle = DefaultMaxAngle
	}
	minAngle, ok := out.MinAngle[id]
	if !ok {
		minAngle = DefaultMinAngle
	}
	reps, ok := out.Reps[id]
	if !ok {
		reps = DefaultReps
	}

	return Entry{
		ID:     id,
		Reps:   reps,
		Ratio:  Ratio(maxAngle, minAngle),
		Points: Points(maxAngle, minAngle, reps),
		Label:  Label(maxAngle, minAngle),
	}
}

// All returns the points of every person in out.
func All(out stretch.Output) map[int]int {
	points := make(map[int]int, len(out.Reps))
	for id := range out.Reps {
		points[id] = For(out, id).Points
	}
	return points
}
