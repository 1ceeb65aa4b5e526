package stretch

import (
	"errors"
	"log/slog"
	"sort"

	"github.com/ayusman/stretchcam/internal/detector"
	"github.com/ayusman/stretchcam/internal/geometry"
	"github.com/ayusman/stretchcam/internal/log"
)

// Dimensions is the pixel size of a frame.
type Dimensions struct {
	Width  int
	Height int
}

// Frame is one frame of tracked poses.
type Frame struct {
	// Image carries the frame size. A nil Image means the frame is unusable.
	Image *Dimensions

	// IDs holds the tracker identity of each person, parallel to Keypoints.
	// Nil means the tracker supplied nothing for this frame.
	IDs []int

	// Keypoints holds each person's normalized joints in detector.Joint order.
	// Nil means the pose model supplied nothing for this frame.
	Keypoints [][]*detector.Point2D
}

// Output is the state of every person an engine has seen.
type Output struct {
	MaxAngle map[int]float64 `json:"max_angle"`
	MinAngle map[int]float64 `json:"min_angle"`
	Reps     map[int]int     `json:"reps"`

	// Phase holds phase labels for variants that report them, nil otherwise.
	Phase map[int]string `json:"phase,omitempty"`
}

func newOutput(withPhase bool, size int) Output {
	out := Output{
		MaxAngle: make(map[int]float64, size),
		MinAngle: make(map[int]float64, size),
		Reps:     make(map[int]int, size),
	}
	if withPhase {
		out.Phase = make(map[int]string, size)
	}
	return out
}

// Engine tracks the stretch state of every person in one session of one
// exercise. An Engine is not safe for concurrent use; give each session its own.
type Engine struct {
	variant Variant
	logger  *slog.Logger
	records map[int]*Record
}

// NewEngine creates an engine for variant v. A nil logger uses the global logger.
func NewEngine(v Variant, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = log.L()
	}
	return &Engine{
		variant: v,
		logger:  logger.With("exercise", v.Name()),
		records: make(map[int]*Record),
	}
}

// Variant returns the exercise this engine classifies.
func (e *Engine) Variant() Variant {
	return e.variant
}

// Process classifies every person in f and returns the state of everyone seen
// so far, including people absent from f.
func (e *Engine) Process(f Frame) Output {
	if f.Image == nil {
		e.logger.Error("frame has no image")
		return newOutput(reportsPhase(e.variant), 0)
	}

	if f.IDs == nil {
		e.logger.Warn("frame has no tracking ids")
	}
	if f.Keypoints == nil {
		e.logger.Warn("frame has no keypoints")
	}

	n := min(len(f.IDs), len(f.Keypoints))
	for i := 0; i < n; i++ {
		skeleton := detector.ResolveSkeleton(f.Keypoints[i], f.Image.Width, f.Image.Height)
		e.step(f.IDs[i], &skeleton)
	}

	return e.Snapshot()
}

func (e *Engine) step(id int, s *detector.Skeleton) {
	r, ok := e.records[id]
	if !ok {
		r = newRecord(e.variant)
		e.records[id] = r
		e.logger.Debug("tracking new person", "id", id)
	}

	from := r.Phase
	err := r.advance(e.variant, s)
	switch {
	case err == nil:
	case errors.Is(err, geometry.ErrDegenerate):
		e.logger.Error("angle measurement failed", "id", id, "phase", e.variant.Label(from), "error", err)
		return
	default:
		e.logger.Debug("posture not evaluated", "id", id, "phase", e.variant.Label(from), "reason", err)
		return
	}

	if r.Phase != from {
		e.logger.Debug("phase changed", "id", id,
			"from", e.variant.Label(from), "to", e.variant.Label(r.Phase), "reps", r.Reps)
	}
}

// Snapshot returns the state of every person seen so far without changing it.
func (e *Engine) Snapshot() Output {
	out := newOutput(reportsPhase(e.variant), len(e.records))
	for id, r := range e.records {
		out.MaxAngle[id] = r.MaxAngle
		out.MinAngle[id] = r.MinAngle
		out.Reps[id] = r.Reps
		if out.Phase != nil {
			out.Phase[id] = e.variant.Label(r.Phase)
		}
	}
	return out
}

// Record returns a copy of the state of person id.
func (e *Engine) Record(id int) (Record, bool) {
	r, ok := e.records[id]
	if !ok {
		return Record{}, false
	}
	return *r, true
}

// IDs returns every identity seen so far in ascending order.
func (e *Engine) IDs() []int {
	ids := make([]int, 0, len(e.records))
	for id := range e.records {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
