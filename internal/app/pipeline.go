package app

import (
	"errors"
	"fmt"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/stretchcam/internal/capture"
	"github.com/ayusman/stretchcam/internal/detector"
	"github.com/ayusman/stretchcam/internal/overlay"
	"github.com/ayusman/stretchcam/internal/stretch"
)

// ErrEmptyFrame is returned by ProcessFrame for a nil or empty frame.
var ErrEmptyFrame = errors.New("empty frame")

// runPipeline reads frames until stopCh closes or a file source runs out.
//
// Every frame read is processed; the activity monitor only sets the pace.
// Capture runs at the configured rate while someone moves and drops to
// IdleFPS after IdleTimeoutMs of stillness.
func (a *App) runPipeline(stopCh <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	camera := a.Camera()
	activeFPS := camera.FPS()
	if activeFPS <= 0 {
		activeFPS = capture.DefaultFPS
	}
	active := true
	lastMotion := time.Now()

	ticker := time.NewTicker(time.Second / time.Duration(activeFPS))
	defer ticker.Stop()

	setPace := func(fps int) {
		camera.SetFPS(fps)
		ticker.Reset(time.Second / time.Duration(fps))
	}

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			if !a.IsEnabled() {
				continue
			}

			frame, err := camera.ReadFrame()
			if errors.Is(err, capture.ErrEndOfStream) {
				a.logger.Info("video source exhausted")
				return
			}
			if err != nil {
				a.logger.Warn("error reading frame", "error", err)
				continue
			}

			moving, changed := a.activity.Observe(frame)
			switch {
			case moving:
				lastMotion = time.Now()
				if !active {
					active = true
					setPace(activeFPS)
					a.logger.Debug("switched to active pace", "changed", changed)
				}
			case active && time.Since(lastMotion) > IdleTimeoutMs*time.Millisecond:
				active = false
				setPace(IdleFPS)
				a.logger.Debug("switched to idle pace")
			}

			if _, err := a.ProcessFrame(frame); err != nil {
				a.logger.Warn("frame not processed", "error", err)
			}
			frame.Close()
		}
	}
}

// ProcessFrame runs one frame through pose detection and the stretch engine,
// draws the per-person score onto frame, appends the scores to the relay and
// notifies subscribers. It returns the engine output after the frame.
func (a *App) ProcessFrame(frame *gocv.Mat) (stretch.Output, error) {
	if frame == nil || frame.Empty() {
		return stretch.Output{}, ErrEmptyFrame
	}

	people, err := a.Detector().Detect(frame)
	if err != nil {
		return stretch.Output{}, fmt.Errorf("pose detection failed: %w", err)
	}

	input, annotations := toFrame(frame, people)

	a.frameMu.Lock()
	a.ensureSession()
	out := a.engine.Process(input)
	points := overlay.Draw(frame, annotations, out)
	a.keepLatest(frame)
	a.frames++
	stats := a.statsLocked(out)
	watchers := a.watchers
	a.frameMu.Unlock()

	if err := a.relay.Append(points); err != nil {
		a.logger.Warn("failed to append scores", "error", err)
	}

	for _, fn := range watchers {
		fn(stats)
	}

	return out, nil
}

// toFrame converts detector output into engine input and overlay placements.
func toFrame(frame *gocv.Mat, people []detector.Person) (stretch.Frame, []overlay.Annotation) {
	input := stretch.Frame{
		Image:     &stretch.Dimensions{Width: frame.Cols(), Height: frame.Rows()},
		IDs:       make([]int, len(people)),
		Keypoints: make([][]*detector.Point2D, len(people)),
	}
	annotations := make([]overlay.Annotation, len(people))

	for i, p := range people {
		input.IDs[i] = p.ID
		input.Keypoints[i] = p.Keypoints
		annotations[i] = overlay.Annotation{ID: p.ID, BBox: p.BBox}
	}
	return input, annotations
}

// keepLatest replaces the retained frame with a copy of frame.
func (a *App) keepLatest(frame *gocv.Mat) {
	if a.latest != nil {
		a.latest.Close()
	}
	clone := frame.Clone()
	a.latest = &clone
}
