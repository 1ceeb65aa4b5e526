// Package app runs the stretchcam pipeline: camera frames go through pose
// detection into the stretch engine, get annotated, and feed the score relay,
// the live stats and the session history.
package app

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"gocv.io/x/gocv"

	"github.com/ayusman/stretchcam/internal/capture"
	"github.com/ayusman/stretchcam/internal/detector"
	"github.com/ayusman/stretchcam/internal/log"
	"github.com/ayusman/stretchcam/internal/relay"
	"github.com/ayusman/stretchcam/internal/store"
	"github.com/ayusman/stretchcam/internal/stretch"
)

// Pipeline timing constants.
const (
	// IdleFPS is the frame rate while nobody in view is moving.
	IdleFPS = 5
	// IdleTimeoutMs is how long the scene must stay still before dropping to IdleFPS.
	IdleTimeoutMs = 3000
)

// ErrNoFrame is returned by LatestFrame before any frame has been processed.
var ErrNoFrame = errors.New("no frame processed yet")

// Config holds configuration options for the application.
type Config struct {
	Exercise  string
	Camera    capture.Config
	Detector  detector.Config
	Activity  capture.ActivityConfig
	Store     *store.Store
	RelayPath string
	Logger    *slog.Logger
}

// DefaultConfig returns the settings for the side stretch on the first webcam,
// without session history.
func DefaultConfig() Config {
	return Config{
		Exercise:  "side",
		Camera:    capture.DefaultConfig(),
		Detector:  detector.DefaultConfig(),
		Activity:  capture.DefaultActivityConfig(),
		RelayPath: relay.DefaultFile,
	}
}

// App is the main application that orchestrates stretch tracking.
type App struct {
	config   Config
	logger   *slog.Logger
	camera   capture.Camera
	activity *capture.ActivityMonitor
	detector detector.Detector
	relay    *relay.Writer
	enabled  bool
	stopCh   chan struct{}
	done     chan struct{}
	mu       sync.RWMutex

	// Guarded by frameMu: the engine and session belong to whoever is
	// processing a frame.
	frameMu  sync.Mutex
	engine   *stretch.Engine
	session  *store.Session
	latest   *gocv.Mat
	frames   int
	watchers []func(Stats)
}

// New creates a new App for cfg.Exercise.
func New(config Config) (*App, error) {
	v, err := stretch.Lookup(config.Exercise)
	if err != nil {
		return nil, err
	}

	logger := config.Logger
	if logger == nil {
		logger = log.L()
	}
	if config.RelayPath == "" {
		config.RelayPath = relay.DefaultFile
	}

	a := &App{
		config:   config,
		logger:   logger,
		camera:   capture.NewCamera(config.Camera),
		activity: capture.NewActivityMonitor(config.Activity),
		relay:    relay.NewWriter(config.RelayPath),
		enabled:  true,
		engine:   stretch.NewEngine(v, logger),
	}

	// Try the pose service first, fall back to the mock detector
	if ps, err := detector.NewPoseServiceDetector(config.Detector); err == nil {
		a.detector = ps
		logger.Info("using pose service", "model", config.Detector.Model)
	} else {
		logger.Warn("pose service not available, using mock detector", "error", err)
		a.detector = detector.NewMockDetector()
	}

	return a, nil
}

// SetEnabled pauses or resumes frame processing.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.enabled = enabled
}

// IsEnabled returns whether frames are being processed.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// SetDetector sets the pose detector implementation to use.
func (a *App) SetDetector(d detector.Detector) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.detector = d
}

// Detector returns the pose detector.
func (a *App) Detector() detector.Detector {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.detector
}

// SetCamera replaces the frame source. It must be called before Start.
func (a *App) SetCamera(c capture.Camera) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.camera = c
}

// Camera returns the frame source.
func (a *App) Camera() capture.Camera {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.camera
}

// RelayPath returns where per-frame scores are appended.
func (a *App) RelayPath() string {
	return a.relay.Path()
}

// Exercise returns the name of the exercise being tracked.
func (a *App) Exercise() string {
	a.frameMu.Lock()
	defer a.frameMu.Unlock()
	return a.engine.Variant().Name()
}

// SetExercise switches to another exercise. The running session is saved and
// the next frame starts a new one with fresh per-person state.
func (a *App) SetExercise(name string) error {
	v, err := stretch.Lookup(name)
	if err != nil {
		return err
	}

	a.frameMu.Lock()
	defer a.frameMu.Unlock()

	if a.engine.Variant().Name() == name {
		return nil
	}

	finishErr := a.finishSession()
	a.engine = stretch.NewEngine(v, a.logger)

	if a.config.Store != nil {
		if err := a.config.Store.Settings().Set(store.SettingExercise, name); err != nil {
			a.logger.Warn("failed to remember exercise", "error", err)
		}
	}

	a.logger.Info("exercise changed", "exercise", name)
	return finishErr
}

// Snapshot returns the current stats without processing a frame.
func (a *App) Snapshot() Stats {
	a.frameMu.Lock()
	defer a.frameMu.Unlock()
	return a.statsLocked(a.engine.Snapshot())
}

// Subscribe registers fn to receive stats after every processed frame.
// fn runs on the pipeline goroutine and must not block.
func (a *App) Subscribe(fn func(Stats)) {
	a.frameMu.Lock()
	defer a.frameMu.Unlock()
	a.watchers = append(a.watchers, fn)
}

// LatestFrame returns a copy of the most recent annotated frame.
// The caller is responsible for closing it.
func (a *App) LatestFrame() (*gocv.Mat, error) {
	a.frameMu.Lock()
	defer a.frameMu.Unlock()

	if a.latest == nil {
		return nil, ErrNoFrame
	}
	frame := a.latest.Clone()
	return &frame, nil
}

// Start opens the camera and begins the pipeline loop.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Don't start if already running
	if a.stopCh != nil {
		return nil
	}

	if err := a.camera.Open(); err != nil {
		return fmt.Errorf("failed to open camera: %w", err)
	}

	a.stopCh = make(chan struct{})
	a.done = make(chan struct{})
	go a.runPipeline(a.stopCh, a.done)

	a.logger.Info("stretch pipeline started", "fps", a.camera.FPS())
	return nil
}

// Done is closed when the pipeline loop exits, either through Stop or at the
// end of a file source. It is nil before Start.
func (a *App) Done() <-chan struct{} {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.done
}

// Stop halts the pipeline, saves the running session and releases resources.
func (a *App) Stop() error {
	a.mu.Lock()
	stopCh, done := a.stopCh, a.done
	a.stopCh = nil
	a.mu.Unlock()

	if stopCh != nil {
		close(stopCh)
		<-done
	}

	if err := a.Camera().Close(); err != nil {
		a.logger.Warn("error closing camera", "error", err)
	}
	a.activity.Close()

	if d := a.Detector(); d != nil {
		if err := d.Close(); err != nil {
			a.logger.Warn("error closing detector", "error", err)
		}
	}

	a.frameMu.Lock()
	defer a.frameMu.Unlock()

	if a.latest != nil {
		a.latest.Close()
		a.latest = nil
	}

	err := a.finishSession()
	a.logger.Info("stretch pipeline stopped", "frames", a.frames)
	return err
}
