// Package capture reads video frames for the stretch pipeline using GoCV (OpenCV).
package capture

import (
	"errors"
	"fmt"
	"strconv"
	"sync"

	"gocv.io/x/gocv"
)

// Default capture settings.
const (
	DefaultFPS    = 15
	DefaultWidth  = 640
	DefaultHeight = 480
)

var (
	// ErrCameraNotOpen is returned when trying to read from a camera that is not open.
	ErrCameraNotOpen = errors.New("camera is not open")

	// ErrEndOfStream is returned when a file source or a non-looping mock has no frames left.
	ErrEndOfStream = errors.New("end of stream")
)

// Camera defines the interface for frame sources.
type Camera interface {
	Open() error
	Close() error
	ReadFrame() (*gocv.Mat, error)
	SetFPS(fps int)
	FPS() int
	IsOpen() bool
}

// Config describes where frames come from.
type Config struct {
	// Source is a device index ("0"), a video file path, or a stream URL.
	Source string
	Width  int
	Height int
	FPS    int
}

// DefaultConfig returns the settings for the first attached webcam.
func DefaultConfig() Config {
	return Config{
		Source: "0",
		Width:  DefaultWidth,
		Height: DefaultHeight,
		FPS:    DefaultFPS,
	}
}

// DeviceConfig returns the default settings for webcam deviceID.
func DeviceConfig(deviceID int) Config {
	cfg := DefaultConfig()
	cfg.Source = strconv.Itoa(deviceID)
	return cfg
}

// device returns the webcam index when Source names one.
func (c Config) device() (int, bool) {
	id, err := strconv.Atoi(c.Source)
	return id, err == nil
}

// videoCamera reads frames from a webcam, file or stream through gocv.VideoCapture.
type videoCamera struct {
	cfg     Config
	capture *gocv.VideoCapture
	mu      sync.Mutex
	running bool
}

// NewCamera creates a Camera for cfg. Zero sizes and rates take the defaults.
func NewCamera(cfg Config) Camera {
	if cfg.Source == "" {
		cfg.Source = DefaultConfig().Source
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		cfg.Width, cfg.Height = DefaultWidth, DefaultHeight
	}
	if cfg.FPS <= 0 {
		cfg.FPS = DefaultFPS
	}
	return &videoCamera{cfg: cfg}
}

// Open starts capturing. Webcams are asked for the configured size and rate;
// files and streams keep their own.
func (c *videoCamera) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return nil
	}

	var (
		capture *gocv.VideoCapture
		err     error
	)
	if id, ok := c.cfg.device(); ok {
		capture, err = gocv.OpenVideoCapture(id)
	} else {
		capture, err = gocv.OpenVideoCapture(c.cfg.Source)
	}
	if err != nil {
		return fmt.Errorf("failed to open video source %q: %w", c.cfg.Source, err)
	}

	if _, ok := c.cfg.device(); ok {
		capture.Set(gocv.VideoCaptureFrameWidth, float64(c.cfg.Width))
		capture.Set(gocv.VideoCaptureFrameHeight, float64(c.cfg.Height))
		capture.Set(gocv.VideoCaptureFPS, float64(c.cfg.FPS))
	}

	c.capture = capture
	c.running = true

	return nil
}

// Close closes the source and releases resources.
func (c *videoCamera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		c.running = false
		return nil
	}

	err := c.capture.Close()
	c.capture = nil
	c.running = false

	return err
}

// ReadFrame reads a single frame. The caller is responsible for closing the returned Mat.
func (c *videoCamera) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		return nil, ErrCameraNotOpen
	}

	mat := gocv.NewMat()
	if ok := c.capture.Read(&mat); !ok {
		mat.Close()
		if _, isDevice := c.cfg.device(); !isDevice {
			return nil, ErrEndOfStream
		}
		return nil, errors.New("failed to read frame from camera")
	}

	if mat.Empty() {
		mat.Close()
		return nil, errors.New("captured frame is empty")
	}

	return &mat, nil
}

// SetFPS sets the capture rate. Values less than or equal to 0 are ignored.
func (c *videoCamera) SetFPS(fps int) {
	if fps <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.cfg.FPS = fps

	if c.capture != nil {
		c.capture.Set(gocv.VideoCaptureFPS, float64(fps))
	}
}

// FPS returns the current capture rate.
func (c *videoCamera) FPS() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.cfg.FPS
}

// IsOpen returns true if the source is currently open.
func (c *videoCamera) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.running
}
