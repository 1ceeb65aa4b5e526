package capture

import (
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// ActivityConfig tunes scene-change detection.
type ActivityConfig struct {
	// Threshold is the percentage of pixels that must change between frames
	// for the scene to count as active.
	Threshold float64
	// BlurSize is the Gaussian kernel side used to suppress sensor noise. Must be odd.
	BlurSize int
	// PixelDelta is the grey-level difference a pixel needs to count as changed.
	PixelDelta float32
}

// DefaultActivityConfig returns settings tuned for a person stretching in front of a webcam.
func DefaultActivityConfig() ActivityConfig {
	return ActivityConfig{
		Threshold:  1.0,
		BlurSize:   21,
		PixelDelta: 25,
	}
}

// ActivityMonitor compares consecutive frames to tell whether anyone in view
// is moving. The pipeline uses it to slow capture down while the scene is still.
type ActivityMonitor struct {
	cfg      ActivityConfig
	previous gocv.Mat
	primed   bool
	mu       sync.Mutex
}

// NewActivityMonitor creates a monitor. Zero fields in cfg take the defaults.
func NewActivityMonitor(cfg ActivityConfig) *ActivityMonitor {
	def := DefaultActivityConfig()
	if cfg.Threshold <= 0 {
		cfg.Threshold = def.Threshold
	}
	if cfg.BlurSize <= 0 || cfg.BlurSize%2 == 0 {
		cfg.BlurSize = def.BlurSize
	}
	if cfg.PixelDelta <= 0 {
		cfg.PixelDelta = def.PixelDelta
	}
	return &ActivityMonitor{cfg: cfg, previous: gocv.NewMat()}
}

// Observe reports whether frame differs from the previous one by more than the
// threshold, along with the changed percentage. The first frame, and any frame
// whose size differs from the previous one, only sets the baseline.
func (m *ActivityMonitor) Observe(frame *gocv.Mat) (bool, float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if frame == nil || frame.Empty() {
		return false, 0
	}

	gray := gocv.NewMat()
	defer gray.Close()
	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	blurred := gocv.NewMat()
	gocv.GaussianBlur(gray, &blurred, image.Pt(m.cfg.BlurSize, m.cfg.BlurSize), 0, 0, gocv.BorderDefault)

	if !m.primed || blurred.Rows() != m.previous.Rows() || blurred.Cols() != m.previous.Cols() {
		m.swap(blurred)
		return false, 0
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(blurred, m.previous, &diff)

	changed := gocv.NewMat()
	defer changed.Close()
	gocv.Threshold(diff, &changed, m.cfg.PixelDelta, 255, gocv.ThresholdBinary)

	percent := float64(gocv.CountNonZero(changed)) / float64(changed.Rows()*changed.Cols()) * 100
	m.swap(blurred)

	return percent > m.cfg.Threshold, percent
}

// swap makes next the baseline and takes ownership of it.
func (m *ActivityMonitor) swap(next gocv.Mat) {
	m.previous.Close()
	m.previous = next
	m.primed = true
}

// Reset forgets the baseline.
func (m *ActivityMonitor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.previous.Close()
	m.previous = gocv.NewMat()
	m.primed = false
}

// Close releases the baseline frame.
func (m *ActivityMonitor) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.previous.Close()
	m.primed = false
}
