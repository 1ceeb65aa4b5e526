package detector

import "gocv.io/x/gocv"

// Person is one tracked body in a frame.
type Person struct {
	// ID is the tracker identity, stable across frames for the same person.
	ID int `json:"id"`

	// Keypoints holds the normalized joint positions in Joint order.
	// A nil entry is a joint that was not localized.
	Keypoints []*Point2D `json:"keypoints"`

	// BBox is the normalized bounding box as x1, y1, x2, y2.
	BBox [4]float64 `json:"bbox"`
}

// Detector defines the interface for pose estimation and tracking implementations.
type Detector interface {
	// Detect analyzes a video frame and returns every tracked person in it.
	// Returns an empty slice if nobody is detected.
	Detect(frame *gocv.Mat) ([]Person, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for pose detection.
type Config struct {
	// Model is the pose model the service loads, e.g. "movenet" or "posenet".
	Model string

	// MinScore is the minimum keypoint confidence (0.0-1.0); weaker keypoints are reported as missing.
	MinScore float64

	// MaxPeople caps the number of tracked people per frame.
	MaxPeople int
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		Model:     "movenet",
		MinScore:  0.3,
		MaxPeople: 4,
	}
}
