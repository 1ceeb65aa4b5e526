package detector

import (
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// ReferenceSize is the side of the square frame the preset poses are drawn on.
// Resolving a preset against a ReferenceSize x ReferenceSize frame gives back
// the pixel positions below exactly.
const ReferenceSize = 500

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	people []Person
	err    error
	calls  int
	mu     sync.Mutex
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetPeople sets the people that will be returned by Detect.
func (m *MockDetector) SetPeople(people []Person) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.people = people
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect has been called.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the pre-configured people or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]Person, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.people, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// PoseFromPixels builds normalized keypoints from pixel positions on the
// reference frame. Joints not in the map are left missing.
func PoseFromPixels(joints map[Joint]image.Point) []*Point2D {
	points := make([]*Point2D, NumJoints)
	for j, p := range joints {
		points[j] = &Point2D{
			X: float64(p.X) / ReferenceSize,
			Y: float64(p.Y) / ReferenceSize,
		}
	}
	return points
}

// UprightPose returns a person standing straight with both arms raised overhead.
// Both shoulder-hip angles are 90 degrees.
func UprightPose() []*Point2D {
	return LateralPose(0)
}

// LateralPose returns an arms-up pose with both shoulders shifted dx pixels
// sideways over hips 100px apart and 100px below them. The difference between
// the two shoulder-hip angles is 2*atan(|dx|/100).
func LateralPose(dx int) []*Point2D {
	return PoseFromPixels(map[Joint]image.Point{
		Nose:          {X: 250 + dx, Y: 230},
		LeftShoulder:  {X: 300 + dx, Y: 300},
		RightShoulder: {X: 200 + dx, Y: 300},
		LeftElbow:     {X: 310 + dx, Y: 200},
		RightElbow:    {X: 190 + dx, Y: 200},
		LeftWrist:     {X: 300 + dx, Y: 100},
		RightWrist:    {X: 200 + dx, Y: 100},
		LeftHip:       {X: 300, Y: 400},
		RightHip:      {X: 200, Y: 400},
	})
}

// LeanPose returns a side lean of about 30 degrees between the two sides.
func LeanPose() []*Point2D {
	return LateralPose(-27)
}

// NeckPose returns shoulders level 100px apart with the nose shifted dx pixels
// from the midpoint, 100px above the shoulder line.
func NeckPose(dx int) []*Point2D {
	return PoseFromPixels(map[Joint]image.Point{
		Nose:          {X: 250 + dx, Y: 200},
		LeftShoulder:  {X: 300, Y: 300},
		RightShoulder: {X: 200, Y: 300},
		LeftHip:       {X: 300, Y: 450},
		RightHip:      {X: 200, Y: 450},
	})
}

// TiltPose returns a neck tilt of about 27 degrees between the two sides.
func TiltPose() []*Point2D {
	return NeckPose(30)
}

// YPose returns both arms fully extended up and out, each elbow angle 180 degrees.
func YPose() []*Point2D {
	return PoseFromPixels(map[Joint]image.Point{
		Nose:          {X: 250, Y: 230},
		LeftShoulder:  {X: 300, Y: 300},
		RightShoulder: {X: 200, Y: 300},
		LeftElbow:     {X: 350, Y: 200},
		RightElbow:    {X: 150, Y: 200},
		LeftWrist:     {X: 400, Y: 100},
		RightWrist:    {X: 100, Y: 100},
		LeftHip:       {X: 300, Y: 450},
		RightHip:      {X: 200, Y: 450},
	})
}

// WPose returns elbows dropped below the shoulders with wrists raised,
// each elbow angle about 87 degrees.
func WPose() []*Point2D {
	return PoseFromPixels(map[Joint]image.Point{
		Nose:          {X: 250, Y: 230},
		LeftShoulder:  {X: 300, Y: 300},
		RightShoulder: {X: 200, Y: 300},
		LeftElbow:     {X: 380, Y: 320},
		RightElbow:    {X: 120, Y: 320},
		LeftWrist:     {X: 400, Y: 220},
		RightWrist:    {X: 100, Y: 220},
		LeftHip:       {X: 300, Y: 450},
		RightHip:      {X: 200, Y: 450},
	})
}

// Without returns a copy of points with the given joints removed.
func Without(points []*Point2D, joints ...Joint) []*Point2D {
	out := make([]*Point2D, len(points))
	copy(out, points)
	for _, j := range joints {
		if int(j) < len(out) {
			out[j] = nil
		}
	}
	return out
}
