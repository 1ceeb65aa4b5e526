// Package detector provides body-pose detection interfaces and the named joint set
// consumed by the stretch engine.
package detector

import (
	"image"
	"math"
)

// Joint identifies one of the 17 body landmarks in the order the pose model emits them.
type Joint int

// Body landmark indices following the PoseNet/MoveNet convention.
const (
	Nose Joint = iota
	LeftEye
	RightEye
	LeftEar
	RightEar
	LeftShoulder
	RightShoulder
	LeftElbow
	RightElbow
	LeftWrist
	RightWrist
	LeftHip
	RightHip
	LeftKnee
	RightKnee
	LeftFoot
	RightFoot
	NumJoints = 17
)

var jointNames = [NumJoints]string{
	"nose", "left_eye", "right_eye", "left_ear", "right_ear",
	"left_shoulder", "right_shoulder", "left_elbow", "right_elbow",
	"left_wrist", "right_wrist", "left_hip", "right_hip",
	"left_knee", "right_knee", "left_foot", "right_foot",
}

// String returns the snake_case name of the joint.
func (j Joint) String() string {
	if j < 0 || j >= NumJoints {
		return "unknown"
	}
	return jointNames[j]
}

// Point2D is a keypoint position normalized to the frame, each axis in [0, 1].
type Point2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Skeleton holds the pixel position of every joint of one person.
// A nil entry is a joint the pose model could not localize.
type Skeleton [NumJoints]*image.Point

// Resolve converts a normalized keypoint into the nearest pixel of a width x height frame.
func Resolve(rel Point2D, width, height int) image.Point {
	return image.Point{
		X: int(math.Round(rel.X * float64(width))),
		Y: int(math.Round(rel.Y * float64(height))),
	}
}

// ResolveSkeleton converts one person's normalized keypoints into pixel positions.
// Missing entries, and slots beyond the end of points, stay absent.
func ResolveSkeleton(points []*Point2D, width, height int) Skeleton {
	var s Skeleton
	for i := 0; i < NumJoints && i < len(points); i++ {
		if points[i] == nil {
			continue
		}
		p := Resolve(*points[i], width, height)
		s[i] = &p
	}
	return s
}

// Joint returns the position of j and whether it was localized.
func (s *Skeleton) Joint(j Joint) (image.Point, bool) {
	if j < 0 || j >= NumJoints || s[j] == nil {
		return image.Point{}, false
	}
	return *s[j], true
}

// Has reports whether every one of the given joints was localized.
func (s *Skeleton) Has(joints ...Joint) bool {
	for _, j := range joints {
		if _, ok := s.Joint(j); !ok {
			return false
		}
	}
	return true
}
