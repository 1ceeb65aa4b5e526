package detector

import (
	"errors"
	"image"
	"testing"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name          string
		rel           Point2D
		width, height int
		want          image.Point
	}{
		{"origin", Point2D{X: 0, Y: 0}, 640, 480, image.Pt(0, 0)},
		{"far corner", Point2D{X: 1, Y: 1}, 640, 480, image.Pt(640, 480)},
		{"centre", Point2D{X: 0.5, Y: 0.5}, 640, 480, image.Pt(320, 240)},
		{"rounds down", Point2D{X: 0.1001, Y: 0.2001}, 100, 100, image.Pt(10, 20)},
		{"rounds up", Point2D{X: 0.1049, Y: 0.2099}, 100, 100, image.Pt(10, 21)},
		{"half away from zero", Point2D{X: 0.125, Y: 0.375}, 4, 4, image.Pt(1, 2)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.rel, tt.width, tt.height)
			if got != tt.want {
				t.Errorf("Resolve(%v, %d, %d) = %v, want %v", tt.rel, tt.width, tt.height, got, tt.want)
			}
		})
	}
}

func TestResolveSkeleton(t *testing.T) {
	t.Run("preset poses map back to their pixels", func(t *testing.T) {
		s := ResolveSkeleton(YPose(), ReferenceSize, ReferenceSize)

		want := map[Joint]image.Point{
			LeftShoulder:  image.Pt(300, 300),
			RightShoulder: image.Pt(200, 300),
			LeftElbow:     image.Pt(350, 200),
			RightWrist:    image.Pt(100, 100),
		}
		for j, p := range want {
			got, ok := s.Joint(j)
			if !ok {
				t.Fatalf("expected %s to be present", j)
			}
			if got != p {
				t.Errorf("%s = %v, want %v", j, got, p)
			}
		}
	})

	t.Run("missing joints stay absent", func(t *testing.T) {
		s := ResolveSkeleton(Without(YPose(), LeftElbow), ReferenceSize, ReferenceSize)

		if _, ok := s.Joint(LeftElbow); ok {
			t.Error("expected left elbow to be absent")
		}
		if s.Has(LeftShoulder, LeftElbow) {
			t.Error("Has should be false when any joint is absent")
		}
		if !s.Has(LeftShoulder, RightShoulder) {
			t.Error("Has should be true when all joints are present")
		}
	})

	t.Run("short keypoint slice leaves trailing joints absent", func(t *testing.T) {
		points := []*Point2D{{X: 0.5, Y: 0.1}}
		s := ResolveSkeleton(points, 100, 100)

		if got, ok := s.Joint(Nose); !ok || got != image.Pt(50, 10) {
			t.Errorf("nose = %v (present %v), want (50,10)", got, ok)
		}
		for j := LeftEye; j < NumJoints; j++ {
			if _, ok := s.Joint(j); ok {
				t.Errorf("expected %s to be absent", j)
			}
		}
	})

	t.Run("nil keypoints give an empty skeleton", func(t *testing.T) {
		s := ResolveSkeleton(nil, 100, 100)
		if s.Has(Nose) {
			t.Error("expected no joints")
		}
	})
}

func TestSkeleton_JointOutOfRange(t *testing.T) {
	var s Skeleton
	if _, ok := s.Joint(Joint(-1)); ok {
		t.Error("negative joint should not be present")
	}
	if _, ok := s.Joint(Joint(NumJoints)); ok {
		t.Error("joint past the end should not be present")
	}
}

func TestJoint_String(t *testing.T) {
	if LeftShoulder.String() != "left_shoulder" {
		t.Errorf("LeftShoulder.String() = %q", LeftShoulder.String())
	}
	if RightFoot.String() != "right_foot" {
		t.Errorf("RightFoot.String() = %q", RightFoot.String())
	}
	if Joint(99).String() != "unknown" {
		t.Errorf("Joint(99).String() = %q", Joint(99).String())
	}
}

func TestParseResponse(t *testing.T) {
	line := []byte(`{"people":[{"id":7,"keypoints":[[0.5,0.25],null,[0.1]],"bbox":[0.1,0.2,0.6,0.9]},{"id":8,"keypoints":[]}]}` + "\n")

	people, err := parseResponse(line)
	if err != nil {
		t.Fatalf("parseResponse() error = %v", err)
	}
	if len(people) != 2 {
		t.Fatalf("expected 2 people, got %d", len(people))
	}

	p := people[0]
	if p.ID != 7 {
		t.Errorf("expected id 7, got %d", p.ID)
	}
	if len(p.Keypoints) != NumJoints {
		t.Fatalf("expected %d keypoint slots, got %d", NumJoints, len(p.Keypoints))
	}
	if p.Keypoints[Nose] == nil || *p.Keypoints[Nose] != (Point2D{X: 0.5, Y: 0.25}) {
		t.Errorf("unexpected nose %v", p.Keypoints[Nose])
	}
	if p.Keypoints[LeftEye] != nil {
		t.Error("null keypoint should be missing")
	}
	if p.Keypoints[RightEye] != nil {
		t.Error("keypoint with one coordinate should be missing")
	}
	if p.BBox != [4]float64{0.1, 0.2, 0.6, 0.9} {
		t.Errorf("unexpected bbox %v", p.BBox)
	}

	if people[1].ID != 8 || people[1].Keypoints[Nose] != nil {
		t.Errorf("unexpected second person %+v", people[1])
	}
}

func TestParseResponse_Invalid(t *testing.T) {
	if _, err := parseResponse([]byte("not json\n")); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestMockDetector(t *testing.T) {
	m := NewMockDetector()

	people, err := m.Detect(nil)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if len(people) != 0 {
		t.Errorf("expected no people, got %d", len(people))
	}

	m.SetPeople([]Person{{ID: 1, Keypoints: UprightPose()}})
	people, _ = m.Detect(nil)
	if len(people) != 1 || people[0].ID != 1 {
		t.Errorf("unexpected people %v", people)
	}

	wantErr := errors.New("boom")
	m.SetError(wantErr)
	if _, err := m.Detect(nil); !errors.Is(err, wantErr) {
		t.Errorf("expected %v, got %v", wantErr, err)
	}

	if m.Calls() != 3 {
		t.Errorf("expected 3 calls, got %d", m.Calls())
	}

	if err := m.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Model == "" {
		t.Error("expected a default model")
	}
	if cfg.MinScore <= 0 || cfg.MinScore >= 1 {
		t.Errorf("unexpected MinScore %f", cfg.MinScore)
	}
	if cfg.MaxPeople <= 0 {
		t.Errorf("unexpected MaxPeople %d", cfg.MaxPeople)
	}
}
