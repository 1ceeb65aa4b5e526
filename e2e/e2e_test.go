package e2e

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"gocv.io/x/gocv"

	"github.com/ayusman/stretchcam/internal/app"
	"github.com/ayusman/stretchcam/internal/detector"
	"github.com/ayusman/stretchcam/internal/log"
	"github.com/ayusman/stretchcam/internal/relay"
	"github.com/ayusman/stretchcam/internal/score"
	"github.com/ayusman/stretchcam/internal/server"
	"github.com/ayusman/stretchcam/internal/store"
	"github.com/ayusman/stretchcam/internal/stretch"
)

func TestE2E_CompleteWorkflow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}

	tmpDir := t.TempDir()

	s, err := store.New(filepath.Join(tmpDir, "data.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()

	cfg := app.DefaultConfig()
	cfg.Exercise = "side"
	cfg.Store = s
	cfg.RelayPath = filepath.Join(tmpDir, relay.DefaultFile)
	cfg.Logger = log.Discard()

	a, err := app.New(cfg)
	if err != nil {
		t.Fatalf("app.New() error = %v", err)
	}
	mock := detector.NewMockDetector()
	a.SetDetector(mock)

	srv := server.New(server.Config{
		Store:     s,
		RelayPath: a.RelayPath(),
		Frames:    a,
		Exercises: a,
	})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	client := ts.Client()

	var last stretch.Output
	t.Run("TrackRepetition", func(t *testing.T) {
		box := [4]float64{0.3, 0.1, 0.7, 0.9}
		for _, pose := range [][]*detector.Point2D{detector.UprightPose(), detector.LeanPose(), detector.UprightPose()} {
			mock.SetPeople([]detector.Person{{ID: 4, Keypoints: pose, BBox: box}})

			frame := gocv.NewMatWithSize(detector.ReferenceSize, detector.ReferenceSize, gocv.MatTypeCV8UC3)
			last, err = a.ProcessFrame(&frame)
			frame.Close()
			if err != nil {
				t.Fatalf("ProcessFrame() error = %v", err)
			}
		}

		if last.Reps[4] != 1 {
			t.Fatalf("reps = %d, want 1", last.Reps[4])
		}
	})

	wantPoints := score.For(last, 4).Points

	t.Run("CollectScore", func(t *testing.T) {
		resp, err := client.Post(ts.URL+"/api/score", "application/json", nil)
		if err != nil {
			t.Fatalf("POST /api/score error = %v", err)
		}
		defer resp.Body.Close()

		var body struct {
			Score  int            `json:"score"`
			People map[string]int `json:"people"`
		}
		json.NewDecoder(resp.Body).Decode(&body)

		if body.Score != wantPoints || body.People["4"] != wantPoints {
			t.Errorf("score = %+v, want %d for person 4", body, wantPoints)
		}
	})

	t.Run("SwitchExercise", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodPut, ts.URL+"/api/exercise", strings.NewReader(`{"exercise":"neck"}`))
		req.Header.Set("Content-Type", "application/json")
		resp, err := client.Do(req)
		if err != nil {
			t.Fatalf("PUT /api/exercise error = %v", err)
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
		}
		if a.Exercise() != "neck" {
			t.Errorf("exercise = %s, want neck", a.Exercise())
		}
	})

	t.Run("SessionSaved", func(t *testing.T) {
		resp, err := client.Get(ts.URL + "/api/sessions")
		if err != nil {
			t.Fatalf("GET /api/sessions error = %v", err)
		}
		var listed struct {
			Sessions []struct {
				ID       string  `json:"id"`
				Exercise string  `json:"exercise"`
				EndedAt  *string `json:"ended_at"`
			} `json:"sessions"`
		}
		json.NewDecoder(resp.Body).Decode(&listed)
		resp.Body.Close()

		if len(listed.Sessions) != 1 {
			t.Fatalf("expected 1 session, got %d", len(listed.Sessions))
		}
		session := listed.Sessions[0]
		if session.Exercise != "side" || session.EndedAt == nil {
			t.Errorf("unexpected session: %+v", session)
		}

		resp, err = client.Get(ts.URL + "/api/sessions/" + session.ID)
		if err != nil {
			t.Fatalf("GET session error = %v", err)
		}
		var detail struct {
			Results []struct {
				Identity int `json:"identity"`
				Reps     int `json:"reps"`
				Points   int `json:"points"`
			} `json:"results"`
			Points int `json:"points"`
		}
		json.NewDecoder(resp.Body).Decode(&detail)
		resp.Body.Close()

		if len(detail.Results) != 1 {
			t.Fatalf("expected 1 result, got %d", len(detail.Results))
		}
		r := detail.Results[0]
		if r.Identity != 4 || r.Reps != 1 || r.Points != wantPoints || detail.Points != wantPoints {
			t.Errorf("unexpected results: %+v", detail)
		}
	})

	t.Run("StopWithoutFrames", func(t *testing.T) {
		if err := a.Stop(); err != nil {
			t.Errorf("Stop() error = %v", err)
		}

		sessions, err := s.Sessions().List()
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(sessions) != 1 {
			t.Errorf("stopping with no new frames should not add a session, got %d", len(sessions))
		}
	})
}
