package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/stretchcam/internal/relay"
	"github.com/ayusman/stretchcam/internal/store"
)

// newTestStore creates a new Store with a temporary database for testing.
func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})

	return s
}

// seedSession stores a finished arm session with two people.
func seedSession(t *testing.T, s *store.Store) string {
	t.Helper()

	id := uuid.NewString()
	start := time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC)
	if err := s.Sessions().Create(&store.Session{ID: id, Exercise: "arm", StartedAt: start}); err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	results := []store.Result{
		{Identity: 1, Reps: 3, MaxAngle: 3.1, MinAngle: 1.5, Points: 15},
		{Identity: 2, Reps: 1, MaxAngle: 2.9, MinAngle: 1.6, Points: 4},
	}
	if err := s.Results().Save(id, results); err != nil {
		t.Fatalf("failed to save results: %v", err)
	}
	if err := s.Sessions().Finish(id, start.Add(10*time.Minute)); err != nil {
		t.Fatalf("failed to finish session: %v", err)
	}
	return id
}

func TestSessionHandler_List(t *testing.T) {
	s := newTestStore(t)
	id := seedSession(t, s)
	handler := NewSessionHandler(s)

	req := httptest.NewRequest(http.MethodGet, "/api/sessions", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var response listSessionsResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if len(response.Sessions) != 1 {
		t.Fatalf("expected 1 session, got %d", len(response.Sessions))
	}
	got := response.Sessions[0]
	if got.ID != id || got.Exercise != "arm" {
		t.Errorf("unexpected session: %+v", got)
	}
	if got.EndedAt == nil || *got.EndedAt != "2024-05-02T10:10:00Z" {
		t.Errorf("unexpected ended_at: %v", got.EndedAt)
	}
}

func TestSessionHandler_ListEmpty(t *testing.T) {
	handler := NewSessionHandler(newTestStore(t))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions", nil))

	if !strings.Contains(rec.Body.String(), `"sessions":[]`) {
		t.Errorf("expected an empty list, got %s", rec.Body.String())
	}
}

func TestSessionHandler_Get(t *testing.T) {
	s := newTestStore(t)
	id := seedSession(t, s)
	handler := NewSessionHandler(s)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions/"+id, nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var response sessionDetailResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if response.ID != id {
		t.Errorf("ID mismatch: got %q, want %q", response.ID, id)
	}
	if len(response.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(response.Results))
	}
	if response.Results[0].Identity != 1 || response.Results[0].Reps != 3 {
		t.Errorf("unexpected first result: %+v", response.Results[0])
	}
	if response.Points != 19 {
		t.Errorf("points = %d, want 19", response.Points)
	}
}

func TestSessionHandler_Errors(t *testing.T) {
	handler := NewSessionHandler(newTestStore(t))

	tests := []struct {
		name   string
		method string
		path   string
		want   int
	}{
		{"malformed id", http.MethodGet, "/api/sessions/not-a-uuid", http.StatusBadRequest},
		{"unknown session", http.MethodGet, "/api/sessions/" + uuid.NewString(), http.StatusNotFound},
		{"delete unknown session", http.MethodDelete, "/api/sessions/" + uuid.NewString(), http.StatusNotFound},
		{"post to collection", http.MethodPost, "/api/sessions", http.StatusMethodNotAllowed},
		{"put to item", http.MethodPut, "/api/sessions/" + uuid.NewString(), http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))

			if rec.Code != tt.want {
				t.Errorf("expected status %d, got %d", tt.want, rec.Code)
			}
		})
	}
}

func TestSessionHandler_Delete(t *testing.T) {
	s := newTestStore(t)
	id := seedSession(t, s)
	handler := NewSessionHandler(s)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/sessions/"+id, nil))

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status %d, got %d", http.StatusNoContent, rec.Code)
	}

	if _, err := s.Sessions().GetByID(id); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("session should be deleted, got %v", err)
	}
}

func TestScoreHandler(t *testing.T) {
	path := filepath.Join(t.TempDir(), relay.DefaultFile)
	w := relay.NewWriter(path)
	w.Append(map[int]int{1: 4, 2: 9})
	w.Append(map[int]int{1: 6})

	handler := NewScoreHandler(path)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var response scoreResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Score != 15 {
		t.Errorf("score = %d, want 15", response.Score)
	}
	if response.People[1] != 6 || response.People[2] != 9 {
		t.Errorf("unexpected people: %v", response.People)
	}

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("relay file should be consumed")
	}

	// Nothing left to collect
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	if !strings.Contains(rec.Body.String(), `"score":0`) {
		t.Errorf("expected zero score, got %s", rec.Body.String())
	}
}

func TestScoreHandler_MethodNotAllowed(t *testing.T) {
	handler := NewScoreHandler(filepath.Join(t.TempDir(), relay.DefaultFile))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/score", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status %d, got %d", http.StatusMethodNotAllowed, rec.Code)
	}
}

type fakeSwitcher struct {
	exercise string
	err      error
}

func (f *fakeSwitcher) Exercise() string { return f.exercise }

func (f *fakeSwitcher) SetExercise(name string) error {
	if f.err != nil {
		return f.err
	}
	f.exercise = name
	return nil
}

func TestExerciseHandler(t *testing.T) {
	sw := &fakeSwitcher{exercise: "side"}
	handler := NewExerciseHandler(sw)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/exercise", nil))

	var response exerciseResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Exercise != "side" {
		t.Errorf("exercise = %q, want side", response.Exercise)
	}
	if strings.Join(response.Available, ",") != "arm,neck,side" {
		t.Errorf("available = %v", response.Available)
	}

	body := bytes.NewBufferString(`{"exercise":"arm"}`)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/exercise", body))
	if rec.Code != http.StatusOK || sw.exercise != "arm" {
		t.Errorf("switch failed: status %d, exercise %q", rec.Code, sw.exercise)
	}

	body = bytes.NewBufferString(`{"exercise":"squat"}`)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/exercise", body))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status %d for unknown exercise, got %d", http.StatusBadRequest, rec.Code)
	}

	body = bytes.NewBufferString(`{`)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/exercise", body))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status %d for bad JSON, got %d", http.StatusBadRequest, rec.Code)
	}
}
