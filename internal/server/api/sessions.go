package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/ayusman/stretchcam/internal/store"
)

// SessionHandler serves the session history.
type SessionHandler struct {
	store *store.Store
}

// NewSessionHandler creates a new SessionHandler with the given store.
func NewSessionHandler(s *store.Store) *SessionHandler {
	return &SessionHandler{store: s}
}

// ServeHTTP routes /api/sessions and /api/sessions/{id}.
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/sessions")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.list(w, r)
		return
	}

	id, err := uuid.Parse(path)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid session ID")
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id.String())
	case http.MethodDelete:
		h.delete(w, r, id.String())
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

type sessionResponse struct {
	ID        string  `json:"id"`
	Exercise  string  `json:"exercise"`
	StartedAt string  `json:"started_at"`
	EndedAt   *string `json:"ended_at"`
}

type resultResponse struct {
	Identity int     `json:"identity"`
	Reps     int     `json:"reps"`
	MaxAngle float64 `json:"max_angle"`
	MinAngle float64 `json:"min_angle"`
	Points   int     `json:"points"`
}

type sessionDetailResponse struct {
	sessionResponse
	Results []resultResponse `json:"results"`
	Points  int              `json:"points"`
}

type listSessionsResponse struct {
	Sessions []sessionResponse `json:"sessions"`
}

func toSessionResponse(s *store.Session) sessionResponse {
	resp := sessionResponse{
		ID:        s.ID,
		Exercise:  s.Exercise,
		StartedAt: formatTime(s.StartedAt),
	}
	if s.EndedAt != nil {
		ended := formatTime(*s.EndedAt)
		resp.EndedAt = &ended
	}
	return resp
}

// list handles GET /api/sessions.
func (h *SessionHandler) list(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.store.Sessions().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list sessions")
		return
	}

	response := listSessionsResponse{
		Sessions: make([]sessionResponse, 0, len(sessions)),
	}
	for _, s := range sessions {
		response.Sessions = append(response.Sessions, toSessionResponse(s))
	}

	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/sessions/{id} and includes the per-person results.
func (h *SessionHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	session, err := h.store.Sessions().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get session")
		return
	}

	results, err := h.store.Results().ListBySession(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get session results")
		return
	}

	response := sessionDetailResponse{
		sessionResponse: toSessionResponse(session),
		Results:         make([]resultResponse, 0, len(results)),
	}
	for _, res := range results {
		response.Results = append(response.Results, resultResponse{
			Identity: res.Identity,
			Reps:     res.Reps,
			MaxAngle: res.MaxAngle,
			MinAngle: res.MinAngle,
			Points:   res.Points,
		})
		response.Points += res.Points
	}

	writeJSON(w, http.StatusOK, response)
}

// delete handles DELETE /api/sessions/{id}.
func (h *SessionHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.store.Sessions().Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete session")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
