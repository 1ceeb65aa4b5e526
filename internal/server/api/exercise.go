package api

import (
	"encoding/json"
	"net/http"
	"sort"

	"github.com/ayusman/stretchcam/internal/stretch"
)

// ExerciseSwitcher is the part of the running pipeline the exercise endpoint drives.
type ExerciseSwitcher interface {
	Exercise() string
	SetExercise(name string) error
}

// ExerciseHandler reads and changes the tracked exercise.
type ExerciseHandler struct {
	switcher ExerciseSwitcher
}

// NewExerciseHandler creates an ExerciseHandler for s.
func NewExerciseHandler(s ExerciseSwitcher) *ExerciseHandler {
	return &ExerciseHandler{switcher: s}
}

type exerciseRequest struct {
	Exercise string `json:"exercise"`
}

type exerciseResponse struct {
	Exercise  string   `json:"exercise"`
	Available []string `json:"available"`
}

// ServeHTTP handles GET and PUT on /api/exercise.
func (h *ExerciseHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.respond(w)
	case http.MethodPut:
		var req exerciseRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
		if _, err := stretch.Lookup(req.Exercise); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := h.switcher.SetExercise(req.Exercise); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to switch exercise")
			return
		}
		h.respond(w)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *ExerciseHandler) respond(w http.ResponseWriter) {
	available := make([]string, 0, 3)
	for name := range stretch.Variants() {
		available = append(available, name)
	}
	sort.Strings(available)

	writeJSON(w, http.StatusOK, exerciseResponse{
		Exercise:  h.switcher.Exercise(),
		Available: available,
	})
}
