package api

import (
	"net/http"

	"github.com/ayusman/stretchcam/internal/log"
	"github.com/ayusman/stretchcam/internal/relay"
)

// ScoreHandler collects the relayed per-frame scores and answers with the
// session total. Each collect consumes the relay file.
type ScoreHandler struct {
	path string
}

// NewScoreHandler creates a ScoreHandler reading the relay file at path.
func NewScoreHandler(path string) *ScoreHandler {
	return &ScoreHandler{path: path}
}

type scoreResponse struct {
	Score  int         `json:"score"`
	People map[int]int `json:"people"`
}

// ServeHTTP handles POST requests.
func (h *ScoreHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sum, err := relay.Collect(h.path)
	if err != nil {
		log.Error("failed to collect scores", "path", h.path, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to collect scores")
		return
	}

	writeJSON(w, http.StatusOK, scoreResponse{Score: sum.Total, People: sum.People})
}
