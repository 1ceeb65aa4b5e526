// Package server provides the HTTP server for stretchcam: health, score relay,
// live stream, live stats and session history.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ayusman/stretchcam/internal/server/api"
	"github.com/ayusman/stretchcam/internal/store"
)

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Store     *store.Store
	// RelayPath enables the score endpoints.
	RelayPath string
	// Frames enables the MJPEG stream.
	Frames FrameSource
	// Stats enables the live stats websocket.
	Stats *Hub
	// Exercises enables switching the exercise over HTTP.
	Exercises api.ExerciseSwitcher
}

// Server represents the HTTP server for the stretchcam application.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	var score http.Handler
	if s.config.RelayPath != "" {
		score = api.NewScoreHandler(s.config.RelayPath)
		s.mux.Handle("/api/score", score)
	}

	if s.config.Store != nil {
		sessions := api.NewSessionHandler(s.config.Store)
		s.mux.Handle("/api/sessions", sessions)
		s.mux.Handle("/api/sessions/", sessions)
	}

	if s.config.Frames != nil {
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Frames))
	}

	if s.config.Stats != nil {
		s.mux.Handle("/api/stats", s.config.Stats)
	}

	if s.config.Exercises != nil {
		s.mux.Handle("/api/exercise", api.NewExerciseHandler(s.config.Exercises))
	}

	// The web client posts the final score to the root path; everything else
	// at the root is static content.
	var static http.Handler = http.NotFoundHandler()
	if s.config.StaticDir != "" {
		static = http.FileServer(http.Dir(s.config.StaticDir))
	}
	s.mux.Handle("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.URL.Path == "/" && score != nil {
			score.ServeHTTP(w, r)
			return
		}
		static.ServeHTTP(w, r)
	}))
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}
	if s.config.Stats != nil {
		response["viewers"] = s.config.Stats.Clients()
	}
	if s.config.Exercises != nil {
		response["exercise"] = s.config.Exercises.Exercise()
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}
