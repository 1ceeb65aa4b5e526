package app

import (
	"sort"
	"time"

	"github.com/ayusman/stretchcam/internal/score"
	"github.com/ayusman/stretchcam/internal/stretch"
)

// PersonStats is the live state of one tracked person.
type PersonStats struct {
	ID       int     `json:"id"`
	Phase    string  `json:"phase,omitempty"`
	Reps     int     `json:"reps"`
	MaxAngle float64 `json:"max_angle"`
	MinAngle float64 `json:"min_angle"`
	Score    string  `json:"score"`
	Points   int     `json:"points"`
}

// Stats is the live state of the running session.
type Stats struct {
	Exercise  string        `json:"exercise"`
	SessionID string        `json:"session_id,omitempty"`
	People    []PersonStats `json:"people"`
	// Reps is the sum over everyone tracked.
	Reps      int   `json:"reps"`
	Points    int   `json:"points"`
	Timestamp int64 `json:"timestamp"`
}

// statsLocked builds stats from out. Callers hold frameMu.
func (a *App) statsLocked(out stretch.Output) Stats {
	s := Stats{
		Exercise:  a.engine.Variant().Name(),
		People:    make([]PersonStats, 0, len(out.Reps)),
		Timestamp: time.Now().UnixMilli(),
	}
	if a.session != nil {
		s.SessionID = a.session.ID
	}

	for id := range out.Reps {
		entry := score.For(out, id)
		s.People = append(s.People, PersonStats{
			ID:       id,
			Phase:    out.Phase[id],
			Reps:     entry.Reps,
			MaxAngle: out.MaxAngle[id],
			MinAngle: out.MinAngle[id],
			Score:    entry.Label,
			Points:   entry.Points,
		})
		s.Reps += entry.Reps
		s.Points += entry.Points
	}
	sort.Slice(s.People, func(i, j int) bool { return s.People[i].ID < s.People[j].ID })

	return s
}
