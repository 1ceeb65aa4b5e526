package app

import (
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/stretchcam/internal/score"
	"github.com/ayusman/stretchcam/internal/store"
)

// ensureSession opens a session for the current exercise if none is running.
// Callers hold frameMu.
func (a *App) ensureSession() {
	if a.session != nil {
		return
	}

	a.session = &store.Session{
		ID:        uuid.NewString(),
		Exercise:  a.engine.Variant().Name(),
		StartedAt: time.Now(),
	}

	if a.config.Store != nil {
		if err := a.config.Store.Sessions().Create(a.session); err != nil {
			a.logger.Error("failed to record session", "session", a.session.ID, "error", err)
		}
	}
	a.logger.Info("session started", "session", a.session.ID, "exercise", a.session.Exercise)
}

// SessionID returns the running session, or "" before the first frame.
func (a *App) SessionID() string {
	a.frameMu.Lock()
	defer a.frameMu.Unlock()
	if a.session == nil {
		return ""
	}
	return a.session.ID
}

// finishSession saves one result per tracked person and closes the running
// session. Callers hold frameMu.
func (a *App) finishSession() error {
	sess := a.session
	if sess == nil {
		return nil
	}
	a.session = nil

	out := a.engine.Snapshot()
	ids := a.engine.IDs()
	results := make([]store.Result, 0, len(ids))
	total := 0
	for _, id := range ids {
		entry := score.For(out, id)
		results = append(results, store.Result{
			SessionID: sess.ID,
			Identity:  id,
			Reps:      entry.Reps,
			MaxAngle:  out.MaxAngle[id],
			MinAngle:  out.MinAngle[id],
			Points:    entry.Points,
		})
		total += entry.Points
	}

	a.logger.Info("session finished", "session", sess.ID, "people", len(results), "points", total)

	if a.config.Store == nil {
		return nil
	}
	if err := a.config.Store.Results().Save(sess.ID, results); err != nil {
		return err
	}
	return a.config.Store.Sessions().Finish(sess.ID, time.Now())
}
