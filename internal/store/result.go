package store

import (
	"database/sql"
	"fmt"
)

// Result is the final state of one tracked person in a session.
type Result struct {
	SessionID string
	Identity  int
	Reps      int
	MaxAngle  float64
	MinAngle  float64
	Points    int
}

// ResultRepository provides access to per-person session results.
type ResultRepository struct {
	db *sql.DB
}

// Results returns the result repository for this store.
func (s *Store) Results() *ResultRepository {
	return &ResultRepository{db: s.db}
}

// Save stores results for sessionID in one transaction, replacing any earlier
// result for the same identity.
func (r *ResultRepository) Save(sessionID string, results []Result) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT INTO results (session_id, identity, reps, max_angle, min_angle, points)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(session_id, identity) DO UPDATE SET
			reps = excluded.reps,
			max_angle = excluded.max_angle,
			min_angle = excluded.min_angle,
			points = excluded.points`,
	)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, res := range results {
		if _, err := stmt.Exec(sessionID, res.Identity, res.Reps, res.MaxAngle, res.MinAngle, res.Points); err != nil {
			return fmt.Errorf("failed to save result for identity %d: %w", res.Identity, err)
		}
	}

	return tx.Commit()
}

// ListBySession retrieves the results of a session ordered by identity.
func (r *ResultRepository) ListBySession(sessionID string) ([]Result, error) {
	rows, err := r.db.Query(
		`SELECT session_id, identity, reps, max_angle, min_angle, points
		 FROM results WHERE session_id = ? ORDER BY identity`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var res Result
		if err := rows.Scan(&res.SessionID, &res.Identity, &res.Reps, &res.MaxAngle, &res.MinAngle, &res.Points); err != nil {
			return nil, err
		}
		results = append(results, res)
	}

	return results, rows.Err()
}
