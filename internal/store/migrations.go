package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// One row per exercise session
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			exercise TEXT NOT NULL CHECK(exercise IN ('arm', 'neck', 'side')),
			started_at DATETIME NOT NULL,
			ended_at DATETIME
		)`,

		// Final state of each tracked person in a session
		`CREATE TABLE IF NOT EXISTS results (
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			identity INTEGER NOT NULL,
			reps INTEGER NOT NULL DEFAULT 0,
			max_angle REAL NOT NULL,
			min_angle REAL NOT NULL,
			points INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (session_id, identity)
		)`,

		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_sessions_started_at ON sessions(started_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
