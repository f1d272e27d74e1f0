package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Persons table - the identity gallery. A person carries a JSON
		// feature vector, a JSON ratio vector, or both.
		`CREATE TABLE IF NOT EXISTS persons (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			category TEXT NOT NULL DEFAULT 'unknown' CHECK(category IN ('known', 'delivery', 'unknown')),
			embedding TEXT,
			ratios TEXT,
			photo_path TEXT,
			notes TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Events table - one row per appeared/departed transition.
		`CREATE TABLE IF NOT EXISTS events (
			id TEXT PRIMARY KEY,
			person_id TEXT REFERENCES persons(id) ON DELETE SET NULL,
			kind TEXT NOT NULL CHECK(kind IN ('appeared', 'departed')),
			person_name TEXT,
			confidence REAL,
			bbox_x INTEGER,
			bbox_y INTEGER,
			bbox_width INTEGER,
			bbox_height INTEGER,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Indexes for better query performance
		`CREATE INDEX IF NOT EXISTS idx_events_person_id ON events(person_id)`,
		`CREATE INDEX IF NOT EXISTS idx_events_created_at ON events(created_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
