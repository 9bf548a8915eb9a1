package migrations

import "database/sql"

func init() {
	Register(Migration{
		Version: 1,
		Name:    "bookings",
		Up:      bookingsSchema,
	})
}

func bookingsSchema(tx *sql.Tx) error {
	return execAll(tx, []string{
		`CREATE TABLE IF NOT EXISTS bookings (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id TEXT NOT NULL,
			title TEXT NOT NULL,
			person TEXT NOT NULL,
			start_time DATETIME NOT NULL,
			duration_minutes INTEGER NOT NULL,
			timezone TEXT NOT NULL,
			event_ref TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_user ON bookings(user_id, start_time DESC)`,
	})
}
