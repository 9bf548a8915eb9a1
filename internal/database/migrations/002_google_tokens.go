package migrations

import "database/sql"

func init() {
	Register(Migration{
		Version: 2,
		Name:    "google_tokens",
		Up:      googleTokensSchema,
	})
}

// one row per connected calendar account
func googleTokensSchema(tx *sql.Tx) error {
	return execAll(tx, []string{
		`CREATE TABLE IF NOT EXISTS google_tokens (
			account TEXT PRIMARY KEY,
			access_token_encrypted BLOB NOT NULL,
			refresh_token_encrypted BLOB NOT NULL,
			token_type TEXT,
			expiry DATETIME,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
	})
}
