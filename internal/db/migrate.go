package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// Migrate applies every schema statement. Statements are idempotent, so it
// is safe to run on each start.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			// ALTER TABLE ADD COLUMN has no IF NOT EXISTS form.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS saved_stories (
		id          TEXT PRIMARY KEY,
		title       TEXT NOT NULL,
		location    TEXT NOT NULL DEFAULT '',
		language    TEXT NOT NULL DEFAULT 'en',
		story_html  TEXT NOT NULL,
		image_url   TEXT NOT NULL DEFAULT '',
		share_text  TEXT NOT NULL DEFAULT '',
		created_at  TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_saved_stories_created ON saved_stories(created_at)`,

	`CREATE TABLE IF NOT EXISTS dream_canvases (
		id          TEXT PRIMARY KEY,
		title       TEXT NOT NULL,
		location    TEXT NOT NULL DEFAULT '',
		language    TEXT NOT NULL DEFAULT 'en',
		story_html  TEXT NOT NULL,
		image_url   TEXT NOT NULL DEFAULT '',
		created_at  TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_dream_canvases_created ON dream_canvases(created_at)`,

	`CREATE TABLE IF NOT EXISTS shown_objects (
		name          TEXT PRIMARY KEY,
		last_shown_at TEXT NOT NULL,
		times_shown   INTEGER NOT NULL DEFAULT 1 CHECK(times_shown >= 1)
	)`,

	// Added after the first release; older databases gain the column here.
	`ALTER TABLE saved_stories ADD COLUMN object_name TEXT NOT NULL DEFAULT ''`,
}
