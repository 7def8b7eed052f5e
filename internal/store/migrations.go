package store

import (
	"fmt"
)

type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "highlights: captured passages and their memory state",
		SQL: `
CREATE TABLE highlights (
    seq               INTEGER PRIMARY KEY,
    id                TEXT NOT NULL UNIQUE,
    text              TEXT NOT NULL CHECK (length(text) > 0),
    title             TEXT NOT NULL DEFAULT '',
    author            TEXT NOT NULL DEFAULT '',
    source            TEXT NOT NULL CHECK (source IN ('kindle', 'journal', 'voice', 'thought', 'quote', 'tweet')),
    captured_at       TEXT,
    tags              TEXT NOT NULL DEFAULT '[]',
    comment           TEXT,

    -- Memory state (base score, decayed on read)
    integration_score REAL NOT NULL DEFAULT 0 CHECK (integration_score BETWEEN 0 AND 100),
    view_count        INTEGER NOT NULL DEFAULT 0,
    recall_attempts   INTEGER NOT NULL DEFAULT 0,
    recall_successes  INTEGER NOT NULL DEFAULT 0,
    last_viewed_at    TEXT,

    created_at        INTEGER NOT NULL,
    updated_at        INTEGER NOT NULL,

    CHECK (recall_successes <= recall_attempts)
);

CREATE INDEX idx_highlights_source      ON highlights(source);
CREATE INDEX idx_highlights_last_viewed ON highlights(last_viewed_at);
`,
	},
}

func (db *DB) migrate() error {
	// Create schema_versions table if it doesn't exist
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_versions (
			version     INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at  INTEGER NOT NULL DEFAULT (strftime('%s', 'now') * 1000)
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_versions: %w", err)
	}

	for _, m := range migrations {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM schema_versions WHERE version = ?", m.Version).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %d: %w", m.Version, err)
		}
		if count > 0 {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}

		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}

		if _, err := tx.Exec(
			"INSERT INTO schema_versions (version, description) VALUES (?, ?)",
			m.Version, m.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}

	return nil
}

// SchemaVersion returns the current schema version.
func (db *DB) SchemaVersion() (int, error) {
	var version int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_versions").Scan(&version)
	return version, err
}
