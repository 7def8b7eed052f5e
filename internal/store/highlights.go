package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lazypower/resurface/internal/model"
)

const highlightColumns = `id, text, title, author, source, captured_at, tags, comment,
	integration_score, view_count, recall_attempts, recall_successes, last_viewed_at`

const upsertSQL = `
	INSERT INTO highlights (` + highlightColumns + `, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		text = excluded.text,
		title = excluded.title,
		author = excluded.author,
		captured_at = excluded.captured_at,
		tags = excluded.tags,
		comment = excluded.comment,
		integration_score = excluded.integration_score,
		view_count = excluded.view_count,
		recall_attempts = excluded.recall_attempts,
		recall_successes = excluded.recall_successes,
		last_viewed_at = excluded.last_viewed_at,
		updated_at = excluded.updated_at
`

// UpsertHighlight writes h, replacing any stored row with the same id.
// Last writer wins; source and insertion order are fixed at first insert.
func (db *DB) UpsertHighlight(h *model.Highlight) error {
	args, err := highlightArgs(h, time.Now().UnixMilli())
	if err != nil {
		return err
	}
	if _, err := db.Exec(upsertSQL, args...); err != nil {
		return fmt.Errorf("upsert highlight %s: %w", h.ID, err)
	}
	return nil
}

// InsertHighlights stores new highlights in one transaction, skipping any id
// already present. It returns how many rows were added.
func (db *DB) InsertHighlights(hs []model.Highlight) (int, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin insert: %w", err)
	}

	now := time.Now().UnixMilli()
	added := 0
	for i := range hs {
		args, err := highlightArgs(&hs[i], now)
		if err != nil {
			tx.Rollback()
			return 0, err
		}
		res, err := tx.Exec(`INSERT OR IGNORE INTO highlights (`+highlightColumns+`, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, args...)
		if err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("insert highlight %s: %w", hs[i].ID, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			added++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit insert: %w", err)
	}
	return added, nil
}

func highlightArgs(h *model.Highlight, now int64) ([]any, error) {
	tags := h.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return nil, fmt.Errorf("encode tags: %w", err)
	}

	var capturedAt, lastViewedAt, comment sql.NullString
	if !h.CapturedAt.IsZero() {
		capturedAt = sql.NullString{String: model.FormatTime(h.CapturedAt), Valid: true}
	}
	if h.LastViewedAt != nil {
		lastViewedAt = sql.NullString{String: model.FormatTime(*h.LastViewedAt), Valid: true}
	}
	if h.Comment != nil {
		comment = sql.NullString{String: *h.Comment, Valid: true}
	}

	return []any{
		h.ID, h.Text, h.Title, h.Author, string(h.Source), capturedAt, string(tagsJSON), comment,
		h.IntegrationScore, h.ViewCount, h.RecallAttempts, h.RecallSuccesses, lastViewedAt,
		now, now,
	}, nil
}

// GetHighlight returns a highlight by id, or nil if not found.
func (db *DB) GetHighlight(id string) (*model.Highlight, error) {
	row := db.QueryRow(`SELECT `+highlightColumns+` FROM highlights WHERE id = ?`, id)
	h, err := scanHighlight(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get highlight: %w", err)
	}
	return h, nil
}

// ListHighlights returns every highlight in insertion order.
func (db *DB) ListHighlights() ([]model.Highlight, error) {
	rows, err := db.Query(`SELECT ` + highlightColumns + ` FROM highlights ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list highlights: %w", err)
	}
	defer rows.Close()

	var hs []model.Highlight
	for rows.Next() {
		h, err := scanHighlight(rows)
		if err != nil {
			return nil, fmt.Errorf("scan highlight: %w", err)
		}
		hs = append(hs, *h)
	}
	return hs, rows.Err()
}

// DeleteHighlight removes a highlight. It reports whether a row was deleted.
func (db *DB) DeleteHighlight(id string) (bool, error) {
	res, err := db.Exec("DELETE FROM highlights WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("delete highlight %s: %w", id, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// CountHighlights returns the number of stored highlights.
func (db *DB) CountHighlights() (int, error) {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM highlights").Scan(&count)
	return count, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanHighlight(s scanner) (*model.Highlight, error) {
	var h model.Highlight
	var source, tagsJSON string
	var capturedAt, comment, lastViewedAt sql.NullString
	if err := s.Scan(&h.ID, &h.Text, &h.Title, &h.Author, &source, &capturedAt, &tagsJSON, &comment,
		&h.IntegrationScore, &h.ViewCount, &h.RecallAttempts, &h.RecallSuccesses, &lastViewedAt); err != nil {
		return nil, err
	}

	h.Source = model.Source(source)
	if err := json.Unmarshal([]byte(tagsJSON), &h.Tags); err != nil {
		h.Tags = nil // unreadable tags are dropped, not fatal
	}
	if comment.Valid {
		c := comment.String
		h.Comment = &c
	}
	// Unparsable timestamps read back as unknown.
	if t, ok := model.ParseTime(capturedAt.String); ok {
		h.CapturedAt = t
	}
	if t, ok := model.ParseTime(lastViewedAt.String); ok {
		h.LastViewedAt = &t
	}
	return &h, nil
}
