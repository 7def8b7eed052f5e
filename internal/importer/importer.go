// Package importer turns raw highlight records into normalized highlights with
// fresh memory state. Format-specific parsers (Kindle clippings, tweets, ...)
// are expected to emit Records; this package owns everything after that.
package importer

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/lazypower/resurface/internal/model"
)

// ErrEmptyText is returned for a record whose text is blank after trimming.
var ErrEmptyText = errors.New("highlight text is empty")

// Record is one highlight as produced by a parser or typed in by hand.
// Timestamps are raw strings so malformed values can be tolerated.
type Record struct {
	ID         string   `json:"id,omitempty"`
	Text       string   `json:"text"`
	Title      string   `json:"title,omitempty"`
	Author     string   `json:"author,omitempty"`
	Source     string   `json:"source"`
	CapturedAt string   `json:"capturedAt,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	Comment    *string  `json:"comment,omitempty"`

	// Memory state, honored only when restoring an export.
	IntegrationScore float64 `json:"integrationScore,omitempty"`
	ViewCount        int     `json:"viewCount,omitempty"`
	RecallAttempts   int     `json:"recallAttempts,omitempty"`
	RecallSuccesses  int     `json:"recallSuccesses,omitempty"`
	LastViewedAt     string  `json:"lastViewedAt,omitempty"`
}

// Options controls normalization.
type Options struct {
	// DefaultSource applies to records with no source.
	DefaultSource model.Source
	// KeepState restores memory-state fields instead of zeroing them.
	KeepState bool
}

// Rejected describes a record that could not be imported.
type Rejected struct {
	Index int    `json:"index"`
	Error string `json:"error"`
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewID returns a new sortable highlight id.
func NewID(now time.Time) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(now), entropy).String()
}

// Normalize validates r and returns the highlight it describes. Memory state
// starts at zero unless opts.KeepState is set.
func Normalize(r Record, opts Options, now time.Time) (model.Highlight, error) {
	text := strings.TrimSpace(r.Text)
	if text == "" {
		return model.Highlight{}, ErrEmptyText
	}

	source := model.Source(strings.ToLower(strings.TrimSpace(r.Source)))
	if source == "" {
		source = opts.DefaultSource
	}
	if !source.Valid() {
		return model.Highlight{}, fmt.Errorf("unknown source %q", r.Source)
	}

	h := model.Highlight{
		ID:     strings.TrimSpace(r.ID),
		Text:   text,
		Title:  strings.TrimSpace(r.Title),
		Author: strings.TrimSpace(r.Author),
		Source: source,
		Tags:   dedupe(r.Tags),
	}
	if h.ID == "" {
		h.ID = NewID(now)
	}
	if h.Title == "" {
		h.Title = defaultTitle(source)
	}
	if h.Author == "" {
		h.Author = model.PlaceholderAuthor
	}

	// Back-dated capture times are kept; unreadable ones fall back to import time.
	h.CapturedAt = now
	if t, ok := model.ParseTime(r.CapturedAt); ok {
		h.CapturedAt = t
	}
	if r.Comment != nil && strings.TrimSpace(*r.Comment) != "" {
		c := strings.TrimSpace(*r.Comment)
		h.Comment = &c
	}

	if opts.KeepState {
		restoreState(&h, r)
	}
	return h, nil
}

// restoreState copies memory state from r, repairing anything that would
// break the score invariants.
func restoreState(h *model.Highlight, r Record) {
	h.IntegrationScore = min(max(r.IntegrationScore, 0), 100)
	h.ViewCount = max(r.ViewCount, 0)
	h.RecallAttempts = max(r.RecallAttempts, 0)
	h.RecallSuccesses = min(max(r.RecallSuccesses, 0), h.RecallAttempts)
	if t, ok := model.ParseTime(r.LastViewedAt); ok {
		h.LastViewedAt = &t
	}
}

func defaultTitle(source model.Source) string {
	switch source {
	case model.SourceJournal, model.SourceThought, model.SourceVoice:
		return model.PlaceholderTitle
	case model.SourceTweet:
		return "Tweet"
	}
	return "Untitled"
}

func dedupe(tags []string) []string {
	var out []string
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// Batch normalizes records, collecting rejects instead of failing the batch.
// Ids repeated within the batch keep only the first occurrence.
func Batch(records []Record, opts Options, now time.Time) ([]model.Highlight, []Rejected) {
	var hs []model.Highlight
	var rejected []Rejected
	ids := make(map[string]bool, len(records))
	for i, r := range records {
		h, err := Normalize(r, opts, now)
		if err != nil {
			rejected = append(rejected, Rejected{Index: i, Error: err.Error()})
			continue
		}
		if ids[h.ID] {
			rejected = append(rejected, Rejected{Index: i, Error: "duplicate id " + h.ID})
			continue
		}
		ids[h.ID] = true
		hs = append(hs, h)
	}
	return hs, rejected
}

// ReadJSON decodes a JSON array of records.
func ReadJSON(r io.Reader) ([]Record, error) {
	var records []Record
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}
	return records, nil
}

// ToRecord converts a stored highlight back into its export form.
func ToRecord(h model.Highlight) Record {
	r := Record{
		ID:               h.ID,
		Text:             h.Text,
		Title:            h.Title,
		Author:           h.Author,
		Source:           string(h.Source),
		Tags:             h.Tags,
		Comment:          h.Comment,
		IntegrationScore: h.IntegrationScore,
		ViewCount:        h.ViewCount,
		RecallAttempts:   h.RecallAttempts,
		RecallSuccesses:  h.RecallSuccesses,
	}
	if !h.CapturedAt.IsZero() {
		r.CapturedAt = model.FormatTime(h.CapturedAt)
	}
	if h.LastViewedAt != nil {
		r.LastViewedAt = model.FormatTime(*h.LastViewedAt)
	}
	return r
}

// WriteJSON encodes highlights as an indented JSON array that ReadJSON accepts.
func WriteJSON(w io.Writer, hs []model.Highlight) error {
	records := make([]Record, len(hs))
	for i, h := range hs {
		records[i] = ToRecord(h)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encode records: %w", err)
	}
	return nil
}
