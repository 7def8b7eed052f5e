// Package model defines the highlight record shared by every layer.
package model

import (
	"strings"
	"time"
)

// Source identifies where a highlight came from. Immutable after creation.
type Source string

const (
	SourceKindle  Source = "kindle"
	SourceJournal Source = "journal"
	SourceVoice   Source = "voice"
	SourceThought Source = "thought"
	SourceQuote   Source = "quote"
	SourceTweet   Source = "tweet"
)

// Sources lists every valid source in display order.
var Sources = []Source{SourceKindle, SourceJournal, SourceVoice, SourceThought, SourceQuote, SourceTweet}

// Valid reports whether s is one of the known sources.
func (s Source) Valid() bool {
	for _, v := range Sources {
		if s == v {
			return true
		}
	}
	return false
}

// Placeholder provenance values written by importers when the real value is unknown.
const (
	PlaceholderTitle  = "Personal Thoughts"
	PlaceholderAuthor = "Unknown"
)

var placeholderTitles = map[string]bool{
	"":                  true,
	"personal thoughts": true,
	"journal entry":     true,
	"untitled":          true,
	"unknown":           true,
}

var placeholderAuthors = map[string]bool{
	"":        true,
	"unknown": true,
	"me":      true,
	"self":    true,
}

// IsPlaceholderTitle reports whether title carries no real book/work name.
func IsPlaceholderTitle(title string) bool {
	return placeholderTitles[strings.ToLower(strings.TrimSpace(title))]
}

// IsPlaceholderAuthor reports whether author carries no real person.
func IsPlaceholderAuthor(author string) bool {
	return placeholderAuthors[strings.ToLower(strings.TrimSpace(author))]
}

// Highlight is a captured passage plus the memory state tracked for it.
//
// IntegrationScore is the base score as of the last event. The current
// (decayed) value is never stored; see engine.DecayedScore.
type Highlight struct {
	ID         string    `json:"id"`
	Text       string    `json:"text"`
	Title      string    `json:"title"`
	Author     string    `json:"author"`
	Source     Source    `json:"source"`
	CapturedAt time.Time `json:"capturedAt"`
	Tags       []string  `json:"tags"`
	Comment    *string   `json:"comment"`

	IntegrationScore float64    `json:"integrationScore"`
	ViewCount        int        `json:"viewCount"`
	RecallAttempts   int        `json:"recallAttempts"`
	RecallSuccesses  int        `json:"recallSuccesses"`
	LastViewedAt     *time.Time `json:"lastViewedAt"`
}

// Seen reports whether the highlight has been displayed at least once.
func (h *Highlight) Seen() bool {
	return h.ViewCount > 0
}

// Clone returns a deep copy so callers can mutate without aliasing slices or pointers.
func (h Highlight) Clone() Highlight {
	c := h
	if h.Tags != nil {
		c.Tags = append([]string(nil), h.Tags...)
	}
	if h.Comment != nil {
		s := *h.Comment
		c.Comment = &s
	}
	if h.LastViewedAt != nil {
		t := *h.LastViewedAt
		c.LastViewedAt = &t
	}
	return c
}

// HasUserTag reports whether tag is among the user-assigned tags.
func (h *Highlight) HasUserTag(tag string) bool {
	for _, t := range h.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTime parses an ISO-8601 timestamp. Malformed or empty input returns ok=false,
// which callers treat as "unknown" rather than an error.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatTime renders t in the canonical storage form.
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
