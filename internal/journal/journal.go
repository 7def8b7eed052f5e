// Package journal joins the highlight store with the scoring engine: it loads
// highlights, applies pure engine operations, and persists what they return.
package journal

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/lazypower/resurface/internal/engine"
	"github.com/lazypower/resurface/internal/importer"
	"github.com/lazypower/resurface/internal/model"
	"github.com/lazypower/resurface/internal/store"
)

var (
	// ErrNotFound is returned when a highlight id is not in the store.
	ErrNotFound = errors.New("highlight not found")
	// ErrExists is returned when adding a highlight whose id is already stored.
	ErrExists = errors.New("highlight already exists")
)

// Journal is the single logical writer over a highlight store.
type Journal struct {
	DB *store.DB

	mu       sync.Mutex // serializes writes and guards the selector's Rand
	selector *engine.Selector
	now      func() time.Time
}

// New creates a Journal selecting with rng.
func New(db *store.DB, rng engine.Rand) *Journal {
	return &Journal{
		DB:       db,
		selector: engine.NewSelector(rng),
		now:      time.Now,
	}
}

// SetClock replaces the time source, for tests.
func (j *Journal) SetClock(now func() time.Time) {
	j.now = now
}

// Now returns the journal's current time.
func (j *Journal) Now() time.Time {
	return j.now()
}

// ImportResult reports the outcome of an import.
type ImportResult struct {
	Added    int                 `json:"added"`
	Skipped  int                 `json:"skipped"`
	Rejected []importer.Rejected `json:"rejected,omitempty"`
}

// Add normalizes and stores a single manually entered highlight. An id that
// is already stored is left untouched and ErrExists is returned.
func (j *Journal) Add(r importer.Record) (*model.Highlight, error) {
	h, err := importer.Normalize(r, importer.Options{DefaultSource: model.SourceQuote}, j.now())
	if err != nil {
		return nil, err
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	added, err := j.DB.InsertHighlights([]model.Highlight{h})
	if err != nil {
		return nil, err
	}
	if added == 0 {
		return nil, fmt.Errorf("%w: %s", ErrExists, h.ID)
	}
	return &h, nil
}

// Import stores a batch of records. Ids already present are skipped, not replaced.
func (j *Journal) Import(records []importer.Record, opts importer.Options) (ImportResult, error) {
	hs, rejected := importer.Batch(records, opts, j.now())

	j.mu.Lock()
	defer j.mu.Unlock()
	added, err := j.DB.InsertHighlights(hs)
	if err != nil {
		return ImportResult{}, fmt.Errorf("import: %w", err)
	}
	return ImportResult{Added: added, Skipped: len(hs) - added, Rejected: rejected}, nil
}

// Get returns one highlight.
func (j *Journal) Get(id string) (*model.Highlight, error) {
	h, err := j.DB.GetHighlight(id)
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, ErrNotFound
	}
	return h, nil
}

// List returns the highlights passing f, in insertion order.
func (j *Journal) List(f engine.Filter) ([]model.Highlight, error) {
	hs, err := j.DB.ListHighlights()
	if err != nil {
		return nil, err
	}
	return f.Apply(hs), nil
}

// Next picks the highlight to show after currentID from those passing f.
// It returns nil with no error when nothing matches.
func (j *Journal) Next(f engine.Filter, currentID string) (*model.Highlight, error) {
	hs, err := j.List(f)
	if err != nil {
		return nil, err
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	picked := j.selector.Next(hs, currentID, j.now())
	if picked == nil {
		return nil, nil
	}
	out := picked.Clone()
	return &out, nil
}

// update loads id, applies fn, and persists the result.
func (j *Journal) update(id string, fn func(model.Highlight) model.Highlight) (*model.Highlight, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	h, err := j.DB.GetHighlight(id)
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, ErrNotFound
	}

	out := fn(*h)
	if err := j.DB.UpsertHighlight(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Record applies a score event to a highlight.
func (j *Journal) Record(id string, ev engine.Event) (*model.Highlight, error) {
	if !ev.Valid() {
		return nil, fmt.Errorf("unknown event %q", ev)
	}
	now := j.now()
	return j.update(id, func(h model.Highlight) model.Highlight { return engine.Apply(h, ev, now) })
}

// View records that a highlight became the displayed card.
func (j *Journal) View(id string) (*model.Highlight, error) {
	return j.Record(id, engine.EventView)
}

// Recall records a recall attempt.
func (j *Journal) Recall(id string, success bool) (*model.Highlight, error) {
	now := j.now()
	return j.update(id, func(h model.Highlight) model.Highlight { return engine.Recall(h, success, now) })
}

// Comment sets the comment on a highlight and credits the comment event.
func (j *Journal) Comment(id, text string) (*model.Highlight, error) {
	now := j.now()
	return j.update(id, func(h model.Highlight) model.Highlight { return engine.AddComment(h, text, now) })
}

// Tag adds a user tag.
func (j *Journal) Tag(id, tag string) (*model.Highlight, error) {
	return j.update(id, func(h model.Highlight) model.Highlight { return engine.WithTag(h, tag) })
}

// Untag removes a user tag.
func (j *Journal) Untag(id, tag string) (*model.Highlight, error) {
	return j.update(id, func(h model.Highlight) model.Highlight { return engine.WithoutTag(h, tag) })
}

// Edit changes text or comment without touching memory state.
func (j *Journal) Edit(id string, e engine.Edit) (*model.Highlight, error) {
	return j.update(id, func(h model.Highlight) model.Highlight { return engine.WithEdit(h, e) })
}

// Delete removes a highlight.
func (j *Journal) Delete(id string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	ok, err := j.DB.DeleteHighlight(id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// ReviewStats summarizes the review queue.
func (j *Journal) ReviewStats(f engine.Filter) (engine.QueueStats, error) {
	hs, err := j.List(f)
	if err != nil {
		return engine.QueueStats{}, err
	}
	return engine.ReviewStats(hs, j.now()), nil
}

// FocusReview returns the focus-review queue, weakest first.
func (j *Journal) FocusReview(f engine.Filter) ([]engine.Scored, error) {
	hs, err := j.List(f)
	if err != nil {
		return nil, err
	}
	return engine.FocusReview(hs, j.now()), nil
}

// Stats returns global recall stats.
func (j *Journal) Stats() (engine.GlobalStats, error) {
	hs, err := j.DB.ListHighlights()
	if err != nil {
		return engine.GlobalStats{}, err
	}
	return engine.RecallStats(hs, j.now()), nil
}

// Tags returns tag counts across the collection.
func (j *Journal) Tags() ([]engine.TagCount, error) {
	hs, err := j.DB.ListHighlights()
	if err != nil {
		return nil, err
	}
	return engine.Tags(hs), nil
}

// OnThisDay returns highlights captured on today's date in earlier years.
func (j *Journal) OnThisDay() ([]engine.Anniversary, error) {
	hs, err := j.DB.ListHighlights()
	if err != nil {
		return nil, err
	}
	return engine.OnThisDay(hs, j.now()), nil
}
