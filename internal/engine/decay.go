// Package engine implements the integration score model, the resurfacing
// selector, and the aggregate queries built on them. Everything here is a pure
// computation over highlights passed in; persistence belongs to the caller.
//
// Decay model:
//   - Linear loss of DecayRatePerDay points per day since the last event
//   - Floor 0, ceiling 100
//   - Never-viewed highlights (LastViewedAt == nil) do not decay
//   - Computed on read from (IntegrationScore, LastViewedAt, now); no timer
//   - Every event decays to now first, then adds its increment
package engine

import (
	"time"

	"github.com/lazypower/resurface/internal/model"
)

const (
	// DecayRatePerDay loses roughly 5 points per week of neglect.
	DecayRatePerDay = 0.7

	MaxScore = 100.0

	// FadingThreshold marks a previously viewed highlight as fading.
	FadingThreshold = 30.0

	// FocusReviewThreshold admits a previously viewed highlight to focus review.
	FocusReviewThreshold = 40.0
)

// Event is a user interaction that raises the integration score.
type Event string

const (
	EventView            Event = "view"
	EventComment         Event = "comment"
	EventRecallFailed    Event = "recall_failed"
	EventRecallSucceeded Event = "recall_succeeded"
)

var increments = map[Event]float64{
	EventView:            1,
	EventComment:         3,
	EventRecallFailed:    5,
	EventRecallSucceeded: 10,
}

// Valid reports whether e is a known event.
func (e Event) Valid() bool {
	_, ok := increments[e]
	return ok
}

// Increment returns the score credit for e, 0 for unknown events.
func (e Event) Increment() float64 {
	return increments[e]
}

// DecayedScore returns the integration score as of now.
func DecayedScore(h *model.Highlight, now time.Time) float64 {
	if h.LastViewedAt == nil {
		return clamp(h.IntegrationScore)
	}
	days := now.Sub(*h.LastViewedAt).Hours() / 24
	if days < 0 {
		// Event stamped ahead of now (clock skew between devices).
		days = 0
	}
	return clamp(h.IntegrationScore - days*DecayRatePerDay)
}

// DecayAmount returns how many points h has lost since its last event.
func DecayAmount(h *model.Highlight, now time.Time) float64 {
	return clamp(h.IntegrationScore) - DecayedScore(h, now)
}

// Apply records ev on a copy of h at now and returns the updated copy.
// Unknown events return the copy unchanged.
func Apply(h model.Highlight, ev Event, now time.Time) model.Highlight {
	out := h.Clone()
	inc, ok := increments[ev]
	if !ok {
		return out
	}

	out.IntegrationScore = clamp(DecayedScore(&h, now) + inc)
	stamp := now
	out.LastViewedAt = &stamp

	switch ev {
	case EventView:
		out.ViewCount++
	case EventRecallFailed:
		out.RecallAttempts++
	case EventRecallSucceeded:
		out.RecallAttempts++
		out.RecallSuccesses++
	}
	return out
}

// AddComment sets the comment on a copy of h and credits the comment event.
func AddComment(h model.Highlight, text string, now time.Time) model.Highlight {
	out := Apply(h, EventComment, now)
	out.Comment = &text
	return out
}

// Recall credits a recall attempt, successful or not.
func Recall(h model.Highlight, success bool, now time.Time) model.Highlight {
	if success {
		return Apply(h, EventRecallSucceeded, now)
	}
	return Apply(h, EventRecallFailed, now)
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > MaxScore {
		return MaxScore
	}
	return v
}
