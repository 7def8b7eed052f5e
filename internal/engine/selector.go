package engine

import (
	"sort"
	"time"

	"github.com/lazypower/resurface/internal/model"
)

// Rand is the randomness the selector needs. *math/rand/v2.Rand satisfies it.
type Rand interface {
	Float64() float64
	IntN(n int) int
}

// Category weights, cumulative. Fall-through order follows the same sequence.
const (
	dueWeight    = 0.40
	unseenWeight = 0.70
	rescueWeight = 0.90
)

// Sampling window per category.
const (
	dueTopN    = 3
	unseenTopN = 5
	rescueTopN = 3
	highTopN   = 5
)

// Pool thresholds.
const (
	dueBelow        = 50.0
	rescuePeakAbove = 50.0
	rescueLossAbove = 10.0
	highAbove       = 60.0
)

// Scored pairs a highlight with its decayed score at selection time.
type Scored struct {
	Highlight *model.Highlight
	Score     float64
	Decay     float64
}

// Pools is the partition of a candidate pool used for weighted selection.
type Pools struct {
	Unseen []*model.Highlight
	Seen   []Scored
	Due    []Scored // decayed < 50, weakest first
	Rescue []Scored // peak > 50 and lost > 10, most decayed first
	High   []Scored // decayed > 60, strongest first
}

// Partition splits candidates into the selector's pools at now.
func Partition(candidates []*model.Highlight, now time.Time) Pools {
	var p Pools
	for _, h := range candidates {
		if !h.Seen() {
			p.Unseen = append(p.Unseen, h)
			continue
		}
		score := DecayedScore(h, now)
		p.Seen = append(p.Seen, Scored{Highlight: h, Score: score, Decay: clamp(h.IntegrationScore) - score})
	}

	for _, s := range p.Seen {
		if s.Score < dueBelow {
			p.Due = append(p.Due, s)
		}
		if s.Highlight.IntegrationScore > rescuePeakAbove && s.Decay > rescueLossAbove {
			p.Rescue = append(p.Rescue, s)
		}
		if s.Score > highAbove {
			p.High = append(p.High, s)
		}
	}

	sort.SliceStable(p.Due, func(i, j int) bool { return p.Due[i].Score < p.Due[j].Score })
	sort.SliceStable(p.Rescue, func(i, j int) bool { return p.Rescue[i].Decay > p.Rescue[j].Decay })
	sort.SliceStable(p.High, func(i, j int) bool { return p.High[i].Score > p.High[j].Score })
	return p
}

// Selector picks the next highlight to resurface.
type Selector struct {
	Rand Rand
}

// NewSelector creates a Selector drawing from r.
func NewSelector(r Rand) *Selector {
	return &Selector{Rand: r}
}

// Next picks one of candidates, avoiding currentID when anything else is
// available. It returns nil only when candidates is empty. The returned
// pointer refers to an element of candidates.
func (s *Selector) Next(candidates []model.Highlight, currentID string, now time.Time) *model.Highlight {
	if len(candidates) == 0 {
		return nil
	}

	pool := make([]*model.Highlight, 0, len(candidates))
	for i := range candidates {
		if currentID != "" && candidates[i].ID == currentID {
			continue
		}
		pool = append(pool, &candidates[i])
	}
	if len(pool) == 0 {
		for i := range candidates {
			pool = append(pool, &candidates[i])
		}
	}

	p := Partition(pool, now)
	r := s.Rand.Float64()

	type category func() *model.Highlight
	due := func() *model.Highlight { return s.pickScored(p.Due, dueTopN) }
	unseen := func() *model.Highlight { return s.pick(p.Unseen, unseenTopN) }
	rescue := func() *model.Highlight { return s.pickScored(p.Rescue, rescueTopN) }
	high := func() *model.Highlight { return s.pickScored(p.High, highTopN) }

	// Start at the drawn category and fall through the rest in weight order.
	order := []category{due, unseen, rescue, high}
	start := 3
	switch {
	case r < dueWeight:
		start = 0
	case r < unseenWeight:
		start = 1
	case r < rescueWeight:
		start = 2
	}
	for _, pickFrom := range order[start:] {
		if h := pickFrom(); h != nil {
			return h
		}
	}
	return pool[s.Rand.IntN(len(pool))]
}

func (s *Selector) pick(hs []*model.Highlight, topN int) *model.Highlight {
	if len(hs) == 0 {
		return nil
	}
	n := min(topN, len(hs))
	return hs[s.Rand.IntN(n)]
}

func (s *Selector) pickScored(ss []Scored, topN int) *model.Highlight {
	if len(ss) == 0 {
		return nil
	}
	n := min(topN, len(ss))
	return ss[s.Rand.IntN(n)].Highlight
}
