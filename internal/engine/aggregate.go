package engine

import (
	"sort"
	"strings"
	"time"

	"github.com/lazypower/resurface/internal/model"
)

const maxBookTagRunes = 50

// Bucket thresholds for global recall stats.
const (
	highIntegration   = 60.0
	mediumIntegration = 30.0
)

// TagCount is a tag and the number of highlights carrying it.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// AutoTags derives the tags every highlight gets from its provenance.
func AutoTags(h *model.Highlight) []string {
	tags := []string{string(h.Source)}
	if !model.IsPlaceholderAuthor(h.Author) {
		tags = append(tags, "author:"+strings.ToLower(strings.TrimSpace(h.Author)))
	}
	if !model.IsPlaceholderTitle(h.Title) {
		title := []rune(strings.ToLower(strings.TrimSpace(h.Title)))
		if len(title) > maxBookTagRunes {
			title = title[:maxBookTagRunes]
		}
		tags = append(tags, "book:"+string(title))
	}
	return tags
}

// HasTag reports whether h carries tag, either user-assigned or automatic.
func HasTag(h *model.Highlight, tag string) bool {
	if h.HasUserTag(tag) {
		return true
	}
	for _, t := range AutoTags(h) {
		if t == tag {
			return true
		}
	}
	return false
}

// Tags counts user and automatic tags across hs, most frequent first.
func Tags(hs []model.Highlight) []TagCount {
	counts := make(map[string]int)
	for i := range hs {
		seen := make(map[string]bool)
		for _, t := range append(append([]string(nil), hs[i].Tags...), AutoTags(&hs[i])...) {
			if t == "" || seen[t] {
				continue
			}
			seen[t] = true
			counts[t]++
		}
	}

	out := make([]TagCount, 0, len(counts))
	for tag, n := range counts {
		out = append(out, TagCount{Tag: tag, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Tag < out[j].Tag
	})
	return out
}

// QueueStats summarizes the review queue.
type QueueStats struct {
	Fading      int `json:"fading"`
	FocusReview int `json:"focusReview"`
	Unseen      int `json:"unseen"`
	Total       int `json:"total"`
}

// ReviewStats counts fading, focus-review, and never-viewed highlights.
func ReviewStats(hs []model.Highlight, now time.Time) QueueStats {
	st := QueueStats{Total: len(hs)}
	for i := range hs {
		if !hs[i].Seen() {
			st.Unseen++
			continue
		}
		score := DecayedScore(&hs[i], now)
		if score < FadingThreshold {
			st.Fading++
		}
		if score < FocusReviewThreshold {
			st.FocusReview++
		}
	}
	return st
}

// FocusReview returns previously viewed highlights below the focus threshold, weakest first.
func FocusReview(hs []model.Highlight, now time.Time) []Scored {
	var out []Scored
	for i := range hs {
		if !hs[i].Seen() {
			continue
		}
		score := DecayedScore(&hs[i], now)
		if score >= FocusReviewThreshold {
			continue
		}
		out = append(out, Scored{Highlight: &hs[i], Score: score, Decay: DecayAmount(&hs[i], now)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score < out[j].Score })
	return out
}

// GlobalStats buckets the collection by integration and totals recall activity.
type GlobalStats struct {
	High            int     `json:"high"`
	Medium          int     `json:"medium"`
	Low             int     `json:"low"`
	RecallAttempts  int     `json:"recallAttempts"`
	RecallSuccesses int     `json:"recallSuccesses"`
	SuccessRate     float64 `json:"successRate"`
	TotalViews      int     `json:"totalViews"`
}

// RecallStats computes GlobalStats over hs at now.
func RecallStats(hs []model.Highlight, now time.Time) GlobalStats {
	var st GlobalStats
	for i := range hs {
		switch score := DecayedScore(&hs[i], now); {
		case score >= highIntegration:
			st.High++
		case score >= mediumIntegration:
			st.Medium++
		default:
			st.Low++
		}
		st.RecallAttempts += hs[i].RecallAttempts
		st.RecallSuccesses += hs[i].RecallSuccesses
		st.TotalViews += hs[i].ViewCount
	}
	if st.RecallAttempts > 0 {
		st.SuccessRate = float64(st.RecallSuccesses) / float64(st.RecallAttempts)
	}
	return st
}

// Anniversary is a highlight captured on today's date in an earlier year.
type Anniversary struct {
	Highlight *model.Highlight
	YearsAgo  int
}

// OnThisDay returns highlights whose capture date shares now's month and day
// in a strictly earlier year, most recent first. Unknown capture dates are skipped.
func OnThisDay(hs []model.Highlight, now time.Time) []Anniversary {
	var out []Anniversary
	for i := range hs {
		if hs[i].CapturedAt.IsZero() {
			continue
		}
		c := hs[i].CapturedAt.In(now.Location())
		if c.Month() != now.Month() || c.Day() != now.Day() || c.Year() >= now.Year() {
			continue
		}
		out = append(out, Anniversary{Highlight: &hs[i], YearsAgo: now.Year() - c.Year()})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].YearsAgo < out[j].YearsAgo })
	return out
}
