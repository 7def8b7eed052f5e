package engine

import (
	"strings"
	"testing"
	"time"

	"github.com/lazypower/resurface/internal/model"
)

func TestAutoTags(t *testing.T) {
	long := strings.Repeat("Meditations ", 10)
	h := model.Highlight{Source: model.SourceKindle, Author: "Marcus Aurelius", Title: long}

	tags := AutoTags(&h)
	if len(tags) != 3 {
		t.Fatalf("AutoTags = %v, want 3 tags", tags)
	}
	if tags[0] != "kindle" {
		t.Errorf("tags[0] = %q, want kindle", tags[0])
	}
	if tags[1] != "author:marcus aurelius" {
		t.Errorf("tags[1] = %q", tags[1])
	}
	book := strings.TrimPrefix(tags[2], "book:")
	if len([]rune(book)) != 50 {
		t.Errorf("book tag length = %d, want 50", len([]rune(book)))
	}
}

func TestAutoTagsPlaceholders(t *testing.T) {
	h := model.Highlight{Source: model.SourceThought, Author: model.PlaceholderAuthor, Title: model.PlaceholderTitle}
	tags := AutoTags(&h)
	if len(tags) != 1 || tags[0] != "thought" {
		t.Errorf("AutoTags = %v, want [thought]", tags)
	}
}

func TestTagsCounts(t *testing.T) {
	hs := []model.Highlight{
		{Source: model.SourceKindle, Author: "Seneca", Title: "Letters", Tags: []string{"stoic", "kindle"}},
		{Source: model.SourceKindle, Author: "Seneca", Title: "On the Shortness of Life", Tags: []string{"stoic"}},
		{Source: model.SourceJournal, Author: "Unknown", Title: "Personal Thoughts", Tags: []string{"morning"}},
	}

	got := Tags(hs)
	counts := map[string]int{}
	for _, tc := range got {
		counts[tc.Tag] = tc.Count
	}

	want := map[string]int{
		"kindle":        2, // user tag and auto tag counted once per highlight
		"stoic":         2,
		"author:seneca": 2,
		"book:letters":  1,
		"journal":       1,
		"morning":       1,
	}
	for tag, n := range want {
		if counts[tag] != n {
			t.Errorf("count[%s] = %d, want %d", tag, counts[tag], n)
		}
	}
	if _, ok := counts["author:unknown"]; ok {
		t.Error("placeholder author should not produce a tag")
	}

	for i := 1; i < len(got); i++ {
		if got[i].Count > got[i-1].Count {
			t.Errorf("not sorted by count at %d", i)
		}
	}
	if got[0].Tag != "author:seneca" {
		t.Errorf("top tag = %q, want author:seneca (ties break alphabetically)", got[0].Tag)
	}
}

func TestHasTag(t *testing.T) {
	h := model.Highlight{Source: model.SourceTweet, Author: "Naval", Tags: []string{"wealth"}}
	for _, tag := range []string{"wealth", "tweet", "author:naval"} {
		if !HasTag(&h, tag) {
			t.Errorf("HasTag(%q) = false", tag)
		}
	}
	if HasTag(&h, "kindle") {
		t.Error("HasTag(kindle) = true")
	}
}

func reviewFixture() []model.Highlight {
	return []model.Highlight{
		seen("fading", 25, 0),   // 25
		seen("focus", 50, 20),   // 36
		seen("fine", 70, 0),     // 70
		seen("gone", 40, 100),   // 0
		{ID: "new1"}, {ID: "new2"},
	}
}

func TestReviewStats(t *testing.T) {
	st := ReviewStats(reviewFixture(), testNow)
	if st.Fading != 2 {
		t.Errorf("Fading = %d, want 2", st.Fading)
	}
	if st.FocusReview != 3 {
		t.Errorf("FocusReview = %d, want 3", st.FocusReview)
	}
	if st.Unseen != 2 {
		t.Errorf("Unseen = %d, want 2", st.Unseen)
	}
	if st.Total != 6 {
		t.Errorf("Total = %d, want 6", st.Total)
	}
}

func TestFocusReview(t *testing.T) {
	got := FocusReview(reviewFixture(), testNow)
	want := []string{"gone", "fading", "focus"}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].Highlight.ID != id {
			t.Errorf("[%d] = %s, want %s", i, got[i].Highlight.ID, id)
		}
	}
}

func TestRecallStats(t *testing.T) {
	hs := reviewFixture()
	hs[0].RecallAttempts, hs[0].RecallSuccesses = 4, 3
	hs[2].RecallAttempts, hs[2].RecallSuccesses = 4, 1

	st := RecallStats(hs, testNow)
	if st.High != 1 || st.Medium != 1 || st.Low != 4 {
		t.Errorf("buckets = %d/%d/%d, want 1/1/4", st.High, st.Medium, st.Low)
	}
	if st.RecallAttempts != 8 || st.RecallSuccesses != 4 {
		t.Errorf("recall = %d/%d, want 4/8", st.RecallSuccesses, st.RecallAttempts)
	}
	if st.SuccessRate != 0.5 {
		t.Errorf("SuccessRate = %f, want 0.5", st.SuccessRate)
	}
}

func TestOnThisDay(t *testing.T) {
	hs := []model.Highlight{
		{ID: "last-year", CapturedAt: time.Date(2023, 6, 15, 8, 0, 0, 0, time.UTC)},
		{ID: "five-years", CapturedAt: time.Date(2019, 6, 15, 22, 0, 0, 0, time.UTC)},
		{ID: "today", CapturedAt: time.Date(2024, 6, 15, 1, 0, 0, 0, time.UTC)},
		{ID: "other-day", CapturedAt: time.Date(2022, 6, 14, 8, 0, 0, 0, time.UTC)},
		{ID: "unknown"},
	}

	got := OnThisDay(hs, testNow)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Highlight.ID != "last-year" || got[0].YearsAgo != 1 {
		t.Errorf("[0] = %s/%d, want last-year/1", got[0].Highlight.ID, got[0].YearsAgo)
	}
	if got[1].Highlight.ID != "five-years" || got[1].YearsAgo != 5 {
		t.Errorf("[1] = %s/%d, want five-years/5", got[1].Highlight.ID, got[1].YearsAgo)
	}
}
