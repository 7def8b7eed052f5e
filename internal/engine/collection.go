package engine

import (
	"strings"
	"time"

	"github.com/lazypower/resurface/internal/model"
)

// Filter narrows a collection before selection. Empty fields match everything.
type Filter struct {
	Source model.Source
	Tag    string
}

// Match reports whether h passes f.
func (f Filter) Match(h *model.Highlight) bool {
	if f.Source != "" && h.Source != f.Source {
		return false
	}
	if f.Tag != "" && !HasTag(h, f.Tag) {
		return false
	}
	return true
}

// Apply returns the highlights in hs that pass f, in order.
func (f Filter) Apply(hs []model.Highlight) []model.Highlight {
	if f.Source == "" && f.Tag == "" {
		return hs
	}
	var out []model.Highlight
	for i := range hs {
		if f.Match(&hs[i]) {
			out = append(out, hs[i])
		}
	}
	return out
}

// Update applies fn to the highlight with id and returns a new collection plus
// the updated highlight. A missing id leaves the collection as is and returns nil.
func Update(hs []model.Highlight, id string, fn func(model.Highlight) model.Highlight) ([]model.Highlight, *model.Highlight) {
	for i := range hs {
		if hs[i].ID != id {
			continue
		}
		out := append([]model.Highlight(nil), hs...)
		out[i] = fn(hs[i])
		return out, &out[i]
	}
	return hs, nil
}

// ApplyByID records ev on the highlight with id.
func ApplyByID(hs []model.Highlight, id string, ev Event, now time.Time) ([]model.Highlight, *model.Highlight) {
	return Update(hs, id, func(h model.Highlight) model.Highlight { return Apply(h, ev, now) })
}

// CommentByID sets a comment and credits the comment event.
func CommentByID(hs []model.Highlight, id, text string, now time.Time) ([]model.Highlight, *model.Highlight) {
	return Update(hs, id, func(h model.Highlight) model.Highlight { return AddComment(h, text, now) })
}

// WithTag returns h with tag appended if absent. Memory state is untouched.
func WithTag(h model.Highlight, tag string) model.Highlight {
	out := h.Clone()
	tag = strings.TrimSpace(tag)
	if tag == "" || out.HasUserTag(tag) {
		return out
	}
	out.Tags = append(out.Tags, tag)
	return out
}

// WithoutTag returns h with tag removed.
func WithoutTag(h model.Highlight, tag string) model.Highlight {
	out := h.Clone()
	kept := out.Tags[:0]
	for _, t := range out.Tags {
		if t != tag {
			kept = append(kept, t)
		}
	}
	out.Tags = kept
	return out
}

// AddTag tags the highlight with id.
func AddTag(hs []model.Highlight, id, tag string) ([]model.Highlight, *model.Highlight) {
	return Update(hs, id, func(h model.Highlight) model.Highlight { return WithTag(h, tag) })
}

// RemoveTag untags the highlight with id.
func RemoveTag(hs []model.Highlight, id, tag string) ([]model.Highlight, *model.Highlight) {
	return Update(hs, id, func(h model.Highlight) model.Highlight { return WithoutTag(h, tag) })
}

// Edit is a content change. Nil fields are left alone; an empty Comment clears it.
type Edit struct {
	Text    *string
	Comment *string
}

// WithEdit applies e to a copy of h without touching memory state.
func WithEdit(h model.Highlight, e Edit) model.Highlight {
	out := h.Clone()
	if e.Text != nil {
		if text := strings.TrimSpace(*e.Text); text != "" {
			out.Text = text
		}
	}
	if e.Comment != nil {
		if *e.Comment == "" {
			out.Comment = nil
		} else {
			c := *e.Comment
			out.Comment = &c
		}
	}
	return out
}

// EditByID applies a content edit to the highlight with id.
func EditByID(hs []model.Highlight, id string, e Edit) ([]model.Highlight, *model.Highlight) {
	return Update(hs, id, func(h model.Highlight) model.Highlight { return WithEdit(h, e) })
}

// Remove returns hs without the highlight with id and whether it was present.
func Remove(hs []model.Highlight, id string) ([]model.Highlight, bool) {
	for i := range hs {
		if hs[i].ID == id {
			out := make([]model.Highlight, 0, len(hs)-1)
			out = append(out, hs[:i]...)
			return append(out, hs[i+1:]...), true
		}
	}
	return hs, false
}
