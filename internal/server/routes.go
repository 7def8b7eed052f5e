package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lazypower/resurface/internal/engine"
	"github.com/lazypower/resurface/internal/importer"
	"github.com/lazypower/resurface/internal/journal"
	"github.com/lazypower/resurface/internal/model"
)

// highlightJSON is a highlight as the UI sees it: stored fields plus the
// score computed at request time.
type highlightJSON struct {
	model.Highlight
	DecayedScore float64 `json:"decayedScore"`
	Fading       bool    `json:"fading"`
	Background   int     `json:"background"`
}

func (s *Server) present(h *model.Highlight, now time.Time) highlightJSON {
	score := engine.DecayedScore(h, now)
	out := highlightJSON{
		Highlight:    h.Clone(),
		DecayedScore: score,
		Fading:       h.Seen() && score < engine.FadingThreshold,
		Background:   s.backgrounds.For(h.ID),
	}
	if out.Tags == nil {
		out.Tags = []string{}
	}
	return out
}

func (s *Server) presentAll(hs []model.Highlight, now time.Time) []highlightJSON {
	out := make([]highlightJSON, len(hs))
	for i := range hs {
		out[i] = s.present(&hs[i], now)
	}
	return out
}

func filterFrom(r *http.Request) (engine.Filter, error) {
	q := r.URL.Query()
	f := engine.Filter{
		Source: model.Source(q.Get("source")),
		Tag:    q.Get("tag"),
	}
	if f.Source != "" && !f.Source.Valid() {
		return f, errors.New("unknown source " + string(f.Source))
	}
	return f, nil
}

// respond writes an updated highlight or maps the journal error to a status.
func (s *Server) respond(w http.ResponseWriter, h *model.Highlight, err error) {
	switch {
	case errors.Is(err, journal.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case err != nil:
		log.Printf("highlight update: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		writeJSON(w, http.StatusOK, s.present(h, s.journal.Now()))
	}
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	f, err := filterFrom(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	hs, err := s.journal.List(f)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"count":      len(hs),
		"highlights": s.presentAll(hs, s.journal.Now()),
	})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	h, err := s.journal.Get(chi.URLParam(r, "id"))
	s.respond(w, h, err)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var rec importer.Record
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	h, err := s.journal.Add(rec)
	switch {
	case errors.Is(err, journal.ErrExists):
		writeError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, s.present(h, s.journal.Now()))
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	records, err := importer.ReadJSON(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	opts := importer.Options{KeepState: r.URL.Query().Get("restore") == "true"}
	if src := r.URL.Query().Get("source"); src != "" {
		opts.DefaultSource = model.Source(src)
	}

	res, err := s.journal.Import(records, opts)
	if err != nil {
		log.Printf("import failed: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	hs, err := s.journal.List(engine.Filter{})
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="highlights.json"`)
	if err := importer.WriteJSON(w, hs); err != nil {
		log.Printf("export failed: %v", err)
	}
}

func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text    *string `json:"text"`
		Comment *string `json:"comment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Text != nil && strings.TrimSpace(*req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text cannot be empty")
		return
	}

	h, err := s.journal.Edit(chi.URLParam(r, "id"), engine.Edit{Text: req.Text, Comment: req.Comment})
	s.respond(w, h, err)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	err := s.journal.Delete(chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, journal.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	h, err := s.journal.View(chi.URLParam(r, "id"))
	s.respond(w, h, err)
}

func (s *Server) handleComment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Comment string `json:"comment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(req.Comment) == "" {
		writeError(w, http.StatusBadRequest, "comment required")
		return
	}

	h, err := s.journal.Comment(chi.URLParam(r, "id"), strings.TrimSpace(req.Comment))
	s.respond(w, h, err)
}

func (s *Server) handleRecall(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Success *bool `json:"success"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Success == nil {
		writeError(w, http.StatusBadRequest, "success required")
		return
	}

	h, err := s.journal.Recall(chi.URLParam(r, "id"), *req.Success)
	s.respond(w, h, err)
}

func (s *Server) handleTag(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Tag string `json:"tag"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(req.Tag) == "" {
		writeError(w, http.StatusBadRequest, "tag required")
		return
	}

	h, err := s.journal.Tag(chi.URLParam(r, "id"), req.Tag)
	s.respond(w, h, err)
}

func (s *Server) handleUntag(w http.ResponseWriter, r *http.Request) {
	tag := chi.URLParam(r, "tag")
	// chi routes on RawPath when the path has escapes, leaving params escaped
	if r.URL.RawPath != "" {
		unescaped, err := url.PathUnescape(tag)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid tag")
			return
		}
		tag = unescaped
	}

	h, err := s.journal.Untag(chi.URLParam(r, "id"), tag)
	s.respond(w, h, err)
}

func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	f, err := filterFrom(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h, err := s.journal.Next(f, r.URL.Query().Get("current"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if h == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, s.present(h, s.journal.Now()))
}

func (s *Server) handleReviewStats(w http.ResponseWriter, r *http.Request) {
	f, err := filterFrom(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	st, err := s.journal.ReviewStats(f)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleFocusReview(w http.ResponseWriter, r *http.Request) {
	f, err := filterFrom(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	queue, err := s.journal.FocusReview(f)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	now := s.journal.Now()
	out := make([]highlightJSON, len(queue))
	for i, sc := range queue {
		out[i] = s.present(sc.Highlight, now)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":      len(out),
		"highlights": out,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.journal.Stats()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.journal.Tags()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tags": tags})
}

func (s *Server) handleOnThisDay(w http.ResponseWriter, r *http.Request) {
	days, err := s.journal.OnThisDay()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	type anniversaryJSON struct {
		highlightJSON
		YearsAgo int `json:"yearsAgo"`
	}
	now := s.journal.Now()
	out := make([]anniversaryJSON, len(days))
	for i, d := range days {
		out[i] = anniversaryJSON{s.present(d.Highlight, now), d.YearsAgo}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count":      len(out),
		"highlights": out,
	})
}
