package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
)

const seedBody = `[
	{"id": "a", "text": "alpha", "source": "kindle", "title": "Letters", "author": "Seneca", "capturedAt": "2021-06-15T08:00:00Z"},
	{"id": "b", "text": "beta", "source": "journal", "tags": ["morning"]},
	{"id": "c", "text": "gamma", "source": "tweet"}
]`

func seedServer(t *testing.T, srv *Server) {
	t.Helper()
	w := do(t, srv, "POST", "/api/highlights/import", seedBody)
	if w.Code != http.StatusCreated {
		t.Fatalf("import status = %d; body: %s", w.Code, w.Body.String())
	}
	var res map[string]any
	json.Unmarshal(w.Body.Bytes(), &res)
	if res["added"] != float64(3) {
		t.Fatalf("added = %v, want 3", res["added"])
	}
}

func decodeHighlight(t *testing.T, body []byte) map[string]any {
	t.Helper()
	var h map[string]any
	if err := json.Unmarshal(body, &h); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return h
}

func TestCreateHighlight(t *testing.T) {
	srv := testServer(t)

	w := do(t, srv, "POST", "/api/highlights", `{"text":"Stay hungry","source":"quote","author":"Jobs"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d; body: %s", w.Code, w.Body.String())
	}
	h := decodeHighlight(t, w.Body.Bytes())
	if h["id"] == "" || h["text"] != "Stay hungry" {
		t.Errorf("highlight = %v", h)
	}
	if h["viewCount"] != float64(0) || h["lastViewedAt"] != nil {
		t.Errorf("memory state not zero: %v", h)
	}
}

func TestCreateHighlightInvalid(t *testing.T) {
	srv := testServer(t)

	for _, body := range []string{`not json`, `{"text":"  "}`, `{"text":"x","source":"fax"}`} {
		if w := do(t, srv, "POST", "/api/highlights", body); w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", body, w.Code)
		}
	}
}

func TestListWithFilters(t *testing.T) {
	srv := testServer(t)
	seedServer(t, srv)

	cases := []struct {
		query string
		count float64
	}{
		{"", 3},
		{"?source=kindle", 1},
		{"?tag=morning", 1},
		{"?tag=author:seneca", 1},
	}
	for _, tc := range cases {
		w := do(t, srv, "GET", "/api/highlights"+tc.query, "")
		if w.Code != http.StatusOK {
			t.Fatalf("%s: status = %d", tc.query, w.Code)
		}
		var resp map[string]any
		json.Unmarshal(w.Body.Bytes(), &resp)
		if resp["count"] != tc.count {
			t.Errorf("%s: count = %v, want %v", tc.query, resp["count"], tc.count)
		}
	}

	if w := do(t, srv, "GET", "/api/highlights?source=fax", ""); w.Code != http.StatusBadRequest {
		t.Errorf("bad source status = %d, want 400", w.Code)
	}
}

func TestEventsUpdateScore(t *testing.T) {
	srv := testServer(t)
	seedServer(t, srv)

	w := do(t, srv, "POST", "/api/highlights/a/view", "")
	if w.Code != http.StatusOK {
		t.Fatalf("view status = %d", w.Code)
	}
	h := decodeHighlight(t, w.Body.Bytes())
	if h["integrationScore"] != float64(1) || h["viewCount"] != float64(1) {
		t.Errorf("after view = %v", h)
	}

	w = do(t, srv, "POST", "/api/highlights/a/recall", `{"success":true}`)
	h = decodeHighlight(t, w.Body.Bytes())
	if h["integrationScore"] != float64(11) || h["recallSuccesses"] != float64(1) {
		t.Errorf("after recall = %v", h)
	}

	w = do(t, srv, "POST", "/api/highlights/a/comment", `{"comment":"worth rereading"}`)
	h = decodeHighlight(t, w.Body.Bytes())
	if h["integrationScore"] != float64(14) || h["comment"] != "worth rereading" {
		t.Errorf("after comment = %v", h)
	}
	if h["decayedScore"] != float64(14) {
		t.Errorf("decayedScore = %v, want 14", h["decayedScore"])
	}
}

func TestEventValidation(t *testing.T) {
	srv := testServer(t)
	seedServer(t, srv)

	if w := do(t, srv, "POST", "/api/highlights/a/recall", `{}`); w.Code != http.StatusBadRequest {
		t.Errorf("recall without success = %d, want 400", w.Code)
	}
	if w := do(t, srv, "POST", "/api/highlights/a/comment", `{"comment":""}`); w.Code != http.StatusBadRequest {
		t.Errorf("empty comment = %d, want 400", w.Code)
	}
	if w := do(t, srv, "POST", "/api/highlights/zzz/view", ""); w.Code != http.StatusNotFound {
		t.Errorf("view missing = %d, want 404", w.Code)
	}
}

func TestEditAndTags(t *testing.T) {
	srv := testServer(t)
	seedServer(t, srv)

	w := do(t, srv, "PATCH", "/api/highlights/b", `{"text":"beta two","comment":"edited"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("edit status = %d; body: %s", w.Code, w.Body.String())
	}
	h := decodeHighlight(t, w.Body.Bytes())
	if h["text"] != "beta two" || h["comment"] != "edited" || h["integrationScore"] != float64(0) {
		t.Errorf("after edit = %v", h)
	}

	if w := do(t, srv, "PATCH", "/api/highlights/b", `{"text":" "}`); w.Code != http.StatusBadRequest {
		t.Errorf("blank text edit = %d, want 400", w.Code)
	}

	w = do(t, srv, "POST", "/api/highlights/b/tags", `{"tag":"calm"}`)
	h = decodeHighlight(t, w.Body.Bytes())
	if tags, _ := h["tags"].([]any); len(tags) != 2 {
		t.Errorf("tags = %v", h["tags"])
	}

	w = do(t, srv, "DELETE", "/api/highlights/b/tags/morning", "")
	h = decodeHighlight(t, w.Body.Bytes())
	if tags, _ := h["tags"].([]any); len(tags) != 1 || tags[0] != "calm" {
		t.Errorf("tags = %v", h["tags"])
	}
}

func TestCreateExistingIDConflicts(t *testing.T) {
	srv := testServer(t)
	seedServer(t, srv)
	do(t, srv, "POST", "/api/highlights/a/view", "")
	do(t, srv, "POST", "/api/highlights/a/recall", `{"success":true}`)

	w := do(t, srv, "POST", "/api/highlights", `{"id":"a","text":"overwritten","source":"tweet"}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409; body: %s", w.Code, w.Body.String())
	}

	h := decodeHighlight(t, do(t, srv, "GET", "/api/highlights/a", "").Body.Bytes())
	if h["text"] != "alpha" || h["source"] != "kindle" {
		t.Errorf("content changed: %v", h)
	}
	if h["integrationScore"] != float64(11) || h["viewCount"] != float64(1) || h["recallSuccesses"] != float64(1) {
		t.Errorf("memory state changed: %v", h)
	}
}

func TestUntagEscapedSlash(t *testing.T) {
	srv := testServer(t)
	seedServer(t, srv)

	do(t, srv, "POST", "/api/highlights/b/tags", `{"tag":"books/fiction"}`)
	w := do(t, srv, "DELETE", "/api/highlights/b/tags/books%2Ffiction", "")
	if w.Code != http.StatusOK {
		t.Fatalf("untag = %d; body: %s", w.Code, w.Body.String())
	}
	h := decodeHighlight(t, w.Body.Bytes())
	if tags, _ := h["tags"].([]any); len(tags) != 1 || tags[0] != "morning" {
		t.Errorf("tags = %v, want [morning]", h["tags"])
	}
}

func TestDeleteHighlight(t *testing.T) {
	srv := testServer(t)
	seedServer(t, srv)

	if w := do(t, srv, "DELETE", "/api/highlights/c", ""); w.Code != http.StatusOK {
		t.Fatalf("delete = %d", w.Code)
	}
	if w := do(t, srv, "GET", "/api/highlights/c", ""); w.Code != http.StatusNotFound {
		t.Errorf("get deleted = %d, want 404", w.Code)
	}
	if w := do(t, srv, "DELETE", "/api/highlights/c", ""); w.Code != http.StatusNotFound {
		t.Errorf("second delete = %d, want 404", w.Code)
	}
}

func TestNext(t *testing.T) {
	srv := testServer(t)

	if w := do(t, srv, "GET", "/api/next", ""); w.Code != http.StatusNoContent {
		t.Errorf("empty collection = %d, want 204", w.Code)
	}

	seedServer(t, srv)
	for i := 0; i < 30; i++ {
		w := do(t, srv, "GET", "/api/next?current=a", "")
		if w.Code != http.StatusOK {
			t.Fatalf("next = %d", w.Code)
		}
		h := decodeHighlight(t, w.Body.Bytes())
		if h["id"] == "a" {
			t.Fatal("next returned the current highlight")
		}
		bg, _ := h["background"].(float64)
		if bg < 0 || bg >= 12 {
			t.Errorf("background = %v out of range", h["background"])
		}
	}

	w := do(t, srv, "GET", "/api/next?source=tweet", "")
	if h := decodeHighlight(t, w.Body.Bytes()); h["id"] != "c" {
		t.Errorf("filtered next = %v, want c", h["id"])
	}
}

func TestReviewAndStats(t *testing.T) {
	srv := testServer(t)
	seedServer(t, srv)
	do(t, srv, "POST", "/api/highlights/a/view", "")

	var st map[string]float64
	w := do(t, srv, "GET", "/api/review/stats", "")
	json.Unmarshal(w.Body.Bytes(), &st)
	if st["unseen"] != 2 || st["fading"] != 1 || st["focusReview"] != 1 || st["total"] != 3 {
		t.Errorf("review stats = %v", st)
	}

	w = do(t, srv, "GET", "/api/review/focus", "")
	var focus map[string]any
	json.Unmarshal(w.Body.Bytes(), &focus)
	if focus["count"] != float64(1) {
		t.Errorf("focus = %v", focus)
	}

	w = do(t, srv, "GET", "/api/stats", "")
	var gs map[string]float64
	json.Unmarshal(w.Body.Bytes(), &gs)
	if gs["low"] != 3 || gs["totalViews"] != 1 {
		t.Errorf("stats = %v", gs)
	}
}

func TestTagsAndOnThisDay(t *testing.T) {
	srv := testServer(t)
	seedServer(t, srv)

	w := do(t, srv, "GET", "/api/tags", "")
	if !strings.Contains(w.Body.String(), `"author:seneca"`) || !strings.Contains(w.Body.String(), `"morning"`) {
		t.Errorf("tags body = %s", w.Body.String())
	}

	w = do(t, srv, "GET", "/api/on-this-day", "")
	var resp struct {
		Count      int `json:"count"`
		Highlights []struct {
			ID       string `json:"id"`
			YearsAgo int    `json:"yearsAgo"`
		} `json:"highlights"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Count != 1 || resp.Highlights[0].ID != "a" || resp.Highlights[0].YearsAgo != 3 {
		t.Errorf("on this day = %+v", resp)
	}
}

func TestExportRestore(t *testing.T) {
	srv := testServer(t)
	seedServer(t, srv)
	do(t, srv, "POST", "/api/highlights/a/recall", `{"success":false}`)

	w := do(t, srv, "GET", "/api/highlights/export", "")
	if w.Code != http.StatusOK {
		t.Fatalf("export = %d", w.Code)
	}
	exported := w.Body.String()

	other := testServer(t)
	w = do(t, other, "POST", "/api/highlights/import?restore=true", exported)
	if w.Code != http.StatusCreated {
		t.Fatalf("restore = %d; body: %s", w.Code, w.Body.String())
	}

	w = do(t, other, "GET", "/api/highlights/a", "")
	h := decodeHighlight(t, w.Body.Bytes())
	if h["integrationScore"] != float64(5) || h["recallAttempts"] != float64(1) {
		t.Errorf("restored = %v", h)
	}
}
