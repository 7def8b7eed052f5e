package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lazypower/resurface/internal/engine"
	"github.com/lazypower/resurface/internal/importer"
)

func resetFlags() {
	dbFlag, configFlag = "", ""
	addRecord = importer.Record{}
	importRestore, importSource = false, ""
	nextFilter, nextCurrent = engine.Filter{}, ""
	reviewFilter = engine.Filter{}
	recallSuccess, tagRemove = false, false
}

// run executes the root command against dir's database and returns its output.
func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	resetFlags()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{
		"--db", filepath.Join(dir, "resurface.db"),
		"--config", filepath.Join(dir, "config.yaml"),
	}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, dir string, args ...string) string {
	t.Helper()
	out, err := run(t, dir, args...)
	if err != nil {
		t.Fatalf("%v: %v\n%s", args, err, out)
	}
	return out
}

func TestAddAndNext(t *testing.T) {
	dir := t.TempDir()

	out := mustRun(t, dir, "add", "--author", "Seneca", "--title", "Letters", "--source", "kindle", "We suffer more in imagination")
	if !strings.HasPrefix(out, "added ") {
		t.Fatalf("add output = %q", out)
	}
	id := strings.TrimSpace(strings.TrimPrefix(out, "added "))

	out = mustRun(t, dir, "next")
	if !strings.Contains(out, "We suffer more in imagination") || !strings.Contains(out, "Seneca, Letters") {
		t.Errorf("next output = %q", out)
	}
	if !strings.Contains(out, "views 1") || !strings.Contains(out, id) {
		t.Errorf("next did not record the view: %q", out)
	}

	out = mustRun(t, dir, "recall", id, "--success")
	if !strings.Contains(out, "recall 1/1") {
		t.Errorf("recall output = %q", out)
	}
}

func TestNextEmpty(t *testing.T) {
	out := mustRun(t, t.TempDir(), "next")
	if !strings.Contains(out, "No highlights found.") {
		t.Errorf("output = %q", out)
	}
}

func TestAddRejectsBadSource(t *testing.T) {
	if _, err := run(t, t.TempDir(), "add", "--source", "fax", "hello"); err == nil {
		t.Error("expected error for unknown source")
	}
}

func TestImportExport(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.json")
	data := `[
		{"id": "a", "text": "alpha", "source": "journal", "tags": ["morning"]},
		{"id": "b", "text": "beta", "source": "quote", "integrationScore": 80, "viewCount": 4},
		{"id": "c", "text": "   ", "source": "quote"}
	]`
	if err := os.WriteFile(in, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	out := mustRun(t, dir, "import", in)
	if !strings.Contains(out, "imported 2, skipped 0") || !strings.Contains(out, "record 2 rejected") {
		t.Errorf("import output = %q", out)
	}

	out = mustRun(t, dir, "import", in)
	if !strings.Contains(out, "imported 0, skipped 2") {
		t.Errorf("reimport output = %q", out)
	}

	exported := mustRun(t, dir, "export")
	records, err := importer.ReadJSON(strings.NewReader(exported))
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("exported %d records, want 2", len(records))
	}
	// plain imports start fresh
	if records[1].IntegrationScore != 0 || records[1].ViewCount != 0 {
		t.Errorf("imported state not reset: %+v", records[1])
	}

	restoreDir := t.TempDir()
	mustRun(t, restoreDir, "import", "--restore", in)
	out = mustRun(t, restoreDir, "stats")
	if !strings.Contains(out, "1 high") || !strings.Contains(out, "views:       4") {
		t.Errorf("restored stats = %q", out)
	}
}

func TestReviewTagsAndRemove(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.json")
	data := `[
		{"id": "a", "text": "alpha", "source": "kindle", "author": "Seneca"},
		{"id": "b", "text": "beta", "source": "tweet"}
	]`
	if err := os.WriteFile(in, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	mustRun(t, dir, "import", in)
	mustRun(t, dir, "next", "--source", "kindle")

	out := mustRun(t, dir, "review")
	if !strings.Contains(out, "2 highlights: 1 fading, 1 to review, 1 never seen") {
		t.Errorf("review output = %q", out)
	}
	if !strings.Contains(out, "alpha") {
		t.Errorf("focus queue missing viewed highlight: %q", out)
	}

	out = mustRun(t, dir, "tag", "a", "stoic")
	if !strings.Contains(out, "a tags: stoic") {
		t.Errorf("tag output = %q", out)
	}
	out = mustRun(t, dir, "tags")
	if !strings.Contains(out, "author:seneca") || !strings.Contains(out, "stoic") {
		t.Errorf("tags output = %q", out)
	}

	mustRun(t, dir, "rm", "b")
	if _, err := run(t, dir, "rm", "b"); err == nil {
		t.Error("expected error removing a missing highlight")
	}
}

func TestReviewBadSource(t *testing.T) {
	if _, err := run(t, t.TempDir(), "review", "--source", "fax"); err == nil {
		t.Error("expected error for unknown source")
	}
}
