package driver

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"crease/internal/foldcache"
	"crease/internal/markdown"
)

const fencedDoc = "intro\n\n```go\ncode here\nmore code\n```\n"

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

func TestListMarkdownFiles(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"b.md":            "x\n",
		"a.markdown":      "y\n",
		"sub/c.md":        "z\n",
		"ignore.txt":      "no\n",
		"sub/ignore.html": "no\n",
	})
	files, err := ListMarkdownFiles(dir)
	if err != nil {
		t.Fatalf("ListMarkdownFiles: %v", err)
	}
	if len(files) != 3 {
		t.Fatalf("expected 3 markdown files, got %v", files)
	}
}

func TestFoldPathsProducesRegions(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"doc.md":   fencedDoc,
		"plain.md": "just one paragraph\nover two lines\n",
	})

	_, results, err := FoldPaths(context.Background(),
		[]string{filepath.Join(dir, "doc.md"), filepath.Join(dir, "plain.md")},
		Options{Flavor: markdown.FlavorGFM, Jobs: 2})
	if err != nil {
		t.Fatalf("FoldPaths: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Err != nil || results[1].Err != nil {
		t.Fatalf("unexpected errors: %v %v", results[0].Err, results[1].Err)
	}
	if len(results[0].Regions) != 1 {
		t.Fatalf("doc.md should fold its fence: %+v", results[0].Regions)
	}
	if len(results[1].Regions) != 0 {
		t.Fatalf("plain.md has nothing to fold: %+v", results[1].Regions)
	}
}

func TestFoldPathsReportsLoadErrors(t *testing.T) {
	dir := writeFiles(t, map[string]string{"ok.md": fencedDoc})
	_, results, err := FoldPaths(context.Background(),
		[]string{filepath.Join(dir, "missing.md"), filepath.Join(dir, "ok.md")},
		Options{Flavor: markdown.FlavorGFM})
	if err != nil {
		t.Fatalf("FoldPaths: %v", err)
	}
	if results[0].Err == nil {
		t.Fatalf("missing file must carry its load error")
	}
	if results[1].Err != nil || len(results[1].Regions) != 1 {
		t.Fatalf("good file must still fold: %+v", results[1])
	}
}

func TestFoldPathsUsesCache(t *testing.T) {
	dir := writeFiles(t, map[string]string{"doc.md": fencedDoc})
	cache, err := foldcache.OpenAt(filepath.Join(dir, "cache"))
	if err != nil {
		t.Fatalf("OpenAt: %v", err)
	}
	opts := Options{Flavor: markdown.FlavorGFM, Cache: cache}
	paths := []string{filepath.Join(dir, "doc.md")}

	_, first, err := FoldPaths(context.Background(), paths, opts)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if first[0].FromCache {
		t.Fatalf("first run cannot be served from cache")
	}

	_, second, err := FoldPaths(context.Background(), paths, opts)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if !second[0].FromCache {
		t.Fatalf("second run should hit the cache")
	}
	if len(second[0].Regions) != len(first[0].Regions) {
		t.Fatalf("cached regions differ: %d vs %d", len(second[0].Regions), len(first[0].Regions))
	}
}

func TestFoldPathsEmitsEvents(t *testing.T) {
	dir := writeFiles(t, map[string]string{"doc.md": fencedDoc})
	events := make(chan Event, 64)
	path := filepath.Join(dir, "doc.md")

	_, _, err := FoldPaths(context.Background(), []string{path},
		Options{Flavor: markdown.FlavorGFM, Events: events})
	if err != nil {
		t.Fatalf("FoldPaths: %v", err)
	}
	close(events)

	var sawQueued, sawDone bool
	for ev := range events {
		if ev.Path != path {
			t.Fatalf("event for unexpected path %q", ev.Path)
		}
		switch ev.Status {
		case StatusQueued:
			sawQueued = true
		case StatusDone:
			sawDone = true
		}
	}
	if !sawQueued || !sawDone {
		t.Fatalf("expected queued and done events, got queued=%v done=%v", sawQueued, sawDone)
	}
}
