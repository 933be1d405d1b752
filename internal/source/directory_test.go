package source

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// TestDirectoryLoad verifies that matching files become documents in
// path order with ids relative to the root.
func TestDirectoryLoad(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.txt", "second document body")
	writeFile(t, dir, "a.txt", "first document body")
	writeFile(t, dir, "nested/c.md", "nested markdown body")
	writeFile(t, dir, "ignored.bin", "binary junk")

	src, err := NewDirectory(dir, nil)
	if err != nil {
		t.Fatalf("creating source: %v", err)
	}

	docs, err := src.Load(context.Background())
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	wantIDs := []string{"a.txt", "b.txt", "nested/c.md"}
	if len(docs) != len(wantIDs) {
		t.Fatalf("expected %d documents, got %d", len(wantIDs), len(docs))
	}
	for i, want := range wantIDs {
		if docs[i].ID != want {
			t.Errorf("document %d: expected id %q, got %q", i, want, docs[i].ID)
		}
	}
	if docs[0].Body != "first document body" {
		t.Errorf("unexpected body %q", docs[0].Body)
	}
	if docs[0].Title != "a" {
		t.Errorf("expected filename title, got %q", docs[0].Title)
	}
}

// TestDirectoryLoadStableOrder verifies repeated loads return the same
// order.
func TestDirectoryLoadStableOrder(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"x.txt", "m.txt", "a.txt", "q.txt"} {
		writeFile(t, dir, name, "content of "+name)
	}

	src, err := NewDirectory(dir, nil)
	if err != nil {
		t.Fatal(err)
	}

	first, err := src.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	second, err := src.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	for i := range first {
		if first[i].ID != second[i].ID {
			t.Fatalf("order changed between loads at %d: %q vs %q", i, first[i].ID, second[i].ID)
		}
	}
}

// TestDirectoryLoadHTML verifies markup is stripped and the <title>
// element wins over the file name.
func TestDirectoryLoadHTML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "page.html", `<html>
<head><title>Release Notes</title><style>body{color:red}</style></head>
<body><h1>Changes</h1><p>Fixed the <b>parser</b>.</p><script>alert(1)</script></body>
</html>`)

	src, err := NewDirectory(dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	docs, err := src.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected 1 document, got %d", len(docs))
	}

	doc := docs[0]
	if doc.Title != "Release Notes" {
		t.Errorf("expected html title, got %q", doc.Title)
	}
	for _, banned := range []string{"<", "alert", "color:red"} {
		if strings.Contains(doc.Body, banned) {
			t.Errorf("expected markup stripped, body contains %q: %q", banned, doc.Body)
		}
	}
	for _, want := range []string{"Changes", "Fixed", "parser"} {
		if !strings.Contains(doc.Body, want) {
			t.Errorf("expected body to contain %q: %q", want, doc.Body)
		}
	}
}

// TestDirectoryExtensionFilter verifies a custom extension list is
// honoured with or without leading dots.
func TestDirectoryExtensionFilter(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "keep.rst", "restructured text")
	writeFile(t, dir, "drop.txt", "plain text")

	src, err := NewDirectory(dir, []string{"rst"})
	if err != nil {
		t.Fatal(err)
	}
	docs, err := src.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 1 || docs[0].ID != "keep.rst" {
		t.Errorf("expected only keep.rst, got %v", docs)
	}
}

// TestDirectoryRejectsMissingRoot verifies constructor validation.
func TestDirectoryRejectsMissingRoot(t *testing.T) {
	if _, err := NewDirectory(filepath.Join(t.TempDir(), "missing"), nil); err == nil {
		t.Error("expected error for missing directory")
	}
}

// TestDocumentText verifies the title+body concatenation contract.
func TestDocumentText(t *testing.T) {
	doc := Document{ID: "1", Title: "Intro", Body: "to ranking"}
	if got := doc.Text(); got != "Intro to ranking" {
		t.Errorf("expected joined text, got %q", got)
	}
	untitled := Document{ID: "2", Body: "body only"}
	if got := untitled.Text(); got != "body only" {
		t.Errorf("expected body only, got %q", got)
	}
}
