package vsm

import (
	"math/rand"
	"testing"
)

// TestRankDescending feeds a crafted query vector straight into rank and
// verifies the ordering over a corpus with many distinct scores.
func TestRankDescending(t *testing.T) {
	texts := make([]string, 20)
	rng := rand.New(rand.NewSource(7))
	words := []string{"kernel", "socket", "buffer", "page", "cache", "inode", "mutex", "thread"}
	for i := range texts {
		a, b, c := words[rng.Intn(len(words))], words[rng.Intn(len(words))], words[rng.Intn(len(words))]
		texts[i] = a + " " + b + " " + c
	}
	m := buildOrFail(t, stringDocs(texts...), Options{})

	qv := weigh(countTerms([]string{"kernel", "cache"}), m.idf, m.weighting)
	results := m.rank(qv)

	if len(results) != len(texts) {
		t.Fatalf("expected %d results, got %d", len(texts), len(results))
	}
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Errorf("position %d: %v ranked above %v", i, results[i].Score, results[i-1].Score)
		}
	}
}

// TestRankZeroQueryVector verifies that an all-zero query vector leaves
// every document at score 0 in corpus order.
func TestRankZeroQueryVector(t *testing.T) {
	m := buildOrFail(t, stringDocs("one two", "three four", "five six"), Options{})

	results := m.rank(Vector{})
	for i, r := range results {
		if r.Score != 0 {
			t.Errorf("result %d: expected 0, got %v", i, r.Score)
		}
		if r.Doc != m.Document(i) {
			t.Errorf("result %d: expected corpus order", i)
		}
	}
}

// TestRankEmptyDocument verifies that a document with no terms scores 0
// against any query instead of tripping the norm division.
func TestRankEmptyDocument(t *testing.T) {
	m := buildOrFail(t, stringDocs("real content here", ""), Options{})

	results := m.Query("content")
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Doc.Text() != "real content here" {
		t.Errorf("expected the non-empty document first, got %q", results[0].Doc.Text())
	}
	if results[1].Score != 0 {
		t.Errorf("expected 0 for the empty document, got %v", results[1].Score)
	}
}
