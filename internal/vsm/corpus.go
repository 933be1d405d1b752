package vsm

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// termCounts is the raw term frequency map of a single document or query.
type termCounts map[string]int

func countTerms(terms []string) termCounts {
	tf := make(termCounts, len(terms))
	for _, t := range terms {
		tf[t]++
	}
	return tf
}

// scanCorpus runs the normalise+tokenise pass over every document and
// returns one term frequency map per document, in corpus order. Documents
// are processed by up to workers goroutines; each worker writes only its
// own slot, so the result is identical to a sequential scan.
func scanCorpus(docs []Document, rule Rule, workers int) []termCounts {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	perDoc := make([]termCounts, len(docs))
	if workers == 1 || len(docs) == 1 {
		for i, doc := range docs {
			perDoc[i] = countTerms(Tokenize(rule.Normalize(doc.Text())))
		}
		return perDoc
	}

	g := new(errgroup.Group)
	g.SetLimit(workers)
	for i, doc := range docs {
		g.Go(func() error {
			perDoc[i] = countTerms(Tokenize(rule.Normalize(doc.Text())))
			return nil
		})
	}
	_ = g.Wait() // workers never fail
	return perDoc
}

// documentFrequency counts, per term, in how many documents the term
// occurs at least once. The key set of the returned map is the corpus
// vocabulary: a term never seen in any document has no entry, so every
// entry satisfies 1 <= df <= len(perDoc).
func documentFrequency(perDoc []termCounts) map[string]int {
	df := make(map[string]int)
	for _, tf := range perDoc {
		for term := range tf {
			df[term]++
		}
	}
	return df
}
