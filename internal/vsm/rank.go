package vsm

import "sort"

// Result pairs a corpus document with its cosine similarity to a query.
// Scores fall in [0, 1]: the weight vectors have no negative components,
// so the angle between them never exceeds 90 degrees.
type Result struct {
	Doc   Document
	Score float64
}

// rank scores every document vector against qv and sorts descending.
// Scoring walks the corpus in document order and the sort is stable, so
// equal scores keep their corpus order. A zero-norm side (empty query,
// empty document, or every term sharing df = N under plain IDF) scores 0
// rather than dividing by zero.
func (m *Model) rank(qv Vector) []Result {
	qNorm := qv.Norm()
	results := make([]Result, len(m.docs))
	for i, doc := range m.docs {
		results[i] = Result{
			Doc:   doc,
			Score: cosine(qv, m.vectors[i], qNorm, m.norms[i]),
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results
}
