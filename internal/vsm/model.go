// Package vsm implements the classical vector space model for document
// retrieval: documents and queries become sparse TF-IDF weight vectors
// over the corpus vocabulary, and relevance is the cosine of the angle
// between them.
//
// A Model is built exactly once from a document collection and a
// normalisation Rule. Construction either succeeds completely or fails
// with ErrEmptyCorpus; there is no partially built state. After Build
// returns, the model is immutable, so any number of goroutines may query
// it concurrently without locking.
package vsm

import (
	"errors"
	"sort"
)

// ErrEmptyCorpus is returned by Build when the document collection is
// empty. No model can be constructed: IDF is undefined for N = 0.
var ErrEmptyCorpus = errors.New("vsm: empty corpus")

// Options tunes model construction. The zero value gives the plain
// tf·ln(N/df) weighting and one build worker per CPU.
type Options struct {
	Weighting Weighting
	// Workers bounds the goroutines used for the per-document scan
	// pass. 0 means GOMAXPROCS; 1 forces a sequential scan. The built
	// model is identical either way.
	Workers int
}

// Model is an immutable vector space over a fixed document collection.
type Model struct {
	rule      Rule
	weighting Weighting
	docs      []Document
	vectors   []Vector
	norms     []float64
	df        map[string]int
	idf       map[string]float64
}

// Build constructs a model from docs. Each document's Text is extracted
// exactly once, normalised by rule, tokenised, and counted; the corpus
// vocabulary, document frequencies, IDF table, and all document weight
// vectors are fixed here and never change afterwards.
//
// The rule is retained and reapplied to every query. Build keeps its own
// copy of the docs slice (not of the documents themselves), so the caller
// may reuse the slice.
func Build(docs []Document, rule Rule, opts Options) (*Model, error) {
	if len(docs) == 0 {
		return nil, ErrEmptyCorpus
	}

	owned := make([]Document, len(docs))
	copy(owned, docs)

	perDoc := scanCorpus(owned, rule, opts.Workers)
	df := documentFrequency(perDoc)
	idf := idfTable(df, len(owned), opts.Weighting)

	vectors := make([]Vector, len(owned))
	norms := make([]float64, len(owned))
	for i, tf := range perDoc {
		vectors[i] = weigh(tf, idf, opts.Weighting)
		norms[i] = vectors[i].Norm()
	}

	return &Model{
		rule:      rule,
		weighting: opts.Weighting,
		docs:      owned,
		vectors:   vectors,
		norms:     norms,
		df:        df,
		idf:       idf,
	}, nil
}

// Query scores every corpus document against the query string and returns
// all of them, most similar first. The query passes through the same
// normalisation rule and weighting the corpus was built with; terms the
// corpus has never seen contribute nothing. Queries never fail: an empty
// query, or one with no in-vocabulary terms, yields every document with
// score 0 in corpus order.
func (m *Model) Query(query string) []Result {
	tf := countTerms(Tokenize(m.rule.Normalize(query)))
	return m.rank(weigh(tf, m.idf, m.weighting))
}

// DocumentCount returns N, the number of documents the model was built
// from.
func (m *Model) DocumentCount() int { return len(m.docs) }

// VocabularySize returns the number of distinct terms in the corpus.
func (m *Model) VocabularySize() int { return len(m.df) }

// Vocabulary returns the distinct corpus terms in lexical order.
func (m *Model) Vocabulary() []string {
	terms := make([]string, 0, len(m.df))
	for term := range m.df {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	return terms
}

// IDF returns the inverse document frequency of term and whether the term
// is part of the corpus vocabulary.
func (m *Model) IDF(term string) (float64, bool) {
	f, ok := m.idf[term]
	return f, ok
}

// DocumentFrequency returns the number of documents containing term, or 0
// for terms outside the vocabulary.
func (m *Model) DocumentFrequency(term string) int { return m.df[term] }

// Document returns the i-th document in corpus order.
func (m *Model) Document(i int) Document { return m.docs[i] }

// DocumentVector returns a copy of the i-th document's weight vector.
// Mutating the copy does not affect the model.
func (m *Model) DocumentVector(i int) Vector {
	vec := make(Vector, len(m.vectors[i]))
	for term, w := range m.vectors[i] {
		vec[term] = w
	}
	return vec
}
