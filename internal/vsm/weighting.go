package vsm

import "math"

// TFScheme selects how a raw occurrence count becomes a term frequency
// weight.
type TFScheme int

const (
	// TFRaw uses the occurrence count unchanged.
	TFRaw TFScheme = iota
	// TFSublinear dampens repetition: 1 + ln(count).
	TFSublinear
)

// IDFScheme selects the inverse document frequency formula.
type IDFScheme int

const (
	// IDFPlain is ln(N/df). A term present in every document scores
	// exactly zero and contributes nothing to any similarity.
	IDFPlain IDFScheme = iota
	// IDFPlusOne is 1 + ln(N/df), which keeps corpus-wide terms from
	// vanishing entirely.
	IDFPlusOne
	// IDFSmoothed is ln((1+N)/(1+df)) + 1, the add-one smoothed variant.
	IDFSmoothed
)

// Weighting bundles the TF and IDF schemes used for both document and
// query vectors. The zero value is the plain tf·ln(N/df) model.
type Weighting struct {
	TF  TFScheme
	IDF IDFScheme
}

func (w Weighting) termFrequency(count int) float64 {
	if w.TF == TFSublinear {
		return 1 + math.Log(float64(count))
	}
	return float64(count)
}

func (w Weighting) inverseDocumentFrequency(df, n int) float64 {
	switch w.IDF {
	case IDFPlusOne:
		return 1 + math.Log(float64(n)/float64(df))
	case IDFSmoothed:
		return math.Log(float64(1+n)/float64(1+df)) + 1
	default:
		return math.Log(float64(n) / float64(df))
	}
}

// idfTable computes the IDF of every vocabulary term once. df values are
// never zero: a term enters the vocabulary only by occurring somewhere.
func idfTable(df map[string]int, n int, w Weighting) map[string]float64 {
	idf := make(map[string]float64, len(df))
	for term, count := range df {
		idf[term] = w.inverseDocumentFrequency(count, n)
	}
	return idf
}

// weigh converts a term frequency map into a weight vector using the
// fixed corpus IDF table. Terms without an IDF entry are outside the
// vocabulary and are skipped: an out-of-vocabulary query term simply
// contributes zero weight instead of failing.
func weigh(tf termCounts, idf map[string]float64, w Weighting) Vector {
	vec := make(Vector, len(tf))
	for term, count := range tf {
		f, ok := idf[term]
		if !ok {
			continue
		}
		vec[term] = w.termFrequency(count) * f
	}
	return vec
}
