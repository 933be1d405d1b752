package vsm

import "math"

// Vector is a sparse term-weight map. Terms absent from the map carry an
// implicit weight of zero.
type Vector map[string]float64

// Norm returns the Euclidean length of the vector.
func (v Vector) Norm() float64 {
	var sum float64
	for _, w := range v {
		sum += w * w
	}
	return math.Sqrt(sum)
}

// dot sums the products of weights for terms present in both vectors.
// Iteration runs over the smaller map.
func dot(a, b Vector) float64 {
	if len(b) < len(a) {
		a, b = b, a
	}
	var sum float64
	for term, wa := range a {
		if wb, ok := b[term]; ok {
			sum += wa * wb
		}
	}
	return sum
}

// cosine computes dot(q,d) / (|q|·|d|) with precomputed norms. A zero norm
// on either side means that vector has no indexed terms; the similarity is
// defined as 0 rather than dividing by zero.
func cosine(q, d Vector, qNorm, dNorm float64) float64 {
	if qNorm == 0 || dNorm == 0 {
		return 0
	}
	return dot(q, d) / (qNorm * dNorm)
}
