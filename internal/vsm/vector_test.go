package vsm

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// TestNorm verifies Euclidean norms for empty, single-term, and
// multi-term vectors.
func TestNorm(t *testing.T) {
	tests := []struct {
		name string
		vec  Vector
		want float64
	}{
		{"empty", Vector{}, 0},
		{"nil", nil, 0},
		{"single", Vector{"a": 3}, 3},
		{"pythagorean", Vector{"a": 3, "b": 4}, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.vec.Norm(); !almostEqual(got, tt.want) {
				t.Errorf("expected norm %v, got %v", tt.want, got)
			}
		})
	}
}

// TestDot verifies the sparse dot product over shared and disjoint term
// sets, and that operand order does not matter.
func TestDot(t *testing.T) {
	a := Vector{"x": 1, "y": 2, "z": 3}
	b := Vector{"y": 4, "z": 5, "w": 6}

	want := 2.0*4 + 3.0*5
	if got := dot(a, b); !almostEqual(got, want) {
		t.Errorf("expected dot %v, got %v", want, got)
	}
	if got := dot(b, a); !almostEqual(got, want) {
		t.Errorf("expected dot to be symmetric, got %v", got)
	}

	if got := dot(Vector{"a": 1}, Vector{"b": 1}); got != 0 {
		t.Errorf("expected 0 for disjoint vectors, got %v", got)
	}
	if got := dot(Vector{}, b); got != 0 {
		t.Errorf("expected 0 for empty operand, got %v", got)
	}
}

// TestCosineZeroNorm verifies that a zero norm on either side yields
// score 0 instead of dividing by zero.
func TestCosineZeroNorm(t *testing.T) {
	v := Vector{"a": 1}

	if got := cosine(Vector{}, v, 0, v.Norm()); got != 0 {
		t.Errorf("expected 0 for zero-norm query, got %v", got)
	}
	if got := cosine(v, Vector{}, v.Norm(), 0); got != 0 {
		t.Errorf("expected 0 for zero-norm document, got %v", got)
	}
	if got := cosine(Vector{}, Vector{}, 0, 0); got != 0 {
		t.Errorf("expected 0 for two zero vectors, got %v", got)
	}
}

// TestCosineIdentical verifies that a vector compared against itself
// scores 1.
func TestCosineIdentical(t *testing.T) {
	v := Vector{"a": 0.3, "b": 1.7, "c": 0.04}
	n := v.Norm()

	if got := cosine(v, v, n, n); !almostEqual(got, 1) {
		t.Errorf("expected 1, got %v", got)
	}
}

// TestCosineScaleInvariance verifies that scaling a vector by a positive
// constant does not change the cosine: the measure depends on direction
// only.
func TestCosineScaleInvariance(t *testing.T) {
	a := Vector{"x": 1, "y": 2}
	b := Vector{"x": 3, "y": 1, "z": 2}
	base := cosine(a, b, a.Norm(), b.Norm())

	for _, k := range []float64{0.25, 2, 10, 1000} {
		scaled := make(Vector, len(a))
		for term, w := range a {
			scaled[term] = w * k
		}
		got := cosine(scaled, b, scaled.Norm(), b.Norm())
		if !almostEqual(got, base) {
			t.Errorf("scale %v: expected %v, got %v", k, base, got)
		}
	}
}

// TestCosineKnownAngle checks a hand-computed 45 degree case.
func TestCosineKnownAngle(t *testing.T) {
	q := Vector{"a": 1}
	d := Vector{"a": 1, "b": 1}

	got := cosine(q, d, q.Norm(), d.Norm())
	if want := 1 / math.Sqrt2; !almostEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}
