// Package sample holds scattered or gridded (x, y) samples used to fit a
// B-spline: x is a point in R^d, y is the real value observed there.
//
// Store is append-only and fixes its dimensionality d on the first
// insertion, following the teacher's convention of leaving single-owner,
// non-concurrent types unsynchronized (phil-mansfield-gotetra's io and
// density packages never embed a mutex; contrast katalvlaran/lvlath's
// graph/core.Graph, which does, because graphs there are meant to be
// mutated from multiple goroutines).
package sample

import (
	"errors"
	"fmt"
	"sort"
)

// ErrDimensionMismatch indicates a sample's x has a different length than
// the store's established dimensionality.
var ErrDimensionMismatch = errors.New("sample: dimension mismatch")

// ErrEmptyStore indicates an operation that requires at least one sample
// was invoked on an empty Store.
var ErrEmptyStore = errors.New("sample: store is empty")

// Sample is a single observation: a point x in R^d and its value y.
type Sample struct {
	X []float64
	Y float64
}

// Store is an ordered, append-only collection of Samples.
type Store struct {
	samples []Sample
	d       int
}

// New returns an empty Store.
func New() *Store {
	return &Store{}
}

// Add appends a sample. The first call fixes the store's dimensionality;
// every subsequent call must supply an x of that same length.
func (s *Store) Add(x []float64, y float64) error {
	if len(s.samples) == 0 {
		s.d = len(x)
	} else if len(x) != s.d {
		return fmt.Errorf("sample.Store.Add: len(x)=%d, want %d: %w", len(x), s.d, ErrDimensionMismatch)
	}

	xc := make([]float64, len(x))
	copy(xc, x)
	s.samples = append(s.samples, Sample{X: xc, Y: y})
	return nil
}

// NumVariables returns d, the dimensionality of the samples, or 0 if the
// store is empty.
func (s *Store) NumVariables() int { return s.d }

// NumSamples returns m, the number of samples in the store.
func (s *Store) NumSamples() int { return len(s.samples) }

// Samples returns a read-only view of the stored samples, in insertion
// order.
func (s *Store) Samples() []Sample {
	return s.samples
}

// AxisValues returns the (unsorted, with duplicates) x values observed on
// axis a, in insertion order.
func (s *Store) AxisValues(a int) ([]float64, error) {
	if a < 0 || a >= s.d {
		return nil, fmt.Errorf("sample.Store.AxisValues: axis %d out of range [0,%d): %w", a, s.d, ErrDimensionMismatch)
	}
	out := make([]float64, len(s.samples))
	for i, sm := range s.samples {
		out[i] = sm.X[a]
	}
	return out, nil
}

// UniqueAxisValues returns the sorted, duplicate-free set of x values
// observed on axis a.
func (s *Store) UniqueAxisValues(a int) ([]float64, error) {
	vals, err := s.AxisValues(a)
	if err != nil {
		return nil, err
	}
	return sortedUnique(vals), nil
}

func sortedUnique(vals []float64) []float64 {
	cp := make([]float64, len(vals))
	copy(cp, vals)
	sort.Float64s(cp)

	out := cp[:0:0]
	for i, v := range cp {
		if i == 0 || v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}

// IsGridComplete reports whether the samples form the full Cartesian
// product of their per-axis distinct values: m must equal the product of
// the per-axis unique-value counts, and every combination must be present.
func (s *Store) IsGridComplete() bool {
	if len(s.samples) == 0 {
		return false
	}

	uniques := make([][]float64, s.d)
	indices := make([]map[float64]int, s.d)
	expected := 1
	for a := 0; a < s.d; a++ {
		u, _ := s.UniqueAxisValues(a)
		uniques[a] = u
		idx := make(map[float64]int, len(u))
		for i, v := range u {
			idx[v] = i
		}
		indices[a] = idx
		expected *= len(u)
	}

	if len(s.samples) != expected {
		return false
	}

	seen := make(map[int]bool, len(s.samples))
	for _, sm := range s.samples {
		flat := 0
		for a := 0; a < s.d; a++ {
			flat = flat*len(uniques[a]) + indices[a][sm.X[a]]
		}
		if seen[flat] {
			return false
		}
		seen[flat] = true
	}
	return len(seen) == expected
}

// String implements fmt.Stringer, matching the teacher's convention of
// giving small value types a debug-friendly String().
func (s *Store) String() string {
	return fmt.Sprintf("sample.Store{m=%d, d=%d}", len(s.samples), s.d)
}

// Clone returns an independent copy of the store, so a Builder can capture
// a snapshot of its configuration's sample data (spec.md 9: "Builder owns
// a copy of the Sample store").
func (s *Store) Clone() *Store {
	cp := &Store{d: s.d, samples: make([]Sample, len(s.samples))}
	for i, sm := range s.samples {
		x := make([]float64, len(sm.X))
		copy(x, sm.X)
		cp.samples[i] = Sample{X: x, Y: sm.Y}
	}
	return cp
}
