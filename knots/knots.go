// Package knots synthesizes per-axis B-spline knot vectors from sample
// abscissae under one of three policies (AS_SAMPLED, EQUIDISTANT,
// EXPERIMENTAL), following the algorithms in
// original_source/src/bsplinebuilder.cpp's computeKnotVector* family.
//
// Enums over inheritance: Spacing is a closed-set discriminated union
// dispatched with a switch (Build), not a polymorphic strategy interface
// -- matching the source's own design and the enums-over-inheritance
// note carried into the spec.
package knots

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrTooFewPoints indicates fewer than degree+1 unique axis values were
// supplied -- the minimum required to build a free knot vector.
var ErrTooFewPoints = errors.New("knots: too few unique points for requested degree")

// ErrInvalidArgument covers malformed inputs that aren't a point-count
// precondition failure (e.g. an unrecognized Spacing code).
var ErrInvalidArgument = errors.New("knots: invalid argument")

// Spacing selects the knot-placement strategy.
type Spacing int

const (
	// AsSampled places knots via a moving average over the sorted unique
	// sample values, clamped at both ends.
	AsSampled Spacing = iota
	// Equidistant places knots at uniform intervals over [lo, hi],
	// optionally padded, clamped at both ends.
	Equidistant
	// Experimental buckets the sorted unique sample values into windows
	// and averages each, capping the number of segments.
	Experimental
)

func (s Spacing) String() string {
	switch s {
	case AsSampled:
		return "AS_SAMPLED"
	case Equidistant:
		return "EQUIDISTANT"
	case Experimental:
		return "EXPERIMENTAL"
	default:
		return fmt.Sprintf("Spacing(%d)", int(s))
	}
}

// Bounds is a per-axis [lo, hi] override for Equidistant. A NaN slot
// falls back to the data extent.
type Bounds struct {
	Lo, Hi float64
}

// maxSegments bounds the number of polynomial segments Experimental will
// produce, independent of any requested basis-function count -- this
// asymmetry with Equidistant is intentional (spec.md 9), not a bug.
const maxSegments = 10

// Build dispatches to the strategy named by spacing.
//
// values are the raw (possibly repeated, unsorted) sample values on one
// axis; degree is that axis's spline degree; numBasisFunctions is only
// consulted by Equidistant (0 means "derive from samples"); bounds is
// only consulted by Equidistant.
func Build(spacing Spacing, values []float64, degree, numBasisFunctions int, bounds Bounds, padding float64) ([]float64, error) {
	switch spacing {
	case AsSampled:
		return MovingAverage(values, degree)
	case Equidistant:
		return EquidistantKnots(values, degree, numBasisFunctions, bounds, padding)
	case Experimental:
		return Buckets(values, degree)
	default:
		return nil, fmt.Errorf("knots.Build: unknown spacing code %d: %w", int(spacing), ErrInvalidArgument)
	}
}

func extractUniqueSorted(values []float64) []float64 {
	cp := make([]float64, len(values))
	copy(cp, values)
	sort.Float64s(cp)
	out := cp[:0:0]
	for i, v := range cp {
		if i == 0 || v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}

func requireMinPoints(method string, n, degree int) error {
	if n < degree+1 {
		return fmt.Errorf(
			"knots.%s: only %d unique points given, need at least degree+1=%d for degree %d: %w",
			method, n, degree+1, degree, ErrTooFewPoints,
		)
	}
	return nil
}

func repeated(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// MovingAverage implements the AS_SAMPLED strategy: a clamped knot vector
// whose interior knots are a moving average of window size degree+2 over
// the sorted unique sample values.
func MovingAverage(values []float64, degree int) ([]float64, error) {
	unique := extractUniqueSorted(values)
	n := len(unique)
	if err := requireMinPoints("MovingAverage", n, degree); err != nil {
		return nil, err
	}

	w := degree + 2 // window size (k+3 with k=degree-1)
	interiorCount := n - degree - 1

	interior := make([]float64, interiorCount)
	for i := 0; i < interiorCount; i++ {
		var sum float64
		for j := 0; j < w; j++ {
			sum += unique[i+j]
		}
		interior[i] = sum / float64(w)
	}

	out := make([]float64, 0, n+degree+1)
	out = append(out, repeated(unique[0], degree+1)...)
	out = append(out, interior...)
	out = append(out, repeated(unique[n-1], degree+1)...)
	return out, nil
}

// linspaceInclusive returns n values evenly spaced over [lo, hi] including
// both endpoints (n must be >= 2).
func linspaceInclusive(lo, hi float64, n int) []float64 {
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := 0; i < n; i++ {
		out[i] = lo + step*float64(i)
	}
	out[n-1] = hi
	return out
}

// EquidistantKnots implements the EQUIDISTANT strategy: a clamped knot vector
// with interior knots evenly spaced over [lo, hi] (optionally padded and
// bounded).
//
// This unconditionally emits 2*(degree+1) clamping knots when there are
// zero interior knots, per the REDESIGN fix documented in spec.md 9 (the
// original source under-counts end multiplicity by one in that case).
func EquidistantKnots(values []float64, degree, numBasisFunctions int, bounds Bounds, padding float64) ([]float64, error) {
	unique := extractUniqueSorted(values)
	n := len(unique)
	if numBasisFunctions > 0 {
		n = numBasisFunctions
	}
	if err := requireMinPoints("Equidistant", n, degree); err != nil {
		return nil, err
	}

	lo := unique[0]
	if !math.IsNaN(bounds.Lo) {
		lo = bounds.Lo
	}
	hi := unique[len(unique)-1]
	if !math.IsNaN(bounds.Hi) {
		hi = bounds.Hi
	}
	pad := (hi - lo) * padding
	lo -= pad
	hi += pad

	interiorCount := n - degree - 1
	if interiorCount < 0 {
		interiorCount = 0
	}

	out := make([]float64, 0, interiorCount+2*(degree+1))
	out = append(out, repeated(lo, degree+1)...)
	switch {
	case interiorCount == 1:
		out = append(out, (lo+hi)/2)
	case interiorCount >= 2:
		full := linspaceInclusive(lo, hi, interiorCount+2)
		out = append(out, full[1:interiorCount+1]...)
	}
	out = append(out, repeated(hi, degree+1)...)
	return out, nil
}

// Buckets implements the EXPERIMENTAL strategy: sorted unique sample
// values are bucketed into (up to maxSegments) windows, each replaced by
// its mean, then clamped at both ends.
func Buckets(values []float64, degree int) ([]float64, error) {
	unique := extractUniqueSorted(values)
	n := len(unique)
	if err := requireMinPoints("Buckets", n, degree); err != nil {
		return nil, err
	}

	ni := n - degree - 1
	ns := ni + degree + 1
	if ns > maxSegments && maxSegments >= degree+1 {
		ns = maxSegments
		ni = ns - degree - 1
	}

	var w int
	if ni > 0 {
		w = n / ni
	}

	var interior []float64
	if ni > 0 {
		residual := n - w*ni
		windows := make([]int, ni)
		for i := range windows {
			windows[i] = w
		}
		for i := 0; i < residual; i++ {
			windows[i]++
		}

		interior = make([]float64, ni)
		idx := 0
		for i := 0; i < ni; i++ {
			var sum float64
			for j := 0; j < windows[i]; j++ {
				sum += unique[idx+j]
			}
			interior[i] = sum / float64(windows[i])
			idx += windows[i]
		}
	}

	out := make([]float64, 0, ni+2*(degree+1))
	out = append(out, repeated(unique[0], degree+1)...)
	out = append(out, interior...)
	out = append(out, repeated(unique[n-1], degree+1)...)
	return out, nil
}

// Regular reports whether knots is a valid (degree+1)-regular,
// non-decreasing vector: non-decreasing throughout, and the first and
// last values each repeated exactly degree+1 times.
func Regular(k []float64, degree int) bool {
	for i := 1; i < len(k); i++ {
		if k[i] < k[i-1] {
			return false
		}
	}
	if len(k) < 2*(degree+1) {
		return false
	}
	for i := 0; i < degree+1; i++ {
		if k[i] != k[0] {
			return false
		}
		if k[len(k)-1-i] != k[len(k)-1] {
			return false
		}
	}
	if k[degree+1] == k[0] || k[len(k)-2-degree] == k[len(k)-1] {
		return false
	}
	return true
}
