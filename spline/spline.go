// Package spline defines the immutable, built tensor-product B-spline
// returned by a Builder (see package builder): per-axis knot vectors and
// degrees, and a flat coefficient vector.
package spline

import (
	"errors"
	"fmt"

	"github.com/phil-mansfield/gosplinter/basis"
)

// ErrDimensionMismatch indicates Eval was called with a point whose
// dimensionality doesn't match the spline's.
var ErrDimensionMismatch = errors.New("spline: dimension mismatch")

// Spline is an immutable tensor-product B-spline: d axes, each with its
// own knot vector and degree, and a flat coefficient vector of length
// N = product(n_i) laid out lexicographically with the last axis varying
// fastest.
//
// A Spline is safe for concurrent reads from multiple goroutines: all
// fields are set once at construction and never mutated afterward.
type Spline struct {
	axes         []basis.Axis
	coefficients []float64
}

// New constructs a Spline from per-axis knot vectors, per-axis degrees,
// and a flat coefficient vector. Coefficients must have length
// product(len(knots_i) - degree_i - 1); New returns ErrDimensionMismatch
// otherwise, and also when len(knots) != len(degrees).
func New(knots [][]float64, degrees []int, coefficients []float64) (*Spline, error) {
	if len(knots) != len(degrees) {
		return nil, fmt.Errorf("spline.New: len(knots)=%d, len(degrees)=%d: %w", len(knots), len(degrees), ErrDimensionMismatch)
	}
	axes := make([]basis.Axis, len(knots))
	for i := range knots {
		axes[i] = basis.Axis{Knots: knots[i], Degree: degrees[i]}
	}
	want := basis.TotalBasisFunctions(axes)
	if len(coefficients) != want {
		return nil, fmt.Errorf("spline.New: len(coefficients)=%d, want %d: %w", len(coefficients), want, ErrDimensionMismatch)
	}

	c := make([]float64, len(coefficients))
	copy(c, coefficients)
	return &Spline{axes: axes, coefficients: c}, nil
}

// NumVariables returns d, the number of independent variables.
func (s *Spline) NumVariables() int { return len(s.axes) }

// NumBasisFunctions returns N (the total coefficient count) and the
// per-axis basis-function counts [n_0 ... n_{d-1}].
func (s *Spline) NumBasisFunctions() (total int, perAxis []int) {
	perAxis = make([]int, len(s.axes))
	total = 1
	for i, a := range s.axes {
		perAxis[i] = a.N()
		total *= perAxis[i]
	}
	return total, perAxis
}

// Degrees returns the per-axis polynomial degrees.
func (s *Spline) Degrees() []int {
	out := make([]int, len(s.axes))
	for i, a := range s.axes {
		out[i] = a.Degree
	}
	return out
}

// Knots returns a read-only view of axis a's knot vector.
func (s *Spline) Knots(a int) ([]float64, error) {
	if a < 0 || a >= len(s.axes) {
		return nil, fmt.Errorf("spline.Knots: axis %d out of range [0,%d): %w", a, len(s.axes), ErrDimensionMismatch)
	}
	return s.axes[a].Knots, nil
}

// Coefficients returns a read-only view of the coefficient vector.
func (s *Spline) Coefficients() []float64 {
	return s.coefficients
}

// EvalBasis evaluates the tensor-product basis row at x, the sparse
// length-N vector ⟨basis(x)⟩ defined in spec.md 4.2.
func (s *Spline) EvalBasis(x []float64) ([]basis.Entry, error) {
	if len(x) != len(s.axes) {
		return nil, fmt.Errorf("spline.EvalBasis: len(x)=%d, want %d: %w", len(x), len(s.axes), ErrDimensionMismatch)
	}
	return basis.EvalRow(s.axes, x)
}

// Eval evaluates f(x) = ⟨basis(x), c⟩.
func (s *Spline) Eval(x []float64) (float64, error) {
	if len(x) != len(s.axes) {
		return 0, fmt.Errorf("spline.Eval: len(x)=%d, want %d: %w", len(x), len(s.axes), ErrDimensionMismatch)
	}
	return basis.Eval(s.axes, x, s.coefficients)
}

// String implements fmt.Stringer for debug logging.
func (s *Spline) String() string {
	total, perAxis := s.NumBasisFunctions()
	return fmt.Sprintf("spline.Spline{d=%d, N=%d, n=%v}", len(s.axes), total, perAxis)
}
