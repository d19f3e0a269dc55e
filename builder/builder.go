package builder

import (
	"errors"
	"fmt"
	"math"

	"github.com/phil-mansfield/gosplinter/assemble"
	"github.com/phil-mansfield/gosplinter/basis"
	"github.com/phil-mansfield/gosplinter/knots"
	"github.com/phil-mansfield/gosplinter/sample"
	"github.com/phil-mansfield/gosplinter/solve"
	"github.com/phil-mansfield/gosplinter/spline"
)

const (
	maxDegree     = 5
	defaultDegree = 3
	defaultAlpha  = 0.1
)

// Builder accumulates configuration for fitting a B-spline to a sample
// store, validating each setting synchronously, then orchestrates
// knot synthesis, system assembly, and the regularized solve in Build().
//
// A Builder is not safe for concurrent use, matching the sample.Store it
// wraps (spec.md 5).
type Builder struct {
	store *sample.Store
	d     int

	degrees            []int
	numBasisFunctions  []int
	knotSpacing        knots.Spacing
	smoothing          solve.Mode
	alpha              float64
	padding            float64
	weights            []float64
	bounds             []knots.Bounds
	hfsIters           int
	convention         solve.HFSConvention
	allowScatteredData bool

	lastLambda float64
}

// New constructs a Builder from a snapshot of store's current samples
// (spec.md 9: "Builder owns a copy of the Sample store"). Later
// insertions into store do not affect this Builder.
func New(store *sample.Store) (*Builder, error) {
	if store.NumSamples() == 0 {
		return nil, fmt.Errorf("builder.New: store has no samples: %w", ErrPrecondition)
	}
	d := store.NumVariables()

	degrees := make([]int, d)
	numBasis := make([]int, d)
	bnds := make([]knots.Bounds, 0)
	for i := range degrees {
		degrees[i] = defaultDegree
	}

	return &Builder{
		store:             store.Clone(),
		d:                 d,
		degrees:           degrees,
		numBasisFunctions: numBasis,
		knotSpacing:       knots.AsSampled,
		smoothing:         solve.None,
		alpha:             defaultAlpha,
		padding:           0,
		weights:           nil,
		bounds:            bnds,
		hfsIters:          0,
		convention:        solve.ReferenceCode,
	}, nil
}

// SetDegrees sets the per-axis polynomial degree. len(degrees) must equal
// d, and each degree must be in [0, 5].
func (b *Builder) SetDegrees(degrees []int) error {
	if len(degrees) != b.d {
		return fmt.Errorf("builder.SetDegrees: len(degrees)=%d, want %d: %w", len(degrees), b.d, ErrInvalidArgument)
	}
	for i, deg := range degrees {
		if deg < 0 || deg > maxDegree {
			return fmt.Errorf("builder.SetDegrees: axis %d degree %d out of range [0,%d]: %w", i, deg, maxDegree, ErrInvalidArgument)
		}
	}
	cp := make([]int, len(degrees))
	copy(cp, degrees)
	b.degrees = cp
	return nil
}

// SetNumBasisFunctions sets the per-axis basis-function count override (0
// means "derive from samples"). len(n) must equal d.
func (b *Builder) SetNumBasisFunctions(n []int) error {
	if len(n) != b.d {
		return fmt.Errorf("builder.SetNumBasisFunctions: len(n)=%d, want %d: %w", len(n), b.d, ErrInvalidArgument)
	}
	for i, v := range n {
		if v < 0 {
			return fmt.Errorf("builder.SetNumBasisFunctions: axis %d is negative: %w", i, ErrInvalidArgument)
		}
	}
	cp := make([]int, len(n))
	copy(cp, n)
	b.numBasisFunctions = cp
	return nil
}

// SetKnotSpacing sets the knot-placement strategy.
func (b *Builder) SetKnotSpacing(spacing knots.Spacing) error {
	switch spacing {
	case knots.AsSampled, knots.Equidistant, knots.Experimental:
		b.knotSpacing = spacing
		return nil
	default:
		return fmt.Errorf("builder.SetKnotSpacing: unknown code %d: %w", int(spacing), ErrInvalidArgument)
	}
}

// SetSmoothing sets the regularization scheme.
func (b *Builder) SetSmoothing(mode solve.Mode) error {
	switch mode {
	case solve.None, solve.Identity, solve.PSpline:
		b.smoothing = mode
		return nil
	default:
		return fmt.Errorf("builder.SetSmoothing: unknown code %d: %w", int(mode), ErrInvalidArgument)
	}
}

// SetAlpha sets the regularization weight (IDENTITY) / initial HFS lambda
// (PSPLINE). Must be >= 0.
func (b *Builder) SetAlpha(alpha float64) error {
	if alpha < 0 {
		return fmt.Errorf("builder.SetAlpha: alpha=%g must be >= 0: %w", alpha, ErrInvalidArgument)
	}
	b.alpha = alpha
	return nil
}

// SetPadding sets the fractional padding applied to EQUIDISTANT bounds.
// Must be >= 0.
func (b *Builder) SetPadding(padding float64) error {
	if padding < 0 {
		return fmt.Errorf("builder.SetPadding: padding=%g must be >= 0: %w", padding, ErrInvalidArgument)
	}
	b.padding = padding
	return nil
}

// SetWeights sets per-sample weights for PSPLINE fitting. weights must be
// empty (clears weighting) or have length m.
func (b *Builder) SetWeights(weights []float64) error {
	if len(weights) != 0 && len(weights) != b.store.NumSamples() {
		return fmt.Errorf("builder.SetWeights: len(weights)=%d, want 0 or %d: %w", len(weights), b.store.NumSamples(), ErrInvalidArgument)
	}
	for i, w := range weights {
		if w <= 0 {
			return fmt.Errorf("builder.SetWeights: weight %d is non-positive (%g): %w", i, w, ErrInvalidArgument)
		}
	}
	if len(weights) == 0 {
		b.weights = nil
		return nil
	}
	cp := make([]float64, len(weights))
	copy(cp, weights)
	b.weights = cp
	return nil
}

// SetBounds sets per-axis [lo, hi] overrides for EQUIDISTANT knot
// placement. bounds must be empty or have length d; a NaN slot in either
// position falls back to the data extent.
func (b *Builder) SetBounds(bounds []knots.Bounds) error {
	if len(bounds) != 0 && len(bounds) != b.d {
		return fmt.Errorf("builder.SetBounds: len(bounds)=%d, want 0 or %d: %w", len(bounds), b.d, ErrInvalidArgument)
	}
	cp := make([]knots.Bounds, len(bounds))
	copy(cp, bounds)
	b.bounds = cp
	return nil
}

// SetHFSIters sets the number of HFS fixed-point iterations to run for
// PSPLINE smoothing. Must be >= 0.
func (b *Builder) SetHFSIters(n int) error {
	if n < 0 {
		return fmt.Errorf("builder.SetHFSIters: n=%d must be >= 0: %w", n, ErrInvalidArgument)
	}
	b.hfsIters = n
	return nil
}

// SetHFSConvention selects the tau^2/sigma^2 denominator convention used
// by HFS (spec.md 4.4/9). Not present in the external handle-based API
// (spec.md 6); a Go-native knob replacing the original's compile-time
// switch.
func (b *Builder) SetHFSConvention(c solve.HFSConvention) error {
	switch c {
	case solve.ReferenceCode, solve.Book:
		b.convention = c
		return nil
	default:
		return fmt.Errorf("builder.SetHFSConvention: unknown code %d: %w", int(c), ErrInvalidArgument)
	}
}

// AllowScatteredData toggles whether Build() requires a complete sample
// grid, standing in for the original's SPLINTER_ALLOW_SCATTER compile-time
// flag (spec.md 4.5); Go has no build-time #ifdef over library behavior
// selected per call site, so this is a runtime setting instead.
func (b *Builder) AllowScatteredData(allow bool) {
	b.allowScatteredData = allow
}

// LastLambda returns the smoothing parameter used in the most recent
// successful Build() call: the configured alpha for None/Identity, or the
// final HFS lambda for PSpline.
func (b *Builder) LastLambda() float64 {
	return b.lastLambda
}

// Build validates the frozen configuration against the captured sample
// store and produces a Spline. Per spec.md 3, Build is pure with respect
// to the Builder's configuration and its captured sample snapshot.
func (b *Builder) Build() (*spline.Spline, error) {
	if !b.allowScatteredData && !b.store.IsGridComplete() {
		return nil, fmt.Errorf("builder.Build: sample grid is incomplete: %w", ErrPrecondition)
	}

	axes := make([]basis.Axis, b.d)
	knotVectors := make([][]float64, b.d)
	for a := 0; a < b.d; a++ {
		values, err := b.store.AxisValues(a)
		if err != nil {
			return nil, err
		}
		bnds := knots.Bounds{Lo: math.NaN(), Hi: math.NaN()}
		if len(b.bounds) > 0 {
			bnds = b.bounds[a]
		}
		k, err := knots.Build(b.knotSpacing, values, b.degrees[a], b.numBasisFunctions[a], bnds, b.padding)
		if err != nil {
			if errors.Is(err, knots.ErrTooFewPoints) {
				err = errAsPrecondition(err)
			}
			return nil, fmt.Errorf("builder.Build: axis %d: %w", a, err)
		}
		knotVectors[a] = k
		axes[a] = basis.Axis{Knots: k, Degree: b.degrees[a]}
	}

	B, y, err := assemble.BasisMatrix(axes, b.store)
	if err != nil {
		return nil, err
	}
	W, err := assemble.WeightMatrix(b.store.NumSamples(), b.weights)
	if err != nil {
		return nil, err
	}

	params := solve.Params{
		Mode:         b.smoothing,
		Alpha:        b.alpha,
		HFSIters:     b.hfsIters,
		NumVariables: b.d,
		Convention:   b.convention,
	}

	var result *solve.Result
	if b.smoothing == solve.PSpline {
		perAxisN := make([]int, b.d)
		for a, axis := range axes {
			perAxisN[a] = axis.N()
		}
		d, err := assemble.SecondOrderDifferenceMatrix(perAxisN)
		if err != nil {
			return nil, fmt.Errorf("builder.Build: %w", errAsPrecondition(err))
		}
		result, err = solve.Solve(B, W, d, y, params)
		if err != nil {
			return nil, err
		}
	} else {
		result, err = solve.Solve(B, W, nil, y, params)
		if err != nil {
			return nil, err
		}
	}

	b.lastLambda = result.FinalLambda

	return spline.New(knotVectors, b.degrees, result.Coefficients)
}

func errAsPrecondition(err error) error {
	return fmt.Errorf("%v: %w", err, ErrPrecondition)
}
