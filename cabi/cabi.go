// Package cabi is the Go-level expression of the opaque-handle,
// process-wide-error-channel contract a C ABI binding would consume: one
// handle table per object kind (store, builder, spline), and a last-error
// slot every call updates. It has no cgo and exports no C symbols; it
// exists so the handle-lifetime and error-channel semantics have a
// concrete, testable Go form, grounded on
// original_source/include/cinterface/bsplinebuilder.go's handle-and-error
// conventions.
package cabi

import (
	"errors"
	"fmt"
	"sync"

	"github.com/phil-mansfield/gosplinter/builder"
	"github.com/phil-mansfield/gosplinter/knots"
	"github.com/phil-mansfield/gosplinter/sample"
	"github.com/phil-mansfield/gosplinter/solve"
	"github.com/phil-mansfield/gosplinter/spline"
)

// ErrNullHandle indicates a call referenced an unknown or already-deleted
// handle.
var ErrNullHandle = errors.New("cabi: null or unknown handle")

// ErrLengthMismatch indicates AddColumns was given columns of differing
// lengths.
var ErrLengthMismatch = errors.New("cabi: column length mismatch")

// Handle is an opaque reference to a store, builder, or spline, matching
// the int-sized handles of a C ABI.
type Handle int64

// Registry owns the three handle tables and the last-error slot. The
// zero value is not usable; construct with New. A single process
// typically shares one Registry (see Default), mirroring the "process-
// wide error channel" the external contract describes, but tests may
// construct independent Registries to avoid cross-test interference.
type Registry struct {
	mu       sync.Mutex
	next     Handle
	stores   map[Handle]*sample.Store
	builders map[Handle]*builder.Builder
	splines  map[Handle]*spline.Spline

	hasError  bool
	errString string
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{
		stores:   make(map[Handle]*sample.Store),
		builders: make(map[Handle]*builder.Builder),
		splines:  make(map[Handle]*spline.Spline),
	}
}

// Default is the shared Registry package-level callers reach for when
// they don't need test isolation, standing in for the single process-
// wide handle table a real C ABI binding would expose.
var Default = New()

func (r *Registry) allocate() Handle {
	r.next++
	return r.next
}

func (r *Registry) setError(err error) {
	if err == nil {
		r.hasError = false
		r.errString = ""
		return
	}
	r.hasError = true
	r.errString = err.Error()
}

// GetError reports whether the most recent call on this Registry failed.
func (r *Registry) GetError() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hasError
}

// GetErrorString returns the message set by the most recent failing
// call, or "" if the last call succeeded.
func (r *Registry) GetErrorString() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.errString
}

// NewStore allocates an empty sample store and returns its handle.
func (r *Registry) NewStore() Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	h := r.allocate()
	r.stores[h] = sample.New()
	r.setError(nil)
	return h
}

// AddColumns adds samples to the store named by h. Following the
// documented external convention (spec.md 9), the last column is taken
// as y and the dimensionality is reported as len(columns)-1, even though
// the store itself derives d from the first insertion independently;
// this mirrors original_source's AddColumns, which concatenates all
// columns col-major and lets the datatable infer d from the column count
// it was given, one less than the total because the last is always y.
func (r *Registry) AddColumns(h Handle, columns ...[]float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	store, ok := r.stores[h]
	if !ok {
		err := fmt.Errorf("cabi.AddColumns: %w", ErrNullHandle)
		r.setError(err)
		return err
	}
	if len(columns) < 2 {
		err := fmt.Errorf("cabi.AddColumns: need at least one x column and a y column: %w", ErrLengthMismatch)
		r.setError(err)
		return err
	}

	m := len(columns[0])
	for _, col := range columns {
		if len(col) != m {
			err := fmt.Errorf("cabi.AddColumns: %w", ErrLengthMismatch)
			r.setError(err)
			return err
		}
	}

	d := len(columns) - 1
	yCol := columns[d]
	x := make([]float64, d)
	for row := 0; row < m; row++ {
		for a := 0; a < d; a++ {
			x[a] = columns[a][row]
		}
		if err := store.Add(x, yCol[row]); err != nil {
			err = fmt.Errorf("cabi.AddColumns: row %d: %w", row, err)
			r.setError(err)
			return err
		}
	}
	r.setError(nil)
	return nil
}

// DeleteStore releases the store named by h.
func (r *Registry) DeleteStore(h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.stores, h)
	r.setError(nil)
}

// NewBuilder constructs a Builder over the store named by storeHandle and
// returns its handle.
func (r *Registry) NewBuilder(storeHandle Handle) (Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	store, ok := r.stores[storeHandle]
	if !ok {
		err := fmt.Errorf("cabi.NewBuilder: %w", ErrNullHandle)
		r.setError(err)
		return 0, err
	}
	b, err := builder.New(store)
	if err != nil {
		err = fmt.Errorf("cabi.NewBuilder: %w", err)
		r.setError(err)
		return 0, err
	}
	h := r.allocate()
	r.builders[h] = b
	r.setError(nil)
	return h, nil
}

func (r *Registry) builderFor(method string, h Handle) (*builder.Builder, error) {
	b, ok := r.builders[h]
	if !ok {
		return nil, fmt.Errorf("cabi.%s: %w", method, ErrNullHandle)
	}
	return b, nil
}

// withBuilder locks, looks up the builder named by h, runs fn, and
// records the outcome in the error slot -- the common shape shared by
// every builder setter below.
func (r *Registry) withBuilder(method string, h Handle, fn func(*builder.Builder) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, err := r.builderFor(method, h)
	if err != nil {
		r.setError(err)
		return err
	}
	if err := fn(b); err != nil {
		err = fmt.Errorf("cabi.%s: %w", method, err)
		r.setError(err)
		return err
	}
	r.setError(nil)
	return nil
}

// SetDegree sets every axis's polynomial degree.
func (r *Registry) SetDegree(h Handle, degrees []int) error {
	return r.withBuilder("SetDegree", h, func(b *builder.Builder) error {
		return b.SetDegrees(degrees)
	})
}

// SetNumBasisFunctions sets the per-axis basis-function count override.
func (r *Registry) SetNumBasisFunctions(h Handle, n []int) error {
	return r.withBuilder("SetNumBasisFunctions", h, func(b *builder.Builder) error {
		return b.SetNumBasisFunctions(n)
	})
}

// SetKnotSpacing sets the knot-placement strategy by its external enum
// code (0=AS_SAMPLED, 1=EQUIDISTANT, 2=EXPERIMENTAL).
func (r *Registry) SetKnotSpacing(h Handle, code int) error {
	return r.withBuilder("SetKnotSpacing", h, func(b *builder.Builder) error {
		return b.SetKnotSpacing(knots.Spacing(code))
	})
}

// SetSmoothing sets the regularization scheme by its external enum code
// (0=NONE, 1=IDENTITY, 2=PSPLINE).
func (r *Registry) SetSmoothing(h Handle, code int) error {
	return r.withBuilder("SetSmoothing", h, func(b *builder.Builder) error {
		return b.SetSmoothing(solve.Mode(code))
	})
}

// SetAlpha sets the regularization weight / initial HFS lambda.
func (r *Registry) SetAlpha(h Handle, alpha float64) error {
	return r.withBuilder("SetAlpha", h, func(b *builder.Builder) error {
		return b.SetAlpha(alpha)
	})
}

// SetPadding sets the EQUIDISTANT bounds padding fraction.
func (r *Registry) SetPadding(h Handle, padding float64) error {
	return r.withBuilder("SetPadding", h, func(b *builder.Builder) error {
		return b.SetPadding(padding)
	})
}

// SetWeights sets per-sample weights for PSPLINE fitting.
func (r *Registry) SetWeights(h Handle, w []float64) error {
	return r.withBuilder("SetWeights", h, func(b *builder.Builder) error {
		return b.SetWeights(w)
	})
}

// SetBounds sets per-axis [lo, hi] overrides for EQUIDISTANT knot
// placement. lo and hi must have equal length.
func (r *Registry) SetBounds(h Handle, lo, hi []float64) error {
	return r.withBuilder("SetBounds", h, func(b *builder.Builder) error {
		if len(lo) != len(hi) {
			return fmt.Errorf("len(lo)=%d, len(hi)=%d: %w", len(lo), len(hi), builder.ErrInvalidArgument)
		}
		bounds := make([]knots.Bounds, len(lo))
		for i := range lo {
			bounds[i] = knots.Bounds{Lo: lo[i], Hi: hi[i]}
		}
		return b.SetBounds(bounds)
	})
}

// SetHFSIters sets the number of HFS fixed-point iterations.
func (r *Registry) SetHFSIters(h Handle, n int) error {
	return r.withBuilder("SetHFSIters", h, func(b *builder.Builder) error {
		return b.SetHFSIters(n)
	})
}

// DeleteBuilder releases the builder named by h.
func (r *Registry) DeleteBuilder(h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.builders, h)
	r.setError(nil)
}

// Build runs the builder named by h to completion and returns a new
// spline handle. On failure, no spline handle is allocated.
func (r *Registry) Build(h Handle) (Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, err := r.builderFor("Build", h)
	if err != nil {
		r.setError(err)
		return 0, err
	}
	sp, err := b.Build()
	if err != nil {
		err = fmt.Errorf("cabi.Build: %w", err)
		r.setError(err)
		return 0, err
	}
	sh := r.allocate()
	r.splines[sh] = sp
	r.setError(nil)
	return sh, nil
}

func (r *Registry) splineFor(method string, h Handle) (*spline.Spline, error) {
	sp, ok := r.splines[h]
	if !ok {
		return nil, fmt.Errorf("cabi.%s: %w", method, ErrNullHandle)
	}
	return sp, nil
}

// NumVariables returns d for the spline named by h.
func (r *Registry) NumVariables(h Handle) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sp, err := r.splineFor("NumVariables", h)
	if err != nil {
		r.setError(err)
		return 0, err
	}
	r.setError(nil)
	return sp.NumVariables(), nil
}

// NumCoefficients returns N for the spline named by h.
func (r *Registry) NumCoefficients(h Handle) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sp, err := r.splineFor("NumCoefficients", h)
	if err != nil {
		r.setError(err)
		return 0, err
	}
	total, _ := sp.NumBasisFunctions()
	r.setError(nil)
	return total, nil
}

// GetCoefficients returns a copy of the spline's coefficient vector.
func (r *Registry) GetCoefficients(h Handle) ([]float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sp, err := r.splineFor("GetCoefficients", h)
	if err != nil {
		r.setError(err)
		return nil, err
	}
	c := sp.Coefficients()
	out := make([]float64, len(c))
	copy(out, c)
	r.setError(nil)
	return out, nil
}

// EvalRowMajor evaluates the spline named by h at x.
func (r *Registry) EvalRowMajor(h Handle, x []float64) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sp, err := r.splineFor("EvalRowMajor", h)
	if err != nil {
		r.setError(err)
		return 0, err
	}
	v, err := sp.Eval(x)
	if err != nil {
		err = fmt.Errorf("cabi.EvalRowMajor: %w", err)
		r.setError(err)
		return 0, err
	}
	r.setError(nil)
	return v, nil
}

// DeleteSpline releases the spline named by h.
func (r *Registry) DeleteSpline(h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.splines, h)
	r.setError(nil)
}
