// Package builder is the mutable pre-build configuration facade (C7):
// it accumulates degrees, knot spacing, smoothing, and related settings,
// validates them synchronously on every setter call, and orchestrates
// knot synthesis, system assembly, and the regularized solve into a
// finished spline.Spline.
//
// Error policy follows katalvlaran-lvlath/builder/errors.go: only
// sentinel variables are exposed here; callers branch with errors.Is.
// Sentinels are never parameterized at definition time -- context is
// attached with %w at the return site.
package builder

import "errors"

// ErrInvalidArgument covers malformed setter arguments: out-of-range
// degree, negative alpha/padding, wrong-length slices, unknown enum codes.
var ErrInvalidArgument = errors.New("builder: invalid argument")

// ErrPrecondition covers build()-time preconditions: too few unique axis
// values, fewer than three basis functions per axis under PSpline, or an
// incomplete sample grid when scattered data isn't enabled.
var ErrPrecondition = errors.New("builder: precondition failed")
