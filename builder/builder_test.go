package builder_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phil-mansfield/gosplinter/builder"
	"github.com/phil-mansfield/gosplinter/knots"
	"github.com/phil-mansfield/gosplinter/sample"
	"github.com/phil-mansfield/gosplinter/solve"
)

func quadraticStore(t *testing.T) *sample.Store {
	store := sample.New()
	xs := []float64{0, 1, 2, 3, 4}
	ys := []float64{0, 1, 4, 9, 16}
	for i := range xs {
		require.NoError(t, store.Add([]float64{xs[i]}, ys[i]))
	}
	return store
}

// TestS1Interpolation covers spec.md scenario S1: d=1, degree 3,
// AS_SAMPLED, NONE must interpolate the samples exactly and land strictly
// between y(2) and y(3) at the midpoint.
func TestS1Interpolation(t *testing.T) {
	store := quadraticStore(t)
	b, err := builder.New(store)
	require.NoError(t, err)

	sp, err := b.Build()
	require.NoError(t, err)

	for _, s := range store.Samples() {
		v, err := sp.Eval(s.X)
		require.NoError(t, err)
		assert.InDelta(t, s.Y, v, 1e-9*math.Max(1, math.Abs(s.Y)))
	}

	mid, err := sp.Eval([]float64{2.5})
	require.NoError(t, err)
	assert.Greater(t, mid, 4.0)
	assert.Less(t, mid, 9.0)
}

// TestS4BilinearReproduction covers spec.md scenario S4: a 2D grid with
// yij = i+j, degree [2,2], AS_SAMPLED, NONE must reproduce the linear
// function exactly off-grid too.
func TestS4BilinearReproduction(t *testing.T) {
	store := sample.New()
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			require.NoError(t, store.Add([]float64{float64(i), float64(j)}, float64(i+j)))
		}
	}
	b, err := builder.New(store)
	require.NoError(t, err)
	require.NoError(t, b.SetDegrees([]int{2, 2}))

	sp, err := b.Build()
	require.NoError(t, err)

	v, err := sp.Eval([]float64{0.5, 0.5})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, v, 1e-9)
}

// TestS5TooFewPointsFails covers spec.md scenario S5.
func TestS5TooFewPointsFails(t *testing.T) {
	store := sample.New()
	require.NoError(t, store.Add([]float64{0}, 0))
	require.NoError(t, store.Add([]float64{1}, 1))

	b, err := builder.New(store)
	require.NoError(t, err)

	_, err = b.Build()
	assert.ErrorIs(t, err, builder.ErrPrecondition)
}

// TestS6EquidistantBoundsAndPadding covers spec.md scenario S6.
func TestS6EquidistantBoundsAndPadding(t *testing.T) {
	store := quadraticStore(t)
	b, err := builder.New(store)
	require.NoError(t, err)
	require.NoError(t, b.SetKnotSpacing(knots.Equidistant))
	require.NoError(t, b.SetBounds([]knots.Bounds{{Lo: -1, Hi: 5}}))
	require.NoError(t, b.SetPadding(0.1))

	sp, err := b.Build()
	require.NoError(t, err)

	k, err := sp.Knots(0)
	require.NoError(t, err)
	assert.InDelta(t, -1.6, k[0], 1e-9)
	assert.InDelta(t, 5.6, k[len(k)-1], 1e-9)
	for i := 0; i < 4; i++ {
		assert.InDelta(t, -1.6, k[i], 1e-9)
		assert.InDelta(t, 5.6, k[len(k)-1-i], 1e-9)
	}
}

func TestIncompleteGridFailsWithoutScatterOptIn(t *testing.T) {
	store := sample.New()
	// 2D grid missing one corner: not a complete Cartesian product.
	require.NoError(t, store.Add([]float64{0, 0}, 0))
	require.NoError(t, store.Add([]float64{0, 1}, 1))
	require.NoError(t, store.Add([]float64{1, 0}, 1))

	b, err := builder.New(store)
	require.NoError(t, err)
	require.NoError(t, b.SetDegrees([]int{0, 0}))
	// Identity smoothing keeps the normal equations well-posed even when
	// m (3) is smaller than N, which a scattered 3-of-4 grid produces here.
	require.NoError(t, b.SetSmoothing(solve.Identity))
	require.NoError(t, b.SetAlpha(1e-6))

	_, err = b.Build()
	assert.ErrorIs(t, err, builder.ErrPrecondition)

	b.AllowScatteredData(true)
	_, err = b.Build()
	assert.NoError(t, err)
}

func TestSetDegreesValidation(t *testing.T) {
	store := quadraticStore(t)
	b, err := builder.New(store)
	require.NoError(t, err)

	assert.ErrorIs(t, b.SetDegrees([]int{6}), builder.ErrInvalidArgument)
	assert.ErrorIs(t, b.SetDegrees([]int{1, 2}), builder.ErrInvalidArgument)
	assert.NoError(t, b.SetDegrees([]int{2}))
}

func TestSetWeightsValidation(t *testing.T) {
	store := quadraticStore(t)
	b, err := builder.New(store)
	require.NoError(t, err)

	assert.ErrorIs(t, b.SetWeights([]float64{1, 1}), builder.ErrInvalidArgument)
	assert.NoError(t, b.SetWeights([]float64{1, 1, 1, 1, 1}))
	assert.NoError(t, b.SetWeights(nil))
}

func TestLastLambdaReflectsHFSTuning(t *testing.T) {
	store := sample.New()
	xs := []float64{0, 1, 2, 3, 4}
	ys := []float64{0, 1, 0, 1, 0}
	for i := range xs {
		require.NoError(t, store.Add([]float64{xs[i]}, ys[i]))
	}

	b, err := builder.New(store)
	require.NoError(t, err)
	require.NoError(t, b.SetSmoothing(solve.PSpline))
	require.NoError(t, b.SetAlpha(1.0))
	require.NoError(t, b.SetHFSIters(10))

	_, err = b.Build()
	require.NoError(t, err)
	assert.NotEqual(t, 1.0, b.LastLambda())
}
