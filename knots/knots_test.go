package knots_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phil-mansfield/gosplinter/knots"
)

func TestMovingAverageIsRegular(t *testing.T) {
	values := []float64{0, 1, 2, 3, 4, 5}
	degree := 3

	k, err := knots.MovingAverage(values, degree)
	require.NoError(t, err)
	assert.True(t, knots.Regular(k, degree))
	for i := 0; i < degree+1; i++ {
		assert.Equal(t, values[0], k[i])
		assert.Equal(t, values[len(values)-1], k[len(k)-1-i])
	}
}

func TestMovingAverageTooFewPoints(t *testing.T) {
	_, err := knots.MovingAverage([]float64{0, 1}, 3)
	assert.ErrorIs(t, err, knots.ErrTooFewPoints)
}

func TestEquidistantSingleInteriorIsMidpoint(t *testing.T) {
	// Five unique samples, degree 3: interiorCount = 5-3-1 = 1, so this
	// exercises the midpoint-interior branch, not the zero-interior one;
	// verify the always-2*(degree+1) clamp invariant directly instead.
	values := []float64{-1, 0, 1, 2, 5}
	degree := 3

	k, err := knots.EquidistantKnots(values, degree, 0, knots.Bounds{Lo: -1.6, Hi: 5.6}, 0)
	require.NoError(t, err)
	assert.True(t, knots.Regular(k, degree))

	for i := 0; i < degree+1; i++ {
		assert.InDelta(t, -1.6, k[i], 1e-9)
		assert.InDelta(t, 5.6, k[len(k)-1-i], 1e-9)
	}
	assert.InDelta(t, 2.0, k[degree+1], 1e-9) // midpoint of [-1.6, 5.6]
}

func TestEquidistantZeroInteriorPureClamp(t *testing.T) {
	// degree+1 unique points exactly: interiorCount == 0.
	values := []float64{0, 1, 2, 3}
	degree := 3

	k, err := knots.EquidistantKnots(values, degree, 0, knots.Bounds{Lo: math.NaN(), Hi: math.NaN()}, 0)
	require.NoError(t, err)
	assert.Len(t, k, 2*(degree+1))
	assert.True(t, knots.Regular(k, degree))
}

func TestEquidistantPaddingExpandsBounds(t *testing.T) {
	values := []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	degree := 3

	k, err := knots.EquidistantKnots(values, degree, 0, knots.Bounds{Lo: math.NaN(), Hi: math.NaN()}, 0.1)
	require.NoError(t, err)
	assert.InDelta(t, -0.9, k[0], 1e-9)
	assert.InDelta(t, 9.9, k[len(k)-1], 1e-9)
}

func TestBucketsCapsSegments(t *testing.T) {
	values := make([]float64, 200)
	for i := range values {
		values[i] = float64(i)
	}
	degree := 3

	k, err := knots.Buckets(values, degree)
	require.NoError(t, err)
	assert.True(t, knots.Regular(k, degree))
	// maxSegments=10 caps ni at 10-degree-1=6 interior knots regardless of
	// how many unique values were given.
	assert.Len(t, k, 2*(degree+1)+6)
}

func TestBuildDispatchesBySpacing(t *testing.T) {
	values := []float64{0, 1, 2, 3, 4, 5}
	degree := 2

	for _, spacing := range []knots.Spacing{knots.AsSampled, knots.Equidistant, knots.Experimental} {
		k, err := knots.Build(spacing, values, degree, 0, knots.Bounds{Lo: math.NaN(), Hi: math.NaN()}, 0)
		require.NoError(t, err, spacing.String())
		assert.True(t, knots.Regular(k, degree), spacing.String())
	}

	_, err := knots.Build(knots.Spacing(99), values, degree, 0, knots.Bounds{}, 0)
	assert.ErrorIs(t, err, knots.ErrInvalidArgument)
}

func TestSpacingString(t *testing.T) {
	assert.Equal(t, "AS_SAMPLED", knots.AsSampled.String())
	assert.Equal(t, "EQUIDISTANT", knots.Equidistant.String())
	assert.Equal(t, "EXPERIMENTAL", knots.Experimental.String())
}
