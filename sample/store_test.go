package sample_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phil-mansfield/gosplinter/sample"
)

func TestAddFixesDimensionality(t *testing.T) {
	s := sample.New()
	require.NoError(t, s.Add([]float64{1, 2}, 10))
	assert.Equal(t, 2, s.NumVariables())
	assert.Equal(t, 1, s.NumSamples())

	err := s.Add([]float64{1, 2, 3}, 11)
	assert.ErrorIs(t, err, sample.ErrDimensionMismatch)
}

func TestAxisValuesAndUnique(t *testing.T) {
	s := sample.New()
	require.NoError(t, s.Add([]float64{1}, 1))
	require.NoError(t, s.Add([]float64{2}, 2))
	require.NoError(t, s.Add([]float64{1}, 3))

	vals, err := s.AxisValues(0)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 1}, vals)

	unique, err := s.UniqueAxisValues(0)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, unique)

	_, err = s.AxisValues(5)
	assert.ErrorIs(t, err, sample.ErrDimensionMismatch)
}

func TestIsGridComplete(t *testing.T) {
	s := sample.New()
	for _, x0 := range []float64{0, 1} {
		for _, x1 := range []float64{0, 1, 2} {
			require.NoError(t, s.Add([]float64{x0, x1}, x0+x1))
		}
	}
	assert.True(t, s.IsGridComplete())

	partial := sample.New()
	require.NoError(t, partial.Add([]float64{0, 0}, 0))
	require.NoError(t, partial.Add([]float64{0, 1}, 1))
	require.NoError(t, partial.Add([]float64{1, 0}, 1))
	assert.False(t, partial.IsGridComplete())
}

func TestIsGridCompleteRejectsDuplicates(t *testing.T) {
	s := sample.New()
	require.NoError(t, s.Add([]float64{0, 0}, 0))
	require.NoError(t, s.Add([]float64{0, 1}, 1))
	require.NoError(t, s.Add([]float64{0, 0}, 99))
	assert.False(t, s.IsGridComplete())
}

func TestCloneIsIndependent(t *testing.T) {
	s := sample.New()
	require.NoError(t, s.Add([]float64{1, 2}, 3))

	clone := s.Clone()
	require.NoError(t, s.Add([]float64{4, 5}, 6))

	assert.Equal(t, 1, clone.NumSamples())
	assert.Equal(t, 2, s.NumSamples())
}

func TestEmptyStoreIsNotGridComplete(t *testing.T) {
	assert.False(t, sample.New().IsGridComplete())
}
