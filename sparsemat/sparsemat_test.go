package sparsemat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phil-mansfield/gosplinter/sparsemat"
)

func TestNewDedupesSameEntry(t *testing.T) {
	m, err := sparsemat.New(2, 2, []sparsemat.Entry{
		{Row: 0, Col: 0, Val: 1},
		{Row: 0, Col: 0, Val: 2},
	})
	require.NoError(t, err)
	v, err := m.At(0, 0)
	require.NoError(t, err)
	assert.Equal(t, 3.0, v)
	assert.Equal(t, 1, m.NNZ())
}

func TestNewRejectsOutOfBounds(t *testing.T) {
	_, err := sparsemat.New(2, 2, []sparsemat.Entry{{Row: 5, Col: 0, Val: 1}})
	assert.ErrorIs(t, err, sparsemat.ErrIndexOutOfBounds)
}

func TestIdentityAndDiag(t *testing.T) {
	id, err := sparsemat.Identity(3)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			v, _ := id.At(i, j)
			if i == j {
				assert.Equal(t, 1.0, v)
			} else {
				assert.Equal(t, 0.0, v)
			}
		}
	}

	d, err := sparsemat.Diag([]float64{2, 3})
	require.NoError(t, err)
	v, _ := d.At(1, 1)
	assert.Equal(t, 3.0, v)
}

func TestTranspose(t *testing.T) {
	m, err := sparsemat.New(2, 3, []sparsemat.Entry{
		{Row: 0, Col: 2, Val: 5},
		{Row: 1, Col: 0, Val: 7},
	})
	require.NoError(t, err)
	mt := m.Transpose()
	rows, cols := mt.Dims()
	assert.Equal(t, 3, rows)
	assert.Equal(t, 2, cols)
	v, _ := mt.At(2, 0)
	assert.Equal(t, 5.0, v)
}

func TestMulVecAndTransMulVec(t *testing.T) {
	m, err := sparsemat.New(2, 2, []sparsemat.Entry{
		{Row: 0, Col: 0, Val: 1},
		{Row: 0, Col: 1, Val: 2},
		{Row: 1, Col: 0, Val: 3},
		{Row: 1, Col: 1, Val: 4},
	})
	require.NoError(t, err)

	y, err := m.MulVec([]float64{1, 1})
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 7}, y)

	ty, err := m.TransMulVec([]float64{1, 1})
	require.NoError(t, err)
	assert.Equal(t, []float64{4, 6}, ty)
}

func TestMulSparseSparse(t *testing.T) {
	a, err := sparsemat.New(2, 2, []sparsemat.Entry{
		{Row: 0, Col: 0, Val: 1}, {Row: 0, Col: 1, Val: 2},
		{Row: 1, Col: 0, Val: 3}, {Row: 1, Col: 1, Val: 4},
	})
	require.NoError(t, err)
	id, err := sparsemat.Identity(2)
	require.NoError(t, err)

	prod, err := a.Mul(id)
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			want, _ := a.At(i, j)
			got, _ := prod.At(i, j)
			assert.Equal(t, want, got)
		}
	}
}

func TestAddScaled(t *testing.T) {
	a, err := sparsemat.New(2, 2, []sparsemat.Entry{{Row: 0, Col: 0, Val: 1}, {Row: 1, Col: 1, Val: 1}})
	require.NoError(t, err)
	id, err := sparsemat.Identity(2)
	require.NoError(t, err)

	sum, err := a.AddScaled(id, 2)
	require.NoError(t, err)
	v, _ := sum.At(0, 0)
	assert.Equal(t, 3.0, v)
}

func TestToDense(t *testing.T) {
	m, err := sparsemat.New(2, 2, []sparsemat.Entry{{Row: 0, Col: 1, Val: 9}})
	require.NoError(t, err)
	dense := m.ToDense()
	assert.Equal(t, 9.0, dense.At(0, 1))
	assert.Equal(t, 0.0, dense.At(1, 0))
}

func TestFrobeniusNormSquared(t *testing.T) {
	m, err := sparsemat.New(2, 2, []sparsemat.Entry{{Row: 0, Col: 0, Val: 3}, {Row: 1, Col: 1, Val: 4}})
	require.NoError(t, err)
	assert.Equal(t, 25.0, m.FrobeniusNormSquared())
}
