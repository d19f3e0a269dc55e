// Package sparsemat provides a column-compressed (CSC) sparse matrix type
// and the handful of linear-algebra operations the system assembler and
// solver need: transpose, matrix-vector products, sparse-sparse multiply,
// and scaled addition.
//
// No sparse linear-algebra library appears anywhere in the example corpus
// this package was grounded on, so the representation and operations here
// are hand-rolled. The API shape (bounds-checked accessors returning
// errors rather than panicking, a builder that finalizes into an immutable
// value) follows katalvlaran/lvlath's matrix.Dense.
package sparsemat

import (
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// ErrInvalidDimensions indicates that requested matrix dimensions are non-positive.
var ErrInvalidDimensions = errors.New("sparsemat: dimensions must be > 0")

// ErrIndexOutOfBounds indicates that a row or column index is outside valid range.
var ErrIndexOutOfBounds = errors.New("sparsemat: index out of bounds")

// ErrDimensionMismatch indicates incompatible dimensions between operands.
var ErrDimensionMismatch = errors.New("sparsemat: dimension mismatch")

// Entry is a single (row, col, value) triplet used to build a CSC matrix.
type Entry struct {
	Row, Col int
	Val      float64
}

// CSC is an immutable rows x cols sparse matrix in column-compressed
// storage. ColPtr has length cols+1; RowIdx and Data have length NNZ and
// are sorted by increasing row index within each column.
type CSC struct {
	rows, cols int
	colPtr     []int
	rowIdx     []int
	data       []float64
}

func cscErrorf(method string, err error) error {
	return fmt.Errorf("sparsemat.CSC.%s: %w", method, err)
}

// New builds a CSC matrix from triplets. Entries that share a (row, col)
// are summed, matching the usual sparse-assembly convention (and Eigen's
// insert-then-makeCompressed idiom this package is grounded on).
func New(rows, cols int, entries []Entry) (*CSC, error) {
	if rows <= 0 || cols <= 0 {
		return nil, ErrInvalidDimensions
	}
	for _, e := range entries {
		if e.Row < 0 || e.Row >= rows || e.Col < 0 || e.Col >= cols {
			return nil, cscErrorf("New", ErrIndexOutOfBounds)
		}
	}

	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Col != sorted[j].Col {
			return sorted[i].Col < sorted[j].Col
		}
		return sorted[i].Row < sorted[j].Row
	})

	colPtr := make([]int, cols+1)
	rowIdx := make([]int, 0, len(sorted))
	data := make([]float64, 0, len(sorted))

	i := 0
	for c := 0; c < cols; c++ {
		colPtr[c] = len(rowIdx)
		for i < len(sorted) && sorted[i].Col == c {
			r := sorted[i].Row
			v := sorted[i].Val
			j := i + 1
			for j < len(sorted) && sorted[j].Col == c && sorted[j].Row == r {
				v += sorted[j].Val
				j++
			}
			rowIdx = append(rowIdx, r)
			data = append(data, v)
			i = j
		}
	}
	colPtr[cols] = len(rowIdx)

	return &CSC{rows: rows, cols: cols, colPtr: colPtr, rowIdx: rowIdx, data: data}, nil
}

// Identity returns the n x n identity matrix.
func Identity(n int) (*CSC, error) {
	return Diag(onesVec(n))
}

func onesVec(n int) []float64 {
	v := make([]float64, n)
	for i := range v {
		v[i] = 1
	}
	return v
}

// Diag builds a diagonal matrix from the given values.
func Diag(values []float64) (*CSC, error) {
	n := len(values)
	if n == 0 {
		return nil, ErrInvalidDimensions
	}
	entries := make([]Entry, n)
	for i, v := range values {
		entries[i] = Entry{Row: i, Col: i, Val: v}
	}
	return New(n, n, entries)
}

// Dims returns the number of rows and columns.
func (m *CSC) Dims() (rows, cols int) { return m.rows, m.cols }

// NNZ returns the number of stored (non-deduplicated-away) entries.
func (m *CSC) NNZ() int { return len(m.data) }

// At returns the element at (row, col), which is 0 if no entry is stored.
func (m *CSC) At(row, col int) (float64, error) {
	if row < 0 || row >= m.rows || col < 0 || col >= m.cols {
		return 0, cscErrorf("At", ErrIndexOutOfBounds)
	}
	for k := m.colPtr[col]; k < m.colPtr[col+1]; k++ {
		if m.rowIdx[k] == row {
			return m.data[k], nil
		}
	}
	return 0, nil
}

// Column invokes fn for every stored (row, value) pair in the given column.
func (m *CSC) Column(col int, fn func(row int, val float64)) {
	for k := m.colPtr[col]; k < m.colPtr[col+1]; k++ {
		fn(m.rowIdx[k], m.data[k])
	}
}

// Entries returns all stored (row, col, val) triplets.
func (m *CSC) Entries() []Entry {
	out := make([]Entry, 0, len(m.data))
	for c := 0; c < m.cols; c++ {
		for k := m.colPtr[c]; k < m.colPtr[c+1]; k++ {
			out = append(out, Entry{Row: m.rowIdx[k], Col: c, Val: m.data[k]})
		}
	}
	return out
}

// Transpose returns the transpose of m.
func (m *CSC) Transpose() *CSC {
	entries := m.Entries()
	for i := range entries {
		entries[i].Row, entries[i].Col = entries[i].Col, entries[i].Row
	}
	t, _ := New(m.cols, m.rows, entries)
	return t
}

// MulVec computes y = m * x.
func (m *CSC) MulVec(x []float64) ([]float64, error) {
	if len(x) != m.cols {
		return nil, cscErrorf("MulVec", ErrDimensionMismatch)
	}
	y := make([]float64, m.rows)
	for c := 0; c < m.cols; c++ {
		xc := x[c]
		if xc == 0 {
			continue
		}
		for k := m.colPtr[c]; k < m.colPtr[c+1]; k++ {
			y[m.rowIdx[k]] += m.data[k] * xc
		}
	}
	return y, nil
}

// TransMulVec computes y = m^T * x without materializing the transpose.
func (m *CSC) TransMulVec(x []float64) ([]float64, error) {
	if len(x) != m.rows {
		return nil, cscErrorf("TransMulVec", ErrDimensionMismatch)
	}
	y := make([]float64, m.cols)
	for c := 0; c < m.cols; c++ {
		var sum float64
		for k := m.colPtr[c]; k < m.colPtr[c+1]; k++ {
			sum += m.data[k] * x[m.rowIdx[k]]
		}
		y[c] = sum
	}
	return y, nil
}

// Mul computes the sparse-sparse product m * other.
func (m *CSC) Mul(other *CSC) (*CSC, error) {
	if m.cols != other.rows {
		return nil, cscErrorf("Mul", ErrDimensionMismatch)
	}

	entries := make([]Entry, 0, len(m.data)+len(other.data))
	acc := make(map[int]float64, m.rows)
	order := make([]int, 0, m.rows)

	for j := 0; j < other.cols; j++ {
		for k := range acc {
			delete(acc, k)
		}
		order = order[:0]
		for kk := other.colPtr[j]; kk < other.colPtr[j+1]; kk++ {
			k := other.rowIdx[kk]
			bkj := other.data[kk]
			for mm := m.colPtr[k]; mm < m.colPtr[k+1]; mm++ {
				i := m.rowIdx[mm]
				if _, ok := acc[i]; !ok {
					order = append(order, i)
				}
				acc[i] += m.data[mm] * bkj
			}
		}
		for _, i := range order {
			if v := acc[i]; v != 0 {
				entries = append(entries, Entry{Row: i, Col: j, Val: v})
			}
		}
	}

	return New(m.rows, other.cols, entries)
}

// AddScaled computes m + alpha*other.
func (m *CSC) AddScaled(other *CSC, alpha float64) (*CSC, error) {
	if m.rows != other.rows || m.cols != other.cols {
		return nil, cscErrorf("AddScaled", ErrDimensionMismatch)
	}
	entries := make([]Entry, 0, len(m.data)+len(other.data))
	entries = append(entries, m.Entries()...)
	for _, e := range other.Entries() {
		entries = append(entries, Entry{Row: e.Row, Col: e.Col, Val: alpha * e.Val})
	}
	return New(m.rows, m.cols, entries)
}

// ToDense converts m to a dense gonum matrix, for the HFS inverse and the
// dense QR fallback.
func (m *CSC) ToDense() *mat.Dense {
	d := mat.NewDense(m.rows, m.cols, nil)
	for c := 0; c < m.cols; c++ {
		for k := m.colPtr[c]; k < m.colPtr[c+1]; k++ {
			d.Set(m.rowIdx[k], c, m.data[k])
		}
	}
	return d
}

// FrobeniusNormSquared returns the sum of squares of all stored values,
// i.e. ||m||_F^2. The HFS tau^2 penalty norm does not use it (||D*c||^2
// is computed from a dense vector, not this matrix); it is kept for
// diagnostics and tests.
func (m *CSC) FrobeniusNormSquared() float64 {
	var sum float64
	for _, v := range m.data {
		sum += v * v
	}
	return sum
}
