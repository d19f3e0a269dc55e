// Package solve assembles and solves the normal equations for a B-spline
// fit, auto-tuning the P-spline smoothing parameter via Harville-Fellner-
// Schall (HFS) fixed-point iteration, and falling back from a sparse to a
// dense solve strategy as described in spec.md 4.4.
//
// Dense factorizations (the HFS matrix inverse, and the dense-fallback
// least-squares solve) use gonum.org/v1/gonum/mat, the library
// weaviate-weaviate and unixpickle-tree-d both depend on in the retrieved
// corpus. The sparse LU path is hand-rolled: no sparse solver library
// appears anywhere in the corpus, and it generalizes the Crout-style
// elimination in phil-mansfield-gotetra/math/mat/mat.go from a flat dense
// array to sparse row maps.
package solve

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/phil-mansfield/gosplinter/sparsemat"
)

// ErrSolverFailure indicates both the sparse and dense solve attempts
// failed (singular or rank-deficient normal equations).
var ErrSolverFailure = errors.New("solve: failed to solve for coefficients")

// sparseThreshold is the row count at or above which a sparse LU solve is
// attempted before falling back to dense QR; profiled in the original
// source at 100 equations (spec.md 4.4 / 9).
const sparseThreshold = 100

// Mode selects the smoothing/regularization scheme used to assemble the
// normal equations.
type Mode int

const (
	// None fits A=B, b=y directly (ordinary least squares / interpolation).
	None Mode = iota
	// Identity adds Tikhonov (ridge) regularization: A=B'B+alpha*I.
	Identity
	// PSpline adds a second-order finite-difference penalty, with its
	// weight auto-tuned by HFS when HFSIters > 0.
	PSpline
)

// HFSConvention selects which of the two tau^2/sigma^2 denominator
// conventions (spec.md 4.4/9) HFS uses. ReferenceCode is the default.
type HFSConvention int

const (
	// ReferenceCode: tau^2 = ||Dc||^2/ED, sigma^2 = ||y-Bc||^2/(m-d-ED).
	ReferenceCode HFSConvention = iota
	// Book: tau^2 = ||Dc||^2/(ED-d), sigma^2 = ||y-Bc||^2/(m-ED).
	Book
)

// Params bundles everything Solve needs beyond the assembled matrices.
type Params struct {
	Mode         Mode
	Alpha        float64 // regularization weight / initial HFS lambda
	HFSIters     int
	NumVariables int // d, used by the HFS denominators
	Convention   HFSConvention
}

// Result is the outcome of a successful solve.
type Result struct {
	Coefficients []float64
	FinalLambda  float64 // == Alpha unless Mode==PSpline with HFSIters>0
}

// Solve computes B-spline coefficients from the assembled system (B, W, D)
// and sample values y, per the mode in params.
func Solve(B, W, D *sparsemat.CSC, y []float64, params Params) (*Result, error) {
	switch params.Mode {
	case None:
		c, err := solveSystem(B, y)
		if err != nil {
			return nil, err
		}
		return &Result{Coefficients: c, FinalLambda: params.Alpha}, nil

	case Identity:
		_, N := B.Dims()
		Bt := B.Transpose()
		BtB, err := Bt.Mul(B)
		if err != nil {
			return nil, err
		}
		I, err := sparsemat.Identity(N)
		if err != nil {
			return nil, err
		}
		A, err := BtB.AddScaled(I, params.Alpha)
		if err != nil {
			return nil, err
		}
		b, err := Bt.MulVec(y)
		if err != nil {
			return nil, err
		}
		c, err := solveSystem(A, b)
		if err != nil {
			return nil, err
		}
		return &Result{Coefficients: c, FinalLambda: params.Alpha}, nil

	case PSpline:
		return solvePSpline(B, W, D, y, params)

	default:
		return nil, fmt.Errorf("solve.Solve: unknown mode %d", int(params.Mode))
	}
}

func solvePSpline(B, W, D *sparsemat.CSC, y []float64, params Params) (*Result, error) {
	m, _ := B.Dims()
	Bt := B.Transpose()
	BtW, err := Bt.Mul(W)
	if err != nil {
		return nil, err
	}
	BtWB, err := BtW.Mul(B)
	if err != nil {
		return nil, err
	}
	Dt := D.Transpose()
	DtD, err := Dt.Mul(D)
	if err != nil {
		return nil, err
	}
	b, err := BtW.MulVec(y)
	if err != nil {
		return nil, err
	}

	lambda := params.Alpha
	A, err := BtWB.AddScaled(DtD, lambda)
	if err != nil {
		return nil, err
	}

	// lastC and lastLambda hold the coefficients and lambda of the most
	// recent iteration whose A could be inverted.
	var lastC []float64
	var lastLambda float64
	for iter := 0; iter < params.HFSIters; iter++ {
		Ainv, err := invert(A)
		if err != nil {
			if lastC == nil {
				return nil, fmt.Errorf("solve.Solve: HFS iteration %d: %w: %v", iter, ErrSolverFailure, err)
			}
			// HFS divergence (spec.md 7/9): the latest lambda made A
			// numerically singular, so stop iterating and keep the last
			// valid lambda together with the coefficients solved for it.
			return &Result{Coefficients: lastC, FinalLambda: lastLambda}, nil
		}

		BtWBDense := BtWB.ToDense()
		var G mat.Dense
		G.Mul(Ainv, BtWBDense)
		ED := mat.Trace(&G)

		bVec := mat.NewVecDense(len(b), append([]float64(nil), b...))
		var cVec mat.VecDense
		cVec.MulVec(Ainv, bVec)
		c := denseVecToSlice(&cVec)
		lastC, lastLambda = c, lambda

		Dc, err := D.MulVec(c)
		if err != nil {
			return nil, err
		}
		Bc, err := B.MulVec(c)
		if err != nil {
			return nil, err
		}
		resid := make([]float64, len(y))
		for i := range resid {
			resid[i] = y[i] - Bc[i]
		}

		var tau2, sigma2 float64
		switch params.Convention {
		case Book:
			tau2 = sumSquares(Dc) / (ED - float64(params.NumVariables))
			sigma2 = sumSquares(resid) / (float64(m) - ED)
		default:
			tau2 = sumSquares(Dc) / ED
			sigma2 = sumSquares(resid) / (float64(m) - float64(params.NumVariables) - ED)
		}

		if tau2 == 0 || math.IsNaN(tau2) || math.IsInf(tau2, 0) {
			// HFS divergence (spec.md 7/9): stop iterating and keep the
			// last valid lambda rather than propagating NaN coefficients.
			break
		}

		lambda = sigma2 / tau2
		A, err = BtWB.AddScaled(DtD, lambda)
		if err != nil {
			return nil, err
		}
	}

	c, err := solveSystem(A, b)
	if err != nil {
		return nil, err
	}
	return &Result{Coefficients: c, FinalLambda: lambda}, nil
}

func sumSquares(v []float64) float64 {
	var s float64
	for _, x := range v {
		s += x * x
	}
	return s
}

func denseVecToSlice(v *mat.VecDense) []float64 {
	n, _ := v.Dims()
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = v.AtVec(i)
	}
	return out
}

// invert computes the dense inverse of A, densifying only because HFS
// requires a full matrix inverse (spec.md 5).
func invert(A *sparsemat.CSC) (*mat.Dense, error) {
	dense := A.ToDense()
	var inv mat.Dense
	if err := inv.Inverse(dense); err != nil {
		return nil, err
	}
	return &inv, nil
}

// solveSystem solves A*x=b, attempting a sparse LU first when A is square
// and at or above sparseThreshold rows, falling back to dense QR
// otherwise or on sparse failure. Dense QR also directly handles the
// rectangular least-squares case used by Mode==None.
func solveSystem(A *sparsemat.CSC, b []float64) ([]float64, error) {
	rows, cols := A.Dims()

	if rows == cols && rows >= sparseThreshold {
		if x, err := sparseLUSolve(A, b); err == nil {
			return x, nil
		}
	}

	x, err := denseQRSolve(A.ToDense(), rows, cols, b)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSolverFailure, err)
	}
	return x, nil
}

func denseQRSolve(A *mat.Dense, rows, cols int, b []float64) ([]float64, error) {
	var qr mat.QR
	qr.Factorize(A)

	bv := mat.NewVecDense(rows, append([]float64(nil), b...))
	var x mat.VecDense
	if err := qr.SolveVecTo(&x, false, bv); err != nil {
		return nil, err
	}

	out := make([]float64, cols)
	for i := 0; i < cols; i++ {
		out[i] = x.AtVec(i)
	}
	return out, nil
}

// sparseLUSolve performs Gaussian elimination with partial pivoting over
// row maps built from A's columns, preserving sparsity for banded systems
// like B'WB+lambda*D'D without a full dense allocation. Returns an error
// (triggering the dense fallback) if a pivot is numerically singular.
func sparseLUSolve(A *sparsemat.CSC, b []float64) ([]float64, error) {
	n, cols := A.Dims()
	if n != cols {
		return nil, fmt.Errorf("sparseLUSolve: matrix is not square (%dx%d)", n, cols)
	}

	rows := make([]map[int]float64, n)
	for i := range rows {
		rows[i] = make(map[int]float64)
	}
	for _, e := range A.Entries() {
		rows[e.Row][e.Col] = e.Val
	}
	x := append([]float64(nil), b...)

	const pivotEps = 1e-300
	for k := 0; k < n; k++ {
		pivotRow, best := k, math.Abs(rows[k][k])
		for i := k + 1; i < n; i++ {
			if v := math.Abs(rows[i][k]); v > best {
				best, pivotRow = v, i
			}
		}
		if best < pivotEps {
			return nil, fmt.Errorf("sparseLUSolve: singular pivot at column %d", k)
		}
		if pivotRow != k {
			rows[k], rows[pivotRow] = rows[pivotRow], rows[k]
			x[k], x[pivotRow] = x[pivotRow], x[k]
		}

		pivotVal := rows[k][k]
		for i := k + 1; i < n; i++ {
			factor, ok := rows[i][k]
			if !ok || factor == 0 {
				continue
			}
			factor /= pivotVal
			for col, v := range rows[k] {
				rows[i][col] -= factor * v
			}
			delete(rows[i], k)
			x[i] -= factor * x[k]
		}
	}

	out := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		sum := x[i]
		for col, v := range rows[i] {
			if col > i {
				sum -= v * out[col]
			}
		}
		diag, ok := rows[i][i]
		if !ok || diag == 0 {
			return nil, fmt.Errorf("sparseLUSolve: zero diagonal at row %d", i)
		}
		out[i] = sum / diag
	}
	return out, nil
}
