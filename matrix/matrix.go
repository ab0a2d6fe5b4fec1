// Package matrix implements the deal engine's matrix kernel (spec §4.2):
// Cholesky factorization of a correlation matrix with a positive-definite
// repair fallback, and principal matrix square/quarter roots for converting
// an annual rating transition matrix to a per-period one. There is no
// teacher precedent for this — molib is a single-curve fixed-income
// library with no linear-algebra package — so this is grounded instead on
// the retrieval pack's other_examples/danzoppo-realoptions, the one file
// in the corpus that imports gonum.org/v1/gonum/mat for a financial
// simulation.
package matrix

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Cholesky computes the lower-triangular factor L such that L*L^T = corr.
// If corr is not positive-definite (minimum eigenvalue <= 0), it is
// repaired by clamping negative eigenvalues to a small epsilon and
// reconstructing before retrying the factorization once, per spec §4.2's
// "adds eps*I if minimum eigenvalue <= 0".
func Cholesky(corr *mat.SymDense) (*mat.TriDense, error) {
	var chol mat.Cholesky
	if chol.Factorize(corr) {
		var l mat.TriDense
		chol.LTo(&l)
		return &l, nil
	}

	repaired, err := nearestPSD(corr)
	if err != nil {
		return nil, fmt.Errorf("matrix: cholesky repair failed: %w", err)
	}

	var chol2 mat.Cholesky
	if !chol2.Factorize(repaired) {
		return nil, fmt.Errorf("matrix: matrix remains non-positive-definite after epsilon repair")
	}
	var l mat.TriDense
	chol2.LTo(&l)
	return &l, nil
}

const epsilon = 1e-8

// nearestPSD clamps negative eigenvalues of a symmetric matrix to epsilon
// and reconstructs a positive-semidefinite matrix from the repaired
// eigendecomposition.
func nearestPSD(m *mat.SymDense) (*mat.SymDense, error) {
	n, _ := m.Dims()

	var eig mat.EigenSym
	if !eig.Factorize(m, true) {
		return nil, fmt.Errorf("eigendecomposition failed")
	}

	values := eig.Values(nil)
	var vectors mat.Dense
	eig.VectorsTo(&vectors)

	clamped := make([]float64, n)
	for i, v := range values {
		if v <= 0 {
			clamped[i] = epsilon
		} else {
			clamped[i] = v
		}
	}

	// Reconstruct: A = V * diag(clamped) * V^T
	diag := mat.NewDiagDense(n, clamped)
	var vd mat.Dense
	vd.Mul(&vectors, diag)
	var recon mat.Dense
	recon.Mul(&vd, vectors.T())

	out := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			out.SetSym(i, j, recon.At(i, j))
		}
	}
	return out, nil
}

// Sqrt computes the principal square root of a square matrix via
// eigendecomposition: if A = V*D*V^-1 then sqrt(A) = V*sqrt(D)*V^-1. Used to
// translate an annual rating transition matrix to a semiannual one.
func Sqrt(m *mat.Dense) (*mat.Dense, error) {
	n, cols := m.Dims()
	if n != cols {
		return nil, fmt.Errorf("matrix: Sqrt requires a square matrix, got %dx%d", n, cols)
	}

	sym := toSymmetrized(m, n)
	var eig mat.EigenSym
	if !eig.Factorize(sym, true) {
		return nil, fmt.Errorf("matrix: eigendecomposition failed")
	}
	values := eig.Values(nil)
	var vectors mat.Dense
	eig.VectorsTo(&vectors)

	sq := make([]float64, n)
	for i, v := range values {
		if v < 0 {
			v = 0
		}
		sq[i] = math.Sqrt(v)
	}
	diag := mat.NewDiagDense(n, sq)

	var vd mat.Dense
	vd.Mul(&vectors, diag)
	var result mat.Dense
	result.Mul(&vd, vectors.T())
	return &result, nil
}

// QuarterRoot composes Sqrt twice to derive the matrix fourth root, used to
// convert an annual transition matrix to a per-quarter one (spec §4.2).
func QuarterRoot(m *mat.Dense) (*mat.Dense, error) {
	half, err := Sqrt(m)
	if err != nil {
		return nil, err
	}
	return Sqrt(half)
}

// Root computes the principal n-th root of m via eigendecomposition,
// generalizing Sqrt/QuarterRoot to an arbitrary periods-per-year count
// (e.g. n=12 for monthly conversion of an annual transition matrix).
func Root(m *mat.Dense, n int) (*mat.Dense, error) {
	if n <= 0 {
		return nil, fmt.Errorf("matrix: Root requires a positive degree, got %d", n)
	}
	if n == 1 {
		out := mat.DenseCopyOf(m)
		return out, nil
	}

	rows, cols := m.Dims()
	if rows != cols {
		return nil, fmt.Errorf("matrix: Root requires a square matrix, got %dx%d", rows, cols)
	}

	sym := toSymmetrized(m, rows)
	var eig mat.EigenSym
	if !eig.Factorize(sym, true) {
		return nil, fmt.Errorf("matrix: eigendecomposition failed")
	}
	values := eig.Values(nil)
	var vectors mat.Dense
	eig.VectorsTo(&vectors)

	roots := make([]float64, rows)
	for i, v := range values {
		if v < 0 {
			v = 0
		}
		roots[i] = math.Pow(v, 1.0/float64(n))
	}
	diag := mat.NewDiagDense(rows, roots)

	var vd mat.Dense
	vd.Mul(&vectors, diag)
	var result mat.Dense
	result.Mul(&vd, vectors.T())
	return &result, nil
}

// toSymmetrized returns (m + m^T)/2 as a SymDense, the standard
// symmetrization used before eigendecomposing a matrix that is PSD in
// principle but only approximately symmetric due to floating-point input.
func toSymmetrized(m *mat.Dense, n int) *mat.SymDense {
	sym := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v := (m.At(i, j) + m.At(j, i)) / 2
			sym.SetSym(i, j, v)
		}
	}
	return sym
}
