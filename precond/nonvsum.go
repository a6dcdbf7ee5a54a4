// Copyright ©2026 The HYMLS Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package precond

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/jthies/hymls/ortho"
	"github.com/jthies/hymls/sparse"
)

// nonVSumSolver approximates the inverse of the non-V-sum block of the
// dropped, rotated Schur complement.
type nonVSumSolver interface {
	solve(rhs []float64) ([]float64, error)
	// skipBacksub reports whether the non-V-sum/V-sum coupling should
	// be ignored during back-substitution, per spec.md §4.7 step 5.
	skipBacksub() bool
}

func newNonVSumSolver(M *sparse.CSR, variant PreconditionerVariant, groups []ortho.GroupRange) (nonVSumSolver, error) {
	switch variant {
	case BlockDiagonal:
		return newBlockDiagonalSolver(M, groups)
	case DomainDecomposition:
		return newDenseSolver(M, false)
	case LowerTriangular:
		return newTriangularSolver(M), nil
	case DoNothing:
		return doNothingSolver{}, nil
	default:
		return nil, fmt.Errorf("precond: unknown PreconditionerVariant %v", variant)
	}
}

// doNothingSolver passes the non-V-sum residual through unsolved.
type doNothingSolver struct{}

func (doNothingSolver) solve(rhs []float64) ([]float64, error) {
	return append([]float64(nil), rhs...), nil
}
func (doNothingSolver) skipBacksub() bool { return true }

// denseSolver factors an n x n block densely with Cholesky, falling
// back to LU, mirroring block.subdomainSolver's own fallback since both
// solve small per-group or per-processor systems drawn from the same
// reordered matrix.
type denseSolver struct {
	n        int
	chol     *mat.Cholesky
	lu       *mat.LU
	useLU    bool
	skipBack bool
}

func newDenseSolver(M *sparse.CSR, skipBack bool) (*denseSolver, error) {
	n, cols := M.Dims()
	if n != cols {
		return nil, fmt.Errorf("precond: non-V-sum block is not square (%dx%d)", n, cols)
	}
	if n == 0 {
		return &denseSolver{n: 0, skipBack: skipBack}, nil
	}
	d := M.Dense()
	sym := mat.NewSymDense(n, nil)
	symmetric := true
outer:
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			a, b := d.At(i, j), d.At(j, i)
			if a != b {
				symmetric = false
				break outer
			}
			sym.SetSym(i, j, a)
		}
	}
	s := &denseSolver{n: n, skipBack: skipBack}
	if symmetric {
		var chol mat.Cholesky
		if chol.Factorize(sym) {
			s.chol = &chol
			return s, nil
		}
	}
	var lu mat.LU
	lu.Factorize(d)
	s.lu = &lu
	s.useLU = true
	return s, nil
}

func (s *denseSolver) solve(rhs []float64) ([]float64, error) {
	if s.n == 0 {
		return nil, nil
	}
	b := mat.NewVecDense(len(rhs), rhs)
	x := mat.NewVecDense(s.n, nil)
	var err error
	if s.useLU {
		err = s.lu.SolveVecTo(x, false, b)
	} else {
		err = s.chol.SolveVecTo(x, b)
	}
	if err != nil {
		return nil, fmt.Errorf("precond: non-V-sum solve: %w", err)
	}
	return x.RawVector().Data, nil
}

func (s *denseSolver) skipBacksub() bool { return s.skipBack }

// blockDiagonalSolver factors one small dense block per separator
// group, the groups being contiguous, disjoint ranges within the
// non-V-sum index space (every separator group's members minus its own
// V-sum entry).
type blockDiagonalSolver struct {
	ranges  []ortho.GroupRange
	solvers []*denseSolver
}

func newBlockDiagonalSolver(M *sparse.CSR, groups []ortho.GroupRange) (*blockDiagonalSolver, error) {
	bd := &blockDiagonalSolver{ranges: groups, solvers: make([]*denseSolver, len(groups))}
	for i, r := range groups {
		idx := make([]int, r.Len)
		for k := range idx {
			idx[k] = r.Start + k
		}
		sub := M.Select(idx, idx)
		s, err := newDenseSolver(sub, true)
		if err != nil {
			return nil, fmt.Errorf("precond: block-diagonal group %d: %w", i, err)
		}
		bd.solvers[i] = s
	}
	return bd, nil
}

func (bd *blockDiagonalSolver) solve(rhs []float64) ([]float64, error) {
	out := make([]float64, len(rhs))
	for i, r := range bd.ranges {
		local := rhs[r.Start : r.Start+r.Len]
		sol, err := bd.solvers[i].solve(local)
		if err != nil {
			return nil, fmt.Errorf("precond: block-diagonal group %d: %w", i, err)
		}
		copy(out[r.Start:r.Start+r.Len], sol)
	}
	return out, nil
}

func (bd *blockDiagonalSolver) skipBacksub() bool { return true }

// triangularSolver performs one sparse forward-substitution sweep,
// reading only the stored entries with column <= row and requiring a
// stored (nonzero) diagonal. It is an approximate smoother rather than
// an exact solve when M is not actually triangular.
type triangularSolver struct {
	m *sparse.CSR
}

func newTriangularSolver(M *sparse.CSR) *triangularSolver {
	return &triangularSolver{m: M}
}

func (t *triangularSolver) solve(rhs []float64) ([]float64, error) {
	n, _ := t.m.Dims()
	x := make([]float64, n)
	for i := 0; i < n; i++ {
		cols, vals := t.m.RowView(i)
		sum := rhs[i]
		diag := 0.0
		haveDiag := false
		for k, j := range cols {
			switch {
			case j < i:
				sum -= vals[k] * x[j]
			case j == i:
				diag = vals[k]
				haveDiag = true
			}
		}
		if !haveDiag || diag == 0 {
			return nil, fmt.Errorf("precond: triangular sweep: zero or missing diagonal at row %d", i)
		}
		x[i] = sum / diag
	}
	return x, nil
}

func (t *triangularSolver) skipBacksub() bool { return false }
