// Copyright ©2026 The HYMLS Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package precond

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/jthies/hymls/sparse"
)

// coarseSolver is the direct factorization used at the coarsest level,
// once the recursion bottoms out: a dense Cholesky factorization of the
// whole Schur complement at that level when it is symmetric and
// Cholesky succeeds, otherwise a dense LU.
type coarseSolver struct {
	n    int
	chol *mat.Cholesky
	lu   *mat.LU
	useLU bool
}

func newCoarseSolver(S *sparse.CSR) (*coarseSolver, error) {
	n, cols := S.Dims()
	if n != cols {
		return nil, fmt.Errorf("precond: coarse matrix is not square (%dx%d)", n, cols)
	}
	d := S.Dense()
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
	s := &coarseSolver{n: n}
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

func (s *coarseSolver) solve(rhs []float64) ([]float64, error) {
	b := mat.NewVecDense(len(rhs), rhs)
	x := mat.NewVecDense(s.n, nil)
	var err error
	if s.useLU {
		err = s.lu.SolveVecTo(x, false, b)
	} else {
		err = s.chol.SolveVecTo(x, b)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingularCoarse, err)
	}
	return x.RawVector().Data, nil
}
