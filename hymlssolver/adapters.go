// Copyright ©2026 The HYMLS Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hymlssolver

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/jthies/hymls/precond"
	"github.com/jthies/hymls/sparse"
)

// matVecAdapter turns a *sparse.CSR into a linsolve.MulVecToer.
type matVecAdapter struct{ m *sparse.CSR }

func (a matVecAdapter) MulVecTo(dst *mat.VecDense, trans bool, x mat.Vector) {
	n := dst.Len()
	xs := make([]float64, n)
	for i := 0; i < n; i++ {
		xs[i] = x.AtVec(i)
	}
	out := make([]float64, n)
	a.m.MulVecTo(out, trans, xs)
	for i, v := range out {
		dst.SetVec(i, v)
	}
}

// innerOperator is the subset of linsolve.MulVecToer borderedOperator
// needs from its unbordered inner operator, satisfied by both
// matVecAdapter (real) and *complexadapt.Operator (complex-embedded).
type innerOperator interface {
	MulVecTo(dst *mat.VecDense, trans bool, x mat.Vector)
}

// borderedOperator computes y = [A V; W' C] x for the n+m augmented
// system, wrapping any innerOperator as the top-left block so the same
// code serves both the real Bordered/Deflated variants and
// ComplexBordered's 2n-wide embedding.
type borderedOperator struct {
	a       innerOperator
	v, w, c *mat.Dense
	n, m    int
}

func (bo *borderedOperator) MulVecTo(dst *mat.VecDense, trans bool, x mat.Vector) {
	n, m := bo.n, bo.m
	xu := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		xu.SetVec(i, x.AtVec(i))
	}
	xs := make([]float64, m)
	for k := 0; k < m; k++ {
		xs[k] = x.AtVec(n + k)
	}

	au := mat.NewVecDense(n, nil)
	bo.a.MulVecTo(au, trans, xu)

	if !trans {
		for i := 0; i < n; i++ {
			sum := au.AtVec(i)
			for k := 0; k < m; k++ {
				sum += bo.v.At(i, k) * xs[k]
			}
			dst.SetVec(i, sum)
		}
		for k := 0; k < m; k++ {
			sum := 0.0
			for i := 0; i < n; i++ {
				sum += bo.w.At(i, k) * xu.AtVec(i)
			}
			for j := 0; j < m; j++ {
				sum += bo.c.At(k, j) * xs[j]
			}
			dst.SetVec(n+k, sum)
		}
		return
	}

	// Transpose: [A' W; V' C'].
	for i := 0; i < n; i++ {
		sum := au.AtVec(i)
		for k := 0; k < m; k++ {
			sum += bo.w.At(i, k) * xs[k]
		}
		dst.SetVec(i, sum)
	}
	for j := 0; j < m; j++ {
		sum := 0.0
		for i := 0; i < n; i++ {
			sum += bo.v.At(i, j) * xu.AtVec(i)
		}
		for k := 0; k < m; k++ {
			sum += bo.c.At(k, j) * xs[k]
		}
		dst.SetVec(n+j, sum)
	}
}

// preconSolve wraps op.ApplyInverse as a linsolve PreconSolve closure.
func preconSolve(op precond.Operator) func(dst *mat.VecDense, trans bool, rhs mat.Vector) error {
	return func(dst *mat.VecDense, trans bool, rhs mat.Vector) error {
		if trans {
			return fmt.Errorf("hymlssolver: transposed preconditioner solve is not supported")
		}
		n := dst.Len()
		rv := mat.NewVecDense(n, nil)
		for i := 0; i < n; i++ {
			rv.SetVec(i, rhs.AtVec(i))
		}
		return op.ApplyInverse(rv, dst)
	}
}

// preconSolveBordered wraps op.ApplyInverseBordered (which requires
// SetBorder to have been called already) as a PreconSolve closure over
// the n+m augmented vector space.
func preconSolveBordered(op precond.Operator, n, m int) func(dst *mat.VecDense, trans bool, rhs mat.Vector) error {
	return func(dst *mat.VecDense, trans bool, rhs mat.Vector) error {
		if trans {
			return fmt.Errorf("hymlssolver: transposed preconditioner solve is not supported")
		}
		x := mat.NewVecDense(n, nil)
		for i := 0; i < n; i++ {
			x.SetVec(i, rhs.AtVec(i))
		}
		t := mat.NewDense(m, 1, nil)
		for k := 0; k < m; k++ {
			t.Set(k, 0, rhs.AtVec(n+k))
		}
		y := mat.NewVecDense(n, nil)
		s := mat.NewDense(m, 1, nil)
		if err := op.ApplyInverseBordered(x, t, y, s); err != nil {
			return err
		}
		for i := 0; i < n; i++ {
			dst.SetVec(i, y.AtVec(i))
		}
		for k := 0; k < m; k++ {
			dst.SetVec(n+k, s.At(k, 0))
		}
		return nil
	}
}

// preconSolveComplex applies op.ApplyInverse independently to the real
// and imaginary parts of an interleaved 2n vector: the level
// preconditioner only factors the real grid operator, a documented
// approximation for the complex-shifted system.
func preconSolveComplex(op precond.Operator, n int) func(dst *mat.VecDense, trans bool, rhs mat.Vector) error {
	return func(dst *mat.VecDense, trans bool, rhs mat.Vector) error {
		if trans {
			return fmt.Errorf("hymlssolver: transposed preconditioner solve is not supported")
		}
		xr := mat.NewVecDense(n, nil)
		xi := mat.NewVecDense(n, nil)
		for i := 0; i < n; i++ {
			xr.SetVec(i, rhs.AtVec(2*i))
			xi.SetVec(i, rhs.AtVec(2*i+1))
		}
		yr := mat.NewVecDense(n, nil)
		yi := mat.NewVecDense(n, nil)
		if err := op.ApplyInverse(xr, yr); err != nil {
			return err
		}
		if err := op.ApplyInverse(xi, yi); err != nil {
			return err
		}
		for i := 0; i < n; i++ {
			dst.SetVec(2*i, yr.AtVec(i))
			dst.SetVec(2*i+1, yi.AtVec(i))
		}
		return nil
	}
}

// preconSolveComplexBordered composes preconSolveComplex over the
// leading 2n block with an unpreconditioned (identity) pass-through for
// the trailing m border unknowns: the level preconditioner has no
// notion of the complex border coupling, so that corner is approximated
// rather than solved, a documented scope-limiting simplification.
func preconSolveComplexBordered(op precond.Operator, n, m int) func(dst *mat.VecDense, trans bool, rhs mat.Vector) error {
	inner := preconSolveComplex(op, n)
	nn := 2 * n
	return func(dst *mat.VecDense, trans bool, rhs mat.Vector) error {
		if trans {
			return fmt.Errorf("hymlssolver: transposed preconditioner solve is not supported")
		}
		innerDst := mat.NewVecDense(nn, nil)
		innerRhs := mat.NewVecDense(nn, nil)
		for i := 0; i < nn; i++ {
			innerRhs.SetVec(i, rhs.AtVec(i))
		}
		if err := inner(innerDst, false, innerRhs); err != nil {
			return err
		}
		for i := 0; i < nn; i++ {
			dst.SetVec(i, innerDst.AtVec(i))
		}
		for k := 0; k < m; k++ {
			dst.SetVec(nn+k, rhs.AtVec(nn+k))
		}
		return nil
	}
}
