// Copyright ©2026 The HYMLS Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package hymlssolver is the solver façade (spec.md's C10): it drives
// gonum.org/v1/gonum/linsolve's reverse-communication Krylov iteration
// with a precond.Operator (recursively built by package precond) as the
// preconditioner, dispatching on a tagged Variant rather than a class
// hierarchy.
package hymlssolver

import (
	"fmt"

	"gonum.org/v1/gonum/linsolve"
	"gonum.org/v1/gonum/mat"

	"github.com/jthies/hymls/hymlssolver/complexadapt"
	"github.com/jthies/hymls/precond"
	"github.com/jthies/hymls/sparse"
)

// Variant selects the solve path, replacing the original's
// BaseSolver/BorderedSolver/DeflatedSolver/ComplexSolver/
// BorderedDeflatedSolver/ComplexBorderedSolver class hierarchy with a
// single tagged field.
type Variant int

const (
	// Base solves A x = b with no border or complex shift.
	Base Variant = iota
	// Bordered solves the augmented system [A V; W' C][x; s] = [b; t].
	Bordered
	// Deflated uses the same border machinery as Bordered to remove a
	// known near-null-space component from the iteration.
	Deflated
	// BorderedDeflated combines a border constraint and deflation; both
	// are carried by the same V, W, C border state, so it dispatches
	// identically to Bordered.
	BorderedDeflated
	// Complex solves (Re + i Im) z = c via the interleaved real
	// embedding in complexadapt.
	Complex
	// ComplexBordered is Complex plus a border over the embedded
	// 2n-dimensional real system.
	ComplexBordered
)

func (v Variant) String() string {
	switch v {
	case Base:
		return "Base"
	case Bordered:
		return "Bordered"
	case Deflated:
		return "Deflated"
	case BorderedDeflated:
		return "BorderedDeflated"
	case Complex:
		return "Complex"
	case ComplexBordered:
		return "ComplexBordered"
	default:
		return fmt.Sprintf("Variant(%d)", int(v))
	}
}

// Problem bundles everything a variant's solve path may need. Not every
// field is read by every variant: Base only reads A, Op, RHS; Bordered
// family additionally reads V, W, C, BorderRHS; Complex family reads Aim
// instead of treating A as purely real, and for ComplexBordered the
// border matrices are already the 2n-wide interleaved embedding.
type Problem struct {
	A, Aim  *sparse.CSR
	Op      precond.Operator
	RHS     *mat.VecDense
	V, W, C *mat.Dense
	// BorderRHS is the border block's right-hand side t, one column, as
	// many rows as C has.
	BorderRHS *mat.Dense
}

// Solver runs one outer Krylov iteration per Solve call, preconditioned
// by a precond.Operator.
type Solver struct {
	Variant Variant

	// Method overrides the default iterative method. If nil, GMRES is
	// used (BiCGStab only for Base, and only when UseBiCGStab is set).
	Method linsolve.Method
	// UseBiCGStab selects BiCGStab instead of GMRES for the Base
	// variant when Method is nil; GMRES does not need the matrix
	// transpose and is the safer default for the bordered/complex
	// variants' non-symmetric augmented operators.
	UseBiCGStab bool

	// Settings carries the linsolve tolerance/iteration-count/restart
	// knobs; PreconSolve is overwritten by Solve.
	Settings linsolve.Settings
}

// dispatch is the variant-keyed table of solve paths: adding a variant
// means adding one entry here, not a new type in a class hierarchy.
var dispatch = map[Variant]func(*Solver, Problem) (*linsolve.Result, error){
	Base:             (*Solver).solveBase,
	Bordered:         (*Solver).solveBordered,
	Deflated:         (*Solver).solveBordered,
	BorderedDeflated: (*Solver).solveBordered,
	Complex:          (*Solver).solveComplex,
	ComplexBordered:  (*Solver).solveComplexBordered,
}

// Solve runs the Krylov iteration selected by s.Variant over p.
func (s *Solver) Solve(p Problem) (*linsolve.Result, error) {
	fn, ok := dispatch[s.Variant]
	if !ok {
		return nil, fmt.Errorf("hymlssolver: unknown variant %v", s.Variant)
	}
	return fn(s, p)
}

func (s *Solver) method() linsolve.Method {
	if s.Method != nil {
		return s.Method
	}
	if s.Variant == Base && s.UseBiCGStab {
		return &linsolve.BiCGStab{}
	}
	return &linsolve.GMRES{}
}

func (s *Solver) solveBase(p Problem) (*linsolve.Result, error) {
	if p.A == nil || p.Op == nil || p.RHS == nil {
		return nil, fmt.Errorf("hymlssolver: Base requires A, Op and RHS")
	}
	settings := s.Settings
	settings.PreconSolve = preconSolve(p.Op)
	return linsolve.Iterative(matVecAdapter{p.A}, p.RHS, s.method(), &settings)
}

func (s *Solver) solveBordered(p Problem) (*linsolve.Result, error) {
	if p.A == nil || p.Op == nil || p.RHS == nil || p.V == nil || p.W == nil || p.C == nil || p.BorderRHS == nil {
		return nil, fmt.Errorf("hymlssolver: %v requires A, Op, RHS, V, W, C and BorderRHS", s.Variant)
	}
	n, _ := p.A.Dims()
	_, m := p.V.Dims()
	if err := p.Op.SetBorder(p.V, p.W, p.C); err != nil {
		return nil, fmt.Errorf("hymlssolver: %v: %w", s.Variant, err)
	}
	bo := &borderedOperator{a: matVecAdapter{p.A}, v: p.V, w: p.W, c: p.C, n: n, m: m}

	rhs := mat.NewVecDense(n+m, nil)
	for i := 0; i < n; i++ {
		rhs.SetVec(i, p.RHS.AtVec(i))
	}
	for k := 0; k < m; k++ {
		rhs.SetVec(n+k, p.BorderRHS.At(k, 0))
	}

	settings := s.Settings
	settings.PreconSolve = preconSolveBordered(p.Op, n, m)
	return linsolve.Iterative(bo, rhs, s.method(), &settings)
}

func (s *Solver) solveComplex(p Problem) (*linsolve.Result, error) {
	if p.A == nil || p.Aim == nil || p.Op == nil || p.RHS == nil {
		return nil, fmt.Errorf("hymlssolver: Complex requires A, Aim, Op and RHS")
	}
	n, _ := p.A.Dims()
	op := complexadapt.New(n, p.A, p.Aim)
	settings := s.Settings
	settings.PreconSolve = preconSolveComplex(p.Op, n)
	return linsolve.Iterative(op, p.RHS, s.method(), &settings)
}

func (s *Solver) solveComplexBordered(p Problem) (*linsolve.Result, error) {
	if p.A == nil || p.Aim == nil || p.Op == nil || p.RHS == nil || p.V == nil || p.W == nil || p.C == nil || p.BorderRHS == nil {
		return nil, fmt.Errorf("hymlssolver: ComplexBordered requires A, Aim, Op, RHS, V, W, C and BorderRHS")
	}
	n, _ := p.A.Dims()
	nn := 2 * n
	_, m := p.V.Dims()
	inner := complexadapt.New(n, p.A, p.Aim)
	bo := &borderedOperator{a: inner, v: p.V, w: p.W, c: p.C, n: nn, m: m}

	rhs := mat.NewVecDense(nn+m, nil)
	for i := 0; i < nn; i++ {
		rhs.SetVec(i, p.RHS.AtVec(i))
	}
	for k := 0; k < m; k++ {
		rhs.SetVec(nn+k, p.BorderRHS.At(k, 0))
	}

	settings := s.Settings
	settings.PreconSolve = preconSolveComplexBordered(p.Op, n, m)
	return linsolve.Iterative(bo, rhs, s.method(), &settings)
}
