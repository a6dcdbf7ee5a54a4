// Copyright ©2026 The HYMLS Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package precond implements the recursive Hierarchical Multilevel
// Schur-complement preconditioner: SchurPreconditioner reduces a
// separator-indexed Schur complement level by level down to a direct
// coarse solve, and Level drives one level's 2x2 block apply
// (interior/separator), including the optional bordered-system
// extension.
package precond

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/jthies/hymls/comm"
)

// Operator is the interface the outer Krylov solver consumes: apply,
// approximate inverse, and the optional bordered extension described in
// the Border state of a level's input matrix.
type Operator interface {
	Apply(x, y *mat.VecDense)
	ApplyInverse(x, y *mat.VecDense) error
	SetBorder(v, w, c *mat.Dense) error
	HasBorder() bool
	ApplyInverseBordered(x *mat.VecDense, t *mat.Dense, y *mat.VecDense, s *mat.Dense) error
	RangeMap() *comm.IndexMap
	DomainMap() *comm.IndexMap
	Comm() comm.Communicator
}

var (
	// ErrNotComputed is returned by ApplyInverse (and carried in the Fault
	// that Apply panics with) before Compute has run.
	ErrNotComputed = errors.New("precond: level is not computed")
	// ErrIncompatibleMaps is returned when a vector's length does not
	// match the level's range/domain map.
	ErrIncompatibleMaps = errors.New("precond: incompatible maps")
	// ErrBorderMismatch is returned by SetBorder when V, W do not share a
	// column count or C is not square with that same count.
	ErrBorderMismatch = errors.New("precond: border shape mismatch")
	// ErrSingularCoarse is returned when the coarsest-level direct solve
	// fails.
	ErrSingularCoarse = errors.New("precond: coarse solve is singular")
)

// Fault wraps a failure with the level and operation it occurred in,
// the Go analogue of propagating call-site file/line metadata through
// every low-level status check.
type Fault struct {
	Level int
	Op    string
	Err   error
}

func (f *Fault) Error() string {
	return fmt.Sprintf("precond: level %d: %s: %v", f.Level, f.Op, f.Err)
}

func (f *Fault) Unwrap() error { return f.Err }

// DumpKind selects what a debug dump writes.
type DumpKind int

const (
	DumpSchurComplement DumpKind = iota
	DumpTransformedMatrix
	DumpTestVector
)
