// Copyright ©2026 The HYMLS Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package drop implements the seven dropping rules applied to a
// transformed Schur complement before its non-V-sum block is factored.
package drop

import (
	"math"

	"github.com/jthies/hymls/sparse"
)

// Mode selects one of the seven dropping rules.
type Mode int

const (
	// Absolute drops a_ij (i != j) if |a_ij| <= tol.
	Absolute Mode = iota
	// AbsZeroDiag is Absolute, but zeros (rather than drops) diagonals
	// with |a_ii| < tol.
	AbsZeroDiag
	// AbsFullDiag is AbsZeroDiag, additionally inserting an explicit
	// zero diagonal entry where none was stored.
	AbsFullDiag
	// Relative drops a_ij (i != j) if |a_ij| <= tol*max(|a_ii|,|a_jj|).
	// Diagonals are never dropped unless tol >= 1.
	Relative
	// RelDropDiag is Relative, and additionally drops diagonals smaller
	// than tol times the largest diagonal magnitude in the matrix.
	RelDropDiag
	// RelZeroDiag is Relative, but zeros small diagonals instead of
	// dropping the row/column they anchor.
	RelZeroDiag
	// RelFullDiag is RelZeroDiag, additionally inserting an explicit
	// zero diagonal entry where none was stored.
	RelFullDiag
)

// DefaultTol is the tolerance used when the caller does not override it.
const DefaultTol = 1e-14

// Apply drops entries of S according to mode and tol, returning a new
// matrix. S must be square.
func Apply(S *sparse.CSR, mode Mode, tol float64) *sparse.CSR {
	n, cols := S.Dims()
	if n != cols {
		panic("drop: matrix must be square")
	}

	diag := make([]float64, n)
	hasDiag := make([]bool, n)
	S.Visit(func(i, j int, v float64) {
		if i == j {
			diag[i] = v
			hasDiag[i] = true
		}
	})

	maxDiag := 0.0
	for i, ok := range hasDiag {
		if ok {
			if a := math.Abs(diag[i]); a > maxDiag {
				maxDiag = a
			}
		}
	}

	b := sparse.NewBuilder(n, n)
	S.Visit(func(i, j int, v float64) {
		if i == j {
			return // diagonals are handled separately below.
		}
		if keepOffDiag(mode, tol, v, diag[i], diag[j]) {
			b.Add(i, j, v)
		}
	})

	for i := 0; i < n; i++ {
		v, had := diag[i], hasDiag[i]
		keep, write := keepDiag(mode, tol, v, had, maxDiag)
		if keep {
			b.Add(i, i, v)
		} else if write {
			b.Add(i, i, 0)
		}
	}

	return b.Build()
}

func keepOffDiag(mode Mode, tol, v, dii, djj float64) bool {
	switch mode {
	case Absolute, AbsZeroDiag, AbsFullDiag:
		return math.Abs(v) > tol
	case Relative, RelDropDiag, RelZeroDiag, RelFullDiag:
		threshold := tol * math.Max(math.Abs(dii), math.Abs(djj))
		return math.Abs(v) > threshold
	default:
		panic("drop: unknown mode")
	}
}

// keepDiag reports whether the diagonal entry should be kept as-is
// (keep), or, failing that, whether an explicit zero should be written
// in its place (write) rather than dropping the entry entirely.
func keepDiag(mode Mode, tol, v float64, had bool, maxDiag float64) (keep, write bool) {
	switch mode {
	case Absolute:
		if !had {
			return false, false
		}
		return true, false
	case AbsZeroDiag:
		if !had {
			return false, false
		}
		if math.Abs(v) < tol {
			return false, true
		}
		return true, false
	case AbsFullDiag:
		if !had {
			return false, true
		}
		if math.Abs(v) < tol {
			return false, true
		}
		return true, false
	case Relative:
		if !had {
			return false, false
		}
		if tol >= 1 && math.Abs(v) <= tol*maxDiag {
			return false, false
		}
		return true, false
	case RelDropDiag:
		if !had {
			return false, false
		}
		if math.Abs(v) <= tol*maxDiag {
			return false, false
		}
		return true, false
	case RelZeroDiag:
		if !had {
			return false, false
		}
		if math.Abs(v) <= tol*maxDiag {
			return false, true
		}
		return true, false
	case RelFullDiag:
		if math.Abs(v) <= tol*maxDiag {
			return false, true
		}
		return true, false
	default:
		panic("drop: unknown mode")
	}
}
