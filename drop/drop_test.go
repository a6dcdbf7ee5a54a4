// Copyright ©2026 The HYMLS Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package drop

import (
	"testing"

	"github.com/jthies/hymls/sparse"
)

// TestDropSanity is seed scenario S3: a 2x2 block with off-diagonals of
// magnitude 1e-15; RelZeroDiag with tol=1e-14 leaves exactly the 2
// diagonal entries.
func TestDropSanity(t *testing.T) {
	b := sparse.NewBuilder(2, 2)
	b.Add(0, 0, 1)
	b.Add(0, 1, 1e-15)
	b.Add(1, 0, 1e-15)
	b.Add(1, 1, 1)
	S := b.Build()

	out := Apply(S, RelZeroDiag, DefaultTol)
	if out.NNZ() != 2 {
		t.Fatalf("NNZ = %d, want 2", out.NNZ())
	}
	if out.At(0, 0) != 1 || out.At(1, 1) != 1 {
		t.Error("diagonals were modified")
	}
}

func TestAbsoluteDropsSmallOffDiag(t *testing.T) {
	b := sparse.NewBuilder(2, 2)
	b.Add(0, 0, 1)
	b.Add(0, 1, 1e-20)
	b.Add(1, 1, 1)
	S := b.Build()
	out := Apply(S, Absolute, DefaultTol)
	if out.At(0, 1) != 0 {
		t.Errorf("Absolute kept a sub-tolerance off-diagonal: %v", out.At(0, 1))
	}
}

func TestAbsFullDiagInsertsZero(t *testing.T) {
	b := sparse.NewBuilder(2, 2)
	b.Add(0, 1, 1)
	b.Add(1, 0, 1)
	S := b.Build() // no stored diagonal at all
	out := Apply(S, AbsFullDiag, DefaultTol)
	if out.NNZ() != 4 {
		t.Fatalf("NNZ = %d, want 4 (2 off-diag + 2 explicit zero diag)", out.NNZ())
	}
	if out.At(0, 0) != 0 || out.At(1, 1) != 0 {
		t.Error("expected explicit zero diagonals")
	}
}

// TestDropModeContract is testable property #7: every retained
// off-diagonal entry satisfies the mode's predicate.
func TestDropModeContract(t *testing.T) {
	b := sparse.NewBuilder(3, 3)
	b.Add(0, 0, 10)
	b.Add(1, 1, 1)
	b.Add(2, 2, 0.1)
	b.Add(0, 1, 0.5)
	b.Add(1, 2, 0.05)
	b.Add(0, 2, 0.001)
	S := b.Build()

	tol := 0.1
	out := Apply(S, Relative, tol)
	diag := map[int]float64{0: 10, 1: 1, 2: 0.1}
	out.Visit(func(i, j int, v float64) {
		if i == j {
			return
		}
		threshold := tol * maxAbs(diag[i], diag[j])
		if v != 0 {
			if !(abs(v) > threshold) {
				t.Errorf("retained entry (%d,%d)=%v violates Relative predicate (threshold %v)", i, j, v, threshold)
			}
		}
	})
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

func maxAbs(a, b float64) float64 {
	a, b = abs(a), abs(b)
	if a > b {
		return a
	}
	return b
}
