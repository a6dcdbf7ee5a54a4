// Copyright ©2026 The HYMLS Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package complexadapt

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestToRealFromRealRoundTrip(t *testing.T) {
	z := []complex128{complex(1, 2), complex(-3, 0.5), complex(0, -4)}
	v := ToReal(z)
	if v.Len() != 2*len(z) {
		t.Fatalf("ToReal length = %d, want %d", v.Len(), 2*len(z))
	}
	got := FromReal(v)
	for i := range z {
		if got[i] != z[i] {
			t.Fatalf("FromReal(ToReal(z))[%d] = %v, want %v", i, got[i], z[i])
		}
	}
}

type denseMulVec struct{ m *mat.Dense }

func (d denseMulVec) MulVecTo(dst []float64, trans bool, x []float64) {
	n, _ := d.m.Dims()
	xv := mat.NewVecDense(len(x), x)
	yv := mat.NewVecDense(n, nil)
	if trans {
		yv.MulVec(d.m.T(), xv)
	} else {
		yv.MulVec(d.m, xv)
	}
	copy(dst, yv.RawVector().Data)
}

func TestOperatorMatchesComplexMultiply(t *testing.T) {
	re := mat.NewDense(2, 2, []float64{2, 1, 0, 3})
	im := mat.NewDense(2, 2, []float64{0, -1, 1, 0})
	op := New(2, denseMulVec{re}, denseMulVec{im})

	z := []complex128{complex(1, 2), complex(-1, 0.5)}
	x := ToReal(z)
	y := mat.NewVecDense(4, nil)
	op.MulVecTo(y, false, x)
	got := FromReal(y)

	A := [][]complex128{
		{complex(2, 0), complex(1, -1)},
		{complex(0, 1), complex(3, 0)},
	}
	want := make([]complex128, 2)
	for i := 0; i < 2; i++ {
		var sum complex128
		for j := 0; j < 2; j++ {
			sum += A[i][j] * z[j]
		}
		want[i] = sum
	}
	for i := range want {
		if math.Abs(real(got[i])-real(want[i])) > 1e-10 || math.Abs(imag(got[i])-imag(want[i])) > 1e-10 {
			t.Fatalf("result[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}
