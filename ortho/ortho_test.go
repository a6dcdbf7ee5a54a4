// Copyright ©2026 The HYMLS Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ortho

import (
	"math"
	"testing"

	"github.com/jthies/hymls/sparse"
)

// TestHouseholderVSumIdentity is seed scenario S4 and testable property
// #5: for t = [3,4], T*t = [5,0] to 1e-14.
func TestHouseholderVSumIdentity(t *testing.T) {
	test := []float64{3, 4}
	tr := NewHouseholder([]GroupRange{{Start: 0, Len: 2}}, test)
	v := append([]float64(nil), test...)
	tr.Apply(v)
	if math.Abs(math.Abs(v[0])-5) > 1e-14 {
		t.Errorf("v[0] = %v, want magnitude 5", v[0])
	}
	if math.Abs(v[1]) > 1e-14 {
		t.Errorf("v[1] = %v, want ~0", v[1])
	}
}

// TestOrthogonality is testable property #4.
func TestOrthogonality(t *testing.T) {
	test := []float64{1, 2, 3, 4}
	tr := NewHouseholder([]GroupRange{{Start: 0, Len: 4}}, test)
	if len(tr.reflectors) != 1 {
		t.Fatal("expected one reflector")
	}
	if err := orthogonalityError(tr.reflectors[0]); err > 1e-12*4 {
		t.Errorf("orthogonality error %v exceeds eps*group_size", err)
	}
}

func TestIdentityTransformNoOp(t *testing.T) {
	v := []float64{1, 2, 3}
	tr := Identity(3)
	before := append([]float64(nil), v...)
	tr.Apply(v)
	for i := range v {
		if v[i] != before[i] {
			t.Errorf("Identity transform modified entry %d", i)
		}
	}
}

func TestSingletonGroupIsIdentity(t *testing.T) {
	test := []float64{7}
	tr := NewHouseholder([]GroupRange{{Start: 0, Len: 1}}, test)
	v := []float64{7}
	tr.Apply(v)
	if v[0] != 7 {
		t.Errorf("singleton group changed value: got %v, want 7", v[0])
	}
}

// TestApplyToMatrixPreservesQuadraticForm is testable property #6's
// transform-consistency half: for an orthogonal T, x'Sx = (T'x)'(T'ST)(T'x).
func TestApplyToMatrixPreservesQuadraticForm(t *testing.T) {
	b := sparse.NewBuilder(2, 2)
	b.Add(0, 0, 2)
	b.Add(0, 1, 1)
	b.Add(1, 0, 1)
	b.Add(1, 1, 3)
	S := b.Build()

	test := []float64{3, 4}
	tr := NewHouseholder([]GroupRange{{Start: 0, Len: 2}}, test)
	M := tr.ApplyToMatrix(S)

	x := []float64{1, -1}
	xs := quadForm(S, x)

	tx := append([]float64(nil), x...)
	tr.Apply(tx)
	mtx := quadForm(M, tx)

	if math.Abs(xs-mtx) > 1e-10 {
		t.Errorf("quadratic form not preserved: x'Sx=%v, (Tx)'M(Tx)=%v", xs, mtx)
	}
}

func quadForm(m *sparse.CSR, x []float64) float64 {
	n, _ := m.Dims()
	y := make([]float64, n)
	m.MulVecTo(y, false, x)
	var sum float64
	for i := range x {
		sum += x[i] * y[i]
	}
	return sum
}
