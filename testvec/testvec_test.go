// Copyright ©2026 The HYMLS Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package testvec

import (
	"math"
	"testing"

	"github.com/jthies/hymls/ortho"
)

func TestRestrictExtractsVSum(t *testing.T) {
	test := Ones(4)
	ranges := []ortho.GroupRange{{Start: 0, Len: 2}, {Start: 2, Len: 2}}
	var flat []ortho.GroupRange
	flat = append(flat, ranges...)
	tr := ortho.NewHouseholder(flat, test)

	next := Restrict(test, tr, ranges)
	if len(next) != 2 {
		t.Fatalf("len(next) = %d, want 2", len(next))
	}
	want := math.Sqrt(2)
	for i, v := range next {
		if math.Abs(math.Abs(v)-want) > 1e-12 {
			t.Errorf("next[%d] = %v, want magnitude %v", i, v, want)
		}
	}
}

func TestRestrictDoesNotModifyInput(t *testing.T) {
	test := Ones(4)
	before := append([]float64(nil), test...)
	ranges := []ortho.GroupRange{{Start: 0, Len: 4}}
	tr := ortho.NewHouseholder(ranges, test)
	Restrict(test, tr, ranges)
	for i := range test {
		if test[i] != before[i] {
			t.Errorf("Restrict mutated input at %d", i)
		}
	}
}
