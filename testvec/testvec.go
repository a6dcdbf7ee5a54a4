// Copyright ©2026 The HYMLS Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package testvec builds and restricts the test vector used to
// construct orthogonal transforms at each hierarchical level.
package testvec

import "github.com/jthies/hymls/ortho"

// Ones returns the all-ones vector of length n, the default test vector
// at the finest level.
func Ones(n int) []float64 {
	v := make([]float64, n)
	for i := range v {
		v[i] = 1
	}
	return v
}

// Restrict applies tr to a copy of test and extracts the V-sum entry of
// every group in ranges, in order, producing the next level's test
// vector. test is not modified.
func Restrict(test []float64, tr *ortho.Transform, ranges []ortho.GroupRange) []float64 {
	v := append([]float64(nil), test...)
	tr.Apply(v)
	out := make([]float64, len(ranges))
	for i, r := range ranges {
		out[i] = v[ortho.VSumIndex(r)]
	}
	return out
}
