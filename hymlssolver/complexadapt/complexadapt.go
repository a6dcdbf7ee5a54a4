// Copyright ©2026 The HYMLS Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package complexadapt is the thin adaptor that lets the real-valued
// core solve a complex-shifted system: it turns one complex128 vector
// into an interleaved real mat.VecDense of width 2n and back, and wraps
// a complex matrix A+iB (given as its two real MulVecTo parts) into a
// linsolve.MulVecToer over that interleaved representation.
package complexadapt

import "gonum.org/v1/gonum/mat"

// ToReal interleaves z's real and imaginary parts into a real vector of
// length 2*len(z): [Re z0, Im z0, Re z1, Im z1, ...].
func ToReal(z []complex128) *mat.VecDense {
	data := make([]float64, 2*len(z))
	for i, c := range z {
		data[2*i] = real(c)
		data[2*i+1] = imag(c)
	}
	return mat.NewVecDense(len(data), data)
}

// FromReal reverses ToReal. v.Len() must be even.
func FromReal(v *mat.VecDense) []complex128 {
	n := v.Len() / 2
	out := make([]complex128, n)
	for i := range out {
		out[i] = complex(v.AtVec(2*i), v.AtVec(2*i+1))
	}
	return out
}

// MulVecToer is the real n-dimensional matvec a complex operator's real
// and imaginary parts are built from. github.com/jthies/hymls/sparse.CSR
// already satisfies this.
type MulVecToer interface {
	MulVecTo(dst []float64, trans bool, x []float64)
}

// Operator adapts the complex matrix Re + i*Im into a linsolve.MulVecToer
// over interleaved real vectors of width 2n, computing
//
//	(Re + i Im)(x + i y) = (Re x - Im y) + i(Re y + Im x).
//
// Transposition distributes over the sum unchanged, since
// (Re + i Im)^T = Re^T + i Im^T.
type Operator struct {
	Re, Im MulVecToer
	n      int
}

// New builds an Operator over n x n real matrices re and im.
func New(n int, re, im MulVecToer) *Operator {
	return &Operator{Re: re, Im: im, n: n}
}

// MulVecTo implements gonum.org/v1/gonum/linsolve.MulVecToer.
func (o *Operator) MulVecTo(dst *mat.VecDense, trans bool, x mat.Vector) {
	n := o.n
	xr := make([]float64, n)
	xi := make([]float64, n)
	for i := 0; i < n; i++ {
		xr[i] = x.AtVec(2 * i)
		xi[i] = x.AtVec(2*i + 1)
	}
	reXr := make([]float64, n)
	reXi := make([]float64, n)
	imXr := make([]float64, n)
	imXi := make([]float64, n)
	o.Re.MulVecTo(reXr, trans, xr)
	o.Re.MulVecTo(reXi, trans, xi)
	o.Im.MulVecTo(imXr, trans, xr)
	o.Im.MulVecTo(imXi, trans, xi)
	for i := 0; i < n; i++ {
		dst.SetVec(2*i, reXr[i]-imXi[i])
		dst.SetVec(2*i+1, reXi[i]+imXr[i])
	}
}
