// Copyright ©2026 The HYMLS Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hymlssolver

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/jthies/hymls/sparse"
)

// laplacian2D builds the 5-point-stencil Laplacian over an nx x ny
// non-periodic grid, a stand-in for the out-of-scope Darcy2D/Stokes
// sample-problem assembly: a small SPD matrix is enough to exercise the
// solver façade end-to-end.
func laplacian2D(nx, ny int) *sparse.CSR {
	n := nx * ny
	idx := func(i, j int) int { return j*nx + i }
	b := sparse.NewBuilder(n, n)
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			id := idx(i, j)
			b.Add(id, id, 4)
			if i > 0 {
				b.Add(id, idx(i-1, j), -1)
			}
			if i < nx-1 {
				b.Add(id, idx(i+1, j), -1)
			}
			if j > 0 {
				b.Add(id, idx(i, j-1), -1)
			}
			if j < ny-1 {
				b.Add(id, idx(i, j+1), -1)
			}
		}
	}
	return b.Build()
}

// laplacian2DPeriodic is laplacian2D with both axes wrapped around.
func laplacian2DPeriodic(nx, ny int) *sparse.CSR {
	n := nx * ny
	idx := func(i, j int) int { return ((j%ny+ny)%ny)*nx + (i%nx+nx)%nx }
	b := sparse.NewBuilder(n, n)
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			id := idx(i, j)
			b.Add(id, id, 4)
			b.Add(id, idx(i-1, j), -1)
			b.Add(id, idx(i+1, j), -1)
			b.Add(id, idx(i, j-1), -1)
			b.Add(id, idx(i, j+1), -1)
		}
	}
	return b.Build()
}

// relResidual returns ||A*x - b|| / ||b||.
func relResidual(A *sparse.CSR, b, x *mat.VecDense) float64 {
	n := b.Len()
	ax := make([]float64, n)
	A.MulVecTo(ax, false, x.RawVector().Data)
	diff := make([]float64, n)
	for i := range diff {
		diff[i] = ax[i] - b.AtVec(i)
	}
	bn := floats.Norm(b.RawVector().Data, 2)
	if bn == 0 {
		bn = 1
	}
	return floats.Norm(diff, 2) / bn
}
