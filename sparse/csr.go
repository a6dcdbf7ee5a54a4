// Copyright ©2026 The HYMLS Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sparse implements a minimal compressed-sparse-row matrix type
// and a triplet builder, used to hold the reordered global matrix and
// the per-subdomain blocks extracted from it. The layout and the
// COO-to-CSR build pipeline follow the same shape as gonum's own sparse
// extension packages.
package sparse

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// CSR is a compressed-sparse-row matrix. It implements mat.Matrix so it
// can be passed to gonum routines that only need Dims/At/T.
type CSR struct {
	rows, cols int
	indptr     []int
	indices    []int
	data       []float64
}

var _ mat.Matrix = (*CSR)(nil)

// NewCSR builds a CSR matrix directly from its compressed arrays.
// indptr must have length rows+1; indices and data must have equal
// length and be sorted by column within each row.
func NewCSR(rows, cols int, indptr, indices []int, data []float64) *CSR {
	if len(indptr) != rows+1 {
		panic("sparse: indptr length must be rows+1")
	}
	if len(indices) != len(data) {
		panic("sparse: indices/data length mismatch")
	}
	return &CSR{rows: rows, cols: cols, indptr: indptr, indices: indices, data: data}
}

// Dims returns the matrix dimensions.
func (m *CSR) Dims() (int, int) { return m.rows, m.cols }

// At returns the value at (i,j), 0 if the entry is not stored.
func (m *CSR) At(i, j int) float64 {
	if i < 0 || i >= m.rows || j < 0 || j >= m.cols {
		panic("sparse: index out of range")
	}
	lo, hi := m.indptr[i], m.indptr[i+1]
	for k := lo; k < hi; k++ {
		if m.indices[k] == j {
			return m.data[k]
		}
	}
	return 0
}

// T returns the transpose of m as a mat.Matrix. The transpose is
// materialized eagerly since CSR has no cheap lazy transpose view.
func (m *CSR) T() mat.Matrix { return m.transposeCSR() }

func (m *CSR) transposeCSR() *CSR {
	b := NewBuilder(m.cols, m.rows)
	m.Visit(func(i, j int, v float64) { b.Add(j, i, v) })
	return b.Build()
}

// RowView returns the column indices and values stored for row i, in
// column-sorted order. The returned slices must not be modified.
func (m *CSR) RowView(i int) (cols []int, vals []float64) {
	lo, hi := m.indptr[i], m.indptr[i+1]
	return m.indices[lo:hi], m.data[lo:hi]
}

// NNZ returns the number of stored entries.
func (m *CSR) NNZ() int { return len(m.data) }

// Visit calls f once for every stored entry, in row-major order.
func (m *CSR) Visit(f func(i, j int, v float64)) {
	for i := 0; i < m.rows; i++ {
		cols, vals := m.RowView(i)
		for k, j := range cols {
			f(i, j, vals[k])
		}
	}
}

// MulVecTo computes dst = m*x (trans=false) or dst = m'*x (trans=true).
// dst is zeroed first.
func (m *CSR) MulVecTo(dst []float64, trans bool, x []float64) {
	if trans {
		if len(x) != m.rows || len(dst) != m.cols {
			panic("sparse: dimension mismatch in transposed MulVecTo")
		}
		for i := range dst {
			dst[i] = 0
		}
		for i := 0; i < m.rows; i++ {
			xi := x[i]
			if xi == 0 {
				continue
			}
			cols, vals := m.RowView(i)
			for k, j := range cols {
				dst[j] += vals[k] * xi
			}
		}
		return
	}
	if len(x) != m.cols || len(dst) != m.rows {
		panic("sparse: dimension mismatch in MulVecTo")
	}
	for i := 0; i < m.rows; i++ {
		cols, vals := m.RowView(i)
		var sum float64
		for k, j := range cols {
			sum += vals[k] * x[j]
		}
		dst[i] = sum
	}
}

// Select extracts the submatrix m[rows, cols], where rows and cols are
// global row/column indices into m, returning a new CSR indexed locally
// by position within the given slices. This realizes the overlapping
// row/column extraction MatrixBlock.Compute performs against the
// imported copy of the global matrix.
func (m *CSR) Select(rows, cols []int) *CSR {
	colPos := make(map[int]int, len(cols))
	for k, c := range cols {
		colPos[c] = k
	}
	b := NewBuilder(len(rows), len(cols))
	for li, gr := range rows {
		if gr < 0 || gr >= m.rows {
			panic(fmt.Sprintf("sparse: row %d out of range", gr))
		}
		rcols, vals := m.RowView(gr)
		for k, gc := range rcols {
			if lc, ok := colPos[gc]; ok {
				b.Add(li, lc, vals[k])
			}
		}
	}
	return b.Build()
}

// Dense materializes m as a gonum dense matrix, for subdomain blocks
// small enough to factor directly with mat.Cholesky/mat.LU.
func (m *CSR) Dense() *mat.Dense {
	d := mat.NewDense(m.rows, m.cols, nil)
	m.Visit(func(i, j int, v float64) { d.Set(i, j, v) })
	return d
}

// Builder accumulates (row, col, value) triplets (COO form) and builds a
// CSR, summing duplicate entries. This is the assembly-time counterpart
// of CSR, used wherever the core inserts entries incrementally (Schur
// complement assembly, dropped/transformed matrices).
type Builder struct {
	rows, cols int
	ti, tj     []int
	tv         []float64
}

// NewBuilder returns an empty Builder for a rows×cols matrix.
func NewBuilder(rows, cols int) *Builder {
	return &Builder{rows: rows, cols: cols}
}

// Add records one (i,j,v) contribution. Repeated calls with the same
// (i,j) accumulate by summation when Build is called.
func (b *Builder) Add(i, j int, v float64) {
	if i < 0 || i >= b.rows || j < 0 || j >= b.cols {
		panic("sparse: triplet index out of range")
	}
	b.ti = append(b.ti, i)
	b.tj = append(b.tj, j)
	b.tv = append(b.tv, v)
}

// AddDiag adds v to every diagonal entry i in [0, n).
func (b *Builder) AddDiag(v float64) {
	n := b.rows
	if b.cols < n {
		n = b.cols
	}
	for i := 0; i < n; i++ {
		b.Add(i, i, v)
	}
}

// Build sorts the accumulated triplets by (row, col), sums duplicates,
// and returns the resulting CSR. Build does not consume the Builder; it
// may be called again after more Adds.
func (b *Builder) Build() *CSR {
	n := len(b.ti)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, c int) bool {
		ia, ic := order[a], order[c]
		if b.ti[ia] != b.ti[ic] {
			return b.ti[ia] < b.ti[ic]
		}
		return b.tj[ia] < b.tj[ic]
	})

	indptr := make([]int, b.rows+1)
	var indices []int
	var data []float64

	row := 0
	for _, idx := range order {
		for row < b.ti[idx] {
			row++
			indptr[row] = len(indices)
		}
		if n := len(indices); n > 0 && indptr[row] < n && indices[n-1] == b.tj[idx] {
			data[n-1] += b.tv[idx]
			continue
		}
		indices = append(indices, b.tj[idx])
		data = append(data, b.tv[idx])
	}
	for row < b.rows {
		row++
		indptr[row] = len(indices)
	}

	return &CSR{rows: b.rows, cols: b.cols, indptr: indptr, indices: indices, data: data}
}
