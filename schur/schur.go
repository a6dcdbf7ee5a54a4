// Copyright ©2026 The HYMLS Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package schur provides an operator view of the Schur complement
// S = A22 - A21*A11^-1*A12 and assembles it into an explicit sparse
// matrix when the next hierarchical level needs to transform and drop
// it.
package schur

import (
	"fmt"

	"github.com/jthies/hymls/block"
	"github.com/jthies/hymls/hmap"
	"github.com/jthies/hymls/sparse"
)

// Complement is the operator view of S = A22 - A21*A11^-1*A12 over a
// HierarchicalMap's separator set.
type Complement struct {
	m                  *hmap.Map
	a11, a12, a21, a22 *block.MatrixBlock
	computed           bool
}

// New allocates the four blocks S is built from; Compute must be called
// before Apply or Construct.
func New(m *hmap.Map) *Complement {
	return &Complement{
		m:   m,
		a11: block.New(m, block.RoleInterior, block.RoleInterior),
		a12: block.New(m, block.RoleInterior, block.RoleSeparator),
		a21: block.New(m, block.RoleSeparator, block.RoleInterior),
		a22: block.New(m, block.RoleSeparator, block.RoleSeparator),
	}
}

// Rows returns the global separator IDs S is indexed by (rows and
// columns share the same ordering, S being square).
func (c *Complement) Rows() []int { return c.a22.Rows() }

// A11 returns the interior/interior block, including its per-subdomain
// direct solvers once Compute has run. Exposed so precond.Level can
// perform the downward/upward elimination sweep without re-extracting
// and re-factoring the same block.
func (c *Complement) A11() *block.MatrixBlock { return c.a11 }

// A12 returns the interior/separator block.
func (c *Complement) A12() *block.MatrixBlock { return c.a12 }

// A21 returns the separator/interior block.
func (c *Complement) A21() *block.MatrixBlock { return c.a21 }

// A22 returns the separator/separator block.
func (c *Complement) A22() *block.MatrixBlock { return c.a22 }

// Compute extracts all four blocks from the reordered global matrix and
// factors A11 subdomain-by-subdomain.
func (c *Complement) Compute(Aov *sparse.CSR, kind block.SolverKind) error {
	for _, b := range []*block.MatrixBlock{c.a11, c.a12, c.a21, c.a22} {
		if err := b.Compute(Aov); err != nil {
			return err
		}
	}
	if err := c.a11.InitializeSubdomainSolvers(kind); err != nil {
		return err
	}
	if err := c.a11.ComputeSubdomainSolvers(Aov); err != nil {
		return err
	}
	c.computed = true
	return nil
}

// Apply computes y = S*x = A22*x - A21*A11^-1*(A12*x) without
// materializing S.
func (c *Complement) Apply(x []float64) ([]float64, error) {
	if !c.computed {
		return nil, fmt.Errorf("schur: not computed")
	}
	t1, err := c.a12.Apply(x)
	if err != nil {
		return nil, err
	}
	t2, err := c.a11.ApplyInverse(t1)
	if err != nil {
		return nil, err
	}
	t3, err := c.a21.Apply(t2)
	if err != nil {
		return nil, err
	}
	y, err := c.a22.Apply(x)
	if err != nil {
		return nil, err
	}
	for i := range y {
		y[i] -= t3[i]
	}
	return y, nil
}

// Construct assembles S into an explicit sparse matrix via the two-pass
// algorithm: first accumulate A22 directly (it is already assembled
// globally across subdomains by MatrixBlock.Compute), then, per
// subdomain, solve A11 against the subdomain's A12 columns and subtract
// A21 times the result.
func (c *Complement) Construct() (*sparse.CSR, error) {
	if !c.computed {
		return nil, fmt.Errorf("schur: not computed")
	}
	sepRows := c.a22.Rows()
	n := len(sepRows)
	pos := make(map[int]int, n)
	for i, gid := range sepRows {
		pos[gid] = i
	}

	b := sparse.NewBuilder(n, n)
	c.a22.Visit(func(i, j int, v float64) { b.Add(i, j, v) })

	for sd := 0; sd < c.m.Subdomains(); sd++ {
		introws := c.a11.SubdomainRows(sd)
		sepGIDs := dedupSeparatorGIDs(c.m, sd)
		if len(sepGIDs) == 0 {
			continue
		}
		a12sub := selectFromVisited(c.a12, introws, sepGIDs)
		a21sub := selectFromVisited(c.a21, sepGIDs, introws)

		for k, colGID := range sepGIDs {
			col := make([]float64, len(introws))
			a12sub.MulVecTo(col, false, onehot(len(sepGIDs), k))
			x, err := c.a11.ApplyInverseSubdomain(sd, col)
			if err != nil {
				return nil, fmt.Errorf("schur: subdomain %d: %w", sd, err)
			}
			y := make([]float64, len(sepGIDs))
			a21sub.MulVecTo(y, false, x)
			for i, rowGID := range sepGIDs {
				if y[i] == 0 {
					continue
				}
				b.Add(pos[rowGID], pos[colGID], -y[i])
			}
		}
	}

	return b.Build(), nil
}

func onehot(n, k int) []float64 {
	v := make([]float64, n)
	v[k] = 1
	return v
}

// dedupSeparatorGIDs returns, in deterministic order, every separator
// node subdomain sd touches (its own separator listing, owned or not):
// the subdomain needs to interact with all of them to compute its
// contribution to S.
func dedupSeparatorGIDs(m *hmap.Map, sd int) []int {
	seen := make(map[int]bool)
	var gids []int
	for _, sg := range m.Separators(sd) {
		for _, gid := range sg.Nodes {
			if !seen[gid] {
				seen[gid] = true
				gids = append(gids, gid)
			}
		}
	}
	return gids
}

// selectFromVisited rebuilds the CSR restriction of block b to the
// global row/col ID subsets, by mapping the entries b.Visit reports
// through b's own (row,col) position maps.
func selectFromVisited(b *block.MatrixBlock, rowGIDs, colGIDs []int) *sparse.CSR {
	rowPos := make(map[int]int, len(b.Rows()))
	for i, gid := range b.Rows() {
		rowPos[gid] = i
	}
	colPos := make(map[int]int, len(b.Cols()))
	for j, gid := range b.Cols() {
		colPos[gid] = j
	}
	builder := sparse.NewBuilder(len(rowGIDs), len(colGIDs))
	wantRow := make(map[int]int, len(rowGIDs))
	for i, gid := range rowGIDs {
		wantRow[rowPos[gid]] = i
	}
	wantCol := make(map[int]int, len(colGIDs))
	for j, gid := range colGIDs {
		wantCol[colPos[gid]] = j
	}
	b.Visit(func(i, j int, v float64) {
		li, ok := wantRow[i]
		if !ok {
			return
		}
		lj, ok := wantCol[j]
		if !ok {
			return
		}
		builder.Add(li, lj, v)
	})
	return builder.Build()
}
