// Copyright ©2026 The HYMLS Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package block extracts the four conceptual blocks of a reordered
// matrix (A11, A12, A21, A22) against a HierarchicalMap and, for the
// interior/interior block, owns one direct solver per subdomain.
package block

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/jthies/hymls/hmap"
	"github.com/jthies/hymls/sparse"
)

// Role tags which half of the (interior, separator) partition a block's
// rows or columns are drawn from.
type Role int

const (
	RoleInterior Role = iota
	RoleSeparator
)

// ErrNotComputed is returned by Apply/ApplyInverse before Compute runs.
var ErrNotComputed = errors.New("block: matrix block is not computed")

// ErrSingular is returned when a subdomain factorization fails.
var ErrSingular = errors.New("block: subdomain factorization is singular")

// SolverKind selects the factorization MatrixBlock uses for each
// subdomain's A11 restriction. All kinds currently factor through
// gonum/mat; see DESIGN.md for why no sparse-direct alternative from the
// example corpus was available to wire in instead.
type SolverKind int

const (
	// Dense factors the subdomain block as a dense matrix with
	// Cholesky, falling back to LU if the block is not symmetric
	// positive definite.
	Dense SolverKind = iota
	// Sparse factors the same subdomain block, kept in CSR storage
	// until the point of factorization.
	Sparse
)

// MatrixBlock is one of A11, A12, A21, A22, addressed by (rowRole,
// colRole): (Interior,Interior), (Interior,Separator),
// (Separator,Interior), (Separator,Separator).
type MatrixBlock struct {
	m                *hmap.Map
	rowRole, colRole Role
	rows, cols       []int // global IDs, block-local order
	mat              *sparse.CSR

	kind          SolverKind
	subdomainRows [][]int // global IDs per subdomain, Interior/Interior only
	solvers       []*subdomainSolver
}

// New builds an empty MatrixBlock over m's row/col GID sets for the
// given roles, in a deterministic subdomain-then-group order.
func New(m *hmap.Map, rowRole, colRole Role) *MatrixBlock {
	b := &MatrixBlock{m: m, rowRole: rowRole, colRole: colRole}
	b.rows = gidsForRole(m, rowRole)
	b.cols = gidsForRole(m, colRole)
	if rowRole == RoleInterior && colRole == RoleInterior {
		b.subdomainRows = make([][]int, m.Subdomains())
		for sd := 0; sd < m.Subdomains(); sd++ {
			b.subdomainRows[sd] = append([]int(nil), m.Interior(sd).Nodes...)
		}
	}
	return b
}

// gidsForRole concatenates, in subdomain order, every subdomain's
// interior or (deduplicated) separator node IDs.
func gidsForRole(m *hmap.Map, role Role) []int {
	var gids []int
	seen := make(map[int]bool)
	for sd := 0; sd < m.Subdomains(); sd++ {
		switch role {
		case RoleInterior:
			for _, gid := range m.Interior(sd).Nodes {
				if !seen[gid] {
					seen[gid] = true
					gids = append(gids, gid)
				}
			}
		case RoleSeparator:
			for _, sg := range m.Separators(sd) {
				for _, gid := range sg.Nodes {
					if !seen[gid] {
						seen[gid] = true
						gids = append(gids, gid)
					}
				}
			}
		}
	}
	return gids
}

// Visit calls f once for every stored entry of the computed matrix, in
// block-local (row, col) coordinates.
func (b *MatrixBlock) Visit(f func(i, j int, v float64)) {
	if b.mat == nil {
		return
	}
	b.mat.Visit(f)
}

// Rows returns the global row IDs, in block-local order.
func (b *MatrixBlock) Rows() []int { return b.rows }

// Cols returns the global column IDs, in block-local order.
func (b *MatrixBlock) Cols() []int { return b.cols }

// Compute extracts this block's rows and columns from the reordered
// global matrix Aov, whose row/column indices are the same global IDs
// the HierarchicalMap was built over.
func (b *MatrixBlock) Compute(Aov *sparse.CSR) error {
	b.mat = Aov.Select(b.rows, b.cols)
	return nil
}

// InitializeSubdomainSolvers allocates (but does not factor) one direct
// solver per subdomain. Valid only for the (Interior,Interior) block.
func (b *MatrixBlock) InitializeSubdomainSolvers(kind SolverKind) error {
	if b.rowRole != RoleInterior || b.colRole != RoleInterior {
		return fmt.Errorf("block: subdomain solvers only apply to the interior/interior block")
	}
	b.kind = kind
	b.solvers = make([]*subdomainSolver, len(b.subdomainRows))
	return nil
}

// ComputeSubdomainSolvers factors each subdomain's own interior
// restriction of Aov. InitializeSubdomainSolvers must have run first.
func (b *MatrixBlock) ComputeSubdomainSolvers(Aov *sparse.CSR) error {
	if b.solvers == nil {
		return fmt.Errorf("block: InitializeSubdomainSolvers was not called")
	}
	for sd, rows := range b.subdomainRows {
		sub := Aov.Select(rows, rows)
		s, err := factor(sub, b.kind)
		if err != nil {
			return fmt.Errorf("block: subdomain %d: %w", sd, err)
		}
		b.solvers[sd] = s
	}
	return nil
}

// ApplyInverseSubdomain solves subdomain sd's own A11 restriction against
// rhs (indexed by that subdomain's own interior node order, Subdomain
// Rows(sd)). It exposes the per-subdomain solver to callers, such as
// schur.Construct, that need per-subdomain multi-RHS solves rather than
// a single global ApplyInverse.
func (b *MatrixBlock) ApplyInverseSubdomain(sd int, rhs []float64) ([]float64, error) {
	if b.solvers == nil {
		return nil, fmt.Errorf("block: subdomain solvers not computed")
	}
	if sd < 0 || sd >= len(b.solvers) {
		return nil, fmt.Errorf("block: subdomain %d out of range", sd)
	}
	x, err := b.solvers[sd].solve(rhs)
	if err != nil {
		return nil, fmt.Errorf("block: subdomain %d: %w", sd, err)
	}
	return x, nil
}

// SubdomainRows returns the global interior row IDs of subdomain sd, in
// the order ApplyInverseSubdomain expects its rhs.
func (b *MatrixBlock) SubdomainRows(sd int) []int { return b.subdomainRows[sd] }

// Apply computes y = M*x, where x is indexed by Cols() and y by Rows().
func (b *MatrixBlock) Apply(x []float64) ([]float64, error) {
	if b.mat == nil {
		return nil, ErrNotComputed
	}
	y := make([]float64, len(b.rows))
	b.mat.MulVecTo(y, false, x)
	return y, nil
}

// ApplyTranspose computes y = M'*x, where x is indexed by Rows() and y
// by Cols(). Used when the border path requires A12' or A21'.
func (b *MatrixBlock) ApplyTranspose(x []float64) ([]float64, error) {
	if b.mat == nil {
		return nil, ErrNotComputed
	}
	y := make([]float64, len(b.cols))
	b.mat.MulVecTo(y, true, x)
	return y, nil
}

// ApplyInverse solves M*x = rhs subdomain-by-subdomain. Valid only for
// the (Interior,Interior) block, after ComputeSubdomainSolvers.
func (b *MatrixBlock) ApplyInverse(rhs []float64) ([]float64, error) {
	if b.solvers == nil {
		return nil, fmt.Errorf("block: subdomain solvers not computed")
	}
	if len(rhs) != len(b.rows) {
		return nil, fmt.Errorf("block: rhs length %d does not match block size %d", len(rhs), len(b.rows))
	}
	gidPos := make(map[int]int, len(b.rows))
	for i, gid := range b.rows {
		gidPos[gid] = i
	}
	x := make([]float64, len(b.rows))
	for sd, rows := range b.subdomainRows {
		local := make([]float64, len(rows))
		for k, gid := range rows {
			local[k] = rhs[gidPos[gid]]
		}
		sol, err := b.solvers[sd].solve(local)
		if err != nil {
			return nil, fmt.Errorf("block: subdomain %d: %w", sd, err)
		}
		for k, gid := range rows {
			x[gidPos[gid]] = sol[k]
		}
	}
	return x, nil
}

// subdomainSolver holds one subdomain's factorization of its A11
// restriction.
type subdomainSolver struct {
	n     int
	chol  *mat.Cholesky
	lu    *mat.LU
	useLU bool
}

func factor(sub *sparse.CSR, kind SolverKind) (*subdomainSolver, error) {
	n, cols := sub.Dims()
	if n != cols {
		return nil, fmt.Errorf("subdomain block is not square (%dx%d)", n, cols)
	}
	if n == 0 {
		return &subdomainSolver{n: 0}, nil
	}
	d := sub.Dense()
	sym := mat.NewSymDense(n, nil)
	symmetric := true
outer:
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			a, bb := d.At(i, j), d.At(j, i)
			if a != bb {
				symmetric = false
				break outer
			}
			sym.SetSym(i, j, a)
		}
	}

	s := &subdomainSolver{n: n}
	if symmetric {
		var chol mat.Cholesky
		if chol.Factorize(sym) {
			s.chol = &chol
			return s, nil
		}
	}
	var lu mat.LU
	lu.Factorize(d)
	s.lu = &lu
	s.useLU = true
	_ = kind // kind does not change the factorization: both kinds factor the dense copy of the block.
	return s, nil
}

func (s *subdomainSolver) solve(rhs []float64) ([]float64, error) {
	if s.n == 0 {
		return nil, nil
	}
	b := mat.NewVecDense(len(rhs), rhs)
	x := mat.NewVecDense(s.n, nil)
	var err error
	if s.useLU {
		err = s.lu.SolveVecTo(x, false, b)
	} else {
		err = s.chol.SolveVecTo(x, b)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingular, err)
	}
	return x.RawVector().Data, nil
}
