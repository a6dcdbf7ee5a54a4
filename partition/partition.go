// Copyright ©2026 The HYMLS Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package partition maps a Cartesian (or skew-Cartesian) degree-of-freedom
// grid onto non-overlapping subdomains and, per subdomain, classifies its
// nodes into one interior group and a set of separator groups.
package partition

import (
	"errors"
	"fmt"

	"github.com/jthies/hymls/group"
)

// ErrInvalidGrid is returned when the grid dimensions are incompatible
// with the global map size, or a subdomain size does not divide the
// corresponding grid dimension.
var ErrInvalidGrid = errors.New("partition: invalid grid/subdomain configuration")

// Periodic selects which axes of the grid wrap around.
type Periodic struct {
	X, Y, Z bool
}

// Grid describes a Cartesian degree-of-freedom space of nx*ny*nz cells,
// each carrying Dof degrees of freedom tagged by Variables.
type Grid struct {
	Nx, Ny, Nz int
	Dof        int
	Variables  []group.VariableType // length Dof
}

// Size returns the total number of degrees of freedom in the grid.
func (g Grid) Size() int { return g.Nx * g.Ny * g.Nz * g.Dof }

// GID returns the global ID of the degree of freedom at cell (i,j,k),
// variable v.
func (g Grid) GID(i, j, k, v int) int {
	return ((k*g.Ny+j)*g.Nx+i)*g.Dof + v
}

func (g Grid) variable(v int) group.VariableType {
	if v < len(g.Variables) {
		return g.Variables[v]
	}
	return group.Laplace
}

// mod returns x modulo y with a result in [0, |y|), matching the usual
// mathematical sign convention (spec.md §9's replacement for the C `MOD`
// macro).
func mod(x, y int) int {
	m := x % y
	if m < 0 {
		m += y
	}
	return m
}

// Partitioner maps a grid to a fixed number of subdomains and, for each
// subdomain, produces one InteriorGroup and the SeparatorGroups on its
// boundary.
type Partitioner interface {
	// Subdomains returns the number of local subdomains.
	Subdomains() int

	// Groups returns the interior group and separator groups of
	// subdomain sd, where 0 <= sd < Subdomains().
	Groups(sd int) (group.InteriorGroup, []group.SeparatorGroup, error)
}

// boxCounts computes the number of subdomains along each axis and
// validates that the subdomain size divides the grid size.
func boxCounts(n, s int) (int, error) {
	if s <= 0 || n <= 0 || n%s != 0 {
		return 0, fmt.Errorf("%w: grid extent %d not divisible by subdomain size %d", ErrInvalidGrid, n, s)
	}
	return n / s, nil
}

// axisNeighbors returns the set of box indices along one axis that share
// a node classified with the given code (-1, 0, or +1) at box index ib
// out of nb boxes, wrapping if periodic.
func axisNeighbors(ib, nb, code int, periodic bool) []int {
	if code == 0 {
		return []int{ib}
	}
	nib := ib + code
	if periodic {
		nib = mod(nib, nb)
	}
	return []int{ib, nib}
}

// axisCode classifies a local offset d in [0, s) along an axis with nb
// boxes at box index ib: -1 if it is shared with the lower neighbor, +1
// if shared with the upper neighbor (preferred when s==1 makes both
// apply, a degenerate single-layer subdomain), 0 if strictly interior
// along this axis.
func axisCode(d, s, ib, nb int, periodic bool) int {
	hasLow := nb > 1 && (ib > 0 || periodic)
	hasHigh := nb > 1 && (ib < nb-1 || periodic)
	atLow := d == 0
	atHigh := d == s-1
	if atHigh && hasHigh {
		return 1
	}
	if atLow && hasLow {
		return -1
	}
	return 0
}
