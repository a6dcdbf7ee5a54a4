// Copyright ©2026 The HYMLS Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package partition

import (
	"fmt"

	"github.com/jthies/hymls/group"
)

// SkewCartesian partitions a 2D nx×ny grid (nz==1) into subdomains that
// are diamonds rotated 45° with respect to the underlying grid, the
// layout needed to decompose a C-grid/B-grid discretization without
// cutting a velocity stencil in two. Each subdomain is still addressed
// by an axis-aligned box of size sx×sy as in Cartesian, but its
// "template" reclassifies axis-aligned face nodes (single nonzero code)
// as interior to the rotated cell, and only the diagonal corner nodes
// (two nonzero codes) become separators — the rotated cell's faces are
// the original box's corners. This realizes the "rotated cell" template
// described in the original HYMLS implementation for the 2D case; true
// 3D skew template support is not required by any scenario in spec.md
// §8 and is not implemented (Nz must be 1).
type SkewCartesian struct {
	grid          Grid
	sx, sy        int
	periodic      Periodic
	nxb, nyb      int
}

// NewSkewCartesian builds a SkewCartesian partitioner for a 2D grid g
// (g.Nz must be 1), with subdomains of size sx×sy.
func NewSkewCartesian(g Grid, sx, sy int, p Periodic, mapSize int) (*SkewCartesian, error) {
	if g.Nz != 1 {
		return nil, fmt.Errorf("%w: SkewCartesian only supports 2D grids (Nz==1)", ErrInvalidGrid)
	}
	if g.Size() != mapSize {
		return nil, fmt.Errorf("%w: grid size %d != map size %d", ErrInvalidGrid, g.Size(), mapSize)
	}
	nxb, err := boxCounts(g.Nx, sx)
	if err != nil {
		return nil, err
	}
	nyb, err := boxCounts(g.Ny, sy)
	if err != nil {
		return nil, err
	}
	return &SkewCartesian{grid: g, sx: sx, sy: sy, periodic: p, nxb: nxb, nyb: nyb}, nil
}

// Subdomains returns nxb*nyb.
func (s *SkewCartesian) Subdomains() int { return s.nxb * s.nyb }

func (s *SkewCartesian) boxOf(sd int) (ib, jb int) { return sd % s.nxb, sd / s.nxb }
func (s *SkewCartesian) sdOf(ib, jb int) int       { return jb*s.nxb + ib }

// Groups implements Partitioner. Only diagonal-corner nodes (where both
// the x and y axis codes are nonzero) are split into separator groups;
// pure-face nodes (exactly one nonzero axis code) are folded into the
// rotated cell's interior, matching the "faces of a rotated cell are the
// box's corners" template described on SkewCartesian.
func (s *SkewCartesian) Groups(sd int) (group.InteriorGroup, []group.SeparatorGroup, error) {
	if sd < 0 || sd >= s.Subdomains() {
		return group.InteriorGroup{}, nil, fmt.Errorf("%w: subdomain %d out of range", ErrInvalidGrid, sd)
	}
	ib, jb := s.boxOf(sd)

	var interior group.InteriorGroup
	sepNodes := make(map[sepKey][]int)
	var order []sepKey

	for dj := 0; dj < s.sy; dj++ {
		cy := axisCode(dj, s.sy, jb, s.nyb, s.periodic.Y)
		j := jb*s.sy + dj
		for di := 0; di < s.sx; di++ {
			cx := axisCode(di, s.sx, ib, s.nxb, s.periodic.X)
			i := ib*s.sx + di
			for v := 0; v < s.grid.Dof; v++ {
				gid := s.grid.GID(i, j, 0, v)
				if cx == 0 || cy == 0 {
					// Pure interior, or a pure face: both fold into the
					// rotated cell's interior.
					interior.Nodes = append(interior.Nodes, gid)
					continue
				}
				key := sepKey{cx, cy, 0, v}
				if _, ok := sepNodes[key]; !ok {
					order = append(order, key)
				}
				sepNodes[key] = append(sepNodes[key], gid)
			}
		}
	}

	groups := make([]group.SeparatorGroup, 0, len(order))
	for _, key := range order {
		xs := axisNeighbors(ib, s.nxb, key.cx, s.periodic.X)
		ys := axisNeighbors(jb, s.nyb, key.cy, s.periodic.Y)
		var touching []int
		for _, x := range xs {
			for _, y := range ys {
				touching = append(touching, s.sdOf(x, y))
			}
		}
		groups = append(groups, group.SeparatorGroup{
			Nodes:    sepNodes[key],
			Variable: s.grid.variable(key.v),
			Link:     group.NewLinkKey(touching...),
		})
	}

	return interior, groups, nil
}
