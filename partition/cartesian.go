// Copyright ©2026 The HYMLS Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package partition

import (
	"fmt"

	"github.com/jthies/hymls/group"
)

// Cartesian partitions an nx×ny×nz grid into equal boxes of size
// sx×sy×sz. Periodicity wraps neighbor lookup with modular arithmetic.
// Separators are classified by their face/edge/corner code and by
// variable type, giving 26-connectivity in 3D and 8-connectivity in 2D
// (nz==sz==1).
type Cartesian struct {
	grid              Grid
	sx, sy, sz        int
	periodic          Periodic
	nxb, nyb, nzb     int
}

// NewCartesian builds a Cartesian partitioner for g, using subdomains of
// size sx×sy×sz. mapSize is the size of the global row map the grid must
// match; it returns ErrInvalidGrid if it does not, or if a subdomain size
// does not divide the corresponding grid dimension.
func NewCartesian(g Grid, sx, sy, sz int, p Periodic, mapSize int) (*Cartesian, error) {
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
	nzb, err := boxCounts(g.Nz, sz)
	if err != nil {
		return nil, err
	}
	return &Cartesian{
		grid: g, sx: sx, sy: sy, sz: sz, periodic: p,
		nxb: nxb, nyb: nyb, nzb: nzb,
	}, nil
}

// Subdomains returns nxb*nyb*nzb.
func (c *Cartesian) Subdomains() int { return c.nxb * c.nyb * c.nzb }

// boxOf returns the box coordinates of subdomain sd.
func (c *Cartesian) boxOf(sd int) (ib, jb, kb int) {
	ib = sd % c.nxb
	jb = (sd / c.nxb) % c.nyb
	kb = sd / (c.nxb * c.nyb)
	return
}

// sdOf is the inverse of boxOf.
func (c *Cartesian) sdOf(ib, jb, kb int) int {
	return (kb*c.nyb+jb)*c.nxb + ib
}

type sepKey struct {
	cx, cy, cz int
	v          int
}

// Groups implements Partitioner.
func (c *Cartesian) Groups(sd int) (group.InteriorGroup, []group.SeparatorGroup, error) {
	if sd < 0 || sd >= c.Subdomains() {
		return group.InteriorGroup{}, nil, fmt.Errorf("%w: subdomain %d out of range", ErrInvalidGrid, sd)
	}
	ib, jb, kb := c.boxOf(sd)

	var interior group.InteriorGroup
	sepNodes := make(map[sepKey][]int)
	// Preserve first-seen order of separator keys for deterministic output.
	var order []sepKey

	for dk := 0; dk < c.sz; dk++ {
		cz := axisCode(dk, c.sz, kb, c.nzb, c.periodic.Z)
		k := kb*c.sz + dk
		for dj := 0; dj < c.sy; dj++ {
			cy := axisCode(dj, c.sy, jb, c.nyb, c.periodic.Y)
			j := jb*c.sy + dj
			for di := 0; di < c.sx; di++ {
				cx := axisCode(di, c.sx, ib, c.nxb, c.periodic.X)
				i := ib*c.sx + di
				for v := 0; v < c.grid.Dof; v++ {
					gid := c.grid.GID(i, j, k, v)
					if cx == 0 && cy == 0 && cz == 0 {
						interior.Nodes = append(interior.Nodes, gid)
						continue
					}
					key := sepKey{cx, cy, cz, v}
					if _, ok := sepNodes[key]; !ok {
						order = append(order, key)
					}
					sepNodes[key] = append(sepNodes[key], gid)
				}
			}
		}
	}

	groups := make([]group.SeparatorGroup, 0, len(order))
	for _, key := range order {
		xs := axisNeighbors(ib, c.nxb, key.cx, c.periodic.X)
		ys := axisNeighbors(jb, c.nyb, key.cy, c.periodic.Y)
		zs := axisNeighbors(kb, c.nzb, key.cz, c.periodic.Z)
		var touching []int
		for _, x := range xs {
			for _, y := range ys {
				for _, z := range zs {
					touching = append(touching, c.sdOf(x, y, z))
				}
			}
		}
		groups = append(groups, group.SeparatorGroup{
			Nodes:    sepNodes[key],
			Variable: c.grid.variable(key.v),
			Link:     group.NewLinkKey(touching...),
		})
	}

	return interior, groups, nil
}
