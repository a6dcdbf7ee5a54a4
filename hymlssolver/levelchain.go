// Copyright ©2026 The HYMLS Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hymlssolver

import (
	"github.com/jthies/hymls/comm"
	"github.com/jthies/hymls/group"
	"github.com/jthies/hymls/hmap"
	"github.com/jthies/hymls/precond"
	"github.com/jthies/hymls/sparse"
)

// trivialPartitioner puts every node of a coarser level's V-sum
// subsystem into one subdomain with no interior and a single separator
// group spanning the whole system. A coarsened level's unknowns are
// already representative V-sum variables carrying no further geometric
// structure of their own, so there is nothing left to decompose: the
// genuine multilevel case is one real (geometric) partitioner at level
// 0 feeding a chain of these beneath it, consistent with precond's
// NextLevelFunc leaving the coarsening geometry to the caller.
type trivialPartitioner struct{ n int }

func (p trivialPartitioner) Subdomains() int { return 1 }

func (p trivialPartitioner) Groups(sd int) (group.InteriorGroup, []group.SeparatorGroup, error) {
	nodes := make([]int, p.n)
	for i := range nodes {
		nodes[i] = i
	}
	sep := group.SeparatorGroup{Nodes: nodes, Variable: group.Laplace, Link: group.NewLinkKey(0)}
	return group.InteriorGroup{}, []group.SeparatorGroup{sep}, nil
}

// NewLevelChain builds and computes the level-0 Operator over m0/Aov0,
// wiring a NextLevelFunc that builds each coarser level on demand, sized
// to whatever V-sum subsystem actually survives dropping at the level
// above, down to cfg.NumberOfLevels. Finer control over intermediate
// levels' geometry (e.g. a caller that knows the V-sum nodes still form
// a coarser grid) is available by calling precond.NewLevel directly with
// a hand-built NextLevelFunc instead.
func NewLevelChain(c comm.Communicator, cfg precond.Config, m0 *hmap.Map, Aov0 *sparse.CSR, testVec0 []float64) (*precond.Level, error) {
	lv0 := precond.NewLevel(c, 0, m0, cfg)
	next := nextLevelFunc(c, cfg, 1)
	if err := lv0.Compute(Aov0, testVec0, next); err != nil {
		return nil, err
	}
	return lv0, nil
}

func nextLevelFunc(c comm.Communicator, cfg precond.Config, level int) precond.NextLevelFunc {
	if level >= cfg.NumberOfLevels {
		return nil
	}
	return func(lvl int, Aov *sparse.CSR, testVec []float64) (*precond.Level, error) {
		n, _ := Aov.Dims()
		m, err := hmap.FromPartitioner(c, "coarse", lvl, trivialPartitioner{n: n})
		if err != nil {
			return nil, err
		}
		lv := precond.NewLevel(c, lvl, m, cfg)
		if err := lv.Compute(Aov, testVec, nextLevelFunc(c, cfg, lvl+1)); err != nil {
			return nil, err
		}
		return lv, nil
	}
}
