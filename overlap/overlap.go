// Copyright ©2026 The HYMLS Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package overlap composes a partition.Partitioner with a hmap.Map and
// exposes the one operation the next coarser level needs: spawning its
// own coarsened index map.
package overlap

import (
	"fmt"

	"github.com/jthies/hymls/comm"
	"github.com/jthies/hymls/group"
	"github.com/jthies/hymls/hmap"
	"github.com/jthies/hymls/partition"
)

// Partitioner is the subset of partition.Partitioner that
// hmap.FromPartitioner requires; kept local so this package does not
// force callers to depend on the concrete partition types.
type Partitioner interface {
	Subdomains() int
	Groups(sd int) (group.InteriorGroup, []group.SeparatorGroup, error)
}

// OverlappingPartitioner ties together a Partitioner and the
// HierarchicalMap built over it, giving callers a single handle that
// carries both the grouping (what a subdomain owns) and the overlap
// (which nodes a subdomain also needs a local copy of).
type OverlappingPartitioner struct {
	p partition.Partitioner
	m *hmap.Map
}

// New partitions c's domain with p and builds the resulting
// HierarchicalMap, ready for Map/SpawnNextLevel once FillComplete has
// been driven to completion internally.
func New(c comm.Communicator, label string, level int, p partition.Partitioner) (*OverlappingPartitioner, error) {
	m, err := hmap.FromPartitioner(c, label, level, p)
	if err != nil {
		return nil, fmt.Errorf("overlap: %w", err)
	}
	return &OverlappingPartitioner{p: p, m: m}, nil
}

// Map returns the underlying HierarchicalMap.
func (o *OverlappingPartitioner) Map() *hmap.Map { return o.m }

// Subdomains returns the number of subdomains the wrapped partitioner
// produces.
func (o *OverlappingPartitioner) Subdomains() int { return o.p.Subdomains() }

// SpawnNextLevel produces the coarsened index map the next hierarchical
// level is built over, one representative GID per separator family
// picked according to strategy. It delegates directly to the map's own
// cached Spawn, so repeated calls with the same strategy are cheap and
// idempotent (testable property #3).
func (o *OverlappingPartitioner) SpawnNextLevel(strategy hmap.SpawnStrategy) (*comm.IndexMap, error) {
	next, err := o.m.Spawn(strategy)
	if err != nil {
		return nil, fmt.Errorf("overlap: spawn next level: %w", err)
	}
	return next, nil
}
