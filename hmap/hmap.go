// Copyright ©2026 The HYMLS Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package hmap assembles the interior and separator groups a Partitioner
// produces into a HierarchicalMap: a non-overlapping base map, an
// overlapping map, and the bookkeeping needed to walk from one
// hierarchical level to the next (Spawn).
package hmap

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/jthies/hymls/comm"
	"github.com/jthies/hymls/group"
)

// ErrNotFilled is returned by operations that require FillComplete to
// have run first.
var ErrNotFilled = errors.New("hmap: map is not filled")

// ErrAlreadyFilled is returned by AddInterior/AddSeparator once
// FillComplete has already run.
var ErrAlreadyFilled = errors.New("hmap: map is already filled")

// ErrDisconnected is returned by FillComplete if the subdomain adjacency
// graph implied by the separator groups is not connected: a domain split
// into islands would make the coarsest-level direct solve ill-posed.
var ErrDisconnected = errors.New("hmap: subdomain partition is disconnected")

// SpawnStrategy selects which representative nodes Spawn and SpawnMap
// carry forward to the next hierarchical level.
type SpawnStrategy int

const (
	// Interior spawns one representative GID per interior group.
	Interior SpawnStrategy = iota
	// Separators spawns one representative GID per linked separator
	// family (its owning group's first node, the post-transform V-sum),
	// regardless of how many subdomains the family touches.
	Separators
	// LocalSeparators is like Separators, but only families whose link
	// key touches exactly one subdomain.
	LocalSeparators
)

func (s SpawnStrategy) String() string {
	switch s {
	case Interior:
		return "Interior"
	case Separators:
		return "Separators"
	case LocalSeparators:
		return "LocalSeparators"
	default:
		return "Unknown"
	}
}

type groupRef struct {
	sd, idx int
}

// familyKey identifies one family: groups sharing a LinkKey lie on the
// same geometric separator, and pairing the key with the variable type
// keeps the groups of different variables on that separator (e.g. its
// pressure and velocity nodes) in separate families.
type familyKey struct {
	link     group.LinkKey
	variable group.VariableType
}

// family is a set of separator groups across subdomains that share a
// familyKey, i.e. lie on the same geometric separator and carry the same
// variable type.
type family struct {
	key   familyKey
	refs  []groupRef
	owner int // lowest-index touching subdomain
}

// Map is a HierarchicalMap: the result of classifying every subdomain's
// nodes into one InteriorGroup and a set of SeparatorGroups, then
// resolving separator ownership and building the corresponding
// comm.IndexMaps.
type Map struct {
	c     comm.Communicator
	level int
	label string

	numSubdomains int
	interior      []group.InteriorGroup
	separators    [][]group.SeparatorGroup

	filled         bool
	baseMap        *comm.IndexMap
	overlappingMap *comm.IndexMap
	families       map[familyKey]*family

	spawnCache    map[SpawnStrategy]*comm.IndexMap
	spawnMapCache map[spawnMapKey]*comm.IndexMap
}

type spawnMapKey struct {
	sd       int
	strategy SpawnStrategy
}

// New creates an empty Map for numSubdomains local subdomains, labeled
// for diagnostics and tagged with its level in the hierarchy (0 is the
// finest).
func New(c comm.Communicator, numSubdomains int, label string, level int) *Map {
	return &Map{
		c:             c,
		level:         level,
		label:         label,
		numSubdomains: numSubdomains,
		interior:      make([]group.InteriorGroup, numSubdomains),
		separators:    make([][]group.SeparatorGroup, numSubdomains),
	}
}

// Level returns the hierarchical level this map belongs to.
func (m *Map) Level() int { return m.level }

// Label returns the diagnostic label passed to New.
func (m *Map) Label() string { return m.label }

// Subdomains returns the number of local subdomains.
func (m *Map) Subdomains() int { return m.numSubdomains }

// AddInterior sets the interior group of subdomain sd. It returns
// ErrAlreadyFilled once FillComplete has run.
func (m *Map) AddInterior(sd int, g group.InteriorGroup) error {
	if m.filled {
		return ErrAlreadyFilled
	}
	if sd < 0 || sd >= m.numSubdomains {
		return fmt.Errorf("hmap: subdomain %d out of range", sd)
	}
	m.interior[sd] = g
	return nil
}

// AddSeparator appends a separator group to subdomain sd. It returns
// ErrAlreadyFilled once FillComplete has run.
func (m *Map) AddSeparator(sd int, g group.SeparatorGroup) error {
	if m.filled {
		return ErrAlreadyFilled
	}
	if sd < 0 || sd >= m.numSubdomains {
		return fmt.Errorf("hmap: subdomain %d out of range", sd)
	}
	m.separators[sd] = append(m.separators[sd], g)
	return nil
}

// FromPartitioner fills m by querying p for every subdomain's groups. It
// is a convenience wrapper around AddInterior/AddSeparator/FillComplete.
func FromPartitioner(c comm.Communicator, label string, level int, p interface {
	Subdomains() int
	Groups(sd int) (group.InteriorGroup, []group.SeparatorGroup, error)
}) (*Map, error) {
	m := New(c, p.Subdomains(), label, level)
	for sd := 0; sd < p.Subdomains(); sd++ {
		ig, seps, err := p.Groups(sd)
		if err != nil {
			return nil, err
		}
		if err := m.AddInterior(sd, ig); err != nil {
			return nil, err
		}
		for _, sg := range seps {
			if err := m.AddSeparator(sd, sg); err != nil {
				return nil, err
			}
		}
	}
	if err := m.FillComplete(); err != nil {
		return nil, err
	}
	return m, nil
}

// FillComplete links separator groups sharing a LinkKey and variable
// type into families,
// assigns each family an owning subdomain (the lowest-index toucher),
// checks that the resulting subdomain adjacency graph is connected, and
// builds the base (non-overlapping) and overlapping IndexMaps.
func (m *Map) FillComplete() error {
	if m.filled {
		return ErrAlreadyFilled
	}

	m.families = make(map[familyKey]*family)
	for sd, groups := range m.separators {
		for idx, sg := range groups {
			key := familyKey{sg.Link, sg.Variable}
			f := m.families[key]
			if f == nil {
				f = &family{key: key, owner: sd}
				m.families[key] = f
			}
			f.refs = append(f.refs, groupRef{sd, idx})
			if sd < f.owner {
				f.owner = sd
			}
		}
	}

	if err := m.checkConnected(); err != nil {
		return err
	}

	var baseGIDs []int
	for sd := 0; sd < m.numSubdomains; sd++ {
		baseGIDs = append(baseGIDs, m.interior[sd].Nodes...)
	}
	for sd := 0; sd < m.numSubdomains; sd++ {
		for _, sg := range m.separators[sd] {
			// A subdomain may own several groups under the same key
			// (e.g. one per variable type sharing a touching-subdomain
			// set); each is a distinct set of nodes and is owned once,
			// by construction, since only sd's own slice is scanned.
			if m.families[familyKey{sg.Link, sg.Variable}].owner == sd {
				baseGIDs = append(baseGIDs, sg.Nodes...)
			}
		}
	}
	m.baseMap = comm.NewIndexMap(m.c, baseGIDs, nil)

	var ovGIDs []int
	var ovOwned []bool
	seen := make(map[int]bool, len(baseGIDs))
	for sd := 0; sd < m.numSubdomains; sd++ {
		for _, gid := range m.interior[sd].Nodes {
			if seen[gid] {
				continue
			}
			seen[gid] = true
			ovGIDs = append(ovGIDs, gid)
			ovOwned = append(ovOwned, true)
		}
		for _, sg := range m.separators[sd] {
			owner := m.families[familyKey{sg.Link, sg.Variable}].owner
			for _, gid := range sg.Nodes {
				if seen[gid] {
					continue
				}
				seen[gid] = true
				ovGIDs = append(ovGIDs, gid)
				ovOwned = append(ovOwned, owner == sd)
			}
		}
	}
	m.overlappingMap = comm.NewIndexMap(m.c, ovGIDs, ovOwned)

	m.filled = true
	m.spawnCache = make(map[SpawnStrategy]*comm.IndexMap)
	m.spawnMapCache = make(map[spawnMapKey]*comm.IndexMap)
	return nil
}

// checkConnected builds the subdomain adjacency graph (an edge between
// two subdomains whenever a separator family's link key touches both)
// and verifies it has a single connected component. A disconnected
// partition would make the recursive coarse solve at the top of the
// hierarchy ill-posed.
func (m *Map) checkConnected() error {
	if m.numSubdomains <= 1 {
		return nil
	}
	g := simple.NewUndirectedGraph()
	for sd := 0; sd < m.numSubdomains; sd++ {
		g.AddNode(simple.Node(int64(sd)))
	}
	for _, f := range m.families {
		touching := make(map[int]bool)
		for _, r := range f.refs {
			touching[r.sd] = true
		}
		sds := make([]int, 0, len(touching))
		for sd := range touching {
			sds = append(sds, sd)
		}
		for i := 0; i < len(sds); i++ {
			for j := i + 1; j < len(sds); j++ {
				a, b := simple.Node(int64(sds[i])), simple.Node(int64(sds[j]))
				if !g.HasEdgeBetween(a, b) {
					g.SetEdge(simple.Edge{F: a, T: b})
				}
			}
		}
	}
	cc := topo.ConnectedComponents(g)
	if len(cc) > 1 {
		return fmt.Errorf("%w: %d components over %d subdomains", ErrDisconnected, len(cc), m.numSubdomains)
	}
	return nil
}

// BaseMap returns the non-overlapping map: every grid node listed
// exactly once, owned by the map's own rank.
func (m *Map) BaseMap() (*comm.IndexMap, error) {
	if !m.filled {
		return nil, ErrNotFilled
	}
	return m.baseMap, nil
}

// OverlappingMap returns the overlapping map: every grid node listed at
// least once, with Owned true only at its owning subdomain's entry.
func (m *Map) OverlappingMap() (*comm.IndexMap, error) {
	if !m.filled {
		return nil, ErrNotFilled
	}
	return m.overlappingMap, nil
}

// Interior returns subdomain sd's interior group.
func (m *Map) Interior(sd int) group.InteriorGroup { return m.interior[sd] }

// Separators returns subdomain sd's separator groups, including ones it
// does not own: this is the overlapping, per-subdomain view used by
// block and schur to assemble local submatrices.
func (m *Map) Separators(sd int) []group.SeparatorGroup { return m.separators[sd] }

// Owner returns the subdomain that owns the separator family identified
// by the (link, variable) pair.
func (m *Map) Owner(link group.LinkKey, variable group.VariableType) (int, bool) {
	f, ok := m.families[familyKey{link, variable}]
	if !ok {
		return 0, false
	}
	return f.owner, true
}

// Spawn returns the flat map of representative GIDs selected by strategy
// across every local subdomain, for use as the next hierarchical level's
// starting row distribution. Results are cached: calling Spawn twice
// with the same strategy returns the same map without recomputation.
func (m *Map) Spawn(strategy SpawnStrategy) (*comm.IndexMap, error) {
	if !m.filled {
		return nil, ErrNotFilled
	}
	if cached, ok := m.spawnCache[strategy]; ok {
		return cached, nil
	}
	var gids []int
	switch strategy {
	case Interior:
		for sd := 0; sd < m.numSubdomains; sd++ {
			if m.interior[sd].Len() > 0 {
				gids = append(gids, m.interior[sd].Nodes[0])
			}
		}
	case Separators:
		gids = m.representativeSeparatorGIDs(false)
	case LocalSeparators:
		gids = m.representativeSeparatorGIDs(true)
	default:
		return nil, fmt.Errorf("hmap: unknown spawn strategy %v", strategy)
	}
	mp := comm.NewIndexMap(m.c, gids, nil)
	m.spawnCache[strategy] = mp
	return mp, nil
}

// SpawnMap is the per-subdomain analogue of Spawn: the representative
// GIDs contributed by subdomain sd alone. Results are cached per
// (sd, strategy) pair.
func (m *Map) SpawnMap(sd int, strategy SpawnStrategy) (*comm.IndexMap, error) {
	if !m.filled {
		return nil, ErrNotFilled
	}
	if sd < 0 || sd >= m.numSubdomains {
		return nil, fmt.Errorf("hmap: subdomain %d out of range", sd)
	}
	key := spawnMapKey{sd, strategy}
	if cached, ok := m.spawnMapCache[key]; ok {
		return cached, nil
	}
	var gids []int
	switch strategy {
	case Interior:
		if m.interior[sd].Len() > 0 {
			gids = []int{m.interior[sd].Nodes[0]}
		}
	case Separators, LocalSeparators:
		localOnly := strategy == LocalSeparators
		seen := make(map[familyKey]bool)
		for _, sg := range m.separators[sd] {
			key := familyKey{sg.Link, sg.Variable}
			if seen[key] {
				continue
			}
			f := m.families[key]
			if f.owner != sd {
				continue
			}
			if localOnly && len(touchingSubdomains(f)) > 1 {
				continue
			}
			seen[key] = true
			owned := ownerGroupNodes(m, f)
			if len(owned) > 0 {
				gids = append(gids, owned[0])
			}
		}
	default:
		return nil, fmt.Errorf("hmap: unknown spawn strategy %v", strategy)
	}
	mp := comm.NewIndexMap(m.c, gids, nil)
	m.spawnMapCache[key] = mp
	return mp, nil
}

func (m *Map) representativeSeparatorGIDs(localOnly bool) []int {
	var gids []int
	for sd := 0; sd < m.numSubdomains; sd++ {
		seen := make(map[familyKey]bool)
		for _, sg := range m.separators[sd] {
			key := familyKey{sg.Link, sg.Variable}
			if seen[key] {
				continue
			}
			f := m.families[key]
			if f.owner != sd {
				continue
			}
			seen[key] = true
			if localOnly && len(touchingSubdomains(f)) > 1 {
				continue
			}
			owned := ownerGroupNodes(m, f)
			if len(owned) > 0 {
				gids = append(gids, owned[0])
			}
		}
	}
	return gids
}

func touchingSubdomains(f *family) map[int]bool {
	t := make(map[int]bool)
	for _, r := range f.refs {
		t[r.sd] = true
	}
	return t
}

// ownerGroupNodes returns the node list of the owner's own group for
// family f (the first group, in subdomain order, belonging to the
// owner).
func ownerGroupNodes(m *Map, f *family) []int {
	for _, r := range f.refs {
		if r.sd == f.owner {
			return m.separators[r.sd][r.idx].Nodes
		}
	}
	return nil
}
