// Copyright ©2026 The HYMLS Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package comm provides the minimal distributed-map and communicator
// abstractions the core consumes. Actual MPI transport is an external
// collaborator (see spec.md §1); this package only defines the interface
// HYMLS needs and a single-rank implementation used throughout the test
// suite and by callers that do not need distributed execution.
package comm

// Communicator is the bulk-synchronous collective interface the core
// relies on. A real implementation would be backed by MPI; Serial
// implements it for single-rank use.
type Communicator interface {
	// Rank returns this process's rank, in [0, Size()).
	Rank() int

	// Size returns the total number of ranks.
	Size() int

	// AllReduceSum sums v element-wise across all ranks and returns the
	// result (identical on every rank).
	AllReduceSum(v []float64) []float64

	// AllReduceSumInt is the integer analogue of AllReduceSum.
	AllReduceSumInt(v []int) []int

	// Barrier blocks until every rank has called Barrier.
	Barrier()
}

// Serial is a Communicator with exactly one rank. It performs every
// collective as a local no-op and is used by all tests in this module.
type Serial struct{}

// Rank always returns 0 for Serial.
func (Serial) Rank() int { return 0 }

// Size always returns 1 for Serial.
func (Serial) Size() int { return 1 }

// AllReduceSum returns a copy of v unchanged: with one rank, the sum
// across ranks is just the local value.
func (Serial) AllReduceSum(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	return out
}

// AllReduceSumInt returns a copy of v unchanged.
func (Serial) AllReduceSumInt(v []int) []int {
	out := make([]int, len(v))
	copy(out, v)
	return out
}

// Barrier is a no-op for Serial.
func (Serial) Barrier() {}

// IndexMap associates a contiguous local ordering [0, Len()) with global
// degree-of-freedom IDs. It plays the role of an Epetra_Map: a
// non-overlapping IndexMap owns every GID it lists, while an overlapping
// IndexMap may list GIDs it does not own (Owned reports false for
// those), replicated on every subdomain that touches them.
type IndexMap struct {
	comm  Communicator
	gids  []int
	owned []bool
	lid   map[int]int
}

// NewIndexMap builds an IndexMap over the given global IDs, in the order
// given. owned may be nil, meaning every entry is owned (a non-overlapping
// map); otherwise it must have the same length as gids.
func NewIndexMap(c Communicator, gids []int, owned []bool) *IndexMap {
	if owned != nil && len(owned) != len(gids) {
		panic("comm: owned length does not match gids length")
	}
	lid := make(map[int]int, len(gids))
	for i, g := range gids {
		lid[g] = i
	}
	m := &IndexMap{comm: c, gids: append([]int(nil), gids...), lid: lid}
	if owned == nil {
		m.owned = make([]bool, len(gids))
		for i := range m.owned {
			m.owned[i] = true
		}
	} else {
		m.owned = append([]bool(nil), owned...)
	}
	return m
}

// Len returns the number of locally listed nodes (owned and not owned).
func (m *IndexMap) Len() int { return len(m.gids) }

// GID returns the global ID at local index i.
func (m *IndexMap) GID(i int) int { return m.gids[i] }

// LID returns the local index of global ID g and whether it is listed at
// all in this map.
func (m *IndexMap) LID(g int) (int, bool) {
	i, ok := m.lid[g]
	return i, ok
}

// Owned reports whether local index i is owned by this rank.
func (m *IndexMap) Owned(i int) bool { return m.owned[i] }

// NumGlobalOwned returns the total number of distinct owned nodes across
// all ranks, via a collective reduction.
func (m *IndexMap) NumGlobalOwned() int {
	local := 0
	for _, o := range m.owned {
		if o {
			local++
		}
	}
	sums := m.comm.AllReduceSumInt([]int{local})
	return sums[0]
}

// Comm returns the communicator this map was built with.
func (m *IndexMap) Comm() Communicator { return m.comm }

// GIDs returns the full, ordered slice of global IDs. Callers must not
// modify the returned slice.
func (m *IndexMap) GIDs() []int { return m.gids }

// Reconcile builds an explicit permutation taking the ordering of b into
// the ordering of a, when a and b list the same set of GIDs but possibly
// in different order. This realizes the recovery path in spec.md §7:
// "repairing maps that differ only in ordering by building an explicit
// Import". It returns an error if the GID sets differ.
func Reconcile(a, b *IndexMap) ([]int, error) {
	if a.Len() != b.Len() {
		return nil, errMismatch{a.Len(), b.Len()}
	}
	perm := make([]int, b.Len())
	for i, g := range b.gids {
		j, ok := a.LID(g)
		if !ok {
			return nil, errMismatch{a.Len(), b.Len()}
		}
		perm[i] = j
	}
	return perm, nil
}

type errMismatch struct{ na, nb int }

func (e errMismatch) Error() string {
	return "comm: maps cannot be reconciled (incompatible GID sets)"
}
