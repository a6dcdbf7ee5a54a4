// Copyright ©2026 The HYMLS Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hmap

import (
	"testing"

	"github.com/jthies/hymls/comm"
	"github.com/jthies/hymls/group"
	"github.com/jthies/hymls/partition"
)

func grid2D(nx, ny int) partition.Grid {
	return partition.Grid{Nx: nx, Ny: ny, Nz: 1, Dof: 1, Variables: []group.VariableType{group.Laplace}}
}

func buildMap(t *testing.T) *Map {
	t.Helper()
	g := grid2D(8, 8)
	c, err := partition.NewCartesian(g, 4, 4, 1, partition.Periodic{}, g.Size())
	if err != nil {
		t.Fatal(err)
	}
	m, err := FromPartitioner(comm.Serial{}, "fine", 0, c)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

// TestFillCompletePartitionCompleteness is testable property #1 at the
// map level: base map and grid size coincide, and the overlapping map
// covers at least the same set.
func TestFillCompletePartitionCompleteness(t *testing.T) {
	m := buildMap(t)
	base, err := m.BaseMap()
	if err != nil {
		t.Fatal(err)
	}
	g := grid2D(8, 8)
	if base.Len() != g.Size() {
		t.Fatalf("base map has %d entries, want %d", base.Len(), g.Size())
	}
	for i := 0; i < base.Len(); i++ {
		if !base.Owned(i) {
			t.Errorf("base map entry %d not owned", i)
		}
	}
	ov, err := m.OverlappingMap()
	if err != nil {
		t.Fatal(err)
	}
	if ov.Len() < base.Len() {
		t.Fatalf("overlapping map has fewer entries (%d) than base map (%d)", ov.Len(), base.Len())
	}
}

// TestSpawnIdempotent is testable property #3: calling Spawn twice with
// the same strategy returns the same cached map.
func TestSpawnIdempotent(t *testing.T) {
	m := buildMap(t)
	a, err := m.Spawn(Separators)
	if err != nil {
		t.Fatal(err)
	}
	b, err := m.Spawn(Separators)
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Fatal("Spawn(Separators) did not return the cached map on the second call")
	}
}

func TestSpawnMapIdempotent(t *testing.T) {
	m := buildMap(t)
	a, err := m.SpawnMap(0, Separators)
	if err != nil {
		t.Fatal(err)
	}
	b, err := m.SpawnMap(0, Separators)
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Fatal("SpawnMap(0, Separators) did not return the cached map on the second call")
	}
}

func TestSpawnOneRepresentativePerFamily(t *testing.T) {
	m := buildMap(t)
	sep, err := m.Spawn(Separators)
	if err != nil {
		t.Fatal(err)
	}
	if sep.Len() != len(m.families) {
		t.Fatalf("spawned %d representatives, want one per family (%d)", sep.Len(), len(m.families))
	}
}

func TestAddAfterFillCompleteFails(t *testing.T) {
	m := buildMap(t)
	if err := m.AddInterior(0, group.InteriorGroup{}); err != ErrAlreadyFilled {
		t.Fatalf("AddInterior after FillComplete: got %v, want ErrAlreadyFilled", err)
	}
	if err := m.FillComplete(); err != ErrAlreadyFilled {
		t.Fatalf("second FillComplete: got %v, want ErrAlreadyFilled", err)
	}
}

func TestDisconnectedPartitionRejected(t *testing.T) {
	m := New(comm.Serial{}, 2, "islands", 0)
	if err := m.AddInterior(0, group.InteriorGroup{Nodes: []int{0, 1}}); err != nil {
		t.Fatal(err)
	}
	if err := m.AddInterior(1, group.InteriorGroup{Nodes: []int{2, 3}}); err != nil {
		t.Fatal(err)
	}
	// No separator groups at all: two subdomains with no shared face.
	if err := m.FillComplete(); err == nil {
		t.Fatal("expected ErrDisconnected for two subdomains sharing no separator")
	}
}
