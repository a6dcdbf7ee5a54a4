// Copyright ©2026 The HYMLS Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package group

import (
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNewLinkKeyOrderIndependent(t *testing.T) {
	a := NewLinkKey(3, 1, 2)
	b := NewLinkKey(1, 2, 3)
	c := NewLinkKey(2, 3, 1)
	if a != b || b != c {
		t.Fatalf("NewLinkKey should be order-independent: %q %q %q", a, b, c)
	}
}

func TestNewLinkKeyDedups(t *testing.T) {
	a := NewLinkKey(1, 1, 2)
	b := NewLinkKey(1, 2)
	if a != b {
		t.Fatalf("NewLinkKey should dedup subdomain indices: %q != %q", a, b)
	}
}

func TestNewLinkKeyDistinct(t *testing.T) {
	a := NewLinkKey(1, 2)
	b := NewLinkKey(1, 3)
	if a == b {
		t.Fatalf("distinct subdomain sets must produce distinct keys, got %q", a)
	}
}

// partitionByLink groups separator groups by LinkKey alone
// (hmap.Map.FillComplete additionally splits by variable type), returning the
// node IDs touched by each family in sorted order so the result does
// not depend on input order or per-group node ordering.
func partitionByLink(groups []SeparatorGroup) map[LinkKey][]int {
	out := make(map[LinkKey][]int)
	for _, g := range groups {
		out[g.Link] = append(out[g.Link], g.Nodes...)
	}
	for _, nodes := range out {
		sort.Ints(nodes)
	}
	return out
}

// TestPartitionByLinkOrderIndependent is a structural-equality check: the
// LinkKey partition of a set of separator groups must not depend on the
// order the groups are supplied in.
func TestPartitionByLinkOrderIndependent(t *testing.T) {
	a := []SeparatorGroup{
		{Nodes: []int{1, 2}, Variable: Laplace, Link: NewLinkKey(0, 1)},
		{Nodes: []int{5}, Variable: Pressure, Link: NewLinkKey(1, 2)},
		{Nodes: []int{3, 4}, Variable: Laplace, Link: NewLinkKey(0, 1)},
	}
	b := []SeparatorGroup{
		{Nodes: []int{3, 4}, Variable: Laplace, Link: NewLinkKey(0, 1)},
		{Nodes: []int{5}, Variable: Pressure, Link: NewLinkKey(1, 2)},
		{Nodes: []int{1, 2}, Variable: Laplace, Link: NewLinkKey(0, 1)},
	}
	if diff := cmp.Diff(partitionByLink(a), partitionByLink(b)); diff != "" {
		t.Fatalf("partition depends on input order (-a +b):\n%s", diff)
	}
}

func TestVariableTypeString(t *testing.T) {
	cases := map[VariableType]string{
		Laplace:   "Laplace",
		Pressure:  "Pressure",
		Velocity:  "Velocity",
		VelocityU: "VelocityU",
		VelocityV: "VelocityV",
		VelocityW: "VelocityW",
	}
	for v, want := range cases {
		if got := v.String(); got != want {
			t.Errorf("VariableType(%d).String() = %q, want %q", v, got, want)
		}
	}
}
