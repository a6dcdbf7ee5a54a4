// Copyright ©2026 The HYMLS Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package comm

// HyperCube renumbers MPI-style ranks so that nodes are contiguous
// before cores: reducing the number of active ranks (as the coarsest
// level of the preconditioner does) then keeps as many distinct nodes
// active as possible, instead of draining one node at a time. This
// mirrors the original HyperCube helper, whose reordering was built for
// a specific machine topology; here it is generalized to any
// node/core-per-node layout.
type HyperCube struct {
	numNodes      int
	maxProcPerNode int
}

// NewHyperCube returns a HyperCube for a machine with numNodes nodes and
// at most maxProcPerNode ranks per node.
func NewHyperCube(numNodes, maxProcPerNode int) *HyperCube {
	if numNodes <= 0 || maxProcPerNode <= 0 {
		panic("comm: numNodes and maxProcPerNode must be positive")
	}
	return &HyperCube{numNodes: numNodes, maxProcPerNode: maxProcPerNode}
}

// Remap returns the reordered rank for the core-th rank (0-based) on the
// node-th node (0-based): node*maxProcPerNode + core, so that ranks are
// contiguous by node before they are contiguous by core.
func (h *HyperCube) Remap(node, core int) int {
	if node < 0 || node >= h.numNodes {
		panic("comm: node out of range")
	}
	if core < 0 || core >= h.maxProcPerNode {
		panic("comm: core out of range")
	}
	return node*h.maxProcPerNode + core
}

// Node returns the node, core pair that original world-rank maps to,
// given numProcOnNode ranks actually running on each node (which may be
// less than maxProcPerNode).
func (h *HyperCube) Node(worldRank, numProcOnNode int) (node, core int) {
	node = worldRank / numProcOnNode
	core = worldRank % numProcOnNode
	return node, core
}
