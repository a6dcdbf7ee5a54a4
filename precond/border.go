// Copyright ©2026 The HYMLS Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package precond

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Border is the optional bordered-system extension of spec.md §3: V and
// W are n x m augmenting matrices over the level's range map, and C is
// the m x m corner block.
type Border struct {
	v, w *mat.Dense
	c    *mat.Dense
	m    int
}

// NewBorder validates and wraps V, W, C. V and W must share the same
// number of columns m, and C must be m x m.
func NewBorder(v, w, c *mat.Dense) (*Border, error) {
	vr, vm := v.Dims()
	wr, wm := w.Dims()
	cr, cc := c.Dims()
	if vm != wm || cr != vm || cc != vm {
		return nil, ErrBorderMismatch
	}
	if vr != wr {
		return nil, fmt.Errorf("%w: V has %d rows, W has %d", ErrBorderMismatch, vr, wr)
	}
	return &Border{v: v, w: w, c: c, m: vm}, nil
}
