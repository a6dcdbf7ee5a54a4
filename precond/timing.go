// Copyright ©2026 The HYMLS Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package precond

import "time"

// Timing accumulates call counts and cumulative duration for one
// level's Initialize/Compute/ApplyInverse phases, the Go analogue of
// the C++ flopsCompute_/timeCompute_ counters threaded by reference
// rather than collected through a global profiler singleton. Level has
// no separate Initialize phase, so InitializeCalls and InitializeTime
// stay zero.
type Timing struct {
	InitializeCalls int
	InitializeTime  time.Duration
	ComputeCalls    int
	ComputeTime     time.Duration
	ApplyCalls      int
	ApplyTime       time.Duration
}

func (t *Timing) recordInitialize(d time.Duration) {
	t.InitializeCalls++
	t.InitializeTime += d
}

func (t *Timing) recordCompute(d time.Duration) {
	t.ComputeCalls++
	t.ComputeTime += d
}

func (t *Timing) recordApply(d time.Duration) {
	t.ApplyCalls++
	t.ApplyTime += d
}
