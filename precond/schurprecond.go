// Copyright ©2026 The HYMLS Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package precond

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/jthies/hymls/drop"
	"github.com/jthies/hymls/hmap"
	"github.com/jthies/hymls/ortho"
	"github.com/jthies/hymls/schur"
	"github.com/jthies/hymls/sparse"
	"github.com/jthies/hymls/testvec"
)

// NextLevelFunc builds and fully computes the next hierarchical level
// from the current level's V-sum submatrix (already locally renumbered
// 0..n-1) and its restricted test vector. Returning an already-computed
// *Level keeps SchurPreconditioner free of any partitioner-construction
// concern: that choice (grid coarsening, subdomain sizing) belongs to
// whatever builds the Level hierarchy, not to the reduction algorithm
// itself.
type NextLevelFunc func(level int, Aov *sparse.CSR, testVec []float64) (*Level, error)

// SchurPreconditioner approximates the inverse of a level's Schur
// complement: at the coarsest level it wraps a direct solve; otherwise
// it builds the per-separator-group orthogonal transform, drops the
// rotated matrix, factors the non-V-sum block, and recurses on the
// V-sum submatrix via a caller-supplied NextLevelFunc.
type SchurPreconditioner struct {
	level int
	cfg   Config

	coarsest bool
	coarse   *coarseSolver
	fixed    map[int]bool

	tr        *ortho.Transform
	vsumIdx   []int
	nvsIdx    []int
	mVsNvs    *sparse.CSR
	mNvsVs    *sparse.CSR
	nvsSolver nonVSumSolver
	next      *Level

	computed bool

	// dumpM and dumpTestVec retain the rotated/dropped matrix and the
	// test vector used to build it, solely so Level.DumpTo can emit them;
	// nothing in ApplyInverse reads these back.
	dumpM       *sparse.CSR
	dumpTestVec []float64
}

// NewSchurPreconditioner allocates an uncomputed preconditioner for the
// given level index.
func NewSchurPreconditioner(level int, cfg Config) *SchurPreconditioner {
	return &SchurPreconditioner{level: level, cfg: cfg}
}

// Compute builds the reduction described in spec.md §4.7: assembling S
// from sc, and either solving it directly (coarsest level) or rotating,
// dropping, splitting, and recursing through next.
func (sp *SchurPreconditioner) Compute(sc *schur.Complement, m *hmap.Map, testVec []float64, next NextLevelFunc) error {
	S, err := sc.Construct()
	if err != nil {
		return fmt.Errorf("precond: level %d: assemble Schur complement: %w", sp.level, err)
	}
	sepRows := sc.Rows()

	if sp.level >= sp.cfg.NumberOfLevels-1 || next == nil {
		sp.coarsest = true
		S = drop.Apply(S, drop.Absolute, drop.DefaultTol)
		S = sp.applyPressureFix(S, sepRows)
		solver, err := newCoarseSolver(S)
		if err != nil {
			return fmt.Errorf("precond: level %d: coarse solve: %w", sp.level, err)
		}
		sp.coarse = solver
		sp.computed = true
		return nil
	}

	ranges := separatorFamilyRanges(m)
	sepTest := gatherGID(testVec, sepRows)
	var tr *ortho.Transform
	if sp.cfg.ApplyOrthogonalTransformation {
		tr = ortho.NewHouseholder(ranges, sepTest)
	} else {
		tr = ortho.Identity(len(sepRows))
	}
	sp.tr = tr

	M := tr.ApplyToMatrix(S)
	if sp.cfg.ApplyDropping {
		M = drop.Apply(M, sp.cfg.DropMode, sp.cfg.DropTol)
	}
	sp.dumpM = M
	sp.dumpTestVec = testVec

	inVsum := make([]bool, len(sepRows))
	for _, r := range ranges {
		inVsum[ortho.VSumIndex(r)] = true
	}
	var vsum, nvs []int
	for i := range sepRows {
		if inVsum[i] {
			vsum = append(vsum, i)
		} else {
			nvs = append(nvs, i)
		}
	}
	sp.vsumIdx, sp.nvsIdx = vsum, nvs

	mNvsNvs := M.Select(nvs, nvs)
	mVsVs := M.Select(vsum, vsum)
	sp.mVsNvs = M.Select(vsum, nvs)
	sp.mNvsVs = M.Select(nvs, vsum)

	groups := nvsGroupRanges(ranges)
	solver, err := newNonVSumSolver(mNvsNvs, sp.cfg.Variant, groups)
	if err != nil {
		return fmt.Errorf("precond: level %d: non-V-sum solver: %w", sp.level, err)
	}
	sp.nvsSolver = solver

	nextTestVec := testvec.Restrict(sepTest, tr, ranges)
	nextLevel, err := next(sp.level+1, mVsVs, nextTestVec)
	if err != nil {
		return fmt.Errorf("precond: level %d: next level: %w", sp.level, err)
	}
	sp.next = nextLevel

	sp.computed = true
	return nil
}

// ApplyInverse implements the applyInverse algorithm of spec.md §4.7:
// rotate, solve the non-V-sum block, reduce and recurse on the V-sum
// block, back-substitute, rotate back.
func (sp *SchurPreconditioner) ApplyInverse(r []float64) ([]float64, error) {
	if !sp.computed {
		return nil, ErrNotComputed
	}
	if sp.coarsest {
		rhs := sp.applyPressureFixVec(r)
		return sp.coarse.solve(rhs)
	}

	rp := append([]float64(nil), r...)
	sp.tr.Apply(rp)

	rNvs := gatherLocal(rp, sp.nvsIdx)
	rVs := gatherLocal(rp, sp.vsumIdx)

	xNvs, err := sp.nvsSolver.solve(rNvs)
	if err != nil {
		return nil, fmt.Errorf("precond: level %d: non-V-sum solve: %w", sp.level, err)
	}

	t := make([]float64, len(sp.vsumIdx))
	sp.mVsNvs.MulVecTo(t, false, xNvs)
	for i := range rVs {
		rVs[i] -= t[i]
	}

	xVsVec := mat.NewVecDense(len(rVs), nil)
	if err := sp.next.ApplyInverse(mat.NewVecDense(len(rVs), rVs), xVsVec); err != nil {
		return nil, fmt.Errorf("precond: level %d: V-sum recursion: %w", sp.level, err)
	}
	xVs := xVsVec.RawVector().Data

	if !sp.nvsSolver.skipBacksub() {
		t2 := make([]float64, len(sp.nvsIdx))
		sp.mNvsVs.MulVecTo(t2, false, xVs)
		corr, err := sp.nvsSolver.solve(t2)
		if err != nil {
			return nil, fmt.Errorf("precond: level %d: back-substitution: %w", sp.level, err)
		}
		for i := range xNvs {
			xNvs[i] -= corr[i]
		}
	}

	x := make([]float64, len(r))
	scatterLocal(x, sp.nvsIdx, xNvs)
	scatterLocal(x, sp.vsumIdx, xVs)
	sp.tr.Apply(x)
	return x, nil
}

func (sp *SchurPreconditioner) applyPressureFix(S *sparse.CSR, sepRows []int) *sparse.CSR {
	if !sp.cfg.FixPressureLevel {
		return S
	}
	pos := make(map[int]int, len(sepRows))
	for i, gid := range sepRows {
		pos[gid] = i
	}
	fixed := make(map[int]bool)
	for _, gid := range sp.cfg.FixGIDs {
		if gid < 0 {
			continue
		}
		if i, ok := pos[gid]; ok {
			fixed[i] = true
		}
	}
	if len(fixed) == 0 {
		return S
	}
	sp.fixed = fixed
	n, _ := S.Dims()
	b := sparse.NewBuilder(n, n)
	S.Visit(func(i, j int, v float64) {
		if fixed[i] || fixed[j] {
			return
		}
		b.Add(i, j, v)
	})
	for i := range fixed {
		b.Add(i, i, 1)
	}
	return b.Build()
}

func (sp *SchurPreconditioner) applyPressureFixVec(r []float64) []float64 {
	if len(sp.fixed) == 0 {
		return r
	}
	out := append([]float64(nil), r...)
	for i := range sp.fixed {
		out[i] = 0
	}
	return out
}

// separatorFamilyRanges reconstructs the contiguous GroupRange spans
// hmap's separator families occupy within schur.Complement.Rows(),
// since that ordering follows exactly the subdomain-then-group walk
// used here (and in block.MatrixBlock's own gidsForRole). Two
// independent packages producing and consuming the same traversal order
// is why this helper re-derives it instead of hmap exporting it as a
// distinct concept: the ordering is schur's, not hmap's.
func separatorFamilyRanges(m *hmap.Map) []ortho.GroupRange {
	var ranges []ortho.GroupRange
	seen := make(map[int]bool)
	pos := 0
	for sd := 0; sd < m.Subdomains(); sd++ {
		for _, sg := range m.Separators(sd) {
			start := -1
			length := 0
			for _, gid := range sg.Nodes {
				if seen[gid] {
					continue
				}
				seen[gid] = true
				if start == -1 {
					start = pos
				}
				pos++
				length++
			}
			if length > 0 {
				ranges = append(ranges, ortho.GroupRange{Start: start, Len: length})
			}
		}
	}
	return ranges
}

// nvsGroupRanges projects separator-family ranges into the non-V-sum
// index space: every group's members minus its own V-sum entry,
// preserved contiguous and in the same relative order.
func nvsGroupRanges(ranges []ortho.GroupRange) []ortho.GroupRange {
	var out []ortho.GroupRange
	pos := 0
	for _, r := range ranges {
		if r.Len <= 1 {
			continue
		}
		out = append(out, ortho.GroupRange{Start: pos, Len: r.Len - 1})
		pos += r.Len - 1
	}
	return out
}

func gatherLocal(v []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for i, k := range idx {
		out[i] = v[k]
	}
	return out
}

func scatterLocal(dst []float64, idx []int, src []float64) {
	for i, k := range idx {
		dst[k] = src[i]
	}
}
