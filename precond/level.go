// Copyright ©2026 The HYMLS Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package precond

import (
	"fmt"
	"io"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/jthies/hymls/comm"
	"github.com/jthies/hymls/hmap"
	"github.com/jthies/hymls/schur"
	"github.com/jthies/hymls/sparse"
)

// Level is the top-level per-level orchestrator (spec.md's C9): it owns
// the interior/separator split of its own matrix, the Schur complement
// over the separators, and the SchurPreconditioner approximating that
// complement's inverse. It implements Operator so an outer Krylov
// solver (or a coarser level's bordered solve) can treat it uniformly.
type Level struct {
	c     comm.Communicator
	level int
	m     *hmap.Map
	cfg   Config

	aov *sparse.CSR
	sc  *schur.Complement
	sp  *SchurPreconditioner

	border *Border

	computed bool
	timing   Timing
}

var _ Operator = (*Level)(nil)

// NewLevel allocates an uncomputed level over m, the HierarchicalMap
// already built for this level's subdomains.
func NewLevel(c comm.Communicator, level int, m *hmap.Map, cfg Config) *Level {
	return &Level{c: c, level: level, m: m, cfg: cfg}
}

// Timing returns this level's accumulated call counts and durations.
func (lv *Level) Timing() Timing { return lv.timing }

// Level returns this instance's hierarchical level index.
func (lv *Level) Level() int { return lv.level }

// Compute factors A11 subdomain-by-subdomain, builds the Schur
// complement over the separators, and reduces it via a
// SchurPreconditioner, recursing through next when this is not the
// coarsest level.
func (lv *Level) Compute(Aov *sparse.CSR, testVec []float64, next NextLevelFunc) error {
	start := time.Now()
	defer func() { lv.timing.recordCompute(time.Since(start)) }()

	lv.aov = Aov
	sc := schur.New(lv.m)
	if err := sc.Compute(Aov, lv.cfg.SubdomainSolverKind); err != nil {
		return &Fault{Level: lv.level, Op: "schur.Compute", Err: err}
	}
	lv.sc = sc

	sp := NewSchurPreconditioner(lv.level, lv.cfg)
	if err := sp.Compute(sc, lv.m, testVec, next); err != nil {
		return &Fault{Level: lv.level, Op: "SchurPreconditioner.Compute", Err: err}
	}
	lv.sp = sp
	lv.computed = true
	return nil
}

// RangeMap returns the level's non-overlapping row map.
func (lv *Level) RangeMap() *comm.IndexMap {
	mp, err := lv.m.BaseMap()
	if err != nil {
		panic(err)
	}
	return mp
}

// DomainMap is identical to RangeMap: the level's operator is square.
func (lv *Level) DomainMap() *comm.IndexMap { return lv.RangeMap() }

// Comm returns the level's communicator.
func (lv *Level) Comm() comm.Communicator { return lv.c }

// Apply computes y = A*x using the imported matrix this level was
// computed from.
func (lv *Level) Apply(x, y *mat.VecDense) {
	if !lv.computed {
		panic(&Fault{Level: lv.level, Op: "Apply", Err: ErrNotComputed})
	}
	n, _ := x.Dims()
	dst := make([]float64, n)
	lv.aov.MulVecTo(dst, false, x.RawVector().Data)
	for i, v := range dst {
		y.SetVec(i, v)
	}
}

// ApplyInverse implements the downward/upward elimination sweep of
// spec.md §3-§4.8: solve A11 against b1, form the Schur right-hand
// side, recurse through the SchurPreconditioner, then back-substitute
// into x1.
func (lv *Level) ApplyInverse(x, y *mat.VecDense) error {
	start := time.Now()
	defer func() { lv.timing.recordApply(time.Since(start)) }()

	if !lv.computed {
		return &Fault{Level: lv.level, Op: "ApplyInverse", Err: ErrNotComputed}
	}
	bGlobal := x.RawVector().Data
	rangeMap := lv.RangeMap()
	if len(bGlobal) != rangeMap.Len() {
		return &Fault{Level: lv.level, Op: "ApplyInverse", Err: ErrIncompatibleMaps}
	}

	a11, a12, a21 := lv.sc.A11(), lv.sc.A12(), lv.sc.A21()
	rows1, rows2 := a11.Rows(), a21.Rows()

	b1 := gatherGID(bGlobal, rows1)
	b2 := gatherGID(bGlobal, rows2)

	x1, err := a11.ApplyInverse(b1)
	if err != nil {
		return &Fault{Level: lv.level, Op: "A11.ApplyInverse", Err: err}
	}
	t1, err := a21.Apply(x1)
	if err != nil {
		return &Fault{Level: lv.level, Op: "A21.Apply", Err: err}
	}
	r := make([]float64, len(b2))
	for i := range r {
		r[i] = b2[i] - t1[i]
	}

	x2, err := lv.sp.ApplyInverse(r)
	if err != nil {
		return &Fault{Level: lv.level, Op: "SchurPreconditioner.ApplyInverse", Err: err}
	}

	t2, err := a12.Apply(x2)
	if err != nil {
		return &Fault{Level: lv.level, Op: "A12.Apply", Err: err}
	}
	t3, err := a11.ApplyInverse(t2)
	if err != nil {
		return &Fault{Level: lv.level, Op: "A11.ApplyInverse", Err: err}
	}
	for i := range x1 {
		x1[i] -= t3[i]
	}

	xGlobal := make([]float64, len(bGlobal))
	scatterGID(xGlobal, rows1, x1)
	scatterGID(xGlobal, rows2, x2)
	for i, v := range xGlobal {
		y.SetVec(i, v)
	}
	return nil
}

// HasBorder reports whether SetBorder has installed a non-nil border.
func (lv *Level) HasBorder() bool { return lv.border != nil }

// SetBorder installs the bordered-system augmenting matrices. Passing
// nil for all three clears the border (pre-initialize semantics:
// SetBorder(nil,nil,nil) is always valid and means "no border", since
// a level may be constructed before the caller knows whether deflation
// is needed).
func (lv *Level) SetBorder(v, w, c *mat.Dense) error {
	if v == nil && w == nil && c == nil {
		lv.border = nil
		return nil
	}
	if v == nil || w == nil || c == nil {
		return fmt.Errorf("%w: V, W, C must all be set or all be nil", ErrBorderMismatch)
	}
	b, err := NewBorder(v, w, c)
	if err != nil {
		return err
	}
	lv.border = b
	return nil
}

// ApplyInverseBordered solves the bordered system
//
//	[A V][x]   [b]
//	[W' C][s] = [t]
//
// by block elimination against this level's ApplyInverse as the A^-1
// surrogate: z = P(b), Y = P(V) column by column, then the small m x m
// system (C - W'Y) s = t - W'z is solved densely, and x = z - Y s.
func (lv *Level) ApplyInverseBordered(x *mat.VecDense, t *mat.Dense, y *mat.VecDense, s *mat.Dense) error {
	if !lv.computed {
		return &Fault{Level: lv.level, Op: "ApplyInverseBordered", Err: ErrNotComputed}
	}
	if lv.border == nil {
		return &Fault{Level: lv.level, Op: "ApplyInverseBordered", Err: fmt.Errorf("no border installed")}
	}
	n, _ := x.Dims()
	tr, tc := t.Dims()
	if tr != lv.border.m || tc != 1 {
		return &Fault{Level: lv.level, Op: "ApplyInverseBordered", Err: ErrIncompatibleMaps}
	}

	z := mat.NewVecDense(n, nil)
	if err := lv.ApplyInverse(x, z); err != nil {
		return &Fault{Level: lv.level, Op: "ApplyInverseBordered", Err: err}
	}

	m := lv.border.m
	Y := mat.NewDense(n, m, nil)
	for j := 0; j < m; j++ {
		col := make([]float64, n)
		for i := 0; i < n; i++ {
			col[i] = lv.border.v.At(i, j)
		}
		vj := mat.NewVecDense(n, col)
		yj := mat.NewVecDense(n, nil)
		if err := lv.ApplyInverse(vj, yj); err != nil {
			return &Fault{Level: lv.level, Op: "ApplyInverseBordered", Err: err}
		}
		for i := 0; i < n; i++ {
			Y.Set(i, j, yj.AtVec(i))
		}
	}

	var wtY, wtZ mat.Dense
	wtY.Mul(lv.border.w.T(), Y)
	wtZ.Mul(lv.border.w.T(), z)

	var schurSmall mat.Dense
	schurSmall.Sub(lv.border.c, &wtY)

	var rhs mat.Dense
	rhs.Sub(t, &wtZ)

	var sSol mat.Dense
	if err := sSol.Solve(&schurSmall, &rhs); err != nil {
		return &Fault{Level: lv.level, Op: "ApplyInverseBordered", Err: fmt.Errorf("%w: %v", ErrSingularCoarse, err)}
	}
	for i := 0; i < m; i++ {
		s.Set(i, 0, sSol.At(i, 0))
	}

	var yCorr mat.Dense
	yCorr.Mul(Y, &sSol)
	for i := 0; i < n; i++ {
		y.SetVec(i, z.AtVec(i)-yCorr.At(i, 0))
	}
	return nil
}

// DumpTo writes a MatrixMarket-style coordinate listing of what to a
// caller-supplied writer: the assembled separator Schur complement, its
// dropped/rotated form, or the level's test vector. A write failure is
// reported as a plain error, never a panic, since debug dumps are a
// diagnostic aid and must not abort an otherwise-successful solve.
func (lv *Level) DumpTo(w io.Writer, what DumpKind) error {
	if !lv.computed {
		return &Fault{Level: lv.level, Op: "DumpTo", Err: ErrNotComputed}
	}
	switch what {
	case DumpSchurComplement:
		s, err := lv.sc.Construct()
		if err != nil {
			return &Fault{Level: lv.level, Op: "DumpTo", Err: err}
		}
		n, _ := s.Dims()
		return dumpDense(w, n, s)
	case DumpTransformedMatrix:
		if lv.sp.dumpM == nil {
			return &Fault{Level: lv.level, Op: "DumpTo", Err: fmt.Errorf("no transformed matrix at the coarsest level")}
		}
		n, _ := lv.sp.dumpM.Dims()
		return dumpDense(w, n, lv.sp.dumpM)
	case DumpTestVector:
		return dumpVector(w, lv.sp.dumpTestVec)
	default:
		return &Fault{Level: lv.level, Op: "DumpTo", Err: fmt.Errorf("unknown DumpKind %v", what)}
	}
}

func dumpDense(w io.Writer, n int, m interface{ At(i, j int) float64 }) error {
	if _, err := fmt.Fprintf(w, "%%MatrixMarket matrix coordinate real general\n%d %d\n", n, n); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v := m.At(i, j)
			if v == 0 {
				continue
			}
			if _, err := fmt.Fprintf(w, "%d %d %.17g\n", i+1, j+1, v); err != nil {
				return err
			}
		}
	}
	return nil
}

func dumpVector(w io.Writer, v []float64) error {
	if _, err := fmt.Fprintf(w, "%%MatrixMarket matrix array real general\n%d 1\n", len(v)); err != nil {
		return err
	}
	for _, x := range v {
		if _, err := fmt.Fprintf(w, "%.17g\n", x); err != nil {
			return err
		}
	}
	return nil
}

func gatherGID(v []float64, gids []int) []float64 {
	out := make([]float64, len(gids))
	for i, g := range gids {
		out[i] = v[g]
	}
	return out
}

func scatterGID(dst []float64, gids []int, src []float64) {
	for i, g := range gids {
		dst[g] = src[i]
	}
}
