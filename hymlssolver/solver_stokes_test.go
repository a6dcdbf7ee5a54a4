// Copyright ©2026 The HYMLS Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hymlssolver

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/linsolve"
	"gonum.org/v1/gonum/mat"

	"github.com/jthies/hymls/block"
	"github.com/jthies/hymls/comm"
	"github.com/jthies/hymls/drop"
	"github.com/jthies/hymls/group"
	"github.com/jthies/hymls/hmap"
	"github.com/jthies/hymls/partition"
	"github.com/jthies/hymls/precond"
	"github.com/jthies/hymls/testvec"
)

// TestSolverStokesC12x12LevelThreeBordered is seed scenario S5: a 12x12
// grid reduced through 3 levels, with a single border constraint (ones
// over the whole grid, standing in for "ones over pressures" in a true
// Stokes-C discretization) removing the periodic Laplacian's constant
// null space via a Lagrange-multiplier-style bordered solve.
func TestSolverStokesC12x12LevelThreeBordered(t *testing.T) {
	g := partition.Grid{Nx: 12, Ny: 12, Nz: 1, Dof: 1, Variables: []group.VariableType{group.Laplace}}
	c, err := partition.NewCartesian(g, 4, 4, 1, partition.Periodic{X: true, Y: true}, g.Size())
	if err != nil {
		t.Fatal(err)
	}
	m, err := hmap.FromPartitioner(comm.Serial{}, "stokesc", 0, c)
	if err != nil {
		t.Fatal(err)
	}

	A := laplacian2DPeriodic(12, 12)
	n, _ := A.Dims()

	cfg := precond.Config{
		NumberOfLevels:                3,
		Variant:                       precond.BlockDiagonal,
		ApplyDropping:                 true,
		DropMode:                      drop.Relative,
		DropTol:                       drop.DefaultTol,
		ApplyOrthogonalTransformation: true,
		SubdomainSolverKind:           block.Dense,
	}
	testVec := testvec.Ones(n)

	lv, err := NewLevelChain(comm.Serial{}, cfg, m, A, testVec)
	if err != nil {
		t.Fatalf("NewLevelChain: %v", err)
	}

	ones := make([]float64, n)
	for i := range ones {
		ones[i] = 1
	}
	V := mat.NewDense(n, 1, ones)
	W := mat.NewDense(n, 1, ones)
	C := mat.NewDense(1, 1, []float64{0})

	rhsData := make([]float64, n)
	for i := range rhsData {
		rhsData[i] = math.Sin(float64(i))
	}
	b := mat.NewVecDense(n, rhsData)
	t0 := mat.NewDense(1, 1, []float64{0})

	s := &Solver{
		Variant: Bordered,
		Settings: linsolve.Settings{
			Tolerance:     1e-9,
			MaxIterations: 8 * n,
		},
	}
	res, err := s.Solve(Problem{A: A, Op: lv, RHS: b, V: V, W: W, C: C, BorderRHS: t0})
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}

	x := mat.NewVecDense(n, append([]float64(nil), res.X.RawVector().Data[:n]...))
	sMult := res.X.AtVec(n)

	// Top-block residual: A x + V s - b.
	Ax := make([]float64, n)
	A.MulVecTo(Ax, false, x.RawVector().Data)
	var topResid float64
	for i := 0; i < n; i++ {
		d := Ax[i] + ones[i]*sMult - rhsData[i]
		if math.Abs(d) > topResid {
			topResid = math.Abs(d)
		}
	}
	if topResid > 1e-9 {
		t.Fatalf("top-block residual = %v, want <= 1e-9", topResid)
	}

	// Bottom-block residual: W' x + C s - t, i.e. the zero-mean constraint.
	var wtx float64
	for i := 0; i < n; i++ {
		wtx += ones[i] * x.AtVec(i)
	}
	bottomResid := math.Abs(wtx - t0.At(0, 0))
	if bottomResid > 1e-9 {
		t.Fatalf("bottom-block (constraint) residual = %v, want <= 1e-9", bottomResid)
	}
}
