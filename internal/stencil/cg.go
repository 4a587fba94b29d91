package stencil

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/agbru/cgbench/internal/kernel"
	"github.com/agbru/cgbench/internal/timing"
)

// ErrBreakdown is returned when the residual norm stops being a finite
// number, which ends the solve early.
var ErrBreakdown = errors.New("stencil: CG breakdown, residual is not finite")

// operators is what distinguishes the two kernel variants inside CG.
type operators interface {
	spmv(ctx context.Context, p *Problem, x, y []float64) error
	precondition(p *Problem, r, z []float64)
}

// solveCG runs preconditioned conjugate gradient from the current x.
//
// The loop stops after maxIters iterations or once ||r||/||r0|| <= tol. A
// tolerance of zero therefore always runs maxIters iterations. When the
// initial residual is zero the ratio is NaN, the loop body never executes
// and the outcome reports zero iterations.
func solveCG(ctx context.Context, p *Problem, halo kernel.HaloExchanger, ops operators, b, x []float64, maxIters int, tol float64, rec *timing.Record) (kernel.Outcome, error) {
	if rec == nil {
		rec = new(timing.Record)
	}
	n := p.Rows()
	if len(b) < n || len(x) < p.Columns() {
		return kernel.Outcome{Status: kernel.StatusFailed},
			fmt.Errorf("stencil: vectors too short for %d rows (b=%d, x=%d)", n, len(b), len(x))
	}

	start := time.Now()
	defer func() { rec.Accumulate(timing.PhaseTotal, time.Since(start)) }()

	r := make([]float64, n)
	z := make([]float64, n)
	pv := make([]float64, p.Columns())
	ap := make([]float64, n)

	applyA := func(v, dst []float64) error {
		t := time.Now()
		if err := halo.Exchange(ctx, p, v); err != nil {
			return err
		}
		rec.Accumulate(timing.PhaseHalo, time.Since(t))
		t = time.Now()
		err := ops.spmv(ctx, p, v, dst)
		rec.Accumulate(timing.PhaseSpMV, time.Since(t))
		return err
	}
	dot := func(u, v []float64) float64 {
		t := time.Now()
		d := floats.Dot(u, v)
		rec.Accumulate(timing.PhaseDot, time.Since(t))
		return d
	}

	// p = x, r = b - A*p
	t := time.Now()
	copy(pv, x)
	rec.Accumulate(timing.PhaseWAXPBY, time.Since(t))
	if err := applyA(pv, ap); err != nil {
		return kernel.Outcome{Status: kernel.StatusFailed}, err
	}
	t = time.Now()
	floats.AddScaledTo(r, b[:n], -1, ap)
	rec.Accumulate(timing.PhaseWAXPBY, time.Since(t))

	normr := math.Sqrt(dot(r, r))
	normr0 := normr
	out := kernel.Outcome{Residual: normr, InitialResidual: normr0}

	var rtz float64
	for k := 1; k <= maxIters && normr/normr0 > tol; k++ {
		t = time.Now()
		ops.precondition(p, r, z)
		rec.Accumulate(timing.PhasePrecondition, time.Since(t))

		if k == 1 {
			t = time.Now()
			copy(pv, z)
			rec.Accumulate(timing.PhaseWAXPBY, time.Since(t))
			rtz = dot(r, z)
		} else {
			old := rtz
			rtz = dot(r, z)
			beta := rtz / old
			t = time.Now()
			floats.AddScaledTo(pv[:n], z, beta, pv[:n])
			rec.Accumulate(timing.PhaseWAXPBY, time.Since(t))
		}

		if err := applyA(pv, ap); err != nil {
			out.Status = kernel.StatusFailed
			return out, err
		}
		alpha := rtz / dot(pv[:n], ap)

		t = time.Now()
		floats.AddScaled(x[:n], alpha, pv[:n])
		floats.AddScaled(r, -alpha, ap)
		rec.Accumulate(timing.PhaseWAXPBY, time.Since(t))

		normr = math.Sqrt(dot(r, r))
		out.Iterations = k
		out.Residual = normr
		if math.IsNaN(normr) || math.IsInf(normr, 0) {
			out.Status = kernel.StatusFailed
			return out, ErrBreakdown
		}
	}
	return out, nil
}

// spmvRows computes y[i] = sum_j A[i,j]*x[j] for rows lo..hi-1.
func spmvRows(p *Problem, x, y []float64, lo, hi int) {
	for i := lo; i < hi; i++ {
		cols, vals := p.row(i)
		var sum float64
		for j, c := range cols {
			sum += vals[j] * x[c]
		}
		y[i] = sum
	}
}

// symmetricGaussSeidel applies one forward and one backward Gauss-Seidel
// sweep to A*z = r starting from z = 0.
func symmetricGaussSeidel(p *Problem, r, z []float64) {
	n := p.Rows()
	clear(z[:n])
	relax := func(i int) {
		cols, vals := p.row(i)
		d := p.vals[p.diag[i]]
		sum := r[i]
		for j, c := range cols {
			sum -= vals[j] * z[c]
		}
		sum += d * z[i]
		z[i] = sum / d
	}
	for i := 0; i < n; i++ {
		relax(i)
	}
	for i := n - 1; i >= 0; i-- {
		relax(i)
	}
}

func checkLengths(p *Problem, in, out []float64) error {
	if len(in) < p.Columns() || len(out) < p.Rows() {
		return fmt.Errorf("stencil: vectors too short for %d rows (in=%d, out=%d)", p.Rows(), len(in), len(out))
	}
	return nil
}
