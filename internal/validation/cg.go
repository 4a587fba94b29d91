package validation

import (
	"context"
	"fmt"
	"strings"

	"github.com/agbru/cgbench/internal/kernel"
	"github.com/agbru/cgbench/internal/timing"
)

// DefaultCGTestIterations are the fixed iteration counts CGTest solves with.
var DefaultCGTestIterations = []int{25, 50}

// CGTest checks that every kernel variant actually converges: each kernel is
// run from a zero initial guess for a few fixed iteration counts, with the
// preconditioner and, when the kernel implements kernel.PlainSolver, without
// it. A solve passes when it returns no error and its scaled residual drops
// below 1. The Result's Value is the largest scaled residual among the
// passing solves.
//
// The system's working vector is left untouched; the solves write into a
// scratch vector and a scratch timing record.
type CGTest struct {
	// Iterations overrides DefaultCGTestIterations when non-empty.
	Iterations []int
}

type solveMode struct {
	name  string
	solve func(ctx context.Context, p kernel.Problem, b, x []float64, maxIters int, tol float64, rec *timing.Record) (kernel.Outcome, error)
}

// Check runs the convergence test on kernels and returns one Result with the
// pass and fail counts. The error is non-nil only when ctx is canceled.
func (c CGTest) Check(ctx context.Context, sys *kernel.System, kernels ...kernel.Kernel) (Result, error) {
	iters := c.Iterations
	if len(iters) == 0 {
		iters = DefaultCGTestIterations
	}
	res := Result{Name: "cg"}
	x := make([]float64, sys.Problem.Columns())
	var rec timing.Record
	var failed []string

	for _, k := range kernels {
		modes := []solveMode{{"preconditioned", k.Solve}}
		if plain, ok := k.(kernel.PlainSolver); ok {
			modes = append(modes, solveMode{"unpreconditioned", plain.SolveUnpreconditioned})
		}

		for _, m := range modes {
			for _, n := range iters {
				if err := ctx.Err(); err != nil {
					return res, err
				}
				clear(x)
				out, err := m.solve(ctx, sys.Problem, sys.B, x, n, 0, &rec)
				if err != nil && ctx.Err() != nil {
					return res, ctx.Err()
				}
				ratio := out.ScaledResidual()
				res.Samples++
				if err == nil && ratio < 1 {
					res.PassCount++
					res.Value = max(res.Value, ratio)
					continue
				}
				res.FailCount++
				failed = append(failed, fmt.Sprintf("%s/%s/%d", k.Variant(), m.name, n))
			}
		}
	}

	res.Passed = res.Samples > 0 && res.FailCount == 0
	switch {
	case res.Samples == 0:
		res.Detail = "no kernels"
	case len(failed) > 0:
		res.Detail = "residual did not drop: " + strings.Join(failed, ", ")
	}
	return res, nil
}
