package calibration

import (
	"context"

	apperrors "github.com/agbru/cgbench/internal/errors"
	"github.com/agbru/cgbench/internal/kernel"
	"github.com/agbru/cgbench/internal/logging"
	"github.com/agbru/cgbench/internal/timing"
)

// DefaultMaxIters is the iteration cap of the reference baseline and of every
// timed run.
const DefaultMaxIters = 50

// Baseline is the convergence target established by the reference solver.
type Baseline struct {
	// TargetRatio is the scaled residual the reference solver reached.
	TargetRatio float64
	// Outcome is the raw reference solver outcome.
	Outcome kernel.Outcome
	// Err is the solver error, if any. The outcome is used regardless.
	Err error
}

// RunBaseline runs the reference solver once from a zero initial guess with a
// tolerance of zero, so that exactly maxIters iterations are performed, and
// derives the target ratio every optimized run must match.
//
// A solver error is logged and recorded in Baseline.Err; there is no retry and
// the outcome is still used. The returned error is non-nil only when ctx is
// canceled before the solve.
func RunBaseline(ctx context.Context, ref kernel.Kernel, sys *kernel.System, maxIters int, rec *timing.Record, log logging.Logger) (Baseline, error) {
	if maxIters <= 0 {
		maxIters = DefaultMaxIters
	}
	if err := ctx.Err(); err != nil {
		return Baseline{}, err
	}

	sys.ResetX()
	out, err := ref.Solve(ctx, sys.Problem, sys.B, sys.X, maxIters, 0, rec)
	b := Baseline{Outcome: out, TargetRatio: out.ScaledResidual()}
	if err != nil {
		b.Err = apperrors.AsKernelError("cg/"+ref.Variant().String(), err)
		log.Error("error in call to reference CG", b.Err)
	}

	log.Info("reference baseline established",
		logging.Int("iterations", out.Iterations),
		logging.Float64("target_ratio", b.TargetRatio))
	return b, nil
}
