package calibration

import (
	"context"

	apperrors "github.com/agbru/cgbench/internal/errors"
	"github.com/agbru/cgbench/internal/kernel"
	"github.com/agbru/cgbench/internal/logging"
	"github.com/agbru/cgbench/internal/timing"
)

const (
	// DefaultIterMultiplier scales the iteration cap of the optimized
	// calibration run relative to the reference baseline.
	DefaultIterMultiplier = 10

	// DefaultCalibrationRuns is the number of optimized calibration runs.
	DefaultCalibrationRuns = 1
)

// Options configures the optimized calibration run.
type Options struct {
	// MaxIters is the reference iteration cap the multiplier applies to.
	MaxIters int
	// Multiplier scales MaxIters into the optimized iteration cap.
	Multiplier int
	// Runs is the number of repetitions.
	Runs int
}

func (o Options) withDefaults() Options {
	if o.MaxIters <= 0 {
		o.MaxIters = DefaultMaxIters
	}
	if o.Multiplier <= 0 {
		o.Multiplier = DefaultIterMultiplier
	}
	if o.Runs <= 0 {
		o.Runs = DefaultCalibrationRuns
	}
	return o
}

// Result summarizes the optimized calibration run.
type Result struct {
	Worst WorstCase
	// MaxIters is the iteration cap the optimized solver ran with.
	MaxIters int
	// SolverErrors counts optimized solver calls that returned an error.
	SolverErrors int
	// ToleranceFailures lists every run that missed the target ratio.
	ToleranceFailures []apperrors.ToleranceFailure
}

// Failed reports whether any run missed the target ratio.
func (r Result) Failed() bool { return len(r.ToleranceFailures) > 0 }

// Calibrate runs the optimized solver against the reference target ratio
// with an enlarged iteration cap, recording the worst run time and the
// largest iteration count. Each run's time is the growth of rec's total slot
// across the call, as measured by the solver itself.
//
// All runs are performed regardless of solver errors or tolerance failures.
// The returned error is non-nil only when ctx is canceled between runs.
func Calibrate(ctx context.Context, opt kernel.Kernel, sys *kernel.System, target float64, opts Options, rec *timing.Record, log logging.Logger) (Result, error) {
	opts = opts.withDefaults()
	res := Result{MaxIters: opts.Multiplier * opts.MaxIters}

	for i := 0; i < opts.Runs; i++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		sys.ResetX()
		before := rec.Get(timing.PhaseTotal)
		out, err := opt.Solve(ctx, sys.Problem, sys.B, sys.X, res.MaxIters, target, rec)
		if err != nil {
			res.SolverErrors++
			log.Error("error in call to optimized CG", apperrors.AsKernelError("cg/"+opt.Variant().String(), err),
				logging.Int("run", i))
		}

		if ratio := out.ScaledResidual(); ratio > target {
			res.ToleranceFailures = append(res.ToleranceFailures,
				apperrors.ToleranceFailure{ScaledResidual: ratio, Target: target})
		}
		res.Worst.Observe(rec.Get(timing.PhaseTotal)-before, out.Iterations)
	}

	if res.SolverErrors > 0 {
		log.Info("optimized CG reported errors", logging.Int("count", res.SolverErrors))
	}
	if res.Failed() {
		log.Error("failed to reduce the residual", res.ToleranceFailures[0],
			logging.Int("times", len(res.ToleranceFailures)))
	}
	log.Info("optimized calibration complete",
		logging.Float64("worst_seconds", res.Worst.RunTime().Seconds()),
		logging.Int("max_iterations", res.Worst.Iterations()))
	return res, nil
}
