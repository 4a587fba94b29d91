package orchestration

import (
	"context"

	"github.com/agbru/cgbench/internal/calibration"
	apperrors "github.com/agbru/cgbench/internal/errors"
	"github.com/agbru/cgbench/internal/kernel"
	"github.com/agbru/cgbench/internal/logging"
	"github.com/agbru/cgbench/internal/report"
	"github.com/agbru/cgbench/internal/timing"
)

// Executor runs the timed phase.
type Executor struct {
	Kernel   kernel.Kernel
	MaxIters int
	Log      logging.Logger
	Subject  *Subject
}

// Execute runs the optimized solver sched.RepeatCount times from a zero
// initial guess with tolerance zero, accumulating every run into rec.
//
// Each run's scaled residual is stored in the sample set at its index, so
// every slot is written even when the solver reports an error. Solver errors
// are logged and counted but never stop the loop. The returned error is
// non-nil only when ctx is canceled between runs; the partial result is still
// returned.
func (e *Executor) Execute(ctx context.Context, sys *kernel.System, sched calibration.Schedule, rec *timing.Record) (TimedResult, error) {
	maxIters := e.MaxIters
	if maxIters <= 0 {
		maxIters = calibration.DefaultMaxIters
	}
	res := TimedResult{
		Samples:  NewSampleSet(sched.RepeatCount),
		RunTimes: report.NewRunTimeRecorder(),
	}
	name := "cg/" + e.Kernel.Variant().String()

	e.notify(Event{Stage: StageTimed, Runs: sched.RepeatCount, Estimate: sched.Estimated()})
	for i := 0; i < sched.RepeatCount; i++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		sys.ResetX()
		before := rec.Get(timing.PhaseTotal)
		out, err := e.Kernel.Solve(ctx, sys.Problem, sys.B, sys.X, maxIters, 0, rec)
		elapsed := rec.Get(timing.PhaseTotal) - before
		ratio := out.ScaledResidual()
		if err != nil {
			res.Errors++
			err = apperrors.AsKernelError(name, err)
			e.Log.Error("error in call to CG", err,
				logging.Int("call", i),
				logging.Float64("scaled_residual", ratio))
		}

		res.Samples.Set(i, ratio)
		res.TotalIterations += out.Iterations
		res.RunTimes.Record(elapsed)

		e.notify(Event{
			Stage:          StageTimed,
			Run:            i + 1,
			Runs:           sched.RepeatCount,
			ScaledResidual: ratio,
			Elapsed:        elapsed,
			Err:            err,
		})
	}
	e.notify(Event{Stage: StageTimed, Done: true, Runs: sched.RepeatCount})
	return res, nil
}

func (e *Executor) notify(ev Event) {
	if e.Subject != nil {
		e.Subject.Notify(ev)
	}
}
