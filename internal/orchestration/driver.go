package orchestration

import (
	"context"
	"errors"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/agbru/cgbench/internal/calibration"
	apperrors "github.com/agbru/cgbench/internal/errors"
	"github.com/agbru/cgbench/internal/kernel"
	"github.com/agbru/cgbench/internal/logging"
	"github.com/agbru/cgbench/internal/report"
	"github.com/agbru/cgbench/internal/timing"
	"github.com/agbru/cgbench/internal/validation"
)

// SymmetryChecker validates that a kernel's operators are symmetric.
type SymmetryChecker interface {
	Check(ctx context.Context, k kernel.Kernel, halo kernel.HaloExchanger, p kernel.Problem) ([]validation.Result, error)
}

// ConvergenceChecker validates that kernels reduce the residual of a system.
type ConvergenceChecker interface {
	Check(ctx context.Context, sys *kernel.System, kernels ...kernel.Kernel) (validation.Result, error)
}

// Collaborators are the implementations the driver exercises.
type Collaborators struct {
	Builder   kernel.Builder
	Halo      kernel.HaloExchanger
	Reference kernel.Kernel
	Optimized kernel.Kernel
	// Normality defaults to validation.NormsTest.
	Normality validation.NormalityTest
	// Symmetry is optional; when nil the symmetry stage is skipped.
	Symmetry SymmetryChecker
	// Convergence is optional; when nil the CG test stage is skipped.
	Convergence ConvergenceChecker
	// Writer is optional; when nil the report is only returned.
	Writer report.Writer
}

// Options are the benchmark parameters.
type Options struct {
	Geometry        kernel.Geometry
	Budget          time.Duration
	ProbeCalls      int
	Seed            uint64
	MaxIters        int
	IterMultiplier  int
	CalibrationRuns int
	RunID           string
	Version         string
}

// Driver sequences the benchmark: setup, symmetry check, CG test, kernel probe,
// reference baseline, optimized calibration, scheduling, timed runs,
// validation and reporting. Phases run strictly one after another.
type Driver struct {
	c       Collaborators
	opts    Options
	log     logging.Logger
	subject *Subject
	machine func() report.Machine
}

// NewDriver creates a driver. A nil subject disables progress events.
func NewDriver(c Collaborators, opts Options, log logging.Logger, subject *Subject) *Driver {
	if c.Normality == nil {
		c.Normality = validation.NormsTest{}
	}
	if opts.Budget <= 0 {
		opts.Budget = calibration.ExploratoryBudget
	}
	if opts.MaxIters <= 0 {
		opts.MaxIters = calibration.DefaultMaxIters
	}
	if subject == nil {
		subject = NewSubject()
	}
	return &Driver{c: c, opts: opts, log: log, subject: subject, machine: report.DetectMachine}
}

// Run executes one complete benchmark and returns its report.
//
// Kernel errors, tolerance failures and statistical rejection never abort
// the run; they are tallied into the report. Run returns an error only when
// the problem cannot be built or optimized, when the report cannot be
// written, or when ctx is canceled, in which case it stops between kernel
// calls and returns the context's error.
func (d *Driver) Run(ctx context.Context) (*report.Report, error) {
	start := time.Now()
	st := NewState()

	if err := d.setup(ctx, st); err != nil {
		return nil, err
	}
	sys := st.System

	if d.c.Symmetry != nil {
		d.begin(StageSymmetry)
		results, err := d.c.Symmetry.Check(ctx, d.c.Optimized, d.c.Halo, sys.Problem)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			d.log.Error("symmetry test could not complete", err)
			results = append(results, validation.Result{Name: "symmetry", Detail: err.Error()})
		}
		st.Symmetry = results
		d.end(StageSymmetry, 0)
	}

	if d.c.Convergence != nil {
		d.begin(StageCGTest)
		res, err := d.c.Convergence.Check(ctx, sys, d.c.Reference, d.c.Optimized)
		if err != nil {
			return nil, err
		}
		st.CGTest = res
		st.Tally.CGTestFailureCount = res.FailCount
		if res.FailCount > 0 {
			d.log.Error("CG test failed", errors.New(res.Detail),
				logging.Int("pass_count", res.PassCount),
				logging.Int("fail_count", res.FailCount))
		}
		d.subject.Notify(Event{Stage: StageCGTest, Done: true, Failed: res.FailCount > 0})
	}

	d.begin(StageProbe)
	probe, err := calibration.Probe(ctx, d.c.Reference, d.c.Halo, sys.Problem,
		calibration.ProbeOptions{Calls: d.opts.ProbeCalls, Seed: d.opts.Seed}, &st.Times, d.log)
	if err != nil {
		return nil, err
	}
	st.Probe = probe
	st.Tally.ProbeErrorCount = probe.Errors
	d.end(StageProbe, probe.Errors)

	d.begin(StageBaseline)
	baseline, err := calibration.RunBaseline(ctx, d.c.Reference, sys, d.opts.MaxIters, &st.RefTimes, d.log)
	if err != nil {
		return nil, err
	}
	st.Baseline = baseline
	if baseline.Err != nil {
		st.Tally.ReferenceErrorCount++
	}
	d.end(StageBaseline, st.Tally.ReferenceErrorCount)

	d.begin(StageCalibration)
	cal, err := calibration.Calibrate(ctx, d.c.Optimized, sys, baseline.TargetRatio, calibration.Options{
		MaxIters:   d.opts.MaxIters,
		Multiplier: d.opts.IterMultiplier,
		Runs:       d.opts.CalibrationRuns,
	}, &st.OptTimes, d.log)
	if err != nil {
		return nil, err
	}
	st.Calibration = cal
	st.Tally.SolverErrorCount = cal.SolverErrors
	st.Tally.ToleranceFailureCount = len(cal.ToleranceFailures)
	if cal.Failed() {
		st.Tally.GlobalFailure = true
	}
	d.end(StageCalibration, cal.SolverErrors)

	st.Schedule = calibration.NewSchedule(d.opts.Budget, cal.Worst.RunTime())
	d.log.Info("benchmark scheduled",
		logging.Int("repeat_count", st.Schedule.RepeatCount),
		logging.Float64("worst_run_seconds", st.Schedule.WorstRun.Seconds()),
		logging.Float64("estimated_seconds", st.Schedule.Estimated().Seconds()),
		logging.Float64("budget_seconds", st.Schedule.Budget.Seconds()))

	exec := &Executor{Kernel: d.c.Optimized, MaxIters: d.opts.MaxIters, Log: d.log, Subject: d.subject}
	timed, err := exec.Execute(ctx, sys, st.Schedule, &st.Times)
	if err != nil {
		return nil, err
	}
	st.Timed = timed
	st.Tally.TimedErrorCount = timed.Errors

	d.validate(st)

	rep := Aggregate(Meta{
		RunID:     d.opts.RunID,
		Version:   d.opts.Version,
		StartedAt: start,
		Elapsed:   time.Since(start),
		Geometry:  d.opts.Geometry,
		Machine:   d.machine(),
		MaxIters:  d.opts.MaxIters,
	}, st)

	if d.c.Writer != nil {
		d.begin(StageReport)
		if err := d.c.Writer.Write(rep); err != nil {
			return rep, apperrors.WrapError(err, "writing report")
		}
		d.end(StageReport, 0)
	}
	return rep, nil
}

// setup builds the problem and runs the optional optimization hook, timing
// it into the setup slot.
func (d *Driver) setup(ctx context.Context, st *State) error {
	d.begin(StageSetup)
	sys, err := d.c.Builder.Build(ctx, d.opts.Geometry)
	if err != nil {
		return apperrors.WrapError(err, "building problem")
	}
	st.System = sys

	if opt, ok := d.c.Optimized.(kernel.Optimizer); ok {
		t0 := time.Now()
		err := opt.Optimize(ctx, sys)
		st.Times.Accumulate(timing.PhaseSetup, time.Since(t0))
		if err != nil {
			return apperrors.WrapError(apperrors.AsKernelError("optimize", err), "optimizing problem")
		}
	}
	d.log.Debug("problem setup complete",
		logging.Int("rows", sys.Problem.Rows()),
		logging.Int("columns", sys.Problem.Columns()),
		logging.Float64("optimize_seconds", st.Times.Seconds(timing.PhaseSetup)))
	d.end(StageSetup, 0)
	return nil
}

// validate measures the distance to the exact solution and runs the
// normality test on the timed samples.
func (d *Driver) validate(st *State) {
	d.begin(StageValidation)
	sys := st.System
	if n := sys.Problem.Rows(); len(sys.X) >= n && len(sys.XExact) >= n {
		st.ExactDifference = floats.Distance(sys.X[:n], sys.XExact[:n], math.Inf(1))
		d.log.Debug("difference between computed and exact solution",
			logging.Float64("difference", st.ExactDifference))
	}

	st.Normality = d.c.Normality.Evaluate(st.Timed.Samples.Values())
	if !st.Normality.Passed {
		st.Tally.StatisticalRejection = true
		st.Tally.GlobalFailure = true
		d.log.Error("timed samples rejected",
			apperrors.StatisticalRejection{Test: st.Normality.Name, Reason: st.Normality.Detail})
	}
	d.subject.Notify(Event{Stage: StageValidation, Done: true, Failed: st.Tally.GlobalFailure})
}

func (d *Driver) begin(s Stage) {
	d.subject.Notify(Event{Stage: s})
}

func (d *Driver) end(s Stage, errs int) {
	d.subject.Notify(Event{Stage: s, Done: true, Errors: errs})
}
