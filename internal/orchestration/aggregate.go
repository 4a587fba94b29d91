package orchestration

import (
	"time"

	"github.com/agbru/cgbench/internal/kernel"
	"github.com/agbru/cgbench/internal/report"
	"github.com/agbru/cgbench/internal/timing"
	"github.com/agbru/cgbench/internal/validation"
)

// Meta is the run metadata stamped into the report.
type Meta struct {
	RunID     string
	Version   string
	StartedAt time.Time
	Elapsed   time.Duration
	Geometry  kernel.Geometry
	Machine   report.Machine
	MaxIters  int
}

// Aggregate merges the timing records, convergence results, failure tally
// and validation results of st into a report. Besides the three raw records
// it reports their sum and the per-run average of the timed record. It performs no I/O and never
// drops a signal: every counter of the tally appears in the report.
//
// The global failure flag is raised when any calibration run missed the
// target ratio or the normality test rejected the samples. The report passes
// only when there is no global failure and every error counter is zero.
func Aggregate(meta Meta, st *State) *report.Report {
	tally := st.Tally
	if tally.ToleranceFailureCount > 0 || tally.StatisticalRejection {
		tally.GlobalFailure = true
	}

	samples := st.Timed.Samples.Values()
	if samples == nil {
		samples = []float64{}
	}
	var runTimes report.RunTimes
	if st.Timed.RunTimes != nil {
		runTimes = st.Timed.RunTimes.Summary()
	}

	combined := st.Times
	combined.Merge(&st.RefTimes)
	combined.Merge(&st.OptTimes)

	tests := make([]validation.Result, 0, len(st.Symmetry)+2)
	tests = append(tests, st.Symmetry...)
	if st.CGTest.Name != "" {
		tests = append(tests, st.CGTest)
	}
	if st.Normality.Name != "" {
		tests = append(tests, st.Normality)
	}

	r := &report.Report{
		RunID:     meta.RunID,
		Version:   meta.Version,
		StartedAt: meta.StartedAt,
		Elapsed:   meta.Elapsed.Seconds(),
		Machine:   meta.Machine,
		Geometry: report.Geometry{
			Size:    meta.Geometry.Size,
			Rank:    meta.Geometry.Rank,
			Threads: meta.Geometry.Threads,
			NX:      meta.Geometry.NX,
			NY:      meta.Geometry.NY,
			NZ:      meta.Geometry.NZ,
		},
		Timings:            st.Times.Slots(),
		ReferenceTimings:   st.RefTimes.Slots(),
		CalibrationTimings: st.OptTimes.Slots(),
		CombinedTimings:    combined.Slots(),
		Convergence: report.Convergence{
			ReferenceIterations:    st.Baseline.Outcome.Iterations,
			TargetRatio:            st.Baseline.TargetRatio,
			OptimizedIterationCap:  st.Calibration.MaxIters,
			OptimizedMaxIterations: st.Calibration.Worst.Iterations(),
			CalibrationRuns:        st.Calibration.Worst.Runs(),
		},
		Schedule: report.Schedule{
			BudgetSeconds:   st.Schedule.Budget.Seconds(),
			WorstRunSeconds: st.Schedule.WorstRun.Seconds(),
			RepeatCount:     st.Schedule.RepeatCount,
			MaxIters:        meta.MaxIters,
			TotalIterations: st.Timed.TotalIterations,
		},
		RunTimes:                runTimes,
		ScaledResiduals:         samples,
		ExactSolutionDifference: st.ExactDifference,
		Validation:              tests,
		Failures: report.Failures{
			ProbeErrors:          tally.ProbeErrorCount,
			ReferenceErrors:      tally.ReferenceErrorCount,
			SolverErrors:         tally.SolverErrorCount,
			ToleranceFailures:    tally.ToleranceFailureCount,
			TimedErrors:          tally.TimedErrorCount,
			StatisticalRejection: tally.StatisticalRejection,
			CGTestFailures:       tally.CGTestFailureCount,
		},
		GlobalFailure: tally.GlobalFailure,
		Passed:        tally.Clean(),
	}
	if n := st.Schedule.RepeatCount; n > 0 {
		r.AverageTimings = make(map[string]float64, timing.NumPhases)
		for name, v := range r.Timings {
			r.AverageTimings[name] = v / float64(n)
		}
	}
	if total := st.Times.Seconds(timing.PhaseTotal); total > 0 {
		r.Schedule.IterationsPerSecond = float64(st.Timed.TotalIterations) / total
	}
	return r
}
