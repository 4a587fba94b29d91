package orchestration

import (
	"github.com/agbru/cgbench/internal/calibration"
	"github.com/agbru/cgbench/internal/kernel"
	"github.com/agbru/cgbench/internal/report"
	"github.com/agbru/cgbench/internal/timing"
	"github.com/agbru/cgbench/internal/validation"
)

// SampleSet holds one scaled residual per timed run. It is sized once from
// the repeat count and never resized.
type SampleSet struct {
	values []float64
}

// NewSampleSet allocates a sample set for n runs.
func NewSampleSet(n int) SampleSet {
	return SampleSet{values: make([]float64, n)}
}

// Set stores the sample of run i.
func (s SampleSet) Set(i int, v float64) { s.values[i] = v }

// Len returns the number of slots.
func (s SampleSet) Len() int { return len(s.values) }

// Values returns the backing slice. It is shared, not copied, so the
// normality test sees exactly what the executor wrote.
func (s SampleSet) Values() []float64 { return s.values }

// FailureTally accumulates failure signals across phases. Nothing in it
// stops the benchmark; it is only surfaced in the report.
type FailureTally struct {
	// SolverErrorCount counts optimized calibration solver errors.
	SolverErrorCount int
	// ToleranceFailureCount counts calibration runs that missed the target.
	ToleranceFailureCount int
	// GlobalFailure is set by a tolerance failure or a statistical rejection.
	GlobalFailure bool

	ProbeErrorCount      int
	ReferenceErrorCount  int
	TimedErrorCount      int
	StatisticalRejection bool
	// CGTestFailureCount counts CG test solves that did not converge.
	CGTestFailureCount int
}

// Clean reports whether the run passes: no global failure and every counter
// at zero.
func (t FailureTally) Clean() bool {
	return !t.GlobalFailure && !t.StatisticalRejection &&
		t.SolverErrorCount == 0 && t.ToleranceFailureCount == 0 &&
		t.ProbeErrorCount == 0 && t.ReferenceErrorCount == 0 && t.TimedErrorCount == 0 &&
		t.CGTestFailureCount == 0
}

// State is everything one benchmark execution reads and writes. The driver
// creates a fresh State per run.
type State struct {
	System *kernel.System

	// Times is the main record: setup, probe and the timed runs.
	Times timing.Record
	// RefTimes is written by the reference baseline.
	RefTimes timing.Record
	// OptTimes is written by the optimized calibration.
	OptTimes timing.Record

	Tally FailureTally

	Probe       calibration.ProbeResult
	Baseline    calibration.Baseline
	Calibration calibration.Result
	Schedule    calibration.Schedule

	Timed     TimedResult
	Symmetry  []validation.Result
	CGTest    validation.Result
	Normality validation.Result

	ExactDifference float64
}

// NewState returns an empty state.
func NewState() *State {
	return &State{}
}

// TimedResult is what the timed executor produces.
type TimedResult struct {
	Samples         SampleSet
	TotalIterations int
	Errors          int
	RunTimes        *report.RunTimeRecorder
}
