// Package report defines the benchmark report produced at the end of a run
// and the writers that serialize it.
package report

import (
	"time"

	"github.com/agbru/cgbench/internal/validation"
)

// Report is the complete record of one benchmark execution.
type Report struct {
	RunID     string    `json:"run_id" yaml:"run_id"`
	Version   string    `json:"version" yaml:"version"`
	StartedAt time.Time `json:"started_at" yaml:"started_at"`
	Elapsed   float64   `json:"elapsed_seconds" yaml:"elapsed_seconds"`

	Machine  Machine  `json:"machine" yaml:"machine"`
	Geometry Geometry `json:"geometry" yaml:"geometry"`

	// Timings holds the timed phase's record, keyed by phase name, in seconds.
	Timings map[string]float64 `json:"timings_seconds" yaml:"timings_seconds"`
	// ReferenceTimings holds the reference baseline's record.
	ReferenceTimings map[string]float64 `json:"reference_timings_seconds" yaml:"reference_timings_seconds"`
	// CalibrationTimings holds the optimized calibration's record.
	CalibrationTimings map[string]float64 `json:"calibration_timings_seconds" yaml:"calibration_timings_seconds"`
	// CombinedTimings is the sum of the three records above.
	CombinedTimings map[string]float64 `json:"combined_timings_seconds" yaml:"combined_timings_seconds"`
	// AverageTimings is the timed record divided by the number of timed
	// runs. It is absent when no run was scheduled.
	AverageTimings map[string]float64 `json:"average_timings_seconds,omitempty" yaml:"average_timings_seconds,omitempty"`

	Convergence Convergence `json:"convergence" yaml:"convergence"`
	Schedule    Schedule    `json:"schedule" yaml:"schedule"`
	RunTimes    RunTimes    `json:"run_times" yaml:"run_times"`

	// ScaledResiduals holds one sample per timed run.
	ScaledResiduals []float64 `json:"scaled_residuals" yaml:"scaled_residuals"`
	// ExactSolutionDifference is the infinity norm of x - xexact after the
	// last timed run.
	ExactSolutionDifference float64 `json:"exact_solution_difference" yaml:"exact_solution_difference"`

	Validation []validation.Result `json:"validation" yaml:"validation"`
	Failures   Failures            `json:"failures" yaml:"failures"`

	GlobalFailure bool `json:"global_failure" yaml:"global_failure"`
	Passed        bool `json:"passed" yaml:"passed"`
}

// Geometry mirrors kernel.Geometry in the report.
type Geometry struct {
	Size    int `json:"size" yaml:"size"`
	Rank    int `json:"rank" yaml:"rank"`
	Threads int `json:"threads" yaml:"threads"`
	NX      int `json:"nx" yaml:"nx"`
	NY      int `json:"ny" yaml:"ny"`
	NZ      int `json:"nz" yaml:"nz"`
}

// Convergence records what the reference and optimized solvers achieved.
type Convergence struct {
	ReferenceIterations    int     `json:"reference_iterations" yaml:"reference_iterations"`
	TargetRatio            float64 `json:"target_ratio" yaml:"target_ratio"`
	OptimizedIterationCap  int     `json:"optimized_iteration_cap" yaml:"optimized_iteration_cap"`
	OptimizedMaxIterations int     `json:"optimized_max_iterations" yaml:"optimized_max_iterations"`
	CalibrationRuns        int     `json:"calibration_runs" yaml:"calibration_runs"`
}

// Schedule records the timed phase plan and what it produced.
type Schedule struct {
	BudgetSeconds       float64 `json:"budget_seconds" yaml:"budget_seconds"`
	WorstRunSeconds     float64 `json:"worst_run_seconds" yaml:"worst_run_seconds"`
	RepeatCount         int     `json:"repeat_count" yaml:"repeat_count"`
	MaxIters            int     `json:"max_iters" yaml:"max_iters"`
	TotalIterations     int     `json:"total_iterations" yaml:"total_iterations"`
	IterationsPerSecond float64 `json:"iterations_per_second" yaml:"iterations_per_second"`
}

// Failures is the failure tally of the run.
type Failures struct {
	ProbeErrors          int  `json:"probe_errors" yaml:"probe_errors"`
	ReferenceErrors      int  `json:"reference_errors" yaml:"reference_errors"`
	SolverErrors         int  `json:"solver_errors" yaml:"solver_errors"`
	ToleranceFailures    int  `json:"tolerance_failures" yaml:"tolerance_failures"`
	TimedErrors          int  `json:"timed_errors" yaml:"timed_errors"`
	StatisticalRejection bool `json:"statistical_rejection" yaml:"statistical_rejection"`
	CGTestFailures       int  `json:"cg_test_failures" yaml:"cg_test_failures"`
}

// Total returns the sum of all error counters.
func (f Failures) Total() int {
	return f.ProbeErrors + f.ReferenceErrors + f.SolverErrors + f.ToleranceFailures + f.TimedErrors + f.CGTestFailures
}

// Test returns the validation result with the given name.
func (r *Report) Test(name string) (validation.Result, bool) {
	for _, v := range r.Validation {
		if v.Name == name {
			return v, true
		}
	}
	return validation.Result{}, false
}
