package cli

import (
	"fmt"
	"io"
	"math"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/agbru/cgbench/internal/report"
	"github.com/agbru/cgbench/internal/timing"
	"github.com/agbru/cgbench/internal/ui"
)

// StatusLabel returns the colored PASSED or FAILED label for a report.
func StatusLabel(r *report.Report) string {
	return ui.Status(r.Passed, "PASSED", "FAILED")
}

// DisplaySummary prints the human-readable summary of a benchmark report:
// per-phase timings for the three timing records, convergence and schedule
// figures, validation results, the failure tally and the final status.
//
// Parameters:
//   - r: The aggregated report.
//   - reportPath: Where the full report was written, or "" if it was not.
//   - out: The io.Writer for the summary.
func DisplaySummary(r *report.Report, reportPath string, out io.Writer) {
	bold, reset := ui.ColorBold(), ui.ColorReset()

	fmt.Fprintf(out, "\n%s--- Benchmark Summary ---%s\n", bold, reset)
	fmt.Fprintf(out, "Run %s%s%s on %s/%s, %d CPUs, grid %dx%dx%d, %d workers.\n",
		ui.ColorCyan(), r.RunID, reset, r.Machine.GOOS, r.Machine.GOARCH, r.Machine.NumCPU,
		r.Geometry.NX, r.Geometry.NY, r.Geometry.NZ, r.Geometry.Threads)

	fmt.Fprintf(out, "\n%sTimings (seconds)%s\n", bold, reset)
	tw := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "Phase\tTimed\tPer run\tReference\tCalibration\tAll")
	fmt.Fprintln(tw, "-----\t-----\t-------\t---------\t-----------\t---")
	for _, ph := range timing.Phases() {
		name := ph.String()
		fmt.Fprintf(tw, "%s\t%.6f\t%.6f\t%.6f\t%.6f\t%.6f\n", name, r.Timings[name], r.AverageTimings[name],
			r.ReferenceTimings[name], r.CalibrationTimings[name], r.CombinedTimings[name])
	}
	tw.Flush()

	c := r.Convergence
	fmt.Fprintf(out, "\n%sConvergence%s\n", bold, reset)
	tw = tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintf(tw, "Reference iterations\t%d\n", c.ReferenceIterations)
	fmt.Fprintf(tw, "Target ratio\t%.6e\n", c.TargetRatio)
	fmt.Fprintf(tw, "Optimized iteration cap\t%d\n", c.OptimizedIterationCap)
	fmt.Fprintf(tw, "Optimized iterations (worst)\t%d\n", c.OptimizedMaxIterations)
	fmt.Fprintf(tw, "Exact solution difference\t%.6e\n", r.ExactSolutionDifference)
	if n, ok := r.Test("norms"); ok && n.Samples > 0 {
		fmt.Fprintf(tw, "Scaled residual mean/variance\t%.6e / %.6e\n", n.Mean, n.Variance)
	}
	tw.Flush()

	s := r.Schedule
	fmt.Fprintf(out, "\n%sSchedule%s\n", bold, reset)
	tw = tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintf(tw, "Budget\t%s\n", seconds(s.BudgetSeconds))
	fmt.Fprintf(tw, "Worst calibration run\t%s\n", seconds(s.WorstRunSeconds))
	fmt.Fprintf(tw, "Timed runs\t%d\n", s.RepeatCount)
	fmt.Fprintf(tw, "Iterations\t%d (%.1f/s)\n", s.TotalIterations, s.IterationsPerSecond)
	if r.RunTimes.Count > 0 {
		rt := r.RunTimes
		fmt.Fprintf(tw, "Run time p50/p90/p99/max\t%s / %s / %s / %s\n",
			seconds(rt.P50Seconds), seconds(rt.P90Seconds), seconds(rt.P99Seconds), seconds(rt.MaxSeconds))
	}
	tw.Flush()

	if len(r.Validation) > 0 {
		fmt.Fprintf(out, "\n%sValidation%s\n", bold, reset)
		tw = tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
		fmt.Fprintln(tw, "Test\tStatus\tValue\tDetail")
		fmt.Fprintln(tw, "----\t------\t-----\t------")
		for _, v := range r.Validation {
			status := ui.Status(v.Passed, "OK", "FAIL")
			value := v.Value
			detail := v.Detail
			switch {
			case v.Name == "norms":
				value = v.Variance
			case v.PassCount+v.FailCount > 0:
				detail = strings.TrimSpace(fmt.Sprintf("%d passed, %d failed. %s", v.PassCount, v.FailCount, v.Detail))
			}
			fmt.Fprintf(tw, "%s\t%s\t%.3e\t%s\n", v.Name, status, value, detail)
		}
		tw.Flush()
	}

	f := r.Failures
	if f.Total() > 0 || f.StatisticalRejection {
		fmt.Fprintf(out, "\n%sFailures%s\n", bold, reset)
		tw = tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
		fmt.Fprintf(tw, "Probe errors\t%d\n", f.ProbeErrors)
		fmt.Fprintf(tw, "Reference errors\t%d\n", f.ReferenceErrors)
		fmt.Fprintf(tw, "Calibration solver errors\t%d\n", f.SolverErrors)
		fmt.Fprintf(tw, "Tolerance failures\t%d\n", f.ToleranceFailures)
		fmt.Fprintf(tw, "Timed run errors\t%d\n", f.TimedErrors)
		fmt.Fprintf(tw, "CG test failures\t%d\n", f.CGTestFailures)
		fmt.Fprintf(tw, "Statistical rejection\t%t\n", f.StatisticalRejection)
		tw.Flush()
	}

	fmt.Fprintf(out, "\nGlobal status: %s", StatusLabel(r))
	if r.GlobalFailure {
		fmt.Fprintf(out, " %s(global failure)%s", ui.ColorYellow(), reset)
	}
	fmt.Fprintln(out)
	if reportPath != "" {
		fmt.Fprintf(out, "Report written to %s%s%s\n", ui.ColorCyan(), reportPath, reset)
	}
}

// FormatQuietResult formats a report as a single line suitable for
// scripting: the status, the run ID, the number of timed runs and the report
// path when there is one.
func FormatQuietResult(r *report.Report, reportPath string) string {
	status := "PASSED"
	if !r.Passed {
		status = "FAILED"
	}
	line := fmt.Sprintf("%s %s runs=%d", status, r.RunID, r.Schedule.RepeatCount)
	if reportPath != "" {
		line += " report=" + reportPath
	}
	return line
}

// DisplayQuietResult prints FormatQuietResult to out.
func DisplayQuietResult(out io.Writer, r *report.Report, reportPath string) {
	fmt.Fprintln(out, FormatQuietResult(r, reportPath))
}

func seconds(s float64) string {
	return FormatExecutionDuration(time.Duration(math.Round(s * float64(time.Second))))
}
