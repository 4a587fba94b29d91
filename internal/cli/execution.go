package cli

import (
	"fmt"
	"io"
	"runtime"

	"github.com/agbru/cgbench/internal/config"
	"github.com/agbru/cgbench/internal/ui"
)

// PrintExecutionConfig displays the benchmark configuration before the run
// starts: problem size, budget and solver parameters, and the environment.
//
// Parameters:
//   - cfg: The application configuration.
//   - runID: The identifier of this run.
//   - out: The writer for standard output.
func PrintExecutionConfig(cfg config.AppConfig, runID string, out io.Writer) {
	reset := ui.ColorReset()
	mode := "exploratory"
	if cfg.Official {
		mode = "official"
	}
	fmt.Fprintf(out, "--- Execution Configuration ---\n")
	fmt.Fprintf(out, "Run %s%s%s: grid %s%dx%dx%d%s, %s budget of %s%s%s.\n",
		ui.ColorCyan(), runID, reset,
		ui.ColorMagenta(), cfg.NX, cfg.NY, cfg.NZ, reset,
		mode, ui.ColorYellow(), cfg.EffectiveBudget(), reset)
	fmt.Fprintf(out, "Solver: %d reference iterations, calibration cap x%d, %d probe calls, %d calibration run(s).\n",
		cfg.RefMaxIters, cfg.OptMultiplier, cfg.ProbeCalls, cfg.CalibrationRuns)
	fmt.Fprintf(out, "Environment: %s%d%s logical processors, %s%d%s workers, Go %s%s%s.\n",
		ui.ColorCyan(), runtime.NumCPU(), reset, ui.ColorCyan(), cfg.Workers, reset,
		ui.ColorCyan(), runtime.Version(), reset)
	fmt.Fprintf(out, "\n--- Starting Benchmark ---\n")
}
