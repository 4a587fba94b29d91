// Package config provides the configuration management for the cgbench
// application. It defines the data structure for the configuration, handles
// the parsing of command-line arguments, environment variables and an optional
// YAML file, and performs validation on the resulting values.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"runtime"
	"strings"
	"time"

	"github.com/agbru/cgbench/internal/calibration"
	apperrors "github.com/agbru/cgbench/internal/errors"
	"github.com/agbru/cgbench/internal/kernel"
	"github.com/agbru/cgbench/internal/logging"
	"github.com/agbru/cgbench/internal/orchestration"
	"github.com/agbru/cgbench/internal/report"
)

const (
	// EnvPrefix is the prefix for all environment variables used by cgbench.
	// Environment variables provide an alternative to CLI flags for configuration,
	// following the 12-Factor App methodology.
	EnvPrefix = "CGBENCH_"
)

// Default configuration values.
// These can be overridden via a YAML file, environment variables or
// command-line flags.
const (
	// DefaultGridDim is the default local grid size along each axis.
	DefaultGridDim = 16
	// DefaultFormat is the default report format.
	DefaultFormat = report.FormatYAML
	// DefaultLogLevel is the default log level.
	DefaultLogLevel = "info"
	// DefaultLogFormat is the default log format.
	DefaultLogFormat = "json"
	// DefaultTheme is the default color theme.
	DefaultTheme = "dark"
)

// AppConfig aggregates the application's configuration parameters. It
// encapsulates every setting that controls a benchmark execution, from the
// problem size to the reporting and observability surfaces.
type AppConfig struct {
	// NX, NY and NZ are the local grid dimensions.
	NX, NY, NZ int
	// Workers is the number of goroutines the optimized kernel may use.
	Workers int

	// Budget is the wall-clock budget for the timed phase.
	Budget time.Duration
	// Official selects the official five-hour budget, overriding Budget.
	Official bool
	// Timeout, when positive, is a hard deadline for the whole run.
	Timeout time.Duration

	// RefMaxIters is the reference solver's iteration count.
	RefMaxIters int
	// OptMultiplier caps optimized calibration iterations at
	// OptMultiplier * RefMaxIters.
	OptMultiplier int
	// ProbeCalls is the number of SpMV and preconditioner probe calls.
	ProbeCalls int
	// CalibrationRuns is the number of optimized calibration runs.
	CalibrationRuns int
	// Seed seeds the probe and symmetry test vectors.
	Seed uint64

	// ReportPath is where the report is written. Empty means a timestamped
	// file in the working directory.
	ReportPath string
	// Format is the report format, "yaml" or "json".
	Format string
	// MetricsAddr, if set, serves /metrics, /health and /report on that
	// address while the benchmark runs.
	MetricsAddr string

	// LogLevel is the minimum log level.
	LogLevel string
	// LogFormat is "json" or "console".
	LogFormat string
	// NoColor, if true, disables all color output in the CLI.
	// Also respects the NO_COLOR environment variable.
	NoColor bool
	// Theme is the CLI color theme: "dark", "light" or "none".
	Theme string
	// Quiet suppresses the progress display and the summary table.
	Quiet bool
	// ShowVersion prints the version and exits.
	ShowVersion bool
	// Completion, if set, names the shell whose completion script is
	// printed instead of running the benchmark.
	Completion string

	// ConfigFile is the optional YAML configuration file.
	ConfigFile string
}

// EffectiveBudget returns the timed phase budget, taking Official into
// account.
func (c AppConfig) EffectiveBudget() time.Duration {
	if c.Official {
		return calibration.OfficialBudget
	}
	return c.Budget
}

// Geometry returns the single-partition geometry described by the
// configuration.
func (c AppConfig) Geometry() kernel.Geometry {
	return kernel.Geometry{Size: 1, Rank: 0, Threads: c.Workers, NX: c.NX, NY: c.NY, NZ: c.NZ}
}

// ToDriverOptions converts the application configuration into the options
// of the benchmark driver.
func (c AppConfig) ToDriverOptions(runID, version string) orchestration.Options {
	return orchestration.Options{
		Geometry:        c.Geometry(),
		Budget:          c.EffectiveBudget(),
		ProbeCalls:      c.ProbeCalls,
		Seed:            c.Seed,
		MaxIters:        c.RefMaxIters,
		IterMultiplier:  c.OptMultiplier,
		CalibrationRuns: c.CalibrationRuns,
		RunID:           runID,
		Version:         version,
	}
}

// LoggingOptions converts the logging settings into logging.Options.
func (c AppConfig) LoggingOptions(out io.Writer) logging.Options {
	return logging.Options{Level: c.LogLevel, Format: c.LogFormat, NoColor: c.NoColor, Out: out}
}

// Validate checks the semantic consistency of the configuration parameters.
//
// Returns:
//   - error: An error of type ConfigError if the configuration is invalid,
//     nil otherwise.
func (c AppConfig) Validate() error {
	if c.NX <= 0 || c.NY <= 0 || c.NZ <= 0 {
		return apperrors.NewConfigError("grid dimensions must be strictly positive: %dx%dx%d", c.NX, c.NY, c.NZ)
	}
	if c.Workers <= 0 {
		return apperrors.NewConfigError("workers must be strictly positive: %d", c.Workers)
	}
	if !c.Official && c.Budget <= 0 {
		return apperrors.NewConfigError("budget must be strictly positive")
	}
	if c.Timeout < 0 {
		return apperrors.NewConfigError("timeout cannot be negative")
	}
	if c.RefMaxIters <= 0 {
		return apperrors.NewConfigError("reference iteration count must be strictly positive: %d", c.RefMaxIters)
	}
	if c.OptMultiplier <= 0 {
		return apperrors.NewConfigError("optimized iteration multiplier must be strictly positive: %d", c.OptMultiplier)
	}
	if c.ProbeCalls <= 0 {
		return apperrors.NewConfigError("probe calls must be strictly positive: %d", c.ProbeCalls)
	}
	if c.CalibrationRuns <= 0 {
		return apperrors.NewConfigError("calibration runs must be strictly positive: %d", c.CalibrationRuns)
	}
	if _, err := report.NewWriter(c.Format, io.Discard); err != nil {
		return apperrors.NewConfigError("unrecognized report format: '%s'. Valid formats are: yaml, json", c.Format)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return apperrors.NewConfigError("unrecognized log level: '%s'", c.LogLevel)
	}
	if c.LogFormat != "json" && c.LogFormat != "console" {
		return apperrors.NewConfigError("unrecognized log format: '%s'. Valid formats are: json, console", c.LogFormat)
	}
	switch c.Theme {
	case "dark", "light", "none":
	default:
		return apperrors.NewConfigError("unrecognized theme: '%s'. Valid themes are: dark, light, none", c.Theme)
	}
	return nil
}

// ParseConfig parses the command-line arguments and populates an AppConfig
// struct. It defines all the command-line flags, sets their default values, and
// handles the parsing process. Values not given on the command line are then
// taken from the environment, and failing that from the YAML file named by
// -config (or CGBENCH_CONFIG). The resulting configuration is validated.
//
// Parameters:
//   - programName: The name of the program, used in the usage message.
//   - args: A slice of strings representing the command-line arguments
//     (typically os.Args[1:]).
//   - errorWriter: An io.Writer where parsing errors and usage information
//     will be printed.
//
// Returns:
//   - AppConfig: The populated configuration struct.
//   - error: An error if flag parsing, file loading or validation fails.
func ParseConfig(programName string, args []string, errorWriter io.Writer) (AppConfig, error) {
	fs := flag.NewFlagSet(programName, flag.ContinueOnError)
	fs.SetOutput(errorWriter)

	config := AppConfig{}
	fs.IntVar(&config.NX, "nx", DefaultGridDim, "Local grid size along x.")
	fs.IntVar(&config.NY, "ny", DefaultGridDim, "Local grid size along y.")
	fs.IntVar(&config.NZ, "nz", DefaultGridDim, "Local grid size along z.")
	fs.IntVar(&config.Workers, "workers", runtime.NumCPU(), "Goroutines used by the optimized kernel.")
	fs.DurationVar(&config.Budget, "budget", calibration.ExploratoryBudget, "Wall-clock budget for the timed phase.")
	fs.BoolVar(&config.Official, "official", false, "Use the official benchmark budget (5h).")
	fs.DurationVar(&config.Timeout, "timeout", 0, "Hard deadline for the whole run (0 for none).")
	fs.IntVar(&config.RefMaxIters, "ref-max-iters", calibration.DefaultMaxIters, "Iterations of the reference solver.")
	fs.IntVar(&config.OptMultiplier, "opt-multiplier", calibration.DefaultIterMultiplier, "Cap on optimized calibration iterations, as a multiple of -ref-max-iters.")
	fs.IntVar(&config.ProbeCalls, "probe-calls", calibration.DefaultProbeCalls, "SpMV and preconditioner calls in the kernel probe.")
	fs.IntVar(&config.CalibrationRuns, "calibration-runs", calibration.DefaultCalibrationRuns, "Optimized calibration runs.")
	fs.Uint64Var(&config.Seed, "seed", calibration.DefaultSeed, "Seed of the probe and symmetry test vectors.")
	fs.StringVar(&config.ReportPath, "report", "", "Report output path (default: cgbench-<timestamp>.<format>).")
	fs.StringVar(&config.Format, "format", DefaultFormat, "Report format: yaml or json.")
	fs.StringVar(&config.MetricsAddr, "metrics-addr", "", "Serve /metrics, /health and /report on this address while running.")
	fs.StringVar(&config.LogLevel, "log-level", DefaultLogLevel, "Log level: debug, info, warn, error.")
	fs.StringVar(&config.LogFormat, "log-format", DefaultLogFormat, "Log format: json or console.")
	fs.BoolVar(&config.NoColor, "no-color", false, "Disable colored output (also respects NO_COLOR env var).")
	fs.StringVar(&config.Theme, "theme", DefaultTheme, "Color theme: dark, light or none.")
	fs.BoolVar(&config.Quiet, "quiet", false, "Quiet mode - no progress display or summary.")
	fs.BoolVar(&config.Quiet, "q", false, "Quiet mode (shorthand).")
	fs.BoolVar(&config.ShowVersion, "version", false, "Print the version and exit.")
	fs.StringVar(&config.ConfigFile, "config", "", "YAML configuration file.")
	fs.StringVar(&config.Completion, "completion", "", "Print a completion script for bash, zsh or fish and exit.")

	setCustomUsage(fs)

	if err := fs.Parse(args); err != nil {
		return AppConfig{}, err
	}

	if !isFlagSet(fs, "config") {
		config.ConfigFile = getEnvString("CONFIG", config.ConfigFile)
	}
	if config.ConfigFile != "" {
		if err := applyFile(&config, fs, config.ConfigFile); err != nil {
			fmt.Fprintln(errorWriter, "Configuration error:", err)
			return AppConfig{}, err
		}
	}

	// Apply environment variable overrides for flags not explicitly set
	applyEnvOverrides(&config, fs)

	config.Format = strings.ToLower(config.Format)
	config.LogLevel = strings.ToLower(config.LogLevel)
	if config.ShowVersion || config.Completion != "" {
		return config, nil
	}
	if err := config.Validate(); err != nil {
		fmt.Fprintln(errorWriter, "Configuration error:", err)
		fs.Usage()
		return AppConfig{}, errors.Join(errors.New("invalid configuration"), err)
	}
	return config, nil
}
