package config

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"time"
)

// ─────────────────────────────────────────────────────────────────────────────
// Environment Variable Utilities
// ─────────────────────────────────────────────────────────────────────────────

// getEnvString returns the value of CGBENCH_<key>, or defaultVal if it is
// unset or empty.
func getEnvString(key, defaultVal string) string {
	if val, ok := os.LookupEnv(EnvPrefix + key); ok && val != "" {
		return val
	}
	return defaultVal
}

// getEnvParsed returns CGBENCH_<key> converted by parse, or defaultVal if the
// variable is unset or does not parse.
func getEnvParsed[T any](key string, defaultVal T, parse func(string) (T, error)) T {
	val := getEnvString(key, "")
	if val == "" {
		return defaultVal
	}
	parsed, err := parse(val)
	if err != nil {
		return defaultVal
	}
	return parsed
}

func getEnvInt(key string, defaultVal int) int {
	return getEnvParsed(key, defaultVal, strconv.Atoi)
}

func getEnvUint64(key string, defaultVal uint64) uint64 {
	return getEnvParsed(key, defaultVal, func(s string) (uint64, error) {
		return strconv.ParseUint(s, 10, 64)
	})
}

// getEnvDuration accepts formats like "5m", "30s", "1h30m".
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	return getEnvParsed(key, defaultVal, time.ParseDuration)
}

// getEnvBool accepts "true", "1", "yes" as true and "false", "0", "no" as
// false (case-insensitive).
func getEnvBool(key string, defaultVal bool) bool {
	return getEnvParsed(key, defaultVal, parseBool)
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "true", "1", "yes":
		return true, nil
	case "false", "0", "no":
		return false, nil
	}
	return false, strconv.ErrSyntax
}

// isFlagSet checks if a flag was explicitly set on the command line.
// This is used to determine whether to apply environment variable overrides.
func isFlagSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

// applyEnvOverrides applies environment variable values to the configuration
// for any flags that were not explicitly set on the command line.
// This implements the priority: CLI flags > Environment variables > YAML file > Defaults.
//
// Supported environment variables:
//   - CGBENCH_NX, CGBENCH_NY, CGBENCH_NZ: Local grid dimensions (int)
//   - CGBENCH_WORKERS: Optimized kernel goroutines (int)
//   - CGBENCH_BUDGET: Timed phase budget (duration: "60s", "5h")
//   - CGBENCH_OFFICIAL: Use the official budget (bool: true/false, 1/0, yes/no)
//   - CGBENCH_TIMEOUT: Hard deadline for the run (duration)
//   - CGBENCH_REF_MAX_ITERS: Reference solver iterations (int)
//   - CGBENCH_OPT_MULTIPLIER: Optimized iteration cap multiplier (int)
//   - CGBENCH_PROBE_CALLS: Kernel probe calls (int)
//   - CGBENCH_CALIBRATION_RUNS: Optimized calibration runs (int)
//   - CGBENCH_SEED: Vector seed (uint64)
//   - CGBENCH_REPORT: Report output path (string)
//   - CGBENCH_FORMAT: Report format (string: yaml, json)
//   - CGBENCH_METRICS_ADDR: Metrics server address (string)
//   - CGBENCH_LOG_LEVEL, CGBENCH_LOG_FORMAT: Logging (string)
//   - CGBENCH_THEME: Color theme (string)
//   - CGBENCH_NO_COLOR: Disable colored output (bool)
//   - CGBENCH_QUIET: Enable quiet mode (bool)
//   - CGBENCH_CONFIG: YAML configuration file (string)
func applyEnvOverrides(config *AppConfig, fs *flag.FlagSet) {
	applyNumericOverrides(config, fs)
	applyDurationOverrides(config, fs)
	applyStringOverrides(config, fs)
	applyBooleanOverrides(config, fs)
}

func applyNumericOverrides(config *AppConfig, fs *flag.FlagSet) {
	ints := []struct {
		flag, env string
		dst       *int
	}{
		{"nx", "NX", &config.NX},
		{"ny", "NY", &config.NY},
		{"nz", "NZ", &config.NZ},
		{"workers", "WORKERS", &config.Workers},
		{"ref-max-iters", "REF_MAX_ITERS", &config.RefMaxIters},
		{"opt-multiplier", "OPT_MULTIPLIER", &config.OptMultiplier},
		{"probe-calls", "PROBE_CALLS", &config.ProbeCalls},
		{"calibration-runs", "CALIBRATION_RUNS", &config.CalibrationRuns},
	}
	for _, o := range ints {
		if !isFlagSet(fs, o.flag) {
			*o.dst = getEnvInt(o.env, *o.dst)
		}
	}
	if !isFlagSet(fs, "seed") {
		config.Seed = getEnvUint64("SEED", config.Seed)
	}
}

func applyDurationOverrides(config *AppConfig, fs *flag.FlagSet) {
	if !isFlagSet(fs, "budget") {
		config.Budget = getEnvDuration("BUDGET", config.Budget)
	}
	if !isFlagSet(fs, "timeout") {
		config.Timeout = getEnvDuration("TIMEOUT", config.Timeout)
	}
}

func applyStringOverrides(config *AppConfig, fs *flag.FlagSet) {
	if !isFlagSet(fs, "report") {
		config.ReportPath = getEnvString("REPORT", config.ReportPath)
	}
	if !isFlagSet(fs, "format") {
		config.Format = getEnvString("FORMAT", config.Format)
	}
	if !isFlagSet(fs, "metrics-addr") {
		config.MetricsAddr = getEnvString("METRICS_ADDR", config.MetricsAddr)
	}
	if !isFlagSet(fs, "log-level") {
		config.LogLevel = getEnvString("LOG_LEVEL", config.LogLevel)
	}
	if !isFlagSet(fs, "log-format") {
		config.LogFormat = getEnvString("LOG_FORMAT", config.LogFormat)
	}
	if !isFlagSet(fs, "theme") {
		config.Theme = getEnvString("THEME", config.Theme)
	}
}

func applyBooleanOverrides(config *AppConfig, fs *flag.FlagSet) {
	if !isFlagSet(fs, "official") {
		config.Official = getEnvBool("OFFICIAL", config.Official)
	}
	if !isFlagSet(fs, "quiet") && !isFlagSet(fs, "q") {
		config.Quiet = getEnvBool("QUIET", config.Quiet)
	}
	if !isFlagSet(fs, "no-color") {
		config.NoColor = getEnvBool("NO_COLOR", config.NoColor)
	}
}
