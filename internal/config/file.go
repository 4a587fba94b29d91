package config

import (
	"errors"
	"flag"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	apperrors "github.com/agbru/cgbench/internal/errors"
)

// MaxFileSize is the largest configuration file ParseConfig accepts.
const MaxFileSize = 1 << 20

// fileConfig mirrors AppConfig for YAML decoding. Pointer fields tell an
// absent key apart from a zero value.
type fileConfig struct {
	NX              *int           `yaml:"nx"`
	NY              *int           `yaml:"ny"`
	NZ              *int           `yaml:"nz"`
	Workers         *int           `yaml:"workers"`
	Budget          *time.Duration `yaml:"budget"`
	Official        *bool          `yaml:"official"`
	Timeout         *time.Duration `yaml:"timeout"`
	RefMaxIters     *int           `yaml:"ref_max_iters"`
	OptMultiplier   *int           `yaml:"opt_multiplier"`
	ProbeCalls      *int           `yaml:"probe_calls"`
	CalibrationRuns *int           `yaml:"calibration_runs"`
	Seed            *uint64        `yaml:"seed"`
	Report          *string        `yaml:"report"`
	Format          *string        `yaml:"format"`
	MetricsAddr     *string        `yaml:"metrics_addr"`
	LogLevel        *string        `yaml:"log_level"`
	LogFormat       *string        `yaml:"log_format"`
	Theme           *string        `yaml:"theme"`
	NoColor         *bool          `yaml:"no_color"`
	Quiet           *bool          `yaml:"quiet"`
}

// loadFile decodes a YAML configuration file. Unknown keys are rejected.
func loadFile(path string) (*fileConfig, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, apperrors.NewConfigError("config file: %v", err)
	}
	if info.Size() > MaxFileSize {
		return nil, apperrors.NewConfigError("config file too large: %d bytes (max %d)", info.Size(), MaxFileSize)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewConfigError("config file: %v", err)
	}
	defer f.Close()

	var fc fileConfig
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
		return nil, apperrors.NewConfigError("config file %s: %v", path, err)
	}
	return &fc, nil
}

// applyFile copies the values of the file at path into config for every
// flag that was not set on the command line.
func applyFile(config *AppConfig, fs *flag.FlagSet, path string) error {
	fc, err := loadFile(path)
	if err != nil {
		return err
	}

	setFrom(fs, "nx", fc.NX, &config.NX)
	setFrom(fs, "ny", fc.NY, &config.NY)
	setFrom(fs, "nz", fc.NZ, &config.NZ)
	setFrom(fs, "workers", fc.Workers, &config.Workers)
	setFrom(fs, "ref-max-iters", fc.RefMaxIters, &config.RefMaxIters)
	setFrom(fs, "opt-multiplier", fc.OptMultiplier, &config.OptMultiplier)
	setFrom(fs, "probe-calls", fc.ProbeCalls, &config.ProbeCalls)
	setFrom(fs, "calibration-runs", fc.CalibrationRuns, &config.CalibrationRuns)
	setFrom(fs, "seed", fc.Seed, &config.Seed)
	setFrom(fs, "budget", fc.Budget, &config.Budget)
	setFrom(fs, "timeout", fc.Timeout, &config.Timeout)
	setFrom(fs, "official", fc.Official, &config.Official)
	setFrom(fs, "no-color", fc.NoColor, &config.NoColor)
	if !isFlagSet(fs, "q") {
		setFrom(fs, "quiet", fc.Quiet, &config.Quiet)
	}
	setFrom(fs, "report", fc.Report, &config.ReportPath)
	setFrom(fs, "format", fc.Format, &config.Format)
	setFrom(fs, "metrics-addr", fc.MetricsAddr, &config.MetricsAddr)
	setFrom(fs, "log-level", fc.LogLevel, &config.LogLevel)
	setFrom(fs, "log-format", fc.LogFormat, &config.LogFormat)
	setFrom(fs, "theme", fc.Theme, &config.Theme)
	return nil
}

// setFrom stores *src into *dst when the file provides the key and the flag
// was not given on the command line.
func setFrom[T any](fs *flag.FlagSet, name string, src, dst *T) {
	if src != nil && !isFlagSet(fs, name) {
		*dst = *src
	}
}
