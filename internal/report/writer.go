package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Report output formats.
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
)

// Writer persists a report.
type Writer interface {
	Write(r *Report) error
}

// YAMLWriter encodes reports as YAML documents.
type YAMLWriter struct {
	Out io.Writer
}

// Write implements Writer.
func (w YAMLWriter) Write(r *Report) error {
	enc := yaml.NewEncoder(w.Out)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encoding YAML report: %w", err)
	}
	return enc.Close()
}

// JSONWriter encodes reports as indented JSON.
type JSONWriter struct {
	Out io.Writer
}

// Write implements Writer.
func (w JSONWriter) Write(r *Report) error {
	enc := json.NewEncoder(w.Out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encoding JSON report: %w", err)
	}
	return nil
}

// NewWriter returns the writer for format.
func NewWriter(format string, out io.Writer) (Writer, error) {
	switch format {
	case "", FormatYAML:
		return YAMLWriter{Out: out}, nil
	case FormatJSON:
		return JSONWriter{Out: out}, nil
	default:
		return nil, fmt.Errorf("unknown report format %q", format)
	}
}

// FileWriter writes the report to Path, creating parent directories. The
// file is written to a temporary sibling first and renamed into place.
type FileWriter struct {
	Path   string
	Format string
}

// Write implements Writer.
func (w FileWriter) Write(r *Report) error {
	if dir := filepath.Dir(w.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating report directory: %w", err)
		}
	}
	tmp, err := os.CreateTemp(filepath.Dir(w.Path), ".cgbench-report-*")
	if err != nil {
		return fmt.Errorf("creating report file: %w", err)
	}
	defer os.Remove(tmp.Name())

	enc, err := NewWriter(w.Format, tmp)
	if err != nil {
		tmp.Close()
		return err
	}
	if err := enc.Write(r); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing report file: %w", err)
	}
	if err := os.Rename(tmp.Name(), w.Path); err != nil {
		return fmt.Errorf("writing report file: %w", err)
	}
	return nil
}

// MultiWriter fans a report out to several writers, stopping at the first
// error.
type MultiWriter []Writer

// Write implements Writer.
func (m MultiWriter) Write(r *Report) error {
	for _, w := range m {
		if err := w.Write(r); err != nil {
			return err
		}
	}
	return nil
}
