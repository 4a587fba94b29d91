package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/agbru/cgbench/internal/validation"
)

func sampleReport() *Report {
	return &Report{
		RunID:     "run-1",
		Version:   "test",
		StartedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Geometry:  Geometry{Size: 1, Threads: 4, NX: 16, NY: 16, NZ: 16},
		Timings:   map[string]float64{"total": 12.5, "kernel_probe": 0.01},
		Convergence: Convergence{
			ReferenceIterations: 50,
			TargetRatio:         0.02,
		},
		Schedule:        Schedule{BudgetSeconds: 60, WorstRunSeconds: 12, RepeatCount: 5},
		ScaledResiduals: []float64{0.02, 0.02},
		Validation:      []validation.Result{{Name: "norms", Passed: true, Samples: 2}},
		Passed:          true,
	}
}

func TestYAMLWriter(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	if err := (YAMLWriter{Out: &buf}).Write(sampleReport()); err != nil {
		t.Fatalf("Write: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"run_id: run-1", "repeat_count: 5", "target_ratio: 0.02", "name: norms"} {
		if !strings.Contains(out, want) {
			t.Errorf("YAML output missing %q:\n%s", want, out)
		}
	}

	var back Report
	if err := yaml.Unmarshal(buf.Bytes(), &back); err != nil {
		t.Fatalf("output is not valid YAML: %v", err)
	}
	if back.Schedule.RepeatCount != 5 || back.Timings["total"] != 12.5 {
		t.Errorf("decoded report differs: %+v", back)
	}
}

func TestJSONWriter(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	if err := (JSONWriter{Out: &buf}).Write(sampleReport()); err != nil {
		t.Fatalf("Write: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded["run_id"] != "run-1" || decoded["passed"] != true {
		t.Errorf("unexpected JSON: %s", buf.String())
	}
}

func TestNewWriter(t *testing.T) {
	t.Parallel()
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"", false},
		{FormatYAML, false},
		{FormatJSON, false},
		{"xml", true},
	}
	for _, tt := range tests {
		_, err := NewWriter(tt.format, &bytes.Buffer{})
		if (err != nil) != tt.wantErr {
			t.Errorf("NewWriter(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
	}
}

func TestFileWriter(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "nested", "report.json")
	if err := (FileWriter{Path: path, Format: FormatJSON}).Write(sampleReport()); err != nil {
		t.Fatalf("Write: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("report not written: %v", err)
	}
	if !strings.Contains(string(data), `"run_id": "run-1"`) {
		t.Errorf("unexpected file content: %s", data)
	}
	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("temporary files left behind: %v", entries)
	}
}

func TestMultiWriter(t *testing.T) {
	t.Parallel()
	var a, b bytes.Buffer
	if err := (MultiWriter{YAMLWriter{Out: &a}, JSONWriter{Out: &b}}).Write(sampleReport()); err != nil {
		t.Fatal(err)
	}
	if a.Len() == 0 || b.Len() == 0 {
		t.Error("both writers should receive the report")
	}
}

func TestRunTimeRecorder(t *testing.T) {
	t.Parallel()
	r := NewRunTimeRecorder()
	if got := r.Summary(); got.Count != 0 {
		t.Errorf("empty recorder should summarize to zero, got %+v", got)
	}
	for i := 1; i <= 100; i++ {
		r.Record(time.Duration(i) * 10 * time.Millisecond)
	}
	r.Record(0)

	s := r.Summary()
	if s.Count != 101 {
		t.Errorf("Count = %d, want 101", s.Count)
	}
	if s.MaxSeconds < 0.99 || s.MaxSeconds > 1.01 {
		t.Errorf("MaxSeconds = %v, want ~1.0", s.MaxSeconds)
	}
	if s.P50Seconds < 0.49 || s.P50Seconds > 0.51 {
		t.Errorf("P50Seconds = %v, want ~0.5", s.P50Seconds)
	}
	if s.MinSeconds > 1e-5 {
		t.Errorf("zero duration should clamp to the 1µs floor, MinSeconds = %v", s.MinSeconds)
	}
	if !(s.P50Seconds <= s.P90Seconds && s.P90Seconds <= s.P99Seconds && s.P99Seconds <= s.MaxSeconds) {
		t.Errorf("percentiles out of order: %+v", s)
	}
}

func TestFailuresTotal(t *testing.T) {
	t.Parallel()
	f := Failures{ProbeErrors: 1, ReferenceErrors: 2, SolverErrors: 3, ToleranceFailures: 4, TimedErrors: 5}
	if f.Total() != 15 {
		t.Errorf("Total() = %d, want 15", f.Total())
	}
}

func TestReportTest(t *testing.T) {
	t.Parallel()
	r := sampleReport()
	if v, ok := r.Test("norms"); !ok || !v.Passed {
		t.Errorf("expected passing norms result, got %+v %v", v, ok)
	}
	if _, ok := r.Test("missing"); ok {
		t.Error("unexpected result for unknown test")
	}
}

func TestDetectMachine(t *testing.T) {
	t.Parallel()
	m := DetectMachine()
	if m.NumCPU < 1 || m.GOMAXPROCS < 1 || m.GOOS == "" || m.GOARCH == "" {
		t.Errorf("incomplete machine description: %+v", m)
	}
	if m.WordSize != 32 && m.WordSize != 64 {
		t.Errorf("unexpected word size %d", m.WordSize)
	}
}
