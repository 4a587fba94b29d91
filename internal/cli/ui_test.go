package cli

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/briandowns/spinner"

	"github.com/agbru/cgbench/internal/orchestration"
	"github.com/agbru/cgbench/internal/testutil"
	"github.com/agbru/cgbench/internal/ui"
)

// MockSpinner records the calls DisplayProgress makes.
type MockSpinner struct {
	mu       sync.Mutex
	starts   int
	stops    int
	suffixes []string
}

func (m *MockSpinner) Start() {
	m.mu.Lock()
	m.starts++
	m.mu.Unlock()
}

func (m *MockSpinner) Stop() {
	m.mu.Lock()
	m.stops++
	m.mu.Unlock()
}

func (m *MockSpinner) UpdateSuffix(suffix string) {
	m.mu.Lock()
	m.suffixes = append(m.suffixes, suffix)
	m.mu.Unlock()
}

// fakeClock advances by step on every call.
type fakeClock struct {
	t    time.Time
	step time.Duration
}

func (c *fakeClock) now() time.Time {
	c.t = c.t.Add(c.step)
	return c.t
}

func TestFormatExecutionDuration(t *testing.T) {
	t.Parallel()
	tests := []struct {
		d        time.Duration
		expected string
	}{
		{500 * time.Nanosecond, "0µs"},
		{10 * time.Microsecond, "10µs"},
		{10 * time.Millisecond, "10ms"},
		{2 * time.Second, "2s"},
		{1500*time.Millisecond + 400*time.Microsecond, "1.5s"},
	}
	for _, tt := range tests {
		if got := FormatExecutionDuration(tt.d); got != tt.expected {
			t.Errorf("FormatExecutionDuration(%v) = %s; want %s", tt.d, got, tt.expected)
		}
	}
}

func TestFormatETA(t *testing.T) {
	t.Parallel()
	tests := []struct {
		eta  time.Duration
		want string
	}{
		{0, "calculating..."},
		{-time.Second, "calculating..."},
		{300 * time.Millisecond, "< 1s"},
		{42 * time.Second, "42s"},
		{2 * time.Minute, "2m"},
		{2*time.Minute + 30*time.Second, "2m30s"},
		{3 * time.Hour, "3h"},
		{time.Hour + 15*time.Minute, "1h15m"},
	}
	for _, tt := range tests {
		if got := FormatETA(tt.eta); got != tt.want {
			t.Errorf("FormatETA(%v) = %q, want %q", tt.eta, got, tt.want)
		}
	}
}

func TestProgressBar(t *testing.T) {
	t.Parallel()
	tests := []struct {
		progress float64
		want     string
	}{
		{0.0, "░░░░░░░░░░"},
		{0.5, "█████░░░░░"},
		{1.0, "██████████"},
		{1.2, "██████████"},
		{-0.1, "░░░░░░░░░░"},
	}
	for _, tt := range tests {
		if got := progressBar(tt.progress, 10); got != tt.want {
			t.Errorf("progressBar(%f) = %s; want %s", tt.progress, got, tt.want)
		}
	}
}

func TestStageTracker(t *testing.T) {
	prev := ui.Use(ui.NoColorTheme)
	defer ui.Use(prev)

	clock := &fakeClock{t: time.Unix(0, 0), step: time.Second}
	st := NewStageTracker()
	st.now = clock.now

	if st.Suffix() != "" {
		t.Errorf("idle tracker suffix = %q", st.Suffix())
	}

	st.Apply(orchestration.Event{Stage: orchestration.StageProbe})
	if !strings.Contains(st.Suffix(), "probe...") {
		t.Errorf("suffix = %q", st.Suffix())
	}
	line, done := st.Apply(orchestration.Event{Stage: orchestration.StageProbe, Done: true, Errors: 2})
	if !done || !strings.HasPrefix(line, "! probe") {
		t.Errorf("probe line = %q, %v", line, done)
	}

	st.Apply(orchestration.Event{Stage: orchestration.StageTimed, Runs: 4})
	if st.ETA() != 0 {
		t.Errorf("ETA before the first run = %v", st.ETA())
	}
	st.Apply(orchestration.Event{Stage: orchestration.StageTimed, Run: 1, Runs: 4, Elapsed: 2 * time.Second})
	st.Apply(orchestration.Event{Stage: orchestration.StageTimed, Run: 2, Runs: 4, Elapsed: 4 * time.Second})
	if got := st.Progress(); got != 0.5 {
		t.Errorf("Progress = %v, want 0.5", got)
	}
	if got := st.ETA(); got != 6*time.Second {
		t.Errorf("ETA = %v, want 6s", got)
	}
	if s := st.Suffix(); !strings.Contains(s, "timed run 2/4") || !strings.Contains(s, "ETA: 6s") {
		t.Errorf("timed suffix = %q", s)
	}

	line, done = st.Apply(orchestration.Event{Stage: orchestration.StageTimed, Done: true, Runs: 4})
	if !done || !strings.HasPrefix(line, "✓ timed") || !strings.HasSuffix(line, "(4 runs)") {
		t.Errorf("timed line = %q", line)
	}
}

func TestStageTrackerScheduleEstimate(t *testing.T) {
	t.Parallel()
	clock := &fakeClock{t: time.Unix(0, 0), step: time.Second}
	st := NewStageTracker()
	st.now = clock.now

	st.Apply(orchestration.Event{Stage: orchestration.StageTimed, Runs: 5, Estimate: 10 * time.Second})
	if got := st.ETA(); got != 9*time.Second {
		t.Errorf("ETA before the first run = %v, want 9s", got)
	}

	st.Apply(orchestration.Event{Stage: orchestration.StageTimed, Runs: 5, Estimate: time.Second})
	if got := st.ETA(); got != 0 {
		t.Errorf("an elapsed estimate should clamp to 0, got %v", got)
	}
}

func TestStageTrackerFlagsRunErrors(t *testing.T) {
	prev := ui.Use(ui.NoColorTheme)
	defer ui.Use(prev)

	st := NewStageTracker()
	st.Apply(orchestration.Event{Stage: orchestration.StageTimed, Runs: 1})
	st.Apply(orchestration.Event{Stage: orchestration.StageTimed, Run: 1, Runs: 1, Err: errors.New("boom")})
	line, _ := st.Apply(orchestration.Event{Stage: orchestration.StageTimed, Done: true, Runs: 1})
	if !strings.HasPrefix(line, "!") {
		t.Errorf("a timed stage with run errors should be flagged, got %q", line)
	}
}

func TestRealSpinner(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	s := newSpinner(spinner.WithWriter(&buf))
	s.UpdateSuffix(" working")
	rs, ok := s.(*realSpinner)
	if !ok {
		t.Fatalf("newSpinner returned %T", s)
	}
	if rs.s.Suffix != " working" {
		t.Errorf("Suffix = %q", rs.s.Suffix)
	}
}

func TestDisplayProgress(t *testing.T) {
	prevTheme := ui.Use(ui.NoColorTheme)
	defer ui.Use(prevTheme)
	original := newSpinner
	defer func() { newSpinner = original }()

	mock := &MockSpinner{}
	newSpinner = func(...spinner.Option) Spinner { return mock }

	events := make(chan orchestration.Event, 8)
	events <- orchestration.Event{Stage: orchestration.StageSetup}
	events <- orchestration.Event{Stage: orchestration.StageSetup, Done: true}
	events <- orchestration.Event{Stage: orchestration.StageTimed, Runs: 1}
	events <- orchestration.Event{Stage: orchestration.StageTimed, Run: 1, Runs: 1, Elapsed: time.Millisecond}
	events <- orchestration.Event{Stage: orchestration.StageTimed, Done: true, Runs: 1}
	close(events)

	var out bytes.Buffer
	var wg sync.WaitGroup
	wg.Add(1)
	DisplayProgress(&wg, events, &out)
	wg.Wait()

	got := testutil.StripAnsiCodes(out.String())
	if !strings.Contains(got, "✓ setup") || !strings.Contains(got, "✓ timed") {
		t.Errorf("finished stages not printed:\n%s", got)
	}
	// One start up front, one restart per finished stage.
	if mock.starts != 3 {
		t.Errorf("starts = %d, want 3", mock.starts)
	}
	if mock.stops != mock.starts {
		t.Errorf("stops = %d, starts = %d", mock.stops, mock.starts)
	}
	if len(mock.suffixes) == 0 {
		t.Error("suffix never updated")
	}
}
