// Package cli provides the terminal presentation of a benchmark run: the
// asynchronous phase progress display, the configuration banner and the final
// summary table.
package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/briandowns/spinner"

	"github.com/agbru/cgbench/internal/orchestration"
	"github.com/agbru/cgbench/internal/ui"
)

// FormatExecutionDuration formats a time.Duration for display.
// It shows microseconds for durations less than a millisecond, milliseconds for
// durations less than a second, and the default string representation otherwise.
//
// Parameters:
//   - d: The duration to format.
//
// Returns:
//   - string: A formatted string representing the duration.
func FormatExecutionDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	} else if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.Round(time.Millisecond).String()
}

// FormatETA formats a remaining duration, e.g. "< 1s", "2m30s", "1h15m".
// A non-positive duration means no estimate is available yet.
func FormatETA(eta time.Duration) string {
	switch {
	case eta <= 0:
		return "calculating..."
	case eta < time.Second:
		return "< 1s"
	case eta < time.Minute:
		return fmt.Sprintf("%ds", int(eta.Seconds()))
	case eta < time.Hour:
		m, s := int(eta.Minutes()), int(eta.Seconds())%60
		if s > 0 {
			return fmt.Sprintf("%dm%ds", m, s)
		}
		return fmt.Sprintf("%dm", m)
	default:
		h, m := int(eta.Hours()), int(eta.Minutes())%60
		if m > 0 {
			return fmt.Sprintf("%dh%dm", h, m)
		}
		return fmt.Sprintf("%dh", h)
	}
}

const (
	// ProgressRefreshRate defines the refresh frequency of the progress bar.
	ProgressRefreshRate = 200 * time.Millisecond
	// ProgressBarWidth defines the width in characters of the progress bar.
	ProgressBarWidth = 40
)

// Spinner is an interface that abstracts the behavior of a terminal spinner.
// This decouples DisplayProgress from a specific spinner implementation.
type Spinner interface {
	// Start begins the spinner animation.
	Start()
	// Stop halts the spinner animation.
	Stop()
	// UpdateSuffix sets the text that is displayed after the spinner.
	UpdateSuffix(suffix string)
}

// realSpinner adapts spinner.Spinner to the Spinner interface.
type realSpinner struct {
	s *spinner.Spinner
}

func (rs *realSpinner) Start() { rs.s.Start() }

func (rs *realSpinner) Stop() { rs.s.Stop() }

func (rs *realSpinner) UpdateSuffix(suffix string) {
	rs.s.Lock()
	rs.s.Suffix = suffix
	rs.s.Unlock()
}

var newSpinner = func(options ...spinner.Option) Spinner {
	s := spinner.New(spinner.CharSets[11], ProgressRefreshRate, options...)
	return &realSpinner{s}
}

// progressBar generates a string representing a textual progress bar.
//
// Parameters:
//   - progress: The normalized progress value (0.0 to 1.0).
//   - length: The total character width of the progress bar.
//
// Returns:
//   - string: A string representation of the progress bar.
func progressBar(progress float64, length int) string {
	progress = min(max(progress, 0), 1)
	count := int(progress * float64(length))
	var builder strings.Builder
	builder.Grow(length * 3)
	for i := 0; i < length; i++ {
		if i < count {
			builder.WriteRune('█')
		} else {
			builder.WriteRune('░')
		}
	}
	return builder.String()
}

// StageTracker folds benchmark events into the state the progress display
// renders: the active stage, its start time and, during the timed phase, the
// number of completed runs and their cumulative elapsed time.
type StageTracker struct {
	stage    orchestration.Stage
	started  time.Time
	run      int
	runs     int
	runTotal time.Duration
	errors   int
	estimate time.Duration
	now      func() time.Time
}

// NewStageTracker creates a tracker with no active stage.
func NewStageTracker() *StageTracker {
	return &StageTracker{stage: -1, now: time.Now}
}

// Apply records e. When e finishes a stage it returns the line that should
// persist on screen for that stage.
func (st *StageTracker) Apply(e orchestration.Event) (line string, finished bool) {
	switch {
	case e.Run > 0:
		st.run, st.runs = e.Run, e.Runs
		st.runTotal += e.Elapsed
		if e.Err != nil {
			st.errors++
		}
		return "", false
	case e.Done:
		elapsed := st.now().Sub(st.started)
		mark, color := "✓", ui.ColorGreen()
		if e.Errors > 0 || e.Failed || (e.Stage == orchestration.StageTimed && st.errors > 0) {
			mark, color = "!", ui.ColorYellow()
		}
		line = fmt.Sprintf("%s%s%s %-12s %s", color, mark, ui.ColorReset(), e.Stage, FormatExecutionDuration(elapsed))
		if e.Stage == orchestration.StageTimed {
			line += fmt.Sprintf(" (%d runs)", e.Runs)
		}
		st.stage = -1
		return line, true
	default:
		st.stage = e.Stage
		st.started = st.now()
		st.run, st.runs, st.runTotal, st.errors = 0, e.Runs, 0, 0
		st.estimate = e.Estimate
		return "", false
	}
}

// Progress returns the completed fraction of the active stage.
func (st *StageTracker) Progress() float64 {
	if st.runs <= 0 {
		return 0
	}
	return float64(st.run) / float64(st.runs)
}

// ETA estimates the time left in the timed phase from the mean run time so
// far. Before the first run completes it falls back to the schedule's
// estimate. It is zero outside the timed phase.
func (st *StageTracker) ETA() time.Duration {
	if st.stage != orchestration.StageTimed || st.runs <= st.run {
		return 0
	}
	if st.run == 0 {
		return max(st.estimate-st.now().Sub(st.started), 0)
	}
	mean := st.runTotal / time.Duration(st.run)
	return mean * time.Duration(st.runs-st.run)
}

// Suffix renders the spinner text for the current state.
func (st *StageTracker) Suffix() string {
	if st.stage < 0 {
		return ""
	}
	if st.stage != orchestration.StageTimed {
		return fmt.Sprintf(" %s... %s", st.stage, FormatExecutionDuration(st.now().Sub(st.started)))
	}
	return fmt.Sprintf(" timed run %d/%d [%s] ETA: %s",
		st.run, st.runs, progressBar(st.Progress(), ProgressBarWidth), FormatETA(st.ETA()))
}

// DisplayProgress manages the asynchronous display of a spinner while the
// benchmark runs. It is designed to run in a dedicated goroutine and returns
// once events is closed.
//
// Every finished stage leaves one line on screen with its duration. During the
// timed phase the spinner shows the run count, a progress bar and an ETA.
//
// Parameters:
//   - wg: A WaitGroup to signal when the display routine is complete.
//   - events: The channel receiving benchmark events.
//   - out: The io.Writer to which the display is rendered.
func DisplayProgress(wg *sync.WaitGroup, events <-chan orchestration.Event, out io.Writer) {
	defer wg.Done()

	tracker := NewStageTracker()
	s := newSpinner(spinner.WithWriter(out))
	s.Start()
	defer s.Stop()

	ticker := time.NewTicker(ProgressRefreshRate)
	defer ticker.Stop()

	for {
		select {
		case e, ok := <-events:
			if !ok {
				return
			}
			if line, finished := tracker.Apply(e); finished {
				// The spinner owns the current line; pause it to print.
				s.Stop()
				fmt.Fprintln(out, line)
				s.Start()
			}
			s.UpdateSuffix(tracker.Suffix())
		case <-ticker.C:
			s.UpdateSuffix(tracker.Suffix())
		}
	}
}
