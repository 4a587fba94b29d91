package calibration

import "time"

// WorstCase tracks the largest run time and iteration count seen across a
// series of solver runs. Both values only ever grow.
type WorstCase struct {
	runTime    time.Duration
	iterations int
	runs       int
}

// Observe folds one run into the tracker.
func (w *WorstCase) Observe(runTime time.Duration, iterations int) {
	w.runs++
	if runTime > w.runTime {
		w.runTime = runTime
	}
	if iterations > w.iterations {
		w.iterations = iterations
	}
}

// RunTime returns the worst run time observed so far, zero before any run.
func (w *WorstCase) RunTime() time.Duration { return w.runTime }

// Iterations returns the largest iteration count observed so far.
func (w *WorstCase) Iterations() int { return w.iterations }

// Runs returns the number of observed runs.
func (w *WorstCase) Runs() int { return w.runs }
