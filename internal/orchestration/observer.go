// Package orchestration sequences the benchmark phases and owns the state
// they share. This file contains the Observer pattern used to report phase
// progress to the UI, logs and metrics.
package orchestration

import (
	"sync"
	"time"
)

// Stage identifies a phase of the benchmark as seen by observers.
type Stage int

const (
	StageSetup Stage = iota
	StageSymmetry
	StageCGTest
	StageProbe
	StageBaseline
	StageCalibration
	StageTimed
	StageValidation
	StageReport
)

var stageNames = [...]string{
	"setup",
	"symmetry",
	"cg_test",
	"probe",
	"baseline",
	"calibration",
	"timed",
	"validation",
	"report",
}

// String returns the lowercase stage name.
func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return "unknown"
	}
	return stageNames[s]
}

// Event is one progress notification.
//
// A stage emits an event with Done false when it starts and one with Done
// true when it finishes. The timed stage additionally emits one event per
// completed run with Run set (1-based) and Runs the planned repeat count.
type Event struct {
	Stage Stage
	Done  bool

	Run  int
	Runs int

	// ScaledResidual and Elapsed describe the run that just completed.
	ScaledResidual float64
	Elapsed        time.Duration
	// Err is the kernel error of that run, if any.
	Err error

	// Estimate is the expected duration of the timed stage, set on its start
	// event.
	Estimate time.Duration

	// Errors counts kernel errors of a finished stage that were not already
	// reported through per-run events.
	Errors int

	// Failed is set on the Done event of the CG test stage when a solve did
	// not converge, and on the validation stage's Done event when the run has
	// a global failure.
	Failed bool
}

// Progress returns the completed fraction of the current stage in [0, 1].
func (e Event) Progress() float64 {
	switch {
	case e.Done:
		return 1
	case e.Runs > 0:
		return float64(e.Run) / float64(e.Runs)
	default:
		return 0
	}
}

// Observer receives benchmark progress events.
type Observer interface {
	Update(e Event)
}

// Subject manages observer registration and notification. It is safe for
// concurrent use.
type Subject struct {
	observers []Observer
	mu        sync.RWMutex
}

// NewSubject creates a subject with no observers.
func NewSubject() *Subject {
	return &Subject{observers: make([]Observer, 0)}
}

// Register adds an observer. Observers are notified in registration order.
// A nil observer is ignored.
func (s *Subject) Register(o Observer) {
	if o == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, o)
}

// Unregister removes an observer. Unknown observers are ignored.
func (s *Subject) Unregister(o Observer) {
	if o == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.observers {
		if existing == o {
			s.observers = append(s.observers[:i], s.observers[i+1:]...)
			return
		}
	}
}

// Notify delivers e to every observer synchronously.
func (s *Subject) Notify(e Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, o := range s.observers {
		o.Update(e)
	}
}
