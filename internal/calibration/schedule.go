package calibration

import (
	"fmt"
	"time"
)

const (
	// ExploratoryBudget is the default time budget of the timed phase.
	ExploratoryBudget = 60 * time.Second

	// OfficialBudget is the time budget required for an official run.
	OfficialBudget = 5 * time.Hour
)

// Schedule is the plan for the timed phase: how many solver runs fit in the
// budget given the worst calibration run time.
type Schedule struct {
	// Budget is the wall-clock time the timed phase should fill.
	Budget time.Duration
	// WorstRun is the slowest optimized calibration run.
	WorstRun time.Duration
	// RepeatCount is the number of timed runs, always at least 1.
	RepeatCount int
}

// NewSchedule returns the schedule for budget and the measured worst run.
//
// RepeatCount is floor(budget / worst), raised to 1 when the quotient is
// smaller. A zero (or negative) worst run yields exactly one run.
func NewSchedule(budget, worst time.Duration) Schedule {
	s := Schedule{Budget: budget, WorstRun: worst, RepeatCount: 1}
	if worst <= 0 {
		return s
	}
	if n := int64(budget / worst); n > 1 {
		s.RepeatCount = int(n)
	}
	return s
}

// Estimated returns the expected duration of the timed phase.
func (s Schedule) Estimated() time.Duration {
	return s.WorstRun * time.Duration(s.RepeatCount)
}

// String implements fmt.Stringer.
func (s Schedule) String() string {
	return fmt.Sprintf("%d run(s) of at most %s within %s", s.RepeatCount, s.WorstRun, s.Budget)
}
