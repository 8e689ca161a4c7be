package pulsarbench

import (
	"time"

	"k8s.io/utils/clock"
)

type Stopwatch struct {
	clock clock.PassiveClock
	start time.Time
}

// NewStopwatch returns a stopwatch that started now.
func NewStopwatch(clock clock.PassiveClock) *Stopwatch {
	return &Stopwatch{
		clock: clock,
		start: clock.Now(),
	}
}

func (s *Stopwatch) Started() time.Time {
	return s.start
}

func (s *Stopwatch) Elapsed() time.Duration {
	return s.clock.Since(s.start)
}
