package pulsarbench

import (
	"k8s.io/utils/clock"

	"github.com/armadaproject/pulsarbench/internal/common/benchcontext"
)

// StatsLogger periodically logs the progress of the consumer groups.
type StatsLogger struct {
	groups  []*ConsumerGroup
	pending func() int
	clock   clock.PassiveClock

	lastReceived int64
	lastLogged   *Stopwatch
}

// NewStatsLogger creates a stats logger. pending reports the reactor backlog and may be nil.
func NewStatsLogger(groups []*ConsumerGroup, pending func() int, clock clock.PassiveClock) *StatsLogger {
	return &StatsLogger{
		groups:     groups,
		pending:    pending,
		clock:      clock,
		lastLogged: NewStopwatch(clock),
	}
}

// Log is not safe for concurrent use; it is meant to be called from a single background task.
func (s *StatsLogger) Log(ctx *benchcontext.Context) {
	var channels, active int
	var received, failed, ackFailed int64
	for _, g := range s.groups {
		for _, ch := range g.Channels() {
			channels++
			if ch.State() == Receiving {
				active++
			}
			received += ch.Received()
			failed += ch.Failed()
			ackFailed += ch.AckFailed()
		}
	}
	rate := perSecond(received-s.lastReceived, s.lastLogged.Elapsed())
	s.lastReceived = received
	s.lastLogged = NewStopwatch(s.clock)

	entry := ctx.Log.
		WithField("subscriptions", channels).
		WithField("receiving", active).
		WithField("received", received).
		WithField("failed", failed).
		WithField("ackFailed", ackFailed).
		WithField("perSecond", rate)
	if s.pending != nil {
		entry = entry.WithField("pending", s.pending())
	}
	entry.Info("Consumer statistics")
}
