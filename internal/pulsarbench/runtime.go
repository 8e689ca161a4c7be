package pulsarbench

import (
	"time"

	"github.com/armadaproject/pulsarbench/internal/common/benchcontext"
)

// Runtime is the lifecycle shared by every test participant.
type Runtime interface {
	// Start begins the work and returns a channel that is closed once the runtime has finished.
	Start(ctx *benchcontext.Context) <-chan struct{}
	// Shutdown marks the runtime as finished. Calling it more than once has no further effect.
	Shutdown()
	// Result returns the statistics of a finished runtime.
	Result() (Result, error)
}

type Result struct {
	Duration       time.Duration
	OkMessages     int64
	FailedMessages int64
	// Only reported by consumers.
	AckedMessages int64
	// Mean of the per-participant rates.
	AvgPerSecond float64
	// Sum of the per-participant rates.
	AggregatedAvgPerSecond float64
	Participants           int
}

// CombineResults merges the results of several runtimes of the same kind into one.
func CombineResults(results []Result) Result {
	var combined Result
	for _, r := range results {
		if r.Duration > combined.Duration {
			combined.Duration = r.Duration
		}
		combined.OkMessages += r.OkMessages
		combined.FailedMessages += r.FailedMessages
		combined.AckedMessages += r.AckedMessages
		combined.AggregatedAvgPerSecond += r.AggregatedAvgPerSecond
		combined.Participants += r.Participants
	}
	if combined.Participants > 0 {
		combined.AvgPerSecond = combined.AggregatedAvgPerSecond / float64(combined.Participants)
	}
	return combined
}

func perSecond(n int64, elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}
	return float64(n) / elapsed.Seconds()
}
