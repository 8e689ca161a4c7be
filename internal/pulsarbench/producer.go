package pulsarbench

import (
	"bytes"
	"context"
	"math"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/apache/pulsar-client-go/pulsar"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"
	"k8s.io/utils/clock"

	"github.com/armadaproject/pulsarbench/internal/common/benchcontext"
	"github.com/armadaproject/pulsarbench/internal/common/benchmarkerrors"
	"github.com/armadaproject/pulsarbench/internal/common/logging"
	"github.com/armadaproject/pulsarbench/internal/pulsarbench/configuration"
	"github.com/armadaproject/pulsarbench/internal/pulsarbench/metrics"
)

const (
	fillerByte             = 'x'
	defaultSentinelTimeout = 30 * time.Second
)

// Publisher is the subset of pulsar.Producer used to send test traffic.
type Publisher interface {
	SendAsync(ctx context.Context, msg *pulsar.ProducerMessage, callback func(pulsar.MessageID, *pulsar.ProducerMessage, error))
	Flush() error
}

// Producer publishes fixed-size messages at a configured rate and finishes the stream with a sentinel.
type Producer struct {
	publisher Publisher
	config    configuration.ProducerConfig
	clock     clock.PassiveClock
	metrics   *metrics.Metrics

	ok       atomic.Int64
	failed   atomic.Int64
	inflight sync.WaitGroup

	mu      sync.Mutex
	cancel  func()
	result  *Result
	err     error
	stopped bool
	done    chan struct{}
	// Closed once the publishing goroutine has returned, which may be after done when shut down early.
	exited  chan struct{}
}

func NewProducer(
	publisher Publisher,
	config configuration.ProducerConfig,
	clock clock.PassiveClock,
	m *metrics.Metrics,
) *Producer {
	return &Producer{
		publisher: publisher,
		config:    config,
		clock:     clock,
		metrics:   m,
		done:      make(chan struct{}),
		exited:    make(chan struct{}),
	}
}

// Start begins publishing in the background. Cancelling ctx or calling Shutdown stops publishing early; the
// sentinel is still sent.
func (p *Producer) Start(ctx *benchcontext.Context) <-chan struct{} {
	runCtx, cancel := benchcontext.WithCancel(benchcontext.WithLogField(ctx, "runtime", "producer"))
	p.mu.Lock()
	p.cancel = cancel
	if p.stopped {
		cancel()
	}
	p.mu.Unlock()
	go p.run(runCtx)
	return p.done
}

// Shutdown stops publishing and resolves the producer without a result.
func (p *Producer) Shutdown() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.shutdownLocked()
}

func (p *Producer) Result() (Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.stopped {
		return Result{}, errors.WithStack(benchmarkerrors.ErrNotFinished)
	}
	if p.result != nil {
		return *p.result, nil
	}
	if p.err != nil {
		return Result{}, p.err
	}
	return Result{}, errors.WithStack(&benchmarkerrors.ErrAborted{
		Runtime: "producer",
		Message: "shut down before all messages were sent",
	})
}

func (p *Producer) run(ctx *benchcontext.Context) {
	defer close(p.exited)
	stopwatch := NewStopwatch(p.clock)
	limiter := newLimiter(p.config.MessagesPerSecond)
	payload := bytes.Repeat([]byte{fillerByte}, p.config.MessageSize)

	ctx.Log.Infof(
		"Producing %s messages of %d bytes for %s at %s messages per second",
		unlimitedIfZero(p.config.Messages), p.config.MessageSize, unlimitedIfZero(p.config.Duration), unlimitedIfZero(p.config.MessagesPerSecond),
	)
	for sent := int64(0); p.config.Messages == 0 || sent < p.config.Messages; sent++ {
		if ctx.Err() != nil {
			ctx.Log.Info("Context cancelled; stop producing")
			break
		}
		if p.config.Duration > 0 && stopwatch.Elapsed() >= p.config.Duration {
			break
		}
		if err := limiter.Wait(ctx); err != nil {
			break
		}
		p.send(ctx, payload, false)
	}

	// The sentinel must go out even if ctx has been cancelled, otherwise subscribers never finish.
	timeout := p.config.SentinelTimeout
	if timeout <= 0 {
		timeout = defaultSentinelTimeout
	}
	sentinelCtx, cancel := benchcontext.WithTimeout(benchcontext.New(context.Background(), ctx.Log), timeout)
	defer cancel()
	p.send(sentinelCtx, SentinelPayload, true)

	err := p.publisher.Flush()
	p.inflight.Wait()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		ctx.Log.Info("Producer was shut down; discarding its result")
		return
	}
	if err != nil {
		p.err = errors.Wrap(err, "error flushing producer")
	} else {
		ok := p.ok.Load()
		avg := perSecond(ok, stopwatch.Elapsed())
		p.result = &Result{
			Duration:               stopwatch.Elapsed(),
			OkMessages:             ok,
			FailedMessages:         p.failed.Load(),
			AvgPerSecond:           avg,
			AggregatedAvgPerSecond: avg,
			Participants:           1,
		}
		ctx.Log.
			WithField("sent", p.result.OkMessages).
			WithField("failed", p.result.FailedMessages).
			WithField("avgPerSecond", avg).
			Info("Producer is done")
	}
	p.shutdownLocked()
}

func (p *Producer) send(ctx *benchcontext.Context, payload []byte, sentinel bool) {
	p.inflight.Add(1)
	p.publisher.SendAsync(ctx, &pulsar.ProducerMessage{Payload: payload}, func(_ pulsar.MessageID, _ *pulsar.ProducerMessage, err error) {
		defer p.inflight.Done()
		if err != nil {
			p.failed.Add(1)
			p.metrics.RecordSendFailure()
			entry := logging.WithStacktrace(ctx.Log, err)
			if sentinel {
				entry.Error("Failed to send sentinel; subscribers will not terminate")
			} else {
				entry.Debug("Failed to send message")
			}
			return
		}
		if !sentinel {
			p.ok.Add(1)
			p.metrics.RecordSent()
		}
	})
}

func (p *Producer) shutdownLocked() {
	if p.stopped {
		return
	}
	p.stopped = true
	if p.cancel != nil {
		p.cancel()
	}
	close(p.done)
}

// A zero rate disables pacing.
func newLimiter(messagesPerSecond float64) *rate.Limiter {
	if messagesPerSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Limit(messagesPerSecond), int(math.Max(1, math.Ceil(messagesPerSecond/100))))
}

func unlimitedIfZero[T int64 | float64 | time.Duration](v T) string {
	if v == 0 {
		return "unlimited"
	}
	switch x := any(v).(type) {
	case time.Duration:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return strconv.FormatInt(int64(v), 10)
	}
}
