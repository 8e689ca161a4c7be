package pulsarbench

import (
	"fmt"
	"sync"
	"time"

	"github.com/apache/pulsar-client-go/pulsar"
	"github.com/pkg/errors"
	"k8s.io/utils/clock"

	"github.com/armadaproject/pulsarbench/internal/common/benchcontext"
	"github.com/armadaproject/pulsarbench/internal/common/benchmarkerrors"
	"github.com/armadaproject/pulsarbench/internal/common/logging"
	"github.com/armadaproject/pulsarbench/internal/common/reactor"
	"github.com/armadaproject/pulsarbench/internal/pulsarbench/metrics"
)

// ConsumerGroup runs a set of subscriptions on one topic until each of them has received a sentinel. The group
// finishes once every subscribe request has resolved and every subscribed channel has closed.
//
// A broker that never delivers a sentinel keeps the group running until it is shut down from outside.
type ConsumerGroup struct {
	id        int
	count     int
	topic     string
	broker    Broker
	executor  reactor.Executor
	clock     clock.PassiveClock
	metrics   *metrics.Metrics
	stopwatch *Stopwatch
	ctx       *benchcontext.Context

	mu         sync.Mutex
	channels   []*Channel
	resolved   int
	completed  int
	result     *Result
	err        error
	stopped    bool
	subscribed chan struct{}
	done       chan struct{}
}

func NewConsumerGroup(
	id int,
	count int,
	topic string,
	broker Broker,
	executor reactor.Executor,
	clock clock.PassiveClock,
	m *metrics.Metrics,
) *ConsumerGroup {
	return &ConsumerGroup{
		id:         id,
		count:      count,
		topic:      topic,
		broker:     broker,
		executor:   executor,
		clock:      clock,
		metrics:    m,
		stopwatch:  NewStopwatch(clock),
		subscribed: make(chan struct{}),
		done:       make(chan struct{}),
	}
}

func (g *ConsumerGroup) Id() int {
	return g.id
}

// Subscribed returns a channel that is closed once every subscribe request has resolved, successfully or not.
func (g *ConsumerGroup) Subscribed() <-chan struct{} {
	return g.subscribed
}

// Start issues the subscribe requests. Cancelling ctx stops channels from issuing further receives; it does not
// by itself finish the group.
func (g *ConsumerGroup) Start(ctx *benchcontext.Context) <-chan struct{} {
	g.ctx = benchcontext.WithLogField(ctx, "group", g.id)
	g.ctx.Log.Infof("Subscribing %d consumers to %s", g.count, g.topic)

	if g.count == 0 {
		g.mu.Lock()
		close(g.subscribed)
		g.completeLocked()
		g.mu.Unlock()
		return g.done
	}

	for i := 1; i <= g.count; i++ {
		ch := NewChannel(g.id, i, g.executor, g.clock)
		g.broker.SubscribeAsync(g.topic, ch.Subscription(), func(consumer Consumer, err error) {
			g.onSubscribe(ch, consumer, err)
		})
	}
	return g.done
}

func (g *ConsumerGroup) Shutdown() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.shutdownLocked()
}

func (g *ConsumerGroup) Result() (Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.stopped {
		return Result{}, errors.WithStack(benchmarkerrors.ErrNotFinished)
	}
	if g.result != nil {
		return *g.result, nil
	}
	if g.err != nil {
		return Result{}, g.err
	}
	return Result{}, errors.WithStack(&benchmarkerrors.ErrAborted{
		Runtime: g.name(),
		Message: "shut down before every subscriber received a sentinel",
	})
}

// Channels returns a snapshot of the channels subscribed so far.
func (g *ConsumerGroup) Channels() []*Channel {
	g.mu.Lock()
	defer g.mu.Unlock()
	channels := make([]*Channel, len(g.channels))
	copy(channels, g.channels)
	return channels
}

func (g *ConsumerGroup) name() string {
	return fmt.Sprintf("consumer group %d", g.id)
}

func (g *ConsumerGroup) onSubscribe(ch *Channel, consumer Consumer, err error) {
	g.mu.Lock()
	g.resolved++

	if err != nil {
		// The group is shut down before subscribed is closed, so waiters on Subscribed see the failure.
		g.abortLocked(errors.WithStack(&benchmarkerrors.ErrSubscribe{
			Topic:        g.topic,
			Subscription: ch.Subscription(),
			Err:          err,
		}))
		g.closeSubscribedLocked()
		g.mu.Unlock()
		g.metrics.RecordSubscribeFailure(g.id)
		logging.
			WithStacktrace(g.ctx.Log, err).
			WithField("subscription", ch.Subscription()).
			Errorf("Failed to subscribe to %s; shutting down consumer group", g.topic)
		return
	}
	g.closeSubscribedLocked()

	if g.stopped {
		g.mu.Unlock()
		g.ctx.Log.Debugf("Consumer group already shut down; closing %s", ch.Subscription())
		consumer.CloseAsync(func() {})
		return
	}
	ch.consumer = consumer
	ch.transition(Subscribing, Receiving)
	g.channels = append(g.channels, ch)
	g.mu.Unlock()

	g.metrics.ChannelOpened(g.id)
	g.ctx.Log.Debugf("Subscribed %s", ch.Subscription())
	g.receive(ch)
}

// receive queues the next receive on the channel's lane rather than issuing it directly, so each completion
// returns before the next one starts.
func (g *ConsumerGroup) receive(ch *Channel) {
	ch.lane.Post(func() {
		if g.ctx.Err() != nil {
			g.ctx.Log.Debugf("Context cancelled; %s stops receiving", ch.Subscription())
			return
		}
		ch.consumer.ReceiveAsync(func(msg pulsar.Message, err error) {
			ch.lane.Post(func() { g.onReceive(ch, msg, err) })
		})
	})
}

func (g *ConsumerGroup) onReceive(ch *Channel, msg pulsar.Message, err error) {
	if err != nil {
		if g.ctx.Err() != nil {
			return
		}
		ch.RecordFailure()
		g.metrics.RecordReceiveFailure(g.id)
		logging.
			WithStacktrace(g.ctx.Log, err).
			WithField("subscription", ch.Subscription()).
			Warn("Pulsar receive failed")
		g.receive(ch)
		return
	}

	ch.RecordSuccess()
	g.metrics.RecordReceived(g.id)
	ch.consumer.AckAsync(msg, func(err error) {
		ch.lane.Post(func() { g.onAck(ch, err) })
	})

	if IsSentinel(msg.Payload()) {
		if !ch.transition(Receiving, Terminating) {
			return
		}
		g.ctx.Log.Debugf("Received sentinel on %s; closing", ch.Subscription())
		ch.consumer.CloseAsync(func() {
			ch.lane.Post(func() { g.onClose(ch) })
		})
		return
	}
	g.receive(ch)
}

func (g *ConsumerGroup) onAck(ch *Channel, err error) {
	if err != nil {
		ch.RecordAckFailure()
		g.metrics.RecordAckFailure(g.id)
		logging.
			WithStacktrace(g.ctx.Log, err).
			WithField("subscription", ch.Subscription()).
			Warn("Pulsar ack failed")
		return
	}
	ch.RecordAck()
	g.metrics.RecordAck(g.id)
}

func (g *ConsumerGroup) onClose(ch *Channel) {
	if !ch.transition(Terminating, Closed) {
		g.ctx.Log.Debugf("%s is already closed", ch.Subscription())
		return
	}
	g.metrics.ChannelClosed(g.id)

	g.mu.Lock()
	defer g.mu.Unlock()
	g.completed++
	g.ctx.Log.Debugf("%s closed; %d/%d subscribers done", ch.Subscription(), g.completed, g.count)
	if g.stopped || g.resolved != g.count || g.completed != len(g.channels) {
		return
	}
	g.completeLocked()
}

func (g *ConsumerGroup) completeLocked() {
	result := aggregate(g.channels, g.stopwatch.Elapsed())
	g.result = &result
	g.ctx.Log.
		WithField("received", result.OkMessages).
		WithField("failed", result.FailedMessages).
		WithField("aggregatedAvgPerSecond", result.AggregatedAvgPerSecond).
		Info("All subscribers are done")
	g.shutdownLocked()
}

func (g *ConsumerGroup) abortLocked(err error) {
	if g.stopped {
		return
	}
	g.err = err
	g.shutdownLocked()
}

func (g *ConsumerGroup) closeSubscribedLocked() {
	if g.resolved == g.count {
		close(g.subscribed)
	}
}

func (g *ConsumerGroup) shutdownLocked() {
	if g.stopped {
		return
	}
	g.stopped = true
	close(g.done)
}

func aggregate(channels []*Channel, duration time.Duration) Result {
	result := Result{
		Duration:     duration,
		Participants: len(channels),
	}
	for _, ch := range channels {
		result.OkMessages += ch.Received()
		result.FailedMessages += ch.Failed()
		result.AckedMessages += ch.Acked()
		result.AggregatedAvgPerSecond += ch.AverageRate()
	}
	if len(channels) > 0 {
		result.AvgPerSecond = result.AggregatedAvgPerSecond / float64(len(channels))
	}
	return result
}
