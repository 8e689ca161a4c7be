package pulsarbench

import (
	"fmt"
	"sync/atomic"

	"k8s.io/utils/clock"

	"github.com/armadaproject/pulsarbench/internal/common/reactor"
)

type ChannelState int32

const (
	Subscribing ChannelState = iota
	Receiving
	Terminating
	Closed
)

func (s ChannelState) String() string {
	switch s {
	case Subscribing:
		return "Subscribing"
	case Receiving:
		return "Receiving"
	case Terminating:
		return "Terminating"
	case Closed:
		return "Closed"
	default:
		return fmt.Sprintf("ChannelState(%d)", int32(s))
	}
}

// SubscriptionName returns the name of the subscription a channel opens on the broker.
func SubscriptionName(groupId, channelId int) string {
	return fmt.Sprintf("subscriber-%d-%d", groupId, channelId)
}

// Channel is the state of one subscription. Counters may only be incremented from tasks running on the channel's
// lane; they are atomics so that they can be read from anywhere.
type Channel struct {
	groupId   int
	id        int
	consumer  Consumer
	lane      *reactor.Strand
	stopwatch *Stopwatch
	state     atomic.Int32

	received  atomic.Int64
	failed    atomic.Int64
	acked     atomic.Int64
	ackFailed atomic.Int64
}

// NewChannel creates a channel in the Subscribing state. Its stopwatch starts immediately, so the time taken to
// subscribe counts against the channel's rate.
func NewChannel(groupId, id int, executor reactor.Executor, clock clock.PassiveClock) *Channel {
	return &Channel{
		groupId:   groupId,
		id:        id,
		lane:      reactor.NewStrand(executor),
		stopwatch: NewStopwatch(clock),
	}
}

func (c *Channel) Id() int {
	return c.id
}

func (c *Channel) Subscription() string {
	return SubscriptionName(c.groupId, c.id)
}

func (c *Channel) State() ChannelState {
	return ChannelState(c.state.Load())
}

func (c *Channel) transition(from, to ChannelState) bool {
	return c.state.CompareAndSwap(int32(from), int32(to))
}

func (c *Channel) RecordSuccess() {
	c.received.Add(1)
}

func (c *Channel) RecordFailure() {
	c.failed.Add(1)
}

func (c *Channel) RecordAck() {
	c.acked.Add(1)
}

func (c *Channel) RecordAckFailure() {
	c.ackFailed.Add(1)
}

func (c *Channel) Received() int64 {
	return c.received.Load()
}

func (c *Channel) Failed() int64 {
	return c.failed.Load()
}

func (c *Channel) Acked() int64 {
	return c.acked.Load()
}

func (c *Channel) AckFailed() int64 {
	return c.ackFailed.Load()
}

// AverageRate is the number of messages received per second since the channel was created.
func (c *Channel) AverageRate() float64 {
	return perSecond(c.Received(), c.stopwatch.Elapsed())
}
