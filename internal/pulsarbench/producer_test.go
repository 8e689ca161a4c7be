package pulsarbench

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/apache/pulsar-client-go/pulsar"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
	"k8s.io/utils/clock"
	clocktesting "k8s.io/utils/clock/testing"

	"github.com/armadaproject/pulsarbench/internal/common/benchcontext"
	"github.com/armadaproject/pulsarbench/internal/common/benchmarkerrors"
	"github.com/armadaproject/pulsarbench/internal/common/pulsarutils"
	"github.com/armadaproject/pulsarbench/internal/pulsarbench/configuration"
	"github.com/armadaproject/pulsarbench/internal/pulsarbench/metrics"
)

type fakePublisher struct {
	mu       sync.Mutex
	payloads [][]byte
	// Returns the error to complete the nth send (0-based) with.
	sendErr  func(n int) error
	onSend   func()
	flushErr error
}

func (p *fakePublisher) SendAsync(_ context.Context, msg *pulsar.ProducerMessage, callback func(pulsar.MessageID, *pulsar.ProducerMessage, error)) {
	p.mu.Lock()
	n := len(p.payloads)
	p.payloads = append(p.payloads, msg.Payload)
	p.mu.Unlock()
	if p.onSend != nil {
		p.onSend()
	}
	var err error
	if p.sendErr != nil {
		err = p.sendErr(n)
	}
	go callback(pulsarutils.NewMessageId(n), msg, err)
}

func (p *fakePublisher) Flush() error {
	return p.flushErr
}

func (p *fakePublisher) sent() [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([][]byte(nil), p.payloads...)
}

func countSentinels(payloads [][]byte) int {
	n := 0
	for _, p := range payloads {
		if IsSentinel(p) {
			n++
		}
	}
	return n
}

func runProducer(t *testing.T, ctx *benchcontext.Context, p *Producer) Result {
	waitClosed(t, p.Start(ctx))
	result, err := p.Result()
	require.NoError(t, err)
	return result
}

func TestProducer_SendsMessagesThenOneSentinel(t *testing.T) {
	publisher := &fakePublisher{}
	p := NewProducer(publisher, configuration.ProducerConfig{
		Enabled:     true,
		Messages:    10,
		MessageSize: 16,
	}, clock.RealClock{}, metrics.NewMetrics("test_", nil))

	result := runProducer(t, benchcontext.Background(), p)

	payloads := publisher.sent()
	require.Len(t, payloads, 11)
	for _, payload := range payloads[:10] {
		assert.Equal(t, bytes.Repeat([]byte{'x'}, 16), payload)
		assert.False(t, IsSentinel(payload))
	}
	assert.Equal(t, SentinelPayload, payloads[10])
	assert.Equal(t, int64(10), result.OkMessages)
	assert.Equal(t, int64(0), result.FailedMessages)
	assert.Equal(t, 1, result.Participants)
	assert.Equal(t, result.AvgPerSecond, result.AggregatedAvgPerSecond)
}

func TestProducer_StopsAfterDuration(t *testing.T) {
	fakeClock := clocktesting.NewFakePassiveClock(time.Now())
	publisher := &fakePublisher{
		onSend: func() { fakeClock.SetTime(fakeClock.Now().Add(100 * time.Millisecond)) },
	}
	p := NewProducer(publisher, configuration.ProducerConfig{
		Enabled:     true,
		Duration:    time.Second,
		MessageSize: 4,
	}, fakeClock, metrics.NewMetrics("test_", nil))

	result := runProducer(t, benchcontext.Background(), p)

	// Ten sends take a second, then the sentinel.
	assert.Len(t, publisher.sent(), 11)
	assert.Equal(t, int64(10), result.OkMessages)
	assert.Equal(t, 1, countSentinels(publisher.sent()))
}

func TestProducer_CancelStillSendsSentinel(t *testing.T) {
	publisher := &fakePublisher{}
	p := NewProducer(publisher, configuration.ProducerConfig{
		Enabled:           true,
		MessageSize:       4,
		MessagesPerSecond: 1000,
	}, clock.RealClock{}, metrics.NewMetrics("test_", nil))

	ctx, cancel := benchcontext.WithCancel(benchcontext.Background())
	done := p.Start(ctx)
	time.Sleep(50 * time.Millisecond)
	cancel()
	waitClosed(t, done)

	payloads := publisher.sent()
	require.NotEmpty(t, payloads)
	assert.Equal(t, 1, countSentinels(payloads))
	assert.True(t, IsSentinel(payloads[len(payloads)-1]))
	_, err := p.Result()
	assert.NoError(t, err)
}

func TestProducer_CountsFailedSends(t *testing.T) {
	publisher := &fakePublisher{
		sendErr: func(n int) error {
			if n%2 == 1 {
				return errors.New("queue full")
			}
			return nil
		},
	}
	p := NewProducer(publisher, configuration.ProducerConfig{
		Enabled:     true,
		Messages:    10,
		MessageSize: 1,
	}, clock.RealClock{}, metrics.NewMetrics("test_", nil))

	result := runProducer(t, benchcontext.Background(), p)
	assert.Equal(t, int64(5), result.OkMessages)
	assert.Equal(t, int64(5), result.FailedMessages)
}

func TestProducer_FlushError(t *testing.T) {
	publisher := &fakePublisher{flushErr: errors.New("connection closed")}
	p := NewProducer(publisher, configuration.ProducerConfig{
		Enabled:     true,
		Messages:    1,
		MessageSize: 1,
	}, clock.RealClock{}, metrics.NewMetrics("test_", nil))

	waitClosed(t, p.Start(benchcontext.Background()))
	_, err := p.Result()
	assert.ErrorContains(t, err, "connection closed")
}

func TestProducer_ResultBeforeFinish(t *testing.T) {
	p := NewProducer(&fakePublisher{}, configuration.ProducerConfig{}, clock.RealClock{}, metrics.NewMetrics("test_", nil))
	_, err := p.Result()
	assert.ErrorIs(t, err, benchmarkerrors.ErrNotFinished)

	p.Shutdown()
	p.Shutdown()
	_, err = p.Result()
	var aborted *benchmarkerrors.ErrAborted
	assert.True(t, errors.As(err, &aborted))
}

func TestProducer_ShutdownStopsPublishing(t *testing.T) {
	publisher := &fakePublisher{}
	p := NewProducer(publisher, configuration.ProducerConfig{
		Enabled:           true,
		MessageSize:       4,
		MessagesPerSecond: 1000,
	}, clock.RealClock{}, metrics.NewMetrics("test_", nil))
	p.Start(benchcontext.Background())
	require.Eventually(t, func() bool { return len(publisher.sent()) > 0 }, timeout, time.Millisecond)

	p.Shutdown()
	_, err := p.Result()
	var aborted *benchmarkerrors.ErrAborted
	require.True(t, errors.As(err, &aborted))

	waitClosed(t, p.exited)
	sent := publisher.sent()
	assert.Equal(t, 1, countSentinels(sent))
	assert.True(t, IsSentinel(sent[len(sent)-1]))

	// The result doesn't change once the producer has resolved.
	_, err = p.Result()
	assert.True(t, errors.As(err, &aborted))
	time.Sleep(20 * time.Millisecond)
	assert.Len(t, publisher.sent(), len(sent))
}

func TestNewLimiter(t *testing.T) {
	assert.Equal(t, rate.Inf, newLimiter(0).Limit())
	assert.Equal(t, rate.Limit(500), newLimiter(500).Limit())
	assert.Equal(t, 5, newLimiter(500).Burst())
	assert.Equal(t, 1, newLimiter(10).Burst())
}
