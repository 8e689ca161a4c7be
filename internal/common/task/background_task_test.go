package task

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	clock "k8s.io/utils/clock/testing"

	"github.com/armadaproject/pulsarbench/internal/common/benchcontext"
)

func TestBackgroundTaskManager_RunsOnEveryTick(t *testing.T) {
	fakeClock := clock.NewFakeClock(time.Now())
	m := NewBackgroundTaskManager("pulsarbench_test_", prometheus.NewRegistry())
	m.clock = fakeClock

	var calls atomic.Int32
	m.Register(benchcontext.Background(), func(ctx *benchcontext.Context) { calls.Add(1) }, time.Second, "stats")

	assert.Eventually(t, fakeClock.HasWaiters, 5*time.Second, time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())

	fakeClock.Step(time.Second)
	assert.Eventually(t, func() bool { return calls.Load() == 1 }, 5*time.Second, time.Millisecond)

	fakeClock.Step(time.Second)
	assert.Eventually(t, func() bool { return calls.Load() == 2 }, 5*time.Second, time.Millisecond)

	assert.False(t, m.StopAll(5*time.Second))
}

func TestBackgroundTaskManager_StopsOnContextCancel(t *testing.T) {
	m := NewBackgroundTaskManager("pulsarbench_test_", nil)
	ctx, cancel := benchcontext.WithCancel(benchcontext.Background())
	m.Register(ctx, func(ctx *benchcontext.Context) {}, time.Hour, "noop")
	cancel()
	assert.False(t, m.StopAll(5*time.Second))
}
