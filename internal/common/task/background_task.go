package task

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"k8s.io/utils/clock"

	"github.com/armadaproject/pulsarbench/internal/common/benchcontext"
)

type task struct {
	function    func(ctx *benchcontext.Context)
	interval    time.Duration
	metricName  string
	stopChannel chan struct{}
}

// BackgroundTaskManager is not threadsafe, it should only be accessed from a single thread.
type BackgroundTaskManager struct {
	tasks         []*task
	metricsPrefix string
	factory       promauto.Factory
	clock         clock.WithTicker
	wg            *sync.WaitGroup
}

// NewBackgroundTaskManager creates a manager whose task latency histograms are registered with registerer. A nil
// registerer leaves the histograms unregistered.
func NewBackgroundTaskManager(metricsPrefix string, registerer prometheus.Registerer) *BackgroundTaskManager {
	return &BackgroundTaskManager{
		tasks:         []*task{},
		metricsPrefix: metricsPrefix,
		factory:       promauto.With(registerer),
		clock:         clock.RealClock{},
		wg:            &sync.WaitGroup{},
	}
}

// Register starts calling backgroundTask every interval, beginning after the first interval has elapsed.
func (m *BackgroundTaskManager) Register(
	ctx *benchcontext.Context,
	backgroundTask func(ctx *benchcontext.Context),
	interval time.Duration,
	metricName string,
) {
	task := &task{
		function:    backgroundTask,
		interval:    interval,
		metricName:  metricName,
		stopChannel: make(chan struct{}),
	}
	m.startBackgroundTask(ctx, task)
	m.tasks = append(m.tasks, task)
}

// StopAll stops every task and waits up to timeout for them to return. It reports whether the wait timed out.
func (m *BackgroundTaskManager) StopAll(timeout time.Duration) bool {
	m.stopTasks()
	return m.waitForShutdownCompletion(timeout)
}

func (m *BackgroundTaskManager) startBackgroundTask(ctx *benchcontext.Context, task *task) {
	taskDurationHistogram := m.factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    m.metricsPrefix + task.metricName + "_latency_seconds",
			Help:    "Background loop " + task.metricName + " latency in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 15),
		})

	taskCtx := benchcontext.WithLogField(ctx, "task", task.metricName)
	ticker := m.clock.NewTicker(task.interval)
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C():
			case <-task.stopChannel:
				return
			case <-ctx.Done():
				return
			}
			start := m.clock.Now()
			task.function(taskCtx)
			taskDurationHistogram.Observe(m.clock.Since(start).Seconds())
		}
	}()
}

func (m *BackgroundTaskManager) waitForShutdownCompletion(timeout time.Duration) bool {
	c := make(chan struct{})
	go func() {
		defer close(c)
		m.wg.Wait()
	}()
	select {
	case <-c:
		return false // completed normally
	case <-time.After(timeout):
		return true // timed out
	}
}

func (m *BackgroundTaskManager) stopTasks() {
	for _, task := range m.tasks {
		close(task.stopChannel)
	}
	m.tasks = nil
}
