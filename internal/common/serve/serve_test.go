package serve

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/armadaproject/pulsarbench/internal/common/benchcontext"
	"github.com/armadaproject/pulsarbench/internal/common/health"
)

func TestNewMetricsServer(t *testing.T) {
	reg := prometheus.NewRegistry()
	promauto.With(reg).NewCounter(prometheus.CounterOpts{Name: "pulsarbench_test_total", Help: "test"}).Inc()

	server := NewMetricsServer(9000, reg, health.CheckerFunc(func() error { return nil }))
	assert.Equal(t, ":9000", server.Addr)

	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "pulsarbench_test_total 1")

	rec = httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestServeMetricsStopsOnCancel(t *testing.T) {
	ctx, cancel := benchcontext.WithCancel(benchcontext.Background())
	done := ServeMetrics(ctx, 0, prometheus.NewRegistry(), health.NewMultiChecker())
	cancel()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		require.Fail(t, "metrics server did not stop")
	}
}
