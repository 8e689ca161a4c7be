package serve

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/armadaproject/pulsarbench/internal/common/benchcontext"
	"github.com/armadaproject/pulsarbench/internal/common/health"
	"github.com/armadaproject/pulsarbench/internal/common/logging"
)

// NewMetricsServer returns a server exposing gatherer on /metrics and checker on /health.
func NewMetricsServer(port uint16, gatherer prometheus.Gatherer, checker health.Checker) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	health.SetupHttpMux(mux, checker)
	return &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}
}

// ServeMetrics starts the metrics server in the background. It stops when ctx is cancelled; the returned channel is
// closed once it has.
func ServeMetrics(
	ctx *benchcontext.Context,
	port uint16,
	gatherer prometheus.Gatherer,
	checker health.Checker,
) <-chan struct{} {
	server := NewMetricsServer(port, gatherer, checker)
	done := make(chan struct{})
	go func() {
		defer close(done)
		ctx.Log.Infof("Serving metrics on %s", server.Addr)
		if err := ListenAndServe(ctx, server); err != nil {
			logging.WithStacktrace(ctx.Log, err).Error("metrics server failure")
		}
	}()
	return done
}
