package serve

import (
	"context"
	"net/http"
	"time"

	"github.com/pkg/errors"

	"github.com/armadaproject/pulsarbench/internal/common/benchcontext"
)

const shutdownTimeout = 5 * time.Second

// ListenAndServe runs server until ctx is cancelled and then shuts it down gracefully.
func ListenAndServe(ctx *benchcontext.Context, server *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.WithStack(err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		ctx.Log.Infof("Stopping http server listening on %s", server.Addr)
		return errors.WithStack(server.Shutdown(shutdownCtx))
	}
}
