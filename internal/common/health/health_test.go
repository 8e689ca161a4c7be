package health

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestMultiChecker(t *testing.T) {
	mc := NewMultiChecker()
	assert.NoError(t, mc.Check())

	mc.Add(CheckerFunc(func() error { return nil }))
	assert.NoError(t, mc.Check())

	mc.Add(CheckerFunc(func() error { return errors.New("reactor stopped") }))
	mc.Add(CheckerFunc(func() error { return errors.New("client closed") }))
	err := mc.Check()
	assert.ErrorContains(t, err, "reactor stopped")
	assert.ErrorContains(t, err, "client closed")
}

func TestHealthCheckHttpHandler(t *testing.T) {
	var healthErr error
	mux := http.NewServeMux()
	SetupHttpMux(mux, CheckerFunc(func() error { return healthErr }))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	healthErr = errors.New("not started")
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "not started", rec.Body.String())
}
