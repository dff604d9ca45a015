package http

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/commerce-saga/internal/metrics"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewMetricsServer(t *testing.T) {
	gin.SetMode(gin.TestMode)

	server := NewMetricsServer("localhost", 8081, newTestLogger(), nil)

	assert.NotNil(t, server)
	assert.NotNil(t, server.GetHandler())
}

func TestMetricsServer_HealthEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)

	server := NewMetricsServer("localhost", 8081, newTestLogger(), nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	server.GetHandler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, w.Body.String())
}

func TestMetricsServer_ReadyEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)

	server := NewMetricsServer("localhost", 8081, newTestLogger(), nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	server.GetHandler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ready"}`, w.Body.String())
}

func TestMetricsServer_MetricsEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)

	provider, err := metrics.NewProvider("test_app")
	require.NoError(t, err)

	server := NewMetricsServer("localhost", 8081, newTestLogger(), provider)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	server.GetHandler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMetricsServer_MetricsEndpointAbsentWhenDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)

	server := NewMetricsServer("localhost", 8081, newTestLogger(), nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	server.GetHandler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMetricsServer_Shutdown(t *testing.T) {
	gin.SetMode(gin.TestMode)

	server := NewMetricsServer("localhost", 0, newTestLogger(), nil)

	err := server.Shutdown(context.Background())
	assert.NoError(t, err)
}
