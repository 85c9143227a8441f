package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/academic-marks-api/internal/service"
)

func TestMetricsHandlerReady(t *testing.T) {
	h := NewMetricsHandler(service.NewMetricsService(), map[string]ReadinessCheck{
		"ledger": func(context.Context) error { return nil },
	})
	c, w := newGinContext(http.MethodGet, "/ready", nil)
	h.Ready(c)
	assert.Equal(t, http.StatusOK, w.Code)

	h = NewMetricsHandler(nil, map[string]ReadinessCheck{
		"redis": func(context.Context) error { return errors.New("connection refused") },
	})
	c, w = newGinContext(http.MethodGet, "/ready", nil)
	h.Ready(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")
}

func TestMetricsHandlerPrometheusAndSnapshot(t *testing.T) {
	metrics := service.NewMetricsService()
	metrics.ObserveHTTPRequest(http.MethodGet, "/api/v1/analysis/semesters", http.StatusOK, 0)
	h := NewMetricsHandler(metrics, nil)

	c, w := newGinContext(http.MethodGet, "/metrics", nil)
	h.Prometheus(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")

	c, w = newGinContext(http.MethodGet, "/api/v1/metrics", nil)
	h.Snapshot(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"requests_total":1`)

	c, w = newGinContext(http.MethodGet, "/health", nil)
	h.Health(c)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}
