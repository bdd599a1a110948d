package handler

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/openbooks/backend/internal/infrastructure/metrics"
	"github.com/openbooks/backend/internal/interfaces/http/dto"
)

// mockPinger is a mock implementation of Pinger
type mockPinger struct {
	err error
}

func (m *mockPinger) Ping() error {
	return m.err
}

func newSystemTestRouter(registry *metrics.Registry, db Pinger, promEnabled bool) *gin.Engine {
	r := gin.New()
	h := NewSystemHandler(registry, db, promEnabled)
	h.RegisterRoutes(r.Group("/api/v1"))
	return r
}

func TestSystemHandler_GetSystemInfo(t *testing.T) {
	r := newSystemTestRouter(metrics.NewRegistry(), nil, false)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/system/info", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "OpenBooks API", data["name"])
	assert.NotEmpty(t, data["go_version"])
	assert.NotEmpty(t, data["uptime"])
}

func TestSystemHandler_Ping(t *testing.T) {
	r := newSystemTestRouter(metrics.NewRegistry(), nil, false)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/system/ping", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "pong", data["message"])
}

func TestSystemHandler_Health(t *testing.T) {
	t.Run("healthy database", func(t *testing.T) {
		r := newSystemTestRouter(metrics.NewRegistry(), &mockPinger{}, false)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/system/health", nil)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"ok"`)
	})

	t.Run("unreachable database", func(t *testing.T) {
		r := newSystemTestRouter(metrics.NewRegistry(), &mockPinger{err: fmt.Errorf("connection refused")}, false)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/system/health", nil)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), `"database":"unreachable"`)
	})

	t.Run("no database configured", func(t *testing.T) {
		r := newSystemTestRouter(metrics.NewRegistry(), nil, false)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/system/health", nil)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestSystemHandler_GetMetrics(t *testing.T) {
	registry := metrics.NewRegistry()
	registry.Inc(metrics.SyncRuns)
	registry.Add(metrics.SyncCreated, 17)
	r := newSystemTestRouter(registry, nil, false)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/system/metrics", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	data := resp.Data.(map[string]interface{})
	counters := data["counters"].(map[string]interface{})
	assert.Equal(t, float64(1), counters[metrics.SyncRuns])
	assert.Equal(t, float64(17), counters[metrics.SyncCreated])
	assert.NotEmpty(t, data["generated_at"])
}

func TestSystemHandler_PrometheusMetrics(t *testing.T) {
	t.Run("serves exposition format when enabled", func(t *testing.T) {
		registry := metrics.NewRegistry()
		registry.Add(metrics.SyncCreated, 5)
		r := newSystemTestRouter(registry, nil, true)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/system/metrics/prom", nil)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "pos_sync_created 5")
	})

	t.Run("answers 404 when disabled", func(t *testing.T) {
		r := newSystemTestRouter(metrics.NewRegistry(), nil, false)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/system/metrics/prom", nil)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
		resp := decodeResponse(t, w)
		assert.Equal(t, dto.ErrCodeNotFound, resp.Error.Code)
	})
}
