package handler

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/openbooks/backend/internal/infrastructure/metrics"
)

// Pinger reports database connectivity
type Pinger interface {
	Ping() error
}

// SystemHandler handles system-related API endpoints
type SystemHandler struct {
	BaseHandler
	registry    *metrics.Registry
	db          Pinger
	promEnabled bool
	promHandler http.Handler
	startTime   time.Time
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(registry *metrics.Registry, db Pinger, promEnabled bool) *SystemHandler {
	h := &SystemHandler{
		registry:    registry,
		db:          db,
		promEnabled: promEnabled,
		startTime:   time.Now(),
	}
	if promEnabled {
		h.promHandler = metrics.Handler(registry)
	}
	return h
}

// RegisterRoutes registers system routes on the given router group
func (h *SystemHandler) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group("/system")
	group.GET("/info", h.GetSystemInfo)
	group.GET("/ping", h.Ping)
	group.GET("/health", h.Health)
	group.GET("/metrics", h.GetMetrics)
	group.GET("/metrics/prom", h.PrometheusMetrics)
}

// SystemInfoResponse represents the system information response
type SystemInfoResponse struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	Uptime    string `json:"uptime"`
}

// GetSystemInfo returns basic system information including version and uptime
func (h *SystemHandler) GetSystemInfo(c *gin.Context) {
	h.Success(c, SystemInfoResponse{
		Name:      "OpenBooks API",
		Version:   "1.0.0",
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	})
}

// PingResponse represents the ping response
type PingResponse struct {
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// Ping checks whether the API is responsive
func (h *SystemHandler) Ping(c *gin.Context) {
	h.Success(c, PingResponse{
		Message:   "pong",
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// Health reports service health including database connectivity
func (h *SystemHandler) Health(c *gin.Context) {
	resp := HealthResponse{Status: "ok", Database: "ok"}

	if h.db != nil {
		if err := h.db.Ping(); err != nil {
			resp.Status = "degraded"
			resp.Database = "unreachable"
			c.JSON(http.StatusServiceUnavailable, resp)
			return
		}
	}

	c.JSON(http.StatusOK, resp)
}

// GetMetrics returns a JSON snapshot of all operational counters
func (h *SystemHandler) GetMetrics(c *gin.Context) {
	h.Success(c, h.registry.Snapshot())
}

// PrometheusMetrics serves the counters in Prometheus exposition format.
// Answers 404 when the Prometheus endpoint is disabled by configuration.
func (h *SystemHandler) PrometheusMetrics(c *gin.Context) {
	if !h.promEnabled {
		h.NotFound(c, "Prometheus metrics endpoint is disabled")
		return
	}
	h.promHandler.ServeHTTP(c.Writer, c.Request)
}
