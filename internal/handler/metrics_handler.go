package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/pocket-university-api/internal/service"
	"github.com/noah-isme/pocket-university-api/pkg/response"
)

// MetricsHandler exposes observability endpoints.
type MetricsHandler struct {
	metrics  *service.MetricsService
	backend  string
	degraded []string
}

// NewMetricsHandler constructs a metrics handler. degraded lists the
// collections that failed to load at startup.
func NewMetricsHandler(metrics *service.MetricsService, backend string, degraded []string) *MetricsHandler {
	return &MetricsHandler{metrics: metrics, backend: backend, degraded: degraded}
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Summary godoc
// @Summary System metrics snapshot
// @Tags Health
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /metrics/summary [get]
func (h *MetricsHandler) Summary(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.metrics.Snapshot())
}

// Health responds with a generic OK payload for liveness usage.
func (h *MetricsHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready reports the active backend. Degraded collections do not fail
// readiness since the portal serves what it loaded.
func (h *MetricsHandler) Ready(c *gin.Context) {
	status := "ready"
	if len(h.degraded) > 0 {
		status = "degraded"
	}
	degraded := h.degraded
	if degraded == nil {
		degraded = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"status": status, "backend": h.backend, "degraded": degraded})
}
