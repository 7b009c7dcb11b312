// Package http implements the REST surface used by the desktop shell for
// queries that do not need the event stream: health, view listing, blocker
// controls, and metrics.
package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/flowscape/flowscape/backend/internal/domain/lifecycle"
	"github.com/flowscape/flowscape/backend/internal/infrastructure/monitoring"
)

// Handlers serves the REST endpoints over the lifecycle controller.
type Handlers struct {
	controller *lifecycle.Controller
	metrics    *monitoring.Metrics
	startTime  time.Time
	version    string
}

// NewHandlers creates the REST handler set.
func NewHandlers(controller *lifecycle.Controller, metrics *monitoring.Metrics, version string) *Handlers {
	return &Handlers{
		controller: controller,
		metrics:    metrics,
		startTime:  time.Now(),
		version:    version,
	}
}

// Root identifies the service.
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "flowscape-backend",
		"version": h.version,
		"status":  "running",
	})
}

// Health reports liveness plus a few load indicators.
func (h *Handlers) Health(c *gin.Context) {
	blocker := h.controller.BlockerStatus()
	c.JSON(http.StatusOK, gin.H{
		"status":          "healthy",
		"uptime_seconds":  time.Since(h.startTime).Seconds(),
		"views":           len(h.controller.Views()),
		"blocklist_rules": blocker.RuleCount,
	})
}

// ListViews returns every live view, sorted by key.
func (h *Handlers) ListViews(c *gin.Context) {
	views := h.controller.Views()
	c.JSON(http.StatusOK, gin.H{
		"views": views,
		"count": len(views),
	})
}

// BlockerStatus returns the decision engine's current state.
func (h *Handlers) BlockerStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.controller.BlockerStatus())
}

// ToggleBlocker flips the blocker and returns the new state. The matching
// status event also reaches every stream subscriber.
func (h *Handlers) ToggleBlocker(c *gin.Context) {
	enabled := h.controller.ToggleBlocker()
	c.JSON(http.StatusOK, gin.H{"enabled": enabled})
}

// MetricsJSON returns the snapshot counters for dashboards that do not
// scrape Prometheus.
func (h *Handlers) MetricsJSON(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"timestamp": time.Now(),
		"backend":   h.metrics.GetSnapshot(),
	})
}
