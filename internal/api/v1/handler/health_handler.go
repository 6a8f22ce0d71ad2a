package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// runningChecker reports whether C5's execution-control gate is still
// Running; readiness tracks it rather than being a static "ready".
type runningChecker interface {
	Running() bool
}

// HealthHandler provides health check endpoints.
type HealthHandler struct {
	startTime time.Time
	lifecycle runningChecker
}

func NewHealthHandler(lifecycle runningChecker) *HealthHandler {
	return &HealthHandler{
		startTime: time.Now(),
		lifecycle: lifecycle,
	}
}

// SetupRoutes registers handler routes to the router.
func (h *HealthHandler) SetupRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		api.GET("/health", h.healthCheck)
		api.GET("/readiness", h.readinessCheck)
		api.GET("/liveness", h.livenessCheck)
	}
}

func (h *HealthHandler) healthCheck(c *gin.Context) {
	uptime := time.Since(h.startTime).String()

	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "service is running",
		"uptime":  uptime,
	})
}

// readinessCheck reflects C5's Running flag: once Stop has been
// called, the process stops advertising itself as ready.
func (h *HealthHandler) readinessCheck(c *gin.Context) {
	if h.lifecycle != nil && !h.lifecycle.Running() {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "stopped",
			"message": "execution control has stopped the coordinator",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "ready",
		"message": "service is ready to accept requests",
	})
}

func (h *HealthHandler) livenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}
