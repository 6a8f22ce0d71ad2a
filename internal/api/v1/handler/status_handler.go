package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"optimus-coordinator/internal/domain"
)

// DispatchSnapshot is the read-only view StatusHandler needs from C3.
type DispatchSnapshot interface {
	Snapshot() (idle, busy []domain.WorkerAddress, pending int)
}

// MetricRegistry is the read-only view StatusHandler needs from C4.
type MetricRegistry interface {
	Names() []string
	AllValuesSet() bool
}

// LifecycleReporter is the read-only view StatusHandler needs of the
// application lifecycle C4 tracks.
type LifecycleReporter interface {
	Lifecycle() domain.AppLifecycleState
}

// StatusHandler exposes worker-pool occupancy, metric-registry
// completeness, and the last observed application lifecycle state,
// grounded on the teacher's StatusHandler (control-plane node status
// surface), generalized from "per-node CPU/cooldown status" to
// "per-process dispatcher/registry status".
type StatusHandler struct {
	dispatcher DispatchSnapshot
	registry   MetricRegistry
	lifecycle  LifecycleReporter
}

func NewStatusHandler(dispatcher DispatchSnapshot, registry MetricRegistry, lifecycle LifecycleReporter) *StatusHandler {
	return &StatusHandler{dispatcher: dispatcher, registry: registry, lifecycle: lifecycle}
}

// SetupRoutes configures the routes for this handler.
func (h *StatusHandler) SetupRoutes(router *gin.Engine) {
	statusGroup := router.Group("/api/v1/status")
	{
		statusGroup.GET("/workers", h.getWorkerStatus)
		statusGroup.GET("/metrics-registry", h.getMetricRegistryStatus)
	}
}

func (h *StatusHandler) getWorkerStatus(c *gin.Context) {
	idle, busy, pending := h.dispatcher.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"idleWorkers":    idle,
		"busyWorkers":    busy,
		"pendingRequests": pending,
		"lifecycle":      h.lifecycle.Lifecycle(),
	})
}

func (h *StatusHandler) getMetricRegistryStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"metricNames":  h.registry.Names(),
		"allValuesSet": h.registry.AllValuesSet(),
	})
}
