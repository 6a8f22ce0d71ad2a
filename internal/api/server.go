package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"optimus-coordinator/internal/api/v1/handler"
	"optimus-coordinator/internal/api/v1/middleware"
)

// Server is the HTTP surface SPEC_FULL.md's Observability/Operability
// section adds: health/readiness/liveness, worker and registry status,
// and a Prometheus /metrics scrape endpoint. Grounded on the teacher's
// internal/server/server.go Run() bootstrap shape, generalized from a
// signal-driven single application loop to a component this process
// wires independently of the messaging core.
type Server struct {
	httpServer *http.Server
}

// NewServer builds the gin engine and registers every route.
func NewServer(
	addr string,
	health *handler.HealthHandler,
	status *handler.StatusHandler,
) *Server {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), middleware.LoggingMiddleware())

	health.SetupRoutes(r)
	status.SetupRoutes(r)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return &Server{
		httpServer: &http.Server{
			Addr:    addr,
			Handler: r,
		},
	}
}

// Run starts serving until ctx is cancelled, then shuts down within
// shutdownTimeout.
func (s *Server) Run(ctx context.Context, shutdownTimeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}
