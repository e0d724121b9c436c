package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/version"
)

const (
	healthStatusHealthy   = "healthy"
	healthStatusUnhealthy = "unhealthy"
)

// healthHandler handles GET /health. Only the store is checked: the LLM
// providers are external and a provider outage already degrades to the
// fallback reply, so it must not fail the liveness probe.
func (s *Server) healthHandler(c *gin.Context) {
	reqCtx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]HealthCheck)
	status := healthStatusHealthy

	release, err := s.store.Acquire(reqCtx)
	if err != nil {
		status = healthStatusUnhealthy
		checks["store"] = HealthCheck{Status: healthStatusUnhealthy, Message: err.Error()}
	} else {
		_, loadErr := s.store.Load()
		release()
		if loadErr != nil {
			status = healthStatusUnhealthy
			checks["store"] = HealthCheck{Status: healthStatusUnhealthy, Message: loadErr.Error()}
		} else {
			checks["store"] = HealthCheck{Status: healthStatusHealthy}
		}
	}

	httpStatus := http.StatusOK
	if status == healthStatusUnhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, &HealthResponse{
		Status:  status,
		Version: version.GitCommit(),
		Checks:  checks,
	})
}

// listSessionsHandler handles GET /api/v1/sessions. It serves the
// in-memory thread summaries, most recently updated first.
func (s *Server) listSessionsHandler(c *gin.Context) {
	sessions := s.router.Sessions().List()
	c.JSON(http.StatusOK, &SessionListResponse{
		Sessions: sessions,
		Count:    len(sessions),
	})
}
