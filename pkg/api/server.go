// Package api exposes the booking workflow over HTTP: message intake,
// the reviewer task queue, runtime configuration, and the debug
// surfaces (event state, trace, sessions).
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/config"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/hil"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/store"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/workflow"
)

// Server holds the handlers' dependencies. The trace bus and session
// registry are reached through the workflow router, which owns them.
type Server struct {
	router *workflow.Router
	store  *store.Store
	hil    *hil.Service
	env    config.Environment
	logger *slog.Logger

	httpServer *http.Server
}

// NewServer creates the API server. All dependencies are required.
func NewServer(router *workflow.Router, st *store.Store, hilSvc *hil.Service, env config.Environment, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		router: router,
		store:  st,
		hil:    hilSvc,
		env:    env,
		logger: logger.With("component", "api"),
	}
}

// Handler builds the gin engine with all routes registered. Exposed
// separately from Start so tests can drive it with httptest.
func (s *Server) Handler() http.Handler {
	if s.env == config.EnvironmentProd {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(s.requestLogger(), s.recovery())

	engine.GET("/health", s.healthHandler)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := engine.Group("/api/v1")
	v1.POST("/messages", s.postMessageHandler)

	v1.GET("/tasks", s.listTasksHandler)
	v1.GET("/tasks/:id", s.getTaskHandler)
	v1.POST("/tasks/:id/approve", s.approveTaskHandler)
	v1.POST("/tasks/:id/approve-edited", s.approveEditedTaskHandler)
	v1.POST("/tasks/:id/reject", s.rejectTaskHandler)

	v1.GET("/events/:id", s.getEventHandler)
	v1.GET("/events/:id/trace", s.eventTraceHandler)
	v1.GET("/events/:id/activity", s.eventActivityHandler)

	v1.GET("/sessions", s.listSessionsHandler)

	v1.GET("/config", s.getConfigHandler)
	v1.PATCH("/config", s.patchConfigHandler)

	return engine
}

// Start serves the API on addr and blocks until the listener fails or
// Shutdown is called.
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
