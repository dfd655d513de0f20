// Package server exposes the workflow engine over HTTP: workflow CRUD, run
// and validate endpoints, execution history, health, and metrics.
package server

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aquanode/aqua-engine/core/config"
	"github.com/aquanode/aqua-engine/core/executor"
	"github.com/aquanode/aqua-engine/core/workflowstore"
	"github.com/aquanode/aqua-engine/pkg/logger"
)

type HttpJsonResp[T any] struct {
	Data T `json:"data"`
}

type Server struct {
	config   *config.Config
	store    *workflowstore.Store
	executor *executor.Executor
	logger   logger.Logger

	echo *echo.Echo
}

func New(cfg *config.Config, store *workflowstore.Store, x *executor.Executor, lg logger.Logger) *Server {
	s := &Server{
		config:   cfg,
		store:    store,
		executor: x,
		logger:   logger.EnsureLogger(lg),
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	e.GET("/up", func(c echo.Context) error {
		return c.String(http.StatusOK, "up")
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api/v1", s.ownerMiddleware)
	api.POST("/workflows", s.createWorkflow)
	api.GET("/workflows", s.listWorkflows)
	api.GET("/workflows/:id", s.getWorkflow)
	api.PUT("/workflows/:id", s.updateWorkflow)
	api.DELETE("/workflows/:id", s.deleteWorkflow)
	api.POST("/workflows/validate", s.validateWorkflow)
	api.POST("/workflows/:id/validate", s.validateStoredWorkflow)
	api.POST("/workflows/:id/run", s.runWorkflow)
	api.GET("/workflows/:id/executions", s.listExecutions)
	api.GET("/workflows/:id/executions/:executionId", s.getExecution)

	s.echo = e
	return s
}

func (s *Server) Start() error {
	addr := s.config.HTTP.BindAddress
	s.logger.Info("HTTP server listening", "address", addr)
	return s.echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
