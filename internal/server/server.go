// Package server provides the HTTP API for car-diagnoser.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/mrhapile/car-diagnoser/internal/catalog"
	"github.com/mrhapile/car-diagnoser/internal/metrics"
	"github.com/mrhapile/car-diagnoser/pkg/engine"
	"github.com/mrhapile/car-diagnoser/pkg/types"
)

// CatalogReader lists stored makes and models.
type CatalogReader interface {
	ListMakes(ctx context.Context) ([]catalog.Make, error)
	ListModels(ctx context.Context, makeID int64) ([]catalog.Model, error)
}

// CatalogUpdater refreshes the stored catalog from upstream.
type CatalogUpdater interface {
	Update(ctx context.Context) (catalog.UpsertStats, error)
}

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int
}

// Deps are the collaborators the server routes to. Updater may be nil, in
// which case catalog refreshes are refused.
type Deps struct {
	Engine  *engine.Engine
	Catalog CatalogReader
	Updater CatalogUpdater
	Metrics *metrics.Metrics
	Logger  *zap.Logger
}

// Server provides HTTP endpoints for car-diagnoser.
type Server struct {
	echo    *echo.Echo
	engine  *engine.Engine
	catalog CatalogReader
	updater CatalogUpdater
	metrics *metrics.Metrics
	logger  *zap.Logger
	config  *Config
}

// NewServer creates a new HTTP server.
func NewServer(deps Deps, cfg *Config) (*Server, error) {
	if deps.Engine == nil {
		return nil, fmt.Errorf("engine cannot be nil")
	}
	if deps.Catalog == nil {
		return nil, fmt.Errorf("catalog cannot be nil")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}
	if cfg == nil {
		cfg = &Config{
			Host: "localhost",
			Port: 3000,
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:    e,
		engine:  deps.Engine,
		catalog: deps.Catalog,
		updater: deps.Updater,
		metrics: deps.Metrics,
		logger:  deps.Logger,
		config:  cfg,
	}

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORS())
	e.Use(s.observe)

	s.registerRoutes()

	return s, nil
}

// observe logs and records metrics for every request.
func (s *Server) observe(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		if err != nil {
			c.Error(err)
		}
		duration := time.Since(start)

		route := c.Path()
		if route == "" {
			route = "unmatched"
		}
		s.metrics.ObserveHTTP(c.Request().Method, route, c.Response().Status, duration)
		s.logger.Info("http request",
			zap.String("method", c.Request().Method),
			zap.String("uri", c.Request().RequestURI),
			zap.Int("status", c.Response().Status),
			zap.Duration("duration", duration),
			zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
		)
		return nil
	}
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))

	// Catalog routes keep the paths the web client already uses.
	api := s.echo.Group("/api")
	api.GET("/makes", s.handleListMakes)
	api.GET("/models/:makeId", s.handleListModels)
	api.POST("/update-database", s.handleUpdateCatalog)

	v1 := s.echo.Group("/api/v1")
	v1.GET("/symptoms", s.handleSymptoms)
	v1.POST("/diagnose", s.handleDiagnose)
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status               string `json:"status"`
	KnowledgeBaseVersion string `json:"knowledgeBaseVersion"`
	Rules                int    `json:"rules"`
}

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// UpdateResponse is the response body for POST /api/update-database.
type UpdateResponse struct {
	Message     string `json:"message"`
	MakesAdded  int    `json:"makesAdded"`
	ModelsAdded int    `json:"modelsAdded"`
}

// SymptomsResponse is the response body for GET /api/v1/symptoms.
type SymptomsResponse struct {
	Version  string              `json:"version"`
	Symptoms []types.SymptomInfo `json:"symptoms"`
}

func (s *Server) handleHealth(c echo.Context) error {
	kb := s.engine.KnowledgeBase()
	return c.JSON(http.StatusOK, HealthResponse{
		Status:               "ok",
		KnowledgeBaseVersion: kb.Version(),
		Rules:                kb.Len(),
	})
}

func (s *Server) handleListMakes(c echo.Context) error {
	makes, err := s.catalog.ListMakes(c.Request().Context())
	if err != nil {
		s.logger.Error("failed to fetch makes", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to fetch makes"})
	}
	return c.JSON(http.StatusOK, makes)
}

func (s *Server) handleListModels(c echo.Context) error {
	makeID, err := strconv.ParseInt(c.Param("makeId"), 10, 64)
	if err != nil || makeID <= 0 {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "makeId must be a positive integer"})
	}

	models, err := s.catalog.ListModels(c.Request().Context(), makeID)
	if errors.Is(err, catalog.ErrNotFound) {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "Make not found"})
	}
	if err != nil {
		s.logger.Error("failed to fetch models", zap.Int64("make_id", makeID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to fetch models"})
	}
	return c.JSON(http.StatusOK, models)
}

func (s *Server) handleUpdateCatalog(c echo.Context) error {
	if s.updater == nil {
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "Catalog updates are disabled"})
	}

	stats, err := s.updater.Update(c.Request().Context())
	s.metrics.ObserveCatalogUpdate(err)
	if err != nil {
		s.logger.Error("failed to update catalog", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to update database"})
	}
	return c.JSON(http.StatusOK, UpdateResponse{
		Message:     "Database updated successfully",
		MakesAdded:  stats.Makes,
		ModelsAdded: stats.Models,
	})
}

func (s *Server) handleSymptoms(c echo.Context) error {
	kb := s.engine.KnowledgeBase()
	return c.JSON(http.StatusOK, SymptomsResponse{
		Version:  kb.Version(),
		Symptoms: kb.Symptoms(),
	})
}

func (s *Server) handleDiagnose(c echo.Context) error {
	var req engine.Request
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid diagnose request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}
	if req.Limit < 0 {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "limit must not be negative"})
	}
	for _, o := range req.Symptoms {
		if !o.Intensity.IsValid() {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("unknown intensity %q", o.Intensity)})
		}
	}

	start := time.Now()
	report, err := s.engine.Analyze(req)
	if errors.Is(err, types.ErrInvalidVehicle) {
		s.metrics.ObserveInvalidDiagnosis()
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}
	if err != nil {
		s.logger.Error("diagnosis failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Diagnosis failed"})
	}
	s.metrics.ObserveDiagnosis(len(report.Results), time.Since(start))

	s.logger.Debug("diagnosis complete",
		zap.String("report_id", report.ID),
		zap.Stringer("vehicle", report.Vehicle),
		zap.Int("symptoms", len(req.Symptoms)),
		zap.Int("results", len(report.Results)),
	)
	return c.JSON(http.StatusOK, report)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}
