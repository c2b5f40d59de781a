// Package api serves the pool journal over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lugondev/go-swappool/internal/common"
	"github.com/lugondev/go-swappool/internal/metrics"
	"github.com/lugondev/go-swappool/internal/storage"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// Server is the read-only journal API.
type Server struct {
	common.LoggerMixin

	repo     storage.Repository
	metrics  metrics.Metrics
	gatherer prometheus.Gatherer
	router   *gin.Engine
	server   *http.Server
}

type Option func(*Server)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.SetLogger(logger) }
}

func WithMetrics(m metrics.Metrics) Option {
	return func(s *Server) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithGatherer exposes g on /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

func NewServer(repo storage.Repository, opts ...Option) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		LoggerMixin: common.NewLoggerMixin("api"),
		repo:        repo,
		metrics:     metrics.NewNoopMetrics(),
		router:      router,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupMiddleware() {
	s.router.Use(func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start)
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())

		s.GetLogger().Debug("api request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration_ms", duration.Milliseconds(),
		)

		ctx := c.Request.Context()
		_ = s.metrics.IncrementCounter(ctx, metrics.MetricAPIRequests, 1,
			metrics.L(metrics.LabelRoute, route), metrics.L(metrics.LabelStatus, status))
		_ = s.metrics.RecordHistogram(ctx, metrics.MetricAPIRequestDuration, duration.Seconds(),
			metrics.L(metrics.LabelRoute, route))
	})
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)
	if s.gatherer != nil {
		s.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}

	v1 := s.router.Group("/api/v1")
	{
		pools := v1.Group("/pools")
		{
			pools.GET("", s.handleGetPools)
			pools.GET("/:address", s.handleGetPool)
			pools.GET("/:address/operations", s.handleGetPoolOperations)
		}

		v1.GET("/operations", s.handleGetOperations)

		txs := v1.Group("/transactions")
		{
			txs.GET("", s.handleGetTransactions)
			txs.GET("/:signature", s.handleGetTransaction)
		}
	}
}

// Start serves on addr until Stop is called. Start after Stop returns
// immediately.
func (s *Server) Start(addr string) error {
	s.GetLogger().Info("starting API server", "address", addr)

	s.server.Addr = addr

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start API server: %w", err)
	}
	return nil
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	s.GetLogger().Info("stopping API server")
	return s.server.Shutdown(ctx)
}

// page reads limit and offset query parameters.
func page(c *gin.Context) (limit, offset int, err error) {
	limit, err = queryInt(c, "limit", defaultLimit)
	if err != nil {
		return 0, 0, err
	}
	if limit <= 0 || limit > maxLimit {
		limit = maxLimit
	}
	offset, err = queryInt(c, "offset", 0)
	if err != nil {
		return 0, 0, err
	}
	if offset < 0 {
		return 0, 0, fmt.Errorf("offset must not be negative")
	}
	return limit, offset, nil
}

func queryInt(c *gin.Context, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, raw)
	}
	return v, nil
}

func (s *Server) badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
}

func (s *Server) internalError(c *gin.Context, what string, err error) {
	s.GetLogger().Error("failed to fetch "+what, "error", err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to fetch " + what})
}
