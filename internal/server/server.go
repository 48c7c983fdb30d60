package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/poddle/demotrace/internal/config"
	"github.com/poddle/demotrace/internal/logging"
	"github.com/poddle/demotrace/internal/middleware"
	"github.com/poddle/demotrace/internal/monitoring"
	"github.com/poddle/demotrace/internal/sim"
	"github.com/poddle/demotrace/internal/tenant/bookshop"
	"github.com/poddle/demotrace/internal/tenant/ecommerce"
	"github.com/poddle/demotrace/internal/tenant/items"
	"github.com/poddle/demotrace/internal/tenant/todo"
	"github.com/poddle/demotrace/internal/tracing"
	"github.com/poddle/demotrace/internal/tracing/export"
)

// shutdownGrace bounds the final export flush on Close.
const shutdownGrace = 10 * time.Second

// Server wraps the HTTP server and the tracing pipeline behind it.
type Server struct {
	router   *gin.Engine
	httpSrv  *http.Server
	config   *config.Config
	logger   *logging.Logger
	metrics  *monitoring.Metrics
	tracer   *tracing.Tracer
	exporter *export.Exporter
}

// NewServer assembles the tenant service: exporter, tracer, simulator,
// middleware chain, and the routes of the configured tenant.
func NewServer(cfg *config.Config) (*Server, error) {
	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Development: cfg.Logging.Development,
		OutputPaths: []string{"stdout"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	logger.Info("Initializing tenant service",
		zap.String("tenant", cfg.Service.Tenant),
		zap.String("service", cfg.Service.Name),
		zap.String("port", cfg.Server.Port),
		zap.String("collector", cfg.Exporter.Endpoint),
	)

	metrics := monitoring.NewMetrics()

	transport, err := newTransport(cfg)
	if err != nil {
		return nil, err
	}

	exporter := export.New(transport, export.Config{
		QueueCapacity: cfg.Exporter.QueueCapacity,
		BatchSize:     cfg.Exporter.BatchSize,
		FlushInterval: cfg.Exporter.FlushInterval,
		MaxRetries:    cfg.Exporter.MaxRetries,
		RetryBackoff:  cfg.Exporter.RetryBackoff,
	}, logger, metrics)

	tracer := tracing.New(cfg.Service.Name, logger, exporter)

	var simulator *sim.Simulator
	if cfg.Sim.Seed != 0 {
		simulator = sim.NewWithSeed(cfg.Sim.CacheHitRate, cfg.Sim.Seed, logger)
	} else {
		simulator = sim.New(cfg.Sim.CacheHitRate, logger)
	}

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	s := &Server{
		router:   router,
		config:   cfg,
		logger:   logger,
		metrics:  metrics,
		tracer:   tracer,
		exporter: exporter,
	}

	router.GET("/", s.root)
	router.GET("/health", s.health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if err := registerTenant(router, cfg.Service.Tenant, tracer, simulator, logger); err != nil {
		return nil, err
	}

	logger.Info("Server initialized", zap.String("tenant", cfg.Service.Tenant))
	return s, nil
}

// newTransport builds the collector transport selected by configuration.
func newTransport(cfg *config.Config) (export.Transport, error) {
	res := export.Resource{
		ServiceName:    cfg.Service.Name,
		ServiceVersion: cfg.Service.Version,
		Environment:    cfg.Service.Environment,
	}

	switch cfg.Exporter.Protocol {
	case "grpc":
		transport, err := export.NewGRPC(cfg.Exporter.Endpoint, cfg.Exporter.Insecure, res)
		if err != nil {
			return nil, fmt.Errorf("failed to build grpc transport: %w", err)
		}
		return transport, nil
	case "http":
		return export.NewHTTP(cfg.Exporter.Endpoint, res), nil
	default:
		return nil, fmt.Errorf("unknown export protocol %q (want grpc or http)", cfg.Exporter.Protocol)
	}
}

// registerTenant mounts the handler set for the named tenant.
func registerTenant(router gin.IRouter, tenant string, tracer *tracing.Tracer, simulator *sim.Simulator, logger *logging.Logger) error {
	switch tenant {
	case "bookshop":
		bookshop.New(tracer, simulator, logger).Register(router)
	case "todo":
		todo.New(tracer, simulator, logger).Register(router)
	case "ecommerce":
		ecommerce.New(tracer, simulator, logger).Register(router)
	case "items":
		items.New(tracer, logger).Register(router)
	default:
		return fmt.Errorf("unknown tenant %q (want bookshop, todo, ecommerce, or items)", tenant)
	}
	return nil
}

func (s *Server) root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": s.config.Service.Name,
		"tenant":  s.config.Service.Tenant,
		"version": s.config.Service.Version,
	})
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":        "ok",
		"service":       s.config.Service.Name,
		"tenant":        s.config.Service.Tenant,
		"spans_pending": s.exporter.Pending(),
		"spans_dropped": s.exporter.Dropped(),
	})
}

// Router exposes the configured engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Run starts the HTTP server and blocks until it stops.
func (s *Server) Run() error {
	addr := s.config.Server.Host + ":" + s.config.Server.Port
	s.logger.Info("Starting HTTP server", zap.String("addr", addr))

	s.httpSrv = &http.Server{
		Addr:    addr,
		Handler: s.router,
	}
	if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close gracefully shuts down the server: stop accepting requests, then give
// the exporter a bounded window to flush pending spans.
func (s *Server) Close() error {
	s.logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	if s.httpSrv != nil {
		if err := s.httpSrv.Shutdown(ctx); err != nil {
			s.logger.Error("HTTP server shutdown failed", zap.Error(err))
		}
	}

	if err := s.exporter.Shutdown(ctx); err != nil {
		s.logger.Error("Exporter shutdown incomplete", zap.Error(err))
		return err
	}

	s.logger.Info("Server shutdown complete")
	return nil
}
