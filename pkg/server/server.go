// Package server wires the HTTP service: dependency container, middleware,
// and route registration.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Gobusters/ectoinject"
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/ayurlink/tulsi/config"
	"github.com/ayurlink/tulsi/pkg/aggregator"
	"github.com/ayurlink/tulsi/pkg/events"
	"github.com/ayurlink/tulsi/pkg/matching"
	"github.com/ayurlink/tulsi/pkg/middleware"
	"github.com/ayurlink/tulsi/pkg/ner"
	"github.com/ayurlink/tulsi/pkg/routes/bridge"
	"github.com/ayurlink/tulsi/pkg/routes/health"
	routevocab "github.com/ayurlink/tulsi/pkg/routes/vocabulary"
	"github.com/ayurlink/tulsi/pkg/vocabulary"
)

// Version is set at build time
var Version = "dev"

// Dependencies holds everything the HTTP layer needs
type Dependencies struct {
	Store     *vocabulary.Store
	Engine    *matching.Engine
	Extractor ner.Extractor
	Service   *aggregator.Service
	Emitter   *events.Emitter
}

// Server is the HTTP service
type Server struct {
	echo    *echo.Echo
	logger  ectologger.Logger
	cfg     *config.Config
	checker *health.Checker
}

// New builds the echo server, registers dependencies in the DI container,
// and mounts all routes.
func New(cfg *config.Config, logger ectologger.Logger, deps Dependencies) (*Server, error) {
	container, err := ectoinject.NewDIDefaultContainer()
	if err != nil {
		return nil, fmt.Errorf("failed to create DI container: %w", err)
	}

	if err := ectoinject.RegisterInstance[*vocabulary.Store](container, deps.Store); err != nil {
		return nil, fmt.Errorf("failed to register vocabulary store: %w", err)
	}
	if err := ectoinject.RegisterInstance[*matching.Engine](container, deps.Engine); err != nil {
		return nil, fmt.Errorf("failed to register matching engine: %w", err)
	}
	if err := ectoinject.RegisterInstance[ner.Extractor](container, deps.Extractor); err != nil {
		return nil, fmt.Errorf("failed to register entity extractor: %w", err)
	}
	if err := ectoinject.RegisterInstance[*aggregator.Service](container, deps.Service); err != nil {
		return nil, fmt.Errorf("failed to register aggregation service: %w", err)
	}
	if deps.Emitter != nil {
		if err := ectoinject.RegisterInstance[*events.Emitter](container, deps.Emitter); err != nil {
			return nil, fmt.Errorf("failed to register event emitter: %w", err)
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Server.WriteTimeout = time.Duration(cfg.HttpServerWriteTimeoutSeconds) * time.Second
	e.Server.ReadTimeout = time.Duration(cfg.HttpServerReadTimeoutSeconds) * time.Second
	e.Server.IdleTimeout = time.Duration(cfg.HttpServerIdleTimeoutSeconds) * time.Second
	e.Server.ReadHeaderTimeout = time.Duration(cfg.ReadHeaderTimeoutSeconds) * time.Second
	e.Server.MaxHeaderBytes = cfg.MaxHeaderBytes

	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: cfg.AllowMethods,
	}))
	if cfg.TracingEnabled {
		e.Use(otelecho.Middleware(cfg.AppName))
	}
	e.Use(middleware.Context())
	e.Use(middleware.Logger(logger))
	e.HTTPErrorHandler = middleware.Error(logger)

	checker := health.NewChecker(deps.Store, Version)
	checker.RegisterRoutes(e)

	api := e.Group("/api/v1")
	bridge.Register(api)
	routevocab.Register(api.Group("/vocabulary"))

	return &Server{
		echo:    e,
		logger:  logger,
		cfg:     cfg,
		checker: checker,
	}, nil
}

// Start runs the HTTP listener until the context is cancelled
func (s *Server) Start(ctx context.Context) error {
	s.checker.SetReady(true)

	errCh := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", s.cfg.Port)
		s.logger.WithField("addr", addr).Infof("Starting %s on %s", s.cfg.AppName, addr)
		if err := s.echo.Start(addr); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.checker.SetReady(false)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.echo.Shutdown(shutdownCtx)
	}
}
