package server

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/opkgd/pkgbrokerd/internal/config"
)

const shutdownGrace = 5 * time.Second

// RegisterFunc registers routes against group, which is already
// prefixed with /api/v1.
type RegisterFunc func(group *gin.RouterGroup)

// Server is the HTTP bus transport: a gin router behind either a plain
// HTTP listener (dev mode) or a self-signed HTTPS listener (prod
// mode), following the teacher's own dev/prod split.
type Server struct {
	cfg    config.Server
	engine *gin.Engine
	http   *http.Server
	log    *zap.SugaredLogger
}

// New builds a Server from cfg, wiring registerFn's routes under
// /api/v1 behind the zap request logger and panic recovery.
func New(cfg config.Server, registerFn RegisterFunc) (*Server, error) {
	if cfg.ServerMode == "prod" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	logger := zap.L().Named("http")
	engine := gin.New()
	engine.Use(ginzap.Ginzap(logger, time.RFC3339, true))
	engine.Use(ginzap.RecoveryWithZap(logger, true))

	api := engine.Group("/api/v1")
	registerFn(api)

	return &Server{
		cfg:    cfg,
		engine: engine,
		log:    zap.S().Named("server"),
		http: &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
			Handler: engine,
		},
	}, nil
}

// Start blocks until the listener errors or Stop is called. It
// chooses HTTP or HTTPS based on cfg.ServerMode.
func (s *Server) Start(ctx context.Context) error {
	if s.cfg.ServerMode != "prod" {
		s.log.Infow("starting HTTP server", "addr", s.http.Addr)
		err := s.http.ListenAndServe()
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}

	cert, err := selfSignedCertificate("pkgbrokerd")
	if err != nil {
		return fmt.Errorf("server: %w", err)
	}
	s.http.TLSConfig = &tls.Config{Certificates: []tls.Certificate{cert}}

	s.log.Infow("starting HTTPS server", "addr", s.http.Addr)
	err = s.http.ListenAndServeTLS("", "")
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Stop performs a graceful shutdown, waiting up to shutdownGrace for
// in-flight requests to complete.
func (s *Server) Stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownGrace)
	defer cancel()
	return s.http.Shutdown(ctx)
}
