// Package server exposes the registry and feed health over HTTP.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/danmuck/tramctl/internal/auth"
	"github.com/danmuck/tramctl/internal/ingest"
	"github.com/danmuck/tramctl/internal/observability"
	"github.com/danmuck/tramctl/internal/registry"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const shutdownTimeout = 5 * time.Second

// StatsSource reports feed client health.
type StatsSource interface {
	Stats() ingest.Stats
}

// Server is the read-only status API.
type Server struct {
	Addr     string
	Appeared time.Time

	reg    *registry.Registry
	stats  StatsSource
	auth   auth.Validator
	router *gin.Engine
}

type Option func(*Server)

// WithToken requires token as a bearer token on every route except /health.
// An empty token leaves the API open.
func WithToken(token string) Option {
	return func(s *Server) {
		if token != "" {
			s.auth = auth.StaticToken{Token: token}
		}
	}
}

// WithValidator guards the API with v.
func WithValidator(v auth.Validator) Option {
	return func(s *Server) {
		s.auth = v
	}
}

func New(addr string, reg *registry.Registry, stats StatsSource, opts ...Option) *Server {
	observability.RegisterMetrics()
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(log.Logger))
	r.Use(observability.RequestMetricsMiddleware())
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	s := &Server{
		Addr:     addr,
		Appeared: time.Now(),
		reg:      reg,
		stats:    stats,
		router:   r,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.RegisterRoutes()
	return s
}

func (s *Server) HTTPRouter() *gin.Engine {
	return s.router
}

// Run listens on Addr and serves until ctx ends.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx ends, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", ln.Addr().String()).Msg("server.Server listening")
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		log.Info().Msg("server.Server stopped")
		return nil
	}
}
