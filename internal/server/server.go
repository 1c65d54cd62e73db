// Package server contains the components of the sample web application and
// the registrations that wire them into a container.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/deep-rent/components/internal/config"
	"github.com/deep-rent/components/middleware"
)

// NewRouter creates the router that pages mount themselves on.
func NewRouter(logger *slog.Logger) chi.Router {
	r := chi.NewRouter()
	r.Use(
		middleware.Recover(logger),
		middleware.RequestID(),
		middleware.Log(logger),
	)
	return r
}

// Server serves the router over HTTP.
type Server struct {
	srv     *http.Server
	pages   []Page
	logger  *slog.Logger
	timeout time.Duration
}

// NewServer creates a Server for router. Taking the pages as a dependency
// guarantees that every page has been mounted before the server starts.
func NewServer(
	cfg *config.Config,
	router chi.Router,
	pages []Page,
	logger *slog.Logger,
) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           router,
			ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
			ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelError),
		},
		pages:   pages,
		logger:  logger,
		timeout: cfg.Server.ShutdownTimeout,
	}
}

// Paths returns the route patterns of all mounted pages.
func (s *Server) Paths() []string {
	paths := make([]string, len(s.pages))
	for i, p := range s.pages {
		paths[i] = p.Path()
	}
	return paths
}

// Run listens on the configured address and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.srv.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done, then shuts the server
// down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info(
			"Server listening",
			slog.String("addr", ln.Addr().String()),
			slog.Any("paths", s.Paths()),
		)
		if err := s.srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		if err := s.srv.Shutdown(sctx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		s.logger.Info("Server stopped")
		return nil
	})
	return g.Wait()
}

// Close stops the server immediately. It is a no-op if the server has
// already shut down.
func (s *Server) Close() error {
	return s.srv.Close()
}
