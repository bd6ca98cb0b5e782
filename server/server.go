// Package server exposes the engine over HTTP. Routes live under
// /api/v1/rag; errors render as JSON with the status mapped from their
// apperr kind.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aqua777/ragpipe/apperr"
	"github.com/aqua777/ragpipe/rag"
	"github.com/aqua777/ragpipe/validation"
)

// Server serves the HTTP API over one engine.
type Server struct {
	engine *rag.Engine
	router *gin.Engine
	http   *http.Server
	logger *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithServerLogger sets the logger.
func WithServerLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// New builds the router and binds every route to the engine.
func New(engine *rag.Engine, opts ...Option) *Server {
	s := &Server{
		engine: engine,
		logger: slog.New(slog.NewJSONHandler(os.Stdout, nil)),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.router = gin.New()
	s.router.Use(requestLogger(s.logger), gin.Recovery())
	s.registerRoutes()

	return s
}

// Router returns the underlying gin engine, mainly for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Start listens on addr and serves until Shutdown. It returns nil on a
// clean shutdown.
func (s *Server) Start(addr string) error {
	s.http = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	s.logger.Info("http server listening", "addr", addr)

	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

// renderError translates an error into its HTTP response. Validation
// errors carry a details list with one entry per violated field.
func (s *Server) renderError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	status := apperr.HTTPStatus(kind)

	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"kind", string(kind),
			"error", err)
	}

	body := gin.H{"error": err.Error()}
	var verrs validation.ValidationErrors
	if errors.As(err, &verrs) {
		details := make([]string, len(verrs))
		for i, verr := range verrs {
			details[i] = verr.Error()
		}
		body["details"] = details
	}

	c.JSON(status, body)
}
