// Package server is the web front-end of the city finder.
package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/poiesic/geofind/core"
	"github.com/poiesic/geofind/search"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	defaultSuggestLimit = 10
	maxSuggestLimit     = 50
	shutdownTimeout     = 10 * time.Second
)

// Finder is the lookup service the server exposes.
type Finder interface {
	Find(ctx context.Context, q search.Query) (*core.Resolution, error)
	Suggest(prefix string, limit int) []string
	Nearest(lat, lon float64, k int) ([]core.Match, error)
	Len() int
}

// Server serves the search form and the JSON API.
type Server struct {
	echo    *echo.Echo
	finder  Finder
	page    *template.Template
	topK    int
	maxTopK int
	logger  *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithTopK sets the default and the largest accepted number of matches.
func WithTopK(def, limit int) Option {
	return func(s *Server) {
		if def > 0 {
			s.topK = def
		}
		if limit >= s.topK {
			s.maxTopK = limit
		}
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a server around finder.
func New(finder Finder, opts ...Option) *Server {
	s := &Server{
		echo:    echo.New(),
		finder:  finder,
		page:    template.Must(template.ParseFS(templateFS, "templates/index.html")),
		topK:    1,
		maxTopK: 100,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "server")

	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.HTTPErrorHandler = s.handleError
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			s.logger.Info("request", "method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency)
			return nil
		},
	}))

	s.echo.GET("/", s.index)
	s.echo.POST("/", s.submit)
	s.echo.GET("/healthz", s.health)

	api := s.echo.Group("/api")
	api.GET("/search", s.search)
	api.GET("/suggest", s.suggest)
	api.GET("/nearest", s.nearest)
	api.GET("/export.xlsx", s.exportXLSX)
	return s
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Run serves on addr until ctx is cancelled and then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr, "cities", s.finder.Len())
		errCh <- s.echo.Start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	msg := http.StatusText(code)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		msg = fmt.Sprint(he.Message)
	}
	if code >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", c.Request().Method, "path", c.Path(), "err", err)
	}

	if err := c.JSON(code, errorResponse{Error: msg}); err != nil {
		s.logger.Error("error writing error response", "err", err)
	}
}

// toHTTPError turns input errors into 400 responses.
func toHTTPError(err error) error {
	switch {
	case errors.Is(err, search.ErrEmptyQuery),
		errors.Is(err, search.ErrInvalidTopK),
		errors.Is(err, search.ErrInvalidCoordinates):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return err
}
