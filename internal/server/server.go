// Package server exposes profiling runs over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/pable/go-tl-verge/internal/metrics"
	"github.com/pable/go-tl-verge/internal/profile"
	"github.com/pable/go-tl-verge/internal/report"
)

// Gatherer fetches the inputs of a profiling run. *acquire.Fetcher
// implements it.
type Gatherer interface {
	Gather(ctx context.Context, username string) (profile.Input, error)
}

// Config holds configuration for the HTTP server.
type Config struct {
	Addr           string
	AllowedOrigins []string
	// RequestTimeout bounds one profiling run, including opponent lookups.
	RequestTimeout time.Duration
}

// Server is the HTTP API.
type Server struct {
	router   *chi.Mux
	gatherer Gatherer
	cfg      Config
	log      *zap.Logger
	now      func() time.Time
}

// New returns a server with its routes mounted.
func New(cfg Config, g Gatherer, log *zap.Logger) *Server {
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = 2 * time.Minute
	}
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		router:   chi.NewRouter(),
		gatherer: g,
		cfg:      cfg,
		log:      log,
		now:      time.Now,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)
	s.router.Use(s.instrument)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.healthz)
	s.router.Get("/profile/{username}", s.getProfile)
	s.router.Method(http.MethodGet, "/metrics", metrics.Handler())
}

// ServeHTTP makes the server usable with httptest.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// instrument counts requests by route pattern and status code, and logs them.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
		s.log.Info("http request",
			zap.String("method", r.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) getProfile(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(chi.URLParam(r, "username"))
	if username == "" {
		errorResponse(w, http.StatusBadRequest, "username is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.RequestTimeout)
	defer cancel()

	start := time.Now()
	in, err := s.gatherer.Gather(ctx, username)
	if err == nil {
		var p profile.Profile
		p, err = profile.Build(in)
		if err == nil {
			metrics.ProfileRuns.WithLabelValues("ok").Inc()
			metrics.ProfileDuration.Observe(time.Since(start).Seconds())
			jsonResponse(w, http.StatusOK, report.NewDocument(p, s.now()))
			return
		}
	}

	status, outcome := classify(err)
	metrics.ProfileRuns.WithLabelValues(outcome).Inc()
	if status == http.StatusBadGateway {
		s.log.Warn("profile run failed", zap.String("username", username), zap.Error(err))
	}
	errorResponse(w, status, err.Error())
}

// classify maps a run failure to an HTTP status and a metrics outcome.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, profile.ErrSubjectNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, profile.ErrSubjectExcluded):
		return http.StatusUnprocessableEntity, "excluded"
	case errors.Is(err, profile.ErrNoRankedHistory):
		return http.StatusUnprocessableEntity, "no_history"
	case errors.Is(err, profile.ErrDivisionByZero), errors.Is(err, profile.ErrMalformedMetrics):
		return http.StatusUnprocessableEntity, "bad_metrics"
	default:
		return http.StatusBadGateway, "error"
	}
}

func jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResponse(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      s.cfg.RequestTimeout + 10*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server listening", zap.String("addr", s.cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
