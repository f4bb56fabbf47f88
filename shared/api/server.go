// Package api exposes the pipeline over HTTP under /api/v1.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"transcript-assistant/internal/models"
	"transcript-assistant/shared/logging"
	"transcript-assistant/shared/monitoring"
	"transcript-assistant/shared/pipeline"
)

const (
	APIVersion = "1.0"
	basePath   = "/api/v1"

	shutdownTimeout = 10 * time.Second
)

// Processor runs the pipeline.
type Processor interface {
	ProcessMedia(ctx context.Context, input string, opts pipeline.Options) (*models.ProcessingResult, error)
	ExtractMetadata(ctx context.Context, input string) (models.MediaReference, *models.Metadata, error)
	Model() string
}

// ModelBackend is the language model backend as seen by the status endpoints.
type ModelBackend interface {
	ListModels(ctx context.Context) ([]string, error)
	CheckConnection(ctx context.Context) bool
}

// ResultSaver persists a response envelope for a media id.
type ResultSaver interface {
	Save(mediaID string, v any) (string, error)
}

type Config struct {
	Service            string
	Version            string
	RateLimitPerMinute int
}

type Dependencies struct {
	Processor Processor
	Models    ModelBackend
	Monitor   *monitoring.Monitor
	Store     ResultSaver
}

type Server struct {
	cfg       Config
	processor Processor
	models    ModelBackend
	monitor   *monitoring.Monitor
	store     ResultSaver
	now       func() time.Time
	logger    zerolog.Logger
}

func NewServer(cfg Config, deps Dependencies) *Server {
	if deps.Monitor == nil {
		deps.Monitor = monitoring.NewMonitor()
	}
	return &Server{
		cfg:       cfg,
		processor: deps.Processor,
		models:    deps.Models,
		monitor:   deps.Monitor,
		store:     deps.Store,
		now:       time.Now,
		logger:    logging.WithComponent("api"),
	}
}

// Router builds the HTTP handler with the middleware stack applied.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "Method not allowed"})
	})

	r.Route(basePath, func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if s.cfg.RateLimitPerMinute > 0 {
				r.Use(rateLimit(s.cfg.RateLimitPerMinute, time.Minute))
			}
			r.Post("/process", s.handleProcess)
		})
		r.Get("/status", s.handleStatus)
		r.Get("/metadata/{id}", s.handleMetadata)
		r.Get("/health", s.handleHealth)
		r.Get("/models", s.handleModels)
	})
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("API server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("API server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("API server shutdown: %w", err)
	}
	s.logger.Info().Msg("API server stopped")
	return nil
}

// endpoints lists the public routes for the status payload.
func endpoints() map[string]string {
	return map[string]string{
		"process":  "POST " + basePath + "/process",
		"status":   "GET " + basePath + "/status",
		"metadata": "GET " + basePath + "/metadata/{id}",
		"health":   "GET " + basePath + "/health",
		"models":   "GET " + basePath + "/models",
		"metrics":  "GET /metrics",
	}
}

func (s *Server) timestamp() string {
	return s.now().UTC().Format(time.RFC3339)
}

// rateLimit limits requests per client IP within window.
func rateLimit(limit int, window time.Duration) func(http.Handler) http.Handler {
	return httprate.Limit(
		limit,
		window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", fmt.Sprintf("%d", int(window.Seconds())))
			writeJSON(w, http.StatusTooManyRequests, errorResponse{
				Error:  "Too many requests. Please try again later.",
				Status: "error",
			})
		}),
	)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		event := s.logger.Info()
		if ww.Status() >= http.StatusInternalServerError {
			event = s.logger.Warn()
		}
		event.
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}
