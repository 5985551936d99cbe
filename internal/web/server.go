// Package web serves the dashboard JSON API: health, themes, generation,
// and fine-tuned model listing, with request logging, CORS, and per-client
// rate limiting.
package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"

	"github.com/rcliao/wayfarer/internal/config"
	"github.com/rcliao/wayfarer/internal/llm"
	"github.com/rcliao/wayfarer/internal/model"
	"github.com/rcliao/wayfarer/internal/suggest"
)

// Generator produces destination suggestions and probes provider health.
type Generator interface {
	Generate(ctx context.Context, req model.GenerationRequest) (*model.GenerationResult, error)
	HealthCheck(ctx context.Context) suggest.HealthReport
}

// ModelCatalog lists the fine-tuned models available at the provider.
type ModelCatalog interface {
	ListFineTunedModels(ctx context.Context) ([]llm.Model, error)
}

// Server is the dashboard API server.
type Server struct {
	cfg     config.Settings
	gen     Generator
	catalog ModelCatalog
	limiter *rateLimiter
	log     *slog.Logger
}

// NewServer wires the API around an existing generator and model catalog.
// RateLimitPerMinute <= 0 disables rate limiting; a nil logger discards logs.
func NewServer(cfg config.Settings, gen Generator, catalog ModelCatalog, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{cfg: cfg, gen: gen, catalog: catalog, log: logger}
	if cfg.RateLimitPerMinute > 0 {
		s.limiter = newRateLimiter(cfg.RateLimitPerMinute)
	}
	return s
}

// handler builds the middleware chain: request logging wraps CORS wraps the
// router. Only the generation route is rate limited; it is the one that
// spends provider tokens.
func (s *Server) handler() http.Handler {
	router := httprouter.New()
	router.GET("/api/health", s.handleHealth)
	router.GET("/api/themes", s.handleThemes)
	router.POST("/api/generate", s.ratelimit(s.handleGenerate))
	router.GET("/api/models", s.handleModels)

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	})
	return s.logRequests(c.Handler(router))
}

func (s *Server) ratelimit(next httprouter.Handle) httprouter.Handle {
	if s.limiter == nil {
		return next
	}
	return s.limiter.limit(next)
}

// statusRecorder captures the response code for the request log.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"remote", clientIP(r),
			"elapsed", time.Since(start))
	})
}

// drainTimeout bounds how long in-flight requests may finish after a
// shutdown signal.
const drainTimeout = 10 * time.Second

// Run serves until ctx is cancelled, then drains in-flight requests. The
// write timeout must outlast a full generation run, which can hold the
// response through several provider calls.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.HTTPAddr,
		Handler:           s.handler(),
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       2 * time.Minute,
	}

	if s.limiter != nil {
		go s.limiter.sweep(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		err := srv.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errCh <- err
	}()
	s.log.Info("http server listening", "addr", srv.Addr)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info("draining http server", "timeout", drainTimeout)
	drain, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	if err := srv.Shutdown(drain); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}
