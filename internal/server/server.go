// Package server exposes reading-order reconstruction over HTTP.
//
// Routes:
//
//	POST /v1/order        page JSON            -> ordered page, order, columns, text
//	POST /v1/order/batch  array of page JSON   -> array of the above
//	POST /v1/text         page JSON            -> {"orientation", "text"}
//	POST /v1/graph        page JSON            -> reading-order diagram (?format=svg|dot)
//	GET  /healthz
//	GET  /version
//
// Ordering options ride on the query string: orientation, sep and refresh.
// Errors are {"code", "message"} with the codes of pkg/errors.
package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"
	"golang.org/x/sync/semaphore"

	"github.com/matzehuels/guji/pkg/layout"
	"github.com/matzehuels/guji/pkg/pipeline"
)

// DefaultMaxBatchPages bounds the pages accepted by one batch request.
const DefaultMaxBatchPages = 500

// Config tunes the server. Zero fields take the defaults of [DefaultConfig].
type Config struct {
	Addr             string
	Layout           layout.Config
	MaxBodyBytes     int64
	MaxBatchPages    int
	BatchConcurrency int
	MaxConcurrent    int64

	// RateEvery and RateBurst shape the per-client token bucket. A zero
	// RateBurst disables rate limiting.
	RateEvery time.Duration
	RateBurst int

	ShutdownTimeout time.Duration
}

// DefaultConfig returns the settings used by `guji serve`.
func DefaultConfig() Config {
	return Config{
		Addr:             "127.0.0.1:8080",
		Layout:           layout.DefaultConfig(),
		MaxBodyBytes:     8 << 20,
		MaxBatchPages:    DefaultMaxBatchPages,
		BatchConcurrency: pipeline.DefaultConcurrency,
		MaxConcurrent:    32,
		RateEvery:        100 * time.Millisecond,
		RateBurst:        20,
		ShutdownTimeout:  10 * time.Second,
	}
}

func (c *Config) setDefaults() {
	d := DefaultConfig()
	if c.Addr == "" {
		c.Addr = d.Addr
	}
	c.Layout.SetDefaults()
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = d.MaxBodyBytes
	}
	if c.MaxBatchPages <= 0 {
		c.MaxBatchPages = d.MaxBatchPages
	}
	if c.BatchConcurrency <= 0 {
		c.BatchConcurrency = d.BatchConcurrency
	}
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = d.MaxConcurrent
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = d.ShutdownTimeout
	}
}

// Server serves the HTTP API.
type Server struct {
	cfg      Config
	runner   *pipeline.Runner
	logger   *log.Logger
	sem      *semaphore.Weighted
	limiters *limiterSet
}

// New returns a server ordering pages with runner.
func New(runner *pipeline.Runner, cfg Config, logger *log.Logger) *Server {
	cfg.setDefaults()
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		cfg:      cfg,
		runner:   runner,
		logger:   logger.WithPrefix("http"),
		sem:      semaphore.NewWeighted(cfg.MaxConcurrent),
		limiters: newLimiterSet(cfg.RateEvery, cfg.RateBurst),
	}
}

// Handler returns the routed handler with all middleware applied.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(s.requestID)
	r.Use(s.logRequests)
	r.Use(s.recoverer)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeErr(w, http.StatusNotFound, "NOT_FOUND", "no route for "+r.Method+" "+r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeErr(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", r.Method+" not allowed on "+r.URL.Path)
	})

	r.Get("/healthz", s.handleHealth)
	r.Get("/version", s.handleVersion)

	r.Route("/v1", func(r chi.Router) {
		r.Use(s.rateLimit)
		r.Use(s.concurrencyLimit)
		r.Use(s.limitBody)
		r.Post("/order", s.handleOrder)
		r.Post("/order/batch", s.handleBatch)
		r.Post("/text", s.handleText)
		r.Post("/graph", s.handleGraph)
	})

	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	stop := make(chan struct{})
	defer close(stop)
	go s.limiters.sweep(stop, 5*time.Minute)

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// limiterSet holds one token bucket per client address.
type limiterSet struct {
	every time.Duration
	burst int
	m     sync.Map
}

func newLimiterSet(every time.Duration, burst int) *limiterSet {
	return &limiterSet{every: every, burst: burst}
}

func (l *limiterSet) enabled() bool {
	return l.burst > 0 && l.every > 0
}

// sweep periodically drops buckets that have refilled to their burst. A full
// bucket behaves exactly like a new one, so only idle clients are forgotten.
func (l *limiterSet) sweep(stop <-chan struct{}, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case now := <-t.C:
			l.evictIdle(now)
		}
	}
}

// evictIdle removes every bucket that is full at now and returns how many
// were removed.
func (l *limiterSet) evictIdle(now time.Time) int {
	n := 0
	l.m.Range(func(key, v any) bool {
		if v.(*rate.Limiter).TokensAt(now) >= float64(l.burst) {
			l.m.CompareAndDelete(key, v)
			n++
		}
		return true
	})
	return n
}
