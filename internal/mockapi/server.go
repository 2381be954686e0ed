package mockapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/harrysoftwarecorp/route-nest/internal/clock"
	"github.com/harrysoftwarecorp/route-nest/internal/logging"
	"github.com/harrysoftwarecorp/route-nest/internal/metrics"
)

// Server timeouts.
const (
	ReadHeaderTimeout = 5 * time.Second
	ShutdownTimeout   = 5 * time.Second
)

// ServerOptions configures a Server.
type ServerOptions struct {
	Logger *slog.Logger
	// Metrics, when set, records every request and is served on /metrics.
	Metrics *metrics.Metrics
	// RateLimit is the per-client request rate in requests per second.
	// Zero disables rate limiting.
	RateLimit float64
	Burst     int
	// AllowedOrigins defaults to every origin.
	AllowedOrigins []string
	Clock          clock.Clock
}

// Server serves the REST API over a Store.
type Server struct {
	store   *Store
	logger  *slog.Logger
	metrics *metrics.Metrics
	limiter *rateLimiter
	handler http.Handler
}

// NewServer builds the route table and middleware chain.
func NewServer(store *Store, opts ServerOptions) *Server {
	s := &Server{
		store:   store,
		logger:  logging.Or(opts.Logger),
		metrics: opts.Metrics,
	}

	mux := http.NewServeMux()
	s.routes(mux)
	if s.metrics != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{}))
	}

	var h http.Handler = mux
	if opts.RateLimit > 0 {
		s.limiter = newRateLimiter(opts.RateLimit, opts.Burst, opts.Clock, s.metrics)
		h = s.limiter.middleware(h)
	}
	h = observe(s.logger, s.metrics)(h)
	h = requestID(h)

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{RequestIDHeader, "Retry-After"},
	})
	s.handler = c.Handler(h)
	return s
}

// Handler returns the full middleware chain.
func (s *Server) Handler() http.Handler { return s.handler }

// Close stops background work. The store is left open.
func (s *Server) Close() {
	if s.limiter != nil {
		s.limiter.Stop()
	}
}

// Serve accepts connections on l until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: ReadHeaderTimeout,
	}
	errc := make(chan error, 1)
	go func() {
		s.logger.Info("mock api listening", "addr", l.Addr().String())
		errc <- srv.Serve(l)
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down mock api")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}

// ListenAndServe listens on addr and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	return s.Serve(ctx, l)
}
