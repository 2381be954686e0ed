package mockapi

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"regexp"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/harrysoftwarecorp/route-nest/internal/clock"
	"github.com/harrysoftwarecorp/route-nest/internal/logging"
	"github.com/harrysoftwarecorp/route-nest/internal/metrics"
)

// RequestIDHeader carries the per-request correlation id.
const RequestIDHeader = "X-Request-ID"

type contextKey string

const requestIDKey contextKey = "request_id"

var validRequestID = regexp.MustCompile(`^[a-zA-Z0-9-._:]+$`)

// requestID keeps a well-formed incoming X-Request-ID and mints one
// otherwise.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" || len(id) > 128 || !validRequestID.MatchString(id) {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

// RequestID returns the request id stored by the middleware.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// statusWriter captures the response status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// observe logs every request and records it in m when m is non-nil.
func observe(logger *slog.Logger, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			r = r.WithContext(logging.WithLogger(r.Context(), logger))
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(sw, r)

			d := time.Since(start)
			logging.LogHTTPRequest(logger, r.Method, r.URL.Path, sw.status,
				float64(d.Nanoseconds())/1e6,
				slog.String("request_id", RequestID(r.Context())),
				slog.String("user_agent", r.Header.Get("User-Agent")),
				slog.String("component", "mock_api"))
			if m != nil {
				path := r.Pattern
				if path == "" {
					path = "unmatched"
				}
				m.ObserveRequest(r.Method, path, strconv.Itoa(sw.status), d)
			}
		})
	}
}

type limitedClient struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64
}

// rateLimiter allows each client address perSecond requests per second
// with the given burst.
type rateLimiter struct {
	mu       sync.Mutex
	clients  map[string]*limitedClient
	limit    rate.Limit
	burst    int
	idle     time.Duration
	clock    clock.Clock
	metrics  *metrics.Metrics
	stop     chan struct{}
	stopOnce sync.Once
}

func newRateLimiter(perSecond float64, burst int, c clock.Clock, m *metrics.Metrics) *rateLimiter {
	if burst <= 0 {
		burst = max(int(perSecond), 1)
	}
	rl := &rateLimiter{
		clients: map[string]*limitedClient{},
		limit:   rate.Limit(perSecond),
		burst:   burst,
		idle:    10 * time.Minute,
		clock:   clock.Or(c),
		metrics: m,
		stop:    make(chan struct{}),
	}
	go rl.cleanup(time.Minute)
	return rl
}

func (rl *rateLimiter) limiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	c, ok := rl.clients[key]
	if !ok {
		c = &limitedClient{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[key] = c
	}
	c.lastSeen.Store(rl.clock.Now().UnixNano())
	return c.limiter
}

func (rl *rateLimiter) cleanup(every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-rl.stop:
			return
		case <-t.C:
			rl.evictIdle()
		}
	}
}

func (rl *rateLimiter) evictIdle() {
	cutoff := rl.clock.Now().Add(-rl.idle).UnixNano()
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, c := range rl.clients {
		if c.lastSeen.Load() < cutoff {
			delete(rl.clients, key)
		}
	}
}

// Stop ends the cleanup goroutine. Idempotent.
func (rl *rateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.limiter(clientKey(r)).Allow() {
			next.ServeHTTP(w, r)
			return
		}
		if rl.metrics != nil {
			rl.metrics.RateLimitedTotal.Inc()
		}
		retry := 1
		if rl.limit > 0 {
			retry = max(int(time.Duration(float64(time.Second)/float64(rl.limit)).Seconds()), 1)
		}
		w.Header().Set("Retry-After", strconv.Itoa(retry))
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.burst))
		w.Header().Set("X-RateLimit-Remaining", "0")
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded, try again later")
	})
}

// clientKey identifies the caller by remote host.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
