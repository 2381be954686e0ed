// Package api is the typed client for the RouteNest REST API. Every call is
// a single round trip: no retry, no caching, and nothing beyond JSON mapping.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/harrysoftwarecorp/route-nest/internal/logging"
	"github.com/harrysoftwarecorp/route-nest/pkg/types"
)

// DefaultBaseURL is used when no base URL is configured.
const DefaultBaseURL = "http://localhost:8000"

// RequestIDHeader carries the per-request correlation id.
const RequestIDHeader = "X-Request-ID"

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 64 << 10

// Client talks to one RouteNest API server. It is safe for concurrent use.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	logger    *slog.Logger
	userAgent string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http = &http.Client{Timeout: d, Transport: c.http.Transport}
		}
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = logging.Or(l) }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// New returns a client for baseURL. An empty baseURL means DefaultBaseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return nil, fmt.Errorf("parse base url %q: %w", baseURL, types.ErrInvalidRequest)
	}
	c := &Client{
		baseURL:   u,
		http:      &http.Client{Timeout: 15 * time.Second},
		logger:    slog.Default(),
		userAgent: "routenest",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the server root the client talks to.
func (c *Client) BaseURL() string { return c.baseURL.String() }

// StatusError is returned for any non-2xx response. It unwraps to the
// matching sentinel in pkg/types.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
	RequestID  string
}

func (e *StatusError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, msg)
}

// Unwrap maps the status code onto a sentinel error.
func (e *StatusError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusNotFound:
		return types.ErrNotFound
	case e.StatusCode == http.StatusUnauthorized, e.StatusCode == http.StatusForbidden:
		return types.ErrUnauthorized
	case e.StatusCode == http.StatusConflict:
		return types.ErrConflict
	case e.StatusCode == http.StatusTooManyRequests:
		return types.ErrRateLimited
	case e.StatusCode >= 500:
		return types.ErrServer
	case e.StatusCode >= 400:
		return types.ErrInvalidRequest
	}
	return nil
}

// errorBody is the JSON error envelope sent by the server.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// do sends one request. body, when non-nil, is encoded as JSON; out, when
// non-nil, receives the decoded response.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	// path arrives escaped; Path holds the decoded form and RawPath keeps
	// escaped separators like %2F intact.
	escaped := c.baseURL.EscapedPath() + path
	decoded, err := url.PathUnescape(escaped)
	if err != nil {
		return fmt.Errorf("build request path: %w", err)
	}
	u := *c.baseURL
	u.Path = decoded
	u.RawPath = escaped
	u.RawQuery = query.Encode()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	reqID := uuid.NewString()
	req.Header.Set(RequestIDHeader, reqID)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer logging.SafeClose(c.logger, resp.Body, "response body")

	c.logger.Debug("api request",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
		slog.String("request_id", reqID))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(method, path, reqID, resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(method, path, reqID string, resp *http.Response) error {
	se := &StatusError{Method: method, Path: path, StatusCode: resp.StatusCode, RequestID: reqID}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var eb errorBody
	if err := json.Unmarshal(data, &eb); err == nil {
		se.Message = eb.Error
		if se.Message == "" {
			se.Message = eb.Message
		}
	} else {
		se.Message = strings.TrimSpace(string(data))
	}
	return se
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}

func tripPath(id string, parts ...string) string {
	p := "/api/trips/" + url.PathEscape(id)
	for _, part := range parts {
		p += "/" + part
	}
	return p
}
