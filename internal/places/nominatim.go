package places

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/harrysoftwarecorp/route-nest/internal/geo"
	"github.com/harrysoftwarecorp/route-nest/internal/logging"
	"github.com/harrysoftwarecorp/route-nest/pkg/types"
)

// DefaultNominatimURL is the public OpenStreetMap Nominatim server.
const DefaultNominatimURL = "https://nominatim.openstreetmap.org"

// nearSpan is the half width in degrees of the viewbox sent for Query.Near.
const nearSpan = 0.25

// Nominatim searches a Nominatim server. Requests are paced at one per
// second, the public server's usage limit.
type Nominatim struct {
	baseURL   string
	userAgent string
	http      *http.Client
	logger    *slog.Logger
	limiter   *rate.Limiter
}

// NewNominatim returns a searcher for baseURL. An empty baseURL means the
// public server. A nil client gets a 10 second timeout.
func NewNominatim(baseURL, userAgent string, client *http.Client, logger *slog.Logger) *Nominatim {
	if baseURL == "" {
		baseURL = DefaultNominatimURL
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Nominatim{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		http:      client,
		logger:    logging.Or(logger),
		limiter:   rate.NewLimiter(rate.Every(time.Second), 1),
	}
}

// SetRate replaces the request pacing. rate.Inf disables it.
func (n *Nominatim) SetRate(r rate.Limit) {
	n.limiter.SetLimit(r)
}

type nominatimPlace struct {
	Name        string   `json:"name"`
	DisplayName string   `json:"display_name"`
	Category    string   `json:"category"`
	Type        string   `json:"type"`
	Lat         string   `json:"lat"`
	Lon         string   `json:"lon"`
	BoundingBox []string `json:"boundingbox"`
}

func formatDegrees(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}

// Search runs q against the /search endpoint.
func (n *Nominatim) Search(ctx context.Context, q Query) ([]Place, error) {
	text := strings.TrimSpace(q.Text)
	if text == "" {
		return nil, ErrEmptyQuery
	}
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	v := url.Values{}
	v.Set("q", text)
	v.Set("format", "jsonv2")
	v.Set("limit", strconv.Itoa(limit))
	if q.Near != nil {
		v.Set("viewbox", strings.Join([]string{
			formatDegrees(q.Near.Lng - nearSpan), formatDegrees(q.Near.Lat + nearSpan),
			formatDegrees(q.Near.Lng + nearSpan), formatDegrees(q.Near.Lat - nearSpan),
		}, ","))
	}

	if err := n.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("wait for place search: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+"/search?"+v.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build place search: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if n.userAgent != "" {
		req.Header.Set("User-Agent", n.userAgent)
	}

	start := time.Now()
	resp, err := n.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request place search: %w", err)
	}
	defer logging.SafeClose(n.logger, resp.Body, "place search response")
	n.logger.Debug("place search",
		slog.String("query", text),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)))

	if err := statusError(resp.StatusCode); err != nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))
		return nil, fmt.Errorf("place search: status %d: %w", resp.StatusCode, err)
	}

	var raw []nominatimPlace
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4<<20)).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode place search: %w", err)
	}
	out := make([]Place, 0, len(raw))
	for _, r := range raw {
		p, ok := r.place()
		if !ok {
			n.logger.Debug("skipped place without coordinates", slog.String("label", r.DisplayName))
			continue
		}
		if q.Near != nil {
			p.Distance = geo.Distance(*q.Near, p.Position())
		}
		out = append(out, p)
	}
	return out, nil
}

func statusError(code int) error {
	switch {
	case code >= 200 && code <= 299:
		return nil
	case code == http.StatusTooManyRequests:
		return types.ErrRateLimited
	case code >= 500:
		return types.ErrServer
	}
	return types.ErrInvalidRequest
}

func (r nominatimPlace) place() (Place, bool) {
	lat, err1 := strconv.ParseFloat(r.Lat, 64)
	lng, err2 := strconv.ParseFloat(r.Lon, 64)
	if err1 != nil || err2 != nil {
		return Place{}, false
	}
	p := Place{
		Name:  r.Name,
		Label: r.DisplayName,
		Kind:  r.Type,
		Lat:   lat,
		Lng:   lng,
	}
	if !p.Position().Valid() {
		return Place{}, false
	}
	if p.Name == "" {
		p.Name, _, _ = strings.Cut(r.DisplayName, ",")
	}
	if b, ok := parseBoundingBox(r.BoundingBox); ok {
		p.Bounds = &b
	}
	return p, true
}

// parseBoundingBox reads Nominatim's [south, north, west, east] strings.
func parseBoundingBox(box []string) (geo.Bounds, bool) {
	if len(box) != 4 {
		return geo.Bounds{}, false
	}
	var f [4]float64
	for i, s := range box {
		x, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return geo.Bounds{}, false
		}
		f[i] = x
	}
	return geo.Bounds{
		SouthWest: types.LatLng{Lat: f[0], Lng: f[2]},
		NorthEast: types.LatLng{Lat: f[1], Lng: f[3]},
	}, true
}
