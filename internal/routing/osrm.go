package routing

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

	polyline "github.com/twpayne/go-polyline"

	"github.com/harrysoftwarecorp/route-nest/internal/logging"
	"github.com/harrysoftwarecorp/route-nest/pkg/types"
)

// DefaultOSRMURL is the public OSRM demo server.
const DefaultOSRMURL = "https://router.project-osrm.org"

// OSRM queries the route service of an OSRM server.
type OSRM struct {
	baseURL string
	profile string
	http    *http.Client
	logger  *slog.Logger
}

// NewOSRM returns an OSRM router. Empty baseURL and profile fall back to the
// public server and "driving". A nil client gets a 10 second timeout.
func NewOSRM(baseURL, profile string, client *http.Client, logger *slog.Logger) *OSRM {
	if baseURL == "" {
		baseURL = DefaultOSRMURL
	}
	if profile == "" {
		profile = "driving"
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &OSRM{
		baseURL: strings.TrimRight(baseURL, "/"),
		profile: profile,
		http:    client,
		logger:  logging.Or(logger),
	}
}

// ProfileFor maps a transport mode onto an OSRM profile.
func ProfileFor(mode types.TransportMode) string {
	switch mode {
	case types.ModeWalking:
		return "foot"
	case types.ModeCycling:
		return "bike"
	}
	return "driving"
}

type osrmResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Routes  []struct {
		Geometry string  `json:"geometry"`
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
	} `json:"routes"`
}

func formatPoint(p types.LatLng) string {
	return strconv.FormatFloat(p.Lng, 'f', 6, 64) + "," + strconv.FormatFloat(p.Lat, 'f', 6, 64)
}

// Route requests the full-overview route between the two points.
func (o *OSRM) Route(ctx context.Context, from, to types.LatLng) (Result, error) {
	u := fmt.Sprintf("%s/route/v1/%s/%s;%s", o.baseURL, url.PathEscape(o.profile), formatPoint(from), formatPoint(to))
	q := url.Values{}
	q.Set("overview", "full")
	q.Set("geometries", "polyline")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u+"?"+q.Encode(), nil)
	if err != nil {
		return Result{}, fmt.Errorf("build route request: %w", err)
	}
	resp, err := o.http.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("request route: %w", err)
	}
	defer logging.SafeClose(o.logger, resp.Body, "route response")

	var body osrmResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 8<<20)).Decode(&body); err != nil {
		return Result{}, fmt.Errorf("decode route (status %d): %w", resp.StatusCode, err)
	}
	if body.Code != "Ok" {
		if body.Code == "NoRoute" {
			return Result{}, ErrNoRoute
		}
		return Result{}, fmt.Errorf("route engine: %s %s", body.Code, body.Message)
	}
	if len(body.Routes) == 0 {
		return Result{}, ErrNoRoute
	}

	best := body.Routes[0]
	coords, _, err := polyline.DecodeCoords([]byte(best.Geometry))
	if err != nil {
		return Result{}, fmt.Errorf("decode route geometry: %w", err)
	}
	path := make([]types.LatLng, len(coords))
	for i, c := range coords {
		path[i] = types.LatLng{Lat: c[0], Lng: c[1]}
	}
	return Result{
		Path:     path,
		Distance: best.Distance,
		Duration: time.Duration(best.Duration * float64(time.Second)),
	}, nil
}

// EncodePath encodes points as a Google polyline string.
func EncodePath(points []types.LatLng) string {
	coords := make([][]float64, len(points))
	for i, p := range points {
		coords[i] = []float64{p.Lat, p.Lng}
	}
	return string(polyline.EncodeCoords(coords))
}

// DecodePath reverses EncodePath.
func DecodePath(s string) ([]types.LatLng, error) {
	coords, _, err := polyline.DecodeCoords([]byte(s))
	if err != nil {
		return nil, err
	}
	out := make([]types.LatLng, len(coords))
	for i, c := range coords {
		out[i] = types.LatLng{Lat: c[0], Lng: c[1]}
	}
	return out, nil
}
