package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/harrysoftwarecorp/route-nest/pkg/types"
)

// ListTrips fetches the summaries of every trip visible to the user.
func (c *Client) ListTrips(ctx context.Context) ([]types.TripSummary, error) {
	var out []types.TripSummary
	if err := c.do(ctx, http.MethodGet, "/api/trips", nil, nil, &out); err != nil {
		return nil, fmt.Errorf("list trips: %w", err)
	}
	return out, nil
}

// GetTrip fetches a trip with its stops and routes.
func (c *Client) GetTrip(ctx context.Context, id string) (*types.Trip, error) {
	var out types.Trip
	if err := c.do(ctx, http.MethodGet, tripPath(id), nil, nil, &out); err != nil {
		return nil, fmt.Errorf("get trip: %w", err)
	}
	return &out, nil
}

// CreateTrip creates a trip.
func (c *Client) CreateTrip(ctx context.Context, req types.CreateTripRequest) (*types.Trip, error) {
	var out types.Trip
	if err := c.do(ctx, http.MethodPost, "/api/trips", nil, req, &out); err != nil {
		return nil, fmt.Errorf("create trip: %w", err)
	}
	return &out, nil
}

// UpdateTrip changes the trip fields set in req.
func (c *Client) UpdateTrip(ctx context.Context, id string, req types.UpdateTripRequest) (*types.Trip, error) {
	var out types.Trip
	if err := c.do(ctx, http.MethodPut, tripPath(id), nil, req, &out); err != nil {
		return nil, fmt.Errorf("update trip: %w", err)
	}
	return &out, nil
}

// DeleteTrip deletes a trip and its stops.
func (c *Client) DeleteTrip(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, tripPath(id), nil, nil, nil); err != nil {
		return fmt.Errorf("delete trip: %w", err)
	}
	return nil
}

// ForkTrip copies a trip into a new one owned by the caller.
func (c *Client) ForkTrip(ctx context.Context, id string) (*types.Trip, error) {
	var out types.Trip
	if err := c.do(ctx, http.MethodPost, tripPath(id, "fork"), nil, nil, &out); err != nil {
		return nil, fmt.Errorf("fork trip: %w", err)
	}
	return &out, nil
}

// CreateShareLink requests a share link for a trip.
func (c *Client) CreateShareLink(ctx context.Context, id string) (*types.ShareLink, error) {
	var out types.ShareLink
	if err := c.do(ctx, http.MethodPost, tripPath(id, "share"), nil, nil, &out); err != nil {
		return nil, fmt.Errorf("share trip: %w", err)
	}
	return &out, nil
}

// SearchTrips runs a server-side search.
func (c *Client) SearchTrips(ctx context.Context, params types.SearchParams) ([]types.TripSummary, error) {
	var out []types.TripSummary
	if err := c.do(ctx, http.MethodGet, "/api/trips/search", params.Values(), nil, &out); err != nil {
		return nil, fmt.Errorf("search trips: %w", err)
	}
	return out, nil
}

// PopularTrips lists public trips near a location, best rated first. A zero
// limit lets the server choose.
func (c *Client) PopularTrips(ctx context.Context, at types.LatLng, limit int) ([]types.TripSummary, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(at.Lat, 'f', -1, 64))
	q.Set("lng", strconv.FormatFloat(at.Lng, 'f', -1, 64))
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out []types.TripSummary
	if err := c.do(ctx, http.MethodGet, "/api/trips/popular", q, nil, &out); err != nil {
		return nil, fmt.Errorf("popular trips: %w", err)
	}
	return out, nil
}

// SharedTrip resolves a share token into the shared trip.
func (c *Client) SharedTrip(ctx context.Context, token string) (*types.Trip, error) {
	var out types.Trip
	if err := c.do(ctx, http.MethodGet, "/api/shared/"+url.PathEscape(token), nil, nil, &out); err != nil {
		return nil, fmt.Errorf("shared trip: %w", err)
	}
	return &out, nil
}
