package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/harrysoftwarecorp/route-nest/pkg/types"
)

// ListItineraries fetches the user's itineraries.
func (c *Client) ListItineraries(ctx context.Context) ([]types.Itinerary, error) {
	var out []types.Itinerary
	if err := c.do(ctx, http.MethodGet, "/api/itineraries", nil, nil, &out); err != nil {
		return nil, fmt.Errorf("list itineraries: %w", err)
	}
	return out, nil
}

// CreateItinerary creates an itinerary.
func (c *Client) CreateItinerary(ctx context.Context, req types.CreateItineraryRequest) (*types.Itinerary, error) {
	var out types.Itinerary
	if err := c.do(ctx, http.MethodPost, "/api/itineraries", nil, req, &out); err != nil {
		return nil, fmt.Errorf("create itinerary: %w", err)
	}
	return &out, nil
}

// AddTripToItinerary appends a trip to an itinerary.
func (c *Client) AddTripToItinerary(ctx context.Context, itineraryID, tripID string) (*types.Itinerary, error) {
	var out types.Itinerary
	path := "/api/itineraries/" + url.PathEscape(itineraryID) + "/trips"
	body := types.AddTripToItineraryRequest{TripID: tripID}
	if err := c.do(ctx, http.MethodPost, path, nil, body, &out); err != nil {
		return nil, fmt.Errorf("add trip to itinerary: %w", err)
	}
	return &out, nil
}
