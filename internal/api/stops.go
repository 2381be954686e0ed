package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/harrysoftwarecorp/route-nest/pkg/types"
)

func stopPath(tripID string, stopID int64, parts ...string) string {
	return tripPath(tripID, append([]string{"stops", strconv.FormatInt(stopID, 10)}, parts...)...)
}

// The stop and route endpoints answer with the whole updated trip.

// AddStop appends a stop to a trip.
func (c *Client) AddStop(ctx context.Context, tripID string, req types.AddStopRequest) (*types.Trip, error) {
	var out types.Trip
	if err := c.do(ctx, http.MethodPost, tripPath(tripID, "stops"), nil, req, &out); err != nil {
		return nil, fmt.Errorf("add stop: %w", err)
	}
	return &out, nil
}

// UpdateStop changes the stop fields set in req.
func (c *Client) UpdateStop(ctx context.Context, tripID string, req types.UpdateStopRequest) (*types.Trip, error) {
	var out types.Trip
	if err := c.do(ctx, http.MethodPut, stopPath(tripID, req.ID), nil, req, &out); err != nil {
		return nil, fmt.Errorf("update stop: %w", err)
	}
	return &out, nil
}

// DeleteStop removes a stop from a trip.
func (c *Client) DeleteStop(ctx context.Context, tripID string, stopID int64) (*types.Trip, error) {
	var out types.Trip
	if err := c.do(ctx, http.MethodDelete, stopPath(tripID, stopID), nil, nil, &out); err != nil {
		return nil, fmt.Errorf("delete stop: %w", err)
	}
	return &out, nil
}

// ReorderStops sets the stop sequence to stopIDs.
func (c *Client) ReorderStops(ctx context.Context, tripID string, stopIDs []int64) (*types.Trip, error) {
	var out types.Trip
	body := types.ReorderStopsRequest{StopIDs: stopIDs}
	if err := c.do(ctx, http.MethodPut, tripPath(tripID, "stops", "reorder"), nil, body, &out); err != nil {
		return nil, fmt.Errorf("reorder stops: %w", err)
	}
	return &out, nil
}

// SetStopStatus marks a stop completed or not completed.
func (c *Client) SetStopStatus(ctx context.Context, tripID string, stopID int64, req types.StopStatusRequest) (*types.Trip, error) {
	var out types.Trip
	if err := c.do(ctx, http.MethodPatch, stopPath(tripID, stopID, "status"), nil, req, &out); err != nil {
		return nil, fmt.Errorf("set stop status: %w", err)
	}
	return &out, nil
}

// GenerateRoutes asks the server to compute route segments between
// consecutive stops.
func (c *Client) GenerateRoutes(ctx context.Context, tripID string, req types.GenerateRoutesRequest) (*types.Trip, error) {
	var out types.Trip
	if err := c.do(ctx, http.MethodPost, tripPath(tripID, "routes", "generate"), nil, req, &out); err != nil {
		return nil, fmt.Errorf("generate routes: %w", err)
	}
	return &out, nil
}

// OptimizeRoute asks the server to reorder the stops for a shorter route.
func (c *Client) OptimizeRoute(ctx context.Context, tripID string) (*types.Trip, error) {
	var out types.Trip
	if err := c.do(ctx, http.MethodPost, tripPath(tripID, "routes", "optimize"), nil, nil, &out); err != nil {
		return nil, fmt.Errorf("optimize route: %w", err)
	}
	return &out, nil
}
