package tripdetail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/harrysoftwarecorp/route-nest/internal/logging"
	"github.com/harrysoftwarecorp/route-nest/internal/stopform"
	"github.com/harrysoftwarecorp/route-nest/pkg/types"
)

// mutateFunc performs one API call for the trip tripID. A nil trip with a
// nil error keeps the current trip.
type mutateFunc func(ctx context.Context, tripID string) (*types.Trip, error)

// mutate runs fn under the pending guard and replaces the trip with its
// result. Any open dialog closes on success, except one mid-submit which
// the form closes itself.
func (c *Controller) mutate(ctx context.Context, action string, fn mutateFunc) error {
	c.mu.Lock()
	if c.trip == nil {
		c.mu.Unlock()
		return ErrNotLoaded
	}
	if c.pending {
		c.mu.Unlock()
		return ErrBusy
	}
	c.pending = true
	tripID := c.trip.ID
	c.mu.Unlock()

	trip, err := fn(ctx, tripID)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = false
	if err != nil {
		c.err = err
		logging.LogError(c.logger, "failed to "+action, err, slog.String("trip_id", tripID))
		return fmt.Errorf("%s: %w", action, err)
	}
	c.err = nil
	if c.trip == nil || c.trip.ID != tripID {
		// Navigated away while the call was in flight.
		return nil
	}
	if trip != nil {
		c.trip = trip
		// A refresh still in flight was sent before this write answered.
		if c.load.Settle() {
			c.logger.Debug("dropped stale trip refresh", slog.String("trip_id", tripID))
		}
	}
	if _, ok := c.trip.Stop(c.selected); !ok {
		c.selected = 0
	}
	c.clicked = nil
	if v := c.form.Values(); v.Open && !v.Pending {
		c.form.Close()
	}
	return nil
}

// SubmitStop submits the stop dialog. It adds a stop, or updates the stop
// being edited. The form stays open with its values when the call fails.
func (c *Controller) SubmitStop(ctx context.Context) error {
	editing := c.form.Values().EditingID
	err := c.form.Submit(ctx, func(ctx context.Context, req types.AddStopRequest) error {
		if editing != 0 {
			upd := types.UpdateFromAdd(editing, req)
			return c.mutate(ctx, "update stop", func(ctx context.Context, tripID string) (*types.Trip, error) {
				return c.api.UpdateStop(ctx, tripID, upd)
			})
		}
		return c.mutate(ctx, "add stop", func(ctx context.Context, tripID string) (*types.Trip, error) {
			return c.api.AddStop(ctx, tripID, req)
		})
	})
	if err != nil {
		var verr *stopform.ValidationError
		if errors.As(err, &verr) {
			c.mu.Lock()
			c.err = err
			c.mu.Unlock()
		}
		return err
	}
	c.mu.Lock()
	c.clicked = nil
	c.mu.Unlock()
	return nil
}

// AddStop adds a stop from an already built request, bypassing the dialog.
func (c *Controller) AddStop(ctx context.Context, req types.AddStopRequest) error {
	if err := req.Validate(); err != nil {
		return fmt.Errorf("add stop: %w: %w", types.ErrInvalidRequest, err)
	}
	return c.mutate(ctx, "add stop", func(ctx context.Context, tripID string) (*types.Trip, error) {
		return c.api.AddStop(ctx, tripID, req)
	})
}

// EditStop applies a partial update to a stop.
func (c *Controller) EditStop(ctx context.Context, req types.UpdateStopRequest) error {
	if err := req.Validate(); err != nil {
		return fmt.Errorf("update stop: %w: %w", types.ErrInvalidRequest, err)
	}
	return c.mutate(ctx, "update stop", func(ctx context.Context, tripID string) (*types.Trip, error) {
		return c.api.UpdateStop(ctx, tripID, req)
	})
}

// DeleteStop removes a stop. Deleting the selected stop clears the
// selection.
func (c *Controller) DeleteStop(ctx context.Context, stopID int64) error {
	return c.mutate(ctx, "delete stop", func(ctx context.Context, tripID string) (*types.Trip, error) {
		trip, err := c.api.DeleteStop(ctx, tripID, stopID)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		if c.selected == stopID {
			c.selected = 0
		}
		c.mu.Unlock()
		return trip, nil
	})
}

// SetStopCompleted marks a stop visited, recording the arrival time, or
// reopens it.
func (c *Controller) SetStopCompleted(ctx context.Context, stopID int64, completed bool) error {
	req := types.StopStatusRequest{IsCompleted: completed}
	if completed {
		now := c.clock.Now()
		req.ActualArrival = &now
	}
	action := "complete stop"
	if !completed {
		action = "reopen stop"
	}
	return c.mutate(ctx, action, func(ctx context.Context, tripID string) (*types.Trip, error) {
		return c.api.SetStopStatus(ctx, tripID, stopID, req)
	})
}

// ToggleStopCompleted flips the completed flag of a stop.
func (c *Controller) ToggleStopCompleted(ctx context.Context, stopID int64) error {
	c.mu.Lock()
	if c.trip == nil {
		c.mu.Unlock()
		return ErrNotLoaded
	}
	s, ok := c.trip.Stop(stopID)
	if !ok {
		c.mu.Unlock()
		return ErrNoStop
	}
	completed := !s.IsCompleted
	c.mu.Unlock()
	return c.SetStopCompleted(ctx, stopID, completed)
}

// MoveStop shifts a stop delta positions along the sequence, clamped to the
// ends. A move that changes nothing makes no call.
func (c *Controller) MoveStop(ctx context.Context, stopID int64, delta int) error {
	c.mu.Lock()
	if c.trip == nil {
		c.mu.Unlock()
		return ErrNotLoaded
	}
	if _, ok := c.trip.Stop(stopID); !ok {
		c.mu.Unlock()
		return ErrNoStop
	}
	ids, changed := types.MoveStop(c.trip.Stops, stopID, delta)
	c.mu.Unlock()
	if !changed {
		return nil
	}
	return c.ReorderStops(ctx, ids)
}

// ReorderStops replaces the stop sequence.
func (c *Controller) ReorderStops(ctx context.Context, stopIDs []int64) error {
	return c.mutate(ctx, "reorder stops", func(ctx context.Context, tripID string) (*types.Trip, error) {
		return c.api.ReorderStops(ctx, tripID, stopIDs)
	})
}

// GenerateRoutes asks the server to build route segments for mode.
func (c *Controller) GenerateRoutes(ctx context.Context, mode types.TransportMode) error {
	if !mode.Valid() {
		return fmt.Errorf("generate routes: %w: %w", types.ErrInvalidRequest, types.ErrInvalidMode)
	}
	return c.mutate(ctx, "generate routes", func(ctx context.Context, tripID string) (*types.Trip, error) {
		return c.api.GenerateRoutes(ctx, tripID, types.GenerateRoutesRequest{TransportMode: mode})
	})
}

// OptimizeRoute asks the server to reorder the stops for a shorter route.
func (c *Controller) OptimizeRoute(ctx context.Context) error {
	return c.mutate(ctx, "optimize route", func(ctx context.Context, tripID string) (*types.Trip, error) {
		return c.api.OptimizeRoute(ctx, tripID)
	})
}

// AddToItinerary appends the trip to an itinerary. The trip itself does not
// change.
func (c *Controller) AddToItinerary(ctx context.Context, itineraryID string) error {
	return c.mutate(ctx, "add trip to itinerary", func(ctx context.Context, tripID string) (*types.Trip, error) {
		_, err := c.api.AddTripToItinerary(ctx, itineraryID, tripID)
		return nil, err
	})
}

// Share creates a share link and copies its URL to the clipboard. A failure
// of either step is logged and returned.
func (c *Controller) Share(ctx context.Context) (string, error) {
	var url string
	err := c.mutate(ctx, "share trip", func(ctx context.Context, tripID string) (*types.Trip, error) {
		link, err := c.api.CreateShareLink(ctx, tripID)
		if err != nil {
			return nil, err
		}
		url = link.URL
		c.mu.Lock()
		c.shareURL = url
		c.mu.Unlock()
		if err := c.clip.WriteAll(url); err != nil {
			return nil, fmt.Errorf("copy share link: %w", err)
		}
		return nil, nil
	})
	return url, err
}
