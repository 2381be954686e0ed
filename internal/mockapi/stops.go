package mockapi

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strings"

	"github.com/harrysoftwarecorp/route-nest/pkg/types"
)

const stopColumns = `stop_id, trip_id, name, description, lat, lng, address, place_id,
    planned_arrival, planned_departure, estimated_duration, actual_arrival, actual_departure,
    stop_type, priority, cost, notes, photos, sort_order, is_completed, is_skipped,
    created_at, updated_at`

func hydrateStop(row interface{ Scan(dest ...any) error }) (types.Stop, error) {
	var (
		st                              types.Stop
		arrival, createdAt, updatedAt   string
		departure, actualArr, actualDep sql.NullString
		cost                            sql.NullFloat64
		photos                          string
		completed, skipped              int
	)
	err := row.Scan(&st.ID, &st.TripID, &st.Name, &st.Description, &st.Lat, &st.Lng, &st.Address,
		&st.PlaceID, &arrival, &departure, &st.EstimatedDuration, &actualArr, &actualDep,
		&st.StopType, &st.Priority, &cost, &st.Notes, &photos, &st.Order, &completed, &skipped,
		&createdAt, &updatedAt)
	if err != nil {
		return st, fmt.Errorf("scanning stop: %w", err)
	}
	st.Cost = floatPtr(cost)
	st.IsCompleted = completed != 0
	st.IsSkipped = skipped != 0
	if st.Photos, err = decodeStrings(photos); err != nil {
		return st, err
	}
	if st.PlannedArrival, err = parseTime(arrival); err != nil {
		return st, err
	}
	if st.PlannedDeparture, err = parseTimePtr(departure); err != nil {
		return st, err
	}
	if st.ActualArrival, err = parseTimePtr(actualArr); err != nil {
		return st, err
	}
	if st.ActualDeparture, err = parseTimePtr(actualDep); err != nil {
		return st, err
	}
	if st.CreatedAt, err = parseTime(createdAt); err != nil {
		return st, err
	}
	if st.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return st, err
	}
	return st, nil
}

// loadStops returns the stops of a trip in sequence order.
func loadStops(ctx context.Context, q queryer, tripID string) ([]types.Stop, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT "+stopColumns+" FROM stops WHERE trip_id = ? ORDER BY sort_order, stop_id", tripID)
	if err != nil {
		return nil, fmt.Errorf("listing stops: %w", err)
	}
	defer rows.Close()
	stops := []types.Stop{}
	for rows.Next() {
		st, err := hydrateStop(rows)
		if err != nil {
			return nil, err
		}
		stops = append(stops, st)
	}
	return stops, rows.Err()
}

// insertStop stores st and returns its new id.
func insertStop(ctx context.Context, q queryer, st *types.Stop) (int64, error) {
	res, err := q.ExecContext(ctx, `INSERT INTO stops (trip_id, name, description, lat, lng,
        address, place_id, planned_arrival, planned_departure, estimated_duration,
        actual_arrival, actual_departure, stop_type, priority, cost, notes, photos,
        sort_order, is_completed, is_skipped, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		st.TripID, st.Name, st.Description, st.Lat, st.Lng, st.Address, st.PlaceID,
		formatTime(st.PlannedArrival), formatTimePtr(st.PlannedDeparture), st.EstimatedDuration,
		formatTimePtr(st.ActualArrival), formatTimePtr(st.ActualDeparture), st.StopType, st.Priority,
		nullFloat(st.Cost), st.Notes, encodeJSON(nonNil(st.Photos)), st.Order,
		boolInt(st.IsCompleted), boolInt(st.IsSkipped), formatTime(st.CreatedAt), formatTime(st.UpdatedAt))
	if err != nil {
		return 0, fmt.Errorf("inserting stop: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading stop id: %w", err)
	}
	st.ID = id
	return id, nil
}

func updateStopRow(ctx context.Context, q queryer, st *types.Stop) error {
	_, err := q.ExecContext(ctx, `UPDATE stops SET name = ?, description = ?, lat = ?, lng = ?,
        address = ?, planned_arrival = ?, planned_departure = ?, estimated_duration = ?,
        actual_arrival = ?, actual_departure = ?, stop_type = ?, priority = ?, cost = ?,
        notes = ?, sort_order = ?, is_completed = ?, is_skipped = ?, updated_at = ?
        WHERE stop_id = ? AND trip_id = ?`,
		st.Name, st.Description, st.Lat, st.Lng, st.Address, formatTime(st.PlannedArrival),
		formatTimePtr(st.PlannedDeparture), st.EstimatedDuration, formatTimePtr(st.ActualArrival),
		formatTimePtr(st.ActualDeparture), st.StopType, st.Priority, nullFloat(st.Cost), st.Notes,
		st.Order, boolInt(st.IsCompleted), boolInt(st.IsSkipped), formatTime(st.UpdatedAt),
		st.ID, st.TripID)
	if err != nil {
		return fmt.Errorf("updating stop: %w", err)
	}
	return nil
}

// writeOrder stores the sequence given by ids as dense orders 0..n-1.
func writeOrder(ctx context.Context, q queryer, tripID string, ids []int64) error {
	for i, id := range ids {
		if _, err := q.ExecContext(ctx,
			"UPDATE stops SET sort_order = ? WHERE stop_id = ? AND trip_id = ?", i, id, tripID); err != nil {
			return fmt.Errorf("ordering stops: %w", err)
		}
	}
	return nil
}

// AddStop appends a stop to the end of the trip.
func (s *Store) AddStop(ctx context.Context, tripID string, req types.AddStopRequest) (*types.Trip, error) {
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}
	return s.mutateTrip(ctx, tripID, func(tx *sql.Tx, t *types.Trip) error {
		dep := req.PlannedDeparture
		if dep.IsZero() {
			dep = req.PlannedArrival.Add(minutes(req.EstimatedDuration))
		}
		st := types.Stop{
			TripID:            tripID,
			Name:              strings.TrimSpace(req.Name),
			Description:       req.Description,
			Lat:               req.Lat,
			Lng:               req.Lng,
			PlannedArrival:    req.PlannedArrival,
			PlannedDeparture:  &dep,
			EstimatedDuration: req.EstimatedDuration,
			StopType:          req.StopType,
			Priority:          req.Priority,
			Cost:              req.Cost,
			Notes:             req.Notes,
			Order:             len(t.Stops),
			CreatedAt:         t.UpdatedAt,
			UpdatedAt:         t.UpdatedAt,
		}
		if st.PlannedArrival.IsZero() {
			st.PlannedArrival = t.UpdatedAt
		}
		_, err := insertStop(ctx, tx, &st)
		return err
	})
}

// UpdateStop applies the set fields of req to stop req.ID.
func (s *Store) UpdateStop(ctx context.Context, tripID string, req types.UpdateStopRequest) (*types.Trip, error) {
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}
	return s.mutateTrip(ctx, tripID, func(tx *sql.Tx, t *types.Trip) error {
		st, ok := t.Stop(req.ID)
		if !ok {
			return types.ErrNotFound
		}
		moved := false
		if req.Name != nil {
			st.Name = strings.TrimSpace(*req.Name)
		}
		if req.Lat != nil {
			moved = *req.Lat != st.Lat || *req.Lng != st.Lng
			st.Lat, st.Lng = *req.Lat, *req.Lng
		}
		if req.PlannedArrival != nil {
			st.PlannedArrival = *req.PlannedArrival
		}
		if req.EstimatedDuration != nil {
			st.EstimatedDuration = *req.EstimatedDuration
		}
		if req.PlannedDeparture != nil {
			d := *req.PlannedDeparture
			st.PlannedDeparture = &d
		} else if req.PlannedArrival != nil || req.EstimatedDuration != nil {
			d := st.PlannedArrival.Add(minutes(st.EstimatedDuration))
			st.PlannedDeparture = &d
		}
		if req.StopType != nil {
			st.StopType = *req.StopType
		}
		if req.Priority != nil {
			st.Priority = *req.Priority
		}
		if req.Description != nil {
			st.Description = *req.Description
		}
		if req.Cost != nil {
			st.Cost = req.Cost
		}
		if req.Notes != nil {
			st.Notes = *req.Notes
		}
		if req.IsSkipped != nil {
			if *req.IsSkipped {
				if err := st.Skip(t.UpdatedAt); err != nil {
					return invalid(err)
				}
			} else if st.IsSkipped {
				st.Reopen(t.UpdatedAt)
			}
		}
		st.UpdatedAt = t.UpdatedAt
		if err := updateStopRow(ctx, tx, st); err != nil {
			return err
		}
		if moved {
			return deleteRoutesTouching(ctx, tx, tripID, st.ID)
		}
		return nil
	})
}

// DeleteStop removes a stop and closes the gap in the sequence.
func (s *Store) DeleteStop(ctx context.Context, tripID string, stopID int64) (*types.Trip, error) {
	return s.mutateTrip(ctx, tripID, func(tx *sql.Tx, t *types.Trip) error {
		if _, ok := t.Stop(stopID); !ok {
			return types.ErrNotFound
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM stops WHERE stop_id = ? AND trip_id = ?", stopID, tripID); err != nil {
			return fmt.Errorf("deleting stop: %w", err)
		}
		ids := slices.DeleteFunc(types.StopIDs(t.Stops), func(id int64) bool { return id == stopID })
		return writeOrder(ctx, tx, tripID, ids)
	})
}

// ReorderStops sets the sequence. ids must be a permutation of the trip's
// stop ids.
func (s *Store) ReorderStops(ctx context.Context, tripID string, ids []int64) (*types.Trip, error) {
	return s.mutateTrip(ctx, tripID, func(tx *sql.Tx, t *types.Trip) error {
		current := types.StopIDs(t.Stops)
		want := slices.Clone(ids)
		slices.Sort(current)
		slices.Sort(want)
		if !slices.Equal(current, want) {
			return invalid(types.ErrInvalidOrder)
		}
		return writeOrder(ctx, tx, tripID, ids)
	})
}

// SetStopStatus completes or reopens a stop. Completing without an arrival
// time records the current time.
func (s *Store) SetStopStatus(ctx context.Context, tripID string, stopID int64, req types.StopStatusRequest) (*types.Trip, error) {
	return s.mutateTrip(ctx, tripID, func(tx *sql.Tx, t *types.Trip) error {
		st, ok := t.Stop(stopID)
		if !ok {
			return types.ErrNotFound
		}
		if req.IsCompleted {
			if req.ActualArrival != nil {
				at := *req.ActualArrival
				st.ActualArrival = &at
			}
			if err := st.Complete(t.UpdatedAt); err != nil {
				return fmt.Errorf("%w: %w", types.ErrConflict, err)
			}
		} else {
			st.Reopen(t.UpdatedAt)
		}
		return updateStopRow(ctx, tx, st)
	})
}
