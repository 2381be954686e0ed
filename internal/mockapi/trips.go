package mockapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/harrysoftwarecorp/route-nest/pkg/types"
)

const tripColumns = `trip_id, name, description, user_id, category, visibility, is_public,
    is_template, estimated_duration, tags, shared_with, start_date, end_date, stats,
    rating, review_count, created_at, updated_at`

// hydrateTrip scans one trips row without stops or routes.
func hydrateTrip(row interface{ Scan(dest ...any) error }) (*types.Trip, error) {
	var (
		t                       types.Trip
		isPublic, isTemplate    int
		tags, sharedWith, stats string
		startDate, endDate      sql.NullString
		rating                  sql.NullFloat64
		createdAt, updatedAt    string
	)
	err := row.Scan(&t.ID, &t.Name, &t.Description, &t.UserID, &t.Category, &t.Visibility,
		&isPublic, &isTemplate, &t.EstimatedDuration, &tags, &sharedWith, &startDate, &endDate,
		&stats, &rating, &t.ReviewCount, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	t.IsPublic = isPublic != 0
	t.IsTemplate = isTemplate != 0
	t.Rating = floatPtr(rating)
	if t.Tags, err = decodeStrings(tags); err != nil {
		return nil, err
	}
	if t.SharedWith, err = decodeStrings(sharedWith); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(stats), &t.Stats); err != nil {
		return nil, fmt.Errorf("decoding stats: %w", err)
	}
	if t.StartDate, err = parseTimePtr(startDate); err != nil {
		return nil, err
	}
	if t.EndDate, err = parseTimePtr(endDate); err != nil {
		return nil, err
	}
	if t.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if t.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

// loadTrip reads a trip with its stops and routes.
func loadTrip(ctx context.Context, q queryer, id string) (*types.Trip, error) {
	row := q.QueryRowContext(ctx, "SELECT "+tripColumns+" FROM trips WHERE trip_id = ?", id)
	t, err := hydrateTrip(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("getting trip %s: %w", id, err)
	}
	if t.Stops, err = loadStops(ctx, q, id); err != nil {
		return nil, err
	}
	if t.Routes, err = loadRoutes(ctx, q, id); err != nil {
		return nil, err
	}
	return t, nil
}

func tripIDs(ctx context.Context, q queryer) ([]string, error) {
	rows, err := q.QueryContext(ctx, "SELECT trip_id FROM trips ORDER BY created_at DESC, trip_id")
	if err != nil {
		return nil, fmt.Errorf("listing trips: %w", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning trip id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func loadAllTrips(ctx context.Context, q queryer) ([]*types.Trip, error) {
	ids, err := tripIDs(ctx, q)
	if err != nil {
		return nil, err
	}
	trips := make([]*types.Trip, 0, len(ids))
	for _, id := range ids {
		t, err := loadTrip(ctx, q, id)
		if err != nil {
			return nil, err
		}
		trips = append(trips, t)
	}
	return trips, nil
}

func insertTrip(ctx context.Context, q queryer, t *types.Trip) error {
	_, err := q.ExecContext(ctx, "INSERT INTO trips ("+tripColumns+`)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Name, t.Description, t.UserID, t.Category, t.Visibility,
		boolInt(t.IsPublic), boolInt(t.IsTemplate), t.EstimatedDuration,
		encodeJSON(nonNil(t.Tags)), encodeJSON(nonNil(t.SharedWith)),
		formatTimePtr(t.StartDate), formatTimePtr(t.EndDate), encodeJSON(t.Stats),
		nullFloat(t.Rating), t.ReviewCount, formatTime(t.CreatedAt), formatTime(t.UpdatedAt))
	if err != nil {
		return fmt.Errorf("inserting trip: %w", err)
	}
	return nil
}

func updateTripRow(ctx context.Context, q queryer, t *types.Trip) error {
	_, err := q.ExecContext(ctx, `UPDATE trips SET name = ?, description = ?, category = ?,
        visibility = ?, is_public = ?, is_template = ?, estimated_duration = ?, tags = ?,
        shared_with = ?, start_date = ?, end_date = ?, rating = ?, review_count = ?,
        updated_at = ? WHERE trip_id = ?`,
		t.Name, t.Description, t.Category, t.Visibility, boolInt(t.IsPublic), boolInt(t.IsTemplate),
		t.EstimatedDuration, encodeJSON(nonNil(t.Tags)), encodeJSON(nonNil(t.SharedWith)),
		formatTimePtr(t.StartDate), formatTimePtr(t.EndDate), nullFloat(t.Rating), t.ReviewCount,
		formatTime(t.UpdatedAt), t.ID)
	if err != nil {
		return fmt.Errorf("updating trip: %w", err)
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func cleanTags(tags []string) []string {
	out := []string{}
	seen := map[string]bool{}
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t != "" && !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

// ListTrips returns a summary of every trip, newest first.
func (s *Store) ListTrips(ctx context.Context) ([]types.TripSummary, error) {
	var out []types.TripSummary
	err := s.read(func() error {
		trips, err := loadAllTrips(ctx, s.db)
		if err != nil {
			return err
		}
		out = make([]types.TripSummary, len(trips))
		for i, t := range trips {
			out[i] = t.Summary()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	types.SortSummariesNewestFirst(out)
	return out, nil
}

// GetTrip returns one trip with its stops and routes.
func (s *Store) GetTrip(ctx context.Context, id string) (*types.Trip, error) {
	var t *types.Trip
	err := s.read(func() error {
		var err error
		t, err = loadTrip(ctx, s.db, id)
		return err
	})
	return t, err
}

// CreateTrip stores a new empty trip owned by the store's user.
func (s *Store) CreateTrip(ctx context.Context, req types.CreateTripRequest) (*types.Trip, error) {
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}
	now := s.clock.Now().UTC()
	t := &types.Trip{
		ID:                newID(),
		Name:              strings.TrimSpace(req.Name),
		Description:       strings.TrimSpace(req.Description),
		UserID:            s.userID,
		CreatedAt:         now,
		UpdatedAt:         now,
		StartDate:         req.StartDate,
		EstimatedDuration: req.EstimatedDuration,
		IsPublic:          req.IsPublic,
		Stops:             []types.Stop{},
		Routes:            []types.RouteSegment{},
		Tags:              cleanTags(req.Tags),
		Category:          req.Category,
		SharedWith:        []string{},
		Visibility:        types.VisibilityPrivate,
	}
	if t.Category == "" {
		t.Category = types.CategoryCustom
	}
	if t.IsPublic {
		t.Visibility = types.VisibilityPublic
	}
	t.Stats = computeStats(t)

	var out *types.Trip
	err := s.tx(ctx, func(tx *sql.Tx) error {
		if err := insertTrip(ctx, tx, t); err != nil {
			return err
		}
		var err error
		out, err = loadTrip(ctx, tx, t.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateTrip applies the set fields of req.
func (s *Store) UpdateTrip(ctx context.Context, id string, req types.UpdateTripRequest) (*types.Trip, error) {
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}
	return s.mutateTrip(ctx, id, func(tx *sql.Tx, t *types.Trip) error {
		if req.Name != nil {
			t.Name = strings.TrimSpace(*req.Name)
		}
		if req.Description != nil {
			t.Description = strings.TrimSpace(*req.Description)
		}
		if req.EstimatedDuration != nil {
			t.EstimatedDuration = *req.EstimatedDuration
		}
		if req.Category != nil {
			t.Category = *req.Category
		}
		if req.Tags != nil {
			t.Tags = cleanTags(req.Tags)
		}
		if req.StartDate != nil {
			t.StartDate = req.StartDate
		}
		if req.EndDate != nil {
			t.EndDate = req.EndDate
		}
		if req.IsPublic != nil {
			t.IsPublic = *req.IsPublic
			if t.IsPublic {
				t.Visibility = types.VisibilityPublic
			} else if t.Visibility == types.VisibilityPublic {
				t.Visibility = types.VisibilityPrivate
			}
		}
		if req.Visibility != nil {
			t.Visibility = *req.Visibility
			t.IsPublic = t.Visibility == types.VisibilityPublic
		}
		if t.StartDate != nil && t.EndDate != nil && t.EndDate.Before(*t.StartDate) {
			return invalid(types.ErrInvalidDuration)
		}
		return updateTripRow(ctx, tx, t)
	})
}

// DeleteTrip removes a trip and everything attached to it.
func (s *Store) DeleteTrip(ctx context.Context, id string) error {
	err := s.tx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, "DELETE FROM trips WHERE trip_id = ?", id)
		if err != nil {
			return fmt.Errorf("deleting trip: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return types.ErrNotFound
		}
		s.unindexLocked(id)
		return nil
	})
	return err
}

// ForkTrip copies a trip and its stops into a new private trip. Routes are
// not copied because the stop ids change.
func (s *Store) ForkTrip(ctx context.Context, id string) (*types.Trip, error) {
	var out *types.Trip
	err := s.tx(ctx, func(tx *sql.Tx) error {
		src, err := loadTrip(ctx, tx, id)
		if err != nil {
			return err
		}
		now := s.clock.Now().UTC()
		fork := *src
		fork.ID = newID()
		fork.Name = src.Name + " (copy)"
		fork.UserID = s.userID
		fork.CreatedAt, fork.UpdatedAt = now, now
		fork.IsPublic, fork.IsTemplate = false, false
		fork.Visibility = types.VisibilityPrivate
		fork.SharedWith = []string{}
		fork.Rating, fork.ReviewCount = nil, 0
		fork.Routes = nil
		if err := insertTrip(ctx, tx, &fork); err != nil {
			return err
		}
		for _, st := range src.OrderedStops() {
			st.TripID = fork.ID
			st.IsCompleted, st.IsSkipped = false, false
			st.ActualArrival, st.ActualDeparture = nil, nil
			st.CreatedAt, st.UpdatedAt = now, now
			if _, err := insertStop(ctx, tx, &st); err != nil {
				return err
			}
		}
		out, err = s.finishLoadLocked(ctx, tx, fork.ID)
		return err
	})
	return out, err
}

// mutateTrip loads trip id inside a transaction, applies fn, recomputes the
// stats and returns the stored result.
func (s *Store) mutateTrip(ctx context.Context, id string, fn func(tx *sql.Tx, t *types.Trip) error) (*types.Trip, error) {
	var out *types.Trip
	err := s.tx(ctx, func(tx *sql.Tx) error {
		t, err := loadTrip(ctx, tx, id)
		if err != nil {
			return err
		}
		t.UpdatedAt = s.clock.Now().UTC()
		if err := fn(tx, t); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "UPDATE trips SET updated_at = ? WHERE trip_id = ?",
			formatTime(t.UpdatedAt), id); err != nil {
			return fmt.Errorf("touching trip: %w", err)
		}
		out, err = s.finishLoadLocked(ctx, tx, id)
		return err
	})
	return out, err
}

// finishLoadLocked prunes stale routes, recomputes and stores the stats,
// refreshes the location index and returns the stored trip.
func (s *Store) finishLoadLocked(ctx context.Context, tx *sql.Tx, id string) (*types.Trip, error) {
	if err := pruneRoutes(ctx, tx, id); err != nil {
		return nil, err
	}
	t, err := loadTrip(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	t.Stats = computeStats(t)
	if _, err := tx.ExecContext(ctx, "UPDATE trips SET stats = ? WHERE trip_id = ?",
		encodeJSON(t.Stats), id); err != nil {
		return nil, fmt.Errorf("storing stats: %w", err)
	}
	s.indexLocked(t)
	return t, nil
}
