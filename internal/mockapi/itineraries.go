package mockapi

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/harrysoftwarecorp/route-nest/pkg/types"
)

const itineraryColumns = `itinerary_id, user_id, name, description, trip_ids, start_date,
    end_date, total_duration, is_active, is_public, tags, created_at, updated_at`

func hydrateItinerary(row interface{ Scan(dest ...any) error }) (*types.Itinerary, error) {
	var (
		it                   types.Itinerary
		tripIDs, tags        string
		start, end           string
		isActive, isPublic   int
		createdAt, updatedAt string
	)
	err := row.Scan(&it.ID, &it.UserID, &it.Name, &it.Description, &tripIDs, &start, &end,
		&it.TotalDuration, &isActive, &isPublic, &tags, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	it.IsActive = isActive != 0
	it.IsPublic = isPublic != 0
	it.CustomStops = []types.Stop{}
	it.SharedWith = []string{}
	it.CompletedTripIDs = []string{}
	if it.TripIDs, err = decodeStrings(tripIDs); err != nil {
		return nil, err
	}
	if it.Tags, err = decodeStrings(tags); err != nil {
		return nil, err
	}
	for _, f := range []struct {
		dst *time.Time
		src string
	}{{&it.StartDate, start}, {&it.EndDate, end}, {&it.CreatedAt, createdAt}, {&it.UpdatedAt, updatedAt}} {
		if *f.dst, err = parseTime(f.src); err != nil {
			return nil, err
		}
	}
	return &it, nil
}

func loadItinerary(ctx context.Context, q queryer, id string) (*types.Itinerary, error) {
	row := q.QueryRowContext(ctx, "SELECT "+itineraryColumns+" FROM itineraries WHERE itinerary_id = ?", id)
	it, err := hydrateItinerary(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting itinerary %s: %w", id, err)
	}
	return it, nil
}

// durationDays counts the calendar days an itinerary spans, rounding up.
func durationDays(start, end time.Time) int {
	if end.IsZero() || !end.After(start) {
		return 0
	}
	return int(math.Ceil(end.Sub(start).Hours() / 24))
}

// ListItineraries returns the store user's itineraries, newest first.
func (s *Store) ListItineraries(ctx context.Context) ([]types.Itinerary, error) {
	out := []types.Itinerary{}
	err := s.read(func() error {
		rows, err := s.db.QueryContext(ctx, "SELECT "+itineraryColumns+
			" FROM itineraries WHERE user_id = ? ORDER BY created_at DESC", s.userID)
		if err != nil {
			return fmt.Errorf("listing itineraries: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			it, err := hydrateItinerary(rows)
			if err != nil {
				return fmt.Errorf("scanning itinerary: %w", err)
			}
			out = append(out, *it)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CreateItinerary stores a new itinerary. Every listed trip must exist.
func (s *Store) CreateItinerary(ctx context.Context, req types.CreateItineraryRequest) (*types.Itinerary, error) {
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}
	now := s.clock.Now().UTC()
	start := req.StartDate
	if start.IsZero() {
		start = now
	}
	end := req.EndDate
	if end.IsZero() {
		end = start
	}
	it := &types.Itinerary{
		ID:            newID(),
		UserID:        s.userID,
		Name:          strings.TrimSpace(req.Name),
		Description:   strings.TrimSpace(req.Description),
		TripIDs:       dedupe(req.TripIDs),
		StartDate:     start.UTC(),
		EndDate:       end.UTC(),
		TotalDuration: durationDays(start, end),
		IsActive:      true,
		IsPublic:      req.IsPublic,
		Tags:          cleanTags(req.Tags),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	var out *types.Itinerary
	err := s.tx(ctx, func(tx *sql.Tx) error {
		for _, id := range it.TripIDs {
			if _, err := loadTrip(ctx, tx, id); err != nil {
				return fmt.Errorf("trip %s: %w", id, err)
			}
		}
		_, err := tx.ExecContext(ctx, "INSERT INTO itineraries ("+itineraryColumns+`)
            VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			it.ID, it.UserID, it.Name, it.Description, encodeJSON(it.TripIDs),
			formatTime(it.StartDate), formatTime(it.EndDate), it.TotalDuration,
			boolInt(it.IsActive), boolInt(it.IsPublic), encodeJSON(it.Tags),
			formatTime(it.CreatedAt), formatTime(it.UpdatedAt))
		if err != nil {
			return fmt.Errorf("inserting itinerary: %w", err)
		}
		out, err = loadItinerary(ctx, tx, it.ID)
		return err
	})
	return out, err
}

// AddTripToItinerary appends a trip to an itinerary. Adding a trip twice is
// ErrConflict.
func (s *Store) AddTripToItinerary(ctx context.Context, itineraryID, tripID string) (*types.Itinerary, error) {
	var out *types.Itinerary
	err := s.tx(ctx, func(tx *sql.Tx) error {
		it, err := loadItinerary(ctx, tx, itineraryID)
		if err != nil {
			return err
		}
		if _, err := loadTrip(ctx, tx, tripID); err != nil {
			return err
		}
		if it.HasTrip(tripID) {
			return fmt.Errorf("trip %s already in itinerary: %w", tripID, types.ErrConflict)
		}
		it.TripIDs = append(it.TripIDs, tripID)
		if _, err := tx.ExecContext(ctx,
			"UPDATE itineraries SET trip_ids = ?, updated_at = ? WHERE itinerary_id = ?",
			encodeJSON(it.TripIDs), formatTime(s.clock.Now().UTC()), itineraryID); err != nil {
			return fmt.Errorf("updating itinerary: %w", err)
		}
		out, err = loadItinerary(ctx, tx, itineraryID)
		return err
	})
	return out, err
}

func dedupe(ids []string) []string {
	out := []string{}
	seen := map[string]bool{}
	for _, id := range ids {
		if id != "" && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
