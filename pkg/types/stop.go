package types

import (
	"math"
	"slices"
	"time"
)

// LatLng is a WGS84 coordinate in degrees.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the coordinate is finite and within range.
func (p LatLng) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lng) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lng, 0) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// Stop is a single geo-located, time-scheduled waypoint within a trip.
type Stop struct {
	ID     int64  `json:"id"`
	TripID string `json:"tripId"`

	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	Address     string  `json:"address,omitempty"`
	PlaceID     string  `json:"placeId,omitempty"`

	PlannedArrival    time.Time  `json:"plannedArrival"`
	PlannedDeparture  *time.Time `json:"plannedDeparture,omitempty"`
	EstimatedDuration int        `json:"estimatedDuration"` // minutes
	ActualArrival     *time.Time `json:"actualArrival,omitempty"`
	ActualDeparture   *time.Time `json:"actualDeparture,omitempty"`

	StopType StopType `json:"stopType"`
	Priority Priority `json:"priority"`
	Cost     *float64 `json:"cost,omitempty"`
	Notes    string   `json:"notes,omitempty"`
	Photos   []string `json:"photos,omitempty"`

	Order int `json:"order"`

	IsCompleted bool `json:"isCompleted"`
	IsSkipped   bool `json:"isSkipped"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Position returns the stop coordinate.
func (s *Stop) Position() LatLng {
	return LatLng{Lat: s.Lat, Lng: s.Lng}
}

// Departure returns the planned departure, deriving it from the arrival and
// the estimated duration when the server did not send one.
func (s *Stop) Departure() time.Time {
	if s.PlannedDeparture != nil {
		return *s.PlannedDeparture
	}
	return s.PlannedArrival.Add(time.Duration(s.EstimatedDuration) * time.Minute)
}

// Complete marks the stop as visited at the given time. A skipped stop cannot
// be completed; it must be reopened first. Completing twice keeps the first
// arrival time.
func (s *Stop) Complete(at time.Time) error {
	if s.IsSkipped {
		return ErrInvalidTransition
	}
	if s.IsCompleted {
		return nil
	}
	s.IsCompleted = true
	if s.ActualArrival == nil {
		s.ActualArrival = &at
	}
	s.UpdatedAt = at
	return nil
}

// Skip marks the stop as intentionally not visited. A completed stop cannot be
// skipped.
func (s *Stop) Skip(at time.Time) error {
	if s.IsCompleted {
		return ErrInvalidTransition
	}
	s.IsSkipped = true
	s.UpdatedAt = at
	return nil
}

// Reopen clears the completed and skipped flags and the actual times.
// Idempotent.
func (s *Stop) Reopen(at time.Time) {
	s.IsCompleted = false
	s.IsSkipped = false
	s.ActualArrival = nil
	s.ActualDeparture = nil
	s.UpdatedAt = at
}

// SortStops orders stops by their Order field, breaking ties by ID.
func SortStops(stops []Stop) {
	slices.SortStableFunc(stops, func(a, b Stop) int {
		if a.Order != b.Order {
			return a.Order - b.Order
		}
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
}

// ValidateOrder checks that the Order values of stops are exactly 0..n-1 in
// some arrangement. Returns ErrInvalidOrder otherwise.
func ValidateOrder(stops []Stop) error {
	seen := make([]bool, len(stops))
	for _, s := range stops {
		if s.Order < 0 || s.Order >= len(stops) || seen[s.Order] {
			return ErrInvalidOrder
		}
		seen[s.Order] = true
	}
	return nil
}

// StopIDs returns the ids of stops in their sequence order.
func StopIDs(stops []Stop) []int64 {
	sorted := slices.Clone(stops)
	SortStops(sorted)
	ids := make([]int64, len(sorted))
	for i, s := range sorted {
		ids[i] = s.ID
	}
	return ids
}

// MoveStop returns the stop id sequence after moving stopID by delta
// positions, clamped to the ends of the sequence. The second result is false
// when stopID is not present or the move would not change the order.
func MoveStop(stops []Stop, stopID int64, delta int) ([]int64, bool) {
	ids := StopIDs(stops)
	from := slices.Index(ids, stopID)
	if from < 0 {
		return ids, false
	}
	to := min(max(from+delta, 0), len(ids)-1)
	if to == from {
		return ids, false
	}
	ids = slices.Delete(ids, from, from+1)
	ids = slices.Insert(ids, to, stopID)
	return ids, true
}
