package types

import (
	"slices"
	"time"
)

// Trip is an ordered collection of stops plus metadata, owned by a user.
type Trip struct {
	ID          string `json:"_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	UserID      string `json:"userId"`

	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
	StartDate         *time.Time `json:"startDate,omitempty"`
	EndDate           *time.Time `json:"endDate,omitempty"`
	EstimatedDuration int        `json:"estimatedDuration"` // days

	IsPublic   bool `json:"isPublic"`
	IsTemplate bool `json:"isTemplate"`

	Stops  []Stop         `json:"stops"`
	Routes []RouteSegment `json:"routes"`
	Stats  TripStats      `json:"stats"`

	Tags     []string     `json:"tags"`
	Category TripCategory `json:"category"`

	SharedWith []string   `json:"sharedWith"`
	Visibility Visibility `json:"visibility"`

	Rating      *float64 `json:"rating,omitempty"`
	ReviewCount int      `json:"reviewCount,omitempty"`
}

// TripStats holds the aggregate figures the server derives for a trip.
type TripStats struct {
	TotalDistance       float64         `json:"totalDistance"`     // meters
	EstimatedDuration   int             `json:"estimatedDuration"` // minutes
	StopCount           int             `json:"stopCount"`
	AverageStopDuration float64         `json:"averageStopDuration"` // minutes
	TransportModes      []TransportMode `json:"transportModes"`
	EstimatedCost       *float64        `json:"estimatedCost,omitempty"`
	DifficultyLevel     Difficulty      `json:"difficultyLevel"`
}

// SummaryStats is the subset of TripStats carried by a TripSummary.
type SummaryStats struct {
	TotalDistance float64  `json:"totalDistance"`
	EstimatedCost *float64 `json:"estimatedCost,omitempty"`
}

// TripSummary is the lightweight projection of a trip used by listings.
type TripSummary struct {
	ID                string       `json:"_id"`
	Name              string       `json:"name"`
	EstimatedDuration int          `json:"estimatedDuration"`
	CreatedAt         time.Time    `json:"createdAt"`
	StopCount         int          `json:"stopCount"`
	Category          TripCategory `json:"category"`
	Tags              []string     `json:"tags"`
	Stats             SummaryStats `json:"stats"`
	Thumbnail         string       `json:"thumbnail,omitempty"`
	IsPublic          bool         `json:"isPublic"`
	Rating            *float64     `json:"rating,omitempty"`
}

// Progress counts how far a trip has been travelled.
type Progress struct {
	CompletedStops  int     `json:"completedStops"`
	TotalStops      int     `json:"totalStops"`
	PercentComplete float64 `json:"percentComplete"`
}

// Summary projects the trip into a listing row.
func (t *Trip) Summary() TripSummary {
	return TripSummary{
		ID:                t.ID,
		Name:              t.Name,
		EstimatedDuration: t.EstimatedDuration,
		CreatedAt:         t.CreatedAt,
		StopCount:         len(t.Stops),
		Category:          t.Category,
		Tags:              t.Tags,
		Stats: SummaryStats{
			TotalDistance: t.Stats.TotalDistance,
			EstimatedCost: t.Stats.EstimatedCost,
		},
		IsPublic: t.IsPublic,
		Rating:   t.Rating,
	}
}

// OrderedStops returns a copy of the stops sorted by sequence order.
func (t *Trip) OrderedStops() []Stop {
	stops := slices.Clone(t.Stops)
	SortStops(stops)
	return stops
}

// Stop returns the stop with the given id.
func (t *Trip) Stop(id int64) (*Stop, bool) {
	for i := range t.Stops {
		if t.Stops[i].ID == id {
			return &t.Stops[i], true
		}
	}
	return nil, false
}

// Progress reports completed and total stops. Skipped stops count toward the
// total but not toward completion.
func (t *Trip) Progress() Progress {
	p := Progress{TotalStops: len(t.Stops)}
	for _, s := range t.Stops {
		if s.IsCompleted {
			p.CompletedStops++
		}
	}
	if p.TotalStops > 0 {
		p.PercentComplete = float64(p.CompletedStops) * 100 / float64(p.TotalStops)
	}
	return p
}

// NextStop returns the first stop in sequence order that is neither completed
// nor skipped.
func (t *Trip) NextStop() (Stop, bool) {
	for _, s := range t.OrderedStops() {
		if !s.IsCompleted && !s.IsSkipped {
			return s, true
		}
	}
	return Stop{}, false
}

// Route returns the stored segment from one stop to another.
func (t *Trip) Route(from, to int64) (RouteSegment, bool) {
	for _, r := range t.Routes {
		if r.FromStopID == from && r.ToStopID == to {
			return r, true
		}
	}
	return RouteSegment{}, false
}

// SortSummariesNewestFirst orders summaries by creation time, newest first.
// Equal timestamps keep their relative order.
func SortSummariesNewestFirst(trips []TripSummary) {
	slices.SortStableFunc(trips, func(a, b TripSummary) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
}
