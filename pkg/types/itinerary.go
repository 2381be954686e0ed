package types

import "time"

// Itinerary strings several trips together into one plan.
type Itinerary struct {
	ID          string `json:"_id"`
	UserID      string `json:"userId"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`

	TripIDs     []string `json:"tripIds"`
	CustomStops []Stop   `json:"customStops"`

	StartDate     time.Time `json:"startDate"`
	EndDate       time.Time `json:"endDate"`
	TotalDuration int       `json:"totalDuration"` // days

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	IsActive  bool      `json:"isActive"`

	IsPublic   bool     `json:"isPublic"`
	SharedWith []string `json:"sharedWith"`

	CompletedTripIDs []string `json:"completedTripIds"`
	CurrentTripID    string   `json:"currentTripId,omitempty"`

	Tags []string `json:"tags"`
}

// HasTrip reports whether the itinerary already contains tripID.
func (it *Itinerary) HasTrip(tripID string) bool {
	for _, id := range it.TripIDs {
		if id == tripID {
			return true
		}
	}
	return false
}
