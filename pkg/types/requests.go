package types

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

// CreateTripRequest is the body of POST /api/trips.
type CreateTripRequest struct {
	Name              string       `json:"name"`
	Description       string       `json:"description,omitempty"`
	EstimatedDuration int          `json:"estimatedDuration"`
	Category          TripCategory `json:"category,omitempty"`
	Tags              []string     `json:"tags,omitempty"`
	StartDate         *time.Time   `json:"startDate,omitempty"`
	IsPublic          bool         `json:"isPublic"`
}

// Validate checks the request. An empty category is allowed and defaults to
// custom on the server.
func (r *CreateTripRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrInvalidName
	}
	if r.Category != "" && !r.Category.Valid() {
		return ErrInvalidCategory
	}
	if r.EstimatedDuration < 0 {
		return ErrInvalidDuration
	}
	return nil
}

// UpdateTripRequest is the partial body of PUT /api/trips/:id. Nil fields are
// left unchanged.
type UpdateTripRequest struct {
	Name              *string       `json:"name,omitempty"`
	Description       *string       `json:"description,omitempty"`
	EstimatedDuration *int          `json:"estimatedDuration,omitempty"`
	Category          *TripCategory `json:"category,omitempty"`
	Tags              []string      `json:"tags,omitempty"`
	StartDate         *time.Time    `json:"startDate,omitempty"`
	EndDate           *time.Time    `json:"endDate,omitempty"`
	IsPublic          *bool         `json:"isPublic,omitempty"`
	Visibility        *Visibility   `json:"visibility,omitempty"`
}

// Validate checks the fields that are set.
func (r *UpdateTripRequest) Validate() error {
	if r.Name != nil && strings.TrimSpace(*r.Name) == "" {
		return ErrInvalidName
	}
	if r.Category != nil && !r.Category.Valid() {
		return ErrInvalidCategory
	}
	if r.EstimatedDuration != nil && *r.EstimatedDuration < 0 {
		return ErrInvalidDuration
	}
	if r.Visibility != nil && !r.Visibility.Valid() {
		return ErrInvalidVisibility
	}
	return nil
}

// AddStopRequest is the body of POST /api/trips/:id/stops.
type AddStopRequest struct {
	Name              string    `json:"name"`
	Lat               float64   `json:"lat"`
	Lng               float64   `json:"lng"`
	PlannedArrival    time.Time `json:"plannedArrival"`
	PlannedDeparture  time.Time `json:"plannedDeparture"`
	EstimatedDuration int       `json:"estimatedDuration"`
	StopType          StopType  `json:"stopType"`
	Priority          Priority  `json:"priority"`
	Description       string    `json:"description,omitempty"`
	Cost              *float64  `json:"cost,omitempty"`
	Notes             string    `json:"notes,omitempty"`
}

// Validate checks the request.
func (r *AddStopRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrInvalidName
	}
	if !(LatLng{Lat: r.Lat, Lng: r.Lng}).Valid() {
		return ErrInvalidCoordinates
	}
	if !r.StopType.Valid() {
		return ErrInvalidStopType
	}
	if !r.Priority.Valid() {
		return ErrInvalidPriority
	}
	if r.EstimatedDuration <= 0 {
		return ErrInvalidDuration
	}
	if r.Cost != nil && *r.Cost < 0 {
		return ErrInvalidCost
	}
	return nil
}

// UpdateStopRequest is the partial body of PUT /api/trips/:id/stops/:stopId.
type UpdateStopRequest struct {
	ID                int64      `json:"id"`
	Name              *string    `json:"name,omitempty"`
	Lat               *float64   `json:"lat,omitempty"`
	Lng               *float64   `json:"lng,omitempty"`
	PlannedArrival    *time.Time `json:"plannedArrival,omitempty"`
	PlannedDeparture  *time.Time `json:"plannedDeparture,omitempty"`
	EstimatedDuration *int       `json:"estimatedDuration,omitempty"`
	StopType          *StopType  `json:"stopType,omitempty"`
	Priority          *Priority  `json:"priority,omitempty"`
	Description       *string    `json:"description,omitempty"`
	Cost              *float64   `json:"cost,omitempty"`
	Notes             *string    `json:"notes,omitempty"`
	IsSkipped         *bool      `json:"isSkipped,omitempty"`
}

// Validate checks the fields that are set.
func (r *UpdateStopRequest) Validate() error {
	if r.Name != nil && strings.TrimSpace(*r.Name) == "" {
		return ErrInvalidName
	}
	if (r.Lat == nil) != (r.Lng == nil) {
		return ErrInvalidCoordinates
	}
	if r.Lat != nil && !(LatLng{Lat: *r.Lat, Lng: *r.Lng}).Valid() {
		return ErrInvalidCoordinates
	}
	if r.StopType != nil && !r.StopType.Valid() {
		return ErrInvalidStopType
	}
	if r.Priority != nil && !r.Priority.Valid() {
		return ErrInvalidPriority
	}
	if r.EstimatedDuration != nil && *r.EstimatedDuration <= 0 {
		return ErrInvalidDuration
	}
	if r.Cost != nil && *r.Cost < 0 {
		return ErrInvalidCost
	}
	return nil
}

// UpdateFromAdd turns a full stop form request into a partial update that
// sets every field the form owns.
func UpdateFromAdd(id int64, r AddStopRequest) UpdateStopRequest {
	return UpdateStopRequest{
		ID:                id,
		Name:              &r.Name,
		Lat:               &r.Lat,
		Lng:               &r.Lng,
		PlannedArrival:    &r.PlannedArrival,
		PlannedDeparture:  &r.PlannedDeparture,
		EstimatedDuration: &r.EstimatedDuration,
		StopType:          &r.StopType,
		Priority:          &r.Priority,
		Description:       &r.Description,
		Notes:             &r.Notes,
		Cost:              r.Cost,
	}
}

// ReorderStopsRequest is the body of PUT /api/trips/:id/stops/reorder.
type ReorderStopsRequest struct {
	StopIDs []int64 `json:"stopIds"`
}

// StopStatusRequest is the body of PATCH /api/trips/:id/stops/:stopId/status.
type StopStatusRequest struct {
	IsCompleted   bool       `json:"isCompleted"`
	ActualArrival *time.Time `json:"actualArrival,omitempty"`
}

// GenerateRoutesRequest is the body of POST /api/trips/:id/routes/generate.
type GenerateRoutesRequest struct {
	TransportMode TransportMode `json:"transportMode"`
}

// SearchParams are the query parameters of GET /api/trips/search. Zero values
// are omitted. Radius is in kilometres.
type SearchParams struct {
	Query    string
	Category TripCategory
	Tags     []string
	Lat      *float64
	Lng      *float64
	Radius   float64
}

// Values encodes the params as a URL query.
func (p SearchParams) Values() url.Values {
	v := url.Values{}
	if p.Query != "" {
		v.Set("query", p.Query)
	}
	if p.Category != "" {
		v.Set("category", string(p.Category))
	}
	if len(p.Tags) > 0 {
		v.Set("tags", strings.Join(p.Tags, ","))
	}
	if p.Lat != nil && p.Lng != nil {
		v.Set("lat", strconv.FormatFloat(*p.Lat, 'f', -1, 64))
		v.Set("lng", strconv.FormatFloat(*p.Lng, 'f', -1, 64))
	}
	if p.Radius > 0 {
		v.Set("radius", strconv.FormatFloat(p.Radius, 'f', -1, 64))
	}
	return v
}

// ParseSearchParams decodes a URL query produced by Values.
func ParseSearchParams(v url.Values) (SearchParams, error) {
	p := SearchParams{
		Query:    v.Get("query"),
		Category: TripCategory(v.Get("category")),
	}
	if p.Category != "" && !p.Category.Valid() {
		return p, ErrInvalidCategory
	}
	if tags := v.Get("tags"); tags != "" {
		for _, t := range strings.Split(tags, ",") {
			if t = strings.TrimSpace(t); t != "" {
				p.Tags = append(p.Tags, t)
			}
		}
	}
	if v.Has("lat") || v.Has("lng") {
		lat, err := strconv.ParseFloat(v.Get("lat"), 64)
		if err != nil {
			return p, ErrInvalidCoordinates
		}
		lng, err := strconv.ParseFloat(v.Get("lng"), 64)
		if err != nil {
			return p, ErrInvalidCoordinates
		}
		if !(LatLng{Lat: lat, Lng: lng}).Valid() {
			return p, ErrInvalidCoordinates
		}
		p.Lat, p.Lng = &lat, &lng
	}
	if r := v.Get("radius"); r != "" {
		radius, err := strconv.ParseFloat(r, 64)
		if err != nil || radius < 0 {
			return p, ErrInvalidRequest
		}
		p.Radius = radius
	}
	return p, nil
}

// CreateItineraryRequest is the body of POST /api/itineraries.
type CreateItineraryRequest struct {
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	TripIDs     []string  `json:"tripIds,omitempty"`
	StartDate   time.Time `json:"startDate"`
	EndDate     time.Time `json:"endDate"`
	IsPublic    bool      `json:"isPublic"`
	Tags        []string  `json:"tags,omitempty"`
}

// Validate checks the request.
func (r *CreateItineraryRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrInvalidName
	}
	if !r.EndDate.IsZero() && r.EndDate.Before(r.StartDate) {
		return ErrInvalidDuration
	}
	return nil
}

// AddTripToItineraryRequest is the body of POST /api/itineraries/:id/trips.
type AddTripToItineraryRequest struct {
	TripID string `json:"tripId"`
}

// ShareLink is the response of POST /api/trips/:id/share.
type ShareLink struct {
	URL       string    `json:"url"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}
