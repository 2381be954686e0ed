package types

import "time"

// Coordinate is a [lng, lat] pair as carried in route geometry.
type Coordinate [2]float64

// Lng returns the longitude.
func (c Coordinate) Lng() float64 { return c[0] }

// Lat returns the latitude.
func (c Coordinate) Lat() float64 { return c[1] }

// LatLng converts the pair into a LatLng.
func (c Coordinate) LatLng() LatLng { return LatLng{Lat: c[1], Lng: c[0]} }

// CoordinateOf builds a route coordinate from a LatLng.
func CoordinateOf(p LatLng) Coordinate { return Coordinate{p.Lng, p.Lat} }

// RouteInstruction is one turn-by-turn step of a route segment.
type RouteInstruction struct {
	Instruction string     `json:"instruction"`
	Distance    float64    `json:"distance"`
	Duration    float64    `json:"duration"`
	Coordinates Coordinate `json:"coordinates"`
}

// RouteSegment is the path between two consecutive stops.
type RouteSegment struct {
	ID                string             `json:"id"`
	FromStopID        int64              `json:"fromStopId"`
	ToStopID          int64              `json:"toStopId"`
	Coordinates       []Coordinate       `json:"coordinates"`
	Distance          float64            `json:"distance"`          // meters
	EstimatedDuration float64            `json:"estimatedDuration"` // seconds
	TransportMode     TransportMode      `json:"transportMode"`
	Instructions      []RouteInstruction `json:"instructions,omitempty"`
	CreatedAt         time.Time          `json:"createdAt"`
}

// Path returns the segment geometry as LatLng points.
func (r *RouteSegment) Path() []LatLng {
	out := make([]LatLng, len(r.Coordinates))
	for i, c := range r.Coordinates {
		out[i] = c.LatLng()
	}
	return out
}
