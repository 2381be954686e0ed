// Package places looks up named locations for the map search box. The
// Nominatim searcher queries an OpenStreetMap Nominatim server.
package places

import (
	"context"
	"errors"

	"github.com/harrysoftwarecorp/route-nest/internal/geo"
	"github.com/harrysoftwarecorp/route-nest/pkg/types"
)

// ErrEmptyQuery is returned for a blank search text.
var ErrEmptyQuery = errors.New("place search needs a query")

// DefaultLimit caps results when Query.Limit is zero.
const DefaultLimit = 5

// Query is one search.
type Query struct {
	Text  string
	Limit int
	// Near, when set, biases results towards the point and fills
	// Place.Distance.
	Near *types.LatLng
}

// Place is one search result.
type Place struct {
	Name  string  `json:"name"`
	Label string  `json:"label"`
	Kind  string  `json:"kind,omitempty"`
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
	// Bounds is the area the place covers, when the server reports one.
	Bounds *geo.Bounds `json:"bounds,omitempty"`
	// Distance from Query.Near in meters, or 0.
	Distance float64 `json:"distance,omitempty"`
}

// Position returns the coordinate of the place.
func (p Place) Position() types.LatLng {
	return types.LatLng{Lat: p.Lat, Lng: p.Lng}
}

// Searcher finds places by free text.
type Searcher interface {
	Search(ctx context.Context, q Query) ([]Place, error)
}
