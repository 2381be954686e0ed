// Package routing computes the path drawn between two consecutive stops.
// StraightLine needs no network; OSRM asks an OSRM-compatible HTTP service.
package routing

import (
	"context"
	"errors"
	"time"

	"github.com/harrysoftwarecorp/route-nest/internal/geo"
	"github.com/harrysoftwarecorp/route-nest/pkg/types"
)

// ErrNoRoute is returned when the engine finds no path between the points.
var ErrNoRoute = errors.New("no route found")

// Result is one routed leg.
type Result struct {
	Path     []types.LatLng
	Distance float64 // meters
	Duration time.Duration
}

// Router resolves the path between two points.
type Router interface {
	Route(ctx context.Context, from, to types.LatLng) (Result, error)
}

// speedsKmh are the average travel speeds used for straight-line estimates.
var speedsKmh = map[types.TransportMode]float64{
	types.ModeWalking:         5,
	types.ModeCycling:         15,
	types.ModeMotorcycle:      35,
	types.ModeCar:             40,
	types.ModePublicTransport: 25,
	types.ModeBoat:            20,
	types.ModeFlight:          700,
}

// Speed returns the average speed for mode in km/h. Unknown modes travel at
// car speed.
func Speed(mode types.TransportMode) float64 {
	if s, ok := speedsKmh[mode]; ok {
		return s
	}
	return speedsKmh[types.ModeCar]
}

// EstimateDuration returns how long meters take at the mode's average speed.
func EstimateDuration(meters float64, mode types.TransportMode) time.Duration {
	hours := meters / 1000 / Speed(mode)
	return time.Duration(hours * float64(time.Hour)).Round(time.Second)
}

// StraightLine joins the points with a great-circle segment.
type StraightLine struct {
	Mode types.TransportMode
	// Steps densifies the segment; 0 or 1 gives just the two end points.
	Steps int
}

// Route never fails except on a cancelled context.
func (s StraightLine) Route(ctx context.Context, from, to types.LatLng) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	d := geo.Distance(from, to)
	return Result{
		Path:     geo.Interpolate(from, to, s.Steps),
		Distance: d,
		Duration: EstimateDuration(d, s.Mode),
	}, nil
}
