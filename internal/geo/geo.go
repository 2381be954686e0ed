// Package geo holds the spherical geometry shared by the map view, the
// routing engines and the mock API.
package geo

import (
	"github.com/golang/geo/s2"

	"github.com/harrysoftwarecorp/route-nest/pkg/types"
)

// EarthRadiusMeters is the mean Earth radius.
const EarthRadiusMeters = 6371010.0

// DefaultCenter is where the map opens when a trip has no stops: central Ho
// Chi Minh City.
var DefaultCenter = types.LatLng{Lat: 10.7769, Lng: 106.7009}

// DefaultLocationName labels DefaultCenter.
const DefaultLocationName = "Ho Chi Minh City, Vietnam"

func toS2(p types.LatLng) s2.LatLng {
	return s2.LatLngFromDegrees(p.Lat, p.Lng)
}

func fromS2(ll s2.LatLng) types.LatLng {
	return types.LatLng{Lat: ll.Lat.Degrees(), Lng: ll.Lng.Degrees()}
}

// Distance returns the great-circle distance between a and b in meters.
func Distance(a, b types.LatLng) float64 {
	return toS2(a).Distance(toS2(b)).Radians() * EarthRadiusMeters
}

// PathLength sums the distances between consecutive points.
func PathLength(points []types.LatLng) float64 {
	var total float64
	for i := 1; i < len(points); i++ {
		total += Distance(points[i-1], points[i])
	}
	return total
}

// Bounds is a latitude/longitude bounding box.
type Bounds struct {
	SouthWest types.LatLng
	NorthEast types.LatLng
}

// Center returns the middle of the box.
func (b Bounds) Center() types.LatLng {
	return types.LatLng{
		Lat: (b.SouthWest.Lat + b.NorthEast.Lat) / 2,
		Lng: (b.SouthWest.Lng + b.NorthEast.Lng) / 2,
	}
}

// Contains reports whether p lies inside the box.
func (b Bounds) Contains(p types.LatLng) bool {
	return p.Lat >= b.SouthWest.Lat && p.Lat <= b.NorthEast.Lat &&
		p.Lng >= b.SouthWest.Lng && p.Lng <= b.NorthEast.Lng
}

// BoundsOf returns the smallest box containing every point. The second
// result is false for an empty slice.
func BoundsOf(points []types.LatLng) (Bounds, bool) {
	if len(points) == 0 {
		return Bounds{}, false
	}
	rect := s2.EmptyRect()
	for _, p := range points {
		rect = rect.AddPoint(toS2(p))
	}
	return Bounds{SouthWest: fromS2(rect.Lo()), NorthEast: fromS2(rect.Hi())}, true
}

// Centroid returns the mean position of points on the sphere. The second
// result is false for an empty slice.
func Centroid(points []types.LatLng) (types.LatLng, bool) {
	if len(points) == 0 {
		return types.LatLng{}, false
	}
	var sum s2.Point
	for _, p := range points {
		sum = s2.Point{Vector: sum.Add(s2.PointFromLatLng(toS2(p)).Vector)}
	}
	if sum.Norm() == 0 {
		return points[0], true
	}
	return fromS2(s2.LatLngFromPoint(s2.Point{Vector: sum.Normalize()})), true
}

// Interpolate returns n+1 points along the great circle from a to b,
// including both ends. n below 1 is treated as 1.
func Interpolate(a, b types.LatLng, n int) []types.LatLng {
	n = max(n, 1)
	pa, pb := s2.PointFromLatLng(toS2(a)), s2.PointFromLatLng(toS2(b))
	out := make([]types.LatLng, 0, n+1)
	out = append(out, a)
	for i := 1; i < n; i++ {
		out = append(out, fromS2(s2.LatLngFromPoint(s2.Interpolate(float64(i)/float64(n), pa, pb))))
	}
	return append(out, b)
}

// StopPositions returns the positions of stops in the given order.
func StopPositions(stops []types.Stop) []types.LatLng {
	out := make([]types.LatLng, len(stops))
	for i := range stops {
		out[i] = stops[i].Position()
	}
	return out
}
