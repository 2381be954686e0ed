package tripdetail

import (
	"fmt"

	"github.com/harrysoftwarecorp/route-nest/internal/geo"
	"github.com/harrysoftwarecorp/route-nest/pkg/types"
)

// Sheet is the summary line block shown above the stop list.
type Sheet struct {
	Location string
	Distance string
	Duration string
	Progress types.Progress
	Next     *types.Stop
}

// SheetFor summarizes trip for the bottom sheet. Distance is measured from
// the stop centroid to from, normally geo.DefaultCenter.
func SheetFor(trip *types.Trip, from types.LatLng) Sheet {
	if trip == nil || len(trip.Stops) == 0 {
		return Sheet{
			Location: geo.DefaultLocationName,
			Distance: "Ready to explore",
			Duration: "Plan your adventure",
		}
	}
	stops := trip.OrderedStops()
	s := Sheet{
		Location: stops[0].Address,
		Duration: "Flexible timing",
		Progress: trip.Progress(),
	}
	if s.Location == "" {
		s.Location = geo.DefaultLocationName
	}
	if c, ok := geo.Centroid(geo.StopPositions(stops)); ok {
		s.Distance = fmt.Sprintf("%.1f km from you", geo.Distance(from, c)/1000)
	}
	if m := trip.Stats.EstimatedDuration; m > 0 {
		s.Duration = fmt.Sprintf("%dh %dm", m/60, m%60)
	}
	if next, ok := trip.NextStop(); ok {
		s.Next = &next
	}
	return s
}
