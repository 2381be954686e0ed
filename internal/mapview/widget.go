// Package mapview draws a trip's stops and the lines between them on a map
// widget and exposes the focus controls the detail view drives.
//
// An Adapter takes exclusive ownership of one Widget for the lifetime of a
// mounted view. Every Render removes what the previous one drew and rebuilds
// it; Dispose removes everything and releases the widget.
package mapview

import (
	"github.com/harrysoftwarecorp/route-nest/internal/geo"
	"github.com/harrysoftwarecorp/route-nest/pkg/types"
)

// MarkerKind selects how a marker is drawn.
type MarkerKind int

// Marker kinds.
const (
	MarkerStop MarkerKind = iota
	MarkerCompleted
	MarkerPending
)

// Marker is a labelled point on the map.
type Marker struct {
	Position types.LatLng
	Label    string
	Title    string
	Kind     MarkerKind
}

// LineKind records where a line's geometry came from.
type LineKind int

// Line kinds.
const (
	LineStraight LineKind = iota
	LineStored
	LineRouted
)

// Handle identifies something added to a widget.
type Handle int

// Widget is the imperative map surface an Adapter drives. Implementations
// need not be safe for concurrent use; the owning Adapter serializes calls.
type Widget interface {
	AddMarker(m Marker) Handle
	RemoveMarker(h Handle)
	AddLine(path []types.LatLng, kind LineKind) Handle
	RemoveLine(h Handle)
	// SetView centres the map on p at zoom.
	SetView(p types.LatLng, zoom int, animate bool)
	// FitBounds shows all of b, keeping paddingPx free at every edge.
	FitBounds(b geo.Bounds, paddingPx int)
	// OnClick registers the click handler; nil unregisters it.
	OnClick(fn func(types.LatLng))
}

// Controls are the imperative operations a parent view may call once the
// map is ready.
type Controls interface {
	FocusStop(lat, lng float64)
	FocusAllStops()
}
