// Package tripdetail holds the state of the trip detail screen: the loaded
// trip, panel and selection state, the stop dialog and every trip mutation.
// It drives the map through mapview.Controls and never renders anything.
package tripdetail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/harrysoftwarecorp/route-nest/internal/clock"
	"github.com/harrysoftwarecorp/route-nest/internal/logging"
	"github.com/harrysoftwarecorp/route-nest/internal/mapview"
	"github.com/harrysoftwarecorp/route-nest/internal/stopform"
	"github.com/harrysoftwarecorp/route-nest/internal/viewstate"
	"github.com/harrysoftwarecorp/route-nest/pkg/types"
)

// Controller errors.
var (
	ErrBusy       = errors.New("another change is still in progress")
	ErrNotLoaded  = errors.New("trip is not loaded")
	ErrSuperseded = errors.New("load superseded")
	ErrNoStop     = errors.New("stop not found in trip")

	ErrClipboardUnsupported = errors.New("clipboard is not available")
)

// DefaultNarrowWidth is the viewport width, in columns, below which
// selecting a stop collapses the panel.
const DefaultNarrowWidth = 100

// API is the subset of the RouteNest client the controller needs.
type API interface {
	GetTrip(ctx context.Context, id string) (*types.Trip, error)
	AddStop(ctx context.Context, tripID string, req types.AddStopRequest) (*types.Trip, error)
	UpdateStop(ctx context.Context, tripID string, req types.UpdateStopRequest) (*types.Trip, error)
	DeleteStop(ctx context.Context, tripID string, stopID int64) (*types.Trip, error)
	ReorderStops(ctx context.Context, tripID string, stopIDs []int64) (*types.Trip, error)
	SetStopStatus(ctx context.Context, tripID string, stopID int64, req types.StopStatusRequest) (*types.Trip, error)
	GenerateRoutes(ctx context.Context, tripID string, req types.GenerateRoutesRequest) (*types.Trip, error)
	OptimizeRoute(ctx context.Context, tripID string) (*types.Trip, error)
	CreateShareLink(ctx context.Context, tripID string) (*types.ShareLink, error)
	AddTripToItinerary(ctx context.Context, itineraryID, tripID string) (*types.Itinerary, error)
}

// Options configures a Controller.
type Options struct {
	API       API
	Clipboard Clipboard
	Clock     clock.Clock
	Logger    *slog.Logger
	// NarrowWidth overrides DefaultNarrowWidth. Negative disables collapsing.
	NarrowWidth int
}

// State is a snapshot of the controller.
type State struct {
	Status    viewstate.Status
	Trip      *types.Trip
	Expanded  bool
	Selected  int64 // 0 when no stop is selected
	Clicked   *types.LatLng
	Dialog    bool
	EditingID int64
	Pending   bool
	ShareURL  string
	Err       error
}

// Controller is safe for concurrent use.
type Controller struct {
	api    API
	clip   Clipboard
	clock  clock.Clock
	logger *slog.Logger
	narrow int
	form   *stopform.Form
	load   viewstate.Machine

	mu       sync.Mutex
	tripID   string
	trip     *types.Trip
	expanded bool
	selected int64
	clicked  *types.LatLng
	pending  bool
	shareURL string
	err      error
	width    int
	controls mapview.Controls
}

// New returns an idle controller. Options.API is required.
func New(opts Options) *Controller {
	narrow := opts.NarrowWidth
	if narrow == 0 {
		narrow = DefaultNarrowWidth
	}
	clip := opts.Clipboard
	if clip == nil {
		clip = SystemClipboard{}
	}
	c := clock.Or(opts.Clock)
	return &Controller{
		api:    opts.API,
		clip:   clip,
		clock:  c,
		logger: logging.Or(opts.Logger),
		narrow: narrow,
		form:   stopform.New(stopform.Options{Clock: c}),
	}
}

// Form returns the stop dialog form.
func (c *Controller) Form() *stopform.Form { return c.form }

// AttachMap stores the map controls announced by the map adapter. Pass nil
// when the map is disposed.
func (c *Controller) AttachMap(ctl mapview.Controls) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.controls = ctl
}

// Load fetches trip id and makes it the current trip. A later Load or Leave
// cancels this one, which then returns ErrSuperseded without touching state.
func (c *Controller) Load(ctx context.Context, id string) error {
	lctx, ticket := c.load.Begin(ctx)

	c.mu.Lock()
	if id != c.tripID {
		c.resetLocked()
	}
	c.tripID = id
	c.err = nil
	c.mu.Unlock()

	trip, err := c.api.GetTrip(lctx, id)

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.load.Finish(ticket, err) {
		return ErrSuperseded
	}
	if err != nil {
		c.trip = nil
		c.err = err
		logging.LogError(c.logger, "failed to load trip", err, slog.String("trip_id", id))
		return fmt.Errorf("load trip: %w", err)
	}
	c.trip = trip
	return nil
}

// Leave abandons the current trip, cancelling any load in flight.
func (c *Controller) Leave() {
	c.load.Reset()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()
	c.tripID = ""
	c.err = nil
}

func (c *Controller) resetLocked() {
	c.trip = nil
	c.expanded = false
	c.selected = 0
	c.clicked = nil
	c.shareURL = ""
	c.form.Close()
}

// State returns a snapshot. The trip is a deep copy.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	v := c.form.Values()
	s := State{
		Status:    c.load.Status(),
		Expanded:  c.expanded,
		Selected:  c.selected,
		Dialog:    v.Open,
		EditingID: v.EditingID,
		Pending:   c.pending,
		ShareURL:  c.shareURL,
		Err:       c.err,
	}
	if c.trip != nil {
		s.Trip = cloneTrip(c.trip)
	}
	if c.clicked != nil {
		p := *c.clicked
		s.Clicked = &p
	}
	return s
}

// Trip returns a copy of the current trip, or nil.
func (c *Controller) Trip() *types.Trip {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.trip == nil {
		return nil
	}
	return cloneTrip(c.trip)
}

func cloneTrip(t *types.Trip) *types.Trip {
	cp := *t
	cp.Stops = append([]types.Stop(nil), t.Stops...)
	cp.Routes = append([]types.RouteSegment(nil), t.Routes...)
	cp.Tags = append([]string(nil), t.Tags...)
	cp.SharedWith = append([]string(nil), t.SharedWith...)
	return &cp
}

// ToggleExpanded flips the panel between collapsed and expanded.
func (c *Controller) ToggleExpanded() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.expanded = !c.expanded
}

// SetViewportWidth records the viewport width in columns.
func (c *Controller) SetViewportWidth(cols int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.width = cols
}

// Narrow reports whether the viewport is below the collapse threshold.
func (c *Controller) Narrow() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.narrowLocked()
}

func (c *Controller) narrowLocked() bool {
	return c.narrow > 0 && c.width > 0 && c.width < c.narrow
}

// SelectStop selects a stop, focuses the map on it and, on a narrow
// viewport, collapses the panel so the map is visible.
func (c *Controller) SelectStop(id int64) error {
	c.mu.Lock()
	if c.trip == nil {
		c.mu.Unlock()
		return ErrNotLoaded
	}
	s, ok := c.trip.Stop(id)
	if !ok {
		c.mu.Unlock()
		return ErrNoStop
	}
	c.selected = id
	if c.narrowLocked() {
		c.expanded = false
	}
	ctl := c.controls
	lat, lng := s.Lat, s.Lng
	c.mu.Unlock()

	if ctl != nil {
		ctl.FocusStop(lat, lng)
	}
	return nil
}

// ClearSelection deselects the selected stop.
func (c *Controller) ClearSelection() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selected = 0
}

// ViewAllStops fits the map to every stop.
func (c *Controller) ViewAllStops() {
	c.mu.Lock()
	ctl := c.controls
	c.mu.Unlock()
	if ctl != nil {
		ctl.FocusAllStops()
	}
}

// MapClicked opens the stop dialog prefilled with the clicked coordinates.
func (c *Controller) MapClicked(lat, lng float64) {
	p := types.LatLng{Lat: lat, Lng: lng}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clicked = &p
	c.form.SetOpen(true, &p)
}

// OpenAddStop opens an empty stop dialog.
func (c *Controller) OpenAddStop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clicked = nil
	c.form.Open(nil)
}

// OpenEditStop opens the dialog holding an existing stop.
func (c *Controller) OpenEditStop(id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.trip == nil {
		return ErrNotLoaded
	}
	s, ok := c.trip.Stop(id)
	if !ok {
		return ErrNoStop
	}
	c.clicked = nil
	c.form.OpenEdit(*s)
	return nil
}

// CloseDialog closes the stop dialog, resets the form and forgets the
// clicked coordinates.
func (c *Controller) CloseDialog() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clicked = nil
	c.form.Close()
}
