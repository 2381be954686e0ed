package mapview

import (
	"context"
	"log/slog"
	"strconv"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/harrysoftwarecorp/route-nest/internal/geo"
	"github.com/harrysoftwarecorp/route-nest/internal/logging"
	"github.com/harrysoftwarecorp/route-nest/internal/routing"
	"github.com/harrysoftwarecorp/route-nest/pkg/types"
)

// Defaults for Options.
const (
	DefaultFocusZoom   = 16
	DefaultFitPadding  = 40
	DefaultConcurrency = 4
)

// Options configures an Adapter.
type Options struct {
	// Router resolves lines between stops that have no stored route. Nil
	// draws straight segments.
	Router routing.Router
	// OnClick receives map clicks. When nil the adapter ignores clicks and
	// never places a pending marker.
	OnClick func(types.LatLng)
	// OnReady is called once New has taken ownership of the widget.
	OnReady func(Controls)

	FocusZoom   int
	FitPadding  int
	Concurrency int
	Logger      *slog.Logger
}

// Segment is the resolved line between two consecutive stops.
type Segment struct {
	FromStopID int64
	ToStopID   int64
	Path       []types.LatLng
	Kind       LineKind
}

// Adapter owns one Widget. It is safe for concurrent use.
type Adapter struct {
	mu       sync.Mutex
	w        Widget
	opts     Options
	logger   *slog.Logger
	markers  []Handle
	lines    []Handle
	pending  *Handle
	points   []types.LatLng
	disposed bool
}

// New takes ownership of w, registers the click handler when one is
// configured and announces the controls through OnReady.
func New(w Widget, opts Options) *Adapter {
	if opts.FocusZoom <= 0 {
		opts.FocusZoom = DefaultFocusZoom
	}
	if opts.FitPadding <= 0 {
		opts.FitPadding = DefaultFitPadding
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	a := &Adapter{w: w, opts: opts, logger: logging.Or(opts.Logger)}
	if opts.OnClick != nil {
		w.OnClick(a.HandleClick)
	}
	if opts.OnReady != nil {
		opts.OnReady(a)
	}
	return a
}

// Resolve works out the line for every adjacent pair of stops, in sequence
// order. A stored route with geometry wins; otherwise the router is asked,
// and a router failure falls back to a straight segment. Only a cancelled
// context makes Resolve fail.
func (a *Adapter) Resolve(ctx context.Context, stops []types.Stop, routes []types.RouteSegment) ([]Segment, error) {
	ordered := sortedStops(stops)
	if len(ordered) < 2 {
		return nil, ctx.Err()
	}
	segs := make([]Segment, len(ordered)-1)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.opts.Concurrency)
	for i := range segs {
		from, to := ordered[i], ordered[i+1]
		segs[i] = Segment{
			FromStopID: from.ID,
			ToStopID:   to.ID,
			Path:       []types.LatLng{from.Position(), to.Position()},
			Kind:       LineStraight,
		}
		if r, ok := storedRoute(routes, from.ID, to.ID); ok {
			segs[i].Path = r.Path()
			segs[i].Kind = LineStored
			continue
		}
		if a.opts.Router == nil {
			continue
		}
		g.Go(func() error {
			res, err := a.opts.Router.Route(gctx, from.Position(), to.Position())
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				a.logger.Warn("failed to route segment, drawing straight line",
					slog.Int64("from_stop", from.ID),
					slog.Int64("to_stop", to.ID),
					slog.Any("error", err))
				return nil
			}
			if len(res.Path) >= 2 {
				segs[i].Path = res.Path
				segs[i].Kind = LineRouted
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return segs, nil
}

func storedRoute(routes []types.RouteSegment, from, to int64) (types.RouteSegment, bool) {
	for _, r := range routes {
		if r.FromStopID == from && r.ToStopID == to && len(r.Coordinates) >= 2 {
			return r, true
		}
	}
	return types.RouteSegment{}, false
}

func sortedStops(stops []types.Stop) []types.Stop {
	out := make([]types.Stop, len(stops))
	copy(out, stops)
	types.SortStops(out)
	return out
}

// Draw replaces every marker and line with one numbered marker per stop and
// the given segments. Completed stops get the completed marker.
func (a *Adapter) Draw(stops []types.Stop, segs []Segment) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.disposed {
		return
	}
	a.clearLocked()

	ordered := sortedStops(stops)
	a.points = geo.StopPositions(ordered)
	for i, s := range ordered {
		kind := MarkerStop
		if s.IsCompleted {
			kind = MarkerCompleted
		}
		a.markers = append(a.markers, a.w.AddMarker(Marker{
			Position: s.Position(),
			Label:    strconv.Itoa(i + 1),
			Title:    s.Name,
			Kind:     kind,
		}))
	}
	for _, seg := range segs {
		a.lines = append(a.lines, a.w.AddLine(seg.Path, seg.Kind))
	}
}

// Render resolves and draws in one step.
func (a *Adapter) Render(ctx context.Context, stops []types.Stop, routes []types.RouteSegment) error {
	segs, err := a.Resolve(ctx, stops, routes)
	if err != nil {
		return err
	}
	a.Draw(stops, segs)
	return nil
}

func (a *Adapter) clearLocked() {
	for _, h := range a.markers {
		a.w.RemoveMarker(h)
	}
	for _, h := range a.lines {
		a.w.RemoveLine(h)
	}
	a.markers, a.lines, a.points = nil, nil, nil
}

// FocusStop pans and zooms to a point with animation.
func (a *Adapter) FocusStop(lat, lng float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.disposed {
		return
	}
	a.w.SetView(types.LatLng{Lat: lat, Lng: lng}, a.opts.FocusZoom, true)
}

// FocusAllStops fits the viewport to the drawn stops. With no stops it
// leaves the viewport unchanged.
func (a *Adapter) FocusAllStops() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.disposed {
		return
	}
	b, ok := geo.BoundsOf(a.points)
	if !ok {
		return
	}
	a.w.FitBounds(b, a.opts.FitPadding)
}

// HandleClick places the single pending marker at p, replacing any earlier
// one, and reports p to OnClick.
func (a *Adapter) HandleClick(p types.LatLng) {
	a.mu.Lock()
	if a.disposed || a.opts.OnClick == nil {
		a.mu.Unlock()
		return
	}
	if a.pending != nil {
		a.w.RemoveMarker(*a.pending)
	}
	h := a.w.AddMarker(Marker{Position: p, Label: "+", Title: "New stop", Kind: MarkerPending})
	a.pending = &h
	onClick := a.opts.OnClick
	a.mu.Unlock()

	onClick(p)
}

// ClearPending removes the pending marker, if any.
func (a *Adapter) ClearPending() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.pending != nil && !a.disposed {
		a.w.RemoveMarker(*a.pending)
	}
	a.pending = nil
}

// MarkerCount returns the number of stop markers drawn.
func (a *Adapter) MarkerCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.markers)
}

// Dispose removes every marker, line and the pending marker and unregisters
// the click handler. Later calls, and every other method, become no-ops.
func (a *Adapter) Dispose() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.disposed {
		return
	}
	a.clearLocked()
	if a.pending != nil {
		a.w.RemoveMarker(*a.pending)
		a.pending = nil
	}
	if a.opts.OnClick != nil {
		a.w.OnClick(nil)
	}
	a.disposed = true
}
