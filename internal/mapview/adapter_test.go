package mapview

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrysoftwarecorp/route-nest/internal/geo"
	"github.com/harrysoftwarecorp/route-nest/internal/logging"
	"github.com/harrysoftwarecorp/route-nest/internal/routing"
	"github.com/harrysoftwarecorp/route-nest/pkg/types"
)

// fakeWidget records every call an Adapter makes.
type fakeWidget struct {
	mu             sync.Mutex
	next           Handle
	markers        map[Handle]Marker
	lines          map[Handle][]types.LatLng
	lineKinds      map[Handle]LineKind
	removedMarkers int
	removedLines   int
	views          []types.LatLng
	zooms          []int
	fits           []geo.Bounds
	onClick        func(types.LatLng)
	clickSets      int
}

func newFakeWidget() *fakeWidget {
	return &fakeWidget{
		markers:   map[Handle]Marker{},
		lines:     map[Handle][]types.LatLng{},
		lineKinds: map[Handle]LineKind{},
	}
}

func (f *fakeWidget) AddMarker(m Marker) Handle {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	f.markers[f.next] = m
	return f.next
}

func (f *fakeWidget) RemoveMarker(h Handle) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.markers[h]; ok {
		f.removedMarkers++
		delete(f.markers, h)
	}
}

func (f *fakeWidget) AddLine(path []types.LatLng, kind LineKind) Handle {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	f.lines[f.next] = path
	f.lineKinds[f.next] = kind
	return f.next
}

func (f *fakeWidget) RemoveLine(h Handle) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.lines[h]; ok {
		f.removedLines++
		delete(f.lines, h)
	}
}

func (f *fakeWidget) SetView(p types.LatLng, zoom int, animate bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.views = append(f.views, p)
	f.zooms = append(f.zooms, zoom)
}

func (f *fakeWidget) FitBounds(b geo.Bounds, paddingPx int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fits = append(f.fits, b)
}

func (f *fakeWidget) OnClick(fn func(types.LatLng)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onClick = fn
	f.clickSets++
}

func (f *fakeWidget) kinds() []LineKind {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []LineKind
	for _, k := range f.lineKinds {
		out = append(out, k)
	}
	return out
}

var twoStops = []types.Stop{
	{ID: 1, Lat: 10, Lng: 20, Order: 0},
	{ID: 2, Lat: 12, Lng: 22, Order: 1},
}

func TestRenderTwoStopsThenDispose(t *testing.T) {
	w := newFakeWidget()
	a := New(w, Options{Logger: logging.Discard()})

	require.NoError(t, a.Render(context.Background(), twoStops, nil))
	assert.Len(t, w.markers, 2)
	assert.Len(t, w.lines, 1)

	a.Dispose()
	assert.Equal(t, 2, w.removedMarkers)
	assert.Equal(t, 1, w.removedLines)
	assert.Empty(t, w.markers)
	assert.Empty(t, w.lines)

	a.Dispose()
	assert.Equal(t, 2, w.removedMarkers)
}

func TestRenderRebuildsEverything(t *testing.T) {
	w := newFakeWidget()
	a := New(w, Options{})
	ctx := context.Background()

	require.NoError(t, a.Render(ctx, twoStops, nil))
	three := append(append([]types.Stop(nil), twoStops...), types.Stop{ID: 3, Lat: 13, Lng: 23, Order: 2, IsCompleted: true})
	require.NoError(t, a.Render(ctx, three, nil))

	assert.Equal(t, 2, w.removedMarkers)
	assert.Equal(t, 1, w.removedLines)
	assert.Len(t, w.markers, 3)
	assert.Len(t, w.lines, 2)
	assert.Equal(t, 3, a.MarkerCount())

	labels := map[string]MarkerKind{}
	for _, m := range w.markers {
		labels[m.Label] = m.Kind
	}
	assert.Equal(t, map[string]MarkerKind{"1": MarkerStop, "2": MarkerStop, "3": MarkerCompleted}, labels)
}

func TestRenderNumbersBySequenceOrder(t *testing.T) {
	w := newFakeWidget()
	a := New(w, Options{})
	stops := []types.Stop{
		{ID: 9, Name: "last", Lat: 1, Lng: 1, Order: 1},
		{ID: 4, Name: "first", Lat: 2, Lng: 2, Order: 0},
	}
	require.NoError(t, a.Render(context.Background(), stops, nil))
	for _, m := range w.markers {
		if m.Title == "first" {
			assert.Equal(t, "1", m.Label)
		} else {
			assert.Equal(t, "2", m.Label)
		}
	}
}

func TestResolveLineSources(t *testing.T) {
	stored := []types.RouteSegment{{
		FromStopID:  1,
		ToStopID:    2,
		Coordinates: []types.Coordinate{{20, 10}, {21, 11}, {22, 12}},
	}}
	three := append(append([]types.Stop(nil), twoStops...), types.Stop{ID: 3, Lat: 14, Lng: 24, Order: 2})

	t.Run("stored then straight without router", func(t *testing.T) {
		a := New(newFakeWidget(), Options{})
		segs, err := a.Resolve(context.Background(), three, stored)
		require.NoError(t, err)
		require.Len(t, segs, 2)
		assert.Equal(t, LineStored, segs[0].Kind)
		assert.Len(t, segs[0].Path, 3)
		assert.Equal(t, LineStraight, segs[1].Kind)
		assert.Equal(t, []types.LatLng{{Lat: 12, Lng: 22}, {Lat: 14, Lng: 24}}, segs[1].Path)
	})

	t.Run("router for pairs without stored route", func(t *testing.T) {
		r := &fakeRouter{}
		a := New(newFakeWidget(), Options{Router: r})
		segs, err := a.Resolve(context.Background(), three, stored)
		require.NoError(t, err)
		assert.Equal(t, LineStored, segs[0].Kind)
		assert.Equal(t, LineRouted, segs[1].Kind)
		assert.Equal(t, 1, r.calls)
	})

	t.Run("router failure falls back to straight", func(t *testing.T) {
		a := New(newFakeWidget(), Options{Router: &fakeRouter{err: routing.ErrNoRoute}, Logger: logging.Discard()})
		segs, err := a.Resolve(context.Background(), twoStops, nil)
		require.NoError(t, err)
		require.Len(t, segs, 1)
		assert.Equal(t, LineStraight, segs[0].Kind)
	})

	t.Run("cancelled context fails", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		a := New(newFakeWidget(), Options{Router: routing.StraightLine{}})
		_, err := a.Resolve(ctx, twoStops, nil)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("single stop has no segments", func(t *testing.T) {
		a := New(newFakeWidget(), Options{})
		segs, err := a.Resolve(context.Background(), twoStops[:1], nil)
		require.NoError(t, err)
		assert.Empty(t, segs)
	})
}

type fakeRouter struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeRouter) Route(ctx context.Context, from, to types.LatLng) (routing.Result, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return routing.Result{}, f.err
	}
	mid := types.LatLng{Lat: (from.Lat + to.Lat) / 2, Lng: (from.Lng + to.Lng) / 2}
	return routing.Result{Path: []types.LatLng{from, mid, to}}, nil
}

func TestFocusControls(t *testing.T) {
	w := newFakeWidget()
	var ready Controls
	a := New(w, Options{OnReady: func(c Controls) { ready = c }})
	require.NotNil(t, ready)

	ready.FocusAllStops()
	assert.Empty(t, w.fits, "no stops means no viewport change")
	assert.Empty(t, w.views)

	a.Draw(twoStops, nil)
	ready.FocusAllStops()
	require.Len(t, w.fits, 1)
	assert.InDelta(t, 10, w.fits[0].SouthWest.Lat, 1e-9)
	assert.InDelta(t, 22, w.fits[0].NorthEast.Lng, 1e-9)

	ready.FocusStop(12, 22)
	require.Len(t, w.views, 1)
	assert.Equal(t, types.LatLng{Lat: 12, Lng: 22}, w.views[0])
	assert.Equal(t, DefaultFocusZoom, w.zooms[0])
}

func TestClickPlacesSinglePendingMarker(t *testing.T) {
	w := newFakeWidget()
	var clicks []types.LatLng
	a := New(w, Options{OnClick: func(p types.LatLng) { clicks = append(clicks, p) }})
	require.NotNil(t, w.onClick)

	w.onClick(types.LatLng{Lat: 10.77, Lng: 106.70})
	w.onClick(types.LatLng{Lat: 10.78, Lng: 106.71})

	pending := 0
	for _, m := range w.markers {
		if m.Kind == MarkerPending {
			pending++
			assert.Equal(t, types.LatLng{Lat: 10.78, Lng: 106.71}, m.Position)
		}
	}
	assert.Equal(t, 1, pending)
	assert.Len(t, clicks, 2)

	a.ClearPending()
	assert.Empty(t, w.markers)

	w.onClick(types.LatLng{Lat: 1, Lng: 1})
	a.Dispose()
	assert.Empty(t, w.markers)
	assert.Nil(t, w.onClick)
	assert.Equal(t, 2, w.clickSets)
}

func TestNoClickHandlerIgnoresClicks(t *testing.T) {
	w := newFakeWidget()
	a := New(w, Options{})
	assert.Nil(t, w.onClick)

	a.HandleClick(types.LatLng{Lat: 1, Lng: 1})
	assert.Empty(t, w.markers)

	a.Dispose()
	assert.Zero(t, w.clickSets)
}

func TestDisposedAdapterIsInert(t *testing.T) {
	w := newFakeWidget()
	a := New(w, Options{})
	a.Dispose()

	require.NoError(t, a.Render(context.Background(), twoStops, nil))
	a.FocusStop(1, 1)
	a.FocusAllStops()
	assert.Empty(t, w.markers)
	assert.Empty(t, w.views)
	assert.Empty(t, w.fits)
}

func TestRoutedLinesReachWidget(t *testing.T) {
	w := newFakeWidget()
	a := New(w, Options{Router: &fakeRouter{}})
	require.NoError(t, a.Render(context.Background(), twoStops, nil))
	assert.Equal(t, []LineKind{LineRouted}, w.kinds())
	for _, p := range w.lines {
		assert.Len(t, p, 3)
	}
}

