package tripdetail

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrysoftwarecorp/route-nest/internal/clock"
	"github.com/harrysoftwarecorp/route-nest/internal/logging"
	"github.com/harrysoftwarecorp/route-nest/internal/viewstate"
	"github.com/harrysoftwarecorp/route-nest/pkg/types"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

// fakeAPI keeps one trip in memory and mimics the server's replace-on-write
// responses.
type fakeAPI struct {
	mu    sync.Mutex
	trip  types.Trip
	err   error
	calls []string
	// block, when set, is waited on by GetTrip before returning.
	block chan struct{}

	lastStatus  types.StopStatusRequest
	lastReorder []int64
	lastUpdate  types.UpdateStopRequest
	lastAdd     types.AddStopRequest
	itinerary   string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{trip: types.Trip{
		ID:   "trip-1",
		Name: "HCMC Highlights",
		Stops: []types.Stop{
			{ID: 1, TripID: "trip-1", Name: "Ben Thanh Market", Lat: 10.7721, Lng: 106.6980, Order: 0},
			{ID: 2, TripID: "trip-1", Name: "Landmark 81", Lat: 10.7952, Lng: 106.7219, Order: 1},
			{ID: 3, TripID: "trip-1", Name: "Vincom Thu Duc", Lat: 10.8501, Lng: 106.7559, Order: 2},
		},
	}}
}

func (f *fakeAPI) record(name string) (types.Trip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
	return f.trip, f.err
}

func (f *fakeAPI) reply(name string, mutate func(t *types.Trip)) (*types.Trip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
	if f.err != nil {
		return nil, f.err
	}
	if mutate != nil {
		mutate(&f.trip)
	}
	cp := f.trip
	cp.Stops = append([]types.Stop(nil), f.trip.Stops...)
	return &cp, nil
}

func (f *fakeAPI) GetTrip(ctx context.Context, id string) (*types.Trip, error) {
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if id != f.trip.ID {
		f.record("GetTrip")
		return nil, types.ErrNotFound
	}
	return f.reply("GetTrip", nil)
}

func (f *fakeAPI) AddStop(ctx context.Context, tripID string, req types.AddStopRequest) (*types.Trip, error) {
	return f.reply("AddStop", func(t *types.Trip) {
		f.lastAdd = req
		t.Stops = append(t.Stops, types.Stop{ID: int64(len(t.Stops) + 1), Name: req.Name, Lat: req.Lat, Lng: req.Lng, Order: len(t.Stops)})
	})
}

func (f *fakeAPI) UpdateStop(ctx context.Context, tripID string, req types.UpdateStopRequest) (*types.Trip, error) {
	return f.reply("UpdateStop", func(t *types.Trip) {
		f.lastUpdate = req
		if s, ok := t.Stop(req.ID); ok && req.Name != nil {
			s.Name = *req.Name
		}
	})
}

func (f *fakeAPI) DeleteStop(ctx context.Context, tripID string, stopID int64) (*types.Trip, error) {
	return f.reply("DeleteStop", func(t *types.Trip) {
		var kept []types.Stop
		for _, s := range t.OrderedStops() {
			if s.ID != stopID {
				s.Order = len(kept)
				kept = append(kept, s)
			}
		}
		t.Stops = kept
	})
}

func (f *fakeAPI) ReorderStops(ctx context.Context, tripID string, ids []int64) (*types.Trip, error) {
	return f.reply("ReorderStops", func(t *types.Trip) {
		f.lastReorder = ids
		for i, id := range ids {
			if s, ok := t.Stop(id); ok {
				s.Order = i
			}
		}
	})
}

func (f *fakeAPI) SetStopStatus(ctx context.Context, tripID string, stopID int64, req types.StopStatusRequest) (*types.Trip, error) {
	return f.reply("SetStopStatus", func(t *types.Trip) {
		f.lastStatus = req
		if s, ok := t.Stop(stopID); ok {
			s.IsCompleted = req.IsCompleted
			s.ActualArrival = req.ActualArrival
		}
	})
}

func (f *fakeAPI) GenerateRoutes(ctx context.Context, tripID string, req types.GenerateRoutesRequest) (*types.Trip, error) {
	return f.reply("GenerateRoutes", func(t *types.Trip) {
		t.Routes = []types.RouteSegment{{FromStopID: 1, ToStopID: 2, TransportMode: req.TransportMode}}
	})
}

func (f *fakeAPI) OptimizeRoute(ctx context.Context, tripID string) (*types.Trip, error) {
	return f.reply("OptimizeRoute", nil)
}

func (f *fakeAPI) CreateShareLink(ctx context.Context, tripID string) (*types.ShareLink, error) {
	if _, err := f.record("CreateShareLink"); err != nil {
		return nil, err
	}
	return &types.ShareLink{URL: "http://localhost:8000/shared/abc", Token: "abc"}, nil
}

func (f *fakeAPI) AddTripToItinerary(ctx context.Context, itineraryID, tripID string) (*types.Itinerary, error) {
	if _, err := f.record("AddTripToItinerary"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.itinerary = itineraryID
	f.mu.Unlock()
	return &types.Itinerary{ID: itineraryID, TripIDs: []string{tripID}}, nil
}

func (f *fakeAPI) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

type fakeClipboard struct {
	text string
	err  error
}

func (f *fakeClipboard) WriteAll(text string) error {
	if f.err != nil {
		return f.err
	}
	f.text = text
	return nil
}

type fakeControls struct {
	focused []types.LatLng
	all     int
}

func (f *fakeControls) FocusStop(lat, lng float64) {
	f.focused = append(f.focused, types.LatLng{Lat: lat, Lng: lng})
}

func (f *fakeControls) FocusAllStops() { f.all++ }

func newController(t *testing.T) (*Controller, *fakeAPI, *fakeClipboard) {
	t.Helper()
	api := newFakeAPI()
	clip := &fakeClipboard{}
	c := New(Options{API: api, Clipboard: clip, Clock: clock.NewMockClock(t0), Logger: logging.Discard()})
	return c, api, clip
}

func loaded(t *testing.T) (*Controller, *fakeAPI, *fakeClipboard) {
	t.Helper()
	c, api, clip := newController(t)
	require.NoError(t, c.Load(context.Background(), "trip-1"))
	return c, api, clip
}

func TestLoad(t *testing.T) {
	c, _, _ := newController(t)
	assert.Equal(t, viewstate.Idle, c.State().Status)

	require.NoError(t, c.Load(context.Background(), "trip-1"))
	s := c.State()
	assert.Equal(t, viewstate.Ready, s.Status)
	require.NotNil(t, s.Trip)
	assert.Len(t, s.Trip.Stops, 3)
	assert.NoError(t, s.Err)

	err := c.Load(context.Background(), "missing")
	assert.ErrorIs(t, err, types.ErrNotFound)
	s = c.State()
	assert.Equal(t, viewstate.Error, s.Status)
	assert.Nil(t, s.Trip)
	assert.ErrorIs(t, s.Err, types.ErrNotFound)
}

func TestLoadSupersededByLeave(t *testing.T) {
	c, api, _ := newController(t)
	api.block = make(chan struct{})

	done := make(chan error, 1)
	go func() { done <- c.Load(context.Background(), "trip-1") }()

	require.Eventually(t, func() bool { return c.State().Status == viewstate.Loading }, time.Second, time.Millisecond)
	c.Leave()

	err := <-done
	assert.ErrorIs(t, err, ErrSuperseded)
	s := c.State()
	assert.Equal(t, viewstate.Idle, s.Status)
	assert.Nil(t, s.Trip, "a superseded load never writes the trip")
}

func TestLoadSupersededByNewerLoad(t *testing.T) {
	c, api, _ := newController(t)
	api.block = make(chan struct{})

	first := make(chan error, 1)
	go func() { first <- c.Load(context.Background(), "trip-1") }()
	require.Eventually(t, func() bool { return c.State().Status == viewstate.Loading }, time.Second, time.Millisecond)

	second := make(chan error, 1)
	go func() { second <- c.Load(context.Background(), "trip-1") }()
	assert.ErrorIs(t, <-first, ErrSuperseded)

	close(api.block)
	require.NoError(t, <-second)
	assert.Equal(t, viewstate.Ready, c.State().Status)
}

func TestMutationDropsRefreshInFlight(t *testing.T) {
	c, api, _ := loaded(t)
	api.block = make(chan struct{})

	refresh := make(chan error, 1)
	go func() { refresh <- c.Load(context.Background(), "trip-1") }()
	require.Eventually(t, func() bool { return c.State().Status == viewstate.Loading }, time.Second, time.Millisecond)

	require.NoError(t, c.DeleteStop(context.Background(), 3))
	close(api.block)

	assert.ErrorIs(t, <-refresh, ErrSuperseded)
	s := c.State()
	assert.Equal(t, viewstate.Ready, s.Status)
	require.NotNil(t, s.Trip)
	assert.Len(t, s.Trip.Stops, 2)
}

func TestMutationsRequireLoadedTrip(t *testing.T) {
	c, _, _ := newController(t)
	assert.ErrorIs(t, c.DeleteStop(context.Background(), 1), ErrNotLoaded)
	assert.ErrorIs(t, c.SelectStop(1), ErrNotLoaded)
	assert.ErrorIs(t, c.OptimizeRoute(context.Background()), ErrNotLoaded)
}

func TestSelectStopFocusesAndCollapsesWhenNarrow(t *testing.T) {
	tests := []struct {
		name     string
		width    int
		expanded bool
	}{
		{"wide keeps panel", 160, true},
		{"narrow collapses", 80, false},
		{"unknown width keeps panel", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _, _ := loaded(t)
			ctl := &fakeControls{}
			c.AttachMap(ctl)
			c.SetViewportWidth(tt.width)
			c.ToggleExpanded()

			require.NoError(t, c.SelectStop(2))
			s := c.State()
			assert.Equal(t, int64(2), s.Selected)
			assert.Equal(t, tt.expanded, s.Expanded)
			assert.Equal(t, []types.LatLng{{Lat: 10.7952, Lng: 106.7219}}, ctl.focused)
		})
	}
}

func TestSelectUnknownStop(t *testing.T) {
	c, _, _ := loaded(t)
	assert.ErrorIs(t, c.SelectStop(99), ErrNoStop)
	assert.Zero(t, c.State().Selected)
}

func TestViewAllStops(t *testing.T) {
	c, _, _ := loaded(t)
	c.ViewAllStops()

	ctl := &fakeControls{}
	c.AttachMap(ctl)
	c.ViewAllStops()
	assert.Equal(t, 1, ctl.all)
}

func TestDeleteSelectedStopClearsSelection(t *testing.T) {
	c, api, _ := loaded(t)
	require.NoError(t, c.SelectStop(2))

	require.NoError(t, c.DeleteStop(context.Background(), 2))
	s := c.State()
	assert.Zero(t, s.Selected)
	assert.Len(t, s.Trip.Stops, 2)
	assert.Contains(t, api.calls, "DeleteStop")
}

func TestDeleteOtherStopKeepsSelection(t *testing.T) {
	c, _, _ := loaded(t)
	require.NoError(t, c.SelectStop(1))
	require.NoError(t, c.DeleteStop(context.Background(), 3))
	assert.Equal(t, int64(1), c.State().Selected)
}

func TestMutationFailureKeepsTrip(t *testing.T) {
	c, api, _ := loaded(t)
	api.setErr(types.ErrServer)

	err := c.DeleteStop(context.Background(), 1)
	assert.ErrorIs(t, err, types.ErrServer)
	s := c.State()
	assert.Len(t, s.Trip.Stops, 3)
	assert.ErrorIs(t, s.Err, types.ErrServer)
	assert.False(t, s.Pending)
}

func TestOverlappingMutationIsBusy(t *testing.T) {
	c, _, _ := loaded(t)
	release := make(chan struct{})
	started := make(chan struct{})

	done := make(chan error, 1)
	go func() {
		done <- c.mutate(context.Background(), "slow", func(ctx context.Context, tripID string) (*types.Trip, error) {
			close(started)
			<-release
			return nil, nil
		})
	}()
	<-started
	assert.True(t, c.State().Pending)
	assert.ErrorIs(t, c.OptimizeRoute(context.Background()), ErrBusy)

	close(release)
	require.NoError(t, <-done)
	assert.False(t, c.State().Pending)
	assert.NoError(t, c.OptimizeRoute(context.Background()))
}

func TestMapClickedOpensPrefilledDialog(t *testing.T) {
	c, _, _ := loaded(t)
	c.MapClicked(10.77, 106.70)

	s := c.State()
	assert.True(t, s.Dialog)
	require.NotNil(t, s.Clicked)
	assert.Equal(t, types.LatLng{Lat: 10.77, Lng: 106.70}, *s.Clicked)
	v := c.Form().Values()
	assert.Equal(t, "10.770000", v.Latitude)
	assert.Equal(t, "106.700000", v.Longitude)

	c.CloseDialog()
	s = c.State()
	assert.False(t, s.Dialog)
	assert.Nil(t, s.Clicked)
	v = c.Form().Values()
	assert.Empty(t, v.Latitude)
	assert.Empty(t, v.Longitude)
	assert.Equal(t, 60, v.Duration)
}

func TestOpenAddStopIsEmpty(t *testing.T) {
	c, _, _ := loaded(t)
	c.MapClicked(1, 2)
	c.CloseDialog()
	c.OpenAddStop()

	s := c.State()
	assert.True(t, s.Dialog)
	assert.Nil(t, s.Clicked)
	assert.Empty(t, c.Form().Values().Latitude)
}

func TestSubmitStopAdds(t *testing.T) {
	c, api, _ := loaded(t)
	c.MapClicked(10.7769, 106.7009)
	c.Form().SetName("Notre Dame Cathedral")

	require.NoError(t, c.SubmitStop(context.Background()))
	s := c.State()
	assert.False(t, s.Dialog)
	assert.Nil(t, s.Clicked)
	assert.Len(t, s.Trip.Stops, 4)
	assert.Equal(t, "Notre Dame Cathedral", api.lastAdd.Name)
	assert.Equal(t, t0, api.lastAdd.PlannedArrival)
	assert.Equal(t, t0.Add(time.Hour), api.lastAdd.PlannedDeparture)
}

func TestSubmitStopEdits(t *testing.T) {
	c, api, _ := loaded(t)
	require.NoError(t, c.OpenEditStop(2))
	assert.Equal(t, int64(2), c.State().EditingID)
	c.Form().SetName("Landmark 81 SkyView")

	require.NoError(t, c.SubmitStop(context.Background()))
	assert.Equal(t, int64(2), api.lastUpdate.ID)
	stop, ok := c.Trip().Stop(2)
	require.True(t, ok)
	assert.Equal(t, "Landmark 81 SkyView", stop.Name)
	assert.False(t, c.State().Dialog)
}

func TestSubmitStopFailureKeepsDialog(t *testing.T) {
	c, api, _ := loaded(t)
	c.MapClicked(10.7769, 106.7009)
	c.Form().SetName("Opera House")
	api.setErr(types.ErrServer)

	err := c.SubmitStop(context.Background())
	assert.ErrorIs(t, err, types.ErrServer)
	s := c.State()
	assert.True(t, s.Dialog)
	assert.NotNil(t, s.Clicked)
	assert.Equal(t, "Opera House", c.Form().Values().Name)
}

func TestSubmitStopInvalid(t *testing.T) {
	c, api, _ := loaded(t)
	c.MapClicked(10.7769, 106.7009)

	err := c.SubmitStop(context.Background())
	assert.ErrorIs(t, err, types.ErrInvalidRequest)
	assert.NotContains(t, api.calls, "AddStop")
	assert.ErrorIs(t, c.State().Err, types.ErrInvalidRequest)
}

func TestCompleteAndReopenStop(t *testing.T) {
	c, api, _ := loaded(t)

	require.NoError(t, c.ToggleStopCompleted(context.Background(), 1))
	require.NotNil(t, api.lastStatus.ActualArrival)
	assert.Equal(t, t0, *api.lastStatus.ActualArrival)
	stop, _ := c.Trip().Stop(1)
	assert.True(t, stop.IsCompleted)

	require.NoError(t, c.ToggleStopCompleted(context.Background(), 1))
	assert.False(t, api.lastStatus.IsCompleted)
	assert.Nil(t, api.lastStatus.ActualArrival)
	stop, _ = c.Trip().Stop(1)
	assert.False(t, stop.IsCompleted)
}

func TestMoveStop(t *testing.T) {
	c, api, _ := loaded(t)

	require.NoError(t, c.MoveStop(context.Background(), 3, -1))
	assert.Equal(t, []int64{1, 3, 2}, api.lastReorder)
	assert.Equal(t, []int64{1, 3, 2}, types.StopIDs(c.Trip().Stops))

	api.calls = nil
	require.NoError(t, c.MoveStop(context.Background(), 1, -1))
	assert.Empty(t, api.calls, "moving the first stop up is a no-op")

	assert.ErrorIs(t, c.MoveStop(context.Background(), 42, 1), ErrNoStop)
}

func TestGenerateRoutes(t *testing.T) {
	c, api, _ := loaded(t)

	err := c.GenerateRoutes(context.Background(), "teleport")
	assert.ErrorIs(t, err, types.ErrInvalidRequest)
	assert.ErrorIs(t, err, types.ErrInvalidMode)
	assert.NotContains(t, api.calls, "GenerateRoutes")

	require.NoError(t, c.GenerateRoutes(context.Background(), types.ModeCar))
	require.Len(t, c.Trip().Routes, 1)
	assert.Equal(t, types.ModeCar, c.Trip().Routes[0].TransportMode)
}

func TestMutationClosesDialog(t *testing.T) {
	c, _, _ := loaded(t)
	c.MapClicked(1, 2)
	require.NoError(t, c.OptimizeRoute(context.Background()))
	s := c.State()
	assert.False(t, s.Dialog)
	assert.Nil(t, s.Clicked)
}

func TestAddToItinerary(t *testing.T) {
	c, api, _ := loaded(t)
	require.NoError(t, c.AddToItinerary(context.Background(), "it-1"))
	assert.Equal(t, "it-1", api.itinerary)
	assert.Len(t, c.Trip().Stops, 3)
}

func TestShare(t *testing.T) {
	t.Run("copies link", func(t *testing.T) {
		c, _, clip := loaded(t)
		url, err := c.Share(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:8000/shared/abc", url)
		assert.Equal(t, url, clip.text)
		assert.Equal(t, url, c.State().ShareURL)
	})

	t.Run("api failure", func(t *testing.T) {
		c, api, clip := loaded(t)
		api.setErr(types.ErrUnauthorized)
		_, err := c.Share(context.Background())
		assert.ErrorIs(t, err, types.ErrUnauthorized)
		assert.Empty(t, clip.text)
	})

	t.Run("clipboard failure", func(t *testing.T) {
		c, _, clip := loaded(t)
		clip.err = errors.New("no display")
		url, err := c.Share(context.Background())
		assert.Error(t, err)
		assert.NotEmpty(t, url)
		assert.Equal(t, url, c.State().ShareURL)
		assert.False(t, c.State().Pending)
	})
}

func TestStateIsACopy(t *testing.T) {
	c, _, _ := loaded(t)
	s := c.State()
	s.Trip.Stops[0].Name = "changed"
	assert.Equal(t, "Ben Thanh Market", c.Trip().Stops[0].Name)
}

func TestLeaveResetsEverything(t *testing.T) {
	c, _, _ := loaded(t)
	require.NoError(t, c.SelectStop(1))
	c.ToggleExpanded()
	c.MapClicked(1, 1)

	c.Leave()
	s := c.State()
	assert.Equal(t, viewstate.Idle, s.Status)
	assert.Nil(t, s.Trip)
	assert.Zero(t, s.Selected)
	assert.False(t, s.Expanded)
	assert.False(t, s.Dialog)
	assert.Nil(t, s.Clicked)
}
