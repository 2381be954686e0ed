package triplist

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrysoftwarecorp/route-nest/internal/logging"
	"github.com/harrysoftwarecorp/route-nest/internal/viewstate"
	"github.com/harrysoftwarecorp/route-nest/pkg/types"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type fakeAPI struct {
	mu      sync.Mutex
	trips   []types.TripSummary
	listErr error
	err     error
	lists   int
	created []types.CreateTripRequest
	search  types.SearchParams
}

func (f *fakeAPI) ListTrips(ctx context.Context) ([]types.TripSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]types.TripSummary(nil), f.trips...), nil
}

func (f *fakeAPI) CreateTrip(ctx context.Context, req types.CreateTripRequest) (*types.Trip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, req)
	id := fmt.Sprintf("trip-%d", len(f.trips)+1)
	f.trips = append(f.trips, types.TripSummary{ID: id, Name: req.Name, CreatedAt: t0.Add(time.Duration(len(f.trips)) * time.Hour)})
	return &types.Trip{ID: id, Name: req.Name}, nil
}

func (f *fakeAPI) DeleteTrip(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	for i, t := range f.trips {
		if t.ID == id {
			f.trips = append(f.trips[:i], f.trips[i+1:]...)
			return nil
		}
	}
	return types.ErrNotFound
}

func (f *fakeAPI) SearchTrips(ctx context.Context, params types.SearchParams) ([]types.TripSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.search = params
	return append([]types.TripSummary(nil), f.trips...), f.err
}

func seeded() *fakeAPI {
	return &fakeAPI{trips: []types.TripSummary{
		{ID: "a", Name: "East Coast Adventure", CreatedAt: t0},
		{ID: "b", Name: "West Coast Roadtrip", CreatedAt: t0.Add(48 * time.Hour)},
		{ID: "c", Name: "Saigon by Night", CreatedAt: t0.Add(24 * time.Hour)},
	}}
}

func newController(api API) *Controller {
	return New(Options{API: api, Logger: logging.Discard()})
}

func ids(trips []types.TripSummary) []string {
	out := make([]string, len(trips))
	for i, t := range trips {
		out[i] = t.ID
	}
	return out
}

func TestLoadSortsNewestFirst(t *testing.T) {
	c := newController(seeded())
	assert.Equal(t, viewstate.Idle, c.State().Status)

	require.NoError(t, c.Load(context.Background()))
	s := c.State()
	assert.Equal(t, viewstate.Ready, s.Status)
	assert.Equal(t, []string{"b", "c", "a"}, ids(s.Visible))
	assert.Equal(t, 3, s.Total)
}

func TestLoadFailureEmptiesList(t *testing.T) {
	api := seeded()
	c := newController(api)
	require.NoError(t, c.Load(context.Background()))

	api.listErr = types.ErrServer
	err := c.Load(context.Background())
	assert.ErrorIs(t, err, types.ErrServer)
	s := c.State()
	assert.Equal(t, viewstate.Error, s.Status)
	assert.Empty(t, s.Visible)
	assert.ErrorIs(t, s.Err, types.ErrServer)
	assert.Equal(t, EmptyText, c.EmptyMessage())
}

func TestSetQueryFiltersCaseInsensitively(t *testing.T) {
	c := newController(seeded())
	require.NoError(t, c.Load(context.Background()))

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"b", "c", "a"}},
		{"coast", []string{"b", "a"}},
		{"COAST", []string{"b", "a"}},
		{"saigon", []string{"c"}},
		{"tokyo", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			c.SetQuery(tt.query)
			assert.Equal(t, tt.want, ids(c.Visible()))
		})
	}
	c.SetQuery("tokyo")
	assert.Equal(t, EmptySearchText, c.EmptyMessage())
}

func TestCanCreateTracksTrimmedName(t *testing.T) {
	c := newController(seeded())
	tests := []struct {
		name string
		want bool
	}{
		{"", false},
		{"   ", false},
		{"\t\n", false},
		{"Coastal Drive", true},
		{"  x  ", true},
	}
	for _, tt := range tests {
		c.SetNewName(tt.name)
		assert.Equal(t, tt.want, c.CanCreate(), "name %q", tt.name)
	}
}

func TestCreateRejectsBlankName(t *testing.T) {
	api := seeded()
	c := newController(api)
	c.ShowCreateForm(true)
	c.SetNewName("   ")

	_, err := c.Create(context.Background())
	assert.ErrorIs(t, err, types.ErrInvalidRequest)
	assert.ErrorIs(t, err, ErrCannotCreate)
	assert.Empty(t, api.created)
	assert.True(t, c.State().Creating)
}

func TestCreateRefetchesAndResetsForm(t *testing.T) {
	api := &fakeAPI{}
	c := newController(api)
	require.NoError(t, c.Load(context.Background()))
	c.ShowCreateForm(true)
	c.SetNewName("  Coastal Drive ")

	trip, err := c.Create(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Coastal Drive", trip.Name)
	assert.Equal(t, "Coastal Drive", api.created[0].Name)
	assert.Equal(t, 2, api.lists)

	s := c.State()
	assert.False(t, s.Creating)
	assert.Empty(t, s.NewName)
	require.Len(t, s.Visible, 1)
	assert.Equal(t, "Coastal Drive", s.Visible[0].Name)
}

func TestCreateFailureKeepsForm(t *testing.T) {
	api := &fakeAPI{err: types.ErrServer}
	c := newController(api)
	c.ShowCreateForm(true)
	c.SetNewName("Coastal Drive")

	_, err := c.Create(context.Background())
	assert.ErrorIs(t, err, types.ErrServer)
	s := c.State()
	assert.True(t, s.Creating)
	assert.Equal(t, "Coastal Drive", s.NewName)
	assert.False(t, s.Pending)
}

func TestHideCreateFormClearsName(t *testing.T) {
	c := newController(seeded())
	c.ShowCreateForm(true)
	c.SetNewName("Draft")
	c.ShowCreateForm(false)
	assert.Empty(t, c.State().NewName)
	assert.False(t, c.CanCreate())
}

func TestDeleteRefetches(t *testing.T) {
	api := seeded()
	c := newController(api)
	require.NoError(t, c.Load(context.Background()))

	require.NoError(t, c.Delete(context.Background(), "c"))
	assert.Equal(t, []string{"b", "a"}, ids(c.Visible()))
	assert.Equal(t, 2, api.lists)

	err := c.Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.Len(t, c.Visible(), 2)
}

func TestOpenCallsOnOpen(t *testing.T) {
	var opened []string
	c := New(Options{API: seeded(), OnOpen: func(id string) { opened = append(opened, id) }})
	c.Open("b")
	assert.Equal(t, []string{"b"}, opened)

	newController(seeded()).Open("x")
}

func TestSearchRemoteLeavesListing(t *testing.T) {
	api := seeded()
	c := newController(api)

	got, err := c.SearchRemote(context.Background(), types.SearchParams{Query: "coast"})
	require.NoError(t, err)
	assert.Equal(t, "coast", api.search.Query)
	assert.Equal(t, []string{"b", "c", "a"}, ids(got))
	assert.Zero(t, c.State().Total)
}
