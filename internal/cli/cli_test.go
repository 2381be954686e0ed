package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrysoftwarecorp/route-nest/internal/logging"
	"github.com/harrysoftwarecorp/route-nest/internal/mockapi"
	"github.com/harrysoftwarecorp/route-nest/internal/paths"
	"github.com/harrysoftwarecorp/route-nest/internal/places"
	"github.com/harrysoftwarecorp/route-nest/internal/triplist"
	"github.com/harrysoftwarecorp/route-nest/pkg/types"
)

// harness runs commands against an in-memory mock API.
type harness struct {
	t         *testing.T
	configDir string
	apiURL    string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store, err := mockapi.Open(context.Background(), mockapi.Options{
		Path:      mockapi.MemoryPath,
		Logger:    logging.Discard(),
		PublicURL: "http://routenest.test",
	})
	require.NoError(t, err)
	srv := mockapi.NewServer(store, mockapi.ServerOptions{Logger: logging.Discard()})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		srv.Close()
		store.Close()
	})
	return &harness{t: t, configDir: t.TempDir(), apiURL: ts.URL}
}

// run executes one command line and returns stdout.
func (h *harness) run(args ...string) (string, error) {
	h.t.Helper()
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{
		"--config-dir", h.configDir,
		"--api-url", h.apiURL,
		"--log-level", "error",
	}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	out, err := h.run(args...)
	require.NoError(h.t, err, "routenest %v", args)
	return out
}

// runJSON executes a command with --json and decodes its output into v.
func (h *harness) runJSON(v any, args ...string) {
	h.t.Helper()
	out := h.mustRun(append(args, "--json")...)
	require.NoError(h.t, json.Unmarshal([]byte(out), v), out)
}

// saigonTrip creates a trip with two stops.
func (h *harness) saigonTrip() types.Trip {
	h.t.Helper()
	var trip types.Trip
	h.runJSON(&trip, "trips", "create", "Saigon Eats", "--category", "food_tour", "--days", "1")
	h.runJSON(&trip, "stops", "add", trip.ID, "--name", "Ben Thanh Market",
		"--lat", "10.7721", "--lng", "106.6980", "--arrival", "2026-03-01 09:00")
	h.runJSON(&trip, "stops", "add", trip.ID, "--name", "Landmark 81",
		"--lat", "10.7950", "--lng", "106.7218", "--arrival", "2026-03-01 11:00", "--type", "culture")
	require.Len(h.t, trip.Stops, 2)
	return trip
}

func TestVersion(t *testing.T) {
	h := newHarness(t)
	out := h.mustRun("version")
	assert.Contains(t, out, paths.AppName+" v"+Version)
	assert.Contains(t, out, modulePath)
}

func TestInitWritesConfigOnce(t *testing.T) {
	h := newHarness(t)
	path := filepath.Join(h.configDir, paths.ConfigFileName)

	out := h.mustRun("init")
	assert.Contains(t, out, "Wrote "+path)
	_, err := os.Stat(path)
	require.NoError(t, err)

	out = h.mustRun("init")
	assert.Contains(t, out, "Config already exists")
}

func TestTripLifecycle(t *testing.T) {
	h := newHarness(t)
	trip := h.saigonTrip()
	first := trip.OrderedStops()[0]

	out := h.mustRun("trips", "show", trip.ID)
	assert.Contains(t, out, "Saigon Eats")
	assert.Contains(t, out, "1. Ben Thanh Market")
	assert.Contains(t, out, "2. Landmark 81")

	out = h.mustRun("trips", "list", "--search", "SAIGON")
	assert.Contains(t, out, trip.ID)
	out = h.mustRun("trips", "list", "--search", "hanoi")
	assert.Contains(t, out, triplist.EmptySearchText)

	var got types.Trip
	h.runJSON(&got, "stops", "complete", trip.ID, strconv.FormatInt(first.ID, 10))
	s, ok := got.Stop(first.ID)
	require.True(t, ok)
	assert.True(t, s.IsCompleted)
	assert.NotNil(t, s.ActualArrival)
	assert.Equal(t, 1, got.Progress().CompletedStops)

	h.runJSON(&got, "stops", "complete", trip.ID, strconv.FormatInt(first.ID, 10), "--undo")
	s, _ = got.Stop(first.ID)
	assert.False(t, s.IsCompleted)

	h.runJSON(&got, "routes", "generate", trip.ID, "--mode", "walking")
	require.Len(t, got.Routes, 1)
	assert.Equal(t, types.ModeWalking, got.Routes[0].TransportMode)

	second := trip.OrderedStops()[1]
	h.runJSON(&got, "stops", "reorder", trip.ID,
		strconv.FormatInt(second.ID, 10), strconv.FormatInt(first.ID, 10))
	assert.Equal(t, second.ID, got.OrderedStops()[0].ID)

	h.runJSON(&got, "stops", "update", trip.ID, strconv.FormatInt(second.ID, 10), "--name", "Bitexco", "--priority", "high")
	s, _ = got.Stop(second.ID)
	assert.Equal(t, "Bitexco", s.Name)
	assert.Equal(t, types.PriorityHigh, s.Priority)

	h.runJSON(&got, "stops", "delete", trip.ID, strconv.FormatInt(second.ID, 10))
	assert.Len(t, got.Stops, 1)

	out = h.mustRun("trips", "delete", trip.ID)
	assert.Contains(t, out, "Deleted trip: "+trip.ID)
	out = h.mustRun("trips", "list")
	assert.Contains(t, out, triplist.EmptyText)
}

func TestUpdateTrip(t *testing.T) {
	h := newHarness(t)
	var trip types.Trip
	h.runJSON(&trip, "trips", "create", "Mekong Loop")

	h.runJSON(&trip, "trips", "update", trip.ID, "--name", "Mekong Delta Loop", "--public", "--tag", "delta")
	assert.Equal(t, "Mekong Delta Loop", trip.Name)
	assert.True(t, trip.IsPublic)
	assert.Equal(t, []string{"delta"}, trip.Tags)
}

func TestStopsAddValidation(t *testing.T) {
	h := newHarness(t)
	var trip types.Trip
	h.runJSON(&trip, "trips", "create", "Empty")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing name", []string{"--lat", "10", "--lng", "106"}, "name: required"},
		{"bad latitude", []string{"--name", "x", "--lat", "95", "--lng", "106"}, "latitude: must be between -90 and 90"},
		{"bad cost", []string{"--name", "x", "--lat", "10", "--lng", "106", "--cost", "-3"}, "cost: must not be negative"},
		{"bad type", []string{"--name", "x", "--lat", "10", "--lng", "106", "--type", "spa"}, "stopType: unknown stop type"},
		{"bad arrival", []string{"--name", "x", "--lat", "10", "--lng", "106", "--arrival", "tomorrow"}, "arrival"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.run(append([]string{"stops", "add", trip.ID}, tt.args...)...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.ErrorIs(t, err, types.ErrInvalidRequest)
			assert.Equal(t, exitUserError, exitCode(err))
		})
	}
}

func TestShareAndShared(t *testing.T) {
	h := newHarness(t)
	trip := h.saigonTrip()

	var link types.ShareLink
	h.runJSON(&link, "trips", "share", trip.ID)
	assert.Contains(t, link.URL, "/shared/"+link.Token)

	for _, ref := range []string{link.Token, link.URL} {
		out := h.mustRun("trips", "shared", ref)
		assert.Contains(t, out, "Saigon Eats")
	}

	_, err := h.run("trips", "shared", "nope")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestForkTrip(t *testing.T) {
	h := newHarness(t)
	trip := h.saigonTrip()

	var fork types.Trip
	h.runJSON(&fork, "trips", "fork", trip.ID)
	assert.NotEqual(t, trip.ID, fork.ID)
	assert.Len(t, fork.Stops, 2)
}

func TestItineraries(t *testing.T) {
	h := newHarness(t)
	trip := h.saigonTrip()

	var it types.Itinerary
	h.runJSON(&it, "itineraries", "create", "Vietnam 2026", "--start", "2026-03-01", "--end", "2026-03-03")
	assert.Empty(t, it.TripIDs)

	h.runJSON(&it, "itineraries", "add-trip", it.ID, trip.ID)
	assert.Equal(t, []string{trip.ID}, it.TripIDs)

	_, err := h.run("itineraries", "add-trip", it.ID, trip.ID)
	assert.ErrorIs(t, err, types.ErrConflict)

	var all []types.Itinerary
	h.runJSON(&all, "itineraries", "list")
	require.Len(t, all, 1)
	assert.Equal(t, "Vietnam 2026", all[0].Name)
}

func TestPlacesSearch(t *testing.T) {
	h := newHarness(t)
	var query, limit, agent string
	geocoder := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query().Get("q")
		limit = r.URL.Query().Get("limit")
		agent = r.Header.Get("User-Agent")
		fmt.Fprint(w, `[{"name": "Ben Thanh Market", "display_name": "Ben Thanh Market, District 1, Ho Chi Minh City",
			"type": "marketplace", "lat": "10.7725", "lon": "106.6980"}]`)
	}))
	t.Cleanup(geocoder.Close)
	cfg := fmt.Sprintf("places:\n  url: %s\n  limit: 2\n", geocoder.URL)
	require.NoError(t, os.WriteFile(filepath.Join(h.configDir, paths.ConfigFileName), []byte(cfg), 0o644))

	var found []places.Place
	h.runJSON(&found, "places", "search", "Ben", "Thanh")
	assert.Equal(t, "Ben Thanh", query)
	assert.Equal(t, "2", limit)
	assert.Equal(t, paths.AppName+"/"+Version, agent)
	require.Len(t, found, 1)
	assert.Equal(t, "Ben Thanh Market", found[0].Name)
	assert.Greater(t, found[0].Distance, 0.0)

	out := h.mustRun("places", "search", "Ben Thanh", "--limit", "1", "--lat", "10.7721", "--lng", "106.6980")
	assert.Equal(t, "1", limit)
	assert.Contains(t, out, "10.772500,106.698000\tBen Thanh Market")
	assert.Contains(t, out, "District 1")
}

func TestUsageErrors(t *testing.T) {
	h := newHarness(t)
	tests := []struct {
		name string
		args []string
	}{
		{"missing argument", []string{"trips", "show"}},
		{"unknown flag", []string{"trips", "list", "--bogus"}},
		{"bad stop id", []string{"stops", "delete", "abc", "x"}},
		{"bad mode", []string{"routes", "generate", "abc", "--mode", "teleport"}},
		{"half a point", []string{"trips", "search", "--lat", "10"}},
		{"bad date", []string{"trips", "create", "x", "--start", "March"}},
		{"place without query", []string{"places", "search"}},
		{"place half a point", []string{"places", "search", "x", "--lng", "106.7"}},
		{"place zero limit", []string{"places", "search", "x", "--limit", "0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.run(tt.args...)
			require.Error(t, err)
			assert.Equal(t, exitUserError, exitCode(err))
		})
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, exitSuccess},
		{usagef("bad"), exitUserError},
		{fmt.Errorf("get trip: %w", types.ErrNotFound), exitUserError},
		{fmt.Errorf("add: %w", types.ErrConflict), exitUserError},
		{types.ErrInvalidRequest, exitUserError},
		{types.ErrServer, exitSysError},
		{errors.New("connection refused"), exitSysError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, exitCode(tt.err), "%v", tt.err)
	}
}

func TestNotFoundExitsAsUserError(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("trips", "show", "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.Equal(t, exitUserError, exitCode(err))
}

func TestMockExportImport(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	src := t.TempDir()

	store, err := mockapi.Open(ctx, mockapi.Options{
		Path:   filepath.Join(src, paths.DatabaseFileName),
		Logger: logging.Discard(),
	})
	require.NoError(t, err)
	seeded, err := store.Seed(ctx)
	require.NoError(t, err)
	require.NoError(t, store.Close())
	require.Positive(t, seeded)

	file := filepath.Join(t.TempDir(), "trips.jsonl")
	var exported map[string]any
	h.runJSON(&exported, "mock", "export", file, "--data-dir", src)
	assert.Equal(t, float64(seeded), exported["exported"])

	dst := t.TempDir()
	out := h.mustRun("mock", "import", file, "--data-dir", dst)
	assert.Contains(t, out, fmt.Sprintf("Imported %d trips", seeded))

	// A second import skips the existing ids.
	out = h.mustRun("mock", "import", file, "--data-dir", dst)
	assert.Contains(t, out, "Imported 0 trips")
}
