package places

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/harrysoftwarecorp/route-nest/pkg/types"
)

const benThanhResults = `[
  {"name": "Ben Thanh Market", "display_name": "Ben Thanh Market, Le Loi, District 1, Ho Chi Minh City, Vietnam",
   "category": "amenity", "type": "marketplace", "lat": "10.7725", "lon": "106.6980",
   "boundingbox": ["10.7717", "10.7733", "106.6971", "106.6989"]},
  {"name": "", "display_name": "Ben Thanh, District 1, Ho Chi Minh City, Vietnam",
   "category": "place", "type": "quarter", "lat": "10.7731", "lon": "106.6944", "boundingbox": []},
  {"name": "Broken", "display_name": "Broken", "lat": "north", "lon": "106.7"}
]`

func TestNominatimSearch(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, benThanhResults)
	}))
	defer srv.Close()

	n := NewNominatim(srv.URL+"/", "routenest-test/1.0", srv.Client(), nil)
	near := types.LatLng{Lat: 10.7769, Lng: 106.7009}
	res, err := n.Search(context.Background(), Query{Text: "  ben thanh ", Limit: 3, Near: &near})
	require.NoError(t, err)

	require.NotNil(t, got)
	assert.Equal(t, "/search", got.URL.Path)
	q := got.URL.Query()
	assert.Equal(t, "ben thanh", q.Get("q"))
	assert.Equal(t, "jsonv2", q.Get("format"))
	assert.Equal(t, "3", q.Get("limit"))
	assert.Equal(t, "106.450900,11.026900,106.950900,10.526900", q.Get("viewbox"))
	assert.Equal(t, "routenest-test/1.0", got.Header.Get("User-Agent"))

	require.Len(t, res, 2, "results without coordinates are skipped")
	market := res[0]
	assert.Equal(t, "Ben Thanh Market", market.Name)
	assert.Equal(t, "marketplace", market.Kind)
	assert.Equal(t, types.LatLng{Lat: 10.7725, Lng: 106.6980}, market.Position())
	require.NotNil(t, market.Bounds)
	assert.Equal(t, types.LatLng{Lat: 10.7717, Lng: 106.6971}, market.Bounds.SouthWest)
	assert.Equal(t, types.LatLng{Lat: 10.7733, Lng: 106.6989}, market.Bounds.NorthEast)
	assert.InDelta(t, 600, market.Distance, 150)

	quarter := res[1]
	assert.Equal(t, "Ben Thanh", quarter.Name, "name falls back to the first label part")
	assert.Nil(t, quarter.Bounds)
}

func TestNominatimDefaults(t *testing.T) {
	var limit, viewbox string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limit = r.URL.Query().Get("limit")
		viewbox = r.URL.Query().Get("viewbox")
		fmt.Fprint(w, `[]`)
	}))
	defer srv.Close()

	res, err := NewNominatim(srv.URL, "", nil, nil).Search(context.Background(), Query{Text: "Landmark 81"})
	require.NoError(t, err)
	assert.Empty(t, res)
	assert.Equal(t, "5", limit)
	assert.Empty(t, viewbox)
}

func TestNominatimErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"rate limited", http.StatusTooManyRequests, `{}`, types.ErrRateLimited},
		{"server error", http.StatusBadGateway, `bad gateway`, types.ErrServer},
		{"bad request", http.StatusBadRequest, `{"error": "bad viewbox"}`, types.ErrInvalidRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			_, err := NewNominatim(srv.URL, "", srv.Client(), nil).Search(context.Background(), Query{Text: "x"})
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("malformed json", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"not": "a list"}`)
		}))
		defer srv.Close()
		_, err := NewNominatim(srv.URL, "", srv.Client(), nil).Search(context.Background(), Query{Text: "x"})
		assert.ErrorContains(t, err, "decode place search")
	})
}

func TestNominatimEmptyQuery(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	_, err := NewNominatim(srv.URL, "", srv.Client(), nil).Search(context.Background(), Query{Text: "   "})
	assert.ErrorIs(t, err, ErrEmptyQuery)
	assert.Zero(t, calls.Load())
}

func TestNominatimPacesRequests(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, `[]`)
	}))
	defer srv.Close()

	n := NewNominatim(srv.URL, "", srv.Client(), nil)
	_, err := n.Search(context.Background(), Query{Text: "first"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err = n.Search(ctx, Query{Text: "second"})
	assert.Error(t, err, "a second search within a second waits past the deadline")
	assert.Equal(t, int32(1), calls.Load())

	n.SetRate(rate.Inf)
	_, err = n.Search(context.Background(), Query{Text: "third"})
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}
