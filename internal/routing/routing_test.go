package routing

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrysoftwarecorp/route-nest/internal/geo"
	"github.com/harrysoftwarecorp/route-nest/pkg/types"
)

var (
	benThanh   = types.LatLng{Lat: 10.7721, Lng: 106.6980}
	landmark81 = types.LatLng{Lat: 10.7952, Lng: 106.7219}
)

func TestEstimateDuration(t *testing.T) {
	tests := []struct {
		mode   types.TransportMode
		meters float64
		want   time.Duration
	}{
		{types.ModeWalking, 5000, time.Hour},
		{types.ModeCar, 20000, 30 * time.Minute},
		{types.ModeCycling, 7500, 30 * time.Minute},
		{"teleport", 40000, time.Hour},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			assert.Equal(t, tt.want, EstimateDuration(tt.meters, tt.mode))
		})
	}
}

func TestStraightLine(t *testing.T) {
	r := StraightLine{Mode: types.ModeWalking}
	res, err := r.Route(context.Background(), benThanh, landmark81)
	require.NoError(t, err)
	assert.Equal(t, []types.LatLng{benThanh, landmark81}, res.Path)
	assert.InDelta(t, geo.Distance(benThanh, landmark81), res.Distance, 1e-6)
	assert.Greater(t, res.Duration, 40*time.Minute)

	dense, err := StraightLine{Steps: 8}.Route(context.Background(), benThanh, landmark81)
	require.NoError(t, err)
	assert.Len(t, dense.Path, 9)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.Route(ctx, benThanh, landmark81)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPolylineRoundTrip(t *testing.T) {
	path := []types.LatLng{benThanh, {Lat: 10.7837, Lng: 106.7100}, landmark81}
	decoded, err := DecodePath(EncodePath(path))
	require.NoError(t, err)
	require.Len(t, decoded, 3)
	for i := range path {
		assert.InDelta(t, path[i].Lat, decoded[i].Lat, 1e-5)
		assert.InDelta(t, path[i].Lng, decoded[i].Lng, 1e-5)
	}
}

func TestOSRMRoute(t *testing.T) {
	geometry := EncodePath([]types.LatLng{benThanh, {Lat: 10.7837, Lng: 106.7100}, landmark81})
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		fmt.Fprintf(w, `{"code":"Ok","routes":[{"geometry":%q,"distance":4210.5,"duration":630}]}`, geometry)
	}))
	defer srv.Close()

	o := NewOSRM(srv.URL+"/", ProfileFor(types.ModeCycling), nil, nil)
	res, err := o.Route(context.Background(), benThanh, landmark81)
	require.NoError(t, err)

	assert.Equal(t, "/route/v1/bike/106.698000,10.772100;106.721900,10.795200", gotPath)
	assert.Equal(t, "geometries=polyline&overview=full", gotQuery)
	assert.Len(t, res.Path, 3)
	assert.InDelta(t, 10.7837, res.Path[1].Lat, 1e-5)
	assert.Equal(t, 4210.5, res.Distance)
	assert.Equal(t, 630*time.Second, res.Duration)
}

func TestOSRMErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"no route", http.StatusOK, `{"code":"NoRoute","routes":[]}`, ErrNoRoute},
		{"empty routes", http.StatusOK, `{"code":"Ok","routes":[]}`, ErrNoRoute},
		{"invalid query", http.StatusBadRequest, `{"code":"InvalidQuery","message":"bad coords"}`, nil},
		{"not json", http.StatusBadGateway, `<html>`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			_, err := NewOSRM(srv.URL, "", srv.Client(), nil).Route(context.Background(), benThanh, landmark81)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestProfileFor(t *testing.T) {
	assert.Equal(t, "foot", ProfileFor(types.ModeWalking))
	assert.Equal(t, "bike", ProfileFor(types.ModeCycling))
	assert.Equal(t, "driving", ProfileFor(types.ModeMotorcycle))
}
