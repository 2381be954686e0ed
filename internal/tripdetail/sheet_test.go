package tripdetail

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrysoftwarecorp/route-nest/internal/geo"
	"github.com/harrysoftwarecorp/route-nest/pkg/types"
)

func TestSheetWithoutStops(t *testing.T) {
	for _, trip := range []*types.Trip{nil, {ID: "empty"}} {
		s := SheetFor(trip, geo.DefaultCenter)
		assert.Equal(t, "Ho Chi Minh City, Vietnam", s.Location)
		assert.Equal(t, "Ready to explore", s.Distance)
		assert.Equal(t, "Plan your adventure", s.Duration)
		assert.Nil(t, s.Next)
	}
}

func TestSheetWithStops(t *testing.T) {
	trip := newFakeAPI().trip
	trip.Stops[0].Address = "Le Loi, District 1"
	trip.Stops[0].IsCompleted = true
	trip.Stats.EstimatedDuration = 150

	s := SheetFor(&trip, geo.DefaultCenter)
	assert.Equal(t, "Le Loi, District 1", s.Location)
	assert.Regexp(t, `^\d+\.\d km from you$`, s.Distance)
	assert.Equal(t, "2h 30m", s.Duration)
	assert.Equal(t, 1, s.Progress.CompletedStops)
	assert.Equal(t, 3, s.Progress.TotalStops)
	require.NotNil(t, s.Next)
	assert.Equal(t, int64(2), s.Next.ID)
}

func TestSheetFallbacks(t *testing.T) {
	trip := types.Trip{Stops: []types.Stop{{ID: 1, Lat: geo.DefaultCenter.Lat, Lng: geo.DefaultCenter.Lng}}}
	s := SheetFor(&trip, geo.DefaultCenter)
	assert.Equal(t, geo.DefaultLocationName, s.Location)
	assert.Equal(t, "0.0 km from you", s.Distance)
	assert.Equal(t, "Flexible timing", s.Duration)
}
