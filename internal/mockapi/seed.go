package mockapi

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/harrysoftwarecorp/route-nest/internal/geo"
	"github.com/harrysoftwarecorp/route-nest/internal/routing"
	"github.com/harrysoftwarecorp/route-nest/pkg/types"
)

type seedStop struct {
	name     string
	lat, lng float64
	at       string
	minutes  int
	kind     types.StopType
}

type seedTrip struct {
	name     string
	desc     string
	category types.TripCategory
	tags     []string
	created  string
	days     int
	public   bool
	rating   float64
	stops    []seedStop
	// routes holds one stored path per adjacent stop pair, as [lat, lng].
	routes [][][2]float64
}

var seedTrips = []seedTrip{
	{
		name:     "East Coast Adventure",
		desc:     "Three cities along the Atlantic seaboard.",
		category: types.CategoryRoadTrip,
		tags:     []string{"usa", "cities"},
		created:  "2025-07-20T10:00:00Z",
		days:     5,
		public:   true,
		rating:   4.2,
		stops: []seedStop{
			{"Boston Common", 42.3551, -71.0657, "2025-08-01T09:00:00Z", 120, types.StopNature},
			{"Times Square", 40.7580, -73.9855, "2025-08-02T14:00:00Z", 90, types.StopAttraction},
			{"National Mall", 38.8893, -77.0502, "2025-08-04T10:00:00Z", 180, types.StopCulture},
		},
	},
	{
		name:     "West Coast Roadtrip",
		desc:     "Highway 1 from the Golden Gate to Santa Monica.",
		category: types.CategoryRoadTrip,
		tags:     []string{"usa", "coast"},
		created:  "2025-07-21T14:00:00Z",
		days:     4,
		public:   true,
		rating:   4.7,
		stops: []seedStop{
			{"Golden Gate Bridge", 37.8199, -122.4783, "2025-09-10T08:00:00Z", 60, types.StopAttraction},
			{"Bixby Creek Bridge", 36.3715, -121.9017, "2025-09-10T13:00:00Z", 45, types.StopNature},
			{"Santa Monica Pier", 34.0094, -118.4973, "2025-09-11T17:00:00Z", 120, types.StopActivity},
		},
	},
	{
		name:     "Saigon Day Trip",
		desc:     "Markets, skyline and malls across Ho Chi Minh City.",
		category: types.CategoryCityExploration,
		tags:     []string{"vietnam", "food"},
		created:  "2025-07-22T08:00:00Z",
		days:     1,
		stops: []seedStop{
			{"Ben Thanh Market", 10.7721, 106.6980, "2025-07-23T09:00:00Z", 60, types.StopShopping},
			{"Landmark 81", 10.7952, 106.7219, "2025-07-23T10:30:00Z", 60, types.StopAttraction},
			{"Vincom Thu Duc", 10.8501, 106.7559, "2025-07-23T12:00:00Z", 90, types.StopShopping},
		},
		routes: [][][2]float64{
			{{10.7721, 106.6980}, {10.7837, 106.7100}, {10.7952, 106.7219}},
			{{10.7952, 106.7219}, {10.8227, 106.7389}, {10.8501, 106.7559}},
		},
	},
}

// Seed loads the sample trips into an empty store. It does nothing when any
// trip exists and reports how many trips it added.
func (s *Store) Seed(ctx context.Context) (int, error) {
	added := 0
	err := s.tx(ctx, func(tx *sql.Tx) error {
		var n int
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM trips").Scan(&n); err != nil {
			return fmt.Errorf("counting trips: %w", err)
		}
		if n > 0 {
			return nil
		}
		for _, st := range seedTrips {
			if err := s.seedTrip(ctx, tx, st); err != nil {
				return fmt.Errorf("seeding %q: %w", st.name, err)
			}
			added++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if added > 0 {
		s.logger.Info("seeded sample trips", "count", added)
	}
	return added, nil
}

func (s *Store) seedTrip(ctx context.Context, tx *sql.Tx, st seedTrip) error {
	created, err := time.Parse(time.RFC3339, st.created)
	if err != nil {
		return err
	}
	t := &types.Trip{
		ID:                newID(),
		Name:              st.name,
		Description:       st.desc,
		UserID:            s.userID,
		CreatedAt:         created,
		UpdatedAt:         created,
		EstimatedDuration: st.days,
		IsPublic:          st.public,
		Tags:              st.tags,
		Category:          st.category,
		SharedWith:        []string{},
		Visibility:        types.VisibilityPrivate,
	}
	if st.public {
		t.Visibility = types.VisibilityPublic
	}
	if st.rating > 0 {
		r := st.rating
		t.Rating, t.ReviewCount = &r, 12
	}
	if err := insertTrip(ctx, tx, t); err != nil {
		return err
	}

	ids := make([]int64, len(st.stops))
	for i, ss := range st.stops {
		arrival, err := time.Parse(time.RFC3339, ss.at)
		if err != nil {
			return err
		}
		departure := arrival.Add(minutes(ss.minutes))
		stop := types.Stop{
			TripID:            t.ID,
			Name:              ss.name,
			Lat:               ss.lat,
			Lng:               ss.lng,
			PlannedArrival:    arrival,
			PlannedDeparture:  &departure,
			EstimatedDuration: ss.minutes,
			StopType:          ss.kind,
			Priority:          types.PriorityMedium,
			Order:             i,
			CreatedAt:         created,
			UpdatedAt:         created,
		}
		if ids[i], err = insertStop(ctx, tx, &stop); err != nil {
			return err
		}
	}

	for i, path := range st.routes {
		if i+1 >= len(ids) {
			break
		}
		points := make([]types.LatLng, len(path))
		coords := make([]types.Coordinate, len(path))
		for j, p := range path {
			points[j] = types.LatLng{Lat: p[0], Lng: p[1]}
			coords[j] = types.CoordinateOf(points[j])
		}
		dist := geo.PathLength(points)
		r := types.RouteSegment{
			ID:            newID(),
			FromStopID:    ids[i],
			ToStopID:      ids[i+1],
			Coordinates:   coords,
			Distance:      dist,
			TransportMode: types.ModeCar,
			CreatedAt:     created,
		}
		r.EstimatedDuration = routing.EstimateDuration(dist, types.ModeCar).Seconds()
		if err := insertRoute(ctx, tx, t.ID, &r); err != nil {
			return err
		}
	}
	_, err = s.finishLoadLocked(ctx, tx, t.ID)
	return err
}
