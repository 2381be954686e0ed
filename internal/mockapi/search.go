package mockapi

import (
	"cmp"
	"context"
	"math"
	"slices"
	"strings"

	"github.com/tidwall/rtree"

	"github.com/harrysoftwarecorp/route-nest/internal/geo"
	"github.com/harrysoftwarecorp/route-nest/pkg/types"
)

// Search defaults.
const (
	DefaultSearchRadiusKm = 50
	DefaultPopularLimit   = 10
	metersPerDegreeLat    = 111_320.0
)

// rebuildIndex indexes the stop centroid of every stored trip.
func (s *Store) rebuildIndex(ctx context.Context) error {
	trips, err := loadAllTrips(ctx, s.db)
	if err != nil {
		return err
	}
	s.index = rtree.RTreeG[string]{}
	clear(s.centroids)
	for _, t := range trips {
		s.indexLocked(t)
	}
	return nil
}

// indexLocked refreshes the index entry of t. The caller holds mu.
func (s *Store) indexLocked(t *types.Trip) {
	s.unindexLocked(t.ID)
	c, ok := geo.Centroid(geo.StopPositions(t.Stops))
	if !ok {
		return
	}
	pt := [2]float64{c.Lng, c.Lat}
	s.index.Insert(pt, pt, t.ID)
	s.centroids[t.ID] = c
}

func (s *Store) unindexLocked(id string) {
	c, ok := s.centroids[id]
	if !ok {
		return
	}
	pt := [2]float64{c.Lng, c.Lat}
	s.index.Delete(pt, pt, id)
	delete(s.centroids, id)
}

// nearLocked returns the ids of trips whose centroid lies within radius meters
// of at. The caller holds mu.
func (s *Store) nearLocked(at types.LatLng, radius float64) map[string]float64 {
	dLat := radius / metersPerDegreeLat
	dLng := 180.0
	if cos := math.Cos(at.Lat * math.Pi / 180); cos > 1e-6 {
		dLng = min(radius/(metersPerDegreeLat*cos), 180)
	}
	lo := [2]float64{at.Lng - dLng, at.Lat - dLat}
	hi := [2]float64{at.Lng + dLng, at.Lat + dLat}
	out := map[string]float64{}
	s.index.Search(lo, hi, func(_, _ [2]float64, id string) bool {
		if d := geo.Distance(at, s.centroids[id]); d <= radius {
			out[id] = d
		}
		return true
	})
	return out
}

// SearchTrips filters trips by text, category, tags and distance from a
// point. Text matches name, description and tags, ignoring case.
func (s *Store) SearchTrips(ctx context.Context, p types.SearchParams) ([]types.TripSummary, error) {
	var out []types.TripSummary
	err := s.read(func() error {
		var near map[string]float64
		if p.Lat != nil && p.Lng != nil {
			radius := p.Radius
			if radius <= 0 {
				radius = DefaultSearchRadiusKm
			}
			near = s.nearLocked(types.LatLng{Lat: *p.Lat, Lng: *p.Lng}, radius*1000)
		}
		trips, err := loadAllTrips(ctx, s.db)
		if err != nil {
			return err
		}
		for _, t := range trips {
			if near != nil {
				if _, ok := near[t.ID]; !ok {
					continue
				}
			}
			if matches(t, p) {
				out = append(out, t.Summary())
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []types.TripSummary{}
	}
	types.SortSummariesNewestFirst(out)
	return out, nil
}

func matches(t *types.Trip, p types.SearchParams) bool {
	if p.Category != "" && t.Category != p.Category {
		return false
	}
	for _, tag := range p.Tags {
		if !slices.ContainsFunc(t.Tags, func(x string) bool { return strings.EqualFold(x, tag) }) {
			return false
		}
	}
	q := strings.ToLower(strings.TrimSpace(p.Query))
	if q == "" {
		return true
	}
	if strings.Contains(strings.ToLower(t.Name), q) || strings.Contains(strings.ToLower(t.Description), q) {
		return true
	}
	return slices.ContainsFunc(t.Tags, func(x string) bool { return strings.Contains(strings.ToLower(x), q) })
}

// PopularTrips returns trips with stops ordered by rating, best first, then
// by distance from at. Trips without stops are left out.
func (s *Store) PopularTrips(ctx context.Context, at types.LatLng, limit int) ([]types.TripSummary, error) {
	if limit <= 0 {
		limit = DefaultPopularLimit
	}
	type ranked struct {
		summary types.TripSummary
		rating  float64
		dist    float64
	}
	var all []ranked
	err := s.read(func() error {
		var ids []string
		s.index.Scan(func(_, _ [2]float64, id string) bool {
			ids = append(ids, id)
			return true
		})
		for _, id := range ids {
			t, err := loadTrip(ctx, s.db, id)
			if err != nil {
				return err
			}
			r := ranked{summary: t.Summary(), dist: geo.Distance(at, s.centroids[id])}
			if t.Rating != nil {
				r.rating = *t.Rating
			}
			all = append(all, r)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(all, func(a, b ranked) int {
		if c := cmp.Compare(b.rating, a.rating); c != 0 {
			return c
		}
		return cmp.Compare(a.dist, b.dist)
	})
	out := make([]types.TripSummary, 0, min(limit, len(all)))
	for i := 0; i < len(all) && i < limit; i++ {
		out = append(out, all[i].summary)
	}
	return out, nil
}
