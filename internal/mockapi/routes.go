package mockapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/harrysoftwarecorp/route-nest/internal/geo"
	"github.com/harrysoftwarecorp/route-nest/internal/routing"
	"github.com/harrysoftwarecorp/route-nest/pkg/types"
)

// generatedSteps densifies generated straight routes.
const generatedSteps = 8

func minutes(n int) time.Duration { return time.Duration(n) * time.Minute }

func loadRoutes(ctx context.Context, q queryer, tripID string) ([]types.RouteSegment, error) {
	rows, err := q.QueryContext(ctx, `SELECT r.route_id, r.from_stop_id, r.to_stop_id, r.geometry,
        r.distance, r.estimated_duration, r.transport_mode, r.instructions, r.created_at
        FROM routes r JOIN stops f ON f.stop_id = r.from_stop_id
        WHERE r.trip_id = ? ORDER BY f.sort_order`, tripID)
	if err != nil {
		return nil, fmt.Errorf("listing routes: %w", err)
	}
	defer rows.Close()

	routes := []types.RouteSegment{}
	for rows.Next() {
		var (
			r                               types.RouteSegment
			geometry, instructions, created string
		)
		if err := rows.Scan(&r.ID, &r.FromStopID, &r.ToStopID, &geometry, &r.Distance,
			&r.EstimatedDuration, &r.TransportMode, &instructions, &created); err != nil {
			return nil, fmt.Errorf("scanning route: %w", err)
		}
		path, err := routing.DecodePath(geometry)
		if err != nil {
			return nil, fmt.Errorf("decoding route %s: %w", r.ID, err)
		}
		r.Coordinates = make([]types.Coordinate, len(path))
		for i, p := range path {
			r.Coordinates[i] = types.CoordinateOf(p)
		}
		if err := json.Unmarshal([]byte(instructions), &r.Instructions); err != nil {
			return nil, fmt.Errorf("decoding instructions: %w", err)
		}
		if r.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		routes = append(routes, r)
	}
	return routes, rows.Err()
}

func insertRoute(ctx context.Context, q queryer, tripID string, r *types.RouteSegment) error {
	_, err := q.ExecContext(ctx, `INSERT INTO routes (route_id, trip_id, from_stop_id, to_stop_id,
        geometry, distance, estimated_duration, transport_mode, instructions, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, tripID, r.FromStopID, r.ToStopID, routing.EncodePath(r.Path()), r.Distance,
		r.EstimatedDuration, r.TransportMode, encodeJSON(r.Instructions), formatTime(r.CreatedAt))
	if err != nil {
		return fmt.Errorf("inserting route: %w", err)
	}
	return nil
}

// pruneRoutes deletes every route whose stops are no longer adjacent.
func pruneRoutes(ctx context.Context, q queryer, tripID string) error {
	stops, err := loadStops(ctx, q, tripID)
	if err != nil {
		return err
	}
	next := make(map[int64]int64, len(stops))
	for i := 1; i < len(stops); i++ {
		next[stops[i-1].ID] = stops[i].ID
	}
	rows, err := q.QueryContext(ctx, "SELECT route_id, from_stop_id, to_stop_id FROM routes WHERE trip_id = ?", tripID)
	if err != nil {
		return fmt.Errorf("listing routes: %w", err)
	}
	var stale []string
	for rows.Next() {
		var (
			id       string
			from, to int64
		)
		if err := rows.Scan(&id, &from, &to); err != nil {
			rows.Close()
			return fmt.Errorf("scanning route: %w", err)
		}
		if n, ok := next[from]; !ok || n != to {
			stale = append(stale, id)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}
	for _, id := range stale {
		if _, err := q.ExecContext(ctx, "DELETE FROM routes WHERE route_id = ?", id); err != nil {
			return fmt.Errorf("deleting route: %w", err)
		}
	}
	return nil
}

func deleteRoutesTouching(ctx context.Context, q queryer, tripID string, stopID int64) error {
	_, err := q.ExecContext(ctx,
		"DELETE FROM routes WHERE trip_id = ? AND (from_stop_id = ? OR to_stop_id = ?)", tripID, stopID, stopID)
	if err != nil {
		return fmt.Errorf("deleting routes: %w", err)
	}
	return nil
}

// GenerateRoutes replaces every route of the trip with one segment per
// adjacent pair of stops travelled by mode.
func (s *Store) GenerateRoutes(ctx context.Context, tripID string, mode types.TransportMode) (*types.Trip, error) {
	if mode == "" {
		mode = types.ModeCar
	}
	if !mode.Valid() {
		return nil, invalid(types.ErrInvalidMode)
	}
	router := s.router
	if router == nil {
		router = routing.StraightLine{Mode: mode, Steps: generatedSteps}
	}
	return s.mutateTrip(ctx, tripID, func(tx *sql.Tx, t *types.Trip) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM routes WHERE trip_id = ?", tripID); err != nil {
			return fmt.Errorf("clearing routes: %w", err)
		}
		stops := t.OrderedStops()
		for i := 1; i < len(stops); i++ {
			from, to := stops[i-1], stops[i]
			res, err := router.Route(ctx, from.Position(), to.Position())
			if err != nil {
				s.logger.Warn("routing failed, storing straight segment",
					"from_stop", from.ID, "to_stop", to.ID, "error", err)
				res, err = routing.StraightLine{Mode: mode, Steps: generatedSteps}.Route(ctx, from.Position(), to.Position())
				if err != nil {
					return err
				}
			}
			seg := segmentFor(from, to, res, mode, t.UpdatedAt)
			if err := insertRoute(ctx, tx, tripID, &seg); err != nil {
				return err
			}
		}
		return nil
	})
}

func segmentFor(from, to types.Stop, res routing.Result, mode types.TransportMode, at time.Time) types.RouteSegment {
	coords := make([]types.Coordinate, len(res.Path))
	for i, p := range res.Path {
		coords[i] = types.CoordinateOf(p)
	}
	dist := res.Distance
	if dist == 0 {
		dist = geo.PathLength(res.Path)
	}
	dur := routing.EstimateDuration(dist, mode).Seconds()
	return types.RouteSegment{
		ID:                newID(),
		FromStopID:        from.ID,
		ToStopID:          to.ID,
		Coordinates:       coords,
		Distance:          math.Round(dist),
		EstimatedDuration: dur,
		TransportMode:     mode,
		Instructions: []types.RouteInstruction{{
			Instruction: "Head to " + to.Name,
			Distance:    math.Round(dist),
			Duration:    dur,
			Coordinates: types.CoordinateOf(to.Position()),
		}},
		CreatedAt: at,
	}
}

// OptimizeRoute reorders the stops by repeatedly visiting the nearest
// unvisited stop, starting from the first one.
func (s *Store) OptimizeRoute(ctx context.Context, tripID string) (*types.Trip, error) {
	return s.mutateTrip(ctx, tripID, func(tx *sql.Tx, t *types.Trip) error {
		return writeOrder(ctx, tx, tripID, nearestNeighbour(t.OrderedStops()))
	})
}

// nearestNeighbour returns a visiting order for stops that starts at the
// first stop and always continues to the closest unvisited one.
func nearestNeighbour(stops []types.Stop) []int64 {
	if len(stops) == 0 {
		return nil
	}
	visited := make([]bool, len(stops))
	order := []int64{stops[0].ID}
	visited[0] = true
	cur := stops[0].Position()
	for len(order) < len(stops) {
		best, bestDist := -1, math.Inf(1)
		for i, st := range stops {
			if visited[i] {
				continue
			}
			if d := geo.Distance(cur, st.Position()); d < bestDist {
				best, bestDist = i, d
			}
		}
		visited[best] = true
		order = append(order, stops[best].ID)
		cur = stops[best].Position()
	}
	return order
}

// computeStats derives the aggregate figures of a trip. Pairs without a
// stored route count as straight car travel.
func computeStats(t *types.Trip) types.TripStats {
	stops := t.OrderedStops()
	st := types.TripStats{
		StopCount:      len(stops),
		TransportModes: []types.TransportMode{},
	}
	var stopMinutes int
	var cost float64
	var hasCost bool
	for _, s := range stops {
		stopMinutes += s.EstimatedDuration
		if s.Cost != nil {
			cost += *s.Cost
			hasCost = true
		}
	}
	var travel time.Duration
	modes := map[types.TransportMode]bool{}
	for i := 1; i < len(stops); i++ {
		from, to := stops[i-1], stops[i]
		if r, ok := t.Route(from.ID, to.ID); ok {
			st.TotalDistance += r.Distance
			travel += time.Duration(r.EstimatedDuration * float64(time.Second))
			if !modes[r.TransportMode] {
				modes[r.TransportMode] = true
				st.TransportModes = append(st.TransportModes, r.TransportMode)
			}
			continue
		}
		d := geo.Distance(from.Position(), to.Position())
		st.TotalDistance += d
		travel += routing.EstimateDuration(d, types.ModeCar)
	}
	st.TotalDistance = math.Round(st.TotalDistance)
	st.EstimatedDuration = stopMinutes + int(math.Round(travel.Minutes()))
	if len(stops) > 0 {
		st.AverageStopDuration = float64(stopMinutes) / float64(len(stops))
	}
	if hasCost {
		st.EstimatedCost = &cost
	}
	st.DifficultyLevel = difficulty(st.TotalDistance, len(stops))
	return st
}

func difficulty(meters float64, stops int) types.Difficulty {
	switch {
	case meters < 20_000 && stops <= 5:
		return types.DifficultyEasy
	case meters < 100_000 && stops <= 10:
		return types.DifficultyModerate
	}
	return types.DifficultyChallenging
}
