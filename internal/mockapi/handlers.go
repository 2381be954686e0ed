package mockapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/harrysoftwarecorp/route-nest/pkg/types"
)

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.health)

	mux.HandleFunc("GET /api/trips", s.listTrips)
	mux.HandleFunc("POST /api/trips", s.createTrip)
	mux.HandleFunc("GET /api/trips/search", s.searchTrips)
	mux.HandleFunc("GET /api/trips/popular", s.popularTrips)
	mux.HandleFunc("GET /api/trips/{id}", s.getTrip)
	mux.HandleFunc("PUT /api/trips/{id}", s.updateTrip)
	mux.HandleFunc("DELETE /api/trips/{id}", s.deleteTrip)
	mux.HandleFunc("POST /api/trips/{id}/fork", s.forkTrip)
	mux.HandleFunc("POST /api/trips/{id}/share", s.shareTrip)

	mux.HandleFunc("POST /api/trips/{id}/stops", s.addStop)
	mux.HandleFunc("PUT /api/trips/{id}/stops/reorder", s.reorderStops)
	mux.HandleFunc("PUT /api/trips/{id}/stops/{stopId}", s.updateStop)
	mux.HandleFunc("DELETE /api/trips/{id}/stops/{stopId}", s.deleteStop)
	mux.HandleFunc("PATCH /api/trips/{id}/stops/{stopId}/status", s.setStopStatus)

	mux.HandleFunc("POST /api/trips/{id}/routes/generate", s.generateRoutes)
	mux.HandleFunc("POST /api/trips/{id}/routes/optimize", s.optimizeRoute)

	mux.HandleFunc("GET /api/shared/{token}", s.sharedTrip)

	mux.HandleFunc("GET /api/itineraries", s.listItineraries)
	mux.HandleFunc("POST /api/itineraries", s.createItinerary)
	mux.HandleFunc("POST /api/itineraries/{id}/trips", s.addTripToItinerary)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DB().PingContext(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// mutated records a successful write.
func (s *Server) mutated(action string) {
	if s.metrics != nil {
		s.metrics.Mutation(action)
	}
}

// respondTrip answers a trip-returning mutation.
func (s *Server) respondTrip(w http.ResponseWriter, r *http.Request, action string, status int, t *types.Trip, err error) {
	if err != nil {
		fail(w, r, err)
		return
	}
	s.mutated(action)
	writeJSON(w, status, t)
}

var (
	errBadStopID   = errors.New("stop id must be a positive integer")
	errMissingTrip = errors.New("tripId is required")
	errBadLimit    = errors.New("limit must be a non-negative integer")
)

func stopID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("stopId"), 10, 64)
	if err != nil || id <= 0 {
		return 0, invalid(errBadStopID)
	}
	return id, nil
}

func (s *Server) listTrips(w http.ResponseWriter, r *http.Request) {
	trips, err := s.store.ListTrips(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, trips)
}

func (s *Server) getTrip(w http.ResponseWriter, r *http.Request) {
	t, err := s.store.GetTrip(r.Context(), r.PathValue("id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) createTrip(w http.ResponseWriter, r *http.Request) {
	var req types.CreateTripRequest
	if err := decode(r, &req, false); err != nil {
		fail(w, r, err)
		return
	}
	t, err := s.store.CreateTrip(r.Context(), req)
	s.respondTrip(w, r, "create_trip", http.StatusCreated, t, err)
}

func (s *Server) updateTrip(w http.ResponseWriter, r *http.Request) {
	var req types.UpdateTripRequest
	if err := decode(r, &req, false); err != nil {
		fail(w, r, err)
		return
	}
	t, err := s.store.UpdateTrip(r.Context(), r.PathValue("id"), req)
	s.respondTrip(w, r, "update_trip", http.StatusOK, t, err)
}

func (s *Server) deleteTrip(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteTrip(r.Context(), r.PathValue("id")); err != nil {
		fail(w, r, err)
		return
	}
	s.mutated("delete_trip")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) forkTrip(w http.ResponseWriter, r *http.Request) {
	t, err := s.store.ForkTrip(r.Context(), r.PathValue("id"))
	s.respondTrip(w, r, "fork_trip", http.StatusCreated, t, err)
}

func (s *Server) shareTrip(w http.ResponseWriter, r *http.Request) {
	link, err := s.store.CreateShare(r.Context(), r.PathValue("id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	s.mutated("share_trip")
	writeJSON(w, http.StatusCreated, link)
}

func (s *Server) sharedTrip(w http.ResponseWriter, r *http.Request) {
	t, err := s.store.SharedTrip(r.Context(), r.PathValue("token"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) searchTrips(w http.ResponseWriter, r *http.Request) {
	p, err := types.ParseSearchParams(r.URL.Query())
	if err != nil {
		fail(w, r, invalid(err))
		return
	}
	trips, err := s.store.SearchTrips(r.Context(), p)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, trips)
}

func (s *Server) popularTrips(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p, err := types.ParseSearchParams(q)
	if err != nil || p.Lat == nil {
		fail(w, r, invalid(types.ErrInvalidCoordinates))
		return
	}
	limit := 0
	if v := q.Get("limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil || limit < 0 {
			fail(w, r, invalid(errBadLimit))
			return
		}
	}
	trips, err := s.store.PopularTrips(r.Context(), types.LatLng{Lat: *p.Lat, Lng: *p.Lng}, limit)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, trips)
}

func (s *Server) addStop(w http.ResponseWriter, r *http.Request) {
	var req types.AddStopRequest
	if err := decode(r, &req, false); err != nil {
		fail(w, r, err)
		return
	}
	t, err := s.store.AddStop(r.Context(), r.PathValue("id"), req)
	s.respondTrip(w, r, "add_stop", http.StatusCreated, t, err)
}

func (s *Server) updateStop(w http.ResponseWriter, r *http.Request) {
	id, err := stopID(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	var req types.UpdateStopRequest
	if err := decode(r, &req, false); err != nil {
		fail(w, r, err)
		return
	}
	req.ID = id
	t, err := s.store.UpdateStop(r.Context(), r.PathValue("id"), req)
	s.respondTrip(w, r, "update_stop", http.StatusOK, t, err)
}

func (s *Server) deleteStop(w http.ResponseWriter, r *http.Request) {
	id, err := stopID(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	t, err := s.store.DeleteStop(r.Context(), r.PathValue("id"), id)
	s.respondTrip(w, r, "delete_stop", http.StatusOK, t, err)
}

func (s *Server) reorderStops(w http.ResponseWriter, r *http.Request) {
	var req types.ReorderStopsRequest
	if err := decode(r, &req, false); err != nil {
		fail(w, r, err)
		return
	}
	t, err := s.store.ReorderStops(r.Context(), r.PathValue("id"), req.StopIDs)
	s.respondTrip(w, r, "reorder_stops", http.StatusOK, t, err)
}

func (s *Server) setStopStatus(w http.ResponseWriter, r *http.Request) {
	id, err := stopID(r)
	if err != nil {
		fail(w, r, err)
		return
	}
	var req types.StopStatusRequest
	if err := decode(r, &req, false); err != nil {
		fail(w, r, err)
		return
	}
	t, err := s.store.SetStopStatus(r.Context(), r.PathValue("id"), id, req)
	s.respondTrip(w, r, "set_stop_status", http.StatusOK, t, err)
}

func (s *Server) generateRoutes(w http.ResponseWriter, r *http.Request) {
	var req types.GenerateRoutesRequest
	if err := decode(r, &req, true); err != nil {
		fail(w, r, err)
		return
	}
	t, err := s.store.GenerateRoutes(r.Context(), r.PathValue("id"), req.TransportMode)
	s.respondTrip(w, r, "generate_routes", http.StatusOK, t, err)
}

func (s *Server) optimizeRoute(w http.ResponseWriter, r *http.Request) {
	t, err := s.store.OptimizeRoute(r.Context(), r.PathValue("id"))
	s.respondTrip(w, r, "optimize_route", http.StatusOK, t, err)
}

func (s *Server) listItineraries(w http.ResponseWriter, r *http.Request) {
	its, err := s.store.ListItineraries(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, its)
}

func (s *Server) createItinerary(w http.ResponseWriter, r *http.Request) {
	var req types.CreateItineraryRequest
	if err := decode(r, &req, false); err != nil {
		fail(w, r, err)
		return
	}
	it, err := s.store.CreateItinerary(r.Context(), req)
	if err != nil {
		fail(w, r, err)
		return
	}
	s.mutated("create_itinerary")
	writeJSON(w, http.StatusCreated, it)
}

func (s *Server) addTripToItinerary(w http.ResponseWriter, r *http.Request) {
	var req types.AddTripToItineraryRequest
	if err := decode(r, &req, false); err != nil {
		fail(w, r, err)
		return
	}
	if req.TripID == "" {
		fail(w, r, invalid(errMissingTrip))
		return
	}
	it, err := s.store.AddTripToItinerary(r.Context(), r.PathValue("id"), req.TripID)
	if err != nil {
		fail(w, r, err)
		return
	}
	s.mutated("add_trip_to_itinerary")
	writeJSON(w, http.StatusOK, it)
}
