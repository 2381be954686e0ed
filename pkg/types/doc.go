// Package types defines the trip, stop, route and itinerary entities shared by
// the RouteNest client, its controllers and the development mock API, together
// with the request payloads of the REST API and the standard error values.
//
// JSON field names follow the wire format of the RouteNest REST API: trips and
// itineraries are keyed by "_id", stops by a numeric "id", and route geometry
// is a list of [lng, lat] pairs.
package types
