package model

import "time"

// Route represents a named railway line as stored in the `routes` table.
// The ordered sequence of stations served by the route lives in the
// `route_stations` association table, not on the station rows themselves.
//
// Fields:
//
//	ID        - primary key identifier.
//	Name      - display name of the route.
//	Code      - unique short code.
//	CreatedAt - creation timestamp.
//	UpdatedAt - last update timestamp.
type Route struct {
	ID        uint64    // routes.id
	Name      string    // routes.name
	Code      string    // routes.code
	CreatedAt time.Time // routes.created_at
	UpdatedAt time.Time // routes.updated_at
}

// RouteStation is one ordered stop on a route.  StopSequence starts at 1
// and is unique within a route; DistanceKM is the cumulative distance from
// the route's first stop.
type RouteStation struct {
	RouteID      uint64  // route_stations.route_id
	StationID    uint64  // route_stations.station_id
	StopSequence uint32  // route_stations.stop_sequence
	DistanceKM   float64 // route_stations.distance_km
}
