package model

import "time"

// Train statuses.
const (
	TrainActive      = "ACTIVE"
	TrainInactive    = "INACTIVE"
	TrainMaintenance = "MAINTENANCE"
)

// Train represents a physical train as stored in the `trains` table.  Each
// train is assigned to a route and carries a fixed seat capacity that caps
// available_seats on every schedule it runs.
//
// Fields:
//
//	ID        - primary key identifier.
//	Name      - display name of the train.
//	Type      - train category (e.g. EXPRESS, LOCAL).
//	Capacity  - total number of seats; always > 0.
//	Status    - ACTIVE, INACTIVE or MAINTENANCE.
//	RouteID   - route the train operates on.
//	CreatedAt - creation timestamp.
//	UpdatedAt - last update timestamp.
type Train struct {
	ID        uint64    // trains.id
	Name      string    // trains.name
	Type      string    // trains.type
	Capacity  uint32    // trains.capacity
	Status    string    // trains.status
	RouteID   uint64    // trains.route_id
	CreatedAt time.Time // trains.created_at
	UpdatedAt time.Time // trains.updated_at
}
