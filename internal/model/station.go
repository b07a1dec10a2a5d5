package model

import "time"

// Station represents a railway station as stored in the `stations` table.
// Stations are referenced by routes and schedules and are immutable once
// referenced except through explicit admin edits.
//
// Fields:
//
//	ID        - primary key identifier.
//	Name      - display name of the station.
//	Code      - unique short code (e.g. "NDLS").
//	City      - city the station belongs to.
//	CreatedAt - creation timestamp.
//	UpdatedAt - last update timestamp.
type Station struct {
	ID        uint64    // stations.id
	Name      string    // stations.name
	Code      string    // stations.code
	City      string    // stations.city
	CreatedAt time.Time // stations.created_at
	UpdatedAt time.Time // stations.updated_at
}
