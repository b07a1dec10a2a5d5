package model

import "time"

// Schedule statuses.  Only SCHEDULED and DELAYED schedules accept bookings.
const (
	ScheduleScheduled = "SCHEDULED"
	ScheduleDeparted  = "DEPARTED"
	ScheduleArrived   = "ARRIVED"
	ScheduleCancelled = "CANCELLED"
	ScheduleDelayed   = "DELAYED"
)

// Schedule represents one train running one leg at one departure time, as
// stored in the `schedules` table.  Departure and arrival stations
// must differ and ArrivesAt must be after DepartsAt.  AvailableSeats never
// exceeds the train's capacity and never goes negative; it is mutated only
// by successful reservation creation.
//
// Fields:
//
//	ID                 - primary key identifier.
//	TrainID            - train running this schedule.
//	DepartureStationID - station the leg departs from.
//	ArrivalStationID   - station the leg arrives at.
//	DepartsAt          - departure timestamp.
//	ArrivesAt          - arrival timestamp (after DepartsAt).
//	BaseFare           - fare per seat; snapshotted onto reservations.
//	AvailableSeats     - seats still bookable on this schedule.
//	Status             - one of the Schedule* constants above.
//	CreatedAt          - creation timestamp.
//	UpdatedAt          - last update timestamp.
type Schedule struct {
	ID                 uint64    // schedules.id
	TrainID            uint64    // schedules.train_id
	DepartureStationID uint64    // schedules.departure_station_id
	ArrivalStationID   uint64    // schedules.arrival_station_id
	DepartsAt          time.Time // schedules.departs_at
	ArrivesAt          time.Time // schedules.arrives_at
	BaseFare           float64   // schedules.base_fare
	AvailableSeats     int32     // schedules.available_seats
	Status             string    // schedules.status
	CreatedAt          time.Time // schedules.created_at
	UpdatedAt          time.Time // schedules.updated_at
}

// Bookable reports whether the schedule's status admits new reservations.
// Seat availability is checked separately.
func (s *Schedule) Bookable() bool {
	return s.Status == ScheduleScheduled || s.Status == ScheduleDelayed
}
