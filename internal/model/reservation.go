package model

import "time"

// Reservation statuses.  CONFIRMED is the state produced by booking;
// CANCELLED is terminal.  WAITLISTED and COMPLETED are reachable only via
// admin status updates.
const (
	ReservationConfirmed  = "CONFIRMED"
	ReservationCancelled  = "CANCELLED"
	ReservationWaitlisted = "WAITLISTED"
	ReservationCompleted  = "COMPLETED"
)

// Reservation records a passenger's claim on one seat of one schedule, as
// stored in the `reservations` table.  Passenger name/age/gender and the
// fare are snapshots taken at booking time; they are never recomputed from
// later changes to the user profile or the schedule's base fare.  The
// booking reference is globally unique and immutable.
//
// Fields:
//
//	ID               - primary key identifier.
//	UserID           - account that made the booking.
//	ScheduleID       - schedule being booked.
//	SeatNumber       - seat label, unique per schedule among CONFIRMED rows.
//	BookingReference - public unique reference (e.g. TKT482913A1B2C3).
//	PassengerName    - passenger snapshot at booking time.
//	PassengerAge     - passenger snapshot at booking time.
//	PassengerGender  - passenger snapshot at booking time.
//	FareAmount       - schedule base fare snapshot at booking time.
//	BookingStatus    - one of the Reservation* constants above.
//	BookingDate      - immutable creation timestamp.
//	UpdatedAt        - last update timestamp.
type Reservation struct {
	ID               uint64    // reservations.id
	UserID           uint64    // reservations.user_id
	ScheduleID       uint64    // reservations.schedule_id
	SeatNumber       string    // reservations.seat_number
	BookingReference string    // reservations.booking_reference
	PassengerName    string    // reservations.passenger_name
	PassengerAge     uint8     // reservations.passenger_age
	PassengerGender  string    // reservations.passenger_gender
	FareAmount       float64   // reservations.fare_amount
	BookingStatus    string    // reservations.booking_status
	BookingDate      time.Time // reservations.booking_date
	UpdatedAt        time.Time // reservations.updated_at
}
