package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"railbook/internal/model"
)

// ErrReservationNotFound is returned when a reservation cannot be found.
var ErrReservationNotFound = errors.New("reservation not found")

// ReservationRepo provides persistence for reservations.  Rows are never
// hard-deleted; cancellation is a status transition and cancelled rows are
// retained for audit.  All timestamp fields are stored in UTC.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// DB exposes the underlying sql.DB for callers that need transactions
// spanning multiple repositories.
func (r *ReservationRepo) DB() *sql.DB { return r.db }

// InsertTx inserts a reservation within the caller's transaction and
// populates the generated ID and timestamps on the record.  The unique keys
// on booking_reference and on (schedule_id, confirmed seat) are the final
// guard against duplicate references and double-booked seats; violations
// surface as MySQL 1062 errors for the caller to classify.
func (r *ReservationRepo) InsertTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
	const q = `INSERT INTO reservations
		(user_id, schedule_id, seat_number, booking_reference, passenger_name, passenger_age, passenger_gender, fare_amount, booking_status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := tx.ExecContext(ctx, q,
		res.UserID, res.ScheduleID, res.SeatNumber, res.BookingReference,
		res.PassengerName, res.PassengerAge, res.PassengerGender, res.FareAmount, res.BookingStatus)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)
	const sel = "SELECT booking_date, updated_at FROM reservations WHERE id = ?"
	return tx.QueryRowContext(ctx, sel, res.ID).Scan(&res.BookingDate, &res.UpdatedAt)
}

// ReferenceExistsTx reports whether a booking reference is already taken.
// Used by the identifier generator's collision pre-check; the unique
// constraint remains the authoritative guard at insert time.
func (r *ReservationRepo) ReferenceExistsTx(ctx context.Context, tx *sql.Tx, ref string) (bool, error) {
	var exists bool
	err := tx.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM reservations WHERE booking_reference = ?)", ref).Scan(&exists)
	return exists, err
}

// TakenSeatsTx returns the set of seat labels held by CONFIRMED
// reservations on a schedule, read inside the caller's transaction so the
// scan is consistent with the schedule row lock.
func (r *ReservationRepo) TakenSeatsTx(ctx context.Context, tx *sql.Tx, scheduleID uint64) (map[string]struct{}, error) {
	const q = "SELECT seat_number FROM reservations WHERE schedule_id = ? AND booking_status = 'CONFIRMED'"
	rows, err := tx.QueryContext(ctx, q, scheduleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	taken := make(map[string]struct{})
	for rows.Next() {
		var seat string
		if err := rows.Scan(&seat); err != nil {
			return nil, err
		}
		taken[seat] = struct{}{}
	}
	return taken, rows.Err()
}

// GetForUpdateTx loads the fields cancellation and payment validation need,
// locking the row for the remainder of the transaction.  Returns
// ErrReservationNotFound when the row does not exist.
func (r *ReservationRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Reservation, error) {
	const q = `SELECT id, user_id, schedule_id, seat_number, booking_reference, fare_amount, booking_status
	           FROM reservations WHERE id = ? FOR UPDATE`
	var res model.Reservation
	err := tx.QueryRowContext(ctx, q, id).Scan(
		&res.ID, &res.UserID, &res.ScheduleID, &res.SeatNumber,
		&res.BookingReference, &res.FareAmount, &res.BookingStatus)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}
	return &res, nil
}

// SetStatusTx updates a reservation's booking_status within the caller's
// transaction.
func (r *ReservationRepo) SetStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status string) error {
	_, err := tx.ExecContext(ctx, "UPDATE reservations SET booking_status = ? WHERE id = ?", status, id)
	return err
}

// ReservationDetail is a reservation joined with schedule, train and
// station display fields, returned to passengers and admins.
type ReservationDetail struct {
	ID               uint64  `json:"reservation_id"`
	BookingReference string  `json:"booking_reference"`
	PassengerName    string  `json:"passenger_name"`
	PassengerAge     uint8   `json:"passenger_age"`
	PassengerGender  string  `json:"passenger_gender"`
	SeatNumber       string  `json:"seat_number"`
	FareAmount       float64 `json:"fare_amount"`
	BookingStatus    string  `json:"booking_status"`
	BookingDate      string  `json:"booking_date"`
	ScheduleID       uint64  `json:"schedule_id"`
	TrainName        string  `json:"train_name"`
	DepartureStation string  `json:"departure_station"`
	ArrivalStation   string  `json:"arrival_station"`
	DepartsAt        string  `json:"departs_at"`
	UserID           uint64  `json:"user_id,omitempty"`
}

const reservationDetailSelect = `SELECT r.id, r.booking_reference, r.passenger_name, r.passenger_age, r.passenger_gender,
	       r.seat_number, r.fare_amount, r.booking_status, r.booking_date,
	       r.schedule_id, t.name, ds.name, ar.name, s.departs_at, r.user_id
	FROM reservations r
	JOIN schedules s ON s.id = r.schedule_id
	JOIN trains t ON t.id = s.train_id
	JOIN stations ds ON ds.id = s.departure_station_id
	JOIN stations ar ON ar.id = s.arrival_station_id`

func scanReservationDetail(row interface {
	Scan(dest ...any) error
}) (*ReservationDetail, error) {
	var d ReservationDetail
	var bookingDate, departsAt time.Time
	err := row.Scan(
		&d.ID, &d.BookingReference, &d.PassengerName, &d.PassengerAge, &d.PassengerGender,
		&d.SeatNumber, &d.FareAmount, &d.BookingStatus, &bookingDate,
		&d.ScheduleID, &d.TrainName, &d.DepartureStation, &d.ArrivalStation, &departsAt, &d.UserID)
	if err != nil {
		return nil, err
	}
	d.BookingDate = bookingDate.UTC().Format(time.RFC3339)
	d.DepartsAt = departsAt.UTC().Format(time.RFC3339)
	return &d, nil
}

// GetDetail returns a reservation's display detail regardless of owner.
func (r *ReservationRepo) GetDetail(ctx context.Context, id uint64) (*ReservationDetail, error) {
	d, err := scanReservationDetail(r.db.QueryRowContext(ctx, reservationDetailSelect+" WHERE r.id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}
	return d, nil
}

// GetDetailForUser returns a reservation's display detail, restricted to
// the owning user.  Ownership is enforced in the query itself so a foreign
// reservation is indistinguishable from a missing one.
func (r *ReservationRepo) GetDetailForUser(ctx context.Context, id, userID uint64) (*ReservationDetail, error) {
	d, err := scanReservationDetail(r.db.QueryRowContext(ctx,
		reservationDetailSelect+" WHERE r.id = ? AND r.user_id = ?", id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}
	return d, nil
}

// ListByUser returns all reservations for a user, newest first.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID uint64) ([]ReservationDetail, error) {
	return r.list(ctx, " WHERE r.user_id = ? ORDER BY r.booking_date DESC", userID)
}

// ListBySchedule returns all reservations on a schedule, newest first.
// Used by admin views; includes user IDs.
func (r *ReservationRepo) ListBySchedule(ctx context.Context, scheduleID uint64) ([]ReservationDetail, error) {
	return r.list(ctx, " WHERE r.schedule_id = ? ORDER BY r.booking_date DESC", scheduleID)
}

func (r *ReservationRepo) list(ctx context.Context, tail string, arg any) ([]ReservationDetail, error) {
	rows, err := r.db.QueryContext(ctx, reservationDetailSelect+tail, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]ReservationDetail, 0)
	for rows.Next() {
		d, err := scanReservationDetail(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

// BookingReport aggregates reservation counts by status and confirmed
// revenue over a closed date range.
type BookingReport struct {
	From     string           `json:"from"`
	To       string           `json:"to"`
	ByStatus map[string]int64 `json:"by_status"`
	Revenue  float64          `json:"revenue"`
	Total    int64            `json:"total"`
}

// Report builds a BookingReport for bookings whose booking_date falls in
// [from, to).
func (r *ReservationRepo) Report(ctx context.Context, from, to time.Time) (*BookingReport, error) {
	const q = `SELECT booking_status, COUNT(*), COALESCE(SUM(IF(booking_status IN ('CONFIRMED','COMPLETED'), fare_amount, 0)), 0)
	           FROM reservations
	           WHERE booking_date >= ? AND booking_date < ?
	           GROUP BY booking_status`
	rows, err := r.db.QueryContext(ctx, q,
		from.UTC().Format("2006-01-02 15:04:05"), to.UTC().Format("2006-01-02 15:04:05"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	rep := &BookingReport{
		From:     from.UTC().Format(time.RFC3339),
		To:       to.UTC().Format(time.RFC3339),
		ByStatus: make(map[string]int64),
	}
	for rows.Next() {
		var status string
		var count int64
		var revenue float64
		if err := rows.Scan(&status, &count, &revenue); err != nil {
			return nil, err
		}
		rep.ByStatus[status] = count
		rep.Total += count
		rep.Revenue += revenue
	}
	return rep, rows.Err()
}
