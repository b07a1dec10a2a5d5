// This file holds persistence for schedules: CRUD used by admins, the
// public search, and the locked reads the booking flow performs inside its
// transaction.  A schedule is one train running one leg at one time with a
// fixed fare and seat pool.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"railbook/internal/model"
)

// ErrScheduleNotFound is returned when a schedule cannot be found in the DB.
var ErrScheduleNotFound = errors.New("schedule not found")

// ScheduleRepo manages persistence for schedules.
type ScheduleRepo struct {
	db *sql.DB
}

// NewScheduleRepo constructs a ScheduleRepo with the given DB handle.
func NewScheduleRepo(db *sql.DB) *ScheduleRepo { return &ScheduleRepo{db: db} }

// DB exposes the underlying sql.DB.  It allows callers to begin
// transactions spanning multiple repositories.
func (r *ScheduleRepo) DB() *sql.DB { return r.db }

// ScheduleDetail is a schedule joined with its train and station names for
// display in search results and booking responses.
type ScheduleDetail struct {
	ID               uint64  `json:"id"`
	TrainID          uint64  `json:"train_id"`
	TrainName        string  `json:"train_name"`
	TrainType        string  `json:"train_type"`
	DepartureStation string  `json:"departure_station"`
	ArrivalStation   string  `json:"arrival_station"`
	DepartsAt        string  `json:"departs_at"`
	ArrivesAt        string  `json:"arrives_at"`
	BaseFare         float64 `json:"base_fare"`
	AvailableSeats   int32   `json:"available_seats"`
	Status           string  `json:"status"`
}

// Create inserts a schedule, seeding available_seats from the owning
// train's capacity in the same transaction so the two can never disagree at
// creation time.  Returns ErrTrainNotFound when the train does not exist.
func (r *ScheduleRepo) Create(ctx context.Context, s *model.Schedule) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var capacity uint32
	err = tx.QueryRowContext(ctx, "SELECT capacity FROM trains WHERE id = ?", s.TrainID).Scan(&capacity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrTrainNotFound
		}
		return err
	}
	s.AvailableSeats = int32(capacity)
	s.Status = model.ScheduleScheduled

	const qInsert = `INSERT INTO schedules
		(train_id, departure_station_id, arrival_station_id, departs_at, arrives_at, base_fare, available_seats, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, qInsert,
		s.TrainID, s.DepartureStationID, s.ArrivalStationID,
		s.DepartsAt.UTC().Format("2006-01-02 15:04:05"), s.ArrivesAt.UTC().Format("2006-01-02 15:04:05"),
		s.BaseFare, s.AvailableSeats, s.Status)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	const qSelect = "SELECT created_at, updated_at FROM schedules WHERE id = ?"
	if err := tx.QueryRowContext(ctx, qSelect, s.ID).Scan(&s.CreatedAt, &s.UpdatedAt); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// GetByID fetches a raw schedule row.  Returns ErrScheduleNotFound when
// absent.
func (r *ScheduleRepo) GetByID(ctx context.Context, id uint64) (*model.Schedule, error) {
	const q = `SELECT id, train_id, departure_station_id, arrival_station_id, departs_at, arrives_at,
	                  base_fare, available_seats, status, created_at, updated_at
	           FROM schedules WHERE id = ?`
	var s model.Schedule
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&s.ID, &s.TrainID, &s.DepartureStationID, &s.ArrivalStationID, &s.DepartsAt, &s.ArrivesAt,
		&s.BaseFare, &s.AvailableSeats, &s.Status, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrScheduleNotFound
		}
		return nil, err
	}
	return &s, nil
}

// GetDetail fetches a schedule joined with train and station names.
func (r *ScheduleRepo) GetDetail(ctx context.Context, id uint64) (*ScheduleDetail, error) {
	const q = `SELECT s.id, s.train_id, t.name, t.type,
	                  ds.name, ar.name,
	                  s.departs_at, s.arrives_at, s.base_fare, s.available_seats, s.status
	           FROM schedules s
	           JOIN trains t ON t.id = s.train_id
	           JOIN stations ds ON ds.id = s.departure_station_id
	           JOIN stations ar ON ar.id = s.arrival_station_id
	           WHERE s.id = ?`
	var d ScheduleDetail
	var departs, arrives time.Time
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&d.ID, &d.TrainID, &d.TrainName, &d.TrainType,
		&d.DepartureStation, &d.ArrivalStation,
		&departs, &arrives, &d.BaseFare, &d.AvailableSeats, &d.Status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrScheduleNotFound
		}
		return nil, err
	}
	d.DepartsAt = departs.UTC().Format(time.RFC3339)
	d.ArrivesAt = arrives.UTC().Format(time.RFC3339)
	return &d, nil
}

// ScheduleSearchQuery defines filters & pagination for the public search.
// From/To match station name or code, Date restricts to a calendar day.
type ScheduleSearchQuery struct {
	From     string
	To       string
	Date     string // "2006-01-02"; empty means upcoming only
	Page     int
	PageSize int
}

// Search returns bookable-looking schedules matching the query along with
// the total match count for pagination.  Cancelled and past schedules are
// excluded unless an explicit date is given.
func (r *ScheduleRepo) Search(ctx context.Context, q ScheduleSearchQuery) ([]ScheduleDetail, int64, error) {
	where := []string{"s.status <> 'CANCELLED'"}
	args := []any{}

	if q.Date != "" {
		where = append(where, "DATE(s.departs_at) = ?")
		args = append(args, q.Date)
	} else {
		where = append(where, "s.departs_at >= NOW()")
	}
	if q.From != "" {
		where = append(where, "(LOWER(ds.name) LIKE ? OR LOWER(ds.code) = ?)")
		args = append(args, "%"+strings.ToLower(q.From)+"%", strings.ToLower(q.From))
	}
	if q.To != "" {
		where = append(where, "(LOWER(ar.name) LIKE ? OR LOWER(ar.code) = ?)")
		args = append(args, "%"+strings.ToLower(q.To)+"%", strings.ToLower(q.To))
	}
	cond := strings.Join(where, " AND ")

	countSQL := `SELECT COUNT(*)
		FROM schedules s
		JOIN stations ds ON ds.id = s.departure_station_id
		JOIN stations ar ON ar.id = s.arrival_station_id
		WHERE ` + cond
	var total int64
	if err := r.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := q.PageSize
	offset := (q.Page - 1) * q.PageSize

	dataSQL := `SELECT s.id, s.train_id, t.name, t.type,
			ds.name, ar.name,
			s.departs_at, s.arrives_at, s.base_fare, s.available_seats, s.status
		FROM schedules s
		JOIN trains t ON t.id = s.train_id
		JOIN stations ds ON ds.id = s.departure_station_id
		JOIN stations ar ON ar.id = s.arrival_station_id
		WHERE ` + cond + `
		ORDER BY s.departs_at ASC
		LIMIT ? OFFSET ?`
	argsData := append(append([]any{}, args...), limit, offset)

	rows, err := r.db.QueryContext(ctx, dataSQL, argsData...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out := make([]ScheduleDetail, 0, limit)
	for rows.Next() {
		var d ScheduleDetail
		var departs, arrives time.Time
		if err := rows.Scan(
			&d.ID, &d.TrainID, &d.TrainName, &d.TrainType,
			&d.DepartureStation, &d.ArrivalStation,
			&departs, &arrives, &d.BaseFare, &d.AvailableSeats, &d.Status,
		); err != nil {
			return nil, 0, err
		}
		d.DepartsAt = departs.UTC().Format(time.RFC3339)
		d.ArrivesAt = arrives.UTC().Format(time.RFC3339)
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// BookingView is the locked snapshot of a schedule the booking flow works
// from: fare and availability for the decision, capacity for seat scanning,
// display names for the response.
type BookingView struct {
	ScheduleID       uint64
	BaseFare         float64
	AvailableSeats   int32
	Status           string
	TrainCapacity    uint32
	TrainName        string
	DepartureStation string
	ArrivalStation   string
}

// LockForBookingTx reads a schedule row FOR UPDATE inside the caller's
// transaction, serializing concurrent bookings on the same schedule.
// Returns ErrScheduleNotFound when the schedule does not exist.
func (r *ScheduleRepo) LockForBookingTx(ctx context.Context, tx *sql.Tx, scheduleID uint64) (*BookingView, error) {
	const q = `SELECT s.id, s.base_fare, s.available_seats, s.status,
	                  t.capacity, t.name, ds.name, ar.name
	           FROM schedules s
	           JOIN trains t ON t.id = s.train_id
	           JOIN stations ds ON ds.id = s.departure_station_id
	           JOIN stations ar ON ar.id = s.arrival_station_id
	           WHERE s.id = ?
	           FOR UPDATE`
	var v BookingView
	err := tx.QueryRowContext(ctx, q, scheduleID).Scan(
		&v.ScheduleID, &v.BaseFare, &v.AvailableSeats, &v.Status,
		&v.TrainCapacity, &v.TrainName, &v.DepartureStation, &v.ArrivalStation)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrScheduleNotFound
		}
		return nil, err
	}
	return &v, nil
}

// DecrementSeatsTx takes one seat off a schedule's availability inside the
// caller's transaction.  The WHERE guard keeps available_seats from going
// negative even if the caller's earlier check was raced; zero rows affected
// means the schedule sold out between check and write.
func (r *ScheduleRepo) DecrementSeatsTx(ctx context.Context, tx *sql.Tx, scheduleID uint64) (bool, error) {
	const q = "UPDATE schedules SET available_seats = available_seats - 1 WHERE id = ? AND available_seats > 0"
	res, err := tx.ExecContext(ctx, q, scheduleID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// UpdateStatus sets a schedule's status and optionally shifts its times
// (used by the admin delay/status patch).  Nil time pointers leave the
// stored values untouched.
func (r *ScheduleRepo) UpdateStatus(ctx context.Context, id uint64, status string, departsAt, arrivesAt *time.Time) error {
	set := []string{"status = ?"}
	args := []any{status}
	if departsAt != nil {
		set = append(set, "departs_at = ?")
		args = append(args, departsAt.UTC().Format("2006-01-02 15:04:05"))
	}
	if arrivesAt != nil {
		set = append(set, "arrives_at = ?")
		args = append(args, arrivesAt.UTC().Format("2006-01-02 15:04:05"))
	}
	args = append(args, id)
	res, err := r.db.ExecContext(ctx, "UPDATE schedules SET "+strings.Join(set, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists bool
		if err := r.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM schedules WHERE id = ?)", id).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrScheduleNotFound
		}
	}
	return nil
}

// UpdateFare changes a schedule's base fare.  Existing reservations keep
// their snapshotted fare_amount; only future bookings see the new price.
func (r *ScheduleRepo) UpdateFare(ctx context.Context, id uint64, fare float64) error {
	res, err := r.db.ExecContext(ctx, "UPDATE schedules SET base_fare = ? WHERE id = ?", fare, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var exists bool
		if err := r.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM schedules WHERE id = ?)", id).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrScheduleNotFound
		}
	}
	return nil
}

// Delete removes a schedule.  Returns ErrConflict when reservations exist
// for it (cancelled ones included; they are retained for audit).
func (r *ScheduleRepo) Delete(ctx context.Context, id uint64) error {
	var reservations int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM reservations WHERE schedule_id = ?", id).Scan(&reservations); err != nil {
		return err
	}
	if reservations > 0 {
		return ErrConflict
	}
	res, err := r.db.ExecContext(ctx, "DELETE FROM schedules WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrScheduleNotFound
	}
	return nil
}

// Occupancy reports confirmed seats versus capacity for one schedule, used
// by the admin reporting endpoint.
type Occupancy struct {
	ScheduleID     uint64  `json:"schedule_id"`
	TrainName      string  `json:"train_name"`
	Capacity       uint32  `json:"capacity"`
	Confirmed      int64   `json:"confirmed"`
	Cancelled      int64   `json:"cancelled"`
	AvailableSeats int32   `json:"available_seats"`
	Revenue        float64 `json:"revenue"`
}

// GetOccupancy aggregates reservation counts and confirmed revenue for a
// schedule.
func (r *ScheduleRepo) GetOccupancy(ctx context.Context, id uint64) (*Occupancy, error) {
	const q = `SELECT s.id, t.name, t.capacity, s.available_seats,
	                  COALESCE(SUM(res.booking_status = 'CONFIRMED'), 0),
	                  COALESCE(SUM(res.booking_status = 'CANCELLED'), 0),
	                  COALESCE(SUM(IF(res.booking_status = 'CONFIRMED', res.fare_amount, 0)), 0)
	           FROM schedules s
	           JOIN trains t ON t.id = s.train_id
	           LEFT JOIN reservations res ON res.schedule_id = s.id
	           WHERE s.id = ?
	           GROUP BY s.id, t.name, t.capacity, s.available_seats`
	var o Occupancy
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&o.ScheduleID, &o.TrainName, &o.Capacity, &o.AvailableSeats,
		&o.Confirmed, &o.Cancelled, &o.Revenue)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrScheduleNotFound
		}
		return nil, err
	}
	return &o, nil
}
