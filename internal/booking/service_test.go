package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"railbook/internal/model"
	"railbook/internal/repository"
)

func newServiceWithMock(t *testing.T) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	svc := NewService(
		repository.NewScheduleRepo(db),
		repository.NewReservationRepo(db),
		repository.NewPaymentRepo(db),
	)
	return svc, mock
}

func lockRows(fare float64, seats int32, status string, capacity uint32) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "base_fare", "available_seats", "status", "capacity", "train", "dep", "arr"}).
		AddRow(12, fare, seats, status, capacity, "Coastal Express", "Central", "Harbor")
}

func existsRow(v bool) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"exists"}).AddRow(v)
}

func TestCreateReservationAssignsLowestFreeSeat(t *testing.T) {
	svc, mock := newServiceWithMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WithArgs(uint64(12)).
		WillReturnRows(lockRows(550, 3, model.ScheduleScheduled, 10))
	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM reservations WHERE booking_reference`).
		WillReturnRows(existsRow(false))
	mock.ExpectQuery("SELECT seat_number FROM reservations").WithArgs(uint64(12)).
		WillReturnRows(sqlmock.NewRows([]string{"seat_number"}).AddRow("S1").AddRow("S2"))
	mock.ExpectExec("INSERT INTO reservations").
		WillReturnResult(sqlmock.NewResult(77, 1))
	mock.ExpectQuery("SELECT booking_date, updated_at FROM reservations").WithArgs(uint64(77)).
		WillReturnRows(sqlmock.NewRows([]string{"booking_date", "updated_at"}).
			AddRow(time.Now(), time.Now()))
	mock.ExpectExec("UPDATE schedules SET available_seats").WithArgs(uint64(12)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	d, err := svc.CreateReservation(context.Background(), CreateReservationInput{
		UserID:          7,
		ScheduleID:      12,
		PassengerName:   "Asha Rao",
		PassengerAge:    31,
		PassengerGender: "FEMALE",
	})
	require.NoError(t, err)
	assert.Equal(t, "S3", d.SeatNumber)
	assert.Equal(t, 550.0, d.FareAmount)
	assert.Equal(t, model.ReservationConfirmed, d.BookingStatus)
	assert.Regexp(t, `^TKT\d{6}[0-9A-F]{6}$`, d.BookingReference)
	assert.Equal(t, "Coastal Express", d.TrainName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateReservationSnapshotsFare(t *testing.T) {
	svc, mock := newServiceWithMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WithArgs(uint64(12)).
		WillReturnRows(lockRows(1249.99, 5, model.ScheduleDelayed, 20))
	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM reservations WHERE booking_reference`).
		WillReturnRows(existsRow(false))
	mock.ExpectExec("INSERT INTO reservations").
		WillReturnResult(sqlmock.NewResult(5, 1))
	mock.ExpectQuery("SELECT booking_date, updated_at FROM reservations").
		WillReturnRows(sqlmock.NewRows([]string{"booking_date", "updated_at"}).
			AddRow(time.Now(), time.Now()))
	mock.ExpectExec("UPDATE schedules SET available_seats").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	d, err := svc.CreateReservation(context.Background(), CreateReservationInput{
		UserID:          3,
		ScheduleID:      12,
		PassengerName:   "Dev Mehta",
		PassengerAge:    45,
		PassengerGender: "MALE",
		SeatNumber:      "S14",
	})
	require.NoError(t, err)
	assert.Equal(t, "S14", d.SeatNumber)
	assert.Equal(t, 1249.99, d.FareAmount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateReservationScheduleNotFound(t *testing.T) {
	svc, mock := newServiceWithMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WithArgs(uint64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	_, err := svc.CreateReservation(context.Background(), CreateReservationInput{
		UserID: 7, ScheduleID: 99, PassengerName: "X", PassengerAge: 30, PassengerGender: "OTHER",
	})
	assert.ErrorIs(t, err, repository.ErrScheduleNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateReservationNotBookable(t *testing.T) {
	svc, mock := newServiceWithMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WithArgs(uint64(12)).
		WillReturnRows(lockRows(550, 3, model.ScheduleCancelled, 10))
	mock.ExpectRollback()

	_, err := svc.CreateReservation(context.Background(), CreateReservationInput{
		UserID: 7, ScheduleID: 12, PassengerName: "X", PassengerAge: 30, PassengerGender: "MALE",
	})
	assert.ErrorIs(t, err, ErrNotBookable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateReservationSoldOutAtLock(t *testing.T) {
	svc, mock := newServiceWithMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WithArgs(uint64(12)).
		WillReturnRows(lockRows(550, 0, model.ScheduleScheduled, 10))
	mock.ExpectRollback()

	_, err := svc.CreateReservation(context.Background(), CreateReservationInput{
		UserID: 7, ScheduleID: 12, PassengerName: "X", PassengerAge: 30, PassengerGender: "MALE",
	})
	assert.ErrorIs(t, err, ErrSoldOut)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateReservationSeatTaken(t *testing.T) {
	svc, mock := newServiceWithMock(t)

	dup := errors.New("Error 1062 (23000): Duplicate entry '12-S5' for key 'reservations.uq_schedule_seat'")

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WithArgs(uint64(12)).
		WillReturnRows(lockRows(550, 3, model.ScheduleScheduled, 10))
	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM reservations WHERE booking_reference`).
		WillReturnRows(existsRow(false))
	mock.ExpectExec("INSERT INTO reservations").WillReturnError(dup)
	mock.ExpectRollback()

	_, err := svc.CreateReservation(context.Background(), CreateReservationInput{
		UserID: 7, ScheduleID: 12, PassengerName: "X", PassengerAge: 30,
		PassengerGender: "MALE", SeatNumber: "S5",
	})
	assert.ErrorIs(t, err, ErrSeatTaken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateReservationDecrementRaced(t *testing.T) {
	svc, mock := newServiceWithMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WithArgs(uint64(12)).
		WillReturnRows(lockRows(550, 1, model.ScheduleScheduled, 10))
	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM reservations WHERE booking_reference`).
		WillReturnRows(existsRow(false))
	mock.ExpectExec("INSERT INTO reservations").
		WillReturnResult(sqlmock.NewResult(5, 1))
	mock.ExpectQuery("SELECT booking_date, updated_at FROM reservations").
		WillReturnRows(sqlmock.NewRows([]string{"booking_date", "updated_at"}).
			AddRow(time.Now(), time.Now()))
	// Zero rows affected: the availability guard refused to go negative.
	mock.ExpectExec("UPDATE schedules SET available_seats").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := svc.CreateReservation(context.Background(), CreateReservationInput{
		UserID: 7, ScheduleID: 12, PassengerName: "X", PassengerAge: 30,
		PassengerGender: "MALE", SeatNumber: "S9",
	})
	assert.ErrorIs(t, err, ErrSoldOut)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func reservationLockRows(userID uint64, status string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "user_id", "schedule_id", "seat_number", "booking_reference", "fare_amount", "booking_status"}).
		AddRow(44, userID, 12, "S3", "TKT123456ABCDEF", 550.0, status)
}

func TestCancelReservationDoesNotRestoreSeats(t *testing.T) {
	svc, mock := newServiceWithMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WithArgs(uint64(44)).
		WillReturnRows(reservationLockRows(7, model.ReservationConfirmed))
	// Only the reservation row changes.  No UPDATE against schedules is
	// expected: a cancelled seat stays spent.
	mock.ExpectExec("UPDATE reservations SET booking_status").
		WithArgs(model.ReservationCancelled, uint64(44)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := svc.CancelReservation(context.Background(), 44, 7, false)
	require.NoError(t, err)
	assert.Equal(t, model.ReservationCancelled, res.BookingStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelReservationForeignOwner(t *testing.T) {
	svc, mock := newServiceWithMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WithArgs(uint64(44)).
		WillReturnRows(reservationLockRows(7, model.ReservationConfirmed))
	mock.ExpectRollback()

	_, err := svc.CancelReservation(context.Background(), 44, 99, false)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelReservationAdminBypassesOwnership(t *testing.T) {
	svc, mock := newServiceWithMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WithArgs(uint64(44)).
		WillReturnRows(reservationLockRows(7, model.ReservationConfirmed))
	mock.ExpectExec("UPDATE reservations SET booking_status").
		WithArgs(model.ReservationCancelled, uint64(44)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := svc.CancelReservation(context.Background(), 44, 0, true)
	require.NoError(t, err)
	assert.Equal(t, model.ReservationCancelled, res.BookingStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCancelReservationAlreadyCancelled(t *testing.T) {
	svc, mock := newServiceWithMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WithArgs(uint64(44)).
		WillReturnRows(reservationLockRows(7, model.ReservationCancelled))
	mock.ExpectRollback()

	_, err := svc.CancelReservation(context.Background(), 44, 7, false)
	assert.ErrorIs(t, err, ErrAlreadyCancelled)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateReservationStatusValidTransition(t *testing.T) {
	svc, mock := newServiceWithMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WithArgs(uint64(44)).
		WillReturnRows(reservationLockRows(7, model.ReservationWaitlisted))
	mock.ExpectExec("UPDATE reservations SET booking_status").
		WithArgs(model.ReservationConfirmed, uint64(44)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := svc.UpdateReservationStatus(context.Background(), 44, model.ReservationConfirmed)
	require.NoError(t, err)
	assert.Equal(t, model.ReservationConfirmed, res.BookingStatus)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateReservationStatusOutOfCancelled(t *testing.T) {
	svc, mock := newServiceWithMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WithArgs(uint64(44)).
		WillReturnRows(reservationLockRows(7, model.ReservationCancelled))
	mock.ExpectRollback()

	_, err := svc.UpdateReservationStatus(context.Background(), 44, model.ReservationConfirmed)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckBookable(t *testing.T) {
	svc, mock := newServiceWithMock(t)

	detail := sqlmock.NewRows([]string{"id", "train_id", "train", "type", "dep", "arr", "departs", "arrives", "fare", "seats", "status"}).
		AddRow(12, 3, "Coastal Express", "EXPRESS", "Central", "Harbor",
			time.Now().Add(2*time.Hour), time.Now().Add(6*time.Hour), 550.0, int32(4), model.ScheduleScheduled)
	mock.ExpectQuery("JOIN trains t ON").WithArgs(uint64(12)).WillReturnRows(detail)

	d, err := svc.CheckBookable(context.Background(), 12)
	require.NoError(t, err)
	assert.EqualValues(t, 4, d.AvailableSeats)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckBookableDeparted(t *testing.T) {
	svc, mock := newServiceWithMock(t)

	detail := sqlmock.NewRows([]string{"id", "train_id", "train", "type", "dep", "arr", "departs", "arrives", "fare", "seats", "status"}).
		AddRow(12, 3, "Coastal Express", "EXPRESS", "Central", "Harbor",
			time.Now(), time.Now(), 550.0, int32(4), model.ScheduleDeparted)
	mock.ExpectQuery("JOIN trains t ON").WithArgs(uint64(12)).WillReturnRows(detail)

	_, err := svc.CheckBookable(context.Background(), 12)
	assert.ErrorIs(t, err, ErrNotBookable)
	assert.NoError(t, mock.ExpectationsWereMet())
}
