package booking

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"railbook/internal/model"
	"railbook/internal/repository"
)

// Service coordinates the booking flows.  It owns no state beyond the
// injected repositories; all coordination between concurrent requests is
// delegated to the database's row locks and unique constraints.
type Service struct {
	db           *sql.DB
	schedules    *repository.ScheduleRepo
	reservations *repository.ReservationRepo
	payments     *repository.PaymentRepo
}

// NewService constructs the booking service.  All dependencies must be
// non-nil.
func NewService(schedules *repository.ScheduleRepo, reservations *repository.ReservationRepo, payments *repository.PaymentRepo) *Service {
	if schedules == nil || reservations == nil || payments == nil {
		panic("nil repository passed to booking.NewService")
	}
	return &Service{
		db:           schedules.DB(),
		schedules:    schedules,
		reservations: reservations,
		payments:     payments,
	}
}

// CheckBookable verifies that a schedule can accept a booking right now.
// It is read-only and side-effect free: the booking transaction re-checks
// the same conditions under a row lock before writing.  Errors:
// repository.ErrScheduleNotFound, ErrNotBookable, ErrSoldOut.
func (s *Service) CheckBookable(ctx context.Context, scheduleID uint64) (*repository.ScheduleDetail, error) {
	d, err := s.schedules.GetDetail(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	if d.Status != model.ScheduleScheduled && d.Status != model.ScheduleDelayed {
		return nil, ErrNotBookable
	}
	if d.AvailableSeats <= 0 {
		return nil, ErrSoldOut
	}
	return d, nil
}

// CreateReservationInput carries the booking request.  SeatNumber is
// optional; when empty the lowest free seat is assigned.
type CreateReservationInput struct {
	UserID          uint64
	ScheduleID      uint64
	PassengerName   string
	PassengerAge    uint8
	PassengerGender string
	SeatNumber      string
}

// CreateReservation books one seat on a schedule.  The whole flow runs in
// a single transaction with the schedule row locked FOR UPDATE, so two
// concurrent bookings for the last seat serialize: exactly one succeeds
// and the other observes zero availability.  The insert and the
// availability decrement commit or roll back together; no partial state
// survives a failure.
//
// Errors: repository.ErrScheduleNotFound, ErrNotBookable, ErrSoldOut,
// ErrSeatTaken, ErrDuplicateReference, or the underlying storage error.
func (s *Service) CreateReservation(ctx context.Context, in CreateReservationInput) (*repository.ReservationDetail, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	view, err := s.schedules.LockForBookingTx(ctx, tx, in.ScheduleID)
	if err != nil {
		return nil, err
	}
	if view.Status != model.ScheduleScheduled && view.Status != model.ScheduleDelayed {
		return nil, ErrNotBookable
	}
	if view.AvailableSeats <= 0 {
		return nil, ErrSoldOut
	}

	ref, err := GenerateUniqueCode(ctx, NewBookingReference, func(ctx context.Context, code string) (bool, error) {
		return s.reservations.ReferenceExistsTx(ctx, tx, code)
	})
	if err != nil {
		return nil, err
	}

	seat := strings.TrimSpace(in.SeatNumber)
	if seat == "" {
		taken, err := s.reservations.TakenSeatsTx(ctx, tx, in.ScheduleID)
		if err != nil {
			return nil, err
		}
		var ok bool
		seat, ok = NextFreeSeat(taken, int(view.TrainCapacity))
		if !ok {
			// available_seats said there was room but every label is held;
			// the counters have diverged, refuse rather than double-assign.
			return nil, ErrSoldOut
		}
	}

	res := &model.Reservation{
		UserID:           in.UserID,
		ScheduleID:       in.ScheduleID,
		SeatNumber:       seat,
		BookingReference: ref,
		PassengerName:    in.PassengerName,
		PassengerAge:     in.PassengerAge,
		PassengerGender:  in.PassengerGender,
		FareAmount:       view.BaseFare, // snapshot; later fare edits never touch it
		BookingStatus:    model.ReservationConfirmed,
	}
	if err := s.reservations.InsertTx(ctx, tx, res); err != nil {
		if repository.IsDuplicateKey(err) {
			if strings.Contains(err.Error(), "uq_booking_reference") {
				return nil, ErrDuplicateReference
			}
			return nil, ErrSeatTaken
		}
		return nil, err
	}

	ok, err := s.schedules.DecrementSeatsTx(ctx, tx, in.ScheduleID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrSoldOut
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	return &repository.ReservationDetail{
		ID:               res.ID,
		BookingReference: res.BookingReference,
		PassengerName:    res.PassengerName,
		PassengerAge:     res.PassengerAge,
		PassengerGender:  res.PassengerGender,
		SeatNumber:       res.SeatNumber,
		FareAmount:       res.FareAmount,
		BookingStatus:    res.BookingStatus,
		BookingDate:      res.BookingDate.UTC().Format(time.RFC3339),
		ScheduleID:       res.ScheduleID,
		TrainName:        view.TrainName,
		DepartureStation: view.DepartureStation,
		ArrivalStation:   view.ArrivalStation,
		UserID:           res.UserID,
	}, nil
}

// CancelReservation flips a reservation to CANCELLED.  Passengers may only
// cancel their own reservations; admins may cancel any.  The row is
// retained for audit.
//
// NOTE: available_seats is deliberately NOT restored on cancellation.  A
// cancelled seat stays spent for the schedule's lifetime.  This mirrors
// the platform's established behavior; restoring capacity here would be a
// product decision, not a bug fix, and the tests pin the current choice.
func (s *Service) CancelReservation(ctx context.Context, reservationID, actorID uint64, admin bool) (*model.Reservation, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := s.reservations.GetForUpdateTx(ctx, tx, reservationID)
	if err != nil {
		return nil, err
	}
	if !admin && res.UserID != actorID {
		return nil, ErrForbidden
	}
	if res.BookingStatus == model.ReservationCancelled {
		return nil, ErrAlreadyCancelled
	}
	if err := s.reservations.SetStatusTx(ctx, tx, reservationID, model.ReservationCancelled); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	res.BookingStatus = model.ReservationCancelled
	return res, nil
}

// reservationTransitions lists the admin-reachable status moves.
// CANCELLED is terminal; WAITLISTED can be promoted back to CONFIRMED.
var reservationTransitions = map[string]map[string]bool{
	model.ReservationConfirmed: {
		model.ReservationCancelled:  true,
		model.ReservationWaitlisted: true,
		model.ReservationCompleted:  true,
	},
	model.ReservationWaitlisted: {
		model.ReservationConfirmed: true,
		model.ReservationCancelled: true,
	},
}

// UpdateReservationStatus applies an admin status patch, enforcing the
// lifecycle transitions above.  Returns ErrInvalidTransition for anything
// else (including any move out of CANCELLED).
func (s *Service) UpdateReservationStatus(ctx context.Context, reservationID uint64, status string) (*model.Reservation, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := s.reservations.GetForUpdateTx(ctx, tx, reservationID)
	if err != nil {
		return nil, err
	}
	if !reservationTransitions[res.BookingStatus][status] {
		return nil, ErrInvalidTransition
	}
	if err := s.reservations.SetStatusTx(ctx, tx, reservationID, status); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	res.BookingStatus = status
	return res, nil
}
