// Package booking implements the reservation and payment core: schedule
// availability checks, collision-checked public identifiers, seat
// allocation and the transactional writes that create reservations and
// payments.  Handlers translate the sentinel errors defined here into HTTP
// responses; not-found conditions reuse the repository sentinels.
package booking

import "errors"

// ErrNotBookable is returned when a schedule's status does not admit new
// reservations (anything other than SCHEDULED or DELAYED).
var ErrNotBookable = errors.New("schedule is not open for booking")

// ErrSoldOut is returned when a schedule has no seats left.
var ErrSoldOut = errors.New("schedule is sold out")

// ErrSeatTaken is returned when the requested seat is already held by a
// CONFIRMED reservation on the same schedule.
var ErrSeatTaken = errors.New("seat already taken")

// ErrDuplicateReference is returned when identifier generation exhausted
// its attempts or the insert still collided on the unique key.
var ErrDuplicateReference = errors.New("could not generate a unique reference")

// ErrForbidden is returned when the actor does not own the resource.
var ErrForbidden = errors.New("forbidden")

// ErrAlreadyCancelled is returned when cancelling a reservation that is
// already CANCELLED.
var ErrAlreadyCancelled = errors.New("reservation already cancelled")

// ErrNotConfirmed is returned when a payment is attempted against a
// reservation that is not in CONFIRMED state.
var ErrNotConfirmed = errors.New("reservation is not confirmed")

// ErrDuplicatePayment is returned when the reservation already has a
// PENDING or COMPLETED payment.
var ErrDuplicatePayment = errors.New("reservation already has an active payment")

// ErrNotCompleted is returned when refunding a payment that is not
// COMPLETED.
var ErrNotCompleted = errors.New("payment is not completed")

// ErrRefundExceedsAmount is returned when a refund would push the
// cumulative refunded total past the original amount.
var ErrRefundExceedsAmount = errors.New("refund exceeds remaining balance")

// ErrInvalidAmount is returned for zero or negative money inputs.
var ErrInvalidAmount = errors.New("amount must be positive")

// ErrInvalidTransition is returned when a status update is not allowed
// from the current state.
var ErrInvalidTransition = errors.New("invalid status transition")
