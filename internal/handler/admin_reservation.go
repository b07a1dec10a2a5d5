package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"railbook/internal/booking"
	"railbook/internal/model"
	"railbook/internal/queue"
	"railbook/internal/repository"
	queue_publisher "railbook/internal/service"
)

// AdminReservationHandler serves the admin view of reservations: listing
// by schedule, arbitrary lookup, forced cancellation and status patches.
type AdminReservationHandler struct {
	Svc          *booking.Service
	Reservations *repository.ReservationRepo
	Timeout      time.Duration
	AMQPURL      string
}

func NewAdminReservationHandler(svc *booking.Service, res *repository.ReservationRepo, timeout time.Duration, amqpURL string) *AdminReservationHandler {
	if svc == nil || res == nil {
		panic("nil dependency passed to NewAdminReservationHandler")
	}
	return &AdminReservationHandler{Svc: svc, Reservations: res, Timeout: timeout, AMQPURL: amqpURL}
}

// ListBySchedule handles GET /v1/admin/schedules/:id/reservations.
func (h *AdminReservationHandler) ListBySchedule(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid schedule id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.Timeout)
	defer cancel()
	items, err := h.Reservations.ListBySchedule(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"reservations": items})
}

// Get handles GET /v1/admin/reservations/:id.
func (h *AdminReservationHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.Timeout)
	defer cancel()
	d, err := h.Reservations.GetDetail(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrReservationNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, d)
}

// Cancel handles DELETE /v1/admin/reservations/:id.  Admins may cancel any
// reservation regardless of owner.
func (h *AdminReservationHandler) Cancel(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.Timeout)
	defer cancel()

	res, err := h.Svc.CancelReservation(ctx, id, 0, true)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrReservationNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		case errors.Is(err, booking.ErrAlreadyCancelled):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "reservation already cancelled"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cancel failed"})
	}

	go func() {
		_ = queue_publisher.PublishAudit(context.Background(), h.AMQPURL, queue.AuditEvent{
			Kind:             queue.EventReservationCancelled,
			OccurredAt:       time.Now().UTC().Format(time.RFC3339),
			ReservationID:    res.ID,
			BookingReference: res.BookingReference,
			UserID:           res.UserID,
			ScheduleID:       res.ScheduleID,
			SeatNumber:       res.SeatNumber,
			Status:           res.BookingStatus,
		})
	}()

	return c.JSON(http.StatusOK, echo.Map{
		"reservation_id":    res.ID,
		"booking_reference": res.BookingReference,
		"booking_status":    res.BookingStatus,
	})
}

// reservationStatusPatch is the admin patch body for reservation state.
type reservationStatusPatch struct {
	BookingStatus string `json:"booking_status"`
}

// UpdateStatus handles PATCH /v1/admin/reservations/:id/status.  Legal
// moves: CONFIRMED to CANCELLED, WAITLISTED or COMPLETED; WAITLISTED to
// CONFIRMED or CANCELLED.
func (h *AdminReservationHandler) UpdateStatus(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	var req reservationStatusPatch
	if err := decodeStrict(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	status := normUpper(req.BookingStatus)
	switch status {
	case model.ReservationConfirmed, model.ReservationCancelled,
		model.ReservationWaitlisted, model.ReservationCompleted:
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown booking status"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.Timeout)
	defer cancel()

	res, err := h.Svc.UpdateReservationStatus(ctx, id, status)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrReservationNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		case errors.Is(err, booking.ErrInvalidTransition):
			return c.JSON(http.StatusConflict, echo.Map{"error": "invalid status transition"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update status failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"reservation_id":    res.ID,
		"booking_reference": res.BookingReference,
		"booking_status":    res.BookingStatus,
	})
}
