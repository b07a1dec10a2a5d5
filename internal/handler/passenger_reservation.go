package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"railbook/internal/booking"
	"railbook/internal/queue"
	"railbook/internal/repository"
	queue_publisher "railbook/internal/service"
)

// PassengerReservationHandler serves the passenger-facing reservation
// endpoints.  JWT authentication has already run; methods read the user ID
// from the context.
type PassengerReservationHandler struct {
	Svc          *booking.Service
	Reservations *repository.ReservationRepo
	Timeout      time.Duration
	AMQPURL      string
}

func NewPassengerReservationHandler(svc *booking.Service, res *repository.ReservationRepo, timeout time.Duration, amqpURL string) *PassengerReservationHandler {
	if svc == nil || res == nil {
		panic("nil dependency passed to NewPassengerReservationHandler")
	}
	return &PassengerReservationHandler{Svc: svc, Reservations: res, Timeout: timeout, AMQPURL: amqpURL}
}

type createReservationReq struct {
	ScheduleID      uint64 `json:"schedule_id"`
	PassengerName   string `json:"passenger_name"`
	PassengerAge    int    `json:"passenger_age"`
	PassengerGender string `json:"passenger_gender"`
	SeatNumber      string `json:"seat_number"`
}

// validSeatLabel accepts labels of the form S1, S2, ... with no leading
// zeros.  Capacity bounds are enforced in the booking transaction.
func validSeatLabel(s string) bool {
	if len(s) < 2 || s[0] != 'S' {
		return false
	}
	n, err := strconv.Atoi(s[1:])
	return err == nil && n >= 1 && !strings.HasPrefix(s[1:], "0")
}

// Create handles POST /v1/reservations.  On success it returns 201 with
// the full reservation detail including the generated booking reference
// and the fare snapshotted from the schedule.
func (h *PassengerReservationHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createReservationReq
	if err := decodeStrict(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.ScheduleID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "schedule_id is required"})
	}
	req.PassengerName = strings.TrimSpace(req.PassengerName)
	if req.PassengerName == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "passenger_name is required"})
	}
	if req.PassengerAge < 1 || req.PassengerAge > 120 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "passenger_age must be between 1 and 120"})
	}
	gender := normUpper(req.PassengerGender)
	switch gender {
	case "MALE", "FEMALE", "OTHER":
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "passenger_gender must be MALE, FEMALE or OTHER"})
	}
	seat := normUpper(req.SeatNumber)
	if seat != "" && !validSeatLabel(seat) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat_number must look like S12"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.Timeout)
	defer cancel()

	d, err := h.Svc.CreateReservation(ctx, booking.CreateReservationInput{
		UserID:          uid,
		ScheduleID:      req.ScheduleID,
		PassengerName:   req.PassengerName,
		PassengerAge:    uint8(req.PassengerAge),
		PassengerGender: gender,
		SeatNumber:      seat,
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrScheduleNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "schedule not found"})
		case errors.Is(err, booking.ErrNotBookable):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "schedule is not open for booking"})
		case errors.Is(err, booking.ErrSoldOut):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "schedule is sold out"})
		case errors.Is(err, booking.ErrSeatTaken):
			return c.JSON(http.StatusConflict, echo.Map{"error": "seat already taken"})
		case errors.Is(err, booking.ErrDuplicateReference):
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "could not allocate a booking reference, try again"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "booking failed"})
	}

	// Audit publishing is best-effort and must not delay the response.
	go func() {
		_ = queue_publisher.PublishAudit(context.Background(), h.AMQPURL, queue.AuditEvent{
			Kind:             queue.EventReservationCreated,
			OccurredAt:       time.Now().UTC().Format(time.RFC3339),
			ReservationID:    d.ID,
			BookingReference: d.BookingReference,
			UserID:           uid,
			ScheduleID:       d.ScheduleID,
			TrainName:        d.TrainName,
			SeatNumber:       d.SeatNumber,
			Status:           d.BookingStatus,
		})
	}()

	return c.JSON(http.StatusCreated, d)
}

// ListMine handles GET /v1/my-reservations.
func (h *PassengerReservationHandler) ListMine(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.Timeout)
	defer cancel()
	items, err := h.Reservations.ListByUser(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"reservations": items})
}

// Get handles GET /v1/reservations/:id.  Ownership is enforced in the
// query; someone else's reservation looks identical to a missing one.
func (h *PassengerReservationHandler) Get(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.Timeout)
	defer cancel()
	d, err := h.Reservations.GetDetailForUser(ctx, id, uid)
	if err != nil {
		if errors.Is(err, repository.ErrReservationNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, d)
}

// Cancel handles DELETE /v1/reservations/:id.  Cancellation keeps the row
// for audit and does not resell the seat.  A reservation owned by another
// user is reported as not found.
func (h *PassengerReservationHandler) Cancel(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.Timeout)
	defer cancel()

	res, err := h.Svc.CancelReservation(ctx, id, uid, false)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrReservationNotFound), errors.Is(err, booking.ErrForbidden):
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
