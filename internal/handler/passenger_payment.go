package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"railbook/internal/booking"
	"railbook/internal/queue"
	"railbook/internal/repository"
	queue_publisher "railbook/internal/service"
)

// PassengerPaymentHandler serves passenger-facing payment endpoints.
type PassengerPaymentHandler struct {
	Svc      *booking.Service
	Payments *repository.PaymentRepo
	Timeout  time.Duration
	AMQPURL  string
}

func NewPassengerPaymentHandler(svc *booking.Service, pay *repository.PaymentRepo, timeout time.Duration, amqpURL string) *PassengerPaymentHandler {
	if svc == nil || pay == nil {
		panic("nil dependency passed to NewPassengerPaymentHandler")
	}
	return &PassengerPaymentHandler{Svc: svc, Payments: pay, Timeout: timeout, AMQPURL: amqpURL}
}

type createPaymentReq struct {
	ReservationID uint64   `json:"reservation_id"`
	Method        string   `json:"payment_method"`
	Amount        *float64 `json:"amount"`
}

// Create handles POST /v1/payments.  Amount is optional and defaults to
// the reservation's snapshotted fare.  The payment starts PENDING with a
// fresh unique transaction id.
func (h *PassengerPaymentHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createPaymentReq
	if err := decodeStrict(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.ReservationID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "reservation_id is required"})
	}
	method := normUpper(req.Method)
	switch method {
	case "CARD", "UPI", "NETBANKING", "WALLET", "CASH":
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unsupported payment_method"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.Timeout)
	defer cancel()

	d, err := h.Svc.CreatePayment(ctx, booking.CreatePaymentInput{
		ReservationID: req.ReservationID,
		UserID:        uid,
		Method:        method,
		Amount:        req.Amount,
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrReservationNotFound), errors.Is(err, booking.ErrForbidden):
			// Paying someone else's reservation is reported as not found.
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		case errors.Is(err, booking.ErrNotConfirmed):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "reservation is not confirmed"})
		case errors.Is(err, booking.ErrDuplicatePayment):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "reservation already has an active payment"})
		case errors.Is(err, booking.ErrInvalidAmount):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "amount must be positive"})
		case errors.Is(err, booking.ErrDuplicateReference):
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "could not allocate a transaction id, try again"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "payment failed"})
	}

	go func() {
		_ = queue_publisher.PublishAudit(context.Background(), h.AMQPURL, queue.AuditEvent{
			Kind:          queue.EventPaymentCreated,
			OccurredAt:    time.Now().UTC().Format(time.RFC3339),
			PaymentID:     d.ID,
			TransactionID: d.TransactionID,
			ReservationID: d.ReservationID,
			UserID:        uid,
			Amount:        d.Amount,
			Status:        d.Status,
		})
	}()

	return c.JSON(http.StatusCreated, d)
}

// ListMine handles GET /v1/my-payments.
func (h *PassengerPaymentHandler) ListMine(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.Timeout)
	defer cancel()
	items, err := h.Payments.ListByUser(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"payments": items})
}

// Get handles GET /v1/payments/:id, restricted to the owner of the paid
// reservation.
func (h *PassengerPaymentHandler) Get(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payment id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.Timeout)
	defer cancel()
	d, err := h.Payments.GetDetailForUser(ctx, id, uid)
	if err != nil {
		if errors.Is(err, repository.ErrPaymentNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "payment not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, d)
}
