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

// AdminPaymentHandler serves the admin payment operations: settling or
// failing pending payments and issuing refunds.
type AdminPaymentHandler struct {
	Svc     *booking.Service
	Timeout time.Duration
	AMQPURL string
}

func NewAdminPaymentHandler(svc *booking.Service, timeout time.Duration, amqpURL string) *AdminPaymentHandler {
	if svc == nil {
		panic("nil service passed to NewAdminPaymentHandler")
	}
	return &AdminPaymentHandler{Svc: svc, Timeout: timeout, AMQPURL: amqpURL}
}

// paymentStatusPatch is the admin patch body for payment state.  Only
// PENDING payments move, to COMPLETED or FAILED; REFUNDED is reached
// through the refund endpoint.
type paymentStatusPatch struct {
	Status string `json:"payment_status"`
}

// UpdateStatus handles PATCH /v1/admin/payments/:id/status.
func (h *AdminPaymentHandler) UpdateStatus(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payment id"})
	}
	var req paymentStatusPatch
	if err := decodeStrict(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	status := normUpper(req.Status)
	switch status {
	case model.PaymentCompleted, model.PaymentFailed:
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "payment_status must be COMPLETED or FAILED"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.Timeout)
	defer cancel()

	p, err := h.Svc.UpdatePaymentStatus(ctx, id, status)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrPaymentNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "payment not found"})
		case errors.Is(err, booking.ErrInvalidTransition):
			return c.JSON(http.StatusConflict, echo.Map{"error": "invalid status transition"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update status failed"})
	}

	go func() {
		_ = queue_publisher.PublishAudit(context.Background(), h.AMQPURL, queue.AuditEvent{
			Kind:          queue.EventPaymentStatusChanged,
			OccurredAt:    time.Now().UTC().Format(time.RFC3339),
			PaymentID:     p.ID,
			TransactionID: p.TransactionID,
			ReservationID: p.ReservationID,
			Amount:        p.Amount,
			Status:        p.Status,
		})
	}()

	return c.JSON(http.StatusOK, echo.Map{
		"payment_id":     p.ID,
		"transaction_id": p.TransactionID,
		"payment_status": p.Status,
	})
}

type refundReq struct {
	Amount float64 `json:"refund_amount"`
}

// Refund handles POST /v1/admin/payments/:id/refund.  Partial refunds
// accumulate; the payment flips to REFUNDED when the cumulative refund
// reaches the original amount.
func (h *AdminPaymentHandler) Refund(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payment id"})
	}
	var req refundReq
	if err := decodeStrict(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.Timeout)
	defer cancel()

	r, err := h.Svc.ProcessRefund(ctx, id, req.Amount)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrPaymentNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "payment not found"})
		case errors.Is(err, booking.ErrInvalidAmount):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "refund_amount must be positive"})
		case errors.Is(err, booking.ErrNotCompleted):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "payment is not completed"})
		case errors.Is(err, booking.ErrRefundExceedsAmount):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "refund exceeds remaining balance"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "refund failed"})
	}

	go func() {
		_ = queue_publisher.PublishAudit(context.Background(), h.AMQPURL, queue.AuditEvent{
			Kind:         queue.EventPaymentRefunded,
			OccurredAt:   time.Now().UTC().Format(time.RFC3339),
			PaymentID:    r.PaymentID,
			Amount:       r.RefundAmount,
			RefundAmount: r.TotalRefund,
			Status:       r.Status,
		})
	}()

	return c.JSON(http.StatusOK, echo.Map{
		"payment_id":          r.PaymentID,
		"refund_amount":       r.RefundAmount,
		"total_refund_amount": r.TotalRefund,
		"original_amount":     r.OriginalAmount,
		"payment_status":      r.Status,
	})
}
