package booking

import (
	"context"
	"math"
	"time"

	"railbook/internal/model"
	"railbook/internal/repository"
)

// CreatePaymentInput carries a payment initiation request.  Amount is
// optional; when nil the reservation's snapshotted fare is charged.
type CreatePaymentInput struct {
	ReservationID uint64
	UserID        uint64
	Method        string
	Amount        *float64
}

// RefundResult echoes the outcome of a refund.
type RefundResult struct {
	PaymentID      uint64  `json:"payment_id"`
	RefundAmount   float64 `json:"refund_amount"`
	TotalRefund    float64 `json:"total_refund_amount"`
	OriginalAmount float64 `json:"original_amount"`
	Status         string  `json:"payment_status"`
}

// CreatePayment validates ownership and reservation state, guards against
// a second active payment, then inserts a PENDING payment with a fresh
// unique transaction id.  The reservation row is locked for the duration
// so two concurrent payment attempts for the same reservation serialize
// and the second sees the first's PENDING row.
//
// Errors: repository.ErrReservationNotFound, ErrForbidden, ErrNotConfirmed,
// ErrDuplicatePayment, ErrInvalidAmount, ErrDuplicateReference.
func (s *Service) CreatePayment(ctx context.Context, in CreatePaymentInput) (*repository.PaymentDetail, error) {
	if in.Amount != nil && *in.Amount <= 0 {
		return nil, ErrInvalidAmount
	}

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

	res, err := s.reservations.GetForUpdateTx(ctx, tx, in.ReservationID)
	if err != nil {
		return nil, err
	}
	if res.UserID != in.UserID {
		return nil, ErrForbidden
	}
	if res.BookingStatus != model.ReservationConfirmed {
		return nil, ErrNotConfirmed
	}

	active, err := s.payments.HasActiveTx(ctx, tx, in.ReservationID)
	if err != nil {
		return nil, err
	}
	if active {
		return nil, ErrDuplicatePayment
	}

	amount := res.FareAmount
	if in.Amount != nil {
		amount = *in.Amount
	}

	txnID, err := GenerateUniqueCode(ctx, NewTransactionID, func(ctx context.Context, code string) (bool, error) {
		return s.payments.TransactionIDExistsTx(ctx, tx, code)
	})
	if err != nil {
		return nil, err
	}

	p := &model.Payment{
		ReservationID: in.ReservationID,
		Amount:        amount,
		Method:        in.Method,
		TransactionID: txnID,
		Status:        model.PaymentPending,
	}
	if err := s.payments.InsertTx(ctx, tx, p); err != nil {
		if repository.IsDuplicateKey(err) {
			return nil, ErrDuplicateReference
		}
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	return &repository.PaymentDetail{
		ID:               p.ID,
		ReservationID:    p.ReservationID,
		BookingReference: res.BookingReference,
		Amount:           p.Amount,
		Method:           p.Method,
		TransactionID:    p.TransactionID,
		Status:           p.Status,
		CreatedAt:        p.CreatedAt.UTC().Format(time.RFC3339),
	}, nil
}

// ProcessRefund applies a partial or full refund to a COMPLETED payment.
// The payment row is read FOR UPDATE so the cumulative refund_amount check
// and the write form one atomic read-modify-write; two racing refunds for
// the remaining balance cannot both pass the bound.  The payment flips to
// REFUNDED once the cumulative refund reaches the original amount.
//
// Errors: repository.ErrPaymentNotFound, ErrNotCompleted, ErrInvalidAmount,
// ErrRefundExceedsAmount.
func (s *Service) ProcessRefund(ctx context.Context, paymentID uint64, amount float64) (*RefundResult, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

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

	p, err := s.payments.GetForUpdateTx(ctx, tx, paymentID)
	if err != nil {
		return nil, err
	}
	if p.Status != model.PaymentCompleted {
		return nil, ErrNotCompleted
	}

	// Round to cents before the bound check so accumulated float error
	// cannot block a legitimate final refund.
	total := math.Round((p.RefundAmount+amount)*100) / 100
	if total > p.Amount {
		return nil, ErrRefundExceedsAmount
	}
	status := model.PaymentCompleted
	if total >= p.Amount {
		status = model.PaymentRefunded
	}
	if err := s.payments.ApplyRefundTx(ctx, tx, paymentID, amount, status); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	return &RefundResult{
		PaymentID:      paymentID,
		RefundAmount:   amount,
		TotalRefund:    total,
		OriginalAmount: p.Amount,
		Status:         status,
	}, nil
}

// paymentTransitions lists admin-driven payment status moves.  REFUNDED is
// reached only through ProcessRefund.
var paymentTransitions = map[string]map[string]bool{
	model.PaymentPending: {
		model.PaymentCompleted: true,
		model.PaymentFailed:    true,
	},
}

// UpdatePaymentStatus applies an admin status patch (settling or failing a
// pending payment).  Returns ErrInvalidTransition for any other move.
func (s *Service) UpdatePaymentStatus(ctx context.Context, paymentID uint64, status string) (*model.Payment, error) {
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

	p, err := s.payments.GetForUpdateTx(ctx, tx, paymentID)
	if err != nil {
		return nil, err
	}
	if !paymentTransitions[p.Status][status] {
		return nil, ErrInvalidTransition
	}
	if err := s.payments.SetStatusTx(ctx, tx, paymentID, status); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true
	p.Status = status
	return p, nil
}
