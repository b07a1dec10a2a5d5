package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"railbook/internal/model"
)

// ErrPaymentNotFound is returned when a payment cannot be found.
var ErrPaymentNotFound = errors.New("payment not found")

// PaymentRepo provides persistence for payments.  Refund arithmetic is
// performed under row locks by the booking service; this layer only runs
// the statements.
type PaymentRepo struct {
	db *sql.DB
}

// NewPaymentRepo returns a PaymentRepo bound to the given database.
func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{db: db} }

// DB exposes the underlying sql.DB for cross-repository transactions.
func (r *PaymentRepo) DB() *sql.DB { return r.db }

// InsertTx inserts a payment within the caller's transaction and populates
// the generated ID and timestamps.  The unique key on transaction_id is the
// final guard against duplicate identifiers.
func (r *PaymentRepo) InsertTx(ctx context.Context, tx *sql.Tx, p *model.Payment) error {
	const q = `INSERT INTO payments (reservation_id, amount, method, transaction_id, status)
	           VALUES (?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, p.ReservationID, p.Amount, p.Method, p.TransactionID, p.Status)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	const sel = "SELECT created_at, updated_at FROM payments WHERE id = ?"
	return tx.QueryRowContext(ctx, sel, p.ID).Scan(&p.CreatedAt, &p.UpdatedAt)
}

// TransactionIDExistsTx reports whether a transaction id is already taken.
func (r *PaymentRepo) TransactionIDExistsTx(ctx context.Context, tx *sql.Tx, txnID string) (bool, error) {
	var exists bool
	err := tx.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM payments WHERE transaction_id = ?)", txnID).Scan(&exists)
	return exists, err
}

// HasActiveTx reports whether the reservation already has a PENDING or
// COMPLETED payment.  Read inside the caller's transaction while the
// reservation row is locked, so two concurrent payment attempts serialize.
func (r *PaymentRepo) HasActiveTx(ctx context.Context, tx *sql.Tx, reservationID uint64) (bool, error) {
	var exists bool
	err := tx.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM payments WHERE reservation_id = ? AND status IN ('PENDING','COMPLETED'))",
		reservationID).Scan(&exists)
	return exists, err
}

// GetForUpdateTx loads a payment row FOR UPDATE so refund arithmetic and
// status transitions are atomic read-modify-writes.  Returns
// ErrPaymentNotFound when absent.
func (r *PaymentRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Payment, error) {
	const q = `SELECT id, reservation_id, amount, method, transaction_id, status, refund_amount, refund_date
	           FROM payments WHERE id = ? FOR UPDATE`
	var p model.Payment
	var refundDate sql.NullTime
	err := tx.QueryRowContext(ctx, q, id).Scan(
		&p.ID, &p.ReservationID, &p.Amount, &p.Method, &p.TransactionID,
		&p.Status, &p.RefundAmount, &refundDate)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	if refundDate.Valid {
		t := refundDate.Time
		p.RefundDate = &t
	}
	return &p, nil
}

// SetStatusTx updates a payment's status within the caller's transaction.
func (r *PaymentRepo) SetStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status string) error {
	_, err := tx.ExecContext(ctx, "UPDATE payments SET status = ? WHERE id = ?", status, id)
	return err
}

// ApplyRefundTx adds amount to the cumulative refund, stamps refund_date
// and sets the new status in a single statement within the caller's
// transaction.
func (r *PaymentRepo) ApplyRefundTx(ctx context.Context, tx *sql.Tx, id uint64, amount float64, status string) error {
	const q = "UPDATE payments SET refund_amount = refund_amount + ?, refund_date = ?, status = ? WHERE id = ?"
	_, err := tx.ExecContext(ctx, q, amount, time.Now().UTC().Format("2006-01-02 15:04:05"), status, id)
	return err
}

// PaymentDetail is a payment joined with its reservation's booking
// reference for display.
type PaymentDetail struct {
	ID               uint64  `json:"payment_id"`
	ReservationID    uint64  `json:"reservation_id"`
	BookingReference string  `json:"booking_reference"`
	Amount           float64 `json:"amount"`
	Method           string  `json:"payment_method"`
	TransactionID    string  `json:"transaction_id"`
	Status           string  `json:"payment_status"`
	RefundAmount     float64 `json:"refund_amount"`
	CreatedAt        string  `json:"created_at"`
}

const paymentDetailSelect = `SELECT p.id, p.reservation_id, r.booking_reference, p.amount, p.method,
	       p.transaction_id, p.status, p.refund_amount, p.created_at
	FROM payments p
	JOIN reservations r ON r.id = p.reservation_id`

// GetDetailForUser returns one payment, restricted to the owner of its
// reservation.  A foreign payment is indistinguishable from a missing one.
func (r *PaymentRepo) GetDetailForUser(ctx context.Context, id, userID uint64) (*PaymentDetail, error) {
	var d PaymentDetail
	var createdAt time.Time
	err := r.db.QueryRowContext(ctx, paymentDetailSelect+" WHERE p.id = ? AND r.user_id = ?", id, userID).Scan(
		&d.ID, &d.ReservationID, &d.BookingReference, &d.Amount, &d.Method,
		&d.TransactionID, &d.Status, &d.RefundAmount, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	d.CreatedAt = createdAt.UTC().Format(time.RFC3339)
	return &d, nil
}

// ListByUser returns all payments for reservations owned by a user, newest
// first.
func (r *PaymentRepo) ListByUser(ctx context.Context, userID uint64) ([]PaymentDetail, error) {
	rows, err := r.db.QueryContext(ctx,
		paymentDetailSelect+" WHERE r.user_id = ? ORDER BY p.created_at DESC", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]PaymentDetail, 0)
	for rows.Next() {
		var d PaymentDetail
		var createdAt time.Time
		if err := rows.Scan(
			&d.ID, &d.ReservationID, &d.BookingReference, &d.Amount, &d.Method,
			&d.TransactionID, &d.Status, &d.RefundAmount, &createdAt,
		); err != nil {
			return nil, err
		}
		d.CreatedAt = createdAt.UTC().Format(time.RFC3339)
		out = append(out, d)
	}
	return out, rows.Err()
}
