package model

import "time"

// Payment statuses.  A payment starts PENDING; admins drive it to COMPLETED
// or FAILED.  It becomes REFUNDED once the cumulative refund reaches the
// original amount.
const (
	PaymentPending   = "PENDING"
	PaymentCompleted = "COMPLETED"
	PaymentFailed    = "FAILED"
	PaymentRefunded  = "REFUNDED"
)

// Payment records a payment attempt against a reservation, as stored in the
// `payments` table.  At most one PENDING or COMPLETED payment may exist per
// reservation at a time.  RefundAmount is cumulative and never exceeds
// Amount.
//
// Fields:
//
//	ID            - primary key identifier.
//	ReservationID - reservation being paid for.
//	Amount        - amount charged; defaults to the reservation fare.
//	Method        - payment method label (e.g. CARD, UPI).
//	TransactionID - public unique transaction identifier.
//	Status        - one of the Payment* constants above.
//	RefundAmount  - cumulative refunded amount, <= Amount.
//	RefundDate    - timestamp of the most recent refund (nullable).
//	CreatedAt     - creation timestamp.
//	UpdatedAt     - last update timestamp.
type Payment struct {
	ID            uint64     // payments.id
	ReservationID uint64     // payments.reservation_id
	Amount        float64    // payments.amount
	Method        string     // payments.method
	TransactionID string     // payments.transaction_id
	Status        string     // payments.status
	RefundAmount  float64    // payments.refund_amount
	RefundDate    *time.Time // payments.refund_date (nullable)
	CreatedAt     time.Time  // payments.created_at
	UpdatedAt     time.Time  // payments.updated_at
}
