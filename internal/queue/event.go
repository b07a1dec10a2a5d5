// Package queue defines message payloads exchanged over the message broker.
package queue

// Audit event kinds published on the reservation.audit queue.
const (
	EventReservationCreated   = "reservation.created"
	EventReservationCancelled = "reservation.cancelled"
	EventPaymentCreated       = "payment.created"
	EventPaymentStatusChanged = "payment.status_changed"
	EventPaymentRefunded      = "payment.refunded"
)

// AuditEvent is the envelope published for every booking and payment state
// change.  It carries enough information for downstream consumers to log,
// notify or feed analytics without querying the primary database.  Fields
// that do not apply to an event kind are left at their zero value and
// omitted from the JSON.
type AuditEvent struct {
	Kind             string  `json:"kind"`
	OccurredAt       string  `json:"occurred_at"`
	ReservationID    uint64  `json:"reservation_id,omitempty"`
	BookingReference string  `json:"booking_reference,omitempty"`
	UserID           uint64  `json:"user_id,omitempty"`
	ScheduleID       uint64  `json:"schedule_id,omitempty"`
	TrainName        string  `json:"train_name,omitempty"`
	SeatNumber       string  `json:"seat_number,omitempty"`
	Status           string  `json:"status,omitempty"`
	PaymentID        uint64  `json:"payment_id,omitempty"`
	TransactionID    string  `json:"transaction_id,omitempty"`
	Amount           float64 `json:"amount,omitempty"`
	RefundAmount     float64 `json:"refund_amount,omitempty"`
}
