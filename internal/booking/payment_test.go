package booking

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"railbook/internal/model"
	"railbook/internal/repository"
)

func paymentLockRows(amount, refunded float64, status string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "reservation_id", "amount", "method", "transaction_id", "status", "refund_amount", "refund_date"}).
		AddRow(9, 44, amount, "CARD", "TXN1756710000000AB12CD34", status, refunded, nil)
}

func TestCreatePaymentDefaultsToFare(t *testing.T) {
	svc, mock := newServiceWithMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WithArgs(uint64(44)).
		WillReturnRows(reservationLockRows(7, model.ReservationConfirmed))
	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM payments WHERE reservation_id`).
		WithArgs(uint64(44)).WillReturnRows(existsRow(false))
	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM payments WHERE transaction_id`).
		WillReturnRows(existsRow(false))
	mock.ExpectExec("INSERT INTO payments").
		WillReturnResult(sqlmock.NewResult(9, 1))
	mock.ExpectQuery("SELECT created_at, updated_at FROM payments").WithArgs(uint64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).
			AddRow(time.Now(), time.Now()))
	mock.ExpectCommit()

	d, err := svc.CreatePayment(context.Background(), CreatePaymentInput{
		ReservationID: 44,
		UserID:        7,
		Method:        "CARD",
	})
	require.NoError(t, err)
	assert.Equal(t, 550.0, d.Amount) // reservation's snapshotted fare
	assert.Equal(t, model.PaymentPending, d.Status)
	assert.Equal(t, "TKT123456ABCDEF", d.BookingReference)
	assert.Regexp(t, `^TXN\d{13}[0-9A-F]{8}$`, d.TransactionID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreatePaymentForeignReservation(t *testing.T) {
	svc, mock := newServiceWithMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WithArgs(uint64(44)).
		WillReturnRows(reservationLockRows(7, model.ReservationConfirmed))
	mock.ExpectRollback()

	_, err := svc.CreatePayment(context.Background(), CreatePaymentInput{
		ReservationID: 44, UserID: 99, Method: "UPI",
	})
	assert.ErrorIs(t, err, ErrForbidden)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreatePaymentCancelledReservation(t *testing.T) {
	svc, mock := newServiceWithMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WithArgs(uint64(44)).
		WillReturnRows(reservationLockRows(7, model.ReservationCancelled))
	mock.ExpectRollback()

	_, err := svc.CreatePayment(context.Background(), CreatePaymentInput{
		ReservationID: 44, UserID: 7, Method: "UPI",
	})
	assert.ErrorIs(t, err, ErrNotConfirmed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreatePaymentDuplicateActive(t *testing.T) {
	svc, mock := newServiceWithMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WithArgs(uint64(44)).
		WillReturnRows(reservationLockRows(7, model.ReservationConfirmed))
	mock.ExpectQuery(`SELECT EXISTS\(SELECT 1 FROM payments WHERE reservation_id`).
		WithArgs(uint64(44)).WillReturnRows(existsRow(true))
	mock.ExpectRollback()

	_, err := svc.CreatePayment(context.Background(), CreatePaymentInput{
		ReservationID: 44, UserID: 7, Method: "CARD",
	})
	assert.ErrorIs(t, err, ErrDuplicatePayment)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreatePaymentNonPositiveAmount(t *testing.T) {
	svc, mock := newServiceWithMock(t)

	zero := 0.0
	_, err := svc.CreatePayment(context.Background(), CreatePaymentInput{
		ReservationID: 44, UserID: 7, Method: "CARD", Amount: &zero,
	})
	// Rejected before any storage work starts.
	assert.ErrorIs(t, err, ErrInvalidAmount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessRefundPartial(t *testing.T) {
	svc, mock := newServiceWithMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WithArgs(uint64(9)).
		WillReturnRows(paymentLockRows(1000, 0, model.PaymentCompleted))
	mock.ExpectExec("UPDATE payments SET refund_amount").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := svc.ProcessRefund(context.Background(), 9, 250)
	require.NoError(t, err)
	assert.Equal(t, 250.0, res.TotalRefund)
	assert.Equal(t, 1000.0, res.OriginalAmount)
	assert.Equal(t, model.PaymentCompleted, res.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessRefundReachesFullAmount(t *testing.T) {
	svc, mock := newServiceWithMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WithArgs(uint64(9)).
		WillReturnRows(paymentLockRows(1000, 400, model.PaymentCompleted))
	mock.ExpectExec("UPDATE payments SET refund_amount").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := svc.ProcessRefund(context.Background(), 9, 600)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, res.TotalRefund)
	assert.Equal(t, model.PaymentRefunded, res.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessRefundExceedsBalance(t *testing.T) {
	svc, mock := newServiceWithMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WithArgs(uint64(9)).
		WillReturnRows(paymentLockRows(1000, 400, model.PaymentCompleted))
	mock.ExpectRollback()

	_, err := svc.ProcessRefund(context.Background(), 9, 700)
	assert.ErrorIs(t, err, ErrRefundExceedsAmount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessRefundCentRounding(t *testing.T) {
	svc, mock := newServiceWithMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WithArgs(uint64(9)).
		WillReturnRows(paymentLockRows(0.3, 0.1, model.PaymentCompleted))
	mock.ExpectExec("UPDATE payments SET refund_amount").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	// 0.1 + 0.2 > 0.3 in raw float math; rounding to cents must let the
	// final refund through and mark the payment REFUNDED.
	res, err := svc.ProcessRefund(context.Background(), 9, 0.2)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentRefunded, res.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessRefundPendingPayment(t *testing.T) {
	svc, mock := newServiceWithMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WithArgs(uint64(9)).
		WillReturnRows(paymentLockRows(1000, 0, model.PaymentPending))
	mock.ExpectRollback()

	_, err := svc.ProcessRefund(context.Background(), 9, 100)
	assert.ErrorIs(t, err, ErrNotCompleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessRefundNonPositiveAmount(t *testing.T) {
	svc, mock := newServiceWithMock(t)

	_, err := svc.ProcessRefund(context.Background(), 9, -50)
	assert.ErrorIs(t, err, ErrInvalidAmount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdatePaymentStatusSettlesPending(t *testing.T) {
	svc, mock := newServiceWithMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WithArgs(uint64(9)).
		WillReturnRows(paymentLockRows(1000, 0, model.PaymentPending))
	mock.ExpectExec("UPDATE payments SET status").
		WithArgs(model.PaymentCompleted, uint64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	p, err := svc.UpdatePaymentStatus(context.Background(), 9, model.PaymentCompleted)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentCompleted, p.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProcessRefundMissingPayment(t *testing.T) {
	svc, mock := newServiceWithMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WithArgs(uint64(404)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	_, err := svc.ProcessRefund(context.Background(), 404, 100)
	assert.ErrorIs(t, err, repository.ErrPaymentNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdatePaymentStatusRejectsRefundShortcut(t *testing.T) {
	svc, mock := newServiceWithMock(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WithArgs(uint64(9)).
		WillReturnRows(paymentLockRows(1000, 0, model.PaymentCompleted))
	mock.ExpectRollback()

	_, err := svc.UpdatePaymentStatus(context.Background(), 9, model.PaymentRefunded)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.NoError(t, mock.ExpectationsWereMet())
}
