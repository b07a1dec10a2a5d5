package booking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"railbook/internal/utils"
)

const (
	bookingRefPrefix = "TKT"
	txnIDPrefix      = "TXN"

	// maxCodeAttempts bounds the redraw loop.  Collisions are rare (random
	// hex suffix on a millisecond timestamp), so exhaustion practically
	// means the existence check is lying; the unique constraint at insert
	// time remains the authoritative guard either way.
	maxCodeAttempts = 5
)

// ExistsFunc reports whether a candidate code is already taken.  An error
// from the check is a transient storage failure and must NOT trigger a
// redraw.
type ExistsFunc func(ctx context.Context, code string) (bool, error)

// NewBookingReference builds one booking reference candidate: TKT + the
// last six digits of the current millisecond timestamp + three random
// bytes as six uppercase hex characters, e.g. TKT482913A1B2C3.
func NewBookingReference() (string, error) {
	suffix, err := utils.RandomHex(3)
	if err != nil {
		return "", err
	}
	ms := time.Now().UnixMilli()
	return fmt.Sprintf("%s%06d%s", bookingRefPrefix, ms%1_000_000, strings.ToUpper(suffix)), nil
}

// NewTransactionID builds one transaction id candidate: TXN + the full
// millisecond timestamp + four random bytes as eight uppercase hex
// characters.
func NewTransactionID() (string, error) {
	suffix, err := utils.RandomHex(4)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%d%s", txnIDPrefix, time.Now().UnixMilli(), strings.ToUpper(suffix)), nil
}

// GenerateUniqueCode draws candidates from newCode until exists reports no
// collision, redrawing at most maxCodeAttempts times.  A failing existence
// check propagates immediately rather than looping: only a confirmed
// duplicate earns a redraw.  On exhaustion ErrDuplicateReference is
// returned.
func GenerateUniqueCode(ctx context.Context, newCode func() (string, error), exists ExistsFunc) (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := newCode()
		if err != nil {
			return "", err
		}
		taken, err := exists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("uniqueness check: %w", err)
		}
		if !taken {
			return code, nil
		}
	}
	return "", ErrDuplicateReference
}
