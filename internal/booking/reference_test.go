package booking

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBookingReferenceFormat(t *testing.T) {
	pattern := regexp.MustCompile(`^TKT\d{6}[0-9A-F]{6}$`)
	for i := 0; i < 50; i++ {
		ref, err := NewBookingReference()
		require.NoError(t, err)
		assert.Regexp(t, pattern, ref)
	}
}

func TestNewTransactionIDFormat(t *testing.T) {
	pattern := regexp.MustCompile(`^TXN\d{13}[0-9A-F]{8}$`)
	for i := 0; i < 50; i++ {
		id, err := NewTransactionID()
		require.NoError(t, err)
		assert.Regexp(t, pattern, id)
	}
}

func TestGenerateUniqueCodeFirstDrawFree(t *testing.T) {
	calls := 0
	code, err := GenerateUniqueCode(context.Background(),
		func() (string, error) { calls++; return fmt.Sprintf("CODE%d", calls), nil },
		func(ctx context.Context, code string) (bool, error) { return false, nil })
	require.NoError(t, err)
	assert.Equal(t, "CODE1", code)
	assert.Equal(t, 1, calls)
}

func TestGenerateUniqueCodeRedrawsOnCollision(t *testing.T) {
	draws := 0
	code, err := GenerateUniqueCode(context.Background(),
		func() (string, error) { draws++; return fmt.Sprintf("CODE%d", draws), nil },
		func(ctx context.Context, code string) (bool, error) {
			// First two candidates collide, the third is free.
			return code != "CODE3", nil
		})
	require.NoError(t, err)
	assert.Equal(t, "CODE3", code)
	assert.Equal(t, 3, draws)
}

func TestGenerateUniqueCodeExhaustsAttempts(t *testing.T) {
	draws := 0
	_, err := GenerateUniqueCode(context.Background(),
		func() (string, error) { draws++; return "SAME", nil },
		func(ctx context.Context, code string) (bool, error) { return true, nil })
	assert.ErrorIs(t, err, ErrDuplicateReference)
	assert.Equal(t, maxCodeAttempts, draws)
}

func TestGenerateUniqueCodeCheckErrorPropagates(t *testing.T) {
	boom := errors.New("connection reset")
	draws := 0
	_, err := GenerateUniqueCode(context.Background(),
		func() (string, error) { draws++; return "CODE", nil },
		func(ctx context.Context, code string) (bool, error) { return false, boom })
	// A failing check must not be mistaken for a collision: no redraw.
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, draws)
}
