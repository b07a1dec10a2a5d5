package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidSeatLabel(t *testing.T) {
	for _, s := range []string{"S1", "S2", "S10", "S120"} {
		assert.True(t, validSeatLabel(s), s)
	}
	for _, s := range []string{"", "S", "S0", "S01", "1", "A5", "s3", "S-1", "S1.5", "seat1"} {
		assert.False(t, validSeatLabel(s), s)
	}
}
