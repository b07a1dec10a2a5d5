package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextFreeSeatEmptyTrain(t *testing.T) {
	seat, ok := NextFreeSeat(map[string]struct{}{}, 10)
	assert.True(t, ok)
	assert.Equal(t, "S1", seat)
}

func TestNextFreeSeatSkipsTaken(t *testing.T) {
	taken := map[string]struct{}{"S1": {}, "S2": {}, "S4": {}}
	seat, ok := NextFreeSeat(taken, 10)
	assert.True(t, ok)
	assert.Equal(t, "S3", seat)
}

func TestNextFreeSeatFillsGapBeforeEnd(t *testing.T) {
	taken := map[string]struct{}{"S1": {}, "S3": {}, "S5": {}}
	seat, ok := NextFreeSeat(taken, 5)
	assert.True(t, ok)
	assert.Equal(t, "S2", seat)
}

func TestNextFreeSeatFullTrain(t *testing.T) {
	taken := map[string]struct{}{"S1": {}, "S2": {}, "S3": {}}
	_, ok := NextFreeSeat(taken, 3)
	assert.False(t, ok)
}

func TestNextFreeSeatZeroCapacity(t *testing.T) {
	_, ok := NextFreeSeat(map[string]struct{}{}, 0)
	assert.False(t, ok)
}
