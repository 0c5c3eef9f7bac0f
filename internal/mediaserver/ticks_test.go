package mediaserver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTickConversions(t *testing.T) {
	assert.Equal(t, int64(10_000_000), SecondsToTicks(1))
	assert.Equal(t, 1.0, TicksToSeconds(10_000_000))

	// Fractional seconds truncate toward zero on the way to ticks.
	assert.Equal(t, int64(15_000_000), SecondsToTicks(1.5))
	assert.Equal(t, int64(0), SecondsToTicks(-3))

	// A two-hour runtime survives a round trip.
	assert.Equal(t, 7200.0, TicksToSeconds(SecondsToTicks(7200)))
}
