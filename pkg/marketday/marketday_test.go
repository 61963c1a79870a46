package marketday

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNextSkipsWeekend(t *testing.T) {
	// 2025-06-06 is a Friday.
	friday := date(2025, time.June, 6)
	assert.Equal(t, date(2025, time.June, 9), Next(friday, 1))
}

func TestNextMultipleDays(t *testing.T) {
	// Wednesday + 3 trading days crosses the weekend to Monday.
	wednesday := date(2025, time.June, 4)
	assert.Equal(t, date(2025, time.June, 9), Next(wednesday, 3))
}

func TestPreviousFiveTradingDays(t *testing.T) {
	// One trading week back from Monday 2025-06-09 is Monday 2025-06-02.
	monday := date(2025, time.June, 9)
	assert.Equal(t, date(2025, time.June, 2), Previous(monday, 5))
}

func TestPreviousFromMonday(t *testing.T) {
	monday := date(2025, time.June, 9)
	assert.Equal(t, date(2025, time.June, 6), Previous(monday, 1))
}

func TestIsOpen(t *testing.T) {
	assert.True(t, IsOpen(date(2025, time.June, 6)))   // Friday
	assert.False(t, IsOpen(date(2025, time.June, 7)))  // Saturday
	assert.False(t, IsOpen(date(2025, time.June, 8)))  // Sunday
	assert.True(t, IsOpen(date(2025, time.June, 9)))   // Monday
}
