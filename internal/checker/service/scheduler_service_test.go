package service

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bshumway9/stock-split-checker/internal/checker/store"
	"github.com/bshumway9/stock-split-checker/pkg/logger"
)

const testCronSpec = "0 8 * * 1-5"

// The cron spec and the last-run stamp both live in local time, so the test
// fixtures do too.
func schedulerAt(t *testing.T, clock time.Time, lastRun *time.Time) *SchedulerService {
	t.Helper()
	lastRunStore := store.NewLastRunStore(filepath.Join(t.TempDir(), "last_run.txt"))
	if lastRun != nil {
		require.NoError(t, lastRunStore.Write(*lastRun))
	}
	return NewSchedulerService(logger.NewNop(), nil, lastRunStore, testCronSpec, func() time.Time { return clock })
}

func TestMissedRunWeekend(t *testing.T) {
	// Saturday, well past the weekday slot, no record at all.
	clock := time.Date(2025, time.June, 7, 12, 0, 0, 0, time.Local)
	s := schedulerAt(t, clock, nil)
	assert.False(t, s.MissedRun())
}

func TestMissedRunAfterSlotWithFreshRecord(t *testing.T) {
	// Friday 09:00; today's 08:00 slot already ran.
	clock := time.Date(2025, time.June, 6, 9, 0, 0, 0, time.Local)
	lastRun := time.Date(2025, time.June, 6, 8, 0, 30, 0, time.Local)
	s := schedulerAt(t, clock, &lastRun)
	assert.False(t, s.MissedRun())
}

func TestMissedRunAfterSlotWithStaleRecord(t *testing.T) {
	// Friday 09:00; the last recorded run is Thursday's, so today's 08:00
	// slot was skipped.
	clock := time.Date(2025, time.June, 6, 9, 0, 0, 0, time.Local)
	lastRun := time.Date(2025, time.June, 5, 8, 0, 30, 0, time.Local)
	s := schedulerAt(t, clock, &lastRun)
	assert.True(t, s.MissedRun())
}

func TestMissedRunBeforeTodaysSlot(t *testing.T) {
	// Friday 07:00; the most recent passed slot is Thursday's, which did run.
	clock := time.Date(2025, time.June, 6, 7, 0, 0, 0, time.Local)
	lastRun := time.Date(2025, time.June, 5, 8, 0, 30, 0, time.Local)
	s := schedulerAt(t, clock, &lastRun)
	assert.False(t, s.MissedRun())
}

func TestMissedRunNoRecordOnTradingDay(t *testing.T) {
	clock := time.Date(2025, time.June, 6, 9, 0, 0, 0, time.Local)
	s := schedulerAt(t, clock, nil)
	assert.True(t, s.MissedRun())
}
