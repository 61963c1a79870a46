package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bshumway9/stock-split-checker/internal/entity"
	"github.com/bshumway9/stock-split-checker/pkg/logger"
)

func testClock() time.Time {
	// Friday.
	return time.Date(2025, time.June, 6, 8, 0, 0, 0, time.UTC)
}

func TestLoadMissingFileReturnsEmptyLedger(t *testing.T) {
	s := NewLedgerStore(filepath.Join(t.TempDir(), "db.json"), logger.NewNop())
	ledger := s.Load()
	assert.NotNil(t, ledger)
	assert.Empty(t, ledger)
}

func TestLoadCorruptFileReturnsEmptyLedger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	s := NewLedgerStore(path, logger.NewNop())
	assert.Empty(t, s.Load())
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	s := NewLedgerStore(path, logger.NewNop())

	rec := entity.SplitRecord{
		Symbol:        "XYZ",
		EffectiveDate: "2025-06-09",
		Ratio:         "10->1",
		IsReverse:     true,
		Fractional:    entity.FractionalRoundUp,
		ArticleLinks:  []string{"https://example.com/pr"},
	}
	ledger := entity.Ledger{rec.Key(): entity.NewLedgerEntry(rec, testClock())}
	require.NoError(t, s.Save(ledger))

	loaded := s.Load()
	require.Len(t, loaded, 1)
	entry := loaded["XYZ|2025-06-09"]
	require.NotNil(t, entry)
	assert.Equal(t, rec, entry.Data)
	assert.Equal(t, "2025-06-06 08:00:00", entry.FirstSent)
}

func TestLoadLegacyShape(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	legacy := `{"ABC|unknown":{"symbol":"ABC","effective_date":"unknown","is_reverse":true}}`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o644))

	s := NewLedgerStore(path, logger.NewNop())
	ledger := s.Load()
	require.Len(t, ledger, 1)
	assert.Equal(t, "ABC", ledger["ABC|unknown"].Data.Symbol)
	assert.Empty(t, ledger["ABC|unknown"].FirstSent)
}

func TestSaveDoesNotLeaveTempFiles(t *testing.T) {
	dir := t.TempDir()
	s := NewLedgerStore(filepath.Join(dir, "db.json"), logger.NewNop())
	require.NoError(t, s.Save(entity.Ledger{}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "db.json", entries[0].Name())
}

func TestSaveIsValidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	s := NewLedgerStore(path, logger.NewNop())
	rec := entity.SplitRecord{Symbol: "QQQ", EffectiveDate: "unknown", IsReverse: true}
	require.NoError(t, s.Save(entity.Ledger{rec.Key(): entity.NewLedgerEntry(rec, testClock())}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Contains(t, decoded, "QQQ|unknown")
}

func TestWriteReportOnlyStillBuyable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.txt")
	today := testClock()

	live := entity.SplitRecord{Symbol: "LIVE", EffectiveDate: "2025-06-10", Ratio: "20->1", IsReverse: true}
	expired := entity.SplitRecord{Symbol: "DEAD", EffectiveDate: "2025-06-02", Ratio: "5->1", IsReverse: true}
	ledger := entity.Ledger{
		live.Key():    entity.NewLedgerEntry(live, today),
		expired.Key(): entity.NewLedgerEntry(expired, today),
	}
	require.NoError(t, WriteReport(path, ledger, today))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "LIVE")
	assert.NotContains(t, string(raw), "DEAD")
}

func TestWriteReportEmptyLedger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.txt")
	require.NoError(t, WriteReport(path, entity.Ledger{}, testClock()))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "(none)")
}

func TestLastRunStoreRoundTrip(t *testing.T) {
	s := NewLastRunStore(filepath.Join(t.TempDir(), "last_run.txt"))

	_, ok := s.Read()
	assert.False(t, ok)

	now := time.Date(2025, time.June, 6, 8, 30, 0, 0, time.Local)
	require.NoError(t, s.Write(now))

	got, ok := s.Read()
	require.True(t, ok)
	assert.True(t, now.Equal(got))
}
