package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bshumway9/stock-split-checker/internal/entity"
)

func TestFormatSplitsMessageEmpty(t *testing.T) {
	msg := FormatSplitsMessage(nil, nil)
	assert.Contains(t, msg.Body, "No upcoming reverse stock splits")
}

func TestFormatSplitsMessageSections(t *testing.T) {
	price := 1.23
	minShares := 4
	newSplits := []entity.SplitRecord{
		{
			Symbol:        "UPUP",
			Ratio:         "20->1",
			EffectiveDate: "2025-06-10",
			Fractional:    entity.FractionalRoundUp,
			CurrentPrice:  &price,
			ArticleLinks:  []string{"https://example.com/pr"},
		},
		{
			Symbol:               "THRS",
			Ratio:                "10->1",
			EffectiveDate:        "2025-06-12",
			Fractional:           entity.FractionalThresholdRoundUp,
			MinSharesForRoundup:  &minShares,
			ThresholdExplanation: "Rounds up above half a share.",
		},
		{Symbol: "UNKN", EffectiveDate: "unknown", Fractional: entity.FractionalNotSpecified},
	}
	prevSplits := []entity.SplitRecord{
		{Symbol: "PREV", Ratio: "5->1", EffectiveDate: "2025-06-11", Fractional: entity.FractionalRoundUp},
	}

	msg := FormatSplitsMessage(newSplits, prevSplits)

	assert.Contains(t, msg.Body, "Buy 1 share")
	assert.Contains(t, msg.Body, "UPUP")
	assert.Contains(t, msg.Body, "price: $1.23")
	assert.Contains(t, msg.Body, "https://example.com/pr")

	assert.Contains(t, msg.Body, "Buy up to threshold")
	assert.Contains(t, msg.Body, "min shares for round-up: 4")

	assert.Contains(t, msg.Body, "Check rounding policy")
	assert.Contains(t, msg.Body, "UNKN")

	assert.Contains(t, msg.Body, "Previously sent: Buy 1 share")
	assert.Contains(t, msg.Body, "PREV")

	// 2025-06-10 is a Tuesday; the last day to buy is the Monday before.
	assert.Contains(t, msg.Body, "last day to buy: 2025-06-09")
}

func TestFormatSplitsMessageHidesDecidedNonActionable(t *testing.T) {
	newSplits := []entity.SplitRecord{
		{Symbol: "CASH", EffectiveDate: "2025-06-10", Fractional: entity.FractionalCashInLieu},
		{Symbol: "DOWN", EffectiveDate: "2025-06-10", Fractional: entity.FractionalRoundDown},
		{Symbol: "KEEP", EffectiveDate: "2025-06-10", Fractional: entity.FractionalRoundUp},
	}
	msg := FormatSplitsMessage(newSplits, nil)
	assert.NotContains(t, msg.Body, "CASH ")
	assert.NotContains(t, msg.Body, "DOWN ")
	assert.Contains(t, msg.Body, "KEEP")
}

func TestSplitChunks(t *testing.T) {
	chunks := splitChunks("aaa\nbbb\nccc", 7)
	assert.Equal(t, []string{"aaa\nbbb", "ccc"}, chunks)

	chunks = splitChunks("short", 100)
	assert.Equal(t, []string{"short"}, chunks)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 160))
	long := make([]byte, 200)
	for i := range long {
		long[i] = 'x'
	}
	out := truncate(string(long), 160)
	assert.Len(t, out, 160)
	assert.Equal(t, "...", out[157:])
}
