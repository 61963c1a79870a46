package entity

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeSymbol(t *testing.T) {
	assert.Equal(t, "AAPL", NormalizeSymbol("  aapl "))
	assert.Equal(t, "BRK.A", NormalizeSymbol("brk.a"))
	assert.Equal(t, "", NormalizeSymbol("   "))
}

func TestNormalizeEffectiveDate(t *testing.T) {
	cases := map[string]string{
		"2025-03-10":  "2025-03-10",
		"03/10/2025":  "2025-03-10",
		"2025/03/10":  "2025-03-10",
		"03-10-2025":  "2025-03-10",
		"":            "unknown",
		"unknown":     "unknown",
		"Unknown":     "unknown",
		"N/A":         "unknown",
		"TBD":         "unknown",
		"pending":     "unknown",
		"-":           "unknown",
		"none":        "unknown",
		"soon":        "unknown",
		"March 10":    "unknown",
		"2025-99-99":  "2025-99-99", // looks canonical, kept as-is
	}
	for input, want := range cases {
		assert.Equal(t, want, NormalizeEffectiveDate(input), "input %q", input)
	}
}

func TestNormalizeEffectiveDateIdempotent(t *testing.T) {
	inputs := []string{"2025-03-10", "03/10/2025", "", "TBD", "garbage", "2025-99-99"}
	for _, input := range inputs {
		once := NormalizeEffectiveDate(input)
		assert.Equal(t, once, NormalizeEffectiveDate(once), "input %q", input)
	}
}

func TestKeyInjectivity(t *testing.T) {
	keys := map[string]bool{}
	symbols := []string{"A", "AA", "AAPL", "BRK.A", "XYZ"}
	dates := []string{"2025-01-02", "2025-01-03", "unknown"}
	for _, sym := range symbols {
		for _, d := range dates {
			k := Key(sym, d)
			assert.False(t, keys[k], "collision at %s", k)
			keys[k] = true
		}
	}
}

func TestStillBuyable(t *testing.T) {
	// Friday; next trading day is Monday 2025-06-09.
	today := time.Date(2025, time.June, 6, 0, 0, 0, 0, time.UTC)

	rec := SplitRecord{Symbol: "XYZ", EffectiveDate: "2025-06-09"}
	assert.True(t, rec.StillBuyable(today))

	rec.EffectiveDate = "2025-06-07"
	assert.False(t, rec.StillBuyable(today))

	rec.EffectiveDate = "unknown"
	assert.True(t, rec.StillBuyable(today))
}

func TestAddArticleLinksDeduplicates(t *testing.T) {
	rec := SplitRecord{ArticleLinks: []string{"https://a.example/1"}}
	rec.AddArticleLinks("https://a.example/2", "https://a.example/1", "")
	assert.Equal(t, []string{"https://a.example/1", "https://a.example/2"}, rec.ArticleLinks)

	// Re-adding the same set changes nothing.
	rec.AddArticleLinks("https://a.example/1", "https://a.example/2")
	assert.Len(t, rec.ArticleLinks, 2)
}

func TestInsufficientFractional(t *testing.T) {
	for _, v := range []string{"", "unknown", "Not specified", "UNSPECIFIED", "Not enough information", "check rounding policy", "  Unknown  "} {
		assert.True(t, InsufficientFractional(v), "value %q", v)
	}
	for _, v := range []string{FractionalRoundUp, FractionalCashInLieu, FractionalRoundDown, FractionalThresholdRoundUp, "Shares repurchased at market value"} {
		assert.False(t, InsufficientFractional(v), "value %q", v)
	}
}

func TestFractionalPriority(t *testing.T) {
	assert.Equal(t, 0, FractionalPriority(FractionalRoundUp))
	assert.Equal(t, 1, FractionalPriority(FractionalThresholdRoundUp))
	assert.Equal(t, 2, FractionalPriority(FractionalCashInLieu))
	assert.Equal(t, 2, FractionalPriority(FractionalRoundDown))
	assert.Equal(t, 3, FractionalPriority("Some exotic arrangement"))
	assert.Equal(t, 4, FractionalPriority(FractionalNotSpecified))
}

func TestSortByPriority(t *testing.T) {
	records := []SplitRecord{
		{Symbol: "A", Fractional: FractionalNotSpecified},
		{Symbol: "B", Fractional: FractionalThresholdRoundUp},
		{Symbol: "C", Fractional: FractionalRoundUp},
		{Symbol: "D", Fractional: FractionalRoundUp},
	}
	SortByPriority(records)
	assert.Equal(t, []string{"C", "D", "B", "A"}, []string{records[0].Symbol, records[1].Symbol, records[2].Symbol, records[3].Symbol})
}

func TestRatioMax(t *testing.T) {
	cases := []struct {
		ratio string
		want  int
		ok    bool
	}{
		{"10->1", 10, true},
		{"1:25", 25, true},
		{"1 - 50", 50, true},
		{"reverse 8 for 1", 8, true},
		{"", 0, false},
		{"n/a", 0, false},
	}
	for _, tc := range cases {
		got, ok := RatioMax(tc.ratio)
		assert.Equal(t, tc.ok, ok, "ratio %q", tc.ratio)
		if ok {
			assert.Equal(t, tc.want, got, "ratio %q", tc.ratio)
		}
	}
}

func TestIsReverseRatio(t *testing.T) {
	// The canonical form the scrapers emit is "old->new".
	reverse := []string{"10->1", "25 -> 1", "10:1", "10-1", "10–1", "100 : 1"}
	for _, ratio := range reverse {
		assert.True(t, IsReverseRatio(ratio), "ratio %q", ratio)
	}
	forward := []string{"1->10", "1:25", "unknown", "", "10"}
	for _, ratio := range forward {
		assert.False(t, IsReverseRatio(ratio), "ratio %q", ratio)
	}
}

func TestRatioPatternParsesArrowForm(t *testing.T) {
	got, ok := RatioMax("3->1")
	require.True(t, ok)
	// Must come from the pair match, not the digit-scan fallback: the larger
	// side of "3->1" is 3 even though the fallback would also find it, and
	// "1->20" must report 20 with the pair recognized as forward.
	assert.Equal(t, 3, got)
	assert.False(t, IsReverseRatio("1->20"))
	assert.True(t, IsReverseRatio("20->1"))
}

func TestLedgerEntryUnmarshalCurrentShape(t *testing.T) {
	raw := `{"data":{"symbol":"XYZ","effective_date":"2025-06-01","is_reverse":true},"first_sent":"2025-05-20 08:00:00","last_seen":"2025-05-21 08:00:00"}`
	var entry LedgerEntry
	require.NoError(t, json.Unmarshal([]byte(raw), &entry))
	assert.Equal(t, "XYZ", entry.Data.Symbol)
	assert.Equal(t, "2025-05-20 08:00:00", entry.FirstSent)
	assert.Equal(t, "2025-05-21 08:00:00", entry.LastSeen)
}

func TestLedgerEntryUnmarshalLegacyShape(t *testing.T) {
	raw := `{"symbol":"ABC","effective_date":"unknown","is_reverse":true,"fractional":"Not specified"}`
	var entry LedgerEntry
	require.NoError(t, json.Unmarshal([]byte(raw), &entry))
	assert.Equal(t, "ABC", entry.Data.Symbol)
	assert.Empty(t, entry.FirstSent)
}
