package entity

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/bshumway9/stock-split-checker/pkg/marketday"
)

// Canonical fractional-share handling values as reported to the operator.
const (
	FractionalRoundUp          = "Rounded up to nearest whole share"
	FractionalCashInLieu       = "Cash payment for fractional shares"
	FractionalRoundDown        = "Rounded down to nearest whole share"
	FractionalThresholdRoundUp = "Rounded up if fractional shares exceed a certain threshold"
	FractionalNotEnoughInfo    = "Not enough information"
	FractionalNotSpecified     = "Not specified"
)

// EffectiveDateUnknown is the sentinel for dates a source could not provide.
const EffectiveDateUnknown = "unknown"

// DateLayout is the canonical effective-date layout.
const DateLayout = "2006-01-02"

// TimestampLayout is the layout used for first_sent/last_seen stamps.
const TimestampLayout = "2006-01-02 15:04:05"

// SplitRecord is one reverse/forward stock-split announcement, normalized
// across sources.
type SplitRecord struct {
	Symbol        string   `json:"symbol"`
	Company       string   `json:"company,omitempty"`
	Ratio         string   `json:"ratio,omitempty"`
	EffectiveDate string   `json:"effective_date"`
	IsReverse     bool     `json:"is_reverse"`
	Fractional    string   `json:"fractional,omitempty"`
	Source        string   `json:"source,omitempty"`
	Exchange      string   `json:"exchange,omitempty"`
	Title         string   `json:"title,omitempty"`
	ArticleLinks  []string `json:"article_link,omitempty"`

	// Enriched later in the pipeline.
	CurrentPrice         *float64 `json:"current_price,omitempty"`
	MinSharesForRoundup  *int     `json:"min_shares_for_roundup,omitempty"`
	ThresholdExplanation string   `json:"threshold_explanation,omitempty"`
}

// NormalizeSymbol trims and upper-cases a ticker symbol.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

var unknownDateSpellings = map[string]bool{
	"":        true,
	"unknown": true,
	"n/a":     true,
	"na":      true,
	"tbd":     true,
	"pending": true,
	"-":       true,
	"—":       true,
	"none":    true,
}

var dateLayouts = []string{
	DateLayout,
	"01/02/2006",
	"2006/01/02",
	"01-02-2006",
}

// NormalizeEffectiveDate maps unknown spellings to the "unknown" sentinel and
// re-emits recognized date formats as YYYY-MM-DD. Unparsable strings fall
// back to "unknown" unless they already look like a canonical date. The
// function is idempotent.
func NormalizeEffectiveDate(raw string) string {
	s := strings.TrimSpace(raw)
	if unknownDateSpellings[strings.ToLower(s)] {
		return EffectiveDateUnknown
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(DateLayout)
		}
	}
	if len(s) == 10 && s[4] == '-' {
		return s
	}
	return EffectiveDateUnknown
}

// Key builds the identity key for a (symbol, effective date) pair. Two
// records with the same key describe the same real-world corporate action.
func Key(symbol, effectiveDate string) string {
	return NormalizeSymbol(symbol) + "|" + NormalizeEffectiveDate(effectiveDate)
}

// Key returns the record's identity key.
func (r *SplitRecord) Key() string {
	return Key(r.Symbol, r.EffectiveDate)
}

// EffectiveDateKnown reports whether the record carries a parsed date.
func (r *SplitRecord) EffectiveDateKnown() bool {
	return NormalizeEffectiveDate(r.EffectiveDate) != EffectiveDateUnknown
}

// EffectiveTime parses the normalized effective date. ok is false when the
// date is unknown.
func (r *SplitRecord) EffectiveTime() (time.Time, bool) {
	normalized := NormalizeEffectiveDate(r.EffectiveDate)
	if normalized == EffectiveDateUnknown {
		return time.Time{}, false
	}
	t, err := time.Parse(DateLayout, normalized)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// StillBuyable reports whether shares can still be bought ahead of the split:
// the effective date is unknown, or it is on or after the next trading day.
func (r *SplitRecord) StillBuyable(today time.Time) bool {
	eff, ok := r.EffectiveTime()
	if !ok {
		return true
	}
	return !eff.Before(DateOnly(marketday.Next(today, 1)))
}

// DateOnly strips the time-of-day so calendar dates compare cleanly against
// parsed effective dates.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// AddArticleLinks unions links into the record's grounding-evidence set.
func (r *SplitRecord) AddArticleLinks(links ...string) {
	seen := make(map[string]bool, len(r.ArticleLinks)+len(links))
	for _, l := range r.ArticleLinks {
		seen[l] = true
	}
	for _, l := range links {
		if l == "" || seen[l] {
			continue
		}
		seen[l] = true
		r.ArticleLinks = append(r.ArticleLinks, l)
	}
	sort.Strings(r.ArticleLinks)
}

var insufficientFractional = map[string]bool{
	"":                       true,
	"unknown":                true,
	"not specified":          true,
	"unspecified":            true,
	"not enough information": true,
	"check rounding policy":  true,
}

// InsufficientFractional reports whether a fractional-handling value carries
// no actionable decision and still needs resolution.
func InsufficientFractional(fractional string) bool {
	return insufficientFractional[strings.ToLower(strings.TrimSpace(fractional))]
}

// FractionalPriority maps a fractional-handling value to its notification
// sort order: round-up first, threshold round-up second, decided
// non-actionable outcomes third, anything else before "not specified".
func FractionalPriority(fractional string) int {
	v := strings.ToLower(fractional)
	switch {
	case strings.Contains(v, "rounded up to nearest whole share"):
		return 0
	case strings.Contains(v, "rounded up if fractional shares exceed a certain threshold"):
		return 1
	case strings.Contains(v, "cash payment for fractional shares"),
		strings.Contains(v, "rounded down to nearest whole share"):
		return 2
	case strings.Contains(v, "not specified"):
		return 4
	default:
		return 3
	}
}

var ratioPattern = regexp.MustCompile(`(\d+)\s*(?:->|[:\-–])\s*(\d+)`)
var digitsPattern = regexp.MustCompile(`\d+`)

// RatioMax extracts the larger side of a split ratio string such as "10->1"
// or "1:25". ok is false when no number is present.
func RatioMax(ratio string) (int, bool) {
	if m := ratioPattern.FindStringSubmatch(ratio); m != nil {
		a, _ := strconv.Atoi(m[1])
		b, _ := strconv.Atoi(m[2])
		if a > b {
			return a, true
		}
		return b, true
	}
	max := 0
	found := false
	for _, d := range digitsPattern.FindAllString(ratio, -1) {
		n, err := strconv.Atoi(d)
		if err != nil {
			continue
		}
		if !found || n > max {
			max = n
			found = true
		}
	}
	return max, found
}

// IsReverseRatio reports whether a ratio string describes a reverse split
// (old-share side greater than new-share side).
func IsReverseRatio(ratio string) bool {
	m := ratioPattern.FindStringSubmatch(ratio)
	if m == nil {
		return false
	}
	a, _ := strconv.Atoi(m[1])
	b, _ := strconv.Atoi(m[2])
	return a > b
}

// SortByPriority orders records by fractional-handling priority, keeping the
// original order among equals.
func SortByPriority(records []SplitRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return FractionalPriority(records[i].Fractional) < FractionalPriority(records[j].Fractional)
	})
}
