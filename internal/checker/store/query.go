package store

import (
	"sort"
	"time"

	"github.com/bshumway9/stock-split-checker/internal/entity"
)

// QueryFilter selects ledger entries for operator inspection.
type QueryFilter struct {
	Symbol           string
	On               string // exact effective date, YYYY-MM-DD
	From             string
	To               string
	StillBuyableOnly bool
	ExpiredOnly      bool
}

// QueryResult is one matched ledger entry with its key and buyability.
type QueryResult struct {
	Key          string             `json:"key"`
	Data         entity.SplitRecord `json:"data"`
	FirstSent    string             `json:"first_sent,omitempty"`
	LastSeen     string             `json:"last_seen,omitempty"`
	StillBuyable bool               `json:"still_buyable"`
}

// Query filters ledger entries by symbol, effective-date range, and
// buyability. Entries with unknown dates pass all date-range filters.
func Query(ledger entity.Ledger, filter QueryFilter, today time.Time) []QueryResult {
	parse := func(s string) (time.Time, bool) {
		if s == "" {
			return time.Time{}, false
		}
		t, err := time.Parse(entity.DateLayout, s)
		return t, err == nil
	}
	onDate, hasOn := parse(filter.On)
	fromDate, hasFrom := parse(filter.From)
	toDate, hasTo := parse(filter.To)

	var results []QueryResult
	for key, entry := range ledger {
		data := entry.Data
		stillBuyable := data.StillBuyable(today)

		if filter.Symbol != "" && entity.NormalizeSymbol(data.Symbol) != entity.NormalizeSymbol(filter.Symbol) {
			continue
		}

		eff, effKnown := data.EffectiveTime()
		if hasOn && effKnown && !eff.Equal(onDate) {
			continue
		}
		if hasFrom && effKnown && eff.Before(fromDate) {
			continue
		}
		if hasTo && effKnown && eff.After(toDate) {
			continue
		}

		if filter.StillBuyableOnly && !stillBuyable {
			continue
		}
		if filter.ExpiredOnly && stillBuyable {
			continue
		}

		results = append(results, QueryResult{
			Key:          key,
			Data:         data,
			FirstSent:    entry.FirstSent,
			LastSeen:     entry.LastSeen,
			StillBuyable: stillBuyable,
		})
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Key < results[j].Key })
	return results
}
