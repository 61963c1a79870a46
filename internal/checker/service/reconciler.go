package service

import (
	"sort"
	"strings"
	"time"

	"github.com/bshumway9/stock-split-checker/internal/entity"
	"github.com/bshumway9/stock-split-checker/pkg/logger"
	"github.com/bshumway9/stock-split-checker/pkg/marketday"
)

// Reconciler owns the merge and ledger bookkeeping at the center of a run:
// collapsing raw records across sources, deciding which candidates are new
// versus already known, migrating keys as dates firm up, and pruning stale
// entries. All operations are key-based upserts, so a partially completed run
// re-classifies identically on the next run.
type Reconciler struct {
	logger *logger.Logger
	clock  func() time.Time
}

// NewReconciler creates a reconciler. A nil clock uses the wall clock.
func NewReconciler(log *logger.Logger, clock func() time.Time) *Reconciler {
	if clock == nil {
		clock = time.Now
	}
	return &Reconciler{logger: log, clock: clock}
}

// MergeBySymbol collapses multiple raw records for the same symbol into one
// representative record. Sources may disagree on the effective date for the
// same corporate action, so grouping is by symbol rather than full key; the
// record with the most recent known date wins and article links are unioned
// across the group. Groups without a confirmed reverse split are dropped.
func (r *Reconciler) MergeBySymbol(records []entity.SplitRecord) []entity.SplitRecord {
	groups := make(map[string][]entity.SplitRecord)
	var order []string
	for _, rec := range records {
		if !rec.IsReverse {
			r.logger.Debug("Dropping non-reverse split", logger.StringField("symbol", rec.Symbol))
			continue
		}
		sym := entity.NormalizeSymbol(rec.Symbol)
		if sym == "" {
			continue
		}
		if _, seen := groups[sym]; !seen {
			order = append(order, sym)
		}
		groups[sym] = append(groups[sym], rec)
	}

	merged := make([]entity.SplitRecord, 0, len(groups))
	for _, sym := range order {
		group := groups[sym]
		// Latest known date first; unknown dates carry the least information
		// and sort last.
		sort.SliceStable(group, func(i, j int) bool {
			ti, iKnown := group[i].EffectiveTime()
			tj, jKnown := group[j].EffectiveTime()
			if iKnown != jKnown {
				return iKnown
			}
			return ti.After(tj)
		})

		representative := group[0]
		for _, other := range group[1:] {
			representative.AddArticleLinks(other.ArticleLinks...)
		}
		merged = append(merged, representative)
	}
	return merged
}

// ReconcileResult partitions one run's candidates.
type ReconcileResult struct {
	// NewRecords have no ledger entry and proceed to fractional resolution.
	NewRecords []entity.SplitRecord
	// PrevRecords were sent previously and are still buyable; they surface in
	// the notification without re-resolution.
	PrevRecords []entity.SplitRecord
}

// Reconcile classifies each candidate against the ledger, mutating the
// ledger's stored entries in place:
//
//   - a stored entry under the candidate's key means already known: volatile
//     fields are refreshed from the fresh scrape, an insufficient stored
//     fractional value is upgraded when the fresh record has a decided one,
//     and last_seen is touched;
//   - a missing key with a same-symbol entry across the known/unknown date
//     boundary is a migration: the entry moves to the new key with its
//     first_sent preserved;
//   - anything else is new.
func (r *Reconciler) Reconcile(ledger entity.Ledger, candidates []entity.SplitRecord) *ReconcileResult {
	now := r.clock()
	today := now
	result := &ReconcileResult{}

	seen := make(map[string]bool)
	for _, candidate := range candidates {
		key := candidate.Key()
		if seen[key] {
			continue
		}
		seen[key] = true

		entry := ledger[key]
		if entry == nil {
			if migratedKey, migrated := r.migrate(ledger, candidate, key); migrated {
				entry = ledger[migratedKey]
			}
		}

		if entry == nil {
			result.NewRecords = append(result.NewRecords, candidate)
			continue
		}

		r.mergeFreshFields(entry, candidate)
		entry.Touch(now)
		ledger[key] = entry

		if entry.Data.StillBuyable(today) {
			result.PrevRecords = append(result.PrevRecords, entry.Data)
		}
	}
	return result
}

// migrate moves a same-symbol ledger entry across the known/unknown date
// boundary: a stored "unknown" entry adopts the candidate's firm date, or a
// candidate with an unknown date latches onto the symbol's single dated
// entry. Returns the candidate's key when a migration happened.
func (r *Reconciler) migrate(ledger entity.Ledger, candidate entity.SplitRecord, key string) (string, bool) {
	sym := entity.NormalizeSymbol(candidate.Symbol)
	dateNorm := entity.NormalizeEffectiveDate(candidate.EffectiveDate)

	var oldKey string
	if dateNorm != entity.EffectiveDateUnknown {
		unknownKey := sym + "|" + entity.EffectiveDateUnknown
		if _, ok := ledger[unknownKey]; ok {
			oldKey = unknownKey
		}
	} else {
		// Several dated entries for one symbol are possible when a source
		// reported conflicting dates; take the smallest key so the choice is
		// stable across runs.
		for k := range ledger {
			if len(k) > len(sym) && k[:len(sym)+1] == sym+"|" && k[len(sym)+1:] != entity.EffectiveDateUnknown {
				if oldKey == "" || k < oldKey {
					oldKey = k
				}
			}
		}
	}
	if oldKey == "" {
		return "", false
	}

	entry := ledger[oldKey]
	delete(ledger, oldKey)
	entry.Data.EffectiveDate = dateNorm
	entry.Touch(r.clock())
	ledger[key] = entry
	r.logger.Info("Migrated ledger entry",
		logger.StringField("from", oldKey), logger.StringField("to", key))
	return key, true
}

// mergeFreshFields copies volatile fields from the fresh scrape into the
// stored record without disturbing processed fields, and upgrades the stored
// fractional decision when the fresh record carries a decided one.
func (r *Reconciler) mergeFreshFields(entry *entity.LedgerEntry, fresh entity.SplitRecord) {
	if fresh.Company != "" {
		entry.Data.Company = fresh.Company
	}
	if fresh.Ratio != "" {
		entry.Data.Ratio = fresh.Ratio
	}
	if fresh.Source != "" {
		entry.Data.Source = fresh.Source
	}
	entry.Data.AddArticleLinks(fresh.ArticleLinks...)

	if fresh.Fractional != "" &&
		entity.InsufficientFractional(entry.Data.Fractional) &&
		!entity.InsufficientFractional(fresh.Fractional) {
		entry.Data.Fractional = fresh.Fractional
	}
}

// FilterKnown drops candidates whose symbol already has a fully informative
// ledger entry (known ratio, known date, decided fractional handling). Used
// on news-derived candidates before spending resolver calls on them.
func (r *Reconciler) FilterKnown(ledger entity.Ledger, candidates []entity.SplitRecord) []entity.SplitRecord {
	bySymbol := make(map[string][]*entity.LedgerEntry)
	for _, entry := range ledger {
		sym := entity.NormalizeSymbol(entry.Data.Symbol)
		if sym != "" {
			bySymbol[sym] = append(bySymbol[sym], entry)
		}
	}

	var kept []entity.SplitRecord
	for _, candidate := range candidates {
		sym := entity.NormalizeSymbol(candidate.Symbol)
		if sym == "" {
			kept = append(kept, candidate)
			continue
		}
		skip := false
		for _, entry := range bySymbol[sym] {
			ratio := strings.ToLower(strings.TrimSpace(entry.Data.Ratio))
			ratioKnown := ratio != "" && ratio != "unknown"
			dateKnown := entry.Data.EffectiveDateKnown()
			if ratioKnown && dateKnown && !entity.InsufficientFractional(entry.Data.Fractional) {
				skip = true
				break
			}
		}
		if skip {
			r.logger.Debug("Candidate already fully known", logger.StringField("symbol", sym))
			continue
		}
		kept = append(kept, candidate)
	}
	return kept
}

// FilterStillBuyable keeps candidates whose effective date is unknown or
// still ahead of the next trading day.
func (r *Reconciler) FilterStillBuyable(records []entity.SplitRecord) []entity.SplitRecord {
	today := r.clock()
	var kept []entity.SplitRecord
	for _, rec := range records {
		if rec.StillBuyable(today) {
			kept = append(kept, rec)
		}
	}
	return kept
}

// CommitNew inserts this run's newly resolved records into the ledger.
func (r *Reconciler) CommitNew(ledger entity.Ledger, records []entity.SplitRecord) {
	now := r.clock()
	for _, rec := range records {
		ledger[rec.Key()] = entity.NewLedgerEntry(rec, now)
	}
}

// UpdateResolved writes back fractional decisions that firmed up during the
// run for previously sent records.
func (r *Reconciler) UpdateResolved(ledger entity.Ledger, records []entity.SplitRecord) {
	now := r.clock()
	for _, rec := range records {
		key := rec.Key()
		entry := ledger[key]
		if entry == nil {
			// Safety net: a decided record should never be absent from the
			// ledger at write-back time.
			if rec.Fractional != "" && !entity.InsufficientFractional(rec.Fractional) {
				ledger[key] = entity.NewLedgerEntry(rec, now)
			}
			continue
		}
		if rec.Fractional != "" && rec.Fractional != entry.Data.Fractional {
			entry.Data.Fractional = rec.Fractional
			entry.Touch(now)
		}
	}
}

// Prune drops entries whose known effective date fell out of the rolling
// one-trading-week retention window. Unknown dates are kept indefinitely;
// they may still resolve to a real date later.
func (r *Reconciler) Prune(ledger entity.Ledger) {
	cutoff := entity.DateOnly(marketday.Previous(r.clock(), 5))
	for key, entry := range ledger {
		eff, known := entry.Data.EffectiveTime()
		if !known {
			continue
		}
		if eff.Before(cutoff) {
			r.logger.Info("Pruning expired ledger entry", logger.StringField("key", key))
			delete(ledger, key)
		}
	}
}

// FilterActionable removes decided non-actionable outcomes (cash-in-lieu,
// round-down) from a notification list and orders the rest by priority. The
// removed records stay in the ledger so they are never re-resolved.
func (r *Reconciler) FilterActionable(records []entity.SplitRecord) []entity.SplitRecord {
	var actionable []entity.SplitRecord
	for _, rec := range records {
		if entity.FractionalPriority(rec.Fractional) == 2 {
			continue
		}
		actionable = append(actionable, rec)
	}
	entity.SortByPriority(actionable)
	return actionable
}
