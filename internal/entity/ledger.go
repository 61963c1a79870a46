package entity

import (
	"encoding/json"
	"time"
)

// LedgerEntry is the persisted record of a previously seen split. Older
// ledgers stored the bare SplitRecord without metadata; UnmarshalJSON accepts
// both shapes so reads never need to care which schema wrote the file.
type LedgerEntry struct {
	Data      SplitRecord `json:"data"`
	FirstSent string      `json:"first_sent,omitempty"`
	LastSeen  string      `json:"last_seen,omitempty"`
}

// UnmarshalJSON resolves the legacy bare-record shape and the current
// wrapped shape through a single accessor.
func (e *LedgerEntry) UnmarshalJSON(raw []byte) error {
	var probe struct {
		Data      *SplitRecord `json:"data"`
		FirstSent string       `json:"first_sent"`
		LastSeen  string       `json:"last_seen"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return err
	}
	if probe.Data != nil {
		e.Data = *probe.Data
		e.FirstSent = probe.FirstSent
		e.LastSeen = probe.LastSeen
		return nil
	}

	// Legacy shape: the entry itself is the split record.
	var rec SplitRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return err
	}
	e.Data = rec
	return nil
}

// Touch refreshes the last-seen stamp.
func (e *LedgerEntry) Touch(now time.Time) {
	e.LastSeen = now.Format(TimestampLayout)
}

// NewLedgerEntry records a split seen for the first time at now.
func NewLedgerEntry(rec SplitRecord, now time.Time) *LedgerEntry {
	stamp := now.Format(TimestampLayout)
	return &LedgerEntry{Data: rec, FirstSent: stamp, LastSeen: stamp}
}

// Ledger maps identity keys to previously seen splits. It is owned by a
// single run: loaded once, mutated in memory, saved once.
type Ledger map[string]*LedgerEntry
