package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bshumway9/stock-split-checker/internal/entity"
	"github.com/bshumway9/stock-split-checker/pkg/logger"
)

// LedgerStore persists the previously-sent ledger as a single JSON file
// mapping identity key to ledger entry.
type LedgerStore struct {
	path   string
	logger *logger.Logger
}

// NewLedgerStore creates a ledger store backed by the file at path.
func NewLedgerStore(path string, log *logger.Logger) *LedgerStore {
	return &LedgerStore{path: path, logger: log}
}

// Load reads the ledger file. A missing or unreadable file yields an empty
// ledger: every record in the current run is then treated as new.
func (s *LedgerStore) Load() entity.Ledger {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Error("Failed to read ledger file", logger.StringField("path", s.path), logger.ErrorField(err))
		}
		return entity.Ledger{}
	}

	var ledger entity.Ledger
	if err := json.Unmarshal(raw, &ledger); err != nil {
		s.logger.Error("Ledger file is corrupt, starting from an empty ledger", logger.StringField("path", s.path), logger.ErrorField(err))
		return entity.Ledger{}
	}
	return ledger
}

// Save writes the full ledger, replacing the previous file. The write goes
// through a temp file and rename so a failure never leaves a partial file.
func (s *LedgerStore) Save(ledger entity.Ledger) error {
	raw, err := json.MarshalIndent(ledger, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal ledger: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create ledger directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp ledger file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp ledger file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp ledger file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace ledger file: %w", err)
	}
	return nil
}

// LastRunStore persists the timestamp of the most recent completed run, used
// by the scheduler to catch up on a missed daily run.
type LastRunStore struct {
	path string
}

// NewLastRunStore creates a last-run stamp store backed by the file at path.
func NewLastRunStore(path string) *LastRunStore {
	return &LastRunStore{path: path}
}

// Read returns the stamped time of the last completed run. ok is false when
// no valid stamp exists.
func (s *LastRunStore) Read() (time.Time, bool) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(entity.TimestampLayout, strings.TrimSpace(string(raw)), time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Write stamps now as the last completed run.
func (s *LastRunStore) Write(now time.Time) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create last-run directory: %w", err)
	}
	return os.WriteFile(s.path, []byte(now.Format(entity.TimestampLayout)), 0o644)
}
