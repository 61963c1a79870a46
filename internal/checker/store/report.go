package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bshumway9/stock-split-checker/internal/entity"
)

// WriteReport regenerates the human-readable report of still-buyable ledger
// entries. The report is advisory; a write failure is returned but should not
// abort the run.
func WriteReport(path string, ledger entity.Ledger, today time.Time) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}

	keys := make([]string, 0, len(ledger))
	for k := range ledger {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return ledger[keys[i]].Data.EffectiveDate < ledger[keys[j]].Data.EffectiveDate
	})

	var b strings.Builder
	b.WriteString("Previously Sent (Still Buyable)\n")
	b.WriteString("===============================\n\n")

	count := 0
	for _, k := range keys {
		entry := ledger[k]
		if !entry.Data.StillBuyable(today) {
			continue
		}
		count++
		ratio := entry.Data.Ratio
		if ratio == "" {
			ratio = "N/A"
		}
		fmt.Fprintf(&b, "%s  %s  effective: %s  first_sent: %s\n",
			entry.Data.Symbol, ratio, entry.Data.EffectiveDate, entry.FirstSent)
	}
	if count == 0 {
		b.WriteString("(none)\n")
	}

	return os.WriteFile(path, []byte(b.String()), 0o644)
}
