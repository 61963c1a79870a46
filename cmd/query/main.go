package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/bshumway9/stock-split-checker/internal/checker/store"
	"github.com/bshumway9/stock-split-checker/pkg/logger"
)

var (
	dbPath       string
	symbol       string
	onDate       string
	fromDate     string
	toDate       string
	stillBuyable bool
	expired      bool
	asJSON       bool
)

var rootCmd = &cobra.Command{
	Use:   "query",
	Short: "Inspects the previously-sent split ledger",
	RunE:  runQuery,
}

func runQuery(cmd *cobra.Command, args []string) error {
	if stillBuyable && expired {
		return fmt.Errorf("--still-buyable and --expired are mutually exclusive")
	}

	ledger := store.NewLedgerStore(dbPath, logger.NewNop()).Load()
	filter := store.QueryFilter{
		Symbol:           symbol,
		On:               onDate,
		From:             fromDate,
		To:               toDate,
		StillBuyableOnly: stillBuyable,
		ExpiredOnly:      expired,
	}
	results := store.Query(ledger, filter, time.Now())

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Println("no matching entries")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SYMBOL\tEFFECTIVE\tRATIO\tFRACTIONAL\tFIRST SENT\tLAST SEEN\tBUYABLE")
	for _, res := range results {
		buyable := "no"
		if res.StillBuyable {
			buyable = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			res.Data.Symbol,
			res.Data.EffectiveDate,
			res.Data.Ratio,
			res.Data.Fractional,
			res.FirstSent,
			res.LastSeen,
			buyable)
	}
	return w.Flush()
}

func main() {
	rootCmd.Flags().StringVar(&dbPath, "db", "logs/previously_sent_db.json", "Path to the ledger file")
	rootCmd.Flags().StringVar(&symbol, "symbol", "", "Filter by ticker symbol")
	rootCmd.Flags().StringVar(&onDate, "on", "", "Filter by exact effective date (YYYY-MM-DD)")
	rootCmd.Flags().StringVar(&fromDate, "from", "", "Filter by effective date lower bound (YYYY-MM-DD)")
	rootCmd.Flags().StringVar(&toDate, "to", "", "Filter by effective date upper bound (YYYY-MM-DD)")
	rootCmd.Flags().BoolVar(&stillBuyable, "still-buyable", false, "Only entries whose split has not taken effect")
	rootCmd.Flags().BoolVar(&expired, "expired", false, "Only entries whose split has taken effect")
	rootCmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
