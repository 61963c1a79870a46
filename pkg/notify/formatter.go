package notify

import (
	"fmt"
	"strings"

	"github.com/bshumway9/stock-split-checker/internal/entity"
	"github.com/bshumway9/stock-split-checker/pkg/marketday"
)

// FormatSplitsMessage renders this run's notification: new splits grouped by
// how fractional shares are treated, followed by previously sent records that
// are still buyable.
func FormatSplitsMessage(newSplits, prevSplits []entity.SplitRecord) Message {
	if len(newSplits) == 0 && len(prevSplits) == 0 {
		return Message{
			Subject: "Reverse Split Checker",
			Body:    "No upcoming reverse stock splits found for today.",
			Short:   "Reverse Split Checker: no upcoming reverse splits found.",
		}
	}

	var b strings.Builder
	writeSections(&b, newSplits, "")
	writeSections(&b, prevSplits, "Previously sent: ")

	body := strings.TrimRight(b.String(), "\n")
	return Message{
		Subject: "Upcoming Reverse Stock Splits",
		Body:    body,
		Short: fmt.Sprintf("Reverse Split Checker: %d new, %d previously sent still buyable. Check full notification.",
			len(newSplits), len(prevSplits)),
	}
}

func writeSections(b *strings.Builder, splits []entity.SplitRecord, prefix string) {
	var buyOneShare, buyThreshold, checkRounding []entity.SplitRecord
	for _, split := range splits {
		switch strings.ToLower(split.Fractional) {
		case strings.ToLower(entity.FractionalCashInLieu), strings.ToLower(entity.FractionalRoundDown):
			// Decided non-actionable outcomes stay out of the display.
		case strings.ToLower(entity.FractionalRoundUp):
			buyOneShare = append(buyOneShare, split)
		case strings.ToLower(entity.FractionalThresholdRoundUp):
			buyThreshold = append(buyThreshold, split)
		default:
			checkRounding = append(checkRounding, split)
		}
	}

	writeSection(b, prefix+"Buy 1 share", buyOneShare)
	writeSection(b, prefix+"Buy up to threshold", buyThreshold)
	writeSection(b, prefix+"Check rounding policy", checkRounding)
}

func writeSection(b *strings.Builder, title string, splits []entity.SplitRecord) {
	if len(splits) == 0 {
		return
	}
	fmt.Fprintf(b, "%s\n%s\n", title, strings.Repeat("-", len(title)))
	for _, split := range splits {
		writeSplit(b, split)
	}
	b.WriteString("\n")
}

func writeSplit(b *strings.Builder, split entity.SplitRecord) {
	ratio := split.Ratio
	if ratio == "" {
		ratio = "N/A"
	}
	fmt.Fprintf(b, "%s  %s  effective: %s", split.Symbol, ratio, split.EffectiveDate)

	if eff, ok := split.EffectiveTime(); ok {
		lastBuy := marketday.Previous(eff, 1)
		fmt.Fprintf(b, "  last day to buy: %s", lastBuy.Format(entity.DateLayout))
	}
	if split.CurrentPrice != nil {
		fmt.Fprintf(b, "  price: $%.2f", *split.CurrentPrice)
	}
	b.WriteString("\n")

	if split.MinSharesForRoundup != nil {
		fmt.Fprintf(b, "  min shares for round-up: %d\n", *split.MinSharesForRoundup)
	}
	if split.ThresholdExplanation != "" {
		fmt.Fprintf(b, "  threshold policy: %s\n", split.ThresholdExplanation)
	}
	for _, link := range split.ArticleLinks {
		fmt.Fprintf(b, "  %s\n", link)
	}
}
