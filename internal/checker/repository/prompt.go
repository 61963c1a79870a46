package repository

import (
	"fmt"
	"strings"

	"github.com/bshumway9/stock-split-checker/internal/entity"
)

func buildFractionalPrompt(rec *entity.SplitRecord) string {
	grounding := ""
	if len(rec.ArticleLinks) > 0 {
		grounding = fmt.Sprintf("\nThese sources announce the split and should anchor your search:\n%s\n", strings.Join(rec.ArticleLinks, "\n"))
	}

	return fmt.Sprintf(`Search for factual information about how %s (%s) will handle fractional shares
in their upcoming reverse stock split (ratio: %s) scheduled for %s.
Please specifically search for their latest SEC filings, press releases, or investor relations
information about this reverse split for the most up to date and accurate information.
%s
Based on factual information only, tell me how they will handle fractional shares after this split:
1. Will they round up fractional shares to the nearest whole share?
2. Will they pay cash in lieu of fractional shares?
3. Will they round down fractional shares?
4. Will they round up only if fractional shares exceed a certain threshold?
5. Is there another method they will use?

Respond with only one of these exact phrases:
"ROUND_UP" - if they'll certainly round up to nearest whole share
"CASH_IN_LIEU" - if they'll certainly pay cash for fractional shares
"ROUND_DOWN" - if they'll certainly round down
"THRESHOLD ROUND_UP" - if they'll certainly round up only if fractional shares exceed a certain threshold
"OTHER: [brief explanation]" - for other methods or uncertainty (explain briefly)
"NO_INFO" - if no information is available

Do not include any explanations, just respond with one of these exact phrases.`,
		rec.Symbol, rec.Company, rec.Ratio, rec.EffectiveDate, grounding)
}

func buildDetailsPrompt(rec *entity.SplitRecord) string {
	grounding := ""
	if len(rec.ArticleLinks) > 0 {
		grounding = fmt.Sprintf("\nStart from these announcement sources:\n%s\n", strings.Join(rec.ArticleLinks, "\n"))
	}

	return fmt.Sprintf(`Search for the announced stock split for %s (%s).
%s
Find the split ratio, the effective date, and whether it is a reverse split.

Respond with exactly three lines in this format and nothing else:
RATIO: [old]->[new] or "unknown"
EFFECTIVE_DATE: YYYY-MM-DD or "unknown"
REVERSE: yes or no`,
		rec.Symbol, rec.Company, grounding)
}

func buildThresholdPrompt(symbol string, largerSide int, links []string) string {
	grounding := ""
	if len(links) > 0 {
		grounding = fmt.Sprintf("\nStart from these announcement sources:\n%s\n", strings.Join(links, "\n"))
	}

	return fmt.Sprintf(`%s has announced a reverse stock split where %d old shares become 1 new share,
and fractional shares are rounded up only when they exceed a certain threshold.
%s
Search their SEC filings and press releases for the exact threshold policy and determine the
minimum number of pre-split shares a holder must own so the fractional remainder is rounded
up to a whole share.

Respond with exactly two lines in this format and nothing else:
MIN_SHARES: [number]
EXPLANATION: [one or two sentences describing the policy]`,
		symbol, largerSide, grounding)
}
