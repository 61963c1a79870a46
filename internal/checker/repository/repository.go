package repository

import (
	"context"

	"github.com/bshumway9/stock-split-checker/internal/entity"
)

// SourceResult is one source's contribution for a run. A source fills only
// the pieces it can see: table scrapers produce confirmed upcoming (and
// recently effective) splits, the news feed produces looser candidates that
// still need their details resolved.
type SourceResult struct {
	// Upcoming holds confirmed split announcements with known fields.
	Upcoming []entity.SplitRecord
	// Past holds splits whose effective date has already passed. They are
	// never notified but suppress re-discovery of the same symbol from the
	// news path.
	Past []entity.SplitRecord
	// NewsCandidates holds records derived from press coverage. Fields may
	// be missing and are filled by the resolver for genuinely new symbols.
	NewsCandidates []entity.SplitRecord
	// ArticleLinks maps a symbol to grounding-evidence URLs seen anywhere on
	// the source, including articles about splits reported elsewhere.
	ArticleLinks map[string][]string
}

// SplitSource fetches raw split announcements from one external site.
type SplitSource interface {
	Name() string
	FetchSplits(ctx context.Context) (*SourceResult, error)
}

// FractionalResolver determines how an issuer treats fractional shares, and
// fills in missing split details for news-derived candidates.
type FractionalResolver interface {
	// ResolveFractional sets rec.Fractional to one of the canonical values.
	// On unrecoverable failure the value is FractionalNotEnoughInfo and an
	// error is returned for logging.
	ResolveFractional(ctx context.Context, rec *entity.SplitRecord) error
	// ResolveSplitDetails fills missing ratio, effective date, and reverse
	// flag on a news-derived candidate.
	ResolveSplitDetails(ctx context.Context, rec *entity.SplitRecord) error
	// ThresholdMinimumShares looks up the minimum share count that avoids
	// forfeiting the round-up for threshold-style splits, with a short
	// explanation.
	ThresholdMinimumShares(ctx context.Context, symbol string, largerSide int, links []string) (int, string, error)
}

// Quote is a point-in-time price lookup result.
type Quote struct {
	Price    float64
	Exchange string
	OTC      bool
}

// PriceRepository looks up current quotes for tickers.
type PriceRepository interface {
	GetQuote(ctx context.Context, symbol string) (*Quote, error)
}
