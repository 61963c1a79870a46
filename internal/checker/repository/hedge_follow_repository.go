package repository

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/bshumway9/stock-split-checker/internal/checker/config"
	"github.com/bshumway9/stock-split-checker/internal/entity"
	"github.com/bshumway9/stock-split-checker/pkg/logger"
)

const hedgeFollowURL = "https://hedgefollow.com/upcoming-stock-splits.php"

// hedgeFollowRepository scrapes the HedgeFollow upcoming-splits table.
type hedgeFollowRepository struct {
	client *http.Client
	cfg    *config.Config
	logger *logger.Logger
}

// NewHedgeFollowRepository creates a SplitSource backed by HedgeFollow.
func NewHedgeFollowRepository(cfg *config.Config, log *logger.Logger) SplitSource {
	return &hedgeFollowRepository{
		client: &http.Client{Timeout: cfg.Scraper.Timeout},
		cfg:    cfg,
		logger: log,
	}
}

func (r *hedgeFollowRepository) Name() string {
	return "hedgefollow"
}

func (r *hedgeFollowRepository) FetchSplits(ctx context.Context) (*SourceResult, error) {
	doc, err := fetchDocument(ctx, r.client, hedgeFollowURL, r.cfg.Scraper.UserAgent)
	if err != nil {
		return nil, fmt.Errorf("hedgefollow fetch failed: %w", err)
	}

	result := &SourceResult{}
	today := time.Now()

	doc.Find("table#latest_splits tbody tr, table.upcoming_splits tbody tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 4 {
			return
		}

		symbol := entity.NormalizeSymbol(cells.Eq(0).Text())
		exchange := strings.TrimSpace(cells.Eq(1).Text())
		company := strings.TrimSpace(cells.Eq(2).Text())
		ratio := normalizeRatioText(cells.Eq(3).Text())
		dateText := strings.TrimSpace(cells.Eq(4).Text())

		if symbol == "" || ratio == "" || dateText == "" {
			return
		}
		if strings.EqualFold(exchange, "otc") {
			r.logger.Debug("Skipping OTC listing", logger.StringField("symbol", symbol))
			return
		}

		rec := entity.SplitRecord{
			Symbol:        symbol,
			Company:       company,
			Exchange:      exchange,
			Ratio:         ratio,
			EffectiveDate: entity.NormalizeEffectiveDate(dateText),
			IsReverse:     entity.IsReverseRatio(ratio),
			Source:        r.Name(),
		}

		if eff, ok := rec.EffectiveTime(); ok && eff.Before(today.Truncate(24*time.Hour)) {
			result.Past = append(result.Past, rec)
			return
		}
		result.Upcoming = append(result.Upcoming, rec)
		r.logger.Info("Found HedgeFollow split",
			logger.StringField("symbol", symbol),
			logger.StringField("ratio", ratio),
			logger.StringField("effective_date", rec.EffectiveDate),
		)
	})

	return result, nil
}

// normalizeRatioText rewrites site ratio spellings like "1:10" or "1 for 10"
// into the canonical "old->new" form.
func normalizeRatioText(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	s = strings.ReplaceAll(s, " for ", ":")
	if parts := strings.SplitN(s, ":", 2); len(parts) == 2 {
		left := strings.TrimSpace(parts[0])
		right := strings.TrimSpace(parts[1])
		if left != "" && right != "" {
			// Sites list ratios new:old ("1:10" means 10 old -> 1 new).
			return right + "->" + left
		}
	}
	return s
}
