package repository

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/bshumway9/stock-split-checker/internal/checker/config"
	"github.com/bshumway9/stock-split-checker/internal/entity"
	"github.com/bshumway9/stock-split-checker/pkg/logger"
)

const yahooSplitsCalendarURL = "https://finance.yahoo.com/calendar/splits?day=%s"

// yahooSymbolPattern matches plain listed tickers; anything with an OTC-style
// suffix or warrant marker is skipped.
var yahooSymbolPattern = regexp.MustCompile(`^[A-Z]{1,5}(\.[A-Z]{1,2})?$`)

// yahooFinanceRepository scrapes the Yahoo Finance splits calendar, one page
// per upcoming trading day.
type yahooFinanceRepository struct {
	client  *http.Client
	cfg     *config.Config
	logger  *logger.Logger
	daysOut int
}

// NewYahooFinanceRepository creates a SplitSource backed by the Yahoo Finance
// splits calendar.
func NewYahooFinanceRepository(cfg *config.Config, log *logger.Logger) SplitSource {
	return &yahooFinanceRepository{
		client:  &http.Client{Timeout: cfg.Scraper.Timeout},
		cfg:     cfg,
		logger:  log,
		daysOut: 7,
	}
}

func (r *yahooFinanceRepository) Name() string {
	return "yahoo_finance"
}

func (r *yahooFinanceRepository) FetchSplits(ctx context.Context) (*SourceResult, error) {
	result := &SourceResult{}
	var lastErr error
	fetched := 0

	day := time.Now()
	for i := 0; i < r.daysOut; i++ {
		dayStr := day.Format(entity.DateLayout)
		recs, err := r.fetchDay(ctx, dayStr)
		if err != nil {
			// One calendar page failing does not invalidate the rest.
			r.logger.Warn("Yahoo Finance day fetch failed",
				logger.StringField("day", dayStr), logger.ErrorField(err))
			lastErr = err
		} else {
			fetched++
			result.Upcoming = append(result.Upcoming, recs...)
		}
		day = day.AddDate(0, 0, 1)
	}

	if fetched == 0 && lastErr != nil {
		return nil, fmt.Errorf("yahoo finance fetch failed for all days: %w", lastErr)
	}
	return result, nil
}

func (r *yahooFinanceRepository) fetchDay(ctx context.Context, day string) ([]entity.SplitRecord, error) {
	doc, err := fetchDocument(ctx, r.client, fmt.Sprintf(yahooSplitsCalendarURL, day), r.cfg.Scraper.UserAgent)
	if err != nil {
		return nil, err
	}

	var records []entity.SplitRecord
	doc.Find("table tbody tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 4 {
			return
		}

		symbol := entity.NormalizeSymbol(cells.Eq(0).Text())
		company := strings.TrimSpace(cells.Eq(1).Text())
		dateText := strings.TrimSpace(cells.Eq(2).Text())
		ratio := normalizeRatioText(cells.Eq(cells.Length() - 1).Text())

		if !yahooSymbolPattern.MatchString(symbol) || ratio == "" {
			return
		}

		effective := entity.NormalizeEffectiveDate(dateText)
		if effective == entity.EffectiveDateUnknown {
			// The calendar page is keyed by day; trust the page date when the
			// cell text does not parse.
			effective = day
		}

		rec := entity.SplitRecord{
			Symbol:        symbol,
			Company:       company,
			Ratio:         ratio,
			EffectiveDate: effective,
			IsReverse:     entity.IsReverseRatio(ratio),
			Source:        r.Name(),
		}
		records = append(records, rec)
		r.logger.Info("Found Yahoo Finance split",
			logger.StringField("symbol", symbol),
			logger.StringField("ratio", ratio),
			logger.StringField("effective_date", rec.EffectiveDate),
		)
	})
	return records, nil
}
