package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/bshumway9/stock-split-checker/internal/checker/config"
	"github.com/bshumway9/stock-split-checker/pkg/logger"
)

const yahooChartURL = "https://query1.finance.yahoo.com/v8/finance/chart/%s?interval=1d&range=1d"

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				ChartPreviousClose float64 `json:"chartPreviousClose"`
				ExchangeName       string  `json:"exchangeName"`
				FullExchangeName   string  `json:"fullExchangeName"`
			} `json:"meta"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// priceRepository looks up quotes from the Yahoo Finance chart API, caching
// results so a scheduler process does not refetch within a run.
type priceRepository struct {
	client *http.Client
	cfg    *config.Config
	logger *logger.Logger
	cache  *cache.Cache
}

// NewPriceRepository creates a PriceRepository backed by Yahoo Finance.
func NewPriceRepository(cfg *config.Config, log *logger.Logger) PriceRepository {
	return &priceRepository{
		client: &http.Client{Timeout: cfg.Scraper.Timeout},
		cfg:    cfg,
		logger: log,
		cache:  cache.New(5*time.Minute, 10*time.Minute),
	}
}

func (r *priceRepository) GetQuote(ctx context.Context, symbol string) (*Quote, error) {
	if cached, found := r.cache.Get(symbol); found {
		return cached.(*Quote), nil
	}

	resp, err := fetchResponse(ctx, r.client, fmt.Sprintf(yahooChartURL, symbol), r.cfg.Scraper.UserAgent)
	if err != nil {
		return nil, fmt.Errorf("quote fetch for %s failed: %w", symbol, err)
	}
	defer resp.Body.Close()

	var decoded chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode quote for %s: %w", symbol, err)
	}
	if decoded.Chart.Error != nil {
		return nil, fmt.Errorf("quote API error for %s: %s", symbol, decoded.Chart.Error.Description)
	}
	if len(decoded.Chart.Result) == 0 {
		return nil, fmt.Errorf("no quote result for %s", symbol)
	}

	meta := decoded.Chart.Result[0].Meta
	price := meta.RegularMarketPrice
	if price == 0 {
		price = meta.ChartPreviousClose
	}
	exchange := meta.FullExchangeName
	if exchange == "" {
		exchange = meta.ExchangeName
	}

	quote := &Quote{
		Price:    price,
		Exchange: exchange,
		OTC:      strings.Contains(strings.ToUpper(exchange), "OTC"),
	}
	r.cache.Set(symbol, quote, cache.DefaultExpiration)
	return quote, nil
}
