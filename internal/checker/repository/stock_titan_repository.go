package repository

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mauidude/go-readability"
	"github.com/mmcdole/gofeed"

	"github.com/bshumway9/stock-split-checker/internal/checker/config"
	"github.com/bshumway9/stock-split-checker/internal/entity"
	"github.com/bshumway9/stock-split-checker/pkg/logger"
)

const defaultStockTitanRSS = "https://www.stocktitan.net/rss/reverse-split.rss"

var (
	// "(NASDAQ: ABCD)" or "(NYSE: AB)" in press-release titles.
	titleSymbolPattern = regexp.MustCompile(`\((NASDAQ|NYSE|NYSE American|AMEX|OTC[A-Z]*)\s*:\s*([A-Z][A-Z.\-]{0,6})\)`)
	// "1-for-10", "1 for 10", "1:10" ratio spellings in titles and bodies.
	titleRatioPattern = regexp.MustCompile(`(\d+)[\s-]*(?:for|:|to)[\s-]*(\d+)`)
	// "effective March 10, 2025" and similar date mentions.
	articleDatePattern = regexp.MustCompile(`effective\s+(?:on\s+|as of\s+)?([A-Z][a-z]+ \d{1,2}, \d{4}|\d{4}-\d{2}-\d{2}|\d{1,2}/\d{1,2}/\d{4})`)
)

// stockTitanRepository follows the StockTitan reverse-split news feed. Feed
// items yield loose candidates; the linked press releases provide grounding
// evidence for every symbol they mention.
type stockTitanRepository struct {
	client *http.Client
	parser *gofeed.Parser
	cfg    *config.Config
	logger *logger.Logger
}

// NewStockTitanRepository creates a SplitSource backed by the StockTitan news
// feed.
func NewStockTitanRepository(cfg *config.Config, log *logger.Logger) SplitSource {
	return &stockTitanRepository{
		client: &http.Client{Timeout: cfg.Scraper.Timeout},
		parser: gofeed.NewParser(),
		cfg:    cfg,
		logger: log,
	}
}

func (r *stockTitanRepository) Name() string {
	return "stocktitan"
}

func (r *stockTitanRepository) FetchSplits(ctx context.Context) (*SourceResult, error) {
	feedURL := r.cfg.Scraper.StockTitanRSS
	if feedURL == "" {
		feedURL = defaultStockTitanRSS
	}

	feed, err := r.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("stocktitan feed fetch failed: %w", err)
	}

	result := &SourceResult{ArticleLinks: make(map[string][]string)}
	for _, item := range feed.Items {
		rec, ok := r.candidateFromItem(ctx, item)
		if !ok {
			continue
		}
		result.ArticleLinks[rec.Symbol] = append(result.ArticleLinks[rec.Symbol], rec.ArticleLinks...)
		result.NewsCandidates = append(result.NewsCandidates, rec)
	}
	return result, nil
}

func (r *stockTitanRepository) candidateFromItem(ctx context.Context, item *gofeed.Item) (entity.SplitRecord, bool) {
	title := strings.TrimSpace(item.Title)
	m := titleSymbolPattern.FindStringSubmatch(title)
	if m == nil {
		return entity.SplitRecord{}, false
	}
	exchange := m[1]
	symbol := entity.NormalizeSymbol(m[2])
	if strings.HasPrefix(strings.ToUpper(exchange), "OTC") {
		r.logger.Debug("Skipping OTC press release", logger.StringField("symbol", symbol))
		return entity.SplitRecord{}, false
	}

	rec := entity.SplitRecord{
		Symbol:        symbol,
		Exchange:      exchange,
		Title:         title,
		EffectiveDate: entity.EffectiveDateUnknown,
		Source:        r.Name(),
		Fractional:    entity.FractionalNotSpecified,
	}
	if item.Link != "" {
		rec.AddArticleLinks(item.Link)
	}

	if ratio, ok := ratioFromText(title); ok {
		rec.Ratio = ratio
		rec.IsReverse = entity.IsReverseRatio(ratio)
	} else if strings.Contains(strings.ToLower(title), "reverse") {
		rec.IsReverse = true
	}

	// Pull the press release body for an effective date and extra links. A
	// fetch failure leaves a usable candidate; the resolver fills the gaps.
	if item.Link != "" {
		r.enrichFromArticle(ctx, &rec, item.Link)
	}

	r.logger.Info("Found StockTitan candidate",
		logger.StringField("symbol", rec.Symbol),
		logger.StringField("ratio", rec.Ratio),
		logger.StringField("effective_date", rec.EffectiveDate),
	)
	return rec, true
}

func (r *stockTitanRepository) enrichFromArticle(ctx context.Context, rec *entity.SplitRecord, link string) {
	resp, err := fetchResponse(ctx, r.client, link, r.cfg.Scraper.UserAgent)
	if err != nil {
		r.logger.Warn("Failed to fetch press release", logger.StringField("url", link), logger.ErrorField(err))
		return
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		r.logger.Warn("Failed to read press release", logger.StringField("url", link), logger.ErrorField(err))
		return
	}

	doc, err := readability.NewDocument(string(body))
	if err != nil {
		r.logger.Warn("Failed to extract press release content", logger.StringField("url", link), logger.ErrorField(err))
		return
	}
	content := doc.Content()

	text := content
	if parsed, err := goquery.NewDocumentFromReader(strings.NewReader(content)); err == nil {
		text = parsed.Text()
		// Source links inside the article are grounding evidence too.
		parsed.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
			href, _ := a.Attr("href")
			if strings.HasPrefix(href, "http") {
				rec.AddArticleLinks(href)
			}
		})
	}

	if rec.Ratio == "" {
		if ratio, ok := ratioFromText(text); ok {
			rec.Ratio = ratio
			rec.IsReverse = entity.IsReverseRatio(ratio)
		}
	}
	if !rec.EffectiveDateKnown() {
		if m := articleDatePattern.FindStringSubmatch(text); m != nil {
			rec.EffectiveDate = normalizeArticleDate(m[1])
		}
	}
}

// ratioFromText extracts a "1-for-10"-style ratio and emits the canonical
// old->new form.
func ratioFromText(text string) (string, bool) {
	m := titleRatioPattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	newSide, _ := strconv.Atoi(m[1])
	oldSide, _ := strconv.Atoi(m[2])
	if newSide == 0 || oldSide == 0 {
		return "", false
	}
	// "1-for-10" means 10 old shares become 1 new share.
	return fmt.Sprintf("%d->%d", oldSide, newSide), true
}

func normalizeArticleDate(raw string) string {
	if normalized := entity.NormalizeEffectiveDate(raw); normalized != entity.EffectiveDateUnknown {
		return normalized
	}
	for _, layout := range []string{"January 2, 2006", "1/2/2006"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format(entity.DateLayout)
		}
	}
	return entity.EffectiveDateUnknown
}
