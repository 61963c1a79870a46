package service

import (
	"context"
	"time"

	"github.com/bshumway9/stock-split-checker/internal/checker/config"
	"github.com/bshumway9/stock-split-checker/internal/checker/repository"
	"github.com/bshumway9/stock-split-checker/internal/checker/store"
	"github.com/bshumway9/stock-split-checker/internal/entity"
	"github.com/bshumway9/stock-split-checker/pkg/logger"
	"github.com/bshumway9/stock-split-checker/pkg/marketday"
	"github.com/bshumway9/stock-split-checker/pkg/notify"
	"github.com/bshumway9/stock-split-checker/pkg/retry"
)

// CheckerService runs one end-to-end check: scrape all sources, reconcile
// against the ledger, resolve fractional handling for genuinely new splits,
// persist, and notify.
type CheckerService struct {
	cfg          *config.Config
	logger       *logger.Logger
	sources      []repository.SplitSource
	resolver     repository.FractionalResolver
	prices       repository.PriceRepository
	reconciler   *Reconciler
	ledgerStore  *store.LedgerStore
	lastRunStore *store.LastRunStore
	notifier     *notify.Notifier
	clock        func() time.Time
}

// NewCheckerService creates a new CheckerService. A nil clock defaults to
// time.Now.
func NewCheckerService(
	cfg *config.Config,
	log *logger.Logger,
	sources []repository.SplitSource,
	resolver repository.FractionalResolver,
	prices repository.PriceRepository,
	ledgerStore *store.LedgerStore,
	lastRunStore *store.LastRunStore,
	notifier *notify.Notifier,
	clock func() time.Time,
) *CheckerService {
	if clock == nil {
		clock = time.Now
	}
	return &CheckerService{
		cfg:          cfg,
		logger:       log,
		sources:      sources,
		resolver:     resolver,
		prices:       prices,
		reconciler:   NewReconciler(log, clock),
		ledgerStore:  ledgerStore,
		lastRunStore: lastRunStore,
		notifier:     notifier,
		clock:        clock,
	}
}

// Execute performs one full check run. Source and enrichment failures degrade
// the run instead of aborting it; only a failed ledger save is fatal.
func (s *CheckerService) Execute(ctx context.Context) error {
	now := s.clock()
	if marketday.IsOpen(now) {
		s.logger.Info("Market is open today", logger.StringField("date", now.Format(entity.DateLayout)))
	} else {
		s.logger.Info("Market is closed today", logger.StringField("date", now.Format(entity.DateLayout)))
	}

	upcoming, past, newsCandidates, articleLinks := s.fetchAll(ctx)
	s.logger.Info("Fetched split announcements",
		logger.IntField("upcoming", len(upcoming)),
		logger.IntField("past", len(past)),
		logger.IntField("news_candidates", len(newsCandidates)))

	ledger := s.ledgerStore.Load()

	newsCandidates = dropKnownSymbols(newsCandidates, upcoming, past)
	newsCandidates = s.reconciler.FilterKnown(ledger, newsCandidates)
	s.resolveDetails(ctx, newsCandidates)

	candidates := s.reconciler.MergeBySymbol(append(upcoming, newsCandidates...))
	applyArticleLinks(candidates, articleLinks)
	candidates = s.reconciler.FilterStillBuyable(candidates)

	result := s.reconciler.Reconcile(ledger, candidates)
	s.logger.Info("Reconciled against ledger",
		logger.IntField("new", len(result.NewRecords)),
		logger.IntField("previously_sent", len(result.PrevRecords)))

	newRecords := s.enrichPrices(ctx, result.NewRecords)
	s.resolveFractional(ctx, newRecords)
	s.resolveThresholds(ctx, newRecords)

	s.reconciler.CommitNew(ledger, newRecords)

	prevRecords := s.refreshPrev(ctx, ledger, result.PrevRecords)

	s.reconciler.Prune(ledger)
	if err := s.ledgerStore.Save(ledger); err != nil {
		return err
	}
	if err := store.WriteReport(s.cfg.Ledger.ReportPath, ledger, now); err != nil {
		s.logger.Error("Failed to write report", logger.ErrorField(err))
	}

	// The message goes out every run; with nothing new or pending it carries
	// the no-splits line so the operator knows the job ran.
	newActionable := s.reconciler.FilterActionable(newRecords)
	prevActionable := s.reconciler.FilterActionable(prevRecords)
	if len(newActionable) == 0 {
		s.logger.Info("No new reverse splits found")
	}
	msg := notify.FormatSplitsMessage(newActionable, prevActionable)
	if err := s.notifier.Send(ctx, msg); err != nil {
		s.logger.Error("Notification delivery failed", logger.ErrorField(err))
	}

	if err := s.lastRunStore.Write(now); err != nil {
		s.logger.Error("Failed to record run time", logger.ErrorField(err))
	}
	return nil
}

// fetchAll queries every source with retries, tolerating per-source failure.
func (s *CheckerService) fetchAll(ctx context.Context) (upcoming, past, newsCandidates []entity.SplitRecord, articleLinks map[string][]string) {
	policy := retry.Policy{
		MaxAttempts: s.cfg.Scraper.MaxRetries,
		Delay:       s.cfg.Scraper.RetryDelay,
	}
	articleLinks = make(map[string][]string)
	for _, src := range s.sources {
		result, err := retry.DoValue(ctx, policy, func(ctx context.Context) (*repository.SourceResult, error) {
			return src.FetchSplits(ctx)
		})
		if err != nil {
			s.logger.Error("Source fetch failed",
				logger.StringField("source", src.Name()), logger.ErrorField(err))
			continue
		}
		upcoming = append(upcoming, result.Upcoming...)
		past = append(past, result.Past...)
		newsCandidates = append(newsCandidates, result.NewsCandidates...)
		for sym, links := range result.ArticleLinks {
			articleLinks[sym] = append(articleLinks[sym], links...)
		}
	}
	return upcoming, past, newsCandidates, articleLinks
}

// dropKnownSymbols removes news candidates whose symbol already appears in a
// table source's upcoming or past output.
func dropKnownSymbols(candidates, upcoming, past []entity.SplitRecord) []entity.SplitRecord {
	known := make(map[string]bool, len(upcoming)+len(past))
	for _, rec := range upcoming {
		known[entity.NormalizeSymbol(rec.Symbol)] = true
	}
	for _, rec := range past {
		known[entity.NormalizeSymbol(rec.Symbol)] = true
	}
	var kept []entity.SplitRecord
	for _, rec := range candidates {
		if known[entity.NormalizeSymbol(rec.Symbol)] {
			continue
		}
		kept = append(kept, rec)
	}
	return kept
}

func applyArticleLinks(records []entity.SplitRecord, links map[string][]string) {
	for i := range records {
		if extra := links[entity.NormalizeSymbol(records[i].Symbol)]; len(extra) > 0 {
			records[i].AddArticleLinks(extra...)
		}
	}
}

// resolveDetails fills missing ratio, effective date, and reverse flag on
// news-derived candidates.
func (s *CheckerService) resolveDetails(ctx context.Context, candidates []entity.SplitRecord) {
	for i := range candidates {
		rec := &candidates[i]
		if rec.Ratio != "" && rec.EffectiveDateKnown() {
			continue
		}
		if err := s.resolver.ResolveSplitDetails(ctx, rec); err != nil {
			s.logger.Warn("Split detail lookup failed",
				logger.StringField("symbol", rec.Symbol), logger.ErrorField(err))
		}
	}
}

// enrichPrices attaches current quotes and drops OTC listings, which cannot be
// bought through the brokerages this job assumes.
func (s *CheckerService) enrichPrices(ctx context.Context, records []entity.SplitRecord) []entity.SplitRecord {
	kept := make([]entity.SplitRecord, 0, len(records))
	for _, rec := range records {
		quote, err := s.prices.GetQuote(ctx, rec.Symbol)
		if err != nil {
			s.logger.Warn("Quote lookup failed",
				logger.StringField("symbol", rec.Symbol), logger.ErrorField(err))
			kept = append(kept, rec)
			continue
		}
		if quote.OTC {
			s.logger.Info("Dropping OTC listing",
				logger.StringField("symbol", rec.Symbol),
				logger.StringField("exchange", quote.Exchange))
			continue
		}
		price := quote.Price
		rec.CurrentPrice = &price
		if rec.Exchange == "" {
			rec.Exchange = quote.Exchange
		}
		kept = append(kept, rec)
	}
	return kept
}

func (s *CheckerService) resolveFractional(ctx context.Context, records []entity.SplitRecord) {
	for i := range records {
		rec := &records[i]
		if !entity.InsufficientFractional(rec.Fractional) {
			continue
		}
		if err := s.resolver.ResolveFractional(ctx, rec); err != nil {
			s.logger.Warn("Fractional resolution failed",
				logger.StringField("symbol", rec.Symbol), logger.ErrorField(err))
		}
	}
}

// resolveThresholds looks up the minimum share count for threshold-style
// round-ups so the operator knows how many shares to buy.
func (s *CheckerService) resolveThresholds(ctx context.Context, records []entity.SplitRecord) {
	for i := range records {
		rec := &records[i]
		if rec.Fractional != entity.FractionalThresholdRoundUp || rec.MinSharesForRoundup != nil {
			continue
		}
		largerSide, ok := entity.RatioMax(rec.Ratio)
		if !ok {
			continue
		}
		minShares, explanation, err := s.resolver.ThresholdMinimumShares(ctx, rec.Symbol, largerSide, rec.ArticleLinks)
		if err != nil {
			s.logger.Warn("Threshold lookup failed",
				logger.StringField("symbol", rec.Symbol), logger.ErrorField(err))
			continue
		}
		rec.MinSharesForRoundup = &minShares
		rec.ThresholdExplanation = explanation
	}
}

// refreshPrev retries fractional resolution for previously sent records that
// are still undecided and writes any firmed-up answer back to the ledger.
func (s *CheckerService) refreshPrev(ctx context.Context, ledger entity.Ledger, records []entity.SplitRecord) []entity.SplitRecord {
	var resolved []entity.SplitRecord
	for i := range records {
		rec := &records[i]
		if !entity.InsufficientFractional(rec.Fractional) {
			continue
		}
		if err := s.resolver.ResolveFractional(ctx, rec); err != nil {
			s.logger.Warn("Fractional re-resolution failed",
				logger.StringField("symbol", rec.Symbol), logger.ErrorField(err))
			continue
		}
		if !entity.InsufficientFractional(rec.Fractional) {
			resolved = append(resolved, *rec)
		}
	}
	if len(resolved) > 0 {
		s.reconciler.UpdateResolved(ledger, resolved)
	}
	s.resolveThresholds(ctx, records)
	return records
}
