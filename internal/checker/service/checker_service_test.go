package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bshumway9/stock-split-checker/internal/checker/config"
	"github.com/bshumway9/stock-split-checker/internal/checker/repository"
	"github.com/bshumway9/stock-split-checker/internal/checker/store"
	"github.com/bshumway9/stock-split-checker/internal/entity"
	"github.com/bshumway9/stock-split-checker/pkg/logger"
	"github.com/bshumway9/stock-split-checker/pkg/notify"
)

type stubSource struct {
	result *repository.SourceResult
}

func (s *stubSource) Name() string { return "stub" }

func (s *stubSource) FetchSplits(_ context.Context) (*repository.SourceResult, error) {
	// Copy so runs cannot see each other's mutations.
	out := &repository.SourceResult{ArticleLinks: map[string][]string{}}
	out.Upcoming = append(out.Upcoming, s.result.Upcoming...)
	out.Past = append(out.Past, s.result.Past...)
	out.NewsCandidates = append(out.NewsCandidates, s.result.NewsCandidates...)
	for k, v := range s.result.ArticleLinks {
		out.ArticleLinks[k] = append([]string(nil), v...)
	}
	return out, nil
}

type countingResolver struct {
	fractionalCalls int
	detailCalls     int
	thresholdCalls  int
	fractional      string
}

func (r *countingResolver) ResolveFractional(_ context.Context, rec *entity.SplitRecord) error {
	r.fractionalCalls++
	rec.Fractional = r.fractional
	return nil
}

func (r *countingResolver) ResolveSplitDetails(_ context.Context, _ *entity.SplitRecord) error {
	r.detailCalls++
	return nil
}

func (r *countingResolver) ThresholdMinimumShares(_ context.Context, _ string, _ int, _ []string) (int, string, error) {
	r.thresholdCalls++
	return 0, "", nil
}

type stubPrices struct{}

func (stubPrices) GetQuote(_ context.Context, _ string) (*repository.Quote, error) {
	return &repository.Quote{Price: 2.50, Exchange: "NasdaqGS"}, nil
}

func newTestChecker(t *testing.T, source repository.SplitSource, resolver repository.FractionalResolver) *CheckerService {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{}
	cfg.Ledger.DBPath = filepath.Join(dir, "previously_sent_db.json")
	cfg.Ledger.ReportPath = filepath.Join(dir, "previously_sent.txt")
	cfg.Ledger.LastRunPath = filepath.Join(dir, "last_run.txt")
	cfg.Scraper.MaxRetries = 1

	log := logger.NewNop()
	return NewCheckerService(
		cfg,
		log,
		[]repository.SplitSource{source},
		resolver,
		stubPrices{},
		store.NewLedgerStore(cfg.Ledger.DBPath, log),
		store.NewLastRunStore(cfg.Ledger.LastRunPath),
		notify.NewNotifier(log),
		fixedClock,
	)
}

// Running the same announcement through two full runs resolves it exactly
// once: the second run classifies it as previously sent and never touches the
// resolver.
func TestExecuteDuplicateRunResolvesOnce(t *testing.T) {
	source := &stubSource{result: &repository.SourceResult{
		Upcoming: []entity.SplitRecord{{
			Symbol:        "XYZ",
			Company:       "XYZ Corp",
			Ratio:         "10->1",
			EffectiveDate: "2025-06-09",
			IsReverse:     true,
			Source:        "stub",
		}},
	}}
	resolver := &countingResolver{fractional: entity.FractionalRoundUp}
	checker := newTestChecker(t, source, resolver)

	require.NoError(t, checker.Execute(context.Background()))
	assert.Equal(t, 1, resolver.fractionalCalls)

	require.NoError(t, checker.Execute(context.Background()))
	assert.Equal(t, 1, resolver.fractionalCalls, "second run must not re-resolve")
	assert.Zero(t, resolver.detailCalls)
	assert.Zero(t, resolver.thresholdCalls)
}

// A second checker over the same ledger file sees the first run's state.
func TestExecutePersistsAcrossProcesses(t *testing.T) {
	source := &stubSource{result: &repository.SourceResult{
		Upcoming: []entity.SplitRecord{{
			Symbol:        "PER",
			Ratio:         "8->1",
			EffectiveDate: "2025-06-10",
			IsReverse:     true,
		}},
	}}
	resolver := &countingResolver{fractional: entity.FractionalRoundUp}
	checker := newTestChecker(t, source, resolver)
	require.NoError(t, checker.Execute(context.Background()))

	ledger := store.NewLedgerStore(checker.cfg.Ledger.DBPath, logger.NewNop()).Load()
	entry := ledger["PER|2025-06-10"]
	require.NotNil(t, entry)
	assert.Equal(t, entity.FractionalRoundUp, entry.Data.Fractional)
	require.NotNil(t, entry.Data.CurrentPrice)
	assert.InDelta(t, 2.50, *entry.Data.CurrentPrice, 0.001)
}

// News candidates are skipped entirely when a table source already covers the
// symbol, so no detail lookups fire for them.
func TestExecuteNewsDedupedAgainstTableSources(t *testing.T) {
	source := &stubSource{result: &repository.SourceResult{
		Upcoming: []entity.SplitRecord{{
			Symbol:        "XYZ",
			Ratio:         "10->1",
			EffectiveDate: "2025-06-09",
			IsReverse:     true,
		}},
		NewsCandidates: []entity.SplitRecord{{
			Symbol:    "XYZ",
			IsReverse: true,
		}},
	}}
	resolver := &countingResolver{fractional: entity.FractionalRoundUp}
	checker := newTestChecker(t, source, resolver)

	require.NoError(t, checker.Execute(context.Background()))
	assert.Zero(t, resolver.detailCalls)
	assert.Equal(t, 1, resolver.fractionalCalls)
}
