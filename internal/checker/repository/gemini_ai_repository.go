package repository

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/bshumway9/stock-split-checker/internal/checker/config"
	"github.com/bshumway9/stock-split-checker/internal/entity"
	"github.com/bshumway9/stock-split-checker/pkg/logger"
	"github.com/bshumway9/stock-split-checker/pkg/retry"
)

// geminiAIRepository resolves fractional-share handling with the Google
// Gemini API, using Google Search grounding so answers lean on the issuer's
// filings and press releases rather than model memory.
type geminiAIRepository struct {
	cfg            *config.Config
	logger         *logger.Logger
	genAiClient    *genai.Client
	requestLimiter *rate.Limiter
	retryPolicy    retry.Policy
}

// NewGeminiAIRepository creates a FractionalResolver backed by Gemini.
func NewGeminiAIRepository(cfg *config.Config, log *logger.Logger, genAiClient *genai.Client) (FractionalResolver, error) {
	secondsPerRequest := time.Minute / time.Duration(cfg.Gemini.MaxRequestPerMinute)
	return &geminiAIRepository{
		cfg:            cfg,
		logger:         log,
		genAiClient:    genAiClient,
		requestLimiter: rate.NewLimiter(rate.Every(secondsPerRequest), 1),
		retryPolicy:    retry.Policy{MaxAttempts: 3, Delay: 2 * time.Second, Increment: 2 * time.Second},
	}, nil
}

func (r *geminiAIRepository) generationConfig() *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		Tools: []*genai.Tool{
			{GoogleSearch: &genai.GoogleSearch{}},
		},
		Temperature:     genai.Ptr[float32](0.2),
		TopK:            genai.Ptr[float32](40),
		TopP:            genai.Ptr[float32](0.95),
		MaxOutputTokens: int32(r.cfg.Gemini.MaxOutputTokens),
	}
}

func (r *geminiAIRepository) generate(ctx context.Context, prompt string) (string, error) {
	return retry.DoValue(ctx, r.retryPolicy, func(ctx context.Context) (string, error) {
		if err := r.requestLimiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("failed to wait for request limit: %w", err)
		}

		contents := []*genai.Content{genai.NewContentFromText(prompt, "user")}
		resp, err := r.genAiClient.Models.GenerateContent(ctx, r.cfg.Gemini.Model, contents, r.generationConfig())
		if err != nil {
			return "", fmt.Errorf("gemini request failed: %w", err)
		}
		text := strings.TrimSpace(resp.Text())
		if text == "" {
			return "", fmt.Errorf("gemini returned an empty response")
		}
		return text, nil
	})
}

// ResolveFractional sets rec.Fractional from a grounded query. Failures leave
// the explicit not-enough-information value so the record is still ledgered.
func (r *geminiAIRepository) ResolveFractional(ctx context.Context, rec *entity.SplitRecord) error {
	prompt := buildFractionalPrompt(rec)
	r.logger.Info("Querying Gemini for fractional handling", logger.StringField("symbol", rec.Symbol))

	result, err := r.generate(ctx, prompt)
	if err != nil {
		rec.Fractional = entity.FractionalNotEnoughInfo
		return fmt.Errorf("fractional resolution for %s failed: %w", rec.Symbol, err)
	}
	r.logger.Info("Gemini fractional response",
		logger.StringField("symbol", rec.Symbol),
		logger.StringField("result", result),
	)

	switch {
	case strings.Contains(result, "THRESHOLD ROUND_UP"):
		rec.Fractional = entity.FractionalThresholdRoundUp
	case strings.Contains(result, "ROUND_UP"):
		rec.Fractional = entity.FractionalRoundUp
	case strings.Contains(result, "CASH_IN_LIEU"):
		rec.Fractional = entity.FractionalCashInLieu
	case strings.Contains(result, "ROUND_DOWN"):
		rec.Fractional = entity.FractionalRoundDown
	case strings.HasPrefix(result, "OTHER:"):
		rec.Fractional = strings.TrimSpace(strings.TrimPrefix(result, "OTHER:"))
	case strings.Contains(result, "NO_INFO"):
		rec.Fractional = entity.FractionalNotEnoughInfo
	default:
		rec.Fractional = entity.FractionalNotSpecified
	}
	return nil
}

// ResolveSplitDetails fills missing ratio, effective date, and reverse flag
// on a news-derived candidate.
func (r *geminiAIRepository) ResolveSplitDetails(ctx context.Context, rec *entity.SplitRecord) error {
	prompt := buildDetailsPrompt(rec)
	result, err := r.generate(ctx, prompt)
	if err != nil {
		return fmt.Errorf("detail resolution for %s failed: %w", rec.Symbol, err)
	}

	for _, line := range strings.Split(result, "\n") {
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.ToUpper(strings.TrimSpace(key)) {
		case "RATIO":
			if rec.Ratio == "" && !strings.EqualFold(value, "unknown") {
				rec.Ratio = value
			}
		case "EFFECTIVE_DATE":
			if !rec.EffectiveDateKnown() {
				rec.EffectiveDate = entity.NormalizeEffectiveDate(value)
			}
		case "REVERSE":
			rec.IsReverse = strings.EqualFold(value, "yes") || strings.EqualFold(value, "true")
		}
	}
	if rec.Ratio != "" && !rec.IsReverse {
		rec.IsReverse = entity.IsReverseRatio(rec.Ratio)
	}
	return nil
}

var thresholdSharesPattern = regexp.MustCompile(`MIN_SHARES\s*:\s*(\d+)`)

// ThresholdMinimumShares looks up the minimum pre-split share count that
// still rounds up to a whole share for threshold-style splits.
func (r *geminiAIRepository) ThresholdMinimumShares(ctx context.Context, symbol string, largerSide int, links []string) (int, string, error) {
	prompt := buildThresholdPrompt(symbol, largerSide, links)
	result, err := r.generate(ctx, prompt)
	if err != nil {
		return 0, "", fmt.Errorf("threshold lookup for %s failed: %w", symbol, err)
	}

	m := thresholdSharesPattern.FindStringSubmatch(result)
	if m == nil {
		return 0, result, fmt.Errorf("threshold lookup for %s returned no share count", symbol)
	}
	minShares, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, result, fmt.Errorf("threshold lookup for %s returned a bad share count: %w", symbol, err)
	}

	explanation := result
	if _, after, found := strings.Cut(result, "EXPLANATION:"); found {
		explanation = strings.TrimSpace(after)
	}
	return minShares, explanation, nil
}
