// Package insight generates narrative analysis of the fee dataset through
// the Anthropic API, with deterministic caching, explicit cost tracking,
// and graceful degradation when no API client is configured.
package insight

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/mol-insights/feestrat-cli/internal/cost"
	"github.com/mol-insights/feestrat-cli/internal/model"
	"github.com/mol-insights/feestrat-cli/pkg/anthropic"
)

// Unavailable is returned by every generator when no API client is
// configured. The rest of the pipeline treats it as ordinary text.
const Unavailable = "insights unavailable"

// Config holds model selection and generation limits.
type Config struct {
	InsightModel    string
	ReportModel     string
	MaxTokens       int64
	ReportMaxTokens int64
	CacheTTL        time.Duration
}

// DefaultConfig returns the default insight generation settings.
func DefaultConfig() Config {
	return Config{
		InsightModel:    "claude-sonnet-4-5-20250929",
		ReportModel:     "claude-opus-4-6",
		MaxTokens:       1024,
		ReportMaxTokens: 4096,
		CacheTTL:        time.Hour,
	}
}

// Assistant generates insight sections and reports. A nil client is valid
// and makes every generator return Unavailable instead of calling out.
type Assistant struct {
	client  anthropic.Client
	cache   Cache
	tracker *cost.Tracker
	limiter *rate.Limiter
	cfg     Config
}

// New creates an Assistant. Cache, tracker, and limiter may be nil; each
// nil dependency simply disables that concern.
func New(client anthropic.Client, cache Cache, tracker *cost.Tracker, limiter *rate.Limiter, cfg Config) *Assistant {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Hour
	}
	return &Assistant{
		client:  client,
		cache:   cache,
		tracker: tracker,
		limiter: limiter,
		cfg:     cfg,
	}
}

// Available reports whether an API client is configured.
func (a *Assistant) Available() bool {
	return a.client != nil
}

// GenerateInsights produces one narrative section for the dataset summary.
// Results are cached by prompt hash. API failures degrade to Unavailable
// rather than failing the caller.
func (a *Assistant) GenerateInsights(ctx context.Context, summary model.Summary, kind Kind, lang string) (string, error) {
	prompt := insightPrompt(summary, kind, lang)
	return a.generate(ctx, a.cfg.InsightModel, a.cfg.MaxTokens, prompt, string(kind))
}

// GenerateReport produces a full advisory report for one scenario against
// the dataset summary, on the larger report model.
func (a *Assistant) GenerateReport(ctx context.Context, summary model.Summary, sc model.Scenario, lang string) (string, error) {
	prompt := reportPrompt(summary, sc, lang)
	return a.generate(ctx, a.cfg.ReportModel, a.cfg.ReportMaxTokens, prompt, "report")
}

// GenerateAll produces every insight section concurrently.
func (a *Assistant) GenerateAll(ctx context.Context, summary model.Summary, lang string) (map[Kind]string, error) {
	out := make(map[Kind]string, len(Kinds))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	for _, kind := range Kinds {
		g.Go(func() error {
			text, err := a.GenerateInsights(ctx, summary, kind, lang)
			if err != nil {
				return err
			}
			mu.Lock()
			out[kind] = text
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *Assistant) generate(ctx context.Context, modelID string, maxTokens int64, prompt, kind string) (string, error) {
	if !a.Available() {
		return Unavailable, nil
	}

	key := cacheKey(prompt, kind)
	if a.cache != nil {
		cached, err := a.cache.Get(ctx, key)
		if err != nil {
			zap.L().Warn("insight: cache read failed", zap.String("kind", kind), zap.Error(err))
		} else if cached != "" {
			zap.L().Debug("insight: cache hit", zap.String("kind", kind))
			return cached, nil
		}
	}

	if a.limiter != nil {
		if err := a.limiter.Wait(ctx); err != nil {
			return Unavailable, nil
		}
	}

	resp, err := a.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     modelID,
		MaxTokens: maxTokens,
		System:    anthropic.BuildCachedSystemBlocks(systemPrompt),
		Messages:  []anthropic.Message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		zap.L().Warn("insight: generation failed",
			zap.String("kind", kind),
			zap.String("model", modelID),
			zap.Error(err),
		)
		return Unavailable, nil
	}

	if a.tracker != nil {
		a.tracker.Record(resp.Model,
			resp.Usage.InputTokens,
			resp.Usage.OutputTokens,
			resp.Usage.CacheCreationInputTokens,
			resp.Usage.CacheReadInputTokens,
		)
	}

	text := resp.Text()
	if a.cache != nil && text != "" {
		if err := a.cache.Set(ctx, key, text, a.cfg.CacheTTL); err != nil {
			zap.L().Warn("insight: cache write failed", zap.String("kind", kind), zap.Error(err))
		}
	}
	return text, nil
}

func cacheKey(prompt, kind string) string {
	sum := sha256.Sum256([]byte(prompt + "\x00" + kind))
	return hex.EncodeToString(sum[:])
}
