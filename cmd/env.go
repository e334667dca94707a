package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/mol-insights/feestrat-cli/internal/cost"
	"github.com/mol-insights/feestrat-cli/internal/ingest"
	"github.com/mol-insights/feestrat-cli/internal/insight"
	"github.com/mol-insights/feestrat-cli/internal/model"
	"github.com/mol-insights/feestrat-cli/internal/store"
	"github.com/mol-insights/feestrat-cli/pkg/anthropic"
)

// initStore opens the configured storage backend.
func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "feestrat.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// loadRecords returns the service table for a command: from the --input
// workbook when given, otherwise from the store.
func loadRecords(ctx context.Context, cmd *cobra.Command) ([]model.ServiceRecord, error) {
	input, _ := cmd.Flags().GetString("input")
	if input != "" {
		return ingest.LoadServices(input, ingestOptions())
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	defer st.Close() //nolint:errcheck
	if err := st.Migrate(ctx); err != nil {
		return nil, err
	}

	records, err := st.ListServices(ctx)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, eris.New("no services in store; run `feestrat ingest --save <workbook>` or pass --input")
	}
	return records, nil
}

// initAssistant builds the insight assistant plus its cost tracker. With
// no API key the assistant degrades to static fallbacks.
func initAssistant(st store.Store) (*insight.Assistant, *cost.Tracker) {
	tracker := cost.NewTracker(cost.NewCalculator(cfg.Pricing))

	var client anthropic.Client
	if cfg.Anthropic.Key != "" {
		client = anthropic.NewClient(cfg.Anthropic.Key)
	}

	var cache insight.Cache = insight.NewMemoryCache()
	if st != nil {
		cache = insight.NewStoreCache(st)
	}

	rpm := cfg.Insight.RequestsPerMin
	if rpm <= 0 {
		rpm = 20
	}
	limiter := rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), rpm)

	a := insight.New(client, cache, tracker, limiter, insight.Config{
		InsightModel:    cfg.Anthropic.SonnetModel,
		ReportModel:     cfg.Anthropic.OpusModel,
		MaxTokens:       cfg.Insight.MaxTokens,
		ReportMaxTokens: cfg.Insight.ReportMaxTokens,
		CacheTTL:        time.Duration(cfg.Insight.CacheTTLHours) * time.Hour,
	})
	return a, tracker
}

func ingestOptions() ingest.Options {
	return ingest.Options{
		SheetIndex: cfg.Ingest.SheetIndex,
		SheetName:  cfg.Ingest.SheetName,
		SkipRows:   cfg.Ingest.SkipRows,
	}
}

func addInputFlag(cmd *cobra.Command) {
	cmd.Flags().String("input", "", "services workbook (.xlsx); default is the store")
}
