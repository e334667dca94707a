package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "feestrat.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "claude-sonnet-4-5-20250929", cfg.Anthropic.SonnetModel)
	assert.Equal(t, "claude-opus-4-6", cfg.Anthropic.OpusModel)
	assert.Equal(t, int64(1024), cfg.Insight.MaxTokens)
	assert.Equal(t, 1, cfg.Insight.CacheTTLHours)
	assert.Equal(t, 20000, cfg.Simulate.HighVolumeThreshold)
	assert.Equal(t, 200.0, cfg.Simulate.MaxFee)
}

func TestLoad_DefaultPricing(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	require.NotEmpty(t, cfg.Pricing.Anthropic)
	sonnet, ok := cfg.Pricing.Anthropic["claude-sonnet-4-5-20250929"]
	require.True(t, ok)
	assert.Equal(t, 3.00, sonnet.Input)
	assert.Equal(t, 15.00, sonnet.Output)
	assert.Equal(t, 1.25, sonnet.CacheWriteMul)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("FEESTRAT_STORE_DRIVER", "postgres")
	t.Setenv("FEESTRAT_SERVER_PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, 9090, cfg.Server.Port)
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	require.NoError(t, InitLogger(LogConfig{Level: "info", Format: "json"}))
	assert.Error(t, InitLogger(LogConfig{Level: "not-a-level"}))
}
