package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mol-insights/feestrat-cli/internal/cost"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Pricing   cost.Rates      `yaml:"pricing" mapstructure:"pricing"`
	Ingest    IngestConfig    `yaml:"ingest" mapstructure:"ingest"`
	Insight   InsightConfig   `yaml:"insight" mapstructure:"insight"`
	Simulate  SimulateConfig  `yaml:"simulate" mapstructure:"simulate"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key         string `yaml:"key" mapstructure:"key"`
	SonnetModel string `yaml:"sonnet_model" mapstructure:"sonnet_model"`
	OpusModel   string `yaml:"opus_model" mapstructure:"opus_model"`
}

// IngestConfig configures workbook loading.
type IngestConfig struct {
	SheetIndex int    `yaml:"sheet_index" mapstructure:"sheet_index"`
	SheetName  string `yaml:"sheet_name" mapstructure:"sheet_name"`
	SkipRows   int    `yaml:"skip_rows" mapstructure:"skip_rows"`
}

// InsightConfig configures narrative generation.
type InsightConfig struct {
	MaxTokens       int64 `yaml:"max_tokens" mapstructure:"max_tokens"`
	ReportMaxTokens int64 `yaml:"report_max_tokens" mapstructure:"report_max_tokens"`
	CacheTTLHours   int   `yaml:"cache_ttl_hours" mapstructure:"cache_ttl_hours"`
	RequestsPerMin  int   `yaml:"requests_per_min" mapstructure:"requests_per_min"`
}

// SimulateConfig holds default simulation parameters.
type SimulateConfig struct {
	HighVolumeThreshold int     `yaml:"high_volume_threshold" mapstructure:"high_volume_threshold"`
	HighVolumeFee       float64 `yaml:"high_volume_fee" mapstructure:"high_volume_fee"`
	MediumVolumeFee     float64 `yaml:"medium_volume_fee" mapstructure:"medium_volume_fee"`
	LowVolumeFee        float64 `yaml:"low_volume_fee" mapstructure:"low_volume_fee"`
	MaxFee              float64 `yaml:"max_fee" mapstructure:"max_fee"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("FEESTRAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "feestrat.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("anthropic.sonnet_model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.opus_model", "claude-opus-4-6")
	v.SetDefault("ingest.sheet_index", 0)
	v.SetDefault("ingest.skip_rows", 0)
	v.SetDefault("insight.max_tokens", 1024)
	v.SetDefault("insight.report_max_tokens", 4096)
	v.SetDefault("insight.cache_ttl_hours", 1)
	v.SetDefault("insight.requests_per_min", 20)
	v.SetDefault("simulate.high_volume_threshold", 20000)
	v.SetDefault("simulate.high_volume_fee", 100)
	v.SetDefault("simulate.medium_volume_fee", 50)
	v.SetDefault("simulate.low_volume_fee", 10)
	v.SetDefault("simulate.max_fee", 200)

	for model, rate := range cost.DefaultRates().Anthropic {
		v.SetDefault("pricing.anthropic."+model+".input", rate.Input)
		v.SetDefault("pricing.anthropic."+model+".output", rate.Output)
		v.SetDefault("pricing.anthropic."+model+".cache_write_mul", rate.CacheWriteMul)
		v.SetDefault("pricing.anthropic."+model+".cache_read_mul", rate.CacheReadMul)
	}

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
