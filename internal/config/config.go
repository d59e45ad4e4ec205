package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cardshop/cardshop/internal/cost"
	"github.com/cardshop/cardshop/internal/inference"
)

// Config holds the full application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Assets    AssetsConfig    `yaml:"assets" mapstructure:"assets"`
	Settings  SettingsConfig  `yaml:"settings" mapstructure:"settings"`
	Gemini    GeminiConfig    `yaml:"gemini" mapstructure:"gemini"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Models    ModelsConfig    `yaml:"models" mapstructure:"models"`
	AI        AIConfig        `yaml:"ai" mapstructure:"ai"`
	Market    MarketConfig    `yaml:"market" mapstructure:"market"`
	Batch     BatchConfig     `yaml:"batch" mapstructure:"batch"`
	Pricing   PricingConfig   `yaml:"pricing" mapstructure:"pricing"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// StoreConfig configures the card store backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// AssetsConfig configures image storage.
type AssetsConfig struct {
	Dir     string `yaml:"dir" mapstructure:"dir"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// SettingsConfig locates the grading settings file.
type SettingsConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// GeminiConfig holds Gemini API settings.
type GeminiConfig struct {
	Key         string  `yaml:"key" mapstructure:"key"`
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	Temperature float32 `yaml:"temperature" mapstructure:"temperature"` // 0 = model default
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	BaseURL   string `yaml:"base_url" mapstructure:"base_url"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// ModelsConfig holds the ordered candidate model lists per task.
type ModelsConfig struct {
	Grading []string `yaml:"grading" mapstructure:"grading"`
	Listing []string `yaml:"listing" mapstructure:"listing"`
	Market  []string `yaml:"market" mapstructure:"market"`
}

// Registry builds the candidate registry. Empty lists fall back to the stock ones.
func (m ModelsConfig) Registry() inference.Registry {
	pick := func(list []string, task inference.Task) []string {
		if len(list) > 0 {
			return list
		}
		return inference.DefaultModels[task]
	}
	return inference.NewRegistry(map[inference.Task][]string{
		inference.TaskGrading: pick(m.Grading, inference.TaskGrading),
		inference.TaskListing: pick(m.Listing, inference.TaskListing),
		inference.TaskMarket:  pick(m.Market, inference.TaskMarket),
	})
}

// AIConfig throttles provider calls.
type AIConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int     `yaml:"burst" mapstructure:"burst"`
}

// MarketConfig configures market-data caching.
type MarketConfig struct {
	CacheTTLHours int `yaml:"cache_ttl_hours" mapstructure:"cache_ttl_hours"`
}

// CacheTTL returns the cache lifetime.
func (m MarketConfig) CacheTTL() time.Duration {
	return time.Duration(m.CacheTTLHours) * time.Hour
}

// BatchConfig configures bulk operations.
type BatchConfig struct {
	MaxConcurrentListings int `yaml:"max_concurrent_listings" mapstructure:"max_concurrent_listings"`
}

// PricingConfig holds per-model token pricing.
type PricingConfig struct {
	Models map[string]ModelPricing `yaml:"models" mapstructure:"models"`
}

// ModelPricing holds per-model token pricing (USD per million tokens).
type ModelPricing struct {
	Input  float64 `yaml:"input" mapstructure:"input"`
	Output float64 `yaml:"output" mapstructure:"output"`
}

// Rates merges configured prices over the built-in table.
func (p PricingConfig) Rates() cost.Rates {
	rates := cost.DefaultRates()
	for model, mp := range p.Models {
		rates[model] = cost.ModelRate{Input: mp.Input, Output: mp.Output}
	}
	return rates
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from .env, config file and environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("CARDSHOP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("server.port", 3001)
	v.SetDefault("server.cors_origins", []string{"*"})
	v.SetDefault("store.driver", "json")
	v.SetDefault("store.path", "data/cards.json")
	v.SetDefault("store.database_url", "")
	v.SetDefault("assets.dir", "data/uploads")
	v.SetDefault("assets.base_url", "/uploads")
	v.SetDefault("settings.path", "data/settings.yaml")
	v.SetDefault("gemini.key", "")
	v.SetDefault("gemini.base_url", "")
	v.SetDefault("gemini.temperature", 0)
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.base_url", "")
	v.SetDefault("anthropic.max_tokens", 4096)
	v.SetDefault("models.grading", inference.DefaultModels[inference.TaskGrading])
	v.SetDefault("models.listing", inference.DefaultModels[inference.TaskListing])
	v.SetDefault("models.market", inference.DefaultModels[inference.TaskMarket])
	v.SetDefault("ai.requests_per_second", 0)
	v.SetDefault("ai.burst", 1)
	v.SetDefault("market.cache_ttl_hours", 24)
	v.SetDefault("batch.max_concurrent_listings", 0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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
