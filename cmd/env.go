package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/cardshop/cardshop/internal/assets"
	"github.com/cardshop/cardshop/internal/config"
	"github.com/cardshop/cardshop/internal/cost"
	"github.com/cardshop/cardshop/internal/inference"
	"github.com/cardshop/cardshop/internal/inventory"
	"github.com/cardshop/cardshop/internal/settings"
	"github.com/cardshop/cardshop/internal/store"
	anthropicpkg "github.com/cardshop/cardshop/pkg/anthropic"
	"github.com/cardshop/cardshop/pkg/gemini"
)

// appEnv holds the initialized store, model client and inventory service
// shared by every command.
type appEnv struct {
	Store     store.Store
	Settings  *settings.FileStore
	Assets    *assets.Local
	AI        *inference.Client
	Inventory *inventory.Service
}

// Close releases resources held by the environment.
func (e *appEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initEnv opens the store and builds the inventory service. Callers should
// defer env.Close().
func initEnv(ctx context.Context) (*appEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	provider, err := initProvider(ctx, cfg)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	ai := inference.NewClient(provider, cfg.Models.Registry(),
		inference.WithRateLimit(cfg.AI.RequestsPerSecond, cfg.AI.Burst),
		inference.WithCalculator(cost.NewCalculator(cfg.Pricing.Rates())),
	)

	set := settings.NewFileStore(cfg.Settings.Path)
	as := assets.NewLocal(cfg.Assets.Dir, cfg.Assets.BaseURL)

	return &appEnv{
		Store:    st,
		Settings: set,
		Assets:   as,
		AI:       ai,
		Inventory: inventory.New(st, ai, as, set, inventory.Config{
			MarketTTL:             cfg.Market.CacheTTL(),
			MaxConcurrentListings: cfg.Batch.MaxConcurrentListings,
		}),
	}, nil
}

func initStore(ctx context.Context) (store.Store, error) {
	st, err := store.Open(ctx, store.Options{
		Driver:      cfg.Store.Driver,
		Path:        cfg.Store.Path,
		DatabaseURL: cfg.Store.DatabaseURL,
		Pool: &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		},
	})
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}
	return st, nil
}

// initProvider routes claude-* models to Anthropic and everything else to
// Gemini. A provider without a key is left out; its models then fail over.
func initProvider(ctx context.Context, c *config.Config) (inference.Provider, error) {
	var router *inference.Router
	if c.Gemini.Key != "" {
		g, err := gemini.NewClient(ctx, c.Gemini.Key, c.Gemini.BaseURL, geminiOptions(c.Gemini)...)
		if err != nil {
			return nil, err
		}
		router = inference.NewRouter(g)
	} else {
		router = inference.NewRouter(nil)
	}

	if c.Anthropic.Key != "" {
		client := anthropicpkg.NewClient(c.Anthropic.Key, c.Anthropic.BaseURL)
		router.Route("claude-", anthropicpkg.NewProvider(client, c.Anthropic.MaxTokens))
	}

	if c.Gemini.Key == "" && c.Anthropic.Key == "" {
		zap.L().Warn("no model provider key configured; grading, listing and market calls will fail")
	}
	return router, nil
}

func geminiOptions(c config.GeminiConfig) []gemini.Option {
	var opts []gemini.Option
	if c.Temperature > 0 {
		opts = append(opts, gemini.WithTemperature(c.Temperature))
	}
	return opts
}
