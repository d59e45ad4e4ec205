// Package inventory orchestrates card operations: a request is built, sent
// through the model fallback policy, reconciled into the card and persisted.
package inventory

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/cardshop/cardshop/internal/assets"
	"github.com/cardshop/cardshop/internal/inference"
	"github.com/cardshop/cardshop/internal/model"
	"github.com/cardshop/cardshop/internal/prompt"
	"github.com/cardshop/cardshop/internal/reconcile"
	"github.com/cardshop/cardshop/internal/settings"
	"github.com/cardshop/cardshop/internal/store"
	"github.com/cardshop/cardshop/internal/view"
)

// Generator sends an inference request through the candidate list.
type Generator interface {
	Generate(ctx context.Context, req inference.Request, preferred string) (*inference.Result, error)
}

// Assets stores and retrieves image payloads by URL.
type Assets interface {
	Save(ctx context.Context, data []byte, mimeType string) (string, error)
	Load(ctx context.Context, url string) ([]byte, string, error)
}

// SettingsSource provides the current grading preferences.
type SettingsSource interface {
	Load() (settings.Settings, error)
}

// Config tunes the service.
type Config struct {
	MarketTTL             time.Duration
	MaxConcurrentListings int // 0 = all at once
	Now                   func() time.Time
}

// DefaultMarketTTL is used when Config.MarketTTL is not set.
const DefaultMarketTTL = 24 * time.Hour

// Service implements the card operations.
type Service struct {
	store    store.Store
	ai       Generator
	assets   Assets
	settings SettingsSource
	cfg      Config
}

// New creates a Service.
func New(st store.Store, ai Generator, as Assets, set SettingsSource, cfg Config) *Service {
	if cfg.MarketTTL <= 0 {
		cfg.MarketTTL = DefaultMarketTTL
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}
	return &Service{store: st, ai: ai, assets: as, settings: set, cfg: cfg}
}

// Outcome is a persisted card plus the model that produced its new fields.
type Outcome struct {
	Card      *model.Card `json:"card"`
	ModelUsed string      `json:"modelUsed,omitempty"`
}

// ListResult is a projected view of the collection.
type ListResult struct {
	Cards []model.Card `json:"cards"`
	Stats view.Stats   `json:"stats"`
}

// List returns the cards matching q together with stats over that subset.
func (s *Service) List(ctx context.Context, q view.Query) (*ListResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	cards, err := s.store.List(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "inventory: list")
	}
	for i := range cards {
		cards[i] = model.Normalize(cards[i])
	}
	projected := view.Project(cards, q)
	return &ListResult{Cards: projected, Stats: view.Aggregate(projected)}, nil
}

// Get returns one card.
func (s *Service) Get(ctx context.Context, id string) (*model.Card, error) {
	return s.store.Get(ctx, id)
}

// Create validates and stores a user-supplied card.
func (s *Service) Create(ctx context.Context, card model.Card) (*model.Card, error) {
	if err := model.Validate(card); err != nil {
		return nil, err
	}
	return s.store.Create(ctx, model.Normalize(card))
}

// Replace validates and overwrites a card with user-supplied data.
func (s *Service) Replace(ctx context.Context, id string, card model.Card) (*model.Card, error) {
	if err := model.Validate(card); err != nil {
		return nil, err
	}
	return s.store.Replace(ctx, id, model.Normalize(card))
}

// ScanInput is a new card to grade from images.
type ScanInput struct {
	Images     []inference.Image
	Strictness model.Strictness // overrides the saved setting when set
	Feedback   string
	Model      string // overrides the saved preferred model when set
}

// Scan grades the images, stores them as assets and creates the card.
// Image types are checked before any model call; assets are only written
// once grading has succeeded.
func (s *Service) Scan(ctx context.Context, in ScanInput) (*Outcome, error) {
	set, err := s.loadSettings()
	if err != nil {
		return nil, err
	}
	strictness := set.Strictness
	if in.Strictness != "" {
		if !in.Strictness.Valid() {
			return nil, eris.Wrapf(model.ErrValidation, "unknown strictness %q", in.Strictness)
		}
		strictness = in.Strictness
	}

	images := make([]inference.Image, len(in.Images))
	for i, img := range in.Images {
		mime, err := assets.MediaType(img.Data, img.MIMEType)
		if err != nil {
			return nil, err
		}
		images[i] = inference.Image{MIMEType: mime, Data: img.Data}
	}

	req, err := prompt.BuildGrading(prompt.GradingInput{
		Images:         images,
		Strictness:     strictness,
		Rubric:         set.Rubric,
		PromptOverride: set.PromptOverride,
		Feedback:       in.Feedback,
	})
	if err != nil {
		return nil, err
	}

	res, err := s.ai.Generate(ctx, req, firstNonEmpty(in.Model, set.PreferredModel))
	if err != nil {
		return nil, eris.Wrap(err, "inventory: scan")
	}
	graded, err := reconcile.Grading(res.Text)
	if err != nil {
		return nil, err
	}

	urls := make([]string, 0, len(images))
	for _, img := range images {
		url, err := s.assets.Save(ctx, img.Data, img.MIMEType)
		if err != nil {
			return nil, eris.Wrap(err, "inventory: save image")
		}
		urls = append(urls, url)
	}

	card, err := s.store.Create(ctx, graded.NewCard(urls, strictness))
	if err != nil {
		return nil, eris.Wrap(err, "inventory: create card")
	}

	zap.L().Info("card scanned",
		zap.String("card_id", card.ID),
		zap.String("name", card.Name),
		zap.String("condition", string(card.Grading.Overall.Condition)),
		zap.String("model", res.ModelUsed),
	)
	return &Outcome{Card: card, ModelUsed: res.ModelUsed}, nil
}

// RegradeInput carries reviewer feedback for an existing card.
type RegradeInput struct {
	Feedback   string
	Strictness model.Strictness
	Model      string
}

// Regrade grades a stored card again from its saved images and merges the
// result. Only model-owned fields change.
func (s *Service) Regrade(ctx context.Context, id string, in RegradeInput) (*Outcome, error) {
	card, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	set, err := s.loadSettings()
	if err != nil {
		return nil, err
	}

	strictness := card.Strictness
	if in.Strictness != "" {
		if !in.Strictness.Valid() {
			return nil, eris.Wrapf(model.ErrValidation, "unknown strictness %q", in.Strictness)
		}
		strictness = in.Strictness
	}

	images := make([]inference.Image, 0, len(card.Images))
	for _, url := range card.Images {
		data, mime, err := s.assets.Load(ctx, url)
		if err != nil {
			return nil, eris.Wrapf(err, "inventory: load image for %s", id)
		}
		images = append(images, inference.Image{MIMEType: mime, Data: data})
	}

	req, err := prompt.BuildGrading(prompt.GradingInput{
		Images:         images,
		Strictness:     strictness,
		Rubric:         set.Rubric,
		PromptOverride: set.PromptOverride,
		Feedback:       in.Feedback,
	})
	if err != nil {
		return nil, err
	}

	res, err := s.ai.Generate(ctx, req, firstNonEmpty(in.Model, set.PreferredModel))
	if err != nil {
		return nil, eris.Wrapf(err, "inventory: regrade %s", id)
	}
	graded, err := reconcile.Grading(res.Text)
	if err != nil {
		return nil, err
	}

	merged := reconcile.MergeGrading(*card, graded)
	merged.Strictness = strictness
	updated, err := s.store.Replace(ctx, id, merged)
	if err != nil {
		return nil, err
	}
	return &Outcome{Card: updated, ModelUsed: res.ModelUsed}, nil
}

// GenerateListing writes fresh listing copy for one card. An unusable model
// response fails the operation and leaves the card unchanged.
func (s *Service) GenerateListing(ctx context.Context, id string) (*Outcome, error) {
	card, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	res, err := s.ai.Generate(ctx, prompt.BuildListing(prompt.ListingInputFor(*card)), "")
	if err != nil {
		return nil, eris.Wrapf(err, "inventory: listing copy %s", id)
	}
	lc, err := reconcile.Listing(res.Text)
	if err != nil {
		return nil, err
	}

	if card.Listing == nil {
		set, err := s.loadSettings()
		if err != nil {
			return nil, err
		}
		card.Listing = draftListing(set.Platforms)
	}

	updated, err := s.store.Replace(ctx, id, reconcile.MergeListingCopy(*card, lc))
	if err != nil {
		return nil, err
	}
	return &Outcome{Card: updated, ModelUsed: res.ModelUsed}, nil
}

// MarketData returns the card's market data, reusing an unexpired cache
// unless force is set. fetched reports whether the provider was called.
func (s *Service) MarketData(ctx context.Context, id string, force bool) (card *model.Card, fetched bool, err error) {
	card, err = s.store.Get(ctx, id)
	if err != nil {
		return nil, false, err
	}
	now := s.cfg.Now()
	if !force && card.MarketData.Fresh(now) {
		return card, false, nil
	}

	res, err := s.ai.Generate(ctx, prompt.BuildMarket(prompt.MarketInputFor(*card)), "")
	if err != nil {
		return nil, false, eris.Wrapf(err, "inventory: market data %s", id)
	}
	md, err := reconcile.Market(res.Text, now, s.cfg.MarketTTL)
	if err != nil {
		return nil, false, err
	}

	updated, err := s.store.Replace(ctx, id, reconcile.MergeMarket(*card, md))
	if err != nil {
		return nil, false, err
	}
	zap.L().Info("market data refreshed",
		zap.String("card_id", id),
		zap.Bool("forced", force),
		zap.Float64("average_price", md.AveragePrice),
		zap.Time("cache_expiry", md.CacheExpiry),
	)
	return updated, true, nil
}

func (s *Service) loadSettings() (settings.Settings, error) {
	if s.settings == nil {
		return settings.Defaults(), nil
	}
	set, err := s.settings.Load()
	if err != nil {
		return settings.Settings{}, eris.Wrap(err, "inventory: load settings")
	}
	return set, nil
}

// draftListing is a new listing offered on the default platforms.
func draftListing(platforms []string) *model.Listing {
	return &model.Listing{
		Status:    model.ListingDraft,
		Platforms: append([]string{}, platforms...),
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
