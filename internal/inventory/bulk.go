package inventory

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cardshop/cardshop/internal/model"
)

// BatchResult reports a bulk operation. A failed card is left in its prior
// state and never blocks its siblings.
type BatchResult struct {
	Updated []model.Card      `json:"updated"`
	Failed  map[string]string `json:"failed"`
}

func newBatchResult() *BatchResult {
	return &BatchResult{Updated: []model.Card{}, Failed: map[string]string{}}
}

// BulkGenerateListings generates listing copy for every id concurrently and
// waits for all of them. Updated keeps the order of ids.
func (s *Service) BulkGenerateListings(ctx context.Context, ids []string) (*BatchResult, error) {
	updated := make([]*model.Card, len(ids))
	failed := make(map[string]string)
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	if s.cfg.MaxConcurrentListings > 0 {
		g.SetLimit(s.cfg.MaxConcurrentListings)
	}

	for i, id := range ids {
		g.Go(func() error {
			out, err := s.GenerateListing(gctx, id)
			if err != nil {
				zap.L().Warn("bulk listing: card failed",
					zap.String("card_id", id),
					zap.Error(err),
				)
				mu.Lock()
				failed[id] = err.Error()
				mu.Unlock()
				return nil // tolerate per-card failures
			}
			updated[i] = out.Card
			return nil
		})
	}
	_ = g.Wait()

	res := newBatchResult()
	for _, c := range updated {
		if c != nil {
			res.Updated = append(res.Updated, *c)
		}
	}
	res.Failed = failed

	zap.L().Info("bulk listing complete",
		zap.Int("requested", len(ids)),
		zap.Int("updated", len(res.Updated)),
		zap.Int("failed", len(res.Failed)),
	)
	return res, nil
}

// BulkUpdateStatus moves every card to status one at a time, each persisted
// before the next is read. Moving to listing stamps the listed date and moving
// to sold stamps the sold date, when not already set. A card without a
// listing gets one on the default platforms from settings.
func (s *Service) BulkUpdateStatus(ctx context.Context, ids []string, status model.Status) (*BatchResult, error) {
	if !status.Valid() {
		return nil, eris.Wrapf(model.ErrValidation, "unknown status %q", status)
	}

	set, err := s.loadSettings()
	if err != nil {
		return nil, err
	}

	res := newBatchResult()
	today := s.cfg.Now().Format("2006-01-02")

	for _, id := range ids {
		card, err := s.store.Get(ctx, id)
		if err != nil {
			res.Failed[id] = err.Error()
			continue
		}

		next := applyStatus(*card, status, today, set.Platforms)
		updated, err := s.store.Replace(ctx, id, next)
		if err != nil {
			res.Failed[id] = err.Error()
			continue
		}
		res.Updated = append(res.Updated, *updated)
	}

	zap.L().Info("bulk status update complete",
		zap.String("status", string(status)),
		zap.Int("updated", len(res.Updated)),
		zap.Int("failed", len(res.Failed)),
	)
	return res, nil
}

func applyStatus(card model.Card, status model.Status, today string, platforms []string) model.Card {
	card.Status = status

	switch status {
	case model.StatusListing, model.StatusSold:
		l := *draftListing(platforms)
		if card.Listing != nil {
			l = *card.Listing
		}
		if status == model.StatusListing {
			l.Status = model.ListingActive
			if l.ListedDate == "" {
				l.ListedDate = today
			}
		} else {
			l.Status = model.ListingEnded
			if l.SoldDate == "" {
				l.SoldDate = today
			}
		}
		card.Listing = &l
	}
	return model.Normalize(card)
}
