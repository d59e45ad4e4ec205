package reconcile

import (
	"strings"

	"github.com/cardshop/cardshop/internal/model"
)

// MergeGrading copies the model-owned fields of res into card. Grading,
// SuggestedPrice, Agents, HistoricalPrices, CardIdentifier and IsHolo are
// replaced; descriptive fields are filled only where card has none (or a
// placeholder).
// Identity, images, status, listing, market data and notes are untouched.
func MergeGrading(card model.Card, res *GradingResult) model.Card {
	if res == nil {
		return card
	}

	card.Grading = res.Grading
	card.SuggestedPrice = res.SuggestedPrice
	card.Agents = res.Agents
	card.HistoricalPrices = append([]model.PricePoint{}, res.HistoricalPrices...)
	card.CardIdentifier = res.CardIdentifier
	card.IsHolo = res.IsHolo

	card.Game = fill(card.Game, res.Game, model.UnknownGame)
	card.Name = fill(card.Name, res.Name, model.UnknownName)
	card.Set = fill(card.Set, res.Set, "")
	card.CardNumber = fill(card.CardNumber, res.CardNumber, "")
	card.Rarity = fill(card.Rarity, res.Rarity, "")
	return card
}

// NewCard builds a fresh inventory card from a scan.
func (r *GradingResult) NewCard(images []string, strictness model.Strictness) model.Card {
	c := MergeGrading(model.Card{
		Images:     append([]string{}, images...),
		Strictness: strictness,
		Status:     model.StatusInventory,
	}, r)
	return model.Normalize(c)
}

// MergeListingCopy writes generated copy into card's listing, creating a
// draft listing when there is none. Price, platforms and dates are untouched.
func MergeListingCopy(card model.Card, lc *ListingCopy) model.Card {
	if lc == nil {
		return card
	}

	var l model.Listing
	if card.Listing != nil {
		l = *card.Listing
	} else {
		l = model.Listing{Status: model.ListingDraft, Platforms: []string{}}
	}
	l.Title = lc.Title
	l.EbayDescription = lc.EbayDescription
	l.TCGPlayerNotes = lc.TCGPlayerNotes
	card.Listing = &l
	return card
}

// MergeMarket replaces card's market-data cache.
func MergeMarket(card model.Card, md *model.MarketData) model.Card {
	if md == nil {
		return card
	}
	cp := *md
	cp.RecentSales = append([]model.Sale{}, md.RecentSales...)
	card.MarketData = &cp
	return card
}

func fill(current, candidate, placeholder string) string {
	cur := strings.TrimSpace(current)
	if cur != "" && (placeholder == "" || cur != placeholder) {
		return current
	}
	if strings.TrimSpace(candidate) == "" {
		return current
	}
	return candidate
}
