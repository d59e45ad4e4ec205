package model

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// Placeholder values used when the grader could not identify a card.
const (
	UnknownGame = "Unknown Game"
	UnknownName = "Unknown Card"
)

// ErrValidation is returned for user input that breaks a card invariant.
var ErrValidation = eris.New("validation failed")

// Normalize returns c with every optional field defaulted. It is the single
// place defaults are defined and runs after inference, after every store read,
// and before every store write:
//
//   - Game, Name: UnknownGame / UnknownName when blank
//   - Images, HistoricalPrices, Listing.Platforms: empty slices, never nil
//   - every condition: DefaultCondition when not one of the five known values
//   - Strictness: standard when unknown
//   - Status: inventory when unknown
//   - Listing.Status: draft when blank
//   - MarketData.RecentSales: empty slice
func Normalize(c Card) Card {
	if strings.TrimSpace(c.Game) == "" {
		c.Game = UnknownGame
	}
	if strings.TrimSpace(c.Name) == "" {
		c.Name = UnknownName
	}
	if c.Images == nil {
		c.Images = []string{}
	}
	if c.HistoricalPrices == nil {
		c.HistoricalPrices = []PricePoint{}
	}
	if !c.Strictness.Valid() {
		c.Strictness = StrictnessStandard
	}
	if !c.Status.Valid() {
		c.Status = StatusInventory
	}
	c.Grading = normalizeGrading(c.Grading)

	if c.Listing != nil {
		l := *c.Listing
		if l.Status == "" {
			l.Status = ListingDraft
		}
		if l.Platforms == nil {
			l.Platforms = []string{}
		}
		c.Listing = &l
	}
	if c.MarketData != nil {
		md := *c.MarketData
		if md.RecentSales == nil {
			md.RecentSales = []Sale{}
		}
		c.MarketData = &md
	}
	return c
}

func normalizeGrading(g Grading) Grading {
	for _, a := range []*AttributeGrade{&g.Centering, &g.Corners, &g.Edges, &g.Surface} {
		a.Condition = normalizeCondition(a.Condition)
	}
	g.Overall.Condition = normalizeCondition(g.Overall.Condition)
	return g
}

func normalizeCondition(c Condition) Condition {
	if c.Valid() {
		return c
	}
	parsed, _ := ParseCondition(string(c))
	return parsed
}

// Validate checks user-supplied card data. Model output is never validated
// here; it is normalized and tolerated instead.
func Validate(c Card) error {
	var problems []string

	if c.Status != "" && !c.Status.Valid() {
		problems = append(problems, fmt.Sprintf("unknown status %q", c.Status))
	}
	if c.Strictness != "" && !c.Strictness.Valid() {
		problems = append(problems, fmt.Sprintf("unknown strictness %q", c.Strictness))
	}

	grades := map[string]Condition{
		"centering": c.Grading.Centering.Condition,
		"corners":   c.Grading.Corners.Condition,
		"edges":     c.Grading.Edges.Condition,
		"surface":   c.Grading.Surface.Condition,
		"overall":   c.Grading.Overall.Condition,
	}
	for _, name := range []string{"centering", "corners", "edges", "surface", "overall"} {
		if cond := grades[name]; cond != "" && !cond.Valid() {
			problems = append(problems, fmt.Sprintf("%s: unknown condition %q", name, cond))
		}
	}

	p := c.SuggestedPrice
	if p.Low < 0 || p.Mid < 0 || p.High < 0 {
		problems = append(problems, "suggested price must not be negative")
	} else if !p.IsZero() && !p.Ordered() {
		problems = append(problems, "suggested price must satisfy low <= mid <= high")
	}

	if c.Listing != nil {
		if c.Listing.Price != nil && *c.Listing.Price < 0 {
			problems = append(problems, "listing price must not be negative")
		}
		if c.Listing.SoldPrice != nil && *c.Listing.SoldPrice < 0 {
			problems = append(problems, "sold price must not be negative")
		}
	}

	if len(problems) > 0 {
		return eris.Wrap(ErrValidation, strings.Join(problems, "; "))
	}
	return nil
}
