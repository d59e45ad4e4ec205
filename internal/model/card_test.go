package model

import (
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func TestParseCondition(t *testing.T) {
	tests := []struct {
		in   string
		want Condition
		ok   bool
	}{
		{"near-mint", ConditionNearMint, true},
		{"Near Mint", ConditionNearMint, true},
		{"LP", ConditionLightlyPlayed, true},
		{"moderately_played", ConditionModeratelyPlayed, true},
		{" Heavily Played ", ConditionHeavilyPlayed, true},
		{"damaged", ConditionDamaged, true},
		{"pristine", DefaultCondition, false},
		{"", DefaultCondition, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseCondition(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestWorstOf(t *testing.T) {
	assert.Equal(t, ConditionHeavilyPlayed, WorstOf(ConditionNearMint, ConditionHeavilyPlayed, ConditionLightlyPlayed))
	assert.Equal(t, ConditionLightlyPlayed, WorstOf("bogus", ConditionLightlyPlayed))
	assert.Equal(t, DefaultCondition, WorstOf())
}

func TestGrading_Consistent(t *testing.T) {
	g := Grading{
		Centering: AttributeGrade{Condition: ConditionNearMint},
		Corners:   AttributeGrade{Condition: ConditionModeratelyPlayed},
		Edges:     AttributeGrade{Condition: ConditionLightlyPlayed},
		Surface:   AttributeGrade{Condition: ConditionNearMint},
		Overall:   OverallGrade{Condition: ConditionModeratelyPlayed},
	}
	assert.True(t, g.Consistent())

	g.Overall.Condition = ConditionNearMint
	assert.False(t, g.Consistent())
	assert.Equal(t, ConditionModeratelyPlayed, g.Worst())
}

func TestCard_Value(t *testing.T) {
	c := Card{SuggestedPrice: PriceRange{Low: 1, Mid: 5, High: 9}}
	assert.InDelta(t, 5.0, c.Value(), 0.001)

	c.Listing = &Listing{}
	assert.InDelta(t, 5.0, c.Value(), 0.001)

	c.Listing.Price = ptr(12.5)
	assert.InDelta(t, 12.5, c.Value(), 0.001)
}

func TestCard_SortDate(t *testing.T) {
	assert.Equal(t, "", Card{}.SortDate())
	assert.Equal(t, "2024-02-01", Card{Listing: &Listing{SoldDate: "2024-02-01"}}.SortDate())
	assert.Equal(t, "2024-01-01", Card{Listing: &Listing{ListedDate: "2024-01-01", SoldDate: "2024-02-01"}}.SortDate())
}

func TestMarketData_Fresh(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	var nilData *MarketData
	assert.False(t, nilData.Fresh(now))
	assert.False(t, (&MarketData{}).Fresh(now))
	assert.True(t, (&MarketData{CacheExpiry: now.Add(time.Hour)}).Fresh(now))
	assert.False(t, (&MarketData{CacheExpiry: now.Add(-time.Minute)}).Fresh(now))
}

func TestNormalize_Defaults(t *testing.T) {
	c := Normalize(Card{
		Grading: Grading{Corners: AttributeGrade{Condition: "Lightly Played"}},
		Listing: &Listing{},
	})

	assert.Equal(t, UnknownGame, c.Game)
	assert.Equal(t, UnknownName, c.Name)
	assert.NotNil(t, c.Images)
	assert.NotNil(t, c.HistoricalPrices)
	assert.Equal(t, StatusInventory, c.Status)
	assert.Equal(t, StrictnessStandard, c.Strictness)
	assert.Equal(t, ConditionNearMint, c.Grading.Centering.Condition)
	assert.Equal(t, ConditionLightlyPlayed, c.Grading.Corners.Condition)
	assert.Equal(t, ConditionNearMint, c.Grading.Overall.Condition)
	require.NotNil(t, c.Listing)
	assert.Equal(t, ListingDraft, c.Listing.Status)
	assert.NotNil(t, c.Listing.Platforms)
}

func TestNormalize_DoesNotAliasListing(t *testing.T) {
	orig := Card{Listing: &Listing{Title: "x"}}
	got := Normalize(orig)
	got.Listing.Title = "changed"
	assert.Equal(t, "x", orig.Listing.Title)
}

func TestNormalize_KeepsOverallAsAuthored(t *testing.T) {
	c := Normalize(Card{Grading: Grading{
		Corners: AttributeGrade{Condition: ConditionDamaged},
		Overall: OverallGrade{Condition: ConditionNearMint},
	}})
	assert.Equal(t, ConditionNearMint, c.Grading.Overall.Condition)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(Card{}))
	assert.NoError(t, Validate(Card{Status: StatusSold, SuggestedPrice: PriceRange{Low: 1, Mid: 2, High: 3}}))

	err := Validate(Card{Status: "archived"})
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrValidation))
	assert.Contains(t, err.Error(), "archived")

	err = Validate(Card{SuggestedPrice: PriceRange{Low: 5, Mid: 2, High: 3}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "low <= mid <= high")

	err = Validate(Card{Grading: Grading{Edges: AttributeGrade{Condition: "chipped"}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "edges")

	err = Validate(Card{Listing: &Listing{Price: ptr(-1)}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listing price")
}
