package prompt

import (
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardshop/cardshop/internal/inference"
	"github.com/cardshop/cardshop/internal/model"
)

func testImages() []inference.Image {
	return []inference.Image{
		{MIMEType: "image/jpeg", Data: []byte{0xff, 0xd8}},
		{MIMEType: "image/png", Data: []byte{0x89, 'P'}},
	}
}

func TestBuildGradingNoImages(t *testing.T) {
	t.Parallel()
	_, err := BuildGrading(GradingInput{Strictness: model.StrictnessStrict})
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrNoImages))
}

func TestBuildGradingDefaultRubric(t *testing.T) {
	t.Parallel()
	req, err := BuildGrading(GradingInput{Images: testImages(), Strictness: model.StrictnessStrict})
	require.NoError(t, err)

	assert.Equal(t, inference.TaskGrading, req.Task)
	assert.Len(t, req.Images, 2)
	assert.Equal(t, "image/png", req.Images[1].MIMEType)
	assert.Contains(t, req.Prompt, "Apply strict grading strictness.")
	assert.NotContains(t, req.Prompt, RubricPlaceholder)
	assert.NotContains(t, req.Prompt, "Reviewer feedback")
	require.NotNil(t, req.Schema)
}

func TestBuildGradingInvalidStrictnessFallsBack(t *testing.T) {
	t.Parallel()
	req, err := BuildGrading(GradingInput{Images: testImages(), Strictness: "brutal"})
	require.NoError(t, err)
	assert.Contains(t, req.Prompt, "Apply standard grading strictness.")
}

func TestBuildGradingRubric(t *testing.T) {
	t.Parallel()
	rubric := &Rubric{
		Centering: "60/40 or better",
		Corners:   "no whitening",
		Edges:     "clean",
		Surface:   "no scratches",
	}
	req, err := BuildGrading(GradingInput{Images: testImages(), Rubric: rubric})
	require.NoError(t, err)

	want := "- Centering: 60/40 or better\n- Corners: no whitening\n- Edges: clean\n- Surface: no scratches"
	assert.Contains(t, req.Prompt, want)
	assert.NotContains(t, req.Prompt, "grading strictness.")
}

func TestBuildGradingEmptyRubricUsesDefault(t *testing.T) {
	t.Parallel()
	req, err := BuildGrading(GradingInput{Images: testImages(), Rubric: &Rubric{Edges: "  "}, Strictness: model.StrictnessRelaxed})
	require.NoError(t, err)
	assert.Contains(t, req.Prompt, "Apply relaxed grading strictness.")
}

func TestBuildGradingOverride(t *testing.T) {
	t.Parallel()
	req, err := BuildGrading(GradingInput{
		Images:         testImages(),
		Strictness:     model.StrictnessStandard,
		PromptOverride: "Custom grader.\nRules:\n{{RUBRIC}}\nEnd.",
	})
	require.NoError(t, err)
	assert.Equal(t, "Custom grader.\nRules:\nApply standard grading strictness.\nEnd.", req.Prompt)
}

func TestBuildGradingFeedbackAppendedAfterBase(t *testing.T) {
	t.Parallel()
	override := "BASE {{RUBRIC}} TAIL"
	req, err := BuildGrading(GradingInput{
		Images:         testImages(),
		PromptOverride: override,
		Feedback:       "corners are worse than you said",
	})
	require.NoError(t, err)

	base := "BASE Apply standard grading strictness. TAIL"
	require.True(t, strings.HasPrefix(req.Prompt, base), req.Prompt)
	rest := strings.TrimPrefix(req.Prompt, base)
	assert.Contains(t, rest, "Reviewer feedback")
	assert.Contains(t, rest, "corners are worse than you said")
}

func TestBuildGradingDoesNotAliasImages(t *testing.T) {
	t.Parallel()
	imgs := testImages()
	req, err := BuildGrading(GradingInput{Images: imgs})
	require.NoError(t, err)
	imgs[0].MIMEType = "changed"
	assert.Equal(t, "image/jpeg", req.Images[0].MIMEType)
}

func TestGradingSchemaRequired(t *testing.T) {
	t.Parallel()
	s := GradingSchema()
	assert.Equal(t, inference.TypeObject, s.Type)
	assert.ElementsMatch(t, []string{
		"game", "name", "set", "cardNumber", "rarity", "isHolo",
		"grading", "suggestedPrice", "agents", "historicalPrices",
	}, s.Required)
	assert.NotContains(t, s.Required, "cardIdentifier")
	assert.Contains(t, s.Properties, "cardIdentifier")

	grading := s.Properties["grading"]
	assert.ElementsMatch(t, []string{"centering", "corners", "edges", "surface", "overall"}, grading.Required)
	for _, attr := range []string{"centering", "corners", "edges", "surface"} {
		assert.ElementsMatch(t, []string{"condition", "reasoning"}, grading.Properties[attr].Required, attr)
		assert.Len(t, grading.Properties[attr].Properties["condition"].Enum, 5)
	}
	assert.ElementsMatch(t, []string{"conservative", "market", "speculative"}, s.Properties["agents"].Required)
	assert.Equal(t, inference.TypeArray, s.Properties["historicalPrices"].Type)
}

func TestBuildListing(t *testing.T) {
	t.Parallel()
	card := model.Card{
		Name:       "Charizard",
		Set:        "Base Set",
		CardNumber: "4/102",
		Strictness: model.StrictnessStrict,
		Grading: model.Grading{
			Overall: model.OverallGrade{Condition: model.ConditionLightlyPlayed, Notes: "light edge wear"},
		},
	}
	req := BuildListing(ListingInputFor(card))

	assert.Equal(t, inference.TaskListing, req.Task)
	assert.Empty(t, req.Images)
	for _, want := range []string{"Charizard", "Base Set", "4/102", "lightly-played", "light edge wear", "strict"} {
		assert.Contains(t, req.Prompt, want)
	}
	assert.ElementsMatch(t, []string{"title", "ebayDescription", "tcgplayerNotes"}, req.Schema.Required)
}

func TestBuildListingBlankFields(t *testing.T) {
	t.Parallel()
	req := BuildListing(ListingInput{})
	assert.Contains(t, req.Prompt, "Card: unknown")
	assert.NotContains(t, req.Prompt, "Condition notes:")
}

func TestBuildMarket(t *testing.T) {
	t.Parallel()
	req := BuildMarket(MarketInputFor(model.Card{Game: "Pokemon", Name: "Pikachu", IsHolo: true}))
	assert.Equal(t, inference.TaskMarket, req.Task)
	assert.Contains(t, req.Prompt, "Pikachu")
	assert.Contains(t, req.Prompt, "holo/foil")
	assert.Contains(t, req.Schema.Required, "recentSales")
}
