// Package prompt builds the inference requests for grading, listing copy and
// market lookups: the rendered instruction text plus the output schema the
// model must conform to.
package prompt

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/cardshop/cardshop/internal/inference"
	"github.com/cardshop/cardshop/internal/model"
)

// RubricPlaceholder is replaced with the rendered rubric in override templates.
const RubricPlaceholder = "{{RUBRIC}}"

// ErrNoImages is returned when a grading request has no images.
var ErrNoImages = eris.New("prompt: grading requires at least one image")

// Rubric holds per-attribute grading rules.
type Rubric struct {
	Centering string `json:"centering" yaml:"centering"`
	Corners   string `json:"corners" yaml:"corners"`
	Edges     string `json:"edges" yaml:"edges"`
	Surface   string `json:"surface" yaml:"surface"`
}

// IsZero reports whether every rule is blank.
func (r *Rubric) IsZero() bool {
	return r == nil || strings.TrimSpace(r.Centering+r.Corners+r.Edges+r.Surface) == ""
}

// Render formats the rubric as four labelled bullet lines.
func (r *Rubric) Render() string {
	return fmt.Sprintf("- Centering: %s\n- Corners: %s\n- Edges: %s\n- Surface: %s",
		strings.TrimSpace(r.Centering),
		strings.TrimSpace(r.Corners),
		strings.TrimSpace(r.Edges),
		strings.TrimSpace(r.Surface),
	)
}

// GradingInput is everything needed to build a grading request.
type GradingInput struct {
	Images         []inference.Image
	Strictness     model.Strictness
	Rubric         *Rubric
	PromptOverride string
	Feedback       string
}

const defaultGradingTemplate = `You are an expert trading card grader and appraiser.

Examine the card in the attached image(s). Identify the game, card name, set, card number and
rarity, and whether the card is a holo/foil printing. If the card carries a printed identifier
(for example a set code plus number), report it as cardIdentifier.

Grade the card's physical condition on this scale, best to worst:
near-mint, lightly-played, moderately-played, heavily-played, damaged.

Grade each attribute separately (centering, corners, edges, surface) and give a short reasoning
for each. The overall condition is the worst of the four attribute conditions.

Grading rules:
{{RUBRIC}}

Then estimate value:
- suggestedPrice: low, mid and high prices in USD for this card in this condition.
- agents: three independent opinions (conservative, market, speculative), each with a price,
  a confidence between 0 and 1, and a one-sentence reasoning.
- historicalPrices: notable past price points you are aware of (date, price, source); may be empty.

Respond with a single JSON object matching the provided schema. Use raw numbers without
currency symbols or thousands separators.`

const feedbackTemplate = `

Reviewer feedback on a previous grading of this card:
%s

Reconsider your previous assessment in light of this feedback. Re-examine the images and
update any attribute grades, the overall condition and the price estimates that the feedback
shows to be wrong. Keep assessments the feedback does not dispute unless the images contradict them.`

// BuildGrading assembles a multimodal grading request.
func BuildGrading(in GradingInput) (inference.Request, error) {
	if len(in.Images) == 0 {
		return inference.Request{}, ErrNoImages
	}

	strictness := in.Strictness
	if !strictness.Valid() {
		strictness = model.StrictnessStandard
	}

	rubric := defaultRubricLine(strictness)
	if !in.Rubric.IsZero() {
		rubric = in.Rubric.Render()
	}

	base := defaultGradingTemplate
	if strings.TrimSpace(in.PromptOverride) != "" {
		base = in.PromptOverride
	}
	text := strings.ReplaceAll(base, RubricPlaceholder, rubric)

	if fb := strings.TrimSpace(in.Feedback); fb != "" {
		text += fmt.Sprintf(feedbackTemplate, fb)
	}

	images := make([]inference.Image, len(in.Images))
	copy(images, in.Images)

	return inference.Request{
		Task:   inference.TaskGrading,
		Images: images,
		Prompt: text,
		Schema: GradingSchema(),
	}, nil
}

func defaultRubricLine(s model.Strictness) string {
	return fmt.Sprintf("Apply %s grading strictness.", s)
}
