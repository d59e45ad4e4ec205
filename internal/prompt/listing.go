package prompt

import (
	"fmt"
	"strings"

	"github.com/cardshop/cardshop/internal/inference"
	"github.com/cardshop/cardshop/internal/model"
)

// ListingInput is the card summary a listing-copy request is built from.
type ListingInput struct {
	Name       string
	Set        string
	CardNumber string
	Condition  model.Condition
	Notes      string
	Strictness model.Strictness
}

// ListingInputFor extracts the listing summary fields from a card.
func ListingInputFor(c model.Card) ListingInput {
	return ListingInput{
		Name:       c.Name,
		Set:        c.Set,
		CardNumber: c.CardNumber,
		Condition:  c.Grading.Overall.Condition,
		Notes:      c.Grading.Overall.Notes,
		Strictness: c.Strictness,
	}
}

// BuildListing assembles a text-only listing-copy request.
func BuildListing(in ListingInput) inference.Request {
	var sb strings.Builder
	sb.WriteString("You are writing marketplace listing copy for a single trading card.\n\n")
	fmt.Fprintf(&sb, "Card: %s\n", orUnknown(in.Name))
	fmt.Fprintf(&sb, "Set: %s\n", orUnknown(in.Set))
	fmt.Fprintf(&sb, "Number: %s\n", orUnknown(in.CardNumber))
	fmt.Fprintf(&sb, "Condition: %s\n", orUnknown(string(in.Condition)))
	if n := strings.TrimSpace(in.Notes); n != "" {
		fmt.Fprintf(&sb, "Condition notes: %s\n", n)
	}
	if in.Strictness.Valid() {
		fmt.Fprintf(&sb, "Graded with %s strictness.\n", in.Strictness)
	}
	sb.WriteString(`
Write:
- title: a searchable eBay title of at most 80 characters (name, set, number, condition).
- ebayDescription: an honest, buyer-friendly description that states the condition plainly.
- tcgplayerNotes: one or two sentences of condition notes for TCGplayer.

Respond with a single JSON object matching the provided schema.`)

	return inference.Request{
		Task:   inference.TaskListing,
		Prompt: sb.String(),
		Schema: ListingSchema(),
	}
}

func orUnknown(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return "unknown"
	}
	return s
}
