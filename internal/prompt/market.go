package prompt

import (
	"fmt"
	"strings"

	"github.com/cardshop/cardshop/internal/inference"
	"github.com/cardshop/cardshop/internal/model"
)

// MarketInput identifies the card a market lookup is for.
type MarketInput struct {
	Game       string
	Name       string
	Set        string
	CardNumber string
	Condition  model.Condition
	IsHolo     bool
}

// MarketInputFor extracts the market lookup fields from a card.
func MarketInputFor(c model.Card) MarketInput {
	return MarketInput{
		Game:       c.Game,
		Name:       c.Name,
		Set:        c.Set,
		CardNumber: c.CardNumber,
		Condition:  c.Grading.Overall.Condition,
		IsHolo:     c.IsHolo,
	}
}

// BuildMarket assembles a text-only market-data request.
func BuildMarket(in MarketInput) inference.Request {
	var sb strings.Builder
	sb.WriteString("You are a trading card market analyst.\n\n")
	fmt.Fprintf(&sb, "Game: %s\nCard: %s\nSet: %s\nNumber: %s\nCondition: %s\n",
		orUnknown(in.Game), orUnknown(in.Name), orUnknown(in.Set),
		orUnknown(in.CardNumber), orUnknown(string(in.Condition)))
	if in.IsHolo {
		sb.WriteString("Printing: holo/foil\n")
	}
	sb.WriteString(`
Report current market pricing for this card in this condition: average, low and high
prices in USD, up to ten recent sales (date, price, source, listing title) and a short summary
of the price trend. Use raw numbers. Respond with a single JSON object matching the provided schema.`)

	return inference.Request{
		Task:   inference.TaskMarket,
		Prompt: sb.String(),
		Schema: MarketSchema(),
	}
}
