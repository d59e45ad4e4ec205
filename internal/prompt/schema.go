package prompt

import (
	"github.com/cardshop/cardshop/internal/inference"
	"github.com/cardshop/cardshop/internal/model"
)

func str(desc string) *inference.Schema {
	return &inference.Schema{Type: inference.TypeString, Description: desc}
}

func num(desc string) *inference.Schema {
	return &inference.Schema{Type: inference.TypeNumber, Description: desc}
}

func object(props map[string]*inference.Schema, required ...string) *inference.Schema {
	return &inference.Schema{Type: inference.TypeObject, Properties: props, Required: required}
}

func arrayOf(items *inference.Schema) *inference.Schema {
	return &inference.Schema{Type: inference.TypeArray, Items: items}
}

func conditionEnum() []string {
	out := make([]string, len(model.Conditions))
	for i, c := range model.Conditions {
		out[i] = string(c)
	}
	return out
}

func attributeGrade() *inference.Schema {
	return object(map[string]*inference.Schema{
		"condition": {Type: inference.TypeString, Enum: conditionEnum()},
		"reasoning": str("why this condition was chosen"),
	}, "condition", "reasoning")
}

func agentOpinion() *inference.Schema {
	return object(map[string]*inference.Schema{
		"price":      num("estimated price in USD"),
		"confidence": num("confidence between 0 and 1"),
		"reasoning":  str(""),
	}, "price", "confidence", "reasoning")
}

func pricePoint() *inference.Schema {
	return object(map[string]*inference.Schema{
		"date":   str("YYYY-MM-DD"),
		"price":  num("price in USD"),
		"source": str(""),
	}, "date", "price")
}

// GradingSchema is the output contract of a grading request. Everything is
// required except cardIdentifier; historicalPrices may be empty.
func GradingSchema() *inference.Schema {
	grading := object(map[string]*inference.Schema{
		"centering": attributeGrade(),
		"corners":   attributeGrade(),
		"edges":     attributeGrade(),
		"surface":   attributeGrade(),
		"overall": object(map[string]*inference.Schema{
			"condition": {Type: inference.TypeString, Enum: conditionEnum()},
			"notes":     str("summary of the overall condition"),
		}, "condition", "notes"),
	}, "centering", "corners", "edges", "surface", "overall")

	return object(map[string]*inference.Schema{
		"game":           str("trading card game"),
		"name":           str("card name"),
		"set":            str("set or expansion name"),
		"cardNumber":     str("collector number as printed"),
		"rarity":         str(""),
		"isHolo":         {Type: inference.TypeBoolean},
		"cardIdentifier": str("printed identifier, if any"),
		"grading":        grading,
		"suggestedPrice": object(map[string]*inference.Schema{
			"low":  num(""),
			"mid":  num(""),
			"high": num(""),
		}, "low", "mid", "high"),
		"agents": object(map[string]*inference.Schema{
			"conservative": agentOpinion(),
			"market":       agentOpinion(),
			"speculative":  agentOpinion(),
		}, "conservative", "market", "speculative"),
		"historicalPrices": arrayOf(pricePoint()),
	},
		"game", "name", "set", "cardNumber", "rarity", "isHolo",
		"grading", "suggestedPrice", "agents", "historicalPrices",
	)
}

// ListingSchema is the output contract of a listing-copy request.
func ListingSchema() *inference.Schema {
	return object(map[string]*inference.Schema{
		"title":           str("marketplace listing title, at most 80 characters"),
		"ebayDescription": str("full eBay listing description"),
		"tcgplayerNotes":  str("short TCGplayer condition notes"),
	}, "title", "ebayDescription", "tcgplayerNotes")
}

// MarketSchema is the output contract of a market-data request.
func MarketSchema() *inference.Schema {
	return object(map[string]*inference.Schema{
		"averagePrice": num(""),
		"lowPrice":     num(""),
		"highPrice":    num(""),
		"recentSales": arrayOf(object(map[string]*inference.Schema{
			"date":   str("YYYY-MM-DD"),
			"price":  num(""),
			"source": str(""),
			"title":  str(""),
		}, "date", "price")),
		"summary": str("one paragraph market summary"),
	}, "averagePrice", "lowPrice", "highPrice", "recentSales", "summary")
}
