// Package reconcile turns raw model output into card fields and merges those
// fields into live cards without touching anything the model does not own.
package reconcile

import (
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/cardshop/cardshop/internal/model"
)

// ErrParse is returned when model output is not usable structured data.
var ErrParse = eris.New("reconcile: unparseable model output")

// GradingResult holds every field a grading call produces.
type GradingResult struct {
	Game             string
	Name             string
	Set              string
	CardNumber       string
	Rarity           string
	IsHolo           bool
	CardIdentifier   string
	Grading          model.Grading
	SuggestedPrice   model.PriceRange
	Agents           model.Agents
	HistoricalPrices []model.PricePoint
}

// ListingCopy is the generated marketplace text.
type ListingCopy struct {
	Title           string
	EbayDescription string
	TCGPlayerNotes  string
}

// Grading reads a grading response. Absent or null fields take their
// documented defaults; only output that is not a JSON object fails.
func Grading(raw string) (*GradingResult, error) {
	root, err := parseObject(raw)
	if err != nil {
		return nil, eris.Wrap(err, "reconcile: grading")
	}

	g := root.Get("grading")
	res := &GradingResult{
		Game:           stringOr(root.Get("game"), model.UnknownGame),
		Name:           stringOr(root.Get("name"), model.UnknownName),
		Set:            stringOr(root.Get("set"), ""),
		CardNumber:     stringOr(root.Get("cardNumber"), ""),
		Rarity:         stringOr(root.Get("rarity"), ""),
		IsHolo:         root.Get("isHolo").Bool(),
		CardIdentifier: stringOr(root.Get("cardIdentifier"), ""),
		Grading: model.Grading{
			Centering: attribute(g.Get("centering")),
			Corners:   attribute(g.Get("corners")),
			Edges:     attribute(g.Get("edges")),
			Surface:   attribute(g.Get("surface")),
			Overall: model.OverallGrade{
				Condition: condition(g.Get("overall.condition")),
				Notes:     stringOr(g.Get("overall.notes"), ""),
			},
		},
		SuggestedPrice: model.PriceRange{
			Low:  number(root.Get("suggestedPrice.low")),
			Mid:  number(root.Get("suggestedPrice.mid")),
			High: number(root.Get("suggestedPrice.high")),
		},
		Agents: model.Agents{
			Conservative: agent(root.Get("agents.conservative")),
			Market:       agent(root.Get("agents.market")),
			Speculative:  agent(root.Get("agents.speculative")),
		},
		HistoricalPrices: []model.PricePoint{},
	}

	for _, p := range root.Get("historicalPrices").Array() {
		if !p.IsObject() {
			continue
		}
		res.HistoricalPrices = append(res.HistoricalPrices, model.PricePoint{
			Date:   stringOr(p.Get("date"), ""),
			Price:  number(p.Get("price")),
			Source: stringOr(p.Get("source"), ""),
		})
	}

	if !res.SuggestedPrice.Ordered() {
		zap.L().Warn("reconcile: suggested price range is not ordered",
			zap.Float64("low", res.SuggestedPrice.Low),
			zap.Float64("mid", res.SuggestedPrice.Mid),
			zap.Float64("high", res.SuggestedPrice.High),
		)
	}
	if !res.Grading.Consistent() {
		zap.L().Warn("reconcile: overall condition differs from worst attribute",
			zap.String("overall", string(res.Grading.Overall.Condition)),
			zap.String("worst", string(res.Grading.Worst())),
		)
	}

	return res, nil
}

// Listing reads a listing-copy response. All three fields are required.
func Listing(raw string) (*ListingCopy, error) {
	root, err := parseObject(raw)
	if err != nil {
		return nil, eris.Wrap(err, "reconcile: listing copy")
	}

	var missing []string
	field := func(name string) string {
		v := root.Get(name)
		if v.Type != gjson.String || strings.TrimSpace(v.String()) == "" {
			missing = append(missing, name)
			return ""
		}
		return strings.TrimSpace(v.String())
	}

	lc := &ListingCopy{
		Title:           field("title"),
		EbayDescription: field("ebayDescription"),
		TCGPlayerNotes:  field("tcgplayerNotes"),
	}
	if len(missing) > 0 {
		return nil, eris.Wrapf(ErrParse, "reconcile: listing copy missing %s", strings.Join(missing, ", "))
	}
	return lc, nil
}

// Market reads a market-data response and stamps it as fetched at now,
// valid for ttl.
func Market(raw string, now time.Time, ttl time.Duration) (*model.MarketData, error) {
	root, err := parseObject(raw)
	if err != nil {
		return nil, eris.Wrap(err, "reconcile: market")
	}

	md := &model.MarketData{
		AveragePrice: number(root.Get("averagePrice")),
		LowPrice:     number(root.Get("lowPrice")),
		HighPrice:    number(root.Get("highPrice")),
		RecentSales:  []model.Sale{},
		Summary:      stringOr(root.Get("summary"), ""),
		FetchedAt:    now.UTC(),
		CacheExpiry:  now.UTC().Add(ttl),
	}
	for _, s := range root.Get("recentSales").Array() {
		if !s.IsObject() {
			continue
		}
		md.RecentSales = append(md.RecentSales, model.Sale{
			Date:   stringOr(s.Get("date"), ""),
			Price:  number(s.Get("price")),
			Source: stringOr(s.Get("source"), ""),
			Title:  stringOr(s.Get("title"), ""),
		})
	}
	return md, nil
}

func parseObject(raw string) (gjson.Result, error) {
	text := cleanJSON(raw)
	if text == "" || !gjson.Valid(text) {
		return gjson.Result{}, ErrParse
	}
	root := gjson.Parse(text)
	if !root.IsObject() {
		return gjson.Result{}, eris.Wrap(ErrParse, "expected a JSON object")
	}
	return root, nil
}

// cleanJSON strips markdown fences and extracts the outermost JSON object.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}

func stringOr(r gjson.Result, def string) string {
	if !r.Exists() || r.Type == gjson.Null {
		return def
	}
	s := strings.TrimSpace(r.String())
	if s == "" {
		return def
	}
	return s
}

// number accepts JSON numbers and numeric strings such as "$1,250.00".
func number(r gjson.Result) float64 {
	switch r.Type {
	case gjson.Number:
		return r.Float()
	case gjson.String:
		s := strings.NewReplacer("$", "", ",", "", " ", "").Replace(r.String())
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

func condition(r gjson.Result) model.Condition {
	c, _ := model.ParseCondition(r.String())
	return c
}

func attribute(r gjson.Result) model.AttributeGrade {
	return model.AttributeGrade{
		Condition: condition(r.Get("condition")),
		Reasoning: stringOr(r.Get("reasoning"), ""),
	}
}

func agent(r gjson.Result) model.AgentOpinion {
	return model.AgentOpinion{
		Price:      number(r.Get("price")),
		Confidence: number(r.Get("confidence")),
		Reasoning:  stringOr(r.Get("reasoning"), ""),
	}
}
