package model

import "time"

// AttributeGrade is the condition of one physical attribute with the grader's reasoning.
type AttributeGrade struct {
	Condition Condition `json:"condition"`
	Reasoning string    `json:"reasoning"`
}

// OverallGrade is the headline condition of a card.
type OverallGrade struct {
	Condition Condition `json:"condition"`
	Notes     string    `json:"notes"`
}

// Grading holds the four per-attribute grades plus the overall grade.
type Grading struct {
	Centering AttributeGrade `json:"centering"`
	Corners   AttributeGrade `json:"corners"`
	Edges     AttributeGrade `json:"edges"`
	Surface   AttributeGrade `json:"surface"`
	Overall   OverallGrade   `json:"overall"`
}

// Worst returns the worst of the four attribute conditions.
func (g Grading) Worst() Condition {
	return WorstOf(g.Centering.Condition, g.Corners.Condition, g.Edges.Condition, g.Surface.Condition)
}

// Consistent reports whether the overall condition equals the worst attribute.
// It is diagnostic only; the overall grade is never rewritten from it.
func (g Grading) Consistent() bool {
	return g.Overall.Condition == g.Worst()
}

// AgentOpinion is one pricing agent's estimate.
type AgentOpinion struct {
	Price      float64 `json:"price"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// Agents holds the three pricing perspectives.
type Agents struct {
	Conservative AgentOpinion `json:"conservative"`
	Market       AgentOpinion `json:"market"`
	Speculative  AgentOpinion `json:"speculative"`
}

// PriceRange is a suggested low/mid/high price.
type PriceRange struct {
	Low  float64 `json:"low"`
	Mid  float64 `json:"mid"`
	High float64 `json:"high"`
}

// Ordered reports whether Low <= Mid <= High.
func (p PriceRange) Ordered() bool {
	return p.Low <= p.Mid && p.Mid <= p.High
}

// IsZero reports whether no price has been set.
func (p PriceRange) IsZero() bool {
	return p.Low == 0 && p.Mid == 0 && p.High == 0
}

// PricePoint is a historical sale or quote.
type PricePoint struct {
	Date   string  `json:"date"`
	Price  float64 `json:"price"`
	Source string  `json:"source,omitempty"`
}

// Sale is one recent marketplace sale used in market data.
type Sale struct {
	Date   string  `json:"date"`
	Price  float64 `json:"price"`
	Source string  `json:"source,omitempty"`
	Title  string  `json:"title,omitempty"`
}

// MarketData is a cached market lookup. While CacheExpiry is in the future the
// cached values are reused instead of fetched again.
type MarketData struct {
	AveragePrice float64   `json:"averagePrice"`
	LowPrice     float64   `json:"lowPrice"`
	HighPrice    float64   `json:"highPrice"`
	RecentSales  []Sale    `json:"recentSales"`
	Summary      string    `json:"summary,omitempty"`
	FetchedAt    time.Time `json:"fetchedAt"`
	CacheExpiry  time.Time `json:"cacheExpiry"`
}

// Fresh reports whether the cache is still valid at now.
func (m *MarketData) Fresh(now time.Time) bool {
	return m != nil && !m.CacheExpiry.IsZero() && m.CacheExpiry.After(now)
}

// Listing is the marketplace listing sub-record of a card.
type Listing struct {
	Status          ListingStatus `json:"status"`
	ListedDate      string        `json:"listedDate,omitempty"`
	SoldDate        string        `json:"soldDate,omitempty"`
	Price           *float64      `json:"price,omitempty"`
	SoldPrice       *float64      `json:"soldPrice,omitempty"`
	Platforms       []string      `json:"platforms"`
	Title           string        `json:"title,omitempty"`
	EbayDescription string        `json:"ebayDescription,omitempty"`
	TCGPlayerNotes  string        `json:"tcgplayerNotes,omitempty"`
	Notes           string        `json:"notes,omitempty"`
}

// Card is the long-lived inventory aggregate. It is owned by the store; every
// other holder works on a copy and saves it back with a full replace.
type Card struct {
	ID               string       `json:"id"`
	Game             string       `json:"game"`
	Name             string       `json:"name"`
	Set              string       `json:"set"`
	CardNumber       string       `json:"cardNumber"`
	Rarity           string       `json:"rarity"`
	IsHolo           bool         `json:"isHolo"`
	CardIdentifier   string       `json:"cardIdentifier"`
	Images           []string     `json:"images"`
	Strictness       Strictness   `json:"strictness,omitempty"`
	Grading          Grading      `json:"grading"`
	Agents           Agents       `json:"agents"`
	SuggestedPrice   PriceRange   `json:"suggestedPrice"`
	HistoricalPrices []PricePoint `json:"historicalPrices"`
	MarketData       *MarketData  `json:"marketData,omitempty"`
	Listing          *Listing     `json:"listing,omitempty"`
	Status           Status       `json:"status"`
	Notes            string       `json:"notes,omitempty"`
	CreatedAt        time.Time    `json:"createdAt"`
	UpdatedAt        time.Time    `json:"updatedAt"`
}

// Value is the listing price when one is set, else the suggested mid price.
func (c Card) Value() float64 {
	if c.Listing != nil && c.Listing.Price != nil {
		return *c.Listing.Price
	}
	return c.SuggestedPrice.Mid
}

// SortDate is the listed date, else the sold date, else "".
func (c Card) SortDate() string {
	if c.Listing == nil {
		return ""
	}
	if c.Listing.ListedDate != "" {
		return c.Listing.ListedDate
	}
	return c.Listing.SoldDate
}
