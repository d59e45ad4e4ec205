package cost

// ModelRate holds per-model token pricing (USD per million tokens).
type ModelRate struct {
	Input  float64 `yaml:"input" mapstructure:"input"`
	Output float64 `yaml:"output" mapstructure:"output"`
}

// Rates maps model identifiers to their token pricing.
type Rates map[string]ModelRate

// Calculator computes costs for inference calls.
type Calculator struct {
	rates Rates
}

// NewCalculator creates a Calculator with the given rates. Missing models are
// priced at zero.
func NewCalculator(rates Rates) *Calculator {
	if rates == nil {
		rates = Rates{}
	}
	return &Calculator{rates: rates}
}

// Inference computes the cost for one model call.
func (c *Calculator) Inference(model string, input, output int64) float64 {
	rate, ok := c.rates[model]
	if !ok {
		return 0
	}
	inCost := (float64(input) / 1e6) * rate.Input
	outCost := (float64(output) / 1e6) * rate.Output
	return inCost + outCost
}

// Known reports whether model has a configured rate.
func (c *Calculator) Known(model string) bool {
	_, ok := c.rates[model]
	return ok
}

// DefaultRates returns the default pricing rates for the stock candidate lists.
func DefaultRates() Rates {
	return Rates{
		"gemini-2.5-pro":        {Input: 1.25, Output: 10.00},
		"gemini-2.5-flash":      {Input: 0.30, Output: 2.50},
		"gemini-2.5-flash-lite": {Input: 0.10, Output: 0.40},
		"gemini-2.0-flash":      {Input: 0.10, Output: 0.40},
		"claude-sonnet-4-5":     {Input: 3.00, Output: 15.00},
		"claude-haiku-4-5":      {Input: 1.00, Output: 5.00},
	}
}
