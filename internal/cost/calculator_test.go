package cost

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testRates() Rates {
	return Rates{
		"flash": {Input: 0.30, Output: 2.50},
		"pro":   {Input: 1.25, Output: 10.00},
	}
}

func TestInference(t *testing.T) {
	t.Parallel()
	calc := NewCalculator(testRates())

	tests := []struct {
		name   string
		model  string
		input  int64
		output int64
		want   float64
	}{
		{
			name: "flash one million in",
			model: "flash", input: 1000000, output: 0,
			want: 0.30,
		},
		{
			name: "pro mixed",
			model: "pro", input: 200000, output: 50000,
			// in: 0.2 * 1.25 = 0.25, out: 0.05 * 10 = 0.50
			want: 0.75,
		},
		{
			name: "unknown model",
			model: "mystery", input: 1000000, output: 1000000,
			want: 0,
		},
		{
			name: "zero tokens",
			model: "flash",
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.want, calc.Inference(tt.model, tt.input, tt.output), 1e-9)
		})
	}
}

func TestKnown(t *testing.T) {
	t.Parallel()
	calc := NewCalculator(testRates())
	assert.True(t, calc.Known("flash"))
	assert.False(t, calc.Known("mystery"))
}

func TestNilRates(t *testing.T) {
	t.Parallel()
	calc := NewCalculator(nil)
	assert.Zero(t, calc.Inference("flash", 100, 100))
}

func TestDefaultRates(t *testing.T) {
	t.Parallel()
	rates := DefaultRates()
	assert.Contains(t, rates, "gemini-2.5-flash")
	assert.Contains(t, rates, "gemini-2.5-pro")
	for model, r := range rates {
		assert.Positive(t, r.Input, model)
		assert.Positive(t, r.Output, model)
	}
}
