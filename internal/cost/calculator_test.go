package cost

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testRates() Rates {
	return Rates{
		Anthropic: map[string]ModelRate{
			"haiku": {
				Input: 0.80, Output: 4.00,
				CacheWriteMul: 1.25, CacheReadMul: 0.1,
			},
			"sonnet": {
				Input: 3.00, Output: 15.00,
				CacheWriteMul: 1.25, CacheReadMul: 0.1,
			},
		},
	}
}

func TestClaude(t *testing.T) {
	t.Parallel()
	calc := NewCalculator(testRates())

	tests := []struct {
		name       string
		model      string
		input      int64
		output     int64
		cacheWrite int64
		cacheRead  int64
		want       float64
	}{
		{
			name:  "haiku simple",
			model: "haiku",
			input: 1000000, output: 100000,
			want: 0.80 + 0.40,
		},
		{
			name:  "sonnet with cache write",
			model: "sonnet",
			input: 1000000, output: 100000, cacheWrite: 1000000,
			want: 3.00 + 1.50 + (3.00 * 1.25),
		},
		{
			name:  "cache read discount",
			model: "haiku",
			cacheRead: 1000000,
			want: 0.80 * 0.1,
		},
		{
			name:  "unknown model costs nothing",
			model: "mystery",
			input: 1000000, output: 1000000,
			want: 0,
		},
		{
			name:  "zero usage",
			model: "haiku",
			want:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := calc.Claude(tt.model, tt.input, tt.output, tt.cacheWrite, tt.cacheRead)
			assert.InDelta(t, tt.want, got, 0.0001)
		})
	}
}

func TestDefaultRates(t *testing.T) {
	t.Parallel()

	rates := DefaultRates()
	assert.NotEmpty(t, rates.Anthropic)
	for model, rate := range rates.Anthropic {
		assert.Positive(t, rate.Input, model)
		assert.Positive(t, rate.Output, model)
	}
}
