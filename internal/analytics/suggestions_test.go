package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeSuggestions(t *testing.T) {
	t.Parallel()

	s := AnalyzeSuggestions(sampleRecords())

	assert.Equal(t, 4, s.ServicesWithSuggestions)
	assert.Equal(t, 6550000.0, s.TotalRevenueGap)
	assert.Equal(t, 3, s.QuickWinCount) // free services with suggestions
	assert.Equal(t, 3, s.HighConfidenceCount)
	assert.Equal(t, 45.0, s.AvgSuggestedFee) // (100+50+20+10)/4
}

func TestAnalyzeSuggestions_Empty(t *testing.T) {
	t.Parallel()

	s := AnalyzeSuggestions(nil)
	assert.Zero(t, s.ServicesWithSuggestions)
	assert.Zero(t, s.TotalRevenueGap)
	assert.Zero(t, s.AvgSuggestedFee)
}

func TestQuickWins(t *testing.T) {
	t.Parallel()

	t.Run("ranked by revenue gap", func(t *testing.T) {
		t.Parallel()
		out := QuickWins(sampleRecords(), 10000, 10)
		require.Len(t, out, 2) // services 1 and 3

		assert.Equal(t, "Service 1", out[0].Service)
		assert.Equal(t, 5000000.0, out[0].RevenueGap)
		assert.Equal(t, "Service 3", out[1].Service)
	})

	t.Run("high threshold excludes everything", func(t *testing.T) {
		t.Parallel()
		assert.Empty(t, QuickWins(sampleRecords(), 100000, 10))
	})

	t.Run("top n limit", func(t *testing.T) {
		t.Parallel()
		out := QuickWins(sampleRecords(), 1000, 2)
		assert.Len(t, out, 2)
	})

	t.Run("paid services excluded", func(t *testing.T) {
		t.Parallel()
		for _, win := range QuickWins(sampleRecords(), 0, 0) {
			assert.NotEqual(t, "Service 2", win.Service)
			assert.NotEqual(t, "Service 4", win.Service)
		}
	})
}

func TestImplementationImpact(t *testing.T) {
	t.Parallel()

	records := sampleRecords()

	t.Run("single service", func(t *testing.T) {
		t.Parallel()
		s := ImplementationImpact(records, []string{"Service 1"})
		assert.Equal(t, 1, s.Services)
		assert.Equal(t, 5000000.0, s.TotalRevenueIncrease)
		assert.InDelta(t, 1000.0, s.PercentIncrease, 0.01) // vs 500000 baseline
	})

	t.Run("multiple services", func(t *testing.T) {
		t.Parallel()
		s := ImplementationImpact(records, []string{"Service 1", "Service 3"})
		assert.Equal(t, 2, s.Services)
		assert.Equal(t, 5300000.0, s.TotalRevenueIncrease)
	})

	t.Run("no services", func(t *testing.T) {
		t.Parallel()
		s := ImplementationImpact(records, nil)
		assert.Zero(t, s.Services)
		assert.Zero(t, s.TotalRevenueIncrease)
		assert.Zero(t, s.PercentIncrease)
	})

	t.Run("unknown name ignored", func(t *testing.T) {
		t.Parallel()
		s := ImplementationImpact(records, []string{"Service 99"})
		assert.Zero(t, s.Services)
	})
}

func TestCompareCurrentVsSuggested(t *testing.T) {
	t.Parallel()

	out := CompareCurrentVsSuggested(sampleRecords())
	require.Len(t, out, 4) // service 4 has no suggestion

	// Sorted descending by revenue gap.
	for i := 0; i < len(out)-1; i++ {
		assert.GreaterOrEqual(t, out[i].RevenueGap, out[i+1].RevenueGap)
	}

	first := out[0]
	assert.Equal(t, "Service 1", first.Service)
	assert.Equal(t, 100.0, first.FeeChangePct) // fee introduced on a free service

	var paid FeeComparison
	for _, fc := range out {
		if fc.Service == "Service 2" {
			paid = fc
		}
	}
	assert.InDelta(t, 400.0, paid.FeeChangePct, 0.01) // 10 -> 50
}
