package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mol-insights/feestrat-cli/internal/model"
)

func sampleRecords() []model.ServiceRecord {
	return []model.ServiceRecord{
		{
			Name: "Service 1", Category: "Category A",
			TotalRequests: 50000, CurrentFee: 0, AnnualRevenue: 0,
			SuggestedFee: 100, FeeStructure: model.UnitPerPerson, SuggestionConfidence: 0.9,
			SuggestedRevenue: 5000000, RevenueGap: 5000000,
		},
		{
			Name: "Service 2", Category: "Category B",
			TotalRequests: 30000, CurrentFee: 10, AnnualRevenue: 300000, HasFee: true,
			SuggestedFee: 50, FeeStructure: model.UnitFlat, SuggestionConfidence: 0.85,
			SuggestedRevenue: 1500000, RevenueGap: 1200000,
		},
		{
			Name: "Service 3", Category: "Category A",
			TotalRequests: 15000, CurrentFee: 0, AnnualRevenue: 0,
			SuggestedFee: 20, FeeStructure: model.UnitPerMonth, SuggestionConfidence: 0.75,
			SuggestedRevenue: 300000, RevenueGap: 300000,
		},
		{
			Name: "Service 4", Category: "Category C",
			TotalRequests: 10000, CurrentFee: 20, AnnualRevenue: 200000, HasFee: true,
			SuggestedFee: 0, FeeStructure: model.UnitNone,
		},
		{
			Name: "Service 5", Category: "Category B",
			TotalRequests: 5000, CurrentFee: 0, AnnualRevenue: 0,
			SuggestedFee: 10, FeeStructure: model.UnitConditional, SuggestionConfidence: 0.8,
			Conditions: model.ConditionPrivateCompany,
			SuggestedRevenue: 50000, RevenueGap: 50000,
		},
	}
}

func TestRevenueImpact(t *testing.T) {
	t.Parallel()

	records := sampleRecords()

	t.Run("fee increase with elastic demand", func(t *testing.T) {
		t.Parallel()
		imp, ok := RevenueImpact(records, "Service 2", 20, -0.1)
		require.True(t, ok)

		// Price doubles, demand drops 10%.
		assert.Equal(t, 27000, imp.AdjustedRequests)
		assert.Equal(t, 300000.0, imp.CurrentRevenue)
		assert.Equal(t, 540000.0, imp.NewRevenue)
		assert.Equal(t, 240000.0, imp.RevenueIncrease)
		assert.InDelta(t, 80.0, imp.RevenueIncreasePct, 0.01)
	})

	t.Run("fee on free service", func(t *testing.T) {
		t.Parallel()
		imp, ok := RevenueImpact(records, "Service 1", 100, 0)
		require.True(t, ok)

		assert.Equal(t, 50000, imp.AdjustedRequests)
		assert.Equal(t, 5000000.0, imp.NewRevenue)
		assert.Zero(t, imp.RevenueIncreasePct) // no current revenue base
	})

	t.Run("free service with elasticity loses demand", func(t *testing.T) {
		t.Parallel()
		imp, ok := RevenueImpact(records, "Service 1", 100, -0.2)
		require.True(t, ok)
		assert.Equal(t, 40000, imp.AdjustedRequests)
	})

	t.Run("unknown service", func(t *testing.T) {
		t.Parallel()
		_, ok := RevenueImpact(records, "Service 99", 50, 0)
		assert.False(t, ok)
	})
}

func TestTopOpportunities(t *testing.T) {
	t.Parallel()

	// Services 1, 3, 5 are free; service 2 (fee 10) and 4 (fee 20) are at
	// or under the low-fee ceiling too.
	out := TopOpportunities(sampleRecords(), 50, 3)
	require.Len(t, out, 3)

	assert.Equal(t, "Service 1", out[0].Service)
	assert.Equal(t, 2500000.0, out[0].PotentialRevenue)
	assert.Equal(t, 2500000.0, out[0].RevenueGain)

	// Sorted by gain descending.
	for i := 0; i < len(out)-1; i++ {
		assert.GreaterOrEqual(t, out[i].RevenueGain, out[i+1].RevenueGain)
	}
}

func TestTopOpportunities_SkipsHighFeeServices(t *testing.T) {
	t.Parallel()

	records := []model.ServiceRecord{
		{Name: "expensive", TotalRequests: 1000, CurrentFee: 500, AnnualRevenue: 500000},
		{Name: "free", TotalRequests: 1000, CurrentFee: 0},
	}

	out := TopOpportunities(records, 50, 0)
	require.Len(t, out, 1)
	assert.Equal(t, "free", out[0].Service)
}

func TestCategoryPerformance(t *testing.T) {
	t.Parallel()

	out := CategoryPerformance(sampleRecords())
	require.Len(t, out, 3)

	// Category A has the most requests (65000).
	assert.Equal(t, "Category A", out[0].Category)
	assert.Equal(t, 2, out[0].Services)
	assert.Equal(t, 65000, out[0].TotalRequests)
	assert.Equal(t, 32500.0, out[0].AvgRequestsPerService)
	assert.Zero(t, out[0].FeeCoveragePct)

	// Category B: one of two services has a fee.
	assert.Equal(t, "Category B", out[1].Category)
	assert.InDelta(t, 50.0, out[1].FeeCoveragePct, 0.01)
	assert.Equal(t, 300000.0, out[1].TotalRevenue)
}

func TestParetoAnalysis(t *testing.T) {
	t.Parallel()

	out := ParetoAnalysis(sampleRecords())
	require.Len(t, out, 5)

	assert.Equal(t, "Service 1", out[0].Service)
	assert.Equal(t, 1, out[0].Rank)
	assert.Equal(t, 50000, out[0].CumulativeRequests)
	assert.InDelta(t, 45.45, out[0].CumulativePct, 0.01)
	assert.InDelta(t, 20.0, out[0].ServicePct, 0.01)

	last := out[len(out)-1]
	assert.Equal(t, 110000, last.CumulativeRequests)
	assert.InDelta(t, 100.0, last.CumulativePct, 0.01)
}

func TestParetoAnalysis_Empty(t *testing.T) {
	t.Parallel()
	assert.Empty(t, ParetoAnalysis(nil))
}

func TestQuadrants(t *testing.T) {
	t.Parallel()

	// Medians: requests 15000, revenue 0.
	out := Quadrants(sampleRecords())
	require.Len(t, out, 5)

	byService := make(map[string]string, len(out))
	for _, row := range out {
		byService[row.Service] = row.Quadrant
	}

	assert.Equal(t, QuadrantHighVolumeHighRevenue, byService["Service 1"]) // 50000 req, revenue at median
	assert.Equal(t, QuadrantHighVolumeHighRevenue, byService["Service 2"])
	assert.Equal(t, QuadrantLowVolumeHighRevenue, byService["Service 4"])
	assert.Equal(t, QuadrantLowVolumeHighRevenue, byService["Service 5"]) // zero revenue equals the median
}

func TestQuadrants_Empty(t *testing.T) {
	t.Parallel()
	assert.Nil(t, Quadrants(nil))
}
