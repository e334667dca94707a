package simulator

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mol-insights/feestrat-cli/internal/ingest"
	"github.com/mol-insights/feestrat-cli/internal/model"
)

func baseTable() []model.ServiceRecord {
	return []model.ServiceRecord{
		{Name: "Service 1", Category: "Category A", TotalRequests: 50000, CurrentFee: 0, AnnualRevenue: 0},
		{Name: "Service 2", Category: "Category B", TotalRequests: 30000, CurrentFee: 10, AnnualRevenue: 300000, HasFee: true},
		{Name: "Service 3", Category: "Category A", TotalRequests: 15000, CurrentFee: 0, AnnualRevenue: 0},
		{Name: "Service 4", Category: "Category C", TotalRequests: 10000, CurrentFee: 20, AnnualRevenue: 200000, HasFee: true},
		{Name: "Service 5", Category: "Category B", TotalRequests: 5000, CurrentFee: 0, AnnualRevenue: 0},
	}
}

func TestCreateScenario(t *testing.T) {
	t.Parallel()

	sim := New(baseTable())
	sc := sim.CreateScenario("intro fees", "fees on the two biggest free services", []model.FeeChange{
		{Service: "Service 1", NewFee: 100},
		{Service: "Service 3", NewFee: 20},
	})

	assert.Equal(t, 500000.0, sc.BaselineRevenue)
	assert.Equal(t, 5800000.0, sc.TotalRevenue) // 5M + 300K new + 500K existing
	assert.Equal(t, 5300000.0, sc.RevenueIncrease)
	assert.InDelta(t, 1060.0, sc.RevenueIncreasePct, 0.01)
	assert.Equal(t, 2, sc.ServicesModified)

	// Breakdown preserves input order.
	require.Len(t, sc.Changes, 2)
	assert.Equal(t, "Service 1", sc.Changes[0].Service)
	assert.Zero(t, sc.Changes[0].OriginalFee)
	assert.Equal(t, 5000000.0, sc.Changes[0].RevenueChange)
	assert.Equal(t, "Service 3", sc.Changes[1].Service)

	// Total revenue equals the row-by-row sum with effective fees.
	var rowSum float64
	for _, rec := range sc.Services {
		rowSum += float64(rec.TotalRequests) * rec.CurrentFee
	}
	assert.Equal(t, sc.TotalRevenue, rowSum)
}

func TestCreateScenario_UnknownServiceIgnored(t *testing.T) {
	t.Parallel()

	sim := New(baseTable())
	sc := sim.CreateScenario("ghost", "", []model.FeeChange{{Service: "Service 99", NewFee: 50}})

	assert.Zero(t, sc.ServicesModified)
	assert.Zero(t, sc.RevenueIncrease)
}

func TestCreateScenario_BaseTableUntouched(t *testing.T) {
	t.Parallel()

	records := baseTable()
	sim := New(records)
	sim.CreateScenario("mutation check", "", []model.FeeChange{{Service: "Service 1", NewFee: 100}})

	// Neither the caller's slice nor the simulator base moved.
	assert.Zero(t, records[0].CurrentFee)
	assert.Equal(t, 500000.0, sim.BaselineRevenue())

	next := sim.CreateScenario("fresh baseline", "", nil)
	assert.Equal(t, 500000.0, next.BaselineRevenue)
}

func TestCreateScenario_LastWriteWins(t *testing.T) {
	t.Parallel()

	sim := New(baseTable())
	sim.CreateScenario("draft", "v1", []model.FeeChange{{Service: "Service 1", NewFee: 10}})
	sim.CreateScenario("draft", "v2", []model.FeeChange{{Service: "Service 1", NewFee: 100}})

	sc, ok := sim.Scenario("draft")
	require.True(t, ok)
	assert.Equal(t, "v2", sc.Description)
	assert.Equal(t, 5000000.0, sc.RevenueIncrease)
	assert.Len(t, sim.Scenarios(), 1)
}

func TestApplyCategoryFee(t *testing.T) {
	t.Parallel()

	t.Run("all in category", func(t *testing.T) {
		t.Parallel()
		sim := New(baseTable())
		sc := sim.ApplyCategoryFee("cat b", "Category B", 50, false)

		assert.Equal(t, 2, sc.ServicesModified) // services 2 and 5
		assert.Equal(t, 1750000.0, sc.TotalRevenue-200000)
	})

	t.Run("only free services", func(t *testing.T) {
		t.Parallel()
		sim := New(baseTable())
		sc := sim.ApplyCategoryFee("cat b free", "Category B", 50, true)

		require.Equal(t, 1, sc.ServicesModified)
		assert.Equal(t, "Service 5", sc.Changes[0].Service)
	})

	t.Run("no matches is a valid no-op", func(t *testing.T) {
		t.Parallel()
		sim := New(baseTable())
		sc := sim.ApplyCategoryFee("empty", "Category Z", 50, false)

		assert.Zero(t, sc.ServicesModified)
		assert.Zero(t, sc.RevenueIncrease)
	})
}

func TestApplyTieredFees(t *testing.T) {
	t.Parallel()

	sim := New(baseTable())
	// Threshold 20000: medium tier starts at 5000.
	sc := sim.ApplyTieredFees("tiered", 20000, 100, 50, 10)

	require.Equal(t, 3, sc.ServicesModified)
	byService := make(map[string]float64, len(sc.Changes))
	for _, c := range sc.Changes {
		byService[c.Service] = c.NewFee
	}

	assert.Equal(t, 100.0, byService["Service 1"]) // 50000 >= 20000
	assert.Equal(t, 50.0, byService["Service 3"])  // 15000 in [5000, 20000)
	assert.Equal(t, 50.0, byService["Service 5"])  // 5000 right at the medium floor

	// Paid services keep their fees.
	for _, rec := range sc.Services {
		if rec.Name == "Service 2" {
			assert.Equal(t, 10.0, rec.CurrentFee)
		}
		if rec.Name == "Service 4" {
			assert.Equal(t, 20.0, rec.CurrentFee)
		}
	}
}

func TestOptimizeForTarget(t *testing.T) {
	t.Parallel()

	t.Run("target already met", func(t *testing.T) {
		t.Parallel()
		sim := New(baseTable())
		sc := sim.OptimizeForTarget("met", 400000, 100)

		assert.Zero(t, sc.ServicesModified)
		assert.Contains(t, sc.Description, "already met")
	})

	t.Run("closes gap with highest volume first", func(t *testing.T) {
		t.Parallel()
		sim := New(baseTable())
		// Gap of 1M over 50000 requests needs fee 20 on Service 1 alone.
		sc := sim.OptimizeForTarget("gap", 1500000, 100)

		require.Equal(t, 1, sc.ServicesModified)
		assert.Equal(t, "Service 1", sc.Changes[0].Service)
		assert.Equal(t, 20.0, sc.Changes[0].NewFee)
		assert.GreaterOrEqual(t, sc.TotalRevenue, 1500000.0)
	})

	t.Run("cap forces spill to next service", func(t *testing.T) {
		t.Parallel()
		sim := New(baseTable())
		// Gap 1M, cap 10: Service 1 yields 500K, the rest spills over.
		sc := sim.OptimizeForTarget("capped", 1500000, 10)

		require.GreaterOrEqual(t, sc.ServicesModified, 2)
		assert.Equal(t, "Service 1", sc.Changes[0].Service)
		assert.Equal(t, 10.0, sc.Changes[0].NewFee)
		assert.Equal(t, "Service 3", sc.Changes[1].Service)
	})

	t.Run("undershoot reports achieved revenue", func(t *testing.T) {
		t.Parallel()
		sim := New(baseTable())
		sc := sim.OptimizeForTarget("undershoot", 100000000, 5)

		// All free services capped at 5: 70000 requests x 5 = 350K.
		assert.Equal(t, 3, sc.ServicesModified)
		assert.Equal(t, 850000.0, sc.TotalRevenue)
		assert.Less(t, sc.TotalRevenue, 100000000.0)
	})
}

func TestCompareScenarios(t *testing.T) {
	t.Parallel()

	sim := New(baseTable())
	sim.CreateScenario("first", "", []model.FeeChange{{Service: "Service 1", NewFee: 10}})
	sim.CreateScenario("second", "", []model.FeeChange{{Service: "Service 3", NewFee: 20}})

	t.Run("all scenarios in insertion order", func(t *testing.T) {
		t.Parallel()
		rows := sim.CompareScenarios()
		require.Len(t, rows, 3)

		assert.Equal(t, "baseline", rows[0].Scenario)
		assert.Equal(t, 500000.0, rows[0].TotalRevenue)
		assert.Zero(t, rows[0].RevenueIncrease)
		assert.Zero(t, rows[0].ServicesModified)
		assert.Equal(t, "first", rows[1].Scenario)
		assert.Equal(t, "second", rows[2].Scenario)
	})

	t.Run("unknown names skipped", func(t *testing.T) {
		t.Parallel()
		rows := sim.CompareScenarios("second", "missing")
		require.Len(t, rows, 2)
		assert.Equal(t, "second", rows[1].Scenario)
	})
}

func TestExportScenario(t *testing.T) {
	t.Parallel()

	sim := New(baseTable())
	sim.CreateScenario("export me", "", []model.FeeChange{{Service: "Service 1", NewFee: 100}})

	path := filepath.Join(t.TempDir(), "scenario.xlsx")
	require.NoError(t, sim.ExportScenario("export me", path))

	header, rows, err := ingest.ReadWorkbook(path, ingest.Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"Service", "Category", "Requests", "Fee", "Annual Revenue"}, header)
	require.Len(t, rows, 5)
	assert.Equal(t, []string{"Service 1", "Category A", "50000", "100", "5000000"}, rows[0])
}

func TestExportScenario_UnknownNameIsNoOp(t *testing.T) {
	t.Parallel()

	sim := New(baseTable())
	path := filepath.Join(t.TempDir(), "none.xlsx")
	require.NoError(t, sim.ExportScenario("missing", path))
	assert.NoFileExists(t, path)
}
