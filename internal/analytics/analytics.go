// Package analytics computes revenue metrics, opportunity rankings, and
// portfolio breakdowns over enriched service records. All functions are
// pure reads of the table; percentages are guarded against zero bases.
package analytics

import (
	"sort"

	"github.com/montanaflynn/stats"

	"github.com/mol-insights/feestrat-cli/internal/model"
)

// Impact describes the revenue effect of one fee change on one service.
type Impact struct {
	Service            string  `json:"service"`
	CurrentFee         float64 `json:"current_fee"`
	NewFee             float64 `json:"new_fee"`
	CurrentRequests    int     `json:"current_requests"`
	AdjustedRequests   int     `json:"adjusted_requests"`
	CurrentRevenue     float64 `json:"current_revenue"`
	NewRevenue         float64 `json:"new_revenue"`
	RevenueIncrease    float64 `json:"revenue_increase"`
	RevenueIncreasePct float64 `json:"revenue_increase_pct"`
}

// RevenueImpact computes the effect of applying newFee to the named
// service. Elasticity in [-1, 0] scales demand against the relative price
// change; a fee introduced on a free service counts as a 100% price
// increase. Returns false when the service is not in the table.
func RevenueImpact(records []model.ServiceRecord, service string, newFee, elasticity float64) (Impact, bool) {
	rec, ok := find(records, service)
	if !ok {
		return Impact{}, false
	}

	priceChange := 0.0
	switch {
	case rec.CurrentFee > 0:
		priceChange = (newFee - rec.CurrentFee) / rec.CurrentFee
	case newFee > 0:
		priceChange = 1.0
	}

	adjusted := float64(rec.TotalRequests) * (1 + elasticity*priceChange)
	if adjusted < 0 {
		adjusted = 0
	}

	imp := Impact{
		Service:          rec.Name,
		CurrentFee:       rec.CurrentFee,
		NewFee:           newFee,
		CurrentRequests:  rec.TotalRequests,
		AdjustedRequests: int(adjusted),
		CurrentRevenue:   float64(rec.TotalRequests) * rec.CurrentFee,
		NewRevenue:       adjusted * newFee,
	}
	imp.RevenueIncrease = imp.NewRevenue - imp.CurrentRevenue
	if imp.CurrentRevenue > 0 {
		imp.RevenueIncreasePct = imp.RevenueIncrease / imp.CurrentRevenue * 100
	}

	return imp, true
}

// lowFeeCeiling bounds the "no/low fee" filter for opportunity scans.
const lowFeeCeiling = 20.0

// Opportunity is one row of the opportunity ranking.
type Opportunity struct {
	Service          string  `json:"service"`
	Category         string  `json:"category"`
	Requests         int     `json:"requests"`
	CurrentFee       float64 `json:"current_fee"`
	PotentialRevenue float64 `json:"potential_revenue"`
	RevenueGain      float64 `json:"revenue_gain"`
}

// TopOpportunities ranks no/low-fee services by the revenue gained from
// charging a flat suggestedFee, descending.
func TopOpportunities(records []model.ServiceRecord, suggestedFee float64, topN int) []Opportunity {
	var out []Opportunity
	for _, rec := range records {
		if rec.CurrentFee > lowFeeCeiling {
			continue
		}
		potential := float64(rec.TotalRequests) * suggestedFee
		out = append(out, Opportunity{
			Service:          rec.Name,
			Category:         rec.Category,
			Requests:         rec.TotalRequests,
			CurrentFee:       rec.CurrentFee,
			PotentialRevenue: potential,
			RevenueGain:      potential - rec.AnnualRevenue,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RevenueGain > out[j].RevenueGain
	})
	return truncate(out, topN)
}

// CategoryStats aggregates one service category.
type CategoryStats struct {
	Category              string  `json:"category"`
	Services              int     `json:"services"`
	TotalRequests         int     `json:"total_requests"`
	TotalRevenue          float64 `json:"total_revenue"`
	AvgRequestsPerService float64 `json:"avg_requests_per_service"`
	ServicesWithFees      int     `json:"services_with_fees"`
	FeeCoveragePct        float64 `json:"fee_coverage_pct"`
}

// CategoryPerformance aggregates the table by category, sorted by total
// requests descending.
func CategoryPerformance(records []model.ServiceRecord) []CategoryStats {
	byCat := make(map[string]*CategoryStats)
	var order []string

	for _, rec := range records {
		cs, ok := byCat[rec.Category]
		if !ok {
			cs = &CategoryStats{Category: rec.Category}
			byCat[rec.Category] = cs
			order = append(order, rec.Category)
		}
		cs.Services++
		cs.TotalRequests += rec.TotalRequests
		cs.TotalRevenue += rec.AnnualRevenue
		if rec.HasFee {
			cs.ServicesWithFees++
		}
	}

	out := make([]CategoryStats, 0, len(order))
	for _, cat := range order {
		cs := byCat[cat]
		cs.AvgRequestsPerService = float64(cs.TotalRequests) / float64(cs.Services)
		cs.FeeCoveragePct = float64(cs.ServicesWithFees) / float64(cs.Services) * 100
		out = append(out, *cs)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TotalRequests > out[j].TotalRequests
	})
	return out
}

// ParetoRow is one row of the cumulative request-share analysis.
type ParetoRow struct {
	Service            string  `json:"service"`
	Requests           int     `json:"requests"`
	Revenue            float64 `json:"revenue"`
	CumulativeRequests int     `json:"cumulative_requests"`
	CumulativePct      float64 `json:"cumulative_pct"`
	Rank               int     `json:"rank"`
	ServicePct         float64 `json:"service_pct"`
}

// ParetoAnalysis sorts services by volume and computes cumulative request
// share, for the 80/20 view of the portfolio.
func ParetoAnalysis(records []model.ServiceRecord) []ParetoRow {
	sorted := make([]model.ServiceRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TotalRequests > sorted[j].TotalRequests
	})

	total := 0
	for _, rec := range sorted {
		total += rec.TotalRequests
	}

	out := make([]ParetoRow, len(sorted))
	cumulative := 0
	for i, rec := range sorted {
		cumulative += rec.TotalRequests
		row := ParetoRow{
			Service:            rec.Name,
			Requests:           rec.TotalRequests,
			Revenue:            rec.AnnualRevenue,
			CumulativeRequests: cumulative,
			Rank:               i + 1,
			ServicePct:         float64(i+1) / float64(len(sorted)) * 100,
		}
		if total > 0 {
			row.CumulativePct = float64(cumulative) / float64(total) * 100
		}
		out[i] = row
	}
	return out
}

// Quadrant labels for the volume x revenue split.
const (
	QuadrantHighVolumeHighRevenue = "High Volume, High Revenue"
	QuadrantHighVolumeLowRevenue  = "High Volume, Low Revenue"
	QuadrantLowVolumeHighRevenue  = "Low Volume, High Revenue"
	QuadrantLowVolumeLowRevenue   = "Low Volume, Low Revenue"
)

// QuadrantRow assigns one service to its volume/revenue quadrant.
type QuadrantRow struct {
	Service  string  `json:"service"`
	Requests int     `json:"requests"`
	Revenue  float64 `json:"revenue"`
	Quadrant string  `json:"quadrant"`
}

// Quadrants splits services into four quadrants around the median request
// volume and median revenue.
func Quadrants(records []model.ServiceRecord) []QuadrantRow {
	if len(records) == 0 {
		return nil
	}

	requests := make(stats.Float64Data, len(records))
	revenues := make(stats.Float64Data, len(records))
	for i, rec := range records {
		requests[i] = float64(rec.TotalRequests)
		revenues[i] = rec.AnnualRevenue
	}

	medianRequests, err := stats.Median(requests)
	if err != nil {
		return nil
	}
	medianRevenue, err := stats.Median(revenues)
	if err != nil {
		return nil
	}

	out := make([]QuadrantRow, len(records))
	for i, rec := range records {
		highVolume := float64(rec.TotalRequests) >= medianRequests
		highRevenue := rec.AnnualRevenue >= medianRevenue

		quadrant := QuadrantLowVolumeLowRevenue
		switch {
		case highVolume && highRevenue:
			quadrant = QuadrantHighVolumeHighRevenue
		case highVolume:
			quadrant = QuadrantHighVolumeLowRevenue
		case highRevenue:
			quadrant = QuadrantLowVolumeHighRevenue
		}

		out[i] = QuadrantRow{
			Service:  rec.Name,
			Requests: rec.TotalRequests,
			Revenue:  rec.AnnualRevenue,
			Quadrant: quadrant,
		}
	}
	return out
}

func find(records []model.ServiceRecord, service string) (model.ServiceRecord, bool) {
	for _, rec := range records {
		if rec.Name == service {
			return rec, true
		}
	}
	return model.ServiceRecord{}, false
}

func truncate[T any](s []T, n int) []T {
	if n > 0 && len(s) > n {
		return s[:n]
	}
	return s
}
