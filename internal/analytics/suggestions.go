package analytics

import (
	"sort"

	"github.com/mol-insights/feestrat-cli/internal/model"
)

// highConfidenceFloor is the parse-confidence cutoff for counting a
// suggestion as reliable.
const highConfidenceFloor = 0.8

// SuggestionSummary aggregates the parsed ministry fee suggestions.
type SuggestionSummary struct {
	ServicesWithSuggestions int     `json:"services_with_suggestions"`
	TotalRevenueGap         float64 `json:"total_revenue_gap"`
	QuickWinCount           int     `json:"quick_win_count"`
	HighConfidenceCount     int     `json:"high_confidence_count"`
	AvgSuggestedFee         float64 `json:"avg_suggested_fee"`
}

// AnalyzeSuggestions summarizes all services that carry a parsed fee
// suggestion. A quick win is a currently free service with a suggested fee.
func AnalyzeSuggestions(records []model.ServiceRecord) SuggestionSummary {
	var s SuggestionSummary
	var feeSum float64

	for _, rec := range records {
		if rec.SuggestedFee <= 0 {
			continue
		}
		s.ServicesWithSuggestions++
		s.TotalRevenueGap += rec.RevenueGap
		feeSum += rec.SuggestedFee
		if rec.CurrentFee == 0 {
			s.QuickWinCount++
		}
		if rec.SuggestionConfidence >= highConfidenceFloor {
			s.HighConfidenceCount++
		}
	}

	if s.ServicesWithSuggestions > 0 {
		s.AvgSuggestedFee = feeSum / float64(s.ServicesWithSuggestions)
	}
	return s
}

// QuickWin is a currently free, high-volume service with a concrete fee
// suggestion already on record.
type QuickWin struct {
	Service      string         `json:"service"`
	Category     string         `json:"category"`
	Requests     int            `json:"requests"`
	SuggestedFee float64        `json:"suggested_fee"`
	RevenueGap   float64        `json:"revenue_gap"`
	Confidence   float64        `json:"confidence"`
	FeeStructure model.UnitType `json:"fee_structure"`
}

// QuickWins lists free services with at least minRequests annual requests
// and a suggested fee, ranked by revenue gap descending.
func QuickWins(records []model.ServiceRecord, minRequests, topN int) []QuickWin {
	var out []QuickWin
	for _, rec := range records {
		if rec.CurrentFee != 0 || rec.SuggestedFee <= 0 || rec.TotalRequests < minRequests {
			continue
		}
		out = append(out, QuickWin{
			Service:      rec.Name,
			Category:     rec.Category,
			Requests:     rec.TotalRequests,
			SuggestedFee: rec.SuggestedFee,
			RevenueGap:   rec.RevenueGap,
			Confidence:   rec.SuggestionConfidence,
			FeeStructure: rec.FeeStructure,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RevenueGap > out[j].RevenueGap
	})
	return truncate(out, topN)
}

// ImpactSummary totals the effect of adopting suggestions for a set of
// services.
type ImpactSummary struct {
	Services             int     `json:"services"`
	TotalRevenueIncrease float64 `json:"total_revenue_increase"`
	PercentIncrease      float64 `json:"percent_increase"`
}

// ImplementationImpact totals the revenue gap of the named services.
// Unknown names are ignored; the percent is relative to current total
// revenue across the whole table.
func ImplementationImpact(records []model.ServiceRecord, services []string) ImpactSummary {
	named := make(map[string]bool, len(services))
	for _, name := range services {
		named[name] = true
	}

	var s ImpactSummary
	var baseline float64
	for _, rec := range records {
		baseline += rec.AnnualRevenue
		if named[rec.Name] {
			s.Services++
			s.TotalRevenueIncrease += rec.RevenueGap
		}
	}

	if baseline > 0 {
		s.PercentIncrease = s.TotalRevenueIncrease / baseline * 100
	}
	return s
}

// FeeComparison contrasts one service's current fee with its suggestion.
type FeeComparison struct {
	Service          string  `json:"service"`
	CurrentFee       float64 `json:"current_fee"`
	SuggestedFee     float64 `json:"suggested_fee"`
	FeeChangePct     float64 `json:"fee_change_pct"`
	CurrentRevenue   float64 `json:"current_revenue"`
	SuggestedRevenue float64 `json:"suggested_revenue"`
	RevenueGap       float64 `json:"revenue_gap"`
}

// CompareCurrentVsSuggested lists all services with a suggestion, current
// vs suggested side by side, sorted by revenue gap descending. A fee
// introduced on a free service counts as a 100% fee change.
func CompareCurrentVsSuggested(records []model.ServiceRecord) []FeeComparison {
	var out []FeeComparison
	for _, rec := range records {
		if rec.SuggestedFee <= 0 {
			continue
		}
		fc := FeeComparison{
			Service:          rec.Name,
			CurrentFee:       rec.CurrentFee,
			SuggestedFee:     rec.SuggestedFee,
			CurrentRevenue:   rec.AnnualRevenue,
			SuggestedRevenue: rec.SuggestedRevenue,
			RevenueGap:       rec.RevenueGap,
		}
		if rec.CurrentFee > 0 {
			fc.FeeChangePct = (rec.SuggestedFee - rec.CurrentFee) / rec.CurrentFee * 100
		} else {
			fc.FeeChangePct = 100
		}
		out = append(out, fc)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RevenueGap > out[j].RevenueGap
	})
	return out
}
