package model

import "time"

// FeeChange assigns a new fee to a named service. Scenario inputs are
// ordered slices rather than maps so reporting order matches the order
// the caller listed the changes in.
type FeeChange struct {
	Service string  `json:"service"`
	NewFee  float64 `json:"new_fee"`
}

// ScenarioChange records the before/after state of one modified service.
type ScenarioChange struct {
	Service       string  `json:"service"`
	OriginalFee   float64 `json:"original_fee"`
	NewFee        float64 `json:"new_fee"`
	Requests      int     `json:"requests"`
	RevenueChange float64 `json:"revenue_change"`
}

// Scenario is a named, immutable snapshot of a what-if fee assignment and
// its computed revenue impact. Baseline revenue is captured from the
// simulator's base table at creation time.
type Scenario struct {
	Name               string           `json:"name"`
	Description        string           `json:"description,omitempty"`
	Changes            []ScenarioChange `json:"changes"`
	Services           []ServiceRecord  `json:"services"`
	TotalRevenue       float64          `json:"total_revenue"`
	BaselineRevenue    float64          `json:"baseline_revenue"`
	RevenueIncrease    float64          `json:"revenue_increase"`
	RevenueIncreasePct float64          `json:"revenue_increase_pct"`
	ServicesModified   int              `json:"services_modified"`
	CreatedAt          time.Time        `json:"created_at"`
}

// ComparisonRow is one line of a scenario comparison table. The first row
// is always the synthetic baseline.
type ComparisonRow struct {
	Scenario         string  `json:"scenario" yaml:"scenario"`
	TotalRevenue     float64 `json:"total_revenue" yaml:"total_revenue"`
	RevenueIncrease  float64 `json:"revenue_increase" yaml:"revenue_increase"`
	IncreasePct      float64 `json:"increase_pct" yaml:"increase_pct"`
	ServicesModified int     `json:"services_modified" yaml:"services_modified"`
}
