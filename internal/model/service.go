package model

// Years lists the request-count years present in the ministry workbook.
var Years = []int{2022, 2023, 2024, 2025}

// UnitType classifies how a suggested fee is charged.
type UnitType string

const (
	UnitNone            UnitType = "none"
	UnitFlat            UnitType = "flat"
	UnitPerPerson       UnitType = "per_person"
	UnitPerMonth        UnitType = "per_month"
	UnitPerModification UnitType = "per_modification"
	UnitTiered          UnitType = "tiered"
	UnitConditional     UnitType = "conditional"
)

// Condition tags recognized inside conditional fee notes.
const (
	ConditionPrivateCompany  = "private_company_only"
	ConditionDisciplinary    = "disciplinary_termination"
	ConditionGovernment      = "government_entities"
)

// FeeDescriptor is the structured result of interpreting a free-text fee note.
type FeeDescriptor struct {
	BaseFee      float64  `json:"base_fee"`
	SecondaryFee float64  `json:"secondary_fee,omitempty"`
	UnitType     UnitType `json:"unit_type"`
	Conditions   string   `json:"conditions,omitempty"`
	Confidence   float64  `json:"confidence"`
	Source       string   `json:"source,omitempty"`
}

// HistoricalChange describes a past fee modification detected in a note.
type HistoricalChange struct {
	HasChange   bool    `json:"has_change"`
	OriginalFee float64 `json:"original_fee"`
	NewFee      float64 `json:"new_fee"`
	ChangeDate  string  `json:"change_date,omitempty"`
	Description string  `json:"description,omitempty"`
}

// ServiceRecord is one row of the services table, with all derived fields
// filled in by the enrichment pass. Derived fields are treated as read-only
// outputs; the simulator produces modified copies, never edits in place.
type ServiceRecord struct {
	Name           string      `json:"name"`
	Category       string      `json:"category"`
	RequestsByYear map[int]int `json:"requests_by_year"`
	TotalRequests  int         `json:"total_requests"`
	CurrentFeeText string      `json:"current_fee_text,omitempty"`
	CurrentFee     float64     `json:"current_fee"`
	SuggestionText string      `json:"suggestion_text,omitempty"`

	// Derived by ingest.Enrich.
	AnnualRevenue       float64  `json:"annual_revenue"`
	YearsActive         int      `json:"years_active"`
	AvgRequestsPerYear  float64  `json:"avg_requests_per_year"`
	GrowthRate          float64  `json:"growth_rate"` // 2024 vs 2023, percent
	HasFee              bool     `json:"has_fee"`
	HasSuggestion       bool     `json:"has_suggestion"`
	SuggestedFee        float64  `json:"suggested_fee"`
	SuggestedSecondary  float64  `json:"suggested_secondary,omitempty"`
	FeeStructure        UnitType `json:"fee_structure"`
	SuggestionConfidence float64 `json:"suggestion_confidence"`
	Conditions          string   `json:"conditions,omitempty"`
	SuggestedRevenue    float64  `json:"suggested_revenue"`
	RevenueGap          float64  `json:"revenue_gap"`
	HasHistoricalChange bool     `json:"has_historical_change"`
	HistoricalOriginal  float64  `json:"historical_original_fee,omitempty"`
	HistoricalNew       float64  `json:"historical_new_fee,omitempty"`
	HistoricalDate      string   `json:"historical_change_date,omitempty"`
	SpecialConditions   string   `json:"special_conditions,omitempty"`
}

// WithFee returns a copy of the record with the fee replaced and annual
// revenue recomputed. The receiver is left untouched.
func (s ServiceRecord) WithFee(fee float64) ServiceRecord {
	out := s
	out.CurrentFee = fee
	out.AnnualRevenue = float64(out.TotalRequests) * fee
	out.HasFee = fee > 0
	return out
}

// Summary holds table-wide aggregates for reporting and LLM context.
type Summary struct {
	TotalServices          int     `json:"total_services"`
	TotalRequests          int     `json:"total_requests"`
	ServicesWithFees       int     `json:"services_with_fees"`
	ServicesWithoutFees    int     `json:"services_without_fees"`
	CurrentTotalRevenue    float64 `json:"current_total_revenue"`
	AvgRequestsPerService  float64 `json:"avg_requests_per_service"`
	ServicesWithSuggestions int    `json:"services_with_suggestions"`
	RequestsByYear         map[int]int `json:"requests_by_year"`
}
