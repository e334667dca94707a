package ingest

import (
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/mol-insights/feestrat-cli/internal/feetext"
	"github.com/mol-insights/feestrat-cli/internal/model"
)

// Workbook column headers as they appear in the ministry export.
const (
	colServiceName = "اسم الخدمة"
	colTotal       = "اجمالي العدد"
	colCurrentFee  = "الرسوم الحالية"
	colSuggestion  = "ملاحظات و مقترح الرسوم"
)

// LoadServices reads the ministry workbook and returns fully enriched
// service records. Missing optional cells default to zero/empty; rows
// without a service name are skipped.
func LoadServices(path string, opts Options) ([]model.ServiceRecord, error) {
	header, rows, err := ReadWorkbook(path, opts)
	if err != nil {
		return nil, err
	}

	idx := indexColumns(header)

	records := make([]model.ServiceRecord, 0, len(rows))
	for _, row := range rows {
		name := strings.TrimSpace(cellAt(row, idx, colServiceName))
		if name == "" {
			continue
		}

		rec := model.ServiceRecord{
			Name:           name,
			RequestsByYear: make(map[int]int, len(model.Years)),
			TotalRequests:  parseCount(cellAt(row, idx, colTotal)),
			CurrentFeeText: strings.TrimSpace(cellAt(row, idx, colCurrentFee)),
			SuggestionText: strings.TrimSpace(cellAt(row, idx, colSuggestion)),
		}
		for _, year := range model.Years {
			rec.RequestsByYear[year] = parseCount(cellAt(row, idx, strconv.Itoa(year)))
		}

		records = append(records, Enrich(rec))
	}

	zap.L().Info("ingest: services loaded",
		zap.String("path", path),
		zap.Int("services", len(records)),
	)

	return records, nil
}

// indexColumns maps trimmed header names to column positions.
func indexColumns(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(h)] = i
	}
	return idx
}

// cellAt returns the cell under the named column, or "" when the column
// is absent from the header or the row is short.
func cellAt(row []string, idx map[string]int, name string) string {
	i, ok := idx[name]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

// parseCount parses a request-count cell. Thousands separators and
// float-formatted cells both occur in the export; anything unparseable
// is zero.
func parseCount(s string) int {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return 0
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 {
			return 0
		}
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return int(f)
	}
	return 0
}

// categoryRules maps Arabic service-name keywords to categories, checked
// in order with first match winning.
var categoryRules = []struct {
	category string
	keywords []string
}{
	{"Work Permits & Recruitment", []string{"استقدام", "موافقة"}},
	{"License Renewal", []string{"ترخيص", "تجديد"}},
	{"Contract Certification", []string{"عقد", "تصديق"}},
	{"Certificates", []string{"شهادة"}},
	{"Establishment Registration", []string{"سجل", "منشأة"}},
	{"Employment Changes", []string{"تغيير", "نقل"}},
	{"Work Loans", []string{"اعارة", "إعارة"}},
	{"Contract Termination", []string{"انهاء", "إنهاء"}},
}

// Categorize assigns a service category from its Arabic name.
func Categorize(name string) string {
	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(name, kw) {
				return rule.category
			}
		}
	}
	return "Other Services"
}

// Enrich computes every derived field for one record in a single pass:
// category, numeric fee, revenue, activity metrics, and the full
// suggestion interpretation. The input's identity fields are preserved.
func Enrich(rec model.ServiceRecord) model.ServiceRecord {
	out := rec

	out.Category = Categorize(out.Name)
	out.CurrentFee = feetext.ExtractCurrentFee(out.CurrentFeeText)

	if out.TotalRequests == 0 {
		for _, n := range out.RequestsByYear {
			out.TotalRequests += n
		}
	}

	out.AnnualRevenue = float64(out.TotalRequests) * out.CurrentFee
	out.HasFee = out.CurrentFee > 0

	out.YearsActive = 0
	for _, n := range out.RequestsByYear {
		if n > 0 {
			out.YearsActive++
		}
	}
	out.AvgRequestsPerYear = 0
	if out.YearsActive > 0 {
		out.AvgRequestsPerYear = float64(out.TotalRequests) / float64(out.YearsActive)
	}
	out.GrowthRate = 0
	if prev := out.RequestsByYear[2023]; prev > 0 {
		out.GrowthRate = float64(out.RequestsByYear[2024]-prev) / float64(prev) * 100
	}

	out.HasSuggestion = out.SuggestionText != ""

	desc := feetext.ParseSuggestedFee(out.SuggestionText)
	out.SuggestedFee = desc.BaseFee
	out.SuggestedSecondary = desc.SecondaryFee
	out.FeeStructure = desc.UnitType
	out.SuggestionConfidence = desc.Confidence
	out.Conditions = desc.Conditions
	out.SuggestedRevenue = float64(out.TotalRequests) * out.SuggestedFee
	out.RevenueGap = out.SuggestedRevenue - out.AnnualRevenue

	hc := feetext.ExtractHistoricalChanges(out.SuggestionText)
	out.HasHistoricalChange = hc.HasChange
	out.HistoricalOriginal = hc.OriginalFee
	out.HistoricalNew = hc.NewFee
	out.HistoricalDate = hc.ChangeDate

	out.SpecialConditions = feetext.IdentifySpecialConditions(out.SuggestionText)

	return out
}

// EnrichAll applies Enrich across the table.
func EnrichAll(records []model.ServiceRecord) []model.ServiceRecord {
	out := make([]model.ServiceRecord, len(records))
	for i, rec := range records {
		out[i] = Enrich(rec)
	}
	return out
}

// Summarize computes table-wide aggregates.
func Summarize(records []model.ServiceRecord) model.Summary {
	s := model.Summary{
		TotalServices:  len(records),
		RequestsByYear: make(map[int]int, len(model.Years)),
	}

	for _, rec := range records {
		s.TotalRequests += rec.TotalRequests
		s.CurrentTotalRevenue += rec.AnnualRevenue
		if rec.HasFee {
			s.ServicesWithFees++
		} else {
			s.ServicesWithoutFees++
		}
		if rec.HasSuggestion {
			s.ServicesWithSuggestions++
		}
		for _, year := range model.Years {
			s.RequestsByYear[year] += rec.RequestsByYear[year]
		}
	}

	if len(records) > 0 {
		s.AvgRequestsPerService = float64(s.TotalRequests) / float64(len(records))
	}

	return s
}
