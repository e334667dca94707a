package insight

import (
	"fmt"
	"strings"

	"github.com/mol-insights/feestrat-cli/internal/model"
)

// Kind selects which narrative section to generate.
type Kind string

const (
	KindExecutiveSummary Kind = "executive_summary"
	KindOpportunities    Kind = "opportunities"
	KindRisks            Kind = "risks"
)

// Kinds lists every insight section in report order.
var Kinds = []Kind{KindExecutiveSummary, KindOpportunities, KindRisks}

const systemPrompt = `You are a revenue strategy analyst for a ministry of labour.
You are given aggregate statistics about government service fees and request volumes.
Write concise, factual analysis grounded only in the numbers provided.
Do not invent figures. Use clear language suitable for senior officials.`

var kindInstructions = map[Kind]string{
	KindExecutiveSummary: "Write an executive summary (3-5 sentences) of the current fee and revenue position.",
	KindOpportunities:    "List the most promising revenue opportunities as short bullet points, with the reasoning for each.",
	KindRisks:            "List the main risks of introducing or raising fees as short bullet points, with mitigations.",
}

func summaryContext(s model.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Total services: %d\n", s.TotalServices)
	fmt.Fprintf(&b, "Total annual requests: %d\n", s.TotalRequests)
	fmt.Fprintf(&b, "Services with fees: %d\n", s.ServicesWithFees)
	fmt.Fprintf(&b, "Services without fees: %d\n", s.ServicesWithoutFees)
	fmt.Fprintf(&b, "Current total revenue: %.0f\n", s.CurrentTotalRevenue)
	fmt.Fprintf(&b, "Average requests per service: %.1f\n", s.AvgRequestsPerService)
	fmt.Fprintf(&b, "Services with fee suggestions on record: %d\n", s.ServicesWithSuggestions)
	for _, year := range model.Years {
		fmt.Fprintf(&b, "Requests in %d: %d\n", year, s.RequestsByYear[year])
	}
	return b.String()
}

func insightPrompt(s model.Summary, kind Kind, lang string) string {
	var b strings.Builder
	b.WriteString("Dataset summary:\n")
	b.WriteString(summaryContext(s))
	b.WriteString("\n")
	b.WriteString(kindInstructions[kind])
	if lang == "ar" {
		b.WriteString("\nRespond in Arabic.")
	}
	return b.String()
}

func reportPrompt(s model.Summary, sc model.Scenario, lang string) string {
	var b strings.Builder
	b.WriteString("Dataset summary:\n")
	b.WriteString(summaryContext(s))
	b.WriteString("\nScenario under consideration:\n")
	fmt.Fprintf(&b, "Name: %s\n", sc.Name)
	if sc.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", sc.Description)
	}
	fmt.Fprintf(&b, "Baseline revenue: %.0f\n", sc.BaselineRevenue)
	fmt.Fprintf(&b, "Projected revenue: %.0f\n", sc.TotalRevenue)
	fmt.Fprintf(&b, "Revenue increase: %.0f (%.1f%%)\n", sc.RevenueIncrease, sc.RevenueIncreasePct)
	fmt.Fprintf(&b, "Services modified: %d\n", sc.ServicesModified)
	for _, c := range sc.Changes {
		fmt.Fprintf(&b, "- %s: fee %.0f -> %.0f over %d requests (delta %.0f)\n",
			c.Service, c.OriginalFee, c.NewFee, c.Requests, c.RevenueChange)
	}
	b.WriteString("\nWrite a full advisory report: summary, scenario assessment, implementation considerations, and a recommendation.")
	if lang == "ar" {
		b.WriteString("\nRespond in Arabic.")
	}
	return b.String()
}

// chartExplanations holds static descriptions of each dashboard chart.
var chartExplanations = map[string]string{
	"pareto":   "The Pareto chart orders services by request volume and overlays the cumulative share of total requests, showing how few services account for most of the demand.",
	"quadrant": "The quadrant chart splits services around the median request volume and median revenue; the high-volume low-revenue quadrant is where fee introductions have the most effect.",
	"trend":    "The trend chart plots annual request counts per year, showing whether demand for a service is growing or shrinking.",
	"forecast": "The forecast chart extends each service's request history with a linear trend projection, clamped at zero.",
}

// ExplainChart returns the static explanation for a chart kind, or an
// empty string for unknown kinds.
func ExplainChart(kind string) string {
	return chartExplanations[kind]
}
