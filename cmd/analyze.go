package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/mol-insights/feestrat-cli/internal/analytics"
	"github.com/mol-insights/feestrat-cli/internal/ingest"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Revenue analytics over the service table",
	Long:  "Commands for summarizing the portfolio, ranking opportunities, and breaking down performance by category.",
}

var analyzeSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Table-wide totals and the parsed-suggestion picture",
	RunE: func(cmd *cobra.Command, _ []string) error {
		records, err := loadRecords(cmd.Context(), cmd)
		if err != nil {
			return err
		}

		formatSummary(os.Stdout, ingest.Summarize(records))

		s := analytics.AnalyzeSuggestions(records)
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w)
		_, _ = fmt.Fprintf(w, "Services with fee suggestions:\t%d\n", s.ServicesWithSuggestions)
		_, _ = fmt.Fprintf(w, "Total revenue gap:\t%.0f\n", s.TotalRevenueGap)
		_, _ = fmt.Fprintf(w, "Quick wins (free with suggestion):\t%d\n", s.QuickWinCount)
		_, _ = fmt.Fprintf(w, "High-confidence suggestions:\t%d\n", s.HighConfidenceCount)
		_, _ = fmt.Fprintf(w, "Average suggested fee:\t%.1f\n", s.AvgSuggestedFee)
		_ = w.Flush()
		return nil
	},
}

var analyzeOpportunitiesCmd = &cobra.Command{
	Use:   "opportunities",
	Short: "Rank no/low-fee services by revenue potential",
	RunE: func(cmd *cobra.Command, _ []string) error {
		records, err := loadRecords(cmd.Context(), cmd)
		if err != nil {
			return err
		}

		fee, _ := cmd.Flags().GetFloat64("fee")
		top, _ := cmd.Flags().GetInt("top")

		rows := [][]string{}
		for _, o := range analytics.TopOpportunities(records, fee, top) {
			rows = append(rows, []string{
				o.Service, o.Category,
				strconv.Itoa(o.Requests),
				fmtFloat(o.CurrentFee),
				fmtFloat(o.PotentialRevenue),
				fmtFloat(o.RevenueGain),
			})
		}
		return writeRows(cmd,
			[]string{"SERVICE", "CATEGORY", "REQUESTS", "CURRENT_FEE", "POTENTIAL_REVENUE", "REVENUE_GAIN"},
			rows,
		)
	},
}

var analyzeQuickWinsCmd = &cobra.Command{
	Use:   "quickwins",
	Short: "Free high-volume services with a suggested fee on record",
	RunE: func(cmd *cobra.Command, _ []string) error {
		records, err := loadRecords(cmd.Context(), cmd)
		if err != nil {
			return err
		}

		minRequests, _ := cmd.Flags().GetInt("min-requests")
		top, _ := cmd.Flags().GetInt("top")

		rows := [][]string{}
		for _, qw := range analytics.QuickWins(records, minRequests, top) {
			rows = append(rows, []string{
				qw.Service, qw.Category,
				strconv.Itoa(qw.Requests),
				fmtFloat(qw.SuggestedFee),
				fmtFloat(qw.RevenueGap),
				fmt.Sprintf("%.2f", qw.Confidence),
				string(qw.FeeStructure),
			})
		}
		return writeRows(cmd,
			[]string{"SERVICE", "CATEGORY", "REQUESTS", "SUGGESTED_FEE", "REVENUE_GAP", "CONFIDENCE", "STRUCTURE"},
			rows,
		)
	},
}

var analyzeCategoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "Aggregate performance per service category",
	RunE: func(cmd *cobra.Command, _ []string) error {
		records, err := loadRecords(cmd.Context(), cmd)
		if err != nil {
			return err
		}

		rows := [][]string{}
		for _, cs := range analytics.CategoryPerformance(records) {
			rows = append(rows, []string{
				cs.Category,
				strconv.Itoa(cs.Services),
				strconv.Itoa(cs.TotalRequests),
				fmtFloat(cs.TotalRevenue),
				fmt.Sprintf("%.1f", cs.AvgRequestsPerService),
				fmt.Sprintf("%.1f%%", cs.FeeCoveragePct),
			})
		}
		return writeRows(cmd,
			[]string{"CATEGORY", "SERVICES", "REQUESTS", "REVENUE", "AVG_REQUESTS", "FEE_COVERAGE"},
			rows,
		)
	},
}

var analyzeParetoCmd = &cobra.Command{
	Use:   "pareto",
	Short: "Cumulative request share per service, busiest first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		records, err := loadRecords(cmd.Context(), cmd)
		if err != nil {
			return err
		}

		rows := [][]string{}
		for _, pr := range analytics.ParetoAnalysis(records) {
			rows = append(rows, []string{
				strconv.Itoa(pr.Rank),
				pr.Service,
				strconv.Itoa(pr.Requests),
				fmtFloat(pr.Revenue),
				fmt.Sprintf("%.1f%%", pr.CumulativePct),
			})
		}
		return writeRows(cmd,
			[]string{"RANK", "SERVICE", "REQUESTS", "REVENUE", "CUMULATIVE"},
			rows,
		)
	},
}

var analyzeQuadrantsCmd = &cobra.Command{
	Use:   "quadrants",
	Short: "Split services around median volume and median revenue",
	RunE: func(cmd *cobra.Command, _ []string) error {
		records, err := loadRecords(cmd.Context(), cmd)
		if err != nil {
			return err
		}

		rows := [][]string{}
		for _, q := range analytics.Quadrants(records) {
			rows = append(rows, []string{
				q.Service,
				strconv.Itoa(q.Requests),
				fmtFloat(q.Revenue),
				q.Quadrant,
			})
		}
		return writeRows(cmd,
			[]string{"SERVICE", "REQUESTS", "REVENUE", "QUADRANT"},
			rows,
		)
	},
}

var analyzeSuggestionsCmd = &cobra.Command{
	Use:   "suggestions",
	Short: "Current vs suggested fees, largest gap first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		records, err := loadRecords(cmd.Context(), cmd)
		if err != nil {
			return err
		}

		rows := [][]string{}
		for _, fc := range analytics.CompareCurrentVsSuggested(records) {
			rows = append(rows, []string{
				fc.Service,
				fmtFloat(fc.CurrentFee),
				fmtFloat(fc.SuggestedFee),
				fmt.Sprintf("%.1f%%", fc.FeeChangePct),
				fmtFloat(fc.RevenueGap),
			})
		}
		return writeRows(cmd,
			[]string{"SERVICE", "CURRENT_FEE", "SUGGESTED_FEE", "FEE_CHANGE", "REVENUE_GAP"},
			rows,
		)
	},
}

// writeRows renders a header plus rows as an aligned table or CSV,
// honoring the --format and --output flags.
func writeRows(cmd *cobra.Command, header []string, rows [][]string) error {
	format, _ := cmd.Flags().GetString("format")
	output, _ := cmd.Flags().GetString("output")

	var out io.Writer = os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return eris.Wrapf(err, "create %s", output)
		}
		defer f.Close() //nolint:errcheck
		out = f
	}

	switch format {
	case "csv":
		w := csv.NewWriter(out)
		if err := w.Write(header); err != nil {
			return eris.Wrap(err, "write csv header")
		}
		if err := w.WriteAll(rows); err != nil {
			return eris.Wrap(err, "write csv rows")
		}
		return nil
	case "", "table":
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, tabJoin(header))
		for _, row := range rows {
			_, _ = fmt.Fprintln(w, tabJoin(row))
		}
		return w.Flush()
	default:
		return eris.Errorf("unsupported format: %s", format)
	}
}

func tabJoin(cells []string) string {
	out := ""
	for i, c := range cells {
		if i > 0 {
			out += "\t"
		}
		out += c
	}
	return out
}

func fmtFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func init() {
	addInputFlag(analyzeSummaryCmd)
	analyzeCmd.AddCommand(analyzeSummaryCmd)

	for _, c := range []*cobra.Command{
		analyzeOpportunitiesCmd,
		analyzeQuickWinsCmd,
		analyzeCategoriesCmd,
		analyzeParetoCmd,
		analyzeQuadrantsCmd,
		analyzeSuggestionsCmd,
	} {
		addInputFlag(c)
		c.Flags().String("format", "table", "output format: table|csv")
		c.Flags().String("output", "", "write output to a file instead of stdout")
		analyzeCmd.AddCommand(c)
	}

	analyzeOpportunitiesCmd.Flags().Float64("fee", 50, "flat fee assumed when ranking opportunities")
	analyzeOpportunitiesCmd.Flags().Int("top", 10, "number of rows to show")
	analyzeQuickWinsCmd.Flags().Int("min-requests", 10000, "minimum annual request volume")
	analyzeQuickWinsCmd.Flags().Int("top", 10, "number of rows to show")

	rootCmd.AddCommand(analyzeCmd)
}
