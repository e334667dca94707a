package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/mol-insights/feestrat-cli/internal/cost"
	"github.com/mol-insights/feestrat-cli/internal/ingest"
	"github.com/mol-insights/feestrat-cli/internal/insight"
)

var insightsCmd = &cobra.Command{
	Use:   "insights [section]",
	Short: "Generate narrative insight sections for the dataset",
	Long: "Generates narrative analysis of the service table. Without arguments all sections are produced " +
		"(executive_summary, opportunities, risks); pass a section name to generate just one. " +
		"With --report, a full scenario report is generated instead. Without an API key the command " +
		"prints a static fallback.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		records, err := loadRecords(ctx, cmd)
		if err != nil {
			return err
		}
		summary := ingest.Summarize(records)

		assistant, tracker := initAssistant(st)
		lang, _ := cmd.Flags().GetString("lang")

		if scenarioName, _ := cmd.Flags().GetString("report"); scenarioName != "" {
			sc, err := st.GetScenario(ctx, scenarioName)
			if err != nil {
				return err
			}
			if sc == nil {
				return eris.Errorf("scenario not found: %s", scenarioName)
			}

			report, err := assistant.GenerateReport(ctx, summary, *sc, lang)
			if err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, report)
			printCostSummary(tracker)
			return nil
		}

		if len(args) == 1 {
			kind := insight.Kind(args[0])
			if !validKind(kind) {
				return eris.Errorf("unknown insight section: %s (valid: %v)", args[0], insight.Kinds)
			}

			text, err := assistant.GenerateInsights(ctx, summary, kind, lang)
			if err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, text)
			printCostSummary(tracker)
			return nil
		}

		sections, err := assistant.GenerateAll(ctx, summary, lang)
		if err != nil {
			return err
		}
		for _, kind := range insight.Kinds {
			fmt.Fprintf(os.Stdout, "== %s ==\n%s\n\n", kind, sections[kind])
		}
		printCostSummary(tracker)
		return nil
	},
}

func validKind(kind insight.Kind) bool {
	for _, k := range insight.Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

func printCostSummary(tracker *cost.Tracker) {
	s := tracker.Summary()
	if s.Requests == 0 {
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "API requests:\t%d\n", s.Requests)
	_, _ = fmt.Fprintf(w, "Input tokens:\t%d\n", s.InputTokens)
	_, _ = fmt.Fprintf(w, "Output tokens:\t%d\n", s.OutputTokens)
	_, _ = fmt.Fprintf(w, "Estimated cost:\t$%.4f\n", s.CostUSD)
	_ = w.Flush()
}

func init() {
	addInputFlag(insightsCmd)
	insightsCmd.Flags().String("lang", "en", "response language: en|ar")
	insightsCmd.Flags().String("report", "", "generate a full report for the named scenario instead of sections")
	rootCmd.AddCommand(insightsCmd)
}
