package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mol-insights/feestrat-cli/internal/ingest"
	"github.com/mol-insights/feestrat-cli/internal/model"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <workbook.xlsx>",
	Short: "Load and enrich the ministry services workbook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		records, err := ingest.LoadServices(args[0], ingestOptions())
		if err != nil {
			return eris.Wrap(err, "ingest")
		}

		summary := ingest.Summarize(records)
		formatSummary(os.Stdout, summary)

		save, _ := cmd.Flags().GetBool("save")
		if !save {
			return nil
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}
		if err := st.ReplaceServices(ctx, records); err != nil {
			return eris.Wrap(err, "ingest save")
		}

		zap.L().Info("ingest: services persisted", zap.Int("services", len(records)))
		fmt.Fprintf(os.Stdout, "\nSaved %d services to the %s store.\n", len(records), cfg.Store.Driver)
		return nil
	},
}

// formatSummary writes the table-wide aggregates to w.
func formatSummary(out io.Writer, s model.Summary) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Total services:\t%d\n", s.TotalServices)
	_, _ = fmt.Fprintf(w, "Total annual requests:\t%d\n", s.TotalRequests)
	_, _ = fmt.Fprintf(w, "Services with fees:\t%d\n", s.ServicesWithFees)
	_, _ = fmt.Fprintf(w, "Services without fees:\t%d\n", s.ServicesWithoutFees)
	_, _ = fmt.Fprintf(w, "Current total revenue:\t%.0f\n", s.CurrentTotalRevenue)
	_, _ = fmt.Fprintf(w, "Avg requests per service:\t%.1f\n", s.AvgRequestsPerService)
	_, _ = fmt.Fprintf(w, "Services with suggestions:\t%d\n", s.ServicesWithSuggestions)
	for _, year := range model.Years {
		_, _ = fmt.Fprintf(w, "Requests in %d:\t%d\n", year, s.RequestsByYear[year])
	}
	_ = w.Flush()
}

func init() {
	ingestCmd.Flags().Bool("save", false, "persist the enriched table to the store")
	rootCmd.AddCommand(ingestCmd)
}
