package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/mol-insights/feestrat-cli/internal/model"
	"github.com/mol-insights/feestrat-cli/internal/simulator"
	"github.com/mol-insights/feestrat-cli/internal/store"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Build and compare what-if fee scenarios",
	Long:  "Creates named fee scenarios over the service table, persists them, and compares their revenue impact against the current baseline.",
}

var simulateFlatCmd = &cobra.Command{
	Use:   "flat <scenario-name>",
	Short: "Apply one flat fee to a whole category",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		records, err := loadRecords(cmd.Context(), cmd)
		if err != nil {
			return err
		}

		category, _ := cmd.Flags().GetString("category")
		fee, _ := cmd.Flags().GetFloat64("fee")
		onlyNoFee, _ := cmd.Flags().GetBool("only-no-fee")

		sim := simulator.New(records)
		sc := sim.ApplyCategoryFee(args[0], category, fee, onlyNoFee)
		printScenario(os.Stdout, sc)
		return persistScenario(cmd.Context(), sc)
	},
}

var simulateTieredCmd = &cobra.Command{
	Use:   "tiered <scenario-name>",
	Short: "Monetize free services with volume-tiered fees",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		records, err := loadRecords(cmd.Context(), cmd)
		if err != nil {
			return err
		}

		threshold, _ := cmd.Flags().GetInt("threshold")
		highFee, _ := cmd.Flags().GetFloat64("high-fee")
		mediumFee, _ := cmd.Flags().GetFloat64("medium-fee")
		lowFee, _ := cmd.Flags().GetFloat64("low-fee")

		sim := simulator.New(records)
		sc := sim.ApplyTieredFees(args[0], threshold, highFee, mediumFee, lowFee)
		printScenario(os.Stdout, sc)
		return persistScenario(cmd.Context(), sc)
	},
}

var simulateTargetCmd = &cobra.Command{
	Use:   "target <scenario-name> <target-revenue>",
	Short: "Assign fees greedily toward a revenue target",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		records, err := loadRecords(cmd.Context(), cmd)
		if err != nil {
			return err
		}

		target, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return eris.Wrapf(err, "parse target revenue %q", args[1])
		}
		maxFee, _ := cmd.Flags().GetFloat64("max-fee")

		sim := simulator.New(records)
		sc := sim.OptimizeForTarget(args[0], target, maxFee)
		printScenario(os.Stdout, sc)

		if sc.TotalRevenue < target {
			fmt.Fprintf(os.Stdout, "Target not reachable: short by %.0f even with every free service monetized.\n",
				target-sc.TotalRevenue)
		}
		return persistScenario(cmd.Context(), sc)
	},
}

var simulateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List persisted scenarios",
	RunE: func(cmd *cobra.Command, _ []string) error {
		st, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		scenarios, err := st.ListScenarios(cmd.Context())
		if err != nil {
			return err
		}
		if len(scenarios) == 0 {
			fmt.Fprintln(os.Stdout, "No scenarios saved yet.")
			return nil
		}

		rows := [][]string{}
		for _, sc := range scenarios {
			rows = append(rows, []string{
				sc.Name,
				sc.Description,
				strconv.Itoa(sc.ServicesModified),
				fmtFloat(sc.TotalRevenue),
				fmt.Sprintf("%.1f%%", sc.RevenueIncreasePct),
				sc.CreatedAt.Format("2006-01-02 15:04"),
			})
		}
		return writeRows(cmd,
			[]string{"NAME", "DESCRIPTION", "MODIFIED", "TOTAL_REVENUE", "INCREASE", "CREATED"},
			rows,
		)
	},
}

var simulateCompareCmd = &cobra.Command{
	Use:   "compare [scenario-name...]",
	Short: "Compare persisted scenarios against the baseline",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		scenarios, err := st.ListScenarios(cmd.Context())
		if err != nil {
			return err
		}
		if len(args) > 0 {
			byName := make(map[string]model.Scenario, len(scenarios))
			for _, sc := range scenarios {
				byName[sc.Name] = sc
			}
			picked := make([]model.Scenario, 0, len(args))
			for _, name := range args {
				sc, ok := byName[name]
				if !ok {
					return eris.Errorf("scenario not found: %s", name)
				}
				picked = append(picked, sc)
			}
			scenarios = picked
		}
		if len(scenarios) == 0 {
			return eris.New("no scenarios to compare; create one with `feestrat simulate flat|tiered|target`")
		}

		comparison := []model.ComparisonRow{{
			Scenario:     "baseline",
			TotalRevenue: scenarios[0].BaselineRevenue,
		}}
		for _, sc := range scenarios {
			comparison = append(comparison, model.ComparisonRow{
				Scenario:         sc.Name,
				TotalRevenue:     sc.TotalRevenue,
				RevenueIncrease:  sc.RevenueIncrease,
				IncreasePct:      sc.RevenueIncreasePct,
				ServicesModified: sc.ServicesModified,
			})
		}

		format, _ := cmd.Flags().GetString("format")
		if format == "yaml" {
			return writeYAML(cmd, comparison)
		}

		rows := [][]string{}
		for _, row := range comparison {
			rows = append(rows, []string{
				row.Scenario,
				fmtFloat(row.TotalRevenue),
				fmtFloat(row.RevenueIncrease),
				fmt.Sprintf("%.1f%%", row.IncreasePct),
				strconv.Itoa(row.ServicesModified),
			})
		}
		return writeRows(cmd,
			[]string{"SCENARIO", "TOTAL_REVENUE", "INCREASE", "INCREASE_PCT", "MODIFIED"},
			rows,
		)
	},
}

var simulateExportCmd = &cobra.Command{
	Use:   "export <scenario-name> <output.xlsx>",
	Short: "Export a scenario's resulting service table to a workbook",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		sc, err := st.GetScenario(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if sc == nil {
			return eris.Errorf("scenario not found: %s", args[0])
		}

		if err := simulator.WriteScenarioWorkbook(*sc, args[1]); err != nil {
			return eris.Wrap(err, "export scenario")
		}
		fmt.Fprintf(os.Stdout, "Exported scenario %q to %s\n", args[0], args[1])
		return nil
	},
}

// openStore opens and migrates the configured store.
func openStore(ctx context.Context) (store.Store, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}

func persistScenario(ctx context.Context, sc model.Scenario) error {
	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	if err := st.SaveScenario(ctx, sc); err != nil {
		return eris.Wrapf(err, "save scenario %s", sc.Name)
	}
	zap.L().Info("simulate: scenario saved", zap.String("scenario", sc.Name))
	return nil
}

func printScenario(out io.Writer, sc model.Scenario) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Scenario:\t%s\n", sc.Name)
	if sc.Description != "" {
		_, _ = fmt.Fprintf(w, "Description:\t%s\n", sc.Description)
	}
	_, _ = fmt.Fprintf(w, "Baseline revenue:\t%.0f\n", sc.BaselineRevenue)
	_, _ = fmt.Fprintf(w, "Projected revenue:\t%.0f\n", sc.TotalRevenue)
	_, _ = fmt.Fprintf(w, "Increase:\t%.0f (%.1f%%)\n", sc.RevenueIncrease, sc.RevenueIncreasePct)
	_, _ = fmt.Fprintf(w, "Services modified:\t%d\n", sc.ServicesModified)
	_ = w.Flush()

	if len(sc.Changes) == 0 {
		return
	}
	_, _ = fmt.Fprintln(out)
	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "SERVICE\tOLD_FEE\tNEW_FEE\tREQUESTS\tREVENUE_CHANGE")
	for _, ch := range sc.Changes {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
			ch.Service, fmtFloat(ch.OriginalFee), fmtFloat(ch.NewFee), ch.Requests, fmtFloat(ch.RevenueChange))
	}
	_ = w.Flush()
}

func writeYAML(cmd *cobra.Command, v any) error {
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

	enc := yaml.NewEncoder(out)
	defer enc.Close() //nolint:errcheck
	if err := enc.Encode(v); err != nil {
		return eris.Wrap(err, "encode yaml")
	}
	return nil
}

func init() {
	for _, c := range []*cobra.Command{simulateFlatCmd, simulateTieredCmd, simulateTargetCmd} {
		addInputFlag(c)
		simulateCmd.AddCommand(c)
	}

	simulateFlatCmd.Flags().String("category", "", "service category to assign the fee to")
	simulateFlatCmd.Flags().Float64("fee", 50, "flat fee to assign")
	simulateFlatCmd.Flags().Bool("only-no-fee", false, "leave services that already charge a fee untouched")
	_ = simulateFlatCmd.MarkFlagRequired("category")

	simulateTieredCmd.Flags().Int("threshold", 0, "annual request volume for the high tier (default from config)")
	simulateTieredCmd.Flags().Float64("high-fee", 0, "fee for high-volume services (default from config)")
	simulateTieredCmd.Flags().Float64("medium-fee", 0, "fee for medium-volume services (default from config)")
	simulateTieredCmd.Flags().Float64("low-fee", 0, "fee for low-volume services (default from config)")
	simulateTieredCmd.PreRun = func(cmd *cobra.Command, _ []string) {
		if !cmd.Flags().Changed("threshold") {
			_ = cmd.Flags().Set("threshold", strconv.Itoa(cfg.Simulate.HighVolumeThreshold))
		}
		if !cmd.Flags().Changed("high-fee") {
			_ = cmd.Flags().Set("high-fee", fmtFloat(cfg.Simulate.HighVolumeFee))
		}
		if !cmd.Flags().Changed("medium-fee") {
			_ = cmd.Flags().Set("medium-fee", fmtFloat(cfg.Simulate.MediumVolumeFee))
		}
		if !cmd.Flags().Changed("low-fee") {
			_ = cmd.Flags().Set("low-fee", fmtFloat(cfg.Simulate.LowVolumeFee))
		}
	}

	simulateTargetCmd.Flags().Float64("max-fee", 0, "per-service fee cap (default from config)")
	simulateTargetCmd.PreRun = func(cmd *cobra.Command, _ []string) {
		if !cmd.Flags().Changed("max-fee") {
			_ = cmd.Flags().Set("max-fee", fmtFloat(cfg.Simulate.MaxFee))
		}
	}

	simulateListCmd.Flags().String("format", "table", "output format: table|csv")
	simulateListCmd.Flags().String("output", "", "write output to a file instead of stdout")
	simulateCompareCmd.Flags().String("format", "table", "output format: table|csv|yaml")
	simulateCompareCmd.Flags().String("output", "", "write output to a file instead of stdout")
	simulateCmd.AddCommand(simulateListCmd, simulateCompareCmd)
	simulateCmd.AddCommand(simulateExportCmd)

	rootCmd.AddCommand(simulateCmd)
}
