package main

import (
	"fmt"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/mol-insights/feestrat-cli/internal/analytics"
	"github.com/mol-insights/feestrat-cli/internal/model"
)

var forecastCmd = &cobra.Command{
	Use:   "forecast <service-name>",
	Short: "Project request volume and revenue for a service",
	Long:  "Fits a linear trend to the service's active years and projects request volume forward. Revenue uses the current fee unless --fee overrides it.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		records, err := loadRecords(cmd.Context(), cmd)
		if err != nil {
			return err
		}

		var rec *model.ServiceRecord
		for i := range records {
			if records[i].Name == args[0] {
				rec = &records[i]
				break
			}
		}
		if rec == nil {
			return eris.Errorf("service not found: %s", args[0])
		}

		years, _ := cmd.Flags().GetInt("years")
		fee, _ := cmd.Flags().GetFloat64("fee")

		requests := analytics.ForecastRequests(*rec, years)
		revenue := analytics.ForecastRevenue(*rec, years, fee)

		lastYear := model.Years[len(model.Years)-1]
		rows := make([][]string, len(requests))
		for i := range requests {
			rows[i] = []string{
				strconv.Itoa(lastYear + 1 + i),
				fmt.Sprintf("%.0f", requests[i]),
				fmt.Sprintf("%.0f", revenue[i]),
			}
		}
		return writeRows(cmd, []string{"YEAR", "REQUESTS", "REVENUE"}, rows)
	},
}

func init() {
	addInputFlag(forecastCmd)
	forecastCmd.Flags().Int("years", 3, "number of years to project")
	forecastCmd.Flags().Float64("fee", -1, "fee to price projected requests at; negative keeps the current fee")
	forecastCmd.Flags().String("format", "table", "output format: table|csv")
	forecastCmd.Flags().String("output", "", "write output to a file instead of stdout")
	rootCmd.AddCommand(forecastCmd)
}
