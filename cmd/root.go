package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mol-insights/feestrat-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "feestrat",
	Short: "Service fee revenue analytics for the ministry of labour",
	Long:  "Loads the ministry services workbook, interprets Arabic fee notes, analyzes revenue opportunities, simulates fee scenarios, and generates narrative insights.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
