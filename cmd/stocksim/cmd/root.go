package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "stocksim",
	Short: "A stock trading simulator for backtesting against historical price data",
	Long: `Stocksim simulates algorithmic trading against historical price ticks.

It provides tools for:
  - Backtesting a trend-following decision engine over tick CSV files
  - Simulating execution with slippage, fees, and order failures
  - Journaling fills and equity curves to SQLite or CSV
  - Recording live websocket tick streams for later replay`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}
