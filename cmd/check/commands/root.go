package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "check",
	Short: "Portfolio data integrity validation",
	Long: `Portfolio validation engine.

Runs a set of composable validators over daily position and trade records
and reports structured findings for every anomaly they detect.

Usage:
  go run ./cmd/check [command]

Examples:
  go run ./cmd/check validate positions.csv --trades trades.csv
  go run ./cmd/check api
  go run ./cmd/check scheduler start
  go run ./cmd/check status`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
