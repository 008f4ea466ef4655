package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/RaynorEtienn/Financial-Data-Analysis/internal/contracts"
	"github.com/RaynorEtienn/Financial-Data-Analysis/internal/ingest"
	"github.com/RaynorEtienn/Financial-Data-Analysis/internal/report"
	"github.com/RaynorEtienn/Financial-Data-Analysis/internal/runs"
	"github.com/RaynorEtienn/Financial-Data-Analysis/internal/validation"
	"github.com/RaynorEtienn/Financial-Data-Analysis/pkg/logger"
)

// validateCmd represents the validate command
var validateCmd = &cobra.Command{
	Use:   "validate [positions.csv]",
	Short: "Validate a position file",
	Long: `Runs all validators over a CSV export of daily positions.

Trade records may live in the position file itself (a traded-quantity
column) or in a separate file passed with --trades.

Exit code is 0 when the run is clean, 1 when findings at or above the
--fail-on severity were produced, 2 on structural errors.

Example:
  go run ./cmd/check validate positions.csv
  go run ./cmd/check validate positions.csv --trades trades.csv --format json
  go run ./cmd/check validate positions.csv --fail-on warning`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

var (
	validateTradesFile string
	validateFormat     string
	validateOutput     string
	validateFailOn     string
)

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVar(&validateTradesFile, "trades", "", "separate trades CSV file")
	validateCmd.Flags().StringVar(&validateFormat, "format", "table", "output format (table|csv|json)")
	validateCmd.Flags().StringVarP(&validateOutput, "output", "o", "", "write output to file instead of stdout")
	validateCmd.Flags().StringVar(&validateFailOn, "fail-on", "error", "severity that fails the command (error|warning|never)")
}

func runValidate(cmd *cobra.Command, args []string) error {
	if validateFormat != "table" && validateFormat != "csv" && validateFormat != "json" {
		return fmt.Errorf("invalid format %q (valid: table, csv, json)", validateFormat)
	}
	if validateFailOn != "error" && validateFailOn != "warning" && validateFailOn != "never" {
		return fmt.Errorf("invalid fail-on %q (valid: error, warning, never)", validateFailOn)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logger.New(cfg)

	positions, trades, err := ingest.LoadFile(args[0])
	if err != nil {
		return inputError(err)
	}

	if validateTradesFile != "" {
		_, extra, err := ingest.LoadFile(validateTradesFile)
		if err != nil {
			return inputError(err)
		}
		trades = append(trades, extra...)
	}

	engine, err := buildEngine(cfg, log)
	if err != nil {
		return err
	}

	service := runs.NewService(engine, nil, nil, log)
	run, err := service.Validate(context.Background(), positions, trades)
	if err != nil {
		return inputError(err)
	}

	var out io.Writer = os.Stdout
	if validateOutput != "" {
		f, err := os.Create(validateOutput)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	switch validateFormat {
	case "csv":
		err = report.WriteCSV(out, run)
	case "json":
		err = report.WriteJSON(out, run)
	default:
		err = report.WriteTable(out, run)
	}
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	if shouldFail(run, validateFailOn) {
		os.Exit(1)
	}
	return nil
}

// shouldFail decides the exit status from the findings and the --fail-on
// threshold.
func shouldFail(run *contracts.Run, failOn string) bool {
	counts := run.CountBySeverity()
	switch failOn {
	case "warning":
		return counts[contracts.SeverityError] > 0 || counts[contracts.SeverityWarning] > 0
	case "error":
		return counts[contracts.SeverityError] > 0
	default:
		return false
	}
}

// inputError maps structural input problems to exit code 2 with a readable
// message.
func inputError(err error) error {
	var malformed *validation.MalformedInputError
	if errors.As(err, &malformed) {
		fmt.Fprintf(os.Stderr, "Input rejected: %s\n", malformed.Reason)
		os.Exit(2)
	}
	return err
}
