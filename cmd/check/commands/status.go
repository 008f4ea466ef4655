package commands

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/RaynorEtienn/Financial-Data-Analysis/internal/store"
	"github.com/RaynorEtienn/Financial-Data-Analysis/pkg/config"
	"github.com/RaynorEtienn/Financial-Data-Analysis/pkg/database"
	"github.com/RaynorEtienn/Financial-Data-Analysis/pkg/logger"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show effective configuration, database health and recent runs",
	Long: `Prints the effective validation thresholds and enabled validators,
checks database connectivity and lists the most recent stored validation runs.

Example:
  go run ./cmd/check status
  go run ./cmd/check status --limit 50`,
	RunE: runStatus,
}

var statusLimit int

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().IntVar(&statusLimit, "limit", 20, "number of runs to list")
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logger.New(cfg)

	printValidationConfig(cfg.Validation)

	if !cfg.Database.Enabled() {
		fmt.Println("Database: not configured (DATABASE_URL is empty)")
		return nil
	}

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	health := db.HealthCheck(ctx)
	state := "ok"
	if !health.Healthy {
		state = "unreachable"
	}
	fmt.Printf("Database: %s in %s (%d/%d connections in use)\n\n",
		state, health.ResponseTime, health.UsedConns, health.MaxConns)

	runRepo := store.NewRunRepository(db.Pool)
	summaries, err := runRepo.ListRuns(ctx, statusLimit)
	if err != nil {
		log.WithError(err).Error("Failed to list runs")
		return fmt.Errorf("list runs: %w", err)
	}

	if len(summaries) == 0 {
		fmt.Println("No stored runs")
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN ID\tSTARTED\tPOSITIONS\tTRADES\tERRORS\tWARNINGS\tDURATION")
	for _, s := range summaries {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\t%dms\n",
			s.ID,
			s.StartedAt.Format("2006-01-02 15:04:05"),
			s.Positions, s.Trades, s.Errors, s.Warnings, s.DurationMS)
	}
	return tw.Flush()
}

func printValidationConfig(v config.ValidationConfig) {
	validators := "all"
	if len(v.EnabledValidators) > 0 {
		validators = strings.Join(v.EnabledValidators, ", ")
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Base currency\t%s\n", v.BaseCurrency)
	fmt.Fprintf(tw, "Price jump warn/error\t%.0f%% / %.0f%%\n", v.PriceJumpWarnPct*100, v.PriceJumpErrorPct*100)
	fmt.Fprintf(tw, "Reconciliation tolerance\t%g abs, %g rel\n", v.ReconciliationAbsTolerance, v.ReconciliationRelTolerance)
	fmt.Fprintf(tw, "Trade price deviation warn/error\t%.0f%% / %.0f%%\n", v.TradePriceDeviationWarnPct*100, v.TradePriceDeviationErrorPct*100)
	fmt.Fprintf(tw, "FX tolerance\t%.1f%%\n", v.FXTolerancePct*100)
	fmt.Fprintf(tw, "Enabled validators\t%s\n", validators)
	tw.Flush()
	fmt.Println()
}
