// Package jobs contains the concrete scheduled jobs.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/RaynorEtienn/Financial-Data-Analysis/internal/contracts"
	"github.com/RaynorEtienn/Financial-Data-Analysis/internal/runs"
	"github.com/RaynorEtienn/Financial-Data-Analysis/pkg/config"
	"github.com/RaynorEtienn/Financial-Data-Analysis/pkg/logger"
)

// DailyValidation validates the most recent position window after every
// trading day.
type DailyValidation struct {
	service  *runs.Service
	datasets contracts.DatasetRepository
	schedule string
	lookback int
	logger   *logger.Logger
}

// NewDailyValidation creates the daily validation job.
func NewDailyValidation(service *runs.Service, datasets contracts.DatasetRepository, cfg config.SchedulerConfig, log *logger.Logger) *DailyValidation {
	return &DailyValidation{
		service:  service,
		datasets: datasets,
		schedule: cfg.DailyCron,
		lookback: cfg.LookbackDays,
		logger:   log,
	}
}

// Name returns the job name
func (j *DailyValidation) Name() string {
	return "daily_validation"
}

// Schedule returns the cron schedule expression
func (j *DailyValidation) Schedule() string {
	return j.schedule
}

// Run loads the lookback window and executes a validation run.
func (j *DailyValidation) Run(ctx context.Context) error {
	to := contracts.DateOf(time.Now().UTC())
	from := to.AddDate(0, 0, -j.lookback)

	positions, err := j.datasets.LoadPositions(ctx, from, to)
	if err != nil {
		return fmt.Errorf("load positions: %w", err)
	}
	if len(positions) == 0 {
		j.logger.WithFields(map[string]interface{}{
			"from": from.Format("2006-01-02"),
			"to":   to.Format("2006-01-02"),
		}).Warn("No positions in validation window, skipping run")
		return nil
	}

	trades, err := j.datasets.LoadTrades(ctx, from, to)
	if err != nil {
		return fmt.Errorf("load trades: %w", err)
	}

	run, err := j.service.Validate(ctx, positions, trades)
	if err != nil {
		return fmt.Errorf("validation run: %w", err)
	}

	if run.HasErrors() {
		counts := run.CountBySeverity()
		j.logger.WithFields(map[string]interface{}{
			"run_id": run.ID,
			"errors": counts[contracts.SeverityError],
		}).Warn("Daily validation surfaced errors")
	}

	return nil
}
