package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/RaynorEtienn/Financial-Data-Analysis/internal/runs"
	"github.com/RaynorEtienn/Financial-Data-Analysis/internal/scheduler"
	"github.com/RaynorEtienn/Financial-Data-Analysis/internal/scheduler/jobs"
	"github.com/RaynorEtienn/Financial-Data-Analysis/internal/store"
	"github.com/RaynorEtienn/Financial-Data-Analysis/pkg/database"
	"github.com/RaynorEtienn/Financial-Data-Analysis/pkg/logger"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Manage scheduled validation",
	Long: `Starts the scheduler daemon or manages its jobs.

Registered jobs:
- daily_validation: validates the recent position window after each
  trading day (SCHEDULER_DAILY_CRON, default weekdays 18:30)

Example:
  go run ./cmd/check scheduler start
  go run ./cmd/check scheduler list
  go run ./cmd/check scheduler run daily_validation`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "Start the scheduler daemon",
		RunE:  runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "List registered jobs",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "Run a job immediately",
		Args:  cobra.ExactArgs(1),
		RunE:  runJobNow,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	sched, cleanup, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer cleanup()

	sched.Start()

	fmt.Println("Scheduler started")
	fmt.Println("Registered jobs:")
	for _, jobName := range sched.GetAllJobs() {
		fmt.Printf("  - %s\n", jobName)
	}
	fmt.Println("Press Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Println("Shutting down scheduler...")
	sched.Stop()

	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	sched, cleanup, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer cleanup()

	fmt.Println("Registered jobs:")
	for _, jobName := range sched.GetAllJobs() {
		fmt.Printf("  - %s\n", jobName)
	}

	return nil
}

func runJobNow(cmd *cobra.Command, args []string) error {
	jobName := args[0]

	sched, cleanup, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer cleanup()

	fmt.Printf("Running job: %s\n", jobName)
	if err := sched.RunJob(jobName); err != nil {
		return err
	}

	// RunJob is asynchronous; wait for the single execution to finish.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	for {
		history, err := sched.GetJobHistory(jobName)
		if err != nil {
			return err
		}
		if results := history.GetLatestResults(1); len(results) > 0 {
			r := results[0]
			if r.Success {
				fmt.Printf("Job %s completed in %s\n", jobName, r.Duration)
				return nil
			}
			return fmt.Errorf("job %s failed: %s", jobName, r.Error)
		}

		select {
		case <-quit:
			return nil
		case <-time.After(500 * time.Millisecond):
		}
	}
}

// initScheduler wires the scheduler with the daily validation job. The
// returned cleanup closes the database pool.
func initScheduler() (*scheduler.Scheduler, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	log := logger.New(cfg)

	if !cfg.Database.Enabled() {
		return nil, nil, fmt.Errorf("scheduler requires DATABASE_URL")
	}

	db, err := database.New(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}

	engine, err := buildEngine(cfg, log)
	if err != nil {
		db.Close()
		return nil, nil, err
	}

	datasets := store.NewDatasetRepository(db.Pool)
	runRepo := store.NewRunRepository(db.Pool)
	service := runs.NewService(engine, runRepo, nil, log)

	sched := scheduler.New(log)
	if err := sched.AddJob(jobs.NewDailyValidation(service, datasets, cfg.Scheduler, log)); err != nil {
		db.Close()
		return nil, nil, err
	}

	return sched, db.Close, nil
}
