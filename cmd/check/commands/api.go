package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/RaynorEtienn/Financial-Data-Analysis/internal/api"
	"github.com/RaynorEtienn/Financial-Data-Analysis/internal/api/handlers"
	"github.com/RaynorEtienn/Financial-Data-Analysis/internal/contracts"
	"github.com/RaynorEtienn/Financial-Data-Analysis/internal/runs"
	"github.com/RaynorEtienn/Financial-Data-Analysis/internal/store"
	"github.com/RaynorEtienn/Financial-Data-Analysis/internal/stream"
	"github.com/RaynorEtienn/Financial-Data-Analysis/pkg/database"
	"github.com/RaynorEtienn/Financial-Data-Analysis/pkg/logger"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the API server",
	Long: `Starts the REST API server.

Endpoints:
  GET  /health                  - Health check
  POST /api/runs                - Trigger a validation run (rate limited)
  GET  /api/runs                - List recent runs
  GET  /api/runs/{id}/findings  - Findings of a stored run
  GET  /api/runs/ws             - WebSocket stream of completed runs

Example:
  go run ./cmd/check api
  go run ./cmd/check api --port 8080`,
	RunE: runAPIServer,
}

var apiPort string

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (overrides PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if apiPort != "" {
		cfg.Port = apiPort
	}

	log := logger.New(cfg)

	log.WithFields(map[string]interface{}{
		"port": cfg.Port,
		"env":  cfg.Env,
	}).Info("Initializing API server")

	// Storage is optional. Without it the API still validates, it just
	// cannot load datasets or serve stored runs.
	var datasets contracts.DatasetRepository
	var runRepo contracts.RunRepository
	if cfg.Database.Enabled() {
		db, err := database.New(cfg)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer db.Close()

		datasets = store.NewDatasetRepository(db.Pool)
		runRepo = store.NewRunRepository(db.Pool)
		log.Info("Connected to database")
	} else {
		log.Warn("No DATABASE_URL configured, running stateless")
	}

	engine, err := buildEngine(cfg, log)
	if err != nil {
		return err
	}

	hub := stream.NewHub(log)
	service := runs.NewService(engine, runRepo, hub, log)

	validationHandler := handlers.NewValidationHandler(service, datasets, runRepo, log)
	router := api.NewRouter(cfg, validationHandler, http.Handler(hub), log)
	server := api.New(cfg, log, router)

	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	fmt.Printf("Server running on http://localhost:%s\n", cfg.Port)
	fmt.Println("Press Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
