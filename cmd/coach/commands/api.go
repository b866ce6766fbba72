package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/akshayr/portfolio-coach/internal/api"
	"github.com/akshayr/portfolio-coach/internal/api/handlers"
	"github.com/akshayr/portfolio-coach/pkg/config"
	"github.com/akshayr/portfolio-coach/pkg/database"
	"github.com/akshayr/portfolio-coach/pkg/logger"
)

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the API server only",
	Long: `Starts the REST API without the scheduler. Runs can still be
triggered manually through POST /api/v1/run.

Endpoints:
  GET  /health
  GET  /api/v1/recommendations
  PUT  /api/v1/recommendations/{id}/status
  GET  /api/v1/report/latest
  GET  /api/v1/performance
  POST /api/v1/run

Example:
  go run ./cmd/coach api --port 8086`,
	RunE: runAPIServer,
}

var apiPort string

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (default from PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if apiPort != "" {
		cfg.Port = apiPort
	}
	log := logger.New(cfg)

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	p, err := buildPipeline(ctx, cfg, log, db)
	if err != nil {
		return err
	}

	coachHandler := handlers.NewCoachHandler(p.ledger, p.memory, p.coach, cfg.Coach.InvestorID, log)
	server := api.New(cfg, log, api.NewRouter(coachHandler, nil, log))

	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	fmt.Printf("API running on http://localhost:%s\n", cfg.Port)
	fmt.Println("Press Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}
