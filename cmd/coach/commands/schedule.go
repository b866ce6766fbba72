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
	"github.com/akshayr/portfolio-coach/internal/scheduler"
	"github.com/akshayr/portfolio-coach/internal/scheduler/jobs"
	"github.com/akshayr/portfolio-coach/pkg/config"
	"github.com/akshayr/portfolio-coach/pkg/database"
	"github.com/akshayr/portfolio-coach/pkg/logger"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the daily scheduler with the API server",
	Long: `Starts the cron scheduler and the HTTP API as a long-running
process. The pipeline fires every trading morning per SCHEDULE_SPEC.

Example:
  go run ./cmd/coach schedule`,
	RunE: runScheduler,
}

func init() {
	rootCmd.AddCommand(scheduleCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
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

	sched := scheduler.New(log)
	if err := sched.AddJob(jobs.NewDailyRunJob(p.coach, cfg.Coach.ScheduleSpec, log)); err != nil {
		return fmt.Errorf("register daily job: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	coachHandler := handlers.NewCoachHandler(p.ledger, p.memory, p.coach, cfg.Coach.InvestorID, log)
	server := api.New(cfg, log, api.NewRouter(coachHandler, sched, log))

	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	fmt.Printf("Scheduler running, next fire per %q\n", cfg.Coach.ScheduleSpec)
	fmt.Printf("API on http://localhost:%s\n", cfg.Port)
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
