package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/akshayr/portfolio-coach/pkg/config"
	"github.com/akshayr/portfolio-coach/pkg/database"
	"github.com/akshayr/portfolio-coach/pkg/logger"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute one decision run now",
	Long: `Executes the full decision pipeline once and prints the report.

With --dry-run nothing is written to the ledger and the report is not
delivered to the configured sink.

Example:
  go run ./cmd/coach run
  go run ./cmd/coach run --dry-run
  go run ./cmd/coach run --date 2026-08-28`,
	RunE: runOnce,
}

var (
	runDate   string
	runDryRun bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runDate, "date", "", "run date (YYYY-MM-DD, default today)")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "execute without persisting or delivering")
}

func runOnce(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg)

	date := time.Now()
	if runDate != "" {
		if date, err = time.Parse("2006-01-02", runDate); err != nil {
			return fmt.Errorf("invalid --date: %w", err)
		}
	}

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

	report, err := p.coach.Run(ctx, date, runDryRun)
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}

	fmt.Println(report.Markdown)
	return nil
}
