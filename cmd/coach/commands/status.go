package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/akshayr/portfolio-coach/internal/ledger"
	"github.com/akshayr/portfolio-coach/pkg/config"
	"github.com/akshayr/portfolio-coach/pkg/database"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show recent recommendations and portfolio history",
	Long: `Prints the recommendations of a run date and the trailing
portfolio history from the ledger.

Example:
  go run ./cmd/coach status
  go run ./cmd/coach status --date 2026-08-27`,
	RunE: runStatus,
}

var statusDate string

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().StringVar(&statusDate, "date", "", "run date (YYYY-MM-DD, default today)")
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	date := time.Now().Truncate(24 * time.Hour)
	if statusDate != "" {
		if date, err = time.Parse("2006-01-02", statusDate); err != nil {
			return fmt.Errorf("invalid --date: %w", err)
		}
	}

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	repo := ledger.NewRepository(db.Pool)

	recs, err := repo.RecommendationsByDate(ctx, cfg.Coach.InvestorID, date)
	if err != nil {
		return fmt.Errorf("read recommendations: %w", err)
	}

	fmt.Printf("=== Recommendations for %s (%s) ===\n", date.Format("2006-01-02"), cfg.Coach.InvestorID)
	if len(recs) == 0 {
		fmt.Println("(none)")
	}
	for _, rec := range recs {
		line := fmt.Sprintf("  [%d] %-4s %-12s qty %.2f @ %.2f  %s",
			rec.ID, rec.Action, rec.Symbol, rec.Quantity, rec.LimitPrice, rec.Status)
		if rec.ReasonCode != "" {
			line += " (" + rec.ReasonCode + ")"
		}
		if rec.Scored {
			line += fmt.Sprintf("  confidence %.2f", rec.Confidence)
		}
		fmt.Println(line)
	}

	history, err := repo.HistorySince(ctx, cfg.Coach.InvestorID, date.AddDate(0, 0, -7))
	if err != nil {
		return fmt.Errorf("read history: %w", err)
	}

	fmt.Println("\n=== Portfolio history (7 days) ===")
	if len(history) == 0 {
		fmt.Println("(none)")
	}
	for _, row := range history {
		fmt.Printf("  %s  value %.2f  cash %.2f  pnl %+.2f  holdings %d\n",
			row.Date.Format("2006-01-02"), row.TotalValue, row.CashBalance, row.TotalPnL, row.HoldingCount)
	}

	return nil
}
