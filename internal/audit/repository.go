package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// MetricsRow is one daily performance_metrics record.
type MetricsRow struct {
	InvestorID       string
	Date             time.Time
	PortfolioReturn  float64
	BenchmarkReturn  float64
	Alpha            float64
	Beta             float64
	SharpeRatio      float64
	WinRate          float64
	TotalTrades      int
	ProfitableTrades int
}

// Repository persists daily performance metrics.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// SaveMetrics upserts the day's metrics row.
func (r *Repository) SaveMetrics(ctx context.Context, row *MetricsRow) error {
	query := `
		INSERT INTO performance_metrics (
			investor_id, date, portfolio_return, benchmark_return,
			alpha, beta, sharpe_ratio, win_rate,
			total_trades, profitable_trades, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
		ON CONFLICT (investor_id, date) DO UPDATE SET
			portfolio_return = EXCLUDED.portfolio_return,
			benchmark_return = EXCLUDED.benchmark_return,
			alpha = EXCLUDED.alpha,
			beta = EXCLUDED.beta,
			sharpe_ratio = EXCLUDED.sharpe_ratio,
			win_rate = EXCLUDED.win_rate,
			total_trades = EXCLUDED.total_trades,
			profitable_trades = EXCLUDED.profitable_trades
	`
	if _, err := r.pool.Exec(ctx, query,
		row.InvestorID, row.Date.Truncate(24*time.Hour),
		row.PortfolioReturn, row.BenchmarkReturn,
		row.Alpha, row.Beta, row.SharpeRatio, row.WinRate,
		row.TotalTrades, row.ProfitableTrades,
	); err != nil {
		return fmt.Errorf("save performance metrics: %w", err)
	}
	return nil
}
