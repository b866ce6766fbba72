package snapshot

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/akshayr/portfolio-coach/internal/contracts"
)

// Repository reads holdings and cash from Postgres.
// SSOT: portfolio state is read here and nowhere else.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Holdings returns every open position for the investor. An investor
// with no rows yields an empty slice, not an error.
func (r *Repository) Holdings(ctx context.Context, investorID string) ([]contracts.Holding, error) {
	query := `
		SELECT symbol, quantity, avg_cost, last_price,
		       COALESCE(instrument_token, ''), acquired_at
		FROM holdings
		WHERE investor_id = $1 AND quantity > 0
		ORDER BY symbol
	`

	rows, err := r.pool.Query(ctx, query, investorID)
	if err != nil {
		return nil, fmt.Errorf("failed to query holdings: %w", err)
	}
	defer rows.Close()

	holdings := make([]contracts.Holding, 0)
	for rows.Next() {
		var h contracts.Holding
		var acquired *time.Time
		if err := rows.Scan(&h.Symbol, &h.Quantity, &h.AvgCost, &h.LastPrice, &h.InstrumentToken, &acquired); err != nil {
			return nil, fmt.Errorf("failed to scan holding: %w", err)
		}
		if acquired != nil {
			h.AcquiredAt = *acquired
		}
		holdings = append(holdings, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating holdings: %w", err)
	}

	return holdings, nil
}

// CashBalance returns the investor's available cash as the sum of the
// signed cash_ledger entries. No rows means zero cash.
func (r *Repository) CashBalance(ctx context.Context, investorID string) (float64, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM cash_ledger
		WHERE investor_id = $1
	`

	var balance float64
	if err := r.pool.QueryRow(ctx, query, investorID).Scan(&balance); err != nil {
		return 0, fmt.Errorf("failed to query cash balance: %w", err)
	}
	if balance < 0 {
		return 0, fmt.Errorf("negative cash balance %.2f for investor %s", balance, investorID)
	}
	return balance, nil
}

// UpdateLastPrice persists a refreshed price so the stored book stays
// close to market between runs.
func (r *Repository) UpdateLastPrice(ctx context.Context, investorID, symbol string, price float64) error {
	query := `
		UPDATE holdings
		SET last_price = $3, updated_at = NOW()
		WHERE investor_id = $1 AND symbol = $2
	`
	if _, err := r.pool.Exec(ctx, query, investorID, symbol, price); err != nil {
		return fmt.Errorf("failed to update last price for %s: %w", symbol, err)
	}
	return nil
}
