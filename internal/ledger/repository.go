package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/akshayr/portfolio-coach/internal/contracts"
)

// Repository implements contracts.Ledger on Postgres.
// SSOT: trade_recommendations and portfolio_snapshots are written here
// and nowhere else. Rows are never deleted, only status-updated; the
// audit trail is the safety mechanism for advisory-only guidance.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// SaveRecommendations persists the run's full candidate set in one
// transaction. All-or-nothing: a partially recorded run would corrupt
// the audit trail, so any failure rolls the batch back.
func (r *Repository) SaveRecommendations(ctx context.Context, recs []contracts.Recommendation) error {
	if len(recs) == 0 {
		return nil
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin recommendations tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO trade_recommendations (
			investor_id, run_date, action, symbol, quantity, limit_price,
			rationale, status, reason_code, pass_count, critic_count,
			confidence, scored, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW(), NOW())
	`

	for _, rec := range recs {
		if _, err := tx.Exec(ctx, query,
			rec.InvestorID, rec.RunDate, rec.Action, rec.Symbol,
			rec.Quantity, rec.LimitPrice, rec.Rationale,
			rec.Status, nullable(rec.ReasonCode),
			rec.PassCount, rec.CriticCount, rec.Confidence, rec.Scored,
		); err != nil {
			return fmt.Errorf("insert recommendation %s %s: %w", rec.Action, rec.Symbol, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit recommendations tx: %w", err)
	}
	return nil
}

const recommendationColumns = `
	id, investor_id, run_date, action, symbol, quantity, limit_price,
	COALESCE(rationale, ''), status, COALESCE(reason_code, ''),
	pass_count, critic_count, confidence, scored,
	execution_price, execution_date, realized_pnl, created_at, updated_at
`

// RecommendationsSince returns every row for the investor on or after
// the given date, oldest first.
func (r *Repository) RecommendationsSince(ctx context.Context, investorID string, since time.Time) ([]contracts.Recommendation, error) {
	query := `
		SELECT ` + recommendationColumns + `
		FROM trade_recommendations
		WHERE investor_id = $1 AND run_date >= $2
		ORDER BY run_date, id
	`
	return r.queryRecommendations(ctx, query, investorID, since)
}

// RecommendationsByDate returns the rows of a single run date.
func (r *Repository) RecommendationsByDate(ctx context.Context, investorID string, date time.Time) ([]contracts.Recommendation, error) {
	query := `
		SELECT ` + recommendationColumns + `
		FROM trade_recommendations
		WHERE investor_id = $1 AND run_date = $2
		ORDER BY id
	`
	return r.queryRecommendations(ctx, query, investorID, date.Truncate(24*time.Hour))
}

func (r *Repository) queryRecommendations(ctx context.Context, query string, args ...interface{}) ([]contracts.Recommendation, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query recommendations: %w", err)
	}
	defer rows.Close()

	recs := make([]contracts.Recommendation, 0)
	for rows.Next() {
		var rec contracts.Recommendation
		if err := rows.Scan(
			&rec.ID, &rec.InvestorID, &rec.RunDate, &rec.Action, &rec.Symbol,
			&rec.Quantity, &rec.LimitPrice, &rec.Rationale, &rec.Status, &rec.ReasonCode,
			&rec.PassCount, &rec.CriticCount, &rec.Confidence, &rec.Scored,
			&rec.ExecutionPrice, &rec.ExecutionDate, &rec.RealizedPnL,
			&rec.CreatedAt, &rec.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan recommendation: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recommendations: %w", err)
	}

	return recs, nil
}

// UpdateStatus transitions a persisted recommendation, enforcing the
// lifecycle state machine in the same transaction that writes the new
// state. Illegal transitions fail rather than silently overwrite.
func (r *Repository) UpdateStatus(ctx context.Context, id int64, status contracts.Status, executionPrice *float64) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin status tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var current contracts.Status
	if err := tx.QueryRow(ctx,
		`SELECT status FROM trade_recommendations WHERE id = $1 FOR UPDATE`, id,
	).Scan(&current); err != nil {
		return fmt.Errorf("load recommendation %d: %w", id, err)
	}

	if !current.CanTransition(status) {
		return fmt.Errorf("illegal status transition %s -> %s for recommendation %d", current, status, id)
	}

	query := `
		UPDATE trade_recommendations
		SET status = $2, execution_price = $3,
		    execution_date = CASE WHEN $2 = 'EXECUTED' THEN NOW() ELSE execution_date END,
		    updated_at = NOW()
		WHERE id = $1
	`
	if _, err := tx.Exec(ctx, query, id, status, executionPrice); err != nil {
		return fmt.Errorf("update recommendation %d: %w", id, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit status tx: %w", err)
	}
	return nil
}

// SaveHistory upserts the daily portfolio record. Re-running a day
// replaces that day's row instead of duplicating it.
func (r *Repository) SaveHistory(ctx context.Context, row *contracts.PortfolioHistory) error {
	query := `
		INSERT INTO portfolio_snapshots (
			investor_id, date, total_value, total_pnl, holding_count, cash_balance, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (investor_id, date) DO UPDATE SET
			total_value = EXCLUDED.total_value,
			total_pnl = EXCLUDED.total_pnl,
			holding_count = EXCLUDED.holding_count,
			cash_balance = EXCLUDED.cash_balance
	`
	if _, err := r.pool.Exec(ctx, query,
		row.InvestorID, row.Date.Truncate(24*time.Hour),
		row.TotalValue, row.TotalPnL, row.HoldingCount, row.CashBalance,
	); err != nil {
		return fmt.Errorf("save portfolio history: %w", err)
	}
	return nil
}

// HistorySince returns daily rows on or after the given date, oldest
// first.
func (r *Repository) HistorySince(ctx context.Context, investorID string, since time.Time) ([]contracts.PortfolioHistory, error) {
	query := `
		SELECT investor_id, date, total_value, total_pnl, holding_count, cash_balance
		FROM portfolio_snapshots
		WHERE investor_id = $1 AND date >= $2
		ORDER BY date
	`

	rows, err := r.pool.Query(ctx, query, investorID, since)
	if err != nil {
		return nil, fmt.Errorf("query portfolio history: %w", err)
	}
	defer rows.Close()

	history := make([]contracts.PortfolioHistory, 0)
	for rows.Next() {
		var row contracts.PortfolioHistory
		if err := rows.Scan(&row.InvestorID, &row.Date, &row.TotalValue,
			&row.TotalPnL, &row.HoldingCount, &row.CashBalance); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		history = append(history, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history rows: %w", err)
	}

	return history, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

var _ contracts.Ledger = (*Repository)(nil)
