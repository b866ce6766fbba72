package marketdata

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/akshayr/portfolio-coach/internal/contracts"
)

// Fundamental is the per-symbol valuation row used by the signal engine.
// PER is nil when the vendor reported no earnings (loss-making or
// missing), which excludes the symbol from z-score computation.
type Fundamental struct {
	Symbol    string
	PER       *float64
	UpdatedAt time.Time
}

// Repository persists daily market context rows and serves fundamentals.
// SSOT: market_data and fundamentals tables are touched here only.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// SaveContext records the day's market context for later audit runs.
// Upserts on date so a re-run replaces the earlier row.
func (r *Repository) SaveContext(ctx context.Context, mc *contracts.MarketContext) error {
	query := `
		INSERT INTO market_data (date, nifty_level, nifty_change_pct,
		                         sensex_level, sensex_change_pct,
		                         vix_level, usd_inr_rate, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (date) DO UPDATE SET
			nifty_level = EXCLUDED.nifty_level,
			nifty_change_pct = EXCLUDED.nifty_change_pct,
			sensex_level = EXCLUDED.sensex_level,
			sensex_change_pct = EXCLUDED.sensex_change_pct,
			vix_level = EXCLUDED.vix_level,
			usd_inr_rate = EXCLUDED.usd_inr_rate
	`

	var niftyLevel, niftyChange, sensexLevel, sensexChange, vixLevel, usdInr *float64
	if mc.DomesticIndex != nil {
		niftyLevel = &mc.DomesticIndex.Level
		niftyChange = &mc.DomesticIndex.ChangePct
	}
	if mc.SecondaryIndex != nil {
		sensexLevel = &mc.SecondaryIndex.Level
		sensexChange = &mc.SecondaryIndex.ChangePct
	}
	if mc.Volatility != nil {
		vixLevel = &mc.Volatility.Level
	}
	if mc.USDINR != nil {
		usdInr = &mc.USDINR.Rate
	}

	date := mc.AsOf.Truncate(24 * time.Hour)
	if _, err := r.pool.Exec(ctx, query, date,
		niftyLevel, niftyChange, sensexLevel, sensexChange, vixLevel, usdInr); err != nil {
		return fmt.Errorf("failed to save market context: %w", err)
	}
	return nil
}

// ContextHistory returns the stored index levels since a date, oldest
// first. Used by the performance analyzer for benchmark returns.
func (r *Repository) ContextHistory(ctx context.Context, since time.Time) ([]contracts.MarketContext, error) {
	query := `
		SELECT date, nifty_level, nifty_change_pct, vix_level, usd_inr_rate
		FROM market_data
		WHERE date >= $1
		ORDER BY date
	`

	rows, err := r.pool.Query(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query market history: %w", err)
	}
	defer rows.Close()

	history := make([]contracts.MarketContext, 0)
	for rows.Next() {
		var mc contracts.MarketContext
		var niftyLevel, niftyChange, vixLevel, usdInr *float64
		if err := rows.Scan(&mc.AsOf, &niftyLevel, &niftyChange, &vixLevel, &usdInr); err != nil {
			return nil, fmt.Errorf("failed to scan market row: %w", err)
		}
		if niftyLevel != nil {
			mc.DomesticIndex = &contracts.IndexQuote{Level: *niftyLevel}
			if niftyChange != nil {
				mc.DomesticIndex.ChangePct = *niftyChange
			}
		}
		if vixLevel != nil {
			mc.Volatility = &contracts.IndexQuote{Level: *vixLevel}
		}
		if usdInr != nil {
			mc.USDINR = &contracts.FXQuote{Rate: *usdInr}
		}
		history = append(history, mc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating market rows: %w", err)
	}

	return history, nil
}

// Fundamentals returns the stored valuation rows for a set of symbols.
// Symbols without a row are simply absent from the result.
func (r *Repository) Fundamentals(ctx context.Context, symbols []string) (map[string]Fundamental, error) {
	if len(symbols) == 0 {
		return map[string]Fundamental{}, nil
	}

	query := `
		SELECT symbol, pe_ratio, updated_at
		FROM fundamentals
		WHERE symbol = ANY($1)
	`

	rows, err := r.pool.Query(ctx, query, symbols)
	if err != nil {
		return nil, fmt.Errorf("failed to query fundamentals: %w", err)
	}
	defer rows.Close()

	result := make(map[string]Fundamental, len(symbols))
	for rows.Next() {
		var f Fundamental
		if err := rows.Scan(&f.Symbol, &f.PER, &f.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan fundamental: %w", err)
		}
		result[f.Symbol] = f
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating fundamentals: %w", err)
	}

	return result, nil
}
