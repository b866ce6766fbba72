package ledger

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akshayr/portfolio-coach/internal/contracts"
)

func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}
	pool, err := pgxpool.New(context.Background(), url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func TestRepository_SaveAndReadBack(t *testing.T) {
	pool := testPool(t)
	repo := NewRepository(pool)
	ctx := context.Background()

	runDate := time.Now().Truncate(24 * time.Hour)
	idea := contracts.TradeIdea{
		Action: contracts.ActionBuy, Symbol: "ITLEDGERTEST", Quantity: 10,
		LimitPrice: 1500.5, Rationale: "round trip", Status: contracts.StatusApproved,
		PassCount: 2, CriticCount: 3, Confidence: 0.81, Scored: true,
	}
	rec := contracts.FromIdea("it-test", runDate, &idea)

	require.NoError(t, repo.SaveRecommendations(ctx, []contracts.Recommendation{rec}))

	rows, err := repo.RecommendationsByDate(ctx, "it-test", runDate)
	require.NoError(t, err)
	require.NotEmpty(t, rows)

	last := rows[len(rows)-1]
	back := last.ToIdea()
	assert.Equal(t, idea.Symbol, back.Symbol)
	assert.Equal(t, idea.Quantity, back.Quantity)
	assert.Equal(t, idea.LimitPrice, back.LimitPrice)
	assert.Equal(t, idea.Confidence, back.Confidence)
	assert.Equal(t, contracts.StatusApproved, back.Status)
}

func TestRepository_UpdateStatusEnforcesLifecycle(t *testing.T) {
	pool := testPool(t)
	repo := NewRepository(pool)
	ctx := context.Background()

	runDate := time.Now().Truncate(24 * time.Hour)
	rec := contracts.Recommendation{
		InvestorID: "it-test", RunDate: runDate,
		Action: contracts.ActionSell, Symbol: "ITSTATUSTEST",
		Quantity: 5, LimitPrice: 900, Status: contracts.StatusApproved,
	}
	require.NoError(t, repo.SaveRecommendations(ctx, []contracts.Recommendation{rec}))

	rows, err := repo.RecommendationsByDate(ctx, "it-test", runDate)
	require.NoError(t, err)
	var id int64
	for _, r := range rows {
		if r.Symbol == "ITSTATUSTEST" {
			id = r.ID
		}
	}
	require.NotZero(t, id)

	price := 905.0
	require.NoError(t, repo.UpdateStatus(ctx, id, contracts.StatusExecuted, &price))

	// EXECUTED is terminal: any further transition must fail.
	err = repo.UpdateStatus(ctx, id, contracts.StatusCancelled, nil)
	assert.Error(t, err)
}

func TestRepository_SaveHistoryUpserts(t *testing.T) {
	pool := testPool(t)
	repo := NewRepository(pool)
	ctx := context.Background()

	date := time.Now().Truncate(24 * time.Hour)
	row := &contracts.PortfolioHistory{
		InvestorID: "it-test", Date: date,
		TotalValue: 100_000, TotalPnL: 5_000, HoldingCount: 4, CashBalance: 20_000,
	}
	require.NoError(t, repo.SaveHistory(ctx, row))

	row.TotalValue = 101_000
	require.NoError(t, repo.SaveHistory(ctx, row))

	rows, err := repo.HistorySince(ctx, "it-test", date)
	require.NoError(t, err)
	require.Len(t, rows, 1, "same-day write must replace, not duplicate")
	assert.Equal(t, 101_000.0, rows[0].TotalValue)
}

func TestNullable(t *testing.T) {
	assert.Nil(t, nullable(""))
	require.NotNil(t, nullable("POSITION_CAP"))
	assert.Equal(t, "POSITION_CAP", *nullable("POSITION_CAP"))
}
