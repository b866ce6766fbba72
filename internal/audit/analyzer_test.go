package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akshayr/portfolio-coach/internal/contracts"
	"github.com/akshayr/portfolio-coach/pkg/logger"
)

type stubLedger struct {
	recs    []contracts.Recommendation
	history []contracts.PortfolioHistory
	err     error
}

func (s *stubLedger) RecommendationsSince(_ context.Context, _ string, _ time.Time) ([]contracts.Recommendation, error) {
	return s.recs, s.err
}

func (s *stubLedger) HistorySince(_ context.Context, _ string, _ time.Time) ([]contracts.PortfolioHistory, error) {
	return s.history, s.err
}

type stubBenchmark struct {
	rows []contracts.MarketContext
	err  error
}

func (s *stubBenchmark) ContextHistory(_ context.Context, _ time.Time) ([]contracts.MarketContext, error) {
	return s.rows, s.err
}

func pnl(v float64) *float64 { return &v }

func executed(action contracts.Action, symbol string, realized float64) contracts.Recommendation {
	return contracts.Recommendation{
		Action: action, Symbol: symbol,
		Status: contracts.StatusExecuted, RealizedPnL: pnl(realized),
	}
}

func day(offset int) time.Time {
	return time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
}

func TestAnalyzer_ReturnsAndAlpha(t *testing.T) {
	ledger := &stubLedger{history: []contracts.PortfolioHistory{
		{Date: day(0), TotalValue: 90_000, CashBalance: 10_000},  // NAV 100,000
		{Date: day(30), TotalValue: 95_000, CashBalance: 10_000}, // NAV 105,000
	}}
	bench := &stubBenchmark{rows: []contracts.MarketContext{
		{AsOf: day(0), DomesticIndex: &contracts.IndexQuote{Level: 24_000}},
		{AsOf: day(30), DomesticIndex: &contracts.IndexQuote{Level: 24_480}},
	}}

	a := NewAnalyzer(ledger, bench, logger.NewNop())
	summary, err := a.Analyze(context.Background(), "akshay", nil)
	require.NoError(t, err)
	require.NotNil(t, summary)

	assert.InDelta(t, 5.0, summary.PortfolioReturn, 1e-9)
	assert.InDelta(t, 2.0, summary.BenchmarkReturn, 1e-9)
	assert.InDelta(t, 3.0, summary.Alpha, 1e-9)
}

func TestAnalyzer_NilWithoutHistory(t *testing.T) {
	a := NewAnalyzer(&stubLedger{}, nil, logger.NewNop())

	summary, err := a.Analyze(context.Background(), "new-investor", nil)
	require.NoError(t, err)
	assert.Nil(t, summary)
}

func TestAnalyzer_LedgerErrorDegradesToNil(t *testing.T) {
	a := NewAnalyzer(&stubLedger{err: errors.New("db down")}, nil, logger.NewNop())

	summary, err := a.Analyze(context.Background(), "akshay", nil)
	require.NoError(t, err)
	assert.Nil(t, summary)
}

func TestAnalyzer_TradeStats(t *testing.T) {
	ledger := &stubLedger{
		history: []contracts.PortfolioHistory{
			{Date: day(0), TotalValue: 100_000},
			{Date: day(30), TotalValue: 100_000},
		},
		recs: []contracts.Recommendation{
			executed(contracts.ActionBuy, "NEWPOS", 500),
			executed(contracts.ActionBuy, "TCS", 300),    // still held: resize
			executed(contracts.ActionSell, "GONE", -200), // no longer held: exit
			executed(contracts.ActionSell, "TCS", 100),
			{Action: contracts.ActionBuy, Symbol: "X", Status: contracts.StatusApproved}, // not executed
		},
	}
	snapshot := &contracts.PortfolioSnapshot{
		Holdings: []contracts.Holding{{Symbol: "TCS", Quantity: 10, LastPrice: 3600}},
	}

	a := NewAnalyzer(ledger, nil, logger.NewNop())
	summary, err := a.Analyze(context.Background(), "akshay", snapshot)
	require.NoError(t, err)
	require.NotNil(t, summary)

	assert.Equal(t, 4, summary.TotalTrades)
	assert.Equal(t, 3, summary.ProfitableTrades)
	assert.InDelta(t, 0.75, summary.WinRate, 1e-9)
	assert.Equal(t, 1, summary.NewPositions)
	assert.Equal(t, 1, summary.ExitedPositions)
	assert.Equal(t, 2, summary.ResizedPositions)
}

func TestSharpeRatio(t *testing.T) {
	flat := []contracts.PortfolioHistory{
		{TotalValue: 100_000}, {TotalValue: 100_000}, {TotalValue: 100_000},
	}
	assert.Zero(t, SharpeRatio(flat))

	rising := []contracts.PortfolioHistory{
		{TotalValue: 100_000}, {TotalValue: 101_000}, {TotalValue: 101_500}, {TotalValue: 103_000},
	}
	assert.Greater(t, SharpeRatio(rising), 0.0)

	assert.Zero(t, SharpeRatio(nil))
}
