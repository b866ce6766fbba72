package report

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akshayr/portfolio-coach/internal/contracts"
	"github.com/akshayr/portfolio-coach/pkg/logger"
)

type stubHistory struct {
	rows []contracts.PortfolioHistory
	err  error
}

func (s *stubHistory) HistorySince(_ context.Context, _ string, _ time.Time) ([]contracts.PortfolioHistory, error) {
	return s.rows, s.err
}

func reportSnapshot() *contracts.PortfolioSnapshot {
	return &contracts.PortfolioSnapshot{
		InvestorID: "akshay",
		AsOf:       time.Date(2026, 8, 28, 8, 45, 0, 0, time.UTC),
		Holdings: []contracts.Holding{
			{Symbol: "TCS", Quantity: 10, AvgCost: 3400, LastPrice: 3600, Sector: contracts.SectorIT},
			{Symbol: "INFY", Quantity: 20, AvgCost: 1400, LastPrice: 1500, Sector: contracts.SectorIT},
		},
		CashAvailable: 100_000,
	}
}

func approvedIdea(symbol string, confidence, qty, price float64) contracts.TradeIdea {
	return contracts.TradeIdea{
		ID: "20260828_" + symbol + "_BUY", Action: contracts.ActionBuy, Symbol: symbol,
		Quantity: qty, LimitPrice: price, Rationale: "test rationale",
		Status: contracts.StatusApproved, Confidence: confidence, Scored: true,
		PassCount: 3, CriticCount: 3,
	}
}

func reportConfig() *contracts.RiskConfig {
	return &contracts.RiskConfig{InvestorID: "akshay", MaxDrawdown: 0.20}
}

func TestBuilder_SortsByConfidenceThenNotional(t *testing.T) {
	b := NewBuilder(&stubHistory{}, logger.NewNop())

	ideas := []contracts.TradeIdea{
		approvedIdea("LOW", 0.62, 10, 100),
		approvedIdea("BIGTIE", 0.80, 20, 1000),   // notional 20,000
		approvedIdea("SMALLTIE", 0.80, 10, 1000), // notional 10,000
		approvedIdea("TOP", 0.91, 5, 100),
	}

	rpt, err := b.Build(context.Background(), "run-1", ideas, reportSnapshot(), nil, nil, nil, reportConfig())
	require.NoError(t, err)

	require.Len(t, rpt.Ideas, 4)
	assert.Equal(t, "TOP", rpt.Ideas[0].Symbol)
	assert.Equal(t, "BIGTIE", rpt.Ideas[1].Symbol)
	assert.Equal(t, "SMALLTIE", rpt.Ideas[2].Symbol)
	assert.Equal(t, "LOW", rpt.Ideas[3].Symbol)
}

func TestBuilder_RejectedIdeasExcludedFromReport(t *testing.T) {
	b := NewBuilder(&stubHistory{}, logger.NewNop())

	rejected := approvedIdea("TCS", 0, 5, 3600)
	rejected.Status = contracts.StatusRiskRejected
	rejected.ReasonCode = contracts.ReasonPositionCap

	rpt, err := b.Build(context.Background(), "run-1",
		[]contracts.TradeIdea{rejected, approvedIdea("INFY", 0.7, 10, 1500)},
		reportSnapshot(), nil, nil, nil, reportConfig())
	require.NoError(t, err)

	require.Len(t, rpt.Ideas, 1)
	assert.Equal(t, "INFY", rpt.Ideas[0].Symbol)
	assert.Len(t, rpt.Intents, 1)
}

func TestBuilder_EmptyRunStillProducesFullReport(t *testing.T) {
	b := NewBuilder(&stubHistory{}, logger.NewNop())

	rpt, err := b.Build(context.Background(), "run-1", nil, reportSnapshot(), nil, nil, nil, reportConfig())
	require.NoError(t, err)

	assert.True(t, rpt.Empty())
	assert.Equal(t, 2, rpt.Summary.HoldingCount)
	assert.InDelta(t, 66_000, rpt.Summary.TotalValue, 1e-9)
	assert.Contains(t, rpt.Markdown, "No actionable changes today")
	assert.Contains(t, rpt.Markdown, "Sources & Methodology")
	assert.NotContains(t, rpt.Markdown, "Order intents")
}

func TestBuilder_OrderIntentShape(t *testing.T) {
	b := NewBuilder(&stubHistory{}, logger.NewNop())

	rpt, err := b.Build(context.Background(), "run-1",
		[]contracts.TradeIdea{approvedIdea("INFY", 0.8, 10, 1500)},
		reportSnapshot(), nil, nil, nil, reportConfig())
	require.NoError(t, err)

	require.Len(t, rpt.Intents, 1)
	intent := rpt.Intents[0]
	assert.Equal(t, "BUY", intent.TransactionType)
	assert.Equal(t, "NSE_EQ|INFY", intent.InstrumentToken)
	assert.Equal(t, 10.0, intent.Quantity)
	assert.Equal(t, "I", intent.Product)
	assert.Equal(t, 1500.0, intent.Price)
}

func TestBuilder_ReviewedSymbolsFromBreachedSignals(t *testing.T) {
	b := NewBuilder(&stubHistory{}, logger.NewNop())

	signals := &contracts.SignalSet{Signals: []contracts.Signal{
		{Subject: "TCS", Kind: contracts.SignalValuationZ, Value: 2.4, ThresholdBreached: true},
		{Subject: "INFY", Kind: contracts.SignalMomentum, Value: -3, ThresholdBreached: true, Class: string(contracts.MomentumBearish)},
		{Subject: contracts.SubjectPortfolio, Kind: contracts.SignalDrift, Value: 12, ThresholdBreached: true},
		{Subject: "UNHELD", Kind: contracts.SignalValuationZ, Value: 3, ThresholdBreached: true},
	}}
	// INFY has an approved idea, so only TCS lands in reviewed.
	ideas := []contracts.TradeIdea{approvedIdea("INFY", 0.8, 10, 1500)}

	rpt, err := b.Build(context.Background(), "run-1", ideas, reportSnapshot(), nil, signals, nil, reportConfig())
	require.NoError(t, err)

	require.Len(t, rpt.Reviewed, 1)
	assert.Equal(t, "TCS", rpt.Reviewed[0].Symbol)
	assert.Contains(t, rpt.Markdown, "Reviewed, no action")
}

func TestBuilder_RiskBannerOnDeepDrawdown(t *testing.T) {
	// Trailing peak NAV 220,000 vs current 166,000 is a 24.5% drawdown,
	// past 0.8 x 20%.
	hist := &stubHistory{rows: []contracts.PortfolioHistory{
		{TotalValue: 200_000, CashBalance: 20_000},
		{TotalValue: 150_000, CashBalance: 20_000},
	}}
	b := NewBuilder(hist, logger.NewNop())

	rpt, err := b.Build(context.Background(), "run-1", nil, reportSnapshot(), nil, nil, nil, reportConfig())
	require.NoError(t, err)

	assert.NotEmpty(t, rpt.RiskBanner)
	assert.Contains(t, rpt.Markdown, "RISK ALERT")
}

func TestBuilder_RiskBannerOnUnrealizedLoss(t *testing.T) {
	// A 20.5% unrealized loss breaches 0.8 x the 20% tolerance even
	// with no stored history to derive a trailing peak from.
	b := NewBuilder(nil, logger.NewNop())

	snap := &contracts.PortfolioSnapshot{
		InvestorID: "akshay",
		AsOf:       time.Date(2026, 8, 28, 8, 45, 0, 0, time.UTC),
		Holdings: []contracts.Holding{
			{Symbol: "TCS", Quantity: 100, AvgCost: 964, LastPrice: 800, Sector: contracts.SectorIT},
		},
	}

	rpt, err := b.Build(context.Background(), "run-1", nil, snap, nil, nil, nil, reportConfig())
	require.NoError(t, err)

	assert.NotEmpty(t, rpt.RiskBanner)
	assert.Contains(t, rpt.RiskBanner, "drawdown")
	assert.Contains(t, rpt.Markdown, "RISK ALERT")
}

func TestBuilder_NoBannerInShallowDrawdown(t *testing.T) {
	hist := &stubHistory{rows: []contracts.PortfolioHistory{
		{TotalValue: 150_000, CashBalance: 20_000},
	}}
	b := NewBuilder(hist, logger.NewNop())

	rpt, err := b.Build(context.Background(), "run-1", nil, reportSnapshot(), nil, nil, nil, reportConfig())
	require.NoError(t, err)

	assert.Empty(t, rpt.RiskBanner)
}

func TestBuilder_MarkdownCarriesBandMarkers(t *testing.T) {
	b := NewBuilder(&stubHistory{}, logger.NewNop())

	ideas := []contracts.TradeIdea{
		approvedIdea("GREEN", 0.80, 1, 100),
		approvedIdea("AMBER", 0.65, 1, 100),
		approvedIdea("RED", 0.40, 1, 100),
	}

	rpt, err := b.Build(context.Background(), "run-1", ideas, reportSnapshot(), nil, nil, nil, reportConfig())
	require.NoError(t, err)

	assert.Contains(t, rpt.Markdown, "🟢")
	assert.Contains(t, rpt.Markdown, "🟠")
	assert.Contains(t, rpt.Markdown, "🔴", "red ideas are flagged, never dropped")
	assert.Len(t, rpt.Ideas, 3)
}
