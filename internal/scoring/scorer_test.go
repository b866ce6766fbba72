package scoring

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akshayr/portfolio-coach/internal/contracts"
	"github.com/akshayr/portfolio-coach/pkg/logger"
)

type stubHistory struct {
	recs []contracts.Recommendation
	err  error
}

func (s *stubHistory) RecommendationsSince(_ context.Context, _ string, _ time.Time) ([]contracts.Recommendation, error) {
	return s.recs, s.err
}

func pnl(v float64) *float64 { return &v }

func executedRec(realized float64) contracts.Recommendation {
	return contracts.Recommendation{
		Status:      contracts.StatusExecuted,
		RealizedPnL: pnl(realized),
	}
}

func scoringConfig() *contracts.RiskConfig {
	return &contracts.RiskConfig{InvestorID: "akshay"}
}

// z = -1.3, pass rate 1.0, neutral momentum, no prior history:
// confidence = 0.3*(1 - 1/2.3) + 0.3*1.0 + 0.2*0.5 + 0.2*0.5.
func TestScorer_DocumentedFormula(t *testing.T) {
	idea := &contracts.TradeIdea{
		ID: "i1", Action: contracts.ActionBuy, Symbol: "INFY",
		PassCount: 3, CriticCount: 3,
	}
	signals := &contracts.SignalSet{Signals: []contracts.Signal{
		{Subject: "INFY", Kind: contracts.SignalValuationZ, Value: -1.3},
	}}

	s := NewScorer(&stubHistory{}, logger.NewNop())
	got, err := s.Score(context.Background(), idea, signals, scoringConfig())
	require.NoError(t, err)

	want := 0.3*(1-1/2.3) + 0.3*1.0 + 0.2*0.5 + 0.2*0.5
	assert.InDelta(t, want, got, 1e-12)
}

func TestScorer_MissingValuationIsNeutral(t *testing.T) {
	idea := &contracts.TradeIdea{ID: "i1", Action: contracts.ActionBuy, Symbol: "NOFUND", PassCount: 2, CriticCount: 3}

	s := NewScorer(&stubHistory{}, logger.NewNop())
	got, err := s.Score(context.Background(), idea, &contracts.SignalSet{}, scoringConfig())
	require.NoError(t, err)

	want := 0.3*0.5 + 0.3*(2.0/3.0) + 0.2*0.5 + 0.2*0.5
	assert.InDelta(t, want, got, 1e-12)
}

func TestScorer_MomentumAlignment(t *testing.T) {
	tests := []struct {
		name   string
		action contracts.Action
		class  contracts.MomentumClass
		want   float64
	}{
		{"buy with trend", contracts.ActionBuy, contracts.MomentumBullish, 1},
		{"buy against trend", contracts.ActionBuy, contracts.MomentumBearish, 0},
		{"sell with trend", contracts.ActionSell, contracts.MomentumBearish, 1},
		{"sell against trend", contracts.ActionSell, contracts.MomentumBullish, 0},
		{"neutral", contracts.ActionBuy, contracts.MomentumNeutral, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, momentumAlignment(tt.action, tt.class))
		})
	}
}

func TestScorer_HitRateNeutralUnderFiveSamples(t *testing.T) {
	hist := &stubHistory{recs: []contracts.Recommendation{
		executedRec(100), executedRec(200), executedRec(-50), executedRec(80),
	}}
	s := NewScorer(hist, logger.NewNop())

	assert.Equal(t, 0.5, s.hitRate(context.Background(), "akshay"))
}

func TestScorer_HitRateFromExecutedRecs(t *testing.T) {
	hist := &stubHistory{recs: []contracts.Recommendation{
		executedRec(100), executedRec(200), executedRec(-50),
		executedRec(80), executedRec(-10), executedRec(40),
		// Non-executed and unpriced rows are ignored.
		{Status: contracts.StatusApproved},
		{Status: contracts.StatusExecuted},
	}}
	s := NewScorer(hist, logger.NewNop())

	assert.InDelta(t, 4.0/6.0, s.hitRate(context.Background(), "akshay"), 1e-12)
}

func TestScorer_LedgerErrorFallsBackToNeutral(t *testing.T) {
	s := NewScorer(&stubHistory{err: errors.New("db down")}, logger.NewNop())

	assert.Equal(t, 0.5, s.hitRate(context.Background(), "akshay"))
}

func TestScorer_ConfidenceAlwaysInUnitInterval(t *testing.T) {
	s := NewScorer(&stubHistory{}, logger.NewNop())
	signals := &contracts.SignalSet{Signals: []contracts.Signal{
		{Subject: "X", Kind: contracts.SignalValuationZ, Value: math.Inf(1)},
		{Subject: "X", Kind: contracts.SignalMomentum, Class: string(contracts.MomentumBullish)},
	}}
	idea := &contracts.TradeIdea{ID: "x", Action: contracts.ActionBuy, Symbol: "X", PassCount: 3, CriticCount: 3}

	got, err := s.Score(context.Background(), idea, signals, scoringConfig())
	require.NoError(t, err)

	assert.GreaterOrEqual(t, got, 0.0)
	assert.LessOrEqual(t, got, 1.0)
}
