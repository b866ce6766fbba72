package scoring

import (
	"context"
	"math"
	"time"

	"github.com/akshayr/portfolio-coach/internal/contracts"
	"github.com/akshayr/portfolio-coach/pkg/logger"
)

// Term weights of the confidence formula.
const (
	weightValuation = 0.3
	weightCritics   = 0.3
	weightMomentum  = 0.2
	weightHitRate   = 0.2
)

// hitRateWindow is the trailing period of executed recommendations
// consulted for the historical term.
const hitRateWindow = 30 * 24 * time.Hour

// minHitRateSamples is the observation count below which the
// historical term stays at the neutral prior.
const minHitRateSamples = 5

// HistoryReader is the ledger slice the scorer needs.
type HistoryReader interface {
	RecommendationsSince(ctx context.Context, investorID string, since time.Time) ([]contracts.Recommendation, error)
}

// Scorer assigns the deterministic confidence score:
//
//	confidence = 0.3*z_val_norm + 0.3*critic_pass_rate +
//	             0.2*momentum_alignment + 0.2*historical_hit_rate
//
// with every term clamped to [0,1] before weighting.
type Scorer struct {
	history HistoryReader
	log     *logger.Logger
}

func NewScorer(history HistoryReader, log *logger.Logger) *Scorer {
	return &Scorer{
		history: history,
		log:     log.WithField("component", "scoring"),
	}
}

// Score implements contracts.ConfidenceScorer.
func (s *Scorer) Score(ctx context.Context, idea *contracts.TradeIdea, signals *contracts.SignalSet, cfg *contracts.RiskConfig) (float64, error) {
	zTerm := valuationTerm(idea, signals)
	criticTerm := clamp01(idea.PassRate())
	momentumTerm := momentumAlignment(idea.Action, signals.Momentum(idea.Symbol))
	hitTerm := s.hitRate(ctx, cfg.InvestorID)

	confidence := clamp01(weightValuation*zTerm +
		weightCritics*criticTerm +
		weightMomentum*momentumTerm +
		weightHitRate*hitTerm)

	s.log.WithFields(map[string]interface{}{
		"idea":       idea.ID,
		"valuation":  zTerm,
		"critics":    criticTerm,
		"momentum":   momentumTerm,
		"hit_rate":   hitTerm,
		"confidence": confidence,
	}).Debug("idea scored")

	return confidence, nil
}

// valuationTerm maps the z-score through a saturating function so
// stronger mispricing scores higher: 1 - 1/(1+|z|). A symbol with no
// valuation signal sits at the neutral 0.5, never at zero.
func valuationTerm(idea *contracts.TradeIdea, signals *contracts.SignalSet) float64 {
	z, ok := signals.ValuationZ(idea.Symbol)
	if !ok || math.IsNaN(z) {
		return 0.5
	}
	return clamp01(1 - 1/(1+math.Abs(z)))
}

// momentumAlignment rewards trading with the trend: a BUY into bullish
// momentum or a SELL into bearish momentum scores 1, trading against
// the trend scores 0, neutral momentum sits between.
func momentumAlignment(action contracts.Action, class contracts.MomentumClass) float64 {
	switch class {
	case contracts.MomentumBullish:
		if action == contracts.ActionBuy {
			return 1
		}
		return 0
	case contracts.MomentumBearish:
		if action == contracts.ActionSell {
			return 1
		}
		return 0
	default:
		return 0.5
	}
}

// hitRate reads the trailing executed recommendations and returns the
// fraction whose realized P&L confirmed the call. Sparse history (or an
// unavailable ledger) yields the neutral 0.5 prior.
func (s *Scorer) hitRate(ctx context.Context, investorID string) float64 {
	if s.history == nil {
		return 0.5
	}

	recs, err := s.history.RecommendationsSince(ctx, investorID, time.Now().Add(-hitRateWindow))
	if err != nil {
		s.log.WithError(err).Warn("ledger history unavailable, using neutral hit rate")
		return 0.5
	}

	var hits, total int
	for _, r := range recs {
		if r.Status != contracts.StatusExecuted || r.RealizedPnL == nil {
			continue
		}
		total++
		if *r.RealizedPnL > 0 {
			hits++
		}
	}
	if total < minHitRateSamples {
		return 0.5
	}
	return clamp01(float64(hits) / float64(total))
}

func clamp01(x float64) float64 {
	switch {
	case x < 0:
		return 0
	case x > 1:
		return 1
	}
	return x
}

var _ contracts.ConfidenceScorer = (*Scorer)(nil)
