package audit

import (
	"context"
	"math"
	"time"

	"github.com/akshayr/portfolio-coach/internal/contracts"
	"github.com/akshayr/portfolio-coach/pkg/logger"
)

// analysisWindow is the trailing period the performance block covers.
const analysisWindow = 30 * 24 * time.Hour

// LedgerReader is the ledger slice the analyzer consumes.
type LedgerReader interface {
	RecommendationsSince(ctx context.Context, investorID string, since time.Time) ([]contracts.Recommendation, error)
	HistorySince(ctx context.Context, investorID string, since time.Time) ([]contracts.PortfolioHistory, error)
}

// BenchmarkReader serves stored market context rows for benchmark
// returns.
type BenchmarkReader interface {
	ContextHistory(ctx context.Context, since time.Time) ([]contracts.MarketContext, error)
}

// Analyzer produces the trailing performance summary for the report:
// portfolio return against the domestic index, executed-trade win rate
// and position change counts. Every input is optional; whatever is
// missing just blanks the affected figures.
type Analyzer struct {
	ledger    LedgerReader
	benchmark BenchmarkReader
	log       *logger.Logger
}

func NewAnalyzer(ledger LedgerReader, benchmark BenchmarkReader, log *logger.Logger) *Analyzer {
	return &Analyzer{
		ledger:    ledger,
		benchmark: benchmark,
		log:       log.WithField("component", "audit"),
	}
}

// Analyze builds the performance summary for the trailing window.
// Returns nil when there is no history at all to report on.
func (a *Analyzer) Analyze(ctx context.Context, investorID string, snapshot *contracts.PortfolioSnapshot) (*contracts.PerformanceSummary, error) {
	since := time.Now().Add(-analysisWindow)

	history, err := a.ledger.HistorySince(ctx, investorID, since)
	if err != nil {
		a.log.WithError(err).Warn("portfolio history unavailable, skipping performance block")
		return nil, nil
	}
	if len(history) < 2 {
		return nil, nil
	}

	summary := &contracts.PerformanceSummary{
		PortfolioReturn: periodReturn(nav(history[0]), nav(history[len(history)-1])),
	}
	summary.BenchmarkReturn = a.benchmarkReturn(ctx, since)
	summary.Alpha = summary.PortfolioReturn - summary.BenchmarkReturn

	a.fillTradeStats(ctx, investorID, since, snapshot, summary)

	return summary, nil
}

func nav(row contracts.PortfolioHistory) float64 {
	return row.TotalValue + row.CashBalance
}

func periodReturn(first, last float64) float64 {
	if first == 0 {
		return 0
	}
	return (last/first - 1) * 100
}

func (a *Analyzer) benchmarkReturn(ctx context.Context, since time.Time) float64 {
	if a.benchmark == nil {
		return 0
	}
	rows, err := a.benchmark.ContextHistory(ctx, since)
	if err != nil {
		a.log.WithError(err).Warn("benchmark history unavailable")
		return 0
	}

	var first, last float64
	for _, mc := range rows {
		if mc.DomesticIndex == nil {
			continue
		}
		if first == 0 {
			first = mc.DomesticIndex.Level
		}
		last = mc.DomesticIndex.Level
	}
	return periodReturn(first, last)
}

// fillTradeStats derives win rate and position change counts from the
// window's executed recommendations against the current book.
func (a *Analyzer) fillTradeStats(ctx context.Context, investorID string, since time.Time, snapshot *contracts.PortfolioSnapshot, summary *contracts.PerformanceSummary) {
	recs, err := a.ledger.RecommendationsSince(ctx, investorID, since)
	if err != nil {
		a.log.WithError(err).Warn("recommendation history unavailable")
		return
	}

	for _, rec := range recs {
		if rec.Status != contracts.StatusExecuted {
			continue
		}
		summary.TotalTrades++
		if rec.RealizedPnL != nil && *rec.RealizedPnL > 0 {
			summary.ProfitableTrades++
		}

		held := false
		if snapshot != nil {
			_, held = snapshot.HoldingFor(rec.Symbol)
		}
		switch rec.Action {
		case contracts.ActionBuy:
			if held {
				summary.ResizedPositions++
			} else {
				summary.NewPositions++
			}
		case contracts.ActionSell:
			if held {
				summary.ResizedPositions++
			} else {
				summary.ExitedPositions++
			}
		}
	}

	if summary.TotalTrades > 0 {
		summary.WinRate = float64(summary.ProfitableTrades) / float64(summary.TotalTrades)
	}
}

// SharpeRatio computes the annualized Sharpe ratio from a daily NAV
// series, zero for degenerate inputs. Risk-free rate is ignored; the
// figure is only used for relative tracking.
func SharpeRatio(history []contracts.PortfolioHistory) float64 {
	if len(history) < 3 {
		return 0
	}
	returns := make([]float64, 0, len(history)-1)
	for i := 1; i < len(history); i++ {
		prev := nav(history[i-1])
		if prev == 0 {
			continue
		}
		returns = append(returns, nav(history[i])/prev-1)
	}
	if len(returns) < 2 {
		return 0
	}

	var sum float64
	for _, r := range returns {
		sum += r
	}
	m := sum / float64(len(returns))

	var sq float64
	for _, r := range returns {
		sq += (r - m) * (r - m)
	}
	sd := math.Sqrt(sq / float64(len(returns)))
	if sd == 0 {
		return 0
	}
	return m / sd * math.Sqrt(252)
}
