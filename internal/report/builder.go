package report

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/akshayr/portfolio-coach/internal/contracts"
	"github.com/akshayr/portfolio-coach/pkg/logger"
)

// drawdownWarnFraction of the configured max drawdown at which the
// risk banner is prepended to the report.
const drawdownWarnFraction = 0.8

// drawdownLookback bounds the peak search window.
const drawdownLookback = 365 * 24 * time.Hour

// HistoryReader serves the daily portfolio record for drawdown
// computation.
type HistoryReader interface {
	HistorySince(ctx context.Context, investorID string, since time.Time) ([]contracts.PortfolioHistory, error)
}

// Builder assembles the final run report. Deterministic: approved ideas
// sorted by confidence descending with ties broken by absolute notional
// descending, reviewed-no-action annotations derived from breached
// signals, an order-intent entry per approved idea. A run with zero
// approved ideas still yields a complete report.
type Builder struct {
	history HistoryReader
	log     *logger.Logger
}

func NewBuilder(history HistoryReader, log *logger.Logger) *Builder {
	return &Builder{
		history: history,
		log:     log.WithField("component", "report"),
	}
}

// Build implements contracts.ReportAssembler.
func (b *Builder) Build(ctx context.Context, runID string, ideas []contracts.TradeIdea, snapshot *contracts.PortfolioSnapshot, market *contracts.MarketContext, signals *contracts.SignalSet, perf *contracts.PerformanceSummary, cfg *contracts.RiskConfig) (*contracts.Report, error) {
	approved := make([]contracts.TradeIdea, 0, len(ideas))
	for _, idea := range ideas {
		if idea.Status == contracts.StatusApproved {
			approved = append(approved, idea)
		}
	}
	sort.SliceStable(approved, func(i, j int) bool {
		if approved[i].Confidence != approved[j].Confidence {
			return approved[i].Confidence > approved[j].Confidence
		}
		return approved[i].Notional() > approved[j].Notional()
	})

	rpt := &contracts.Report{
		RunID:       runID,
		InvestorID:  snapshot.InvestorID,
		GeneratedAt: time.Now(),
		RunDate:     snapshot.AsOf,
		Summary: contracts.PortfolioSummary{
			TotalValue:   snapshot.TotalValue(),
			TotalPnL:     snapshot.TotalPnL(),
			HoldingCount: len(snapshot.Holdings),
			CashBalance:  snapshot.CashAvailable,
		},
		Market:      market,
		Ideas:       approved,
		Intents:     orderIntents(approved, snapshot),
		Reviewed:    reviewedSymbols(ideas, snapshot, signals),
		Performance: perf,
	}

	if banner := b.riskBanner(ctx, snapshot, cfg); banner != "" {
		rpt.RiskBanner = banner
	}

	rpt.Markdown = renderMarkdown(rpt)

	b.log.WithFields(map[string]interface{}{
		"run_id":   runID,
		"approved": len(approved),
		"reviewed": len(rpt.Reviewed),
		"banner":   rpt.RiskBanner != "",
	}).Info("report built")

	return rpt, nil
}

// orderIntents emits one GTT-style entry per approved idea, suitable
// for mechanical translation into a broker order payload. Advisory
// only, never auto-submitted.
func orderIntents(approved []contracts.TradeIdea, snapshot *contracts.PortfolioSnapshot) []contracts.OrderIntent {
	intents := make([]contracts.OrderIntent, 0, len(approved))
	for _, idea := range approved {
		token := "NSE_EQ|" + idea.Symbol
		if h, ok := snapshot.HoldingFor(idea.Symbol); ok && h.InstrumentToken != "" {
			token = h.InstrumentToken
		}
		intents = append(intents, contracts.OrderIntent{
			TransactionType: string(idea.Action),
			InstrumentToken: token,
			Quantity:        idea.Quantity,
			Product:         "I",
			Price:           idea.LimitPrice,
		})
	}
	return intents
}

// reviewedSymbols lists held symbols whose signals breached but which
// ended the run with no surviving idea. Read-only annotation; these
// never become ledger rows.
func reviewedSymbols(ideas []contracts.TradeIdea, snapshot *contracts.PortfolioSnapshot, signals *contracts.SignalSet) []contracts.ReviewedSymbol {
	if signals == nil {
		return nil
	}

	hasIdea := make(map[string]bool, len(ideas))
	for _, idea := range ideas {
		if idea.Status == contracts.StatusApproved {
			hasIdea[idea.Symbol] = true
		}
	}

	reviewed := make([]contracts.ReviewedSymbol, 0)
	seen := make(map[string]bool)
	for _, sig := range signals.Breached() {
		if sig.Subject == contracts.SubjectPortfolio || seen[sig.Subject] || hasIdea[sig.Subject] {
			continue
		}
		if _, held := snapshot.HoldingFor(sig.Subject); !held {
			continue
		}
		seen[sig.Subject] = true
		reviewed = append(reviewed, contracts.ReviewedSymbol{
			Symbol: sig.Subject,
			Note:   fmt.Sprintf("%s signal breached (%.2f), no action taken", sig.Kind, sig.Value),
		})
	}
	sort.Slice(reviewed, func(i, j int) bool { return reviewed[i].Symbol < reviewed[j].Symbol })
	return reviewed
}

// riskBanner warns when unrealized P&L already consumes most of the
// drawdown tolerance, or when the NAV sits deep below its trailing
// peak. The P&L check needs no stored history, so a fresh deployment
// still gets the warning. Unavailable history only omits the peak
// check.
func (b *Builder) riskBanner(ctx context.Context, snapshot *contracts.PortfolioSnapshot, cfg *contracts.RiskConfig) string {
	if cfg.MaxDrawdown <= 0 {
		return ""
	}

	if total := snapshot.TotalValue(); total > 0 {
		ratio := math.Abs(snapshot.TotalPnL()) / total
		if ratio > drawdownWarnFraction*cfg.MaxDrawdown {
			return fmt.Sprintf("RISK ALERT: current drawdown (%.1f%%) is approaching the %.0f%% maximum drawdown tolerance. Review position sizes before acting on any idea below.",
				ratio*100, cfg.MaxDrawdown*100)
		}
	}

	if b.history == nil {
		return ""
	}

	rows, err := b.history.HistorySince(ctx, snapshot.InvestorID, time.Now().Add(-drawdownLookback))
	if err != nil {
		b.log.WithError(err).Warn("portfolio history unavailable, skipping risk banner")
		return ""
	}

	var peak float64
	for _, row := range rows {
		nav := row.TotalValue + row.CashBalance
		if nav > peak {
			peak = nav
		}
	}
	current := snapshot.NAV()
	if current > peak {
		peak = current
	}
	if peak <= 0 {
		return ""
	}

	drawdown := (peak - current) / peak
	if drawdown > drawdownWarnFraction*cfg.MaxDrawdown {
		return fmt.Sprintf("RISK ALERT: portfolio is %.1f%% below its trailing peak, approaching the %.0f%% maximum drawdown tolerance. Review position sizes before acting on any idea below.",
			drawdown*100, cfg.MaxDrawdown*100)
	}
	return ""
}

var _ contracts.ReportAssembler = (*Builder)(nil)
