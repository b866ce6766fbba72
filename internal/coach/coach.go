package coach

import (
	"context"
	"fmt"
	"time"

	"github.com/akshayr/portfolio-coach/internal/audit"
	"github.com/akshayr/portfolio-coach/internal/contracts"
	"github.com/akshayr/portfolio-coach/pkg/logger"
)

// PerformanceSource produces the optional performance block.
type PerformanceSource interface {
	Analyze(ctx context.Context, investorID string, snapshot *contracts.PortfolioSnapshot) (*contracts.PerformanceSummary, error)
}

// ContextStore persists the day's market context for later audits.
type ContextStore interface {
	SaveContext(ctx context.Context, mc *contracts.MarketContext) error
}

// MetricsStore persists the day's performance metrics.
type MetricsStore interface {
	SaveMetrics(ctx context.Context, row *audit.MetricsRow) error
}

// Coach runs the strict linear daily pipeline: snapshot and market
// context, signals, idea generation, risk gates, critic committee,
// confidence scoring, report, ledger write. Stages degrade per their
// own policies; only persistence failures and configuration errors
// abort a run.
type Coach struct {
	snapshots contracts.SnapshotSource
	market    contracts.MarketSource
	signals   contracts.SignalEngine
	ideas     contracts.IdeaGenerator
	gate      contracts.RiskGater
	committee contracts.Committee
	scorer    contracts.ConfidenceScorer
	reporter  contracts.ReportAssembler
	ledger    contracts.Ledger

	// Optional collaborators; nil disables the concern.
	performance  PerformanceSource
	contextStore ContextStore
	metrics      MetricsStore
	sink         contracts.ReportSink

	cfg *contracts.RiskConfig
	log *logger.Logger
}

// Deps bundles the pipeline collaborators for construction.
type Deps struct {
	Snapshots contracts.SnapshotSource
	Market    contracts.MarketSource
	Signals   contracts.SignalEngine
	Ideas     contracts.IdeaGenerator
	Gate      contracts.RiskGater
	Committee contracts.Committee
	Scorer    contracts.ConfidenceScorer
	Reporter  contracts.ReportAssembler
	Ledger    contracts.Ledger

	Performance  PerformanceSource
	ContextStore ContextStore
	Metrics      MetricsStore
	Sink         contracts.ReportSink
}

func New(deps Deps, cfg *contracts.RiskConfig, log *logger.Logger) *Coach {
	return &Coach{
		snapshots:    deps.Snapshots,
		market:       deps.Market,
		signals:      deps.Signals,
		ideas:        deps.Ideas,
		gate:         deps.Gate,
		committee:    deps.Committee,
		scorer:       deps.Scorer,
		reporter:     deps.Reporter,
		ledger:       deps.Ledger,
		performance:  deps.Performance,
		contextStore: deps.ContextStore,
		metrics:      deps.Metrics,
		sink:         deps.Sink,
		cfg:          cfg,
		log:          log.WithField("component", "coach"),
	}
}

// Run executes one daily decision run. In dry-run mode the full
// pipeline executes but nothing is persisted and the sink is never
// invoked. A ledger write failure aborts the run without delivering a
// report: unaudited recommendations must not go out.
func (c *Coach) Run(ctx context.Context, runDate time.Time, dryRun bool) (*contracts.Report, error) {
	runID := fmt.Sprintf("%s-%s", runDate.Format("20060102"), c.cfg.InvestorID)
	log := c.log.WithFields(map[string]interface{}{"run_id": runID, "dry_run": dryRun})
	log.Info("daily run started")

	snapshot, err := c.snapshots.Snapshot(ctx, c.cfg.InvestorID)
	if err != nil {
		return nil, fmt.Errorf("build snapshot: %w", err)
	}

	market, err := c.market.Context(ctx, runDate)
	if err != nil {
		return nil, fmt.Errorf("build market context: %w", err)
	}
	if c.contextStore != nil && !dryRun {
		if err := c.contextStore.SaveContext(ctx, market); err != nil {
			log.WithError(err).Warn("failed to persist market context")
		}
	}

	signals, err := c.signals.Build(ctx, snapshot, market, c.cfg)
	if err != nil {
		return nil, fmt.Errorf("build signals: %w", err)
	}

	candidates, err := c.ideas.Generate(ctx, signals, snapshot, market, c.cfg)
	if err != nil {
		return nil, fmt.Errorf("generate ideas: %w", err)
	}

	gated, err := c.gate.Apply(ctx, candidates, snapshot, c.cfg)
	if err != nil {
		return nil, fmt.Errorf("apply risk gates: %w", err)
	}

	judged := c.runCommittee(ctx, gated, snapshot)
	c.scoreApproved(ctx, judged, signals)

	var perf *contracts.PerformanceSummary
	if c.performance != nil {
		if perf, err = c.performance.Analyze(ctx, c.cfg.InvestorID, snapshot); err != nil {
			log.WithError(err).Warn("performance analysis failed, omitting block")
			perf = nil
		}
	}

	report, err := c.reporter.Build(ctx, runID, judged, snapshot, market, signals, perf, c.cfg)
	if err != nil {
		return nil, fmt.Errorf("build report: %w", err)
	}

	if dryRun {
		log.Info("dry run complete, nothing persisted")
		return report, nil
	}

	if err := c.persist(ctx, runDate, judged, snapshot, perf); err != nil {
		// Fatal by design: no report goes out without its audit trail.
		return nil, err
	}

	if c.sink != nil {
		if err := c.sink.Deliver(ctx, report); err != nil {
			log.WithError(err).Error("report delivery failed")
		}
	}

	log.WithFields(map[string]interface{}{
		"candidates": len(candidates),
		"approved":   len(report.Ideas),
	}).Info("daily run complete")

	return report, nil
}

// runCommittee votes on every idea that survived the risk gates and
// applies the majority rule. Already-rejected ideas pass through
// untouched so the ledger records them.
func (c *Coach) runCommittee(ctx context.Context, ideas []contracts.TradeIdea, snapshot *contracts.PortfolioSnapshot) []contracts.TradeIdea {
	out := make([]contracts.TradeIdea, 0, len(ideas))
	for _, idea := range ideas {
		if idea.Status != contracts.StatusDrafted {
			out = append(out, idea)
			continue
		}

		votes, err := c.committee.Critique(ctx, &idea, snapshot, c.cfg)
		if err != nil {
			// Treated like an all-reject committee: fail closed.
			c.log.WithError(err).WithField("idea", idea.ID).Warn("committee failed, rejecting idea")
			votes = nil
		}

		idea.CriticCount = c.cfg.CriticCount
		idea.PassCount = 0
		for _, v := range votes {
			if v.Verdict == contracts.VerdictPass {
				idea.PassCount++
			}
		}

		if idea.PassCount >= contracts.MajorityThreshold(idea.CriticCount) {
			idea.Status = contracts.StatusApproved
		} else {
			idea.Status = contracts.StatusCriticRejected
			idea.ReasonCode = contracts.ReasonCriticMajority
		}
		out = append(out, idea)
	}
	return out
}

// scoreApproved assigns confidence to approved ideas in place.
func (c *Coach) scoreApproved(ctx context.Context, ideas []contracts.TradeIdea, signals *contracts.SignalSet) {
	for i := range ideas {
		if ideas[i].Status != contracts.StatusApproved {
			continue
		}
		confidence, err := c.scorer.Score(ctx, &ideas[i], signals, c.cfg)
		if err != nil {
			c.log.WithError(err).WithField("idea", ideas[i].ID).Warn("scoring failed, leaving idea unscored")
			continue
		}
		ideas[i].Confidence = confidence
		ideas[i].Scored = true
	}
}

// persist writes the run's audit trail: every candidate with its final
// status, the daily portfolio row, and the performance metrics.
func (c *Coach) persist(ctx context.Context, runDate time.Time, ideas []contracts.TradeIdea, snapshot *contracts.PortfolioSnapshot, perf *contracts.PerformanceSummary) error {
	recs := make([]contracts.Recommendation, 0, len(ideas))
	for i := range ideas {
		recs = append(recs, contracts.FromIdea(c.cfg.InvestorID, runDate, &ideas[i]))
	}
	if err := c.ledger.SaveRecommendations(ctx, recs); err != nil {
		return fmt.Errorf("persist recommendations: %w", err)
	}

	history := &contracts.PortfolioHistory{
		InvestorID:   c.cfg.InvestorID,
		Date:         runDate,
		TotalValue:   snapshot.TotalValue(),
		TotalPnL:     snapshot.TotalPnL(),
		HoldingCount: len(snapshot.Holdings),
		CashBalance:  snapshot.CashAvailable,
	}
	if err := c.ledger.SaveHistory(ctx, history); err != nil {
		return fmt.Errorf("persist portfolio history: %w", err)
	}

	if c.metrics != nil && perf != nil {
		row := &audit.MetricsRow{
			InvestorID:       c.cfg.InvestorID,
			Date:             runDate,
			PortfolioReturn:  perf.PortfolioReturn,
			BenchmarkReturn:  perf.BenchmarkReturn,
			Alpha:            perf.Alpha,
			WinRate:          perf.WinRate,
			TotalTrades:      perf.TotalTrades,
			ProfitableTrades: perf.ProfitableTrades,
		}
		if err := c.metrics.SaveMetrics(ctx, row); err != nil {
			c.log.WithError(err).Warn("failed to persist performance metrics")
		}
	}

	return nil
}
