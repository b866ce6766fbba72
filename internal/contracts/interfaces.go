package contracts

import (
	"context"
	"time"
)

// SnapshotSource provides the current holdings and cash for an investor.
// Must tolerate an empty portfolio without error.
type SnapshotSource interface {
	Snapshot(ctx context.Context, investorID string) (*PortfolioSnapshot, error)
}

// MarketSource provides the market context for a run. A stale or missing
// single field becomes a nil quote, never a fetch failure.
type MarketSource interface {
	Context(ctx context.Context, asOf time.Time) (*MarketContext, error)
}

// SignalEngine computes per-holding and portfolio-level signals.
type SignalEngine interface {
	Build(ctx context.Context, snapshot *PortfolioSnapshot, market *MarketContext, cfg *RiskConfig) (*SignalSet, error)
}

// IdeaGenerator drafts at most MaxDailyIdeas candidate trades. A backend
// failure yields an empty list, never an error that aborts the run.
type IdeaGenerator interface {
	Generate(ctx context.Context, signals *SignalSet, snapshot *PortfolioSnapshot, market *MarketContext, cfg *RiskConfig) ([]TradeIdea, error)
}

// RiskGater applies the deterministic gates, resizing or rejecting
// ideas in place. Rejected ideas are returned too, carrying their
// rejection status and reason code for the ledger.
type RiskGater interface {
	Apply(ctx context.Context, ideas []TradeIdea, snapshot *PortfolioSnapshot, cfg *RiskConfig) ([]TradeIdea, error)
}

// Committee runs the independent critic votes over one idea and returns
// the aggregate votes. An erroring critic call counts as REJECT.
type Committee interface {
	Critique(ctx context.Context, idea *TradeIdea, snapshot *PortfolioSnapshot, cfg *RiskConfig) ([]CriticVote, error)
}

// ConfidenceScorer assigns the deterministic confidence score to an
// idea that survived gating.
type ConfidenceScorer interface {
	Score(ctx context.Context, idea *TradeIdea, signals *SignalSet, cfg *RiskConfig) (float64, error)
}

// ReportAssembler builds the final report from the full candidate set.
// Signals are consulted for the reviewed-no-action annotations.
type ReportAssembler interface {
	Build(ctx context.Context, runID string, ideas []TradeIdea, snapshot *PortfolioSnapshot, market *MarketContext, signals *SignalSet, perf *PerformanceSummary, cfg *RiskConfig) (*Report, error)
}

// Ledger persists every candidate with its lifecycle status and serves
// the historical reads used for the hit-rate term.
type Ledger interface {
	SaveRecommendations(ctx context.Context, recs []Recommendation) error
	RecommendationsSince(ctx context.Context, investorID string, since time.Time) ([]Recommendation, error)
	RecommendationsByDate(ctx context.Context, investorID string, date time.Time) ([]Recommendation, error)
	UpdateStatus(ctx context.Context, id int64, status Status, executionPrice *float64) error
	SaveHistory(ctx context.Context, row *PortfolioHistory) error
	HistorySince(ctx context.Context, investorID string, since time.Time) ([]PortfolioHistory, error)
}

// TextGenerator is the message-passing boundary to any LLM-style
// backend. The pipeline treats it purely as a function with latency and
// failure modes and never inspects vendor metadata. Injectable and
// stubbable for tests.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string, temperature float64, maxTokens int) (string, error)
}

// SectorLookup classifies symbols. Backed by a configuration table so
// new symbols never require a code change; unknown symbols map to
// SectorOther.
type SectorLookup interface {
	SectorOf(symbol string) Sector
}

// ReportSink accepts a finished report for delivery. Delivery transport
// (mail, chat) is out of the pipeline's scope.
type ReportSink interface {
	Deliver(ctx context.Context, report *Report) error
}
