package contracts

import "time"

// ConfidenceBand colors a confidence score for the report.
type ConfidenceBand string

const (
	BandGreen ConfidenceBand = "green" // >= 0.75
	BandAmber ConfidenceBand = "amber" // 0.60 – 0.74
	BandRed   ConfidenceBand = "red"   // < 0.60
)

// BandFor assigns the confidence band for a score. Pure and
// deterministic; red ideas are flagged in the report, never dropped.
func BandFor(confidence float64) ConfidenceBand {
	switch {
	case confidence >= 0.75:
		return BandGreen
	case confidence >= 0.60:
		return BandAmber
	default:
		return BandRed
	}
}

// OrderIntent is one entry of the machine-readable order block, suitable
// for mechanical translation into a GTT-style broker order payload.
// Advisory only, never auto-submitted.
type OrderIntent struct {
	TransactionType string  `json:"transaction_type"` // BUY | SELL
	InstrumentToken string  `json:"instrument_token"` // e.g. NSE_EQ|TCS
	Quantity        float64 `json:"quantity"`
	Product         string  `json:"product"` // "I"
	Price           float64 `json:"price"`
}

// PortfolioSummary is the headline block of the report.
type PortfolioSummary struct {
	TotalValue   float64 `json:"total_value"`
	TotalPnL     float64 `json:"total_pnl"`
	HoldingCount int     `json:"holding_count"`
	CashBalance  float64 `json:"cash_balance"`
}

// PerformanceSummary is the historical-performance block, produced by
// the audit analyzer from prior runs.
type PerformanceSummary struct {
	PortfolioReturn  float64 `json:"portfolio_return"`
	BenchmarkReturn  float64 `json:"benchmark_return"`
	Alpha            float64 `json:"alpha"`
	WinRate          float64 `json:"win_rate"`
	TotalTrades      int     `json:"total_trades"`
	ProfitableTrades int     `json:"profitable_trades"`
	NewPositions     int     `json:"new_positions"`
	ExitedPositions  int     `json:"exited_positions"`
	ResizedPositions int     `json:"resized_positions"`
}

// ReviewedSymbol is a read-only "reviewed, no action" annotation. It is
// not a TradeIdea and never reaches the ledger as one.
type ReviewedSymbol struct {
	Symbol string `json:"symbol"`
	Note   string `json:"note"`
}

// Report is the finished output of a daily run. A run with zero approved
// ideas still produces a complete report.
type Report struct {
	RunID       string    `json:"run_id"`
	InvestorID  string    `json:"investor_id"`
	GeneratedAt time.Time `json:"generated_at"`
	RunDate     time.Time `json:"run_date"`

	Summary     PortfolioSummary    `json:"summary"`
	Market      *MarketContext      `json:"market"`
	Ideas       []TradeIdea         `json:"ideas"` // approved, sorted by confidence desc
	Intents     []OrderIntent       `json:"order_intents"`
	Reviewed    []ReviewedSymbol    `json:"reviewed,omitempty"`
	Performance *PerformanceSummary `json:"performance,omitempty"`

	RiskBanner string `json:"risk_banner,omitempty"` // set when drawdown nears the limit
	Markdown   string `json:"markdown"`
}

// Empty reports whether the run produced no actionable ideas.
func (r *Report) Empty() bool {
	return len(r.Ideas) == 0
}
