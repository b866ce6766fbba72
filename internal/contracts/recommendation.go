package contracts

import "time"

// Recommendation is the persisted form of a TradeIdea. Every candidate
// is persisted, not just survivors; rows are never deleted, only
// status-updated, since the audit trail is the safety mechanism for
// advisory-only guidance.
type Recommendation struct {
	ID         int64     `json:"id"`
	InvestorID string    `json:"investor_id"`
	RunDate    time.Time `json:"run_date"`

	Action     Action  `json:"action"`
	Symbol     string  `json:"symbol"`
	Quantity   float64 `json:"quantity"`
	LimitPrice float64 `json:"limit_price"`
	Rationale  string  `json:"rationale"`

	Status     Status `json:"status"`
	ReasonCode string `json:"reason_code,omitempty"`

	PassCount   int     `json:"pass_count"`
	CriticCount int     `json:"critic_count"`
	Confidence  float64 `json:"confidence"`
	Scored      bool    `json:"scored"`

	// Filled in by the out-of-scope reconciliation process.
	ExecutionPrice *float64   `json:"execution_price,omitempty"`
	ExecutionDate  *time.Time `json:"execution_date,omitempty"`
	RealizedPnL    *float64   `json:"realized_pnl,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ToIdea reconstructs the TradeIdea a persisted recommendation came from.
func (r *Recommendation) ToIdea() TradeIdea {
	return TradeIdea{
		ID:          recommendationIdeaID(r),
		Action:      r.Action,
		Symbol:      r.Symbol,
		Quantity:    r.Quantity,
		LimitPrice:  r.LimitPrice,
		Rationale:   r.Rationale,
		Status:      r.Status,
		ReasonCode:  r.ReasonCode,
		PassCount:   r.PassCount,
		CriticCount: r.CriticCount,
		Confidence:  r.Confidence,
		Scored:      r.Scored,
	}
}

func recommendationIdeaID(r *Recommendation) string {
	return r.RunDate.Format("20060102") + "_" + r.Symbol + "_" + string(r.Action)
}

// FromIdea builds a ledger row from a pipeline idea.
func FromIdea(investorID string, runDate time.Time, idea *TradeIdea) Recommendation {
	return Recommendation{
		InvestorID:  investorID,
		RunDate:     runDate,
		Action:      idea.Action,
		Symbol:      idea.Symbol,
		Quantity:    idea.Quantity,
		LimitPrice:  idea.LimitPrice,
		Rationale:   idea.Rationale,
		Status:      idea.Status,
		ReasonCode:  idea.ReasonCode,
		PassCount:   idea.PassCount,
		CriticCount: idea.CriticCount,
		Confidence:  idea.Confidence,
		Scored:      idea.Scored,
	}
}
