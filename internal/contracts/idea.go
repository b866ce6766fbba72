package contracts

import "fmt"

// Action is the direction of a trade idea. HOLD is deliberately not
// representable: a no-action view is the absence of an idea, not an idea
// variant, so the lifecycle state machine stays well-defined.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
)

// Valid reports whether a is a representable action.
func (a Action) Valid() bool {
	return a == ActionBuy || a == ActionSell
}

// Status is the recommendation lifecycle state.
//
//	DRAFTED → (RISK_REJECTED | CRITIC_REJECTED | APPROVED)
//	APPROVED → (EXECUTED | EXPIRED | CANCELLED)
//
// The pipeline never transitions an idea past APPROVED; the terminal
// post-approval states belong to the reconciliation process that watches
// broker fills.
type Status string

const (
	StatusDrafted        Status = "DRAFTED"
	StatusRiskRejected   Status = "RISK_REJECTED"
	StatusCriticRejected Status = "CRITIC_REJECTED"
	StatusApproved       Status = "APPROVED"
	StatusExecuted       Status = "EXECUTED"
	StatusExpired        Status = "EXPIRED"
	StatusCancelled      Status = "CANCELLED"
)

// CanTransition reports whether moving from s to next is a legal
// lifecycle transition.
func (s Status) CanTransition(next Status) bool {
	switch s {
	case StatusDrafted:
		return next == StatusRiskRejected || next == StatusCriticRejected || next == StatusApproved
	case StatusApproved:
		return next == StatusExecuted || next == StatusExpired || next == StatusCancelled
	default:
		return false
	}
}

// Terminal reports whether no further transitions are possible.
func (s Status) Terminal() bool {
	switch s {
	case StatusRiskRejected, StatusCriticRejected, StatusExecuted, StatusExpired, StatusCancelled:
		return true
	}
	return false
}

// Rejection reason codes recorded by the risk gate.
const (
	ReasonPositionCap     = "POSITION_CAP"
	ReasonLiquidity       = "LIQUIDITY"
	ReasonTaxBudget       = "TAX_BUDGET"
	ReasonLiquidityBuffer = "LIQUIDITY_BUFFER"
	ReasonCriticMajority  = "CRITIC_MAJORITY"
)

// TradeIdea is a candidate action tracked through the pipeline: created
// by the idea generator, resized or rejected by the risk gate, annotated
// by the critic committee and the confidence scorer, then owned by the
// ledger. An idea belongs to exactly one run.
type TradeIdea struct {
	ID         string  `json:"id"`
	Action     Action  `json:"action"`
	Symbol     string  `json:"symbol"`
	Quantity   float64 `json:"quantity"`    // magnitude, always > 0
	LimitPrice float64 `json:"limit_price"` // > 0
	Rationale  string  `json:"rationale"`

	Status     Status `json:"status"`
	ReasonCode string `json:"reason_code,omitempty"`

	// Critic annotation
	PassCount   int `json:"pass_count"`
	CriticCount int `json:"critic_count"`

	// Populated only after scoring; Scored distinguishes a real 0 from unset.
	Confidence float64 `json:"confidence"`
	Scored     bool    `json:"scored"`
}

// Notional returns the absolute trade value of the idea.
func (t *TradeIdea) Notional() float64 {
	return t.Quantity * t.LimitPrice
}

// PassRate returns the critic pass fraction, 0 when no critics ran.
func (t *TradeIdea) PassRate() float64 {
	if t.CriticCount == 0 {
		return 0
	}
	return float64(t.PassCount) / float64(t.CriticCount)
}

// Validate checks the structural invariants of a drafted idea.
func (t *TradeIdea) Validate() error {
	if !t.Action.Valid() {
		return fmt.Errorf("invalid action %q", t.Action)
	}
	if t.Symbol == "" {
		return fmt.Errorf("empty symbol")
	}
	if t.Quantity <= 0 {
		return fmt.Errorf("quantity must be positive, got %v", t.Quantity)
	}
	if t.LimitPrice <= 0 {
		return fmt.Errorf("limit price must be positive, got %v", t.LimitPrice)
	}
	return nil
}

// Verdict is a critic's judgement on one idea.
type Verdict string

const (
	VerdictPass   Verdict = "PASS"
	VerdictReject Verdict = "REJECT"
)

// CriticVote is one committee member's vote. Ephemeral: only the
// aggregate pass count survives the run.
type CriticVote struct {
	IdeaID      string  `json:"idea_id"`
	Verdict     Verdict `json:"verdict"`
	CriticIndex int     `json:"critic_index"`
	Reason      string  `json:"reason,omitempty"`
}

// MajorityThreshold returns the pass count required for approval with n
// critics: ceil((n+1)/2). With even n a tie falls below the threshold,
// so ties reject.
func MajorityThreshold(n int) int {
	return (n + 2) / 2
}
