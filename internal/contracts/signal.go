package contracts

// SignalKind identifies the metric a Signal carries.
type SignalKind string

const (
	SignalDrift      SignalKind = "drift"
	SignalValuationZ SignalKind = "valuation_z"
	SignalMomentum   SignalKind = "momentum"
	SignalBeta       SignalKind = "beta"
	SignalMacro      SignalKind = "macro_regime"
)

// SubjectPortfolio is the subject of portfolio-level signals.
const SubjectPortfolio = "PORTFOLIO"

// MomentumClass buckets the 50d/200d moving-average relationship.
type MomentumClass string

const (
	MomentumBullish MomentumClass = "bullish"
	MomentumNeutral MomentumClass = "neutral"
	MomentumBearish MomentumClass = "bearish"
)

// MacroRegime is a coarse market-condition categorical. It biases the
// idea generator prompt and never gates trades directly.
type MacroRegime string

const (
	RegimeRiskOn  MacroRegime = "risk_on"
	RegimeNeutral MacroRegime = "neutral"
	RegimeRiskOff MacroRegime = "risk_off"
)

// Signal is a per-holding or portfolio-level computed metric.
// Pure derived data, never mutated after computation, consumed only
// within the run that produced it.
type Signal struct {
	Subject           string     `json:"subject"` // symbol or SubjectPortfolio
	Kind              SignalKind `json:"kind"`
	Value             float64    `json:"value"`
	ThresholdBreached bool       `json:"threshold_breached"`
	Class             string     `json:"class,omitempty"` // momentum class or macro regime
}

// SignalSet is the ordered output of one signal engine run with lookup
// helpers for downstream stages.
type SignalSet struct {
	Signals []Signal `json:"signals"`
}

// ValuationZ returns the valuation z-score for a symbol. The second
// return is false when the symbol has no valuation signal (missing
// fundamentals or a degenerate peer group); callers treat that as
// neutral, never as zero.
func (s *SignalSet) ValuationZ(symbol string) (float64, bool) {
	for _, sig := range s.Signals {
		if sig.Kind == SignalValuationZ && sig.Subject == symbol {
			return sig.Value, true
		}
	}
	return 0, false
}

// Momentum returns the momentum class for a symbol, defaulting to neutral.
func (s *SignalSet) Momentum(symbol string) MomentumClass {
	for _, sig := range s.Signals {
		if sig.Kind == SignalMomentum && sig.Subject == symbol {
			return MomentumClass(sig.Class)
		}
	}
	return MomentumNeutral
}

// Regime returns the portfolio-level macro regime, defaulting to neutral.
func (s *SignalSet) Regime() MacroRegime {
	for _, sig := range s.Signals {
		if sig.Kind == SignalMacro && sig.Subject == SubjectPortfolio {
			return MacroRegime(sig.Class)
		}
	}
	return RegimeNeutral
}

// Breached returns every signal whose threshold was crossed.
func (s *SignalSet) Breached() []Signal {
	breached := make([]Signal, 0)
	for _, sig := range s.Signals {
		if sig.ThresholdBreached {
			breached = append(breached, sig)
		}
	}
	return breached
}
