package contracts

// RiskConfig is the user risk configuration consumed by the signal
// engine, risk gate and scorer. Assembled once per run from the loaded
// coach profile; stages treat it as read-only.
type RiskConfig struct {
	InvestorID  string
	RiskProfile string

	TargetEqWeight float64 // fraction of NAV targeted at equities
	RebalThreshold float64 // percent drift that flips a drift signal
	MaxDrawdown    float64
	StrategicBeta  float64

	CapFraction           float64 // position cap as fraction of total value
	CapitalGainsBudget    float64 // STCG budget as fraction of NAV
	LiquidityBufferMonths int
	MonthlyOutflow        float64
	ADVMultiple           float64

	MaxDailyIdeas int
	CriticCount   int

	// Optional per-sector target weights (percent). Sectors absent from
	// the map share the equity weight evenly.
	SectorTargets map[Sector]float64
}
