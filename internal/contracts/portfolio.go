package contracts

import "time"

// Holding is a single position in the investor's portfolio.
type Holding struct {
	Symbol          string  `json:"symbol"`
	Quantity        float64 `json:"quantity"` // >= 0
	AvgCost         float64 `json:"avg_cost"`
	LastPrice       float64 `json:"last_price"`
	Sector          Sector  `json:"sector"`
	InstrumentToken string  `json:"instrument_token,omitempty"`
	AcquiredAt      time.Time `json:"acquired_at,omitempty"` // for STCG classification
}

// Value returns the current market value of the holding.
func (h Holding) Value() float64 {
	return h.Quantity * h.LastPrice
}

// PnL returns the unrealized profit and loss of the holding.
func (h Holding) PnL() float64 {
	return h.Quantity * (h.LastPrice - h.AvgCost)
}

// PortfolioSnapshot is the point-in-time holdings state for one investor.
// Built fresh each run, immutable once constructed. Totals are always
// derived from holdings, never stored redundantly.
type PortfolioSnapshot struct {
	InvestorID    string    `json:"investor_id"`
	AsOf          time.Time `json:"as_of"`
	Holdings      []Holding `json:"holdings"` // symbol unique within the slice
	CashAvailable float64   `json:"cash_available"` // >= 0
}

// TotalValue returns the sum of holding market values.
func (s *PortfolioSnapshot) TotalValue() float64 {
	var total float64
	for _, h := range s.Holdings {
		total += h.Value()
	}
	return total
}

// TotalPnL returns the sum of unrealized P&L across holdings.
func (s *PortfolioSnapshot) TotalPnL() float64 {
	var total float64
	for _, h := range s.Holdings {
		total += h.PnL()
	}
	return total
}

// NAV returns total portfolio value including available cash.
func (s *PortfolioSnapshot) NAV() float64 {
	return s.TotalValue() + s.CashAvailable
}

// HoldingFor returns the holding for a symbol, or false when not held.
func (s *PortfolioSnapshot) HoldingFor(symbol string) (Holding, bool) {
	for _, h := range s.Holdings {
		if h.Symbol == symbol {
			return h, true
		}
	}
	return Holding{}, false
}

// Weight returns the symbol's weight as a percentage of total equity value.
func (s *PortfolioSnapshot) Weight(symbol string) float64 {
	total := s.TotalValue()
	if total == 0 {
		return 0
	}
	h, ok := s.HoldingFor(symbol)
	if !ok {
		return 0
	}
	return h.Value() / total * 100
}

// SectorValues aggregates holding values per sector.
func (s *PortfolioSnapshot) SectorValues() map[Sector]float64 {
	values := make(map[Sector]float64)
	for _, h := range s.Holdings {
		values[h.Sector] += h.Value()
	}
	return values
}

// PortfolioHistory is one append-only row of the daily portfolio record,
// consumed by the confidence scorer's hit-rate term and the performance
// analyzer.
type PortfolioHistory struct {
	InvestorID   string    `json:"investor_id"`
	Date         time.Time `json:"date"`
	TotalValue   float64   `json:"total_value"`
	TotalPnL     float64   `json:"total_pnl"`
	HoldingCount int       `json:"holding_count"`
	CashBalance  float64   `json:"cash_balance"`
}
