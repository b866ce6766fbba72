package contracts

import "time"

// IndexQuote is a single index level with its daily change.
// A nil *IndexQuote in MarketContext means the feed was stale or missing
// for that field; consumers degrade rather than fail.
type IndexQuote struct {
	Level     float64 `json:"level"`
	ChangePct float64 `json:"change_pct"`
}

// FXQuote is a currency pair rate with its daily change.
type FXQuote struct {
	Rate      float64 `json:"rate"`
	ChangePct float64 `json:"change_pct"`
}

// MarketContext captures external conditions at run time.
// Immutable snapshot, one per run.
type MarketContext struct {
	AsOf time.Time `json:"as_of"`

	// Domestic
	DomesticIndex  *IndexQuote `json:"domestic_index"`  // Nifty 50
	SecondaryIndex *IndexQuote `json:"secondary_index"` // Sensex
	Volatility     *IndexQuote `json:"volatility"`      // India VIX
	USDINR         *FXQuote    `json:"usd_inr"`

	// Global references
	GlobalIndices map[string]*IndexQuote `json:"global_indices,omitempty"`
}

// Complete reports whether every domestic field was available.
func (m *MarketContext) Complete() bool {
	return m.DomesticIndex != nil && m.Volatility != nil && m.USDINR != nil
}
