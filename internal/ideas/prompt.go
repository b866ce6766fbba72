package ideas

import (
	"fmt"
	"sort"
	"strings"

	"github.com/akshayr/portfolio-coach/internal/contracts"
)

// buildPrompt serializes the run inputs into the generation prompt.
// Ordering is fully deterministic (holdings and signals sorted by
// subject) so identical inputs always produce an identical prompt.
func buildPrompt(signals *contracts.SignalSet, snapshot *contracts.PortfolioSnapshot, market *contracts.MarketContext, cfg *contracts.RiskConfig) string {
	var b strings.Builder

	b.WriteString("You are a cautious portfolio coach for a long-term Indian equity investor.\n")
	b.WriteString("Suggest at most ")
	fmt.Fprintf(&b, "%d", cfg.MaxDailyIdeas)
	b.WriteString(" trades based only on the data below. Prefer no action over marginal trades.\n\n")

	fmt.Fprintf(&b, "RISK PROFILE: %s, target equity weight %.0f%%, max position %.0f%% of portfolio\n\n",
		cfg.RiskProfile, cfg.TargetEqWeight*100, cfg.CapFraction*100)

	b.WriteString("PORTFOLIO:\n")
	holdings := make([]contracts.Holding, len(snapshot.Holdings))
	copy(holdings, snapshot.Holdings)
	sort.Slice(holdings, func(i, j int) bool { return holdings[i].Symbol < holdings[j].Symbol })
	for _, h := range holdings {
		fmt.Fprintf(&b, "- %s (%s): qty %.2f, avg cost %.2f, last %.2f, weight %.1f%%\n",
			h.Symbol, h.Sector, h.Quantity, h.AvgCost, h.LastPrice, snapshot.Weight(h.Symbol))
	}
	fmt.Fprintf(&b, "Cash available: %.2f\n\n", snapshot.CashAvailable)

	b.WriteString("MARKET:\n")
	if market != nil {
		if market.DomesticIndex != nil {
			fmt.Fprintf(&b, "- Nifty 50: %.2f (%+.2f%%)\n", market.DomesticIndex.Level, market.DomesticIndex.ChangePct)
		}
		if market.Volatility != nil {
			fmt.Fprintf(&b, "- India VIX: %.2f\n", market.Volatility.Level)
		}
		if market.USDINR != nil {
			fmt.Fprintf(&b, "- USD/INR: %.2f (%+.2f%%)\n", market.USDINR.Rate, market.USDINR.ChangePct)
		}
	}
	fmt.Fprintf(&b, "- Regime: %s\n\n", signals.Regime())

	b.WriteString("SIGNALS:\n")
	sigs := make([]contracts.Signal, len(signals.Signals))
	copy(sigs, signals.Signals)
	sort.Slice(sigs, func(i, j int) bool {
		if sigs[i].Subject != sigs[j].Subject {
			return sigs[i].Subject < sigs[j].Subject
		}
		return sigs[i].Kind < sigs[j].Kind
	})
	for _, s := range sigs {
		marker := ""
		if s.ThresholdBreached {
			marker = " [BREACHED]"
		}
		if s.Class != "" {
			fmt.Fprintf(&b, "- %s %s: %.2f (%s)%s\n", s.Subject, s.Kind, s.Value, s.Class, marker)
		} else {
			fmt.Fprintf(&b, "- %s %s: %.2f%s\n", s.Subject, s.Kind, s.Value, marker)
		}
	}

	b.WriteString("\nRespond with a JSON array only, no prose. Each element:\n")
	b.WriteString(`{"action":"BUY|SELL","symbol":"NSE symbol","quantity":<number>,"limit_price":<number>,"rationale":"<one sentence>"}`)
	b.WriteString("\nAn empty array [] means no action today.\n")

	return b.String()
}
