package report

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/akshayr/portfolio-coach/internal/contracts"
)

func bandMarker(band contracts.ConfidenceBand) string {
	switch band {
	case contracts.BandGreen:
		return "🟢"
	case contracts.BandAmber:
		return "🟠"
	default:
		return "🔴"
	}
}

// renderMarkdown produces the human-readable report body. Section order
// is fixed: banner, summary, market, ideas (or the no-action line),
// reviewed symbols, order intents, performance, sources.
func renderMarkdown(r *contracts.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Portfolio Coach — %s\n\n", r.RunDate.Format("02 Jan 2006"))

	if r.RiskBanner != "" {
		fmt.Fprintf(&b, "> ⚠️ %s\n\n", r.RiskBanner)
	}

	b.WriteString("## Portfolio\n\n")
	fmt.Fprintf(&b, "| Total Value | Unrealized P&L | Holdings | Cash |\n")
	fmt.Fprintf(&b, "|---|---|---|---|\n")
	fmt.Fprintf(&b, "| ₹%.2f | ₹%.2f | %d | ₹%.2f |\n\n",
		r.Summary.TotalValue, r.Summary.TotalPnL, r.Summary.HoldingCount, r.Summary.CashBalance)

	b.WriteString("## Market\n\n")
	if m := r.Market; m != nil {
		if m.DomesticIndex != nil {
			fmt.Fprintf(&b, "- Nifty 50: %.2f (%+.2f%%)\n", m.DomesticIndex.Level, m.DomesticIndex.ChangePct)
		}
		if m.SecondaryIndex != nil {
			fmt.Fprintf(&b, "- Sensex: %.2f (%+.2f%%)\n", m.SecondaryIndex.Level, m.SecondaryIndex.ChangePct)
		}
		if m.Volatility != nil {
			fmt.Fprintf(&b, "- India VIX: %.2f\n", m.Volatility.Level)
		}
		if m.USDINR != nil {
			fmt.Fprintf(&b, "- USD/INR: %.2f (%+.2f%%)\n", m.USDINR.Rate, m.USDINR.ChangePct)
		}
		if !m.Complete() {
			b.WriteString("- _Some market fields were unavailable this run._\n")
		}
	} else {
		b.WriteString("- _Market context unavailable this run._\n")
	}
	b.WriteString("\n")

	b.WriteString("## Recommendations\n\n")
	if len(r.Ideas) == 0 {
		b.WriteString("No actionable changes today. The portfolio was reviewed and no recommendations met the risk and committee bar.\n\n")
	} else {
		b.WriteString("| # | Action | Symbol | Qty | Limit | Confidence | Rationale |\n")
		b.WriteString("|---|---|---|---|---|---|---|\n")
		for i, idea := range r.Ideas {
			band := contracts.BandFor(idea.Confidence)
			fmt.Fprintf(&b, "| %d | %s | %s | %.2f | ₹%.2f | %s %.2f | %s |\n",
				i+1, idea.Action, idea.Symbol, idea.Quantity, idea.LimitPrice,
				bandMarker(band), idea.Confidence, idea.Rationale)
		}
		b.WriteString("\n")
	}

	if len(r.Reviewed) > 0 {
		b.WriteString("## Reviewed, no action\n\n")
		for _, rv := range r.Reviewed {
			fmt.Fprintf(&b, "- **%s**: %s\n", rv.Symbol, rv.Note)
		}
		b.WriteString("\n")
	}

	if len(r.Intents) > 0 {
		b.WriteString("## Order intents (GTT)\n\n")
		b.WriteString("```json\n")
		payload, err := json.MarshalIndent(r.Intents, "", "  ")
		if err == nil {
			b.Write(payload)
		}
		b.WriteString("\n```\n\n")
	}

	if p := r.Performance; p != nil {
		b.WriteString("## Performance\n\n")
		fmt.Fprintf(&b, "- Portfolio return: %+.2f%% vs benchmark %+.2f%% (alpha %+.2f%%)\n",
			p.PortfolioReturn, p.BenchmarkReturn, p.Alpha)
		if p.TotalTrades > 0 {
			fmt.Fprintf(&b, "- Win rate: %.0f%% (%d of %d executed)\n",
				p.WinRate*100, p.ProfitableTrades, p.TotalTrades)
		}
		if p.NewPositions+p.ExitedPositions+p.ResizedPositions > 0 {
			fmt.Fprintf(&b, "- Changes: %d new, %d exited, %d resized\n",
				p.NewPositions, p.ExitedPositions, p.ResizedPositions)
		}
		b.WriteString("\n")
	}

	b.WriteString("## 📚 Sources & Methodology\n\n")
	b.WriteString("- **Portfolio data**: holdings ledger with broker-refreshed prices\n")
	b.WriteString("- **Market data**: Yahoo Finance chart API (Nifty 50, Sensex, India VIX, USD/INR)\n")
	b.WriteString("- **Recommendations**: LLM-drafted ideas reviewed by an independent critic committee\n")
	b.WriteString("- **Risk management**: deterministic gates for position size, liquidity, tax budget and cash buffer\n")
	b.WriteString("- **Confidence**: valuation, committee, momentum and trailing hit-rate blend\n\n")

	fmt.Fprintf(&b, "---\n_Run %s. Advisory only, orders are never placed automatically._\n", r.RunID)

	return b.String()
}
