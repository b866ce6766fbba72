package riskgate

import (
	"context"
	"time"

	"github.com/akshayr/portfolio-coach/internal/contracts"
	"github.com/akshayr/portfolio-coach/pkg/logger"
)

// stcgHorizon is the holding period under which realized gains are
// taxed as short-term.
const stcgHorizon = 365 * 24 * time.Hour

// advLookback is the bar window for average daily traded value.
const advLookback = 20

// ADVSource serves the average daily traded value for a symbol.
type ADVSource interface {
	ADV(ctx context.Context, symbol string, lookback int) (float64, error)
}

// Gate applies the deterministic risk gates in a fixed order: position
// cap, liquidity, tax budget, liquidity buffer. Gates resize where the
// contract allows it and reject otherwise; rejected ideas stay in the
// returned slice carrying RISK_REJECTED and a reason code so the ledger
// records every candidate.
type Gate struct {
	adv ADVSource
	log *logger.Logger
}

func NewGate(adv ADVSource, log *logger.Logger) *Gate {
	return &Gate{
		adv: adv,
		log: log.WithField("component", "riskgate"),
	}
}

// Apply implements contracts.RiskGater. Ideas are evaluated in the
// order received; the tax budget gate is deliberately greedy, so
// ordering is part of the behavior, not an accident.
func (g *Gate) Apply(ctx context.Context, ideas []contracts.TradeIdea, snapshot *contracts.PortfolioSnapshot, cfg *contracts.RiskConfig) ([]contracts.TradeIdea, error) {
	totalValue := snapshot.TotalValue()
	nav := snapshot.NAV()
	capNotional := cfg.CapFraction * totalValue
	taxBudget := cfg.CapitalGainsBudget * nav
	cashFloor := float64(cfg.LiquidityBufferMonths) * cfg.MonthlyOutflow

	var stcgUsed float64
	cash := snapshot.CashAvailable

	out := make([]contracts.TradeIdea, 0, len(ideas))
	for _, idea := range ideas {
		g.positionCap(&idea, snapshot, capNotional)

		if idea.Status == contracts.StatusDrafted {
			g.liquidity(ctx, &idea, cfg)
		}
		if idea.Status == contracts.StatusDrafted {
			stcgUsed = g.taxBudget(&idea, snapshot, stcgUsed, taxBudget)
		}
		if idea.Status == contracts.StatusDrafted {
			cash = g.liquidityBuffer(&idea, cash, cashFloor)
		}

		if idea.Status == contracts.StatusRiskRejected {
			g.log.WithFields(map[string]interface{}{
				"symbol": idea.Symbol,
				"action": idea.Action,
				"reason": idea.ReasonCode,
			}).Info("idea rejected by risk gate")
		}
		out = append(out, idea)
	}

	return out, nil
}

// positionCap enforces notional ≤ cap_fraction × total_value. Oversized
// BUYs are resized down to exactly the cap; SELLs are first clipped to
// the held quantity, then capped the same way. An idea that cannot be
// resized to a positive quantity is rejected.
func (g *Gate) positionCap(idea *contracts.TradeIdea, snapshot *contracts.PortfolioSnapshot, capNotional float64) {
	if idea.Action == contracts.ActionSell {
		held, ok := snapshot.HoldingFor(idea.Symbol)
		if !ok || held.Quantity <= 0 {
			reject(idea, contracts.ReasonPositionCap)
			return
		}
		if idea.Quantity > held.Quantity {
			g.log.WithFields(map[string]interface{}{
				"symbol":    idea.Symbol,
				"requested": idea.Quantity,
				"held":      held.Quantity,
			}).Info("sell clipped to held quantity")
			idea.Quantity = held.Quantity
		}
	}

	if capNotional <= 0 {
		reject(idea, contracts.ReasonPositionCap)
		return
	}
	if idea.Notional() > capNotional {
		resized := capNotional / idea.LimitPrice
		g.log.WithFields(map[string]interface{}{
			"symbol":       idea.Symbol,
			"requested":    idea.Quantity,
			"resized":      resized,
			"cap_notional": capNotional,
		}).Info("idea resized to position cap")
		idea.Quantity = resized
	}
	if idea.Quantity <= 0 {
		reject(idea, contracts.ReasonPositionCap)
	}
}

// liquidity rejects ideas too large against the symbol's average daily
// traded value. An unavailable ADV degrades to skipping the gate; data
// unavailability is never fatal.
func (g *Gate) liquidity(ctx context.Context, idea *contracts.TradeIdea, cfg *contracts.RiskConfig) {
	if g.adv == nil || cfg.ADVMultiple <= 0 {
		return
	}
	adv, err := g.adv.ADV(ctx, idea.Symbol, advLookback)
	if err != nil {
		g.log.WithError(err).WithField("symbol", idea.Symbol).Warn("adv unavailable, skipping liquidity gate")
		return
	}
	if idea.Notional() > cfg.ADVMultiple*adv {
		reject(idea, contracts.ReasonLiquidity)
	}
}

// taxBudget rejects SELLs whose projected short-term capital gain would
// push the running total past the budget. Greedy in arrival order.
// Returns the updated running total.
func (g *Gate) taxBudget(idea *contracts.TradeIdea, snapshot *contracts.PortfolioSnapshot, used, budget float64) float64 {
	gain := projectedSTCG(idea, snapshot)
	if gain <= 0 {
		return used
	}
	if used+gain > budget {
		reject(idea, contracts.ReasonTaxBudget)
		return used
	}
	return used + gain
}

// projectedSTCG estimates the short-term gain a SELL would realize.
// Positions held past the short-term horizon, loss-making sells and
// BUYs all project zero.
func projectedSTCG(idea *contracts.TradeIdea, snapshot *contracts.PortfolioSnapshot) float64 {
	if idea.Action != contracts.ActionSell {
		return 0
	}
	held, ok := snapshot.HoldingFor(idea.Symbol)
	if !ok {
		return 0
	}
	if !held.AcquiredAt.IsZero() && time.Since(held.AcquiredAt) >= stcgHorizon {
		return 0
	}
	gain := (idea.LimitPrice - held.AvgCost) * idea.Quantity
	if gain < 0 {
		return 0
	}
	return gain
}

// liquidityBuffer rejects BUYs that would drop cash below the survival
// floor. Accepted BUYs draw down the running cash; SELL proceeds are
// deliberately not credited back within the run. Returns updated cash.
func (g *Gate) liquidityBuffer(idea *contracts.TradeIdea, cash, floor float64) float64 {
	if idea.Action != contracts.ActionBuy {
		return cash
	}
	if cash-idea.Notional() < floor {
		reject(idea, contracts.ReasonLiquidityBuffer)
		return cash
	}
	return cash - idea.Notional()
}

func reject(idea *contracts.TradeIdea, reason string) {
	idea.Status = contracts.StatusRiskRejected
	idea.ReasonCode = reason
}

var _ contracts.RiskGater = (*Gate)(nil)
