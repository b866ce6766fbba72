package snapshot

import (
	"context"
	"fmt"
	"time"

	"github.com/akshayr/portfolio-coach/internal/contracts"
	"github.com/akshayr/portfolio-coach/pkg/logger"
)

// HoldingsStore is the persistence surface the builder needs.
type HoldingsStore interface {
	Holdings(ctx context.Context, investorID string) ([]contracts.Holding, error)
	CashBalance(ctx context.Context, investorID string) (float64, error)
	UpdateLastPrice(ctx context.Context, investorID, symbol string, price float64) error
}

// PriceSource refreshes one symbol's last traded price.
type PriceSource interface {
	Price(ctx context.Context, symbol string) (float64, error)
}

// Builder assembles the immutable per-run portfolio snapshot: holdings
// from the store, prices refreshed from the quote feed, sectors from the
// lookup. A failed price refresh keeps the stored price; a failed
// holdings read fails the run.
type Builder struct {
	store   HoldingsStore
	prices  PriceSource
	sectors contracts.SectorLookup
	log     *logger.Logger
}

func NewBuilder(store HoldingsStore, prices PriceSource, sectors contracts.SectorLookup, log *logger.Logger) *Builder {
	return &Builder{
		store:   store,
		prices:  prices,
		sectors: sectors,
		log:     log.WithField("component", "snapshot"),
	}
}

// Snapshot implements contracts.SnapshotSource.
func (b *Builder) Snapshot(ctx context.Context, investorID string) (*contracts.PortfolioSnapshot, error) {
	holdings, err := b.store.Holdings(ctx, investorID)
	if err != nil {
		return nil, fmt.Errorf("load holdings: %w", err)
	}

	cash, err := b.store.CashBalance(ctx, investorID)
	if err != nil {
		return nil, fmt.Errorf("load cash balance: %w", err)
	}

	for i := range holdings {
		h := &holdings[i]
		h.Sector = b.sectors.SectorOf(h.Symbol)

		if b.prices == nil {
			continue
		}
		price, err := b.prices.Price(ctx, h.Symbol)
		if err != nil {
			b.log.WithError(err).WithFields(map[string]interface{}{
				"symbol":       h.Symbol,
				"stored_price": h.LastPrice,
			}).Warn("price refresh failed, keeping stored price")
			continue
		}
		if price <= 0 {
			b.log.WithFields(map[string]interface{}{
				"symbol": h.Symbol,
				"price":  price,
			}).Warn("ignoring non-positive refreshed price")
			continue
		}
		h.LastPrice = price
		if err := b.store.UpdateLastPrice(ctx, investorID, h.Symbol, price); err != nil {
			b.log.WithError(err).WithField("symbol", h.Symbol).Warn("failed to persist refreshed price")
		}
	}

	snap := &contracts.PortfolioSnapshot{
		InvestorID:    investorID,
		AsOf:          time.Now(),
		Holdings:      holdings,
		CashAvailable: cash,
	}

	b.log.WithFields(map[string]interface{}{
		"investor":    investorID,
		"holdings":    len(holdings),
		"total_value": snap.TotalValue(),
		"cash":        cash,
	}).Info("portfolio snapshot built")

	return snap, nil
}

var _ contracts.SnapshotSource = (*Builder)(nil)
