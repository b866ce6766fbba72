package snapshot

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akshayr/portfolio-coach/internal/contracts"
	"github.com/akshayr/portfolio-coach/pkg/logger"
)

type stubStore struct {
	holdings []contracts.Holding
	cash     float64
	err      error
	updated  map[string]float64
}

func (s *stubStore) Holdings(_ context.Context, _ string) ([]contracts.Holding, error) {
	return s.holdings, s.err
}

func (s *stubStore) CashBalance(_ context.Context, _ string) (float64, error) {
	return s.cash, nil
}

func (s *stubStore) UpdateLastPrice(_ context.Context, _, symbol string, price float64) error {
	if s.updated == nil {
		s.updated = make(map[string]float64)
	}
	s.updated[symbol] = price
	return nil
}

type stubPrices struct {
	prices map[string]float64
	errs   map[string]error
}

func (s *stubPrices) Price(_ context.Context, symbol string) (float64, error) {
	if err, ok := s.errs[symbol]; ok {
		return 0, err
	}
	return s.prices[symbol], nil
}

type staticSectors struct{}

func (staticSectors) SectorOf(symbol string) contracts.Sector {
	if symbol == "TCS" {
		return contracts.SectorIT
	}
	return contracts.SectorOther
}

func TestBuilder_Snapshot(t *testing.T) {
	store := &stubStore{
		holdings: []contracts.Holding{
			{Symbol: "TCS", Quantity: 10, AvgCost: 3400, LastPrice: 3500},
			{Symbol: "RELIANCE", Quantity: 5, AvgCost: 2800, LastPrice: 2900},
		},
		cash: 50_000,
	}
	prices := &stubPrices{prices: map[string]float64{"TCS": 3600, "RELIANCE": 2950}}

	b := NewBuilder(store, prices, staticSectors{}, logger.NewNop())
	snap, err := b.Snapshot(context.Background(), "akshay")
	require.NoError(t, err)

	assert.Equal(t, "akshay", snap.InvestorID)
	assert.Len(t, snap.Holdings, 2)
	assert.Equal(t, 50_000.0, snap.CashAvailable)

	tcs, ok := snap.HoldingFor("TCS")
	require.True(t, ok)
	assert.Equal(t, 3600.0, tcs.LastPrice)
	assert.Equal(t, contracts.SectorIT, tcs.Sector)
	assert.Equal(t, 3600.0, store.updated["TCS"])
}

func TestBuilder_Snapshot_PriceFailureKeepsStoredPrice(t *testing.T) {
	store := &stubStore{
		holdings: []contracts.Holding{
			{Symbol: "TCS", Quantity: 10, AvgCost: 3400, LastPrice: 3500},
		},
	}
	prices := &stubPrices{errs: map[string]error{"TCS": errors.New("feed down")}}

	b := NewBuilder(store, prices, staticSectors{}, logger.NewNop())
	snap, err := b.Snapshot(context.Background(), "akshay")
	require.NoError(t, err)

	tcs, _ := snap.HoldingFor("TCS")
	assert.Equal(t, 3500.0, tcs.LastPrice)
	assert.Empty(t, store.updated)
}

func TestBuilder_Snapshot_EmptyPortfolio(t *testing.T) {
	store := &stubStore{holdings: []contracts.Holding{}, cash: 70_000}

	b := NewBuilder(store, nil, staticSectors{}, logger.NewNop())
	snap, err := b.Snapshot(context.Background(), "new-investor")
	require.NoError(t, err)

	assert.Empty(t, snap.Holdings)
	assert.Zero(t, snap.TotalValue())
	assert.Equal(t, 70_000.0, snap.NAV())
}

func TestBuilder_Snapshot_StoreErrorFailsRun(t *testing.T) {
	store := &stubStore{err: errors.New("connection refused")}

	b := NewBuilder(store, nil, staticSectors{}, logger.NewNop())
	_, err := b.Snapshot(context.Background(), "akshay")
	assert.Error(t, err)
}
