package contracts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatus_CanTransition(t *testing.T) {
	tests := []struct {
		name string
		from Status
		to   Status
		want bool
	}{
		{"drafted to approved", StatusDrafted, StatusApproved, true},
		{"drafted to risk rejected", StatusDrafted, StatusRiskRejected, true},
		{"drafted to critic rejected", StatusDrafted, StatusCriticRejected, true},
		{"drafted to executed skips approval", StatusDrafted, StatusExecuted, false},
		{"approved to executed", StatusApproved, StatusExecuted, true},
		{"approved to expired", StatusApproved, StatusExpired, true},
		{"approved to cancelled", StatusApproved, StatusCancelled, true},
		{"approved back to drafted", StatusApproved, StatusDrafted, false},
		{"risk rejected is terminal", StatusRiskRejected, StatusApproved, false},
		{"critic rejected is terminal", StatusCriticRejected, StatusExecuted, false},
		{"executed is terminal", StatusExecuted, StatusExpired, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransition(tt.to))
		})
	}
}

func TestStatus_Terminal(t *testing.T) {
	assert.False(t, StatusDrafted.Terminal())
	assert.False(t, StatusApproved.Terminal())
	assert.True(t, StatusRiskRejected.Terminal())
	assert.True(t, StatusCriticRejected.Terminal())
	assert.True(t, StatusExecuted.Terminal())
	assert.True(t, StatusExpired.Terminal())
	assert.True(t, StatusCancelled.Terminal())
}

func TestMajorityThreshold(t *testing.T) {
	tests := []struct {
		critics int
		want    int
	}{
		{1, 1},
		{3, 2},
		{5, 3},
		// Even committee sizes: a tie falls below the threshold, so ties reject.
		{2, 2},
		{4, 3},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, MajorityThreshold(tt.critics), "critics=%d", tt.critics)
	}
}

func TestTradeIdea_Validate(t *testing.T) {
	valid := TradeIdea{Action: ActionBuy, Symbol: "TCS", Quantity: 10, LimitPrice: 3600}
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name string
		idea TradeIdea
	}{
		{"hold is not representable", TradeIdea{Action: "HOLD", Symbol: "TCS", Quantity: 1, LimitPrice: 1}},
		{"empty symbol", TradeIdea{Action: ActionSell, Quantity: 1, LimitPrice: 1}},
		{"zero quantity", TradeIdea{Action: ActionBuy, Symbol: "TCS", Quantity: 0, LimitPrice: 1}},
		{"negative quantity", TradeIdea{Action: ActionBuy, Symbol: "TCS", Quantity: -5, LimitPrice: 1}},
		{"zero limit price", TradeIdea{Action: ActionBuy, Symbol: "TCS", Quantity: 1, LimitPrice: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.idea.Validate())
		})
	}
}

func TestBandFor(t *testing.T) {
	assert.Equal(t, BandGreen, BandFor(0.75))
	assert.Equal(t, BandGreen, BandFor(0.92))
	assert.Equal(t, BandAmber, BandFor(0.74))
	assert.Equal(t, BandAmber, BandFor(0.60))
	assert.Equal(t, BandRed, BandFor(0.59))
	assert.Equal(t, BandRed, BandFor(0))
}
