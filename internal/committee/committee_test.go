package committee

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akshayr/portfolio-coach/internal/contracts"
	"github.com/akshayr/portfolio-coach/pkg/logger"
)

// seqBackend hands out responses round-robin; safe under the
// committee's concurrent calls.
type seqBackend struct {
	mu        sync.Mutex
	responses []string
	errs      []error
	calls     int
}

func (s *seqBackend) Generate(_ context.Context, _ string, _ float64, _ int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.calls % len(s.responses)
	s.calls++
	var err error
	if len(s.errs) > 0 {
		err = s.errs[i]
	}
	return s.responses[i], err
}

func testIdea() *contracts.TradeIdea {
	return &contracts.TradeIdea{
		ID:         "20260828_INFY_BUY",
		Action:     contracts.ActionBuy,
		Symbol:     "INFY",
		Quantity:   10,
		LimitPrice: 1500,
		Rationale:  "valuation below peers",
		Status:     contracts.StatusDrafted,
	}
}

func testSnapshot() *contracts.PortfolioSnapshot {
	return &contracts.PortfolioSnapshot{
		InvestorID:    "akshay",
		Holdings:      []contracts.Holding{{Symbol: "TCS", Quantity: 10, AvgCost: 3400, LastPrice: 3600}},
		CashAvailable: 100_000,
	}
}

func passCount(votes []contracts.CriticVote) int {
	var n int
	for _, v := range votes {
		if v.Verdict == contracts.VerdictPass {
			n++
		}
	}
	return n
}

// PASS, REJECT, PASS with three critics clears the 2-of-3 majority.
func TestCommittee_MajorityPasses(t *testing.T) {
	backend := &seqBackend{responses: []string{"PASS", "REJECT\ntoo concentrated", "PASS"}}
	c := New(backend, 0.2, 800, logger.NewNop())
	cfg := &contracts.RiskConfig{CriticCount: 3, RiskProfile: "moderate"}

	votes, err := c.Critique(context.Background(), testIdea(), testSnapshot(), cfg)
	require.NoError(t, err)

	require.Len(t, votes, 3)
	passes := passCount(votes)
	assert.Equal(t, 2, passes)
	assert.GreaterOrEqual(t, passes, contracts.MajorityThreshold(3))
}

func TestCommittee_ErroringCriticCountsAsReject(t *testing.T) {
	backend := &seqBackend{
		responses: []string{"PASS", "", "PASS"},
		errs:      []error{nil, errors.New("timeout"), nil},
	}
	c := New(backend, 0.2, 800, logger.NewNop())
	cfg := &contracts.RiskConfig{CriticCount: 3}

	votes, err := c.Critique(context.Background(), testIdea(), testSnapshot(), cfg)
	require.NoError(t, err)

	assert.Equal(t, 2, passCount(votes))
}

func TestCommittee_AllCriticsDownRejectsAll(t *testing.T) {
	backend := &seqBackend{
		responses: []string{"", "", ""},
		errs:      []error{errors.New("down"), errors.New("down"), errors.New("down")},
	}
	c := New(backend, 0.2, 800, logger.NewNop())
	cfg := &contracts.RiskConfig{CriticCount: 3}

	votes, err := c.Critique(context.Background(), testIdea(), testSnapshot(), cfg)
	require.NoError(t, err)

	assert.Zero(t, passCount(votes))
	assert.Less(t, passCount(votes), contracts.MajorityThreshold(3))
}

func TestCommittee_EveryVoteCarriesIdeaIDAndIndex(t *testing.T) {
	backend := &seqBackend{responses: []string{"PASS"}}
	c := New(backend, 0.2, 800, logger.NewNop())
	cfg := &contracts.RiskConfig{CriticCount: 3}

	votes, err := c.Critique(context.Background(), testIdea(), testSnapshot(), cfg)
	require.NoError(t, err)

	indexes := make(map[int]bool)
	for _, v := range votes {
		assert.Equal(t, "20260828_INFY_BUY", v.IdeaID)
		indexes[v.CriticIndex] = true
	}
	assert.Len(t, indexes, 3, "each critic has a distinct index")
}

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		name string
		text string
		want contracts.Verdict
	}{
		{"bare pass", "PASS", contracts.VerdictPass},
		{"lowercase pass", "pass\nlooks reasonable", contracts.VerdictPass},
		{"reject with reason", "REJECT\nposition already overweight", contracts.VerdictReject},
		{"prose pass", "I would PASS this trade.", contracts.VerdictPass},
		{"reject mentioned first", "REJECT. A PASS would be imprudent.", contracts.VerdictReject},
		{"ambiguous is reject", "Hard to say.", contracts.VerdictReject},
		{"empty is reject", "", contracts.VerdictReject},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict, _ := parseVerdict(tt.text)
			assert.Equal(t, tt.want, verdict)
		})
	}
}
