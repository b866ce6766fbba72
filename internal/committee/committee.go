package committee

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/akshayr/portfolio-coach/internal/contracts"
	"github.com/akshayr/portfolio-coach/pkg/logger"
)

// Committee runs N independent critic calls per idea against a cheaper
// text backend. Calls are issued concurrently and share no state; no
// critic sees another's verdict. An erroring call counts as REJECT,
// never as a silent pass.
type Committee struct {
	backend     contracts.TextGenerator
	temperature float64
	maxTokens   int
	log         *logger.Logger
}

func New(backend contracts.TextGenerator, temperature float64, maxTokens int, log *logger.Logger) *Committee {
	return &Committee{
		backend:     backend,
		temperature: temperature,
		maxTokens:   maxTokens,
		log:         log.WithField("component", "committee"),
	}
}

// Critique implements contracts.Committee.
func (c *Committee) Critique(ctx context.Context, idea *contracts.TradeIdea, snapshot *contracts.PortfolioSnapshot, cfg *contracts.RiskConfig) ([]contracts.CriticVote, error) {
	n := cfg.CriticCount
	if n < 1 {
		n = 1
	}

	prompt := criticPrompt(idea, snapshot, cfg)
	votes := make([]contracts.CriticVote, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			votes[i] = c.vote(ctx, prompt, idea.ID, i)
		}(i)
	}
	wg.Wait()

	var passes int
	for _, v := range votes {
		if v.Verdict == contracts.VerdictPass {
			passes++
		}
	}
	c.log.WithFields(map[string]interface{}{
		"idea":    idea.ID,
		"passes":  passes,
		"critics": n,
	}).Info("committee voted")

	return votes, nil
}

func (c *Committee) vote(ctx context.Context, prompt, ideaID string, index int) contracts.CriticVote {
	vote := contracts.CriticVote{
		IdeaID:      ideaID,
		CriticIndex: index,
		Verdict:     contracts.VerdictReject,
	}

	text, err := c.backend.Generate(ctx, prompt, c.temperature, c.maxTokens)
	if err != nil {
		// Fail closed: an erroring safety check must not pass an idea.
		c.log.WithError(err).WithFields(map[string]interface{}{
			"idea":   ideaID,
			"critic": index,
		}).Warn("critic call failed, counting as REJECT")
		vote.Reason = "critic call failed"
		return vote
	}

	verdict, reason := parseVerdict(text)
	vote.Verdict = verdict
	vote.Reason = reason
	return vote
}

// parseVerdict reads the first PASS/REJECT token from the critic's
// response. Anything ambiguous is a REJECT.
func parseVerdict(text string) (contracts.Verdict, string) {
	trimmed := strings.TrimSpace(text)
	upper := strings.ToUpper(trimmed)

	passIdx := strings.Index(upper, "PASS")
	rejectIdx := strings.Index(upper, "REJECT")

	switch {
	case passIdx >= 0 && (rejectIdx < 0 || passIdx < rejectIdx):
		return contracts.VerdictPass, reasonLine(trimmed)
	case rejectIdx >= 0:
		return contracts.VerdictReject, reasonLine(trimmed)
	default:
		return contracts.VerdictReject, "unparseable critic response"
	}
}

// reasonLine keeps a short single-line excerpt of the critic's text.
func reasonLine(text string) string {
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}
	if len(text) > 200 {
		text = text[:200]
	}
	return text
}

func criticPrompt(idea *contracts.TradeIdea, snapshot *contracts.PortfolioSnapshot, cfg *contracts.RiskConfig) string {
	var b strings.Builder

	b.WriteString("You are an independent risk critic reviewing a single proposed trade for a ")
	b.WriteString(cfg.RiskProfile)
	b.WriteString(" long-term investor. Judge only whether this trade is prudent.\n\n")

	fmt.Fprintf(&b, "TRADE: %s %.2f %s at limit %.2f\n", idea.Action, idea.Quantity, idea.Symbol, idea.LimitPrice)
	fmt.Fprintf(&b, "RATIONALE: %s\n\n", idea.Rationale)

	fmt.Fprintf(&b, "PORTFOLIO: total value %.2f, cash %.2f, %d holdings\n",
		snapshot.TotalValue(), snapshot.CashAvailable, len(snapshot.Holdings))
	if h, ok := snapshot.HoldingFor(idea.Symbol); ok {
		fmt.Fprintf(&b, "CURRENT POSITION: qty %.2f at avg cost %.2f, weight %.1f%%\n",
			h.Quantity, h.AvgCost, snapshot.Weight(idea.Symbol))
	} else {
		b.WriteString("CURRENT POSITION: none\n")
	}

	b.WriteString("\nAnswer with exactly one word on the first line: PASS or REJECT. Optionally add one sentence of reasoning on the next line.\n")

	return b.String()
}

var _ contracts.Committee = (*Committee)(nil)
