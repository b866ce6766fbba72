package ideas

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/akshayr/portfolio-coach/internal/contracts"
	"github.com/akshayr/portfolio-coach/pkg/logger"
)

// Generator drafts candidate trades through the text-generation
// backend. Fail-open stage: any backend failure or fully malformed
// response yields an empty candidate list, never an aborted run. A day
// with no recommendations is a valid outcome.
type Generator struct {
	backend     contracts.TextGenerator
	temperature float64
	maxTokens   int
	log         *logger.Logger
}

func NewGenerator(backend contracts.TextGenerator, temperature float64, maxTokens int, log *logger.Logger) *Generator {
	return &Generator{
		backend:     backend,
		temperature: temperature,
		maxTokens:   maxTokens,
		log:         log.WithField("component", "ideas"),
	}
}

// rawIdea is the JSON shape expected back from the backend.
type rawIdea struct {
	Action     string  `json:"action"`
	Symbol     string  `json:"symbol"`
	Quantity   float64 `json:"quantity"`
	LimitPrice float64 `json:"limit_price"`
	Rationale  string  `json:"rationale"`
}

// Generate implements contracts.IdeaGenerator.
func (g *Generator) Generate(ctx context.Context, signals *contracts.SignalSet, snapshot *contracts.PortfolioSnapshot, market *contracts.MarketContext, cfg *contracts.RiskConfig) ([]contracts.TradeIdea, error) {
	prompt := buildPrompt(signals, snapshot, market, cfg)

	text, err := g.backend.Generate(ctx, prompt, g.temperature, g.maxTokens)
	if err != nil {
		g.log.WithError(err).Warn("idea backend failed, run continues with no candidates")
		return []contracts.TradeIdea{}, nil
	}

	raw, err := parseIdeas(text)
	if err != nil {
		g.log.WithError(err).Warn("idea response unparseable, run continues with no candidates")
		return []contracts.TradeIdea{}, nil
	}

	datePrefix := snapshot.AsOf.Format("20060102")
	ideas := make([]contracts.TradeIdea, 0, len(raw))
	seen := make(map[string]bool)
	for _, r := range raw {
		idea := contracts.TradeIdea{
			ID:         fmt.Sprintf("%s_%s_%s", datePrefix, strings.ToUpper(r.Symbol), strings.ToUpper(r.Action)),
			Action:     contracts.Action(strings.ToUpper(r.Action)),
			Symbol:     strings.ToUpper(strings.TrimSpace(r.Symbol)),
			Quantity:   r.Quantity,
			LimitPrice: r.LimitPrice,
			Rationale:  strings.TrimSpace(r.Rationale),
			Status:     contracts.StatusDrafted,
		}
		if err := idea.Validate(); err != nil {
			g.log.WithError(err).WithField("symbol", r.Symbol).Warn("dropping malformed idea")
			continue
		}
		if seen[idea.ID] {
			g.log.WithField("id", idea.ID).Warn("dropping duplicate idea")
			continue
		}
		seen[idea.ID] = true
		ideas = append(ideas, idea)

		if len(ideas) == cfg.MaxDailyIdeas {
			break
		}
	}

	g.log.WithFields(map[string]interface{}{
		"raw":  len(raw),
		"kept": len(ideas),
	}).Info("candidate ideas drafted")

	return ideas, nil
}

// parseIdeas extracts the JSON array from the backend response,
// tolerating markdown code fences and surrounding prose.
func parseIdeas(text string) ([]rawIdea, error) {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if i := strings.LastIndex(text, "```"); i >= 0 {
			text = text[:i]
		}
		text = strings.TrimSpace(text)
	}

	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end < start {
		return nil, fmt.Errorf("no JSON array in response")
	}

	var raw []rawIdea
	if err := json.Unmarshal([]byte(text[start:end+1]), &raw); err != nil {
		return nil, fmt.Errorf("decode ideas: %w", err)
	}
	return raw, nil
}

var _ contracts.IdeaGenerator = (*Generator)(nil)
