package commands

import (
	"context"

	"github.com/akshayr/portfolio-coach/internal/audit"
	"github.com/akshayr/portfolio-coach/internal/coach"
	"github.com/akshayr/portfolio-coach/internal/committee"
	"github.com/akshayr/portfolio-coach/internal/contracts"
	"github.com/akshayr/portfolio-coach/internal/ideas"
	"github.com/akshayr/portfolio-coach/internal/ledger"
	"github.com/akshayr/portfolio-coach/internal/llm"
	"github.com/akshayr/portfolio-coach/internal/marketdata"
	"github.com/akshayr/portfolio-coach/internal/report"
	"github.com/akshayr/portfolio-coach/internal/riskgate"
	"github.com/akshayr/portfolio-coach/internal/scoring"
	"github.com/akshayr/portfolio-coach/internal/sectors"
	"github.com/akshayr/portfolio-coach/internal/signals"
	"github.com/akshayr/portfolio-coach/internal/snapshot"
	"github.com/akshayr/portfolio-coach/pkg/config"
	"github.com/akshayr/portfolio-coach/pkg/database"
	"github.com/akshayr/portfolio-coach/pkg/httputil"
	"github.com/akshayr/portfolio-coach/pkg/logger"
	"github.com/akshayr/portfolio-coach/pkg/redis"
)

// pipeline is the fully wired decision pipeline plus the handles the
// commands need after construction.
type pipeline struct {
	coach  *coach.Coach
	memory *report.MemorySink
	ledger *ledger.Repository
}

// riskConfig maps the loaded configuration onto the pipeline's risk
// profile.
func riskConfig(cfg *config.Config) *contracts.RiskConfig {
	return &contracts.RiskConfig{
		InvestorID:  cfg.Coach.InvestorID,
		RiskProfile: cfg.Coach.RiskProfile,

		TargetEqWeight: cfg.Coach.TargetEqWeight,
		RebalThreshold: cfg.Coach.RebalThreshold,
		MaxDrawdown:    cfg.Coach.MaxDrawdown,
		StrategicBeta:  cfg.Coach.StrategicBeta,

		CapFraction:           cfg.Coach.CapFraction,
		CapitalGainsBudget:    cfg.Coach.CapitalGainsBudget,
		LiquidityBufferMonths: cfg.Coach.LiquidityBufferMonths,
		MonthlyOutflow:        cfg.Coach.MonthlyOutflow,
		ADVMultiple:           cfg.Coach.ADVMultiple,

		MaxDailyIdeas: cfg.Coach.MaxDailyIdeas,
		CriticCount:   cfg.Coach.CriticCount,
	}
}

// buildPipeline wires every pipeline stage from configuration.
func buildPipeline(ctx context.Context, cfg *config.Config, log *logger.Logger, db *database.DB) (*pipeline, error) {
	var cache *redis.Cache
	if redisClient, err := redis.New(cfg); err != nil {
		log.WithError(err).Warn("Redis unavailable, market data cache disabled")
	} else {
		cache = redis.NewCache(redisClient, "coach")
	}

	httpClient := httputil.New(cfg, log).WithRateLimit(cfg.Market.RatePerSecond)
	mdClient := marketdata.NewClient(httpClient, cache, cfg.Market.BaseURL, log)
	mdRepo := marketdata.NewRepository(db.Pool)

	sectorLookup := sectors.NewLookup(db.Pool, log)
	if err := sectorLookup.Load(ctx); err != nil {
		log.WithError(err).Warn("Sector overrides unavailable, using compiled-in map")
	}

	snapRepo := snapshot.NewRepository(db.Pool)
	snapBuilder := snapshot.NewBuilder(snapRepo, mdClient, sectorLookup, log)

	ideaBackend := llm.NewOpenAI(cfg.LLM.APIKey, cfg.LLM.IdeaModel, cfg.LLM.IdeaTimeout, log)
	criticBackend := llm.NewOpenAI(cfg.LLM.APIKey, cfg.LLM.CriticModel, cfg.LLM.CriticTimeout, log)

	ledgerRepo := ledger.NewRepository(db.Pool)

	memory := report.NewMemorySink()
	webhook := report.NewWebhookSink(httpClient, cfg.Report.WebhookURL, log)

	c := coach.New(coach.Deps{
		Snapshots: snapBuilder,
		Market:    marketdata.NewSource(mdClient, log),
		Signals:   signals.NewEngine(mdClient, mdRepo, log),
		Ideas:     ideas.NewGenerator(ideaBackend, cfg.LLM.IdeaTemperature, cfg.LLM.IdeaMaxTokens, log),
		Gate:      riskgate.NewGate(mdClient, log),
		Committee: committee.New(criticBackend, cfg.LLM.CriticTemperature, cfg.LLM.CriticMaxTokens, log),
		Scorer:    scoring.NewScorer(ledgerRepo, log),
		Reporter:  report.NewBuilder(ledgerRepo, log),
		Ledger:    ledgerRepo,

		Performance:  audit.NewAnalyzer(ledgerRepo, mdRepo, log),
		ContextStore: mdRepo,
		Metrics:      audit.NewRepository(db.Pool),
		Sink:         report.NewMultiSink(memory, webhook),
	}, riskConfig(cfg), log)

	return &pipeline{
		coach:  c,
		memory: memory,
		ledger: ledgerRepo,
	}, nil
}
