package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/akshayr/portfolio-coach/internal/marketdata"
	"github.com/akshayr/portfolio-coach/pkg/config"
	"github.com/akshayr/portfolio-coach/pkg/database"
	"github.com/akshayr/portfolio-coach/pkg/httputil"
	"github.com/akshayr/portfolio-coach/pkg/logger"
	"github.com/akshayr/portfolio-coach/pkg/redis"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check configuration and connectivity",
	Long: `Verifies the environment a run depends on: configuration,
database, Redis, the market data source and the LLM credentials.

Example:
  go run ./cmd/coach doctor`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Portfolio Coach Doctor ===")

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("✗ config: %v\n", err)
		return err
	}
	fmt.Printf("✓ config: profile=%s investor=%s\n", cfg.Coach.RiskProfile, cfg.Coach.InvestorID)

	log := logger.NewNop()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	healthy := true

	if db, err := database.New(cfg); err != nil {
		fmt.Printf("✗ database: %v\n", err)
		healthy = false
	} else {
		if err := db.Ping(ctx); err != nil {
			fmt.Printf("✗ database ping: %v\n", err)
			healthy = false
		} else {
			fmt.Println("✓ database: connected")
		}
		db.Close()
	}

	if redisClient, err := redis.New(cfg); err != nil {
		fmt.Printf("✗ redis: %v\n", err)
		healthy = false
	} else if redisClient.Enabled() {
		fmt.Println("✓ redis: connected")
	} else {
		fmt.Println("- redis: disabled")
	}

	httpClient := httputil.New(cfg, log).WithRateLimit(cfg.Market.RatePerSecond)
	mdClient := marketdata.NewClient(httpClient, nil, cfg.Market.BaseURL, log)
	if quote, err := mdClient.Quote(ctx, marketdata.SymbolNifty); err != nil {
		fmt.Printf("✗ market data: %v\n", err)
		healthy = false
	} else {
		fmt.Printf("✓ market data: NIFTY at %.2f (%+.2f%%)\n", quote.Level, quote.ChangePct)
	}

	if cfg.LLM.APIKey == "" {
		fmt.Println("✗ llm: OPENAI_API_KEY not set")
		healthy = false
	} else {
		fmt.Printf("✓ llm: idea=%s critic=%s\n", cfg.LLM.IdeaModel, cfg.LLM.CriticModel)
	}

	if cfg.Report.WebhookURL == "" {
		fmt.Println("- report: no webhook configured, delivery disabled")
	} else {
		fmt.Println("✓ report: webhook configured")
	}

	if !healthy {
		return fmt.Errorf("environment checks failed")
	}
	fmt.Println("\nAll checks passed")
	return nil
}
