package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
// All environment variables are read here and nowhere else.
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// External services
	Market MarketConfig
	LLM    LLMConfig

	// Coach profile
	Coach CoachConfig

	// Report delivery
	Report ReportConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// MarketConfig holds the market data source configuration.
type MarketConfig struct {
	BaseURL        string
	RequestTimeout time.Duration
	RatePerSecond  int
}

// LLMConfig holds text-generation backend configuration.
// The idea generator and the critic committee run against different
// models with independent temperature and timeout settings.
type LLMConfig struct {
	APIKey string

	IdeaModel       string
	IdeaTemperature float64
	IdeaMaxTokens   int
	IdeaTimeout     time.Duration

	CriticModel       string
	CriticTemperature float64
	CriticMaxTokens   int
	CriticTimeout     time.Duration
}

// CoachConfig is the per-investor risk profile driving the decision pipeline.
type CoachConfig struct {
	InvestorID  string
	RiskProfile string // conservative | moderate | aggressive

	TargetEqWeight float64 // fraction of NAV in equities
	RebalThreshold float64 // % drift that triggers a signal
	MaxDrawdown    float64 // peak-to-trough tolerance
	StrategicBeta  float64 // vs domestic index
	MonthlyInflow  float64 // expected monthly contribution
	MonthlyOutflow float64 // average monthly spending, for the cash buffer

	CapFraction           float64 // max position notional as fraction of NAV
	CapitalGainsBudget    float64 // fraction of NAV of taxable churn per year
	LiquidityBufferMonths int
	ADVMultiple           float64 // max notional as multiple of avg daily traded value

	MaxDailyIdeas int
	CriticCount   int
	ScheduleSpec  string // cron expression for the daily run
}

// ReportConfig holds report sink configuration.
type ReportConfig struct {
	WebhookURL string // chat-style webhook; empty disables delivery
	EmailTo    string
}

// Load reads configuration from environment variables.
// This is the only function in the codebase that calls os.Getenv().
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8086"),
		Env:  getEnv("ENV", "development"),

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", true),
		},

		Market: MarketConfig{
			BaseURL:        getEnv("MARKET_BASE_URL", "https://query1.finance.yahoo.com"),
			RequestTimeout: getEnvAsDuration("MARKET_TIMEOUT", "15s"),
			RatePerSecond:  getEnvAsInt("MARKET_RATE_PER_SECOND", 5),
		},

		LLM: LLMConfig{
			APIKey:            getEnv("OPENAI_API_KEY", ""),
			IdeaModel:         getEnv("IDEA_MODEL", "gpt-4o-mini"),
			IdeaTemperature:   getEnvAsFloat("IDEA_TEMPERATURE", 0.3),
			IdeaMaxTokens:     getEnvAsInt("IDEA_MAX_TOKENS", 1000),
			IdeaTimeout:       getEnvAsDuration("IDEA_TIMEOUT", "60s"),
			CriticModel:       getEnv("CRITIC_MODEL", "gpt-3.5-turbo"),
			CriticTemperature: getEnvAsFloat("CRITIC_TEMPERATURE", 0.2),
			CriticMaxTokens:   getEnvAsInt("CRITIC_MAX_TOKENS", 800),
			CriticTimeout:     getEnvAsDuration("CRITIC_TIMEOUT", "30s"),
		},

		Coach: CoachConfig{
			InvestorID:            getEnv("INVESTOR_ID", "akshay"),
			RiskProfile:           getEnv("RISK_PROFILE", "moderate"),
			TargetEqWeight:        getEnvAsFloat("TARGET_EQ_WEIGHT", 0.75),
			RebalThreshold:        getEnvAsFloat("REBAL_THRESHOLD", 5),
			MaxDrawdown:           getEnvAsFloat("MAX_DRAWDOWN", 0.20),
			StrategicBeta:         getEnvAsFloat("STRATEGIC_BETA", 0.95),
			MonthlyInflow:         getEnvAsFloat("MONTHLY_INFLOW", 70_000),
			MonthlyOutflow:        getEnvAsFloat("MONTHLY_OUTFLOW", 50_000),
			CapFraction:           getEnvAsFloat("CAP_FRACTION", 0),
			CapitalGainsBudget:    getEnvAsFloat("CAPITAL_GAINS_BUDGET", 0.03),
			LiquidityBufferMonths: getEnvAsInt("LIQUIDITY_BUFFER_MONTHS", 6),
			ADVMultiple:           getEnvAsFloat("ADV_MULTIPLE", 20),
			MaxDailyIdeas:         getEnvAsInt("MAX_DAILY_IDEAS", 5),
			CriticCount:           getEnvAsInt("CRITIC_COUNT", 3),
			ScheduleSpec:          getEnv("SCHEDULE_SPEC", "0 45 8 * * MON-FRI"),
		},

		Report: ReportConfig{
			WebhookURL: getEnv("REPORT_WEBHOOK_URL", ""),
			EmailTo:    getEnv("EMAIL_TO", ""),
		},

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	// Cap fraction defaults by risk profile unless overridden.
	if cfg.Coach.CapFraction == 0 {
		if cfg.Coach.RiskProfile == "conservative" {
			cfg.Coach.CapFraction = 0.01
		} else {
			cfg.Coach.CapFraction = 0.05
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set.
func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	switch c.Coach.RiskProfile {
	case "conservative", "moderate", "aggressive":
	default:
		return fmt.Errorf("RISK_PROFILE must be one of: conservative, moderate, aggressive")
	}

	if c.Coach.CriticCount < 1 {
		return fmt.Errorf("CRITIC_COUNT must be at least 1")
	}

	if c.Coach.MaxDailyIdeas < 1 || c.Coach.MaxDailyIdeas > 5 {
		return fmt.Errorf("MAX_DAILY_IDEAS must be between 1 and 5")
	}

	return nil
}

// loadEnvFile tries to load .env from multiple locations.
func loadEnvFile() {
	paths := []string{
		".env",
	}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
