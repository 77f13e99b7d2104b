package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"argus/pkg/errors"
)

type Config struct {
	App           AppConfig
	AI            AIConfig
	Vendors       VendorConfig
	Data          DataConfig
	Workflow      WorkflowConfig
	Regime        RegimeConfig
	Snapshot      SnapshotConfig
	ErrorTracking ErrorTrackingConfig
}

type AppConfig struct {
	Name     string `envconfig:"APP_NAME" default:"argus"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Debug    bool   `envconfig:"DEBUG" default:"false"`
}

type AIConfig struct {
	OpenAIKey       string        `envconfig:"OPENAI_API_KEY"`
	GeminiKey       string        `envconfig:"GEMINI_API_KEY"`
	DefaultProvider string        `envconfig:"DEFAULT_AI_PROVIDER" default:"openai"`
	DeepThinkModel  string        `envconfig:"DEEP_THINK_MODEL" default:"gpt-4o"`
	QuickThinkModel string        `envconfig:"QUICK_THINK_MODEL" default:"gpt-4o-mini"`
	MaxRetries      int           `envconfig:"AI_MAX_RETRIES" default:"3"`
	RetryBaseDelay  time.Duration `envconfig:"AI_RETRY_BASE_DELAY" default:"500ms"`
	RequestTimeout  time.Duration `envconfig:"AI_REQUEST_TIMEOUT" default:"90s"`
	MaxTokens       int           `envconfig:"AI_MAX_TOKENS" default:"4096"`
}

type VendorConfig struct {
	FinnhubKey      string        `envconfig:"FINNHUB_API_KEY"`
	AlphaVantageKey string        `envconfig:"ALPHA_VANTAGE_API_KEY"`
	CallTimeout     time.Duration `envconfig:"VENDOR_CALL_TIMEOUT" default:"15s"`
	RatePerSecond   float64       `envconfig:"VENDOR_RATE_PER_SECOND" default:"5"`
	MaxRetries429   int           `envconfig:"VENDOR_MAX_RETRIES_429" default:"3"`
}

// DataConfig holds vendor priority lists per capability. Source snapshots
// disagree on the fundamentals default, so it is a tunable here rather than a
// constant anywhere else.
type DataConfig struct {
	PricePriority        []string `envconfig:"PRICE_VENDOR_PRIORITY" default:"yfinance,finnhub"`
	FundamentalsPriority []string `envconfig:"FUNDAMENTALS_VENDOR_PRIORITY" default:"alpha_vantage,yfinance"`
	NewsPriority         []string `envconfig:"NEWS_VENDOR_PRIORITY" default:"finnhub,alpha_vantage"`
	InsiderPriority      []string `envconfig:"INSIDER_VENDOR_PRIORITY" default:"finnhub"`
}

type WorkflowConfig struct {
	Analysts             []string `envconfig:"SELECTED_ANALYSTS" default:"market,news,fundamentals"`
	MaxDebateRounds      int      `envconfig:"MAX_DEBATE_ROUNDS" default:"1"`
	MaxRiskDiscussRounds int      `envconfig:"MAX_RISK_DISCUSS_ROUNDS" default:"1"`
	MaxToolCalls         int      `envconfig:"MAX_TOOL_CALLS" default:"8"`
	LookbackDays         int      `envconfig:"LOOKBACK_DAYS" default:"365"`
}

type RegimeConfig struct {
	MinRows         int     `envconfig:"REGIME_MIN_ROWS" default:"30"`
	HighVolatility  float64 `envconfig:"REGIME_HIGH_VOLATILITY" default:"0.04"`
	TrendThreshold  float64 `envconfig:"REGIME_TREND_THRESHOLD" default:"0.10"`
	HurstPersistent float64 `envconfig:"REGIME_HURST_PERSISTENT" default:"0.55"`
}

type SnapshotConfig struct {
	Backend  string        `envconfig:"SNAPSHOT_BACKEND" default:"file"`
	Dir      string        `envconfig:"SNAPSHOT_DIR" default:"./snapshots"`
	RedisURL string        `envconfig:"SNAPSHOT_REDIS_URL"`
	TTL      time.Duration `envconfig:"SNAPSHOT_TTL" default:"168h"`
}

type ErrorTrackingConfig struct {
	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"SENTRY_ENVIRONMENT" default:"development"`
}

// Load reads configuration from .env (if present) and the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "process env config")
	}

	return &cfg, nil
}
