package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for insight-engine. Values come from
// config.yaml with environment variable overrides; secrets (store URL,
// API keys) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8080"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// Document store holding the four collections
	Store StoreConfig `yaml:"store"`

	// Optional Redis cache for forecast snapshots
	Redis RedisConfig `yaml:"redis"`

	// Language-model service (planner and composer)
	AI AIConfig `yaml:"ai"`

	// Stock-out forecasting and anomaly policy
	Forecast ForecastConfig `yaml:"forecast"`

	// Table snapshot cache
	Cache CacheConfig `yaml:"cache"`
}

// StoreConfig selects and configures the document-store adapter.
type StoreConfig struct {
	// Driver is "postgres" or "sqlserver".
	Driver string `yaml:"driver" env:"STORE_DRIVER" env-default:"postgres"`
	// URL is the full connection string. Secret - not in YAML.
	URL string `yaml:"-" env:"STORE_URL"`
	// MaxConnections caps the adapter's connection pool.
	MaxConnections int32 `yaml:"max_connections" env:"STORE_MAX_CONNECTIONS" env-default:"10"`
}

// RedisConfig configures the optional forecast snapshot cache. Disabled
// when Host is empty.
type RedisConfig struct {
	Host     string `yaml:"host" env:"REDIS_HOST" env-default:""`
	Port     int    `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password string `yaml:"-" env:"REDIS_PASSWORD"` // Secret - not in YAML
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

// AIConfig configures the model service used as planner and composer.
type AIConfig struct {
	Provider       string  `yaml:"provider" env:"AI_PROVIDER" env-default:"openai"`
	Endpoint       string  `yaml:"endpoint" env:"AI_ENDPOINT" env-default:"https://api.openai.com/v1"`
	Model          string  `yaml:"model" env:"AI_MODEL" env-default:"gpt-4o-mini"`
	APIKey         string  `yaml:"-" env:"AI_API_KEY"` // Secret - not in YAML
	TimeoutSeconds int     `yaml:"timeout_seconds" env:"AI_TIMEOUT_SECONDS" env-default:"30"`
	Temperature    float64 `yaml:"temperature" env:"AI_TEMPERATURE" env-default:"0.1"`
	// PlanRetries bounds how often the planner asks the model to re-plan
	// after an invalid plan. Tunable policy, default one re-plan.
	PlanRetries int `yaml:"plan_retries" env:"AI_PLAN_RETRIES" env-default:"1"`
}

// Timeout returns the per-call model service timeout. Zero or negative
// means unset and falls back to 30 seconds.
func (c *AIConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ForecastConfig holds the tunable stock-out and anomaly policy. Risk band
// cutoffs must be strictly increasing; every finite days-to-stockout maps
// to exactly one band.
type ForecastConfig struct {
	CriticalDays int `yaml:"critical_days" env:"FORECAST_CRITICAL_DAYS" env-default:"7"`
	HighDays     int `yaml:"high_days" env:"FORECAST_HIGH_DAYS" env-default:"14"`
	ModerateDays int `yaml:"moderate_days" env:"FORECAST_MODERATE_DAYS" env-default:"30"`
	// HorizonDays caps projections; no numeric ETA is reported beyond it.
	HorizonDays int `yaml:"horizon_days" env:"FORECAST_HORIZON_DAYS" env-default:"30"`
	// WindowDays is the consumption history window for the burn rate.
	WindowDays int `yaml:"window_days" env:"FORECAST_WINDOW_DAYS" env-default:"30"`

	// Isolation forest parameters
	Trees          int     `yaml:"trees" env:"FORECAST_TREES" env-default:"100"`
	Subsample      int     `yaml:"subsample" env:"FORECAST_SUBSAMPLE" env-default:"64"`
	ScoreThreshold float64 `yaml:"score_threshold" env:"FORECAST_SCORE_THRESHOLD" env-default:"0.62"`

	// AtRiskDays marks pending orders due within this many days as at risk.
	AtRiskDays int `yaml:"at_risk_days" env:"FORECAST_AT_RISK_DAYS" env-default:"2"`

	// Revenue anomaly scan
	RevenueWindowDays int     `yaml:"revenue_window_days" env:"FORECAST_REVENUE_WINDOW_DAYS" env-default:"7"`
	RevenueZThreshold float64 `yaml:"revenue_z_threshold" env:"FORECAST_REVENUE_Z_THRESHOLD" env-default:"2.0"`
}

// Validate checks that the risk bands are monotonic and the model
// parameters are usable.
func (f *ForecastConfig) Validate() error {
	if f.CriticalDays <= 0 || f.HighDays <= f.CriticalDays || f.ModerateDays <= f.HighDays {
		return fmt.Errorf("risk band cutoffs must be strictly increasing: critical=%d high=%d moderate=%d",
			f.CriticalDays, f.HighDays, f.ModerateDays)
	}
	if f.HorizonDays <= 0 {
		return fmt.Errorf("horizon_days must be positive")
	}
	if f.WindowDays <= 0 {
		return fmt.Errorf("window_days must be positive")
	}
	if f.Trees <= 0 || f.Subsample <= 1 {
		return fmt.Errorf("isolation forest needs trees > 0 and subsample > 1")
	}
	if f.ScoreThreshold <= 0 || f.ScoreThreshold >= 1 {
		return fmt.Errorf("score_threshold must be in (0, 1)")
	}
	return nil
}

// CacheConfig controls the table snapshot cache.
type CacheConfig struct {
	// TTLSeconds is how long a snapshot is served before a refresh.
	TTLSeconds int `yaml:"ttl_seconds" env:"CACHE_TTL_SECONDS" env-default:"60"`
}

// TTL returns the snapshot time-to-live.
func (c *CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// Load reads configuration from config.yaml with environment variable
// overrides. The version parameter is injected at build time.
func Load(version string) (*Config, error) {
	cfg := &Config{Version: version}

	if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
		return nil, fmt.Errorf("failed to read config.yaml: %w", err)
	}

	if err := cfg.Forecast.Validate(); err != nil {
		return nil, fmt.Errorf("invalid forecast configuration: %w", err)
	}

	return cfg, nil
}
