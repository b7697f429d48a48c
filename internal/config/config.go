// Package config loads the pointblank server configuration from YAML with
// environment variable overrides.
package config

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for the pointblank platform.
type Config struct {
	Server   Server         `yaml:"server"`
	Storage  Storage        `yaml:"storage"`
	Gemini   Gemini         `yaml:"gemini"`
	Supabase Supabase       `yaml:"supabase"`
	Razorpay Razorpay       `yaml:"razorpay"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Logging  Logging        `yaml:"logging"`
}

// Server holds network listener configuration.
type Server struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Storage holds paths for data persistence.
type Storage struct {
	DataDir    string `yaml:"data_dir"`
	SQLitePath string `yaml:"sqlite_path"`
}

// Gemini holds credentials and model selection for the generative-AI API.
type Gemini struct {
	APIKey          string `yaml:"api_key"`
	FlashModel      string `yaml:"flash_model"`
	ProModel        string `yaml:"pro_model"`
	RateLimitPerMin int    `yaml:"rate_limit_per_min"`
}

// Supabase holds the auth collaborator's endpoint and public key.
type Supabase struct {
	URL     string `yaml:"url"`
	AnonKey string `yaml:"anon_key"`
}

// Razorpay holds payment-gateway credentials and the subscription plan.
type Razorpay struct {
	KeyID        string `yaml:"key_id"`
	KeySecret    string `yaml:"key_secret"`
	PlanAmount   int64  `yaml:"plan_amount"` // smallest currency unit
	PlanCurrency string `yaml:"plan_currency"`
}

// AnalysisConfig controls the analysis request lifecycle.
type AnalysisConfig struct {
	FreeLimit      int `yaml:"free_limit"`      // free analyses per account
	TimeoutSeconds int `yaml:"timeout_seconds"` // per external AI call
	MaxAttempts    int `yaml:"max_attempts"`    // primary fetch retries
	HistoryDays    int `yaml:"history_days"`
	ForecastDays   int `yaml:"forecast_days"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the YAML configuration file at the given path, parses it into
// a Config struct, applies defaults for unset lifecycle parameters, and
// then applies environment variable overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	applyDefaults(cfg)
	applyEnvOverrides(cfg)

	return cfg, nil
}

// Default returns the built-in configuration with environment overrides
// applied, for running without a config file. Secrets (API keys) have no
// defaults and must come from the environment.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	applyEnvOverrides(cfg)
	return cfg
}

// applyDefaults fills lifecycle and model parameters that the file may omit.
func applyDefaults(cfg *Config) {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.DataDir == "" {
		cfg.Storage.DataDir = "data"
	}
	if cfg.Gemini.FlashModel == "" {
		cfg.Gemini.FlashModel = "gemini-2.5-flash"
	}
	if cfg.Gemini.ProModel == "" {
		cfg.Gemini.ProModel = "gemini-2.5-pro"
	}
	if cfg.Gemini.RateLimitPerMin <= 0 {
		cfg.Gemini.RateLimitPerMin = 60
	}
	if cfg.Analysis.FreeLimit <= 0 {
		cfg.Analysis.FreeLimit = 3
	}
	if cfg.Analysis.TimeoutSeconds <= 0 {
		cfg.Analysis.TimeoutSeconds = 120
	}
	if cfg.Analysis.MaxAttempts <= 0 {
		cfg.Analysis.MaxAttempts = 2
	}
	if cfg.Analysis.HistoryDays <= 0 {
		cfg.Analysis.HistoryDays = 90
	}
	if cfg.Analysis.ForecastDays <= 0 {
		cfg.Analysis.ForecastDays = 30
	}
	if cfg.Razorpay.PlanCurrency == "" {
		cfg.Razorpay.PlanCurrency = "INR"
	}
}

// applyEnvOverrides checks well-known environment variables and overrides
// the corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = n
		}
	}

	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}

	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.Gemini.APIKey = v
	}

	if v := os.Getenv("SUPABASE_URL"); v != "" {
		cfg.Supabase.URL = v
	}
	if v := os.Getenv("SUPABASE_ANON_KEY"); v != "" {
		cfg.Supabase.AnonKey = v
	}

	if v := os.Getenv("RAZORPAY_KEY_ID"); v != "" {
		cfg.Razorpay.KeyID = v
	}
	if v := os.Getenv("RAZORPAY_KEY_SECRET"); v != "" {
		cfg.Razorpay.KeySecret = v
	}

	if v := os.Getenv("ANALYSIS_FREE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Analysis.FreeLimit = n
		}
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
