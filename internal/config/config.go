package config

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Server
	Host        string `json:"host"`
	Port        int    `json:"port"`
	Environment string `json:"environment"`
	APIPrefix   string `json:"api_prefix"`
	LogLevel    string `json:"log_level"`

	// CORS
	CORSOrigins []string `json:"cors_origins"`

	// Auth
	APIKeyHeader string   `json:"api_key_header"`
	APIKeys      []string `json:"api_keys"`
	EnableAuth   bool     `json:"enable_auth"`

	// Rate Limiting
	RateLimitPerMinute int `json:"rate_limit_per_minute"`

	// Postgres. When a DSN is set, Postgres serves both as the data
	// source backend and as the durable schema-analysis cache.
	PostgresDSN string `json:"postgres_dsn"`

	// BigQuery
	GCPProjectID                 string `json:"gcp_project_id"`
	GoogleApplicationCredentials string `json:"google_application_credentials"`
	BigQueryLocation             string `json:"bigquery_location"`
	BigQueryDataset              string `json:"bigquery_dataset"`

	// AI / LLM
	AnthropicAPIKey  string `json:"anthropic_api_key"`
	AnthropicBaseURL string `json:"anthropic_base_url"` // override for a custom proxy
	AnthropicModel   string `json:"anthropic_model"`
	AgentTimeout     time.Duration
	AgentTimeoutSec  int `json:"agent_timeout_seconds"`

	// Pipeline
	ContextTokenLimit int          `json:"context_token_limit"`
	Temperatures      Temperatures `json:"temperatures"`

	// Filter options
	OptionsMaxLimit int `json:"options_max_limit"`

	// Schema cache
	SchemaCacheTTL    time.Duration
	SchemaCacheTTLSec int `json:"schema_cache_ttl_seconds"`

	// Security
	EnableAuditLogging bool `json:"enable_audit_logging"`
}

// Temperatures tunes sampling per agent.
type Temperatures struct {
	Router     float64 `json:"router"`
	Schema     float64 `json:"schema"`
	Query      float64 `json:"query"`
	Filter     float64 `json:"filter"`
	Chart      float64 `json:"chart"`
	Summarizer float64 `json:"summarizer"`
}

func Load() (*Config, error) {
	cfg := &Config{
		Host:               DefaultHost,
		Port:               DefaultPort,
		Environment:        DefaultEnvironment,
		APIPrefix:          DefaultAPIPrefix,
		LogLevel:           DefaultLogLevel,
		CORSOrigins:        DefaultCORSOrigins,
		APIKeyHeader:       "X-API-Key",
		EnableAuth:         true,
		RateLimitPerMinute: DefaultRateLimitPerMinute,
		BigQueryLocation:   DefaultBigQueryLocation,
		AnthropicModel:     DefaultAnthropicModel,
		AgentTimeout:       DefaultAgentTimeout,
		ContextTokenLimit:  DefaultContextTokenLimit,
		OptionsMaxLimit:    DefaultOptionsMaxLimit,
		SchemaCacheTTL:     DefaultSchemaCacheTTL,
		EnableAuditLogging: true,
		Temperatures: Temperatures{
			Router:     DefaultRouterTemperature,
			Schema:     DefaultSchemaTemperature,
			Query:      DefaultQueryTemperature,
			Filter:     DefaultFilterTemperature,
			Chart:      DefaultChartTemperature,
			Summarizer: DefaultSummarizerTemperature,
		},
	}

	// Load from JSON config file if specified
	if path := getEnv("CHARTPILOT_CONFIG", ""); path != "" {
		if err := loadJSON(path, cfg); err != nil {
			return nil, err
		}
	}

	// Environment overrides
	applyEnvOverrides(cfg)

	if cfg.AgentTimeoutSec > 0 {
		cfg.AgentTimeout = time.Duration(cfg.AgentTimeoutSec) * time.Second
	}
	if cfg.SchemaCacheTTLSec > 0 {
		cfg.SchemaCacheTTL = time.Duration(cfg.SchemaCacheTTLSec) * time.Second
	}

	return cfg, nil
}

func loadJSON(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, cfg)
}

func applyEnvOverrides(cfg *Config) {
	if v := getEnv("CHARTPILOT_HOST", ""); v != "" {
		cfg.Host = v
	}
	if v := getEnv("CHARTPILOT_PORT", ""); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Port = p
		}
	}
	if v := getEnv("CHARTPILOT_ENV", ""); v != "" {
		cfg.Environment = v
	}
	if v := getEnv("CHARTPILOT_LOG_LEVEL", ""); v != "" {
		cfg.LogLevel = v
	}
	if v := getEnv("CHARTPILOT_API_KEYS", ""); v != "" {
		cfg.APIKeys = strings.Split(v, ",")
	}
	if v := getEnv("DATABASE_URL", ""); v != "" {
		cfg.PostgresDSN = v
	}
	if v := getEnv("GCP_PROJECT_ID", ""); v != "" {
		cfg.GCPProjectID = v
	}
	if v := getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""); v != "" {
		cfg.GoogleApplicationCredentials = v
	}
	if v := getEnv("BIGQUERY_DATASET", ""); v != "" {
		cfg.BigQueryDataset = v
	}
	if v := getEnv("ANTHROPIC_API_KEY", ""); v != "" {
		cfg.AnthropicAPIKey = v
	}
	if v := getEnv("ANTHROPIC_BASE_URL", ""); v != "" {
		cfg.AnthropicBaseURL = v
	}
	if v := getEnv("ANTHROPIC_MODEL", ""); v != "" {
		cfg.AnthropicModel = v
	}
	if v := getEnv("CONTEXT_TOKEN_LIMIT", ""); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.ContextTokenLimit = n
		}
	}
	if v := getEnv("RATE_LIMIT_PER_MINUTE", ""); v != "" {
		if r, err := strconv.Atoi(v); err == nil {
			cfg.RateLimitPerMinute = r
		}
	}
	if v := getEnv("ENABLE_AUTH", ""); v != "" {
		cfg.EnableAuth = v == "true" || v == "1"
	}
	if v := getEnv("ENABLE_AUDIT_LOGGING", ""); v != "" {
		cfg.EnableAuditLogging = v == "true" || v == "1"
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}
