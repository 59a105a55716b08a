package config

import "time"

const (
	DefaultHost        = "0.0.0.0"
	DefaultPort        = 8000
	DefaultEnvironment = "development"
	DefaultAPIPrefix   = "/api/v1"
	DefaultLogLevel    = "info"

	DefaultRateLimitPerMinute = 60

	DefaultBigQueryLocation = "US"

	DefaultAgentTimeout = 60 * time.Second

	// DefaultContextTokenLimit triggers history summarization once the
	// estimated conversation size crosses it.
	DefaultContextTokenLimit = 64000

	// DefaultOptionsLimit is applied when a filter-options request omits
	// its limit. DefaultOptionsMaxLimit is the hard cap.
	DefaultOptionsLimit    = 50
	DefaultOptionsMaxLimit = 500

	// DefaultSchemaCacheTTL bounds the in-memory analysis cache when no
	// Postgres store is configured.
	DefaultSchemaCacheTTL = 24 * time.Hour

	DefaultAnthropicModel = "claude-sonnet-4-6"

	DefaultCORSMaxAge = 300
)

var DefaultCORSOrigins = []string{
	"http://localhost:3000",
	"http://localhost:8080",
}

// Per-agent sampling temperatures. Routing and SQL generation stay
// deterministic; chart styling gets a little freedom.
const (
	DefaultRouterTemperature     = 0.0
	DefaultSchemaTemperature     = 0.0
	DefaultQueryTemperature      = 0.0
	DefaultFilterTemperature     = 0.2
	DefaultChartTemperature      = 0.4
	DefaultSummarizerTemperature = 0.3
)
