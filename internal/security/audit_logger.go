package security

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/rs/zerolog/log"
)

// AuditLogger logs security-relevant events with hashed identifiers so
// raw SQL and API keys never land in the logs.
type AuditLogger struct {
	enabled bool
}

func NewAuditLogger(enabled bool) *AuditLogger {
	return &AuditLogger{enabled: enabled}
}

// LogQuery records a widget-data query execution.
func (a *AuditLogger) LogQuery(sql, apiKey, connectionID string, executionTimeMs int64, rowCount int, success bool, errMsg string) {
	if !a.enabled {
		return
	}
	evt := log.Info().
		Str("event", "query_audit").
		Str("sql_hash", hashStr(sql)[:16]).
		Str("api_key_hash", hashStr(apiKey)[:16]).
		Str("connection_id", connectionID).
		Int64("execution_time_ms", executionTimeMs).
		Int("row_count", rowCount).
		Bool("success", success)
	if errMsg != "" {
		evt = evt.Str("error", errMsg)
	}
	evt.Msg("audit")
}

// LogChat records one pipeline run: the classified intent and whether a
// widget update was produced.
func (a *AuditLogger) LogChat(message, apiKey, intent string, producedUpdate bool, executionTimeMs int64) {
	if !a.enabled {
		return
	}
	log.Info().
		Str("event", "chat_audit").
		Str("message_hash", hashStr(message)[:16]).
		Str("api_key_hash", hashStr(apiKey)[:16]).
		Str("intent", intent).
		Bool("produced_update", producedUpdate).
		Int64("execution_time_ms", executionTimeMs).
		Msg("audit")
}

func hashStr(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
