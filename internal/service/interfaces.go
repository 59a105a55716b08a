// Package service provides the narrow data-access surface the pipeline
// consumes: schema introspection and parameterized query execution against
// a target database, plus the filter-options lookup built on top.
package service

import (
	"context"
	"strings"

	"github.com/chartpilot/chartpilot/internal/models"
)

// SchemaProvider introspects the structural schema of a data source.
type SchemaProvider interface {
	GetSchema(ctx context.Context, dataSourceID string) (*models.RawSchema, error)
}

// QueryExecutor runs read-only SQL with :name-style bound parameters.
// Implementations translate the placeholders to their driver's syntax;
// parameter values are always bound, never interpolated.
type QueryExecutor interface {
	Execute(ctx context.Context, dataSourceID, sql string, params map[string]interface{}) ([]map[string]interface{}, error)
}

// rewriteColonParams converts :name placeholders to @name, the named-
// parameter syntax shared by pgx.NamedArgs and BigQuery. Postgres ::type
// casts and quoted string literals are left untouched.
func rewriteColonParams(sql string) string {
	var sb strings.Builder
	sb.Grow(len(sql))
	inString := false
	for i := 0; i < len(sql); i++ {
		c := sql[i]
		if c == '\'' {
			inString = !inString
			sb.WriteByte(c)
			continue
		}
		if inString || c != ':' {
			sb.WriteByte(c)
			continue
		}
		// '::' is a cast, not a placeholder.
		if i+1 < len(sql) && sql[i+1] == ':' {
			sb.WriteString("::")
			i++
			continue
		}
		if i > 0 && sql[i-1] == ':' {
			sb.WriteByte(c)
			continue
		}
		if i+1 < len(sql) && isIdentStart(sql[i+1]) {
			sb.WriteByte('@')
			continue
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
