package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/chartpilot/chartpilot/internal/llm"
	"github.com/chartpilot/chartpilot/internal/models"
	"github.com/chartpilot/chartpilot/internal/schemacache"
)

// SchemaAnalyzer produces (and caches) the semantic analysis of a raw
// schema. A cache entry whose stored hash matches the current schema short-
// circuits the completion call entirely; concurrent requests for the same
// data source are collapsed into one generation.
type SchemaAnalyzer struct {
	client llm.CompletionClient
	store  schemacache.Store
	group  singleflight.Group
	opts   Options
}

func NewSchemaAnalyzer(client llm.CompletionClient, store schemacache.Store, opts Options) *SchemaAnalyzer {
	return &SchemaAnalyzer{client: client, store: store, opts: opts.withDefaults(0.3)}
}

// Analyze returns the cached or freshly generated analysis, or nil when
// generation failed. A generation failure never corrupts an existing
// cache entry: the cache is only written after a successful parse.
func (a *SchemaAnalyzer) Analyze(ctx context.Context, dataSourceID string, schema *models.RawSchema) *models.SchemaAnalysis {
	if schema == nil {
		return nil
	}
	hash := schemacache.Hash(schema)

	v, _, _ := a.group.Do(dataSourceID+":"+hash, func() (interface{}, error) {
		return a.analyzeOnce(ctx, dataSourceID, hash, schema), nil
	})
	analysis, _ := v.(*models.SchemaAnalysis)
	return analysis
}

func (a *SchemaAnalyzer) analyzeOnce(ctx context.Context, dataSourceID, hash string, schema *models.RawSchema) *models.SchemaAnalysis {
	if a.store != nil && dataSourceID != "" {
		entry, err := a.store.Load(ctx, dataSourceID)
		if err != nil {
			log.Warn().Err(err).Str("data_source", dataSourceID).Msg("schema cache load failed")
		} else if entry != nil && entry.Hash == hash {
			log.Info().Str("data_source", dataSourceID).Msg("returning cached schema analysis")
			analysis := entry.Analysis
			return &analysis
		}
	}

	msgs := []llm.Message{
		{Role: models.RoleSystem, Content: schemaPrompt},
		{Role: models.RoleUser, Content: formatSchema(schema)},
	}
	res, ok := callCompletion(ctx, a.client, "schema_analyzer", msgs, a.opts)
	if !ok {
		return nil
	}

	analysis := decodeAnalysis(res)
	if a.store != nil && dataSourceID != "" {
		if err := a.store.Save(ctx, dataSourceID, hash, analysis); err != nil {
			log.Warn().Err(err).Str("data_source", dataSourceID).Msg("schema cache save failed")
		}
	}
	return &analysis
}

func decodeAnalysis(res map[string]interface{}) models.SchemaAnalysis {
	var analysis models.SchemaAnalysis
	for _, item := range llm.List(res, "tables") {
		t, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		table := models.TableAnalysis{
			Name:        llm.Str(t, "name", ""),
			Description: llm.Str(t, "description", ""),
			KeyColumns:  llm.StrList(t, "key_columns"),
		}
		for _, relItem := range llm.List(t, "relationships") {
			rel, ok := relItem.(map[string]interface{})
			if !ok {
				continue
			}
			table.Relationships = append(table.Relationships, models.Relationship{
				To:   llm.Str(rel, "to", ""),
				Type: llm.Str(rel, "type", ""),
				Join: llm.Str(rel, "join", ""),
			})
		}
		analysis.Tables = append(analysis.Tables, table)
	}
	for _, item := range llm.List(res, "join_paths") {
		jp, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		analysis.JoinPaths = append(analysis.JoinPaths, models.JoinPath{
			Description: llm.Str(jp, "description", ""),
			SQL:         llm.Str(jp, "sql", ""),
		})
	}
	analysis.SuggestedMetrics = llm.StrList(res, "suggested_metrics")
	analysis.Notes = llm.Str(res, "notes", "")
	return analysis
}

// formatSchema renders the raw schema as structured text for the prompt.
func formatSchema(schema *models.RawSchema) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Database: %s", schema.Database)
	for _, table := range schema.Tables {
		fmt.Fprintf(&sb, "\n\nTable: %s", table.Name)
		for _, col := range table.Columns {
			pk := ""
			if col.PrimaryKey {
				pk = " [PK]"
			}
			nullable := ""
			if col.Nullable {
				nullable = " NULL"
			}
			fmt.Fprintf(&sb, "\n  - %s %s%s%s", col.Name, col.Type, pk, nullable)
		}
		for _, fk := range table.ForeignKeys {
			fmt.Fprintf(&sb, "\n  FK: (%s) -> %s(%s)",
				strings.Join(fk.Columns, ", "),
				fk.ReferredTable,
				strings.Join(fk.ReferredColumns, ", "))
		}
	}
	return sb.String()
}
