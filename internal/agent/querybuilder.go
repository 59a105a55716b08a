package agent

import (
	"context"
	"encoding/json"

	"github.com/chartpilot/chartpilot/internal/llm"
	"github.com/chartpilot/chartpilot/internal/models"
)

const builderHistoryWindow = 4

// BuildContext is the shared bundle every specialist builder receives.
type BuildContext struct {
	UserMessage string
	History     []models.ConversationMessage
	Widget      *models.WidgetSnapshot
	Analysis    *models.SchemaAnalysis
	Summary     string
}

// QueryBuilder generates or modifies conditional SQL query templates.
type QueryBuilder struct {
	client llm.CompletionClient
	opts   Options
}

func NewQueryBuilder(client llm.CompletionClient, opts Options) *QueryBuilder {
	return &QueryBuilder{client: client, opts: opts.withDefaults(0.4)}
}

// Build issues one completion call and normalizes the result. On failure
// it returns an empty result; the orchestrator degrades gracefully.
func (b *QueryBuilder) Build(ctx context.Context, bc BuildContext) models.QueryResult {
	msgs := []llm.Message{{Role: models.RoleSystem, Content: queryPrompt}}

	if bc.Analysis != nil {
		raw, _ := json.MarshalIndent(bc.Analysis, "", "  ")
		msgs = append(msgs, llm.Message{
			Role:    models.RoleSystem,
			Content: "Database schema analysis:\n" + string(raw),
		})
	}
	if bc.Widget != nil && bc.Widget.QueryTemplate != "" {
		msgs = append(msgs, llm.Message{
			Role:    models.RoleSystem,
			Content: "Current query template:\n" + bc.Widget.QueryTemplate,
		})
	}
	msgs = append(msgs, historyMessages(bc.History, builderHistoryWindow)...)
	msgs = append(msgs, userMessage(bc.Summary, bc.UserMessage))

	res, ok := callCompletion(ctx, b.client, "query_builder", msgs, b.opts)
	if !ok {
		return models.QueryResult{}
	}

	result := models.QueryResult{
		QueryTemplate: llm.Str(res, "query_template", ""),
		Explanation:   llm.Str(res, "explanation", ""),
	}
	for _, item := range llm.List(res, "output_columns") {
		col, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		result.OutputColumns = append(result.OutputColumns, models.QueryColumn{
			Name: llm.Str(col, "name", ""),
			Type: llm.Str(col, "type", "string"),
		})
	}
	return result
}
