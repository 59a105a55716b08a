package agent

import (
	"context"
	"encoding/json"

	"github.com/chartpilot/chartpilot/internal/llm"
	"github.com/chartpilot/chartpilot/internal/models"
)

// ChartBuilder selects a chart type and produces a Chart.js-compatible
// config from the query's output columns.
type ChartBuilder struct {
	client llm.CompletionClient
	opts   Options
}

func NewChartBuilder(client llm.CompletionClient, opts Options) *ChartBuilder {
	return &ChartBuilder{client: client, opts: opts.withDefaults(0.5)}
}

func (b *ChartBuilder) Build(ctx context.Context, bc BuildContext, outputColumns []models.QueryColumn) models.ChartResult {
	msgs := []llm.Message{{Role: models.RoleSystem, Content: chartPrompt}}

	if len(outputColumns) > 0 {
		raw, _ := json.Marshal(outputColumns)
		msgs = append(msgs, llm.Message{
			Role:    models.RoleSystem,
			Content: "Query output columns:\n" + string(raw),
		})
	}
	if bc.Widget != nil {
		current := make(map[string]interface{})
		if bc.Widget.ChartType != "" {
			current["chart_type"] = bc.Widget.ChartType
		}
		if len(bc.Widget.ChartConfig) > 0 {
			current["chart_config"] = bc.Widget.ChartConfig
		}
		if len(current) > 0 {
			raw, _ := json.MarshalIndent(current, "", "  ")
			msgs = append(msgs, llm.Message{
				Role:    models.RoleSystem,
				Content: "Current chart configuration:\n" + string(raw),
			})
		}
	}
	msgs = append(msgs, historyMessages(bc.History, builderHistoryWindow)...)
	msgs = append(msgs, userMessage(bc.Summary, bc.UserMessage))

	res, ok := callCompletion(ctx, b.client, "chart_builder", msgs, b.opts)
	if !ok {
		return models.ChartResult{}
	}

	return models.ChartResult{
		ChartType:   llm.Str(res, "chart_type", "bar"),
		ChartConfig: llm.Map(res, "chart_config"),
		Explanation: llm.Str(res, "explanation", ""),
	}
}
