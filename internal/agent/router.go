package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/chartpilot/chartpilot/internal/llm"
	"github.com/chartpilot/chartpilot/internal/models"
)

const routerHistoryWindow = 6

// RequestRouter classifies the user's intent and decides which builders
// run. Routing is cheap and deterministic: short prompt, low temperature.
type RequestRouter struct {
	client llm.CompletionClient
	opts   Options
}

func NewRequestRouter(client llm.CompletionClient, opts Options) *RequestRouter {
	return &RequestRouter{client: client, opts: opts.withDefaults(0.2)}
}

// Route produces a RoutingDecision for the user's message. A failed or
// malformed completion yields a "cannot determine" decision (all flags
// false, empty summary) rather than an error.
//
// The create_chart readiness gate is enforced here, not trusted from the
// model: when any of the three required checklist items is missing the
// decision is forced to a clarification with every needs flag cleared.
func (r *RequestRouter) Route(ctx context.Context, message string, history []models.ConversationMessage, widget *models.WidgetSnapshot, hasConnection bool) models.RoutingDecision {
	msgs := []llm.Message{{Role: models.RoleSystem, Content: routerPrompt}}

	if widget != nil {
		msgs = append(msgs, llm.Message{
			Role:    models.RoleSystem,
			Content: "Current widget state:\n" + widgetSummary(widget),
		})
	}
	msgs = append(msgs, llm.Message{
		Role:    models.RoleSystem,
		Content: fmt.Sprintf("Database connected: %v", hasConnection),
	})
	msgs = append(msgs, historyMessages(history, routerHistoryWindow)...)
	msgs = append(msgs, llm.Message{Role: models.RoleUser, Content: message})

	res, ok := callCompletion(ctx, r.client, "request_router", msgs, r.opts)
	if !ok {
		return models.RoutingDecision{Intent: models.IntentQuestion}
	}

	decision := decodeDecision(res)
	return enforceGate(decision, hasConnection)
}

func decodeDecision(res map[string]interface{}) models.RoutingDecision {
	intent := llm.Str(res, "intent", models.IntentCreateChart)

	// Checklist items default true for non-create intents: modifying an
	// existing widget does not re-litigate what is already configured.
	def := intent != models.IntentCreateChart
	cl := llm.Map(res, "checklist")

	return models.RoutingDecision{
		Intent:              intent,
		NeedsSchemaAnalysis: llm.Bool(res, "needs_schema_analysis", false),
		NeedsQuery:          llm.Bool(res, "needs_query", false),
		NeedsFilters:        llm.Bool(res, "needs_filters", false),
		NeedsChart:          llm.Bool(res, "needs_chart", false),
		NeedsClarification:  llm.Bool(res, "needs_clarification", false),
		Checklist: models.Checklist{
			HasDataSource: llm.Bool(cl, "has_data_source", def),
			HasMetric:     llm.Bool(cl, "has_metric", def),
			HasDimension:  llm.Bool(cl, "has_dimension", def),
			HasChartType:  llm.Bool(cl, "has_chart_type", def),
			HasFilters:    llm.Bool(cl, "has_filters", def),
			HasTimeRange:  llm.Bool(cl, "has_time_range", def),
		},
		Message: llm.Str(res, "message", ""),
		Summary: llm.Str(res, "summary", ""),
	}
}

// enforceGate applies the readiness gate and the clarification invariant
// regardless of what the model returned.
func enforceGate(d models.RoutingDecision, hasConnection bool) models.RoutingDecision {
	if d.Intent == models.IntentCreateChart {
		if !hasConnection {
			d.Checklist.HasDataSource = false
		}
		if !d.Checklist.RequiredComplete() {
			d.NeedsClarification = true
		}
	}

	if d.NeedsClarification {
		d.NeedsSchemaAnalysis = false
		d.NeedsQuery = false
		d.NeedsFilters = false
		d.NeedsChart = false
		if d.Message == "" {
			d.Message = clarifyingQuestion(d.Checklist)
		}
		log.Debug().Str("intent", d.Intent).Msg("routing requires clarification")
	}
	return d
}

func clarifyingQuestion(cl models.Checklist) string {
	missing := cl.MissingRequired()
	if len(missing) == 0 {
		return "Could you tell me a bit more about what you'd like to build?"
	}
	return "Before I can build this chart, I need to know " + strings.Join(missing, ", and ") + "."
}

func widgetSummary(w *models.WidgetSnapshot) string {
	var parts []string
	if w.ChartType != "" {
		parts = append(parts, "chart_type: "+w.ChartType)
	}
	if w.QueryTemplate != "" {
		parts = append(parts, "query_template: "+w.QueryTemplate)
	}
	if len(w.ChartConfig) > 0 {
		cfg, _ := json.Marshal(w.ChartConfig)
		parts = append(parts, "chart_config: "+string(cfg))
	}
	if len(w.Filters) > 0 {
		labels := make([]string, len(w.Filters))
		for i, f := range w.Filters {
			if f.Label != "" {
				labels[i] = f.Label
			} else {
				labels[i] = f.ParamName
			}
		}
		parts = append(parts, "filters: "+strings.Join(labels, ", "))
	}
	if len(parts) == 0 {
		return "Empty widget"
	}
	return strings.Join(parts, "\n")
}
