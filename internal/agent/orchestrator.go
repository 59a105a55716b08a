package agent

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/chartpilot/chartpilot/internal/models"
)

// SummaryStore persists the rolling conversation summary keyed by widget
// identity. Storage itself is an external concern; the orchestrator only
// pushes new summaries through this narrow interface.
type SummaryStore interface {
	SaveSummary(ctx context.Context, widgetID, summary string) error
}

// Deps wires the orchestrator. Summaries may be nil.
type Deps struct {
	Router     *RequestRouter
	Schema     *SchemaAnalyzer
	Query      *QueryBuilder
	Filter     *FilterBuilder
	Chart      *ChartBuilder
	Summarizer *Summarizer
	Summaries  SummaryStore
	TokenLimit int
}

// Orchestrator sequences the pipeline: summarize when the context is too
// long, route, then run the enabled builders in dependency order and merge
// their outputs. One orchestration run is strictly sequential; concurrent
// runs share only the schema cache and the summary store.
type Orchestrator struct {
	deps Deps
}

func NewOrchestrator(deps Deps) *Orchestrator {
	if deps.TokenLimit <= 0 {
		deps.TokenLimit = 64000
	}
	return &Orchestrator{deps: deps}
}

// Input is one orchestration request. History and Widget are owned by the
// caller and never mutated.
type Input struct {
	UserMessage  string
	History      []models.ConversationMessage
	Schema       *models.RawSchema
	Widget       *models.WidgetSnapshot
	ConnectionID string
}

// Run executes the full pipeline and returns the merged result.
func (o *Orchestrator) Run(ctx context.Context, in Input) (*models.ChatResponse, error) {
	return o.run(ctx, in, nil)
}

// RunStream executes the pipeline, emitting agent_start / agent_done
// events around every step and a final result event carrying the same
// payload Run would return. Cancellation between steps (context or a
// failing emitter) discards all partial results.
func (o *Orchestrator) RunStream(ctx context.Context, in Input, emit Emitter) (*models.ChatResponse, error) {
	resp, err := o.run(ctx, in, emit)
	if err != nil {
		return nil, err
	}
	if err := emit(Event{Type: EventResult, Data: resp}); err != nil {
		return nil, err
	}
	return resp, nil
}

// pipelineStep is one planned entry of a run: the step-plan is computed
// once from the routing decision, then iterated.
type pipelineStep struct {
	agent string
	label string
	run   func(ctx context.Context)
}

func (o *Orchestrator) run(ctx context.Context, in Input, emit Emitter) (*models.ChatResponse, error) {
	hasConnection := in.ConnectionID != "" && in.Schema != nil
	history := in.History
	step := 0

	// 0. Compress the context when the history exceeds the token budget.
	if o.deps.Summarizer != nil && EstimateTokens(history) > o.deps.TokenLimit {
		log.Info().Int("estimated_tokens", EstimateTokens(history)).Int("limit", o.deps.TokenLimit).
			Msg("context too long, running summarizer")
		if err := o.notify(ctx, emit, EventAgentStart, StepInfo{Agent: "summarizer", Label: "Compressing chat context...", Step: step}); err != nil {
			return nil, err
		}
		previous := ""
		if in.Widget != nil {
			previous = in.Widget.ChatSummary
		}
		summary, ok := o.deps.Summarizer.Summarize(ctx, history, previous)
		if ok && summary != "" {
			history = compressHistory(history, summary)
			if o.deps.Summaries != nil && in.Widget != nil && in.Widget.ID != "" {
				if err := o.deps.Summaries.SaveSummary(ctx, in.Widget.ID, summary); err != nil {
					log.Warn().Err(err).Str("widget", in.Widget.ID).Msg("failed to persist chat summary")
				}
			}
		}
		if err := o.notify(ctx, emit, EventAgentDone, StepInfo{Agent: "summarizer", Step: step}); err != nil {
			return nil, err
		}
	}

	// 1. Route.
	step++
	if err := o.notify(ctx, emit, EventAgentStart, StepInfo{Agent: "request_router", Label: "Analyzing request...", Step: step}); err != nil {
		return nil, err
	}
	routing := o.deps.Router.Route(ctx, in.UserMessage, history, in.Widget, hasConnection)
	if err := o.notify(ctx, emit, EventAgentDone, StepInfo{Agent: "request_router", Step: step, Summary: routing.Summary}); err != nil {
		return nil, err
	}
	log.Info().
		Str("intent", routing.Intent).
		Bool("query", routing.NeedsQuery).
		Bool("filters", routing.NeedsFilters).
		Bool("chart", routing.NeedsChart).
		Bool("schema", routing.NeedsSchemaAnalysis).
		Bool("clarification", routing.NeedsClarification).
		Msg("routing decision")

	// Greetings, questions and clarification requests skip generation.
	if !routing.NeedsGeneration() {
		return &models.ChatResponse{
			Message: firstNonEmpty(routing.Message, routing.Summary, fallbackAck),
			Filters: []models.FilterDef{},
		}, nil
	}

	// 2. Plan the enabled steps and run them in dependency order.
	st := &runState{}
	if in.Widget != nil {
		st.queryTemplate = in.Widget.QueryTemplate
	}
	bc := BuildContext{
		UserMessage: in.UserMessage,
		History:     history,
		Widget:      in.Widget,
		Summary:     routing.Summary,
	}

	var plan []pipelineStep
	if routing.NeedsSchemaAnalysis && in.Schema != nil {
		plan = append(plan, pipelineStep{"schema_analyzer", "Analyzing database schema...", func(ctx context.Context) {
			st.analysis = o.deps.Schema.Analyze(ctx, in.ConnectionID, in.Schema)
		}})
	}
	if routing.NeedsQuery {
		plan = append(plan, pipelineStep{"query_builder", "Building SQL query...", func(ctx context.Context) {
			bc.Analysis = st.analysis
			qr := o.deps.Query.Build(ctx, bc)
			st.queryResult = &qr
			if qr.QueryTemplate != "" {
				st.queryTemplate = qr.QueryTemplate
			}
			st.outputColumns = qr.OutputColumns
		}})
	}
	if routing.NeedsFilters {
		plan = append(plan, pipelineStep{"filter_builder", "Designing filters...", func(ctx context.Context) {
			bc.Analysis = st.analysis
			fr := o.deps.Filter.Build(ctx, bc, st.queryTemplate)
			st.filterResult = &fr
		}})
	}
	if routing.NeedsChart {
		plan = append(plan, pipelineStep{"chart_builder", "Configuring chart...", func(ctx context.Context) {
			bc.Analysis = st.analysis
			cr := o.deps.Chart.Build(ctx, bc, st.outputColumns)
			st.chartResult = &cr
		}})
	}

	for _, p := range plan {
		step++
		if err := o.notify(ctx, emit, EventAgentStart, StepInfo{Agent: p.agent, Label: p.label, Step: step}); err != nil {
			return nil, err
		}
		p.run(ctx)
		if err := o.notify(ctx, emit, EventAgentDone, StepInfo{Agent: p.agent, Step: step}); err != nil {
			return nil, err
		}
	}

	return merge(routing, st), nil
}

// notify checks for cancellation, then delivers an event when streaming.
// Both failure modes abort the run before any partial merge.
func (o *Orchestrator) notify(ctx context.Context, emit Emitter, typ EventType, info StepInfo) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if emit == nil {
		return nil
	}
	return emit(Event{Type: typ, Data: info})
}

type runState struct {
	analysis      *models.SchemaAnalysis
	queryTemplate string
	queryResult   *models.QueryResult
	outputColumns []models.QueryColumn
	filterResult  *models.FilterResult
	chartResult   *models.ChartResult
}

const fallbackAck = "Done."

// merge combines whichever builder results ran into the canonical chat
// response. Explanations are concatenated in step order: query, chart,
// filters, then filter warnings. A filter result replaces the filter list
// outright.
func merge(routing models.RoutingDecision, st *runState) *models.ChatResponse {
	update := &models.WidgetUpdate{}
	produced := false
	filters := []models.FilterDef{}
	var explanations []string

	if st.queryResult != nil {
		if st.queryResult.QueryTemplate != "" {
			update.QueryTemplate = st.queryResult.QueryTemplate
			produced = true
		}
		if st.queryResult.Explanation != "" {
			explanations = append(explanations, "Query: "+st.queryResult.Explanation)
		}
	}
	if st.chartResult != nil {
		if st.chartResult.ChartType != "" {
			update.ChartType = st.chartResult.ChartType
			produced = true
		}
		if len(st.chartResult.ChartConfig) > 0 {
			update.ChartConfig = st.chartResult.ChartConfig
			produced = true
		}
		if st.chartResult.Explanation != "" {
			explanations = append(explanations, "Chart: "+st.chartResult.Explanation)
		}
	}
	if st.filterResult != nil {
		filters = st.filterResult.Filters
		if filters == nil {
			filters = []models.FilterDef{}
		}
		if st.filterResult.Explanation != "" {
			explanations = append(explanations, "Filters: "+st.filterResult.Explanation)
		}
		for _, w := range st.filterResult.Warnings {
			explanations = append(explanations, "Warning: "+w)
		}
	}

	message := strings.Join(explanations, "\n")
	if message == "" {
		message = firstNonEmpty(routing.Summary, fallbackAck)
	}

	resp := &models.ChatResponse{Message: message, Filters: filters}
	if produced {
		resp.WidgetUpdate = update
	}
	return resp
}

// compressHistory replaces the effective history with a system message
// carrying the summary plus the last few original messages. The caller's
// durable history is untouched; this is a read-time projection.
func compressHistory(history []models.ConversationMessage, summary string) []models.ConversationMessage {
	const keepRecent = 4
	recent := history
	if len(recent) > keepRecent {
		recent = recent[len(recent)-keepRecent:]
	}
	compressed := make([]models.ConversationMessage, 0, len(recent)+1)
	compressed = append(compressed, models.ConversationMessage{
		Role:    models.RoleSystem,
		Content: "[Conversation summary]\n" + summary,
	})
	return append(compressed, recent...)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
