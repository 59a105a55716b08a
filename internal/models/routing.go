package models

// Intents a user message can be classified into.
const (
	IntentCreateChart   = "create_chart"
	IntentModifyQuery   = "modify_query"
	IntentModifyChart   = "modify_chart"
	IntentModifyFilters = "modify_filters"
	IntentModifyAll     = "modify_all"
	IntentQuestion      = "question"
	IntentGreeting      = "greeting"
)

// Checklist tracks which ingredients of a new chart the conversation has
// pinned down so far. HasDataSource, HasMetric and HasDimension are the
// required three: a create_chart request may not proceed to generation
// until all of them hold.
type Checklist struct {
	HasDataSource bool `json:"has_data_source"`
	HasMetric     bool `json:"has_metric"`
	HasDimension  bool `json:"has_dimension"`
	HasChartType  bool `json:"has_chart_type"`
	HasFilters    bool `json:"has_filters"`
	HasTimeRange  bool `json:"has_time_range"`
}

// RequiredComplete reports whether the three required checklist fields hold.
func (c Checklist) RequiredComplete() bool {
	return c.HasDataSource && c.HasMetric && c.HasDimension
}

// MissingRequired lists the required ingredients still missing, in a form
// usable inside a clarifying question.
func (c Checklist) MissingRequired() []string {
	var missing []string
	if !c.HasDataSource {
		missing = append(missing, "which data source or table to use")
	}
	if !c.HasMetric {
		missing = append(missing, "which value to measure")
	}
	if !c.HasDimension {
		missing = append(missing, "how to group or break down the data")
	}
	return missing
}

// RoutingDecision is the request router's output: the classified intent,
// which generation steps to run, and the readiness checklist.
//
// Invariant: when NeedsClarification is true, every NeedsX flag is false
// and Message holds a clarifying question for the user.
type RoutingDecision struct {
	Intent              string    `json:"intent"`
	NeedsSchemaAnalysis bool      `json:"needs_schema_analysis"`
	NeedsQuery          bool      `json:"needs_query"`
	NeedsFilters        bool      `json:"needs_filters"`
	NeedsChart          bool      `json:"needs_chart"`
	NeedsClarification  bool      `json:"needs_clarification"`
	Checklist           Checklist `json:"checklist"`
	Message             string    `json:"message,omitempty"`
	Summary             string    `json:"summary"`
}

// NeedsGeneration reports whether any generation step is enabled.
func (d RoutingDecision) NeedsGeneration() bool {
	return d.NeedsQuery || d.NeedsFilters || d.NeedsChart
}
