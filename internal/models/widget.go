package models

// Message roles used throughout the pipeline.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// ConversationMessage is one entry in a widget's chat history.
// The history is caller-supplied and never mutated by the pipeline.
type ConversationMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Filter types supported by the dashboard frontend.
const (
	FilterTypeSelect    = "select"
	FilterTypeText      = "text"
	FilterTypeNumber    = "number"
	FilterTypeDate      = "date"
	FilterTypeDateRange = "date_range"
	FilterTypeSlider    = "slider"
)

// FilterOption is one selectable value for a select-type filter.
type FilterOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// FilterDef describes one interactive filter bound to a query placeholder.
// A date_range filter's ParamName is a base name: the execution layer maps
// it to :<param>_start and :<param>_end.
type FilterDef struct {
	ParamName    string                 `json:"param_name"`
	Label        string                 `json:"label"`
	FilterType   string                 `json:"filter_type"`
	SourceTable  *string                `json:"source_table"`
	SourceColumn *string                `json:"source_column"`
	OptionsQuery *string                `json:"options_query"`
	DefaultValue *string                `json:"default_value"`
	Config       map[string]interface{} `json:"config,omitempty"`
	Options      []FilterOption         `json:"options,omitempty"`
	SortOrder    int                    `json:"sort_order"`
}

// WidgetSnapshot is a read-only projection of the current widget state,
// passed into every agent. Persistence of widgets is not this service's
// concern; the caller supplies the snapshot with each request.
type WidgetSnapshot struct {
	ID            string                 `json:"id"`
	ChartType     string                 `json:"chart_type"`
	QueryTemplate string                 `json:"query_template"`
	ChartConfig   map[string]interface{} `json:"chart_config"`
	Filters       []FilterDef            `json:"filters"`
	ChatSummary   string                 `json:"chat_summary"`
}

// AllowedParams returns the set of execution parameter names the widget's
// declared filters permit. Values outside this set are ignored so callers
// cannot inject arbitrary bind parameters.
func (w *WidgetSnapshot) AllowedParams() map[string]bool {
	return AllowedFilterParams(w.Filters)
}

// AllowedFilterParams computes the permitted bind-parameter names for a
// filter set. date_range filters expand to _start and _end names.
func AllowedFilterParams(filters []FilterDef) map[string]bool {
	allowed := make(map[string]bool, len(filters)*2)
	for _, f := range filters {
		if f.FilterType == FilterTypeDateRange {
			allowed[f.ParamName+"_start"] = true
			allowed[f.ParamName+"_end"] = true
		} else {
			allowed[f.ParamName] = true
		}
	}
	return allowed
}

// WidgetUpdate carries the fields of a widget the pipeline wants changed.
// Nil-valued fields are left untouched by the caller.
type WidgetUpdate struct {
	ChartType     string                 `json:"chart_type,omitempty"`
	QueryTemplate string                 `json:"query_template,omitempty"`
	ChartConfig   map[string]interface{} `json:"chart_config,omitempty"`
}
