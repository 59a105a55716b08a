package models

// ChatRequest for POST /api/v1/chat and /api/v1/chat/stream
type ChatRequest struct {
	Message      string                `json:"message"`
	History      []ConversationMessage `json:"history"`
	Widget       *WidgetSnapshot       `json:"widget,omitempty"`
	ConnectionID string                `json:"connection_id,omitempty"`
}

// DataRequest for POST /api/v1/widget-data: render a query template with
// the supplied filter parameters and execute it.
type DataRequest struct {
	ConnectionID  string                 `json:"connection_id"`
	QueryTemplate string                 `json:"query_template"`
	Params        map[string]interface{} `json:"params"`
	Filters       []FilterDef            `json:"filters,omitempty"`
}

// OptionsRequest for POST /api/v1/filter-options: fetch selectable values
// for a select-type filter.
type OptionsRequest struct {
	ConnectionID string    `json:"connection_id"`
	Filter       FilterDef `json:"filter"`
	Search       string    `json:"search,omitempty"`
	Limit        int       `json:"limit,omitempty"`
}

func (r *OptionsRequest) SetDefaults() {
	if r.Limit <= 0 {
		r.Limit = 50
	}
}
