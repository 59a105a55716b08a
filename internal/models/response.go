package models

// HealthResponse is returned by GET /health
type HealthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// ChatResponse is the merged pipeline result returned by POST /api/v1/chat
// and carried by the final "result" event of the streaming variant.
type ChatResponse struct {
	Message      string        `json:"message"`
	WidgetUpdate *WidgetUpdate `json:"widget_update"`
	Filters      []FilterDef   `json:"filters"`
}

// DataResponse is returned by POST /api/v1/widget-data
type DataResponse struct {
	SQL      string                   `json:"sql"`
	Rows     []map[string]interface{} `json:"rows"`
	RowCount int                      `json:"row_count"`
}

// OptionsResponse is returned by POST /api/v1/filter-options
type OptionsResponse struct {
	Options []FilterOption `json:"options"`
}
