package models

// QueryColumn describes one output column of a generated query. The chart
// builder uses these to map axes.
type QueryColumn struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// QueryResult is the query builder's normalized output.
type QueryResult struct {
	QueryTemplate string        `json:"query_template"`
	Explanation   string        `json:"explanation"`
	OutputColumns []QueryColumn `json:"output_columns"`
}

// FilterResult is the filter builder's normalized, post-validated output.
type FilterResult struct {
	Filters     []FilterDef `json:"filters"`
	Explanation string      `json:"explanation"`
	Warnings    []string    `json:"warnings,omitempty"`
}

// ChartResult is the chart builder's normalized output.
type ChartResult struct {
	ChartType   string                 `json:"chart_type"`
	ChartConfig map[string]interface{} `json:"chart_config"`
	Explanation string                 `json:"explanation"`
}
