package models

// SchemaColumn is one column of an introspected table.
type SchemaColumn struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	Nullable   bool   `json:"nullable"`
	PrimaryKey bool   `json:"primary_key"`
}

// ForeignKey describes a foreign key constraint on a table.
type ForeignKey struct {
	Columns         []string `json:"columns"`
	ReferredTable   string   `json:"referred_table"`
	ReferredColumns []string `json:"referred_columns"`
}

// SchemaTable is one introspected table.
type SchemaTable struct {
	Name        string         `json:"name"`
	Columns     []SchemaColumn `json:"columns"`
	ForeignKeys []ForeignKey   `json:"foreign_keys,omitempty"`
}

// RawSchema is the structural schema of a target database as returned by
// a SchemaProvider. It is the input to semantic schema analysis and the
// basis of the analysis cache hash.
type RawSchema struct {
	Database string        `json:"database"`
	Tables   []SchemaTable `json:"tables"`
}

// Relationship links one analysed table to another.
type Relationship struct {
	To   string `json:"to"`
	Type string `json:"type"`
	Join string `json:"join"`
}

// TableAnalysis is the semantic description of a single table.
type TableAnalysis struct {
	Name          string         `json:"name"`
	Description   string         `json:"description"`
	KeyColumns    []string       `json:"key_columns"`
	Relationships []Relationship `json:"relationships,omitempty"`
}

// JoinPath is a ready-made join the query builder can reuse.
type JoinPath struct {
	Description string `json:"description"`
	SQL         string `json:"sql"`
}

// SchemaAnalysis is the LLM-produced semantic analysis of a raw schema.
// One analysis is cached per data source, keyed by the schema hash.
type SchemaAnalysis struct {
	Tables           []TableAnalysis `json:"tables"`
	JoinPaths        []JoinPath      `json:"join_paths,omitempty"`
	SuggestedMetrics []string        `json:"suggested_metrics,omitempty"`
	Notes            string          `json:"notes,omitempty"`
}

// KnownTables returns the set of table names the analysis covers.
func (a *SchemaAnalysis) KnownTables() map[string]bool {
	if a == nil {
		return nil
	}
	known := make(map[string]bool, len(a.Tables))
	for _, t := range a.Tables {
		known[t.Name] = true
	}
	return known
}
