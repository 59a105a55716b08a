package agent_test

import (
	"context"
	"strings"
	"testing"

	"github.com/chartpilot/chartpilot/internal/agent"
	"github.com/chartpilot/chartpilot/internal/models"
)

const filterTemplate = `SELECT region, SUM(amount) FROM sales
WHERE 1=1
{% if region %} AND region = :region {% endif %}
{% if date_start %} AND sold_at >= :date_start {% endif %}
{% if date_end %} AND sold_at <= :date_end {% endif %}
GROUP BY region`

func filterResponse(filters ...map[string]interface{}) map[string]interface{} {
	items := make([]interface{}, len(filters))
	for i, f := range filters {
		items[i] = f
	}
	return map[string]interface{}{
		"filters":     items,
		"explanation": "added filters",
	}
}

func buildFilters(t *testing.T, res map[string]interface{}, analysis *models.SchemaAnalysis) models.FilterResult {
	t.Helper()
	client := &fakeClient{responses: []map[string]interface{}{res}}
	builder := agent.NewFilterBuilder(client, agent.Options{})
	bc := agent.BuildContext{UserMessage: "add filters", Analysis: analysis}
	return builder.Build(context.Background(), bc, filterTemplate)
}

func salesAnalysis() *models.SchemaAnalysis {
	return &models.SchemaAnalysis{
		Tables: []models.TableAnalysis{{Name: "sales"}},
	}
}

func TestFilterBuilderKeepsValidFilters(t *testing.T) {
	res := filterResponse(
		map[string]interface{}{
			"param_name":    "region",
			"label":         "Region",
			"filter_type":   "select",
			"source_table":  "sales",
			"source_column": "region",
		},
		map[string]interface{}{
			"param_name":  "date",
			"label":       "Date range",
			"filter_type": "date_range",
		},
	)
	result := buildFilters(t, res, salesAnalysis())

	if len(result.Filters) != 2 {
		t.Fatalf("filters = %d, want 2: %+v", len(result.Filters), result.Filters)
	}
	if len(result.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", result.Warnings)
	}
	if result.Filters[0].SortOrder != 0 || result.Filters[1].SortOrder != 1 {
		t.Error("sort order should follow generation order")
	}
}

// A filter whose parameter never occurs in the template is dropped with a
// warning instead of shipping a dead control.
func TestFilterBuilderDropsUnboundFilter(t *testing.T) {
	res := filterResponse(map[string]interface{}{
		"param_name":  "category",
		"filter_type": "select",
	})
	result := buildFilters(t, res, salesAnalysis())

	if len(result.Filters) != 0 {
		t.Fatalf("unbound filter should be dropped, got %+v", result.Filters)
	}
	if len(result.Warnings) != 1 || !strings.Contains(result.Warnings[0], "category") {
		t.Errorf("warnings = %v", result.Warnings)
	}
}

// date_range filters bind through :<param>_start / :<param>_end, not the
// bare name.
func TestFilterBuilderDateRangePlaceholders(t *testing.T) {
	kept := filterResponse(map[string]interface{}{
		"param_name":  "date",
		"filter_type": "date_range",
	})
	result := buildFilters(t, kept, salesAnalysis())
	if len(result.Filters) != 1 {
		t.Fatalf("date filter should match :date_start/:date_end, got %+v", result.Filters)
	}

	dropped := filterResponse(map[string]interface{}{
		"param_name":  "created",
		"filter_type": "date_range",
	})
	result = buildFilters(t, dropped, salesAnalysis())
	if len(result.Filters) != 0 {
		t.Fatalf("date_range with no _start/_end placeholders should be dropped, got %+v", result.Filters)
	}
}

func TestFilterBuilderClearsUnknownSourceTable(t *testing.T) {
	res := filterResponse(map[string]interface{}{
		"param_name":    "region",
		"filter_type":   "select",
		"source_table":  "imaginary",
		"source_column": "region",
	})
	result := buildFilters(t, res, salesAnalysis())

	if len(result.Filters) != 1 {
		t.Fatalf("filter should be kept, got %+v", result.Filters)
	}
	f := result.Filters[0]
	if f.SourceTable != nil || f.SourceColumn != nil {
		t.Errorf("unknown source table should be cleared: %+v", f)
	}
	if len(result.Warnings) != 1 || !strings.Contains(result.Warnings[0], "imaginary") {
		t.Errorf("warnings = %v", result.Warnings)
	}
}

func TestFilterBuilderLabelFallsBackToParamName(t *testing.T) {
	res := filterResponse(map[string]interface{}{
		"param_name":  "region",
		"filter_type": "select",
	})
	result := buildFilters(t, res, salesAnalysis())

	if len(result.Filters) != 1 || result.Filters[0].Label != "region" {
		t.Errorf("label should fall back to param name: %+v", result.Filters)
	}
}

func TestFilterBuilderCompletionFailure(t *testing.T) {
	builder := agent.NewFilterBuilder(failingClient{}, agent.Options{})
	result := builder.Build(context.Background(), agent.BuildContext{UserMessage: "add filters"}, filterTemplate)
	if len(result.Filters) != 0 || len(result.Warnings) != 0 {
		t.Errorf("failure should yield an empty result, got %+v", result)
	}
}
