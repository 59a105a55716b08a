package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/chartpilot/chartpilot/internal/models"
	"github.com/chartpilot/chartpilot/internal/security"
	"github.com/chartpilot/chartpilot/internal/service"
)

type fakeExecutor struct {
	lastSQL    string
	lastParams map[string]interface{}
	rows       []map[string]interface{}
	err        error
}

func (f *fakeExecutor) Execute(_ context.Context, _ string, sql string, params map[string]interface{}) ([]map[string]interface{}, error) {
	f.lastSQL = sql
	f.lastParams = params
	return f.rows, f.err
}

func strPtr(s string) *string { return &s }

func TestFilterOptionsCustomQuery(t *testing.T) {
	exec := &fakeExecutor{rows: []map[string]interface{}{
		{"value": "us", "label": "United States"},
		{"value": "de", "label": "Germany"},
	}}
	svc := service.NewOptionsService(exec, security.NewStatementValidator(), 500)

	filter := models.FilterDef{
		ParamName:    "country",
		FilterType:   models.FilterTypeSelect,
		OptionsQuery: strPtr("SELECT code AS value, name AS label FROM countries;"),
	}
	opts, err := svc.FilterOptions(context.Background(), "conn-1", filter, "uni", 10)
	if err != nil {
		t.Fatalf("FilterOptions: %v", err)
	}

	if !strings.Contains(exec.lastSQL, "FROM (SELECT code AS value, name AS label FROM countries) AS _opts") {
		t.Errorf("inner query not wrapped: %s", exec.lastSQL)
	}
	if strings.Contains(exec.lastSQL, ";") {
		t.Errorf("trailing semicolon should be stripped before wrapping: %s", exec.lastSQL)
	}
	if !strings.Contains(exec.lastSQL, "_opts.label LIKE :search") {
		t.Errorf("search clause missing: %s", exec.lastSQL)
	}
	if exec.lastParams["search"] != "%uni%" || exec.lastParams["limit"] != 10 {
		t.Errorf("params = %v", exec.lastParams)
	}
	if len(opts) != 2 || opts[0].Value != "us" || opts[0].Label != "United States" {
		t.Errorf("opts = %+v", opts)
	}
}

func TestFilterOptionsCustomQueryRejectsMutations(t *testing.T) {
	exec := &fakeExecutor{}
	svc := service.NewOptionsService(exec, security.NewStatementValidator(), 500)

	filter := models.FilterDef{
		OptionsQuery: strPtr("SELECT 1; DROP TABLE countries;"),
	}
	_, err := svc.FilterOptions(context.Background(), "conn-1", filter, "", 10)
	if err == nil {
		t.Fatal("mutating options query should be rejected")
	}
	if !errors.Is(err, security.ErrUnsafeStatement) {
		t.Errorf("error should wrap ErrUnsafeStatement, got %v", err)
	}
	if exec.lastSQL != "" {
		t.Error("rejected query must never reach the executor")
	}
}

func TestFilterOptionsSimpleDistinct(t *testing.T) {
	exec := &fakeExecutor{rows: []map[string]interface{}{{"value": "east", "label": "east"}}}
	svc := service.NewOptionsService(exec, security.NewStatementValidator(), 500)

	filter := models.FilterDef{
		ParamName:    "region",
		SourceTable:  strPtr("sales"),
		SourceColumn: strPtr("region"),
	}
	opts, err := svc.FilterOptions(context.Background(), "conn-1", filter, "", 25)
	if err != nil {
		t.Fatalf("FilterOptions: %v", err)
	}
	if !strings.Contains(exec.lastSQL, `SELECT DISTINCT "region"`) || !strings.Contains(exec.lastSQL, `FROM "sales"`) {
		t.Errorf("unexpected SQL: %s", exec.lastSQL)
	}
	if exec.lastParams["limit"] != 25 {
		t.Errorf("limit param = %v", exec.lastParams["limit"])
	}
	if len(opts) != 1 || opts[0].Value != "east" {
		t.Errorf("opts = %+v", opts)
	}
}

func TestFilterOptionsSimpleDistinctValidatesIdentifiers(t *testing.T) {
	svc := service.NewOptionsService(&fakeExecutor{}, security.NewStatementValidator(), 500)

	filter := models.FilterDef{
		SourceTable:  strPtr(`sales"; DROP TABLE sales; --`),
		SourceColumn: strPtr("region"),
	}
	if _, err := svc.FilterOptions(context.Background(), "conn-1", filter, "", 10); err == nil {
		t.Fatal("hostile identifier should be rejected")
	}
}

func TestFilterOptionsStatic(t *testing.T) {
	svc := service.NewOptionsService(&fakeExecutor{}, security.NewStatementValidator(), 500)

	filter := models.FilterDef{
		Options: []models.FilterOption{
			{Value: "open", Label: "Open"},
			{Value: "closed", Label: "Closed"},
			{Value: "pending", Label: "Pending"},
		},
	}

	opts, err := svc.FilterOptions(context.Background(), "conn-1", filter, "", 10)
	if err != nil {
		t.Fatalf("FilterOptions: %v", err)
	}
	if len(opts) != 3 {
		t.Errorf("opts = %+v", opts)
	}

	opts, err = svc.FilterOptions(context.Background(), "conn-1", filter, "clo", 10)
	if err != nil {
		t.Fatalf("FilterOptions: %v", err)
	}
	if len(opts) != 1 || opts[0].Value != "closed" {
		t.Errorf("search should filter statics case-insensitively, got %+v", opts)
	}
}

// The hard cap applies regardless of the requested limit.
func TestFilterOptionsLimitCap(t *testing.T) {
	exec := &fakeExecutor{}
	svc := service.NewOptionsService(exec, security.NewStatementValidator(), 500)

	filter := models.FilterDef{OptionsQuery: strPtr("SELECT v AS value, l AS label FROM t")}
	if _, err := svc.FilterOptions(context.Background(), "conn-1", filter, "", 10_000); err != nil {
		t.Fatalf("FilterOptions: %v", err)
	}
	if exec.lastParams["limit"] != 500 {
		t.Errorf("limit = %v, want capped 500", exec.lastParams["limit"])
	}
}
