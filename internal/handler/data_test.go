package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/chartpilot/chartpilot/internal/handler"
	"github.com/chartpilot/chartpilot/internal/models"
	"github.com/chartpilot/chartpilot/internal/security"
)

type fakeExecutor struct {
	lastSQL    string
	lastParams map[string]interface{}
	rows       []map[string]interface{}
}

func (f *fakeExecutor) Execute(_ context.Context, _ string, sql string, params map[string]interface{}) ([]map[string]interface{}, error) {
	f.lastSQL = sql
	f.lastParams = params
	return f.rows, nil
}

func postData(t *testing.T, h *handler.DataHandler, req models.DataRequest) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	r := httptest.NewRequest(http.MethodPost, "/api/v1/widget-data", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	h.WidgetData(rr, r)
	return rr
}

func newDataHandler(exec *fakeExecutor) *handler.DataHandler {
	return handler.NewDataHandler(exec, security.NewStatementValidator(), security.NewAuditLogger(false))
}

func TestWidgetDataRendersAndExecutes(t *testing.T) {
	exec := &fakeExecutor{rows: []map[string]interface{}{
		{"region": "east", "total": 42},
	}}
	h := newDataHandler(exec)

	rr := postData(t, h, models.DataRequest{
		ConnectionID:  "conn-1",
		QueryTemplate: "SELECT region, SUM(amount) AS total FROM sales WHERE 1=1 {% if region %} AND region = :region {% endif %} GROUP BY region",
		Params:        map[string]interface{}{"region": "east"},
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	var resp models.DataResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.RowCount != 1 || len(resp.Rows) != 1 {
		t.Errorf("resp = %+v", resp)
	}
	if exec.lastParams["region"] != "east" {
		t.Errorf("params = %v", exec.lastParams)
	}
}

func TestWidgetDataRejectsUnsafeSQL(t *testing.T) {
	exec := &fakeExecutor{}
	h := newDataHandler(exec)

	rr := postData(t, h, models.DataRequest{
		ConnectionID:  "conn-1",
		QueryTemplate: "SELECT * FROM t; DROP TABLE t;",
	})

	if rr.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rr.Code)
	}
	if exec.lastSQL != "" {
		t.Error("unsafe SQL must never reach the executor")
	}
}

func TestWidgetDataBadTemplateIsBadRequest(t *testing.T) {
	h := newDataHandler(&fakeExecutor{})

	rr := postData(t, h, models.DataRequest{
		ConnectionID:  "conn-1",
		QueryTemplate: "SELECT 1 {% if a %} broken",
	})

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

// Declared filters whitelist the bind parameters; everything else is
// silently dropped before rendering.
func TestWidgetDataFiltersUndeclaredParams(t *testing.T) {
	exec := &fakeExecutor{}
	h := newDataHandler(exec)

	rr := postData(t, h, models.DataRequest{
		ConnectionID:  "conn-1",
		QueryTemplate: "SELECT * FROM sales WHERE 1=1 {% if region %} AND region = :region {% endif %} {% if sneak %} AND x = :sneak {% endif %}",
		Params: map[string]interface{}{
			"region": "east",
			"sneak":  "1",
		},
		Filters: []models.FilterDef{
			{ParamName: "region", FilterType: models.FilterTypeSelect},
		},
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rr.Code, rr.Body.String())
	}
	if exec.lastParams["region"] != "east" {
		t.Errorf("declared param lost: %v", exec.lastParams)
	}
	if _, ok := exec.lastParams["sneak"]; ok {
		t.Error("undeclared param must not be bound")
	}
	if strings.Contains(exec.lastSQL, ":sneak") {
		t.Errorf("undeclared clause should not render: %s", exec.lastSQL)
	}
}

func TestWidgetDataMissingFields(t *testing.T) {
	h := newDataHandler(&fakeExecutor{})

	tests := []struct {
		name string
		req  models.DataRequest
	}{
		{"no template", models.DataRequest{ConnectionID: "conn-1"}},
		{"no connection", models.DataRequest{QueryTemplate: "SELECT 1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rr := postData(t, h, tt.req); rr.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rr.Code)
			}
		})
	}
}
