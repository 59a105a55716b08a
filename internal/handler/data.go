package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/chartpilot/chartpilot/internal/models"
	"github.com/chartpilot/chartpilot/internal/query"
	"github.com/chartpilot/chartpilot/internal/security"
	"github.com/chartpilot/chartpilot/internal/service"
)

// DataHandler renders a widget's query template with the supplied filter
// values and executes the result.
type DataHandler struct {
	exec        service.QueryExecutor
	validator   *security.StatementValidator
	auditLogger *security.AuditLogger
}

func NewDataHandler(
	exec service.QueryExecutor,
	validator *security.StatementValidator,
	auditLogger *security.AuditLogger,
) *DataHandler {
	return &DataHandler{exec: exec, validator: validator, auditLogger: auditLogger}
}

// WidgetData handles POST /api/v1/widget-data
func (h *DataHandler) WidgetData(w http.ResponseWriter, r *http.Request) {
	var req models.DataRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		models.WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.QueryTemplate == "" {
		models.WriteError(w, http.StatusBadRequest, "query_template is required")
		return
	}
	if req.ConnectionID == "" {
		models.WriteError(w, http.StatusBadRequest, "connection_id is required")
		return
	}

	params := filterParams(req.Params, req.Filters)

	sql, bound, err := query.Render(req.QueryTemplate, params)
	if err != nil {
		models.WriteError(w, http.StatusBadRequest, "template render failed: "+err.Error())
		return
	}

	apiKey := r.Header.Get("X-API-Key")

	if err := h.validator.Validate(sql); err != nil {
		h.auditLogger.LogQuery(sql, apiKey, req.ConnectionID, 0, 0, false, err.Error())
		models.WriteError(w, http.StatusForbidden, err.Error())
		return
	}

	start := time.Now()
	rows, err := h.exec.Execute(r.Context(), req.ConnectionID, sql, bound)
	execMs := time.Since(start).Milliseconds()
	if err != nil {
		h.auditLogger.LogQuery(sql, apiKey, req.ConnectionID, execMs, 0, false, err.Error())
		status := http.StatusInternalServerError
		if errors.Is(err, security.ErrUnsafeStatement) {
			status = http.StatusForbidden
		}
		models.WriteError(w, status, "query execution failed: "+err.Error())
		return
	}

	h.auditLogger.LogQuery(sql, apiKey, req.ConnectionID, execMs, len(rows), true, "")

	models.WriteJSON(w, http.StatusOK, models.DataResponse{
		SQL:      sql,
		Rows:     rows,
		RowCount: len(rows),
	})
}

// filterParams drops any supplied parameter not declared by the widget's
// filters. With no declared filters all parameters pass through, which
// keeps plain non-filtered widgets working.
func filterParams(params map[string]interface{}, filters []models.FilterDef) map[string]interface{} {
	if len(filters) == 0 {
		return params
	}
	allowed := models.AllowedFilterParams(filters)
	out := make(map[string]interface{}, len(params))
	for name, value := range params {
		if allowed[name] {
			out[name] = value
		}
	}
	return out
}
