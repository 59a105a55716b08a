package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/chartpilot/chartpilot/internal/models"
	"github.com/chartpilot/chartpilot/internal/security"
	"github.com/chartpilot/chartpilot/internal/service"
)

// OptionsHandler serves selectable values for select-type filters.
type OptionsHandler struct {
	options *service.OptionsService
}

func NewOptionsHandler(options *service.OptionsService) *OptionsHandler {
	return &OptionsHandler{options: options}
}

// FilterOptions handles POST /api/v1/filter-options
func (h *OptionsHandler) FilterOptions(w http.ResponseWriter, r *http.Request) {
	var req models.OptionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		models.WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	req.SetDefaults()

	if req.ConnectionID == "" {
		models.WriteError(w, http.StatusBadRequest, "connection_id is required")
		return
	}

	opts, err := h.options.FilterOptions(r.Context(), req.ConnectionID, req.Filter, req.Search, req.Limit)
	if err != nil {
		if errors.Is(err, security.ErrUnsafeStatement) {
			models.WriteError(w, http.StatusForbidden, err.Error())
			return
		}
		models.WriteError(w, http.StatusInternalServerError, "options lookup failed: "+err.Error())
		return
	}
	if opts == nil {
		opts = []models.FilterOption{}
	}

	models.WriteJSON(w, http.StatusOK, models.OptionsResponse{Options: opts})
}
