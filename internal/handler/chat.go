package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/chartpilot/chartpilot/internal/agent"
	"github.com/chartpilot/chartpilot/internal/models"
	"github.com/chartpilot/chartpilot/internal/security"
	"github.com/chartpilot/chartpilot/internal/service"
)

// ChatHandler runs the widget-builder pipeline in blocking mode.
type ChatHandler struct {
	orchestrator *agent.Orchestrator
	schemas      service.SchemaProvider
	promptVal    *security.PromptValidator
	auditLogger  *security.AuditLogger
}

func NewChatHandler(
	orchestrator *agent.Orchestrator,
	schemas service.SchemaProvider,
	promptVal *security.PromptValidator,
	auditLogger *security.AuditLogger,
) *ChatHandler {
	return &ChatHandler{
		orchestrator: orchestrator,
		schemas:      schemas,
		promptVal:    promptVal,
		auditLogger:  auditLogger,
	}
}

// Chat handles POST /api/v1/chat
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		models.WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if result := h.promptVal.Validate(req.Message); !result.Valid {
		models.WriteError(w, http.StatusBadRequest, result.Message)
		return
	}

	in, err := h.buildInput(r, req)
	if err != nil {
		models.WriteError(w, http.StatusBadGateway, err.Error())
		return
	}

	apiKey := r.Header.Get("X-API-Key")
	start := time.Now()

	resp, err := h.orchestrator.Run(r.Context(), in)
	if err != nil {
		h.auditLogger.LogChat(req.Message, apiKey, "", false, time.Since(start).Milliseconds())
		models.WriteError(w, http.StatusInternalServerError, "pipeline failed: "+err.Error())
		return
	}

	h.auditLogger.LogChat(req.Message, apiKey, "", resp.WidgetUpdate != nil, time.Since(start).Milliseconds())
	models.WriteJSON(w, http.StatusOK, resp)
}

// buildInput resolves the connection's schema and assembles the pipeline
// input. A missing connection is not fatal: the router will ask the user
// to pick a data source.
func (h *ChatHandler) buildInput(r *http.Request, req models.ChatRequest) (agent.Input, error) {
	in := agent.Input{
		UserMessage:  req.Message,
		History:      req.History,
		Widget:       req.Widget,
		ConnectionID: req.ConnectionID,
	}
	if req.ConnectionID == "" {
		return in, nil
	}
	schema, err := h.schemas.GetSchema(r.Context(), req.ConnectionID)
	if err != nil {
		log.Warn().Err(err).Str("connection_id", req.ConnectionID).Msg("schema fetch failed")
		return in, err
	}
	in.Schema = schema
	return in, nil
}
