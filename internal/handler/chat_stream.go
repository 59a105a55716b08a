package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/chartpilot/chartpilot/internal/agent"
	"github.com/chartpilot/chartpilot/internal/models"
	"github.com/chartpilot/chartpilot/internal/security"
	"github.com/chartpilot/chartpilot/internal/service"
)

// StreamHandler runs the widget-builder pipeline in incremental mode,
// delivering progress over Server-Sent Events. The final result event
// carries the same payload the blocking endpoint would return.
type StreamHandler struct {
	orchestrator *agent.Orchestrator
	schemas      service.SchemaProvider
	promptVal    *security.PromptValidator
	auditLogger  *security.AuditLogger
}

func NewStreamHandler(
	orchestrator *agent.Orchestrator,
	schemas service.SchemaProvider,
	promptVal *security.PromptValidator,
	auditLogger *security.AuditLogger,
) *StreamHandler {
	return &StreamHandler{
		orchestrator: orchestrator,
		schemas:      schemas,
		promptVal:    promptVal,
		auditLogger:  auditLogger,
	}
}

// ChatStream handles POST /api/v1/chat/stream
func (h *StreamHandler) ChatStream(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		models.WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if result := h.promptVal.Validate(req.Message); !result.Valid {
		models.WriteError(w, http.StatusBadRequest, result.Message)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		models.WriteError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	in := agent.Input{
		UserMessage:  req.Message,
		History:      req.History,
		Widget:       req.Widget,
		ConnectionID: req.ConnectionID,
	}
	if req.ConnectionID != "" {
		schema, err := h.schemas.GetSchema(r.Context(), req.ConnectionID)
		if err != nil {
			models.WriteError(w, http.StatusBadGateway, "schema fetch failed: "+err.Error())
			return
		}
		in.Schema = schema
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	emit := func(ev agent.Event) error {
		return writeSSE(w, flusher, ev)
	}

	apiKey := r.Header.Get("X-API-Key")
	start := time.Now()

	resp, err := h.orchestrator.RunStream(r.Context(), in, emit)
	if err != nil {
		// Headers are already sent; report through the stream.
		_ = writeSSE(w, flusher, agent.Event{
			Type: agent.EventError,
			Data: agent.ErrorInfo{Message: err.Error()},
		})
		h.auditLogger.LogChat(req.Message, apiKey, "", false, time.Since(start).Milliseconds())
		return
	}

	h.auditLogger.LogChat(req.Message, apiKey, "", resp.WidgetUpdate != nil, time.Since(start).Milliseconds())
}

// writeSSE frames one event as "event: <type>" plus a single JSON data
// line and flushes it immediately.
func writeSSE(w http.ResponseWriter, flusher http.Flusher, ev agent.Event) error {
	data, err := json.Marshal(ev.Data)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}
