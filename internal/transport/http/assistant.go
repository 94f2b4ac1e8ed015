package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/brightline-digital/concierge/internal/domain"
)

// AssistantChat runs one blocking assistant turn: message in, reply out.
func (h *Handler) AssistantChat(c echo.Context) error {
	var req domain.AssistantChatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if req.Message == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "message is required"})
	}

	reply, threadID, err := h.assistant.Reply(c.Request().Context(), req.ThreadID, req.Message)
	if err != nil {
		return c.JSON(http.StatusBadGateway, map[string]string{"error": "assistant is unavailable"})
	}

	return c.JSON(http.StatusOK, domain.AssistantChatResponse{
		Reply:    reply,
		ThreadID: threadID,
	})
}

// StartRun starts an assistant run without waiting for it to finish.
// Callers poll /api/assistant/check for the result.
func (h *Handler) StartRun(c echo.Context) error {
	var req domain.StartRunRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if req.Message == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "message is required"})
	}

	threadID, runID, err := h.assistant.StartTurn(c.Request().Context(), req.ThreadID, req.Message)
	if err != nil {
		return c.JSON(http.StatusBadGateway, map[string]string{"error": "assistant is unavailable"})
	}

	return c.JSON(http.StatusOK, domain.StartRunResponse{
		ThreadID: threadID,
		RunID:    runID,
	})
}

// CheckRun reports run progress with a single poll, answering any pending
// tool calls along the way.
func (h *Handler) CheckRun(c echo.Context) error {
	var req domain.CheckRunRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if req.ThreadID == "" || req.RunID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "thread_id and run_id are required"})
	}

	status, reply, err := h.assistant.CheckRun(c.Request().Context(), req.ThreadID, req.RunID)
	if err != nil {
		return c.JSON(http.StatusBadGateway, map[string]string{"error": "assistant is unavailable"})
	}

	return c.JSON(http.StatusOK, domain.CheckRunResponse{
		Status: status,
		Reply:  reply,
	})
}
