package http

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/brightline-digital/concierge/internal/domain"
)

// ChatMessage processes one chat-widget turn.
func (h *Handler) ChatMessage(c echo.Context) error {
	var req domain.ChatTurnRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if req.Message == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "message is required"})
	}

	resp, err := h.chat.HandleMessage(c.Request().Context(), req.SessionID, req.Message)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to process message"})
	}

	return c.JSON(http.StatusOK, resp)
}

// GetChatMessages returns a session's transcript, oldest first.
func (h *Handler) GetChatMessages(c echo.Context) error {
	sessionID := c.Param("session_id")

	limit := 50
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid limit"})
		}
		limit = parsed
	}

	session, err := h.store.GetChatSession(c.Request().Context(), sessionID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to load session"})
	}
	if session == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "session not found"})
	}

	// Fetch one extra row to detect truncation.
	messages, err := h.store.ListTranscript(c.Request().Context(), sessionID, limit+1)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to load messages"})
	}

	hasMore := false
	if len(messages) > limit {
		hasMore = true
		messages = messages[:limit]
	}
	if messages == nil {
		messages = []domain.TranscriptMessage{}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"session_id": sessionID,
		"state":      session.State,
		"messages":   messages,
		"has_more":   hasMore,
	})
}
