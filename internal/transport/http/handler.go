// Package http provides the echo HTTP handlers for the concierge service.
package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/brightline-digital/concierge/config"
	"github.com/brightline-digital/concierge/internal/assistant"
	"github.com/brightline-digital/concierge/internal/chat"
	"github.com/brightline-digital/concierge/internal/crm"
	"github.com/brightline-digital/concierge/internal/events"
	"github.com/brightline-digital/concierge/internal/store"
	"github.com/brightline-digital/concierge/internal/voice"
)

// Handler handles HTTP requests.
type Handler struct {
	store     store.Store
	assistant *assistant.Service
	chat      *chat.Engine
	crm       *crm.Client
	voice     *voice.Client
	events    events.Publisher
	config    *config.Config
}

// NewHandler creates a new handler. crm and voice may be nil when those
// backends are not configured.
func NewHandler(s store.Store, svc *assistant.Service, chatEngine *chat.Engine, crmClient *crm.Client, voiceClient *voice.Client, publisher events.Publisher, cfg *config.Config) *Handler {
	return &Handler{
		store:     s,
		assistant: svc,
		chat:      chatEngine,
		crm:       crmClient,
		voice:     voiceClient,
		events:    publisher,
		config:    cfg,
	}
}

// RegisterRoutes registers routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	// Assistant API
	e.POST("/api/assistant/chat", h.AssistantChat)
	e.POST("/api/assistant/start", h.StartRun)
	e.POST("/api/assistant/check", h.CheckRun)

	// Chat widget API
	e.POST("/api/chat/message", h.ChatMessage)
	e.GET("/api/chat/:session_id/messages", h.GetChatMessages)

	// Voice API
	e.POST("/api/calls/demo", h.DemoCall)
	e.POST("/webhooks/voice", h.VoiceWebhook)

	e.GET("/health", h.Health)
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": "0.1.0",
	})
}
