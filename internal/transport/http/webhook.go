package http

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/brightline-digital/concierge/internal/crm"
	"github.com/brightline-digital/concierge/internal/domain"
	"github.com/brightline-digital/concierge/internal/events"
	"github.com/brightline-digital/concierge/internal/phone"
	"github.com/brightline-digital/concierge/internal/voice"
)

// VoiceWebhook ingests call-lifecycle events from the voice backend:
// persists them, annotates the CRM contact, and fans them out to the
// message broker. CRM and broker failures are logged and absorbed; the
// webhook is always acknowledged so the sender doesn't retry forever.
func (h *Handler) VoiceWebhook(c echo.Context) error {
	if h.config.WebhookSecret != "" {
		sig := c.Request().Header.Get("X-Bland-Signature")
		if subtle.ConstantTimeCompare([]byte(sig), []byte(h.config.WebhookSecret)) != 1 {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid signature"})
		}
	}

	var event domain.VoiceWebhookEvent
	if err := c.Bind(&event); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if event.CallID == "" || event.EventType == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "call_id and event_type are required"})
	}

	eventType, ok := parseEventType(event.EventType)
	if !ok {
		// Unknown lifecycle events are acknowledged and dropped so new
		// sender-side event types don't turn into retry storms.
		log.Printf("call %s: ignoring unknown event type %q", event.CallID, event.EventType)
		return c.JSON(http.StatusOK, map[string]string{"status": "ignored"})
	}

	ctx := c.Request().Context()

	payload, _ := json.Marshal(event)
	if err := h.store.CreateCallEvent(ctx, &domain.CallEvent{
		EventID:   "evt_" + uuid.New().String(),
		CallID:    event.CallID,
		Phone:     event.PhoneNumber,
		Type:      eventType,
		Payload:   payload,
		CreatedAt: time.Now(),
	}); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to record event"})
	}

	h.annotateContact(c, event, eventType)

	if err := h.events.Publish(ctx, "calls."+string(eventType), events.Envelope{
		Meta: events.Meta{Source: "voice-webhook", CorrelationID: event.CallID},
		Data: event,
	}); err != nil {
		log.Printf("call %s: event publish failed: %v", event.CallID, err)
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "recorded"})
}

// annotateContact mirrors the event onto the caller's CRM contact.
func (h *Handler) annotateContact(c echo.Context, event domain.VoiceWebhookEvent, eventType domain.CallEventType) {
	if h.crm == nil || event.PhoneNumber == "" {
		return
	}
	ctx := c.Request().Context()

	e164, err := phone.E164US(event.PhoneNumber)
	if err != nil {
		log.Printf("call %s: unusable phone %q: %v", event.CallID, event.PhoneNumber, err)
		return
	}
	contact, err := h.crm.LookupContactByPhone(ctx, e164)
	if err != nil {
		log.Printf("call %s: contact lookup failed: %v", event.CallID, err)
		return
	}
	if contact == nil {
		return
	}

	var note string
	switch eventType {
	case domain.CallEventStarted:
		note = fmt.Sprintf("Demo call %s started.", event.CallID)
	case domain.CallEventEnded:
		note = fmt.Sprintf("Demo call %s ended after %.0f seconds (outcome: %s).", event.CallID, event.CallDuration, event.Outcome)
	case domain.CallEventRecording:
		note = fmt.Sprintf("Call recording available: %s", event.RecordingURL)
	case domain.CallEventTranscription:
		note = fmt.Sprintf("Call transcription received for %s.", event.CallID)
		if name := voice.ExtractCallerName(event.Transcription); name != "" && contact.FirstName == "" {
			first, last := splitName(name)
			if err := h.crm.UpdateContact(ctx, contact.ID, &crm.ContactRequest{
				FirstName: first,
				LastName:  last,
			}); err != nil {
				log.Printf("call %s: contact name update failed: %v", event.CallID, err)
			}
		}
	}

	if err := h.crm.AddNote(ctx, contact.ID, note); err != nil {
		log.Printf("call %s: add note failed: %v", event.CallID, err)
	}
}

func parseEventType(raw string) (domain.CallEventType, bool) {
	switch domain.CallEventType(raw) {
	case domain.CallEventStarted, domain.CallEventEnded, domain.CallEventRecording, domain.CallEventTranscription:
		return domain.CallEventType(raw), true
	}
	return "", false
}

func splitName(full string) (string, string) {
	for i := len(full) - 1; i >= 0; i-- {
		if full[i] == ' ' {
			return full[:i], full[i+1:]
		}
	}
	return full, ""
}
