// Package domain defines the core domain models for the concierge service.
package domain

import (
	"encoding/json"
	"time"
)

// ChatSession tracks one widget conversation: the assistant thread it is bound
// to, the scripted-flow stage, and whatever lead details have been captured so
// far. The session id is handed back to the client and replayed on every turn.
type ChatSession struct {
	SessionID string    `json:"session_id"`
	ThreadID  string    `json:"thread_id,omitempty"`
	State     ChatState `json:"state"`
	ChatTurns int       `json:"chat_turns"`
	Name      string    `json:"name,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Email     string    `json:"email,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TranscriptMessage is a single rendered message in a widget session.
// Content may contain inline HTML (booking links).
type TranscriptMessage struct {
	MessageID string    `json:"message_id"`
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"` // user, bot
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// CallEvent is a persisted voice-backend webhook event.
type CallEvent struct {
	EventID   string          `json:"event_id"`
	CallID    string          `json:"call_id"`
	Phone     string          `json:"phone,omitempty"`
	Type      CallEventType   `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// ChatTurnRequest is the widget-facing sendMessage payload.
type ChatTurnRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Message   string `json:"message"`
}

// ChatTurnResponse carries the bot replies produced by one widget turn.
type ChatTurnResponse struct {
	SessionID string    `json:"session_id"`
	State     ChatState `json:"state"`
	Replies   []string  `json:"replies"`
}

// AssistantChatRequest is the single-shot assistant turn payload.
type AssistantChatRequest struct {
	Message  string `json:"message"`
	ThreadID string `json:"thread_id,omitempty"`
}

// AssistantChatResponse is the single-shot assistant turn result.
type AssistantChatResponse struct {
	Reply    string `json:"reply"`
	ThreadID string `json:"thread_id"`
}

// StartRunRequest starts an assistant run without waiting for the reply.
type StartRunRequest struct {
	Message  string `json:"message"`
	ThreadID string `json:"thread_id,omitempty"`
}

// StartRunResponse identifies the run started by StartRunRequest.
type StartRunResponse struct {
	ThreadID string `json:"thread_id"`
	RunID    string `json:"run_id"`
}

// CheckRunRequest probes a previously started run.
type CheckRunRequest struct {
	ThreadID string `json:"thread_id"`
	RunID    string `json:"run_id"`
}

// CheckRunResponse reports run progress; Reply is set once completed.
type CheckRunResponse struct {
	Status string `json:"status"`
	Reply  string `json:"reply,omitempty"`
}

// DemoCallRequest asks for an outbound voice demo call.
type DemoCallRequest struct {
	PhoneNumber string `json:"phone_number"`
	PathwayID   string `json:"pathway_id,omitempty"`
	Name        string `json:"name,omitempty"`
	Email       string `json:"email,omitempty"`
}

// DemoCallResponse reports the placed call and any CRM contact touched.
type DemoCallResponse struct {
	Success   bool   `json:"success"`
	CallID    string `json:"call_id,omitempty"`
	ContactID string `json:"contact_id,omitempty"`
	Message   string `json:"message,omitempty"`
}

// VoiceWebhookEvent is the payload posted by the voice backend on call
// lifecycle transitions.
type VoiceWebhookEvent struct {
	EventType     string  `json:"event_type"`
	CallID        string  `json:"call_id"`
	PhoneNumber   string  `json:"phone_number"`
	CallDuration  float64 `json:"call_duration,omitempty"`
	Outcome       string  `json:"outcome,omitempty"`
	RecordingURL  string  `json:"recording_url,omitempty"`
	Transcription string  `json:"transcription,omitempty"`
}
