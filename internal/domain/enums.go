package domain

// ChatState represents the scripted lead-capture stage of a widget session.
type ChatState string

const (
	StateChat      ChatState = "chat"
	StateAskName   ChatState = "ask_name"
	StateAskPhone  ChatState = "ask_phone"
	StateAskEmail  ChatState = "ask_email"
	StateCompleted ChatState = "completed"
	StateBlocked   ChatState = "blocked"
)

// Transcript message roles as rendered in the widget.
const (
	RoleUser = "user"
	RoleBot  = "bot"
)

// CallEventType is a voice-backend webhook event type.
type CallEventType string

const (
	CallEventStarted       CallEventType = "call.started"
	CallEventEnded         CallEventType = "call.ended"
	CallEventRecording     CallEventType = "recording.available"
	CallEventTranscription CallEventType = "transcription.available"
)
