// Package assistant drives threaded conversations against an
// OpenAI-compatible assistant backend, including the run poll loop
// and tool-call round trips.
package assistant

import "encoding/json"

// Run lifecycle statuses reported by the backend.
const (
	StatusQueued         = "queued"
	StatusInProgress     = "in_progress"
	StatusRequiresAction = "requires_action"
	StatusCompleted      = "completed"
	StatusFailed         = "failed"
	StatusExpired        = "expired"
	StatusCancelled      = "cancelled"
)

// ToolCall is a single function invocation requested by a run.
type ToolCall struct {
	ID        string
	Name      string
	Arguments json.RawMessage
}

// ToolResult is the output for one tool call, correlated by ID.
type ToolResult struct {
	ToolCallID string
	Output     string
}

// RunSnapshot is the state of a run at one poll.
type RunSnapshot struct {
	ID        string
	Status    string
	ToolCalls []ToolCall
}

// Terminal reports whether the run has stopped making progress.
func (s *RunSnapshot) Terminal() bool {
	switch s.Status {
	case StatusCompleted, StatusFailed, StatusExpired, StatusCancelled:
		return true
	}
	return false
}
