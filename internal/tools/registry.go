// Package tools maps assistant tool-call names to server-side handlers.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/brightline-digital/concierge/internal/assistant"
)

// Handler executes one tool call and returns a text output for the model.
type Handler func(ctx context.Context, args json.RawMessage) (string, error)

// Registry stores tool handlers keyed by tool name.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]Handler),
	}
}

// Register adds a handler for a tool name.
func (r *Registry) Register(toolName string, h Handler) error {
	if toolName == "" {
		return fmt.Errorf("tool name is required")
	}
	if h == nil {
		return fmt.Errorf("handler is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.handlers[toolName]; exists {
		return fmt.Errorf("handler already registered for %s", toolName)
	}
	r.handlers[toolName] = h
	return nil
}

// MustRegister adds a handler or panics. For wiring at startup.
func (r *Registry) MustRegister(toolName string, h Handler) {
	if err := r.Register(toolName, h); err != nil {
		panic(err)
	}
}

// Dispatch executes a batch of tool calls concurrently and returns exactly
// one result per call, in the same order. Unknown tools and handler errors
// become error payloads in the output rather than failing the batch: the
// model has to receive an answer for every call or the run stalls.
func (r *Registry) Dispatch(ctx context.Context, calls []assistant.ToolCall) []assistant.ToolResult {
	results := make([]assistant.ToolResult, len(calls))

	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Add(1)
		go func(i int, call assistant.ToolCall) {
			defer wg.Done()
			results[i] = assistant.ToolResult{
				ToolCallID: call.ID,
				Output:     r.run(ctx, call),
			}
		}(i, call)
	}
	wg.Wait()

	return results
}

func (r *Registry) run(ctx context.Context, call assistant.ToolCall) string {
	r.mu.RLock()
	h := r.handlers[call.Name]
	r.mu.RUnlock()

	if h == nil {
		log.Printf("tool call %s: unknown tool %q", call.ID, call.Name)
		return errorOutput(fmt.Sprintf("unknown tool: %s", call.Name))
	}

	output, err := h(ctx, call.Arguments)
	if err != nil {
		log.Printf("tool call %s (%s) failed: %v", call.ID, call.Name, err)
		return errorOutput(err.Error())
	}
	return output
}

func errorOutput(message string) string {
	out, _ := json.Marshal(map[string]interface{}{
		"success": false,
		"error":   message,
	})
	return string(out)
}
