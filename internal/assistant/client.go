package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	openai "github.com/sashabaranov/go-openai"
)

// Backend is the minimal thread/run surface the conversation loop needs.
// *OpenAIBackend implements it; tests substitute fakes.
type Backend interface {
	CreateThread(ctx context.Context) (string, error)
	AddUserMessage(ctx context.Context, threadID, content string) error
	StartRun(ctx context.Context, threadID string) (string, error)
	GetRun(ctx context.Context, threadID, runID string) (*RunSnapshot, error)
	SubmitToolOutputs(ctx context.Context, threadID, runID string, results []ToolResult) error
	LatestAssistantReply(ctx context.Context, threadID string) (string, error)
}

// OpenAIBackend talks to the OpenAI Assistants API (or any compatible
// endpoint via baseURL).
type OpenAIBackend struct {
	client      *openai.Client
	assistantID string
}

// NewOpenAIBackend creates a backend for the given assistant. baseURL may be
// empty to use the default API endpoint.
func NewOpenAIBackend(apiKey, baseURL, assistantID string) *OpenAIBackend {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	cfg.AssistantVersion = "v2"
	return &OpenAIBackend{
		client:      openai.NewClientWithConfig(cfg),
		assistantID: assistantID,
	}
}

// CreateThread starts a new empty conversation thread.
func (b *OpenAIBackend) CreateThread(ctx context.Context) (string, error) {
	thread, err := b.client.CreateThread(ctx, openai.ThreadRequest{})
	if err != nil {
		return "", fmt.Errorf("failed to create thread: %w", err)
	}
	return thread.ID, nil
}

// AddUserMessage appends a user message to the thread.
func (b *OpenAIBackend) AddUserMessage(ctx context.Context, threadID, content string) error {
	_, err := b.client.CreateMessage(ctx, threadID, openai.MessageRequest{
		Role:    string(openai.ThreadMessageRoleUser),
		Content: content,
	})
	if err != nil {
		return fmt.Errorf("failed to add message: %w", err)
	}
	return nil
}

// StartRun kicks off an assistant run on the thread.
func (b *OpenAIBackend) StartRun(ctx context.Context, threadID string) (string, error) {
	run, err := b.client.CreateRun(ctx, threadID, openai.RunRequest{
		AssistantID: b.assistantID,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create run: %w", err)
	}
	return run.ID, nil
}

// GetRun fetches the current run state, flattening any pending tool calls.
func (b *OpenAIBackend) GetRun(ctx context.Context, threadID, runID string) (*RunSnapshot, error) {
	run, err := b.client.RetrieveRun(ctx, threadID, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve run: %w", err)
	}

	snapshot := &RunSnapshot{
		ID:     run.ID,
		Status: string(run.Status),
	}
	if run.Status == openai.RunStatusRequiresAction &&
		run.RequiredAction != nil &&
		run.RequiredAction.SubmitToolOutputs != nil {
		for _, tc := range run.RequiredAction.SubmitToolOutputs.ToolCalls {
			snapshot.ToolCalls = append(snapshot.ToolCalls, ToolCall{
				ID:        tc.ID,
				Name:      tc.Function.Name,
				Arguments: json.RawMessage(tc.Function.Arguments),
			})
		}
	}
	return snapshot, nil
}

// SubmitToolOutputs answers a requires_action run with one output per tool
// call. All results for the batch go up in a single request.
func (b *OpenAIBackend) SubmitToolOutputs(ctx context.Context, threadID, runID string, results []ToolResult) error {
	outputs := make([]openai.ToolOutput, 0, len(results))
	for _, r := range results {
		outputs = append(outputs, openai.ToolOutput{
			ToolCallID: r.ToolCallID,
			Output:     r.Output,
		})
	}
	_, err := b.client.SubmitToolOutputs(ctx, threadID, runID, openai.SubmitToolOutputsRequest{
		ToolOutputs: outputs,
	})
	if err != nil {
		return fmt.Errorf("failed to submit tool outputs: %w", err)
	}
	return nil
}

// LatestAssistantReply returns the text of the newest assistant message on
// the thread, or "" when there is none.
func (b *OpenAIBackend) LatestAssistantReply(ctx context.Context, threadID string) (string, error) {
	limit := 20
	order := "desc"
	list, err := b.client.ListMessage(ctx, threadID, &limit, &order, nil, nil, nil)
	if err != nil {
		return "", fmt.Errorf("failed to list messages: %w", err)
	}
	return latestAssistantText(list.Messages), nil
}

// latestAssistantText picks the newest assistant text out of a message page.
func latestAssistantText(messages []openai.Message) string {
	sorted := make([]openai.Message, len(messages))
	copy(sorted, messages)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt > sorted[j].CreatedAt
	})
	for _, msg := range sorted {
		if msg.Role != string(openai.ThreadMessageRoleAssistant) {
			continue
		}
		for _, part := range msg.Content {
			if part.Text != nil && part.Text.Value != "" {
				return part.Text.Value
			}
		}
	}
	return ""
}
