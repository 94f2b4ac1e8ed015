package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend serves a scripted sequence of run snapshots.
type fakeBackend struct {
	snapshots []*RunSnapshot
	pollIdx   int
	pollErrAt map[int]error

	reply   string
	submits [][]ToolResult

	threadsCreated int
	messages       []string
	runsStarted    int
}

func (f *fakeBackend) CreateThread(ctx context.Context) (string, error) {
	f.threadsCreated++
	return "thread_1", nil
}

func (f *fakeBackend) AddUserMessage(ctx context.Context, threadID, content string) error {
	f.messages = append(f.messages, content)
	return nil
}

func (f *fakeBackend) StartRun(ctx context.Context, threadID string) (string, error) {
	f.runsStarted++
	return "run_1", nil
}

func (f *fakeBackend) GetRun(ctx context.Context, threadID, runID string) (*RunSnapshot, error) {
	idx := f.pollIdx
	f.pollIdx++
	if err, ok := f.pollErrAt[idx]; ok {
		return nil, err
	}
	if idx >= len(f.snapshots) {
		return f.snapshots[len(f.snapshots)-1], nil
	}
	return f.snapshots[idx], nil
}

func (f *fakeBackend) SubmitToolOutputs(ctx context.Context, threadID, runID string, results []ToolResult) error {
	f.submits = append(f.submits, results)
	return nil
}

func (f *fakeBackend) LatestAssistantReply(ctx context.Context, threadID string) (string, error) {
	return f.reply, nil
}

// fakeRunner echoes each call id back as a result.
type fakeRunner struct {
	batches [][]ToolCall
}

func (f *fakeRunner) Dispatch(ctx context.Context, calls []ToolCall) []ToolResult {
	f.batches = append(f.batches, calls)
	results := make([]ToolResult, 0, len(calls))
	for _, call := range calls {
		results = append(results, ToolResult{
			ToolCallID: call.ID,
			Output:     `{"ok":true}`,
		})
	}
	return results
}

func newTestPoller(backend *fakeBackend, runner ToolRunner) *Poller {
	return NewPoller(backend, runner, time.Millisecond, 18)
}

func snap(status string, calls ...ToolCall) *RunSnapshot {
	return &RunSnapshot{ID: "run_1", Status: status, ToolCalls: calls}
}

func TestAwaitReplyCompletes(t *testing.T) {
	backend := &fakeBackend{
		snapshots: []*RunSnapshot{
			snap(StatusQueued),
			snap(StatusInProgress),
			snap(StatusCompleted),
		},
		reply: "Happy to help!",
	}
	poller := newTestPoller(backend, &fakeRunner{})

	reply, err := poller.AwaitReply(context.Background(), "thread_1", "run_1")
	require.NoError(t, err)
	assert.Equal(t, "Happy to help!", reply)
	assert.Empty(t, backend.submits)
}

func TestAwaitReplyAnswersToolBatch(t *testing.T) {
	calls := []ToolCall{
		{ID: "tc_1", Name: "create_lead", Arguments: json.RawMessage(`{"name":"Jane"}`)},
		{ID: "tc_2", Name: "initiate_demo_call", Arguments: json.RawMessage(`{"phone":"5551234567"}`)},
	}
	backend := &fakeBackend{
		snapshots: []*RunSnapshot{
			snap(StatusInProgress),
			snap(StatusRequiresAction, calls...),
			snap(StatusCompleted),
		},
		reply: "Done! I've set that up.",
	}
	runner := &fakeRunner{}
	poller := newTestPoller(backend, runner)

	reply, err := poller.AwaitReply(context.Background(), "thread_1", "run_1")
	require.NoError(t, err)
	assert.Equal(t, "Done! I've set that up.", reply)

	require.Len(t, backend.submits, 1)
	require.Len(t, backend.submits[0], 2)
	assert.Equal(t, "tc_1", backend.submits[0][0].ToolCallID)
	assert.Equal(t, "tc_2", backend.submits[0][1].ToolCallID)

	require.Len(t, runner.batches, 1)
	assert.Equal(t, "create_lead", runner.batches[0][0].Name)
}

func TestAwaitReplySubmitsBatchOnce(t *testing.T) {
	calls := []ToolCall{{ID: "tc_1", Name: "create_lead", Arguments: json.RawMessage(`{}`)}}
	backend := &fakeBackend{
		snapshots: []*RunSnapshot{
			snap(StatusRequiresAction, calls...),
			// The API keeps reporting requires_action while it chews
			// on the submitted outputs.
			snap(StatusRequiresAction, calls...),
			snap(StatusRequiresAction, calls...),
			snap(StatusCompleted),
		},
		reply: "All set.",
	}
	poller := newTestPoller(backend, &fakeRunner{})

	reply, err := poller.AwaitReply(context.Background(), "thread_1", "run_1")
	require.NoError(t, err)
	assert.Equal(t, "All set.", reply)
	assert.Len(t, backend.submits, 1)
}

func TestAwaitReplyTimeoutFallback(t *testing.T) {
	backend := &fakeBackend{
		snapshots: []*RunSnapshot{snap(StatusInProgress)},
		reply:     "never read",
	}
	poller := NewPoller(backend, &fakeRunner{}, time.Millisecond, 3)

	reply, err := poller.AwaitReply(context.Background(), "thread_1", "run_1")
	require.NoError(t, err)
	assert.Equal(t, timeoutReply, reply)
	assert.Equal(t, 3, backend.pollIdx)
}

func TestAwaitReplyTerminalFailure(t *testing.T) {
	backend := &fakeBackend{
		snapshots: []*RunSnapshot{
			snap(StatusInProgress),
			snap(StatusFailed),
		},
	}
	poller := newTestPoller(backend, &fakeRunner{})

	reply, err := poller.AwaitReply(context.Background(), "thread_1", "run_1")
	require.NoError(t, err)
	assert.Equal(t, failureReply, reply)
}

func TestAwaitReplySurvivesTransientPollError(t *testing.T) {
	backend := &fakeBackend{
		snapshots: []*RunSnapshot{
			snap(StatusInProgress),
			snap(StatusInProgress), // replaced by the injected error
			snap(StatusCompleted),
		},
		pollErrAt: map[int]error{1: fmt.Errorf("connection reset")},
		reply:     "Back on track.",
	}
	poller := newTestPoller(backend, &fakeRunner{})

	reply, err := poller.AwaitReply(context.Background(), "thread_1", "run_1")
	require.NoError(t, err)
	assert.Equal(t, "Back on track.", reply)
}

func TestAwaitReplyContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	backend := &fakeBackend{snapshots: []*RunSnapshot{snap(StatusInProgress)}}
	poller := newTestPoller(backend, &fakeRunner{})

	_, err := poller.AwaitReply(ctx, "thread_1", "run_1")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAwaitReplyEmptyCompletionFallsBack(t *testing.T) {
	backend := &fakeBackend{
		snapshots: []*RunSnapshot{snap(StatusCompleted)},
		reply:     "",
	}
	poller := newTestPoller(backend, &fakeRunner{})

	reply, err := poller.AwaitReply(context.Background(), "thread_1", "run_1")
	require.NoError(t, err)
	assert.Equal(t, failureReply, reply)
}
