package assistant

import (
	"context"
	"encoding/json"
	"sort"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplyCreatesThreadWhenEmpty(t *testing.T) {
	backend := &fakeBackend{
		snapshots: []*RunSnapshot{snap(StatusCompleted)},
		reply:     "Hello there!",
	}
	svc := NewService(backend, newTestPoller(backend, &fakeRunner{}))

	reply, threadID, err := svc.Reply(context.Background(), "", "hi")
	require.NoError(t, err)
	assert.Equal(t, "Hello there!", reply)
	assert.Equal(t, "thread_1", threadID)
	assert.Equal(t, 1, backend.threadsCreated)
	assert.Equal(t, []string{"hi"}, backend.messages)
	assert.Equal(t, 1, backend.runsStarted)
}

func TestReplyReusesThread(t *testing.T) {
	backend := &fakeBackend{
		snapshots: []*RunSnapshot{snap(StatusCompleted)},
		reply:     "Welcome back.",
	}
	svc := NewService(backend, newTestPoller(backend, &fakeRunner{}))

	reply, threadID, err := svc.Reply(context.Background(), "thread_9", "hello again")
	require.NoError(t, err)
	assert.Equal(t, "Welcome back.", reply)
	assert.Equal(t, "thread_9", threadID)
	assert.Equal(t, 0, backend.threadsCreated)
}

func TestReplyRequiresMessage(t *testing.T) {
	backend := &fakeBackend{}
	svc := NewService(backend, newTestPoller(backend, &fakeRunner{}))

	_, _, err := svc.Reply(context.Background(), "thread_1", "")
	assert.Error(t, err)
}

func TestCheckRunInProgress(t *testing.T) {
	backend := &fakeBackend{snapshots: []*RunSnapshot{snap(StatusInProgress)}}
	svc := NewService(backend, newTestPoller(backend, &fakeRunner{}))

	status, reply, err := svc.CheckRun(context.Background(), "thread_1", "run_1")
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, status)
	assert.Empty(t, reply)
}

func TestCheckRunCompleted(t *testing.T) {
	backend := &fakeBackend{
		snapshots: []*RunSnapshot{snap(StatusCompleted)},
		reply:     "Here's your answer.",
	}
	svc := NewService(backend, newTestPoller(backend, &fakeRunner{}))

	status, reply, err := svc.CheckRun(context.Background(), "thread_1", "run_1")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, status)
	assert.Equal(t, "Here's your answer.", reply)
}

func TestCheckRunAnswersToolCalls(t *testing.T) {
	calls := []ToolCall{{ID: "tc_1", Name: "create_lead", Arguments: json.RawMessage(`{}`)}}
	backend := &fakeBackend{snapshots: []*RunSnapshot{snap(StatusRequiresAction, calls...)}}
	runner := &fakeRunner{}
	svc := NewService(backend, NewPoller(backend, runner, time.Millisecond, 18))

	status, reply, err := svc.CheckRun(context.Background(), "thread_1", "run_1")
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, status)
	assert.Empty(t, reply)
	require.Len(t, backend.submits, 1)
	assert.Equal(t, "tc_1", backend.submits[0][0].ToolCallID)
}

func TestCheckRunTerminalFailure(t *testing.T) {
	backend := &fakeBackend{snapshots: []*RunSnapshot{snap(StatusExpired)}}
	svc := NewService(backend, newTestPoller(backend, &fakeRunner{}))

	status, reply, err := svc.CheckRun(context.Background(), "thread_1", "run_1")
	require.NoError(t, err)
	assert.Equal(t, StatusExpired, status)
	assert.Equal(t, failureReply, reply)
}

func TestLatestAssistantTextPicksNewest(t *testing.T) {
	messages := []openai.Message{
		{
			Role:      string(openai.ThreadMessageRoleAssistant),
			CreatedAt: 100,
			Content: []openai.MessageContent{
				{Text: &openai.MessageText{Value: "old reply"}},
			},
		},
		{
			Role:      string(openai.ThreadMessageRoleUser),
			CreatedAt: 300,
			Content: []openai.MessageContent{
				{Text: &openai.MessageText{Value: "user message"}},
			},
		},
		{
			Role:      string(openai.ThreadMessageRoleAssistant),
			CreatedAt: 200,
			Content: []openai.MessageContent{
				{Text: &openai.MessageText{Value: "new reply"}},
			},
		},
	}

	// Shuffle-resistant: input order must not matter.
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].CreatedAt < messages[j].CreatedAt
	})

	assert.Equal(t, "new reply", latestAssistantText(messages))
	assert.Equal(t, "", latestAssistantText(nil))
}

func TestRunSnapshotTerminal(t *testing.T) {
	for _, status := range []string{StatusCompleted, StatusFailed, StatusExpired, StatusCancelled} {
		assert.True(t, snap(status).Terminal(), status)
	}
	for _, status := range []string{StatusQueued, StatusInProgress, StatusRequiresAction} {
		assert.False(t, snap(status).Terminal(), status)
	}
}
