package store_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brightline-digital/concierge/internal/domain"
	"github.com/brightline-digital/concierge/tests/helpers"
)

func TestChatSessionRoundtrip(t *testing.T) {
	s := helpers.NewTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	session := &domain.ChatSession{
		SessionID: "sess_1",
		State:     domain.StateChat,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, s.CreateChatSession(ctx, session))

	got, err := s.GetChatSession(ctx, "sess_1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, domain.StateChat, got.State)
	assert.Equal(t, 0, got.ChatTurns)
	assert.Empty(t, got.ThreadID)

	got.ThreadID = "thread_1"
	got.State = domain.StateAskPhone
	got.ChatTurns = 3
	got.Name = "Jane Doe"
	got.UpdatedAt = now.Add(time.Minute)
	require.NoError(t, s.UpdateChatSession(ctx, got))

	updated, err := s.GetChatSession(ctx, "sess_1")
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, domain.StateAskPhone, updated.State)
	assert.Equal(t, 3, updated.ChatTurns)
	assert.Equal(t, "thread_1", updated.ThreadID)
	assert.Equal(t, "Jane Doe", updated.Name)
}

func TestGetChatSessionMissing(t *testing.T) {
	s := helpers.NewTestStore(t)

	got, err := s.GetChatSession(context.Background(), "sess_nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestUpdateChatSessionMissing(t *testing.T) {
	s := helpers.NewTestStore(t)

	err := s.UpdateChatSession(context.Background(), &domain.ChatSession{
		SessionID: "sess_nope",
		State:     domain.StateChat,
		UpdatedAt: time.Now(),
	})
	assert.Error(t, err)
}

func TestTranscriptOrdering(t *testing.T) {
	s := helpers.NewTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, s.CreateChatSession(ctx, &domain.ChatSession{
		SessionID: "sess_1",
		State:     domain.StateChat,
		CreatedAt: now,
		UpdatedAt: now,
	}))

	for i, content := range []string{"hi", "hello!", "tell me more"} {
		require.NoError(t, s.AppendTranscript(ctx, &domain.TranscriptMessage{
			MessageID: "msg_" + string(rune('a'+i)),
			SessionID: "sess_1",
			Role:      domain.RoleUser,
			Content:   content,
			CreatedAt: now.Add(time.Duration(i) * time.Second),
		}))
	}

	messages, err := s.ListTranscript(ctx, "sess_1", 0)
	require.NoError(t, err)
	require.Len(t, messages, 3)
	assert.Equal(t, "hi", messages[0].Content)
	assert.Equal(t, "tell me more", messages[2].Content)

	limited, err := s.ListTranscript(ctx, "sess_1", 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestCallEventsRoundtrip(t *testing.T) {
	s := helpers.NewTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, s.CreateCallEvent(ctx, &domain.CallEvent{
		EventID:   "evt_1",
		CallID:    "call_1",
		Phone:     "+15551234567",
		Type:      domain.CallEventStarted,
		CreatedAt: now,
	}))
	require.NoError(t, s.CreateCallEvent(ctx, &domain.CallEvent{
		EventID:   "evt_2",
		CallID:    "call_1",
		Phone:     "+15551234567",
		Type:      domain.CallEventEnded,
		Payload:   json.RawMessage(`{"call_duration":42.5}`),
		CreatedAt: now.Add(time.Minute),
	}))

	events, err := s.ListCallEvents(ctx, "call_1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, domain.CallEventStarted, events[0].Type)
	assert.Nil(t, events[0].Payload)
	assert.Equal(t, domain.CallEventEnded, events[1].Type)
	assert.JSONEq(t, `{"call_duration":42.5}`, string(events[1].Payload))

	other, err := s.ListCallEvents(ctx, "call_other")
	require.NoError(t, err)
	assert.Empty(t, other)
}
