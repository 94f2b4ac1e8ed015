package assistant

import (
	"context"
	"fmt"
)

// Service is the high-level conversation API: blocking single-turn replies
// plus a split start/check pair for callers that poll on their own schedule.
type Service struct {
	backend Backend
	poller  *Poller
}

// NewService creates a conversation service.
func NewService(backend Backend, poller *Poller) *Service {
	return &Service{
		backend: backend,
		poller:  poller,
	}
}

// Reply runs one full conversation turn: post the message, run the
// assistant, wait for the reply. When threadID is empty a new thread is
// created; the (possibly new) thread id is returned alongside the reply.
func (s *Service) Reply(ctx context.Context, threadID, message string) (string, string, error) {
	threadID, runID, err := s.StartTurn(ctx, threadID, message)
	if err != nil {
		return "", "", err
	}
	reply, err := s.poller.AwaitReply(ctx, threadID, runID)
	if err != nil {
		return "", "", err
	}
	return reply, threadID, nil
}

// StartTurn posts a user message and starts a run without waiting for it.
func (s *Service) StartTurn(ctx context.Context, threadID, message string) (string, string, error) {
	if message == "" {
		return "", "", fmt.Errorf("message is required")
	}

	if threadID == "" {
		newID, err := s.backend.CreateThread(ctx)
		if err != nil {
			return "", "", err
		}
		threadID = newID
	}

	if err := s.backend.AddUserMessage(ctx, threadID, message); err != nil {
		return "", "", err
	}

	runID, err := s.backend.StartRun(ctx, threadID)
	if err != nil {
		return "", "", err
	}
	return threadID, runID, nil
}

// CheckRun reports a run's status with a single poll. Tool-call batches
// observed here are dispatched and answered, same as in the blocking loop.
// The reply is only populated once the run has completed.
func (s *Service) CheckRun(ctx context.Context, threadID, runID string) (string, string, error) {
	run, err := s.backend.GetRun(ctx, threadID, runID)
	if err != nil {
		return "", "", err
	}

	switch run.Status {
	case StatusCompleted:
		reply, err := s.backend.LatestAssistantReply(ctx, threadID)
		if err != nil {
			return run.Status, "", err
		}
		return run.Status, reply, nil

	case StatusRequiresAction:
		if len(run.ToolCalls) > 0 {
			results := s.poller.tools.Dispatch(ctx, run.ToolCalls)
			if err := s.backend.SubmitToolOutputs(ctx, threadID, runID, results); err != nil {
				return run.Status, "", err
			}
		}
		return StatusInProgress, "", nil

	case StatusFailed, StatusExpired, StatusCancelled:
		return run.Status, failureReply, nil
	}

	return run.Status, "", nil
}
