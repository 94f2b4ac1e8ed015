package assistant

import (
	"context"
	"log"
	"strings"
	"time"
)

// Fallback replies when a run does not produce an assistant message.
const (
	timeoutReply = "Sorry, I'm taking longer than usual. Please try again in a moment."
	failureReply = "Sorry, something went wrong on my end. Please try again."
)

// ToolRunner executes a batch of tool calls and returns one result per call.
type ToolRunner interface {
	Dispatch(ctx context.Context, calls []ToolCall) []ToolResult
}

// Poller drives a run to completion by polling its status at a fixed
// interval, answering tool-call batches along the way.
type Poller struct {
	backend     Backend
	tools       ToolRunner
	interval    time.Duration
	maxAttempts int
}

// NewPoller creates a poller. interval and maxAttempts bound how long a
// single run may occupy a request.
func NewPoller(backend Backend, tools ToolRunner, interval time.Duration, maxAttempts int) *Poller {
	if interval <= 0 {
		interval = 1200 * time.Millisecond
	}
	if maxAttempts <= 0 {
		maxAttempts = 18
	}
	return &Poller{
		backend:     backend,
		tools:       tools,
		interval:    interval,
		maxAttempts: maxAttempts,
	}
}

// AwaitReply polls the run until it completes, fails, or the attempt budget
// runs out. Exhausting the budget is not an error: the caller gets an
// apologetic fallback reply and the run is left to finish on its own.
func (p *Poller) AwaitReply(ctx context.Context, threadID, runID string) (string, error) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	// Tool batches already answered for this run, keyed by the batch's
	// joined tool-call IDs. The API keeps reporting requires_action until
	// it processes submitted outputs; submitting twice is an error.
	answered := make(map[string]bool)

	for attempt := 0; attempt < p.maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}

		run, err := p.backend.GetRun(ctx, threadID, runID)
		if err != nil {
			// Transient fetch failures burn an attempt but don't
			// abort the run.
			log.Printf("run %s: poll failed: %v", runID, err)
			continue
		}

		switch run.Status {
		case StatusCompleted:
			reply, err := p.backend.LatestAssistantReply(ctx, threadID)
			if err != nil {
				return "", err
			}
			if reply == "" {
				return failureReply, nil
			}
			return reply, nil

		case StatusRequiresAction:
			key := batchKey(run.ToolCalls)
			if key == "" || answered[key] {
				continue
			}
			results := p.tools.Dispatch(ctx, run.ToolCalls)
			if err := p.backend.SubmitToolOutputs(ctx, threadID, runID, results); err != nil {
				return "", err
			}
			answered[key] = true

		case StatusFailed, StatusExpired, StatusCancelled:
			log.Printf("run %s ended with status %s", runID, run.Status)
			return failureReply, nil
		}
	}

	log.Printf("run %s: gave up after %d polls", runID, p.maxAttempts)
	return timeoutReply, nil
}

func batchKey(calls []ToolCall) string {
	if len(calls) == 0 {
		return ""
	}
	ids := make([]string, 0, len(calls))
	for _, call := range calls {
		ids = append(ids, call.ID)
	}
	return strings.Join(ids, ",")
}
