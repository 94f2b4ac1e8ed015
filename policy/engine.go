// Package policy classifies chat-widget input with an OPA policy.
package policy

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/rego"
)

// Decisions returned by the default policy.
const (
	DecisionAllow   = "allow"
	DecisionDeflect = "deflect"
	DecisionDecline = "decline"
	DecisionBlock   = "block"
)

// Engine is the OPA policy engine.
type Engine struct {
	query rego.PreparedEvalQuery
}

// NewEngine creates a new policy engine with the given policy content.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("data.chat_policy.decision"),
		rego.Module("chat_policy.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}

	return &Engine{query: query}, nil
}

// Evaluate classifies one widget input.
// Input is a map with keys: stage (chat, ask_phone, ask_email) and message.
// Returns: decision (allow, deflect, decline, block), reason (optional), error.
func (e *Engine) Evaluate(ctx context.Context, input interface{}) (string, string, error) {
	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return "", "", fmt.Errorf("failed to evaluate policy: %w", err)
	}

	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return DecisionAllow, "default", nil
	}

	val := results[0].Expressions[0].Value
	if s, ok := val.(string); ok {
		return s, "", nil
	}

	return DecisionAllow, "unexpected return type", nil
}

// DefaultPolicy is the default chat-input policy. Matching is deliberately
// approximate (case-insensitive substrings): this is a spam filter, not a
// security boundary.
const DefaultPolicy = `
package chat_policy

import rego.v1

off_topic := [
	"weather",
	"joke",
	"trivia",
	"riddle",
	"are you a bot",
	"are you real",
	"are you human",
	"who made you",
	"what model are you",
]

decline_phrases := [
	"no thanks",
	"no thank",
	"not interested",
	"skip",
	"rather not",
	"don't want",
	"dont want",
	"prefer not",
]

fake_tokens := [
	"test",
	"fake",
	"asdf",
	"qwerty",
	"example.com",
	"noemail",
]

disposable_domains := [
	"mailinator.com",
	"guerrillamail.com",
	"10minutemail.com",
	"tempmail",
	"yopmail.com",
	"trashmail.com",
	"sharklasers.com",
]

msg := lower(input.message)

off_topic_hit if {
	some kw in off_topic
	contains(msg, kw)
}

decline_hit if {
	some p in decline_phrases
	contains(msg, p)
}

fake_email_hit if {
	some t in fake_tokens
	contains(msg, t)
}

fake_email_hit if {
	some d in disposable_domains
	contains(msg, d)
}

default decision := "allow"

decision := "deflect" if {
	input.stage == "chat"
	off_topic_hit
}

decision := "decline" if {
	input.stage == "ask_phone"
	decline_hit
}

decision := "decline" if {
	input.stage == "ask_email"
	decline_hit
	not fake_email_hit
}

decision := "block" if {
	input.stage == "ask_email"
	fake_email_hit
}
`
