// Package chat implements the widget-facing conversation flow: scripted
// lead capture layered over the free-form assistant.
package chat

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/brightline-digital/concierge/internal/crm"
	"github.com/brightline-digital/concierge/internal/domain"
	"github.com/brightline-digital/concierge/internal/phone"
	"github.com/brightline-digital/concierge/internal/store"
)

// PolicyEngine classifies widget input. *policy.Engine implements it.
type PolicyEngine interface {
	Evaluate(ctx context.Context, input interface{}) (string, string, error)
}

// Responder produces a free-form assistant reply. *assistant.Service
// implements it.
type Responder interface {
	Reply(ctx context.Context, threadID, message string) (string, string, error)
}

// LeadSink receives captured leads. *crm.Client implements it.
type LeadSink interface {
	UpsertLead(ctx context.Context, lead crm.Lead) (string, bool, error)
}

// Policy decisions the engine acts on. Kept in sync with the policy package.
const (
	decisionDeflect = "deflect"
	decisionDecline = "decline"
	decisionBlock   = "block"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const assistantErrorReply = "Sorry, something went wrong on my end. Please try again."

// Engine runs the chat widget state machine.
type Engine struct {
	store        store.Store
	policy       PolicyEngine
	assistant    Responder
	leads        LeadSink
	bookingURL   string
	softCTAAfter int
	hardCTAAfter int
}

// NewEngine creates a chat engine. leads may be nil when no CRM is
// configured; captured leads are then only persisted locally.
func NewEngine(s store.Store, p PolicyEngine, a Responder, leads LeadSink, bookingURL string, softCTAAfter, hardCTAAfter int) *Engine {
	if softCTAAfter <= 0 {
		softCTAAfter = 2
	}
	if hardCTAAfter <= softCTAAfter {
		hardCTAAfter = 5
	}
	return &Engine{
		store:        s,
		policy:       p,
		assistant:    a,
		leads:        leads,
		bookingURL:   bookingURL,
		softCTAAfter: softCTAAfter,
		hardCTAAfter: hardCTAAfter,
	}
}

// HandleMessage processes one user message and returns the bot replies for
// this turn. An empty sessionID starts a new session.
func (e *Engine) HandleMessage(ctx context.Context, sessionID, message string) (*domain.ChatTurnResponse, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, fmt.Errorf("message is required")
	}

	session, err := e.loadOrCreateSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	e.appendTranscript(ctx, session.SessionID, domain.RoleUser, message)

	var replies []string
	switch session.State {
	case domain.StateBlocked:
		// Absorbing state: the message is recorded, nothing answers it.
	case domain.StateChat:
		replies, err = e.handleChat(ctx, session, message)
	case domain.StateAskName:
		replies = e.handleAskName(session, message)
	case domain.StateAskPhone:
		replies, err = e.handleAskPhone(ctx, session, message)
	case domain.StateAskEmail:
		replies, err = e.handleAskEmail(ctx, session, message)
	default: // completed
		replies = []string{e.assistantReply(ctx, session, message)}
	}
	if err != nil {
		return nil, err
	}

	session.UpdatedAt = time.Now()
	if err := e.store.UpdateChatSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	for _, reply := range replies {
		e.appendTranscript(ctx, session.SessionID, domain.RoleBot, reply)
	}

	return &domain.ChatTurnResponse{
		SessionID: session.SessionID,
		State:     session.State,
		Replies:   replies,
	}, nil
}

func (e *Engine) handleChat(ctx context.Context, session *domain.ChatSession, message string) ([]string, error) {
	session.ChatTurns++

	decision, _, err := e.policy.Evaluate(ctx, map[string]interface{}{
		"stage":   "chat",
		"message": message,
	})
	if err != nil {
		return nil, fmt.Errorf("policy evaluation failed: %w", err)
	}

	if session.ChatTurns >= e.hardCTAAfter {
		session.State = domain.StateAskName
		return []string{e.hardCTA()}, nil
	}

	if decision == decisionDeflect {
		replies := []string{deflectionMessage}
		if session.ChatTurns >= e.softCTAAfter {
			session.State = domain.StateAskName
			replies = append(replies, softCTAMessage)
		}
		return replies, nil
	}

	replies := []string{e.assistantReply(ctx, session, message)}
	if session.ChatTurns >= e.softCTAAfter {
		session.State = domain.StateAskName
		replies = append(replies, softCTAMessage)
	}
	return replies, nil
}

func (e *Engine) handleAskName(session *domain.ChatSession, message string) []string {
	session.Name = message
	session.State = domain.StateAskPhone
	first := strings.Fields(message)[0]
	return []string{fmt.Sprintf("Thanks, %s! What's the best phone number to reach you at?", first)}
}

func (e *Engine) handleAskPhone(ctx context.Context, session *domain.ChatSession, message string) ([]string, error) {
	decision, _, err := e.policy.Evaluate(ctx, map[string]interface{}{
		"stage":   "ask_phone",
		"message": message,
	})
	if err != nil {
		return nil, fmt.Errorf("policy evaluation failed: %w", err)
	}

	if decision == decisionDecline {
		session.State = domain.StateCompleted
		return []string{e.bookingLinkMessage()}, nil
	}

	digits, err := phone.Digits10(message)
	if err != nil {
		return []string{"That doesn't look like a valid US phone number. Could you try again with area code?"}, nil
	}

	session.Phone = digits
	session.State = domain.StateAskEmail
	return []string{"Got it. And what's your email address?"}, nil
}

func (e *Engine) handleAskEmail(ctx context.Context, session *domain.ChatSession, message string) ([]string, error) {
	decision, _, err := e.policy.Evaluate(ctx, map[string]interface{}{
		"stage":   "ask_email",
		"message": message,
	})
	if err != nil {
		return nil, fmt.Errorf("policy evaluation failed: %w", err)
	}

	switch decision {
	case decisionBlock:
		session.State = domain.StateBlocked
		return nil, nil
	case decisionDecline:
		session.State = domain.StateCompleted
		return []string{e.bookingLinkMessage()}, nil
	}

	email := strings.ToLower(message)
	if !emailPattern.MatchString(email) {
		return []string{"Hmm, that doesn't look like an email address. Mind double-checking it?"}, nil
	}

	session.Email = email
	session.State = domain.StateCompleted
	e.submitLead(session)

	return []string{
		fmt.Sprintf("Perfect, thanks %s! We'll be in touch shortly.", strings.Fields(session.Name)[0]),
		e.bookingLinkMessage(),
	}, nil
}

// submitLead pushes the captured lead to the CRM in the background. A CRM
// failure must never block or alter the user-visible reply.
func (e *Engine) submitLead(session *domain.ChatSession) {
	if e.leads == nil {
		return
	}
	lead := crm.Lead{
		Name:   session.Name,
		Phone:  session.Phone,
		Email:  session.Email,
		Tags:   []string{"Website Chat"},
		Source: "Chat Widget",
	}
	sessionID := session.SessionID
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if _, _, err := e.leads.UpsertLead(ctx, lead); err != nil {
			log.Printf("session %s: lead upsert failed: %v", sessionID, err)
		}
	}()
}

func (e *Engine) assistantReply(ctx context.Context, session *domain.ChatSession, message string) string {
	reply, threadID, err := e.assistant.Reply(ctx, session.ThreadID, message)
	if err != nil {
		log.Printf("session %s: assistant turn failed: %v", session.SessionID, err)
		return assistantErrorReply
	}
	session.ThreadID = threadID
	return reply
}

func (e *Engine) loadOrCreateSession(ctx context.Context, sessionID string) (*domain.ChatSession, error) {
	if sessionID != "" {
		session, err := e.store.GetChatSession(ctx, sessionID)
		if err != nil {
			return nil, fmt.Errorf("failed to load session: %w", err)
		}
		if session != nil {
			return session, nil
		}
		// Stale id from a cleared database; fall through to a new session.
	}

	now := time.Now()
	session := &domain.ChatSession{
		SessionID: "sess_" + uuid.New().String(),
		State:     domain.StateChat,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := e.store.CreateChatSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

func (e *Engine) appendTranscript(ctx context.Context, sessionID, role, content string) {
	err := e.store.AppendTranscript(ctx, &domain.TranscriptMessage{
		MessageID: "msg_" + uuid.New().String(),
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	})
	if err != nil {
		log.Printf("session %s: failed to record transcript: %v", sessionID, err)
	}
}

const deflectionMessage = "I'm here to talk about how we can help grow your business! Is there anything about our services I can answer for you?"

const softCTAMessage = "By the way, I'd love to get you a personalized walkthrough. What's your name?"

func (e *Engine) hardCTA() string {
	return fmt.Sprintf(
		`Let's get you talking to a real person! You can %s, or just leave your name and I'll have someone reach out. What's your name?`,
		e.bookingAnchor("book a quick call"))
}

func (e *Engine) bookingLinkMessage() string {
	return fmt.Sprintf("No problem at all! If you'd like to chat later, you can always %s.", e.bookingAnchor("book a time that works for you"))
}

func (e *Engine) bookingAnchor(label string) string {
	return fmt.Sprintf(`<a href="%s" target="_blank">%s</a>`, e.bookingURL, label)
}
