package agent

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/labcitrus/avagen-runner/pkg/logger"
	"github.com/labcitrus/avagen-runner/pkg/plan"
)

var (
	ErrNoPending   = errors.New("no pending action plan")
	ErrNoPlan      = errors.New("no action plan found to execute")
	ErrNotAffirmed = errors.New("answer is not a confirmation")
)

// AppMismatchError is returned when the pending plan targets another app
// than the one in the foreground. The plan stays pending.
type AppMismatchError struct {
	PlanApp    string
	CurrentApp string
}

func (e *AppMismatchError) Error() string {
	return fmt.Sprintf("the requested task is for app %s, but the current app is %s", e.PlanApp, e.CurrentApp)
}

// Pending is an action plan awaiting user confirmation.
type Pending struct {
	ID        string
	PlanJSON  string
	AppID     string
	CreatedAt time.Time
}

// ToolCallManager holds at most one pending action plan.
type ToolCallManager struct {
	mu      sync.Mutex
	pending *Pending
}

// NewToolCallManager creates an empty manager.
func NewToolCallManager() *ToolCallManager {
	return &ToolCallManager{}
}

// SetPending replaces the pending plan.
func (m *ToolCallManager) SetPending(planJSON, appID string) Pending {
	p := Pending{
		ID:        uuid.NewString(),
		PlanJSON:  planJSON,
		AppID:     appID,
		CreatedAt: time.Now(),
	}
	m.mu.Lock()
	m.pending = &p
	m.mu.Unlock()
	return p
}

// Pending returns the pending plan, if any.
func (m *ToolCallManager) Pending() (Pending, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pending == nil {
		return Pending{}, false
	}
	return *m.pending, true
}

// HasPending reports whether a plan awaits confirmation.
func (m *ToolCallManager) HasPending() bool {
	_, ok := m.Pending()
	return ok
}

// Clear drops the pending plan.
func (m *ToolCallManager) Clear() {
	m.mu.Lock()
	m.pending = nil
	m.mu.Unlock()
}

// Conversation tracks session state across agent replies and turns a
// confirmed reply into an executable plan.
type Conversation struct {
	calls *ToolCallManager
	log   zerolog.Logger

	mu        sync.Mutex
	sessionID string
	serverApp string
}

// NewConversation creates a conversation backed by calls.
func NewConversation(calls *ToolCallManager) *Conversation {
	if calls == nil {
		calls = NewToolCallManager()
	}
	return &Conversation{
		calls: calls,
		log:   logger.Component("agent"),
	}
}

// ToolCalls returns the pending-plan manager.
func (c *Conversation) ToolCalls() *ToolCallManager { return c.calls }

// SessionID returns the current session id.
func (c *Conversation) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// SetSession sets the session id returned by the session handshake.
func (c *Conversation) SetSession(id string) {
	c.mu.Lock()
	c.sessionID = id
	c.mu.Unlock()
}

// ServerAppID returns the app id last declared by the server.
func (c *Conversation) ServerAppID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.serverApp
}

// HandleReply parses a raw agent reply, updates session state and stores
// any action plan as pending. It returns the message to show the user.
func (c *Conversation) HandleReply(raw []byte) (Reply, error) {
	r, err := ParseReply(raw)
	if err != nil {
		c.log.Warn().Err(err).Msg("unusable agent reply")
		return Reply{}, err
	}

	c.mu.Lock()
	if r.AppID != "" {
		c.serverApp = r.AppID
	}
	if r.NextSessionID != "" {
		c.log.Info().Str("session", r.NextSessionID).Msg("switched to next session")
		c.sessionID = r.NextSessionID
	}
	appID := c.serverApp
	c.mu.Unlock()

	if r.Type == ReplyActionPlan {
		p := c.calls.SetPending(r.PlanJSON, appID)
		c.log.Info().Str("pending", p.ID).Str("app", appID).Msg("action plan awaiting confirmation")
	}
	return r, nil
}

// Confirm consumes the pending plan when answer is affirmative and the
// foreground app matches the app the server declared. On an app mismatch
// the plan stays pending so the user can confirm again; an empty payload
// clears it.
func (c *Conversation) Confirm(answer, currentApp string) (*plan.Plan, Pending, error) {
	pending, ok := c.calls.Pending()
	if !ok {
		return nil, Pending{}, ErrNoPending
	}
	if !IsAffirmative(answer) {
		return nil, pending, ErrNotAffirmed
	}

	if pending.AppID != "" && currentApp != "" && pending.AppID != currentApp {
		c.log.Warn().Str("plan_app", pending.AppID).Str("current_app", currentApp).Msg("app mismatch")
		return nil, pending, &AppMismatchError{PlanApp: pending.AppID, CurrentApp: currentApp}
	}

	if pending.PlanJSON == "" {
		c.calls.Clear()
		return nil, pending, ErrNoPlan
	}

	p, err := plan.DecodePlan([]byte(pending.PlanJSON))
	c.calls.Clear()
	if err != nil {
		return nil, pending, err
	}
	return p, pending, nil
}
