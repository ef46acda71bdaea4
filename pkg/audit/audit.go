// Package audit provides an audit trail of authentication activity:
// logins, logouts, and remembered-session restores.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Action categorizes audit events.
type Action string

const (
	// ActionLogin is a credential login attempt.
	ActionLogin Action = "login"

	// ActionLogout is an explicit logout.
	ActionLogout Action = "logout"

	// ActionRestore is a remembered-session restore at startup.
	ActionRestore Action = "restore"
)

// Event records a single authentication action.
type Event struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Action    Action    `json:"action"`
	Email     string    `json:"email,omitempty"`
	UserID    string    `json:"user_id,omitempty"`
	Role      string    `json:"role,omitempty"`
	Success   bool      `json:"success"`
	Detail    string    `json:"detail,omitempty"`
}

// Logger records authentication events.
type Logger interface {
	// Log records an audit event. Failures are the logger's problem;
	// authentication never blocks on the audit trail.
	Log(ctx context.Context, event Event)
}

// NewEvent creates an event for the given action.
func NewEvent(action Action) Event {
	return Event{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		Action:    action,
	}
}

// WithSubject adds identity information to the event.
func (e Event) WithSubject(userID, email, role string) Event {
	e.UserID = userID
	e.Email = email
	e.Role = role
	return e
}

// WithOutcome adds the result to the event.
func (e Event) WithOutcome(success bool, detail string) Event {
	e.Success = success
	e.Detail = detail
	return e
}
