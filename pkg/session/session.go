// Package session owns authentication truth for the portal: the current
// session, the authentication phase machine, and the only operations that
// may change either. Dashboards and feature panels read snapshots; nothing
// outside this package mutates the session.
package session

import (
	"time"

	"github.com/careview/portal/pkg/directory"
)

// Session is the authenticated identity currently active in the process.
type Session struct {
	// UserID is the stable unique identifier from the directory.
	UserID string `json:"user_id"`

	// Email is the login email.
	Email string `json:"email"`

	// DisplayName is shown in the dashboard header.
	DisplayName string `json:"display_name"`

	// AvatarURL is the profile image shown next to the display name.
	AvatarURL string `json:"avatar_url"`

	// Role is fixed at creation and never mutated.
	Role directory.Role `json:"role"`

	// IssuedAt is when this session was established.
	IssuedAt time.Time `json:"issued_at"`
}

// Phase is the authentication state machine's current state.
type Phase string

const (
	// PhaseInitializing means a remembered-session restore is unresolved.
	// The UI renders a loading indicator.
	PhaseInitializing Phase = "initializing"

	// PhaseUnauthenticated means no session exists.
	PhaseUnauthenticated Phase = "unauthenticated"

	// PhaseAuthenticating means a login attempt is in flight. The UI
	// disables the submit control.
	PhaseAuthenticating Phase = "authenticating"

	// PhaseAuthenticated means a session exists.
	PhaseAuthenticated Phase = "authenticated"

	// PhaseAuthFailed means the last login attempt was aborted (context
	// canceled or timed out). Treated like unauthenticated by the router.
	PhaseAuthFailed Phase = "auth_failed"
)

// Loading reports whether the UI should render a loading indicator.
func (p Phase) Loading() bool {
	return p == PhaseInitializing || p == PhaseAuthenticating
}

// State is the snapshot delivered to subscribers: the phase plus the
// session, nil when none exists.
type State struct {
	Phase   Phase    `json:"phase"`
	Session *Session `json:"session,omitempty"`
}
