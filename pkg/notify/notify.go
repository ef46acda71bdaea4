// Package notify provides the portal's notification bus: an ordered,
// capacity-bounded queue of ephemeral user-visible events with optional
// auto-expiry. Feature panels produce notifications; the dashboard badge
// and toast list consume read-only snapshots.
package notify

import (
	"time"
)

// Kind categorizes a notification for display.
type Kind string

const (
	// KindSuccess is a completed-action notification.
	KindSuccess Kind = "success"

	// KindError is a failed-action notification.
	KindError Kind = "error"

	// KindWarning is a needs-attention notification.
	KindWarning Kind = "warning"

	// KindInfo is a neutral informational notification.
	KindInfo Kind = "info"
)

// Valid reports whether the kind is one of the four known variants.
func (k Kind) Valid() bool {
	switch k {
	case KindSuccess, KindError, KindWarning, KindInfo:
		return true
	default:
		return false
	}
}

// Notification is an ephemeral event surfaced to the user.
type Notification struct {
	// ID is unique and monotonically increasing for the process lifetime.
	ID uint64 `json:"id"`

	// Kind selects the display treatment.
	Kind Kind `json:"kind"`

	// Title is the short heading shown in the toast.
	Title string `json:"title"`

	// Message is the body text.
	Message string `json:"message"`

	// CreatedAt is when the notification was added.
	CreatedAt time.Time `json:"created_at"`

	// ExpiresAfter is how long the notification lives before it removes
	// itself. Zero means it persists until manually dismissed.
	ExpiresAfter time.Duration `json:"expires_after,omitempty"`
}

// Input describes a notification to add. ID and CreatedAt are assigned by
// the bus.
type Input struct {
	Kind         Kind          `json:"kind"`
	Title        string        `json:"title"`
	Message      string        `json:"message"`
	ExpiresAfter time.Duration `json:"expires_after,omitempty"`
}
