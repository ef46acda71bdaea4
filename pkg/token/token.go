// Package token provides the remembered-session abstraction: an opaque
// signed token that lets the portal restore an identity after a restart,
// and pluggable stores that persist the token between runs.
package token

import (
	"context"
)

// Store persists a single remembered-session token. Implementations must
// treat a missing token as a normal condition, not an error.
type Store interface {
	// Get returns the remembered token, or "" when none is stored.
	Get(ctx context.Context) (string, error)

	// Set replaces the remembered token.
	Set(ctx context.Context, token string) error

	// Clear forgets the remembered token. Clearing an empty store is a
	// no-op.
	Clear(ctx context.Context) error
}
