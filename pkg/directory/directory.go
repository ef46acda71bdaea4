// Package directory provides the static credential directory used to
// validate demo logins. All accounts share a single demo password; this is
// a mock convenience for the demo portal, not a credential security model,
// and must never be used with real identities.
package directory

import (
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Entry describes a known identity.
type Entry struct {
	// UserID is the stable unique identifier for the identity.
	UserID string

	// Email is the login email. Lookup is case-insensitive.
	Email string

	// DisplayName is the name shown in the dashboard header.
	DisplayName string

	// AvatarURL is the profile image shown next to the display name.
	AvatarURL string

	// Role selects which dashboard the identity may access.
	Role Role
}

// Directory is a static lookup of known identities keyed by email.
type Directory struct {
	entries      map[string]Entry
	passwordHash []byte
}

// defaultAvatarURL is the fallback profile image used by the dashboard
// header when an account has no avatar of its own.
const defaultAvatarURL = "https://images.pexels.com/photos/5452201/pexels-photo-5452201.jpeg?auto=compress&cs=tinysrgb&w=50&h=50&dpr=2"

// DemoPassword is the shared demo secret accepted for every directory
// entry. Exported so the login screen can pre-fill demo accounts.
const DemoPassword = "demo123"

// DemoEntries returns the three demo accounts the portal ships with.
func DemoEntries() []Entry {
	return []Entry{
		{
			UserID:      "usr-patient-001",
			Email:       "patient@healthcare.com",
			DisplayName: "John Smith",
			AvatarURL:   defaultAvatarURL,
			Role:        RolePatient,
		},
		{
			UserID:      "usr-doctor-001",
			Email:       "doctor@healthcare.com",
			DisplayName: "Dr. Sarah Wilson",
			AvatarURL:   defaultAvatarURL,
			Role:        RoleDoctor,
		},
		{
			UserID:      "usr-admin-001",
			Email:       "admin@healthcare.com",
			DisplayName: "Alex Morgan",
			AvatarURL:   defaultAvatarURL,
			Role:        RoleAdmin,
		},
	}
}

// New creates a directory from the given entries and shared password.
// The password is stored as a bcrypt hash so VerifyPassword is constant
// time with respect to the candidate value.
func New(entries []Entry, password string) (*Directory, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	m := make(map[string]Entry, len(entries))
	for _, e := range entries {
		m[normalizeEmail(e.Email)] = e
	}

	return &Directory{entries: m, passwordHash: hash}, nil
}

// NewDemo creates a directory preloaded with the demo accounts.
func NewDemo() (*Directory, error) {
	return New(DemoEntries(), DemoPassword)
}

// Lookup finds an entry by email. Matching is case-insensitive and
// ignores surrounding whitespace.
func (d *Directory) Lookup(email string) (Entry, bool) {
	e, ok := d.entries[normalizeEmail(email)]
	return e, ok
}

// VerifyPassword reports whether the candidate matches the shared demo
// password.
func (d *Directory) VerifyPassword(password string) bool {
	return bcrypt.CompareHashAndPassword(d.passwordHash, []byte(password)) == nil
}

// Entries returns all directory entries in unspecified order.
func (d *Directory) Entries() []Entry {
	out := make([]Entry, 0, len(d.entries))
	for _, e := range d.entries {
		out = append(out, e)
	}
	return out
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
