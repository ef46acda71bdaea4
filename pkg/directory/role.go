package directory

import (
	"fmt"
	"strings"
)

// Role identifies which dashboard an identity may access.
type Role string

const (
	// RolePatient is the patient-facing dashboard role.
	RolePatient Role = "patient"

	// RoleDoctor is the clinician dashboard role.
	RoleDoctor Role = "doctor"

	// RoleAdmin is the system administration dashboard role.
	RoleAdmin Role = "admin"
)

// ParseRole converts a string into a Role.
// It returns an error for anything outside the three known roles.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RolePatient:
		return RolePatient, nil
	case RoleDoctor:
		return RoleDoctor, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// Valid reports whether the role is one of the three known variants.
func (r Role) Valid() bool {
	switch r {
	case RolePatient, RoleDoctor, RoleAdmin:
		return true
	default:
		return false
	}
}

// String returns the role as a lowercase string.
func (r Role) String() string {
	return string(r)
}
