package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/careview/portal/pkg/directory"
)

const (
	// issuer is the iss claim stamped on every remembered-session token.
	issuer = "careview-portal"

	// defaultLifetime bounds how long a remembered session stays valid.
	defaultLifetime = 7 * 24 * time.Hour
)

// Identity is the payload carried by a remembered-session token.
type Identity struct {
	UserID string
	Email  string
	Role   directory.Role
}

// Codec issues and parses HS256-signed remembered-session tokens.
type Codec struct {
	signingKey []byte
	lifetime   time.Duration
	now        func() time.Time
}

// NewCodec creates a codec with the given signing key. A zero lifetime
// selects the default of seven days.
func NewCodec(signingKey []byte, lifetime time.Duration) *Codec {
	if lifetime == 0 {
		lifetime = defaultLifetime
	}
	return &Codec{
		signingKey: signingKey,
		lifetime:   lifetime,
		now:        time.Now,
	}
}

// Issue signs a token carrying the identity.
func (c *Codec) Issue(id Identity) (string, error) {
	now := c.now()
	claims := jwt.MapClaims{
		"iss":   issuer,
		"sub":   id.UserID,
		"email": id.Email,
		"role":  id.Role.String(),
		"iat":   now.Unix(),
		"exp":   now.Add(c.lifetime).Unix(),
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(c.signingKey)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Parse validates a token and extracts the identity it carries. Any
// failure (bad signature, expired, wrong issuer, unknown role, garbage
// input) is returned as an error; callers treat every error as "no
// remembered session".
func (c *Codec) Parse(tokenString string) (Identity, error) {
	tok, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.signingKey, nil
	}, jwt.WithTimeFunc(func() time.Time { return c.now() }))
	if err != nil {
		return Identity{}, fmt.Errorf("parsing token: %w", err)
	}
	if !tok.Valid {
		return Identity{}, fmt.Errorf("invalid token")
	}

	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, fmt.Errorf("invalid claims type")
	}

	iss, _ := claims["iss"].(string)
	if iss != issuer {
		return Identity{}, fmt.Errorf("invalid issuer: got %q, want %q", iss, issuer)
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return Identity{}, fmt.Errorf("missing subject claim")
	}

	roleStr, _ := claims["role"].(string)
	role, err := directory.ParseRole(roleStr)
	if err != nil {
		return Identity{}, fmt.Errorf("invalid role claim: %w", err)
	}

	email, _ := claims["email"].(string)

	return Identity{UserID: sub, Email: email, Role: role}, nil
}
