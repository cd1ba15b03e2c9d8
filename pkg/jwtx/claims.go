// Package jwtx implements the signed token codec for the auth service:
// HS256 JWTs with two independent secrets, one for access tokens and one for
// refresh tokens, so compromise of one key never compromises the other.
package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Default token TTLs. Short-lived access tokens limit the blast radius of a
// leaked token; the refresh TTL bounds how long a session can stay alive
// without re-authentication.
const (
	DefaultAccessTokenTTL  = 15 * time.Minute
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// Token kinds embedded in the claims. A refresh token can never pass access
// verification even if the secrets were (incorrectly) configured equal.
const (
	KindAccess  = "access"
	KindRefresh = "refresh"
)

// Identity is the authorization-relevant snapshot embedded at issuance.
// Verifiers must re-derive current values from the persisted user record;
// the embedded copy exists for logging and stateless consumers only.
type Identity struct {
	Subject  string // user id
	Email    string
	Role     string
	SchoolID string // optional school affiliation
}

// Claims are the token claims carried by both token kinds.
type Claims struct {
	jwt.RegisteredClaims

	Email    string `json:"email,omitempty"`
	Role     string `json:"role,omitempty"`
	SchoolID string `json:"school_id,omitempty"`
	Kind     string `json:"kind"`
}

func newClaims(id Identity, kind, issuer string, ttl time.Duration, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   id.Subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		Email:    id.Email,
		Role:     id.Role,
		SchoolID: id.SchoolID,
		Kind:     kind,
	}
}

// NewJTI returns a URL-safe random identifier for the "jti" claim.
func NewJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}
