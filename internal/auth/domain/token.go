package domain

import "time"

// Session is what a successful login or refresh returns: the live user
// record plus a freshly issued token pair.
type Session struct {
	User         User          `json:"user"`
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	TokenType    string        `json:"token_type"` // always "Bearer"
	ExpiresIn    time.Duration `json:"expires_in"` // access token lifetime
}

// RefreshToken models the stored refresh token record. Only the SHA-256
// fingerprint of the token is persisted; rotation revokes the old record
// and creates a new one in a single transaction.
type RefreshToken struct {
	ID        string
	UserID    string
	TokenHash string // deterministic fingerprint (base64url SHA-256)
	ExpiresAt time.Time
	Revoked   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
