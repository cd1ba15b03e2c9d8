package jwtx

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrExpired reports a structurally valid token whose exp has passed.
	ErrExpired = errors.New("jwtx: token expired")

	// ErrInvalidToken reports any other verification failure: malformed
	// structure, bad signature, wrong kind, not yet valid.
	ErrInvalidToken = errors.New("jwtx: invalid token")
)

// Codec signs and verifies both token kinds. It is read-only after
// construction and safe for concurrent use.
type Codec struct {
	accessSecret  []byte
	refreshSecret []byte
	issuer        string

	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// NewCodec builds a Codec from the two signing secrets. Both secrets must be
// non-empty and distinct from each other.
func NewCodec(accessSecret, refreshSecret []byte, issuer string) (*Codec, error) {
	if len(accessSecret) == 0 || len(refreshSecret) == 0 {
		return nil, fmt.Errorf("jwtx: signing secrets must be non-empty")
	}
	if subtle.ConstantTimeCompare(accessSecret, refreshSecret) == 1 {
		return nil, fmt.Errorf("jwtx: access and refresh secrets must differ")
	}
	return &Codec{
		accessSecret:  accessSecret,
		refreshSecret: refreshSecret,
		issuer:        issuer,
		AccessTTL:     DefaultAccessTokenTTL,
		RefreshTTL:    DefaultRefreshTokenTTL,
	}, nil
}

// Ready reports whether both signing secrets are present. Used by the
// health probe.
func (c *Codec) Ready() bool {
	return c != nil && len(c.accessSecret) > 0 && len(c.refreshSecret) > 0
}

// SignAccess issues a short-lived access token for the identity.
func (c *Codec) SignAccess(id Identity, now time.Time) (string, error) {
	return c.sign(id, KindAccess, c.AccessTTL, c.accessSecret, now)
}

// SignRefresh issues a refresh token for the identity.
func (c *Codec) SignRefresh(id Identity, now time.Time) (string, error) {
	return c.sign(id, KindRefresh, c.RefreshTTL, c.refreshSecret, now)
}

func (c *Codec) sign(id Identity, kind string, ttl time.Duration, secret []byte, now time.Time) (string, error) {
	claims := newClaims(id, kind, c.issuer, ttl, now)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// VerifyAccess validates an access token's signature, expiry and kind.
func (c *Codec) VerifyAccess(token string) (Claims, error) {
	return c.verify(token, KindAccess, c.accessSecret)
}

// VerifyRefresh validates a refresh token's signature, expiry and kind.
func (c *Codec) VerifyRefresh(token string) (Claims, error) {
	return c.verify(token, KindRefresh, c.refreshSecret)
}

// verify is the single translation boundary between the JWT library's error
// values and this package's taxonomy; no library error escapes it.
func (c *Codec) verify(token, kind string, secret []byte) (Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims,
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
			}
			return secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(c.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrExpired
		}
		return Claims{}, ErrInvalidToken
	}
	if claims.Kind != kind || claims.Subject == "" {
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}
