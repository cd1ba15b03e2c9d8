package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/pquerna/otp/totp"

	"github.com/brightclass/brightclass/internal/auth/domain"
	"github.com/brightclass/brightclass/internal/auth/store"
	"github.com/brightclass/brightclass/pkg/cryptox"
	"github.com/brightclass/brightclass/pkg/idx"
	"github.com/brightclass/brightclass/pkg/jwtx"
	"github.com/brightclass/brightclass/pkg/result"
)

// dummyHash is a well-formed bcrypt digest that matches no password. The
// login path compares against it when no account exists so the not-found
// and wrong-password branches cost the same.
const dummyHash = "$2a$12$abcdefghijklmnopqrstuvabcdefghijklmnopqrstuvwxyzABCDE"

// mutationRetryLimit bounds optimistic-concurrency retries when two writers
// race on the same user row.
const mutationRetryLimit = 3

const (
	actorLogin    = "system:login"
	actorRegister = "system:register"
	actorVerify   = "system:verify"
)

// AuthService implements credential verification and the session lifecycle
// on top of a Store and a token Codec.
type AuthService struct {
	Store  store.Store
	Codec  *jwtx.Codec
	Issuer string
}

func NewAuthService(st store.Store, codec *jwtx.Codec, issuer string) *AuthService {
	return &AuthService{Store: st, Codec: codec, Issuer: issuer}
}

// RegisterParams carries the raw registration input. Email is normalized
// and the rest is validated before anything is persisted.
type RegisterParams struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     string
	Role      string
	SchoolID  string
}

// Login verifies the credentials and, on success, resets the failure
// counter and issues a fresh access/refresh token pair. Unknown emails and
// wrong passwords produce the same opaque failure.
func (s *AuthService) Login(ctx context.Context, email, password string) result.Result[domain.Session] {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return result.Fail[domain.Session](result.KindAuthentication, MsgAuthenticationFailed)
	}

	u, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			_ = cryptox.VerifyPassword(password, dummyHash)
			return result.Fail[domain.Session](result.KindAuthentication, MsgAuthenticationFailed)
		}
		return infraFailure[domain.Session](ctx, "login: user lookup failed", err)
	}

	if msg, ok := authEligibility(u); !ok {
		return result.Fail[domain.Session](result.KindAuthentication, msg)
	}

	if err := cryptox.VerifyPassword(password, u.PasswordHash); err != nil {
		locked, rerr := s.recordLoginFailure(ctx, u.ID)
		if rerr != nil {
			return infraFailure[domain.Session](ctx, "login: failed to record failed attempt", rerr)
		}
		if locked {
			return result.Fail[domain.Session](result.KindAuthentication, MsgAccountLocked)
		}
		return result.Fail[domain.Session](result.KindAuthentication, MsgAuthenticationFailed)
	}

	u, err = s.commitUserMutation(ctx, u.ID, func(u *domain.User) {
		u.RecordLoginSuccess(time.Now(), actorLogin)
	})
	if err != nil {
		return infraFailure[domain.Session](ctx, "login: failed to record successful attempt", err)
	}

	sess, err := s.issueSession(ctx, u)
	if err != nil {
		return infraFailure[domain.Session](ctx, "login: failed to issue session", err)
	}
	return result.Ok(sess)
}

// Register validates the input, hashes the password and creates the
// account in the UNVERIFIED state. The email uniqueness constraint in the
// store is authoritative; the pre-check only gives a friendlier fast path.
func (s *AuthService) Register(ctx context.Context, p RegisterParams) result.Result[domain.User] {
	details := map[string]string{}

	email := normalizeEmail(p.Email)
	if !emailPattern.MatchString(email) {
		details["email"] = "must be a valid email address"
	}
	if strings.TrimSpace(p.FirstName) == "" {
		details["firstName"] = "is required"
	}
	if strings.TrimSpace(p.LastName) == "" {
		details["lastName"] = "is required"
	}
	role, ok := domain.ParseRole(p.Role)
	if !ok {
		details["role"] = "must be one of TEACHER, STUDENT, ADMIN, PARENT, SUPPORT"
	}
	if msg, ok := validatePassword(p.Password); !ok {
		details["password"] = msg
	}
	if len(details) > 0 {
		return result.FailDetails[domain.User](result.KindValidation, MsgInvalidInput, details)
	}

	if _, err := s.Store.Users().GetUserByEmail(ctx, email); err == nil {
		return result.Fail[domain.User](result.KindConflict, MsgEmailRegistered)
	} else if !errors.Is(err, store.ErrNotFound) {
		return infraFailure[domain.User](ctx, "register: duplicate check failed", err)
	}

	hash, err := cryptox.HashPassword(p.Password)
	if err != nil {
		return infraFailure[domain.User](ctx, "register: password hashing failed", err)
	}

	key, err := totp.Generate(totp.GenerateOpts{Issuer: s.Issuer, AccountName: email})
	if err != nil {
		return infraFailure[domain.User](ctx, "register: verification secret generation failed", err)
	}

	u := domain.NewUser(
		idx.New().String(),
		email,
		hash,
		strings.TrimSpace(p.FirstName),
		strings.TrimSpace(p.LastName),
		strings.TrimSpace(p.Phone),
		role,
		p.SchoolID,
		key.Secret(),
		actorRegister,
		time.Now(),
	)

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		return tx.Users().CreateUser(ctx, u)
	})
	if errors.Is(err, store.ErrAlreadyExists) {
		return result.Fail[domain.User](result.KindConflict, MsgEmailRegistered)
	}
	if err != nil {
		return infraFailure[domain.User](ctx, "register: failed to persist user", err)
	}
	return result.Ok(u)
}

// Refresh rotates a refresh token: the presented token is verified against
// its signature, its server-side record and the current account state, then
// revoked and replaced in a single transaction. Old tokens cannot be
// replayed after rotation.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) result.Result[domain.Session] {
	claims, err := s.Codec.VerifyRefresh(refreshToken)
	if err != nil {
		return result.Fail[domain.Session](result.KindAuthentication, MsgInvalidRefreshToken)
	}

	fingerprint := cryptox.FingerprintToken(refreshToken)
	rec, err := s.Store.RefreshTokens().GetRefreshTokenByHash(ctx, fingerprint)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return result.Fail[domain.Session](result.KindAuthentication, MsgInvalidRefreshToken)
		}
		return infraFailure[domain.Session](ctx, "refresh: token lookup failed", err)
	}
	now := time.Now()
	if rec.Revoked || now.After(rec.ExpiresAt) {
		return result.Fail[domain.Session](result.KindAuthentication, MsgInvalidRefreshToken)
	}

	u, err := s.Store.Users().GetUserByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return result.Fail[domain.Session](result.KindAuthentication, MsgInvalidRefreshToken)
		}
		return infraFailure[domain.Session](ctx, "refresh: user lookup failed", err)
	}
	if msg, ok := authEligibility(u); !ok {
		return result.Fail[domain.Session](result.KindAuthentication, msg)
	}

	identity := identityOf(u)
	access, err := s.Codec.SignAccess(identity, now)
	if err != nil {
		return infraFailure[domain.Session](ctx, "refresh: access signing failed", err)
	}
	next, err := s.Codec.SignRefresh(identity, now)
	if err != nil {
		return infraFailure[domain.Session](ctx, "refresh: refresh signing failed", err)
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.RefreshTokens().RevokeRefreshToken(ctx, fingerprint); err != nil {
			return err
		}
		return tx.RefreshTokens().CreateRefreshToken(ctx, domain.RefreshToken{
			ID:        idx.New().String(),
			UserID:    u.ID,
			TokenHash: cryptox.FingerprintToken(next),
			ExpiresAt: now.Add(s.Codec.RefreshTTL),
		})
	})
	if err != nil {
		return infraFailure[domain.Session](ctx, "refresh: rotation failed", err)
	}

	return result.Ok(domain.Session{
		User:         u,
		AccessToken:  access,
		RefreshToken: next,
		TokenType:    "Bearer",
		ExpiresIn:    s.Codec.AccessTTL,
	})
}

// VerifyToken checks an access token's signature and expiry, then confirms
// the subject still exists and is active. Deactivation takes effect on the
// next verification even though access tokens carry no server-side state.
func (s *AuthService) VerifyToken(ctx context.Context, accessToken string) result.Result[domain.User] {
	claims, err := s.Codec.VerifyAccess(accessToken)
	if err != nil {
		return result.Fail[domain.User](result.KindAuthentication, MsgInvalidAccessToken)
	}

	u, err := s.Store.Users().GetUserByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return result.Fail[domain.User](result.KindAuthentication, MsgInvalidAccessToken)
		}
		return infraFailure[domain.User](ctx, "verify: user lookup failed", err)
	}
	if !u.IsActive {
		return result.Fail[domain.User](result.KindAuthentication, MsgAccountDisabled)
	}
	return result.Ok(u)
}

// ChangePassword re-authenticates with the current password, applies the
// password policy and swaps the hash. All refresh tokens are revoked in the
// same transaction so stolen sessions die with the old password.
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) result.Result[bool] {
	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return result.Fail[bool](result.KindAuthentication, MsgAuthenticationFailed)
		}
		return infraFailure[bool](ctx, "change password: user lookup failed", err)
	}

	if err := cryptox.VerifyPassword(currentPassword, u.PasswordHash); err != nil {
		return result.Fail[bool](result.KindAuthentication, MsgCurrentPasswordWrong)
	}
	if msg, ok := validatePassword(newPassword); !ok {
		return result.FailDetails[bool](result.KindValidation, MsgInvalidInput, map[string]string{
			"newPassword": msg,
		})
	}

	hash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		return infraFailure[bool](ctx, "change password: hashing failed", err)
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		cur, err := tx.Users().GetUserByID(ctx, userID)
		if err != nil {
			return err
		}
		expected := cur.Version
		cur.SetPasswordHash(time.Now(), userID, hash)
		if err := tx.Users().UpdateUser(ctx, cur, expected); err != nil {
			return err
		}
		return tx.RefreshTokens().RevokeAllUserRefreshTokens(ctx, userID)
	})
	if err != nil {
		return infraFailure[bool](ctx, "change password: failed to persist", err)
	}
	return result.Ok(true)
}

// UnlockAccount clears the failure counter on behalf of an administrator.
// Idempotent: unlocking an unlocked account succeeds without a new audit
// entry.
func (s *AuthService) UnlockAccount(ctx context.Context, userID, actor string) result.Result[bool] {
	_, err := s.commitUserMutation(ctx, userID, func(u *domain.User) {
		u.Unlock(time.Now(), actor)
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return result.Fail[bool](result.KindValidation, MsgUserNotFound)
		}
		return infraFailure[bool](ctx, "unlock: failed to persist", err)
	}
	return result.Ok(true)
}

// SetAccountActive soft-enables or disables an account. Disabling takes
// precedence over every other account state and invalidates refresh token
// use immediately.
func (s *AuthService) SetAccountActive(ctx context.Context, userID string, active bool, actor string) result.Result[bool] {
	_, err := s.commitUserMutation(ctx, userID, func(u *domain.User) {
		if active {
			u.Activate(time.Now(), actor)
		} else {
			u.Deactivate(time.Now(), actor)
		}
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return result.Fail[bool](result.KindValidation, MsgUserNotFound)
		}
		return infraFailure[bool](ctx, "set active: failed to persist", err)
	}
	return result.Ok(true)
}

// authEligibility reports whether the account may authenticate and, if
// not, which state message to disclose. Precedence: disabled, then locked,
// then unverified.
func authEligibility(u domain.User) (string, bool) {
	switch {
	case !u.IsActive:
		return MsgAccountDisabled, false
	case u.Locked():
		return MsgAccountLocked, false
	case !u.IsVerified:
		return MsgAccountUnverified, false
	}
	return "", true
}

// recordLoginFailure bumps the failure counter and reports whether the
// account is now locked. Safe under concurrent wrong-password attempts:
// the mutation re-reads inside the transaction and never counts past the
// lockout threshold.
func (s *AuthService) recordLoginFailure(ctx context.Context, userID string) (bool, error) {
	u, err := s.commitUserMutation(ctx, userID, func(u *domain.User) {
		u.RecordLoginFailure(time.Now(), actorLogin)
	})
	if err != nil {
		return false, err
	}
	return u.Locked(), nil
}

// commitUserMutation loads the user inside a transaction, applies the
// mutation and persists it with an optimistic version check. Mutations
// that change nothing skip the write. Version conflicts retry a bounded
// number of times against the freshly loaded row.
func (s *AuthService) commitUserMutation(ctx context.Context, userID string, mutate func(*domain.User)) (domain.User, error) {
	var out domain.User
	for attempt := 0; ; attempt++ {
		err := s.Store.WithTx(ctx, func(tx store.Tx) error {
			u, err := tx.Users().GetUserByID(ctx, userID)
			if err != nil {
				return err
			}
			expected := u.Version
			mutate(&u)
			out = u
			if u.Version == expected {
				return nil
			}
			return tx.Users().UpdateUser(ctx, u, expected)
		})
		if errors.Is(err, store.ErrVersionConflict) && attempt < mutationRetryLimit {
			continue
		}
		return out, err
	}
}

func (s *AuthService) issueSession(ctx context.Context, u domain.User) (domain.Session, error) {
	now := time.Now()
	identity := identityOf(u)

	access, err := s.Codec.SignAccess(identity, now)
	if err != nil {
		return domain.Session{}, err
	}
	refresh, err := s.Codec.SignRefresh(identity, now)
	if err != nil {
		return domain.Session{}, err
	}

	err = s.Store.RefreshTokens().CreateRefreshToken(ctx, domain.RefreshToken{
		ID:        idx.New().String(),
		UserID:    u.ID,
		TokenHash: cryptox.FingerprintToken(refresh),
		ExpiresAt: now.Add(s.Codec.RefreshTTL),
	})
	if err != nil {
		return domain.Session{}, err
	}

	return domain.Session{
		User:         u,
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    s.Codec.AccessTTL,
	}, nil
}

func identityOf(u domain.User) jwtx.Identity {
	return jwtx.Identity{
		Subject:  u.ID,
		Email:    u.Email,
		Role:     string(u.Role),
		SchoolID: u.SchoolID,
	}
}
