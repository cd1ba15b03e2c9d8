package service

import (
	"context"
	"errors"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"github.com/brightclass/brightclass/internal/auth/domain"
	"github.com/brightclass/brightclass/internal/auth/store"
	"github.com/brightclass/brightclass/pkg/result"
)

// Verification codes are time-based one-time passwords derived from the
// per-user secret minted at registration. A code stays valid for its
// ten-minute window plus one adjacent window of clock skew.
var verificationOpts = totp.ValidateOpts{
	Period:    600,
	Skew:      1,
	Digits:    otp.DigitsSix,
	Algorithm: otp.AlgorithmSHA1,
}

// RequestEmailVerification produces the current verification code for the
// account. Delivery is the caller's concern; in production the code goes
// out by email and is never returned over the API. Unknown emails succeed
// with an empty code so the endpoint cannot be used to probe for accounts.
func (s *AuthService) RequestEmailVerification(ctx context.Context, email string) result.Result[string] {
	email = normalizeEmail(email)

	u, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return result.Ok("")
		}
		return infraFailure[string](ctx, "request verification: user lookup failed", err)
	}
	if u.IsVerified {
		return result.Fail[string](result.KindValidation, MsgAlreadyVerified)
	}

	code, err := totp.GenerateCodeCustom(u.VerificationSecret, time.Now(), verificationOpts)
	if err != nil {
		return infraFailure[string](ctx, "request verification: code generation failed", err)
	}
	return result.Ok(code)
}

// ConfirmEmailVerification checks the presented code and, when it matches,
// moves the account out of the UNVERIFIED state. Idempotent confirmation is
// rejected so a replayed code is visible as an error.
func (s *AuthService) ConfirmEmailVerification(ctx context.Context, email, code string) result.Result[bool] {
	email = normalizeEmail(email)

	u, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return result.Fail[bool](result.KindValidation, MsgInvalidVerifyCode)
		}
		return infraFailure[bool](ctx, "confirm verification: user lookup failed", err)
	}
	if u.IsVerified {
		return result.Fail[bool](result.KindValidation, MsgAlreadyVerified)
	}

	valid, err := totp.ValidateCustom(code, u.VerificationSecret, time.Now(), verificationOpts)
	if err != nil || !valid {
		return result.Fail[bool](result.KindValidation, MsgInvalidVerifyCode)
	}

	_, err = s.commitUserMutation(ctx, u.ID, func(u *domain.User) {
		u.MarkVerified(time.Now(), actorVerify)
	})
	if err != nil {
		return infraFailure[bool](ctx, "confirm verification: failed to persist", err)
	}
	return result.Ok(true)
}
