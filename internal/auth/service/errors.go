package service

import (
	"context"

	"github.com/brightclass/brightclass/pkg/result"
	"github.com/brightclass/brightclass/pkg/slogx"
)

// Caller-facing failure messages. MsgAuthenticationFailed is deliberately
// shared by the not-found and wrong-password cases so responses cannot be
// used to enumerate accounts; the account-state messages are only disclosed
// after a real record has been located.
const (
	MsgAuthenticationFailed = "Authentication failed"
	MsgAccountLocked        = "Account is locked due to too many failed login attempts"
	MsgAccountDisabled      = "Account is disabled"
	MsgAccountUnverified    = "Account is not verified"

	MsgInvalidRefreshToken = "Invalid refresh token"
	MsgInvalidAccessToken  = "Invalid or expired access token"

	MsgEmailRegistered    = "Email is already registered"
	MsgInvalidInput       = "Invalid input"
	MsgRegistrationFailed = "Failed to create account"

	MsgCurrentPasswordWrong = "Current password is incorrect"
	MsgAlreadyVerified      = "Account is already verified"
	MsgInvalidVerifyCode    = "Invalid verification code"
	MsgUserNotFound         = "User not found"

	MsgInternalError = "Service temporarily unavailable"
)

// infraFailure logs the underlying error with full detail and surfaces a
// generic failure; internal storage and signing errors never reach callers
// verbatim.
func infraFailure[T any](ctx context.Context, msg string, err error) result.Result[T] {
	slogx.FromContext(ctx).Error(msg, "error", err)
	return result.Fail[T](result.KindInfrastructure, MsgInternalError)
}
