package domain

import (
	"strconv"
	"time"
)

// LockoutThreshold is the number of consecutive failed logins that locks an
// account. Once reached, logins are rejected regardless of password
// correctness until an administrator unlocks the account.
const LockoutThreshold = 5

// AccountState is derived from the lifecycle flags and the failure counter,
// never stored.
type AccountState string

const (
	AccountActiveUnlocked AccountState = "ACTIVE_UNLOCKED"
	AccountLocked         AccountState = "LOCKED"
	AccountInactive       AccountState = "INACTIVE"
	AccountUnverified     AccountState = "UNVERIFIED"
)

// User is the credential-holding aggregate root. It owns the lockout state,
// login bookkeeping and audit trail; external code never sets lock state
// directly. Every mutation goes through a helper that appends exactly one
// audit entry and bumps Version by exactly 1, keeping the invariant
// Version == number of committed mutations since creation.
type User struct {
	ID           string
	Email        string // unique, lower-cased; the natural lookup key
	PasswordHash string // bcrypt; the raw password is never stored or logged
	FirstName    string
	LastName     string
	Phone        string // optional
	Role         Role
	SchoolID     string // optional school affiliation

	IsActive   bool // soft-enable/disable by an administrator
	IsVerified bool // email ownership confirmed

	FailedLoginAttempts int
	LastFailedLoginAt   *time.Time
	LastLoginAt         *time.Time

	// VerificationSecret seeds the one-time email verification codes.
	VerificationSecret string

	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time

	// ChangeLog holds the audit entries appended during this in-memory
	// lifetime; the store persists entries whose Version exceeds the last
	// committed version, in the same transaction as the field mutations
	// they describe.
	ChangeLog []AuditEntry
}

// NewUser constructs a fresh active, unverified user at version 1 with the
// creation recorded as the first audit entry.
func NewUser(id, email, passwordHash, firstName, lastName, phone string, role Role, schoolID, verificationSecret, actor string, now time.Time) User {
	u := User{
		ID:                 id,
		Email:              email,
		PasswordHash:       passwordHash,
		FirstName:          firstName,
		LastName:           lastName,
		Phone:              phone,
		Role:               role,
		SchoolID:           schoolID,
		IsActive:           true,
		IsVerified:         false,
		VerificationSecret: verificationSecret,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	u.record(now, actor, ActionUserCreated, []FieldChange{
		{Field: "email", From: "", To: email},
		{Field: "role", From: "", To: string(role)},
	})
	return u
}

// record appends one audit entry and bumps the version. All mutation
// helpers funnel through here.
func (u *User) record(now time.Time, actor, action string, changes []FieldChange) {
	u.Version++
	u.UpdatedAt = now
	u.ChangeLog = append(u.ChangeLog, AuditEntry{
		At:      now,
		Actor:   actor,
		Action:  action,
		Version: u.Version,
		Changes: changes,
	})
}

// Locked is a pure function of the failure counter and the policy
// threshold.
func (u *User) Locked() bool {
	return u.FailedLoginAttempts >= LockoutThreshold
}

// State derives the account state. Deactivation dominates, then the lock,
// then verification.
func (u *User) State() AccountState {
	switch {
	case !u.IsActive:
		return AccountInactive
	case u.Locked():
		return AccountLocked
	case !u.IsVerified:
		return AccountUnverified
	default:
		return AccountActiveUnlocked
	}
}

// CanAuthenticate reports whether the account is simultaneously active,
// verified and unlocked.
func (u *User) CanAuthenticate() bool {
	return u.State() == AccountActiveUnlocked
}

// RecordLoginFailure bumps the consecutive-failure counter. A locked
// account is left untouched so the counter never counts past the
// threshold; returns false in that case.
func (u *User) RecordLoginFailure(now time.Time, actor string) bool {
	if u.Locked() {
		return false
	}
	before := u.FailedLoginAttempts
	u.FailedLoginAttempts++
	t := now
	u.LastFailedLoginAt = &t
	u.record(now, actor, ActionLoginFailed, []FieldChange{
		{Field: "failed_login_attempts", From: strconv.Itoa(before), To: strconv.Itoa(u.FailedLoginAttempts)},
	})
	return true
}

// RecordLoginSuccess resets the failure counter and stamps the login time.
func (u *User) RecordLoginSuccess(now time.Time, actor string) {
	before := u.FailedLoginAttempts
	u.FailedLoginAttempts = 0
	t := now
	u.LastLoginAt = &t
	u.record(now, actor, ActionLoginSucceeded, []FieldChange{
		{Field: "failed_login_attempts", From: strconv.Itoa(before), To: "0"},
	})
}

// SetPasswordHash replaces the stored credential. The diff is redacted.
func (u *User) SetPasswordHash(now time.Time, actor, newHash string) {
	u.PasswordHash = newHash
	u.record(now, actor, ActionPasswordChanged, []FieldChange{
		{Field: "password_hash", From: Redacted, To: Redacted},
	})
}

// Unlock resets the failure counter on administrative action.
func (u *User) Unlock(now time.Time, actor string) {
	before := u.FailedLoginAttempts
	u.FailedLoginAttempts = 0
	u.record(now, actor, ActionUnlocked, []FieldChange{
		{Field: "failed_login_attempts", From: strconv.Itoa(before), To: "0"},
	})
}

// MarkVerified confirms email ownership.
func (u *User) MarkVerified(now time.Time, actor string) {
	u.IsVerified = true
	u.record(now, actor, ActionVerified, []FieldChange{
		{Field: "is_verified", From: "false", To: "true"},
	})
}

// Deactivate soft-disables the account.
func (u *User) Deactivate(now time.Time, actor string) {
	u.IsActive = false
	u.record(now, actor, ActionDeactivated, []FieldChange{
		{Field: "is_active", From: "true", To: "false"},
	})
}

// Activate re-enables the account.
func (u *User) Activate(now time.Time, actor string) {
	u.IsActive = true
	u.record(now, actor, ActionActivated, []FieldChange{
		{Field: "is_active", From: "false", To: "true"},
	})
}

// UpdateProfile edits the name and phone fields, recording only the fields
// that actually changed. A no-op edit appends nothing and keeps the version.
func (u *User) UpdateProfile(now time.Time, actor, firstName, lastName, phone string) bool {
	var changes []FieldChange
	if firstName != u.FirstName {
		changes = append(changes, FieldChange{Field: "first_name", From: u.FirstName, To: firstName})
		u.FirstName = firstName
	}
	if lastName != u.LastName {
		changes = append(changes, FieldChange{Field: "last_name", From: u.LastName, To: lastName})
		u.LastName = lastName
	}
	if phone != u.Phone {
		changes = append(changes, FieldChange{Field: "phone", From: u.Phone, To: phone})
		u.Phone = phone
	}
	if len(changes) == 0 {
		return false
	}
	u.record(now, actor, ActionProfileUpdated, changes)
	return true
}
