package domain

import "time"

// FieldChange records a single field-level diff inside an audit entry.
// Sensitive fields (password hashes, verification secrets) are recorded
// with redacted values.
type FieldChange struct {
	Field string `json:"field"`
	From  string `json:"from"`
	To    string `json:"to"`
}

// Redacted is the placeholder value used in diffs for secret material.
const Redacted = "[redacted]"

// AuditEntry is one append-only change-log record. The entry's Version is
// the aggregate version the mutation produced, so entry N describes the
// transition from version N-1 to N.
type AuditEntry struct {
	At      time.Time
	Actor   string
	Action  string
	Version int64
	Changes []FieldChange
}

// Audit action names. Stable identifiers; logged and persisted.
const (
	ActionUserCreated     = "user.created"
	ActionLoginSucceeded  = "user.login_succeeded"
	ActionLoginFailed     = "user.login_failed"
	ActionPasswordChanged = "user.password_changed"
	ActionUnlocked        = "user.unlocked"
	ActionVerified        = "user.verified"
	ActionActivated       = "user.activated"
	ActionDeactivated     = "user.deactivated"
	ActionProfileUpdated  = "user.profile_updated"
)
