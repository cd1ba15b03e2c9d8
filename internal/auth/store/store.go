// Package store defines the persistence contract consumed by the auth
// service. Concrete drivers live under drivers/.
package store

import (
	"context"
	"errors"

	"github.com/brightclass/brightclass/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")

	// ErrVersionConflict reports an optimistic-concurrency failure: the row's
	// version no longer matches the version the aggregate was loaded at.
	ErrVersionConflict = errors.New("store: version conflict")
)

// Store is the root data access interface. It exposes sub-repositories to
// keep concerns tidy and testable.
type Store interface {
	Users() Users
	RefreshTokens() RefreshTokens

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction, rolling back when fn returns
	// an error and committing otherwise. This is the recommended way to run
	// multi-step operations that must be atomic (a user mutation plus its
	// audit rows, refresh-token rotation).
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds
// Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail is the authentication lookup. Callers pass the
	// normalized (lower-cased) email.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user together with its creation audit entry.
	// The email uniqueness constraint is enforced here atomically; a
	// duplicate returns ErrAlreadyExists.
	CreateUser(ctx context.Context, u domain.User) error

	// UpdateUser writes the aggregate guarded by an optimistic version
	// check: the row must still be at expectedVersion or ErrVersionConflict
	// is returned. Audit entries with Version > expectedVersion are
	// persisted in the same unit of work as the field mutations.
	UpdateUser(ctx context.Context, u domain.User, expectedVersion int64) error

	// CountUsers is used by the health probe.
	CountUsers(ctx context.Context) (int64, error)

	// ListAuditLog returns the full ordered change log for a user.
	ListAuditLog(ctx context.Context, userID string) ([]domain.AuditEntry, error)
}

type RefreshTokens interface {
	// CreateRefreshToken stores a new refresh token record.
	CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error

	// GetRefreshTokenByHash returns the record by token fingerprint.
	GetRefreshTokenByHash(ctx context.Context, hash string) (domain.RefreshToken, error)

	// RevokeRefreshToken flips revoked on, keyed by fingerprint.
	RevokeRefreshToken(ctx context.Context, hash string) error

	// RevokeAllUserRefreshTokens is bulk revocation, e.g. on password change.
	RevokeAllUserRefreshTokens(ctx context.Context, userID string) error

	// DeleteExpiredRefreshTokens is optional housekeeping.
	DeleteExpiredRefreshTokens(ctx context.Context) error
}
