package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/brightclass/brightclass/internal/auth/domain"
	"github.com/brightclass/brightclass/internal/auth/store"
	"github.com/brightclass/brightclass/pkg/idx"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.ApplyMigrations())
	return s
}

func seedUser(t *testing.T, s *Store, email string) domain.User {
	t.Helper()
	u := domain.NewUser(
		idx.New().String(), email,
		"$2a$12$hashhashhashhashhashhashhashhashhashhashhashhashhashha",
		"Test", "User", "",
		domain.RoleStudent, "", "JBSWY3DPEHPK3PXP",
		"system:register", time.Now(),
	)
	require.NoError(t, s.WithTx(context.Background(), func(tx store.Tx) error {
		return tx.Users().CreateUser(context.Background(), u)
	}))
	return u
}

func TestCreateAndGetUser(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	u := seedUser(t, s, "bob@example.edu")

	byEmail, err := s.Users().GetUserByEmail(ctx, "bob@example.edu")
	require.NoError(t, err)
	require.Equal(t, u.ID, byEmail.ID)
	require.Equal(t, domain.RoleStudent, byEmail.Role)
	require.EqualValues(t, 1, byEmail.Version)
	require.True(t, byEmail.IsActive)
	require.False(t, byEmail.IsVerified)

	byID, err := s.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "bob@example.edu", byID.Email)

	_, err = s.Users().GetUserByEmail(ctx, "nobody@example.edu")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestCreateUserEnforcesEmailUniqueness(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	seedUser(t, s, "dup@example.edu")

	dup := domain.NewUser(
		idx.New().String(), "dup@example.edu",
		"$2a$12$hashhashhashhashhashhashhashhashhashhashhashhashhashha",
		"Other", "User", "",
		domain.RoleTeacher, "", "JBSWY3DPEHPK3PXP",
		"system:register", time.Now(),
	)
	err := s.WithTx(ctx, func(tx store.Tx) error {
		return tx.Users().CreateUser(ctx, dup)
	})
	require.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestUpdateUserOptimisticVersionCheck(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	created := seedUser(t, s, "carol@example.edu")

	u, err := s.Users().GetUserByID(ctx, created.ID)
	require.NoError(t, err)

	expected := u.Version
	u.MarkVerified(time.Now(), "system:verify")
	require.NoError(t, s.WithTx(ctx, func(tx store.Tx) error {
		return tx.Users().UpdateUser(ctx, u, expected)
	}))

	// A second writer holding the stale version must conflict.
	stale := created
	stale.MarkVerified(time.Now(), "system:verify")
	err = s.WithTx(ctx, func(tx store.Tx) error {
		return tx.Users().UpdateUser(ctx, stale, expected)
	})
	require.ErrorIs(t, err, store.ErrVersionConflict)

	// A missing user is reported as not found, not as a conflict.
	ghost := created
	ghost.ID = idx.New().String()
	err = s.WithTx(ctx, func(tx store.Tx) error {
		return tx.Users().UpdateUser(ctx, ghost, 1)
	})
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestAuditLogTracksEveryCommittedMutation(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	created := seedUser(t, s, "dave@example.edu")

	u, err := s.Users().GetUserByID(ctx, created.ID)
	require.NoError(t, err)

	expected := u.Version
	u.MarkVerified(time.Now(), "system:verify")
	u.RecordLoginFailure(time.Now(), "system:login")
	require.NoError(t, s.WithTx(ctx, func(tx store.Tx) error {
		return tx.Users().UpdateUser(ctx, u, expected)
	}))

	entries, err := s.Users().ListAuditLog(ctx, u.ID)
	require.NoError(t, err)

	// Creation plus two mutations: log length equals the committed version.
	require.Len(t, entries, 3)
	require.EqualValues(t, u.Version, len(entries))
	require.Equal(t, domain.ActionUserCreated, entries[0].Action)
	require.Equal(t, domain.ActionVerified, entries[1].Action)
	require.Equal(t, domain.ActionLoginFailed, entries[2].Action)
	for i, e := range entries {
		require.EqualValues(t, i+1, e.Version)
	}
}

func TestAuditAppendIsAtomicWithRowWrite(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	created := seedUser(t, s, "erin@example.edu")

	u, err := s.Users().GetUserByID(ctx, created.ID)
	require.NoError(t, err)

	// Force a rollback after the update: neither the version bump nor the
	// audit entry may survive.
	expected := u.Version
	u.MarkVerified(time.Now(), "system:verify")
	boom := s.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().UpdateUser(ctx, u, expected); err != nil {
			return err
		}
		return context.Canceled
	})
	require.ErrorIs(t, boom, context.Canceled)

	after, err := s.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.EqualValues(t, 1, after.Version)
	require.False(t, after.IsVerified)

	entries, err := s.Users().ListAuditLog(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestRefreshTokenLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	u := seedUser(t, s, "frank@example.edu")

	rt := domain.RefreshToken{
		ID:        idx.New().String(),
		UserID:    u.ID,
		TokenHash: "fingerprint-1",
		ExpiresAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, s.RefreshTokens().CreateRefreshToken(ctx, rt))

	got, err := s.RefreshTokens().GetRefreshTokenByHash(ctx, "fingerprint-1")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.UserID)
	require.False(t, got.Revoked)

	require.NoError(t, s.RefreshTokens().RevokeRefreshToken(ctx, "fingerprint-1"))
	got, err = s.RefreshTokens().GetRefreshTokenByHash(ctx, "fingerprint-1")
	require.NoError(t, err)
	require.True(t, got.Revoked)

	require.ErrorIs(t,
		s.RefreshTokens().RevokeRefreshToken(ctx, "missing"),
		store.ErrNotFound)

	// Duplicate fingerprints are rejected.
	err = s.RefreshTokens().CreateRefreshToken(ctx, domain.RefreshToken{
		ID:        idx.New().String(),
		UserID:    u.ID,
		TokenHash: "fingerprint-1",
		ExpiresAt: time.Now().Add(time.Hour),
	})
	require.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestRevokeAllAndDeleteExpired(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	u := seedUser(t, s, "grace@example.edu")

	for _, hash := range []string{"fp-a", "fp-b"} {
		require.NoError(t, s.RefreshTokens().CreateRefreshToken(ctx, domain.RefreshToken{
			ID:        idx.New().String(),
			UserID:    u.ID,
			TokenHash: hash,
			ExpiresAt: time.Now().Add(time.Hour),
		}))
	}
	require.NoError(t, s.RefreshTokens().CreateRefreshToken(ctx, domain.RefreshToken{
		ID:        idx.New().String(),
		UserID:    u.ID,
		TokenHash: "fp-expired",
		ExpiresAt: time.Now().Add(-time.Hour),
	}))

	require.NoError(t, s.RefreshTokens().RevokeAllUserRefreshTokens(ctx, u.ID))
	for _, hash := range []string{"fp-a", "fp-b"} {
		got, err := s.RefreshTokens().GetRefreshTokenByHash(ctx, hash)
		require.NoError(t, err)
		require.True(t, got.Revoked)
	}

	require.NoError(t, s.RefreshTokens().DeleteExpiredRefreshTokens(ctx))
	_, err := s.RefreshTokens().GetRefreshTokenByHash(ctx, "fp-expired")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestPing(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Ping(context.Background()))
}
