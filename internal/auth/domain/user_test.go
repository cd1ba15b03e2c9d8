package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestUser(t *testing.T) User {
	t.Helper()
	return NewUser(
		"01ARZ3NDEKTSV4RRFFQ69G5FAV",
		"alice@example.edu",
		"$2a$12$fakefakefakefakefakefakefakefakefakefakefakefakefakef",
		"Alice", "Nguyen", "",
		RoleTeacher, "school-1", "JBSWY3DPEHPK3PXP",
		"system:register",
		time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	)
}

func TestNewUserStartsAtVersionOne(t *testing.T) {
	t.Parallel()

	u := newTestUser(t)
	require.EqualValues(t, 1, u.Version)
	require.Len(t, u.ChangeLog, 1)
	require.Equal(t, ActionUserCreated, u.ChangeLog[0].Action)
	require.EqualValues(t, 1, u.ChangeLog[0].Version)
	require.True(t, u.IsActive)
	require.False(t, u.IsVerified)
	require.Equal(t, AccountUnverified, u.State())
}

func TestVersionTracksAuditLogLength(t *testing.T) {
	t.Parallel()

	u := newTestUser(t)
	now := time.Now()

	u.MarkVerified(now, "system:verify")
	u.RecordLoginFailure(now, "system:login")
	u.RecordLoginSuccess(now, "system:login")
	u.SetPasswordHash(now, u.ID, "$2a$12$otherotherotherotherotherotherotherotherotherotheroth")

	require.EqualValues(t, 5, u.Version)
	require.Len(t, u.ChangeLog, 5)
	for i, e := range u.ChangeLog {
		require.EqualValues(t, i+1, e.Version)
	}
}

func TestLockoutIsDerivedFromCounter(t *testing.T) {
	t.Parallel()

	u := newTestUser(t)
	u.MarkVerified(time.Now(), "system:verify")
	now := time.Now()

	for i := range LockoutThreshold {
		require.False(t, u.Locked(), "should not be locked after %d failures", i)
		require.True(t, u.RecordLoginFailure(now, "system:login"))
	}

	require.True(t, u.Locked())
	require.Equal(t, AccountLocked, u.State())
	require.False(t, u.CanAuthenticate())

	// The counter never counts past the threshold.
	require.False(t, u.RecordLoginFailure(now, "system:login"))
	require.Equal(t, LockoutThreshold, u.FailedLoginAttempts)
}

func TestUnlockResetsCounter(t *testing.T) {
	t.Parallel()

	u := newTestUser(t)
	u.MarkVerified(time.Now(), "system:verify")
	now := time.Now()
	for range LockoutThreshold {
		u.RecordLoginFailure(now, "system:login")
	}
	require.True(t, u.Locked())

	u.Unlock(now, "admin-9")
	require.False(t, u.Locked())
	require.Zero(t, u.FailedLoginAttempts)
	require.Equal(t, AccountActiveUnlocked, u.State())

	last := u.ChangeLog[len(u.ChangeLog)-1]
	require.Equal(t, ActionUnlocked, last.Action)
	require.Equal(t, "admin-9", last.Actor)
}

func TestLoginSuccessResetsCounterAndStampsTime(t *testing.T) {
	t.Parallel()

	u := newTestUser(t)
	u.MarkVerified(time.Now(), "system:verify")
	now := time.Now()

	u.RecordLoginFailure(now, "system:login")
	u.RecordLoginFailure(now, "system:login")
	require.Equal(t, 2, u.FailedLoginAttempts)

	u.RecordLoginSuccess(now, "system:login")
	require.Zero(t, u.FailedLoginAttempts)
	require.NotNil(t, u.LastLoginAt)
	require.Equal(t, now, *u.LastLoginAt)
}

func TestStatePrecedence(t *testing.T) {
	t.Parallel()

	u := newTestUser(t)
	u.MarkVerified(time.Now(), "system:verify")
	require.Equal(t, AccountActiveUnlocked, u.State())

	now := time.Now()
	for range LockoutThreshold {
		u.RecordLoginFailure(now, "system:login")
	}
	require.Equal(t, AccountLocked, u.State())

	// Deactivation dominates the lock.
	u.Deactivate(now, "admin-9")
	require.Equal(t, AccountInactive, u.State())

	u.Activate(now, "admin-9")
	require.Equal(t, AccountLocked, u.State())
}

func TestPasswordChangeRedactsDiff(t *testing.T) {
	t.Parallel()

	u := newTestUser(t)
	u.SetPasswordHash(time.Now(), u.ID, "$2a$12$newnewnewnewnewnewnewnewnewnewnewnewnewnewnewnewnewne")

	last := u.ChangeLog[len(u.ChangeLog)-1]
	require.Equal(t, ActionPasswordChanged, last.Action)
	require.Len(t, last.Changes, 1)
	require.Equal(t, Redacted, last.Changes[0].From)
	require.Equal(t, Redacted, last.Changes[0].To)
}

func TestUpdateProfileRecordsOnlyChangedFields(t *testing.T) {
	t.Parallel()

	u := newTestUser(t)
	before := u.Version

	require.False(t, u.UpdateProfile(time.Now(), u.ID, u.FirstName, u.LastName, u.Phone))
	require.Equal(t, before, u.Version)

	require.True(t, u.UpdateProfile(time.Now(), u.ID, "Alicia", u.LastName, "+61400000000"))
	require.Equal(t, before+1, u.Version)

	last := u.ChangeLog[len(u.ChangeLog)-1]
	require.Len(t, last.Changes, 2)
}

func TestRoles(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"TEACHER", "student", " Admin ", "PARENT", "SUPPORT"} {
		r, ok := ParseRole(s)
		require.True(t, ok, s)
		require.True(t, r.Valid())
		require.NotEmpty(t, r.Permissions())
	}

	_, ok := ParseRole("PRINCIPAL")
	require.False(t, ok)

	require.True(t, RoleAdmin.HasPermission("users:unlock"))
	require.False(t, RoleStudent.HasPermission("users:unlock"))

	// Permissions returns a copy, not the backing slice.
	perms := RoleTeacher.Permissions()
	perms[0] = "tampered"
	require.NotEqual(t, "tampered", RoleTeacher.Permissions()[0])
}
