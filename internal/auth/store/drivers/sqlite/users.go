package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/brightclass/brightclass/internal/auth/domain"
	"github.com/brightclass/brightclass/internal/auth/store"
	"github.com/brightclass/brightclass/pkg/idx"
)

type usersRepo struct {
	db dbtx
}

const userColumns = `id, email, password_hash, first_name, last_name, phone, role, school_id,
	is_active, is_verified, failed_login_attempts, last_failed_login_at, last_login_at,
	verification_secret, version, created_at, updated_at`

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	return scanUser(row)
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID,
		u.Email,
		u.PasswordHash,
		u.FirstName,
		u.LastName,
		nullIfEmpty(u.Phone),
		string(u.Role),
		nullIfEmpty(u.SchoolID),
		boolToInt(u.IsActive),
		boolToInt(u.IsVerified),
		u.FailedLoginAttempts,
		formatOptionalTime(u.LastFailedLoginAt),
		formatOptionalTime(u.LastLoginAt),
		u.VerificationSecret,
		u.Version,
		formatTime(u.CreatedAt),
		formatTime(u.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists
		}
		return fmt.Errorf("create user: %w", err)
	}

	return r.insertAuditEntries(ctx, u.ID, u.ChangeLog, 0)
}

func (r *usersRepo) UpdateUser(ctx context.Context, u domain.User, expectedVersion int64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET
			email = ?, password_hash = ?, first_name = ?, last_name = ?, phone = ?,
			role = ?, school_id = ?, is_active = ?, is_verified = ?,
			failed_login_attempts = ?, last_failed_login_at = ?, last_login_at = ?,
			verification_secret = ?, version = ?, updated_at = ?
		WHERE id = ? AND version = ?`,
		u.Email,
		u.PasswordHash,
		u.FirstName,
		u.LastName,
		nullIfEmpty(u.Phone),
		string(u.Role),
		nullIfEmpty(u.SchoolID),
		boolToInt(u.IsActive),
		boolToInt(u.IsVerified),
		u.FailedLoginAttempts,
		formatOptionalTime(u.LastFailedLoginAt),
		formatOptionalTime(u.LastLoginAt),
		u.VerificationSecret,
		u.Version,
		formatTime(u.UpdatedAt),
		u.ID,
		expectedVersion,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists
		}
		return fmt.Errorf("update user: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if affected == 0 {
		// Distinguish a missing row from a stale version.
		var n int
		if err := r.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM users WHERE id = ?`, u.ID).Scan(&n); err != nil {
			return fmt.Errorf("update user: %w", err)
		}
		if n == 0 {
			return store.ErrNotFound
		}
		return store.ErrVersionConflict
	}

	return r.insertAuditEntries(ctx, u.ID, u.ChangeLog, expectedVersion)
}

// insertAuditEntries persists the change-log entries newer than the last
// committed version. Runs on the same dbtx as the row write, so inside a
// transaction the audit append and the version bump are one atomic unit.
func (r *usersRepo) insertAuditEntries(ctx context.Context, userID string, entries []domain.AuditEntry, sinceVersion int64) error {
	for _, e := range entries {
		if e.Version <= sinceVersion {
			continue
		}
		changes, err := json.Marshal(e.Changes)
		if err != nil {
			return fmt.Errorf("encode audit changes: %w", err)
		}
		_, err = r.db.ExecContext(ctx, `
			INSERT INTO user_audit_log (id, user_id, version, actor, action, changes, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			idx.New().String(), userID, e.Version, e.Actor, e.Action, string(changes), formatTime(e.At),
		)
		if err != nil {
			return fmt.Errorf("append audit entry: %w", err)
		}
	}
	return nil
}

func (r *usersRepo) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

func (r *usersRepo) ListAuditLog(ctx context.Context, userID string) ([]domain.AuditEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT version, actor, action, changes, created_at
		FROM user_audit_log
		WHERE user_id = ?
		ORDER BY version ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list audit log: %w", err)
	}
	defer rows.Close()

	var entries []domain.AuditEntry
	for rows.Next() {
		var (
			e         domain.AuditEntry
			changes   string
			createdAt string
		)
		if err := rows.Scan(&e.Version, &e.Actor, &e.Action, &changes, &createdAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		if err := json.Unmarshal([]byte(changes), &e.Changes); err != nil {
			return nil, fmt.Errorf("decode audit changes: %w", err)
		}
		e.At = parseTime(createdAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func scanUser(row *sql.Row) (domain.User, error) {
	var (
		u                 domain.User
		phone, schoolID   sql.NullString
		lastFailed        sql.NullString
		lastLogin         sql.NullString
		isActive          int
		isVerified        int
		role              string
		created, updated  string
	)
	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &phone, &role, &schoolID,
		&isActive, &isVerified, &u.FailedLoginAttempts, &lastFailed, &lastLogin,
		&u.VerificationSecret, &u.Version, &created, &updated,
	)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}

	u.Phone = phone.String
	u.SchoolID = schoolID.String
	u.Role = domain.Role(role)
	u.IsActive = isActive != 0
	u.IsVerified = isVerified != 0
	u.LastFailedLoginAt = parseOptionalTime(lastFailed)
	u.LastLoginAt = parseOptionalTime(lastLogin)
	u.CreatedAt = parseTime(created)
	u.UpdatedAt = parseTime(updated)
	return u, nil
}

func nullIfEmpty(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
