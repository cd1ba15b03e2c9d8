package domain

import "strings"

// Role is the closed set of user types on the platform. Role-specific
// behaviour hangs off a static permission mapping rather than a type
// hierarchy, so adding a role is a table edit, not a new type.
type Role string

const (
	RoleTeacher Role = "TEACHER"
	RoleStudent Role = "STUDENT"
	RoleAdmin   Role = "ADMIN"
	RoleParent  Role = "PARENT"
	RoleSupport Role = "SUPPORT"
)

// rolePermissions maps each role to its permission set. Order within a set
// is not significant.
var rolePermissions = map[Role][]string{
	RoleTeacher: {"content:read", "content:write", "classes:manage", "students:view", "grades:write"},
	RoleStudent: {"content:read", "assignments:submit", "grades:view"},
	RoleAdmin:   {"users:manage", "users:unlock", "schools:manage", "content:read", "reports:view"},
	RoleParent:  {"students:view", "reports:view"},
	RoleSupport: {"users:view", "tickets:manage"},
}

// ParseRole normalizes and validates a role string.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	_, ok := rolePermissions[r]
	return r, ok
}

// Valid reports whether the role is one of the recognized roles.
func (r Role) Valid() bool {
	_, ok := rolePermissions[r]
	return ok
}

// Permissions returns a copy of the role's permission set.
func (r Role) Permissions() []string {
	perms := rolePermissions[r]
	out := make([]string, len(perms))
	copy(out, perms)
	return out
}

// HasPermission reports whether the role grants the named permission.
func (r Role) HasPermission(perm string) bool {
	for _, p := range rolePermissions[r] {
		if p == perm {
			return true
		}
	}
	return false
}
