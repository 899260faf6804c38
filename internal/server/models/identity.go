package models

// Role is the caller's organization role, supplied by the identity
// provider. It gates approve/reject only.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// ParseRole validates a role string.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleOwner, RoleAdmin, RoleMember:
		return Role(s), true
	}
	return "", false
}

// Identity carries the authenticated caller through every core operation.
// There is no ambient session state.
type Identity struct {
	UserID string
	Role   Role
}

// CanModerate reports whether the identity may approve or reject
// submitted timesheets.
func (i Identity) CanModerate() bool {
	return i.Role == RoleOwner || i.Role == RoleAdmin
}
