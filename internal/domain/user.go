package domain

import "time"

// Role is the privilege level attached to a user account.
type Role string

const (
	RoleCitizen Role = "citizen"
	RoleAdmin   Role = "admin"
)

// ValidRole reports whether r is one of the enumerated roles.
func ValidRole(r Role) bool {
	return r == RoleCitizen || r == RoleAdmin
}

type User struct {
	Id        UserId
	Email     Email
	Name      string
	PassHash  string // empty for OAuth-only accounts
	Role      Role
	GoogleId  string // empty until a Google identity is linked
	AvatarURL string
	CreatedAt time.Time
}

// IsAdmin reports whether the user carries the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
