package models

import "fmt"

// Role is an enumerated access level with a total order:
// guest < user < admin. Checks use AtLeast, never string comparison.
type Role int

const (
	RoleGuest Role = iota
	RoleUser
	RoleAdmin
)

func (r Role) String() string {
	switch r {
	case RoleGuest:
		return "guest"
	case RoleUser:
		return "user"
	case RoleAdmin:
		return "admin"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// AtLeast reports whether r grants at least the permissions of min.
func (r Role) AtLeast(min Role) bool {
	return r >= min
}

// ParseRole maps a stored/claim string back to a Role.
// Unknown values resolve to RoleGuest so a tampered-but-signed claim can
// never widen permissions.
func ParseRole(s string) Role {
	switch s {
	case "admin":
		return RoleAdmin
	case "user":
		return RoleUser
	default:
		return RoleGuest
	}
}
