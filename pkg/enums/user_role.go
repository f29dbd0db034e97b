package enums

import "fmt"

// UserRole is the platform role carried on a profile.
type UserRole string

const (
	UserRoleSeller UserRole = "SELLER"
	UserRoleAdmin  UserRole = "ADMIN"
	UserRoleWorker UserRole = "WORKER"
)

var validUserRoles = []UserRole{
	UserRoleSeller,
	UserRoleAdmin,
	UserRoleWorker,
}

// String implements fmt.Stringer.
func (u UserRole) String() string {
	return string(u)
}

// IsValid reports whether the value is a known UserRole.
func (u UserRole) IsValid() bool {
	for _, candidate := range validUserRoles {
		if candidate == u {
			return true
		}
	}
	return false
}

// IsStaff reports whether the role may run admin-side commitment transitions.
func (u UserRole) IsStaff() bool {
	return u == UserRoleAdmin || u == UserRoleWorker
}

// ParseUserRole converts raw input into a UserRole.
func ParseUserRole(value string) (UserRole, error) {
	for _, candidate := range validUserRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid user role %q", value)
}
