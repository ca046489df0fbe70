package auth

import (
	"errors"

	"shopauth/internal/models"
)

// ValidateRole rejects role strings outside the fixed enumeration.
func ValidateRole(role models.UserRole) error {
	switch role {
	case models.UserRoleAdmin, models.UserRoleSeller, models.UserRoleCustomer:
		return nil
	default:
		return errors.New("invalid role")
	}
}

// RoleAllowed reports whether role is a member of allowed.
func RoleAllowed(role models.UserRole, allowed ...models.UserRole) bool {
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}
