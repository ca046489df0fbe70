package models

import "time"

type UserRole string

const (
	UserRoleAdmin    UserRole = "ADMIN"
	UserRoleSeller   UserRole = "SELLER"
	UserRoleCustomer UserRole = "CUSTOMER"
)

// User is the credential record. The plaintext password never touches this
// struct; only the bcrypt hash is stored.
type User struct {
	BaseModel
	Email           string     `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash    string     `gorm:"not null" json:"-"`
	Role            UserRole   `gorm:"type:varchar(20);not null" json:"role"`
	EmailVerified   bool       `gorm:"default:false" json:"email_verified"`
	EmailVerifiedAt *time.Time `json:"email_verified_at,omitempty"`

	RefreshTokens []RefreshToken `gorm:"foreignKey:UserID" json:"-"`
}

// ValidRegistrationRole reports whether a role may be chosen at
// self-service registration. ADMIN accounts are seeded, never registered.
func ValidRegistrationRole(role UserRole) bool {
	return role == UserRoleSeller || role == UserRoleCustomer
}
