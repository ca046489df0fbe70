package database

import (
	"shopauth/internal/models"

	"gorm.io/gorm"
)

// Migrate creates or updates the auth schema.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.PasswordResetToken{},
		&models.EmailVerificationToken{},
	)
}
