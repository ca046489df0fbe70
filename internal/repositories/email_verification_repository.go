package repositories

import (
	"errors"

	"gorm.io/gorm"

	"shopauth/internal/models"
)

// EmailVerificationRepository mirrors PasswordResetRepository for the
// email-verified mutation.
type EmailVerificationRepository interface {
	Create(db *gorm.DB, token *models.EmailVerificationToken) error
	FindByToken(db *gorm.DB, tokenString string) (*models.EmailVerificationToken, error)
	MarkUsed(db *gorm.DB, tokenString string) error
	DeleteByUserID(db *gorm.DB, userID string) error
}

type emailVerificationRepository struct{}

func NewEmailVerificationRepository() EmailVerificationRepository {
	return &emailVerificationRepository{}
}

func (r *emailVerificationRepository) Create(db *gorm.DB, token *models.EmailVerificationToken) error {
	return db.Create(token).Error
}

func (r *emailVerificationRepository) FindByToken(db *gorm.DB, tokenString string) (*models.EmailVerificationToken, error) {
	var token models.EmailVerificationToken
	if err := db.Where("token = ?", tokenString).First(&token).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrActionTokenNotFound
		}
		return nil, err
	}
	return &token, nil
}

func (r *emailVerificationRepository) MarkUsed(db *gorm.DB, tokenString string) error {
	result := db.Model(&models.EmailVerificationToken{}).
		Where("token = ?", tokenString).
		Update("used", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrActionTokenNotFound
	}
	return nil
}

func (r *emailVerificationRepository) DeleteByUserID(db *gorm.DB, userID string) error {
	return db.Where("user_id = ?", userID).Delete(&models.EmailVerificationToken{}).Error
}
