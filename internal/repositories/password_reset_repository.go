package repositories

import (
	"errors"

	"gorm.io/gorm"

	"shopauth/internal/models"
)

var ErrActionTokenNotFound = errors.New("action token not found")

// PasswordResetRepository stores the single-use password reset grants.
// Requesting a new token supersedes older ones (DeleteByUserID); consuming
// one marks it used instead of deleting it, keeping an audit trace.
type PasswordResetRepository interface {
	Create(db *gorm.DB, token *models.PasswordResetToken) error
	FindByToken(db *gorm.DB, tokenString string) (*models.PasswordResetToken, error)
	MarkUsed(db *gorm.DB, tokenString string) error
	DeleteByUserID(db *gorm.DB, userID string) error
}

type passwordResetRepository struct{}

func NewPasswordResetRepository() PasswordResetRepository {
	return &passwordResetRepository{}
}

func (r *passwordResetRepository) Create(db *gorm.DB, token *models.PasswordResetToken) error {
	return db.Create(token).Error
}

func (r *passwordResetRepository) FindByToken(db *gorm.DB, tokenString string) (*models.PasswordResetToken, error) {
	var token models.PasswordResetToken
	if err := db.Where("token = ?", tokenString).First(&token).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrActionTokenNotFound
		}
		return nil, err
	}
	return &token, nil
}

func (r *passwordResetRepository) MarkUsed(db *gorm.DB, tokenString string) error {
	result := db.Model(&models.PasswordResetToken{}).
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

func (r *passwordResetRepository) DeleteByUserID(db *gorm.DB, userID string) error {
	return db.Where("user_id = ?", userID).Delete(&models.PasswordResetToken{}).Error
}
