package repositories

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"shopauth/internal/models"
)

var (
	ErrRefreshTokenNotFound = errors.New("refresh token not found")
	ErrRefreshTokenConflict = errors.New("refresh token already exists")
)

// RefreshTokenRepository is the refresh token registry. Deletion is the
// revocation mechanism; there is no revoked flag.
type RefreshTokenRepository interface {
	// Create is insert-only; a colliding token string surfaces as
	// ErrRefreshTokenConflict rather than being silently ignored.
	Create(db *gorm.DB, token *models.RefreshToken) error

	FindByToken(db *gorm.DB, tokenString string) (*models.RefreshToken, error)

	// DeleteByToken removes one token. Deleting an absent row returns
	// ErrRefreshTokenNotFound; callers racing on the same token use that to
	// detect they lost.
	DeleteByToken(db *gorm.DB, tokenString string) error

	// DeleteByUserID revokes every session of a user.
	DeleteByUserID(db *gorm.DB, userID string) error

	// CleanExpired removes rows past their expiry. Expiry is otherwise only
	// checked lazily at verification time; this is a maintenance helper.
	CleanExpired(db *gorm.DB) error

	CountByUserID(db *gorm.DB, userID string) (int64, error)
}

type refreshTokenRepository struct{}

func NewRefreshTokenRepository() RefreshTokenRepository {
	return &refreshTokenRepository{}
}

func (r *refreshTokenRepository) Create(db *gorm.DB, token *models.RefreshToken) error {
	if err := db.Create(token).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrRefreshTokenConflict
		}
		return err
	}
	return nil
}

func (r *refreshTokenRepository) FindByToken(db *gorm.DB, tokenString string) (*models.RefreshToken, error) {
	var token models.RefreshToken
	if err := db.Where("token = ?", tokenString).First(&token).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRefreshTokenNotFound
		}
		return nil, err
	}
	return &token, nil
}

func (r *refreshTokenRepository) DeleteByToken(db *gorm.DB, tokenString string) error {
	result := db.Where("token = ?", tokenString).Delete(&models.RefreshToken{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRefreshTokenNotFound
	}
	return nil
}

func (r *refreshTokenRepository) DeleteByUserID(db *gorm.DB, userID string) error {
	return db.Where("user_id = ?", userID).Delete(&models.RefreshToken{}).Error
}

func (r *refreshTokenRepository) CleanExpired(db *gorm.DB) error {
	return db.Where("expires_at < ?", time.Now()).Delete(&models.RefreshToken{}).Error
}

func (r *refreshTokenRepository) CountByUserID(db *gorm.DB, userID string) (int64, error) {
	var count int64
	err := db.Model(&models.RefreshToken{}).
		Where("user_id = ? AND expires_at > ?", userID, time.Now()).
		Count(&count).Error
	return count, err
}
