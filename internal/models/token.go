package models

import "time"

// RefreshToken is a live session credential. A row's presence makes the
// token a validity candidate; deletion is the revocation mechanism, there
// is no revoked flag. Expiry is checked lazily at verification time.
type RefreshToken struct {
	BaseModel
	UserID    string    `gorm:"not null;index" json:"user_id"`
	Token     string    `gorm:"not null;uniqueIndex" json:"-"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
}

// PasswordResetToken is a single-use, time-boxed grant for a password
// change. Consumed tokens are marked used rather than deleted, leaving an
// audit trace.
type PasswordResetToken struct {
	BaseModel
	UserID    string    `gorm:"not null;index" json:"user_id"`
	Token     string    `gorm:"not null;uniqueIndex" json:"-"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	Used      bool      `gorm:"default:false" json:"used"`
}

// EmailVerificationToken is the same shape for the email-verified mutation.
type EmailVerificationToken struct {
	BaseModel
	UserID    string    `gorm:"not null;index" json:"user_id"`
	Token     string    `gorm:"not null;uniqueIndex" json:"-"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	Used      bool      `gorm:"default:false" json:"used"`
}

// Valid reports whether the token can still be consumed.
func (t *PasswordResetToken) Valid(now time.Time) bool {
	return !t.Used && now.Before(t.ExpiresAt)
}

func (t *EmailVerificationToken) Valid(now time.Time) bool {
	return !t.Used && now.Before(t.ExpiresAt)
}
