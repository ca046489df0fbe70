package dto

import (
	"time"

	"shopauth/internal/models"
)

// Request bodies are explicit structs validated at the boundary; the
// service layer never sees optional-vs-missing ambiguity.

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"omitempty,oneof=SELLER CUSTOMER"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type RequestPasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Token string `json:"token" validate:"required"`
	// Length is checked in the service after the token, preserving the
	// failure order of the flow (bad token wins over weak password).
	NewPassword string `json:"newPassword" validate:"required"`
}

type VerifyEmailRequest struct {
	Token string `json:"token" validate:"required"`
}

type ResendVerificationRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type IntrospectRequest struct {
	Token string `json:"token"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Responses.

type UserResponse struct {
	ID              string          `json:"id"`
	Email           string          `json:"email"`
	Role            models.UserRole `json:"role"`
	EmailVerified   bool            `json:"emailVerified"`
	EmailVerifiedAt *time.Time      `json:"emailVerifiedAt,omitempty"`
}

func NewUserResponse(user *models.User) *UserResponse {
	return &UserResponse{
		ID:              user.ID,
		Email:           user.Email,
		Role:            user.Role,
		EmailVerified:   user.EmailVerified,
		EmailVerifiedAt: user.EmailVerifiedAt,
	}
}

type AuthResponse struct {
	User         *UserResponse `json:"user"`
	AccessToken  string        `json:"accessToken"`
	RefreshToken string        `json:"refreshToken"`
}

type TokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type IntrospectResponse struct {
	Active bool   `json:"active"`
	Sub    string `json:"sub,omitempty"`
	Role   string `json:"role,omitempty"`
	Exp    int64  `json:"exp,omitempty"`
}

type UserListResponse struct {
	Users    []UserResponse `json:"users"`
	Total    int64          `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"pageSize"`
}
