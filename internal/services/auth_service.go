package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"shopauth/internal/auth"
	"shopauth/internal/email"
	"shopauth/internal/events"
	"shopauth/internal/logger"
	"shopauth/internal/models"
	"shopauth/internal/repositories"
	"shopauth/internal/services/dto"
	"shopauth/pkg/apperrors"
)

// Outbound email must not block or fail the request that triggered it, so
// sends run detached with their own deadline.
const emailSendTimeout = 30 * time.Second

// AuthService owns every credential flow: registration, sessions, password
// reset and email verification. The database handle is passed per call so
// flows can run on the pool or inside a caller-owned transaction.
type AuthService interface {
	Register(ctx context.Context, db *gorm.DB, req *dto.RegisterRequest) (*dto.AuthResponse, error)
	Login(ctx context.Context, db *gorm.DB, req *dto.LoginRequest) (*dto.AuthResponse, error)
	RefreshToken(ctx context.Context, db *gorm.DB, refreshToken string) (*dto.TokenResponse, error)

	// Logout is best-effort: an invalid or unknown token is treated as an
	// already-terminated session, never an error.
	Logout(ctx context.Context, db *gorm.DB, refreshToken string)

	// Introspect never returns an error; any failure is {active:false}.
	Introspect(token string) *dto.IntrospectResponse

	RequestPasswordReset(ctx context.Context, db *gorm.DB, emailAddr string) error
	ResetPassword(ctx context.Context, db *gorm.DB, req *dto.ResetPasswordRequest) error
	VerifyEmail(ctx context.Context, db *gorm.DB, token string) error
	ResendVerificationEmail(ctx context.Context, db *gorm.DB, emailAddr string) error
}

// AuthServiceDeps lists the collaborators; everything is injected so tests
// can swap the email provider and event bus.
type AuthServiceDeps struct {
	Users         repositories.UserRepository
	RefreshTokens repositories.RefreshTokenRepository
	ResetTokens   repositories.PasswordResetRepository
	VerifyTokens  repositories.EmailVerificationRepository
	Tokens        *auth.TokenManager
	Email         email.Provider
	Bus           events.Publisher
	ResetTTL      time.Duration
	VerifyTTL     time.Duration
}

type authService struct {
	deps AuthServiceDeps
}

func NewAuthService(deps AuthServiceDeps) AuthService {
	return &authService{deps: deps}
}

func (s *authService) Register(ctx context.Context, db *gorm.DB, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	role := models.UserRoleCustomer
	if req.Role != "" {
		role = models.UserRole(strings.ToUpper(req.Role))
		if !models.ValidRegistrationRole(role) {
			return nil, apperrors.NewValidationMessage("Role must be SELLER or CUSTOMER")
		}
	}

	if err := auth.ValidatePassword(req.Password); err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	// Email is stored exactly as given; uniqueness is byte-wise.
	user := &models.User{
		Email:        req.Email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.deps.Users.Create(db, user); err != nil {
		if errors.Is(err, repositories.ErrUserAlreadyExists) {
			return nil, apperrors.ErrEmailAlreadyExists
		}
		return nil, apperrors.InternalError(err)
	}

	if err := s.issueVerification(ctx, db, user); err != nil {
		// The account exists; a failed verification token is recoverable via
		// resend, so registration still succeeds.
		logger.CtxWarn(ctx, "failed to issue verification token", "user_id", user.ID, "error", err)
	}

	pair, err := s.issueSession(ctx, db, user)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.UserRegistered, user.ID)

	return &dto.AuthResponse{
		User:         dto.NewUserResponse(user),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, nil
}

func (s *authService) Login(ctx context.Context, db *gorm.DB, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.deps.Users.FindByEmail(db, req.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, apperrors.InternalError(err)
	}

	if !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		return nil, apperrors.ErrInvalidCredentials
	}

	pair, err := s.issueSession(ctx, db, user)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.UserLoggedIn, user.ID)

	return &dto.AuthResponse{
		User:         dto.NewUserResponse(user),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, nil
}

// RefreshToken rotates a session: the presented token is checked against the
// registry and the signature, revoked, and replaced. The role on the new
// access token comes from the user row, never from the old token.
func (s *authService) RefreshToken(ctx context.Context, db *gorm.DB, refreshToken string) (*dto.TokenResponse, error) {
	stored, err := s.deps.RefreshTokens.FindByToken(db, refreshToken)
	if err != nil {
		if errors.Is(err, repositories.ErrRefreshTokenNotFound) {
			return nil, apperrors.ErrInvalidRefreshToken
		}
		return nil, apperrors.InternalError(err)
	}

	claims, err := s.deps.Tokens.VerifyRefresh(refreshToken)
	if err != nil {
		// Unverifiable rows are dead weight; drop them on sight.
		_ = s.deps.RefreshTokens.DeleteByToken(db, refreshToken)
		return nil, apperrors.ErrInvalidRefreshToken
	}

	user, err := s.deps.Users.FindByID(db, claims.Subject)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidRefreshToken
		}
		return nil, apperrors.InternalError(err)
	}

	// Rotation point. Two concurrent calls race on this delete; the loser
	// sees not-found and is rejected, so each token rotates at most once.
	if err := s.deps.RefreshTokens.DeleteByToken(db, stored.Token); err != nil {
		if errors.Is(err, repositories.ErrRefreshTokenNotFound) {
			return nil, apperrors.ErrInvalidRefreshToken
		}
		return nil, apperrors.InternalError(err)
	}

	pair, err := s.issueSession(ctx, db, user)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.TokenRefreshed, user.ID)

	return &dto.TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, nil
}

func (s *authService) Logout(ctx context.Context, db *gorm.DB, refreshToken string) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return
	}
	if _, err := s.deps.Tokens.VerifyRefresh(refreshToken); err != nil {
		return
	}
	if err := s.deps.RefreshTokens.DeleteByToken(db, refreshToken); err != nil {
		if !errors.Is(err, repositories.ErrRefreshTokenNotFound) {
			logger.CtxWarn(ctx, "logout failed to revoke refresh token", "error", err)
		}
	}
}

func (s *authService) Introspect(token string) *dto.IntrospectResponse {
	token = strings.TrimSpace(token)
	if token == "" {
		return &dto.IntrospectResponse{Active: false}
	}
	claims, err := s.deps.Tokens.VerifyAccess(token)
	if err != nil {
		return &dto.IntrospectResponse{Active: false}
	}
	resp := &dto.IntrospectResponse{
		Active: true,
		Sub:    claims.Subject,
		Role:   claims.Role,
	}
	if claims.ExpiresAt != nil {
		resp.Exp = claims.ExpiresAt.Unix()
	}
	return resp
}

// RequestPasswordReset always reports success to the caller; whether the
// address exists is never observable. A new token supersedes any older ones.
func (s *authService) RequestPasswordReset(ctx context.Context, db *gorm.DB, emailAddr string) error {
	user, err := s.deps.Users.FindByEmail(db, emailAddr)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			logger.CtxInfo(ctx, "password reset requested for unknown email")
			return nil
		}
		return apperrors.InternalError(err)
	}

	if err := s.deps.ResetTokens.DeleteByUserID(db, user.ID); err != nil {
		return apperrors.InternalError(err)
	}

	token, err := auth.GenerateSecureToken()
	if err != nil {
		return apperrors.InternalError(err)
	}
	if err := s.deps.ResetTokens.Create(db, &models.PasswordResetToken{
		UserID:    user.ID,
		Token:     token,
		ExpiresAt: time.Now().Add(s.deps.ResetTTL),
	}); err != nil {
		return apperrors.InternalError(err)
	}

	s.sendEmail("password reset", user.Email, func() error {
		return s.deps.Email.SendPasswordResetEmail(user.Email, token)
	})
	return nil
}

func (s *authService) ResetPassword(ctx context.Context, db *gorm.DB, req *dto.ResetPasswordRequest) error {
	stored, err := s.deps.ResetTokens.FindByToken(db, req.Token)
	if err != nil {
		if errors.Is(err, repositories.ErrActionTokenNotFound) {
			return apperrors.NewUnauthorizedError("Invalid or expired reset token")
		}
		return apperrors.InternalError(err)
	}
	if stored.Used {
		return apperrors.NewUnauthorizedError("Reset token has already been used")
	}
	if !stored.Valid(time.Now()) {
		return apperrors.NewUnauthorizedError("Reset token has expired")
	}

	if err := auth.ValidatePassword(req.NewPassword); err != nil {
		return err
	}
	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return apperrors.InternalError(err)
	}

	if err := s.deps.Users.UpdatePassword(db, stored.UserID, hash); err != nil {
		return apperrors.InternalError(err)
	}
	if err := s.deps.ResetTokens.MarkUsed(db, stored.Token); err != nil {
		return apperrors.InternalError(err)
	}

	// A reset invalidates every live session of the account.
	if err := s.deps.RefreshTokens.DeleteByUserID(db, stored.UserID); err != nil {
		return apperrors.InternalError(err)
	}

	s.publish(ctx, events.UserPasswordReset, stored.UserID)
	return nil
}

func (s *authService) VerifyEmail(ctx context.Context, db *gorm.DB, token string) error {
	stored, err := s.deps.VerifyTokens.FindByToken(db, token)
	if err != nil {
		if errors.Is(err, repositories.ErrActionTokenNotFound) {
			return apperrors.NewUnauthorizedError("Invalid or expired verification token")
		}
		return apperrors.InternalError(err)
	}
	if stored.Used {
		return apperrors.NewUnauthorizedError("Verification token has already been used")
	}
	if !stored.Valid(time.Now()) {
		return apperrors.NewUnauthorizedError("Verification token has expired")
	}

	if err := s.deps.Users.VerifyEmail(db, stored.UserID, time.Now()); err != nil {
		return apperrors.InternalError(err)
	}
	if err := s.deps.VerifyTokens.MarkUsed(db, stored.Token); err != nil {
		return apperrors.InternalError(err)
	}

	s.publish(ctx, events.UserEmailVerified, stored.UserID)
	return nil
}

func (s *authService) ResendVerificationEmail(ctx context.Context, db *gorm.DB, emailAddr string) error {
	user, err := s.deps.Users.FindByEmail(db, emailAddr)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			logger.CtxInfo(ctx, "verification resend requested for unknown email")
			return nil
		}
		return apperrors.InternalError(err)
	}

	if user.EmailVerified {
		return apperrors.ErrEmailAlreadyVerified
	}

	if err := s.issueVerification(ctx, db, user); err != nil {
		return apperrors.InternalError(err)
	}
	return nil
}

// issueSession mints a token pair and persists the refresh half. Refresh
// claims carry a unique jti, so two sessions for the same user never share
// a token string; a registry conflict therefore signals a genuine
// constraint violation and is surfaced rather than retried.
func (s *authService) issueSession(ctx context.Context, db *gorm.DB, user *models.User) (auth.TokenPair, error) {
	pair, err := s.deps.Tokens.IssueTokens(user.ID, user.Role)
	if err != nil {
		return auth.TokenPair{}, apperrors.InternalError(err)
	}
	if err := s.deps.RefreshTokens.Create(db, &models.RefreshToken{
		UserID:    user.ID,
		Token:     pair.RefreshToken,
		ExpiresAt: pair.RefreshExpiresAt,
	}); err != nil {
		if errors.Is(err, repositories.ErrRefreshTokenConflict) {
			return auth.TokenPair{}, apperrors.ErrConflict(err, "auth", "Session token already exists")
		}
		return auth.TokenPair{}, apperrors.InternalError(err)
	}
	return pair, nil
}

// issueVerification supersedes any pending verification token and dispatches
// the email.
func (s *authService) issueVerification(ctx context.Context, db *gorm.DB, user *models.User) error {
	if err := s.deps.VerifyTokens.DeleteByUserID(db, user.ID); err != nil {
		return err
	}
	token, err := auth.GenerateSecureToken()
	if err != nil {
		return err
	}
	if err := s.deps.VerifyTokens.Create(db, &models.EmailVerificationToken{
		UserID:    user.ID,
		Token:     token,
		ExpiresAt: time.Now().Add(s.deps.VerifyTTL),
	}); err != nil {
		return err
	}

	s.sendEmail("verification", user.Email, func() error {
		return s.deps.Email.SendVerificationEmail(user.Email, token)
	})
	return nil
}

// sendEmail runs the send in the background with a hard deadline. Failures
// are logged and otherwise swallowed.
func (s *authService) sendEmail(kind, to string, send func() error) {
	go func() {
		done := make(chan error, 1)
		go func() { done <- send() }()
		select {
		case err := <-done:
			if err != nil {
				logger.Error("failed to send email", "kind", kind, "to", to, "error", err)
			}
		case <-time.After(emailSendTimeout):
			logger.Error("email send timed out", "kind", kind, "to", to)
		}
	}()
}

func (s *authService) publish(ctx context.Context, eventType, userID string) {
	if err := s.deps.Bus.Publish(ctx, eventType, userID); err != nil {
		logger.CtxWarn(ctx, "failed to publish event", "type", eventType, "error", err)
	}
}
