package handlers

import (
	"shopauth/internal/services"
	"shopauth/internal/validator"
)

// AppHandlers bundles every handler so route registration takes one value.
type AppHandlers struct {
	Auth   *AuthHandler
	Users  *UserHandler
	Health *HealthHandler
}

func NewAppHandlers(
	v *validator.Validator,
	authService services.AuthService,
	userService services.UserService,
	ssoIssuer string,
) *AppHandlers {
	base := NewBaseHandler(v)
	return &AppHandlers{
		Auth:   NewAuthHandler(base, authService, ssoIssuer),
		Users:  NewUserHandler(base, userService),
		Health: NewHealthHandler(),
	}
}
