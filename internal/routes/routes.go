package routes

import (
	"github.com/gin-gonic/gin"

	"shopauth/internal/auth"
	"shopauth/internal/handlers"
	"shopauth/internal/middleware"
	"shopauth/internal/models"
)

// RegisterRoutes registers every HTTP route.
func RegisterRoutes(r *gin.Engine, h *handlers.AppHandlers, tokens *auth.TokenManager) {
	r.GET("/health", h.Health.Health)

	api := r.Group("/api/v1")

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", h.Auth.Register)
		authGroup.POST("/login", h.Auth.Login)
		authGroup.POST("/refresh", h.Auth.Refresh)
		authGroup.POST("/logout", h.Auth.Logout)
		authGroup.POST("/introspect", h.Auth.Introspect)

		authGroup.POST("/password/reset/request", h.Auth.RequestPasswordReset)
		authGroup.POST("/password/reset", h.Auth.ResetPassword)
		authGroup.POST("/email/verify", h.Auth.VerifyEmail)
		authGroup.POST("/email/resend", h.Auth.ResendVerificationEmail)

		authGroup.GET("/.well-known/openid-configuration", h.Auth.OpenIDConfiguration)

		authGroup.GET("/me", middleware.AuthMiddleware(tokens), h.Auth.Me)
	}

	admin := api.Group("/admin")
	admin.Use(middleware.AuthMiddleware(tokens), middleware.RequireRoles(models.UserRoleAdmin))
	{
		admin.GET("/users", h.Users.ListUsers)
	}
}
