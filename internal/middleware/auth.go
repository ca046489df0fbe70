package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"shopauth/internal/auth"
	"shopauth/internal/logger"
	"shopauth/internal/models"
	"shopauth/pkg/apperrors"
	"shopauth/pkg/contextkeys"
)

// AuthMiddleware authenticates a request from its Bearer access token. The
// 401 body is uniform regardless of what failed: missing header, malformed
// header, bad signature, expiry or wrong token type all read the same.
func AuthMiddleware(tokens *auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			abortUnauthorized(c)
			return
		}

		claims, err := tokens.VerifyAccess(strings.TrimSpace(token))
		if err != nil {
			abortUnauthorized(c)
			return
		}

		// A token minted before a role was removed from the enumeration
		// must not authenticate as that role.
		if err := auth.ValidateRole(models.UserRole(claims.Role)); err != nil {
			abortUnauthorized(c)
			return
		}

		c.Set(string(contextkeys.UserIDContextKey), claims.Subject)
		c.Set(string(contextkeys.RoleContextKey), claims.Role)
		c.Request = c.Request.WithContext(logger.WithUserID(c.Request.Context(), claims.Subject))

		c.Next()
	}
}

// RequireRoles guards a route group behind a role allowlist. It assumes
// AuthMiddleware ran first; a missing principal is a 401, a principal with
// the wrong role is a 403.
func RequireRoles(allowed ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		roleValue, exists := c.Get(string(contextkeys.RoleContextKey))
		if !exists {
			abortUnauthorized(c)
			return
		}

		role, ok := roleValue.(string)
		if !ok || !auth.RoleAllowed(models.UserRole(role), allowed...) {
			c.AbortWithStatusJSON(http.StatusForbidden, apperrors.ErrorResponse{
				Error: apperrors.NewForbiddenError("Insufficient permissions"),
			})
			return
		}

		c.Next()
	}
}

func abortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, apperrors.ErrorResponse{
		Error: apperrors.NewUnauthorizedError("Authentication required"),
	})
}
