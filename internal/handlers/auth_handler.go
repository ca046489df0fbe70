package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"shopauth/internal/services"
	"shopauth/internal/services/dto"
)

// AuthHandler is the HTTP layer over AuthService. No business logic lives
// here; handlers bind, delegate and shape responses.
type AuthHandler struct {
	*BaseHandler
	service   services.AuthService
	ssoIssuer string
}

func NewAuthHandler(base *BaseHandler, service services.AuthService, ssoIssuer string) *AuthHandler {
	return &AuthHandler{
		BaseHandler: base,
		service:     service,
		ssoIssuer:   ssoIssuer,
	}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	resp, err := h.service.Register(c.Request.Context(), h.GetDB(c), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	resp, err := h.service.Login(c.Request.Context(), h.GetDB(c), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var req dto.RefreshTokenRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	resp, err := h.service.RefreshToken(c.Request.Context(), h.GetDB(c), req.RefreshToken)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Me echoes the principal from the access token. No store read: the token is
// the source of truth for up to one access TTL.
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user": gin.H{
			"sub":  userID,
			"role": h.GetRole(c),
		},
	})
}

func (h *AuthHandler) RequestPasswordReset(c *gin.Context) {
	var req dto.RequestPasswordResetRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	if err := h.service.RequestPasswordReset(c.Request.Context(), h.GetDB(c), req.Email); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	// Identical body whether or not the address exists.
	c.JSON(http.StatusOK, gin.H{"message": "If the email exists, a password reset link has been sent"})
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req dto.ResetPasswordRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	if err := h.service.ResetPassword(c.Request.Context(), h.GetDB(c), &req); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password has been reset successfully"})
}

func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	var req dto.VerifyEmailRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	if err := h.service.VerifyEmail(c.Request.Context(), h.GetDB(c), req.Token); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Email verified successfully"})
}

func (h *AuthHandler) ResendVerificationEmail(c *gin.Context) {
	var req dto.ResendVerificationRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	if err := h.service.ResendVerificationEmail(c.Request.Context(), h.GetDB(c), req.Email); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "If the email exists and is not verified, a verification email has been sent"})
}

// Introspect validates an access token for peer services. The token comes
// from the body or, failing that, the Authorization header. The response is
// always 200; a bad token is {"active": false}.
func (h *AuthHandler) Introspect(c *gin.Context) {
	var req dto.IntrospectRequest
	_ = c.ShouldBindJSON(&req)

	token := req.Token
	if token == "" {
		token = bearerToken(c)
	}

	c.JSON(http.StatusOK, h.service.Introspect(token))
}

// Logout revokes a refresh token. Always 200: an invalid token is a session
// that is already gone.
func (h *AuthHandler) Logout(c *gin.Context) {
	var req dto.LogoutRequest
	_ = c.ShouldBindJSON(&req)

	token := req.RefreshToken
	if token == "" {
		token = bearerToken(c)
	}

	h.service.Logout(c.Request.Context(), h.GetDB(c), token)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// OpenIDConfiguration serves the OIDC discovery document so SSO clients can
// find the endpoints without hardcoding paths.
func (h *AuthHandler) OpenIDConfiguration(c *gin.Context) {
	issuer := strings.TrimSpace(h.ssoIssuer)
	if issuer == "" {
		scheme := "http"
		if c.Request.TLS != nil {
			scheme = "https"
		}
		issuer = fmt.Sprintf("%s://%s", scheme, c.Request.Host)
	}
	base := issuer + "/api/v1/auth"

	c.JSON(http.StatusOK, gin.H{
		"issuer":                                issuer,
		"authorization_endpoint":                base + "/login",
		"token_endpoint":                        base + "/login",
		"userinfo_endpoint":                     base + "/me",
		"introspection_endpoint":                base + "/introspect",
		"end_session_endpoint":                  base + "/logout",
		"jwks_uri":                              nil,
		"response_types_supported":              []string{"token"},
		"subject_types_supported":               []string{"public"},
		"id_token_signing_alg_values_supported": []string{},
		"scopes_supported":                      []string{"openid", "profile"},
		"token_endpoint_auth_methods_supported": []string{"client_secret_post", "client_secret_basic"},
		"claims_supported":                      []string{"sub", "email", "role"},
	})
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}
