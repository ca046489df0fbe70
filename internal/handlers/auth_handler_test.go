package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"shopauth/database"
	"shopauth/internal/app"
	"shopauth/internal/auth"
	"shopauth/internal/config"
	"shopauth/internal/models"
)

type testServer struct {
	router *gin.Engine
	db     *gorm.DB
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))

	cfg := &config.Config{}
	cfg.Server.Env = "test"
	cfg.JWT.AccessSecret = "test-access"
	cfg.JWT.RefreshSecret = "test-refresh"
	cfg.JWT.AccessTTLMinutes = 15
	cfg.JWT.RefreshTTLDays = 7
	cfg.JWT.ResetTTLHours = 24
	cfg.JWT.VerifyTTLHours = 72
	cfg.SSO.Issuer = "http://auth.test"

	router, cleanup := app.SetupRouter(cfg, db)
	t.Cleanup(cleanup)

	return &testServer{router: router, db: db}
}

func (s *testServer) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func (s *testServer) register(t *testing.T, email, password string) map[string]any {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/v1/auth/register", gin.H{
		"email":    email,
		"password": password,
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode(t, w)
}

func (s *testServer) seedAdmin(t *testing.T, email, password string) {
	t.Helper()
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)
	now := time.Now()
	require.NoError(t, s.db.Create(&models.User{
		Email:           email,
		PasswordHash:    hash,
		Role:            models.UserRoleAdmin,
		EmailVerified:   true,
		EmailVerifiedAt: &now,
	}).Error)
}

func errorCode(body map[string]any) string {
	errObj, _ := body["error"].(map[string]any)
	code, _ := errObj["code"].(string)
	return code
}

func TestRegisterEndpoint(t *testing.T) {
	s := newTestServer(t)

	body := s.register(t, "alice@example.com", "password123")
	user := body["user"].(map[string]any)
	assert.Equal(t, "alice@example.com", user["email"])
	assert.Equal(t, "CUSTOMER", user["role"])
	assert.NotEmpty(t, body["accessToken"])
	assert.NotEmpty(t, body["refreshToken"])

	t.Run("duplicate email", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/api/v1/auth/register", gin.H{
			"email":    "alice@example.com",
			"password": "password123",
		}, "")
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "ALREADY_EXISTS", errorCode(decode(t, w)))
	})

	t.Run("invalid payload", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/api/v1/auth/register", gin.H{
			"email":    "not-an-email",
			"password": "short",
		}, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "VALIDATION_FAILED", errorCode(decode(t, w)))
	})

	t.Run("admin role rejected", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/api/v1/auth/register", gin.H{
			"email":    "eve@example.com",
			"password": "password123",
			"role":     "ADMIN",
		}, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestLoginEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "alice@example.com", "password123")

	w := s.do(t, http.MethodPost, "/api/v1/auth/login", gin.H{
		"email":    "alice@example.com",
		"password": "password123",
	}, "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.NotEmpty(t, body["accessToken"])

	t.Run("wrong password", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/api/v1/auth/login", gin.H{
			"email":    "alice@example.com",
			"password": "wrong-password",
		}, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "UNAUTHORIZED", errorCode(decode(t, w)))
	})

	t.Run("unknown email reads the same", func(t *testing.T) {
		wrong := s.do(t, http.MethodPost, "/api/v1/auth/login", gin.H{
			"email":    "alice@example.com",
			"password": "wrong-password",
		}, "")
		unknown := s.do(t, http.MethodPost, "/api/v1/auth/login", gin.H{
			"email":    "nobody@example.com",
			"password": "password123",
		}, "")
		assert.Equal(t, wrong.Body.String(), unknown.Body.String())
	})
}

func TestMeEndpoint(t *testing.T) {
	s := newTestServer(t)
	reg := s.register(t, "alice@example.com", "password123")
	access := reg["accessToken"].(string)
	userID := reg["user"].(map[string]any)["id"].(string)

	w := s.do(t, http.MethodGet, "/api/v1/auth/me", nil, access)
	require.Equal(t, http.StatusOK, w.Code)
	user := decode(t, w)["user"].(map[string]any)
	assert.Equal(t, userID, user["sub"])
	assert.Equal(t, "CUSTOMER", user["role"])

	t.Run("requires token", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/api/v1/auth/me", nil, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestRefreshEndpoint(t *testing.T) {
	s := newTestServer(t)
	reg := s.register(t, "alice@example.com", "password123")
	refresh := reg["refreshToken"].(string)

	w := s.do(t, http.MethodPost, "/api/v1/auth/refresh", gin.H{"refreshToken": refresh}, "")
	require.Equal(t, http.StatusOK, w.Code)
	rotated := decode(t, w)
	assert.NotEmpty(t, rotated["accessToken"])
	assert.NotEqual(t, refresh, rotated["refreshToken"])

	t.Run("old token is dead after rotation", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/api/v1/auth/refresh", gin.H{"refreshToken": refresh}, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestLogoutEndpoint(t *testing.T) {
	s := newTestServer(t)
	reg := s.register(t, "alice@example.com", "password123")
	refresh := reg["refreshToken"].(string)

	w := s.do(t, http.MethodPost, "/api/v1/auth/logout", gin.H{"refreshToken": refresh}, "")
	assert.Equal(t, http.StatusOK, w.Code)

	// The session is gone; logging out again still succeeds.
	w = s.do(t, http.MethodPost, "/api/v1/auth/refresh", gin.H{"refreshToken": refresh}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	w = s.do(t, http.MethodPost, "/api/v1/auth/logout", gin.H{"refreshToken": refresh}, "")
	assert.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodPost, "/api/v1/auth/logout", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestIntrospectEndpoint(t *testing.T) {
	s := newTestServer(t)
	reg := s.register(t, "alice@example.com", "password123")
	access := reg["accessToken"].(string)
	userID := reg["user"].(map[string]any)["id"].(string)

	t.Run("token in body", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/api/v1/auth/introspect", gin.H{"token": access}, "")
		require.Equal(t, http.StatusOK, w.Code)
		body := decode(t, w)
		assert.Equal(t, true, body["active"])
		assert.Equal(t, userID, body["sub"])
		assert.Equal(t, "CUSTOMER", body["role"])
	})

	t.Run("token in header", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/api/v1/auth/introspect", nil, access)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, true, decode(t, w)["active"])
	})

	t.Run("bad token is inactive, never an error", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/api/v1/auth/introspect", gin.H{"token": "garbage"}, "")
		require.Equal(t, http.StatusOK, w.Code)
		body := decode(t, w)
		assert.Equal(t, false, body["active"])
		assert.NotContains(t, body, "sub")
	})
}

func TestPasswordResetEndpoints(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "alice@example.com", "password123")

	known := s.do(t, http.MethodPost, "/api/v1/auth/password/reset/request", gin.H{
		"email": "alice@example.com",
	}, "")
	unknown := s.do(t, http.MethodPost, "/api/v1/auth/password/reset/request", gin.H{
		"email": "nobody@example.com",
	}, "")
	require.Equal(t, http.StatusOK, known.Code)
	require.Equal(t, http.StatusOK, unknown.Code)
	// Identical responses: no email enumeration through this endpoint.
	assert.Equal(t, known.Body.String(), unknown.Body.String())

	var user models.User
	require.NoError(t, s.db.Where("email = ?", "alice@example.com").First(&user).Error)
	var token models.PasswordResetToken
	require.NoError(t, s.db.Where("user_id = ?", user.ID).First(&token).Error)

	w := s.do(t, http.MethodPost, "/api/v1/auth/password/reset", gin.H{
		"token":       token.Token,
		"newPassword": "new-password-456",
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/api/v1/auth/login", gin.H{
		"email":    "alice@example.com",
		"password": "new-password-456",
	}, "")
	assert.Equal(t, http.StatusOK, w.Code)

	t.Run("token is single use", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/api/v1/auth/password/reset", gin.H{
			"token":       token.Token,
			"newPassword": "another-pass-789",
		}, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestVerifyEmailEndpoints(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "alice@example.com", "password123")

	var user models.User
	require.NoError(t, s.db.Where("email = ?", "alice@example.com").First(&user).Error)
	var token models.EmailVerificationToken
	require.NoError(t, s.db.Where("user_id = ?", user.ID).First(&token).Error)

	w := s.do(t, http.MethodPost, "/api/v1/auth/email/verify", gin.H{"token": token.Token}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	require.NoError(t, s.db.Where("email = ?", "alice@example.com").First(&user).Error)
	assert.True(t, user.EmailVerified)

	t.Run("second use fails", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/api/v1/auth/email/verify", gin.H{"token": token.Token}, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("resend after verification", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/api/v1/auth/email/resend", gin.H{
			"email": "alice@example.com",
		}, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("resend for unknown email still succeeds", func(t *testing.T) {
		w := s.do(t, http.MethodPost, "/api/v1/auth/email/resend", gin.H{
			"email": "nobody@example.com",
		}, "")
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestOpenIDConfigurationEndpoint(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/api/v1/auth/.well-known/openid-configuration", nil, "")
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, "http://auth.test", body["issuer"])
	assert.Equal(t, "http://auth.test/api/v1/auth/introspect", body["introspection_endpoint"])
	assert.Equal(t, "http://auth.test/api/v1/auth/logout", body["end_session_endpoint"])
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/health", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])
}

func TestAdminUsersEndpoint(t *testing.T) {
	s := newTestServer(t)
	s.seedAdmin(t, "admin@example.com", "admin-password")
	s.register(t, "alice@example.com", "password123")

	w := s.do(t, http.MethodPost, "/api/v1/auth/login", gin.H{
		"email":    "admin@example.com",
		"password": "admin-password",
	}, "")
	require.Equal(t, http.StatusOK, w.Code)
	adminAccess := decode(t, w)["accessToken"].(string)

	t.Run("admin can list users", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/api/v1/admin/users", nil, adminAccess)
		require.Equal(t, http.StatusOK, w.Code)
		body := decode(t, w)
		assert.EqualValues(t, 2, body["total"])
	})

	t.Run("customer is forbidden", func(t *testing.T) {
		reg := s.register(t, "carol@example.com", "password123")
		w := s.do(t, http.MethodGet, "/api/v1/admin/users", nil, reg["accessToken"].(string))
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("anonymous is unauthorized", func(t *testing.T) {
		w := s.do(t, http.MethodGet, "/api/v1/admin/users", nil, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
