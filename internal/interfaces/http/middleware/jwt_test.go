package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/erp/billing/internal/infrastructure/auth"
	"github.com/erp/billing/internal/infrastructure/config"
	"github.com/erp/billing/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestJWTService() *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-at-least-32-chars",
		Issuer:                "test-issuer",
		AccessTokenExpiration: 15 * time.Minute,
	})
}

type identity struct {
	CompanyID string `json:"company_id"`
	UserID    string `json:"user_id"`
}

func newAuthRouter(cfg AuthConfig, extra ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(Auth(cfg))
	handlers := append(extra, func(c *gin.Context) {
		companyID, _ := GetCompanyID(c)
		out := identity{CompanyID: companyID.String()}
		if userID := GetUserID(c); userID != nil {
			out.UserID = userID.String()
		}
		c.JSON(http.StatusOK, out)
	})
	router.GET("/test", handlers...)
	return router
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) dto.ErrorInfo {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	return *resp.Error
}

func TestAuth_BearerToken(t *testing.T) {
	jwtService := newTestJWTService()
	companyID, userID := uuid.New(), uuid.New()
	token, _, err := jwtService.GenerateAccessToken(auth.GenerateTokenInput{CompanyID: companyID, UserID: userID})
	require.NoError(t, err)

	router := newAuthRouter(AuthConfig{JWTService: jwtService})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(AuthHeaderKey, BearerPrefix+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got identity
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, companyID.String(), got.CompanyID)
	assert.Equal(t, userID.String(), got.UserID)
}

func TestAuth_Rejections(t *testing.T) {
	jwtService := newTestJWTService()

	tests := []struct {
		name     string
		header   string
		wantCode string
	}{
		{"missing header", "", dto.ErrCodeUnauthorized},
		{"not bearer", "Basic abc", dto.ErrCodeUnauthorized},
		{"empty bearer", "Bearer ", dto.ErrCodeUnauthorized},
		{"garbage token", "Bearer abc.def.ghi", dto.ErrCodeTokenInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newAuthRouter(AuthConfig{JWTService: jwtService})
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.header != "" {
				req.Header.Set(AuthHeaderKey, tt.header)
			}
			req.Header.Set(CompanyIDHeader, uuid.NewString())
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, tt.wantCode, decodeError(t, rec).Code)
		})
	}
}

func TestAuth_CompanyHeaderFallback(t *testing.T) {
	jwtService := newTestJWTService()
	companyID, userID := uuid.New(), uuid.New()

	t.Run("accepted when enabled", func(t *testing.T) {
		router := newAuthRouter(AuthConfig{JWTService: jwtService, AllowCompanyHeader: true})
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set(CompanyIDHeader, companyID.String())
		req.Header.Set(UserIDHeader, userID.String())
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var got identity
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, companyID.String(), got.CompanyID)
		assert.Equal(t, userID.String(), got.UserID)
	})

	t.Run("invalid company header", func(t *testing.T) {
		router := newAuthRouter(AuthConfig{JWTService: jwtService, AllowCompanyHeader: true})
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set(CompanyIDHeader, "acme")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("ignored when disabled", func(t *testing.T) {
		router := newAuthRouter(AuthConfig{JWTService: jwtService})
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set(CompanyIDHeader, companyID.String())
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRequirePermission(t *testing.T) {
	jwtService := newTestJWTService()
	tokenWith := func(perms ...string) string {
		token, _, err := jwtService.GenerateAccessToken(auth.GenerateTokenInput{
			CompanyID:   uuid.New(),
			UserID:      uuid.New(),
			Permissions: perms,
		})
		require.NoError(t, err)
		return token
	}

	router := newAuthRouter(AuthConfig{JWTService: jwtService, AllowCompanyHeader: true},
		RequirePermission(auth.PermissionBillingAdmin))

	t.Run("granted", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set(AuthHeaderKey, BearerPrefix+tokenWith(auth.PermissionBillingAdmin))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("denied", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set(AuthHeaderKey, BearerPrefix+tokenWith())
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, dto.ErrCodeForbidden, decodeError(t, rec).Code)
	})

	t.Run("header fallback passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set(CompanyIDHeader, uuid.NewString())
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
