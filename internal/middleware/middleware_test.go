package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kama-line/service-reservation/internal/auth"
	"github.com/kama-line/service-reservation/internal/middleware"
)

func newAuthRouter(t *testing.T, jwtManager *auth.JWTManager, extra ...gin.HandlerFunc) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	chain := append([]gin.HandlerFunc{middleware.AuthMiddleware(jwtManager)}, extra...)
	r.GET("/protected", append(chain, func(c *gin.Context) {
		subject, ok := middleware.GetSubject(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"subject": subject})
	})...)
	return r
}

func TestAuthMiddleware_ValidTokenExposesSubject(t *testing.T) {
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	token, err := jwtManager.Generate("admin-7", auth.RoleAdmin)
	require.NoError(t, err)

	r := newAuthRouter(t, jwtManager)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "admin-7")
}

func TestAuthMiddleware_MissingHeaderRejected(t *testing.T) {
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)

	r := newAuthRouter(t, jwtManager)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_InvalidTokenRejected(t *testing.T) {
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)

	r := newAuthRouter(t, jwtManager)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireRole_WrongRoleForbidden(t *testing.T) {
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	token, err := jwtManager.Generate("user-42", auth.RoleCustomer)
	require.NoError(t, err)

	r := newAuthRouter(t, jwtManager, middleware.RequireRole(auth.RoleAdmin))
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireRole_MatchingRolePasses(t *testing.T) {
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	token, err := jwtManager.Generate("admin-1", auth.RoleAdmin)
	require.NoError(t, err)

	r := newAuthRouter(t, jwtManager, middleware.RequireRole(auth.RoleAdmin))
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetSubject_AbsentWithoutAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	_, ok := middleware.GetSubject(c)
	assert.False(t, ok)
}

func TestRequestID_ReusesInboundHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(middleware.RequestID())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-ID", "req-123")
	r.ServeHTTP(w, req)

	assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}
