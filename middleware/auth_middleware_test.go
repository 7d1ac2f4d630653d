package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/driftmud/driftmud/cache"
	"github.com/driftmud/driftmud/config"
)

var testSec = config.SecurityConfig{JWTSecret: "secret", JWTTTLH: time.Hour}

func authedRouter(t *testing.T) (*gin.Engine, cache.Cache) {
	t.Helper()
	c, err := cache.NewCache(cache.CacheConfig{})
	require.NoError(t, err)

	r := gin.New()
	r.Use(Auth(testSec, c))
	r.GET("/protected", func(ctx *gin.Context) { ctx.Status(http.StatusOK) })
	return r, c
}

func protect(r *gin.Engine, authHeader string) int {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func sessionToken(t *testing.T, c cache.Cache, accountID int64) string {
	t.Helper()
	token, err := GenerateToken(accountID, testSec.JWTSecret, time.Hour)
	require.NoError(t, err)
	require.NoError(t, c.Set(context.Background(), SessionKey(token), "x", time.Hour))
	return token
}

func TestAuthRejectsBadHeaders(t *testing.T) {
	r, _ := authedRouter(t)

	cases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not a bearer", "Token abc123"},
		{"garbage token", "Bearer notavalidtoken"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, http.StatusUnauthorized, protect(r, tc.header))
		})
	}
}

func TestAuthRejectsRevokedSession(t *testing.T) {
	r, _ := authedRouter(t)

	// Valid JWT, but no session entry in the cache.
	token, err := GenerateToken(42, testSec.JWTSecret, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, protect(r, "Bearer "+token))
}

func TestAuthAcceptsLiveSession(t *testing.T) {
	r, c := authedRouter(t)
	token := sessionToken(t, c, 42)
	assert.Equal(t, http.StatusOK, protect(r, "Bearer "+token))
}

func TestAuthExposesAccountID(t *testing.T) {
	c, err := cache.NewCache(cache.CacheConfig{})
	require.NoError(t, err)

	var got int64
	r := gin.New()
	r.Use(Auth(testSec, c))
	r.GET("/me", func(ctx *gin.Context) {
		got = GetAccountID(ctx)
		ctx.Status(http.StatusOK)
	})

	token := sessionToken(t, c, 77)
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(77), got)
}

func TestGetAccountIDWithoutAuth(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Equal(t, int64(0), GetAccountID(c))
}

func TestRecoveryTurnsPanicInto500(t *testing.T) {
	r := gin.New()
	r.Use(TraceID())
	r.Use(Recovery(zap.NewNop()))
	r.GET("/panic", func(c *gin.Context) { panic("boom") })
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	// Healthy handlers are untouched.
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLoggerPassesThrough(t *testing.T) {
	r := gin.New()
	r.Use(TraceID())
	r.Use(Logger(zap.NewNop()))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/fail", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fail", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
