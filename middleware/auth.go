package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/driftmud/driftmud/cache"
	"github.com/driftmud/driftmud/config"
)

// AccountIDKey is the gin context key the authenticated account id is
// stored under.
const AccountIDKey = "account_id"

const sessionPrefix = "session:"

// SessionKey returns the cache key a session token is stored under.
func SessionKey(token string) string { return sessionPrefix + token }

// Auth requires a valid Bearer token whose session is still live in the
// cache. Logging out deletes the session entry, so a token can be revoked
// before its JWT expiry.
func Auth(sec config.SecurityConfig, c cache.Cache) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token, ok := bearerToken(ctx)
		if !ok {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}
		claims, err := ParseToken(token, sec.JWTSecret)
		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		cacheCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
		defer cancel()
		live, err := c.Exists(cacheCtx, SessionKey(token))
		if err != nil || !live {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session expired"})
			return
		}

		ctx.Set(AccountIDKey, claims.AccountID)
		ctx.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	return strings.TrimPrefix(header, "Bearer "), true
}

// GetAccountID returns the authenticated account id, 0 when the Auth
// middleware did not run.
func GetAccountID(c *gin.Context) int64 {
	if v, ok := c.Get(AccountIDKey); ok {
		return v.(int64)
	}
	return 0
}
