package rest

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/driftmud/driftmud/cache"
	"github.com/driftmud/driftmud/config"
	mw "github.com/driftmud/driftmud/middleware"
	"github.com/driftmud/driftmud/model"
)

const (
	bcryptCost   = 12
	cacheTimeout = 2 * time.Second
)

// sessionsKey is the set of an account's live session tokens.
func sessionsKey(accountID int64) string {
	return "account_sessions:" + strconv.FormatInt(accountID, 10)
}

// sessionMetaKey is the hash of token -> client IP for an account.
func sessionMetaKey(accountID int64) string {
	return "account_sessions_meta:" + strconv.FormatInt(accountID, 10)
}

// AuthHandler serves the account endpoints: login (with first-login
// registration), logout, and token refresh.
type AuthHandler struct {
	db    *gorm.DB
	cache cache.Cache
	sec   config.SecurityConfig
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(db *gorm.DB, c cache.Cache, sec config.SecurityConfig) *AuthHandler {
	return &AuthHandler{db: db, cache: c, sec: sec}
}

type loginRequest struct {
	Username string `json:"username" binding:"required,min=2,max=32"`
	Password string `json:"password" binding:"required,min=4,max=64"`
}

// Login authenticates an account, creating it on first login. A fresh token
// is issued and its session stored in the cache.
// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var acc model.Account
	err := h.db.Where("username = ?", req.Username).First(&acc).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		acc, err = h.register(req.Username, req.Password)
		if err != nil {
			if isUniqueViolation(err) {
				// Lost a race with a concurrent first login for the same name.
				c.JSON(http.StatusConflict, gin.H{"error": "username already taken"})
			} else {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
			}
			return
		}
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	default:
		if bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(req.Password)) != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		if acc.Status == 0 {
			c.JSON(http.StatusForbidden, gin.H{"error": "account banned"})
			return
		}
	}

	token, err := h.openSession(c, acc.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token error"})
		return
	}

	// Best-effort login bookkeeping.
	now := time.Now()
	_ = h.db.Model(&acc).Updates(map[string]interface{}{
		"last_login_at": now,
		"last_login_ip": c.ClientIP(),
	})

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"account_id": acc.ID,
		"username":   acc.Username,
	})
}

func (h *AuthHandler) register(username, password string) (model.Account, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return model.Account{}, err
	}
	acc := model.Account{
		Username:     username,
		PasswordHash: string(hash),
		Status:       1,
	}
	return acc, h.db.Create(&acc).Error
}

func (h *AuthHandler) openSession(c *gin.Context, accountID int64) (string, error) {
	token, err := mw.GenerateToken(accountID, h.sec.JWTSecret, h.sec.JWTTTLH)
	if err != nil {
		return "", err
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), cacheTimeout)
	defer cancel()
	_ = h.cache.Set(ctx, mw.SessionKey(token), strconv.FormatInt(accountID, 10), h.sec.JWTTTLH)
	_ = h.cache.SAdd(ctx, sessionsKey(accountID), token)
	_ = h.cache.HSet(ctx, sessionMetaKey(accountID), token, c.ClientIP())
	return token, nil
}

// closeSession revokes one token and drops it from the account's session
// index.
func (h *AuthHandler) closeSession(ctx context.Context, accountID int64, token string) {
	_ = h.cache.Del(ctx, mw.SessionKey(token))
	_ = h.cache.SRem(ctx, sessionsKey(accountID), token)
	_ = h.cache.HDel(ctx, sessionMetaKey(accountID), token)
}

// Logout revokes the current session token.
// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing token"})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), cacheTimeout)
	defer cancel()
	h.closeSession(ctx, mw.GetAccountID(c), token)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

type sessionInfo struct {
	IP      string `json:"ip"`
	Current bool   `json:"current"`
}

// Sessions lists the account's live sessions. Tokens whose cache entry has
// expired are pruned from the index on the way through. Tokens themselves
// are not echoed back; each entry carries the client IP it was issued to.
// GET /api/auth/sessions
func (h *AuthHandler) Sessions(c *gin.Context) {
	accountID := mw.GetAccountID(c)
	if accountID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	own := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")

	ctx, cancel := context.WithTimeout(c.Request.Context(), cacheTimeout)
	defer cancel()
	tokens, err := h.cache.SMembers(ctx, sessionsKey(accountID))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	meta, _ := h.cache.HGetAll(ctx, sessionMetaKey(accountID))

	sort.Strings(tokens)
	out := make([]sessionInfo, 0, len(tokens))
	for _, tok := range tokens {
		live, err := h.cache.Exists(ctx, mw.SessionKey(tok))
		if err != nil {
			continue
		}
		if !live {
			h.closeSession(ctx, accountID, tok)
			continue
		}
		out = append(out, sessionInfo{IP: meta[tok], Current: tok == own})
	}
	c.JSON(http.StatusOK, gin.H{"sessions": out})
}

// Refresh revokes the current token and issues a new one.
// POST /api/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	accountID := mw.GetAccountID(c)
	if accountID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	old := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	ctx, cancel := context.WithTimeout(c.Request.Context(), cacheTimeout)
	defer cancel()
	h.closeSession(ctx, accountID, old)

	token, err := h.openSession(c, accountID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

// isUniqueViolation detects duplicate-key errors across the supported
// database drivers, which do not share a typed error.
func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") ||
		strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "already exists")
}
