package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func limitedRouter(r rate.Limit, b int) *gin.Engine {
	eng := gin.New()
	eng.Use(RateLimit(r, b))
	eng.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })
	return eng
}

func hitFrom(r *gin.Engine, ip string) int {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Real-IP", ip)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimitBurstThenReject(t *testing.T) {
	// Near-zero refill so the bucket never recovers within the test.
	r := limitedRouter(0.001, 3)
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, hitFrom(r, "10.0.1.1"), "request %d", i+1)
	}
	assert.Equal(t, http.StatusTooManyRequests, hitFrom(r, "10.0.1.1"))
}

func TestRateLimitBucketsPerIP(t *testing.T) {
	r := limitedRouter(0.001, 1)
	assert.Equal(t, http.StatusOK, hitFrom(r, "10.1.1.1"))
	assert.Equal(t, http.StatusOK, hitFrom(r, "10.1.1.2"))
	assert.Equal(t, http.StatusTooManyRequests, hitFrom(r, "10.1.1.1"))
}
