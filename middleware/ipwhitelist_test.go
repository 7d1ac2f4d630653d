package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func pingFrom(r *gin.Engine, ip string) int {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Real-IP", ip)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func whitelistRouter(ips []string) *gin.Engine {
	r := gin.New()
	r.Use(IPWhitelist(ips))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestIPWhitelistEmptyAllowsAnyClient(t *testing.T) {
	r := whitelistRouter(nil)
	assert.Equal(t, http.StatusOK, pingFrom(r, "1.2.3.4"))
}

func TestIPWhitelistFiltersClients(t *testing.T) {
	r := whitelistRouter([]string{"10.0.0.1", "10.0.0.2"})
	assert.Equal(t, http.StatusOK, pingFrom(r, "10.0.0.1"))
	assert.Equal(t, http.StatusOK, pingFrom(r, "10.0.0.2"))
	assert.Equal(t, http.StatusForbidden, pingFrom(r, "10.0.0.3"))
	assert.Equal(t, http.StatusForbidden, pingFrom(r, "1.2.3.4"))
}
