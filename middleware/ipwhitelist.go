package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// IPWhitelist rejects clients whose IP is not on the list with a 403. An
// empty list disables the check entirely, which is the open-by-default the
// server warns about at startup.
func IPWhitelist(ips []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(ips))
	for _, ip := range ips {
		allowed[ip] = struct{}{}
	}
	return func(c *gin.Context) {
		if len(allowed) > 0 {
			if _, ok := allowed[c.ClientIP()]; !ok {
				c.AbortWithStatusJSON(http.StatusForbidden,
					gin.H{"error": "access denied"})
				return
			}
		}
		c.Next()
	}
}
