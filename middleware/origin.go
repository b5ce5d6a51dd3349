package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Origin rejects browser connections from origins outside the allow list.
// An empty list allows everything (dev mode, same default as the original
// deployment's CORS_ORIGIN=*).
func Origin(allowed []string) gin.HandlerFunc {
	allowAll := len(allowed) == 0
	set := make(map[string]bool, len(allowed))
	for _, a := range allowed {
		set[strings.TrimRight(strings.ToLower(a), "/")] = true
	}
	return func(c *gin.Context) {
		if allowAll {
			c.Next()
			return
		}
		origin := strings.TrimRight(strings.ToLower(c.GetHeader("Origin")), "/")
		// non-browser clients send no Origin header; let them through
		if origin != "" && !set[origin] {
			c.AbortWithStatus(http.StatusForbidden)
			return
		}
		c.Next()
	}
}
