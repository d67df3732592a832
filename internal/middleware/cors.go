package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CORS adds permissive cross-origin headers. Pre-flight requests advertise
// Authorization as an allowed header as well.
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "POST, OPTIONS")
		if c.Request.Method == http.MethodOptions {
			c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		} else {
			c.Header("Access-Control-Allow-Headers", "Content-Type")
		}
		c.Next()
	}
}

// Preflight answers OPTIONS with an empty 200.
func Preflight(c *gin.Context) {
	c.AbortWithStatus(http.StatusOK)
}
