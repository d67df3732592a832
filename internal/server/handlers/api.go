package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/FuadModaresi/music-analysis/internal/apiroutes"
)

// APIRootHandler lists every registered route.
func APIRootHandler(registry *apiroutes.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service":           "music-analysis",
			"status":            "OK",
			"registered_routes": registry.Get(),
		})
	}
}
