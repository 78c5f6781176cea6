package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// SetupMainHandlers registers the main application endpoints
func SetupMainHandlers(router *gin.RouterGroup, info map[string]string, metrics http.Handler) {
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"port":             info["port"],
			"mapStyle":         info["mapStyle"],
			"tokenConfigured":  info["tokenConfigured"] == "true",
			"redisConfigured":  info["redisConfigured"] == "true",
			"historyAvailable": info["historyAvailable"] == "true",
		})
	})

	if metrics != nil {
		router.GET("/metrics", gin.WrapH(metrics))
	}
}
