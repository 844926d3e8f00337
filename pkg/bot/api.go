package bot

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"courierbot/pkg/logger"
	"courierbot/pkg/models"
	"courierbot/storage"
)

// RunServer exposes a small read-only status API next to the bot.
func RunServer(port int, stg storage.IStorage, log logger.ILogger) error {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	// CORS
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	api := r.Group("/api")
	{
		api.GET("/orders/active", func(c *gin.Context) {
			c.JSON(http.StatusOK, stg.Order().ByStatus(
				models.StatusAssigned, models.StatusPickedUp, models.StatusArrived))
		})

		api.GET("/orders/queue", func(c *gin.Context) {
			c.JSON(http.StatusOK, stg.Order().ByStatus(models.StatusNew))
		})

		api.GET("/drivers/connected", func(c *gin.Context) {
			c.JSON(http.StatusOK, stg.Driver().Connected())
		})
	}

	log.Info("status API listening", logger.Int("port", port))
	return r.Run(fmt.Sprintf(":%d", port))
}
