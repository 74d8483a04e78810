package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fatflowers/paygate/pkg/config"
)

// Pinger reports whether the ledger database answers.
type Pinger func(ctx context.Context) error

// @Summary      Health check
// @Description  Returns service status and the ledger backend in use
// @Tags         System
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /health [get]
func Health(driver string, ping Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if ping != nil {
			if err := ping(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "database": driver})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "database": driver})
	}
}

// @Summary      Service info
// @Description  Returns the upload limits and price
// @Tags         System
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       / [get]
func Index(cfg *config.Config) gin.HandlerFunc {
	body := gin.H{
		"status":          "online",
		"max_images":      cfg.Upload.MaxImages,
		"price_per_image": cfg.Payment.Price().StringFixed(2),
	}
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, body)
	}
}

func RegisterHealthRoutes(r gin.IRouter, cfg *config.Config, driver string, ping Pinger) {
	r.GET("/", Index(cfg))
	r.GET("/health", Health(driver, ping))
}
