package router

import (
	"time"

	"github.com/taitanx/media-delivery-backend/internal/handlers"
	"github.com/taitanx/media-delivery-backend/internal/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Media    *handlers.MediaHandler
	Cache    *handlers.CacheHandler
	Admin    *handlers.AdminHandler
	AdminKey *middleware.AdminKeyMiddleware
}

// SetupRouter configures the Gin router with media delivery routes
func SetupRouter(h Handlers) *gin.Engine {
	// Set Gin mode
	gin.SetMode(gin.ReleaseMode)

	// Create a new router
	r := gin.New()

	// Use middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())

	// Configure CORS
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-API-Key"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	logrus.Info("Swagger UI endpoint registered at /swagger/index.html")

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Service banner
	r.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"service": "TaitanX Media Delivery API",
			"status":  "running",
		})
	})

	// Media delivery
	r.GET("/audio", h.Media.Audio)
	r.GET("/video", h.Media.Video)

	// Cache maintenance
	r.GET("/cache/stats", h.Cache.Stats)
	r.DELETE("/cache/:content_id", h.Cache.Clear)
	// Legacy path kept for older clients
	r.GET("/cache/clear/:content_id", h.Cache.Clear)
	r.DELETE("/cache/clear/:content_id", h.Cache.Clear)

	// Admin routes
	admin := r.Group("/admin")
	admin.Use(h.AdminKey.RequireAdmin())
	{
		admin.POST("/keys", h.Admin.IssueKey)
		admin.GET("/keys", h.Admin.ListKeys)
		admin.DELETE("/keys/:key", h.Admin.RevokeKey)
		admin.GET("/stats", h.Admin.Stats)
		admin.GET("/export", h.Admin.Export)
	}

	return r
}
