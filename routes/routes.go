package routes

import (
	"net/http"

	"hostelgrievance-be/controllers"
	"hostelgrievance-be/middlewares"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Handlers bundles what the route groups need.
type Handlers struct {
	Auth          *controllers.AuthController
	Complaints    *controllers.ComplaintController
	Admin         *controllers.AdminController
	Notices       *controllers.NoticeController
	Notifications *controllers.NotificationController

	Tokens middlewares.TokenParser

	// Redis backs the complaint creation limit. Nil disables it.
	Redis               *redis.Client
	RateLimitPrefix     string
	ComplaintDailyLimit int
}

// Register mounts every route group under /api.
func Register(r *gin.Engine, h Handlers) {
	api := r.Group("/api")

	AuthRoutes(api, h)
	ComplaintRoutes(api, h)
	AdminRoutes(api, h)
	NoticeRoutes(api, h)
	NotificationRoutes(api, h)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Route not found"})
	})
}
