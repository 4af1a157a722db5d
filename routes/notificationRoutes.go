package routes

import (
	"hostelgrievance-be/middlewares"
	"hostelgrievance-be/models"

	"github.com/gin-gonic/gin"
)

// NotificationRoutes mounts one feed per role. The path segment must match
// the caller's role.
func NotificationRoutes(api *gin.RouterGroup, h Handlers) {
	notifications := api.Group("/notifications", middlewares.AuthMiddleware(h.Tokens))

	feeds := map[string]models.Role{
		"/student":    models.RoleStudent,
		"/technician": models.RoleTechnician,
		"/admin":      models.RoleAdmin,
	}
	for path, role := range feeds {
		feed := notifications.Group(path, middlewares.RequireRole(role))
		feed.GET("", h.Notifications.Feed)
		feed.PATCH("/:id/read", h.Notifications.MarkRead)
	}
}
