package routes

import (
	"hostelgrievance-be/middlewares"
	"hostelgrievance-be/models"

	"github.com/gin-gonic/gin"
)

// NoticeRoutes sets up the notice board
func NoticeRoutes(api *gin.RouterGroup, h Handlers) {
	notices := api.Group("/notices", middlewares.AuthMiddleware(h.Tokens))
	admin := middlewares.RequireRole(models.RoleAdmin)
	{
		notices.GET("", middlewares.RequireRole(models.RoleStudent, models.RoleTechnician, models.RoleAdmin), h.Notices.List)
		notices.POST("", admin, h.Notices.Create)
		notices.PATCH("/:id", admin, h.Notices.Update)
		notices.DELETE("/:id", admin, h.Notices.Delete)
	}
}
