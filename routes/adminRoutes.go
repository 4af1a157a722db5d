package routes

import (
	"hostelgrievance-be/middlewares"
	"hostelgrievance-be/models"

	"github.com/gin-gonic/gin"
)

// AdminRoutes sets up master record administration
func AdminRoutes(api *gin.RouterGroup, h Handlers) {
	admin := api.Group("/admin",
		middlewares.AuthMiddleware(h.Tokens),
		middlewares.RequireRole(models.RoleAdmin))
	{
		admin.POST("/students", h.Admin.AddStudent)
		admin.GET("/students", h.Admin.Students)
		admin.PATCH("/students/:id/deactivate", h.Admin.DeactivateStudent())
		admin.PATCH("/students/:id/reactivate", h.Admin.ReactivateStudent())
		admin.DELETE("/students/:id", h.Admin.DeleteStudent())

		admin.POST("/technicians", h.Admin.AddTechnician)
		admin.GET("/technicians", h.Admin.Technicians)
		admin.PATCH("/technicians/:id/deactivate", h.Admin.DeactivateTechnician())
		admin.PATCH("/technicians/:id/reactivate", h.Admin.ReactivateTechnician())
		admin.DELETE("/technicians/:id", h.Admin.DeleteTechnician())
	}
}
