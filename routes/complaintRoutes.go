package routes

import (
	"hostelgrievance-be/middlewares"
	"hostelgrievance-be/models"

	"github.com/gin-gonic/gin"
)

// ComplaintRoutes sets up the complaint lifecycle routes
func ComplaintRoutes(api *gin.RouterGroup, h Handlers) {
	complaints := api.Group("/complaints", middlewares.AuthMiddleware(h.Tokens))

	student := middlewares.RequireRole(models.RoleStudent)
	technician := middlewares.RequireRole(models.RoleTechnician)
	admin := middlewares.RequireRole(models.RoleAdmin)

	// Student
	complaints.POST("", student,
		middlewares.ComplaintRateLimiter(h.Redis, h.RateLimitPrefix, h.ComplaintDailyLimit),
		h.Complaints.Create)
	complaints.GET("/my", student, h.Complaints.MyComplaints)
	complaints.PATCH("/:id/confirm", student, h.Complaints.Confirm)
	complaints.PATCH("/:id/reject", student, h.Complaints.Reject)
	complaints.PATCH("/:id/rate", student, h.Complaints.Rate)
	complaints.DELETE("/:id", student, h.Complaints.Delete)

	// Technician
	complaints.GET("/technician", technician, h.Complaints.TechnicianQueue)
	complaints.PATCH("/:id/status", technician, h.Complaints.UpdateStatus)
	complaints.POST("/:id/repair-image", technician, h.Complaints.UploadRepairImages)
	complaints.GET("/similar/:id", technician, h.Complaints.Similar)

	// Admin
	complaints.GET("/admin/all", admin, h.Complaints.AllComplaints)
	complaints.GET("/admin/ragging", admin, h.Complaints.RaggingComplaints)
	complaints.PATCH("/admin/ragging/:id/review", admin, h.Complaints.ReviewRagging)
	complaints.PATCH("/admin/ragging/:id/remark", admin, h.Complaints.SaveAdminRemark)
}
