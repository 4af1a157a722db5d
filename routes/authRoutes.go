package routes

import (
	"github.com/gin-gonic/gin"
)

// AuthRoutes sets up signup, login and password reset
func AuthRoutes(api *gin.RouterGroup, h Handlers) {
	auth := api.Group("/auth")
	{
		auth.POST("/student-signup", h.Auth.StudentSignup)
		auth.POST("/student-verify-otp", h.Auth.StudentVerifyOTP)
		auth.POST("/technician-signup", h.Auth.TechnicianSignup)
		auth.POST("/technician-verify-otp", h.Auth.TechnicianVerifyOTP)
		auth.POST("/login", h.Auth.Login)
		auth.POST("/forgot-password", h.Auth.ForgotPassword)
		auth.POST("/reset-password", h.Auth.ResetPassword)
	}
}
