package controllers

import (
	"log/slog"
	"net/http"

	"hostelgrievance-be/models"
	"hostelgrievance-be/services"

	"github.com/gin-gonic/gin"
)

// AuthController serves signup, login and password reset.
type AuthController struct {
	auth   *services.AuthService
	logger *slog.Logger
}

func NewAuthController(auth *services.AuthService, logger *slog.Logger) *AuthController {
	return &AuthController{auth: auth, logger: logger}
}

type studentSignupInput struct {
	RegNo    string `json:"regNo" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
}

type technicianSignupInput struct {
	TechID   string `json:"techId" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
}

type studentVerifyInput struct {
	RegNo    string `json:"regNo" binding:"required"`
	OTP      string `json:"otp" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
}

type technicianVerifyInput struct {
	TechID   string `json:"techId" binding:"required"`
	OTP      string `json:"otp" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
}

// StudentSignup mails a signup OTP to the student's registered email.
func (h *AuthController) StudentSignup(c *gin.Context) {
	var input studentSignupInput
	if !bindJSON(c, h.logger, &input) {
		return
	}
	if err := h.auth.RequestSignupChallenge(c.Request.Context(), input.RegNo, models.RoleStudent, input.Password); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "OTP sent to registered email"})
}

// StudentVerifyOTP creates the student account.
func (h *AuthController) StudentVerifyOTP(c *gin.Context) {
	var input studentVerifyInput
	if !bindJSON(c, h.logger, &input) {
		return
	}
	if _, err := h.auth.VerifySignupChallenge(c.Request.Context(), input.RegNo, models.RoleStudent, input.OTP, input.Password); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Signup successful"})
}

func (h *AuthController) TechnicianSignup(c *gin.Context) {
	var input technicianSignupInput
	if !bindJSON(c, h.logger, &input) {
		return
	}
	if err := h.auth.RequestSignupChallenge(c.Request.Context(), input.TechID, models.RoleTechnician, input.Password); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "OTP sent to registered email"})
}

func (h *AuthController) TechnicianVerifyOTP(c *gin.Context) {
	var input technicianVerifyInput
	if !bindJSON(c, h.logger, &input) {
		return
	}
	if _, err := h.auth.VerifySignupChallenge(c.Request.Context(), input.TechID, models.RoleTechnician, input.OTP, input.Password); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Signup successful"})
}

// Login accepts a registration number, technician id or email.
func (h *AuthController) Login(c *gin.Context) {
	var input struct {
		Identifier string `json:"identifier" binding:"required"`
		Password   string `json:"password" binding:"required"`
	}
	if !bindJSON(c, h.logger, &input) {
		return
	}

	result, err := h.auth.Login(c.Request.Context(), input.Identifier, input.Password)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	account := result.Account
	c.JSON(http.StatusOK, gin.H{
		"token":      result.Token,
		"role":       account.Role,
		"name":       account.Name,
		"regNo":      nullable(account.RegNo),
		"techId":     nullable(account.TechID),
		"roomNumber": nullable(account.RoomNumber),
		"department": nullable(string(account.Department)),
	})
}

func (h *AuthController) ForgotPassword(c *gin.Context) {
	var input struct {
		Identifier string `json:"identifier" binding:"required"`
	}
	if !bindJSON(c, h.logger, &input) {
		return
	}
	if err := h.auth.RequestPasswordReset(c.Request.Context(), input.Identifier); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "OTP sent to registered email"})
}

func (h *AuthController) ResetPassword(c *gin.Context) {
	var input struct {
		Identifier  string `json:"identifier" binding:"required"`
		OTP         string `json:"otp" binding:"required"`
		NewPassword string `json:"newPassword" binding:"required,min=6"`
		Role        string `json:"role" binding:"required"`
	}
	if !bindJSON(c, h.logger, &input) {
		return
	}

	role, ok := models.ParseRole(input.Role)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Role is required"})
		return
	}
	if err := h.auth.ResetPassword(c.Request.Context(), input.Identifier, input.OTP, input.NewPassword, role); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password reset successful"})
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
