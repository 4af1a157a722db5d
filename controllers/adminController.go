package controllers

import (
	"context"
	"log/slog"
	"net/http"

	"hostelgrievance-be/services"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AdminController administers student and technician master records.
type AdminController struct {
	admin  *services.AdminService
	logger *slog.Logger
}

func NewAdminController(admin *services.AdminService, logger *slog.Logger) *AdminController {
	return &AdminController{admin: admin, logger: logger}
}

func (h *AdminController) AddStudent(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	var input struct {
		RegNo      string `json:"regNo" binding:"required"`
		Name       string `json:"name" binding:"required,max=100"`
		Email      string `json:"email" binding:"required,email"`
		RoomNumber string `json:"roomNumber" binding:"required"`
		Block      string `json:"block"`
	}
	if !bindJSON(c, h.logger, &input) {
		return
	}

	student, err := h.admin.AddStudent(c.Request.Context(), caller, services.StudentInput{
		RegNo:      input.RegNo,
		Name:       input.Name,
		Email:      input.Email,
		RoomNumber: input.RoomNumber,
		Block:      input.Block,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Student added", "student": student})
}

func (h *AdminController) Students(c *gin.Context) {
	students, err := h.admin.Students(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, students)
}

func (h *AdminController) AddTechnician(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	var input struct {
		TechID     string `json:"techId" binding:"required"`
		Name       string `json:"name" binding:"required,max=100"`
		Email      string `json:"email" binding:"required,email"`
		Department string `json:"department" binding:"required"`
		Block      string `json:"block"`
	}
	if !bindJSON(c, h.logger, &input) {
		return
	}

	tech, err := h.admin.AddTechnician(c.Request.Context(), caller, services.TechnicianInput{
		TechID:     input.TechID,
		Name:       input.Name,
		Email:      input.Email,
		Department: input.Department,
		Block:      input.Block,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Technician added", "technician": tech})
}

func (h *AdminController) Technicians(c *gin.Context) {
	techs, err := h.admin.Technicians(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, techs)
}

type recordAction func(ctx context.Context, caller services.Caller, id primitive.ObjectID) error

// act runs a per-record admin action and replies with message.
func (h *AdminController) act(action recordAction, message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := callerOrAbort(c)
		if !ok {
			return
		}
		id, ok := objectIDParam(c, "id")
		if !ok {
			return
		}
		if err := action(c.Request.Context(), caller, id); err != nil {
			respondError(c, h.logger, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": message})
	}
}

func (h *AdminController) DeactivateStudent() gin.HandlerFunc {
	return h.act(h.admin.DeactivateStudent, "Student deactivated")
}

func (h *AdminController) ReactivateStudent() gin.HandlerFunc {
	return h.act(h.admin.ReactivateStudent, "Student reactivated")
}

func (h *AdminController) DeleteStudent() gin.HandlerFunc {
	return h.act(h.admin.DeleteStudent, "Student deleted")
}

func (h *AdminController) DeactivateTechnician() gin.HandlerFunc {
	return h.act(h.admin.DeactivateTechnician, "Technician deactivated")
}

func (h *AdminController) ReactivateTechnician() gin.HandlerFunc {
	return h.act(h.admin.ReactivateTechnician, "Technician reactivated")
}

func (h *AdminController) DeleteTechnician() gin.HandlerFunc {
	return h.act(h.admin.DeleteTechnician, "Technician deleted")
}
