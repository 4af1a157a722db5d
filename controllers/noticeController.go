package controllers

import (
	"log/slog"
	"net/http"
	"time"

	"hostelgrievance-be/services"

	"github.com/gin-gonic/gin"
)

// NoticeController serves the notice board.
type NoticeController struct {
	notices *services.NoticeService
	logger  *slog.Logger
}

func NewNoticeController(notices *services.NoticeService, logger *slog.Logger) *NoticeController {
	return &NoticeController{notices: notices, logger: logger}
}

type noticeInput struct {
	Title     *string    `json:"title" binding:"omitempty,max=200"`
	Content   *string    `json:"content"`
	Priority  *string    `json:"priority"`
	VisibleTo *string    `json:"visibleTo"`
	Category  *string    `json:"category"`
	Pinned    *bool      `json:"pinned"`
	IsActive  *bool      `json:"isActive"`
	ExpiresAt *time.Time `json:"expiresAt"`
}

func (in noticeInput) toService() services.NoticeInput {
	return services.NoticeInput{
		Title:     in.Title,
		Content:   in.Content,
		Priority:  in.Priority,
		VisibleTo: in.VisibleTo,
		Category:  in.Category,
		Pinned:    in.Pinned,
		IsActive:  in.IsActive,
		ExpiresAt: in.ExpiresAt,
	}
}

// List returns the board as the caller is allowed to see it.
func (h *NoticeController) List(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	notices, err := h.notices.Visible(c.Request.Context(), caller)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, notices)
}

func (h *NoticeController) Create(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	var input noticeInput
	if !bindJSON(c, h.logger, &input) {
		return
	}
	notice, err := h.notices.Create(c.Request.Context(), caller, input.toService())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, notice)
}

func (h *NoticeController) Update(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	var input noticeInput
	if !bindJSON(c, h.logger, &input) {
		return
	}
	notice, err := h.notices.Update(c.Request.Context(), id, input.toService())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, notice)
}

func (h *NoticeController) Delete(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.notices.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Notice deleted"})
}
