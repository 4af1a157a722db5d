package controllers

import (
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"hostelgrievance-be/services"
	"hostelgrievance-be/utils"

	"github.com/gin-gonic/gin"
)

// ComplaintController serves the complaint lifecycle endpoints.
type ComplaintController struct {
	complaints *services.ComplaintService
	images     *utils.ImageStore
	logger     *slog.Logger
}

func NewComplaintController(complaints *services.ComplaintService, images *utils.ImageStore, logger *slog.Logger) *ComplaintController {
	return &ComplaintController{complaints: complaints, images: images, logger: logger}
}

type createComplaintInput struct {
	ComplaintText string `form:"complaintText" json:"complaintText" binding:"required,max=2000"`
	Category      string `form:"category" json:"category" binding:"required"`
	RoomNumber    string `form:"roomNumber" json:"roomNumber"`
	Priority      string `form:"priority" json:"priority"`
	IsAnonymous   bool   `form:"isAnonymous" json:"isAnonymous"`
	IsRagging     bool   `form:"isRagging" json:"isRagging"`
}

// uploadedFiles returns the files posted under field, if the request is
// multipart.
func uploadedFiles(c *gin.Context, field string) []*multipart.FileHeader {
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		return nil
	}
	form, err := c.MultipartForm()
	if err != nil || form == nil {
		return nil
	}
	return form.File[field]
}

// storeImages validates and saves the files under field.
func (h *ComplaintController) storeImages(c *gin.Context, field string) ([]string, bool) {
	files := uploadedFiles(c, field)
	if len(files) == 0 {
		return nil, true
	}
	if err := h.images.Validate(files); err != nil {
		respondError(c, h.logger, err)
		return nil, false
	}
	refs, err := h.images.Save(files)
	if err != nil {
		respondError(c, h.logger, err)
		return nil, false
	}
	return refs, true
}

// Create files a complaint with up to five evidence images.
func (h *ComplaintController) Create(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}

	var input createComplaintInput
	if !bindForm(c, h.logger, &input) {
		return
	}

	refs, ok := h.storeImages(c, "images")
	if !ok {
		return
	}

	complaint, err := h.complaints.Create(c.Request.Context(), caller, services.CreateComplaintRequest{
		Text:        input.ComplaintText,
		Category:    input.Category,
		RoomNumber:  input.RoomNumber,
		Priority:    input.Priority,
		IsAnonymous: input.IsAnonymous,
		IsRagging:   input.IsRagging,
		Images:      refs,
	})
	if err != nil {
		h.images.Remove(refs)
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, complaint)
}

// MyComplaints lists the student's own complaints.
func (h *ComplaintController) MyComplaints(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	complaints, err := h.complaints.MyComplaints(c.Request.Context(), caller)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, complaints)
}

func (h *ComplaintController) Confirm(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	complaint, err := h.complaints.Confirm(c.Request.Context(), caller, id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, complaint)
}

func (h *ComplaintController) Reject(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	complaint, err := h.complaints.Reject(c.Request.Context(), caller, id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, complaint)
}

// Rate accepts the feedback as either feedback or ratingFeedback.
func (h *ComplaintController) Rate(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	var input struct {
		Rating         int    `json:"rating"`
		Feedback       string `json:"feedback"`
		RatingFeedback string `json:"ratingFeedback"`
	}
	if !bindJSON(c, h.logger, &input) {
		return
	}
	feedback := input.Feedback
	if feedback == "" {
		feedback = input.RatingFeedback
	}

	complaint, err := h.complaints.Rate(c.Request.Context(), caller, id, input.Rating, feedback)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, complaint)
}

func (h *ComplaintController) Delete(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.complaints.Delete(c.Request.Context(), caller, id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// TechnicianQueue lists the technician's department queue.
func (h *ComplaintController) TechnicianQueue(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	complaints, err := h.complaints.TechnicianQueue(c.Request.Context(), caller)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, complaints)
}

func (h *ComplaintController) UpdateStatus(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	var input struct {
		Status          string `json:"status" binding:"required"`
		Remark          string `json:"remark"`
		SolutionSummary string `json:"solutionSummary"`
	}
	if !bindJSON(c, h.logger, &input) {
		return
	}

	complaint, err := h.complaints.UpdateStatus(c.Request.Context(), caller, id, input.Status, input.Remark, input.SolutionSummary)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, complaint)
}

// UploadRepairImages attaches repair evidence posted as repairImages.
func (h *ComplaintController) UploadRepairImages(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	if len(uploadedFiles(c, "repairImages")) == 0 {
		respondError(c, h.logger, utils.ErrNoImagesPosted)
		return
	}

	refs, ok := h.storeImages(c, "repairImages")
	if !ok {
		return
	}
	complaint, err := h.complaints.UploadRepairImages(c.Request.Context(), caller, id, refs)
	if err != nil {
		h.images.Remove(refs)
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, complaint)
}

func (h *ComplaintController) Similar(c *gin.Context) {
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	complaints, err := h.complaints.Similar(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, complaints)
}

func (h *ComplaintController) AllComplaints(c *gin.Context) {
	complaints, err := h.complaints.AllComplaints(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, complaints)
}

func (h *ComplaintController) RaggingComplaints(c *gin.Context) {
	complaints, err := h.complaints.RaggingComplaints(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, complaints)
}

type remarkInput struct {
	Remark string `json:"remark"`
}

func (h *ComplaintController) ReviewRagging(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	var input remarkInput
	if !bindJSON(c, h.logger, &input) {
		return
	}
	complaint, err := h.complaints.ReviewRagging(c.Request.Context(), caller, id, input.Remark)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, complaint)
}

func (h *ComplaintController) SaveAdminRemark(c *gin.Context) {
	caller, ok := callerOrAbort(c)
	if !ok {
		return
	}
	id, ok := objectIDParam(c, "id")
	if !ok {
		return
	}
	var input remarkInput
	if !bindJSON(c, h.logger, &input) {
		return
	}
	complaint, err := h.complaints.SaveAdminRemark(c.Request.Context(), caller, id, input.Remark)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, complaint)
}
