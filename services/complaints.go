package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"hostelgrievance-be/apperrors"
	"hostelgrievance-be/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SimilarLimit caps the similarity query.
const SimilarLimit = 5

// ComplaintService runs the complaint lifecycle. Every mutation is a
// read-modify-write guarded by ComplaintStore.Update.
type ComplaintService struct {
	complaints ComplaintStore
	identities IdentityStore
	notifier   Notifier
	logger     *slog.Logger

	Now func() time.Time
}

// NewComplaintService wires the lifecycle engine.
func NewComplaintService(complaints ComplaintStore, identities IdentityStore, notifier Notifier, logger *slog.Logger) *ComplaintService {
	return &ComplaintService{
		complaints: complaints,
		identities: identities,
		notifier:   notifier,
		logger:     logger,
		Now:        time.Now,
	}
}

// CreateComplaintRequest is what a student submits.
type CreateComplaintRequest struct {
	Text        string
	Category    string
	RoomNumber  string
	Priority    string
	IsAnonymous bool
	IsRagging   bool
	Images      []string
}

// Create files a new Pending complaint for the calling student.
func (s *ComplaintService) Create(ctx context.Context, caller Caller, req CreateComplaintRequest) (*models.Complaint, error) {
	if caller.Role != models.RoleStudent {
		return nil, apperrors.ErrForbidden
	}
	text := strings.TrimSpace(req.Text)
	if text == "" || strings.TrimSpace(req.Category) == "" {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "Complaint text and category required")
	}
	category, ok := models.ParseCategory(req.Category)
	if !ok {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "Invalid category")
	}
	priority, ok := models.ParsePriority(req.Priority)
	if !ok {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "Invalid priority")
	}

	// Ragging reports may concern another room, so the room is explicit.
	room := caller.RoomNumber
	if req.IsRagging {
		room = req.RoomNumber
	}
	room = strings.ToUpper(strings.TrimSpace(room))
	if room == "" {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "Room number required")
	}

	c := models.NewComplaint(models.NewComplaintInput{
		Text:        text,
		Category:    category,
		RoomNumber:  room,
		Priority:    priority,
		Images:      req.Images,
		IsAnonymous: req.IsAnonymous,
		IsRagging:   req.IsRagging,
	}, caller.AccountID, caller.RegNo, s.Now())
	if err := s.complaints.Insert(ctx, c); err != nil {
		return nil, err
	}

	if c.IsRagging {
		s.notify(ctx, nil, models.RoleAdmin, models.NotificationRagging, models.PriorityHigh, c.ID,
			"Ragging complaint", "A new ragging complaint has been reported for room "+c.RoomNumber+".")
	}
	return c, nil
}

// MyComplaints lists the caller's own complaints, newest first.
func (s *ComplaintService) MyComplaints(ctx context.Context, caller Caller) ([]models.Complaint, error) {
	return s.complaints.List(ctx, models.ComplaintFilter{UserID: &caller.AccountID})
}

// TechnicianQueue lists the complaints a technician may work: their
// department's non-ragging complaints that are unassigned or theirs.
func (s *ComplaintService) TechnicianQueue(ctx context.Context, caller Caller) ([]models.Complaint, error) {
	tech, err := s.technicianFor(ctx, caller)
	if err != nil {
		return nil, err
	}
	notRagging := false
	return s.complaints.List(ctx, models.ComplaintFilter{
		Category:         tech.Department,
		Ragging:          &notRagging,
		AssignedToOrFree: &tech.ID,
	})
}

// technicianFor resolves the caller's master record and checks it is active.
func (s *ComplaintService) technicianFor(ctx context.Context, caller Caller) (*models.TechnicianMaster, error) {
	if caller.Role != models.RoleTechnician || caller.TechID == "" {
		return nil, apperrors.ErrTechnicianNotValid
	}
	tech, err := s.identities.FindTechnician(ctx, caller.TechID)
	if errors.Is(err, apperrors.ErrIdentityNotFound) {
		return nil, apperrors.ErrTechnicianNotValid
	}
	if err != nil {
		return nil, err
	}
	if !tech.Activated || tech.IsDeleted {
		return nil, apperrors.ErrTechnicianNotValid
	}
	return tech, nil
}

// mutate loads a complaint, applies fn and writes it back conditionally.
func (s *ComplaintService) mutate(ctx context.Context, id primitive.ObjectID, fn func(c *models.Complaint, now time.Time) error) (*models.Complaint, error) {
	c, err := s.complaints.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	prev := c.Status
	if err := fn(c, s.Now()); err != nil {
		return nil, err
	}
	if err := s.complaints.Update(ctx, c, prev); err != nil {
		return nil, err
	}
	return c, nil
}

// UpdateStatus is the technician transition: claim (Pending to In Progress)
// or resolve (In Progress to Resolved).
func (s *ComplaintService) UpdateStatus(ctx context.Context, caller Caller, id primitive.ObjectID, status, remark, solution string) (*models.Complaint, error) {
	to := models.Status(strings.TrimSpace(status))
	if !models.ValidStatus(to) {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "Invalid status")
	}
	tech, err := s.technicianFor(ctx, caller)
	if err != nil {
		return nil, err
	}

	c, err := s.mutate(ctx, id, func(c *models.Complaint, now time.Time) error {
		return c.Advance(to, tech, caller.Actor(), remark, solution, now)
	})
	if err != nil {
		return nil, err
	}

	switch to {
	case models.StatusInProgress:
		s.notify(ctx, &c.UserID, models.RoleStudent, models.NotificationAssignment, models.PriorityLow, c.ID,
			"Complaint in progress", tech.Name+" is now working on your complaint.")
	case models.StatusResolved:
		s.notify(ctx, &c.UserID, models.RoleStudent, models.NotificationStatusUpdate, models.PriorityMedium, c.ID,
			"Complaint resolved", "Your complaint is resolved. Please confirm or it will auto-complete.")
	}
	return c, nil
}

// Confirm is the owning student's acceptance of a resolution.
func (s *ComplaintService) Confirm(ctx context.Context, caller Caller, id primitive.ObjectID) (*models.Complaint, error) {
	return s.mutate(ctx, id, func(c *models.Complaint, now time.Time) error {
		return c.Confirm(caller.Actor(), models.RemarkStudentConfirmed, now)
	})
}

// AutoConfirm completes a stale resolution on behalf of the System actor.
func (s *ComplaintService) AutoConfirm(ctx context.Context, c *models.Complaint) error {
	prev := c.Status
	if err := c.Confirm(models.SystemActor, models.RemarkAutoConfirmed, s.Now()); err != nil {
		return err
	}
	if err := s.complaints.Update(ctx, c, prev); err != nil {
		return err
	}
	s.notify(ctx, &c.UserID, models.RoleStudent, models.NotificationSystem, models.PriorityLow, c.ID,
		"Complaint completed", "Your complaint was marked completed automatically after 24 hours.")
	return nil
}

// Reject sends a resolution back to the assigned technician.
func (s *ComplaintService) Reject(ctx context.Context, caller Caller, id primitive.ObjectID) (*models.Complaint, error) {
	c, err := s.mutate(ctx, id, func(c *models.Complaint, now time.Time) error {
		return c.Reject(caller.Actor(), now)
	})
	if err != nil {
		return nil, err
	}
	if c.AssignedTechnicianAccount != nil {
		s.notify(ctx, c.AssignedTechnicianAccount, models.RoleTechnician, models.NotificationStatusUpdate, models.PriorityHigh, c.ID,
			"Resolution rejected", "The student rejected your resolution. Please take another look.")
	}
	return c, nil
}

// Rate stores the owner's rating of a completed complaint.
func (s *ComplaintService) Rate(ctx context.Context, caller Caller, id primitive.ObjectID, rating int, feedback string) (*models.Complaint, error) {
	if rating < 1 || rating > 5 {
		return nil, apperrors.ErrInvalidRating
	}
	c, err := s.mutate(ctx, id, func(c *models.Complaint, now time.Time) error {
		return c.Rate(caller.Actor(), rating, feedback, now)
	})
	if err != nil {
		return nil, err
	}
	if c.AssignedTechnicianAccount != nil {
		s.notify(ctx, c.AssignedTechnicianAccount, models.RoleTechnician, models.NotificationRating, models.PriorityLow, c.ID,
			"New rating", "A student rated your work.")
	}
	return c, nil
}

// Delete soft-deletes the caller's complaint.
func (s *ComplaintService) Delete(ctx context.Context, caller Caller, id primitive.ObjectID) error {
	_, err := s.mutate(ctx, id, func(c *models.Complaint, now time.Time) error {
		return c.SoftDelete(caller.Actor(), now)
	})
	return err
}

// UploadRepairImages attaches repair evidence from the assigned technician.
func (s *ComplaintService) UploadRepairImages(ctx context.Context, caller Caller, id primitive.ObjectID, refs []string) (*models.Complaint, error) {
	if len(refs) == 0 {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "No images uploaded")
	}
	tech, err := s.technicianFor(ctx, caller)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, id, func(c *models.Complaint, now time.Time) error {
		return c.AttachRepairImages(tech, refs, now)
	})
}

// Similar returns up to five resolved or completed complaints of the same
// category sharing a keyword with the given one.
func (s *ComplaintService) Similar(ctx context.Context, id primitive.ObjectID) ([]models.Complaint, error) {
	base, err := s.complaints.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(base.Keywords) == 0 {
		return []models.Complaint{}, nil
	}
	notRagging := false
	return s.complaints.List(ctx, models.ComplaintFilter{
		Category:    base.Category,
		Ragging:     &notRagging,
		Statuses:    []models.Status{models.StatusResolved, models.StatusCompleted},
		KeywordsAny: base.Keywords,
		ExcludeID:   &base.ID,
		Limit:       SimilarLimit,
	})
}

// AllComplaints lists every visible complaint for administrators.
func (s *ComplaintService) AllComplaints(ctx context.Context) ([]models.Complaint, error) {
	return s.complaints.List(ctx, models.ComplaintFilter{})
}

// RaggingComplaints lists ragging reports for administrators.
func (s *ComplaintService) RaggingComplaints(ctx context.Context) ([]models.Complaint, error) {
	ragging := true
	return s.complaints.List(ctx, models.ComplaintFilter{Ragging: &ragging})
}

// ReviewRagging marks a ragging report as reviewed.
func (s *ComplaintService) ReviewRagging(ctx context.Context, caller Caller, id primitive.ObjectID, remark string) (*models.Complaint, error) {
	c, err := s.mutate(ctx, id, func(c *models.Complaint, now time.Time) error {
		return c.ReviewRagging(caller.Actor(), remark, now)
	})
	if err != nil {
		return nil, err
	}
	s.notify(ctx, &c.UserID, models.RoleStudent, models.NotificationRagging, models.PriorityMedium, c.ID,
		"Ragging complaint reviewed", "An administrator has reviewed your ragging complaint.")
	return c, nil
}

// SaveAdminRemark annotates a complaint.
func (s *ComplaintService) SaveAdminRemark(ctx context.Context, caller Caller, id primitive.ObjectID, remark string) (*models.Complaint, error) {
	return s.mutate(ctx, id, func(c *models.Complaint, now time.Time) error {
		return c.SetAdminRemark(caller.Actor(), remark, now)
	})
}

// Find exposes filtered listing to background sweeps.
func (s *ComplaintService) Find(ctx context.Context, filter models.ComplaintFilter) ([]models.Complaint, error) {
	return s.complaints.List(ctx, filter)
}

func (s *ComplaintService) notify(ctx context.Context, userID *primitive.ObjectID, role models.Role, kind models.NotificationType, priority models.Priority, complaintID primitive.ObjectID, title, message string) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(ctx, &models.Notification{
		UserID:      userID,
		Role:        role,
		Title:       title,
		Message:     message,
		Type:        kind,
		ComplaintID: &complaintID,
		Priority:    priority,
	})
}
