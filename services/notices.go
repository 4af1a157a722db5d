package services

import (
	"context"
	"strings"
	"time"

	"hostelgrievance-be/apperrors"
	"hostelgrievance-be/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NoticeService manages the notice board.
type NoticeService struct {
	store    NoticeStore
	notifier Notifier

	Now func() time.Time
}

func NewNoticeService(store NoticeStore, notifier Notifier) *NoticeService {
	return &NoticeService{store: store, notifier: notifier, Now: time.Now}
}

// NoticeInput carries create and update fields. Nil pointers are left
// unchanged on update.
type NoticeInput struct {
	Title     *string
	Content   *string
	Priority  *string
	VisibleTo *string
	Category  *string
	Pinned    *bool
	IsActive  *bool
	ExpiresAt *time.Time
}

// Create posts a new notice and announces it to its audience.
func (s *NoticeService) Create(ctx context.Context, caller Caller, in NoticeInput) (*models.Notice, error) {
	if in.Title == nil || strings.TrimSpace(*in.Title) == "" || in.Content == nil || strings.TrimSpace(*in.Content) == "" {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "Title and content required")
	}

	now := s.Now()
	createdBy := caller.AccountID
	n := &models.Notice{
		Priority:  models.NoticeNormal,
		VisibleTo: models.AudienceAll,
		Category:  models.DefaultNoticeCategory,
		CreatedBy: &createdBy,
		IsActive:  true,
		CreatedAt: now,
	}
	if err := applyNoticeInput(n, in); err != nil {
		return nil, err
	}
	n.UpdatedAt = now
	if err := s.store.Insert(ctx, n); err != nil {
		return nil, err
	}

	s.announce(ctx, n)
	return n, nil
}

func (s *NoticeService) announce(ctx context.Context, n *models.Notice) {
	if s.notifier == nil {
		return
	}
	var roles []models.Role
	switch n.VisibleTo {
	case models.AudienceStudents:
		roles = []models.Role{models.RoleStudent}
	case models.AudienceTechnicians:
		roles = []models.Role{models.RoleTechnician}
	default:
		roles = []models.Role{models.RoleStudent, models.RoleTechnician}
	}
	priority := models.PriorityLow
	if n.Priority == models.NoticeHigh {
		priority = models.PriorityHigh
	}
	for _, role := range roles {
		s.notifier.Notify(ctx, &models.Notification{
			Role:      role,
			Title:     "New notice",
			Message:   n.Title,
			Type:      models.NotificationAdminNotice,
			Priority:  priority,
			ExpiresAt: n.ExpiresAt,
		})
	}
}

// Update applies the non-nil fields of in.
func (s *NoticeService) Update(ctx context.Context, id primitive.ObjectID, in NoticeInput) (*models.Notice, error) {
	n, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applyNoticeInput(n, in); err != nil {
		return nil, err
	}
	n.UpdatedAt = s.Now()
	if err := s.store.Save(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

func applyNoticeInput(n *models.Notice, in NoticeInput) error {
	if in.Title != nil {
		n.Title = strings.TrimSpace(*in.Title)
	}
	if in.Content != nil {
		n.Content = strings.TrimSpace(*in.Content)
	}
	if in.Priority != nil {
		p, ok := models.ParseNoticePriority(*in.Priority)
		if !ok {
			return apperrors.WithMessage(apperrors.ErrValidation, "Invalid priority")
		}
		n.Priority = p
	}
	if in.VisibleTo != nil {
		a, ok := models.ParseAudience(*in.VisibleTo)
		if !ok {
			return apperrors.WithMessage(apperrors.ErrValidation, "Invalid audience")
		}
		n.VisibleTo = a
	}
	if in.Category != nil {
		n.Category = strings.TrimSpace(*in.Category)
		if n.Category == "" {
			n.Category = models.DefaultNoticeCategory
		}
	}
	if in.Pinned != nil {
		n.Pinned = *in.Pinned
	}
	if in.IsActive != nil {
		n.IsActive = *in.IsActive
	}
	if in.ExpiresAt != nil {
		expires := *in.ExpiresAt
		n.ExpiresAt = &expires
	}
	if n.Title == "" || n.Content == "" {
		return apperrors.WithMessage(apperrors.ErrValidation, "Title and content required")
	}
	return nil
}

// Delete removes a notice.
func (s *NoticeService) Delete(ctx context.Context, id primitive.ObjectID) error {
	return s.store.Delete(ctx, id)
}

// All lists every notice for administrators.
func (s *NoticeService) All(ctx context.Context) ([]models.Notice, error) {
	return s.store.ListAll(ctx)
}

// Visible lists active, unexpired notices for the caller's audience. Admins
// see the full board.
func (s *NoticeService) Visible(ctx context.Context, caller Caller) ([]models.Notice, error) {
	if caller.Role == models.RoleAdmin {
		return s.store.ListAll(ctx)
	}
	return s.store.ListVisible(ctx, models.AudienceFor(caller.Role), s.Now())
}
