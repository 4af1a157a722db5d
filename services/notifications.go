package services

import (
	"context"
	"log/slog"
	"time"

	"hostelgrievance-be/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FeedLimit caps a notification listing.
const FeedLimit = 200

// NotificationService serves the notification feed and records new entries.
type NotificationService struct {
	store  NotificationStore
	logger *slog.Logger

	Now func() time.Time
}

func NewNotificationService(store NotificationStore, logger *slog.Logger) *NotificationService {
	return &NotificationService{store: store, logger: logger, Now: time.Now}
}

// Notify stores n. A failure is logged and swallowed.
func (s *NotificationService) Notify(ctx context.Context, n *models.Notification) {
	now := s.Now()
	if n.Type == "" {
		n.Type = models.NotificationSystem
	}
	if n.Priority == "" {
		n.Priority = models.PriorityLow
	}
	n.CreatedAt = now
	n.UpdatedAt = now

	if err := s.store.Insert(ctx, n); err != nil {
		s.logger.Error("failed to store notification", "role", n.Role, "type", n.Type, "error", err)
	}
}

// Feed returns the caller's own and role-broadcast notifications, unread
// first. IsRead is resolved for the caller.
func (s *NotificationService) Feed(ctx context.Context, caller Caller) ([]models.Notification, error) {
	items, err := s.store.ListFor(ctx, caller.Role, caller.AccountID, FeedLimit)
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].IsRead = items[i].ReadFor(caller.AccountID)
	}
	sortUnreadFirst(items)
	return items, nil
}

// sortUnreadFirst is a stable partition keeping the store's newest-first order.
func sortUnreadFirst(items []models.Notification) {
	unread := make([]models.Notification, 0, len(items))
	read := make([]models.Notification, 0, len(items))
	for _, n := range items {
		if n.IsRead {
			read = append(read, n)
		} else {
			unread = append(unread, n)
		}
	}
	copy(items, append(unread, read...))
}

// MarkRead marks a notification read for the caller. It reports whether it
// was already read.
func (s *NotificationService) MarkRead(ctx context.Context, caller Caller, id primitive.ObjectID) (bool, error) {
	return s.store.MarkRead(ctx, id, caller.Role, caller.AccountID)
}
