package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationType tags what a notification is about.
type NotificationType string

const (
	NotificationComplaint    NotificationType = "Complaint"
	NotificationRagging      NotificationType = "Ragging"
	NotificationAssignment   NotificationType = "Assignment"
	NotificationStatusUpdate NotificationType = "StatusUpdate"
	NotificationRating       NotificationType = "Rating"
	NotificationAdminNotice  NotificationType = "AdminNotice"
	NotificationSystem       NotificationType = "System"
)

// Notification is a feed entry for one account (UserID set) or for every
// account of Role (UserID nil).
type Notification struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	UserID      *primitive.ObjectID  `bson:"userId" json:"userId"`
	Role        Role                 `bson:"role" json:"role"`
	Title       string               `bson:"title" json:"title"`
	Message     string               `bson:"message" json:"message"`
	Type        NotificationType     `bson:"type" json:"type"`
	ComplaintID *primitive.ObjectID  `bson:"complaintId" json:"complaintId"`
	IsRead      bool                 `bson:"isRead" json:"isRead"`
	ReadBy      []primitive.ObjectID `bson:"readBy,omitempty" json:"-"`
	Priority    Priority             `bson:"priority" json:"priority"`
	ExpiresAt   *time.Time           `bson:"expiresAt" json:"expiresAt"`
	IsDeleted   bool                 `bson:"isDeleted" json:"-"`
	CreatedAt   time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// Broadcast reports whether the notification targets a whole role.
func (n *Notification) Broadcast() bool {
	return n.UserID == nil
}

// ReadFor resolves the read flag as seen by one account. Broadcasts keep a
// per-reader list so one admin reading does not clear it for the others.
func (n *Notification) ReadFor(accountID primitive.ObjectID) bool {
	if !n.Broadcast() {
		return n.IsRead
	}
	for _, id := range n.ReadBy {
		if id == accountID {
			return true
		}
	}
	return false
}
