package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NoticePriority orders notices on the board.
type NoticePriority string

const (
	NoticeLow    NoticePriority = "Low"
	NoticeNormal NoticePriority = "Normal"
	NoticeHigh   NoticePriority = "High"
)

// Audience of a notice.
type Audience string

const (
	AudienceStudents    Audience = "Students"
	AudienceTechnicians Audience = "Technicians"
	AudienceAll         Audience = "All"
)

// AudienceFor maps a login role to the notice audience it belongs to.
func AudienceFor(role Role) Audience {
	if role == RoleTechnician {
		return AudienceTechnicians
	}
	return AudienceStudents
}

// DefaultNoticeCategory is used when an admin leaves the category empty.
const DefaultNoticeCategory = "Hostel"

// Notice is an admin-authored board post.
type Notice struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Title     string              `bson:"title" json:"title"`
	Content   string              `bson:"content" json:"content"`
	Priority  NoticePriority      `bson:"priority" json:"priority"`
	VisibleTo Audience            `bson:"visibleTo" json:"visibleTo"`
	Category  string              `bson:"category" json:"category"`
	Pinned    bool                `bson:"pinned" json:"pinned"`
	ExpiresAt *time.Time          `bson:"expiresAt" json:"expiresAt"`
	CreatedBy *primitive.ObjectID `bson:"createdBy" json:"createdBy"`
	IsActive  bool                `bson:"isActive" json:"isActive"`
	CreatedAt time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// ParseNoticePriority accepts Low/Normal/High; empty means Normal.
func ParseNoticePriority(s string) (NoticePriority, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return NoticeNormal, true
	case "low":
		return NoticeLow, true
	case "normal":
		return NoticeNormal, true
	case "high":
		return NoticeHigh, true
	}
	return "", false
}

// ParseAudience accepts Students/Technicians/All; empty means All.
func ParseAudience(s string) (Audience, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return AudienceAll, true
	case "students":
		return AudienceStudents, true
	case "technicians":
		return AudienceTechnicians, true
	}
	return "", false
}

// VisibleAt reports whether an audience member sees the notice at now.
func (n *Notice) VisibleAt(audience Audience, now time.Time) bool {
	if !n.IsActive {
		return false
	}
	if n.ExpiresAt != nil && n.ExpiresAt.Before(now) {
		return false
	}
	return n.VisibleTo == AudienceAll || n.VisibleTo == audience
}
