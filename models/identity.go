package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// StudentMaster is the admin-imported record a student activates at signup.
type StudentMaster struct {
	ID              primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	RegNo           string              `bson:"regNo" json:"regNo"`
	Name            string              `bson:"name" json:"name"`
	Email           string              `bson:"email" json:"email"`
	RoomNumber      string              `bson:"roomNumber" json:"roomNumber"`
	Block           string              `bson:"block" json:"block"`
	Activated       bool                `bson:"activated" json:"activated"`
	IsDeleted       bool                `bson:"isDeleted" json:"isDeleted"`
	ActivatedAt     *time.Time          `bson:"activatedAt" json:"activatedAt"`
	DeactivatedAt   *time.Time          `bson:"deactivatedAt" json:"deactivatedAt"`
	LastModifiedBy  *primitive.ObjectID `bson:"lastModifiedBy" json:"lastModifiedBy"`
	ImportedByAdmin bool                `bson:"importedByAdmin" json:"importedByAdmin"`
	CreatedAt       time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// Normalize applies the stored casing rules.
func (s *StudentMaster) Normalize() {
	s.RegNo = NormalizeNaturalID(s.RegNo)
	s.Name = strings.TrimSpace(s.Name)
	s.Email = NormalizeEmail(s.Email)
	s.RoomNumber = strings.ToUpper(strings.TrimSpace(s.RoomNumber))
	s.Block = strings.TrimSpace(s.Block)
}

// TechnicianMaster is the admin-imported record a technician activates at
// signup. Department decides which complaint category queue they work.
type TechnicianMaster struct {
	ID              primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	TechID          string              `bson:"techId" json:"techId"`
	Name            string              `bson:"name" json:"name"`
	Email           string              `bson:"email" json:"email"`
	Department      Category            `bson:"department" json:"department"`
	Block           string              `bson:"block" json:"block"`
	Activated       bool                `bson:"activated" json:"activated"`
	IsDeleted       bool                `bson:"isDeleted" json:"isDeleted"`
	ActivatedAt     *time.Time          `bson:"activatedAt" json:"activatedAt"`
	DeactivatedAt   *time.Time          `bson:"deactivatedAt" json:"deactivatedAt"`
	LastModifiedBy  *primitive.ObjectID `bson:"lastModifiedBy" json:"lastModifiedBy"`
	ImportedByAdmin bool                `bson:"importedByAdmin" json:"importedByAdmin"`
	CreatedAt       time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// Normalize applies the stored casing rules.
func (t *TechnicianMaster) Normalize() {
	t.TechID = NormalizeNaturalID(t.TechID)
	t.Name = strings.TrimSpace(t.Name)
	t.Email = NormalizeEmail(t.Email)
	t.Block = strings.TrimSpace(t.Block)
}

// Eligible reports whether the technician may work complaints in category.
func (t *TechnicianMaster) Eligible(category Category) bool {
	return t != nil && t.Activated && !t.IsDeleted && t.Department == category
}

// NormalizeNaturalID upper-cases and trims a registration or technician id.
func NormalizeNaturalID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

// NormalizeEmail lower-cases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
