package models

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

// Account is a login credential. Students and technicians reference their
// master record through RegNo / TechID; admins have neither.
type Account struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	RegNo           string             `bson:"regNo,omitempty" json:"regNo,omitempty"`
	TechID          string             `bson:"techId,omitempty" json:"techId,omitempty"`
	Name            string             `bson:"name" json:"name"`
	Email           string             `bson:"email" json:"email"`
	PasswordHash    string             `bson:"password" json:"-"`
	Role            Role               `bson:"role" json:"role"`
	RoomNumber      string             `bson:"roomNumber,omitempty" json:"roomNumber,omitempty"`
	Department      Category           `bson:"department,omitempty" json:"department,omitempty"`
	IsActive        bool               `bson:"isActive" json:"isActive"`
	IsEmailVerified bool               `bson:"isEmailVerified" json:"isEmailVerified"`
	CreatedByAdmin  bool               `bson:"createdByAdmin" json:"createdByAdmin"`
	LastLogin       *time.Time         `bson:"lastLogin" json:"lastLogin"`
	IsDeleted       bool               `bson:"isDeleted" json:"isDeleted"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// SetPassword hashes plain and stores the hash. It is the only way a secret
// reaches an Account.
func (a *Account) SetPassword(plain string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	a.PasswordHash = string(hashed)
	return nil
}

// ComparePassword reports whether candidate matches the stored hash.
func (a *Account) ComparePassword(candidate string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(candidate))
	return err == nil
}

// NaturalID returns the role-specific login id, or the email for admins.
func (a *Account) NaturalID() string {
	switch a.Role {
	case RoleStudent:
		return a.RegNo
	case RoleTechnician:
		return a.TechID
	}
	return a.Email
}

// Validate checks the per-role shape of the account.
func (a *Account) Validate() error {
	if !a.Role.Valid() {
		return errors.New("account role is invalid")
	}
	if a.Role == RoleStudent && a.RegNo == "" {
		return errors.New("student must have regNo")
	}
	if a.Role == RoleTechnician && a.TechID == "" {
		return errors.New("technician must have techId")
	}
	if a.Email == "" {
		return errors.New("account must have email")
	}
	if a.PasswordHash == "" {
		return errors.New("account must have a password")
	}
	return nil
}
