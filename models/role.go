package models

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role is the enumerated caller role carried in tokens and audit entries.
type Role string

const (
	RoleStudent    Role = "Student"
	RoleTechnician Role = "Technician"
	RoleAdmin      Role = "Admin"
	// RoleSystem is only used as an audit actor (escalation job).
	RoleSystem Role = "System"
)

// ParseRole normalises a user supplied role name. System is never accepted
// from outside.
func ParseRole(s string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "student":
		return RoleStudent, true
	case "technician":
		return RoleTechnician, true
	case "admin":
		return RoleAdmin, true
	}
	return "", false
}

// Valid reports whether r is one of the login roles.
func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleTechnician || r == RoleAdmin
}

// In reports whether r is contained in set.
func (r Role) In(set ...Role) bool {
	for _, candidate := range set {
		if r == candidate {
			return true
		}
	}
	return false
}

// Actor identifies who performed a mutation. ID is nil for the System actor.
type Actor struct {
	Role Role
	ID   *primitive.ObjectID
}

// SystemActor is the actor used by background jobs.
var SystemActor = Actor{Role: RoleSystem}

// NewActor returns an actor for an authenticated account.
func NewActor(role Role, id primitive.ObjectID) Actor {
	return Actor{Role: role, ID: &id}
}

// Is reports whether the actor is the account id.
func (a Actor) Is(id primitive.ObjectID) bool {
	return a.ID != nil && *a.ID == id
}
