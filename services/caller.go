package services

import (
	"hostelgrievance-be/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Caller is the authenticated principal of a request, built from token
// claims. Services never trust anything else about who is calling.
type Caller struct {
	AccountID  primitive.ObjectID
	Role       models.Role
	RegNo      string
	TechID     string
	RoomNumber string
	Department models.Category
}

// Actor returns the audit actor for the caller.
func (c Caller) Actor() models.Actor {
	return models.NewActor(c.Role, c.AccountID)
}
