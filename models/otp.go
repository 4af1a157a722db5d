package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OTPPurpose separates signup codes from password reset codes.
type OTPPurpose string

const (
	PurposeSignup         OTPPurpose = "signup"
	PurposeForgotPassword OTPPurpose = "forgot_password"
)

// OTPChallenge is a one-time code mailed to an identity's registered email.
type OTPChallenge struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Identifier string             `bson:"identifier" json:"identifier"`
	Email      string             `bson:"email" json:"email"`
	Role       Role               `bson:"role" json:"role"`
	Code       string             `bson:"otp" json:"-"`
	Purpose    OTPPurpose         `bson:"purpose" json:"purpose"`
	ExpiresAt  time.Time          `bson:"expiresAt" json:"expiresAt"`
	Verified   bool               `bson:"verified" json:"verified"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Usable reports whether the challenge can still be consumed at now.
func (o *OTPChallenge) Usable(now time.Time) bool {
	return !o.Verified && now.Before(o.ExpiresAt)
}
