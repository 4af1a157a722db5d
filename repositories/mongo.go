// Package repositories implements the service stores on MongoDB and the
// coordination helpers on Redis.
package repositories

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Collection names are shared with existing deployments.
const (
	StudentsCollection      = "studentmasters"
	TechniciansCollection   = "technicianmasters"
	AccountsCollection      = "users"
	OTPCollection           = "otps"
	ComplaintsCollection    = "complaints"
	NotificationsCollection = "notifications"
	NoticesCollection       = "notices"
)

const opTimeout = 10 * time.Second

func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, opTimeout)
}

// active scopes a filter to documents that are not soft-deleted.
func active(filter bson.M) bson.M {
	filter["isDeleted"] = false
	return filter
}

func notFound(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}
