package repositories

import (
	"context"
	"fmt"
	"time"

	"hostelgrievance-be/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var notDeleted = bson.D{{Key: "isDeleted", Value: false}}

// uniqueLive is a unique index that ignores soft-deleted documents, so a
// deleted record's natural id can be reused.
func uniqueLive(keys bson.D) mongo.IndexModel {
	return mongo.IndexModel{
		Keys:    keys,
		Options: options.Index().SetUnique(true).SetPartialFilterExpression(notDeleted),
	}
}

// uniqueLiveRole enforces one live account per natural id of role.
func uniqueLiveRole(field string, role models.Role) mongo.IndexModel {
	return mongo.IndexModel{
		Keys: bson.D{{Key: field, Value: 1}},
		Options: options.Index().SetUnique(true).SetPartialFilterExpression(bson.D{
			{Key: "isDeleted", Value: false},
			{Key: "role", Value: role},
		}),
	}
}

func expiring(field string) mongo.IndexModel {
	return mongo.IndexModel{
		Keys:    bson.D{{Key: field, Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	}
}

func indexModels() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		StudentsCollection: {
			uniqueLive(bson.D{{Key: "regNo", Value: 1}}),
			uniqueLive(bson.D{{Key: "email", Value: 1}}),
		},
		TechniciansCollection: {
			uniqueLive(bson.D{{Key: "techId", Value: 1}}),
			uniqueLive(bson.D{{Key: "email", Value: 1}}),
			{Keys: bson.D{{Key: "department", Value: 1}}},
		},
		AccountsCollection: {
			uniqueLive(bson.D{{Key: "role", Value: 1}, {Key: "email", Value: 1}}),
			uniqueLiveRole("regNo", models.RoleStudent),
			uniqueLiveRole("techId", models.RoleTechnician),
		},
		OTPCollection: {
			expiring("expiresAt"),
			{Keys: bson.D{{Key: "identifier", Value: 1}, {Key: "role", Value: 1}, {Key: "purpose", Value: 1}}},
		},
		ComplaintsCollection: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "category", Value: 1}, {Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "studentConfirmation", Value: 1}, {Key: "resolvedAt", Value: 1}}},
			{Keys: bson.D{{Key: "assignedTechnician", Value: 1}}},
			{Keys: bson.D{{Key: "keywords", Value: 1}}},
		},
		NotificationsCollection: {
			expiring("expiresAt"),
			{Keys: bson.D{{Key: "role", Value: 1}, {Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		NoticesCollection: {
			{Keys: bson.D{{Key: "isActive", Value: 1}, {Key: "visibleTo", Value: 1}, {Key: "pinned", Value: -1}, {Key: "createdAt", Value: -1}}},
		},
	}
}

// EnsureIndexes creates the uniqueness, TTL and query indexes. Creating an
// index that already exists is a no-op.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	for collection, idx := range indexModels() {
		if _, err := db.Collection(collection).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("create indexes on %s: %w", collection, err)
		}
	}
	return nil
}
