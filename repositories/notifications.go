package repositories

import (
	"context"
	"time"

	"hostelgrievance-be/apperrors"
	"hostelgrievance-be/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// NotificationRepository stores feed entries.
type NotificationRepository struct {
	notifications *mongo.Collection

	Now func() time.Time
}

func NewNotificationRepository(db *mongo.Database) *NotificationRepository {
	return &NotificationRepository{notifications: db.Collection(NotificationsCollection), Now: time.Now}
}

func (r *NotificationRepository) Insert(ctx context.Context, n *models.Notification) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if n.ID.IsZero() {
		n.ID = primitive.NewObjectID()
	}
	_, err := r.notifications.InsertOne(ctx, n)
	return err
}

// audienceFilter matches the account's own notifications and broadcasts to
// its role.
func audienceFilter(role models.Role, accountID primitive.ObjectID) bson.M {
	return bson.M{
		"role": role,
		"$or": []bson.M{
			{"userId": accountID},
			{"userId": nil},
		},
	}
}

func feedFilter(role models.Role, accountID primitive.ObjectID, now time.Time) bson.M {
	return active(bson.M{
		"$and": []bson.M{
			audienceFilter(role, accountID),
			{"$or": []bson.M{
				{"expiresAt": nil},
				{"expiresAt": bson.M{"$gt": now}},
			}},
		},
	})
}

func (r *NotificationRepository) ListFor(ctx context.Context, role models.Role, accountID primitive.ObjectID, limit int64) ([]models.Notification, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cursor, err := r.notifications.Find(ctx, feedFilter(role, accountID, r.Now()), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	items := []models.Notification{}
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// MarkRead records that accountID read the notification and reports whether
// it had already been read by them.
func (r *NotificationRepository) MarkRead(ctx context.Context, id primitive.ObjectID, role models.Role, accountID primitive.ObjectID) (bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	filter := active(audienceFilter(role, accountID))
	filter["_id"] = id

	var n models.Notification
	if err := r.notifications.FindOne(ctx, filter).Decode(&n); err != nil {
		if notFound(err) {
			return false, apperrors.ErrNotificationNotFound
		}
		return false, err
	}
	if n.ReadFor(accountID) {
		return true, nil
	}

	var update bson.M
	if n.Broadcast() {
		update = bson.M{
			"$addToSet": bson.M{"readBy": accountID},
			"$set":      bson.M{"updatedAt": r.Now()},
		}
	} else {
		update = bson.M{"$set": bson.M{"isRead": true, "updatedAt": r.Now()}}
	}
	if _, err := r.notifications.UpdateOne(ctx, bson.M{"_id": id}, update); err != nil {
		return false, err
	}
	return false, nil
}
