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

// NoticeRepository stores notice board posts.
type NoticeRepository struct {
	notices *mongo.Collection
}

func NewNoticeRepository(db *mongo.Database) *NoticeRepository {
	return &NoticeRepository{notices: db.Collection(NoticesCollection)}
}

// Pinned notices first, then newest.
var noticeSort = bson.D{{Key: "pinned", Value: -1}, {Key: "createdAt", Value: -1}}

func (r *NoticeRepository) Insert(ctx context.Context, n *models.Notice) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if n.ID.IsZero() {
		n.ID = primitive.NewObjectID()
	}
	_, err := r.notices.InsertOne(ctx, n)
	return err
}

func (r *NoticeRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Notice, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var n models.Notice
	if err := r.notices.FindOne(ctx, bson.M{"_id": id}).Decode(&n); err != nil {
		if notFound(err) {
			return nil, apperrors.ErrNoticeNotFound
		}
		return nil, err
	}
	return &n, nil
}

func (r *NoticeRepository) Save(ctx context.Context, n *models.Notice) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := r.notices.ReplaceOne(ctx, bson.M{"_id": n.ID}, n)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperrors.ErrNoticeNotFound
	}
	return nil
}

func (r *NoticeRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := r.notices.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return apperrors.ErrNoticeNotFound
	}
	return nil
}

func (r *NoticeRepository) ListAll(ctx context.Context) ([]models.Notice, error) {
	return r.find(ctx, bson.M{})
}

// ListVisible returns active, unexpired notices addressed to audience or to
// everyone.
func (r *NoticeRepository) ListVisible(ctx context.Context, audience models.Audience, now time.Time) ([]models.Notice, error) {
	return r.find(ctx, visibleNoticeFilter(audience, now))
}

func visibleNoticeFilter(audience models.Audience, now time.Time) bson.M {
	return bson.M{
		"isActive":  true,
		"visibleTo": bson.M{"$in": []models.Audience{audience, models.AudienceAll}},
		"$or": []bson.M{
			{"expiresAt": nil},
			{"expiresAt": bson.M{"$gt": now}},
		},
	}
}

func (r *NoticeRepository) find(ctx context.Context, filter bson.M) ([]models.Notice, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	cursor, err := r.notices.Find(ctx, filter, options.Find().SetSort(noticeSort))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	notices := []models.Notice{}
	if err := cursor.All(ctx, &notices); err != nil {
		return nil, err
	}
	return notices, nil
}
