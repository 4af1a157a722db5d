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

// OTPRepository stores one-time codes. Expired documents are reaped by the
// TTL index on expiresAt.
type OTPRepository struct {
	otps *mongo.Collection
}

func NewOTPRepository(db *mongo.Database) *OTPRepository {
	return &OTPRepository{otps: db.Collection(OTPCollection)}
}

func (r *OTPRepository) InvalidatePending(ctx context.Context, identifier string, role models.Role, purpose models.OTPPurpose) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	_, err := r.otps.DeleteMany(ctx, bson.M{
		"identifier": identifier,
		"role":       role,
		"purpose":    purpose,
		"verified":   false,
	})
	return err
}

func (r *OTPRepository) Create(ctx context.Context, o *models.OTPChallenge) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if o.ID.IsZero() {
		o.ID = primitive.NewObjectID()
	}
	_, err := r.otps.InsertOne(ctx, o)
	return err
}

// Consume flips verified in the same operation that matches the code, so
// two concurrent verifications cannot both succeed.
func (r *OTPRepository) Consume(ctx context.Context, identifier, code string, role models.Role, purpose models.OTPPurpose, now time.Time) (*models.OTPChallenge, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	filter := bson.M{
		"identifier": identifier,
		"otp":        code,
		"role":       role,
		"purpose":    purpose,
		"verified":   false,
		"expiresAt":  bson.M{"$gt": now},
	}
	update := bson.M{"$set": bson.M{"verified": true, "updatedAt": now}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var o models.OTPChallenge
	if err := r.otps.FindOneAndUpdate(ctx, filter, update, opts).Decode(&o); err != nil {
		if notFound(err) {
			return nil, apperrors.ErrInvalidOrExpiredOTP
		}
		return nil, err
	}
	return &o, nil
}

func (r *OTPRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	_, err := r.otps.DeleteOne(ctx, bson.M{"_id": id})
	return err
}
