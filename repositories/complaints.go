package repositories

import (
	"context"

	"hostelgrievance-be/apperrors"
	"hostelgrievance-be/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ComplaintRepository stores complaints.
type ComplaintRepository struct {
	complaints *mongo.Collection
}

func NewComplaintRepository(db *mongo.Database) *ComplaintRepository {
	return &ComplaintRepository{complaints: db.Collection(ComplaintsCollection)}
}

func (r *ComplaintRepository) Insert(ctx context.Context, c *models.Complaint) error {
	if err := c.Validate(); err != nil {
		return err
	}
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	_, err := r.complaints.InsertOne(ctx, c)
	return err
}

func (r *ComplaintRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Complaint, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var c models.Complaint
	if err := r.complaints.FindOne(ctx, active(bson.M{"_id": id})).Decode(&c); err != nil {
		if notFound(err) {
			return nil, apperrors.ErrComplaintNotFound
		}
		return nil, err
	}
	return &c, nil
}

// versionFilter matches the stored version. Documents written before the
// version field existed are treated as version 0.
func versionFilter(version int64) bson.M {
	if version == 0 {
		return bson.M{"$or": []bson.M{
			{"version": 0},
			{"version": bson.M{"$exists": false}},
		}}
	}
	return bson.M{"version": version}
}

// Update writes c back only if nobody changed it since it was read.
func (r *ComplaintRepository) Update(ctx context.Context, c *models.Complaint, prev models.Status) error {
	if err := c.Validate(); err != nil {
		return err
	}
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	filter := versionFilter(c.Version)
	filter["_id"] = c.ID
	filter["status"] = prev

	next := *c
	next.Version = c.Version + 1
	res, err := r.complaints.ReplaceOne(ctx, filter, &next)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperrors.ErrConcurrentUpdate
	}
	c.Version = next.Version
	return nil
}

func (r *ComplaintRepository) List(ctx context.Context, f models.ComplaintFilter) ([]models.Complaint, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	cursor, err := r.complaints.Find(ctx, buildComplaintFilter(f), complaintFindOptions(f))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	complaints := []models.Complaint{}
	if err := cursor.All(ctx, &complaints); err != nil {
		return nil, err
	}
	return complaints, nil
}

func complaintFindOptions(f models.ComplaintFilter) *options.FindOptions {
	order := -1
	if f.OldestFirst {
		order = 1
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: order}})
	if f.Limit > 0 {
		opts.SetLimit(f.Limit)
	}
	return opts
}

// buildComplaintFilter translates a ComplaintFilter into a query document.
func buildComplaintFilter(f models.ComplaintFilter) bson.M {
	filter := active(bson.M{})
	var and []bson.M

	if f.UserID != nil {
		filter["userId"] = *f.UserID
	}
	if f.Category != "" {
		filter["category"] = f.Category
	}
	if f.Ragging != nil {
		filter["isRagging"] = *f.Ragging
	}
	switch len(f.Statuses) {
	case 0:
	case 1:
		filter["status"] = f.Statuses[0]
	default:
		filter["status"] = bson.M{"$in": f.Statuses}
	}
	if f.Confirmation != "" {
		filter["studentConfirmation"] = f.Confirmation
	}
	if f.HasTechnician != nil {
		if *f.HasTechnician {
			filter["assignedTechnician"] = bson.M{"$ne": nil}
		} else {
			filter["assignedTechnician"] = nil
		}
	}
	if f.AssignedToOrFree != nil {
		and = append(and, bson.M{"$or": []bson.M{
			{"assignedTechnician": *f.AssignedToOrFree},
			{"assignedTechnician": nil},
		}})
	}

	resolved := bson.M{}
	if f.ResolvedBefore != nil {
		resolved["$lte"] = *f.ResolvedBefore
	}
	if f.ResolvedAfter != nil {
		resolved["$gt"] = *f.ResolvedAfter
	}
	if len(resolved) > 0 {
		filter["resolvedAt"] = resolved
	}
	if f.CreatedBefore != nil {
		filter["createdAt"] = bson.M{"$lte": *f.CreatedBefore}
	}
	if f.UpdatedBefore != nil {
		filter["updatedAt"] = bson.M{"$lte": *f.UpdatedBefore}
	}
	if f.ExcludeID != nil {
		filter["_id"] = bson.M{"$ne": *f.ExcludeID}
	}
	if len(f.KeywordsAny) > 0 {
		filter["keywords"] = bson.M{"$in": f.KeywordsAny}
	}

	if len(and) > 0 {
		filter["$and"] = and
	}
	return filter
}
