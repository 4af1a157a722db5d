package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"hostelgrievance-be/apperrors"
	"hostelgrievance-be/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// AccountRepository stores login accounts.
type AccountRepository struct {
	accounts *mongo.Collection
}

func NewAccountRepository(db *mongo.Database) *AccountRepository {
	return &AccountRepository{accounts: db.Collection(AccountsCollection)}
}

// naturalIDFilter selects accounts of role by their natural id. Admins are
// keyed by email.
func naturalIDFilter(role models.Role, naturalID string) bson.M {
	switch role {
	case models.RoleStudent:
		return bson.M{"role": role, "regNo": models.NormalizeNaturalID(naturalID)}
	case models.RoleTechnician:
		return bson.M{"role": role, "techId": models.NormalizeNaturalID(naturalID)}
	}
	return bson.M{"role": role, "email": models.NormalizeEmail(naturalID)}
}

// loginFilter matches an identifier against every login field.
func loginFilter(identifier string) bson.M {
	clean := strings.TrimSpace(identifier)
	return active(bson.M{
		"$or": []bson.M{
			{"regNo": strings.ToUpper(clean)},
			{"techId": strings.ToUpper(clean)},
			{"email": strings.ToLower(clean)},
		},
	})
}

func (r *AccountRepository) Create(ctx context.Context, a *models.Account) error {
	if err := a.Validate(); err != nil {
		return apperrors.Wrap(apperrors.ErrValidation, err)
	}
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	if _, err := r.accounts.InsertOne(ctx, a); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperrors.ErrAccountExists
		}
		return err
	}
	return nil
}

func (r *AccountRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Account, error) {
	return r.findOne(ctx, active(bson.M{"_id": id}))
}

func (r *AccountRepository) FindByNaturalID(ctx context.Context, role models.Role, naturalID string) (*models.Account, error) {
	return r.findOne(ctx, active(naturalIDFilter(role, naturalID)))
}

func (r *AccountRepository) findOne(ctx context.Context, filter bson.M) (*models.Account, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var a models.Account
	if err := r.accounts.FindOne(ctx, filter).Decode(&a); err != nil {
		if notFound(err) {
			return nil, apperrors.ErrAccountNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *AccountRepository) FindByLogin(ctx context.Context, identifier string) ([]models.Account, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	cursor, err := r.accounts.Find(ctx, loginFilter(identifier), options.Find().SetLimit(2))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var matches []models.Account
	if err := cursor.All(ctx, &matches); err != nil {
		return nil, err
	}
	return matches, nil
}

func (r *AccountRepository) updateOne(ctx context.Context, filter bson.M, set bson.M) (*mongo.UpdateResult, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()
	return r.accounts.UpdateOne(ctx, filter, bson.M{"$set": set})
}

func (r *AccountRepository) UpdatePassword(ctx context.Context, id primitive.ObjectID, hash string, now time.Time) error {
	res, err := r.updateOne(ctx, active(bson.M{"_id": id}), bson.M{"password": hash, "updatedAt": now})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperrors.ErrAccountNotFound
	}
	return nil
}

func (r *AccountRepository) TouchLastLogin(ctx context.Context, id primitive.ObjectID, now time.Time) error {
	_, err := r.updateOne(ctx, bson.M{"_id": id}, bson.M{"lastLogin": now})
	return err
}

// SetActive flips isActive on the account of a master record and reports
// whether such an account exists.
func (r *AccountRepository) SetActive(ctx context.Context, role models.Role, naturalID string, isActive bool, now time.Time) (bool, error) {
	res, err := r.updateOne(ctx, active(naturalIDFilter(role, naturalID)), bson.M{"isActive": isActive, "updatedAt": now})
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

func (r *AccountRepository) SoftDelete(ctx context.Context, role models.Role, naturalID string, now time.Time) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	_, err := r.accounts.UpdateMany(ctx, active(naturalIDFilter(role, naturalID)), bson.M{
		"$set": bson.M{"isDeleted": true, "isActive": false, "updatedAt": now},
	})
	return err
}

func (r *AccountRepository) ListByNaturalIDs(ctx context.Context, role models.Role, naturalIDs []string) ([]models.Account, error) {
	var field string
	switch role {
	case models.RoleStudent:
		field = "regNo"
	case models.RoleTechnician:
		field = "techId"
	default:
		return nil, fmt.Errorf("list accounts: role %q has no natural id", role)
	}
	if len(naturalIDs) == 0 {
		return nil, nil
	}

	ctx, cancel := withTimeout(ctx)
	defer cancel()

	cursor, err := r.accounts.Find(ctx, active(bson.M{"role": role, field: bson.M{"$in": naturalIDs}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var accounts []models.Account
	if err := cursor.All(ctx, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}
