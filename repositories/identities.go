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

var (
	errStudentNotFound    = apperrors.WithMessage(apperrors.ErrIdentityNotFound, "Student not found")
	errTechnicianNotFound = apperrors.WithMessage(apperrors.ErrIdentityNotFound, "Technician not found")
	errStudentExists      = apperrors.WithMessage(apperrors.ErrDuplicateIdentity, "Student already exists")
	errTechnicianExists   = apperrors.WithMessage(apperrors.ErrDuplicateIdentity, "Technician already exists")
)

// IdentityRepository stores student and technician master records.
type IdentityRepository struct {
	students    *mongo.Collection
	technicians *mongo.Collection
}

func NewIdentityRepository(db *mongo.Database) *IdentityRepository {
	return &IdentityRepository{
		students:    db.Collection(StudentsCollection),
		technicians: db.Collection(TechniciansCollection),
	}
}

func (r *IdentityRepository) FindStudent(ctx context.Context, regNo string) (*models.StudentMaster, error) {
	return r.findStudent(ctx, active(bson.M{"regNo": models.NormalizeNaturalID(regNo)}))
}

func (r *IdentityRepository) FindStudentByID(ctx context.Context, id primitive.ObjectID) (*models.StudentMaster, error) {
	return r.findStudent(ctx, active(bson.M{"_id": id}))
}

func (r *IdentityRepository) findStudent(ctx context.Context, filter bson.M) (*models.StudentMaster, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var st models.StudentMaster
	if err := r.students.FindOne(ctx, filter).Decode(&st); err != nil {
		if notFound(err) {
			return nil, errStudentNotFound
		}
		return nil, err
	}
	return &st, nil
}

// CreateStudent inserts a record. The partial unique indexes reject a second
// non-deleted record with the same regNo or email.
func (r *IdentityRepository) CreateStudent(ctx context.Context, st *models.StudentMaster) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if st.ID.IsZero() {
		st.ID = primitive.NewObjectID()
	}
	if _, err := r.students.InsertOne(ctx, st); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return errStudentExists
		}
		return err
	}
	return nil
}

func (r *IdentityRepository) SaveStudent(ctx context.Context, st *models.StudentMaster) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := r.students.ReplaceOne(ctx, bson.M{"_id": st.ID}, st)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return errStudentExists
		}
		return err
	}
	if res.MatchedCount == 0 {
		return errStudentNotFound
	}
	return nil
}

func (r *IdentityRepository) ListStudents(ctx context.Context) ([]models.StudentMaster, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.students.Find(ctx, active(bson.M{}), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	students := []models.StudentMaster{}
	if err := cursor.All(ctx, &students); err != nil {
		return nil, err
	}
	return students, nil
}

func (r *IdentityRepository) FindTechnician(ctx context.Context, techID string) (*models.TechnicianMaster, error) {
	return r.findTechnician(ctx, active(bson.M{"techId": models.NormalizeNaturalID(techID)}))
}

func (r *IdentityRepository) FindTechnicianByID(ctx context.Context, id primitive.ObjectID) (*models.TechnicianMaster, error) {
	return r.findTechnician(ctx, active(bson.M{"_id": id}))
}

func (r *IdentityRepository) findTechnician(ctx context.Context, filter bson.M) (*models.TechnicianMaster, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var tech models.TechnicianMaster
	if err := r.technicians.FindOne(ctx, filter).Decode(&tech); err != nil {
		if notFound(err) {
			return nil, errTechnicianNotFound
		}
		return nil, err
	}
	return &tech, nil
}

func (r *IdentityRepository) CreateTechnician(ctx context.Context, tech *models.TechnicianMaster) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	if tech.ID.IsZero() {
		tech.ID = primitive.NewObjectID()
	}
	if _, err := r.technicians.InsertOne(ctx, tech); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return errTechnicianExists
		}
		return err
	}
	return nil
}

func (r *IdentityRepository) SaveTechnician(ctx context.Context, tech *models.TechnicianMaster) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	res, err := r.technicians.ReplaceOne(ctx, bson.M{"_id": tech.ID}, tech)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return errTechnicianExists
		}
		return err
	}
	if res.MatchedCount == 0 {
		return errTechnicianNotFound
	}
	return nil
}

func (r *IdentityRepository) ListTechnicians(ctx context.Context) ([]models.TechnicianMaster, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.technicians.Find(ctx, active(bson.M{}), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	techs := []models.TechnicianMaster{}
	if err := cursor.All(ctx, &techs); err != nil {
		return nil, err
	}
	return techs, nil
}
