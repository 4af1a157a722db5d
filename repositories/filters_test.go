package repositories

import (
	"testing"
	"time"

	"hostelgrievance-be/models"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestBuildComplaintFilter_Empty(t *testing.T) {
	assert.Equal(t, bson.M{"isDeleted": false}, buildComplaintFilter(models.ComplaintFilter{}))
}

func TestBuildComplaintFilter_TechnicianQueue(t *testing.T) {
	techID := primitive.NewObjectID()
	notRagging := false

	got := buildComplaintFilter(models.ComplaintFilter{
		Category:         models.CategoryPlumbing,
		Ragging:          &notRagging,
		AssignedToOrFree: &techID,
	})

	assert.Equal(t, bson.M{
		"isDeleted": false,
		"category":  models.CategoryPlumbing,
		"isRagging": false,
		"$and": []bson.M{{"$or": []bson.M{
			{"assignedTechnician": techID},
			{"assignedTechnician": nil},
		}}},
	}, got)
}

func TestBuildComplaintFilter_AutoConfirmSweep(t *testing.T) {
	cutoff := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	got := buildComplaintFilter(models.ComplaintFilter{
		Statuses:       []models.Status{models.StatusResolved},
		Confirmation:   models.ConfirmationPending,
		ResolvedBefore: &cutoff,
		OldestFirst:    true,
	})

	assert.Equal(t, models.StatusResolved, got["status"])
	assert.Equal(t, models.ConfirmationPending, got["studentConfirmation"])
	assert.Equal(t, bson.M{"$lte": cutoff}, got["resolvedAt"])
}

func TestBuildComplaintFilter_Similar(t *testing.T) {
	id := primitive.NewObjectID()
	hasTech := true

	got := buildComplaintFilter(models.ComplaintFilter{
		Statuses:      []models.Status{models.StatusResolved, models.StatusCompleted},
		KeywordsAny:   []string{"leaking", "shower"},
		ExcludeID:     &id,
		HasTechnician: &hasTech,
	})

	assert.Equal(t, bson.M{"$in": []models.Status{models.StatusResolved, models.StatusCompleted}}, got["status"])
	assert.Equal(t, bson.M{"$in": []string{"leaking", "shower"}}, got["keywords"])
	assert.Equal(t, bson.M{"$ne": id}, got["_id"])
	assert.Equal(t, bson.M{"$ne": nil}, got["assignedTechnician"])
	assert.NotContains(t, got, "$and")
}

func TestComplaintFindOptions(t *testing.T) {
	opts := complaintFindOptions(models.ComplaintFilter{Limit: 5})
	assert.Equal(t, bson.D{{Key: "createdAt", Value: -1}}, opts.Sort)
	if assert.NotNil(t, opts.Limit) {
		assert.Equal(t, int64(5), *opts.Limit)
	}

	opts = complaintFindOptions(models.ComplaintFilter{OldestFirst: true})
	assert.Equal(t, bson.D{{Key: "createdAt", Value: 1}}, opts.Sort)
	assert.Nil(t, opts.Limit)
}

func TestVersionFilter(t *testing.T) {
	assert.Equal(t, bson.M{"version": int64(3)}, versionFilter(3))
	assert.Contains(t, versionFilter(0), "$or")
}

func TestLoginFilter_NormalizesEachField(t *testing.T) {
	got := loginFilter("  Ra2111003010001 ")

	assert.Equal(t, false, got["isDeleted"])
	assert.Equal(t, []bson.M{
		{"regNo": "RA2111003010001"},
		{"techId": "RA2111003010001"},
		{"email": "ra2111003010001"},
	}, got["$or"])
}

func TestNaturalIDFilter(t *testing.T) {
	assert.Equal(t, bson.M{"role": models.RoleStudent, "regNo": "RA01"}, naturalIDFilter(models.RoleStudent, " ra01"))
	assert.Equal(t, bson.M{"role": models.RoleTechnician, "techId": "T-9"}, naturalIDFilter(models.RoleTechnician, "t-9"))
	assert.Equal(t, bson.M{"role": models.RoleAdmin, "email": "warden@hostel.edu"}, naturalIDFilter(models.RoleAdmin, "Warden@Hostel.edu"))
}

func TestVisibleNoticeFilter(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	got := visibleNoticeFilter(models.AudienceTechnicians, now)

	assert.Equal(t, true, got["isActive"])
	assert.Equal(t, bson.M{"$in": []models.Audience{models.AudienceTechnicians, models.AudienceAll}}, got["visibleTo"])
	assert.Len(t, got["$or"], 2)
}

func TestFeedFilter_ScopesToRoleAndAccount(t *testing.T) {
	account := primitive.NewObjectID()
	now := time.Now()

	got := feedFilter(models.RoleAdmin, account, now)
	and, ok := got["$and"].([]bson.M)
	if assert.True(t, ok) && assert.Len(t, and, 2) {
		assert.Equal(t, models.RoleAdmin, and[0]["role"])
		assert.Equal(t, []bson.M{{"userId": account}, {"userId": nil}}, and[0]["$or"])
	}
	assert.Equal(t, false, got["isDeleted"])
}
