package models

import (
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Category is both a complaint category and a technician department.
type Category string

const (
	CategoryCleaning   Category = "cleaning"
	CategoryElectrical Category = "electrical"
	CategoryPlumbing   Category = "plumbing"
	CategoryFurniture  Category = "furniture"
	CategoryWater      Category = "water"
	CategoryOthers     Category = "others"
)

// ParseCategory lower-cases s and checks it against the department list.
func ParseCategory(s string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	switch c {
	case CategoryCleaning, CategoryElectrical, CategoryPlumbing, CategoryFurniture, CategoryWater, CategoryOthers:
		return c, true
	}
	return "", false
}

// Priority of a complaint.
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// ParsePriority accepts Low/Medium/High case-insensitively; empty means Medium.
func ParsePriority(s string) (Priority, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return PriorityMedium, true
	case "low":
		return PriorityLow, true
	case "medium":
		return PriorityMedium, true
	case "high":
		return PriorityHigh, true
	}
	return "", false
}

// Status is the lifecycle state of a complaint.
type Status string

const (
	StatusPending    Status = "Pending"
	StatusInProgress Status = "In Progress"
	StatusResolved   Status = "Resolved"
	StatusCompleted  Status = "Completed"
)

// Confirmation is the student's verdict on a resolution.
type Confirmation string

const (
	ConfirmationPending   Confirmation = "Pending"
	ConfirmationConfirmed Confirmation = "Confirmed"
	ConfirmationRejected  Confirmation = "Rejected"
)

// History tags that are not statuses.
const (
	HistoryRated           = "Rated"
	HistoryRaggingReviewed = "Ragging Reviewed"
)

// AssignedBySelf marks a technician claiming a complaint from their queue.
const AssignedBySelf = "Self"

// StatusChange is one entry of the append-only status history.
type StatusChange struct {
	Status        string              `bson:"status" json:"status"`
	ChangedByRole Role                `bson:"changedByRole" json:"changedByRole"`
	ChangedByID   *primitive.ObjectID `bson:"changedById" json:"changedById"`
	Remark        string              `bson:"remark" json:"remark"`
	ChangedAt     time.Time           `bson:"changedAt" json:"changedAt"`
}

// TechnicianAssignment is one entry of the append-only assignment history.
type TechnicianAssignment struct {
	TechnicianID         primitive.ObjectID  `bson:"technicianId" json:"technicianId"`
	TechnicianName       string              `bson:"technicianName" json:"technicianName"`
	TechnicianDepartment Category            `bson:"technicianDepartment" json:"technicianDepartment"`
	AssignedBy           *primitive.ObjectID `bson:"assignedBy" json:"assignedBy"`
	AssignedByRole       string              `bson:"assignedByRole" json:"assignedByRole"`
	AssignedAt           time.Time           `bson:"assignedAt" json:"assignedAt"`
}

// Complaint is a grievance filed by a student.
type Complaint struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ComplaintText string             `bson:"complaintText" json:"complaintText"`
	Category      Category           `bson:"category" json:"category"`
	RoomNumber    string             `bson:"roomNumber" json:"roomNumber"`
	StudentRegNo  string             `bson:"studentRegNo" json:"studentRegNo"`
	UserID        primitive.ObjectID `bson:"userId" json:"userId"`
	Priority      Priority           `bson:"priority" json:"priority"`

	Images           []string   `bson:"images" json:"images"`
	RepairImages     []string   `bson:"repairImages" json:"repairImages"`
	RepairUploadedAt *time.Time `bson:"repairUploadedAt,omitempty" json:"repairUploadedAt,omitempty"`
	SolutionSummary  string     `bson:"solutionSummary" json:"solutionSummary"`
	Keywords         []string   `bson:"keywords" json:"keywords"`

	IsAnonymous         bool       `bson:"isAnonymous" json:"isAnonymous"`
	IsRagging           bool       `bson:"isRagging" json:"isRagging"`
	RaggingReviewed     bool       `bson:"raggingReviewed" json:"raggingReviewed"`
	RaggingReviewRemark string     `bson:"raggingReviewRemark" json:"raggingReviewRemark"`
	RaggingReviewedAt   *time.Time `bson:"raggingReviewedAt,omitempty" json:"raggingReviewedAt,omitempty"`

	AssignedTechnician           *primitive.ObjectID    `bson:"assignedTechnician" json:"assignedTechnician"`
	AssignedTechnicianAccount    *primitive.ObjectID    `bson:"assignedTechnicianAccount" json:"-"`
	TechnicianNameSnapshot       string                 `bson:"technicianNameSnapshot" json:"technicianNameSnapshot"`
	TechnicianDepartmentSnapshot Category               `bson:"technicianDepartmentSnapshot" json:"technicianDepartmentSnapshot"`
	TechnicianHistory            []TechnicianAssignment `bson:"technicianHistory" json:"technicianHistory"`

	Status           Status         `bson:"status" json:"status"`
	StatusHistory    []StatusChange `bson:"statusHistory" json:"statusHistory"`
	TechnicianRemark string         `bson:"technicianRemark" json:"technicianRemark"`
	AdminRemark      string         `bson:"adminRemark" json:"adminRemark"`

	StudentConfirmation Confirmation `bson:"studentConfirmation" json:"studentConfirmation"`
	ResolvedAt          *time.Time   `bson:"resolvedAt" json:"resolvedAt"`
	StudentActionAt     *time.Time   `bson:"studentActionAt,omitempty" json:"studentActionAt,omitempty"`
	CompletedAt         *time.Time   `bson:"completedAt,omitempty" json:"completedAt,omitempty"`

	Rating         *int       `bson:"rating" json:"rating"`
	RatingFeedback string     `bson:"ratingFeedback" json:"ratingFeedback"`
	RatedAt        *time.Time `bson:"ratedAt,omitempty" json:"ratedAt,omitempty"`

	AdminReviewed   bool       `bson:"adminReviewed" json:"adminReviewed"`
	AdminReviewedAt *time.Time `bson:"adminReviewedAt,omitempty" json:"adminReviewedAt,omitempty"`

	IsDeleted bool      `bson:"isDeleted" json:"-"`
	Version   int64     `bson:"version" json:"version"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// NewComplaintInput carries the fields a student supplies on creation.
type NewComplaintInput struct {
	Text        string
	Category    Category
	RoomNumber  string
	Priority    Priority
	Images      []string
	IsAnonymous bool
	IsRagging   bool
}

// NewComplaint builds a Pending complaint owned by the student account.
func NewComplaint(in NewComplaintInput, ownerID primitive.ObjectID, regNo string, now time.Time) *Complaint {
	text := strings.TrimSpace(in.Text)
	priority := in.Priority
	if priority == "" {
		priority = PriorityMedium
	}
	images := in.Images
	if images == nil {
		images = []string{}
	}
	c := &Complaint{
		ID:                  primitive.NewObjectID(),
		ComplaintText:       text,
		Category:            in.Category,
		RoomNumber:          strings.TrimSpace(in.RoomNumber),
		StudentRegNo:        regNo,
		UserID:              ownerID,
		Priority:            priority,
		Images:              images,
		RepairImages:        []string{},
		Keywords:            ExtractKeywords(text),
		IsAnonymous:         in.IsAnonymous,
		IsRagging:           in.IsRagging,
		TechnicianHistory:   []TechnicianAssignment{},
		Status:              StatusPending,
		StudentConfirmation: ConfirmationPending,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	c.appendHistory(string(StatusPending), NewActor(RoleStudent, ownerID), "", now)
	return c
}

var nonKeywordChars = regexp.MustCompile(`[^a-z0-9 ]`)

// ExtractKeywords lower-cases text, strips everything but letters, digits and
// spaces, and keeps the first ten tokens longer than three characters.
func ExtractKeywords(text string) []string {
	cleaned := nonKeywordChars.ReplaceAllString(strings.ToLower(text), "")
	keywords := make([]string, 0, 10)
	for _, word := range strings.Split(cleaned, " ") {
		if len(word) <= 3 {
			continue
		}
		keywords = append(keywords, word)
		if len(keywords) == 10 {
			break
		}
	}
	return keywords
}

// ComplaintFilter selects complaints for listing and background sweeps.
// Deleted complaints are always excluded.
type ComplaintFilter struct {
	UserID           *primitive.ObjectID
	Category         Category
	Ragging          *bool
	Statuses         []Status
	Confirmation     Confirmation
	HasTechnician    *bool
	AssignedToOrFree *primitive.ObjectID
	ResolvedBefore   *time.Time
	ResolvedAfter    *time.Time
	CreatedBefore    *time.Time
	UpdatedBefore    *time.Time
	ExcludeID        *primitive.ObjectID
	KeywordsAny      []string
	Limit            int64
	OldestFirst      bool
}
