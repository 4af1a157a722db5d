// Package services holds the business rules of the grievance tracker. It
// talks to persistence and delivery only through the interfaces below, so the
// Mongo repositories and the SMTP mailer can be swapped for fakes in tests.
package services

import (
	"context"
	"time"

	"hostelgrievance-be/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IdentityStore persists student and technician master records. Lookups only
// see records that are not soft-deleted.
type IdentityStore interface {
	FindStudent(ctx context.Context, regNo string) (*models.StudentMaster, error)
	FindStudentByID(ctx context.Context, id primitive.ObjectID) (*models.StudentMaster, error)
	CreateStudent(ctx context.Context, s *models.StudentMaster) error
	SaveStudent(ctx context.Context, s *models.StudentMaster) error
	ListStudents(ctx context.Context) ([]models.StudentMaster, error)

	FindTechnician(ctx context.Context, techID string) (*models.TechnicianMaster, error)
	FindTechnicianByID(ctx context.Context, id primitive.ObjectID) (*models.TechnicianMaster, error)
	CreateTechnician(ctx context.Context, t *models.TechnicianMaster) error
	SaveTechnician(ctx context.Context, t *models.TechnicianMaster) error
	ListTechnicians(ctx context.Context) ([]models.TechnicianMaster, error)
}

// AccountStore persists login accounts. Lookups only see accounts that are
// not soft-deleted.
type AccountStore interface {
	Create(ctx context.Context, a *models.Account) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Account, error)
	// FindByLogin matches identifier against regNo, techId (upper-cased) and
	// email (lower-cased). It returns at most two accounts.
	FindByLogin(ctx context.Context, identifier string) ([]models.Account, error)
	FindByNaturalID(ctx context.Context, role models.Role, naturalID string) (*models.Account, error)
	UpdatePassword(ctx context.Context, id primitive.ObjectID, hash string, now time.Time) error
	TouchLastLogin(ctx context.Context, id primitive.ObjectID, now time.Time) error
	SetActive(ctx context.Context, role models.Role, naturalID string, active bool, now time.Time) (bool, error)
	SoftDelete(ctx context.Context, role models.Role, naturalID string, now time.Time) error
	ListByNaturalIDs(ctx context.Context, role models.Role, naturalIDs []string) ([]models.Account, error)
}

// OTPStore persists one-time codes.
type OTPStore interface {
	// InvalidatePending removes unverified challenges for the key.
	InvalidatePending(ctx context.Context, identifier string, role models.Role, purpose models.OTPPurpose) error
	Create(ctx context.Context, o *models.OTPChallenge) error
	// Consume atomically marks a matching, unverified and unexpired challenge
	// as verified. A replay or a stale code gets ErrInvalidOrExpiredOTP.
	Consume(ctx context.Context, identifier, code string, role models.Role, purpose models.OTPPurpose, now time.Time) (*models.OTPChallenge, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// ComplaintStore persists complaints. Soft-deleted complaints are invisible.
type ComplaintStore interface {
	Insert(ctx context.Context, c *models.Complaint) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Complaint, error)
	// Update validates c and replaces the stored document only if it still
	// has status prev and version c.Version. On success c.Version is bumped.
	Update(ctx context.Context, c *models.Complaint, prev models.Status) error
	List(ctx context.Context, filter models.ComplaintFilter) ([]models.Complaint, error)
}

// NotificationStore persists feed entries.
type NotificationStore interface {
	Insert(ctx context.Context, n *models.Notification) error
	ListFor(ctx context.Context, role models.Role, accountID primitive.ObjectID, limit int64) ([]models.Notification, error)
	MarkRead(ctx context.Context, id primitive.ObjectID, role models.Role, accountID primitive.ObjectID) (bool, error)
}

// NoticeStore persists board notices.
type NoticeStore interface {
	Insert(ctx context.Context, n *models.Notice) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Notice, error)
	Save(ctx context.Context, n *models.Notice) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	ListAll(ctx context.Context) ([]models.Notice, error)
	ListVisible(ctx context.Context, audience models.Audience, now time.Time) ([]models.Notice, error)
}

// Mailer delivers OTP codes.
type Mailer interface {
	SendOTP(ctx context.Context, to, code string, purpose models.OTPPurpose) error
}

// TokenIssuer signs login tokens.
type TokenIssuer interface {
	Generate(account *models.Account) (string, error)
}

// Notifier records notifications. Failures are logged by the implementation
// and never reach the caller.
type Notifier interface {
	Notify(ctx context.Context, n *models.Notification)
}
