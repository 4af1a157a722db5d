package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"hostelgrievance-be/apperrors"
	"hostelgrievance-be/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AdminService administers master records and their accounts.
type AdminService struct {
	identities IdentityStore
	accounts   AccountStore
	logger     *slog.Logger

	Now func() time.Time
}

func NewAdminService(identities IdentityStore, accounts AccountStore, logger *slog.Logger) *AdminService {
	return &AdminService{identities: identities, accounts: accounts, logger: logger, Now: time.Now}
}

// AccountStatus is the login state merged into master record listings.
type AccountStatus struct {
	UserExists bool       `json:"userExists"`
	UserActive bool       `json:"userActive"`
	LastLogin  *time.Time `json:"lastLogin"`
}

type StudentView struct {
	models.StudentMaster
	AccountStatus
}

type TechnicianView struct {
	models.TechnicianMaster
	AccountStatus
}

type StudentInput struct {
	RegNo      string
	Name       string
	Email      string
	RoomNumber string
	Block      string
}

type TechnicianInput struct {
	TechID     string
	Name       string
	Email      string
	Department string
	Block      string
}

func (s *AdminService) AddStudent(ctx context.Context, caller Caller, in StudentInput) (*models.StudentMaster, error) {
	now := s.Now()
	st := &models.StudentMaster{
		RegNo:           in.RegNo,
		Name:            in.Name,
		Email:           in.Email,
		RoomNumber:      in.RoomNumber,
		Block:           in.Block,
		ImportedByAdmin: true,
		LastModifiedBy:  &caller.AccountID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	st.Normalize()
	if st.RegNo == "" || st.Name == "" || st.Email == "" || st.RoomNumber == "" {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "All fields required")
	}
	if err := s.identities.CreateStudent(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *AdminService) AddTechnician(ctx context.Context, caller Caller, in TechnicianInput) (*models.TechnicianMaster, error) {
	department, ok := models.ParseCategory(in.Department)
	if !ok && strings.TrimSpace(in.Department) != "" {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "Invalid department")
	}
	now := s.Now()
	tech := &models.TechnicianMaster{
		TechID:          in.TechID,
		Name:            in.Name,
		Email:           in.Email,
		Department:      department,
		Block:           in.Block,
		ImportedByAdmin: true,
		LastModifiedBy:  &caller.AccountID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	tech.Normalize()
	if tech.TechID == "" || tech.Name == "" || tech.Email == "" || tech.Department == "" {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "All fields required")
	}
	if err := s.identities.CreateTechnician(ctx, tech); err != nil {
		return nil, err
	}
	return tech, nil
}

func (s *AdminService) accountStatuses(ctx context.Context, role models.Role, ids []string) (map[string]AccountStatus, error) {
	accounts, err := s.accounts.ListByNaturalIDs(ctx, role, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[string]AccountStatus, len(accounts))
	for _, a := range accounts {
		out[a.NaturalID()] = AccountStatus{UserExists: true, UserActive: a.IsActive, LastLogin: a.LastLogin}
	}
	return out, nil
}

// Students lists master records merged with their account state.
func (s *AdminService) Students(ctx context.Context) ([]StudentView, error) {
	masters, err := s.identities.ListStudents(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(masters))
	for i, m := range masters {
		ids[i] = m.RegNo
	}
	statuses, err := s.accountStatuses(ctx, models.RoleStudent, ids)
	if err != nil {
		return nil, err
	}
	views := make([]StudentView, len(masters))
	for i, m := range masters {
		views[i] = StudentView{StudentMaster: m, AccountStatus: statuses[m.RegNo]}
	}
	return views, nil
}

// Technicians lists master records merged with their account state.
func (s *AdminService) Technicians(ctx context.Context) ([]TechnicianView, error) {
	masters, err := s.identities.ListTechnicians(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(masters))
	for i, m := range masters {
		ids[i] = m.TechID
	}
	statuses, err := s.accountStatuses(ctx, models.RoleTechnician, ids)
	if err != nil {
		return nil, err
	}
	views := make([]TechnicianView, len(masters))
	for i, m := range masters {
		views[i] = TechnicianView{TechnicianMaster: m, AccountStatus: statuses[m.TechID]}
	}
	return views, nil
}

// DeactivateStudent disables the record and its account.
func (s *AdminService) DeactivateStudent(ctx context.Context, caller Caller, id primitive.ObjectID) error {
	st, err := s.identities.FindStudentByID(ctx, id)
	if err != nil {
		return err
	}
	now := s.Now()
	st.Activated = false
	st.DeactivatedAt = &now
	st.LastModifiedBy = &caller.AccountID
	st.UpdatedAt = now
	if err := s.identities.SaveStudent(ctx, st); err != nil {
		return err
	}
	_, err = s.accounts.SetActive(ctx, models.RoleStudent, st.RegNo, false, now)
	return err
}

// ReactivateStudent re-enables the account. The record counts as activated
// again only if an account exists, so a student who never signed up can
// still do so.
func (s *AdminService) ReactivateStudent(ctx context.Context, caller Caller, id primitive.ObjectID) error {
	st, err := s.identities.FindStudentByID(ctx, id)
	if err != nil {
		return err
	}
	now := s.Now()
	hasAccount, err := s.accounts.SetActive(ctx, models.RoleStudent, st.RegNo, true, now)
	if err != nil {
		return err
	}
	st.Activated = hasAccount
	st.DeactivatedAt = nil
	st.LastModifiedBy = &caller.AccountID
	st.UpdatedAt = now
	return s.identities.SaveStudent(ctx, st)
}

// DeleteStudent soft-deletes the record and its account so the registration
// number can be imported again.
func (s *AdminService) DeleteStudent(ctx context.Context, caller Caller, id primitive.ObjectID) error {
	st, err := s.identities.FindStudentByID(ctx, id)
	if err != nil {
		return err
	}
	now := s.Now()
	st.IsDeleted = true
	st.Activated = false
	st.LastModifiedBy = &caller.AccountID
	st.UpdatedAt = now
	if err := s.identities.SaveStudent(ctx, st); err != nil {
		return err
	}
	return s.accounts.SoftDelete(ctx, models.RoleStudent, st.RegNo, now)
}

func (s *AdminService) DeactivateTechnician(ctx context.Context, caller Caller, id primitive.ObjectID) error {
	tech, err := s.identities.FindTechnicianByID(ctx, id)
	if err != nil {
		return err
	}
	now := s.Now()
	tech.Activated = false
	tech.DeactivatedAt = &now
	tech.LastModifiedBy = &caller.AccountID
	tech.UpdatedAt = now
	if err := s.identities.SaveTechnician(ctx, tech); err != nil {
		return err
	}
	_, err = s.accounts.SetActive(ctx, models.RoleTechnician, tech.TechID, false, now)
	return err
}

func (s *AdminService) ReactivateTechnician(ctx context.Context, caller Caller, id primitive.ObjectID) error {
	tech, err := s.identities.FindTechnicianByID(ctx, id)
	if err != nil {
		return err
	}
	now := s.Now()
	hasAccount, err := s.accounts.SetActive(ctx, models.RoleTechnician, tech.TechID, true, now)
	if err != nil {
		return err
	}
	tech.Activated = hasAccount
	tech.DeactivatedAt = nil
	tech.LastModifiedBy = &caller.AccountID
	tech.UpdatedAt = now
	return s.identities.SaveTechnician(ctx, tech)
}

func (s *AdminService) DeleteTechnician(ctx context.Context, caller Caller, id primitive.ObjectID) error {
	tech, err := s.identities.FindTechnicianByID(ctx, id)
	if err != nil {
		return err
	}
	now := s.Now()
	tech.IsDeleted = true
	tech.Activated = false
	tech.LastModifiedBy = &caller.AccountID
	tech.UpdatedAt = now
	if err := s.identities.SaveTechnician(ctx, tech); err != nil {
		return err
	}
	return s.accounts.SoftDelete(ctx, models.RoleTechnician, tech.TechID, now)
}

// BootstrapAdmin creates an administrator account. It fails with
// ErrAccountExists when an admin with that email is already present.
func (s *AdminService) BootstrapAdmin(ctx context.Context, name, email, password string) (*models.Account, error) {
	email = models.NormalizeEmail(email)
	name = strings.TrimSpace(name)
	if email == "" || name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "Name and email required")
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	_, err := s.accounts.FindByNaturalID(ctx, models.RoleAdmin, email)
	switch {
	case err == nil:
		return nil, apperrors.ErrAccountExists
	case !errors.Is(err, apperrors.ErrAccountNotFound):
		return nil, err
	}

	now := s.Now()
	admin := &models.Account{
		Name:            name,
		Email:           email,
		Role:            models.RoleAdmin,
		IsActive:        true,
		IsEmailVerified: true,
		CreatedByAdmin:  true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := admin.SetPassword(password); err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	if err := s.accounts.Create(ctx, admin); err != nil {
		return nil, err
	}
	s.logger.Info("admin account created", "email", email)
	return admin, nil
}
