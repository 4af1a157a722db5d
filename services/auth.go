package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"hostelgrievance-be/apperrors"
	"hostelgrievance-be/models"
)

const (
	OTPTTL            = 5 * time.Minute
	MinPasswordLength = 6
)

// AuthService implements OTP-gated signup, login and password reset.
type AuthService struct {
	identities IdentityStore
	accounts   AccountStore
	otps       OTPStore
	mailer     Mailer
	tokens     TokenIssuer
	logger     *slog.Logger

	Now          func() time.Time
	GenerateCode func() (string, error)
}

// NewAuthService wires the auth flows.
func NewAuthService(identities IdentityStore, accounts AccountStore, otps OTPStore, mailer Mailer, tokens TokenIssuer, logger *slog.Logger) *AuthService {
	return &AuthService{
		identities:   identities,
		accounts:     accounts,
		otps:         otps,
		mailer:       mailer,
		tokens:       tokens,
		logger:       logger,
		Now:          time.Now,
		GenerateCode: generateOTP,
	}
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token   string
	Account *models.Account
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// signupIdentity is the part of a master record signup needs.
type signupIdentity struct {
	naturalID string
	name      string
	email     string
	activated bool
	fill      func(a *models.Account)
	activate  func(ctx context.Context, now time.Time) error
}

func (s *AuthService) lookupSignupIdentity(ctx context.Context, naturalID string, role models.Role) (*signupIdentity, error) {
	switch role {
	case models.RoleStudent:
		st, err := s.identities.FindStudent(ctx, naturalID)
		if err != nil {
			return nil, err
		}
		return &signupIdentity{
			naturalID: st.RegNo,
			name:      st.Name,
			email:     st.Email,
			activated: st.Activated,
			fill: func(a *models.Account) {
				a.RegNo = st.RegNo
				a.RoomNumber = st.RoomNumber
			},
			activate: func(ctx context.Context, now time.Time) error {
				st.Activated = true
				st.ActivatedAt = &now
				st.DeactivatedAt = nil
				st.UpdatedAt = now
				return s.identities.SaveStudent(ctx, st)
			},
		}, nil
	case models.RoleTechnician:
		tech, err := s.identities.FindTechnician(ctx, naturalID)
		if err != nil {
			return nil, err
		}
		return &signupIdentity{
			naturalID: tech.TechID,
			name:      tech.Name,
			email:     tech.Email,
			activated: tech.Activated,
			fill: func(a *models.Account) {
				a.TechID = tech.TechID
				a.Department = tech.Department
			},
			activate: func(ctx context.Context, now time.Time) error {
				tech.Activated = true
				tech.ActivatedAt = &now
				tech.DeactivatedAt = nil
				tech.UpdatedAt = now
				return s.identities.SaveTechnician(ctx, tech)
			},
		}, nil
	}
	return nil, apperrors.WithMessage(apperrors.ErrValidation, "Signup is only available to students and technicians")
}

// checkSignupAllowed returns the identity when it may still sign up.
func (s *AuthService) checkSignupAllowed(ctx context.Context, naturalID string, role models.Role) (*signupIdentity, error) {
	identity, err := s.lookupSignupIdentity(ctx, naturalID, role)
	if err != nil {
		return nil, err
	}
	if identity.activated {
		return nil, apperrors.ErrAlreadyActivated
	}
	_, err = s.accounts.FindByNaturalID(ctx, role, identity.naturalID)
	switch {
	case err == nil:
		return nil, apperrors.ErrAccountExists
	case !errors.Is(err, apperrors.ErrAccountNotFound):
		return nil, err
	}
	return identity, nil
}

func validatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return apperrors.WithMessage(apperrors.ErrValidation, fmt.Sprintf("Password must be at least %d characters", MinPasswordLength))
	}
	return nil
}

// RequestSignupChallenge mails a signup code to the identity's registered
// email. The code itself is never returned.
func (s *AuthService) RequestSignupChallenge(ctx context.Context, naturalID string, role models.Role, password string) error {
	naturalID = models.NormalizeNaturalID(naturalID)
	if naturalID == "" {
		return apperrors.WithMessage(apperrors.ErrValidation, "Identifier and password required")
	}
	if err := validatePassword(password); err != nil {
		return err
	}

	identity, err := s.checkSignupAllowed(ctx, naturalID, role)
	if err != nil {
		return err
	}
	return s.issueChallenge(ctx, identity.naturalID, identity.email, role, models.PurposeSignup)
}

// issueChallenge replaces any pending challenge for the key and mails the new
// code. When delivery fails the new challenge is removed again.
func (s *AuthService) issueChallenge(ctx context.Context, identifier, email string, role models.Role, purpose models.OTPPurpose) error {
	if err := s.otps.InvalidatePending(ctx, identifier, role, purpose); err != nil {
		return err
	}

	code, err := s.GenerateCode()
	if err != nil {
		return fmt.Errorf("generate otp: %w", err)
	}
	now := s.Now()
	challenge := &models.OTPChallenge{
		Identifier: identifier,
		Email:      email,
		Role:       role,
		Code:       code,
		Purpose:    purpose,
		ExpiresAt:  now.Add(OTPTTL),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.otps.Create(ctx, challenge); err != nil {
		return err
	}

	if err := s.mailer.SendOTP(ctx, email, code, purpose); err != nil {
		s.logger.Error("otp mail dispatch failed", "identifier", identifier, "role", role, "purpose", purpose, "error", err)
		if delErr := s.otps.Delete(ctx, challenge.ID); delErr != nil {
			s.logger.Error("failed to remove undelivered otp", "identifier", identifier, "error", delErr)
		}
		return apperrors.Wrap(apperrors.ErrMailDispatch, err)
	}
	return nil
}

// VerifySignupChallenge consumes the code, creates the account and marks the
// master record activated.
func (s *AuthService) VerifySignupChallenge(ctx context.Context, naturalID string, role models.Role, code, password string) (*models.Account, error) {
	naturalID = models.NormalizeNaturalID(naturalID)
	code = strings.TrimSpace(code)
	if naturalID == "" || code == "" {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "Identifier, OTP and password required")
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	identity, err := s.checkSignupAllowed(ctx, naturalID, role)
	if err != nil {
		return nil, err
	}

	now := s.Now()
	if _, err := s.otps.Consume(ctx, identity.naturalID, code, role, models.PurposeSignup, now); err != nil {
		return nil, err
	}

	account := &models.Account{
		Name:            identity.name,
		Email:           identity.email,
		Role:            role,
		IsActive:        true,
		IsEmailVerified: true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	identity.fill(account)
	if err := account.SetPassword(password); err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, err
	}

	// The account is already stored, so a failed activation save is retried
	// once and then logged for repair rather than failing the signup.
	if err := identity.activate(ctx, now); err != nil {
		s.logger.Warn("master record activation failed, retrying", "role", role, "naturalId", identity.naturalID, "error", err)
		if err := identity.activate(ctx, now); err != nil {
			s.logger.Error("account created but master record not activated",
				"role", role,
				"naturalId", identity.naturalID,
				"accountId", account.ID.Hex(),
				"error", err,
			)
			return account, nil
		}
	}
	s.logger.Info("account activated", "role", role, "naturalId", identity.naturalID)
	return account, nil
}

// Login authenticates a registration number, technician id or email.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (*LoginResult, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "Identifier and password required")
	}

	matches, err := s.accounts.FindByLogin(ctx, identifier)
	if err != nil {
		return nil, err
	}
	switch {
	case len(matches) == 0:
		return nil, apperrors.ErrInvalidAccount
	case len(matches) > 1:
		return nil, apperrors.ErrAmbiguousIdentifier
	}

	account := &matches[0]
	if !account.IsActive {
		return nil, apperrors.ErrAccountDisabled
	}
	if !account.ComparePassword(password) {
		return nil, apperrors.ErrInvalidCredentials
	}

	token, err := s.tokens.Generate(account)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	now := s.Now()
	if err := s.accounts.TouchLastLogin(ctx, account.ID, now); err != nil {
		return nil, err
	}
	account.LastLogin = &now
	return &LoginResult{Token: token, Account: account}, nil
}

// RequestPasswordReset mails a reset code to the account's email.
func (s *AuthService) RequestPasswordReset(ctx context.Context, identifier string) error {
	account, err := s.resolveAccount(ctx, identifier, "")
	if err != nil {
		return err
	}
	return s.issueChallenge(ctx, account.NaturalID(), account.Email, account.Role, models.PurposeForgotPassword)
}

// ResetPassword consumes a reset code and replaces the password hash.
func (s *AuthService) ResetPassword(ctx context.Context, identifier, code, newPassword string, role models.Role) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return apperrors.WithMessage(apperrors.ErrValidation, "OTP is required")
	}
	if !role.Valid() {
		return apperrors.WithMessage(apperrors.ErrValidation, "Role is required")
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	account, err := s.resolveAccount(ctx, identifier, role)
	if err != nil {
		return err
	}

	now := s.Now()
	if _, err := s.otps.Consume(ctx, account.NaturalID(), code, account.Role, models.PurposeForgotPassword, now); err != nil {
		return err
	}
	if err := account.SetPassword(newPassword); err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.accounts.UpdatePassword(ctx, account.ID, account.PasswordHash, now)
}

// resolveAccount finds the single account an identifier refers to,
// optionally restricted to role.
func (s *AuthService) resolveAccount(ctx context.Context, identifier string, role models.Role) (*models.Account, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, apperrors.WithMessage(apperrors.ErrValidation, "Identifier is required")
	}
	matches, err := s.accounts.FindByLogin(ctx, identifier)
	if err != nil {
		return nil, err
	}

	var found []models.Account
	for _, m := range matches {
		if role == "" || m.Role == role {
			found = append(found, m)
		}
	}
	switch len(found) {
	case 0:
		return nil, apperrors.ErrAccountNotFound
	case 1:
		return &found[0], nil
	}
	return nil, apperrors.ErrAmbiguousIdentifier
}
