package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"hostelgrievance-be/apperrors"
	"hostelgrievance-be/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type authFixture struct {
	svc        *AuthService
	identities *memIdentities
	accounts   *memAccounts
	otps       *memOTPs
	mailer     *fakeMailer
}

func newAuthFixture(t *testing.T, generated ...string) *authFixture {
	t.Helper()
	f := &authFixture{
		identities: &memIdentities{},
		accounts:   &memAccounts{},
		otps:       &memOTPs{},
		mailer:     &fakeMailer{},
	}
	f.svc = NewAuthService(f.identities, f.accounts, f.otps, f.mailer, fakeTokens{}, quietLogger())
	f.svc.Now = fixedClock(testNow)
	if len(generated) > 0 {
		f.svc.GenerateCode = codes(generated...)
	}

	ctx := context.Background()
	require.NoError(t, f.identities.CreateStudent(ctx, &models.StudentMaster{
		RegNo:      "RA2111003010001",
		Name:       "Asha",
		Email:      "asha@hostel.edu",
		RoomNumber: "A-101",
	}))
	require.NoError(t, f.identities.CreateTechnician(ctx, &models.TechnicianMaster{
		TechID:     "TECH-07",
		Name:       "Ravi",
		Email:      "ravi@hostel.edu",
		Department: models.CategoryElectrical,
	}))
	return f
}

func TestSignup_ReplacesPendingChallenge(t *testing.T) {
	f := newAuthFixture(t, "111111", "222222")
	ctx := context.Background()

	require.NoError(t, f.svc.RequestSignupChallenge(ctx, "ra2111003010001", models.RoleStudent, "secret1"))
	require.NoError(t, f.svc.RequestSignupChallenge(ctx, " RA2111003010001 ", models.RoleStudent, "secret1"))

	pending := f.otps.pending()
	require.Len(t, pending, 1)
	assert.Equal(t, "222222", pending[0].Code)
	assert.Equal(t, "RA2111003010001", pending[0].Identifier)
	assert.Equal(t, testNow.Add(OTPTTL), pending[0].ExpiresAt)

	require.Len(t, f.mailer.sent, 2)
	assert.Equal(t, "asha@hostel.edu", f.mailer.last().to)
	assert.Equal(t, models.PurposeSignup, f.mailer.last().purpose)

	_, err := f.svc.VerifySignupChallenge(ctx, "RA2111003010001", models.RoleStudent, "111111", "secret1")
	assert.ErrorIs(t, err, apperrors.ErrInvalidOrExpiredOTP)
}

func TestSignup_VerifyActivatesOnce(t *testing.T) {
	f := newAuthFixture(t, "482913")
	ctx := context.Background()

	require.NoError(t, f.svc.RequestSignupChallenge(ctx, "RA2111003010001", models.RoleStudent, "secret1"))

	account, err := f.svc.VerifySignupChallenge(ctx, "RA2111003010001", models.RoleStudent, " 482913 ", "secret1")
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, account.Role)
	assert.Equal(t, "RA2111003010001", account.RegNo)
	assert.Equal(t, "A-101", account.RoomNumber)
	assert.Equal(t, "asha@hostel.edu", account.Email)
	assert.True(t, account.IsActive)
	assert.True(t, account.ComparePassword("secret1"))

	student := f.identities.storedStudent("RA2111003010001")
	require.NotNil(t, student)
	assert.True(t, student.Activated)
	require.NotNil(t, student.ActivatedAt)
	assert.Equal(t, testNow, *student.ActivatedAt)

	_, err = f.svc.VerifySignupChallenge(ctx, "RA2111003010001", models.RoleStudent, "482913", "secret1")
	assert.ErrorIs(t, err, apperrors.ErrAlreadyActivated)

	err = f.svc.RequestSignupChallenge(ctx, "RA2111003010001", models.RoleStudent, "secret1")
	assert.ErrorIs(t, err, apperrors.ErrAlreadyActivated)
}

func TestSignup_ActivationSaveRetried(t *testing.T) {
	f := newAuthFixture(t, "482913")
	ctx := context.Background()

	require.NoError(t, f.svc.RequestSignupChallenge(ctx, "RA2111003010001", models.RoleStudent, "secret1"))
	f.identities.failSaves = 1

	_, err := f.svc.VerifySignupChallenge(ctx, "RA2111003010001", models.RoleStudent, "482913", "secret1")
	require.NoError(t, err)

	assert.Equal(t, 2, f.identities.saves)
	assert.True(t, f.identities.storedStudent("RA2111003010001").Activated)
}

func TestSignup_ActivationFailureKeepsAccount(t *testing.T) {
	f := newAuthFixture(t, "482913")
	ctx := context.Background()

	require.NoError(t, f.svc.RequestSignupChallenge(ctx, "RA2111003010001", models.RoleStudent, "secret1"))
	f.identities.failSaves = 2

	account, err := f.svc.VerifySignupChallenge(ctx, "RA2111003010001", models.RoleStudent, "482913", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "RA2111003010001", account.RegNo)
	assert.False(t, f.identities.storedStudent("RA2111003010001").Activated)

	stored, err := f.accounts.FindByNaturalID(ctx, models.RoleStudent, "RA2111003010001")
	require.NoError(t, err)
	assert.Equal(t, account.ID, stored.ID)

	err = f.svc.RequestSignupChallenge(ctx, "RA2111003010001", models.RoleStudent, "secret1")
	assert.ErrorIs(t, err, apperrors.ErrAccountExists)
}

func TestSignup_Technician(t *testing.T) {
	f := newAuthFixture(t, "700001")
	ctx := context.Background()

	require.NoError(t, f.svc.RequestSignupChallenge(ctx, "tech-07", models.RoleTechnician, "wrench99"))
	account, err := f.svc.VerifySignupChallenge(ctx, "tech-07", models.RoleTechnician, "700001", "wrench99")
	require.NoError(t, err)

	assert.Equal(t, "TECH-07", account.TechID)
	assert.Equal(t, models.CategoryElectrical, account.Department)
	assert.Empty(t, account.RegNo)
}

func TestSignup_MailFailureDropsChallenge(t *testing.T) {
	f := newAuthFixture(t, "111111")
	f.mailer.err = errors.New("smtp: 421 service not available")

	err := f.svc.RequestSignupChallenge(context.Background(), "RA2111003010001", models.RoleStudent, "secret1")

	assert.ErrorIs(t, err, apperrors.ErrMailDispatch)
	assert.Empty(t, f.otps.pending())
}

func TestSignup_Rejections(t *testing.T) {
	f := newAuthFixture(t, "111111")
	ctx := context.Background()

	err := f.svc.RequestSignupChallenge(ctx, "RA0000000000000", models.RoleStudent, "secret1")
	assert.ErrorIs(t, err, apperrors.ErrIdentityNotFound)

	err = f.svc.RequestSignupChallenge(ctx, "RA2111003010001", models.RoleStudent, "abc")
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	err = f.svc.RequestSignupChallenge(ctx, "", models.RoleStudent, "secret1")
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	err = f.svc.RequestSignupChallenge(ctx, "admin@hostel.edu", models.RoleAdmin, "secret1")
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	assert.Empty(t, f.mailer.sent)
}

func TestSignup_ExpiredCode(t *testing.T) {
	f := newAuthFixture(t, "111111")
	ctx := context.Background()

	require.NoError(t, f.svc.RequestSignupChallenge(ctx, "RA2111003010001", models.RoleStudent, "secret1"))

	f.svc.Now = fixedClock(testNow.Add(OTPTTL + time.Second))
	_, err := f.svc.VerifySignupChallenge(ctx, "RA2111003010001", models.RoleStudent, "111111", "secret1")
	assert.ErrorIs(t, err, apperrors.ErrInvalidOrExpiredOTP)

	student := f.identities.storedStudent("RA2111003010001")
	assert.False(t, student.Activated)
}

func TestLogin_AcceptsAnyIdentifier(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	student := mustAccount(models.RoleStudent, "RA2111003010001", "asha@hostel.edu", "secret1")
	require.NoError(t, f.accounts.Create(ctx, student))

	for _, identifier := range []string{"RA2111003010001", " ra2111003010001 ", "ASHA@hostel.edu"} {
		res, err := f.svc.Login(ctx, identifier, "secret1")
		require.NoError(t, err, identifier)
		assert.Equal(t, "token-"+student.ID.Hex(), res.Token)
		require.NotNil(t, res.Account.LastLogin)
		assert.Equal(t, testNow, *res.Account.LastLogin)
	}
}

func TestLogin_Failures(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	require.NoError(t, f.accounts.Create(ctx, mustAccount(models.RoleStudent, "RA2111003010001", "shared@hostel.edu", "secret1")))
	require.NoError(t, f.accounts.Create(ctx, mustAccount(models.RoleTechnician, "TECH-07", "shared@hostel.edu", "secret1")))
	disabled := mustAccount(models.RoleTechnician, "TECH-09", "off@hostel.edu", "secret1")
	disabled.IsActive = false
	require.NoError(t, f.accounts.Create(ctx, disabled))

	tests := []struct {
		name       string
		identifier string
		password   string
		want       error
	}{
		{"unknown", "nobody@hostel.edu", "secret1", apperrors.ErrInvalidAccount},
		{"wrong password", "TECH-07", "secret2", apperrors.ErrInvalidCredentials},
		{"ambiguous email", "shared@hostel.edu", "secret1", apperrors.ErrAmbiguousIdentifier},
		{"disabled", "tech-09", "secret1", apperrors.ErrAccountDisabled},
		{"empty", "  ", "secret1", apperrors.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Login(ctx, tt.identifier, tt.password)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestPasswordReset(t *testing.T) {
	f := newAuthFixture(t, "909090")
	ctx := context.Background()
	require.NoError(t, f.accounts.Create(ctx, mustAccount(models.RoleStudent, "RA2111003010001", "asha@hostel.edu", "secret1")))

	require.NoError(t, f.svc.RequestPasswordReset(ctx, "asha@hostel.edu"))
	require.Len(t, f.mailer.sent, 1)
	assert.Equal(t, models.PurposeForgotPassword, f.mailer.last().purpose)

	err := f.svc.ResetPassword(ctx, "asha@hostel.edu", "909090", "newpass1", models.RoleTechnician)
	assert.ErrorIs(t, err, apperrors.ErrAccountNotFound)

	require.NoError(t, f.svc.ResetPassword(ctx, "RA2111003010001", "909090", "newpass1", models.RoleStudent))

	_, err = f.svc.Login(ctx, "RA2111003010001", "secret1")
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	_, err = f.svc.Login(ctx, "RA2111003010001", "newpass1")
	assert.NoError(t, err)

	err = f.svc.ResetPassword(ctx, "RA2111003010001", "909090", "again123", models.RoleStudent)
	assert.ErrorIs(t, err, apperrors.ErrInvalidOrExpiredOTP)
}

func TestPasswordReset_UnknownAccount(t *testing.T) {
	f := newAuthFixture(t, "909090")

	err := f.svc.RequestPasswordReset(context.Background(), "ghost@hostel.edu")

	assert.ErrorIs(t, err, apperrors.ErrAccountNotFound)
	assert.Empty(t, f.mailer.sent)
}
