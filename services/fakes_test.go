package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"hostelgrievance-be/apperrors"
	"hostelgrievance-be/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var testNow = time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memIdentities keeps master records in memory with the same live-uniqueness
// rules as the Mongo indexes.
type memIdentities struct {
	mu          sync.Mutex
	students    []*models.StudentMaster
	technicians []*models.TechnicianMaster

	// failSaves makes the next n saves fail.
	failSaves int
	saves     int
}

func (m *memIdentities) saveFault() error {
	m.saves++
	if m.failSaves > 0 {
		m.failSaves--
		return errors.New("write concern timeout")
	}
	return nil
}

func (m *memIdentities) FindStudent(_ context.Context, regNo string) (*models.StudentMaster, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.students {
		if !s.IsDeleted && s.RegNo == regNo {
			cp := *s
			return &cp, nil
		}
	}
	return nil, apperrors.ErrIdentityNotFound
}

func (m *memIdentities) FindStudentByID(_ context.Context, id primitive.ObjectID) (*models.StudentMaster, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.students {
		if !s.IsDeleted && s.ID == id {
			cp := *s
			return &cp, nil
		}
	}
	return nil, apperrors.ErrIdentityNotFound
}

func (m *memIdentities) CreateStudent(_ context.Context, s *models.StudentMaster) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.students {
		if !existing.IsDeleted && (existing.RegNo == s.RegNo || existing.Email == s.Email) {
			return apperrors.ErrDuplicateIdentity
		}
	}
	if s.ID.IsZero() {
		s.ID = primitive.NewObjectID()
	}
	cp := *s
	m.students = append(m.students, &cp)
	return nil
}

func (m *memIdentities) SaveStudent(_ context.Context, s *models.StudentMaster) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.saveFault(); err != nil {
		return err
	}
	for i, existing := range m.students {
		if existing.ID == s.ID {
			cp := *s
			m.students[i] = &cp
			return nil
		}
	}
	return apperrors.ErrIdentityNotFound
}

func (m *memIdentities) ListStudents(context.Context) ([]models.StudentMaster, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.StudentMaster
	for _, s := range m.students {
		if !s.IsDeleted {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *memIdentities) FindTechnician(_ context.Context, techID string) (*models.TechnicianMaster, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.technicians {
		if !t.IsDeleted && t.TechID == techID {
			cp := *t
			return &cp, nil
		}
	}
	return nil, apperrors.ErrIdentityNotFound
}

func (m *memIdentities) FindTechnicianByID(_ context.Context, id primitive.ObjectID) (*models.TechnicianMaster, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.technicians {
		if !t.IsDeleted && t.ID == id {
			cp := *t
			return &cp, nil
		}
	}
	return nil, apperrors.ErrIdentityNotFound
}

func (m *memIdentities) CreateTechnician(_ context.Context, t *models.TechnicianMaster) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.technicians {
		if !existing.IsDeleted && (existing.TechID == t.TechID || existing.Email == t.Email) {
			return apperrors.ErrDuplicateIdentity
		}
	}
	if t.ID.IsZero() {
		t.ID = primitive.NewObjectID()
	}
	cp := *t
	m.technicians = append(m.technicians, &cp)
	return nil
}

func (m *memIdentities) SaveTechnician(_ context.Context, t *models.TechnicianMaster) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.saveFault(); err != nil {
		return err
	}
	for i, existing := range m.technicians {
		if existing.ID == t.ID {
			cp := *t
			m.technicians[i] = &cp
			return nil
		}
	}
	return apperrors.ErrIdentityNotFound
}

func (m *memIdentities) ListTechnicians(context.Context) ([]models.TechnicianMaster, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.TechnicianMaster
	for _, t := range m.technicians {
		if !t.IsDeleted {
			out = append(out, *t)
		}
	}
	return out, nil
}

// storedStudent returns the latest record including soft-deleted ones.
func (m *memIdentities) storedStudent(regNo string) *models.StudentMaster {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.students) - 1; i >= 0; i-- {
		if m.students[i].RegNo == regNo {
			cp := *m.students[i]
			return &cp
		}
	}
	return nil
}

type memAccounts struct {
	mu       sync.Mutex
	accounts []*models.Account
}

func (m *memAccounts) Create(_ context.Context, a *models.Account) error {
	if err := a.Validate(); err != nil {
		return apperrors.Wrap(apperrors.ErrValidation, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.accounts {
		if !existing.IsDeleted && existing.Role == a.Role && existing.NaturalID() == a.NaturalID() {
			return apperrors.ErrAccountExists
		}
	}
	if a.ID.IsZero() {
		a.ID = primitive.NewObjectID()
	}
	cp := *a
	m.accounts = append(m.accounts, &cp)
	return nil
}

func (m *memAccounts) FindByID(_ context.Context, id primitive.ObjectID) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if !a.IsDeleted && a.ID == id {
			cp := *a
			return &cp, nil
		}
	}
	return nil, apperrors.ErrAccountNotFound
}

func (m *memAccounts) FindByLogin(_ context.Context, identifier string) ([]models.Account, error) {
	upper := strings.ToUpper(strings.TrimSpace(identifier))
	lower := strings.ToLower(strings.TrimSpace(identifier))
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Account
	for _, a := range m.accounts {
		if a.IsDeleted {
			continue
		}
		if (a.RegNo != "" && a.RegNo == upper) || (a.TechID != "" && a.TechID == upper) || a.Email == lower {
			out = append(out, *a)
		}
		if len(out) == 2 {
			break
		}
	}
	return out, nil
}

func (m *memAccounts) FindByNaturalID(_ context.Context, role models.Role, naturalID string) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a := m.find(role, naturalID); a != nil {
		cp := *a
		return &cp, nil
	}
	return nil, apperrors.ErrAccountNotFound
}

func (m *memAccounts) find(role models.Role, naturalID string) *models.Account {
	for _, a := range m.accounts {
		if !a.IsDeleted && a.Role == role && strings.EqualFold(a.NaturalID(), naturalID) {
			return a
		}
	}
	return nil
}

func (m *memAccounts) UpdatePassword(_ context.Context, id primitive.ObjectID, hash string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if !a.IsDeleted && a.ID == id {
			a.PasswordHash = hash
			a.UpdatedAt = now
			return nil
		}
	}
	return apperrors.ErrAccountNotFound
}

func (m *memAccounts) TouchLastLogin(_ context.Context, id primitive.ObjectID, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if a.ID == id {
			a.LastLogin = &now
		}
	}
	return nil
}

func (m *memAccounts) SetActive(_ context.Context, role models.Role, naturalID string, active bool, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := m.find(role, naturalID)
	if a == nil {
		return false, nil
	}
	a.IsActive = active
	a.UpdatedAt = now
	return true, nil
}

func (m *memAccounts) SoftDelete(_ context.Context, role models.Role, naturalID string, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if !a.IsDeleted && a.Role == role && strings.EqualFold(a.NaturalID(), naturalID) {
			a.IsDeleted = true
			a.IsActive = false
			a.UpdatedAt = now
		}
	}
	return nil
}

func (m *memAccounts) ListByNaturalIDs(_ context.Context, role models.Role, naturalIDs []string) ([]models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Account
	for _, id := range naturalIDs {
		if a := m.find(role, id); a != nil {
			out = append(out, *a)
		}
	}
	return out, nil
}

type memOTPs struct {
	mu         sync.Mutex
	challenges []*models.OTPChallenge
}

func (m *memOTPs) InvalidatePending(_ context.Context, identifier string, role models.Role, purpose models.OTPPurpose) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.challenges[:0]
	for _, o := range m.challenges {
		if !o.Verified && o.Identifier == identifier && o.Role == role && o.Purpose == purpose {
			continue
		}
		kept = append(kept, o)
	}
	m.challenges = kept
	return nil
}

func (m *memOTPs) Create(_ context.Context, o *models.OTPChallenge) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o.ID = primitive.NewObjectID()
	cp := *o
	m.challenges = append(m.challenges, &cp)
	return nil
}

func (m *memOTPs) Consume(_ context.Context, identifier, code string, role models.Role, purpose models.OTPPurpose, now time.Time) (*models.OTPChallenge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.challenges {
		if o.Identifier == identifier && o.Code == code && o.Role == role && o.Purpose == purpose && o.Usable(now) {
			o.Verified = true
			o.UpdatedAt = now
			cp := *o
			return &cp, nil
		}
	}
	return nil, apperrors.ErrInvalidOrExpiredOTP
}

func (m *memOTPs) Delete(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, o := range m.challenges {
		if o.ID == id {
			m.challenges = append(m.challenges[:i], m.challenges[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *memOTPs) pending() []models.OTPChallenge {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.OTPChallenge
	for _, o := range m.challenges {
		if !o.Verified {
			out = append(out, *o)
		}
	}
	return out
}

type sentMail struct {
	to, code string
	purpose  models.OTPPurpose
}

type fakeMailer struct {
	err  error
	sent []sentMail
}

func (f *fakeMailer) SendOTP(_ context.Context, to, code string, purpose models.OTPPurpose) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{to: to, code: code, purpose: purpose})
	return nil
}

func (f *fakeMailer) last() sentMail {
	return f.sent[len(f.sent)-1]
}

type fakeTokens struct{}

func (fakeTokens) Generate(a *models.Account) (string, error) {
	return "token-" + a.ID.Hex(), nil
}

// memComplaints enforces the same conditional write as the Mongo repository.
type memComplaints struct {
	mu    sync.Mutex
	order []primitive.ObjectID
	byID  map[primitive.ObjectID]*models.Complaint
}

func newMemComplaints() *memComplaints {
	return &memComplaints{byID: map[primitive.ObjectID]*models.Complaint{}}
}

func cloneComplaint(c *models.Complaint) *models.Complaint {
	cp := *c
	cp.StatusHistory = append([]models.StatusChange(nil), c.StatusHistory...)
	cp.TechnicianHistory = append([]models.TechnicianAssignment(nil), c.TechnicianHistory...)
	cp.Images = append([]string(nil), c.Images...)
	cp.RepairImages = append([]string(nil), c.RepairImages...)
	return &cp
}

func (m *memComplaints) Insert(_ context.Context, c *models.Complaint) error {
	if err := c.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	m.byID[c.ID] = cloneComplaint(c)
	m.order = append(m.order, c.ID)
	return nil
}

func (m *memComplaints) FindByID(_ context.Context, id primitive.ObjectID) (*models.Complaint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.byID[id]
	if !ok || c.IsDeleted {
		return nil, apperrors.ErrComplaintNotFound
	}
	return cloneComplaint(c), nil
}

func (m *memComplaints) Update(_ context.Context, c *models.Complaint, prev models.Status) error {
	if err := c.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.byID[c.ID]
	if !ok || stored.IsDeleted || stored.Status != prev || stored.Version != c.Version {
		return apperrors.ErrConcurrentUpdate
	}
	c.Version++
	m.byID[c.ID] = cloneComplaint(c)
	return nil
}

func (m *memComplaints) List(_ context.Context, f models.ComplaintFilter) ([]models.Complaint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Complaint{}
	for _, id := range m.order {
		c := m.byID[id]
		if c.IsDeleted || !matches(c, f) {
			continue
		}
		out = append(out, *cloneComplaint(c))
		if f.Limit > 0 && int64(len(out)) == f.Limit {
			break
		}
	}
	return out, nil
}

func matches(c *models.Complaint, f models.ComplaintFilter) bool {
	if f.UserID != nil && c.UserID != *f.UserID {
		return false
	}
	if f.Category != "" && c.Category != f.Category {
		return false
	}
	if f.Ragging != nil && c.IsRagging != *f.Ragging {
		return false
	}
	if len(f.Statuses) > 0 && !containsStatus(f.Statuses, c.Status) {
		return false
	}
	if f.AssignedToOrFree != nil && c.AssignedTechnician != nil && *c.AssignedTechnician != *f.AssignedToOrFree {
		return false
	}
	if f.ExcludeID != nil && c.ID == *f.ExcludeID {
		return false
	}
	if len(f.KeywordsAny) > 0 && !sharesKeyword(c.Keywords, f.KeywordsAny) {
		return false
	}
	return true
}

func containsStatus(list []models.Status, s models.Status) bool {
	for _, candidate := range list {
		if candidate == s {
			return true
		}
	}
	return false
}

func sharesKeyword(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}

type memNotifications struct {
	mu    sync.Mutex
	items []*models.Notification
	err   error
}

func (m *memNotifications) Insert(_ context.Context, n *models.Notification) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	n.ID = primitive.NewObjectID()
	cp := *n
	m.items = append(m.items, &cp)
	return nil
}

func (m *memNotifications) visible(n *models.Notification, role models.Role, accountID primitive.ObjectID) bool {
	return n.Role == role && (n.UserID == nil || *n.UserID == accountID)
}

func (m *memNotifications) ListFor(_ context.Context, role models.Role, accountID primitive.ObjectID, limit int64) ([]models.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Notification
	for i := len(m.items) - 1; i >= 0; i-- {
		if m.visible(m.items[i], role, accountID) {
			out = append(out, *m.items[i])
		}
		if int64(len(out)) == limit {
			break
		}
	}
	return out, nil
}

func (m *memNotifications) MarkRead(_ context.Context, id primitive.ObjectID, role models.Role, accountID primitive.ObjectID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.items {
		if n.ID != id || !m.visible(n, role, accountID) {
			continue
		}
		if n.ReadFor(accountID) {
			return true, nil
		}
		if n.Broadcast() {
			n.ReadBy = append(n.ReadBy, accountID)
		} else {
			n.IsRead = true
		}
		return false, nil
	}
	return false, apperrors.ErrNotificationNotFound
}

type memNotices struct {
	mu      sync.Mutex
	notices []*models.Notice
}

func (m *memNotices) Insert(_ context.Context, n *models.Notice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n.ID = primitive.NewObjectID()
	cp := *n
	m.notices = append(m.notices, &cp)
	return nil
}

func (m *memNotices) FindByID(_ context.Context, id primitive.ObjectID) (*models.Notice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.notices {
		if n.ID == id {
			cp := *n
			return &cp, nil
		}
	}
	return nil, apperrors.ErrNoticeNotFound
}

func (m *memNotices) Save(_ context.Context, n *models.Notice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, existing := range m.notices {
		if existing.ID == n.ID {
			cp := *n
			m.notices[i] = &cp
			return nil
		}
	}
	return apperrors.ErrNoticeNotFound
}

func (m *memNotices) Delete(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, n := range m.notices {
		if n.ID == id {
			m.notices = append(m.notices[:i], m.notices[i+1:]...)
			return nil
		}
	}
	return apperrors.ErrNoticeNotFound
}

func (m *memNotices) ListAll(context.Context) ([]models.Notice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Notice{}
	for _, n := range m.notices {
		out = append(out, *n)
	}
	return out, nil
}

func (m *memNotices) ListVisible(_ context.Context, audience models.Audience, now time.Time) ([]models.Notice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Notice{}
	for _, n := range m.notices {
		if n.VisibleAt(audience, now) {
			out = append(out, *n)
		}
	}
	return out, nil
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []models.Notification
}

func (r *recordingNotifier) Notify(_ context.Context, n *models.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, *n)
}

func (r *recordingNotifier) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = nil
}

// codes returns a generator yielding the given codes in order.
func codes(list ...string) func() (string, error) {
	i := 0
	return func() (string, error) {
		if i >= len(list) {
			return "", errors.New("no more codes")
		}
		i++
		return list[i-1], nil
	}
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func mustAccount(role models.Role, naturalID, email, password string) *models.Account {
	a := &models.Account{
		Name:            fmt.Sprintf("%s %s", role, naturalID),
		Email:           email,
		Role:            role,
		IsActive:        true,
		IsEmailVerified: true,
		CreatedAt:       testNow,
		UpdatedAt:       testNow,
	}
	switch role {
	case models.RoleStudent:
		a.RegNo = naturalID
	case models.RoleTechnician:
		a.TechID = naturalID
	}
	if err := a.SetPassword(password); err != nil {
		panic(err)
	}
	return a
}
