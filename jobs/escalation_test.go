package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"hostelgrievance-be/models"
	"hostelgrievance-be/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type mockSweeper struct {
	mock.Mock
}

func (m *mockSweeper) Find(ctx context.Context, filter models.ComplaintFilter) ([]models.Complaint, error) {
	args := m.Called(ctx, filter)
	list, _ := args.Get(0).([]models.Complaint)
	return list, args.Error(1)
}

func (m *mockSweeper) AutoConfirm(ctx context.Context, c *models.Complaint) error {
	return m.Called(ctx, c).Error(0)
}

type mockGuard struct {
	mock.Mock
}

func (m *mockGuard) Once(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *mockGuard) Lock(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	args := m.Called(ctx, key, ttl)
	release, _ := args.Get(0).(func(context.Context) error)
	return release, args.Error(1)
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

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func hasStatus(s models.Status) func(models.ComplaintFilter) bool {
	return func(f models.ComplaintFilter) bool {
		return len(f.Statuses) == 1 && f.Statuses[0] == s
	}
}

func autoConfirmQuery(f models.ComplaintFilter) bool {
	return hasStatus(models.StatusResolved)(f) && f.ResolvedAfter == nil
}

func reminderQuery(f models.ComplaintFilter) bool {
	return hasStatus(models.StatusResolved)(f) && f.ResolvedAfter != nil
}

func newEscalator(sweeper *mockSweeper, notifier *recordingNotifier, guard Guard) *Escalator {
	e := NewEscalator(sweeper, notifier, guard, time.Hour, quietLogger())
	e.Now = func() time.Time { return now }
	return e
}

func TestRunOnce_AllSweeps(t *testing.T) {
	stale := models.Complaint{ID: primitive.NewObjectID(), Status: models.StatusResolved}
	waiting := models.Complaint{ID: primitive.NewObjectID(), UserID: primitive.NewObjectID()}
	techAccount := primitive.NewObjectID()
	overdue := models.Complaint{ID: primitive.NewObjectID(), AssignedTechnicianAccount: &techAccount}
	stuck := models.Complaint{ID: primitive.NewObjectID()}

	sweeper := new(mockSweeper)
	sweeper.On("Find", mock.Anything, mock.MatchedBy(autoConfirmQuery)).Return([]models.Complaint{stale}, nil)
	sweeper.On("Find", mock.Anything, mock.MatchedBy(reminderQuery)).Return([]models.Complaint{waiting}, nil)
	sweeper.On("Find", mock.Anything, mock.MatchedBy(hasStatus(models.StatusPending))).Return([]models.Complaint{overdue}, nil)
	sweeper.On("Find", mock.Anything, mock.MatchedBy(hasStatus(models.StatusInProgress))).Return([]models.Complaint{stuck}, nil)
	sweeper.On("AutoConfirm", mock.Anything, mock.MatchedBy(func(c *models.Complaint) bool { return c.ID == stale.ID })).Return(nil)

	notifier := &recordingNotifier{}
	require.True(t, newEscalator(sweeper, notifier, nil).RunOnce(context.Background()))

	sweeper.AssertExpectations(t)
	require.Len(t, notifier.sent, 3)

	assert.Equal(t, models.RoleStudent, notifier.sent[0].Role)
	assert.Equal(t, waiting.UserID, *notifier.sent[0].UserID)
	assert.Equal(t, waiting.ID, *notifier.sent[0].ComplaintID)

	assert.Equal(t, models.RoleTechnician, notifier.sent[1].Role)
	assert.Equal(t, techAccount, *notifier.sent[1].UserID)

	assert.Equal(t, models.RoleAdmin, notifier.sent[2].Role)
	assert.Nil(t, notifier.sent[2].UserID)
	assert.Equal(t, stuck.ID, *notifier.sent[2].ComplaintID)
}

func TestRunOnce_Windows(t *testing.T) {
	sweeper := new(mockSweeper)
	sweeper.On("Find", mock.Anything, mock.Anything).Return([]models.Complaint{}, nil)

	newEscalator(sweeper, &recordingNotifier{}, nil).RunOnce(context.Background())

	var filters []models.ComplaintFilter
	for _, call := range sweeper.Calls {
		filters = append(filters, call.Arguments.Get(1).(models.ComplaintFilter))
	}
	require.Len(t, filters, 4)

	assert.Equal(t, now.Add(-24*time.Hour), *filters[0].ResolvedBefore)
	assert.Equal(t, models.ConfirmationPending, filters[0].Confirmation)

	assert.Equal(t, now.Add(-24*time.Hour), *filters[1].ResolvedAfter)
	assert.Equal(t, now.Add(-12*time.Hour), *filters[1].ResolvedBefore)

	assert.Equal(t, now.Add(-24*time.Hour), *filters[2].CreatedBefore)
	assert.True(t, *filters[2].HasTechnician)

	assert.Equal(t, now.Add(-48*time.Hour), *filters[3].UpdatedBefore)
}

func TestRunOnce_SweepFailureDoesNotStopOthers(t *testing.T) {
	stuck := models.Complaint{ID: primitive.NewObjectID()}

	sweeper := new(mockSweeper)
	sweeper.On("Find", mock.Anything, mock.MatchedBy(autoConfirmQuery)).Return(nil, errors.New("connection reset"))
	sweeper.On("Find", mock.Anything, mock.MatchedBy(reminderQuery)).Return([]models.Complaint{}, nil)
	sweeper.On("Find", mock.Anything, mock.MatchedBy(hasStatus(models.StatusPending))).Return([]models.Complaint{}, nil)
	sweeper.On("Find", mock.Anything, mock.MatchedBy(hasStatus(models.StatusInProgress))).Return([]models.Complaint{stuck}, nil)

	notifier := &recordingNotifier{}
	newEscalator(sweeper, notifier, nil).RunOnce(context.Background())

	assert.Len(t, notifier.sent, 1)
}

func TestRunOnce_AutoConfirmConflictIsSkipped(t *testing.T) {
	first := models.Complaint{ID: primitive.NewObjectID()}
	second := models.Complaint{ID: primitive.NewObjectID()}

	sweeper := new(mockSweeper)
	sweeper.On("Find", mock.Anything, mock.MatchedBy(autoConfirmQuery)).Return([]models.Complaint{first, second}, nil)
	sweeper.On("Find", mock.Anything, mock.Anything).Return([]models.Complaint{}, nil)
	sweeper.On("AutoConfirm", mock.Anything, mock.MatchedBy(func(c *models.Complaint) bool { return c.ID == first.ID })).Return(errors.New("conflict"))
	sweeper.On("AutoConfirm", mock.Anything, mock.MatchedBy(func(c *models.Complaint) bool { return c.ID == second.ID })).Return(nil)

	newEscalator(sweeper, &recordingNotifier{}, nil).RunOnce(context.Background())

	sweeper.AssertNumberOfCalls(t, "AutoConfirm", 2)
}

func TestRunOnce_DedupesAlerts(t *testing.T) {
	stuck := models.Complaint{ID: primitive.NewObjectID()}

	sweeper := new(mockSweeper)
	sweeper.On("Find", mock.Anything, mock.MatchedBy(hasStatus(models.StatusInProgress))).Return([]models.Complaint{stuck}, nil)
	sweeper.On("Find", mock.Anything, mock.Anything).Return([]models.Complaint{}, nil)

	released := false
	guard := new(mockGuard)
	guard.On("Lock", mock.Anything, lockKey, lockTTL).Return(func(context.Context) error { released = true; return nil }, nil)
	guard.On("Once", mock.Anything, "escalation:stuck:"+stuck.ID.Hex(), 24*time.Hour).Return(true, nil).Once()
	guard.On("Once", mock.Anything, "escalation:stuck:"+stuck.ID.Hex(), 24*time.Hour).Return(false, nil)

	notifier := &recordingNotifier{}
	e := newEscalator(sweeper, notifier, guard)
	e.RunOnce(context.Background())
	e.RunOnce(context.Background())

	assert.Len(t, notifier.sent, 1)
	assert.True(t, released)
}

func TestRunOnce_LockHeldElsewhere(t *testing.T) {
	sweeper := new(mockSweeper)
	guard := new(mockGuard)
	guard.On("Lock", mock.Anything, lockKey, lockTTL).Return(nil, repositories.ErrLockHeld)

	assert.False(t, newEscalator(sweeper, &recordingNotifier{}, guard).RunOnce(context.Background()))
	sweeper.AssertNotCalled(t, "Find", mock.Anything, mock.Anything)
}

func TestRunOnce_NoOverlapInProcess(t *testing.T) {
	entered := make(chan struct{})
	unblock := make(chan struct{})

	sweeper := new(mockSweeper)
	sweeper.On("Find", mock.Anything, mock.MatchedBy(autoConfirmQuery)).
		Run(func(mock.Arguments) {
			close(entered)
			<-unblock
		}).
		Return([]models.Complaint{}, nil).Once()
	sweeper.On("Find", mock.Anything, mock.Anything).Return([]models.Complaint{}, nil)

	e := newEscalator(sweeper, &recordingNotifier{}, nil)
	done := make(chan bool)
	go func() { done <- e.RunOnce(context.Background()) }()

	<-entered
	assert.False(t, e.RunOnce(context.Background()))
	close(unblock)
	assert.True(t, <-done)
}

func TestRunOnce_LockErrorStillSweeps(t *testing.T) {
	stale := models.Complaint{ID: primitive.NewObjectID(), Status: models.StatusResolved}

	sweeper := new(mockSweeper)
	sweeper.On("Find", mock.Anything, mock.MatchedBy(autoConfirmQuery)).Return([]models.Complaint{stale}, nil)
	sweeper.On("Find", mock.Anything, mock.Anything).Return([]models.Complaint{}, nil)
	sweeper.On("AutoConfirm", mock.Anything, mock.Anything).Return(nil)

	guard := new(mockGuard)
	guard.On("Lock", mock.Anything, lockKey, lockTTL).Return(nil, errors.New("dial tcp: connection refused"))

	assert.True(t, newEscalator(sweeper, &recordingNotifier{}, guard).RunOnce(context.Background()))
	sweeper.AssertNumberOfCalls(t, "Find", 4)
	sweeper.AssertCalled(t, "AutoConfirm", mock.Anything, mock.MatchedBy(func(c *models.Complaint) bool { return c.ID == stale.ID }))
}
