// Package jobs runs the background sweeps over complaints.
package jobs

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"hostelgrievance-be/models"
	"hostelgrievance-be/repositories"
	"hostelgrievance-be/services"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	AutoConfirmAfter = 24 * time.Hour
	ReminderAfter    = 12 * time.Hour
	PendingAlert     = 24 * time.Hour
	InProgressAlert  = 48 * time.Hour

	lockKey = "escalation:lock"
	lockTTL = 10 * time.Minute
)

// ComplaintSweeper is the slice of the complaint service the sweeps need.
type ComplaintSweeper interface {
	Find(ctx context.Context, filter models.ComplaintFilter) ([]models.Complaint, error)
	AutoConfirm(ctx context.Context, c *models.Complaint) error
}

// Guard deduplicates alerts and keeps sweeps from overlapping across
// processes.
type Guard interface {
	Once(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Lock(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error)
}

// Escalator auto-confirms stale resolutions and nudges whoever is holding a
// complaint up.
type Escalator struct {
	complaints ComplaintSweeper
	notifier   services.Notifier
	guard      Guard
	interval   time.Duration
	logger     *slog.Logger

	running atomic.Bool

	Now func() time.Time
}

func NewEscalator(complaints ComplaintSweeper, notifier services.Notifier, guard Guard, interval time.Duration, logger *slog.Logger) *Escalator {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Escalator{
		complaints: complaints,
		notifier:   notifier,
		guard:      guard,
		interval:   interval,
		logger:     logger,
		Now:        time.Now,
	}
}

// Start runs a sweep immediately and then on every interval until ctx is
// cancelled.
func (e *Escalator) Start(ctx context.Context) {
	e.RunOnce(ctx)

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.RunOnce(ctx)
		}
	}
}

// RunOnce performs one pass of every sweep. It returns false without doing
// anything if a pass is already running here or in another process.
func (e *Escalator) RunOnce(ctx context.Context) bool {
	if !e.running.CompareAndSwap(false, true) {
		e.logger.Warn("escalation sweep skipped, previous run still active")
		return false
	}
	defer e.running.Store(false)

	if e.guard != nil {
		release, err := e.guard.Lock(ctx, lockKey, lockTTL)
		if errors.Is(err, repositories.ErrLockHeld) {
			e.logger.Info("escalation sweep skipped, lock held elsewhere")
			return false
		}
		switch {
		case err != nil:
			// Sweeps stay safe without the lock: complaint writes are version-checked.
			e.logger.Warn("escalation lock unavailable, sweeping without it", "error", err)
		case release != nil:
			defer func() {
				if err := release(context.WithoutCancel(ctx)); err != nil {
					e.logger.Warn("escalation lock release failed", "error", err)
				}
			}()
		}
	}

	now := e.Now()
	sweeps := []struct {
		name string
		run  func(context.Context, time.Time) (int, error)
	}{
		{"auto_confirm", e.autoConfirm},
		{"resolution_reminder", e.remindStudents},
		{"pending_overdue", e.alertPending},
		{"in_progress_overdue", e.alertInProgress},
	}
	for _, s := range sweeps {
		n, err := s.run(ctx, now)
		if err != nil {
			e.logger.Error("escalation sweep failed", "sweep", s.name, "error", err)
			continue
		}
		if n > 0 {
			e.logger.Info("escalation sweep done", "sweep", s.name, "count", n)
		}
	}
	return true
}

func (e *Escalator) autoConfirm(ctx context.Context, now time.Time) (int, error) {
	cutoff := now.Add(-AutoConfirmAfter)
	stale, err := e.complaints.Find(ctx, models.ComplaintFilter{
		Statuses:       []models.Status{models.StatusResolved},
		Confirmation:   models.ConfirmationPending,
		ResolvedBefore: &cutoff,
		OldestFirst:    true,
	})
	if err != nil {
		return 0, err
	}

	done := 0
	for i := range stale {
		c := &stale[i]
		if err := e.complaints.AutoConfirm(ctx, c); err != nil {
			// The student may have acted between the query and the write.
			e.logger.Warn("auto confirm skipped", "complaint_id", c.ID.Hex(), "error", err)
			continue
		}
		done++
	}
	return done, nil
}

func (e *Escalator) remindStudents(ctx context.Context, now time.Time) (int, error) {
	from := now.Add(-AutoConfirmAfter)
	to := now.Add(-ReminderAfter)
	waiting, err := e.complaints.Find(ctx, models.ComplaintFilter{
		Statuses:       []models.Status{models.StatusResolved},
		Confirmation:   models.ConfirmationPending,
		ResolvedAfter:  &from,
		ResolvedBefore: &to,
	})
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, c := range waiting {
		if !e.firstTime(ctx, "escalation:reminder:"+c.ID.Hex(), AutoConfirmAfter-ReminderAfter) {
			continue
		}
		owner := c.UserID
		e.send(ctx, &models.Notification{
			UserID:   &owner,
			Role:     models.RoleStudent,
			Title:    "Confirm your complaint",
			Message:  "Your complaint is resolved. Please confirm or it will auto-complete.",
			Type:     models.NotificationStatusUpdate,
			Priority: models.PriorityMedium,
		}, c.ID)
		sent++
	}
	return sent, nil
}

func (e *Escalator) alertPending(ctx context.Context, now time.Time) (int, error) {
	cutoff := now.Add(-PendingAlert)
	hasTech := true
	overdue, err := e.complaints.Find(ctx, models.ComplaintFilter{
		Statuses:      []models.Status{models.StatusPending},
		HasTechnician: &hasTech,
		CreatedBefore: &cutoff,
	})
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, c := range overdue {
		if c.AssignedTechnicianAccount == nil {
			continue
		}
		if !e.firstTime(ctx, "escalation:pending:"+c.ID.Hex(), PendingAlert) {
			continue
		}
		e.send(ctx, &models.Notification{
			UserID:   c.AssignedTechnicianAccount,
			Role:     models.RoleTechnician,
			Title:    "Complaint overdue",
			Message:  "Complaint pending for more than 24 hours.",
			Type:     models.NotificationSystem,
			Priority: models.PriorityHigh,
		}, c.ID)
		sent++
	}
	return sent, nil
}

func (e *Escalator) alertInProgress(ctx context.Context, now time.Time) (int, error) {
	cutoff := now.Add(-InProgressAlert)
	stuck, err := e.complaints.Find(ctx, models.ComplaintFilter{
		Statuses:      []models.Status{models.StatusInProgress},
		UpdatedBefore: &cutoff,
	})
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, c := range stuck {
		if !e.firstTime(ctx, "escalation:stuck:"+c.ID.Hex(), PendingAlert) {
			continue
		}
		e.send(ctx, &models.Notification{
			Role:     models.RoleAdmin,
			Title:    "Complaint stuck in progress",
			Message:  "Complaint in progress for more than 48 hours.",
			Type:     models.NotificationSystem,
			Priority: models.PriorityHigh,
		}, c.ID)
		sent++
	}
	return sent, nil
}

// firstTime reports whether the alert identified by key should go out. A
// guard failure lets the alert through.
func (e *Escalator) firstTime(ctx context.Context, key string, ttl time.Duration) bool {
	if e.guard == nil {
		return true
	}
	ok, err := e.guard.Once(ctx, key, ttl)
	if err != nil {
		e.logger.Warn("alert dedup check failed", "key", key, "error", err)
		return true
	}
	return ok
}

func (e *Escalator) send(ctx context.Context, n *models.Notification, complaintID primitive.ObjectID) {
	if e.notifier == nil {
		return
	}
	n.ComplaintID = &complaintID
	e.notifier.Notify(ctx, n)
}
