package models

import (
	"strconv"
	"strings"
	"time"

	"hostelgrievance-be/apperrors"
)

// Remarks recorded on student and system confirmations.
const (
	RemarkStudentConfirmed = "Student confirmed resolution"
	RemarkStudentRejected  = "Student rejected resolution"
	RemarkAutoConfirmed    = "Auto confirmed after 24 hours"
	RemarkRaggingReviewed  = "Ragging complaint reviewed by admin"
)

// transitions lists, per source status, the reachable statuses and the roles
// allowed to move a complaint there. Completed has no outgoing edges.
var transitions = map[Status]map[Status][]Role{
	StatusPending: {
		StatusInProgress: {RoleTechnician},
	},
	StatusInProgress: {
		StatusResolved: {RoleTechnician},
	},
	StatusResolved: {
		StatusCompleted:  {RoleStudent, RoleSystem},
		StatusInProgress: {RoleStudent},
	},
}

// CanTransition reports whether actor may move a complaint from one status to
// another.
func CanTransition(from, to Status, actor Role) bool {
	return actor.In(transitions[from][to]...)
}

// ValidStatus reports whether s is a lifecycle status.
func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusInProgress, StatusResolved, StatusCompleted:
		return true
	}
	return false
}

func (c *Complaint) appendHistory(status string, actor Actor, remark string, now time.Time) {
	c.StatusHistory = append(c.StatusHistory, StatusChange{
		Status:        status,
		ChangedByRole: actor.Role,
		ChangedByID:   actor.ID,
		Remark:        remark,
		ChangedAt:     now,
	})
	c.UpdatedAt = now
}

// OwnedBy reports whether the complaint was filed by the account.
func (c *Complaint) OwnedBy(actor Actor) bool {
	return actor.Is(c.UserID)
}

// Advance performs a technician transition: Pending to In Progress (claiming
// the complaint on first touch) or In Progress to Resolved.
func (c *Complaint) Advance(to Status, tech *TechnicianMaster, actor Actor, remark, solution string, now time.Time) error {
	if c.Status == StatusCompleted {
		return apperrors.WithMessage(apperrors.ErrIllegalStatusChange, "Complaint already completed")
	}
	if !CanTransition(c.Status, to, RoleTechnician) {
		return apperrors.ErrIllegalStatusChange
	}
	if c.IsRagging || !tech.Eligible(c.Category) {
		return apperrors.ErrTechnicianNotValid
	}
	if c.AssignedTechnician != nil && *c.AssignedTechnician != tech.ID {
		return apperrors.ErrTechnicianNotValid
	}

	switch to {
	case StatusInProgress:
		if c.AssignedTechnician == nil {
			c.assign(tech, actor, AssignedBySelf, now)
		}
	case StatusResolved:
		if c.AssignedTechnician == nil {
			return apperrors.WithMessage(apperrors.ErrIllegalStatusChange, "Complaint has no assigned technician")
		}
		c.ResolvedAt = &now
		c.StudentConfirmation = ConfirmationPending
	}

	remark = strings.TrimSpace(remark)
	c.Status = to
	c.TechnicianRemark = remark
	if s := strings.TrimSpace(solution); s != "" {
		c.SolutionSummary = s
	}
	c.appendHistory(string(to), actor, remark, now)
	return nil
}

func (c *Complaint) assign(tech *TechnicianMaster, actor Actor, assignedByRole string, now time.Time) {
	techID := tech.ID
	c.AssignedTechnician = &techID
	c.AssignedTechnicianAccount = actor.ID
	c.TechnicianNameSnapshot = tech.Name
	c.TechnicianDepartmentSnapshot = tech.Department
	c.TechnicianHistory = append(c.TechnicianHistory, TechnicianAssignment{
		TechnicianID:         tech.ID,
		TechnicianName:       tech.Name,
		TechnicianDepartment: tech.Department,
		AssignedBy:           actor.ID,
		AssignedByRole:       assignedByRole,
		AssignedAt:           now,
	})
}

// Confirm completes a resolved complaint. The owning student or the System
// actor may confirm.
func (c *Complaint) Confirm(actor Actor, remark string, now time.Time) error {
	switch actor.Role {
	case RoleStudent:
		if !c.OwnedBy(actor) {
			return apperrors.ErrNotOwner
		}
	case RoleSystem:
	default:
		return apperrors.ErrForbidden
	}
	if err := c.awaitingStudent(); err != nil {
		return err
	}
	if !CanTransition(c.Status, StatusCompleted, actor.Role) {
		return apperrors.ErrIllegalStatusChange
	}

	c.StudentConfirmation = ConfirmationConfirmed
	c.Status = StatusCompleted
	c.StudentActionAt = &now
	c.CompletedAt = &now
	c.appendHistory(string(StatusCompleted), actor, remark, now)
	return nil
}

// Reject sends a resolved complaint back to the assigned technician. The
// assignment is kept.
func (c *Complaint) Reject(actor Actor, now time.Time) error {
	if actor.Role != RoleStudent {
		return apperrors.ErrForbidden
	}
	if !c.OwnedBy(actor) {
		return apperrors.ErrNotOwner
	}
	if err := c.awaitingStudent(); err != nil {
		return err
	}
	if !CanTransition(c.Status, StatusInProgress, actor.Role) {
		return apperrors.ErrIllegalStatusChange
	}

	c.StudentConfirmation = ConfirmationRejected
	c.Status = StatusInProgress
	c.StudentActionAt = &now
	c.ResolvedAt = nil
	c.appendHistory(string(StatusInProgress), actor, RemarkStudentRejected, now)
	return nil
}

func (c *Complaint) awaitingStudent() error {
	if c.Status != StatusResolved {
		return apperrors.ErrNotResolved
	}
	if c.StudentConfirmation != ConfirmationPending {
		return apperrors.ErrAlreadyProcessed
	}
	return nil
}

// Rate records the owner's rating of a completed complaint. A complaint is
// rated at most once.
func (c *Complaint) Rate(actor Actor, rating int, feedback string, now time.Time) error {
	if actor.Role != RoleStudent || !c.OwnedBy(actor) {
		return apperrors.ErrNotOwner
	}
	if rating < 1 || rating > 5 {
		return apperrors.ErrInvalidRating
	}
	if c.Status != StatusCompleted {
		return apperrors.ErrNotCompleted
	}
	if c.Rating != nil {
		return apperrors.ErrAlreadyRated
	}

	c.Rating = &rating
	c.RatingFeedback = strings.TrimSpace(feedback)
	c.RatedAt = &now
	c.appendHistory(HistoryRated, actor, "Rating: "+strconv.Itoa(rating), now)
	return nil
}

// SoftDelete hides the complaint. Only its owner may delete it.
func (c *Complaint) SoftDelete(actor Actor, now time.Time) error {
	if actor.Role != RoleStudent || !c.OwnedBy(actor) {
		return apperrors.ErrNotOwner
	}
	c.IsDeleted = true
	c.UpdatedAt = now
	return nil
}

// ReviewRagging marks a ragging report as reviewed by an administrator.
func (c *Complaint) ReviewRagging(actor Actor, remark string, now time.Time) error {
	if actor.Role != RoleAdmin {
		return apperrors.ErrForbidden
	}
	if !c.IsRagging {
		return apperrors.ErrNotRagging
	}
	remark = strings.TrimSpace(remark)
	if remark != "" {
		c.RaggingReviewRemark = remark
	} else {
		remark = RemarkRaggingReviewed
	}
	c.RaggingReviewed = true
	c.RaggingReviewedAt = &now
	c.AdminReviewed = true
	c.AdminReviewedAt = &now
	c.appendHistory(HistoryRaggingReviewed, actor, remark, now)
	return nil
}

// SetAdminRemark annotates the complaint. It has no state constraint.
func (c *Complaint) SetAdminRemark(actor Actor, remark string, now time.Time) error {
	if actor.Role != RoleAdmin {
		return apperrors.ErrForbidden
	}
	c.AdminRemark = strings.TrimSpace(remark)
	c.UpdatedAt = now
	return nil
}

// AttachRepairImages adds repair evidence. Only the assigned technician may
// upload it.
func (c *Complaint) AttachRepairImages(tech *TechnicianMaster, refs []string, now time.Time) error {
	if tech == nil || c.AssignedTechnician == nil || *c.AssignedTechnician != tech.ID {
		return apperrors.ErrTechnicianNotValid
	}
	c.RepairImages = append(c.RepairImages, refs...)
	c.RepairUploadedAt = &now
	c.UpdatedAt = now
	return nil
}

// Validate checks the persistence invariants. Repositories call it right
// before every write.
func (c *Complaint) Validate() error {
	switch {
	case !ValidStatus(c.Status):
		return apperrors.WithMessage(apperrors.ErrInvariant, "Unknown complaint status")
	case len(c.StatusHistory) == 0:
		return apperrors.WithMessage(apperrors.ErrInvariant, "Complaint has no status history")
	case c.Rating != nil && c.Status != StatusCompleted:
		return apperrors.WithMessage(apperrors.ErrInvariant, "Rating allowed only after completion")
	case c.Rating != nil && (*c.Rating < 1 || *c.Rating > 5):
		return apperrors.WithMessage(apperrors.ErrInvariant, "Rating must be between 1 and 5")
	case c.Status == StatusCompleted && c.StudentConfirmation != ConfirmationConfirmed:
		return apperrors.WithMessage(apperrors.ErrInvariant, "Completion requires student confirmation")
	case c.Status == StatusResolved && c.AssignedTechnician == nil:
		return apperrors.WithMessage(apperrors.ErrInvariant, "Resolved complaint must have technician")
	}
	return nil
}
