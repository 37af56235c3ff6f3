package services

import (
	"fmt"
	"strings"
	"time"

	"hr-workflow-api/models"

	"gorm.io/gorm"
)

// Actor identifies who performs a transition.
type Actor struct {
	UserID int
	Name   string
	RoleID int
}

// SystemActor is used for automated transitions.
var SystemActor = Actor{Name: models.SystemActorName}

func (a Actor) roleLabel() string {
	switch a.RoleID {
	case models.RoleRequestor:
		return "requestor"
	case models.RoleApprover:
		return "approver"
	case models.RoleReceiver:
		return "receiver"
	case models.RoleAdmin:
		return "admin"
	}
	if a.Name == models.SystemActorName {
		return "system"
	}
	return "unknown"
}

// ActivityLogService is the append-only store for submission history. No
// update or delete is exposed; corrections are made by appending a
// compensating entry.
type ActivityLogService struct {
	db *gorm.DB
}

func NewActivityLogService(db *gorm.DB) *ActivityLogService {
	return &ActivityLogService{db: db}
}

// Append writes one immutable entry inside the caller's transaction. It
// fails with a ValidationError when the event type requires a description
// and none (or a blank one) is supplied.
func (s *ActivityLogService) Append(tx *gorm.DB, submissionID int, eventType, fromStatus, toStatus string, actor Actor, description *string) (*models.ActivityLogEntry, error) {
	if models.EventRequiresReason(eventType) {
		if description == nil || strings.TrimSpace(*description) == "" {
			return nil, newValidationError("reason", fmt.Sprintf("a reason is required for %s", eventType))
		}
	}

	entry := models.ActivityLogEntry{
		SubmissionID: submissionID,
		EventType:    eventType,
		FromStatus:   fromStatus,
		ToStatus:     toStatus,
		ActorName:    actor.Name,
		ActorRole:    actor.roleLabel(),
		Description:  description,
		CreatedAt:    time.Now(),
	}
	if actor.UserID > 0 {
		actorID := actor.UserID
		entry.ActorID = &actorID
	}

	if err := tx.Create(&entry).Error; err != nil {
		return nil, fmt.Errorf("failed to append activity log entry: %w", err)
	}
	return &entry, nil
}

// History returns the ordered history for a submission, ascending by
// creation time with entry_id as tiebreak.
func (s *ActivityLogService) History(submissionID int) ([]models.ActivityLogEntry, error) {
	var entries []models.ActivityLogEntry
	if err := s.db.
		Where("submission_id = ?", submissionID).
		Order("created_at ASC, entry_id ASC").
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to load activity log: %w", err)
	}
	return entries, nil
}

// latest returns the most recent entry for a submission within the caller's
// transaction, or nil when no entry exists.
func (s *ActivityLogService) latest(tx *gorm.DB, submissionID int) (*models.ActivityLogEntry, error) {
	var entry models.ActivityLogEntry
	err := tx.
		Where("submission_id = ?", submissionID).
		Order("created_at DESC, entry_id DESC").
		First(&entry).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load latest activity log entry: %w", err)
	}
	return &entry, nil
}
