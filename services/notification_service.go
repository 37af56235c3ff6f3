package services

import (
	"fmt"
	"log"
	"time"

	"hr-workflow-api/config"
	"hr-workflow-api/models"

	"gorm.io/gorm"
)

// NotificationService writes outbox rows inside the transition's transaction
// and fans out email after the commit. Email delivery is best-effort; a
// failed send is logged, never propagated into the workflow.
type NotificationService struct {
	db       *gorm.DB
	sendMail func(to []string, subject, html string) error
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db, sendMail: config.SendMail}
}

// TransitionCommitted inserts one notification row per recipient. It runs in
// the same transaction as the status change, so the rows commit or roll back
// with it.
func (n *NotificationService) TransitionCommitted(tx *gorm.DB, sub *models.Submission, entry *models.ActivityLogEntry) error {
	recipients, err := n.recipients(tx, sub, entry)
	if err != nil {
		return err
	}
	if len(recipients) == 0 {
		return nil
	}

	title, message, kind := notificationContent(sub, entry)
	now := time.Now()
	rows := make([]models.Notification, 0, len(recipients))
	for _, userID := range recipients {
		submissionID := sub.SubmissionID
		rows = append(rows, models.Notification{
			UserID:              userID,
			Title:               title,
			Message:             message,
			Type:                kind,
			RelatedSubmissionID: &submissionID,
			CreateAt:            now,
		})
	}

	if err := tx.Create(&rows).Error; err != nil {
		return fmt.Errorf("failed to write notifications: %w", err)
	}
	return nil
}

// Dispatch emails the recipients after a successful commit.
func (n *NotificationService) Dispatch(sub *models.Submission, entry *models.ActivityLogEntry) {
	go func() {
		recipients, err := n.recipients(n.db, sub, entry)
		if err != nil {
			log.Printf("notification fan-out for submission %d: %v", sub.SubmissionID, err)
			return
		}
		if len(recipients) == 0 {
			return
		}

		var emails []string
		if err := n.db.Model(&models.User{}).
			Where("user_id IN ? AND delete_at IS NULL", recipients).
			Pluck("email", &emails).Error; err != nil {
			log.Printf("notification fan-out for submission %d: %v", sub.SubmissionID, err)
			return
		}

		title, message, _ := notificationContent(sub, entry)
		body := fmt.Sprintf("<p>%s</p><p>%s</p>", title, message)
		if err := n.sendMail(emails, title, body); err != nil {
			log.Printf("failed to send notification mail for submission %d: %v", sub.SubmissionID, err)
		}
	}()
}

// recipients picks who hears about a transition: unsigned approvers while the
// submission is awaiting approval, receivers' side is notified by role
// elsewhere, and the requestor on every event after submission.
func (n *NotificationService) recipients(db *gorm.DB, sub *models.Submission, entry *models.ActivityLogEntry) ([]int, error) {
	ids := make(map[int]bool)

	if entry.EventType != models.EventSubmitted {
		ids[sub.SubmittedBy] = true
	}

	if entry.ToStatus == models.StatusPendingApproval {
		var approverIDs []int
		if err := db.Model(&models.SubmissionApprover{}).
			Where("submission_id = ? AND approved_at IS NULL", sub.SubmissionID).
			Pluck("user_id", &approverIDs).Error; err != nil {
			return nil, fmt.Errorf("failed to load approver recipients: %w", err)
		}
		for _, id := range approverIDs {
			ids[id] = true
		}
	}

	// the acting user already knows
	if entry.ActorID != nil {
		delete(ids, *entry.ActorID)
	}

	out := make([]int, 0, len(ids))
	for id := range ids {
		out = append(out, id)
	}
	return out, nil
}

func notificationContent(sub *models.Submission, entry *models.ActivityLogEntry) (title, message, kind string) {
	title = fmt.Sprintf("%s %s", sub.ReferenceNumber, entry.EventType)
	message = fmt.Sprintf("Submission %s is now %s.", sub.ReferenceNumber, entry.ToStatus)
	if entry.Description != nil {
		message = fmt.Sprintf("%s Reason: %s", message, *entry.Description)
	}

	switch entry.EventType {
	case models.EventApproved, models.EventReceived:
		kind = "success"
	case models.EventRejected, models.EventCancelled:
		kind = "error"
	case models.EventReturned:
		kind = "warning"
	default:
		kind = "info"
	}
	return title, message, kind
}
