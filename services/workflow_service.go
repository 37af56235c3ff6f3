package services

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"hr-workflow-api/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Notifier receives workflow events. TransitionCommitted runs inside the
// transition's transaction (outbox rows commit or roll back with the status
// change); Dispatch runs after a successful commit for best-effort fan-out.
type Notifier interface {
	TransitionCommitted(tx *gorm.DB, submission *models.Submission, entry *models.ActivityLogEntry) error
	Dispatch(submission *models.Submission, entry *models.ActivityLogEntry)
}

// TransitionResult is returned from every mutating workflow call: the updated
// submission plus the newly appended activity log entry.
type TransitionResult struct {
	Submission *models.Submission       `json:"submission"`
	Entry      *models.ActivityLogEntry `json:"entry"`
}

// WorkflowService is the only writer of Submission.status. Every operation
// runs as a single transaction: the status update and the activity log append
// commit together or not at all. Concurrent writers on the same submission
// are serialized by an optimistic version check; the loser gets ErrConflict.
type WorkflowService struct {
	db       *gorm.DB
	log      *ActivityLogService
	notifier Notifier
}

func NewWorkflowService(db *gorm.DB, logService *ActivityLogService, notifier Notifier) *WorkflowService {
	return &WorkflowService{db: db, log: logService, notifier: notifier}
}

// Approve signs off as the acting approver. The submission advances to
// for_receiving only once every tagged approver has signed; before that it
// stays pending_approval awaiting the next approver.
func (w *WorkflowService) Approve(submissionID int, actor Actor) (*TransitionResult, error) {
	var result *TransitionResult
	err := w.db.Transaction(func(tx *gorm.DB) error {
		sub, err := w.loadSubmission(tx, submissionID)
		if err != nil {
			return err
		}
		if sub.Status != models.StatusPendingApproval {
			return ErrInvalidTransition
		}

		var approvers []models.SubmissionApprover
		if err := tx.
			Where("submission_id = ?", submissionID).
			Order("sequence_order ASC").
			Find(&approvers).Error; err != nil {
			return fmt.Errorf("failed to load approver sequence: %w", err)
		}

		row := models.EligibleApprover(approvers, sub.OrderedApproval, actor.UserID)
		if row == nil {
			for i := range approvers {
				if approvers[i].UserID == actor.UserID && approvers[i].ApprovedAt != nil {
					// already signed this round
					return ErrInvalidTransition
				}
			}
			return ErrUnauthorized
		}

		now := time.Now()
		res := tx.Model(&models.SubmissionApprover{}).
			Where("approver_id = ? AND approved_at IS NULL", row.ApproverID).
			Update("approved_at", now)
		if res.Error != nil {
			return fmt.Errorf("failed to record approval: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrConflict
		}
		row.ApprovedAt = &now

		fromStatus := sub.Status
		toStatus := models.StatusPendingApproval
		if models.RemainingApprovals(approvers) == 0 {
			toStatus = models.StatusForReceiving
		}

		if err := w.advance(tx, sub, toStatus, nil); err != nil {
			return err
		}

		entry, err := w.log.Append(tx, submissionID, models.EventApproved, fromStatus, toStatus, actor, nil)
		if err != nil {
			return err
		}

		result = &TransitionResult{Submission: sub, Entry: entry}
		return w.notifyTx(tx, result)
	})
	if err != nil {
		return nil, err
	}
	w.dispatch(result)
	return result, nil
}

// Reject terminates the submission from pending_approval. The reason is
// mandatory.
func (w *WorkflowService) Reject(submissionID int, actor Actor, reason string) (*TransitionResult, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, newValidationError("reason", "a reason is required to reject a submission")
	}
	return w.decide(submissionID, actor, models.EventRejected, models.StatusRejected, &reason)
}

// RequestRevision sends the submission back to its requestor for changes
// before any further approval. The reason is mandatory.
func (w *WorkflowService) RequestRevision(submissionID int, actor Actor, reason string) (*TransitionResult, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, newValidationError("reason", "a reason is required to request a revision")
	}
	return w.decide(submissionID, actor, models.EventReturned, models.StatusAwaitingResubmission, &reason)
}

// decide applies an approver-side decision from pending_approval.
func (w *WorkflowService) decide(submissionID int, actor Actor, eventType, toStatus string, reason *string) (*TransitionResult, error) {
	var result *TransitionResult
	err := w.db.Transaction(func(tx *gorm.DB) error {
		sub, err := w.loadSubmission(tx, submissionID)
		if err != nil {
			return err
		}
		if sub.Status != models.StatusPendingApproval {
			return ErrInvalidTransition
		}

		if actor.RoleID != models.RoleAdmin {
			var approvers []models.SubmissionApprover
			if err := tx.
				Where("submission_id = ?", submissionID).
				Order("sequence_order ASC").
				Find(&approvers).Error; err != nil {
				return fmt.Errorf("failed to load approver sequence: %w", err)
			}
			if !models.IsTaggedApprover(approvers, actor.UserID) {
				return ErrUnauthorized
			}
		}

		fromStatus := sub.Status
		if err := w.advance(tx, sub, toStatus, nil); err != nil {
			return err
		}

		entry, err := w.log.Append(tx, submissionID, eventType, fromStatus, toStatus, actor, reason)
		if err != nil {
			return err
		}

		result = &TransitionResult{Submission: sub, Entry: entry}
		return w.notifyTx(tx, result)
	})
	if err != nil {
		return nil, err
	}
	w.dispatch(result)
	return result, nil
}

// Return sends a received-stage submission back to its requestor. The reason
// is mandatory.
func (w *WorkflowService) Return(submissionID int, actor Actor, reason string) (*TransitionResult, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, newValidationError("reason", "a reason is required to return a submission")
	}
	return w.receiveStage(submissionID, actor, models.EventReturned, models.StatusReturned, &reason)
}

// Receive completes the workflow. Comments are optional.
func (w *WorkflowService) Receive(submissionID int, actor Actor, comments *string) (*TransitionResult, error) {
	if comments != nil && strings.TrimSpace(*comments) == "" {
		comments = nil
	}
	return w.receiveStage(submissionID, actor, models.EventReceived, models.StatusReceived, comments)
}

// receiveStage applies a receiver-side decision from for_receiving.
func (w *WorkflowService) receiveStage(submissionID int, actor Actor, eventType, toStatus string, description *string) (*TransitionResult, error) {
	var result *TransitionResult
	err := w.db.Transaction(func(tx *gorm.DB) error {
		sub, err := w.loadSubmission(tx, submissionID)
		if err != nil {
			return err
		}
		if sub.Status != models.StatusForReceiving {
			return ErrInvalidTransition
		}
		if actor.RoleID != models.RoleReceiver && actor.RoleID != models.RoleAdmin {
			return ErrUnauthorized
		}

		fromStatus := sub.Status
		if err := w.advance(tx, sub, toStatus, nil); err != nil {
			return err
		}

		entry, err := w.log.Append(tx, submissionID, eventType, fromStatus, toStatus, actor, description)
		if err != nil {
			return err
		}

		result = &TransitionResult{Submission: sub, Entry: entry}
		return w.notifyTx(tx, result)
	})
	if err != nil {
		return nil, err
	}
	w.dispatch(result)
	return result, nil
}

// Resubmit replaces the payload and returns the submission to the stage that
// preceded the return: for_receiving when it was returned by a receiver,
// pending_approval when a revision was requested during approval. A fresh
// approval round clears earlier sign-offs.
func (w *WorkflowService) Resubmit(submissionID int, actor Actor, updatedPayload datatypes.JSON) (*TransitionResult, error) {
	if len(updatedPayload) == 0 {
		return nil, newValidationError("payload", "an updated payload is required to resubmit")
	}

	var result *TransitionResult
	err := w.db.Transaction(func(tx *gorm.DB) error {
		sub, err := w.loadSubmission(tx, submissionID)
		if err != nil {
			return err
		}

		var toStatus string
		switch sub.Status {
		case models.StatusReturned:
			toStatus = models.StatusForReceiving
		case models.StatusAwaitingResubmission:
			toStatus = models.StatusPendingApproval
		default:
			return ErrInvalidTransition
		}

		if actor.UserID != sub.SubmittedBy {
			return ErrUnauthorized
		}

		if toStatus == models.StatusPendingApproval {
			if err := tx.Model(&models.SubmissionApprover{}).
				Where("submission_id = ?", submissionID).
				Update("approved_at", nil).Error; err != nil {
				return fmt.Errorf("failed to reset approver sign-offs: %w", err)
			}
		}

		fromStatus := sub.Status
		extra := map[string]interface{}{"payload": updatedPayload}
		if err := w.advance(tx, sub, toStatus, extra); err != nil {
			return err
		}
		sub.Payload = updatedPayload

		entry, err := w.log.Append(tx, submissionID, models.EventResubmitted, fromStatus, toStatus, actor, nil)
		if err != nil {
			return err
		}

		result = &TransitionResult{Submission: sub, Entry: entry}
		return w.notifyTx(tx, result)
	})
	if err != nil {
		return nil, err
	}
	w.dispatch(result)
	return result, nil
}

// Cancel terminates the submission from any non-terminal state. Only the
// requestor who submitted it (or an admin) may cancel.
func (w *WorkflowService) Cancel(submissionID int, actor Actor) (*TransitionResult, error) {
	var result *TransitionResult
	err := w.db.Transaction(func(tx *gorm.DB) error {
		sub, err := w.loadSubmission(tx, submissionID)
		if err != nil {
			return err
		}
		if sub.IsTerminal() {
			return ErrInvalidTransition
		}
		if actor.UserID != sub.SubmittedBy && actor.RoleID != models.RoleAdmin {
			return ErrUnauthorized
		}

		fromStatus := sub.Status
		if err := w.advance(tx, sub, models.StatusCancelled, nil); err != nil {
			return err
		}

		entry, err := w.log.Append(tx, submissionID, models.EventCancelled, fromStatus, models.StatusCancelled, actor, nil)
		if err != nil {
			return err
		}

		result = &TransitionResult{Submission: sub, Entry: entry}
		return w.notifyTx(tx, result)
	})
	if err != nil {
		return nil, err
	}
	w.dispatch(result)
	return result, nil
}

// loadSubmission fetches the submission and verifies it against its activity
// log before any transition. A submission whose status diverged from the log
// is quarantined and refuses further writes.
func (w *WorkflowService) loadSubmission(tx *gorm.DB, submissionID int) (*models.Submission, error) {
	var sub models.Submission
	if err := tx.Where("submission_id = ?", submissionID).First(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load submission: %w", err)
	}

	if sub.ReconciliationFlag {
		return nil, ErrReconciliationRequired
	}

	last, err := w.log.latest(tx, sub.SubmissionID)
	if err != nil {
		return nil, err
	}
	if last == nil || last.ToStatus != sub.Status {
		w.quarantine(&sub, last)
		return nil, ErrReconciliationRequired
	}

	return &sub, nil
}

// quarantine flags a submission whose status and history diverged. The flag
// is written outside the transition's transaction so the rollback does not
// erase it.
func (w *WorkflowService) quarantine(sub *models.Submission, last *models.ActivityLogEntry) {
	lastStatus := "<none>"
	if last != nil {
		lastStatus = last.ToStatus
	}
	log.Printf("quarantining submission %d: status %s does not match last log entry %s",
		sub.SubmissionID, sub.Status, lastStatus)

	if err := w.db.Model(&models.Submission{}).
		Where("submission_id = ?", sub.SubmissionID).
		Update("reconciliation_flag", true).Error; err != nil {
		log.Printf("failed to flag submission %d for reconciliation: %v", sub.SubmissionID, err)
	}
}

// advance applies the status change with an optimistic version check. A
// concurrent writer that committed first leaves RowsAffected at zero and the
// loser gets ErrConflict.
func (w *WorkflowService) advance(tx *gorm.DB, sub *models.Submission, toStatus string, extra map[string]interface{}) error {
	now := time.Now()
	updates := map[string]interface{}{
		"status":     toStatus,
		"version":    sub.Version + 1,
		"updated_at": now,
	}
	for column, value := range extra {
		updates[column] = value
	}

	res := tx.Model(&models.Submission{}).
		Where("submission_id = ? AND version = ?", sub.SubmissionID, sub.Version).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to update submission status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}

	sub.Status = toStatus
	sub.Version++
	sub.UpdatedAt = now
	return nil
}

func (w *WorkflowService) notifyTx(tx *gorm.DB, result *TransitionResult) error {
	if w.notifier == nil {
		return nil
	}
	return w.notifier.TransitionCommitted(tx, result.Submission, result.Entry)
}

func (w *WorkflowService) dispatch(result *TransitionResult) {
	if w.notifier == nil || result == nil {
		return
	}
	w.notifier.Dispatch(result.Submission, result.Entry)
}
