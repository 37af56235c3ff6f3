package services

import (
	"errors"
	"fmt"
	"time"

	"hr-workflow-api/models"
	"hr-workflow-api/utils"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CreateSubmissionInput carries everything needed to open a new workflow
// instance. ApproverIDs mirrors the requestor-tagging list; its order matters
// when Ordered is set.
type CreateSubmissionInput struct {
	FormType      string
	Payload       datatypes.JSON
	PositionTitle string
	Department    string
	SubmittedBy   int
	ApproverIDs   []int
	Ordered       bool
}

// SubmissionService owns submission records. There is no update or delete;
// after creation a submission is mutated only through the WorkflowService.
type SubmissionService struct {
	db       *gorm.DB
	log      *ActivityLogService
	notifier Notifier
}

func NewSubmissionService(db *gorm.DB, logService *ActivityLogService, notifier Notifier) *SubmissionService {
	return &SubmissionService{db: db, log: logService, notifier: notifier}
}

// Create opens a submission, tags its approvers, generates the reference
// number and appends the SUBMITTED entry, all in one transaction. The
// submission enters the approval queue immediately.
func (s *SubmissionService) Create(input CreateSubmissionInput, actor Actor) (*TransitionResult, error) {
	if input.FormType != models.FormTypeManpowerRequisition && input.FormType != models.FormTypeEmployeeStatusChange {
		return nil, newValidationError("form_type", fmt.Sprintf("unknown form type '%s'", input.FormType))
	}
	if len(input.Payload) == 0 {
		return nil, newValidationError("payload", "a payload is required")
	}
	if len(input.ApproverIDs) == 0 {
		return nil, newValidationError("approvers", "at least one approver must be tagged")
	}
	seen := make(map[int]bool, len(input.ApproverIDs))
	for _, approverID := range input.ApproverIDs {
		if approverID <= 0 {
			return nil, newValidationError("approvers", "approver ids must be positive")
		}
		if seen[approverID] {
			return nil, newValidationError("approvers", "an approver may be tagged only once")
		}
		seen[approverID] = true
	}

	var result *TransitionResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		sub := models.Submission{
			ReferenceNumber: utils.GenerateReferenceNumber(tx, input.FormType),
			FormType:        input.FormType,
			Status:          models.StatusPendingApproval,
			Payload:         input.Payload,
			PositionTitle:   input.PositionTitle,
			Department:      input.Department,
			SubmittedBy:     input.SubmittedBy,
			OrderedApproval: input.Ordered,
			Version:         1,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := tx.Create(&sub).Error; err != nil {
			return fmt.Errorf("failed to create submission: %w", err)
		}

		approvers := make([]models.SubmissionApprover, 0, len(input.ApproverIDs))
		for i, approverID := range input.ApproverIDs {
			approvers = append(approvers, models.SubmissionApprover{
				SubmissionID:  sub.SubmissionID,
				UserID:        approverID,
				SequenceOrder: i + 1,
			})
		}
		if err := tx.Create(&approvers).Error; err != nil {
			return fmt.Errorf("failed to tag approvers: %w", err)
		}
		sub.Approvers = approvers

		entry, err := s.log.Append(tx, sub.SubmissionID, models.EventSubmitted,
			models.StatusSubmitted, models.StatusPendingApproval, actor, nil)
		if err != nil {
			return err
		}

		result = &TransitionResult{Submission: &sub, Entry: entry}
		if s.notifier != nil {
			return s.notifier.TransitionCommitted(tx, result.Submission, result.Entry)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if s.notifier != nil {
		s.notifier.Dispatch(result.Submission, result.Entry)
	}
	return result, nil
}

// Get returns a submission with its requestor, approver sequence and
// attachment loaded.
func (s *SubmissionService) Get(submissionID int) (*models.Submission, error) {
	var sub models.Submission
	err := s.db.
		Preload("Requestor").
		Preload("Approvers", func(db *gorm.DB) *gorm.DB {
			return db.Order("sequence_order ASC")
		}).
		Preload("Approvers.User").
		Preload("Attachment").
		Where("submission_id = ?", submissionID).
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load submission: %w", err)
	}
	return &sub, nil
}

// Attach associates a stored file with a submission. This is independent of
// status and allowed at creation or resubmission time; it is refused only
// for quarantined submissions.
func (s *SubmissionService) Attach(submissionID int, fileID int, filename string) error {
	var sub models.Submission
	if err := s.db.Where("submission_id = ?", submissionID).First(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to load submission: %w", err)
	}
	if sub.ReconciliationFlag {
		return ErrReconciliationRequired
	}

	updates := map[string]interface{}{
		"attachment_file_id": fileID,
		"attachment_name":    filename,
	}
	if err := s.db.Model(&models.Submission{}).
		Where("submission_id = ?", submissionID).
		Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to attach file: %w", err)
	}
	return nil
}
