package services

import (
	"errors"
	"fmt"
	"time"

	"hr-workflow-api/models"

	"gorm.io/gorm"
)

// stageStatuses maps each workflow-stage view to the statuses it shows.
var stageStatuses = map[string][]string{
	"for-approval":          {models.StatusPendingApproval},
	"awaiting-resubmission": {models.StatusAwaitingResubmission},
	"rejected":              {models.StatusRejected},
	"for-receiving":         {models.StatusForReceiving},
	"returned":              {models.StatusReturned},
	"received":              {models.StatusReceived},
	"cancelled":             {models.StatusCancelled},
}

// StageStatuses resolves a stage name to its status values, or nil for an
// unknown stage.
func StageStatuses(stage string) []string {
	return stageStatuses[stage]
}

// ListFilters narrows a stage view. Search matches reference number, position
// title or requestor name, case-insensitively, as a substring.
type ListFilters struct {
	Search      string
	DateFrom    *time.Time
	DateTo      *time.Time
	RequestorID *int
	Department  string
	Position    string
}

// ListingService serves the read-side projections behind each workflow-stage
// tab. It never writes.
type ListingService struct {
	db  *gorm.DB
	log *ActivityLogService
}

func NewListingService(db *gorm.DB, logService *ActivityLogService) *ListingService {
	return &ListingService{db: db, log: logService}
}

// List returns one page of a stage view plus the total count. Pages are
// 1-indexed; ordering is created_at descending with submission_id as
// tiebreak.
func (s *ListingService) List(stage string, filters ListFilters, page, pageSize int) ([]models.Submission, int64, error) {
	statuses := StageStatuses(stage)
	if statuses == nil {
		return nil, 0, newValidationError("stage", fmt.Sprintf("unknown stage '%s'", stage))
	}

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	query := s.db.Model(&models.Submission{}).Where("status IN ?", statuses)

	if filters.Search != "" {
		searchTerm := "%" + filters.Search + "%"
		query = query.Where(
			"reference_number LIKE ? OR position_title LIKE ? OR submitted_by IN (SELECT user_id FROM users WHERE CONCAT(user_fname, ' ', user_lname) LIKE ?)",
			searchTerm, searchTerm, searchTerm,
		)
	}
	if filters.DateFrom != nil {
		query = query.Where("created_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("created_at <= ?", *filters.DateTo)
	}
	if filters.RequestorID != nil {
		query = query.Where("submitted_by = ?", *filters.RequestorID)
	}
	if filters.Department != "" {
		query = query.Where("department = ?", filters.Department)
	}
	if filters.Position != "" {
		query = query.Where("position_title = ?", filters.Position)
	}

	var totalCount int64
	if err := query.Count(&totalCount).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count submissions: %w", err)
	}

	var submissions []models.Submission
	if err := query.
		Preload("Requestor").
		Order("created_at DESC, submission_id DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&submissions).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch submissions: %w", err)
	}

	return submissions, totalCount, nil
}

// History returns the ordered activity log for a submission. An existing
// submission with an empty history is a consistency fault, not a valid empty
// state.
func (s *ListingService) History(submissionID int) ([]models.ActivityLogEntry, error) {
	var count int64
	if err := s.db.Model(&models.Submission{}).
		Where("submission_id = ?", submissionID).
		Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check submission: %w", err)
	}
	if count == 0 {
		return nil, ErrNotFound
	}

	entries, err := s.log.History(submissionID)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, errors.Join(ErrReconciliationRequired,
			fmt.Errorf("submission %d exists but has no activity log", submissionID))
	}
	return entries, nil
}
