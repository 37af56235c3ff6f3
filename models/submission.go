package models

import (
	"time"

	"gorm.io/datatypes"
)

// Submission statuses. The status column is the single source of truth for
// the current lifecycle stage; it is written only by the workflow service.
const (
	StatusSubmitted            = "submitted"
	StatusPendingApproval      = "pending_approval"
	StatusForReceiving         = "for_receiving"
	StatusReceived             = "received"
	StatusReturned             = "returned"
	StatusRejected             = "rejected"
	StatusAwaitingResubmission = "awaiting_resubmission"
	StatusCancelled            = "cancelled"
)

// Activity log event types (exact match with activity_log.event_type).
const (
	EventSubmitted   = "SUBMITTED"
	EventApproved    = "APPROVED"
	EventRejected    = "REJECTED"
	EventReturned    = "RETURNED"
	EventReceived    = "RECEIVED"
	EventCancelled   = "CANCELLED"
	EventResubmitted = "RESUBMITTED"
)

// Form types
const (
	FormTypeManpowerRequisition  = "manpower_requisition"
	FormTypeEmployeeStatusChange = "employee_status_change"
)

// Submission represents the submissions table
type Submission struct {
	SubmissionID       int            `gorm:"primaryKey;column:submission_id" json:"submission_id"`
	ReferenceNumber    string         `gorm:"column:reference_number;unique" json:"reference_number"`
	FormType           string         `gorm:"column:form_type" json:"form_type"`
	Status             string         `gorm:"column:status" json:"status"`
	Payload            datatypes.JSON `gorm:"column:payload" json:"payload"`
	PositionTitle      string         `gorm:"column:position_title" json:"position_title"`
	Department         string         `gorm:"column:department" json:"department"`
	SubmittedBy        int            `gorm:"column:submitted_by" json:"submitted_by"`
	OrderedApproval    bool           `gorm:"column:ordered_approval" json:"ordered_approval"`
	AttachmentFileID   *int           `gorm:"column:attachment_file_id" json:"attachment_file_id,omitempty"`
	AttachmentName     *string        `gorm:"column:attachment_name" json:"attachment_name,omitempty"`
	Version            int            `gorm:"column:version" json:"version"`
	ReconciliationFlag bool           `gorm:"column:reconciliation_flag" json:"reconciliation_flag"`
	CreatedAt          time.Time      `gorm:"column:created_at" json:"created_at"`
	UpdatedAt          time.Time      `gorm:"column:updated_at" json:"updated_at"`

	// Relations
	Requestor  *User                `gorm:"foreignKey:SubmittedBy" json:"requestor,omitempty"`
	Attachment *FileUpload          `gorm:"foreignKey:AttachmentFileID" json:"attachment,omitempty"`
	Approvers  []SubmissionApprover `gorm:"foreignKey:SubmissionID" json:"approvers,omitempty"`
}

// TableName overrides the table name for Submission
func (Submission) TableName() string {
	return "submissions"
}

// IsTerminal reports whether the submission has reached a final status.
func (s *Submission) IsTerminal() bool {
	return IsTerminalStatus(s.Status)
}

// SubmissionApprover represents the submission_approvers table. One row per
// required approver, ordered by sequence_order ("Requestor Tagging").
type SubmissionApprover struct {
	ApproverID    int        `gorm:"primaryKey;column:approver_id" json:"approver_id"`
	SubmissionID  int        `gorm:"column:submission_id;index" json:"submission_id"`
	UserID        int        `gorm:"column:user_id" json:"user_id"`
	SequenceOrder int        `gorm:"column:sequence_order" json:"sequence_order"`
	ApprovedAt    *time.Time `gorm:"column:approved_at" json:"approved_at,omitempty"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName overrides the table name for SubmissionApprover
func (SubmissionApprover) TableName() string {
	return "submission_approvers"
}

// IsTerminalStatus reports whether no further transition is defined from the
// given status.
func IsTerminalStatus(status string) bool {
	switch status {
	case StatusReceived, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// EventRequiresReason reports whether an activity log entry for the given
// event type must carry a description.
func EventRequiresReason(eventType string) bool {
	return eventType == EventRejected || eventType == EventReturned
}

// EligibleApprover returns the approver row the given user may sign as, or
// nil if the user is not currently eligible. Under ordered approval only the
// first unsigned approver in the sequence is eligible; under any-of approval
// every unsigned tagged approver is.
func EligibleApprover(approvers []SubmissionApprover, ordered bool, userID int) *SubmissionApprover {
	if ordered {
		for i := range approvers {
			if approvers[i].ApprovedAt == nil {
				if approvers[i].UserID == userID {
					return &approvers[i]
				}
				return nil
			}
		}
		return nil
	}
	for i := range approvers {
		if approvers[i].UserID == userID && approvers[i].ApprovedAt == nil {
			return &approvers[i]
		}
	}
	return nil
}

// IsTaggedApprover reports whether the user appears anywhere in the approver
// sequence, signed or not.
func IsTaggedApprover(approvers []SubmissionApprover, userID int) bool {
	for i := range approvers {
		if approvers[i].UserID == userID {
			return true
		}
	}
	return false
}

// RemainingApprovals counts approver rows that have not signed yet.
func RemainingApprovals(approvers []SubmissionApprover) int {
	remaining := 0
	for i := range approvers {
		if approvers[i].ApprovedAt == nil {
			remaining++
		}
	}
	return remaining
}
