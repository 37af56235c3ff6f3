package models

import (
	"errors"
	"fmt"
	"time"
)

// Employee status labels (fixed vocabulary). Range labels describe a bounded
// period and require start_date and end_date; point labels take effect on a
// single effectivity_date.
const (
	LabelExtended      = "EXTENDED"
	LabelSuspended     = "SUSPENDED"
	LabelMaternity     = "MATERNITY"
	LabelTerminated    = "TERMINATED"
	LabelResigned      = "RESIGNED"
	LabelEndOfContract = "END_OF_CONTRACT"
)

var rangeLabels = map[string]bool{
	LabelExtended:  true,
	LabelSuspended: true,
	LabelMaternity: true,
}

var pointLabels = map[string]bool{
	LabelTerminated:    true,
	LabelResigned:      true,
	LabelEndOfContract: true,
}

// EmployeeStatusEntry represents the employee_statuses table
type EmployeeStatusEntry struct {
	EntryID          int        `gorm:"primaryKey;column:entry_id" json:"entry_id"`
	EmployeeID       int        `gorm:"column:employee_id;index" json:"employee_id"`
	Label            string     `gorm:"column:label" json:"label"`
	EffectivityDate  *time.Time `gorm:"column:effectivity_date;type:date" json:"effectivity_date,omitempty"`
	StartDate        *time.Time `gorm:"column:start_date;type:date" json:"start_date,omitempty"`
	EndDate          *time.Time `gorm:"column:end_date;type:date" json:"end_date,omitempty"`
	Remarks          *string    `gorm:"column:remarks" json:"remarks,omitempty"`
	AttachmentFileID *int       `gorm:"column:attachment_file_id" json:"attachment_file_id,omitempty"`
	AttachmentName   *string    `gorm:"column:attachment_name" json:"attachment_name,omitempty"`
	CreatedBy        int        `gorm:"column:created_by" json:"created_by"`
	CreatedAt        time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"column:updated_at" json:"updated_at"`

	Attachment *FileUpload `gorm:"foreignKey:AttachmentFileID" json:"attachment,omitempty"`
}

// TableName overrides the table name for EmployeeStatusEntry
func (EmployeeStatusEntry) TableName() string {
	return "employee_statuses"
}

// IsRangeLabel reports whether the label describes a bounded period.
func IsRangeLabel(label string) bool {
	return rangeLabels[label]
}

// IsKnownLabel reports whether the label belongs to the fixed vocabulary.
func IsKnownLabel(label string) bool {
	return rangeLabels[label] || pointLabels[label]
}

// Validate checks that exactly the date fields required by the label class
// are populated. An entry with the wrong fields must not be persisted.
func (e *EmployeeStatusEntry) Validate() error {
	if e.EmployeeID <= 0 {
		return errors.New("employee_id is required")
	}
	if !IsKnownLabel(e.Label) {
		return fmt.Errorf("unknown status label '%s'", e.Label)
	}

	if IsRangeLabel(e.Label) {
		if e.StartDate == nil || e.EndDate == nil {
			return fmt.Errorf("label %s requires start_date and end_date", e.Label)
		}
		if e.EffectivityDate != nil {
			return fmt.Errorf("label %s must not set effectivity_date", e.Label)
		}
		if e.EndDate.Before(*e.StartDate) {
			return errors.New("end_date must not be before start_date")
		}
		return nil
	}

	if e.EffectivityDate == nil {
		return fmt.Errorf("label %s requires effectivity_date", e.Label)
	}
	if e.StartDate != nil || e.EndDate != nil {
		return fmt.Errorf("label %s must not set start_date or end_date", e.Label)
	}
	return nil
}
