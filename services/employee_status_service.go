package services

import (
	"fmt"
	"time"

	"hr-workflow-api/models"

	"gorm.io/gorm"
)

// EmployeeStatusService persists employee status entries (separations,
// suspensions, extensions). Which date fields an entry must carry is a pure
// function of its label; invalid entries never reach the database.
type EmployeeStatusService struct {
	db *gorm.DB
}

func NewEmployeeStatusService(db *gorm.DB) *EmployeeStatusService {
	return &EmployeeStatusService{db: db}
}

// Validate applies the label/date-field rules without persisting anything.
func (s *EmployeeStatusService) Validate(entry *models.EmployeeStatusEntry) error {
	if err := entry.Validate(); err != nil {
		return &ValidationError{Message: err.Error()}
	}
	return nil
}

// Create validates and persists an employee status entry.
func (s *EmployeeStatusService) Create(entry *models.EmployeeStatusEntry) (*models.EmployeeStatusEntry, error) {
	if err := s.Validate(entry); err != nil {
		return nil, err
	}

	now := time.Now()
	entry.CreatedAt = now
	entry.UpdatedAt = now

	if err := s.db.Create(entry).Error; err != nil {
		return nil, fmt.Errorf("failed to create employee status entry: %w", err)
	}
	return entry, nil
}

// ListForEmployee returns all status entries of one employee, newest first.
func (s *EmployeeStatusService) ListForEmployee(employeeID int) ([]models.EmployeeStatusEntry, error) {
	var entries []models.EmployeeStatusEntry
	if err := s.db.
		Preload("Attachment").
		Where("employee_id = ?", employeeID).
		Order("created_at DESC, entry_id DESC").
		Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to load employee statuses: %w", err)
	}
	return entries, nil
}
