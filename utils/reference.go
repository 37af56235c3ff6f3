package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"hr-workflow-api/models"

	"gorm.io/gorm"
)

// Global mutex for reference number generation
var referenceNumberMutex sync.Mutex

// ReferencePrefix maps a form type to its reference number prefix.
func ReferencePrefix(formType string) string {
	switch formType {
	case models.FormTypeManpowerRequisition:
		return "MRF"
	case models.FormTypeEmployeeStatusChange:
		return "ESC"
	default:
		return "SUB"
	}
}

// FormatReferenceNumber renders a reference number (prefix-YYYY-RUNNING).
func FormatReferenceNumber(prefix string, year int, running int64) string {
	return fmt.Sprintf("%s-%d-%04d", prefix, year, running)
}

// GenerateReferenceNumber creates a unique reference number. The running
// number counts submissions within the current calendar year and resets when
// the year changes.
func GenerateReferenceNumber(db *gorm.DB, formType string) string {
	referenceNumberMutex.Lock()
	defer referenceNumberMutex.Unlock()

	prefix := ReferencePrefix(formType)
	year := time.Now().Year()

	prefixYearLike := fmt.Sprintf("%s-%d-%%", prefix, year)

	var count int64
	db.Model(&models.Submission{}).
		Where("form_type = ? AND reference_number LIKE ?", formType, prefixYearLike).
		Count(&count)

	// Try to reserve the next running number, re-checking for collisions
	for i := int64(1); i <= 10; i++ {
		potentialNumber := FormatReferenceNumber(prefix, year, count+i)

		var existing int64
		db.Model(&models.Submission{}).
			Where("reference_number = ?", potentialNumber).
			Count(&existing)

		if existing == 0 {
			return potentialNumber
		}
	}

	// Concurrent writers exhausted the window; fall back to a random suffix
	bytes := make([]byte, 3)
	rand.Read(bytes)
	randomSuffix := strings.ToUpper(hex.EncodeToString(bytes))
	return fmt.Sprintf("%s-%d-R-%s", prefix, year, randomSuffix)
}
