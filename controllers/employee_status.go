package controllers

import (
	"net/http"
	"strconv"
	"time"

	"hr-workflow-api/config"
	"hr-workflow-api/models"
	"hr-workflow-api/services"

	"github.com/gin-gonic/gin"
)

func employeeStatusService() *services.EmployeeStatusService {
	return services.NewEmployeeStatusService(config.DB)
}

// CreateEmployeeStatus records a validated employee status entry. The form is
// multipart so a supporting document can be attached in the same call.
func CreateEmployeeStatus(c *gin.Context) {
	employeeID, err := strconv.Atoi(c.PostForm("employee_id"))
	if err != nil || employeeID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid employee_id"})
		return
	}

	actor := currentActor(c)
	entry := models.EmployeeStatusEntry{
		EmployeeID: employeeID,
		Label:      c.PostForm("label"),
		CreatedBy:  actor.UserID,
	}

	if remarks := c.PostForm("remarks"); remarks != "" {
		entry.Remarks = &remarks
	}

	parseDate := func(field string) (*time.Time, bool) {
		raw := c.PostForm(field)
		if raw == "" {
			return nil, true
		}
		parsed, parseErr := time.Parse("2006-01-02", raw)
		if parseErr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + field + ", expected YYYY-MM-DD"})
			return nil, false
		}
		return &parsed, true
	}

	var ok bool
	if entry.EffectivityDate, ok = parseDate("effectivity_date"); !ok {
		return
	}
	if entry.StartDate, ok = parseDate("start_date"); !ok {
		return
	}
	if entry.EndDate, ok = parseDate("end_date"); !ok {
		return
	}

	if file, fileErr := c.FormFile("file"); fileErr == nil {
		if !isValidFileType(file) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "File type not allowed"})
			return
		}
		upload, uploadErr := uploadEmployeeStatusFile(c, file)
		if uploadErr != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store file"})
			return
		}
		entry.AttachmentFileID = &upload.FileID
		entry.AttachmentName = &upload.OriginalName
	}

	created, err := employeeStatusService().Create(&entry)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"entry":   created,
	})
}

// GetEmployeeStatuses lists the status history of one employee, newest first.
func GetEmployeeStatuses(c *gin.Context) {
	employeeID, err := strconv.Atoi(c.Param("employee_id"))
	if err != nil || employeeID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid employee id"})
		return
	}

	entries, err := employeeStatusService().ListForEmployee(employeeID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch employee statuses"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"statuses": entries,
	})
}
