// controllers/submission_listing.go - workflow-stage views

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

// GetStageSubmissions returns one paginated page of a workflow-stage view
// (for-approval, awaiting-resubmission, rejected, for-receiving, returned,
// received, cancelled).
func GetStageSubmissions(c *gin.Context) {
	stage := c.Param("stage")

	// Parse query parameters
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	filters := services.ListFilters{
		Search:     c.Query("search"),
		Department: c.Query("department"),
		Position:   c.Query("position"),
	}

	if raw := c.Query("date_from"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date_from, expected YYYY-MM-DD"})
			return
		}
		filters.DateFrom = &parsed
	}
	if raw := c.Query("date_to"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date_to, expected YYYY-MM-DD"})
			return
		}
		// inclusive upper bound
		end := parsed.Add(24*time.Hour - time.Nanosecond)
		filters.DateTo = &end
	}
	if raw := c.Query("requestor_id"); raw != "" {
		requestorID, err := strconv.Atoi(raw)
		if err != nil || requestorID <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid requestor_id"})
			return
		}
		filters.RequestorID = &requestorID
	}

	// Requestors see only their own submissions
	actor := currentActor(c)
	if actor.RoleID == models.RoleRequestor {
		filters.RequestorID = &actor.UserID
	}

	db := config.DB
	listing := services.NewListingService(db, services.NewActivityLogService(db))
	items, totalCount, err := listing.List(stage, filters, page, pageSize)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	totalPages := (totalCount + int64(pageSize) - 1) / int64(pageSize)

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"stage":       stage,
		"submissions": items,
		"pagination": gin.H{
			"current_page": page,
			"per_page":     pageSize,
			"total_count":  totalCount,
			"total_pages":  totalPages,
			"has_next":     page < int(totalPages),
			"has_prev":     page > 1,
		},
	})
}
