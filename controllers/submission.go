package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"hr-workflow-api/config"
	"hr-workflow-api/models"
	"hr-workflow-api/services"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
)

func workflowService() *services.WorkflowService {
	db := config.DB
	return services.NewWorkflowService(db, services.NewActivityLogService(db), services.NewNotificationService(db))
}

func submissionService() *services.SubmissionService {
	db := config.DB
	return services.NewSubmissionService(db, services.NewActivityLogService(db), services.NewNotificationService(db))
}

// currentActor builds the workflow actor from the authenticated request.
func currentActor(c *gin.Context) services.Actor {
	userID, _ := c.Get("userID")
	roleID, _ := c.Get("roleID")
	userName, _ := c.Get("userName")

	actor := services.Actor{}
	if id, ok := userID.(int); ok {
		actor.UserID = id
	}
	if role, ok := roleID.(int); ok {
		actor.RoleID = role
	}
	if name, ok := userName.(string); ok {
		actor.Name = name
	}
	return actor
}

// respondWorkflowError maps the workflow error kinds onto HTTP status codes.
func respondWorkflowError(c *gin.Context, err error) {
	var vErr *services.ValidationError
	switch {
	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Error()})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Submission not found"})
	case errors.Is(err, services.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": "You are not eligible for this transition"})
	case errors.Is(err, services.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": "Operation not allowed from the current status"})
	case errors.Is(err, services.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "Submission was modified concurrently, please reload and retry"})
	case errors.Is(err, services.ErrReconciliationRequired):
		c.JSON(http.StatusConflict, gin.H{"error": "Submission is locked pending manual reconciliation"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

func submissionIDParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid submission id"})
		return 0, false
	}
	return id, true
}

type CreateSubmissionRequest struct {
	FormType      string         `json:"form_type" binding:"required"`
	Payload       datatypes.JSON `json:"payload" binding:"required"`
	PositionTitle string         `json:"position_title"`
	Department    string         `json:"department"`
	ApproverIDs   []int          `json:"approver_ids" binding:"required,min=1"`
	Ordered       bool           `json:"ordered"`
}

type ReasonRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// CreateSubmission opens a new workflow instance for the authenticated
// requestor.
func CreateSubmission(c *gin.Context) {
	var req CreateSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor := currentActor(c)
	result, err := submissionService().Create(services.CreateSubmissionInput{
		FormType:      req.FormType,
		Payload:       req.Payload,
		PositionTitle: req.PositionTitle,
		Department:    req.Department,
		SubmittedBy:   actor.UserID,
		ApproverIDs:   req.ApproverIDs,
		Ordered:       req.Ordered,
	}, actor)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":    true,
		"submission": result.Submission,
		"entry":      result.Entry,
	})
}

// GetSubmission returns one submission with its approver sequence.
func GetSubmission(c *gin.Context) {
	id, ok := submissionIDParam(c)
	if !ok {
		return
	}

	sub, err := submissionService().Get(id)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"submission": sub,
	})
}

// GetSubmissionHistory returns the ordered activity log.
func GetSubmissionHistory(c *gin.Context) {
	id, ok := submissionIDParam(c)
	if !ok {
		return
	}

	db := config.DB
	listing := services.NewListingService(db, services.NewActivityLogService(db))
	entries, err := listing.History(id)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"history": entries,
	})
}

// ApproveSubmission signs off as the acting approver.
func ApproveSubmission(c *gin.Context) {
	id, ok := submissionIDParam(c)
	if !ok {
		return
	}

	result, err := workflowService().Approve(id, currentActor(c))
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"submission": result.Submission,
		"entry":      result.Entry,
	})
}

// RejectSubmission terminates the submission with a mandatory reason.
func RejectSubmission(c *gin.Context) {
	id, ok := submissionIDParam(c)
	if !ok {
		return
	}

	var req ReasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := workflowService().Reject(id, currentActor(c), req.Reason)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"submission": result.Submission,
		"entry":      result.Entry,
	})
}

// RequestSubmissionRevision sends the submission back to the requestor for
// changes before further approval.
func RequestSubmissionRevision(c *gin.Context) {
	id, ok := submissionIDParam(c)
	if !ok {
		return
	}

	var req ReasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := workflowService().RequestRevision(id, currentActor(c), req.Reason)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"submission": result.Submission,
		"entry":      result.Entry,
	})
}

// ReturnSubmission sends a for-receiving submission back to its requestor.
func ReturnSubmission(c *gin.Context) {
	id, ok := submissionIDParam(c)
	if !ok {
		return
	}

	var req ReasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := workflowService().Return(id, currentActor(c), req.Reason)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"submission": result.Submission,
		"entry":      result.Entry,
	})
}

// ReceiveSubmission completes the workflow.
func ReceiveSubmission(c *gin.Context) {
	id, ok := submissionIDParam(c)
	if !ok {
		return
	}

	var req struct {
		Comments *string `json:"comments"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	result, err := workflowService().Receive(id, currentActor(c), req.Comments)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"submission": result.Submission,
		"entry":      result.Entry,
	})
}

// ResubmitSubmission replaces the payload and returns the submission to the
// stage that preceded the return.
func ResubmitSubmission(c *gin.Context) {
	id, ok := submissionIDParam(c)
	if !ok {
		return
	}

	var req struct {
		Payload datatypes.JSON `json:"payload" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := workflowService().Resubmit(id, currentActor(c), req.Payload)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"submission": result.Submission,
		"entry":      result.Entry,
	})
}

// CancelSubmission terminates the submission from any non-terminal state.
func CancelSubmission(c *gin.Context) {
	id, ok := submissionIDParam(c)
	if !ok {
		return
	}

	result, err := workflowService().Cancel(id, currentActor(c))
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"submission": result.Submission,
		"entry":      result.Entry,
	})
}

// isAdmin reports whether the request is from an admin user.
func isAdmin(c *gin.Context) bool {
	roleID, _ := c.Get("roleID")
	role, ok := roleID.(int)
	return ok && role == models.RoleAdmin
}
