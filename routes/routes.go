package routes

import (
	"hr-workflow-api/controllers"
	"hr-workflow-api/middleware"
	"hr-workflow-api/models"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine) {
	// API v1 group
	v1 := router.Group("/api/v1")
	{
		// Public routes
		public := v1.Group("")
		{
			// Authentication
			public.POST("/login", controllers.Login)

			// Health check
			public.GET("/health", func(c *gin.Context) {
				c.JSON(200, gin.H{
					"status":  "ok",
					"message": "HR Workflow API is running",
				})
			})
		}

		// Protected routes (require authentication)
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware())
		{
			// User profile
			protected.GET("/profile", controllers.GetProfile)
			protected.PUT("/change-password", controllers.ChangePassword)

			// Submissions
			submissions := protected.Group("/submissions")
			{
				// Only requestors open new workflow instances
				submissions.POST("", middleware.RequireRole(models.RoleRequestor, models.RoleAdmin), controllers.CreateSubmission)

				submissions.GET("/:id", controllers.GetSubmission)
				submissions.GET("/:id/history", controllers.GetSubmissionHistory)
				submissions.GET("/stage/:stage", controllers.GetStageSubmissions)

				// Approver-side transitions
				submissions.POST("/:id/approve", middleware.RequireRole(models.RoleApprover, models.RoleAdmin), controllers.ApproveSubmission)
				submissions.POST("/:id/reject", middleware.RequireRole(models.RoleApprover, models.RoleAdmin), controllers.RejectSubmission)
				submissions.POST("/:id/request-revision", middleware.RequireRole(models.RoleApprover, models.RoleAdmin), controllers.RequestSubmissionRevision)

				// Receiver-side transitions
				submissions.POST("/:id/receive", middleware.RequireRole(models.RoleReceiver, models.RoleAdmin), controllers.ReceiveSubmission)
				submissions.POST("/:id/return", middleware.RequireRole(models.RoleReceiver, models.RoleAdmin), controllers.ReturnSubmission)

				// Requestor-side transitions
				submissions.POST("/:id/resubmit", middleware.RequireRole(models.RoleRequestor, models.RoleAdmin), controllers.ResubmitSubmission)
				submissions.POST("/:id/cancel", controllers.CancelSubmission)

				// Attachments
				submissions.POST("/:id/attachment", controllers.UploadAttachment)
			}

			// Stored files
			protected.GET("/attachments/:file_id", controllers.DownloadAttachment)

			// Employee statuses
			protected.POST("/employee-statuses", middleware.RequireRole(models.RoleRequestor, models.RoleAdmin), controllers.CreateEmployeeStatus)
			protected.GET("/employees/:employee_id/statuses", controllers.GetEmployeeStatuses)

			// Notifications
			protected.GET("/notifications", controllers.GetNotifications)
			protected.PUT("/notifications/:notification_id/read", controllers.MarkNotificationRead)
		}
	}
}
