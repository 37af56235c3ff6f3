package controllers

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"hr-workflow-api/config"
	"hr-workflow-api/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const maxAttachmentSize = 10 << 20 // 10 MB

// isValidFileType checks if file type is allowed
func isValidFileType(file *multipart.FileHeader) bool {
	allowedTypes := map[string]bool{
		"application/pdf":    true,
		"image/jpeg":         true,
		"image/jpg":          true,
		"image/png":          true,
		"application/msword": true,
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
		"application/vnd.ms-excel": true,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
	}

	contentType := file.Header.Get("Content-Type")
	return allowedTypes[contentType]
}

// generateFileHash creates SHA256 hash of file content
func generateFileHash(file *multipart.FileHeader) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, src); err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}

func uploadPath() string {
	path := os.Getenv("UPLOAD_PATH")
	if path == "" {
		path = "./uploads"
	}
	return path
}

// UploadAttachment stores a file and associates it with a submission. The
// association is independent of workflow status; only the file pointer is
// kept on the submission row.
func UploadAttachment(c *gin.Context) {
	id, ok := submissionIDParam(c)
	if !ok {
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A file is required"})
		return
	}
	if file.Size > maxAttachmentSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File exceeds the 10MB limit"})
		return
	}
	if !isValidFileType(file) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File type not allowed"})
		return
	}

	fileHash, err := generateFileHash(file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read file"})
		return
	}

	storedName := uuid.New().String() + filepath.Ext(file.Filename)
	storedPath := filepath.Join(uploadPath(), storedName)
	if err := c.SaveUploadedFile(file, storedPath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store file"})
		return
	}

	actor := currentActor(c)
	now := time.Now()
	upload := models.FileUpload{
		OriginalName: file.Filename,
		StoredPath:   storedPath,
		FileSize:     file.Size,
		MimeType:     file.Header.Get("Content-Type"),
		FileHash:     fileHash,
		UploadedBy:   actor.UserID,
		UploadedAt:   now,
		CreateAt:     now,
		UpdateAt:     now,
	}
	if err := config.DB.Create(&upload).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record file"})
		return
	}

	if err := submissionService().Attach(id, upload.FileID, upload.OriginalName); err != nil {
		respondWorkflowError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"file":    upload,
	})
}

// DownloadAttachment streams a stored file back to the caller. Uploaders may
// fetch their own files; approvers, receivers and admins may fetch any.
func DownloadAttachment(c *gin.Context) {
	fileID, err := strconv.Atoi(c.Param("file_id"))
	if err != nil || fileID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid file id"})
		return
	}

	var upload models.FileUpload
	if err := config.DB.Where("file_id = ? AND delete_at IS NULL", fileID).First(&upload).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
		return
	}

	actor := currentActor(c)
	if upload.UploadedBy != actor.UserID && actor.RoleID == models.RoleRequestor && !isAdmin(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You may not download this file"})
		return
	}

	if _, err := os.Stat(upload.StoredPath); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Stored file is missing"})
		return
	}

	c.FileAttachment(upload.StoredPath, upload.OriginalName)
}

// uploadEmployeeStatusAttachment stores a file for an employee status entry
// and returns the created record.
func uploadEmployeeStatusFile(c *gin.Context, file *multipart.FileHeader) (*models.FileUpload, error) {
	fileHash, err := generateFileHash(file)
	if err != nil {
		return nil, err
	}

	storedName := uuid.New().String() + filepath.Ext(file.Filename)
	storedPath := filepath.Join(uploadPath(), storedName)
	if err := c.SaveUploadedFile(file, storedPath); err != nil {
		return nil, err
	}

	actor := currentActor(c)
	now := time.Now()
	upload := models.FileUpload{
		OriginalName: file.Filename,
		StoredPath:   storedPath,
		FileSize:     file.Size,
		MimeType:     file.Header.Get("Content-Type"),
		FileHash:     fileHash,
		UploadedBy:   actor.UserID,
		UploadedAt:   now,
		CreateAt:     now,
		UpdateAt:     now,
	}
	if err := config.DB.Create(&upload).Error; err != nil {
		return nil, err
	}
	return &upload, nil
}
