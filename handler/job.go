package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Jdeww/Mesa-U-Hacks-2.0/model"
	"github.com/Jdeww/Mesa-U-Hacks-2.0/pkg/logger"
	"github.com/Jdeww/Mesa-U-Hacks-2.0/service"
)

// pipelineTimeout bounds one synchronous generation run, extraction and
// generation included.
const pipelineTimeout = 5 * time.Minute

// BlobStore is the slice of the blob service the handlers use. MinioService
// satisfies it; tests substitute a stub.
type BlobStore interface {
	UploadFile(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error
	DeleteFile(ctx context.Context, objectName string) error
	GetPublicURL(objectName string) string
}

type JobHandler struct {
	blobs    BlobStore
	pipeline *service.Pipeline
	store    service.JobStore
}

func NewJobHandler(blobs BlobStore, pipeline *service.Pipeline, store service.JobStore) *JobHandler {
	return &JobHandler{
		blobs:    blobs,
		pipeline: pipeline,
		store:    store,
	}
}

// Upload accepts a study document and creates a pending job for it
func (h *JobHandler) Upload(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
		return
	}
	defer file.Close()

	format, ok := model.DetectFormat(header.Filename)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Only .txt, .md, .pdf, .jpg, .jpeg and .png files are allowed",
		})
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = contentTypeFor(header.Filename)
	}

	jobID := uuid.New().String()
	objectName := fmt.Sprintf("uploads/%s/%s", jobID, header.Filename)

	if err := h.blobs.UploadFile(c.Request.Context(), objectName, file, header.Size, contentType); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload file: " + err.Error()})
		return
	}

	job := &model.Job{
		ID:        jobID,
		Filename:  header.Filename,
		SourceRef: objectName,
		Status:    model.StatusPending,
	}
	if err := h.store.Create(c.Request.Context(), job); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create job: " + err.Error()})
		return
	}

	logger.Info(c.Request.Context(), "job created",
		"job_id", jobID,
		"filename", header.Filename,
		"format", format,
	)

	c.JSON(http.StatusOK, gin.H{
		"id":         jobID,
		"filename":   header.Filename,
		"status":     model.StatusPending,
		"source_url": h.blobs.GetPublicURL(objectName),
	})
}

type generateRequest struct {
	JobID string `json:"job_id" binding:"required"`
}

// Generate runs the full generation pipeline for a job and returns its final
// state. Pipeline failures are job state, not transport errors; only an
// unknown job id is a 404.
func (h *JobHandler) Generate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "job_id is required"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), pipelineTimeout)
	defer cancel()

	if err := h.pipeline.Run(ctx, req.JobID); err != nil {
		if errors.Is(err, service.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
			return
		}
		// the failure is already recorded on the job, fall through to
		// return the record
	}

	job, err := h.store.Get(c.Request.Context(), req.JobID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
		return
	}

	c.JSON(http.StatusOK, job)
}

// Content returns the full job record; a pending job shows an empty bundle
func (h *JobHandler) Content(c *gin.Context) {
	job, err := h.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
		return
	}

	c.JSON(http.StatusOK, job)
}

// List returns all jobs without their bundles
func (h *JobHandler) List(c *gin.Context) {
	jobs, err := h.store.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list jobs: " + err.Error()})
		return
	}

	count, err := h.store.Count(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count jobs: " + err.Error()})
		return
	}

	result := make([]gin.H, len(jobs))
	for i, job := range jobs {
		result[i] = gin.H{
			"id":         job.ID,
			"filename":   job.Filename,
			"status":     job.Status,
			"error_msg":  job.ErrorMsg,
			"source_url": h.blobs.GetPublicURL(job.SourceRef),
			"created_at": job.CreatedAt.Format(time.RFC3339),
			"updated_at": job.UpdatedAt.Format(time.RFC3339),
		}
	}

	c.JSON(http.StatusOK, gin.H{"jobs": result, "count": count})
}

// Delete removes a job record and its stored source document
func (h *JobHandler) Delete(c *gin.Context) {
	id := c.Param("id")

	job, err := h.store.Get(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
		return
	}

	if err := h.blobs.DeleteFile(c.Request.Context(), job.SourceRef); err != nil {
		// the record is still removed; an orphaned blob is recoverable
		logger.Warn(c.Request.Context(), "failed to delete source file",
			"job_id", id,
			"source_ref", job.SourceRef,
			"error", err,
		)
	}

	if err := h.store.Delete(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Job deleted"})
}

func contentTypeFor(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt":
		return "text/plain"
	case ".md":
		return "text/markdown"
	case ".pdf":
		return "application/pdf"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	default:
		return "application/octet-stream"
	}
}
