package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ritz123/SeoWatch/app/analyzer"
	"github.com/ritz123/SeoWatch/app/bulk"
	"github.com/ritz123/SeoWatch/app/cfg"
	"github.com/ritz123/SeoWatch/app/fetch"
	"github.com/ritz123/SeoWatch/app/metrics"
	"github.com/ritz123/SeoWatch/app/store"
)

// secondsPerURL drives the completion-time estimate shown to clients.
const secondsPerURL = 2 * time.Second

func NewHandler(jobStore store.JobStore, runner *bulk.Runner, fetcher *fetch.Client,
	engine *analyzer.Engine, uploadsDir string, fetchTimeout time.Duration) *Handler {
	return &Handler{
		jobStore:     jobStore,
		runner:       runner,
		fetcher:      fetcher,
		engine:       engine,
		uploadsDir:   uploadsDir,
		fetchTimeout: fetchTimeout,
	}
}

// sessionKey partitions job ownership by caller network address and
// client identifier. Not an authentication mechanism.
func sessionKey(c *gin.Context) string {
	return c.ClientIP() + "|" + c.Request.UserAgent()
}

func (h *Handler) UploadBulk(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}

	isCSV := strings.EqualFold(filepath.Ext(fileHeader.Filename), ".csv") ||
		strings.Contains(fileHeader.Header.Get("Content-Type"), "text/csv")
	if !isCSV {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid file type. Please upload a CSV file."})
		return
	}

	if fileHeader.Size > bulk.MaxUploadSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File too large. Maximum size is 10MB."})
		return
	}

	job, err := h.jobStore.CreateJob(sessionKey(c), fileHeader.Filename)
	if err != nil {
		slog.Error("Failed to create job", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create job"})
		return
	}

	uploadPath := filepath.Join(h.uploadsDir, job.ID+".csv")
	if err := c.SaveUploadedFile(fileHeader, uploadPath); err != nil {
		slog.Error("Failed to save upload", "job_id", job.ID, "error", err)
		h.discardJob(job.ID, uploadPath)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save uploaded file"})
		return
	}

	validation, err := bulk.ValidateFile(uploadPath)
	if err != nil {
		slog.Error("Failed to validate upload", "job_id", job.ID, "error", err)
		h.discardJob(job.ID, uploadPath)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to validate uploaded file"})
		return
	}

	if !validation.Valid {
		h.discardJob(job.ID, uploadPath)
		c.JSON(http.StatusBadRequest, gin.H{"error": validation.Reason})
		return
	}

	err = h.jobStore.UpdateJob(job.ID, store.JobUpdate{
		TotalURLs:  &validation.URLCount,
		UploadPath: &uploadPath,
	})
	if err != nil {
		slog.Error("Failed to update job", "job_id", job.ID, "error", err)
		h.discardJob(job.ID, uploadPath)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update job"})
		return
	}

	slog.Info("Bulk job created", "job_id", job.ID, "filename", fileHeader.Filename, "urls", validation.URLCount)

	go func() {
		if err := h.runner.ProcessJob(context.Background(), job.ID); err != nil {
			slog.Error("Background job processing failed", "job_id", job.ID, "error", err)
		}
	}()

	estimate := time.Now().UTC().Add(time.Duration(validation.URLCount) * secondsPerURL)
	c.JSON(http.StatusOK, UploadResponse{
		JobID:                   job.ID,
		TotalURLs:               validation.URLCount,
		EstimatedCompletionTime: estimate.Format(time.RFC3339),
	})
}

// discardJob removes artifacts of an upload that failed validation
func (h *Handler) discardJob(jobID, uploadPath string) {
	if err := os.Remove(uploadPath); err != nil && !os.IsNotExist(err) {
		slog.Warn("Failed to remove upload file", "job_id", jobID, "error", err)
	}
	if err := h.jobStore.DeleteJob(jobID); err != nil {
		slog.Warn("Failed to delete job", "job_id", jobID, "error", err)
	}
}

func (h *Handler) GetJobStatus(c *gin.Context) {
	jobID := c.Param("jobId")

	job, err := h.jobStore.GetJob(jobID)
	if err != nil {
		slog.Error("Database error", "operation", "get_job", "job_id", jobID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if job == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
		return
	}

	percentage := 0
	if job.TotalURLs > 0 {
		percentage = job.ProcessedURLs * 100 / job.TotalURLs
	}

	resp := StatusResponse{
		JobID:  job.ID,
		Status: string(job.Status),
		Progress: ProgressInfo{
			Total:      job.TotalURLs,
			Processed:  job.ProcessedURLs,
			Percentage: percentage,
		},
	}

	if job.Status == store.StatusPending || job.Status == store.StatusProcessing {
		remaining := job.TotalURLs - job.ProcessedURLs
		resp.EstimatedTimeRemaining = (time.Duration(remaining) * secondsPerURL).String()
	}

	c.JSON(http.StatusOK, resp)
}

func (h *Handler) DownloadResults(c *gin.Context) {
	jobID := c.Param("jobId")

	job, err := h.jobStore.GetJob(jobID)
	if err != nil {
		slog.Error("Database error", "operation", "get_job", "job_id", jobID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if job == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
		return
	}

	if job.Status != store.StatusCompleted {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Job is not completed yet"})
		return
	}

	if job.OutputPath == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "Output file not found"})
		return
	}
	if _, err := os.Stat(job.OutputPath); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Output file not found"})
		return
	}

	filename := "seo_analysis_" + filepath.Base(job.Filename)
	c.Header("Content-Type", "text/csv")
	c.FileAttachment(job.OutputPath, filename)
}

func (h *Handler) ListJobs(c *gin.Context) {
	jobs, err := h.jobStore.ListJobs(sessionKey(c))
	if err != nil {
		slog.Error("Database error", "operation", "list_jobs", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	jobList := make([]map[string]interface{}, 0, len(jobs))
	for _, job := range jobs {
		info := map[string]interface{}{
			"jobId":         job.ID,
			"filename":      job.Filename,
			"status":        string(job.Status),
			"totalUrls":     job.TotalURLs,
			"processedUrls": job.ProcessedURLs,
			"createdAt":     job.CreatedAt.Format(time.RFC3339),
		}
		if job.CompletedAt != nil {
			info["completedAt"] = job.CompletedAt.Format(time.RFC3339)
		}
		jobList = append(jobList, info)
	}

	c.JSON(http.StatusOK, gin.H{"jobs": jobList})
}

func (h *Handler) DeleteJob(c *gin.Context) {
	jobID := c.Param("jobId")

	job, err := h.jobStore.GetJob(jobID)
	if err != nil {
		slog.Error("Database error", "operation", "get_job", "job_id", jobID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if job == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
		return
	}

	if job.SessionKey != sessionKey(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You do not own this job"})
		return
	}

	// Best-effort cancellation: in-flight fetches run to completion,
	// their results are discarded with the job
	if job.Status == store.StatusPending || job.Status == store.StatusProcessing {
		now := time.Now().UTC()
		failed := store.StatusFailed
		if err := h.jobStore.UpdateJob(jobID, store.JobUpdate{Status: &failed, CompletedAt: &now}); err != nil {
			slog.Warn("Failed to cancel job", "job_id", jobID, "error", err)
		}
	}

	for _, path := range []string{job.UploadPath, job.OutputPath} {
		if path == "" {
			continue
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			slog.Warn("Failed to remove job file", "job_id", jobID, "path", path, "error", err)
		}
	}

	slog.Info("Job cancelled", "job_id", jobID)
	c.JSON(http.StatusOK, gin.H{"message": "Job cancelled and files removed"})
}

func (h *Handler) AnalyzeURL(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.URL) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing url in request body"})
		return
	}

	pageURL := fetch.NormalizeURL(req.URL)

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.fetchTimeout)
	defer cancel()

	data, err := h.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		slog.Error("Failed to fetch URL", "url", pageURL, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": fmt.Sprintf("Failed to fetch URL: %s", err)})
		return
	}

	result, err := h.engine.Run(data, pageURL)
	if err != nil {
		slog.Error("Analysis failed", "url", pageURL, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to analyze page"})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"version":   cfg.Get().Version,
	}

	if jobCount, err := h.jobStore.CountJobs(); err == nil {
		health["jobs"] = jobCount
	}

	health["active_jobs"] = h.runner.ActiveJobs()

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetMetrics(c *gin.Context) {
	c.Header("Content-Type", "text/plain; version=0.0.4")
	c.String(http.StatusOK, metrics.Render())
}
