package store

import (
	"time"

	"github.com/ritz123/SeoWatch/app/analyzer"
)

type JobStatus string

const (
	StatusPending    JobStatus = "pending"
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

// Job represents one bulk-analysis request spanning many URLs.
type Job struct {
	ID            string     `json:"id"`
	SessionKey    string     `json:"-"`
	Filename      string     `json:"filename"`
	UploadPath    string     `json:"-"`
	OutputPath    string     `json:"-"`
	TotalURLs     int        `json:"total_urls"`
	ProcessedURLs int        `json:"processed_urls"`
	Status        JobStatus  `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

// URLResult is the stored outcome of analyzing one URL within a job.
// Exactly one of Analysis and ErrorMessage is populated.
type URLResult struct {
	ID           string           `json:"id"`
	JobID        string           `json:"job_id"`
	URL          string           `json:"url"`
	Analysis     *analyzer.Result `json:"analysis,omitempty"`
	ErrorMessage string           `json:"error_message,omitempty"`
	ProcessedAt  time.Time        `json:"processed_at"`
}

// JobUpdate is a partial-field merge; nil fields are left unchanged.
type JobUpdate struct {
	Status        *JobStatus
	TotalURLs     *int
	ProcessedURLs *int
	UploadPath    *string
	OutputPath    *string
	CompletedAt   *time.Time
}
