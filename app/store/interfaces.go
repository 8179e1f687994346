package store

// JobStore is the single source of truth for job progress and status.
// Backends must be safe for concurrent use; a given job is only ever
// mutated by one runner instance at a time, so partial updates are
// last-writer-wins without cross-job locking.
type JobStore interface {
	CreateJob(sessionKey, filename string) (*Job, error)
	GetJob(jobID string) (*Job, error)
	UpdateJob(jobID string, update JobUpdate) error
	ListJobs(sessionKey string) ([]Job, error)
	DeleteJob(jobID string) error
	CountJobs() (int, error)

	CreateURLResult(result URLResult) (*URLResult, error)
	ListURLResults(jobID string) ([]URLResult, error)
}
