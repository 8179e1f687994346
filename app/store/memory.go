package store

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

var _ JobStore = (*MemoryStore)(nil)

// MemoryStore keeps jobs and results in process memory. The default
// backend; state is lost on restart.
type MemoryStore struct {
	mu      sync.RWMutex
	jobs    map[string]*Job
	results map[string][]URLResult
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		jobs:    make(map[string]*Job),
		results: make(map[string][]URLResult),
	}
}

func (s *MemoryStore) CreateJob(sessionKey, filename string) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job := &Job{
		ID:         uuid.NewString(),
		SessionKey: sessionKey,
		Filename:   filename,
		Status:     StatusPending,
		CreatedAt:  time.Now().UTC(),
	}
	s.jobs[job.ID] = job

	jobCopy := *job
	return &jobCopy, nil
}

func (s *MemoryStore) GetJob(jobID string) (*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return nil, nil
	}

	jobCopy := *job
	return &jobCopy, nil
}

func (s *MemoryStore) UpdateJob(jobID string, update JobUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return fmt.Errorf("job %s not found", jobID)
	}

	if update.Status != nil {
		job.Status = *update.Status
	}
	if update.TotalURLs != nil {
		job.TotalURLs = *update.TotalURLs
	}
	if update.ProcessedURLs != nil {
		job.ProcessedURLs = *update.ProcessedURLs
	}
	if update.UploadPath != nil {
		job.UploadPath = *update.UploadPath
	}
	if update.OutputPath != nil {
		job.OutputPath = *update.OutputPath
	}
	if update.CompletedAt != nil {
		job.CompletedAt = update.CompletedAt
	}

	return nil
}

func (s *MemoryStore) ListJobs(sessionKey string) ([]Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make([]Job, 0)
	for _, job := range s.jobs {
		if job.SessionKey == sessionKey {
			jobs = append(jobs, *job)
		}
	}

	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
	})

	return jobs, nil
}

func (s *MemoryStore) DeleteJob(jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[jobID]; !ok {
		return fmt.Errorf("job %s not found", jobID)
	}

	delete(s.jobs, jobID)
	delete(s.results, jobID)

	return nil
}

func (s *MemoryStore) CountJobs() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs), nil
}

func (s *MemoryStore) CreateURLResult(result URLResult) (*URLResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result.ID = uuid.NewString()
	result.ProcessedAt = time.Now().UTC()
	s.results[result.JobID] = append(s.results[result.JobID], result)

	resultCopy := result
	return &resultCopy, nil
}

func (s *MemoryStore) ListURLResults(jobID string) ([]URLResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]URLResult, len(s.results[jobID]))
	copy(results, s.results[jobID])

	return results, nil
}
