package bulk

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ritz123/SeoWatch/app/metrics"
	"github.com/ritz123/SeoWatch/app/store"
)

// ProgressFunc is notified after each URL settles with the cumulative
// processed count for the job.
type ProgressFunc func(jobID string, processed, total int)

// Runner orchestrates batch-concurrent analysis of all URLs in a job.
// Constructed once at process start; the active-job set guards against
// double-processing of the same job from duplicate triggers.
type Runner struct {
	jobStore    store.JobStore
	urlAnalyzer *URLAnalyzer
	resultsDir  string
	batchSize   int
	progress    ProgressFunc

	mu     sync.Mutex
	active map[string]struct{}
}

func NewRunner(jobStore store.JobStore, urlAnalyzer *URLAnalyzer, resultsDir string, batchSize int, progress ProgressFunc) *Runner {
	if batchSize <= 0 {
		batchSize = 10
	}

	return &Runner{
		jobStore:    jobStore,
		urlAnalyzer: urlAnalyzer,
		resultsDir:  resultsDir,
		batchSize:   batchSize,
		progress:    progress,
		active:      make(map[string]struct{}),
	}
}

// ProcessJob drives a job from pending to completed or failed. A call
// for a job id already in the active set is a no-op.
func (r *Runner) ProcessJob(ctx context.Context, jobID string) error {
	if !r.claim(jobID) {
		slog.Debug("Job already processing, skipping", "job_id", jobID)
		return nil
	}
	defer r.release(jobID)

	metrics.JobStarted()
	start := time.Now()

	if err := r.run(ctx, jobID); err != nil {
		metrics.JobFailed()
		slog.Error("Job failed", "job_id", jobID, "error", err)

		now := time.Now().UTC()
		failed := store.StatusFailed
		// Progress count is left at whatever it last reached
		if updateErr := r.jobStore.UpdateJob(jobID, store.JobUpdate{Status: &failed, CompletedAt: &now}); updateErr != nil {
			slog.Error("Failed to mark job as failed", "job_id", jobID, "error", updateErr)
		}

		return err
	}

	metrics.JobCompleted()
	slog.Info("Job completed", "job_id", jobID, "duration", time.Since(start))

	return nil
}

// IsActive reports whether the job id is currently being processed.
func (r *Runner) IsActive(jobID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.active[jobID]
	return ok
}

// ActiveJobs lists all job ids currently being processed.
func (r *Runner) ActiveJobs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, 0, len(r.active))
	for id := range r.active {
		ids = append(ids, id)
	}
	return ids
}

func (r *Runner) claim(jobID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.active[jobID]; ok {
		return false
	}
	r.active[jobID] = struct{}{}
	return true
}

func (r *Runner) release(jobID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.active, jobID)
}

func (r *Runner) run(ctx context.Context, jobID string) error {
	job, err := r.jobStore.GetJob(jobID)
	if err != nil {
		return fmt.Errorf("failed to get job: %w", err)
	}
	if job == nil {
		return fmt.Errorf("job %s not found", jobID)
	}

	processing := store.StatusProcessing
	zero := 0
	if err := r.jobStore.UpdateJob(jobID, store.JobUpdate{Status: &processing, ProcessedURLs: &zero}); err != nil {
		return fmt.Errorf("failed to mark job as processing: %w", err)
	}

	f, err := os.Open(job.UploadPath)
	if err != nil {
		return fmt.Errorf("failed to open upload file: %w", err)
	}

	urls, err := ExtractURLs(f)
	f.Close()
	if err != nil {
		return fmt.Errorf("failed to extract URLs: %w", err)
	}

	slog.Info("Job processing started", "job_id", jobID, "urls", len(urls), "batch_size", r.batchSize)

	// Index-positional placement preserves input order regardless of
	// completion order within a batch
	rows := make([]*BulkRow, len(urls))

	var progressMu sync.Mutex
	processed := 0

	for batchStart := 0; batchStart < len(urls); batchStart += r.batchSize {
		batchEnd := min(batchStart+r.batchSize, len(urls))

		var wg sync.WaitGroup
		for i := batchStart; i < batchEnd; i++ {
			wg.Add(1)
			go func(i int, rawURL string) {
				defer wg.Done()

				row, err := r.urlAnalyzer.Run(ctx, jobID, rawURL)
				if err != nil {
					slog.Debug("URL analysis failed", "job_id", jobID, "url", rawURL, "error", err)
					row = PlaceholderRow(rawURL, err.Error())
				}
				rows[i] = row

				// The store write stays under the lock so a slow write
				// carrying a smaller count cannot land after a larger one
				progressMu.Lock()
				processed++
				count := processed
				if err := r.jobStore.UpdateJob(jobID, store.JobUpdate{ProcessedURLs: &count}); err != nil {
					slog.Warn("Failed to update job progress", "job_id", jobID, "error", err)
				}
				progressMu.Unlock()

				if r.progress != nil {
					r.progress(jobID, count, len(urls))
				}
			}(i, urls[i])
		}
		wg.Wait()
	}

	// A cancellation can mark the job failed while a batch is in
	// flight; finalizing anyway would flip it back to completed and
	// re-create the output file the cancellation removed
	current, err := r.jobStore.GetJob(jobID)
	if err != nil {
		return fmt.Errorf("failed to re-read job: %w", err)
	}
	if current == nil || current.Status == store.StatusFailed {
		slog.Info("Job cancelled during processing, skipping finalization", "job_id", jobID)
		return nil
	}

	outputPath := filepath.Join(r.resultsDir, job.ID+".csv")
	if err := WriteResults(outputPath, rows); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}

	now := time.Now().UTC()
	completed := store.StatusCompleted
	err = r.jobStore.UpdateJob(jobID, store.JobUpdate{
		Status:      &completed,
		CompletedAt: &now,
		OutputPath:  &outputPath,
	})
	if err != nil {
		return fmt.Errorf("failed to mark job as completed: %w", err)
	}

	return nil
}
