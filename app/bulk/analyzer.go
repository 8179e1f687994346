package bulk

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ritz123/SeoWatch/app/analyzer"
	"github.com/ritz123/SeoWatch/app/fetch"
	"github.com/ritz123/SeoWatch/app/metrics"
	"github.com/ritz123/SeoWatch/app/store"
)

// URLAnalyzer analyzes one URL for a job: fetch, score, persist the
// outcome, and flatten into the bulk-row shape.
type URLAnalyzer struct {
	fetcher  *fetch.Client
	engine   *analyzer.Engine
	jobStore store.JobStore
	timeout  time.Duration
}

func NewURLAnalyzer(fetcher *fetch.Client, engine *analyzer.Engine, jobStore store.JobStore, timeout time.Duration) *URLAnalyzer {
	return &URLAnalyzer{
		fetcher:  fetcher,
		engine:   engine,
		jobStore: jobStore,
		timeout:  timeout,
	}
}

// Run produces a BulkRow for rawURL or fails. The fetch+score path
// races a fixed per-URL timer; expiry is indistinguishable downstream
// from a fetch failure. Both outcomes persist a URLResult under the
// job id; the caller converts failures into placeholder rows.
func (a *URLAnalyzer) Run(ctx context.Context, jobID, rawURL string) (*BulkRow, error) {
	pageURL := fetch.NormalizeURL(rawURL)

	fetchCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	row, err := a.analyze(fetchCtx, jobID, pageURL)
	if err != nil {
		metrics.URLFailed()
		failure := store.URLResult{
			JobID:        jobID,
			URL:          pageURL,
			ErrorMessage: err.Error(),
		}
		if _, storeErr := a.jobStore.CreateURLResult(failure); storeErr != nil {
			slog.Error("Failed to store URL failure", "job_id", jobID, "url", pageURL, "error", storeErr)
		}
		return nil, err
	}

	metrics.URLAnalyzed()
	return row, nil
}

func (a *URLAnalyzer) analyze(ctx context.Context, jobID, pageURL string) (*BulkRow, error) {
	data, err := a.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	result, err := a.engine.Run(data, pageURL)
	if err != nil {
		return nil, err
	}

	success := store.URLResult{
		JobID:    jobID,
		URL:      pageURL,
		Analysis: result,
	}
	if _, err := a.jobStore.CreateURLResult(success); err != nil {
		return nil, fmt.Errorf("failed to store analysis result: %w", err)
	}

	return rowFromResult(result)
}
