package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/ritz123/SeoWatch/app/analyzer"
)

var _ JobStore = (*SQLiteStore)(nil)

// SQLiteStore persists jobs and results in a local SQLite database,
// so completed jobs survive process restarts. The active-processing
// guard does not: a restart leaves in-flight jobs stuck in processing.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite handles one writer at a time
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := RunMigrations(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateJob(sessionKey, filename string) (*Job, error) {
	job := &Job{
		ID:         uuid.NewString(),
		SessionKey: sessionKey,
		Filename:   filename,
		Status:     StatusPending,
		CreatedAt:  time.Now().UTC(),
	}

	_, err := s.db.Exec(`
		INSERT INTO jobs (id, session_key, filename, status, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, job.ID, job.SessionKey, job.Filename, string(job.Status), job.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert job: %w", err)
	}

	return job, nil
}

func (s *SQLiteStore) GetJob(jobID string) (*Job, error) {
	job, err := s.scanJob(s.db.QueryRow(`
		SELECT id, session_key, filename, upload_path, output_path,
		       total_urls, processed_urls, status, created_at, completed_at
		FROM jobs
		WHERE id = ?
	`, jobID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	return job, nil
}

func (s *SQLiteStore) UpdateJob(jobID string, update JobUpdate) error {
	var sets []string
	var args []interface{}

	if update.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, string(*update.Status))
	}
	if update.TotalURLs != nil {
		sets = append(sets, "total_urls = ?")
		args = append(args, *update.TotalURLs)
	}
	if update.ProcessedURLs != nil {
		sets = append(sets, "processed_urls = ?")
		args = append(args, *update.ProcessedURLs)
	}
	if update.UploadPath != nil {
		sets = append(sets, "upload_path = ?")
		args = append(args, *update.UploadPath)
	}
	if update.OutputPath != nil {
		sets = append(sets, "output_path = ?")
		args = append(args, *update.OutputPath)
	}
	if update.CompletedAt != nil {
		sets = append(sets, "completed_at = ?")
		args = append(args, *update.CompletedAt)
	}

	if len(sets) == 0 {
		return nil
	}

	args = append(args, jobID)
	result, err := s.db.Exec(fmt.Sprintf("UPDATE jobs SET %s WHERE id = ?", strings.Join(sets, ", ")), args...)
	if err != nil {
		return fmt.Errorf("failed to update job: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("job %s not found", jobID)
	}

	return nil
}

func (s *SQLiteStore) ListJobs(sessionKey string) ([]Job, error) {
	rows, err := s.db.Query(`
		SELECT id, session_key, filename, upload_path, output_path,
		       total_urls, processed_urls, status, created_at, completed_at
		FROM jobs
		WHERE session_key = ?
		ORDER BY created_at DESC
	`, sessionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	jobs := make([]Job, 0)
	for rows.Next() {
		job, err := s.scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job row: %w", err)
		}
		jobs = append(jobs, *job)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating job rows: %w", err)
	}

	return jobs, nil
}

func (s *SQLiteStore) DeleteJob(jobID string) error {
	if _, err := s.db.Exec("DELETE FROM url_results WHERE job_id = ?", jobID); err != nil {
		return fmt.Errorf("failed to delete job results: %w", err)
	}

	result, err := s.db.Exec("DELETE FROM jobs WHERE id = ?", jobID)
	if err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("job %s not found", jobID)
	}

	return nil
}

func (s *SQLiteStore) CountJobs() (int, error) {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM jobs").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count jobs: %w", err)
	}
	return count, nil
}

func (s *SQLiteStore) CreateURLResult(result URLResult) (*URLResult, error) {
	result.ID = uuid.NewString()
	result.ProcessedAt = time.Now().UTC()

	var analysisJSON sql.NullString
	if result.Analysis != nil {
		data, err := json.Marshal(result.Analysis)
		if err != nil {
			return nil, fmt.Errorf("failed to serialize analysis: %w", err)
		}
		analysisJSON = sql.NullString{String: string(data), Valid: true}
	}

	_, err := s.db.Exec(`
		INSERT INTO url_results (id, job_id, url, analysis, error_message, processed_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, result.ID, result.JobID, result.URL, analysisJSON, result.ErrorMessage, result.ProcessedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert URL result: %w", err)
	}

	return &result, nil
}

func (s *SQLiteStore) ListURLResults(jobID string) ([]URLResult, error) {
	rows, err := s.db.Query(`
		SELECT id, job_id, url, analysis, error_message, processed_at
		FROM url_results
		WHERE job_id = ?
	`, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to list URL results: %w", err)
	}
	defer rows.Close()

	results := make([]URLResult, 0)
	for rows.Next() {
		var result URLResult
		var analysisJSON sql.NullString

		err := rows.Scan(&result.ID, &result.JobID, &result.URL, &analysisJSON, &result.ErrorMessage, &result.ProcessedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan URL result row: %w", err)
		}

		if analysisJSON.Valid {
			var analysis analyzer.Result
			if err := json.Unmarshal([]byte(analysisJSON.String), &analysis); err != nil {
				return nil, fmt.Errorf("failed to deserialize analysis: %w", err)
			}
			result.Analysis = &analysis
		}

		results = append(results, result)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating URL result rows: %w", err)
	}

	return results, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (s *SQLiteStore) scanJob(row rowScanner) (*Job, error) {
	var job Job
	var status string
	var completedAt sql.NullTime

	err := row.Scan(
		&job.ID, &job.SessionKey, &job.Filename, &job.UploadPath, &job.OutputPath,
		&job.TotalURLs, &job.ProcessedURLs, &status, &job.CreatedAt, &completedAt,
	)
	if err != nil {
		return nil, err
	}

	job.Status = JobStatus(status)
	if completedAt.Valid {
		job.CompletedAt = &completedAt.Time
	}

	return &job, nil
}
