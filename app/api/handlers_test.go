package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ritz123/SeoWatch/app/analyzer"
	"github.com/ritz123/SeoWatch/app/bulk"
	"github.com/ritz123/SeoWatch/app/cfg"
	"github.com/ritz123/SeoWatch/app/fetch"
	"github.com/ritz123/SeoWatch/app/store"
)

func loadTestConfig(t *testing.T) {
	t.Helper()
	origArgs := os.Args
	os.Args = []string{"test"}
	defer func() { os.Args = origArgs }()

	if _, err := cfg.Load(); err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
}

type testEnv struct {
	router     *gin.Engine
	jobStore   store.JobStore
	pageServer *httptest.Server
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	loadTestConfig(t)

	pageServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, "<html><head><title>Test Page For Handler Coverage Here</title></head><body><h1>Heading</h1></body></html>")
	}))
	t.Cleanup(pageServer.Close)

	jobStore := store.NewMemoryStore()
	fetcher := fetch.NewClient("SeoWatch-test/1.0")
	engine := analyzer.NewEngine()
	urlAnalyzer := bulk.NewURLAnalyzer(fetcher, engine, jobStore, 5*time.Second)
	runner := bulk.NewRunner(jobStore, urlAnalyzer, t.TempDir(), 2, nil)

	handler := NewHandler(jobStore, runner, fetcher, engine, t.TempDir(), 5*time.Second)

	return &testEnv{
		router:     NewServer(handler),
		jobStore:   jobStore,
		pageServer: pageServer,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	req.RemoteAddr = "198.51.100.7:40000"
	req.Header.Set("User-Agent", "handler-test-agent")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func csvUpload(t *testing.T, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("Failed to create form file: %v", err)
	}
	part.Write([]byte(content))
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("Failed to decode response %q: %v", w.Body.String(), err)
	}
}

func TestUploadBulkNoFile(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, "POST", "/api/bulk/upload", nil, "multipart/form-data")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", w.Code)
	}

	var resp map[string]string
	decodeJSON(t, w, &resp)
	if resp["error"] != "No file uploaded" {
		t.Errorf("Unexpected error message: %q", resp["error"])
	}
}

func TestUploadBulkInvalidFileType(t *testing.T) {
	env := newTestEnv(t)

	body, contentType := csvUpload(t, "urls.txt", "url\nhttps://example.com\n")
	w := env.do(t, "POST", "/api/bulk/upload", body, contentType)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", w.Code)
	}

	var resp map[string]string
	decodeJSON(t, w, &resp)
	if !strings.Contains(resp["error"], "Invalid file type") {
		t.Errorf("Unexpected error message: %q", resp["error"])
	}
}

func TestUploadBulkNoURLsDiscardsJob(t *testing.T) {
	env := newTestEnv(t)

	body, contentType := csvUpload(t, "people.csv", "name,role\njohn,engineer\n")
	w := env.do(t, "POST", "/api/bulk/upload", body, contentType)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", w.Code)
	}

	var resp map[string]string
	decodeJSON(t, w, &resp)
	if !strings.Contains(resp["error"], "No valid URLs found") {
		t.Errorf("Unexpected error message: %q", resp["error"])
	}

	// Rejected uploads must not leave job records behind
	count, err := env.jobStore.CountJobs()
	if err != nil {
		t.Fatalf("CountJobs failed: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected 0 jobs after rejected upload, got %d", count)
	}
}

func TestBulkWorkflow(t *testing.T) {
	env := newTestEnv(t)

	content := fmt.Sprintf("url\n%s/a\n%s/b\n%s/missing\n",
		env.pageServer.URL, env.pageServer.URL, env.pageServer.URL)
	body, contentType := csvUpload(t, "sites.csv", content)

	w := env.do(t, "POST", "/api/bulk/upload", body, contentType)
	if w.Code != http.StatusOK {
		t.Fatalf("Upload failed with %d: %s", w.Code, w.Body.String())
	}

	var upload UploadResponse
	decodeJSON(t, w, &upload)
	if upload.JobID == "" {
		t.Fatal("Upload response missing job id")
	}
	if upload.TotalURLs != 3 {
		t.Errorf("Expected 3 total URLs, got %d", upload.TotalURLs)
	}
	if upload.EstimatedCompletionTime == "" {
		t.Error("Upload response missing completion estimate")
	}

	// Poll until the background runner finishes
	var status StatusResponse
	deadline := time.Now().Add(10 * time.Second)
	for {
		w = env.do(t, "GET", "/api/bulk/status/"+upload.JobID, nil, "")
		if w.Code != http.StatusOK {
			t.Fatalf("Status request failed with %d", w.Code)
		}
		status = StatusResponse{}
		decodeJSON(t, w, &status)
		if status.Status == string(store.StatusCompleted) || status.Status == string(store.StatusFailed) {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("Job did not finish in time, last status %q", status.Status)
		}
		time.Sleep(20 * time.Millisecond)
	}

	if status.Status != string(store.StatusCompleted) {
		t.Fatalf("Expected completed job, got %q", status.Status)
	}
	if status.Progress.Processed != 3 || status.Progress.Percentage != 100 {
		t.Errorf("Unexpected final progress: %+v", status.Progress)
	}
	if status.EstimatedTimeRemaining != "" {
		t.Errorf("Finished job should not estimate remaining time, got %q", status.EstimatedTimeRemaining)
	}

	w = env.do(t, "GET", "/api/bulk/download/"+upload.JobID, nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("Download failed with %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Header().Get("Content-Disposition"), "seo_analysis_sites.csv") {
		t.Errorf("Unexpected Content-Disposition: %q", w.Header().Get("Content-Disposition"))
	}
	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	if len(lines) != 4 {
		t.Errorf("Expected header + 3 result rows, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "URL,SEO_Score,Title_Tag") {
		t.Errorf("Unexpected CSV header: %q", lines[0])
	}

	w = env.do(t, "GET", "/api/bulk/jobs", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("List jobs failed with %d", w.Code)
	}
	var list struct {
		Jobs []map[string]any `json:"jobs"`
	}
	decodeJSON(t, w, &list)
	if len(list.Jobs) != 1 {
		t.Fatalf("Expected 1 job in list, got %d", len(list.Jobs))
	}
	if list.Jobs[0]["jobId"] != upload.JobID {
		t.Errorf("Job list returned wrong id: %v", list.Jobs[0]["jobId"])
	}
	if list.Jobs[0]["completedAt"] == nil {
		t.Error("Completed job should expose its completion time")
	}
}

func TestGetJobStatusNotFound(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, "GET", "/api/bulk/status/no-such-job", nil, "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d", w.Code)
	}
}

func TestDownloadNotCompleted(t *testing.T) {
	env := newTestEnv(t)

	job, _ := env.jobStore.CreateJob("198.51.100.7|handler-test-agent", "pending.csv")

	w := env.do(t, "GET", "/api/bulk/download/"+job.ID, nil, "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for pending job, got %d", w.Code)
	}

	var resp map[string]string
	decodeJSON(t, w, &resp)
	if resp["error"] != "Job is not completed yet" {
		t.Errorf("Unexpected error message: %q", resp["error"])
	}
}

func TestDeleteJobOwnership(t *testing.T) {
	env := newTestEnv(t)

	// Belongs to a different client
	other, _ := env.jobStore.CreateJob("203.0.113.9|someone-else", "theirs.csv")

	w := env.do(t, "DELETE", "/api/bulk/jobs/"+other.ID, nil, "")
	if w.Code != http.StatusForbidden {
		t.Fatalf("Expected 403 for foreign job, got %d", w.Code)
	}

	w = env.do(t, "DELETE", "/api/bulk/jobs/no-such-job", nil, "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("Expected 404 for unknown job, got %d", w.Code)
	}
}

func TestDeleteJobCancelsAndRemovesFiles(t *testing.T) {
	env := newTestEnv(t)

	job, _ := env.jobStore.CreateJob("198.51.100.7|handler-test-agent", "mine.csv")

	uploadFile, err := os.CreateTemp(t.TempDir(), "upload-*.csv")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	uploadFile.Close()
	uploadPath := uploadFile.Name()
	total := 5
	env.jobStore.UpdateJob(job.ID, store.JobUpdate{TotalURLs: &total, UploadPath: &uploadPath})

	w := env.do(t, "DELETE", "/api/bulk/jobs/"+job.ID, nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	if _, err := os.Stat(uploadPath); !os.IsNotExist(err) {
		t.Error("Upload file should be removed")
	}

	// Record survives so status polling still answers
	final, _ := env.jobStore.GetJob(job.ID)
	if final == nil {
		t.Fatal("Job record should survive cancellation")
	}
	if final.Status != store.StatusFailed {
		t.Errorf("Cancelled pending job should be marked failed, got %s", final.Status)
	}
}

func TestAnalyzeURL(t *testing.T) {
	env := newTestEnv(t)

	body := bytes.NewBufferString(fmt.Sprintf(`{"url": %q}`, env.pageServer.URL+"/page"))
	w := env.do(t, "POST", "/api/analyze", body, "application/json")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var result analyzer.Result
	decodeJSON(t, w, &result)
	if result.URL != env.pageServer.URL+"/page" {
		t.Errorf("Unexpected result URL: %q", result.URL)
	}
	if result.Score < 0 || result.Score > 100 {
		t.Errorf("Score out of range: %d", result.Score)
	}
	if len(result.Tags) == 0 {
		t.Error("Result should include tag evaluations")
	}
}

func TestAnalyzeURLMissingBody(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, "POST", "/api/analyze", bytes.NewBufferString(`{}`), "application/json")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", w.Code)
	}
}

func TestAnalyzeURLFetchFailure(t *testing.T) {
	env := newTestEnv(t)

	body := bytes.NewBufferString(fmt.Sprintf(`{"url": %q}`, env.pageServer.URL+"/missing"))
	w := env.do(t, "POST", "/api/analyze", body, "application/json")
	if w.Code != http.StatusBadGateway {
		t.Fatalf("Expected 502, got %d: %s", w.Code, w.Body.String())
	}
}

func TestGetHealth(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, "GET", "/health", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var health map[string]any
	decodeJSON(t, w, &health)
	if health["version"] == "" {
		t.Error("Health response missing version")
	}
	if health["timestamp"] == nil {
		t.Error("Health response missing timestamp")
	}
	if _, ok := health["jobs"]; !ok {
		t.Error("Health response missing job count")
	}
}

func TestGetMetrics(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, "GET", "/metrics", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Header().Get("Content-Type"), "text/plain") {
		t.Errorf("Unexpected content type: %q", w.Header().Get("Content-Type"))
	}
	if !strings.Contains(w.Body.String(), "seowatch_up 1") {
		t.Errorf("Metrics output missing up gauge: %q", w.Body.String())
	}
}
