package bulk

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ritz123/SeoWatch/app/fetch"
)

const (
	// MaxUploadSize is the upload ceiling in bytes (10 MB).
	MaxUploadSize = 10 << 20
	// MaxURLs is the upper bound on URLs extracted from one upload.
	MaxURLs = 1000
)

// urlHeaderNames is the prioritized list of column headers searched
// for a URL value before falling back to the heuristic field scan.
var urlHeaderNames = []string{"url", "URL", "website", "link", "domain", "site"}

// ExtractURLs reads a CSV with a header row and returns the candidate
// URLs in row order. Rows yielding no candidate are silently skipped;
// candidates without a scheme get an https:// prefix.
func ExtractURLs(r io.Reader) ([]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	headerIndex := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if _, ok := headerIndex[name]; !ok {
			headerIndex[name] = i
		}
	}

	var urls []string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row: %w", err)
		}

		candidate := candidateFromRecord(record, headerIndex)
		if candidate == "" {
			continue
		}

		urls = append(urls, fetch.NormalizeURL(candidate))
	}

	return urls, nil
}

func candidateFromRecord(record []string, headerIndex map[string]int) string {
	for _, name := range urlHeaderNames {
		idx, ok := headerIndex[name]
		if !ok || idx >= len(record) {
			continue
		}
		if value := strings.TrimSpace(record[idx]); value != "" {
			return value
		}
	}

	// Best-effort fallback: first field that looks like it could hold a URL
	for _, field := range record {
		value := strings.TrimSpace(field)
		if value == "" {
			continue
		}
		if strings.Contains(value, "http") || strings.Contains(value, "www.") || strings.Contains(value, ".") {
			return value
		}
	}

	return ""
}

// Validation is the verdict on an uploaded CSV file.
type Validation struct {
	Valid    bool
	Reason   string
	URLCount int
}

// ValidateFile enforces the size ceiling and the extracted-URL-count
// bounds on an uploaded CSV. Parse and bound failures come back as an
// invalid verdict; only I/O problems are returned as errors.
func ValidateFile(path string) (*Validation, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat upload: %w", err)
	}

	if info.Size() > MaxUploadSize {
		return &Validation{Reason: "File too large. Maximum size is 10MB."}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	urls, err := ExtractURLs(f)
	if err != nil {
		return &Validation{Reason: "Failed to parse CSV file. Please check the file format."}, nil
	}

	if len(urls) == 0 {
		return &Validation{Reason: "No valid URLs found in CSV file. Please ensure your CSV contains a column with URLs."}, nil
	}

	if len(urls) > MaxURLs {
		return &Validation{Reason: fmt.Sprintf("Too many URLs (%d). Maximum allowed is %d URLs per upload.", len(urls), MaxURLs)}, nil
	}

	return &Validation{Valid: true, URLCount: len(urls)}, nil
}
