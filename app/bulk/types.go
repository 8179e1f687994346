package bulk

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ritz123/SeoWatch/app/analyzer"
)

// BulkRow is the flattened, CSV-ready projection of one analyzed URL.
// Derived from the stored analysis, not separately persisted.
type BulkRow struct {
	URL                   string
	Score                 int
	Title                 string
	TitleLength           int
	MetaDescription       string
	MetaDescriptionLength int
	H1                    string
	OGTitle               string
	OGDescription         string
	OGImage               string
	TwitterTitle          string
	TwitterDescription    string
	TwitterCard           string
	Robots                string
	CanonicalURL          string
	AnalyzedAt            string
	BreakdownSummary      string
	BreakdownDetails      string
	ErrorMessage          string
}

// rowFromResult flattens a full analysis into the bulk-row shape.
func rowFromResult(result *analyzer.Result) (*BulkRow, error) {
	breakdown := result.Breakdown
	if breakdown == nil {
		breakdown = []analyzer.BreakdownEntry{}
	}

	details, err := json.Marshal(breakdown)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize breakdown: %w", err)
	}

	pageTags := result.PageTags

	return &BulkRow{
		URL:                   result.URL,
		Score:                 result.Score,
		Title:                 pageTags.Title,
		TitleLength:           utf8.RuneCountInString(pageTags.Title),
		MetaDescription:       pageTags.MetaDescription,
		MetaDescriptionLength: utf8.RuneCountInString(pageTags.MetaDescription),
		H1:                    pageTags.H1,
		OGTitle:               pageTags.OGTitle,
		OGDescription:         pageTags.OGDescription,
		OGImage:               pageTags.OGImage,
		TwitterTitle:          pageTags.TwitterTitle,
		TwitterDescription:    pageTags.TwitterDescription,
		TwitterCard:           pageTags.TwitterCard,
		Robots:                pageTags.Robots,
		CanonicalURL:          pageTags.Canonical,
		AnalyzedAt:            result.AnalyzedAt.Format(time.RFC3339),
		BreakdownSummary:      SummarizeBreakdown(breakdown),
		BreakdownDetails:      string(details),
	}, nil
}

// PlaceholderRow stands in for a URL whose analysis failed, so every
// input URL yields exactly one output row.
func PlaceholderRow(rawURL, errorMessage string) *BulkRow {
	return &BulkRow{
		URL:          rawURL,
		ErrorMessage: errorMessage,
	}
}

// SummarizeBreakdown renders the issue list as a semicolon-joined
// human-readable summary.
func SummarizeBreakdown(breakdown []analyzer.BreakdownEntry) string {
	if len(breakdown) == 0 {
		return noIssuesSummary
	}

	parts := make([]string, 0, len(breakdown))
	for _, entry := range breakdown {
		parts = append(parts, fmt.Sprintf("%s: %s (-%dpts)", entry.Tag, entry.Issue, entry.Deduction))
	}

	return strings.Join(parts, "; ")
}
