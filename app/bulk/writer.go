package bulk

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
)

const noIssuesSummary = "No issues found"

// resultHeader is the fixed 19-column result CSV header.
var resultHeader = []string{
	"URL",
	"SEO_Score",
	"Title_Tag",
	"Title_Length",
	"Meta_Description",
	"Meta_Description_Length",
	"H1_Tag",
	"OG_Title",
	"OG_Description",
	"OG_Image",
	"Twitter_Title",
	"Twitter_Description",
	"Twitter_Card",
	"Robots_Tag",
	"Canonical_URL",
	"Analysis_Date",
	"Score_Breakdown_Summary",
	"Breakdown_Details",
	"Error_Message",
}

// WriteResults serializes the ordered rows to a CSV at path. An empty
// row set still emits the header row alone.
func WriteResults(path string, rows []*BulkRow) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)

	if err := w.Write(resultHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, row := range rows {
		if err := w.Write(row.record()); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}

	return nil
}

func (r *BulkRow) record() []string {
	summary := r.BreakdownSummary
	if summary == "" && r.ErrorMessage == "" {
		summary = noIssuesSummary
	}

	// Breakdown_Details is never blank; an empty issue list is "[]"
	details := r.BreakdownDetails
	if details == "" {
		details = "[]"
	}

	return []string{
		r.URL,
		strconv.Itoa(r.Score),
		r.Title,
		strconv.Itoa(r.TitleLength),
		r.MetaDescription,
		strconv.Itoa(r.MetaDescriptionLength),
		r.H1,
		r.OGTitle,
		r.OGDescription,
		r.OGImage,
		r.TwitterTitle,
		r.TwitterDescription,
		r.TwitterCard,
		r.Robots,
		r.CanonicalURL,
		r.AnalyzedAt,
		summary,
		details,
		r.ErrorMessage,
	}
}
