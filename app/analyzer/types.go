package analyzer

import (
	"time"
)

// Tag evaluation status values

type TagStatus string

const (
	TagGood    TagStatus = "good"
	TagWarning TagStatus = "warning"
	TagMissing TagStatus = "missing"
	TagError   TagStatus = "error"
)

// SeoTag is the evaluation of a single meta tag against the scoring rubric.
type SeoTag struct {
	Name      string    `json:"name"`
	Content   string    `json:"content"`
	Status    TagStatus `json:"status"`
	Feedback  string    `json:"feedback"`
	Deduction int       `json:"deduction"`
}

// BreakdownEntry records one point deduction applied to the final score.
type BreakdownEntry struct {
	Tag       string `json:"tag"`
	Issue     string `json:"issue"`
	Deduction int    `json:"deduction"`
}

// PageTags holds the raw tag content extracted from a page, sanitized.
type PageTags struct {
	Title              string `json:"title"`
	MetaDescription    string `json:"meta_description"`
	Robots             string `json:"robots"`
	OGTitle            string `json:"og_title"`
	OGDescription      string `json:"og_description"`
	OGImage            string `json:"og_image"`
	TwitterCard        string `json:"twitter_card"`
	TwitterTitle       string `json:"twitter_title"`
	TwitterDescription string `json:"twitter_description"`
	TwitterImage       string `json:"twitter_image"`
	H1                 string `json:"h1"`
	Canonical          string `json:"canonical"`
}

// Social preview payloads rendered from the extracted tags

type GooglePreview struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

type SocialPreview struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Image       string `json:"image"`
	Domain      string `json:"domain"`
}

type TwitterPreview struct {
	Card        string `json:"card"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Image       string `json:"image"`
	Domain      string `json:"domain"`
}

type Previews struct {
	Google   GooglePreview  `json:"google"`
	Facebook SocialPreview  `json:"facebook"`
	Twitter  TwitterPreview `json:"twitter"`
	LinkedIn SocialPreview  `json:"linkedin"`
}

// Result is the full analysis of one page.
type Result struct {
	URL        string           `json:"url"`
	Score      int              `json:"score"`
	Tags       []SeoTag         `json:"tags"`
	Breakdown  []BreakdownEntry `json:"breakdown"`
	PageTags   PageTags         `json:"page_tags"`
	Previews   Previews         `json:"previews"`
	AnalyzedAt time.Time        `json:"analyzed_at"`
}
