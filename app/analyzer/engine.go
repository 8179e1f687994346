package analyzer

import (
	"bytes"
	"cmp"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// Scoring rubric deductions. Score starts at 100 and is floored at 0.
const (
	deductionTitleMissing       = 25
	deductionTitleLength        = 10
	deductionDescriptionMissing = 20
	deductionDescriptionLength  = 10
	deductionTagMissing         = 5

	titleMinLength       = 30
	titleMaxLength       = 60
	descriptionMinLength = 120
	descriptionMaxLength = 160
)

const missingContent = "Not found"

var (
	scriptRe = regexp.MustCompile(`(?is)<script.*?</script>`)
	markupRe = regexp.MustCompile(`<[^>]*>`)
)

// Sanitize strips script blocks first, then any remaining markup,
// then trims surrounding whitespace.
func Sanitize(s string) string {
	s = scriptRe.ReplaceAllString(s, "")
	s = markupRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// Run parses the page and produces the ordered tag evaluations, the score
// breakdown, and the final score. Pure given its input; performs no I/O.
func (e *Engine) Run(data []byte, pageURL string) (*Result, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	pageTags := extractTags(doc)
	tags, breakdown, score := evaluate(pageTags)

	return &Result{
		URL:        pageURL,
		Score:      score,
		Tags:       tags,
		Breakdown:  breakdown,
		PageTags:   pageTags,
		Previews:   buildPreviews(pageTags, pageURL),
		AnalyzedAt: time.Now().UTC(),
	}, nil
}

func extractTags(doc *goquery.Document) PageTags {
	return PageTags{
		Title:              Sanitize(doc.Find("title").First().Text()),
		MetaDescription:    metaContent(doc, `meta[name="description"]`),
		Robots:             metaContent(doc, `meta[name="robots"]`),
		OGTitle:            metaContent(doc, `meta[property="og:title"]`),
		OGDescription:      metaContent(doc, `meta[property="og:description"]`),
		OGImage:            metaContent(doc, `meta[property="og:image"]`),
		TwitterCard:        twitterContent(doc, "twitter:card"),
		TwitterTitle:       twitterContent(doc, "twitter:title"),
		TwitterDescription: twitterContent(doc, "twitter:description"),
		TwitterImage:       twitterContent(doc, "twitter:image"),
		H1:                 Sanitize(doc.Find("h1").First().Text()),
		Canonical:          strings.TrimSpace(doc.Find(`link[rel="canonical"]`).First().AttrOr("href", "")),
	}
}

func metaContent(doc *goquery.Document, selector string) string {
	content := doc.Find(selector).First().AttrOr("content", "")
	return Sanitize(content)
}

// twitterContent accepts both name= and property= attributes; real pages mix them.
func twitterContent(doc *goquery.Document, name string) string {
	content := doc.Find(fmt.Sprintf(`meta[name="%s"]`, name)).First().AttrOr("content", "")
	if content == "" {
		content = doc.Find(fmt.Sprintf(`meta[property="%s"]`, name)).First().AttrOr("content", "")
	}
	return Sanitize(content)
}

func evaluate(pageTags PageTags) ([]SeoTag, []BreakdownEntry, int) {
	var tags []SeoTag
	var breakdown []BreakdownEntry
	deductions := 0

	record := func(tag SeoTag, issue string) {
		if tag.Content == "" {
			tag.Content = missingContent
		}
		tags = append(tags, tag)
		if tag.Status != TagGood {
			breakdown = append(breakdown, BreakdownEntry{
				Tag:       tag.Name,
				Issue:     issue,
				Deduction: tag.Deduction,
			})
			deductions += tag.Deduction
		}
	}

	titleLen := utf8.RuneCountInString(pageTags.Title)
	switch {
	case pageTags.Title == "":
		record(SeoTag{
			Name:      "title",
			Status:    TagMissing,
			Feedback:  "Missing title tag",
			Deduction: deductionTitleMissing,
		}, "Missing title tag")
	case titleLen < titleMinLength || titleLen > titleMaxLength:
		record(SeoTag{
			Name:      "title",
			Content:   pageTags.Title,
			Status:    TagWarning,
			Feedback:  fmt.Sprintf("Title is %d characters, recommended range is %d-%d", titleLen, titleMinLength, titleMaxLength),
			Deduction: deductionTitleLength,
		}, "Title length not optimal")
	default:
		record(SeoTag{
			Name:     "title",
			Content:  pageTags.Title,
			Status:   TagGood,
			Feedback: fmt.Sprintf("Title length is optimal (%d-%d characters)", titleMinLength, titleMaxLength),
		}, "")
	}

	descLen := utf8.RuneCountInString(pageTags.MetaDescription)
	switch {
	case pageTags.MetaDescription == "":
		record(SeoTag{
			Name:      "meta description",
			Status:    TagMissing,
			Feedback:  "Missing meta description",
			Deduction: deductionDescriptionMissing,
		}, "Missing meta description")
	case descLen < descriptionMinLength || descLen > descriptionMaxLength:
		record(SeoTag{
			Name:      "meta description",
			Content:   pageTags.MetaDescription,
			Status:    TagWarning,
			Feedback:  fmt.Sprintf("Meta description is %d characters, recommended range is %d-%d", descLen, descriptionMinLength, descriptionMaxLength),
			Deduction: deductionDescriptionLength,
		}, "Meta description length not optimal")
	default:
		record(SeoTag{
			Name:     "meta description",
			Content:  pageTags.MetaDescription,
			Status:   TagGood,
			Feedback: fmt.Sprintf("Meta description length is optimal (%d-%d characters)", descriptionMinLength, descriptionMaxLength),
		}, "")
	}

	presenceChecks := []struct {
		name    string
		content string
	}{
		{"meta robots", pageTags.Robots},
		{"og:title", pageTags.OGTitle},
		{"og:description", pageTags.OGDescription},
		{"og:image", pageTags.OGImage},
		{"twitter:card", pageTags.TwitterCard},
		{"twitter:title", pageTags.TwitterTitle},
		{"twitter:description", pageTags.TwitterDescription},
		{"twitter:image", pageTags.TwitterImage},
	}

	for _, check := range presenceChecks {
		if check.content == "" {
			record(SeoTag{
				Name:      check.name,
				Status:    TagMissing,
				Feedback:  fmt.Sprintf("Missing %s tag", check.name),
				Deduction: deductionTagMissing,
			}, fmt.Sprintf("Missing %s tag", check.name))
		} else {
			record(SeoTag{
				Name:     check.name,
				Content:  check.content,
				Status:   TagGood,
				Feedback: fmt.Sprintf("%s tag is present", check.name),
			}, "")
		}
	}

	score := 100 - deductions
	if score < 0 {
		score = 0
	}

	return tags, breakdown, score
}

func buildPreviews(pageTags PageTags, pageURL string) Previews {
	domain := pageURL
	if parsed, err := url.Parse(pageURL); err == nil && parsed.Host != "" {
		domain = parsed.Host
	}

	title := cmp.Or(pageTags.Title, pageURL)
	ogTitle := cmp.Or(pageTags.OGTitle, title)
	ogDescription := cmp.Or(pageTags.OGDescription, pageTags.MetaDescription)

	social := SocialPreview{
		Title:       ogTitle,
		Description: ogDescription,
		Image:       pageTags.OGImage,
		Domain:      domain,
	}

	return Previews{
		Google: GooglePreview{
			Title:       title,
			URL:         pageURL,
			Description: pageTags.MetaDescription,
		},
		Facebook: social,
		LinkedIn: social,
		Twitter: TwitterPreview{
			Card:        cmp.Or(pageTags.TwitterCard, "summary"),
			Title:       cmp.Or(pageTags.TwitterTitle, ogTitle),
			Description: cmp.Or(pageTags.TwitterDescription, ogDescription),
			Image:       cmp.Or(pageTags.TwitterImage, pageTags.OGImage),
			Domain:      domain,
		},
	}
}
