package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// JobPosting is what could be read off a job posting page.
type JobPosting struct {
	Title       string
	Company     string
	Location    string
	Description string
	URL         string
}

// ldJobPosting is the schema.org JobPosting subset most boards embed.
type ldJobPosting struct {
	Type               any    `json:"@type"`
	Title              string `json:"title"`
	Description        string `json:"description"`
	HiringOrganization struct {
		Name string `json:"name"`
	} `json:"hiringOrganization"`
	JobLocation json.RawMessage `json:"jobLocation"`
}

type ldPlace struct {
	Address struct {
		Locality string `json:"addressLocality"`
		Region   string `json:"addressRegion"`
		Country  any    `json:"addressCountry"`
	} `json:"address"`
}

var (
	spaceRe     = regexp.MustCompile(`[ \t]+`)
	newlineRe   = regexp.MustCompile(`\n+`)
	blankLineRe = regexp.MustCompile(`\n{3,}`)
)

// FetchJobPage downloads a posting page and extracts the job from its
// JSON-LD block, falling back to meta tags and the visible article text.
func (f *Fetcher) FetchJobPage(ctx context.Context, pageURL string) (*JobPosting, error) {
	u, err := url.Parse(pageURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("invalid url: %s", pageURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := f.pages.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, u.Host)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, 5<<20))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	posting := ParseJobDocument(doc)
	posting.URL = pageURL
	if posting.Title == "" {
		return nil, fmt.Errorf("no job title found on %s", u.Host)
	}
	if posting.Company == "" {
		posting.Company = strings.TrimPrefix(u.Hostname(), "www.")
	}
	return posting, nil
}

// ParseJobDocument extracts a posting from an already parsed page.
func ParseJobDocument(doc *goquery.Document) *JobPosting {
	posting := &JobPosting{}

	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(i int, s *goquery.Selection) bool {
		ld, ok := decodeJobPosting(s.Text())
		if !ok {
			return true
		}
		posting.Title = strings.TrimSpace(ld.Title)
		posting.Company = strings.TrimSpace(ld.HiringOrganization.Name)
		posting.Location = ldLocation(ld.JobLocation)
		if ld.Description != "" {
			posting.Description = htmlToText(ld.Description)
		}
		return false
	})

	if posting.Title == "" {
		posting.Title = metaContent(doc, "og:title")
	}
	if posting.Title == "" {
		posting.Title = strings.TrimSpace(doc.Find("h1").First().Text())
	}
	if posting.Company == "" {
		posting.Company = metaContent(doc, "og:site_name")
	}
	if posting.Description == "" {
		posting.Description = articleText(doc)
	}
	if posting.Description == "" {
		posting.Description = metaContent(doc, "og:description")
	}
	return posting
}

func decodeJobPosting(raw string) (*ldJobPosting, bool) {
	raw = strings.TrimSpace(raw)
	var candidates []ldJobPosting
	if strings.HasPrefix(raw, "[") {
		if err := json.Unmarshal([]byte(raw), &candidates); err != nil {
			return nil, false
		}
	} else {
		var one ldJobPosting
		if err := json.Unmarshal([]byte(raw), &one); err != nil {
			return nil, false
		}
		candidates = append(candidates, one)
	}
	for i := range candidates {
		if isJobPostingType(candidates[i].Type) {
			return &candidates[i], true
		}
	}
	return nil, false
}

func isJobPostingType(t any) bool {
	switch v := t.(type) {
	case string:
		return v == "JobPosting"
	case []any:
		for _, e := range v {
			if s, ok := e.(string); ok && s == "JobPosting" {
				return true
			}
		}
	}
	return false
}

func ldLocation(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var places []ldPlace
	if err := json.Unmarshal(raw, &places); err != nil {
		var one ldPlace
		if err := json.Unmarshal(raw, &one); err != nil {
			return ""
		}
		places = []ldPlace{one}
	}
	if len(places) == 0 {
		return ""
	}
	addr := places[0].Address
	parts := []string{}
	for _, p := range []string{addr.Locality, addr.Region} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if c, ok := addr.Country.(string); ok && strings.TrimSpace(c) != "" {
		parts = append(parts, strings.TrimSpace(c))
	}
	return strings.Join(parts, ", ")
}

func metaContent(doc *goquery.Document, property string) string {
	sel := doc.Find(fmt.Sprintf(`meta[property="%s"], meta[name="%s"]`, property, property)).First()
	v, _ := sel.Attr("content")
	return strings.TrimSpace(v)
}

func articleText(doc *goquery.Document) string {
	body := doc.Find("article, main, div.job-description, div.description").First()
	if body.Length() == 0 {
		return ""
	}
	body.Find("script, style, nav, header, footer, form").Remove()

	var parts []string
	body.Find("p, h2, h3, h4, li").Each(func(i int, s *goquery.Selection) {
		if text := cleanText(s.Text()); text != "" {
			parts = append(parts, text)
		}
	})
	return cleanFinalContent(strings.Join(parts, "\n\n"))
}

// htmlToText flattens the HTML fragments boards put in JSON-LD descriptions.
func htmlToText(fragment string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<div>" + fragment + "</div>"))
	if err != nil {
		return cleanFinalContent(fragment)
	}
	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find("p, li, h2, h3, h4").Each(func(i int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})
	return cleanFinalContent(cleanText(doc.Text()))
}

// cleanText removes excessive whitespace and newlines
func cleanText(text string) string {
	text = spaceRe.ReplaceAllString(text, " ")
	text = newlineRe.ReplaceAllString(text, "\n")

	lines := strings.Split(text, "\n")
	cleaned := lines[:0]
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	return strings.Join(cleaned, "\n")
}

func cleanFinalContent(content string) string {
	return strings.TrimSpace(blankLineRe.ReplaceAllString(content, "\n\n"))
}
