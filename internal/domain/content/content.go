// Package content prepares page markup for the UI collaborator.
package content

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

// Page is a sanitized document handed to the UI.
type Page struct {
	Title string `json:"title"`
	HTML  string `json:"html"`
}

// Sanitizer strips scripts and event handlers from raw page HTML before it
// crosses the trust boundary into the UI layer.
type Sanitizer struct {
	policy *bluemonday.Policy
}

// NewSanitizer builds a sanitizer around bluemonday's UGC policy, which
// keeps readable structure and drops everything executable.
func NewSanitizer() *Sanitizer {
	return &Sanitizer{policy: bluemonday.UGCPolicy()}
}

// Sanitize cleans raw HTML and extracts the document title. The title comes
// from the parsed document, not the sanitized output, because sanitizing
// drops the head element.
func (s *Sanitizer) Sanitize(rawHTML string) Page {
	title := ""
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML)); err == nil {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	return Page{
		Title: title,
		HTML:  s.policy.Sanitize(rawHTML),
	}
}
