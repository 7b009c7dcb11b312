package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeStripsScripts(t *testing.T) {
	s := NewSanitizer()

	page := s.Sanitize(`<html><head><title>  Doc Title </title></head>` +
		`<body><p onclick="evil()">Hello <b>world</b></p>` +
		`<script>alert(1)</script></body></html>`)

	assert.Equal(t, "Doc Title", page.Title)
	assert.Contains(t, page.HTML, "Hello <b>world</b>")
	assert.NotContains(t, page.HTML, "script")
	assert.NotContains(t, page.HTML, "onclick")
}

func TestSanitizeEmptyInput(t *testing.T) {
	page := NewSanitizer().Sanitize("")
	assert.Empty(t, page.Title)
	assert.Empty(t, page.HTML)
}

func TestSanitizeKeepsLinks(t *testing.T) {
	page := NewSanitizer().Sanitize(`<a href="https://example.com" onmouseover="x()">link</a>`)
	assert.Contains(t, page.HTML, `href="https://example.com"`)
	assert.NotContains(t, page.HTML, "onmouseover")
}
