// Package sanitize cleans untrusted text, HTML and URL fields before they reach stored
// definitions or rendered markup.
package sanitize

import (
	"html"
	"net/url"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strict = bluemonday.StrictPolicy()
	ugc    = bluemonday.UGCPolicy()
)

// Text strips all markup and collapses whitespace, leaving a single line of plain text.
func Text(s string) string {
	return strings.Join(strings.Fields(StripTags(s)), " ")
}

// StripTags removes every tag and decodes entities, keeping line structure.
func StripTags(s string) string {
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}

// HTML keeps the safe subset of markup allowed in post content.
func HTML(s string) string {
	return ugc.Sanitize(s)
}

// URL returns s when it is an absolute http(s) URL and "" otherwise.
func URL(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return ""
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return u.String()
	default:
		return ""
	}
}
