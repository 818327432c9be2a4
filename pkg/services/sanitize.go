package services

import (
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

// ContentSanitizer cleans user-submitted article HTML.
type ContentSanitizer struct {
	ugc    *bluemonday.Policy
	strict *bluemonday.Policy
}

func NewContentSanitizer() *ContentSanitizer {
	return &ContentSanitizer{
		ugc:    bluemonday.UGCPolicy(),
		strict: bluemonday.StrictPolicy(),
	}
}

// Sanitize keeps formatting markup and drops scripts, handlers and unsafe URLs.
func (s *ContentSanitizer) Sanitize(content string) string {
	return s.ugc.Sanitize(content)
}

// Excerpt returns the first n characters of content as plain text.
func (s *ContentSanitizer) Excerpt(content string, n int) string {
	text := html.UnescapeString(s.strict.Sanitize(content))
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) <= n {
		return text
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[:n])) + "…"
}
