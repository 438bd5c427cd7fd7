// Package sanitize turns feed markup fragments into plain display text.
package sanitize

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

var (
	cdataRe      = regexp.MustCompile(`(?s)<!\[CDATA\[(.*?)\]\]>`)
	tagRe        = regexp.MustCompile(`<[^>]*>`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// Text strips CDATA wrappers, HTML entities and tags from s and collapses
// whitespace. Entity-encoded markup (as found in RSS descriptions) is
// decoded before the tags are removed.
func Text(s string) string {
	if s == "" {
		return ""
	}
	s = cdataRe.ReplaceAllString(s, "$1")
	if strings.Contains(s, "&lt;") || strings.Contains(s, "&amp;") {
		s = html.UnescapeString(s)
	}

	text := s
	if strings.ContainsAny(s, "<>") {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
		if err == nil {
			text = doc.Text()
		} else {
			text = tagRe.ReplaceAllString(s, " ")
		}
	}
	text = strings.ReplaceAll(html.UnescapeString(text), "\u00a0", " ")
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
}

// Truncate shortens s to at most max runes, cutting on a word boundary
// when one is close and marking the cut with an ellipsis.
func Truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	cut := string(runes[:max])
	if i := strings.LastIndex(cut, " "); i > len(cut)*2/3 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,.;:") + "…"
}

// Clip shortens s to at most max runes without decoration.
func Clip(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
