package textutil

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var (
	htmlTagPattern   = regexp.MustCompile(`<[^>]+>`)
	linkSpanPattern  = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	whitespaceFolder = regexp.MustCompile(`\s+`)

	caseFolder = cases.Fold()
)

// markerReplacer strips the inline formatting markers used by the block
// renderer (bold, italic, inline code, strikethrough).
var markerReplacer = strings.NewReplacer(
	"**", "",
	"~~", "",
	"*", "",
	"`", "",
)

// StripMarkup removes HTML tags, link syntax, and inline formatting markers,
// leaving only the visible text.
func StripMarkup(text string) string {
	text = htmlTagPattern.ReplaceAllString(text, "")
	text = linkSpanPattern.ReplaceAllString(text, "$1")
	return markerReplacer.Replace(text)
}

// NormalizeField prepares a note field for the consuming application's
// duplicate-detection checksum: markup stripped, Unicode-compat normalized,
// case folded, and all whitespace removed.
func NormalizeField(text string) string {
	text = StripMarkup(text)
	text = norm.NFKC.String(text)
	text = caseFolder.String(text)
	return whitespaceFolder.ReplaceAllString(text, "")
}

// NormalizeForSignature prepares card text for content-signature hashing:
// markup stripped, Unicode-compat normalized, case folded, and runs of
// whitespace collapsed to single spaces.
func NormalizeForSignature(text string) string {
	text = StripMarkup(text)
	text = norm.NFKC.String(text)
	text = caseFolder.String(text)
	return strings.TrimSpace(whitespaceFolder.ReplaceAllString(text, " "))
}
