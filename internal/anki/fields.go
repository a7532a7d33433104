package anki

import (
	"fmt"
	"html"
	"regexp"
	"strings"
)

var (
	fencedCodePattern = regexp.MustCompile("(?s)```(\\w*)[ \t]*\n(.*?)```")
	inlineCodePattern = regexp.MustCompile("`([^`]+)`")
	boldPattern       = regexp.MustCompile(`\*\*(.+?)\*\*`)
	strikePattern     = regexp.MustCompile(`~~(.+?)~~`)
	italicPattern     = regexp.MustCompile(`\*([^*]+?)\*`)
	linkPattern       = regexp.MustCompile(`\[([^\]]*)\]\(([^)]*)\)`)
)

// renderFieldHTML converts the inline markers used in rendered section text
// into the HTML the consuming application displays. The marker set is fixed
// (bold, italic, strikethrough, inline code, links, fenced code blocks), so
// the conversion is a bounded rewrite rather than a markdown parser. All text
// is HTML-escaped before markers are rewritten.
func renderFieldHTML(text string) string {
	var b strings.Builder
	last := 0
	for _, m := range fencedCodePattern.FindAllStringSubmatchIndex(text, -1) {
		b.WriteString(renderInlineHTML(text[last:m[0]]))
		lang := "code"
		if m[2] >= 0 && m[3] > m[2] {
			lang = text[m[2]:m[3]]
		}
		code := strings.TrimRight(text[m[4]:m[5]], "\n")
		fmt.Fprintf(&b, `<pre data-language=%q><code>%s</code></pre>`, lang, html.EscapeString(code))
		last = m[1]
	}
	b.WriteString(renderInlineHTML(text[last:]))
	return b.String()
}

// renderInlineHTML handles everything outside fenced blocks. Inline code is
// split out first so the span markers never rewrite code content.
func renderInlineHTML(text string) string {
	var b strings.Builder
	last := 0
	for _, m := range inlineCodePattern.FindAllStringSubmatchIndex(text, -1) {
		b.WriteString(renderSpanMarkers(text[last:m[0]]))
		fmt.Fprintf(&b, "<code>%s</code>", html.EscapeString(text[m[2]:m[3]]))
		last = m[1]
	}
	b.WriteString(renderSpanMarkers(text[last:]))
	return b.String()
}

func renderSpanMarkers(text string) string {
	text = html.EscapeString(text)
	text = linkPattern.ReplaceAllString(text, `<a href="$2">$1</a>`)
	text = boldPattern.ReplaceAllString(text, "<strong>$1</strong>")
	text = strikePattern.ReplaceAllString(text, "<s>$1</s>")
	text = italicPattern.ReplaceAllString(text, "<em>$1</em>")
	return strings.ReplaceAll(text, "\n", "<br>")
}
