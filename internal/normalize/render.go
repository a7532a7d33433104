package normalize

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"flashdeck/internal/notion"
	"flashdeck/internal/textutil"
)

// RenderSpans converts rich-text spans to text with the fixed inline marker
// convention: `code`, **bold**, *italic*, ~~strikethrough~~, [text](link).
// Code is applied innermost so other markers stay outside the span.
func RenderSpans(spans []notion.Span) string {
	var b strings.Builder
	for _, span := range spans {
		text := span.Text
		if span.Code {
			text = "`" + text + "`"
		}
		if span.Bold {
			text = "**" + text + "**"
		}
		if span.Italic {
			text = "*" + text + "*"
		}
		if span.Strikethrough {
			text = "~~" + text + "~~"
		}
		if span.Link != "" {
			text = "[" + text + "](" + span.Link + ")"
		}
		b.WriteString(text)
	}
	return b.String()
}

// renderBlock converts one block (children excluded) into rendered lines at
// the given nesting depth. Blocks with no visible content render nothing.
func renderBlock(block notion.Block, depth int) []string {
	indent := strings.Repeat("  ", depth)
	text := RenderSpans(block.Spans)

	switch block.Kind {
	case notion.KindHeading1:
		return headingLines("# ", text)
	case notion.KindHeading2:
		return headingLines("## ", text)
	case notion.KindHeading3:
		return headingLines("### ", text)
	case notion.KindParagraph:
		if text == "" {
			return nil
		}
		return []string{indent + text}
	case notion.KindBulletedItem, notion.KindToggle:
		if text == "" {
			return nil
		}
		return []string{indent + "- " + text}
	case notion.KindNumberedItem:
		if text == "" {
			return nil
		}
		return []string{indent + "1. " + text}
	case notion.KindToDo:
		if text == "" {
			return nil
		}
		checkbox := "[ ]"
		if block.Checked {
			checkbox = "[x]"
		}
		return []string{indent + checkbox + " " + text}
	case notion.KindCode:
		if text == "" {
			return nil
		}
		lines := []string{"```" + block.Language}
		lines = append(lines, strings.Split(text, "\n")...)
		return append(lines, "```")
	case notion.KindQuote:
		if text == "" {
			return nil
		}
		return []string{indent + "> " + text}
	case notion.KindCallout:
		if text == "" {
			return nil
		}
		if block.Emoji != "" {
			return []string{indent + block.Emoji + " " + text}
		}
		return []string{indent + text}
	case notion.KindDivider:
		return []string{"---"}
	case notion.KindImage:
		return []string{indent + "[image: " + mediaName(block) + "]"}
	default:
		// Unknown block kinds contribute no text but their children still render.
		return nil
	}
}

func headingLines(prefix, text string) []string {
	if text == "" {
		return nil
	}
	return []string{prefix + text}
}

// mediaName derives a stable filename for an image block from its URL,
// falling back to the block identifier.
func mediaName(block notion.Block) string {
	if block.ImageURL != "" {
		if parsed, err := url.Parse(block.ImageURL); err == nil {
			if base := path.Base(parsed.Path); base != "" && base != "." && base != "/" {
				if safe := textutil.SanitizeFileName(base); safe != "" {
					return safe
				}
			}
		}
	}
	return fmt.Sprintf("image-%s.png", block.ID)
}
