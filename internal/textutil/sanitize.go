package textutil

import "strings"

// Deck titles become artifact file names and media names come from URLs, so
// the cap keeps ".apkg" paths comfortably inside common filesystem limits.
const maxFileNameRunes = 120

// SanitizeFileName makes a deck or media asset name safe to use as a file
// name. Path separators and drive markers become dashes, characters that
// some filesystems reject are dropped along with control characters, and the
// result is length-capped and trimmed of trailing dots and whitespace.
func SanitizeFileName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	runes := 0
	for _, r := range strings.TrimSpace(name) {
		if runes >= maxFileNameRunes {
			break
		}
		switch {
		case r == '/' || r == '\\' || r == ':' || r == '*':
			b.WriteRune('-')
		case strings.ContainsRune(`?"<>|`, r), r < 0x20:
			continue
		default:
			b.WriteRune(r)
		}
		runes++
	}
	return strings.TrimRight(b.String(), ". \t")
}
