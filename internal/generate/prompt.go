package generate

import (
	"fmt"
	"strings"

	"flashdeck/internal/normalize"
)

const systemPrompt = `You are a flashcard author. You turn study notes into question-and-answer flashcards for spaced repetition.

Rules:
- Respond with JSON only, no prose and no code fences.
- Use this exact shape: {"cards": [{"front": "...", "back": "..."}]}
- Each front is a single focused question answerable from the notes.
- Each back is a complete, self-contained answer. Never answer with "see notes" or refer to the source.
- Cover distinct facts; do not produce rephrasings of the same card.
- Preserve inline code in backticks and formulas verbatim.`

// retryReminder is appended to the user prompt after a malformed or invalid
// response so the next attempt does not repeat the mistake.
const retryReminder = `

Your previous response could not be parsed or did not contain exactly the requested number of cards. Respond with ONLY the JSON object described above, holding exactly the number of cards asked for. Do not include markdown fences, explanations, or any text outside the JSON.`

// buildUserPrompt renders the generation request for one concept section.
func buildUserPrompt(deckName string, section normalize.Section, count int, retry bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Deck: %s\n", deckName)
	fmt.Fprintf(&b, "Concept: %s\n\n", section.Title)
	fmt.Fprintf(&b, "Create exactly %d flashcards from these notes:\n\n", count)
	b.WriteString(section.Text())
	if section.Truncated {
		b.WriteString("\n\n(The notes above were cut off; only write cards about what is shown.)")
	}
	if retry {
		b.WriteString(retryReminder)
	}
	return b.String()
}

// requestedCards scales the per-concept card count down for truncated
// sections in proportion to how much text survived, never below one.
func requestedCards(base int, section normalize.Section) int {
	if base < 1 {
		base = 1
	}
	if !section.Truncated || section.DroppedChars <= 0 {
		return base
	}
	total := section.RenderedChars + section.DroppedChars
	if total <= 0 {
		return 1
	}
	scaled := (base*section.RenderedChars + total/2) / total
	if scaled < 1 {
		return 1
	}
	return scaled
}
