// Package normalize flattens a page's block tree into ordered concept
// sections ready for flashcard generation.
//
// Sections partition the block sequence without overlap: a qualifying heading
// closes the open section and titles the next one, and everything else,
// nested children included, renders into the open section's text. Rendering
// preserves inline formatting with fixed textual markers so the generation
// backend receives unambiguous structure. Rendered text per section is capped
// by a character budget; truncation happens at block boundaries and is
// surfaced to the caller via the Truncated flag.
package normalize
