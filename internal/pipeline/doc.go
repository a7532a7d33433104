// Package pipeline runs the end-to-end flow: fetch a page, normalize it into
// concept sections, generate flashcards, and serialize the package.
//
// A run either places a complete artifact at the destination or leaves the
// filesystem untouched. The package is written to a temp file next to the
// destination and renamed into place once serialization succeeds, under a
// file lock so concurrent runs cannot interleave writes. Concept-level
// generation failures reduce the deck; only source access, configuration,
// and serialization failures abort the run.
package pipeline
