// Package generate orchestrates flashcard generation across concept sections.
//
// Sections fan out to a bounded worker pool, each concept getting its own
// generation request with a bounded retry budget for malformed or invalid
// responses. Results are reassembled in document order regardless of
// completion order, then deduplicated by content signature in that same
// order so the first occurrence always wins. A concept that exhausts its
// retries is skipped, never aborting the run.
package generate
