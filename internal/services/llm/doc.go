// Package llm wraps an OpenRouter-compatible chat completion API used as the
// flashcard generation backend.
//
// The client speaks JSON-only completions: every request pins a JSON response
// format and DecodeLLMJSON tolerates the usual model formatting quirks (code
// fences, prose around the payload). Transport-level failures are retried with
// exponential backoff; response-shape failures are surfaced to the caller,
// which owns the per-concept retry policy.
package llm
