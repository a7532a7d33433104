package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrContentAccess marks failures reading the source document. Fatal: the
	// run aborts without producing an artifact.
	ErrContentAccess = errors.New("content access error")
	// ErrNotFound marks a missing source document or resource.
	ErrNotFound = errors.New("not found")
	// ErrAccessDenied marks a source document the integration cannot read.
	ErrAccessDenied = errors.New("access denied")
	// ErrMalformedGeneration marks a generation response that failed parsing or
	// shape validation. Retryable up to the configured bound, then the concept
	// is skipped.
	ErrMalformedGeneration = errors.New("malformed generation")
	// ErrValidation marks a card count or shape mismatch. Handled like
	// malformed generation output.
	ErrValidation = errors.New("validation error")
	// ErrSerialization marks a fatal package-construction failure: a dangling
	// reference, a schema write failure, or a container write failure.
	ErrSerialization = errors.New("serialization error")
	// ErrTimeout marks a generation request that exceeded its deadline.
	ErrTimeout = errors.New("timeout")
	// ErrRateLimited marks a generation backend rejection due to rate limits.
	ErrRateLimited = errors.New("rate limited")
	// ErrConfiguration marks unusable configuration.
	ErrConfiguration = errors.New("configuration error")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrSerialization
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsFatal reports whether an error must abort the run before any artifact is
// placed. Concept-level failures (malformed output, validation, timeouts,
// rate limits) are recovered locally and are not fatal.
func IsFatal(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrContentAccess),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrAccessDenied),
		errors.Is(err, ErrSerialization),
		errors.Is(err, ErrConfiguration):
		return true
	default:
		return false
	}
}

// IsRetryable reports whether a generation failure should be retried within
// the per-concept bound.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrMalformedGeneration) || errors.Is(err, ErrValidation)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
