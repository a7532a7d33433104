// Package logging builds the slog loggers used across the pipeline.
//
// Two output formats are supported: a human-oriented console format with
// optional ANSI color when stdout is a terminal, and line-delimited JSON for
// machine consumption. Attr helpers and standardized field keys keep log
// shapes consistent between stages.
package logging
