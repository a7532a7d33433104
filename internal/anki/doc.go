// Package anki serializes a finished deck into the .apkg package format: a
// zip archive holding a SQLite collection database, numbered media files,
// and a media manifest.
//
// Identifiers are assigned so that regenerating the same deck produces the
// same note identity: structural rows (deck, model, cards) draw from a
// counter seeded at a fixed reference instant, and notes derive their
// identifiers from deck name and front text so re-imports update cards in
// place instead of duplicating them.
package anki
