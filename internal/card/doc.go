// Package card defines the flashcard domain types shared between generation
// and package serialization.
package card
