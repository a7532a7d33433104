package card

import (
	"crypto/sha256"
	"encoding/hex"

	"flashdeck/internal/textutil"
)

// Status represents the lifecycle of a generated flashcard.
type Status string

const (
	StatusAccepted  Status = "accepted"
	StatusDuplicate Status = "duplicate"
	StatusMalformed Status = "malformed"
)

// Flashcard is a front/back study item produced for one concept. Once
// accepted it is never deleted; rejected cards are dropped, not retained.
type Flashcard struct {
	Front        string
	Back         string
	Concept      string
	ConceptIndex int
	Signature    string
	Status       Status
}

// Signature computes the content signature used for duplicate detection:
// a hash of the case-folded, whitespace-collapsed, markup-stripped front and
// back text. Cards whose signatures match are the same study item no matter
// how the source phrased them.
func Signature(front, back string) string {
	normalized := textutil.NormalizeForSignature(front) + "\x1f" + textutil.NormalizeForSignature(back)
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// MediaAsset is a named blob bundled into the package alongside the deck.
type MediaAsset struct {
	Name string
	Data []byte
}

// Deck is the finalized set of accepted flashcards plus any referenced media,
// consumed exactly once by the package serializer.
type Deck struct {
	Name  string
	Cards []Flashcard
	Media []MediaAsset
}
