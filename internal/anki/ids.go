package anki

import (
	"crypto/sha256"
	"encoding/binary"

	"flashdeck/internal/textutil"
)

// referenceEpochMillis seeds the structural ID counter. The consuming
// application treats these IDs as millisecond timestamps, so the seed sits at
// a fixed past instant (2020-01-01T00:00:00Z) to keep IDs stable across runs
// while staying in the range existing collections expect.
const referenceEpochMillis int64 = 1_577_836_800_000

// Assigner hands out collection-unique 64-bit identifiers for one
// serialization run. Structural IDs count up from the reference epoch; note
// IDs derive from content so the same card keeps its identity across
// regenerations. Both namespaces share one used-set, so collisions between
// them are resolved deterministically.
type Assigner struct {
	next int64
	used map[int64]struct{}
}

// NewAssigner returns an assigner with an empty used-set.
func NewAssigner() *Assigner {
	return &Assigner{
		next: referenceEpochMillis,
		used: make(map[int64]struct{}),
	}
}

// NextID returns the next free structural identifier.
func (a *Assigner) NextID() int64 {
	for {
		id := a.next
		a.next++
		if a.reserve(id) {
			return id
		}
	}
}

// NoteID derives a stable identifier from the deck name and normalized front
// text. The hash is truncated to 63 bits so it stays a positive SQLite
// integer. A collision within the run probes upward to the next free ID.
func (a *Assigner) NoteID(deckName, front string) int64 {
	seed := deckName + "\x1f" + textutil.NormalizeForSignature(front)
	sum := sha256.Sum256([]byte(seed))
	id := int64(binary.BigEndian.Uint64(sum[:8]) >> 1)
	if id == 0 {
		id = 1
	}
	for !a.reserve(id) {
		id++
		if id <= 0 {
			id = 1
		}
	}
	return id
}

func (a *Assigner) reserve(id int64) bool {
	if _, taken := a.used[id]; taken {
		return false
	}
	a.used[id] = struct{}{}
	return true
}
