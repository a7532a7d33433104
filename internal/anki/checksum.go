package anki

import (
	"crypto/sha1"
	"crypto/sha256"
	"encoding/binary"
	"strings"

	"flashdeck/internal/textutil"
)

// FieldChecksum computes the sort-field checksum stored alongside each note:
// the big-endian integer value of the first four bytes of the SHA-1 digest
// over the normalized field text. The consuming application uses it for fast
// duplicate lookups.
func FieldChecksum(field string) uint32 {
	normalized := textutil.NormalizeField(field)
	sum := sha1.Sum([]byte(normalized))
	return binary.BigEndian.Uint32(sum[:4])
}

// guidCharset is the 91-character alphabet the consuming application encodes
// note GUIDs with.
const guidCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789" +
	"!#$%&()*+,-./:;<=>?@[]^_`{|}~"

// NoteGUID derives a stable GUID from the note's field contents. Hashing the
// fields keeps the GUID identical across regenerations, so re-importing an
// updated package replaces notes instead of duplicating them.
func NoteGUID(fields ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(fields, "\x1f")))
	value := binary.BigEndian.Uint64(sum[:8])

	base := uint64(len(guidCharset))
	if value == 0 {
		return guidCharset[:1]
	}
	var encoded []byte
	for value > 0 {
		encoded = append(encoded, guidCharset[value%base])
		value /= base
	}
	for i, j := 0, len(encoded)-1; i < j; i, j = i+1, j-1 {
		encoded[i], encoded[j] = encoded[j], encoded[i]
	}
	return string(encoded)
}
