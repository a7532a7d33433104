package anki

import (
	"strings"
	"testing"
)

func TestNextIDUnique(t *testing.T) {
	a := NewAssigner()
	seen := make(map[int64]struct{})
	for i := 0; i < 100; i++ {
		id := a.NextID()
		if id <= 0 {
			t.Fatalf("non-positive structural id %d", id)
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate structural id %d", id)
		}
		seen[id] = struct{}{}
	}
}

func TestNextIDStableAcrossRuns(t *testing.T) {
	first := NewAssigner().NextID()
	second := NewAssigner().NextID()
	if first != second {
		t.Errorf("first structural id differs across assigners: %d vs %d", first, second)
	}
}

func TestNoteIDStableAcrossRuns(t *testing.T) {
	a := NewAssigner().NoteID("Biology", "What is ATP?")
	b := NewAssigner().NoteID("Biology", "What is ATP?")
	if a != b {
		t.Errorf("note id not stable: %d vs %d", a, b)
	}
}

func TestNoteIDIgnoresFormatting(t *testing.T) {
	a := NewAssigner().NoteID("Biology", "What is **ATP**?")
	b := NewAssigner().NoteID("Biology", "what is atp?")
	if a != b {
		t.Errorf("formatting changed note id: %d vs %d", a, b)
	}
}

func TestNoteIDVariesWithDeckAndContent(t *testing.T) {
	a := NewAssigner()
	base := a.NoteID("Biology", "What is ATP?")
	if other := NewAssigner().NoteID("Chemistry", "What is ATP?"); other == base {
		t.Error("deck name ignored by note id")
	}
	if other := NewAssigner().NoteID("Biology", "What is ADP?"); other == base {
		t.Error("front text ignored by note id")
	}
}

func TestNoteIDCollisionProbesForward(t *testing.T) {
	a := NewAssigner()
	first := a.NoteID("Deck", "Same front")
	second := a.NoteID("Deck", "Same front")
	if second != first+1 {
		t.Errorf("expected probe to %d, got %d", first+1, second)
	}
}

func TestFieldChecksumNormalizes(t *testing.T) {
	if FieldChecksum("**ATP**") != FieldChecksum("atp") {
		t.Error("checksum should ignore markup and case")
	}
	if FieldChecksum("ATP") == FieldChecksum("ADP") {
		t.Error("checksum should distinguish content")
	}
}

func TestNoteGUID(t *testing.T) {
	a := NoteGUID("front", "back")
	if a != NoteGUID("front", "back") {
		t.Error("guid not stable")
	}
	if a == NoteGUID("front", "other") {
		t.Error("guid ignores field content")
	}
	for _, r := range a {
		if !strings.ContainsRune(guidCharset, r) {
			t.Errorf("guid %q contains %q outside the charset", a, r)
		}
	}
}
