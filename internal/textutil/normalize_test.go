package textutil

import (
	"strings"
	"testing"
)

func TestStripMarkup(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bold", "What is **photosynthesis**?", "What is photosynthesis?"},
		{"italic", "the *light* reactions", "the light reactions"},
		{"inline code", "call `append` on the slice", "call append on the slice"},
		{"strikethrough", "~~old~~ new", "old new"},
		{"link", "see [the docs](https://example.com) here", "see the docs here"},
		{"html tags", "<b>ATP</b> synthase<br>", "ATP synthase"},
		{"plain", "no markup at all", "no markup at all"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripMarkup(tt.in); got != tt.want {
				t.Errorf("StripMarkup(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeFieldStripsAllWhitespace(t *testing.T) {
	got := NormalizeField("  What  is\tATP? ")
	if got != "whatisatp?" {
		t.Errorf("NormalizeField() = %q, want %q", got, "whatisatp?")
	}
}

func TestNormalizeFieldCaseFolds(t *testing.T) {
	a := NormalizeField("Straße")
	b := NormalizeField("STRASSE")
	if a != b {
		t.Errorf("case folding mismatch: %q vs %q", a, b)
	}
}

func TestNormalizeForSignatureCollapsesWhitespace(t *testing.T) {
	a := NormalizeForSignature("What is  the\nKrebs   cycle?")
	b := NormalizeForSignature("what is the krebs cycle?")
	if a != b {
		t.Errorf("signature normalization mismatch: %q vs %q", a, b)
	}
}

func TestNormalizeForSignatureIgnoresMarkers(t *testing.T) {
	a := NormalizeForSignature("The **Calvin cycle** fixes `CO2`")
	b := NormalizeForSignature("the calvin cycle fixes co2")
	if a != b {
		t.Errorf("marker-insensitive normalization mismatch: %q vs %q", a, b)
	}
}

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Biology: Unit 1", "Biology- Unit 1"},
		{"a/b\\c", "a-b-c"},
		{"what?", "what"},
		{"  padded  ", "padded"},
		{"notes...", "notes"},
		{"tab\tand\x01control", "tabandcontrol"},
		{"<deck>|name", "deckname"},
	}
	for _, tt := range tests {
		if got := SanitizeFileName(tt.in); got != tt.want {
			t.Errorf("SanitizeFileName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeFileNameCapsLength(t *testing.T) {
	long := strings.Repeat("a", 500)
	if got := SanitizeFileName(long); len([]rune(got)) != 120 {
		t.Errorf("len = %d, want 120", len([]rune(got)))
	}
}
