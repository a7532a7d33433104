package normalize

import (
	"strings"
	"testing"

	"flashdeck/internal/notion"
)

func heading(level int, text string) notion.Block {
	kinds := map[int]notion.BlockKind{1: notion.KindHeading1, 2: notion.KindHeading2, 3: notion.KindHeading3}
	return notion.Block{Kind: kinds[level], Spans: spans(text)}
}

func paragraph(text string) notion.Block {
	return notion.Block{Kind: notion.KindParagraph, Spans: spans(text)}
}

func TestNormalizeSplitsOnHeadings(t *testing.T) {
	page := notion.Page{
		Title: "Metabolism",
		Blocks: []notion.Block{
			heading(1, "Glycolysis"),
			paragraph("Splits glucose into pyruvate."),
			heading(1, "Krebs Cycle"),
			paragraph("Oxidizes acetyl-CoA."),
			heading(1, "Electron Transport"),
			paragraph("Builds the proton gradient."),
		},
	}

	result := Normalize(page, Options{})
	if len(result.Sections) != 3 {
		t.Fatalf("expected 3 sections, got %d", len(result.Sections))
	}
	wantTitles := []string{"Glycolysis", "Krebs Cycle", "Electron Transport"}
	for i, want := range wantTitles {
		if result.Sections[i].Title != want {
			t.Errorf("section %d title = %q, want %q", i, result.Sections[i].Title, want)
		}
	}
	if got := result.Sections[0].Text(); got != "Splits glucose into pyruvate." {
		t.Errorf("section 0 text = %q", got)
	}
}

func TestNormalizeLeadingContentGetsPageTitle(t *testing.T) {
	page := notion.Page{
		Title: "Cell Biology",
		Blocks: []notion.Block{
			paragraph("Intro material before any heading."),
			heading(1, "Organelles"),
			paragraph("Mitochondria make ATP."),
			heading(1, "Membranes"),
			paragraph("Lipid bilayers."),
		},
	}

	result := Normalize(page, Options{})
	if len(result.Sections) != 3 {
		t.Fatalf("expected 3 sections, got %d", len(result.Sections))
	}
	if result.Sections[0].Title != "Cell Biology" {
		t.Errorf("implicit section title = %q, want page title", result.Sections[0].Title)
	}
}

func TestNormalizeUntitledFallback(t *testing.T) {
	page := notion.Page{
		Blocks: []notion.Block{paragraph("Only content."), paragraph("More."), paragraph("Even more.")},
	}
	result := Normalize(page, Options{})
	if len(result.Sections) != 1 {
		t.Fatalf("expected 1 section, got %d", len(result.Sections))
	}
	if result.Sections[0].Title != "Untitled" {
		t.Errorf("title = %q, want Untitled", result.Sections[0].Title)
	}
}

func TestNormalizeDropsEmptySections(t *testing.T) {
	page := notion.Page{
		Title: "Sparse",
		Blocks: []notion.Block{
			heading(1, "Empty One"),
			heading(1, "Has Content"),
			paragraph("text"),
			heading(1, "Empty Two"),
		},
	}
	result := Normalize(page, Options{})
	if len(result.Sections) != 1 {
		t.Fatalf("expected 1 section, got %d: %+v", len(result.Sections), result.Sections)
	}
	if result.Sections[0].Title != "Has Content" {
		t.Errorf("title = %q", result.Sections[0].Title)
	}
}

func TestNormalizeAdaptiveHeadingLevel(t *testing.T) {
	// One H1 holding three H2 subsections: level-1 partitioning gives a
	// single section, so the pass retries at level 2.
	page := notion.Page{
		Title: "Genetics",
		Blocks: []notion.Block{
			heading(1, "DNA"),
			heading(2, "Replication"),
			paragraph("Semi-conservative copying."),
			heading(2, "Transcription"),
			paragraph("DNA to RNA."),
			heading(2, "Translation"),
			paragraph("RNA to protein."),
		},
	}

	result := Normalize(page, Options{MinSections: 3})
	if len(result.Sections) != 3 {
		t.Fatalf("expected 3 sections after level-2 retry, got %d", len(result.Sections))
	}
	if result.Sections[0].Title != "Replication" {
		t.Errorf("first section title = %q, want Replication", result.Sections[0].Title)
	}
}

func TestNormalizeAdaptiveRetryNotTakenWhenNoGain(t *testing.T) {
	page := notion.Page{
		Title:  "Flat",
		Blocks: []notion.Block{paragraph("No headings at all.")},
	}
	result := Normalize(page, Options{MinSections: 3})
	if len(result.Sections) != 1 {
		t.Fatalf("expected 1 section, got %d", len(result.Sections))
	}
}

func TestNormalizeRespectsExplicitHeadingLevelTwo(t *testing.T) {
	page := notion.Page{
		Title: "Mixed",
		Blocks: []notion.Block{
			heading(1, "Top"),
			paragraph("alpha"),
			heading(2, "Sub"),
			paragraph("beta"),
		},
	}
	result := Normalize(page, Options{HeadingLevel: 2, MinSections: 1})
	if len(result.Sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(result.Sections))
	}
	if result.Sections[0].Title != "Top" || result.Sections[1].Title != "Sub" {
		t.Errorf("titles = %q, %q", result.Sections[0].Title, result.Sections[1].Title)
	}
}

func TestNormalizeTruncatesAtBlockBoundary(t *testing.T) {
	long := strings.Repeat("a", 60)
	page := notion.Page{
		Title: "Budgeted",
		Blocks: []notion.Block{
			heading(1, "Section"),
			paragraph(long),
			paragraph(long),
			paragraph("dropped entirely"),
		},
	}

	result := Normalize(page, Options{CharBudget: 70, MinSections: 1})
	if len(result.Sections) != 1 {
		t.Fatalf("expected 1 section, got %d", len(result.Sections))
	}
	sec := result.Sections[0]
	if !sec.Truncated {
		t.Error("section not marked truncated")
	}
	if len(sec.Lines) != 1 {
		t.Errorf("expected 1 surviving line, got %d", len(sec.Lines))
	}
	if sec.DroppedChars == 0 {
		t.Error("DroppedChars not tracked")
	}
	if strings.Contains(sec.Text(), "dropped entirely") {
		t.Error("truncated block leaked into section text")
	}
}

func TestNormalizeOversizedFirstBlockKept(t *testing.T) {
	page := notion.Page{
		Title:  "Oversized",
		Blocks: []notion.Block{paragraph(strings.Repeat("b", 500))},
	}
	result := Normalize(page, Options{CharBudget: 100, MinSections: 1})
	if len(result.Sections) != 1 {
		t.Fatalf("expected 1 section, got %d", len(result.Sections))
	}
	if len(result.Sections[0].Lines) != 1 {
		t.Error("oversized first block was dropped")
	}
}

func TestNormalizeMergesDownToMaxSections(t *testing.T) {
	var blocks []notion.Block
	for _, title := range []string{"A", "B", "C", "D"} {
		blocks = append(blocks, heading(1, title), paragraph("content for "+title))
	}
	page := notion.Page{Title: "Many", Blocks: blocks}

	result := Normalize(page, Options{MaxSections: 2, MinSections: 1})
	if len(result.Sections) != 2 {
		t.Fatalf("expected 2 sections after merging, got %d", len(result.Sections))
	}
	// Absorbed titles survive as subheading lines.
	joined := result.Sections[0].Text() + "\n" + result.Sections[1].Text()
	for _, want := range []string{"## B", "content for A", "content for B"} {
		if !strings.Contains(joined, want) {
			t.Errorf("merged text missing %q", want)
		}
	}
}

func TestNormalizeNestedChildrenRenderIndented(t *testing.T) {
	page := notion.Page{
		Title: "Nested",
		Blocks: []notion.Block{
			heading(1, "Lists"),
			{
				Kind:  notion.KindBulletedItem,
				Spans: spans("parent"),
				Children: []notion.Block{
					{Kind: notion.KindBulletedItem, Spans: spans("child")},
				},
			},
		},
	}
	result := Normalize(page, Options{MinSections: 1})
	want := "- parent\n  - child"
	if got := result.Sections[0].Text(); got != want {
		t.Errorf("text = %q, want %q", got, want)
	}
}

func TestNormalizeCollectsMedia(t *testing.T) {
	page := notion.Page{
		Title: "Images",
		Blocks: []notion.Block{
			heading(1, "Diagrams"),
			{ID: "b1", Kind: notion.KindImage, ImageURL: "https://example.com/pathway.png"},
			{
				Kind:  notion.KindToggle,
				Spans: spans("more"),
				Children: []notion.Block{
					{ID: "b2", Kind: notion.KindImage, ImageURL: "https://example.com/cycle.png"},
				},
			},
			// Same URL twice collapses to one reference.
			{ID: "b3", Kind: notion.KindImage, ImageURL: "https://example.com/pathway.png"},
		},
	}
	result := Normalize(page, Options{MinSections: 1})
	if len(result.Media) != 2 {
		t.Fatalf("expected 2 media refs, got %d", len(result.Media))
	}
	if result.Media[0].Name != "pathway.png" || result.Media[1].Name != "cycle.png" {
		t.Errorf("media names = %q, %q", result.Media[0].Name, result.Media[1].Name)
	}
}
