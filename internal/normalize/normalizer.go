package normalize

import (
	"strings"

	"flashdeck/internal/notion"
)

// Section is one concept unit of rendered page text. Sections arrive in
// document order and never overlap.
type Section struct {
	Title         string
	Lines         []string
	Truncated     bool
	RenderedChars int
	DroppedChars  int
}

// Text returns the section body as newline-joined rendered lines.
func (s Section) Text() string {
	return strings.Join(s.Lines, "\n")
}

// MediaRef points at an image encountered anywhere in the block tree. The
// name is stable for a given source URL so downstream references line up
// with the fetched asset.
type MediaRef struct {
	Name string
	URL  string
}

// Options controls sectioning. Zero values fall back to defaults.
type Options struct {
	// HeadingLevel is the heading depth that opens a new section. Headings
	// at or above this level split; deeper headings render as body text.
	HeadingLevel int
	// CharBudget caps rendered characters per section. Truncation happens
	// at block boundaries, never mid-block.
	CharBudget int
	// MinSections triggers a retry at heading level 2 when level-1
	// partitioning produces fewer sections than this.
	MinSections int
	// MaxSections merges the smallest adjacent sections until the count
	// fits.
	MaxSections int
}

const (
	defaultHeadingLevel = 1
	defaultCharBudget   = 4000
	defaultMinSections  = 3
	defaultMaxSections  = 20
)

func (o Options) withDefaults() Options {
	if o.HeadingLevel <= 0 {
		o.HeadingLevel = defaultHeadingLevel
	}
	if o.CharBudget <= 0 {
		o.CharBudget = defaultCharBudget
	}
	if o.MinSections <= 0 {
		o.MinSections = defaultMinSections
	}
	if o.MaxSections <= 0 {
		o.MaxSections = defaultMaxSections
	}
	return o
}

// Result carries the ordered sections plus every image reference found in
// the page, whether or not its section survived truncation.
type Result struct {
	Sections []Section
	Media    []MediaRef
}

// Normalize flattens the page into ordered sections. Content before the
// first qualifying heading lands in an implicit section titled after the
// page. Pages that split too coarsely at level 1 are re-partitioned at
// level 2 when that yields more sections.
func Normalize(page notion.Page, opts Options) Result {
	opts = opts.withDefaults()

	fallback := page.Title
	if fallback == "" {
		fallback = "Untitled"
	}

	sections := partition(page.Blocks, opts.HeadingLevel, opts.CharBudget, fallback)
	if len(sections) < opts.MinSections && opts.HeadingLevel < 2 {
		deeper := partition(page.Blocks, 2, opts.CharBudget, fallback)
		if len(deeper) > len(sections) {
			sections = deeper
		}
	}
	sections = mergeSmallest(sections, opts.MaxSections)

	return Result{
		Sections: sections,
		Media:    collectMedia(page.Blocks),
	}
}

type frame struct {
	block notion.Block
	depth int
}

func partition(blocks []notion.Block, level, budget int, fallbackTitle string) []Section {
	var sections []Section
	builder := newSectionBuilder(fallbackTitle, budget)

	stack := make([]frame, 0, len(blocks))
	for i := len(blocks) - 1; i >= 0; i-- {
		stack = append(stack, frame{blocks[i], 0})
	}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		childDepth := f.depth + 1
		if hl := f.block.Kind.HeadingLevel(); f.depth == 0 && hl != 0 && hl <= level {
			if sec, ok := builder.finish(); ok {
				sections = append(sections, sec)
			}
			builder = newSectionBuilder(RenderSpans(f.block.Spans), budget)
			// A toggleable heading's children open the new section's body.
			childDepth = 0
		} else {
			builder.add(renderBlock(f.block, f.depth))
		}

		for i := len(f.block.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{f.block.Children[i], childDepth})
		}
	}

	if sec, ok := builder.finish(); ok {
		sections = append(sections, sec)
	}
	return sections
}

type sectionBuilder struct {
	section  Section
	budget   int
	dropping bool
}

func newSectionBuilder(title string, budget int) *sectionBuilder {
	return &sectionBuilder{section: Section{Title: title}, budget: budget}
}

// add appends a rendered block. Once the budget is exceeded every later
// block in the section is dropped whole; a section's first block is always
// kept so oversized single blocks still produce content.
func (b *sectionBuilder) add(lines []string) {
	if len(lines) == 0 {
		return
	}
	size := 0
	for _, line := range lines {
		size += len(line) + 1
	}
	if b.dropping || (len(b.section.Lines) > 0 && b.section.RenderedChars+size > b.budget) {
		b.dropping = true
		b.section.Truncated = true
		b.section.DroppedChars += size
		return
	}
	b.section.Lines = append(b.section.Lines, lines...)
	b.section.RenderedChars += size
}

// finish reports the built section, or ok=false when nothing rendered into
// it. Back-to-back headings produce no empty sections.
func (b *sectionBuilder) finish() (Section, bool) {
	if len(b.section.Lines) == 0 {
		return Section{}, false
	}
	return b.section, true
}

// mergeSmallest folds the smallest adjacent section pair together until the
// count fits, keeping document order. The absorbed section's title survives
// as a subheading line so its origin stays visible.
func mergeSmallest(sections []Section, max int) []Section {
	for len(sections) > max {
		best := 0
		bestSize := -1
		for i := 0; i+1 < len(sections); i++ {
			size := sections[i].RenderedChars + sections[i+1].RenderedChars
			if bestSize < 0 || size < bestSize {
				best = i
				bestSize = size
			}
		}

		head := sections[best]
		tail := sections[best+1]
		subheading := "## " + tail.Title
		head.Lines = append(head.Lines, subheading)
		head.Lines = append(head.Lines, tail.Lines...)
		head.RenderedChars += len(subheading) + 1 + tail.RenderedChars
		head.DroppedChars += tail.DroppedChars
		head.Truncated = head.Truncated || tail.Truncated

		sections[best] = head
		sections = append(sections[:best+1], sections[best+2:]...)
	}
	return sections
}

func collectMedia(blocks []notion.Block) []MediaRef {
	var refs []MediaRef
	seen := make(map[string]struct{})

	stack := make([]notion.Block, 0, len(blocks))
	for i := len(blocks) - 1; i >= 0; i-- {
		stack = append(stack, blocks[i])
	}
	for len(stack) > 0 {
		block := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if block.Kind == notion.KindImage && block.ImageURL != "" {
			name := mediaName(block)
			if _, ok := seen[name]; !ok {
				seen[name] = struct{}{}
				refs = append(refs, MediaRef{Name: name, URL: block.ImageURL})
			}
		}
		for i := len(block.Children) - 1; i >= 0; i-- {
			stack = append(stack, block.Children[i])
		}
	}
	return refs
}
