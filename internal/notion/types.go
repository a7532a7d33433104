package notion

// BlockKind identifies the content type of a block.
type BlockKind string

const (
	KindHeading1     BlockKind = "heading_1"
	KindHeading2     BlockKind = "heading_2"
	KindHeading3     BlockKind = "heading_3"
	KindParagraph    BlockKind = "paragraph"
	KindBulletedItem BlockKind = "bulleted_list_item"
	KindNumberedItem BlockKind = "numbered_list_item"
	KindToDo         BlockKind = "to_do"
	KindToggle       BlockKind = "toggle"
	KindCode         BlockKind = "code"
	KindQuote        BlockKind = "quote"
	KindCallout      BlockKind = "callout"
	KindDivider      BlockKind = "divider"
	KindImage        BlockKind = "image"
)

// HeadingLevel returns 1, 2, or 3 for heading kinds and 0 otherwise.
func (k BlockKind) HeadingLevel() int {
	switch k {
	case KindHeading1:
		return 1
	case KindHeading2:
		return 2
	case KindHeading3:
		return 3
	default:
		return 0
	}
}

// Span is a run of text with style annotations.
type Span struct {
	Text          string
	Bold          bool
	Italic        bool
	Code          bool
	Strikethrough bool
	Link          string
}

// Block is one node of a page's content tree. Children are exclusively owned
// by their parent; the tree is immutable once fetched.
type Block struct {
	ID       string
	Kind     BlockKind
	Spans    []Span
	Children []Block

	// Kind-specific extras.
	Language string // code blocks
	Checked  bool   // to_do blocks
	Emoji    string // callout icon
	ImageURL string // image blocks
}

// Page is a fetched document: its title and the root block sequence.
type Page struct {
	ID     string
	Title  string
	Blocks []Block
}
