package model

import "fmt"

// BlockType is the semantic role assigned to a content block.
// The set is closed; classification always produces exactly one type.
type BlockType int

const (
	BlockParagraph BlockType = iota
	BlockHeading
	BlockCaption
	BlockFigure
	BlockTable
	BlockFormula
	BlockListItem
	BlockHeader
	BlockFooter
	BlockFootnote
)

var blockTypeNames = [...]string{
	BlockParagraph: "paragraph",
	BlockHeading:   "heading",
	BlockCaption:   "caption",
	BlockFigure:    "figure",
	BlockTable:     "table",
	BlockFormula:   "formula",
	BlockListItem:  "list_item",
	BlockHeader:    "header",
	BlockFooter:    "footer",
	BlockFootnote:  "footnote",
}

// String returns the snake_case name of the block type.
func (t BlockType) String() string {
	if t < 0 || int(t) >= len(blockTypeNames) {
		return "paragraph"
	}
	return blockTypeNames[t]
}

// MarshalJSON encodes the block type as its snake_case name.
func (t BlockType) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

// UnmarshalJSON decodes a snake_case block type name.
func (t *BlockType) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("invalid block type %s", s)
	}
	s = s[1 : len(s)-1]
	for i, name := range blockTypeNames {
		if name == s {
			*t = BlockType(i)
			return nil
		}
	}
	return fmt.Errorf("unknown block type %q", s)
}

// FontInfo carries the dominant font of a block.
type FontInfo struct {
	Name string  `json:"name,omitempty"`
	Size float64 `json:"size"`
}

// Block is a classified region of page content. A spanning block crosses
// multiple columns and has Column == nil; every non-spanning block has a
// valid column index. ReadingOrder is assigned exactly once, as the
// block's 0-based position in the page reading sequence.
type Block struct {
	BBox         BBox      `json:"bbox"`
	Text         string    `json:"text"`
	Type         BlockType `json:"type"`
	Confidence   float64   `json:"confidence"`
	Font         *FontInfo `json:"font,omitempty"`
	Column       *int      `json:"column,omitempty"`
	Spanning     bool      `json:"spanning,omitempty"`
	ReadingOrder int       `json:"reading_order"`
}

// FontSize returns the block's font size, or 0 when unknown.
func (b *Block) FontSize() float64 {
	if b.Font == nil {
		return 0
	}
	return b.Font.Size
}

// PageFontStats summarizes the font sizes observed on a page. It is
// computed once per page and reused for relative classification
// thresholds; CharCount weights the page when aggregating document-wide
// statistics.
type PageFontStats struct {
	MedianSize     float64 `json:"median_size"`
	AvgSize        float64 `json:"avg_size"`
	MostCommonSize float64 `json:"most_common_size"`
	CharCount      int     `json:"char_count"`
}
