package model

import "strings"

// TextPrimitive is a positioned glyph run delivered by a text extraction
// collaborator. Primitives are read-only inputs to layout analysis.
type TextPrimitive struct {
	BBox     BBox    `json:"bbox"`
	Text     string  `json:"text"`
	FontName string  `json:"font_name,omitempty"`
	FontSize float64 `json:"font_size,omitempty"`
}

// Word is a run of primitives merged along the baseline. FontName and
// FontSize carry the metadata of the word's first primitive; both are
// zero values when the source primitives carried no font information.
type Word struct {
	BBox     BBox    `json:"bbox"`
	Text     string  `json:"text"`
	FontName string  `json:"font_name,omitempty"`
	FontSize float64 `json:"font_size,omitempty"`
}

// Line is a horizontal band of words. FontSize is the representative
// (most common) word font size of the line, 0 when unknown.
type Line struct {
	BBox     BBox    `json:"bbox"`
	Words    []Word  `json:"words"`
	Text     string  `json:"text"`
	FontName string  `json:"font_name,omitempty"`
	FontSize float64 `json:"font_size,omitempty"`
}

// CharCount returns the number of runes in the line's text, excluding
// whitespace.
func (l Line) CharCount() int {
	n := 0
	for _, r := range l.Text {
		if !strings.ContainsRune(" \t\n", r) {
			n++
		}
	}
	return n
}
