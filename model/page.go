package model

import (
	"fmt"
	"math"
)

// Column is a half-open horizontal interval [Start, End) of the page
// assumed to contain one vertical flow of text. A page's columns are
// disjoint, sorted left to right, and together cover [0, page width].
type Column struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Width returns the width of the column interval.
func (c Column) Width() float64 {
	return c.End - c.Start
}

// Contains reports whether x falls inside the half-open interval.
func (c Column) Contains(x float64) bool {
	return x >= c.Start && x < c.End
}

// PageLayout is the complete layout analysis result for one page.
// Blocks are stored in reading order; Headers, Footers, and
// SpanningBlocks are derived views over the same content. A PageLayout
// is rebuilt fresh on every analysis call and is only ever mutated by
// the cross-page header/footer pass, which touches block type and
// confidence fields.
type PageLayout struct {
	PageNumber       int      `json:"page_number"`
	Width            float64  `json:"width"`
	Height           float64  `json:"height"`
	Blocks           []Block  `json:"blocks"`
	Columns          []Column `json:"columns"`
	Headers          []Block  `json:"headers,omitempty"`
	Footers          []Block  `json:"footers,omitempty"`
	SpanningBlocks   []Block  `json:"spanning_blocks,omitempty"`
	ColumnConfidence float64  `json:"column_confidence"`
}

const boundaryTolerance = 1e-6

// Validate checks the structural invariants of the layout: the column
// partition, the reading order permutation, confidence ranges, spanning
// exclusivity, and bbox well-formedness. It returns the first violation
// found. A layout produced by analysis always validates; the check exists
// for consumers that construct or modify layouts themselves.
func (p *PageLayout) Validate() error {
	if len(p.Columns) == 0 {
		return fmt.Errorf("page %d: no columns", p.PageNumber)
	}
	if math.Abs(p.Columns[0].Start) > boundaryTolerance {
		return fmt.Errorf("page %d: first column starts at %g, want 0", p.PageNumber, p.Columns[0].Start)
	}
	if math.Abs(p.Columns[len(p.Columns)-1].End-p.Width) > boundaryTolerance {
		return fmt.Errorf("page %d: last column ends at %g, want %g",
			p.PageNumber, p.Columns[len(p.Columns)-1].End, p.Width)
	}
	for i, c := range p.Columns {
		if c.End-c.Start < -boundaryTolerance {
			return fmt.Errorf("page %d: column %d is inverted [%g, %g)", p.PageNumber, i, c.Start, c.End)
		}
	}
	// Adjacency plus non-inverted intervals gives a sorted partition.
	for i := 1; i < len(p.Columns); i++ {
		if math.Abs(p.Columns[i].Start-p.Columns[i-1].End) > boundaryTolerance {
			return fmt.Errorf("page %d: gap between columns %d and %d", p.PageNumber, i-1, i)
		}
	}
	if p.ColumnConfidence < 0 || p.ColumnConfidence > 1 {
		return fmt.Errorf("page %d: column confidence %g out of range", p.PageNumber, p.ColumnConfidence)
	}

	seen := make([]bool, len(p.Blocks))
	for i := range p.Blocks {
		b := &p.Blocks[i]
		if !b.BBox.Valid() {
			return fmt.Errorf("page %d: block %d has malformed bbox", p.PageNumber, i)
		}
		if b.Confidence < 0 || b.Confidence > 1 {
			return fmt.Errorf("page %d: block %d confidence %g out of range", p.PageNumber, i, b.Confidence)
		}
		if b.ReadingOrder < 0 || b.ReadingOrder >= len(p.Blocks) || seen[b.ReadingOrder] {
			return fmt.Errorf("page %d: reading order %d is not a permutation", p.PageNumber, b.ReadingOrder)
		}
		seen[b.ReadingOrder] = true
		if b.Spanning && b.Column != nil {
			return fmt.Errorf("page %d: spanning block %d has column %d", p.PageNumber, i, *b.Column)
		}
		if !b.Spanning && (b.Column == nil || *b.Column < 0 || *b.Column >= len(p.Columns)) {
			return fmt.Errorf("page %d: block %d has no valid column", p.PageNumber, i)
		}
	}
	return nil
}

// BlocksInOrder returns the page's blocks sorted by reading order.
func (p *PageLayout) BlocksInOrder() []Block {
	ordered := make([]Block, len(p.Blocks))
	for _, b := range p.Blocks {
		ordered[b.ReadingOrder] = b
	}
	return ordered
}

// ContentRegion returns the page region that remains after removing the
// bands occupied by detected header and footer blocks. The page itself is
// not modified. With no headers or footers it is the full page box.
func (p *PageLayout) ContentRegion() BBox {
	top := 0.0
	bottom := p.Height
	for _, h := range p.Headers {
		if h.BBox.Y1 > top {
			top = h.BBox.Y1
		}
	}
	for _, f := range p.Footers {
		if f.BBox.Y0 < bottom {
			bottom = f.BBox.Y0
		}
	}
	if bottom < top {
		bottom = top
	}
	return BBox{X0: 0, Y0: top, X1: p.Width, Y1: bottom}
}
