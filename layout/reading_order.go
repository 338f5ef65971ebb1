package layout

import (
	"sort"

	"github.com/pagelens/pagelens/model"
)

// ReadingOrderBuilder synthesizes the single deterministic reading
// sequence for a page: column contents left to right, top to bottom,
// with spanning blocks interleaved at their vertical position.
type ReadingOrderBuilder struct{}

// NewReadingOrderBuilder creates a reading order builder.
func NewReadingOrderBuilder() *ReadingOrderBuilder {
	return &ReadingOrderBuilder{}
}

// Build assigns every non-spanning block to the column with maximal
// horizontal bbox overlap (ties broken by nearest column center), sorts
// each column top to bottom, and interleaves spanning blocks by vertical
// position. ReadingOrder is written exactly once, as the 0-based position
// in the returned sequence.
func (b *ReadingOrderBuilder) Build(blocks []model.Block, columns []model.Column) []model.Block {
	if len(blocks) == 0 {
		return nil
	}

	buckets := make([][]model.Block, len(columns))
	var spanning []model.Block
	for _, block := range blocks {
		if block.Spanning {
			block.Column = nil
			spanning = append(spanning, block)
			continue
		}
		col := assignColumn(block.BBox, columns)
		block.Column = &col
		buckets[col] = append(buckets[col], block)
	}

	for _, bucket := range buckets {
		sort.SliceStable(bucket, func(i, j int) bool {
			if bucket[i].BBox.Y0 != bucket[j].BBox.Y0 {
				return bucket[i].BBox.Y0 < bucket[j].BBox.Y0
			}
			return bucket[i].BBox.X0 < bucket[j].BBox.X0
		})
	}
	sort.SliceStable(spanning, func(i, j int) bool {
		if spanning[i].BBox.Y0 != spanning[j].BBox.Y0 {
			return spanning[i].BBox.Y0 < spanning[j].BBox.Y0
		}
		return spanning[i].BBox.X0 < spanning[j].BBox.X0
	})

	ordered := make([]model.Block, 0, len(blocks))
	next := 0 // next spanning block to emit
	for _, bucket := range buckets {
		for _, block := range bucket {
			for next < len(spanning) && spanning[next].BBox.Y0 <= block.BBox.Y0 {
				ordered = append(ordered, spanning[next])
				next++
			}
			ordered = append(ordered, block)
		}
	}
	for ; next < len(spanning); next++ {
		ordered = append(ordered, spanning[next])
	}

	for i := range ordered {
		ordered[i].ReadingOrder = i
	}
	return ordered
}

// assignColumn returns the index of the column with maximal horizontal
// overlap with the bbox. Ties, including the zero-overlap case, go to
// the column whose center is nearest the bbox center.
func assignColumn(bbox model.BBox, columns []model.Column) int {
	best := 0
	bestOverlap := -1.0
	for i, c := range columns {
		overlap := bbox.HorizontalOverlap(model.BBox{X0: c.Start, Y0: bbox.Y0, X1: c.End, Y1: bbox.Y1})
		switch {
		case overlap > bestOverlap:
			best, bestOverlap = i, overlap
		case overlap == bestOverlap:
			center := (c.Start + c.End) / 2
			bestCenter := (columns[best].Start + columns[best].End) / 2
			if abs(bbox.CenterX()-center) < abs(bbox.CenterX()-bestCenter) {
				best = i
			}
		}
	}
	return best
}
