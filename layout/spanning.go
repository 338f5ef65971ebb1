package layout

import (
	"sort"
	"strings"

	"github.com/pagelens/pagelens/model"
)

// SpanningConfig holds configuration for spanning block detection and
// caption merging.
type SpanningConfig struct {
	// WidthFactor flags blocks wider than this multiple of the average
	// column width as spanning even when they sit inside one column.
	// Default: 1.4.
	WidthFactor float64

	// CaptionGapMultiplier scales the median block height to produce the
	// maximum vertical gap between a caption and its target block.
	// Default: 2.5.
	CaptionGapMultiplier float64

	// MinHorizontalOverlap is the minimum horizontal overlap ratio for a
	// caption merge candidate. Default: 0.3.
	MinHorizontalOverlap float64

	// MergePenalty scales the confidence of a merged block below the
	// weakest of its parts. Default: 0.9.
	MergePenalty float64
}

// DefaultSpanningConfig returns sensible default configuration.
func DefaultSpanningConfig() SpanningConfig {
	return SpanningConfig{
		WidthFactor:          1.4,
		CaptionGapMultiplier: 2.5,
		MinHorizontalOverlap: 0.3,
		MergePenalty:         0.9,
	}
}

// SpanningBlockDetector finds blocks that cross multiple columns and
// merges caption blocks with the figure or table content they label.
type SpanningBlockDetector struct {
	config SpanningConfig
}

// NewSpanningBlockDetector creates a detector with default configuration.
func NewSpanningBlockDetector() *SpanningBlockDetector {
	return &SpanningBlockDetector{config: DefaultSpanningConfig()}
}

// NewSpanningBlockDetectorWithConfig creates a detector with custom configuration.
func NewSpanningBlockDetectorWithConfig(config SpanningConfig) *SpanningBlockDetector {
	return &SpanningBlockDetector{config: config}
}

// MergeCaptions merges each caption block with the best-scoring adjacent
// non-caption block. The merged block takes the union bbox, the caption
// text appended to the content text, a figure or table type decided by
// the caption keyword, and the weakest parent confidence discounted by
// the merge penalty. Each block participates in at most one merge; the
// result is deduplicated and sorted by top edge.
func (d *SpanningBlockDetector) MergeCaptions(blocks []model.Block) []model.Block {
	if len(blocks) < 2 {
		return blocks
	}

	medianHeight := medianBlockHeight(blocks)
	maxGap := medianHeight * d.config.CaptionGapMultiplier

	used := make([]bool, len(blocks))
	var merged []model.Block

	for i := range blocks {
		if used[i] || blocks[i].Type != model.BlockCaption {
			continue
		}
		best := -1
		bestScore := 0.0
		for j := range blocks {
			if i == j || used[j] || blocks[j].Type == model.BlockCaption {
				continue
			}
			gap := blocks[i].BBox.VerticalGap(blocks[j].BBox)
			if gap > maxGap {
				continue
			}
			overlap := blocks[i].BBox.HorizontalOverlapRatio(blocks[j].BBox)
			if overlap < d.config.MinHorizontalOverlap {
				continue
			}
			score := gap + (1-overlap)*medianHeight
			if best < 0 || score < bestScore {
				best, bestScore = j, score
			}
		}
		if best < 0 {
			continue
		}
		used[i], used[best] = true, true
		merged = append(merged, d.merge(blocks[best], blocks[i]))
	}

	result := make([]model.Block, 0, len(blocks))
	for i := range blocks {
		if !used[i] {
			result = append(result, blocks[i])
		}
	}
	result = append(result, merged...)
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].BBox.Y0 != result[j].BBox.Y0 {
			return result[i].BBox.Y0 < result[j].BBox.Y0
		}
		return result[i].BBox.X0 < result[j].BBox.X0
	})
	return result
}

// merge combines a content block with its caption.
func (d *SpanningBlockDetector) merge(content, caption model.Block) model.Block {
	blockType := model.BlockFigure
	lower := strings.ToLower(caption.Text)
	if strings.Contains(lower, "table") || strings.Contains(lower, "tab.") {
		blockType = model.BlockTable
	}

	confidence := content.Confidence
	if caption.Confidence < confidence {
		confidence = caption.Confidence
	}

	return model.Block{
		BBox:       content.BBox.Union(caption.BBox),
		Text:       strings.TrimSpace(content.Text + " " + caption.Text),
		Type:       blockType,
		Confidence: clamp01(confidence * d.config.MergePenalty),
		Font:       content.Font,
	}
}

// Detect marks blocks that overlap at least two column intervals or are
// anomalously wide as spanning, clearing their column assignment, and
// returns the spanning subset sorted by top edge.
func (d *SpanningBlockDetector) Detect(blocks []model.Block, columns []model.Column) []model.Block {
	if len(blocks) == 0 || len(columns) == 0 {
		return nil
	}

	avgWidth := 0.0
	for _, c := range columns {
		avgWidth += c.Width()
	}
	avgWidth /= float64(len(columns))

	var spanning []model.Block
	for i := range blocks {
		b := &blocks[i]
		overlapped := 0
		for _, c := range columns {
			if b.BBox.X0 < c.End && b.BBox.X1 > c.Start {
				overlapped++
			}
		}
		if overlapped < 2 && b.BBox.Width() <= avgWidth*d.config.WidthFactor {
			continue
		}
		b.Spanning = true
		b.Column = nil
		spanning = append(spanning, *b)
	}
	sort.SliceStable(spanning, func(i, j int) bool {
		if spanning[i].BBox.Y0 != spanning[j].BBox.Y0 {
			return spanning[i].BBox.Y0 < spanning[j].BBox.Y0
		}
		return spanning[i].BBox.X0 < spanning[j].BBox.X0
	})
	return spanning
}

// medianBlockHeight returns the median bbox height over the blocks.
func medianBlockHeight(blocks []model.Block) float64 {
	heights := make([]float64, len(blocks))
	for i, b := range blocks {
		heights[i] = b.BBox.Height()
	}
	return median(heights)
}
