package layout

import (
	"sort"
	"strings"
	"unicode"

	"github.com/pagelens/pagelens/model"
)

// AssemblerConfig holds configuration for word, line, and block assembly.
type AssemblerConfig struct {
	// WordGapThreshold is the maximum horizontal gap between primitives
	// merged into one word. Default: 3 points.
	WordGapThreshold float64

	// LineTolerance is the maximum difference between a word's top edge
	// and the line's top edge for the word to join the line.
	// Default: 3.0 points.
	LineTolerance float64

	// LineSplitGap is the maximum horizontal gap between consecutive
	// words of one line; a wider gap splits the vertical band into
	// separate lines, so side-by-side column text never fuses.
	// Default: 30 points.
	LineSplitGap float64

	// LineGapMultiplier scales the median line height to produce the
	// maximum vertical gap between lines of the same block.
	// Default: 1.8; sensible values are 1.6 to 2.5.
	LineGapMultiplier float64
}

// DefaultAssemblerConfig returns sensible default configuration.
func DefaultAssemblerConfig() AssemblerConfig {
	return AssemblerConfig{
		WordGapThreshold:  3.0,
		LineTolerance:     3.0,
		LineSplitGap:      30.0,
		LineGapMultiplier: 1.8,
	}
}

// WordLineAssembler groups positioned primitives into words, words into
// lines, and lines into pre-classification blocks.
type WordLineAssembler struct {
	config AssemblerConfig
}

// NewWordLineAssembler creates an assembler with default configuration.
func NewWordLineAssembler() *WordLineAssembler {
	return &WordLineAssembler{config: DefaultAssemblerConfig()}
}

// NewWordLineAssemblerWithConfig creates an assembler with custom configuration.
func NewWordLineAssemblerWithConfig(config AssemblerConfig) *WordLineAssembler {
	return &WordLineAssembler{config: config}
}

// Assemble runs the full word, line, and block assembly for one page.
// Empty input yields an empty slice, never an error.
func (a *WordLineAssembler) Assemble(primitives []model.TextPrimitive) []model.Block {
	return a.AssembleBlocks(a.AssembleLines(a.AssembleWords(primitives)))
}

// AssembleWords merges adjacent co-linear primitives into words while the
// horizontal gap magnitude stays below the configured threshold, so
// slightly overlapping glyph runs merge too. Non-printable
// characters are dropped; primitives left empty after filtering are
// skipped.
func (a *WordLineAssembler) AssembleWords(primitives []model.TextPrimitive) []model.Word {
	if len(primitives) == 0 {
		return nil
	}

	sorted := make([]model.TextPrimitive, 0, len(primitives))
	for _, p := range primitives {
		text := filterPrintable(p.Text)
		if text == "" {
			continue
		}
		p.Text = text
		sorted = append(sorted, p)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].BBox.Y0 != sorted[j].BBox.Y0 {
			return sorted[i].BBox.Y0 < sorted[j].BBox.Y0
		}
		return sorted[i].BBox.X0 < sorted[j].BBox.X0
	})

	var words []model.Word
	var current *model.Word
	for _, p := range sorted {
		if current != nil {
			// Kerned or ligature glyph runs can overlap slightly, so
			// the gap may go a little negative and still merge.
			gap := p.BBox.X0 - current.BBox.X1
			sameBand := abs(p.BBox.Y0-current.BBox.Y0) <= a.config.LineTolerance
			if sameBand && abs(gap) < a.config.WordGapThreshold {
				current.Text += p.Text
				current.BBox = current.BBox.Union(p.BBox)
				continue
			}
			words = append(words, *current)
		}
		current = &model.Word{
			BBox:     p.BBox,
			Text:     p.Text,
			FontName: p.FontName,
			FontSize: p.FontSize,
		}
	}
	if current != nil {
		words = append(words, *current)
	}
	return words
}

// AssembleLines groups words sharing a vertical band into lines. Words
// within each line are ordered left to right and joined with single
// spaces.
func (a *WordLineAssembler) AssembleLines(words []model.Word) []model.Line {
	if len(words) == 0 {
		return nil
	}

	sorted := make([]model.Word, len(words))
	copy(sorted, words)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].BBox.Y0 != sorted[j].BBox.Y0 {
			return sorted[i].BBox.Y0 < sorted[j].BBox.Y0
		}
		return sorted[i].BBox.X0 < sorted[j].BBox.X0
	})

	var lines []model.Line
	var group []model.Word
	lineTop := 0.0
	flush := func() {
		if len(group) > 0 {
			for _, run := range a.splitBand(group) {
				lines = append(lines, a.buildLine(run))
			}
			group = nil
		}
	}
	for _, w := range sorted {
		if len(group) == 0 {
			lineTop = w.BBox.Y0
			group = append(group, w)
			continue
		}
		if abs(w.BBox.Y0-lineTop) <= a.config.LineTolerance {
			group = append(group, w)
		} else {
			flush()
			lineTop = w.BBox.Y0
			group = append(group, w)
		}
	}
	flush()
	return lines
}

// splitBand cuts a vertical band of words into runs wherever the
// horizontal gap between consecutive words exceeds the split threshold.
// Column gaps are far wider than word spacing, so each run stays inside
// one column.
func (a *WordLineAssembler) splitBand(band []model.Word) [][]model.Word {
	sort.SliceStable(band, func(i, j int) bool {
		return band[i].BBox.X0 < band[j].BBox.X0
	})

	var runs [][]model.Word
	current := []model.Word{band[0]}
	for _, w := range band[1:] {
		if w.BBox.X0-current[len(current)-1].BBox.X1 > a.config.LineSplitGap {
			runs = append(runs, current)
			current = nil
		}
		current = append(current, w)
	}
	return append(runs, current)
}

// buildLine constructs a Line from a word group, computing the bbox,
// joined text, and representative font size.
func (a *WordLineAssembler) buildLine(group []model.Word) model.Line {
	sort.SliceStable(group, func(i, j int) bool {
		return group[i].BBox.X0 < group[j].BBox.X0
	})

	bbox := group[0].BBox
	var sb strings.Builder
	for i, w := range group {
		if i > 0 {
			sb.WriteString(" ")
			bbox = bbox.Union(w.BBox)
		}
		sb.WriteString(w.Text)
	}

	words := make([]model.Word, len(group))
	copy(words, group)
	size, name := dominantFont(group)
	return model.Line{
		BBox:     bbox,
		Words:    words,
		Text:     sb.String(),
		FontName: name,
		FontSize: size,
	}
}

// AssembleBlocks merges lines into blocks. A line joins the group it
// horizontally overlaps whose bottom edge is within the adaptive gap
// threshold derived from the median line height; side-by-side column
// text therefore forms separate blocks even though the lines interleave
// vertically. Blocks are returned sorted by top edge.
func (a *WordLineAssembler) AssembleBlocks(lines []model.Line) []model.Block {
	if len(lines) == 0 {
		return nil
	}

	sorted := make([]model.Line, len(lines))
	copy(sorted, lines)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].BBox.Y0 != sorted[j].BBox.Y0 {
			return sorted[i].BBox.Y0 < sorted[j].BBox.Y0
		}
		return sorted[i].BBox.X0 < sorted[j].BBox.X0
	})

	maxGap := MedianLineHeight(sorted) * a.config.LineGapMultiplier

	type lineGroup struct {
		lines []model.Line
		bbox  model.BBox
	}
	var groups []*lineGroup
	for _, line := range sorted {
		var best *lineGroup
		bestOverlap := 0.0
		for _, g := range groups {
			last := g.lines[len(g.lines)-1]
			if line.BBox.Y0-last.BBox.Y1 > maxGap {
				continue
			}
			overlap := line.BBox.HorizontalOverlapRatio(g.bbox)
			if overlap > bestOverlap {
				best, bestOverlap = g, overlap
			}
		}
		if best == nil {
			groups = append(groups, &lineGroup{lines: []model.Line{line}, bbox: line.BBox})
			continue
		}
		best.lines = append(best.lines, line)
		best.bbox = best.bbox.Union(line.BBox)
	}

	blocks := make([]model.Block, 0, len(groups))
	for _, g := range groups {
		blocks = append(blocks, a.buildBlock(g.lines))
	}
	sort.SliceStable(blocks, func(i, j int) bool {
		if blocks[i].BBox.Y0 != blocks[j].BBox.Y0 {
			return blocks[i].BBox.Y0 < blocks[j].BBox.Y0
		}
		return blocks[i].BBox.X0 < blocks[j].BBox.X0
	})
	return blocks
}

// buildBlock constructs a pre-classification block from a line group.
// Blocks start life as paragraphs with full confidence; classification
// replaces both fields.
func (a *WordLineAssembler) buildBlock(group []model.Line) model.Block {
	bbox := group[0].BBox
	var sb strings.Builder
	for i, line := range group {
		if i > 0 {
			sb.WriteString(" ")
			bbox = bbox.Union(line.BBox)
		}
		sb.WriteString(line.Text)
	}

	var font *model.FontInfo
	if size, name := dominantLineFont(group); size > 0 || name != "" {
		font = &model.FontInfo{Name: name, Size: size}
	}
	return model.Block{
		BBox:       bbox,
		Text:       sb.String(),
		Type:       model.BlockParagraph,
		Confidence: 1.0,
		Font:       font,
	}
}

// MedianLineHeight returns the median height of the given lines, or 0
// for an empty slice.
func MedianLineHeight(lines []model.Line) float64 {
	if len(lines) == 0 {
		return 0
	}
	heights := make([]float64, len(lines))
	for i, l := range lines {
		heights[i] = l.BBox.Height()
	}
	return median(heights)
}

// dominantFont returns the most common font size in a word group and the
// font name of the first word carrying one. Ties go to the size seen
// first.
func dominantFont(words []model.Word) (float64, string) {
	counts := make(map[float64]int)
	order := make([]float64, 0, len(words))
	name := ""
	for _, w := range words {
		if w.FontSize > 0 {
			if counts[w.FontSize] == 0 {
				order = append(order, w.FontSize)
			}
			counts[w.FontSize]++
		}
		if name == "" && w.FontName != "" {
			name = w.FontName
		}
	}
	best, bestCount := 0.0, 0
	for _, size := range order {
		if counts[size] > bestCount {
			best, bestCount = size, counts[size]
		}
	}
	return best, name
}

// dominantLineFont returns the most common line font size in a group and
// the first non-empty font name.
func dominantLineFont(lines []model.Line) (float64, string) {
	counts := make(map[float64]int)
	order := make([]float64, 0, len(lines))
	name := ""
	for _, l := range lines {
		if l.FontSize > 0 {
			if counts[l.FontSize] == 0 {
				order = append(order, l.FontSize)
			}
			counts[l.FontSize]++
		}
		if name == "" && l.FontName != "" {
			name = l.FontName
		}
	}
	best, bestCount := 0.0, 0
	for _, size := range order {
		if counts[size] > bestCount {
			best, bestCount = size, counts[size]
		}
	}
	return best, name
}

// filterPrintable drops non-printable runes, keeping regular spaces.
func filterPrintable(s string) string {
	return strings.Map(func(r rune) rune {
		if r == ' ' || unicode.IsPrint(r) {
			return r
		}
		return -1
	}, s)
}

// median returns the median of values, averaging the middle pair for
// even counts. The input slice is sorted in place.
func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sort.Float64s(values)
	mid := len(values) / 2
	if len(values)%2 == 0 {
		return (values[mid-1] + values[mid]) / 2
	}
	return values[mid]
}

// abs returns the absolute value of a float64.
func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
