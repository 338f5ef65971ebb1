package layout

import (
	"testing"

	"github.com/pagelens/pagelens/model"
)

// Helper to create a text primitive
func makePrimitive(x0, y0, x1, y1 float64, txt string, size float64) model.TextPrimitive {
	return model.TextPrimitive{
		BBox:     model.BBox{X0: x0, Y0: y0, X1: x1, Y1: y1},
		Text:     txt,
		FontName: "Helvetica",
		FontSize: size,
	}
}

// Helper to create a line with a single word
func makeLine(x0, y0, x1, y1 float64, txt string, size float64) model.Line {
	word := model.Word{
		BBox:     model.BBox{X0: x0, Y0: y0, X1: x1, Y1: y1},
		Text:     txt,
		FontSize: size,
	}
	return model.Line{
		BBox:     word.BBox,
		Words:    []model.Word{word},
		Text:     txt,
		FontSize: size,
	}
}

func TestAssembleWords_EmptyInput(t *testing.T) {
	assembler := NewWordLineAssembler()

	if words := assembler.AssembleWords(nil); len(words) != 0 {
		t.Errorf("expected no words for empty input, got %d", len(words))
	}
}

func TestAssembleWords_MergesAdjacentGlyphs(t *testing.T) {
	assembler := NewWordLineAssembler()

	// Three glyph runs of the same word, separated by sub-threshold gaps,
	// then a second word after a wide gap.
	primitives := []model.TextPrimitive{
		makePrimitive(72, 100, 80, 110, "He", 10),
		makePrimitive(81, 100, 92, 110, "ll", 10),
		makePrimitive(93, 100, 100, 110, "o", 10),
		makePrimitive(120, 100, 150, 110, "world", 10),
	}

	words := assembler.AssembleWords(primitives)

	if len(words) != 2 {
		t.Fatalf("expected 2 words, got %d", len(words))
	}
	if words[0].Text != "Hello" {
		t.Errorf("expected merged word %q, got %q", "Hello", words[0].Text)
	}
	if words[0].BBox.X0 != 72 || words[0].BBox.X1 != 100 {
		t.Errorf("merged word bbox should cover all glyphs, got %+v", words[0].BBox)
	}
	if words[1].Text != "world" {
		t.Errorf("expected second word %q, got %q", "world", words[1].Text)
	}
}

func TestAssembleWords_MergesOverlappingGlyphRuns(t *testing.T) {
	assembler := NewWordLineAssembler()

	// Kerned pairs and ligatures overlap their neighbours by a point or
	// so; the runs still belong to one word. A heavily overprinted run
	// stays separate.
	primitives := []model.TextPrimitive{
		makePrimitive(72, 100, 82, 110, "V", 10),
		makePrimitive(81, 100, 90, 110, "a", 10),
		makePrimitive(85, 100, 120, 110, "stamp", 10),
	}

	words := assembler.AssembleWords(primitives)

	if len(words) != 2 {
		t.Fatalf("expected 2 words, got %d", len(words))
	}
	if words[0].Text != "Va" {
		t.Errorf("expected merged word %q, got %q", "Va", words[0].Text)
	}
	if words[0].BBox.X0 != 72 || words[0].BBox.X1 != 90 {
		t.Errorf("merged word bbox should cover both runs, got %+v", words[0].BBox)
	}
	if words[1].Text != "stamp" {
		t.Errorf("expected overprinted run kept separate, got %q", words[1].Text)
	}
}

func TestAssembleWords_DropsNonPrintable(t *testing.T) {
	assembler := NewWordLineAssembler()

	primitives := []model.TextPrimitive{
		makePrimitive(72, 100, 100, 110, "ok\x00\x01", 10),
		makePrimitive(120, 100, 130, 110, "\x02\x03", 10),
	}

	words := assembler.AssembleWords(primitives)

	if len(words) != 1 {
		t.Fatalf("expected 1 word after filtering, got %d", len(words))
	}
	if words[0].Text != "ok" {
		t.Errorf("expected filtered text %q, got %q", "ok", words[0].Text)
	}
}

func TestAssembleLines_GroupsByVerticalBand(t *testing.T) {
	assembler := NewWordLineAssembler()

	words := []model.Word{
		{BBox: model.BBox{X0: 150, Y0: 100, X1: 200, Y1: 110}, Text: "second"},
		{BBox: model.BBox{X0: 72, Y0: 101, X1: 140, Y1: 111}, Text: "first"},
		{BBox: model.BBox{X0: 72, Y0: 120, X1: 140, Y1: 130}, Text: "below"},
	}

	lines := assembler.AssembleLines(words)

	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0].Text != "first second" {
		t.Errorf("words within a line should be ordered left to right, got %q", lines[0].Text)
	}
	if lines[1].Text != "below" {
		t.Errorf("expected second line %q, got %q", "below", lines[1].Text)
	}
}

func TestAssembleBlocks_SplitsOnLargeGap(t *testing.T) {
	assembler := NewWordLineAssembler()

	// Two tight paragraphs separated by a gap well above the adaptive
	// threshold (median height 10, multiplier 1.8).
	lines := []model.Line{
		makeLine(72, 100, 300, 110, "Paragraph one, line one.", 10),
		makeLine(72, 113, 300, 123, "Paragraph one, line two.", 10),
		makeLine(72, 170, 300, 180, "Paragraph two starts here.", 10),
	}

	blocks := assembler.AssembleBlocks(lines)

	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(blocks))
	}
	if blocks[0].Text != "Paragraph one, line one. Paragraph one, line two." {
		t.Errorf("unexpected first block text %q", blocks[0].Text)
	}
	if blocks[1].Text != "Paragraph two starts here." {
		t.Errorf("unexpected second block text %q", blocks[1].Text)
	}
}

func TestAssembleBlocks_KeepsColumnsSeparate(t *testing.T) {
	assembler := NewWordLineAssembler()

	// Side-by-side columns: the lines interleave vertically but must not
	// fuse into one page-wide block.
	var lines []model.Line
	for i := 0; i < 5; i++ {
		y := 100.0 + float64(i)*13
		lines = append(lines, makeLine(50, y, 250, y+10, "left column text", 10))
		lines = append(lines, makeLine(320, y, 520, y+10, "right column text", 10))
	}

	blocks := assembler.AssembleBlocks(lines)

	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks for two columns, got %d", len(blocks))
	}
	if blocks[0].BBox.X1 > 300 == (blocks[1].BBox.X1 > 300) {
		t.Error("expected one block per column")
	}
}

func TestAssembleBlocks_DominantFontCarriesOver(t *testing.T) {
	assembler := NewWordLineAssembler()

	lines := []model.Line{
		makeLine(72, 100, 300, 112, "First line", 12),
		makeLine(72, 115, 300, 127, "Second line", 12),
		makeLine(72, 130, 300, 140, "A stray small line", 10),
	}

	blocks := assembler.AssembleBlocks(lines)

	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(blocks))
	}
	if blocks[0].Font == nil || blocks[0].Font.Size != 12 {
		t.Errorf("expected dominant font size 12, got %+v", blocks[0].Font)
	}
}

func TestMedianLineHeight(t *testing.T) {
	lines := []model.Line{
		makeLine(0, 0, 10, 10, "a", 10),
		makeLine(0, 20, 10, 32, "b", 12),
		makeLine(0, 40, 10, 54, "c", 14),
	}

	if h := MedianLineHeight(lines); h != 12 {
		t.Errorf("expected median height 12, got %g", h)
	}
	if h := MedianLineHeight(nil); h != 0 {
		t.Errorf("expected 0 for no lines, got %g", h)
	}
}
