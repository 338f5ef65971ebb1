package layout

import (
	"strings"
	"testing"

	"github.com/pagelens/pagelens/model"
)

func typedBlock(x0, y0, x1, y1 float64, txt string, blockType model.BlockType, confidence float64) model.Block {
	return model.Block{
		BBox:       model.BBox{X0: x0, Y0: y0, X1: x1, Y1: y1},
		Text:       txt,
		Type:       blockType,
		Confidence: confidence,
	}
}

func TestMergeCaptions_FigureCaption(t *testing.T) {
	detector := NewSpanningBlockDetector()

	blocks := []model.Block{
		typedBlock(72, 100, 540, 300, "chart contents", model.BlockParagraph, 0.7),
		typedBlock(150, 310, 460, 322, "Figure 1: latency by configuration", model.BlockCaption, 0.85),
	}

	merged := detector.MergeCaptions(blocks)

	if len(merged) != 1 {
		t.Fatalf("expected the caption to merge with its figure, got %d blocks", len(merged))
	}
	m := merged[0]
	if m.Type != model.BlockFigure {
		t.Errorf("expected figure type, got %v", m.Type)
	}
	if !strings.Contains(m.Text, "chart contents") || !strings.Contains(m.Text, "Figure 1") {
		t.Errorf("merged text should contain both parts, got %q", m.Text)
	}
	if m.BBox.Y0 != 100 || m.BBox.Y1 != 322 {
		t.Errorf("merged bbox should be the union, got %+v", m.BBox)
	}
	// Weakest parent 0.7 discounted by the merge penalty.
	if m.Confidence >= 0.7 {
		t.Errorf("merged confidence must sit below the weakest parent, got %g", m.Confidence)
	}
}

func TestMergeCaptions_TableKeywordWins(t *testing.T) {
	detector := NewSpanningBlockDetector()

	blocks := []model.Block{
		typedBlock(72, 100, 540, 300, "rows and cells", model.BlockParagraph, 0.7),
		typedBlock(150, 310, 460, 322, "Table 2: summary of results", model.BlockCaption, 0.85),
	}

	merged := detector.MergeCaptions(blocks)

	if len(merged) != 1 {
		t.Fatalf("expected 1 merged block, got %d", len(merged))
	}
	if merged[0].Type != model.BlockTable {
		t.Errorf("table caption should produce a table block, got %v", merged[0].Type)
	}
}

func TestMergeCaptions_DistantCaptionLeftAlone(t *testing.T) {
	detector := NewSpanningBlockDetector()

	// The caption sits far below anything it could label.
	blocks := []model.Block{
		typedBlock(72, 100, 540, 120, "body text", model.BlockParagraph, 0.7),
		typedBlock(150, 700, 460, 712, "Figure 9: unrelated", model.BlockCaption, 0.85),
	}

	merged := detector.MergeCaptions(blocks)

	if len(merged) != 2 {
		t.Fatalf("expected no merge across a large gap, got %d blocks", len(merged))
	}
	for _, b := range merged {
		if b.Type == model.BlockFigure || b.Type == model.BlockTable {
			t.Errorf("no block should have been converted, got %v", b.Type)
		}
	}
}

func TestMergeCaptions_EachBlockMergesOnce(t *testing.T) {
	detector := NewSpanningBlockDetector()

	// Two captions competing for one content block: only one merges.
	blocks := []model.Block{
		typedBlock(72, 100, 540, 300, "chart contents", model.BlockParagraph, 0.7),
		typedBlock(150, 310, 460, 322, "Figure 1: first caption", model.BlockCaption, 0.85),
		typedBlock(150, 330, 460, 342, "Figure 2: second caption", model.BlockCaption, 0.85),
	}

	merged := detector.MergeCaptions(blocks)

	if len(merged) != 2 {
		t.Fatalf("expected 2 blocks after a single merge, got %d", len(merged))
	}
	figures := 0
	captions := 0
	for _, b := range merged {
		switch b.Type {
		case model.BlockFigure:
			figures++
		case model.BlockCaption:
			captions++
		}
	}
	if figures != 1 || captions != 1 {
		t.Errorf("expected one merge and one leftover caption, got %d figures, %d captions", figures, captions)
	}
}

func TestDetect_WideBlockSpans(t *testing.T) {
	detector := NewSpanningBlockDetector()
	columns := []model.Column{{Start: 0, End: 306}, {Start: 306, End: 612}}

	blocks := []model.Block{
		typedBlock(50, 100, 560, 150, "full width banner", model.BlockHeading, 0.8),
		typedBlock(50, 200, 250, 300, "left column text", model.BlockParagraph, 0.7),
		typedBlock(320, 200, 520, 300, "right column text", model.BlockParagraph, 0.7),
	}

	spanning := detector.Detect(blocks, columns)

	if len(spanning) != 1 {
		t.Fatalf("expected 1 spanning block, got %d", len(spanning))
	}
	if spanning[0].Text != "full width banner" {
		t.Errorf("wrong block flagged as spanning: %q", spanning[0].Text)
	}
	if !blocks[0].Spanning || blocks[0].Column != nil {
		t.Error("spanning flag must be set and column cleared on the input block")
	}
	if blocks[1].Spanning || blocks[2].Spanning {
		t.Error("single-column blocks must not be flagged")
	}
}

func TestDetect_NoColumnsNoSpanning(t *testing.T) {
	detector := NewSpanningBlockDetector()

	blocks := []model.Block{
		typedBlock(50, 100, 560, 150, "anything", model.BlockParagraph, 0.7),
	}

	if spanning := detector.Detect(blocks, nil); spanning != nil {
		t.Errorf("no columns means nothing can span, got %d blocks", len(spanning))
	}
}
